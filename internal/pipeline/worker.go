package pipeline

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/dgallion1/docstruct/internal/element"
	"github.com/dgallion1/docstruct/internal/render"
	"github.com/dgallion1/docstruct/internal/stats"
	"github.com/dgallion1/docstruct/internal/storage"
)

// Worker processes a single document job: render into layout
// primitives, classify them into elements, aggregate statistics, store
// everything.
type Worker struct {
	store     *storage.Store
	procStats *ProcessingStats
	log       *slog.Logger
}

func NewWorker(store *storage.Store, procStats *ProcessingStats, log *slog.Logger) *Worker {
	return &Worker{
		store:     store,
		procStats: procStats,
		log:       log,
	}
}

// Process runs the full extraction pipeline for a job.
func (w *Worker) Process(ctx context.Context, job *Job) {
	log := w.log.With("job_id", job.ID, "filename", job.Filename)
	start := time.Now()

	// Phase 1: Render layout primitives.
	job.SetStatus(StatusRendering, "rendering")
	renderer, err := render.ForFile(job.Filename)
	if err != nil {
		log.Error("unsupported format", "error", err)
		job.AddError(err.Error())
		job.SetStatus(StatusFailed, "rendering")
		return
	}

	doc, err := renderer.Render(bytes.NewReader(job.FileData()), job.Filename)
	if err != nil {
		log.Error("render failed", "error", err)
		job.AddError(fmt.Sprintf("render: %s", err))
		job.SetStatus(StatusFailed, "rendering")
		return
	}
	pageCount := doc.PageCount()
	job.SetTotalPages(pageCount)
	if pageCount == 0 {
		job.AddError("document has no pages")
		job.SetStatus(StatusFailed, "rendering")
		return
	}

	// Phase 2: Classify primitives page by page, preserving emission
	// order across pages.
	job.SetStatus(StatusClassifying, "classifying")
	var elements []element.Element
	for _, page := range doc.Pages {
		pageElems, err := element.FromPage(page)
		if err != nil {
			log.Error("classification failed", "page", page.Number, "error", err)
			job.AddError(fmt.Sprintf("page %d: %s", page.Number, err))
			job.SetStatus(StatusFailed, "classifying")
			return
		}
		elements = append(elements, pageElems...)
	}
	job.SetElementsFound(len(elements))
	log.Info("classified document", "pages", pageCount, "elements", len(elements))

	// Phase 3: Aggregate statistics.
	job.SetStatus(StatusAggregating, "aggregating")
	st, err := stats.Aggregate(pageCount, elements)
	if err != nil {
		log.Error("aggregation failed", "error", err)
		job.AddError(fmt.Sprintf("aggregate: %s", err))
		job.SetStatus(StatusFailed, "aggregating")
		return
	}

	// Phase 4: Store.
	job.SetStatus(StatusStoring, "storing")
	docUUID, err := w.store.SaveDocument(ctx, job.Filename, pageCount, elements, st)
	if err != nil {
		log.Error("store failed", "error", err)
		job.AddError(fmt.Sprintf("store: %s", err))
		job.SetStatus(StatusFailed, "storing")
		return
	}

	job.SetDocumentUUID(docUUID)
	job.SetStatus(StatusCompleted, "done")
	w.procStats.Record(time.Since(start).Milliseconds())
	log.Info("extraction complete",
		"document_uuid", docUUID,
		"elements", len(elements),
		"duration_ms", time.Since(start).Milliseconds(),
	)
}
