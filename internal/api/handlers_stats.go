package api

import (
	"encoding/json"
	"math"
	"net/http"

	"github.com/dgallion1/docstruct/internal/stats"
)

// handleGlobalStatistics aggregates averages across every stored
// document.
func (s *Server) handleGlobalStatistics(w http.ResponseWriter, r *http.Request) {
	all, err := s.store.AllStatistics(r.Context())
	if err != nil {
		jsonError(w, "failed to load statistics: "+err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if len(all) == 0 {
		json.NewEncoder(w).Encode(map[string]any{
			"message":           "no documents found",
			"global_statistics": map[string]any{},
		})
		return
	}

	summary, err := s.store.ElementTypeSummary(r.Context())
	if err != nil {
		jsonError(w, "failed to load element summary: "+err.Error(), http.StatusInternalServerError)
		return
	}

	json.NewEncoder(w).Encode(map[string]any{
		"global_statistics": map[string]any{
			"total_documents":      len(all),
			"element_type_summary": summary,
			"averages_across_documents": map[string]float64{
				"avg_titles_per_document":   avgOf(all, func(st stats.DocumentStatistics) float64 { return float64(st.TitleCount) }),
				"avg_sections_per_document": avgOf(all, func(st stats.DocumentStatistics) float64 { return float64(st.SectionCount) }),
				"avg_tables_per_document":   avgOf(all, func(st stats.DocumentStatistics) float64 { return float64(st.TableCount) }),
				"avg_images_per_document":   avgOf(all, func(st stats.DocumentStatistics) float64 { return float64(st.ImageCount) }),
				"avg_paragraph_length":      avgOf(all, func(st stats.DocumentStatistics) float64 { return st.AvgParagraphLength }),
				"avg_text_density_per_page": avgOf(all, func(st stats.DocumentStatistics) float64 { return st.AvgTextDensityPerPage }),
			},
		},
	})
}

func avgOf(all []stats.DocumentStatistics, f func(stats.DocumentStatistics) float64) float64 {
	sum := 0.0
	for _, st := range all {
		sum += f(st)
	}
	return math.Round(sum/float64(len(all))*100) / 100
}

// handleProcessingStats reports the rolling per-document processing
// latency window.
func (s *Server) handleProcessingStats(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"queue_depth": s.orchestrator.QueueDepth(),
		"stats":       s.orchestrator.ProcessingStats().Snapshot(),
	})
}
