package api

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/dgallion1/docstruct/internal/storage"
	"github.com/go-chi/chi/v5"
)

// handleExportCSV streams a document's elements as CSV, optionally
// restricted to one element type.
func (s *Server) handleExportCSV(w http.ResponseWriter, r *http.Request) {
	docUUID := chi.URLParam(r, "docUUID")
	doc, err := s.store.GetDocument(r.Context(), docUUID)
	if err != nil {
		jsonError(w, "failed to get document: "+err.Error(), http.StatusInternalServerError)
		return
	}
	if doc == nil {
		jsonError(w, "document not found", http.StatusNotFound)
		return
	}

	elementType := r.URL.Query().Get("element_type")
	elements, err := s.store.GetElements(r.Context(), docUUID, storage.ElementFilter{Type: elementType})
	if err != nil {
		jsonError(w, "failed to get elements: "+err.Error(), http.StatusInternalServerError)
		return
	}
	if len(elements) == 0 {
		name := elementType
		if name == "" {
			name = "elements"
		}
		jsonError(w, fmt.Sprintf("no %s found", name), http.StatusNotFound)
		return
	}

	typeSuffix := "_all"
	if elementType != "" {
		typeSuffix = "_" + elementType
	}
	filename := doc.Filename + typeSuffix + ".csv"

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", "attachment; filename="+filename)

	cw := csv.NewWriter(w)
	cw.Write([]string{"ID", "Page", "Type", "Content"})
	for _, e := range elements {
		cw.Write([]string{
			strconv.FormatInt(e.ID, 10),
			strconv.Itoa(e.PageNumber),
			e.Type,
			e.Content,
		})
	}
	cw.Flush()
}

// handleExportJSON returns document metadata plus statistics as a
// downloadable JSON attachment.
func (s *Server) handleExportJSON(w http.ResponseWriter, r *http.Request) {
	docUUID := chi.URLParam(r, "docUUID")
	doc, err := s.store.GetDocument(r.Context(), docUUID)
	if err != nil {
		jsonError(w, "failed to get document: "+err.Error(), http.StatusInternalServerError)
		return
	}
	if doc == nil {
		jsonError(w, "document not found", http.StatusNotFound)
		return
	}

	st, err := s.store.GetStatistics(r.Context(), docUUID)
	if err != nil {
		jsonError(w, "failed to get statistics: "+err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", "attachment; filename="+doc.Filename+"_metadata.json")

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.Encode(map[string]any{
		"document_info": doc,
		"statistics":    st,
	})
}
