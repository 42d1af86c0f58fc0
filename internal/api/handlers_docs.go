package api

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/dgallion1/docstruct/internal/storage"
	"github.com/go-chi/chi/v5"
)

// handleListDocuments lists processed documents, most recent first.
func (s *Server) handleListDocuments(w http.ResponseWriter, r *http.Request) {
	limit := 100
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > s.cfg.MaxListLimit {
			jsonError(w, "limit must be between 1 and "+strconv.Itoa(s.cfg.MaxListLimit), http.StatusBadRequest)
			return
		}
		limit = n
	}

	docs, err := s.store.ListDocuments(r.Context(), limit)
	if err != nil {
		jsonError(w, "failed to list documents: "+err.Error(), http.StatusInternalServerError)
		return
	}
	if docs == nil {
		docs = []storage.DocumentRecord{}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"documents": docs,
		"count":     len(docs),
	})
}

func (s *Server) handleGetDocument(w http.ResponseWriter, r *http.Request) {
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

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(doc)
}

// handleGetElements returns a document's elements with optional
// element_type and page_number filters.
func (s *Server) handleGetElements(w http.ResponseWriter, r *http.Request) {
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

	var filter storage.ElementFilter
	filter.Type = r.URL.Query().Get("element_type")
	if v := r.URL.Query().Get("page_number"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			jsonError(w, "page_number must be a positive integer", http.StatusBadRequest)
			return
		}
		filter.PageNumber = n
	}

	elements, err := s.store.GetElements(r.Context(), docUUID, filter)
	if err != nil {
		jsonError(w, "failed to get elements: "+err.Error(), http.StatusInternalServerError)
		return
	}
	if elements == nil {
		elements = []storage.StoredElement{}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"document_uuid": docUUID,
		"filename":      doc.Filename,
		"elements":      elements,
		"count":         len(elements),
		"filters": map[string]any{
			"element_type": filter.Type,
			"page_number":  filter.PageNumber,
		},
	})
}

func (s *Server) handleGetStatistics(w http.ResponseWriter, r *http.Request) {
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
	if st == nil {
		jsonError(w, "statistics not found", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"document_uuid": docUUID,
		"filename":      doc.Filename,
		"processed_at":  doc.ProcessedAt,
		"statistics":    st,
	})
}

// handleDeleteDocument removes a document and its elements/statistics.
func (s *Server) handleDeleteDocument(w http.ResponseWriter, r *http.Request) {
	docUUID := chi.URLParam(r, "docUUID")
	deleted, err := s.store.DeleteDocument(r.Context(), docUUID)
	if err != nil {
		jsonError(w, "failed to delete document: "+err.Error(), http.StatusInternalServerError)
		return
	}
	if !deleted {
		jsonError(w, "document not found", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"document_uuid": docUUID,
		"deleted":       true,
	})
}
