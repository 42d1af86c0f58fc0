package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/dgallion1/docstruct/internal/config"
	"github.com/dgallion1/docstruct/internal/pipeline"
	"github.com/dgallion1/docstruct/internal/storage"
)

const testAPIKey = "test-key"

func testServer(t *testing.T) (*Server, *pipeline.Orchestrator) {
	t.Helper()
	store, err := storage.Open(filepath.Join(t.TempDir(), "test.sqlite"))
	if err != nil {
		t.Fatalf("storage.Open: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	cfg := config.Config{
		APIKey:         testAPIKey,
		WorkerCount:    2,
		MaxQueueSize:   10,
		MaxUploadBytes: 1 << 20,
		MaxListLimit:   1000,
		JobTTL:         time.Hour,
	}
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	orch := pipeline.NewOrchestrator(cfg, store, log)
	orch.Start(context.Background())
	t.Cleanup(orch.Stop)

	return NewServer(orch, log, cfg), orch
}

func authGet(t *testing.T, s *Server, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	req.Header.Set("Authorization", "Bearer "+testAPIKey)
	w := httptest.NewRecorder()
	s.ServeHTTP(w, req)
	return w
}

func uploadMarkdown(t *testing.T, s *Server, filename, content string) string {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", filename)
	if err != nil {
		t.Fatalf("CreateFormFile: %v", err)
	}
	fw.Write([]byte(content))
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/documents", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+testAPIKey)
	w := httptest.NewRecorder()
	s.ServeHTTP(w, req)

	if w.Code != http.StatusAccepted {
		t.Fatalf("upload status = %d, body = %s", w.Code, w.Body.String())
	}
	var resp struct {
		JobID   string `json:"job_id"`
		PollURL string `json:"poll_url"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode upload response: %v", err)
	}
	if resp.JobID == "" || resp.PollURL == "" {
		t.Fatalf("upload response missing job id or poll url: %s", w.Body.String())
	}
	return resp.JobID
}

// waitForDocument polls the job until completion and returns the stored
// document UUID.
func waitForDocument(t *testing.T, s *Server, jobID string) string {
	t.Helper()
	deadline := time.After(5 * time.Second)
	for {
		w := authGet(t, s, "/api/ingest/"+jobID+"/status")
		if w.Code != http.StatusOK {
			t.Fatalf("status poll = %d: %s", w.Code, w.Body.String())
		}
		var snap pipeline.JobSnapshot
		if err := json.Unmarshal(w.Body.Bytes(), &snap); err != nil {
			t.Fatalf("decode status: %v", err)
		}
		switch snap.Status {
		case pipeline.StatusCompleted:
			if snap.DocumentUUID == "" {
				t.Fatal("completed job has no document uuid")
			}
			return snap.DocumentUUID
		case pipeline.StatusFailed:
			t.Fatalf("job failed: %v", snap.Progress.Errors)
		}
		select {
		case <-deadline:
			t.Fatalf("job stuck in %s", snap.Status)
		case <-time.After(10 * time.Millisecond):
		}
	}
}

const sampleDoc = `# Quarterly Report

### Highlights

Revenue grew steadily across every region this quarter, with particular strength
in the newly opened markets where adoption continues to exceed the original
projections made at launch.

- margin improved
- churn went down
`

func TestHealthIsPublic(t *testing.T) {
	s, _ := testServer(t)
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()
	s.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Errorf("health = %d", w.Code)
	}
}

func TestAuthRequired(t *testing.T) {
	s, _ := testServer(t)

	req := httptest.NewRequest(http.MethodGet, "/api/documents", nil)
	w := httptest.NewRecorder()
	s.ServeHTTP(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("no auth = %d, want 401", w.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/documents", nil)
	req.Header.Set("Authorization", "Bearer wrong-key")
	w = httptest.NewRecorder()
	s.ServeHTTP(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("bad key = %d, want 401", w.Code)
	}
}

func TestUploadAndRetrieve(t *testing.T) {
	s, _ := testServer(t)

	jobID := uploadMarkdown(t, s, "report.md", sampleDoc)
	docUUID := waitForDocument(t, s, jobID)

	// Document metadata.
	w := authGet(t, s, "/api/documents/"+docUUID)
	if w.Code != http.StatusOK {
		t.Fatalf("get document = %d: %s", w.Code, w.Body.String())
	}
	var doc storage.DocumentRecord
	if err := json.Unmarshal(w.Body.Bytes(), &doc); err != nil {
		t.Fatalf("decode document: %v", err)
	}
	if doc.Filename != "report.md" || doc.PageCount != 1 {
		t.Errorf("document = %+v", doc)
	}

	// Listing includes it.
	w = authGet(t, s, "/api/documents")
	var list struct {
		Count int `json:"count"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &list); err != nil {
		t.Fatalf("decode list: %v", err)
	}
	if list.Count != 1 {
		t.Errorf("list count = %d", list.Count)
	}

	// Elements with a type filter.
	w = authGet(t, s, "/api/documents/"+docUUID+"/elements?element_type=list_item")
	var elems struct {
		Count    int                     `json:"count"`
		Elements []storage.StoredElement `json:"elements"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &elems); err != nil {
		t.Fatalf("decode elements: %v", err)
	}
	if elems.Count != 2 {
		t.Errorf("list_item count = %d, want 2", elems.Count)
	}
	for _, e := range elems.Elements {
		if e.Type != "list_item" {
			t.Errorf("filter leak: %+v", e)
		}
	}

	// Statistics.
	w = authGet(t, s, "/api/documents/"+docUUID+"/statistics")
	if w.Code != http.StatusOK {
		t.Fatalf("statistics = %d: %s", w.Code, w.Body.String())
	}
	var statsResp struct {
		Statistics struct {
			TitleCount int `json:"title_count"`
		} `json:"statistics"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &statsResp); err != nil {
		t.Fatalf("decode statistics: %v", err)
	}
	if statsResp.Statistics.TitleCount != 1 {
		t.Errorf("title count = %d", statsResp.Statistics.TitleCount)
	}
}

func TestUploadRejectsUnsupportedType(t *testing.T) {
	s, _ := testServer(t)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, _ := mw.CreateFormFile("file", "image.png")
	fw.Write([]byte("png bytes"))
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/documents", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+testAPIKey)
	w := httptest.NewRecorder()
	s.ServeHTTP(w, req)
	if w.Code != http.StatusBadRequest {
		t.Errorf("unsupported upload = %d, want 400", w.Code)
	}
}

func TestJobStatusNotFound(t *testing.T) {
	s, _ := testServer(t)
	w := authGet(t, s, "/api/ingest/nonexistent/status")
	if w.Code != http.StatusNotFound {
		t.Errorf("unknown job = %d, want 404", w.Code)
	}
}

func TestExportCSV(t *testing.T) {
	s, _ := testServer(t)
	jobID := uploadMarkdown(t, s, "report.md", sampleDoc)
	docUUID := waitForDocument(t, s, jobID)

	w := authGet(t, s, "/api/documents/"+docUUID+"/export/csv")
	if w.Code != http.StatusOK {
		t.Fatalf("export csv = %d: %s", w.Code, w.Body.String())
	}
	if ct := w.Header().Get("Content-Type"); ct != "text/csv" {
		t.Errorf("content type = %q", ct)
	}
	if cd := w.Header().Get("Content-Disposition"); !strings.Contains(cd, "attachment") {
		t.Errorf("disposition = %q", cd)
	}
	lines := strings.Split(strings.TrimSpace(w.Body.String()), "\n")
	if lines[0] != "ID,Page,Type,Content" {
		t.Errorf("header row = %q", lines[0])
	}
	if len(lines) < 2 {
		t.Error("no data rows exported")
	}

	// Filtered export with no matches is a 404.
	w = authGet(t, s, "/api/documents/"+docUUID+"/export/csv?element_type=table")
	if w.Code != http.StatusNotFound {
		t.Errorf("empty export = %d, want 404", w.Code)
	}
}

func TestExportJSON(t *testing.T) {
	s, _ := testServer(t)
	jobID := uploadMarkdown(t, s, "report.md", sampleDoc)
	docUUID := waitForDocument(t, s, jobID)

	w := authGet(t, s, "/api/documents/"+docUUID+"/export/json")
	if w.Code != http.StatusOK {
		t.Fatalf("export json = %d: %s", w.Code, w.Body.String())
	}
	var resp struct {
		DocumentInfo storage.DocumentRecord `json:"document_info"`
		Statistics   *json.RawMessage       `json:"statistics"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode export: %v", err)
	}
	if resp.DocumentInfo.Filename != "report.md" {
		t.Errorf("document info = %+v", resp.DocumentInfo)
	}
	if resp.Statistics == nil {
		t.Error("statistics missing from export")
	}
}

func TestDeleteDocument(t *testing.T) {
	s, _ := testServer(t)
	jobID := uploadMarkdown(t, s, "report.md", sampleDoc)
	docUUID := waitForDocument(t, s, jobID)

	req := httptest.NewRequest(http.MethodDelete, "/api/documents/"+docUUID, nil)
	req.Header.Set("Authorization", "Bearer "+testAPIKey)
	w := httptest.NewRecorder()
	s.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("delete = %d: %s", w.Code, w.Body.String())
	}

	if w := authGet(t, s, "/api/documents/"+docUUID); w.Code != http.StatusNotFound {
		t.Errorf("get after delete = %d, want 404", w.Code)
	}

	req = httptest.NewRequest(http.MethodDelete, "/api/documents/"+docUUID, nil)
	req.Header.Set("Authorization", "Bearer "+testAPIKey)
	w = httptest.NewRecorder()
	s.ServeHTTP(w, req)
	if w.Code != http.StatusNotFound {
		t.Errorf("second delete = %d, want 404", w.Code)
	}
}

func TestGlobalStatistics(t *testing.T) {
	s, _ := testServer(t)

	// Empty store reports no documents.
	w := authGet(t, s, "/api/statistics/global")
	if w.Code != http.StatusOK {
		t.Fatalf("global stats = %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "no documents found") {
		t.Errorf("empty body = %s", w.Body.String())
	}

	jobID := uploadMarkdown(t, s, "report.md", sampleDoc)
	waitForDocument(t, s, jobID)

	w = authGet(t, s, "/api/statistics/global")
	var resp struct {
		Global struct {
			TotalDocuments int            `json:"total_documents"`
			TypeSummary    map[string]int `json:"element_type_summary"`
		} `json:"global_statistics"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode global stats: %v", err)
	}
	if resp.Global.TotalDocuments != 1 {
		t.Errorf("total documents = %d", resp.Global.TotalDocuments)
	}
	if resp.Global.TypeSummary["list_item"] != 2 {
		t.Errorf("summary = %v", resp.Global.TypeSummary)
	}
}

func TestProcessingStatsEndpoint(t *testing.T) {
	s, _ := testServer(t)
	jobID := uploadMarkdown(t, s, "report.md", sampleDoc)
	waitForDocument(t, s, jobID)

	w := authGet(t, s, "/api/stats/processing")
	if w.Code != http.StatusOK {
		t.Fatalf("processing stats = %d", w.Code)
	}
	var resp struct {
		QueueDepth int `json:"queue_depth"`
		Stats      struct {
			Count int `json:"count"`
		} `json:"stats"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Stats.Count < 1 {
		t.Errorf("no latency samples recorded: %+v", resp)
	}
}

func TestListLimitValidation(t *testing.T) {
	s, _ := testServer(t)
	for _, q := range []string{"limit=0", "limit=-5", "limit=99999", "limit=abc"} {
		w := authGet(t, s, "/api/documents?"+q)
		if w.Code != http.StatusBadRequest {
			t.Errorf("%s: status = %d, want 400", q, w.Code)
		}
	}
}

func TestSanitizeFilename(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{"report.pdf", "report.pdf"},
		{"../../etc/passwd", "passwd"},
		{"dir/nested.md", "nested.md"},
		{"", "unnamed"},
	}
	for _, c := range cases {
		if got := sanitizeFilename(c.in); got != c.want {
			t.Errorf("sanitizeFilename(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}
