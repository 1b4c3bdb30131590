package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/serisow/renomme/analyzer"
	"github.com/serisow/renomme/handlers"
	"github.com/serisow/renomme/store"
)

type spyService struct {
	calls   int
	upload  analyzer.Upload
	outcome *analyzer.Outcome
	err     error
}

func (s *spyService) Analyze(ctx context.Context, upload analyzer.Upload) (*analyzer.Outcome, error) {
	s.calls++
	s.upload = upload
	if s.err != nil {
		return nil, s.err
	}
	return s.outcome, nil
}

type spyRecorder struct {
	records []store.AnalysisRecord
}

func (s *spyRecorder) Record(ctx context.Context, rec store.AnalysisRecord) {
	s.records = append(s.records, rec)
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type formPart struct {
	field    string
	filename string
	value    string
}

func multipartRequest(t *testing.T, parts []formPart) *http.Request {
	t.Helper()

	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	for _, p := range parts {
		if p.filename != "" {
			fw, err := w.CreateFormFile(p.field, p.filename)
			if err != nil {
				t.Fatalf("Failed to create form file: %v", err)
			}
			if _, err := fw.Write([]byte(p.value)); err != nil {
				t.Fatalf("Failed to write form file: %v", err)
			}
			continue
		}
		if err := w.WriteField(p.field, p.value); err != nil {
			t.Fatalf("Failed to write form field: %v", err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Failed to close multipart writer: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/api/analyze", &body)
	req.Header.Set("Content-Type", w.FormDataContentType())
	return req
}

func decodeResponse(t *testing.T, rec *httptest.ResponseRecorder) handlers.AnalyzeResponse {
	t.Helper()
	var resp handlers.AnalyzeResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	return resp
}

func TestMissingFileIsRejectedWithoutInvocation(t *testing.T) {
	spy := &spyService{}
	h := handlers.NewAnalyzeHandler(spy, nil, testLogger(), 10<<20)

	req := multipartRequest(t, []formPart{
		{field: "namingConvention", value: "YYYY_Vendor"},
	})
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("Expected 400, got %d", rec.Code)
	}
	resp := decodeResponse(t, rec)
	if resp.Success {
		t.Error("Expected success=false")
	}
	if resp.Message != "file and naming convention are required" {
		t.Errorf("Unexpected message: %q", resp.Message)
	}
	if spy.calls != 0 {
		t.Errorf("Analyzer must not be invoked on validation failure, got %d calls", spy.calls)
	}
}

func TestMissingNamingConventionIsRejectedWithoutInvocation(t *testing.T) {
	spy := &spyService{}
	h := handlers.NewAnalyzeHandler(spy, nil, testLogger(), 10<<20)

	req := multipartRequest(t, []formPart{
		{field: "file", filename: "doc.pdf", value: "content"},
	})
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("Expected 400, got %d", rec.Code)
	}
	if spy.calls != 0 {
		t.Errorf("Analyzer must not be invoked on validation failure, got %d calls", spy.calls)
	}
}

func TestRepeatedNamingConventionUsesFirstValue(t *testing.T) {
	spy := &spyService{outcome: &analyzer.Outcome{}}
	h := handlers.NewAnalyzeHandler(spy, nil, testLogger(), 10<<20)

	req := multipartRequest(t, []formPart{
		{field: "file", filename: "doc.pdf", value: "content"},
		{field: "namingConvention", value: "first"},
		{field: "namingConvention", value: "second"},
	})
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}
	if spy.upload.NamingConvention != "first" {
		t.Errorf("Expected first value to win, got %q", spy.upload.NamingConvention)
	}
}

func TestOversizedUploadIsRejected(t *testing.T) {
	spy := &spyService{}
	h := handlers.NewAnalyzeHandler(spy, nil, testLogger(), 64)

	req := multipartRequest(t, []formPart{
		{field: "file", filename: "doc.pdf", value: strings.Repeat("x", 4096)},
		{field: "namingConvention", value: "YYYY_Vendor"},
	})
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 for oversized upload, got %d", rec.Code)
	}
	if spy.calls != 0 {
		t.Errorf("Analyzer must not be invoked for oversized upload, got %d calls", spy.calls)
	}
}

func TestSuccessfulAnalysisResponse(t *testing.T) {
	spy := &spyService{outcome: &analyzer.Outcome{
		ExtractedInfo: "Invoice #123",
		NewFilename:   "2024-01-01_Acme.pdf",
	}}
	recorder := &spyRecorder{}
	h := handlers.NewAnalyzeHandler(spy, recorder, testLogger(), 10<<20)

	req := multipartRequest(t, []formPart{
		{field: "file", filename: "doc.pdf", value: "content"},
		{field: "namingConvention", value: "YYYY-MM-DD_Vendor"},
	})
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Expected JSON content type, got %q", ct)
	}

	resp := decodeResponse(t, rec)
	if !resp.Success {
		t.Error("Expected success=true")
	}
	if resp.ExtractedInfo != "Invoice #123" || resp.NewFilename != "2024-01-01_Acme.pdf" {
		t.Errorf("Unexpected fields: %+v", resp)
	}

	if spy.upload.Filename != "doc.pdf" {
		t.Errorf("Unexpected filename passed to service: %q", spy.upload.Filename)
	}

	if len(recorder.records) != 1 {
		t.Fatalf("Expected one history record, got %d", len(recorder.records))
	}
	if !recorder.records[0].Success || recorder.records[0].NewFilename != "2024-01-01_Acme.pdf" {
		t.Errorf("Unexpected history record: %+v", recorder.records[0])
	}
}

func TestAnalyzerFailureYieldsServerError(t *testing.T) {
	spy := &spyService{err: &analyzer.AnalyzerFailure{
		ExitCode: 1,
		Stderr:   "Failed to load document. Exiting.",
	}}
	recorder := &spyRecorder{}
	h := handlers.NewAnalyzeHandler(spy, recorder, testLogger(), 10<<20)

	req := multipartRequest(t, []formPart{
		{field: "file", filename: "doc.pdf", value: "content"},
		{field: "namingConvention", value: "YYYY_Vendor"},
	})
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusInternalServerError {
		t.Errorf("Expected 500, got %d", rec.Code)
	}

	resp := decodeResponse(t, rec)
	if resp.Success {
		t.Error("Expected success=false")
	}
	if !strings.Contains(resp.Message, "exited with code 1") ||
		!strings.Contains(resp.Message, "Failed to load document") {
		t.Errorf("Expected exit code and stderr in message, got %q", resp.Message)
	}
	if resp.ExtractedInfo != "" || resp.NewFilename != "" {
		t.Errorf("Expected no fields on failure, got %+v", resp)
	}

	if len(recorder.records) != 1 || recorder.records[0].Success {
		t.Errorf("Expected one failed history record, got %+v", recorder.records)
	}
}

func TestLaunchFailureYieldsServerError(t *testing.T) {
	spy := &spyService{err: &analyzer.LaunchError{Err: io.ErrUnexpectedEOF}}
	h := handlers.NewAnalyzeHandler(spy, nil, testLogger(), 10<<20)

	req := multipartRequest(t, []formPart{
		{field: "file", filename: "doc.pdf", value: "content"},
		{field: "namingConvention", value: "YYYY_Vendor"},
	})
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusInternalServerError {
		t.Errorf("Expected 500, got %d", rec.Code)
	}
	resp := decodeResponse(t, rec)
	if !strings.Contains(resp.Message, "failed to start document analyzer") {
		t.Errorf("Unexpected message: %q", resp.Message)
	}
}
