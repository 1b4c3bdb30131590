package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/serisow/renomme/analyzer"
	"github.com/serisow/renomme/store"
)

// AnalyzeResponse is the JSON body returned for every analysis request.
type AnalyzeResponse struct {
	Success       bool   `json:"success"`
	ExtractedInfo string `json:"extractedInfo,omitempty"`
	NewFilename   string `json:"newFilename,omitempty"`
	Message       string `json:"message"`
}

// AnalysisService is what the handler needs from the orchestration core.
type AnalysisService interface {
	Analyze(ctx context.Context, upload analyzer.Upload) (*analyzer.Outcome, error)
}

// HistoryRecorder persists finished requests. May be absent.
type HistoryRecorder interface {
	Record(ctx context.Context, rec store.AnalysisRecord)
}

type AnalyzeHandler struct {
	service       AnalysisService
	history       HistoryRecorder
	logger        *slog.Logger
	maxUploadSize int64
}

func NewAnalyzeHandler(service AnalysisService, history HistoryRecorder, logger *slog.Logger, maxUploadSize int64) *AnalyzeHandler {
	return &AnalyzeHandler{
		service:       service,
		history:       history,
		logger:        logger,
		maxUploadSize: maxUploadSize,
	}
}

func (h *AnalyzeHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.logger.Info("Received document analysis request")

	if r.ContentLength > h.maxUploadSize {
		writeResult(w, http.StatusBadRequest, AnalyzeResponse{
			Message: "uploaded file exceeds the size limit",
		})
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadSize)

	if err := r.ParseMultipartForm(h.maxUploadSize); err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			writeResult(w, http.StatusBadRequest, AnalyzeResponse{
				Message: "uploaded file exceeds the size limit",
			})
			return
		}
		writeResult(w, http.StatusBadRequest, AnalyzeResponse{
			Message: "failed to parse multipart form",
		})
		return
	}

	file, header, err := r.FormFile("file")
	if err == nil {
		defer file.Close()
	}

	// FormValue returns the first value when the client sent several.
	namingConvention := r.FormValue("namingConvention")
	if err != nil || strings.TrimSpace(namingConvention) == "" {
		writeResult(w, http.StatusBadRequest, AnalyzeResponse{
			Message: "file and naming convention are required",
		})
		return
	}

	upload := analyzer.Upload{
		File:             file,
		Filename:         header.Filename,
		ContentType:      header.Header.Get("Content-Type"),
		Size:             header.Size,
		NamingConvention: namingConvention,
	}

	outcome, err := h.service.Analyze(r.Context(), upload)
	if err != nil {
		h.logger.Error("Document analysis failed",
			slog.String("filename", header.Filename),
			slog.String("error", err.Error()))

		resp := AnalyzeResponse{Message: failureMessage(err)}
		h.record(r.Context(), upload, resp)
		writeResult(w, http.StatusInternalServerError, resp)
		return
	}

	resp := AnalyzeResponse{
		Success:       true,
		ExtractedInfo: outcome.ExtractedInfo,
		NewFilename:   outcome.NewFilename,
		Message:       "document analyzed successfully",
	}
	h.record(r.Context(), upload, resp)
	writeResult(w, http.StatusOK, resp)
}

func failureMessage(err error) string {
	var launchErr *analyzer.LaunchError
	if errors.As(err, &launchErr) {
		return launchErr.Error()
	}

	var failure *analyzer.AnalyzerFailure
	if errors.As(err, &failure) {
		return failure.Error()
	}

	return "document analysis failed: " + err.Error()
}

func (h *AnalyzeHandler) record(ctx context.Context, upload analyzer.Upload, resp AnalyzeResponse) {
	if h.history == nil {
		return
	}
	h.history.Record(ctx, store.AnalysisRecord{
		Filename:         upload.Filename,
		NamingConvention: upload.NamingConvention,
		Success:          resp.Success,
		ExtractedInfo:    resp.ExtractedInfo,
		NewFilename:      resp.NewFilename,
		Message:          resp.Message,
	})
}

func writeResult(w http.ResponseWriter, statusCode int, resp AnalyzeResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(resp)
}
