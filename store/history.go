package store

import (
	"context"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"
)

// AnalysisRecord is one completed analysis request, success or failure.
type AnalysisRecord struct {
	Filename         string
	NamingConvention string
	Success          bool
	ExtractedInfo    string
	NewFilename      string
	Message          string
}

// HistoryStore persists analysis outcomes for later inspection. Recording
// is best-effort: a failed insert is logged and never affects the response
// already determined for the caller.
type HistoryStore struct {
	db     *pgxpool.Pool
	logger *slog.Logger
}

func NewHistoryStore(db *pgxpool.Pool, logger *slog.Logger) *HistoryStore {
	return &HistoryStore{
		db:     db,
		logger: logger,
	}
}

func (s *HistoryStore) Record(ctx context.Context, rec AnalysisRecord) {
	query := `INSERT INTO analysis_history (filename, naming_convention, success, extracted_info, new_filename, message)
              VALUES ($1, $2, $3, $4, $5, $6)`

	_, err := s.db.Exec(ctx, query,
		rec.Filename, rec.NamingConvention, rec.Success,
		rec.ExtractedInfo, rec.NewFilename, rec.Message)
	if err != nil {
		s.logger.Error("Failed to record analysis history",
			slog.String("filename", rec.Filename),
			slog.String("error", err.Error()))
		return
	}

	s.logger.Debug("Recorded analysis history", slog.String("filename", rec.Filename))
}
