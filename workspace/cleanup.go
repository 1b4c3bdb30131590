package workspace

import (
	"log/slog"
	"os"
	"path/filepath"
	"time"
)

// CleanupService removes staged files that outlived their request, which
// only happens when the process died before Release ran.
type CleanupService struct {
	logger    *slog.Logger
	root      string
	retention time.Duration
}

func NewCleanupService(logger *slog.Logger, root string, retention time.Duration) *CleanupService {
	return &CleanupService{
		logger:    logger,
		root:      root,
		retention: retention,
	}
}

// StartCleanupSchedule begins regular sweeps of the upload directory.
func (s *CleanupService) StartCleanupSchedule(interval time.Duration) {
	ticker := time.NewTicker(interval)

	go func() {
		for range ticker.C {
			s.PerformCleanup()
		}
	}()

	s.logger.Info("Upload cleanup service started",
		slog.Duration("retention", s.retention),
		slog.Duration("interval", interval))
}

// PerformCleanup removes staged files older than the retention period.
func (s *CleanupService) PerformCleanup() {
	cutoffTime := time.Now().Add(-s.retention)

	err := filepath.Walk(s.root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}

		if info.IsDir() {
			return nil
		}

		if info.ModTime().Before(cutoffTime) {
			s.logger.Info("Removing orphaned staged file",
				slog.String("path", path),
				slog.Time("modified_time", info.ModTime()),
				slog.Time("cutoff_time", cutoffTime))

			if err := os.Remove(path); err != nil {
				s.logger.Error("Failed to remove staged file",
					slog.String("path", path),
					slog.String("error", err.Error()))
			}
		}

		return nil
	})

	if err != nil && !os.IsNotExist(err) {
		s.logger.Error("Error during upload cleanup",
			slog.String("error", err.Error()))
	}
}
