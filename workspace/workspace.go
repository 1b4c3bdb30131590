package workspace

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/google/uuid"
)

// Manager stages uploaded documents under a private directory and removes
// them once the request that owns them is finished.
type Manager struct {
	root   string
	logger *slog.Logger
}

func NewManager(root string, logger *slog.Logger) *Manager {
	return &Manager{
		root:   root,
		logger: logger,
	}
}

// Stage materializes an upload to disk and returns its absolute path. The
// staged name is a fresh UUID carrying the original extension, so concurrent
// requests never collide and the analyzer can still dispatch on file type.
func (m *Manager) Stage(r io.Reader, originalName string) (string, error) {
	if err := os.MkdirAll(m.root, 0755); err != nil {
		return "", fmt.Errorf("failed to create upload directory: %w", err)
	}

	stagedName := uuid.New().String() + filepath.Ext(originalName)
	stagedPath := filepath.Join(m.root, stagedName)

	f, err := os.Create(stagedPath)
	if err != nil {
		return "", fmt.Errorf("failed to create staged file: %w", err)
	}

	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		os.Remove(stagedPath)
		return "", fmt.Errorf("failed to write staged file: %w", err)
	}

	if err := f.Close(); err != nil {
		os.Remove(stagedPath)
		return "", fmt.Errorf("failed to close staged file: %w", err)
	}

	absPath, err := filepath.Abs(stagedPath)
	if err != nil {
		os.Remove(stagedPath)
		return "", fmt.Errorf("failed to resolve staged path: %w", err)
	}

	m.logger.Debug("Staged uploaded file",
		slog.String("original_name", originalName),
		slog.String("path", absPath))

	return absPath, nil
}

// Release deletes a staged file. It is safe to call more than once and must
// never fail the request: deletion problems are logged and swallowed.
func (m *Manager) Release(path string) {
	if path == "" {
		return
	}

	if err := os.Remove(path); err != nil {
		if os.IsNotExist(err) {
			return
		}
		m.logger.Error("Failed to remove staged file",
			slog.String("path", path),
			slog.String("error", err.Error()))
		return
	}

	m.logger.Debug("Removed staged file", slog.String("path", path))
}
