package analyzer

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/serisow/renomme/workspace"
)

// Service drives one document analysis from upload to typed outcome: stage
// the file, launch the analyzer, parse its stdout while it runs, gate on
// the exit code and always release the staged file.
type Service struct {
	workspace *workspace.Manager
	invoker   Invoker
	logger    *slog.Logger
}

func NewService(ws *workspace.Manager, invoker Invoker, logger *slog.Logger) *Service {
	return &Service{
		workspace: ws,
		invoker:   invoker,
		logger:    logger,
	}
}

// Analyze processes a single upload. The staged file is removed before
// Analyze returns, on every path; the analyzer process is fully drained
// and reaped before that happens.
func (s *Service) Analyze(ctx context.Context, upload Upload) (*Outcome, error) {
	stagedPath, err := s.workspace.Stage(upload.File, upload.Filename)
	if err != nil {
		return nil, fmt.Errorf("failed to stage upload: %w", err)
	}
	defer s.workspace.Release(stagedPath)

	handle, err := s.invoker.Invoke(ctx, stagedPath, upload.NamingConvention)
	if err != nil {
		return nil, err
	}

	s.logger.Info("Analyzing document",
		slog.String("filename", upload.Filename),
		slog.String("staged_path", stagedPath),
		slog.Int64("size", upload.Size))

	parser := NewOutputParser()
	var stderrBuf bytes.Buffer

	// Drain stdout and stderr concurrently so the analyzer can never block
	// on a full pipe, and join both before reaping the process.
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		if _, err := io.Copy(parser, handle.Stdout()); err != nil {
			s.logger.Error("Error reading analyzer stdout",
				slog.String("error", err.Error()))
		}
	}()
	go func() {
		defer wg.Done()
		if _, err := io.Copy(&stderrBuf, handle.Stderr()); err != nil {
			s.logger.Error("Error reading analyzer stderr",
				slog.String("error", err.Error()))
		}
	}()
	wg.Wait()

	exitCode, err := handle.Wait()
	if err != nil {
		return nil, fmt.Errorf("analyzer did not terminate cleanly: %w", err)
	}

	if exitCode != 0 {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("analyzer canceled: %w", ctx.Err())
		}
		s.logger.Error("Analyzer failed",
			slog.String("filename", upload.Filename),
			slog.Int("exit_code", exitCode),
			slog.String("stderr", stderrBuf.String()))
		return nil, &AnalyzerFailure{ExitCode: exitCode, Stderr: stderrBuf.String()}
	}

	outcome := parser.Result()

	s.logger.Info("Document analyzed",
		slog.String("filename", upload.Filename),
		slog.String("new_filename", outcome.NewFilename))

	return &outcome, nil
}
