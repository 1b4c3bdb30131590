package analyzer

import (
	"context"
	"fmt"
	"io"
)

// Upload carries one received document plus the naming convention the
// caller wants applied. The file contents are consumed exactly once, while
// staging.
type Upload struct {
	File             io.Reader
	Filename         string
	ContentType      string
	Size             int64
	NamingConvention string
}

// Outcome holds the fields recovered from the analyzer's output. Both are
// freeform text; NewFilename is advisory and not validated here.
type Outcome struct {
	ExtractedInfo string
	NewFilename   string
}

// ProcessHandle represents one running analyzer invocation. Both streams
// must be fully drained before Wait is called.
type ProcessHandle interface {
	Stdout() io.Reader
	Stderr() io.Reader
	// Wait blocks until the process exits and returns its exit code. The
	// error is reserved for failures of the wait itself, not of the
	// analyzer.
	Wait() (int, error)
}

// Invoker launches the external analyzer for a staged file.
type Invoker interface {
	Invoke(ctx context.Context, filePath, namingConvention string) (ProcessHandle, error)
}

// LaunchError means the analyzer process could not be started at all, as
// opposed to starting and then failing.
type LaunchError struct {
	Err error
}

func (e *LaunchError) Error() string {
	return "failed to start document analyzer: " + e.Err.Error()
}

func (e *LaunchError) Unwrap() error {
	return e.Err
}

// AnalyzerFailure means the analyzer ran and exited nonzero. Stderr is the
// full diagnostic text it produced.
type AnalyzerFailure struct {
	ExitCode int
	Stderr   string
}

func (e *AnalyzerFailure) Error() string {
	return fmt.Sprintf("analyzer exited with code %d: %s", e.ExitCode, e.Stderr)
}
