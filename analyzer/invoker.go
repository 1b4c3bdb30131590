package analyzer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os/exec"
)

// ScriptInvoker runs the analyzer script through a configured interpreter.
// The staged file path and the naming convention are passed as the only two
// positional arguments, as discrete argv tokens: no shell ever sees them,
// so metacharacters in filenames or convention text are inert.
type ScriptInvoker struct {
	interpreter string
	script      string
	logger      *slog.Logger
}

func NewScriptInvoker(interpreter, script string, logger *slog.Logger) *ScriptInvoker {
	return &ScriptInvoker{
		interpreter: interpreter,
		script:      script,
		logger:      logger,
	}
}

func (si *ScriptInvoker) Invoke(ctx context.Context, filePath, namingConvention string) (ProcessHandle, error) {
	cmd := exec.CommandContext(ctx, si.interpreter, si.script, filePath, namingConvention)

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, &LaunchError{Err: fmt.Errorf("failed to get stdout pipe: %w", err)}
	}

	stderr, err := cmd.StderrPipe()
	if err != nil {
		return nil, &LaunchError{Err: fmt.Errorf("failed to get stderr pipe: %w", err)}
	}

	if err := cmd.Start(); err != nil {
		return nil, &LaunchError{Err: err}
	}

	si.logger.Debug("Started analyzer process",
		slog.String("interpreter", si.interpreter),
		slog.String("script", si.script),
		slog.String("file", filePath),
		slog.Int("pid", cmd.Process.Pid))

	return &scriptProcess{cmd: cmd, stdout: stdout, stderr: stderr}, nil
}

type scriptProcess struct {
	cmd    *exec.Cmd
	stdout io.ReadCloser
	stderr io.ReadCloser
}

func (p *scriptProcess) Stdout() io.Reader {
	return p.stdout
}

func (p *scriptProcess) Stderr() io.Reader {
	return p.stderr
}

func (p *scriptProcess) Wait() (int, error) {
	err := p.cmd.Wait()
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return exitErr.ExitCode(), nil
		}
		return 0, fmt.Errorf("failed to wait on analyzer: %w", err)
	}
	return 0, nil
}
