package pipeline

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"

	"go.uber.org/zap"
)

// CommandRunner executes a build-chain command inside dir, appending the
// command line and its combined output to the log at logPath.
type CommandRunner interface {
	Run(ctx context.Context, dir, logPath, name string, args ...string) error
}

// ExecRunner runs commands through os/exec
type ExecRunner struct {
	logger *zap.Logger
}

func NewExecRunner(logger *zap.Logger) *ExecRunner {
	return &ExecRunner{logger: logger.Named("exec")}
}

func (r *ExecRunner) Run(ctx context.Context, dir, logPath, name string, args ...string) error {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = dir

	var output bytes.Buffer
	cmd.Stdout = &output
	cmd.Stderr = &output

	runErr := cmd.Run()

	line := name
	if len(args) > 0 {
		line += " " + strings.Join(args, " ")
	}
	// The log is diagnostics only; a command that ran must not be reported
	// failed because its output could not be recorded.
	if err := appendLog(logPath, line, output.String()); err != nil {
		r.logger.Warn("Failed to append build log",
			zap.String("log", logPath),
			zap.Error(err))
	}

	if runErr != nil {
		return fmt.Errorf("%s failed: %w", line, runErr)
	}
	return nil
}

// appendLog writes a timestamped command header and its output to the build log
func appendLog(logPath, command, output string) error {
	f, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open build log: %w", err)
	}
	defer f.Close()

	stamp := time.Now().Format("15:04:05")
	if _, err := fmt.Fprintf(f, "[%s] $ %s\n%s\n", stamp, command, output); err != nil {
		return fmt.Errorf("failed to write build log: %w", err)
	}
	return nil
}

// ReadLogTail returns the last n lines of a build log, or a placeholder when
// no log exists yet.
func ReadLogTail(logPath string, n int) (string, error) {
	raw, err := os.ReadFile(logPath)
	if err != nil {
		if os.IsNotExist(err) {
			return "No build log available yet.", nil
		}
		return "", fmt.Errorf("failed to read build log: %w", err)
	}

	lines := strings.Split(string(raw), "\n")
	if len(lines) > n {
		lines = lines[len(lines)-n:]
	}
	return strings.Join(lines, "\n"), nil
}
