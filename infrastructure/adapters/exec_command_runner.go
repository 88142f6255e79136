package adapters

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"github.com/dzhechko/pu-3d-avatar/application/ports/outbound"
	"github.com/dzhechko/pu-3d-avatar/domain"
	"os"
	"os/exec"
	"strings"
	"time"
)

const maxStderrInError = 512

type execCommandRunner struct {
	logger  outbound.LoggerPort
	timeout time.Duration
}

func NewExecCommandRunner(logger outbound.LoggerPort, timeout time.Duration) outbound.CommandRunner {
	return &execCommandRunner{
		logger:  logger,
		timeout: timeout,
	}
}

func (r *execCommandRunner) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	runCtx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(runCtx, name, args...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	cmd.WaitDelay = time.Second

	start := time.Now()
	err := cmd.Run()
	fields := map[string]interface{}{
		"command":  name,
		"args":     args,
		"duration": time.Since(start).String(),
	}

	if errors.Is(runCtx.Err(), context.DeadlineExceeded) && ctx.Err() == nil {
		r.logger.WarnWithFields("Command timed out", fields)
		return nil, fmt.Errorf("%s: %w after %s", name, domain.ErrCommandTimeout, r.timeout)
	}
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		var notFound *exec.Error
		if errors.As(err, &notFound) || errors.Is(err, os.ErrNotExist) || errors.Is(err, os.ErrPermission) {
			return nil, fmt.Errorf("%s: %w: %v", name, domain.ErrToolUnavailable, err)
		}
		fields["stderr"] = truncate(stderr.String(), maxStderrInError)
		r.logger.DebugWithFields("Command failed", fields)
		return nil, fmt.Errorf("%s failed: %w: %s", name, err, truncate(stderr.String(), maxStderrInError))
	}

	r.logger.DebugWithFields("Command finished", fields)
	return stdout.Bytes(), nil
}

func truncate(s string, limit int) string {
	s = strings.TrimSpace(s)
	if len(s) <= limit {
		return s
	}
	return s[:limit] + "..."
}
