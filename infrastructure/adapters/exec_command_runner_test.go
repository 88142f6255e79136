package adapters

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/dzhechko/pu-3d-avatar/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeScript creates an executable shell script standing in for an external tool.
func writeScript(t *testing.T, dir string, name string, body string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell scripts are not executable on windows")
	}
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\n"+body+"\n"), 0o755))
	return path
}

func TestExecCommandRunner_Run(t *testing.T) {
	script := writeScript(t, t.TempDir(), "echoer", `echo "$2 $1"`)
	runner := NewExecCommandRunner(newTestLogger(), 5*time.Second)

	out, err := runner.Run(context.Background(), script, "world", "hello")
	require.NoError(t, err)
	assert.Equal(t, "hello world\n", string(out))
}

func TestExecCommandRunner_ArgumentsAreNotInterpreted(t *testing.T) {
	dir := t.TempDir()
	marker := filepath.Join(dir, "injected")
	script := writeScript(t, dir, "printer", `printf '%s' "$1"`)
	runner := NewExecCommandRunner(newTestLogger(), 5*time.Second)

	out, err := runner.Run(context.Background(), script, "a; touch "+marker)
	require.NoError(t, err)
	assert.Equal(t, "a; touch "+marker, string(out))
	assert.NoFileExists(t, marker)
}

func TestExecCommandRunner_NonZeroExit(t *testing.T) {
	script := writeScript(t, t.TempDir(), "failer", `echo "bad input" >&2; exit 3`)
	runner := NewExecCommandRunner(newTestLogger(), 5*time.Second)

	_, err := runner.Run(context.Background(), script)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bad input")
}

func TestExecCommandRunner_Timeout(t *testing.T) {
	script := writeScript(t, t.TempDir(), "sleeper", `sleep 5`)
	runner := NewExecCommandRunner(newTestLogger(), 100*time.Millisecond)

	start := time.Now()
	_, err := runner.Run(context.Background(), script)
	assert.ErrorIs(t, err, domain.ErrCommandTimeout)
	assert.Less(t, time.Since(start), 4*time.Second)
}

func TestExecCommandRunner_MissingBinary(t *testing.T) {
	runner := NewExecCommandRunner(newTestLogger(), time.Second)

	_, err := runner.Run(context.Background(), filepath.Join(t.TempDir(), "does-not-exist"))
	assert.ErrorIs(t, err, domain.ErrToolUnavailable)
}
