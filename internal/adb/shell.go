package adb

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"
)

// exitSentinel marks where command output ends and the exit status begins.
// The device shell does not report exit codes over the adb shell service, so
// the command is wrapped to emit one on a trailing line.
const exitSentinel = "__DROIDMCP_EXIT__"

// DefaultShellTimeout bounds a single shell command.
const DefaultShellTimeout = 30 * time.Second

// ShellResult is the outcome of one device shell command.
type ShellResult struct {
	// Output is the command's combined stdout and stderr, normalized to LF
	// line endings, valid UTF-8, and no trailing newline.
	Output string
	// ExitCode is the command's exit status on the device.
	ExitCode int
}

// Shell runs command on the selected device and returns normalized output.
// A non-positive timeout uses DefaultShellTimeout.
func (m *Manager) Shell(ctx context.Context, command string, timeout time.Duration) (*ShellResult, error) {
	if strings.TrimSpace(command) == "" {
		return nil, fmt.Errorf("empty command")
	}
	conn, err := m.Device(ctx)
	if err != nil {
		return nil, err
	}
	if timeout <= 0 {
		timeout = DefaultShellTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	wrapped := fmt.Sprintf("(%s); echo %s$?", command, exitSentinel)
	raw, err := conn.Shell(ctx, wrapped)
	if err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("command timed out after %s: %w", timeout, ctx.Err())
		}
		return nil, fmt.Errorf("run shell command: %w", err)
	}

	output, exitCode := splitExitSentinel(raw)
	return &ShellResult{
		Output:   NormalizeOutput(output),
		ExitCode: exitCode,
	}, nil
}

// splitExitSentinel strips the sentinel line from raw output and parses the
// exit status. Output missing the sentinel (device died mid-command) reports
// exit code -1.
func splitExitSentinel(raw string) (output string, exitCode int) {
	idx := strings.LastIndex(raw, exitSentinel)
	if idx < 0 {
		return raw, -1
	}
	code := strings.TrimSpace(raw[idx+len(exitSentinel):])
	n, err := strconv.Atoi(code)
	if err != nil {
		n = -1
	}
	return raw[:idx], n
}

// NormalizeOutput converts device shell output into a form safe to embed in
// a JSON text block: CRLF and bare CR become LF, invalid UTF-8 bytes are
// replaced, and the trailing newline the shell appends is removed.
func NormalizeOutput(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")
	if !utf8.ValidString(s) {
		s = strings.ToValidUTF8(s, "�")
	}
	return strings.TrimRight(s, "\n")
}
