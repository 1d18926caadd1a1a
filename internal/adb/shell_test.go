package adb

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"
)

func TestShellWrapsCommandWithSentinel(t *testing.T) {
	conn := onlineConn("a", "hello\n", 0)
	m := NewManager(&fakeDialer{conns: []Conn{conn}})

	res, err := m.Shell(context.Background(), "echo hello", 0)
	if err != nil {
		t.Fatalf("Shell: %v", err)
	}
	if res.Output != "hello" {
		t.Fatalf("output = %q", res.Output)
	}
	if res.ExitCode != 0 {
		t.Fatalf("exit code = %d", res.ExitCode)
	}

	if len(conn.commands) != 1 {
		t.Fatalf("commands = %v", conn.commands)
	}
	sent := conn.commands[0]
	if !strings.Contains(sent, "(echo hello)") || !strings.Contains(sent, exitSentinel) {
		t.Fatalf("command not wrapped: %q", sent)
	}
}

func TestShellNonZeroExit(t *testing.T) {
	conn := onlineConn("a", "ls: /nope: No such file or directory\n", 1)
	m := NewManager(&fakeDialer{conns: []Conn{conn}})

	res, err := m.Shell(context.Background(), "ls /nope", 0)
	if err != nil {
		t.Fatalf("Shell: %v", err)
	}
	if res.ExitCode != 1 {
		t.Fatalf("exit code = %d, want 1", res.ExitCode)
	}
	if !strings.Contains(res.Output, "No such file") {
		t.Fatalf("output = %q", res.Output)
	}
}

func TestShellEmptyOutput(t *testing.T) {
	// `true` produces no output at all; the result must still carry exit 0
	// and an empty (not corrupted) output string.
	conn := onlineConn("a", "", 0)
	m := NewManager(&fakeDialer{conns: []Conn{conn}})

	res, err := m.Shell(context.Background(), "true", 0)
	if err != nil {
		t.Fatalf("Shell: %v", err)
	}
	if res.Output != "" {
		t.Fatalf("output = %q, want empty", res.Output)
	}
	if res.ExitCode != 0 {
		t.Fatalf("exit code = %d", res.ExitCode)
	}
}

func TestShellRejectsEmptyCommand(t *testing.T) {
	m := NewManager(&fakeDialer{conns: []Conn{onlineConn("a", "", 0)}})
	if _, err := m.Shell(context.Background(), "   ", 0); err == nil {
		t.Fatal("expected error for blank command")
	}
}

func TestShellTimeout(t *testing.T) {
	conn := &fakeConn{serial: "a", state: "device", delay: 200 * time.Millisecond}
	m := NewManager(&fakeDialer{conns: []Conn{conn}})

	_, err := m.Shell(context.Background(), "sleep 100", 20*time.Millisecond)
	if err == nil {
		t.Fatal("expected timeout error")
	}
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("err = %v, want deadline exceeded", err)
	}
}

func TestSplitExitSentinel(t *testing.T) {
	cases := []struct {
		name     string
		raw      string
		wantOut  string
		wantCode int
	}{
		{"normal", "out\n" + exitSentinel + "0\n", "out\n", 0},
		{"nonzero", "err text\n" + exitSentinel + "127\n", "err text\n", 127},
		{"missing sentinel", "partial output", "partial output", -1},
		{"garbage code", "x\n" + exitSentinel + "abc", "x\n", -1},
		{"sentinel only", exitSentinel + "0", "", 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			out, code := splitExitSentinel(tc.raw)
			if out != tc.wantOut {
				t.Fatalf("out = %q, want %q", out, tc.wantOut)
			}
			if code != tc.wantCode {
				t.Fatalf("code = %d, want %d", code, tc.wantCode)
			}
		})
	}
}

func TestNormalizeOutput(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"crlf", "a\r\nb\r\n", "a\nb"},
		{"bare cr", "a\rb", "a\nb"},
		{"trailing newlines", "a\n\n\n", "a"},
		{"invalid utf8", "a\xffb", "a�b"},
		{"already clean", "a\nb", "a\nb"},
		{"empty", "", ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := NormalizeOutput(tc.in); got != tc.want {
				t.Fatalf("got %q, want %q", got, tc.want)
			}
		})
	}
}
