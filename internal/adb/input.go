package adb

import (
	"context"
	"fmt"
	"strings"
)

// Tap simulates a touch at screen coordinates.
func (m *Manager) Tap(ctx context.Context, x, y int) error {
	if x < 0 || y < 0 {
		return fmt.Errorf("coordinates must be non-negative: (%d, %d)", x, y)
	}
	return m.inputCommand(ctx, fmt.Sprintf("input tap %d %d", x, y))
}

// Swipe simulates a swipe gesture. durationMs of zero lets the device pick
// its default gesture duration.
func (m *Manager) Swipe(ctx context.Context, x1, y1, x2, y2, durationMs int) error {
	if x1 < 0 || y1 < 0 || x2 < 0 || y2 < 0 {
		return fmt.Errorf("coordinates must be non-negative")
	}
	cmd := fmt.Sprintf("input swipe %d %d %d %d", x1, y1, x2, y2)
	if durationMs > 0 {
		cmd = fmt.Sprintf("%s %d", cmd, durationMs)
	}
	return m.inputCommand(ctx, cmd)
}

// TypeText types text into the focused field. The input command cannot
// represent literal spaces, so they travel as %s per its escaping rules.
func (m *Manager) TypeText(ctx context.Context, text string) error {
	if text == "" {
		return fmt.Errorf("empty text")
	}
	return m.inputCommand(ctx, "input text "+escapeInputText(text))
}

// PressKey sends an Android keyevent code (3 home, 4 back, 66 enter).
func (m *Manager) PressKey(ctx context.Context, keycode int) error {
	if keycode < 0 {
		return fmt.Errorf("invalid keycode %d", keycode)
	}
	return m.inputCommand(ctx, fmt.Sprintf("input keyevent %d", keycode))
}

func (m *Manager) inputCommand(ctx context.Context, cmd string) error {
	res, err := m.Shell(ctx, cmd, 0)
	if err != nil {
		return err
	}
	if res.ExitCode != 0 {
		return fmt.Errorf("%s exited %d: %s", cmd, res.ExitCode, res.Output)
	}
	return nil
}

// escapeInputText quotes text for the device shell and encodes spaces the
// way `input text` expects.
func escapeInputText(text string) string {
	text = strings.ReplaceAll(text, " ", "%s")
	return "'" + strings.ReplaceAll(text, "'", `'\''`) + "'"
}
