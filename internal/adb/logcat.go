package adb

import (
	"context"
	"fmt"
	"strings"
)

// DefaultLogcatLines caps a logcat snapshot when the caller does not.
const DefaultLogcatLines = 200

// Logcat returns a non-blocking snapshot of the device log. filter, when
// set, is a tag:priority expression such as "ActivityManager:I *:S".
func (m *Manager) Logcat(ctx context.Context, filter string, maxLines int) (string, error) {
	if maxLines <= 0 {
		maxLines = DefaultLogcatLines
	}
	cmd := fmt.Sprintf("logcat -d -t %d", maxLines)
	if filter != "" {
		if err := validLogcatFilter(filter); err != nil {
			return "", err
		}
		cmd += " " + filter
	}
	res, err := m.Shell(ctx, cmd, 0)
	if err != nil {
		return "", err
	}
	if res.ExitCode != 0 {
		return "", fmt.Errorf("logcat exited %d: %s", res.ExitCode, res.Output)
	}
	return res.Output, nil
}

// validLogcatFilter permits tag:priority expressions and wildcards while
// rejecting shell metacharacters.
func validLogcatFilter(filter string) error {
	for _, field := range strings.Fields(filter) {
		for _, r := range field {
			switch {
			case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			case r == ':' || r == '*' || r == '.' || r == '-' || r == '_':
			default:
				return fmt.Errorf("invalid logcat filter %q", filter)
			}
		}
	}
	return nil
}
