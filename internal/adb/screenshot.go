package adb

import (
	"bytes"
	"context"
	"fmt"
)

var pngMagic = []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n'}

// Screenshot captures the device display as PNG bytes. screencap writes the
// image to stdout with -p; adb's shell service historically mangled \n into
// \r\n on this path, so the magic check guards against a corrupted stream.
func (m *Manager) Screenshot(ctx context.Context) ([]byte, error) {
	conn, err := m.Device(ctx)
	if err != nil {
		return nil, err
	}

	raw, err := conn.ShellBytes(ctx, "screencap -p")
	if err != nil {
		return nil, fmt.Errorf("screencap: %w", err)
	}
	if len(raw) == 0 {
		return nil, fmt.Errorf("screencap produced no output")
	}
	if !bytes.HasPrefix(raw, pngMagic) {
		fixed := bytes.ReplaceAll(raw, []byte{'\r', '\n'}, []byte{'\n'})
		if !bytes.HasPrefix(fixed, pngMagic) {
			return nil, fmt.Errorf("screencap output is not a PNG (%d bytes)", len(raw))
		}
		raw = fixed
	}
	return raw, nil
}
