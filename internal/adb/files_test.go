package adb

import (
	"context"
	"testing"
)

func TestValidRemotePath(t *testing.T) {
	for _, ok := range []string{"/sdcard/file.txt", "/data/local/tmp/a.apk", "/sdcard/DCIM/IMG_0001.jpg"} {
		if err := validRemotePath(ok); err != nil {
			t.Fatalf("path %q rejected: %v", ok, err)
		}
	}
	for _, bad := range []string{"", "relative/path", "/sdcard/a b.txt", "/sdcard/$(x)", "/sdcard/a;b", "/sdcard/a|b"} {
		if err := validRemotePath(bad); err == nil {
			t.Fatalf("path %q accepted", bad)
		}
	}
}

func TestScreenshotValidatesPNG(t *testing.T) {
	png := string(pngMagic) + "fakepixels"
	conn := &fakeConn{serial: "a", state: "device"}
	conn.shellFn = func(string) (string, error) { return png, nil }
	m := NewManager(&fakeDialer{conns: []Conn{conn}})

	data, err := m.Screenshot(context.Background())
	if err != nil {
		t.Fatalf("Screenshot: %v", err)
	}
	if string(data) != png {
		t.Fatalf("data = %q", data)
	}
}

func TestScreenshotRepairsCRLFMangling(t *testing.T) {
	// Legacy adb shell transports replace \n with \r\n, corrupting the PNG
	// magic. The capture path undoes that before giving up.
	clean := string(pngMagic) + "body\nmore"
	var mangled []byte
	for _, b := range []byte(clean) {
		if b == '\n' {
			mangled = append(mangled, '\r', '\n')
		} else {
			mangled = append(mangled, b)
		}
	}

	conn := &fakeConn{serial: "a", state: "device"}
	conn.shellFn = func(string) (string, error) { return string(mangled), nil }
	m := NewManager(&fakeDialer{conns: []Conn{conn}})

	data, err := m.Screenshot(context.Background())
	if err != nil {
		t.Fatalf("Screenshot: %v", err)
	}
	if string(data) != clean {
		t.Fatalf("mangled stream not repaired:\n got %q\nwant %q", data, clean)
	}
}

func TestScreenshotRejectsGarbage(t *testing.T) {
	conn := &fakeConn{serial: "a", state: "device"}
	conn.shellFn = func(string) (string, error) { return "not a png", nil }
	m := NewManager(&fakeDialer{conns: []Conn{conn}})

	if _, err := m.Screenshot(context.Background()); err == nil {
		t.Fatal("expected error for non-PNG output")
	}
}
