package artifacts

import (
	"context"
	"encoding/base64"
	"strings"
	"testing"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := NewStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	return s
}

func TestSaveAndReadScreenshot(t *testing.T) {
	s := newTestStore(t)
	png := []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n', 1, 2, 3}

	_, uri, err := s.SaveScreenshot(png)
	if err != nil {
		t.Fatalf("SaveScreenshot: %v", err)
	}
	if !strings.HasPrefix(uri, BaseURI) || !strings.HasSuffix(uri, ".png") {
		t.Fatalf("uri = %q", uri)
	}

	contents, err := s.ReadResource(context.Background(), nil, uri)
	if err != nil {
		t.Fatalf("ReadResource: %v", err)
	}
	if len(contents) != 1 {
		t.Fatalf("contents = %+v", contents)
	}
	if contents[0].MimeType != "image/png" {
		t.Fatalf("mime = %q", contents[0].MimeType)
	}
	if contents[0].Blob == "" {
		t.Fatal("binary artifact should return a blob")
	}
	decoded, err := base64.StdEncoding.DecodeString(contents[0].Blob)
	if err != nil {
		t.Fatalf("decode blob: %v", err)
	}
	if string(decoded) != string(png) {
		t.Fatal("blob does not round-trip")
	}
}

func TestSaveTextFileReturnsText(t *testing.T) {
	s := newTestStore(t)

	_, uri, err := s.SaveFile([]byte("hello world"), ".txt")
	if err != nil {
		t.Fatalf("SaveFile: %v", err)
	}
	contents, err := s.ReadResource(context.Background(), nil, uri)
	if err != nil {
		t.Fatalf("ReadResource: %v", err)
	}
	if contents[0].Text != "hello world" {
		t.Fatalf("text = %q", contents[0].Text)
	}
	if contents[0].Blob != "" {
		t.Fatal("text artifact should not return a blob")
	}
}

func TestListResources(t *testing.T) {
	s := newTestStore(t)
	if _, _, err := s.SaveFile([]byte("a"), ".txt"); err != nil {
		t.Fatal(err)
	}
	if _, _, err := s.SaveScreenshot([]byte{0x89}); err != nil {
		t.Fatal(err)
	}

	page, err := s.ListResources(context.Background(), nil, nil)
	if err != nil {
		t.Fatalf("ListResources: %v", err)
	}
	if len(page.Items) != 2 {
		t.Fatalf("items = %+v", page.Items)
	}
	for _, r := range page.Items {
		if !strings.HasPrefix(r.URI, BaseURI) {
			t.Fatalf("uri = %q", r.URI)
		}
	}
}

func TestReadResourceContainment(t *testing.T) {
	s := newTestStore(t)

	for _, bad := range []string{
		"artifact://../secret",
		"artifact://../../etc/passwd",
		"artifact://sub/dir",
		"artifact://.hidden",
		"file:///etc/passwd",
		"artifact://",
	} {
		if _, err := s.ReadResource(context.Background(), nil, bad); err == nil {
			t.Fatalf("uri %q accepted", bad)
		}
	}
}

func TestReadResourceUnknown(t *testing.T) {
	s := newTestStore(t)
	if _, err := s.ReadResource(context.Background(), nil, BaseURI+"missing.txt"); err == nil {
		t.Fatal("expected error for unknown artifact")
	}
}

func TestSubscribeUnknownURI(t *testing.T) {
	s := newTestStore(t)
	sub, _, err := s.GetSubscriptionCapability(context.Background(), nil)
	if err != nil {
		t.Fatalf("GetSubscriptionCapability: %v", err)
	}
	if _, err := sub.Subscribe(context.Background(), nil, BaseURI+"missing.txt", func(context.Context, string) {}); err == nil {
		t.Fatal("expected error subscribing to unknown artifact")
	}
}
