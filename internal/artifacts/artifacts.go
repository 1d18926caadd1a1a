// Package artifacts persists device captures (screenshots, pulled files, UI
// dumps) under a workspace directory and exposes them as MCP resources. The
// directory is flat: every artifact gets a generated name, so resource URIs
// never encode client-supplied paths.
package artifacts

import (
	"context"
	"encoding/base64"
	"fmt"
	"log/slog"
	"mime"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/fsnotify/fsnotify"
	"github.com/google/uuid"

	"github.com/droidmcp/droidmcp/internal/mcp"
	"github.com/droidmcp/droidmcp/internal/service"
)

// BaseURI is the scheme prefix for artifact resource URIs.
const BaseURI = "artifact://"

// Store is a flat artifact directory that doubles as the server's resources
// capability. Writes go through Save*; reads and subscriptions go through
// the ResourcesCapability surface.
type Store struct {
	dir string
	log *slog.Logger

	listNotifier service.ChangeNotifier

	mu               sync.Mutex
	updatedNotifiers map[string]*service.ChangeNotifier

	watchOnce sync.Once
}

// StoreOption customizes a Store.
type StoreOption func(*Store)

// WithStoreLogger overrides the store logger.
func WithStoreLogger(l *slog.Logger) StoreOption {
	return func(s *Store) {
		if l != nil {
			s.log = l
		}
	}
}

// NewStore creates dir if needed and returns a Store rooted there. Symlinks
// in dir are resolved so later containment checks compare real paths.
func NewStore(dir string, opts ...StoreOption) (*Store, error) {
	if dir == "" {
		return nil, fmt.Errorf("empty artifacts directory")
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("resolve artifacts directory: %w", err)
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, fmt.Errorf("create artifacts directory: %w", err)
	}
	if real, err := filepath.EvalSymlinks(abs); err == nil {
		abs = real
	}
	s := &Store{
		dir:              abs,
		log:              slog.Default(),
		updatedNotifiers: make(map[string]*service.ChangeNotifier),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Dir returns the store's root directory.
func (s *Store) Dir() string { return s.dir }

// SaveScreenshot writes PNG data under a generated name and returns its
// local path and resource URI.
func (s *Store) SaveScreenshot(data []byte) (path, uri string, err error) {
	return s.save(data, ".png")
}

// SaveFile writes arbitrary artifact data, keeping ext (with leading dot) so
// mime detection works on reads.
func (s *Store) SaveFile(data []byte, ext string) (path, uri string, err error) {
	return s.save(data, ext)
}

func (s *Store) save(data []byte, ext string) (string, string, error) {
	if ext != "" && !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	name := uuid.NewString() + ext
	p := filepath.Join(s.dir, name)
	if err := os.WriteFile(p, data, 0o644); err != nil {
		return "", "", fmt.Errorf("write artifact: %w", err)
	}
	return p, BaseURI + name, nil
}

// ListResources implements service.ResourcesCapability.
func (s *Store) ListResources(ctx context.Context, _ *service.Session, cursor *string) (service.Page[mcp.Resource], error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return service.NewPage[mcp.Resource](nil), fmt.Errorf("list artifacts: %w", err)
	}
	var all []mcp.Resource
	for _, e := range entries {
		if e.IsDir() || !validArtifactName(e.Name()) {
			continue
		}
		all = append(all, mcp.Resource{
			URI:      BaseURI + e.Name(),
			Name:     e.Name(),
			MimeType: mimeForName(e.Name()),
		})
	}
	sort.Slice(all, func(i, j int) bool { return all[i].URI < all[j].URI })
	return service.PageOf(all, cursor), nil
}

// ListResourceTemplates implements service.ResourcesCapability. The store is
// flat and enumerable, so no templates are exposed.
func (s *Store) ListResourceTemplates(ctx context.Context, _ *service.Session, cursor *string) (service.Page[mcp.ResourceTemplate], error) {
	return service.NewPage[mcp.ResourceTemplate](nil), nil
}

// ReadResource implements service.ResourcesCapability. Text artifacts return
// inline text; binary artifacts return base64 blobs.
func (s *Store) ReadResource(ctx context.Context, _ *service.Session, uri string) ([]mcp.ResourceContents, error) {
	p, err := s.uriToPath(uri)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(p)
	if err != nil {
		return nil, fmt.Errorf("resource not found: %s", uri)
	}
	contents := mcp.ResourceContents{URI: uri, MimeType: mimeForName(filepath.Base(p))}
	if utf8.Valid(data) && !strings.HasSuffix(p, ".png") {
		contents.Text = string(data)
	} else {
		contents.Blob = base64.StdEncoding.EncodeToString(data)
	}
	return []mcp.ResourceContents{contents}, nil
}

// GetSubscriptionCapability implements service.ResourcesCapability.
func (s *Store) GetSubscriptionCapability(ctx context.Context, _ *service.Session) (service.ResourceSubscriptionCapability, bool, error) {
	return storeSubscription{s: s}, true, nil
}

// GetListChangedCapability implements service.ResourcesCapability.
func (s *Store) GetListChangedCapability(ctx context.Context, _ *service.Session) (service.ResourceListChangedCapability, bool, error) {
	return storeListChanged{s: s}, true, nil
}

type storeListChanged struct{ s *Store }

func (l storeListChanged) Register(ctx context.Context, sess *service.Session, fn service.NotifyResourceChangeFunc) (bool, error) {
	if fn == nil {
		return false, nil
	}
	l.s.ensureWatcher(ctx)
	ch := l.s.listNotifier.Subscriber()
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case _, ok := <-ch:
				if !ok {
					return
				}
				fn(ctx, sess, "")
			}
		}
	}()
	return true, nil
}

type storeSubscription struct{ s *Store }

func (sub storeSubscription) Subscribe(ctx context.Context, _ *service.Session, uri string, emit service.NotifyResourceUpdatedFunc) (service.CancelSubscription, error) {
	p, err := sub.s.uriToPath(uri)
	if err != nil {
		return nil, err
	}
	if st, err := os.Stat(p); err != nil || st.IsDir() {
		return nil, fmt.Errorf("resource not found: %s", uri)
	}
	sub.s.ensureWatcher(ctx)

	ch := sub.s.notifierFor(uri).Subscriber()
	stopped := make(chan struct{})
	var stopOnce sync.Once
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case <-stopped:
				return
			case _, ok := <-ch:
				if !ok {
					return
				}
				emit(ctx, uri)
			}
		}
	}()
	cancel := func(context.Context) error {
		stopOnce.Do(func() { close(stopped) })
		return nil
	}
	return cancel, nil
}

func (sub storeSubscription) Unsubscribe(ctx context.Context, _ *service.Session, uri string) error {
	return nil
}

// ensureWatcher lazily starts one fsnotify watcher per Store. The watcher
// runs until the supplied context is canceled.
func (s *Store) ensureWatcher(ctx context.Context) {
	s.watchOnce.Do(func() {
		go s.runWatcher(ctx)
	})
}

func (s *Store) runWatcher(ctx context.Context) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		s.log.Debug("artifacts.watch_unavailable", slog.String("err", err.Error()))
		return
	}
	defer func() {
		_ = w.Close()
	}()
	if err := w.Add(s.dir); err != nil {
		s.log.Debug("artifacts.watch_add_failed", slog.String("err", err.Error()))
		return
	}

	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-w.Events:
			if !ok {
				return
			}
			name := filepath.Base(ev.Name)
			if !validArtifactName(name) {
				continue
			}
			if ev.Op&(fsnotify.Create|fsnotify.Remove|fsnotify.Rename) != 0 {
				_ = s.listNotifier.Notify(ctx)
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create) != 0 {
				s.mu.Lock()
				n := s.updatedNotifiers[BaseURI+name]
				s.mu.Unlock()
				if n != nil {
					_ = n.Notify(ctx)
				}
			}
		case err, ok := <-w.Errors:
			if !ok {
				return
			}
			s.log.Debug("artifacts.watch_error", slog.String("err", err.Error()))
		}
	}
}

func (s *Store) notifierFor(uri string) *service.ChangeNotifier {
	s.mu.Lock()
	defer s.mu.Unlock()
	n, ok := s.updatedNotifiers[uri]
	if !ok {
		n = &service.ChangeNotifier{}
		s.updatedNotifiers[uri] = n
	}
	return n
}

// uriToPath maps an artifact URI to its on-disk path, rejecting anything
// that escapes the store directory.
func (s *Store) uriToPath(uri string) (string, error) {
	name, ok := strings.CutPrefix(uri, BaseURI)
	if !ok || !validArtifactName(name) {
		return "", fmt.Errorf("resource not found: %s", uri)
	}
	p := filepath.Join(s.dir, name)
	if filepath.Dir(p) != s.dir {
		return "", fmt.Errorf("resource not found: %s", uri)
	}
	return p, nil
}

// validArtifactName accepts the generated flat names the store writes and
// nothing with path structure.
func validArtifactName(name string) bool {
	if name == "" || name == "." || name == ".." {
		return false
	}
	if strings.ContainsAny(name, `/\`) {
		return false
	}
	if strings.HasPrefix(name, ".") {
		return false
	}
	return true
}

func mimeForName(name string) string {
	mt := mime.TypeByExtension(strings.ToLower(filepath.Ext(name)))
	if mt == "" {
		mt = "application/octet-stream"
	}
	return mt
}
