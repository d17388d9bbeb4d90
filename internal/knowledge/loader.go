package knowledge

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/nugget/lifeboard/internal/events"
	"github.com/nugget/lifeboard/internal/httpkit"
)

// ErrStatus is wrapped by Load when a remote index answers non-2xx.
var ErrStatus = httpkit.ErrStatus

// Loader reads the index from a file path or an http(s) URL. Every
// Load goes to the source; nothing is cached and nothing is retried.
type Loader struct {
	source string
	client *http.Client
	logger *slog.Logger
}

// NewLoader creates a loader for source. A nil client gets the shared
// httpkit client; a nil logger gets slog.Default().
func NewLoader(source string, client *http.Client, logger *slog.Logger) *Loader {
	if client == nil {
		client = httpkit.NewClient()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Loader{source: source, client: client, logger: logger}
}

// Source returns the configured location.
func (l *Loader) Source() string { return l.source }

// Remote reports whether the source is fetched over HTTP.
func (l *Loader) Remote() bool {
	return strings.HasPrefix(l.source, "http://") || strings.HasPrefix(l.source, "https://")
}

// Load reads and normalizes the index.
func (l *Loader) Load(ctx context.Context) (Index, error) {
	if l.Remote() {
		var raw any
		if err := httpkit.GetJSON(ctx, l.client, l.source, &raw); err != nil {
			return Index{}, fmt.Errorf("load knowledge index: %w", err)
		}
		return Normalize(raw, time.Now()), nil
	}

	data, err := os.ReadFile(l.source)
	if err != nil {
		return Index{}, fmt.Errorf("load knowledge index: %w", err)
	}
	return Parse(data)
}

// Watch reloads a file-based index whenever the file is written,
// created, or renamed into place, and publishes a reload event on bus.
// The parent directory is watched so editors that replace the file
// atomically are still seen. Watch returns once the watcher is running;
// it stops when ctx is cancelled.
func (l *Loader) Watch(ctx context.Context, bus *events.Bus) error {
	if l.Remote() {
		return fmt.Errorf("knowledge source %s is remote and cannot be watched", l.source)
	}
	target, err := filepath.Abs(l.source)
	if err != nil {
		return err
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	if err := fsw.Add(filepath.Dir(target)); err != nil {
		fsw.Close()
		return fmt.Errorf("watch %s: %w", filepath.Dir(target), err)
	}

	go func() {
		defer fsw.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-fsw.Events:
				if !ok {
					return
				}
				if filepath.Clean(ev.Name) != target || ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
					continue
				}
				l.reload(ctx, bus, ev.Op)
			case err, ok := <-fsw.Errors:
				if !ok {
					return
				}
				l.logger.Error("knowledge watcher error", "error", err)
			}
		}
	}()
	l.logger.Info("watching knowledge index", "path", target)
	return nil
}

func (l *Loader) reload(ctx context.Context, bus *events.Bus, op fsnotify.Op) {
	idx, err := l.Load(ctx)
	if err != nil {
		// A half-written file fails to parse; the next write event retries.
		l.logger.Warn("knowledge index reload failed", "op", op.String(), "error", err)
		return
	}
	l.logger.Info("knowledge index reloaded", "op", op.String(), "items", len(idx.Items))
	bus.Emit(events.SourceKnowledge, events.KindKnowledgeReloaded, map[string]any{"items": len(idx.Items)})
}
