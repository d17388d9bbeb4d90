// Package dashboard owns the running application document. A single
// [Controller] holds the only reference to the current snapshot, applies
// pure mutators to it, publishes a change event for every accepted
// mutation, and persists the latest snapshot after a debounce.
package dashboard

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/nugget/lifeboard/internal/appdata"
	"github.com/nugget/lifeboard/internal/events"
)

// DefaultDebounce is the save delay used when none is configured.
const DefaultDebounce = 300 * time.Millisecond

// Persister writes a document to durable storage.
type Persister interface {
	SaveDocument(ctx context.Context, key string, doc appdata.AppData) error
}

// Mutator transforms a snapshot. It must not modify its input and
// reports whether the result differs.
type Mutator func(appdata.AppData) (appdata.AppData, bool)

// Config holds controller dependencies. Store, Bus, Logger, and Now are
// optional.
type Config struct {
	Store    Persister
	Key      string
	Debounce time.Duration // <0 saves synchronously on every change
	Bus      *events.Bus
	Logger   *slog.Logger
	Now      func() time.Time
}

// Controller serializes mutations of the document.
type Controller struct {
	store    Persister
	key      string
	debounce time.Duration
	bus      *events.Bus
	logger   *slog.Logger
	now      func() time.Time

	mu    sync.Mutex
	doc   appdata.AppData
	dirty bool
	timer *time.Timer

	saveMu sync.Mutex
}

// New creates a controller holding initial.
func New(initial appdata.AppData, cfg Config) *Controller {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.Debounce == 0 {
		cfg.Debounce = DefaultDebounce
	}
	return &Controller{
		store:    cfg.Store,
		key:      cfg.Key,
		debounce: cfg.Debounce,
		bus:      cfg.Bus,
		logger:   cfg.Logger,
		now:      cfg.Now,
		doc:      initial,
	}
}

// Now returns the controller's notion of the current time.
func (c *Controller) Now() time.Time {
	return c.now()
}

// Bus returns the bus change events are published on. It may be nil.
func (c *Controller) Bus() *events.Bus {
	return c.bus
}

// Snapshot returns a copy of the current document.
func (c *Controller) Snapshot() appdata.AppData {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.doc.Clone()
}

// Apply runs fn against the current snapshot. When fn reports a change
// the result becomes the current snapshot, a save is scheduled, and an
// event of the given kind is published. Apply returns whether the
// document changed.
func (c *Controller) Apply(kind string, data map[string]any, fn Mutator) bool {
	c.mu.Lock()
	next, changed := fn(c.doc)
	if !changed {
		c.mu.Unlock()
		c.logger.Debug("mutation was a no-op", "kind", kind)
		return false
	}
	c.doc = next
	c.dirty = true
	immediate := c.debounce < 0
	if !immediate {
		c.scheduleLocked()
	}
	c.mu.Unlock()

	c.logger.Debug("document changed", "kind", kind)
	c.bus.Emit(events.SourceDashboard, kind, data)
	if immediate {
		_ = c.Flush(context.Background())
	}
	return true
}

// Replace swaps in a whole new document, as after an import. The
// document is normalized first.
func (c *Controller) Replace(doc appdata.AppData) {
	doc = appdata.Normalize(doc)
	c.Apply(events.KindReplaced, nil, func(appdata.AppData) (appdata.AppData, bool) {
		return doc, true
	})
}

// Subscribe returns a channel of change events. Callers must pass it to
// Unsubscribe when done. It returns nil when the controller has no bus.
func (c *Controller) Subscribe(bufSize int) <-chan events.Event {
	if c.bus == nil {
		return nil
	}
	return c.bus.Subscribe(bufSize)
}

// Unsubscribe ends a subscription made with Subscribe.
func (c *Controller) Unsubscribe(ch <-chan events.Event) {
	if c.bus == nil || ch == nil {
		return
	}
	c.bus.Unsubscribe(ch)
}

func (c *Controller) scheduleLocked() {
	if c.timer == nil {
		c.timer = time.AfterFunc(c.debounce, func() {
			if err := c.Flush(context.Background()); err != nil {
				c.logger.Warn("debounced save failed", "error", err)
			}
		})
		return
	}
	c.timer.Reset(c.debounce)
}

// Flush writes the current snapshot if it has unsaved changes. It is
// called by the debounce timer and should be called once on shutdown.
func (c *Controller) Flush(ctx context.Context) error {
	c.saveMu.Lock()
	defer c.saveMu.Unlock()

	c.mu.Lock()
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
	if !c.dirty || c.store == nil {
		c.dirty = false
		c.mu.Unlock()
		return nil
	}
	doc := c.doc
	c.dirty = false
	c.mu.Unlock()

	start := time.Now()
	if err := c.store.SaveDocument(ctx, c.key, doc); err != nil {
		c.mu.Lock()
		c.dirty = true
		c.mu.Unlock()
		c.bus.Emit(events.SourceDashboard, events.KindSaveFailed, map[string]any{"error": err.Error()})
		return err
	}
	c.logger.Debug("document saved", "key", c.key, "elapsed", time.Since(start))
	c.bus.Emit(events.SourceDashboard, events.KindSaved, nil)
	return nil
}
