package openclaw

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/nugget/lifeboard/internal/events"
)

// Fetcher retrieves one gateway snapshot. *Client satisfies it.
type Fetcher interface {
	Fetch(ctx context.Context) State
}

// PollerConfig configures the gateway poller.
type PollerConfig struct {
	Fetcher Fetcher

	// Interval is the time between polls (default 10s).
	Interval time.Duration

	// Timeout bounds each poll (default 5s).
	Timeout time.Duration

	// Bus receives a gateway_polled event after every poll. Optional.
	Bus *events.Bus

	Logger *slog.Logger
}

// Poller fetches gateway state immediately and then on a fixed interval,
// keeping the latest result. There is no backoff: a failed poll shows
// as disconnected until the next tick succeeds.
type Poller struct {
	cfg PollerConfig

	mu    sync.RWMutex
	state State

	cancel context.CancelFunc
	done   chan struct{}
}

// NewPoller creates a poller. Call Start to begin polling.
func NewPoller(cfg PollerConfig) *Poller {
	if cfg.Interval <= 0 {
		cfg.Interval = 10 * time.Second
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 5 * time.Second
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Poller{cfg: cfg, state: Disconnected()}
}

// Start launches the polling goroutine. It runs until ctx is cancelled
// or Stop is called.
func (p *Poller) Start(ctx context.Context) {
	ctx, p.cancel = context.WithCancel(ctx)
	p.done = make(chan struct{})
	go p.run(ctx)
}

// Stop cancels polling and waits for the goroutine to exit.
func (p *Poller) Stop() {
	if p.cancel == nil {
		return
	}
	p.cancel()
	<-p.done
}

// State returns the most recent poll result.
func (p *Poller) State() State {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.state
}

func (p *Poller) run(ctx context.Context) {
	defer close(p.done)

	p.PollOnce(ctx)
	ticker := time.NewTicker(p.cfg.Interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.PollOnce(ctx)
		}
	}
}

// PollOnce performs a single bounded poll, records the result, and
// publishes it.
func (p *Poller) PollOnce(ctx context.Context) State {
	pollCtx, cancel := context.WithTimeout(ctx, p.cfg.Timeout)
	defer cancel()
	st := p.cfg.Fetcher.Fetch(pollCtx)
	if ctx.Err() != nil {
		// Shutting down; keep the last real result.
		return p.State()
	}

	p.mu.Lock()
	was := p.state.Connected
	p.state = st
	p.mu.Unlock()

	logger := p.cfg.Logger
	switch {
	case st.Connected && !was:
		logger.Info("gateway connected", "sessions", len(st.Sessions), "jobs", len(st.CronJobs))
	case !st.Connected && was:
		logger.Info("gateway became unreachable", "error", st.LastError)
	case !st.Connected:
		logger.Debug("gateway still unreachable", "error", st.LastError)
	}

	p.cfg.Bus.Emit(events.SourceGateway, events.KindGatewayPolled, map[string]any{
		"connected": st.Connected,
		"sessions":  len(st.Sessions),
		"jobs":      len(st.CronJobs),
	})
	return st
}
