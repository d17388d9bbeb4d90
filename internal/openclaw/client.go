// Package openclaw talks to the optional OpenClaw gateway, which reports
// the agent sessions and cron jobs currently running outside lifeboard.
// The gateway is best-effort: every failure degrades to an empty list
// and a disconnected state, and polling simply tries again next tick.
package openclaw

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/nugget/lifeboard/internal/httpkit"
)

// Session is one agent session known to the gateway.
type Session struct {
	SessionID      string `json:"sessionId"`
	Agent          string `json:"agent"`
	Channel        string `json:"channel"`
	StartedAt      string `json:"startedAt"`
	LastActivityAt string `json:"lastActivityAt"`
	Status         string `json:"status"` // active, idle, paused
	RequestCount   int    `json:"requestCount"`
	Model          string `json:"model,omitempty"`
}

// CronJob is one scheduled job known to the gateway.
type CronJob struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Schedule   string `json:"schedule"`
	LastRunAt  string `json:"lastRunAt,omitempty"`
	LastStatus string `json:"lastStatus,omitempty"` // success, error, running, pending
	NextRunAt  string `json:"nextRunAt,omitempty"`
	Enabled    bool   `json:"enabled"`
}

// State is the result of one poll.
type State struct {
	Sessions    []Session `json:"sessions"`
	CronJobs    []CronJob `json:"cronJobs"`
	LastUpdated time.Time `json:"lastUpdated"`
	Connected   bool      `json:"connected"`
	LastError   string    `json:"lastError,omitempty"`
}

// Disconnected returns the empty state reported before the first poll.
func Disconnected() State {
	return State{Sessions: []Session{}, CronJobs: []CronJob{}}
}

// Client fetches gateway resources. Each resource is tried at its
// /api path first and at the bare path second.
type Client struct {
	baseURL string
	http    *http.Client
	logger  *slog.Logger
}

// NewClient creates a gateway client. A nil httpClient gets the shared
// httpkit client.
func NewClient(baseURL string, httpClient *http.Client, logger *slog.Logger) *Client {
	if httpClient == nil {
		httpClient = httpkit.NewClient()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    httpClient,
		logger:  logger,
	}
}

// BaseURL returns the gateway address.
func (c *Client) BaseURL() string { return c.baseURL }

// Sessions lists gateway sessions.
func (c *Client) Sessions(ctx context.Context) ([]Session, error) {
	var out []Session
	err := c.fetchList(ctx, "sessions", "sessions", &out)
	return out, err
}

// CronJobs lists gateway cron jobs.
func (c *Client) CronJobs(ctx context.Context) ([]CronJob, error) {
	var out []CronJob
	err := c.fetchList(ctx, "cron", "jobs", &out)
	return out, err
}

// Fetch retrieves sessions and cron jobs concurrently. A failure of one
// resource leaves its list empty without affecting the other; the state
// is connected only when both answered.
func (c *Client) Fetch(ctx context.Context) State {
	var (
		wg               sync.WaitGroup
		sessions         []Session
		jobs             []CronJob
		sessErr, cronErr error
	)
	wg.Add(2)
	go func() {
		defer wg.Done()
		sessions, sessErr = c.Sessions(ctx)
	}()
	go func() {
		defer wg.Done()
		jobs, cronErr = c.CronJobs(ctx)
	}()
	wg.Wait()

	st := State{
		Sessions:    sessions,
		CronJobs:    jobs,
		LastUpdated: time.Now().UTC(),
		Connected:   sessErr == nil && cronErr == nil,
	}
	if st.Sessions == nil {
		st.Sessions = []Session{}
	}
	if st.CronJobs == nil {
		st.CronJobs = []CronJob{}
	}
	if err := errors.Join(sessErr, cronErr); err != nil {
		st.LastError = err.Error()
	}
	return st
}

// fetchList decodes either a bare JSON array or an object holding the
// array under key. The /api path is tried first.
func (c *Client) fetchList(ctx context.Context, resource, key string, out any) error {
	var firstErr error
	for _, path := range []string{"/api/" + resource, "/" + resource} {
		err := c.getList(ctx, c.baseURL+path, key, out)
		if err == nil {
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		c.logger.Log(ctx, slog.Level(-8), "gateway fetch failed", // config.LevelTrace
			"url", c.baseURL+path, "error", err)
		if firstErr == nil {
			firstErr = err
		}
	}
	return fmt.Errorf("fetch %s: %w", resource, firstErr)
}

func (c *Client) getList(ctx context.Context, url, key string, out any) error {
	var raw json.RawMessage
	if err := httpkit.GetJSON(ctx, c.http, url, &raw); err != nil {
		return err
	}
	trimmed := strings.TrimSpace(string(raw))
	if strings.HasPrefix(trimmed, "[") {
		return json.Unmarshal(raw, out)
	}

	var wrapped map[string]json.RawMessage
	if err := json.Unmarshal(raw, &wrapped); err != nil {
		return fmt.Errorf("decode %s: %w", url, err)
	}
	inner, ok := wrapped[key]
	if !ok || string(inner) == "null" {
		return nil
	}
	return json.Unmarshal(inner, out)
}
