package api

import (
	"errors"
	"net/http"

	"github.com/nugget/lifeboard/internal/agents"
	"github.com/nugget/lifeboard/internal/dates"
	"github.com/nugget/lifeboard/internal/knowledge"
	"github.com/nugget/lifeboard/internal/openclaw"
	"github.com/nugget/lifeboard/internal/storage"
)

type agentsResponse struct {
	Agents    []openclaw.AgentPresence `json:"agents"`
	Active    int                      `json:"active"`
	Connected bool                     `json:"gatewayConnected"`
}

// handleAgents reports roster presence from runtime entries, thread
// activity, and the gateway's last session list.
func (s *Server) handleAgents(w http.ResponseWriter, r *http.Request) {
	st := openclaw.Disconnected()
	if s.gateway != nil {
		st = s.gateway.State()
	}
	ps := openclaw.Presence(agents.Roster(), s.ctl.Snapshot().MissionControl, st.Sessions)
	s.ok(w, http.StatusOK, agentsResponse{
		Agents:    ps,
		Active:    openclaw.ActiveCount(ps),
		Connected: st.Connected,
	})
}

// handleGateway returns the last poll. With polling disabled it answers
// the disconnected state rather than an error.
func (s *Server) handleGateway(w http.ResponseWriter, r *http.Request) {
	st := openclaw.Disconnected()
	if s.gateway != nil {
		st = s.gateway.State()
	}
	s.ok(w, http.StatusOK, st)
}

type knowledgeResponse struct {
	UpdatedAt string            `json:"updatedAt"`
	Count     int               `json:"count"`
	Items     []knowledge.Entry `json:"items"`
}

// handleKnowledge loads the index and filters it by ?category= and ?q=.
func (s *Server) handleKnowledge(w http.ResponseWriter, r *http.Request) {
	if s.knowledge == nil {
		s.errorResponse(w, http.StatusServiceUnavailable, "knowledge index not configured")
		return
	}

	category := knowledge.Category(r.URL.Query().Get("category"))
	if category != "" && !category.Valid() {
		s.errorResponse(w, http.StatusBadRequest, "unknown category")
		return
	}

	idx, err := s.knowledge.Load(r.Context())
	if err != nil {
		s.logger.Warn("knowledge index load failed", "error", err)
		s.errorResponse(w, http.StatusBadGateway, "knowledge index unavailable")
		return
	}

	items := idx.Filter(category, r.URL.Query().Get("q"))
	s.ok(w, http.StatusOK, knowledgeResponse{
		UpdatedAt: idx.UpdatedAt,
		Count:     len(items),
		Items:     items,
	})
}

// handleDigest returns the digest for ?day=yyyy-MM-dd, today by default.
// A past day is served from the nightly archive when one was taken, so
// it still counts cards that have since been removed.
func (s *Server) handleDigest(w http.ResponseWriter, r *http.Request) {
	now := s.ctl.Now()
	day := now
	if key := r.URL.Query().Get("day"); key != "" {
		parsed, err := dates.Parse(key, now.Location())
		if err != nil {
			s.errorResponse(w, http.StatusBadRequest, "day must be yyyy-MM-dd")
			return
		}
		day = parsed
	}

	key := dates.Key(day)
	if s.digests != nil && key < dates.Key(now) {
		dg, err := s.digests.Digest(r.Context(), key)
		switch {
		case err == nil:
			w.Header().Set("X-Digest-Source", "archive")
			s.ok(w, http.StatusOK, dg)
			return
		case !errors.Is(err, storage.ErrNotFound):
			s.logger.Warn("digest archive read failed", "day", key, "error", err)
		}
	}

	w.Header().Set("X-Digest-Source", "live")
	s.ok(w, http.StatusOK, s.ctl.Digest(day))
}

type digestDaysResponse struct {
	Days []string `json:"days"`
}

// handleDigestDays lists the days with an archived digest, oldest first.
func (s *Server) handleDigestDays(w http.ResponseWriter, r *http.Request) {
	if s.digests == nil {
		s.ok(w, http.StatusOK, digestDaysResponse{Days: []string{}})
		return
	}
	days, err := s.digests.DigestDays(r.Context())
	if err != nil {
		s.logger.Warn("digest archive list failed", "error", err)
		s.errorResponse(w, http.StatusInternalServerError, "digest archive unavailable")
		return
	}
	if days == nil {
		days = []string{}
	}
	s.ok(w, http.StatusOK, digestDaysResponse{Days: days})
}
