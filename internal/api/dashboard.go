package api

import (
	"net/http"

	"github.com/nugget/lifeboard/internal/appdata"
	"github.com/nugget/lifeboard/internal/bills"
)

// changedResponse answers every mutation. Invalid or redundant input is
// not an error: the document is left alone and changed is false.
type changedResponse struct {
	Changed bool `json:"changed"`
}

type createdResponse struct {
	ID string `json:"id"`
}

func (s *Server) changed(w http.ResponseWriter, changed bool) {
	s.ok(w, http.StatusOK, changedResponse{Changed: changed})
}

func (s *Server) created(w http.ResponseWriter, id, what string) {
	if id == "" {
		s.errorResponse(w, http.StatusBadRequest, "invalid "+what)
		return
	}
	s.ok(w, http.StatusCreated, createdResponse{ID: id})
}

func (s *Server) handleData(w http.ResponseWriter, r *http.Request) {
	s.ok(w, http.StatusOK, s.ctl.Snapshot())
}

func (s *Server) handleToday(w http.ResponseWriter, r *http.Request) {
	s.ok(w, http.StatusOK, s.ctl.Today())
}

type habitRequest struct {
	Title string `json:"title"`
	Emoji string `json:"emoji"`
}

func (s *Server) handleHabitAdd(w http.ResponseWriter, r *http.Request) {
	var req habitRequest
	if err := decode(r, &req); err != nil {
		s.errorResponse(w, http.StatusBadRequest, "invalid request body")
		return
	}
	s.created(w, s.ctl.AddHabit(req.Title, req.Emoji), "habit")
}

func (s *Server) handleHabitRemove(w http.ResponseWriter, r *http.Request) {
	s.changed(w, s.ctl.RemoveHabit(r.PathValue("id")))
}

func (s *Server) handleHabitToggle(w http.ResponseWriter, r *http.Request) {
	s.changed(w, s.ctl.ToggleHabit(r.PathValue("id")))
}

func (s *Server) handleHabitStats(w http.ResponseWriter, r *http.Request) {
	s.ok(w, http.StatusOK, s.ctl.HabitStats(r.PathValue("id")))
}

// handleMetric merges fields into today's metrics. The date in the body
// is ignored; entries always land on the server's today.
func (s *Server) handleMetric(w http.ResponseWriter, r *http.Request) {
	var entry appdata.MetricEntry
	if err := decode(r, &entry); err != nil {
		s.errorResponse(w, http.StatusBadRequest, "invalid request body")
		return
	}
	s.changed(w, s.ctl.UpsertMetric(entry))
}

func (s *Server) handleCheckin(w http.ResponseWriter, r *http.Request) {
	var entry appdata.DailyCheckin
	if err := decode(r, &entry); err != nil {
		s.errorResponse(w, http.StatusBadRequest, "invalid request body")
		return
	}
	s.changed(w, s.ctl.UpsertCheckin(entry))
}

func (s *Server) handleBillUpsert(w http.ResponseWriter, r *http.Request) {
	var b bills.Bill
	if err := decode(r, &b); err != nil {
		s.errorResponse(w, http.StatusBadRequest, "invalid request body")
		return
	}
	s.created(w, s.ctl.UpsertBill(b), "bill")
}

func (s *Server) handleBillRemove(w http.ResponseWriter, r *http.Request) {
	s.changed(w, s.ctl.RemoveBill(r.PathValue("id")))
}

func (s *Server) handleBillPaid(w http.ResponseWriter, r *http.Request) {
	s.changed(w, s.ctl.MarkBillPaid(r.PathValue("id")))
}

type agentTaskRequest struct {
	Title      string `json:"title"`
	AssignedTo string `json:"assignedTo"`
}

type agentTaskMoveRequest struct {
	Status appdata.AgentTaskStatus `json:"status"`
}

func (s *Server) handleAgentTaskAdd(w http.ResponseWriter, r *http.Request) {
	var req agentTaskRequest
	if err := decode(r, &req); err != nil {
		s.errorResponse(w, http.StatusBadRequest, "invalid request body")
		return
	}
	s.created(w, s.ctl.AddAgentTask(req.Title, req.AssignedTo), "agent task")
}

func (s *Server) handleAgentTaskMove(w http.ResponseWriter, r *http.Request) {
	var req agentTaskMoveRequest
	if err := decode(r, &req); err != nil {
		s.errorResponse(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if !req.Status.Valid() {
		s.errorResponse(w, http.StatusBadRequest, "status must be todo, doing, or done")
		return
	}
	s.changed(w, s.ctl.MoveAgentTask(r.PathValue("id"), req.Status))
}

func (s *Server) handleAgentTaskRemove(w http.ResponseWriter, r *http.Request) {
	s.changed(w, s.ctl.RemoveAgentTask(r.PathValue("id")))
}
