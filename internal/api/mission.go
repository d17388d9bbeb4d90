package api

import (
	"net/http"

	"github.com/nugget/lifeboard/internal/mission"
)

type taskCreateRequest struct {
	Title       string               `json:"title"`
	Description string               `json:"description"`
	Status      mission.TaskStatus   `json:"status"`
	Priority    mission.TaskPriority `json:"priority"`
	AssignedTo  string               `json:"assignedTo"`
	DueDate     string               `json:"dueDate"`
	Tags        []string             `json:"tags"`
	ActorID     string               `json:"actorId"`
}

// taskUpdateRequest is a partial update: an absent key leaves the field
// alone and null clears it. Tags are cleared with an empty list.
type taskUpdateRequest struct {
	Title       *string               `json:"title"`
	Description mission.OptString     `json:"description"`
	Priority    *mission.TaskPriority `json:"priority"`
	AssignedTo  mission.OptString     `json:"assignedTo"`
	DueDate     mission.OptString     `json:"dueDate"`
	Tags        *[]string             `json:"tags"`
	ActorID     string                `json:"actorId"`
}

func (req taskUpdateRequest) update() mission.TaskUpdate {
	u := mission.TaskUpdate{
		Title:       req.Title,
		Description: optPtr(req.Description),
		Priority:    req.Priority,
		AssignedTo:  optPtr(req.AssignedTo),
		DueDate:     optPtr(req.DueDate),
		ActorID:     req.ActorID,
	}
	if req.Tags != nil {
		u.Tags = append([]string{}, *req.Tags...)
	}
	return u
}

// optPtr maps a partial-update field onto TaskUpdate's pointer convention,
// where a pointer to "" clears.
func optPtr(o mission.OptString) *string {
	if !o.Set {
		return nil
	}
	v := o.Value
	return &v
}

type taskMoveRequest struct {
	Status  mission.TaskStatus `json:"status"`
	ActorID string             `json:"actorId"`
}

type commentRequest struct {
	AuthorID string `json:"authorId"`
	Body     string `json:"body"`
}

// taskEventRequest appends a raw event. Created and comment events are
// refused; those go through their own endpoints.
type taskEventRequest struct {
	Type    mission.EventType  `json:"type"`
	ActorID string             `json:"actorId"`
	Message string             `json:"message"`
	Meta    *mission.EventMeta `json:"meta"`
}

type messageRequest struct {
	SenderID    string `json:"senderId"`
	Body        string `json:"body"`
	ThreadTitle string `json:"threadTitle"`
}

func (s *Server) handleTaskCreate(w http.ResponseWriter, r *http.Request) {
	var req taskCreateRequest
	if err := decode(r, &req); err != nil {
		s.errorResponse(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Status != "" && !req.Status.Valid() {
		s.errorResponse(w, http.StatusBadRequest, "unknown status")
		return
	}
	if req.Priority != "" && !req.Priority.Valid() {
		s.errorResponse(w, http.StatusBadRequest, "unknown priority")
		return
	}
	id := s.ctl.CreateTask(mission.CreateTaskInput{
		Title:       req.Title,
		Description: req.Description,
		Status:      req.Status,
		Priority:    req.Priority,
		AssignedTo:  req.AssignedTo,
		DueDate:     req.DueDate,
		Tags:        req.Tags,
		ActorID:     req.ActorID,
	})
	s.created(w, id, "task")
}

func (s *Server) handleTaskUpdate(w http.ResponseWriter, r *http.Request) {
	var req taskUpdateRequest
	if err := decode(r, &req); err != nil {
		s.errorResponse(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Priority != nil && !req.Priority.Valid() {
		s.errorResponse(w, http.StatusBadRequest, "unknown priority")
		return
	}
	s.changed(w, s.ctl.UpdateTask(r.PathValue("id"), req.update()))
}

func (s *Server) handleTaskMove(w http.ResponseWriter, r *http.Request) {
	var req taskMoveRequest
	if err := decode(r, &req); err != nil {
		s.errorResponse(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if !req.Status.Valid() {
		s.errorResponse(w, http.StatusBadRequest, "unknown status")
		return
	}
	s.changed(w, s.ctl.MoveTask(r.PathValue("id"), req.Status, req.ActorID))
}

func (s *Server) handleTaskComment(w http.ResponseWriter, r *http.Request) {
	var req commentRequest
	if err := decode(r, &req); err != nil {
		s.errorResponse(w, http.StatusBadRequest, "invalid request body")
		return
	}
	s.changed(w, s.ctl.CommentTask(r.PathValue("id"), mission.CommentInput{
		AuthorID: req.AuthorID,
		Body:     req.Body,
	}))
}

func (s *Server) handleTaskRemove(w http.ResponseWriter, r *http.Request) {
	s.changed(w, s.ctl.RemoveTask(r.PathValue("id")))
}

func (s *Server) handleTaskEvent(w http.ResponseWriter, r *http.Request) {
	var req taskEventRequest
	if err := decode(r, &req); err != nil {
		s.errorResponse(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if !req.Type.Valid() || req.Type == mission.EventCreated || req.Type == mission.EventCommentAdded {
		s.errorResponse(w, http.StatusBadRequest, "unsupported event type")
		return
	}
	s.changed(w, s.ctl.AppendTaskEvent(r.PathValue("id"), mission.EventInput{
		Type:    req.Type,
		ActorID: req.ActorID,
		Message: req.Message,
		Meta:    req.Meta,
	}))
}

func (s *Server) handleMessageSend(w http.ResponseWriter, r *http.Request) {
	var req messageRequest
	if err := decode(r, &req); err != nil {
		s.errorResponse(w, http.StatusBadRequest, "invalid request body")
		return
	}
	s.changed(w, s.ctl.SendMessage(r.PathValue("agentId"), mission.MessageInput{
		SenderID:    req.SenderID,
		Body:        req.Body,
		ThreadTitle: req.ThreadTitle,
	}))
}

func (s *Server) handleThreadRead(w http.ResponseWriter, r *http.Request) {
	s.changed(w, s.ctl.MarkThreadRead(r.PathValue("agentId")))
}

func (s *Server) handleRuntimeUpdate(w http.ResponseWriter, r *http.Request) {
	var u mission.RuntimeUpdate
	if err := decode(r, &u); err != nil {
		s.errorResponse(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if u.State != nil && !u.State.Valid() {
		s.errorResponse(w, http.StatusBadRequest, "unknown runtime state")
		return
	}
	s.changed(w, s.ctl.UpdateRuntime(r.PathValue("agentId"), u))
}

func (s *Server) handleUnread(w http.ResponseWriter, r *http.Request) {
	s.ok(w, http.StatusOK, s.ctl.Unread())
}
