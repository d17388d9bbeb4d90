// Package mission implements Mission Control: an event-sourced log of
// task cards, agent chat threads with read cursors, agent runtime
// status, and the daily digest derived from all of it.
//
// Every mutator is a pure function. It never modifies its input; it
// returns a new [Data] plus a flag reporting whether anything changed.
// Operations on unknown task or thread ids, and operations with empty
// required input, return the input unchanged with changed == false.
//
// A card's cached Status, Priority, and AssignedTo always equal what a
// left fold over its Events implies (see [Replay]). Events are
// append-only and are never edited after they are written.
package mission

import (
	"bytes"
	"encoding/json"
	"time"
)

// TaskStatus is a kanban column.
type TaskStatus string

// Task statuses, in board order.
const (
	StatusBacklog TaskStatus = "backlog"
	StatusTodo    TaskStatus = "todo"
	StatusDoing   TaskStatus = "doing"
	StatusBlocked TaskStatus = "blocked"
	StatusDone    TaskStatus = "done"
)

// StatusOrder lists every status in board column order.
var StatusOrder = []TaskStatus{StatusBacklog, StatusTodo, StatusDoing, StatusBlocked, StatusDone}

// Valid reports whether s is one of the known statuses.
func (s TaskStatus) Valid() bool {
	switch s {
	case StatusBacklog, StatusTodo, StatusDoing, StatusBlocked, StatusDone:
		return true
	}
	return false
}

// TaskPriority orders cards within a column.
type TaskPriority string

// Task priorities, lowest first.
const (
	PriorityLow    TaskPriority = "low"
	PriorityNormal TaskPriority = "normal"
	PriorityHigh   TaskPriority = "high"
	PriorityUrgent TaskPriority = "urgent"
)

// Valid reports whether p is one of the known priorities.
func (p TaskPriority) Valid() bool {
	switch p {
	case PriorityLow, PriorityNormal, PriorityHigh, PriorityUrgent:
		return true
	}
	return false
}

// EventType classifies a task event.
type EventType string

// Task event types.
const (
	EventCreated         EventType = "created"
	EventStatusChanged   EventType = "status_changed"
	EventPriorityChanged EventType = "priority_changed"
	EventAssigned        EventType = "assigned"
	EventCommentAdded    EventType = "comment_added"
	EventUpdated         EventType = "updated"
)

// Valid reports whether t is one of the known event types.
func (t EventType) Valid() bool {
	switch t {
	case EventCreated, EventStatusChanged, EventPriorityChanged, EventAssigned, EventCommentAdded, EventUpdated:
		return true
	}
	return false
}

// RuntimeState is the live state of an agent.
type RuntimeState string

// Agent runtime states.
const (
	StateOffline RuntimeState = "offline"
	StateIdle    RuntimeState = "idle"
	StateBusy    RuntimeState = "busy"
	StateBlocked RuntimeState = "blocked"
	StateError   RuntimeState = "error"
)

// Valid reports whether s is one of the known runtime states.
func (s RuntimeState) Valid() bool {
	switch s {
	case StateOffline, StateIdle, StateBusy, StateBlocked, StateError:
		return true
	}
	return false
}

// EventMeta carries the before/after values relevant to an event. An
// assignee pointer that is non-nil but empty records "unassigned".
type EventMeta struct {
	FromStatus   TaskStatus   `json:"fromStatus,omitempty"`
	ToStatus     TaskStatus   `json:"toStatus,omitempty"`
	FromPriority TaskPriority `json:"fromPriority,omitempty"`
	ToPriority   TaskPriority `json:"toPriority,omitempty"`
	FromAssignee *string      `json:"fromAssignee,omitempty"`
	ToAssignee   *string      `json:"toAssignee,omitempty"`
	CommentID    string       `json:"commentId,omitempty"`
	Fields       []string     `json:"fields,omitempty"`
}

// TaskEvent is one append-only entry in a card's history.
type TaskEvent struct {
	ID        string     `json:"id"`
	TaskID    string     `json:"taskId"`
	Type      EventType  `json:"type"`
	ActorID   string     `json:"actorId"`
	CreatedAt time.Time  `json:"createdAt"`
	Message   string     `json:"message,omitempty"`
	Meta      *EventMeta `json:"meta,omitempty"`
}

// TaskComment is a note left on a card.
type TaskComment struct {
	ID        string    `json:"id"`
	TaskID    string    `json:"taskId"`
	AuthorID  string    `json:"authorId"`
	Body      string    `json:"body"`
	CreatedAt time.Time `json:"createdAt"`
}

// TaskCard is a Mission Control task.
type TaskCard struct {
	ID          string        `json:"id"`
	Title       string        `json:"title"`
	Description string        `json:"description,omitempty"`
	Status      TaskStatus    `json:"status"`
	Priority    TaskPriority  `json:"priority"`
	AssignedTo  string        `json:"assignedTo,omitempty"`
	CreatedAt   time.Time     `json:"createdAt"`
	UpdatedAt   time.Time     `json:"updatedAt"`
	DueDate     string        `json:"dueDate,omitempty"` // yyyy-MM-dd
	Tags        []string      `json:"tags,omitempty"`
	Comments    []TaskComment `json:"comments"`
	Events      []TaskEvent   `json:"events"`
}

// AgentMessage is one chat message in an agent thread.
type AgentMessage struct {
	ID        string    `json:"id"`
	ThreadID  string    `json:"threadId"`
	SenderID  string    `json:"senderId"`
	Body      string    `json:"body"`
	CreatedAt time.Time `json:"createdAt"`
}

// AgentThread is the single chat thread held with one agent.
type AgentThread struct {
	ID         string         `json:"id"`
	AgentID    string         `json:"agentId"`
	Title      string         `json:"title"`
	Messages   []AgentMessage `json:"messages"`
	CreatedAt  time.Time      `json:"createdAt"`
	UpdatedAt  time.Time      `json:"updatedAt"`
	LastReadAt *time.Time     `json:"lastReadAt,omitempty"`
}

// AgentRuntimeStatus is the live status entry for one agent.
type AgentRuntimeStatus struct {
	AgentID      string       `json:"agentId"`
	State        RuntimeState `json:"state"`
	UpdatedAt    time.Time    `json:"updatedAt"`
	Note         string       `json:"note,omitempty"`
	ActiveTaskID string       `json:"activeTaskId,omitempty"`
}

// Data is the Mission Control sub-document.
type Data struct {
	Tasks        []TaskCard           `json:"tasks"`
	Threads      []AgentThread        `json:"threads"`
	AgentRuntime []AgentRuntimeStatus `json:"agentRuntime"`
}

// OptString is a tri-state optional string for partial updates: not
// supplied (leave as-is), null (clear), or a value (set). In JSON an
// absent key is "not supplied" and an explicit null is "clear".
type OptString struct {
	Set   bool
	Valid bool
	Value string
}

// Keep leaves the field untouched.
func Keep() OptString { return OptString{} }

// Clear removes the field.
func Clear() OptString { return OptString{Set: true} }

// SetTo assigns v to the field.
func SetTo(v string) OptString { return OptString{Set: true, Valid: true, Value: v} }

// UnmarshalJSON implements [json.Unmarshaler]. It is only invoked when
// the key is present, which is what distinguishes Set from Keep.
func (o *OptString) UnmarshalJSON(b []byte) error {
	o.Set = true
	if bytes.Equal(bytes.TrimSpace(b), []byte("null")) {
		o.Valid = false
		o.Value = ""
		return nil
	}
	o.Valid = true
	return json.Unmarshal(b, &o.Value)
}

// MarshalJSON implements [json.Marshaler].
func (o OptString) MarshalJSON() ([]byte, error) {
	if !o.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(o.Value)
}

// stamp returns t, or the current UTC time if t is zero.
func stamp(t time.Time) time.Time {
	if t.IsZero() {
		return time.Now().UTC()
	}
	return t
}

func strPtr(s string) *string { return &s }
