package mission

import (
	"slices"
	"strings"
	"time"

	"github.com/nugget/lifeboard/internal/agents"
	"github.com/nugget/lifeboard/internal/uid"
)

// UntitledTask is used when a card is created with a blank title.
const UntitledTask = "Untitled task"

// CreateTaskInput describes a new task card. Zero values pick the
// defaults: a generated id, backlog, normal priority, the user as
// actor, and the current time.
type CreateTaskInput struct {
	ID          string
	Title       string
	Description string
	Status      TaskStatus
	Priority    TaskPriority
	AssignedTo  string
	DueDate     string
	Tags        []string
	ActorID     string
	CreatedAt   time.Time
}

// TaskUpdate is a partial update to a card. Nil pointers leave a field
// alone. A pointer to "" clears Description, AssignedTo, or DueDate. A
// nil Tags leaves tags alone; a non-nil empty slice clears them.
type TaskUpdate struct {
	Title       *string
	Description *string
	Priority    *TaskPriority
	AssignedTo  *string
	DueDate     *string
	Tags        []string
	ActorID     string
	UpdatedAt   time.Time
}

// CommentInput describes a comment to append to a card.
type CommentInput struct {
	AuthorID  string
	Body      string
	CreatedAt time.Time
}

// EventInput describes a raw event to append to a card.
type EventInput struct {
	Type      EventType
	ActorID   string
	CreatedAt time.Time
	Message   string
	Meta      *EventMeta
}

// FindTask returns the index of the card with the given id, or -1.
func FindTask(d Data, id string) int {
	return slices.IndexFunc(d.Tasks, func(t TaskCard) bool { return t.ID == id })
}

// CreateTask prepends a new card with a single "created" event and
// returns its id. If in.ID collides with an existing card nothing is
// created and the returned id is empty.
func CreateTask(d Data, in CreateTaskInput) (Data, string) {
	id := in.ID
	if id == "" {
		id = uid.New("task")
	} else if FindTask(d, id) >= 0 {
		return d, ""
	}

	at := stamp(in.CreatedAt)
	title := strings.TrimSpace(in.Title)
	if title == "" {
		title = UntitledTask
	}
	status := in.Status
	if !status.Valid() {
		status = StatusBacklog
	}
	priority := in.Priority
	if !priority.Valid() {
		priority = PriorityNormal
	}
	actor := actorOr(in.ActorID)
	assignee := strings.TrimSpace(in.AssignedTo)

	card := TaskCard{
		ID:          id,
		Title:       title,
		Description: strings.TrimSpace(in.Description),
		Status:      status,
		Priority:    priority,
		AssignedTo:  assignee,
		CreatedAt:   at,
		UpdatedAt:   at,
		DueDate:     strings.TrimSpace(in.DueDate),
		Tags:        cleanTags(in.Tags),
		Comments:    []TaskComment{},
		Events: []TaskEvent{{
			ID:        uid.New("event"),
			TaskID:    id,
			Type:      EventCreated,
			ActorID:   actor,
			CreatedAt: at,
			Message:   "Task created",
			Meta: &EventMeta{
				ToStatus:   status,
				ToPriority: priority,
				ToAssignee: strPtr(assignee),
			},
		}},
	}

	out := d.Clone()
	out.Tasks = append([]TaskCard{card}, out.Tasks...)
	return out, id
}

// UpdateTask applies a partial update. If any field actually changes,
// a single "updated" event lists the changed field names and carries
// the priority and assignee transitions. An update that changes
// nothing returns d unchanged.
func UpdateTask(d Data, taskID string, u TaskUpdate) (Data, bool) {
	idx := FindTask(d, taskID)
	if idx < 0 {
		return d, false
	}
	cur := d.Tasks[idx]
	next := cur.Clone()
	var fields []string
	meta := &EventMeta{}

	if u.Title != nil {
		if t := strings.TrimSpace(*u.Title); t != "" && t != cur.Title {
			next.Title = t
			fields = append(fields, "title")
		}
	}
	if u.Description != nil {
		if v := strings.TrimSpace(*u.Description); v != cur.Description {
			next.Description = v
			fields = append(fields, "description")
		}
	}
	if u.Priority != nil && u.Priority.Valid() && *u.Priority != cur.Priority {
		next.Priority = *u.Priority
		meta.FromPriority = cur.Priority
		meta.ToPriority = *u.Priority
		fields = append(fields, "priority")
	}
	if u.AssignedTo != nil {
		if v := strings.TrimSpace(*u.AssignedTo); v != cur.AssignedTo {
			next.AssignedTo = v
			meta.FromAssignee = strPtr(cur.AssignedTo)
			meta.ToAssignee = strPtr(v)
			fields = append(fields, "assignedTo")
		}
	}
	if u.DueDate != nil {
		if v := strings.TrimSpace(*u.DueDate); v != cur.DueDate {
			next.DueDate = v
			fields = append(fields, "dueDate")
		}
	}
	if u.Tags != nil {
		if v := cleanTags(u.Tags); !slices.Equal(v, cleanTags(cur.Tags)) {
			next.Tags = v
			fields = append(fields, "tags")
		}
	}

	if len(fields) == 0 {
		return d, false
	}

	at := stamp(u.UpdatedAt)
	meta.Fields = fields
	next.UpdatedAt = at
	next.Events = append(next.Events, TaskEvent{
		ID:        uid.New("event"),
		TaskID:    taskID,
		Type:      EventUpdated,
		ActorID:   actorOr(u.ActorID),
		CreatedAt: at,
		Message:   "Updated " + strings.Join(fields, ", "),
		Meta:      meta,
	})

	out := d.Clone()
	out.Tasks[idx] = next
	return out, true
}

// MoveTask changes a card's status and records a "status_changed"
// event. Moving to the current status or to an unknown status is a
// no-op.
func MoveTask(d Data, taskID string, to TaskStatus, actorID string, at time.Time) (Data, bool) {
	idx := FindTask(d, taskID)
	if idx < 0 || !to.Valid() || d.Tasks[idx].Status == to {
		return d, false
	}
	at = stamp(at)
	out := d.Clone()
	card := &out.Tasks[idx]
	from := card.Status
	card.Status = to
	card.UpdatedAt = at
	card.Events = append(card.Events, TaskEvent{
		ID:        uid.New("event"),
		TaskID:    taskID,
		Type:      EventStatusChanged,
		ActorID:   actorOr(actorID),
		CreatedAt: at,
		Message:   "Moved " + string(from) + " → " + string(to),
		Meta:      &EventMeta{FromStatus: from, ToStatus: to},
	})
	return out, true
}

// AppendComment adds a comment and a matching "comment_added" event.
// A blank body is a no-op.
func AppendComment(d Data, taskID string, in CommentInput) (Data, bool) {
	idx := FindTask(d, taskID)
	body := strings.TrimSpace(in.Body)
	if idx < 0 || body == "" {
		return d, false
	}
	at := stamp(in.CreatedAt)
	author := actorOr(in.AuthorID)
	out := d.Clone()
	card := &out.Tasks[idx]
	c := TaskComment{
		ID:        uid.New("comment"),
		TaskID:    taskID,
		AuthorID:  author,
		Body:      body,
		CreatedAt: at,
	}
	card.Comments = append(card.Comments, c)
	card.UpdatedAt = at
	card.Events = append(card.Events, TaskEvent{
		ID:        uid.New("event"),
		TaskID:    taskID,
		Type:      EventCommentAdded,
		ActorID:   author,
		CreatedAt: at,
		Message:   "Comment added",
		Meta:      &EventMeta{CommentID: c.ID},
	})
	return out, true
}

// AppendEvent appends a caller-built event. Events that carry a state
// transition also update the cached field so the card stays consistent
// with [Replay]. A "created" event cannot be appended to an existing
// card, and a "comment_added" event must go through [AppendComment].
func AppendEvent(d Data, taskID string, in EventInput) (Data, bool) {
	idx := FindTask(d, taskID)
	if idx < 0 || !in.Type.Valid() || in.Type == EventCreated || in.Type == EventCommentAdded {
		return d, false
	}
	at := stamp(in.CreatedAt)
	ev := TaskEvent{
		ID:        uid.New("event"),
		TaskID:    taskID,
		Type:      in.Type,
		ActorID:   actorOr(in.ActorID),
		CreatedAt: at,
		Message:   in.Message,
	}
	if in.Meta != nil {
		m := TaskEvent{Meta: in.Meta}.clone().Meta
		ev.Meta = m
	}

	out := d.Clone()
	card := &out.Tasks[idx]
	applyEvent(&card.Status, &card.Priority, &card.AssignedTo, ev)
	card.UpdatedAt = at
	card.Events = append(card.Events, ev)
	return out, true
}

// RemoveTask deletes a card and its history.
func RemoveTask(d Data, taskID string) (Data, bool) {
	idx := FindTask(d, taskID)
	if idx < 0 {
		return d, false
	}
	out := d.Clone()
	out.Tasks = slices.Delete(out.Tasks, idx, idx+1)
	return out, true
}

// HasUserActivity reports whether the user has commented on the card or
// recorded any event on it.
func HasUserActivity(t TaskCard) bool {
	for _, c := range t.Comments {
		if c.AuthorID == agents.User {
			return true
		}
	}
	for _, e := range t.Events {
		if e.ActorID == agents.User {
			return true
		}
	}
	return false
}

func actorOr(id string) string {
	if id = strings.TrimSpace(id); id != "" {
		return id
	}
	return agents.User
}

// cleanTags trims tags and drops blanks. The result is nil when no tag
// survives.
func cleanTags(tags []string) []string {
	var out []string
	for _, t := range tags {
		if t = strings.TrimSpace(t); t != "" {
			out = append(out, t)
		}
	}
	return out
}
