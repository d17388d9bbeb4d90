package mission

// TaskState is the part of a card that is derived from its events.
type TaskState struct {
	Status     TaskStatus
	Priority   TaskPriority
	AssignedTo string
}

// Replay folds a card's events from the first onward and returns the
// state they imply. For any card produced by this package's mutators
// the result equals the card's cached fields.
func Replay(t TaskCard) TaskState {
	var s TaskState
	for _, e := range t.Events {
		applyEvent(&s.Status, &s.Priority, &s.AssignedTo, e)
	}
	return s
}

// Consistent reports whether the card's cached state matches its event
// history and every comment has a matching comment_added event.
func Consistent(t TaskCard) bool {
	s := Replay(t)
	if s.Status != t.Status || s.Priority != t.Priority || s.AssignedTo != t.AssignedTo {
		return false
	}
	ids := make(map[string]bool)
	for _, e := range t.Events {
		if e.Type == EventCommentAdded && e.Meta != nil {
			ids[e.Meta.CommentID] = true
		}
	}
	for _, c := range t.Comments {
		if !ids[c.ID] {
			return false
		}
	}
	return true
}

func applyEvent(status *TaskStatus, priority *TaskPriority, assignee *string, e TaskEvent) {
	m := e.Meta
	if m == nil {
		return
	}
	switch e.Type {
	case EventCreated:
		*status = m.ToStatus
		*priority = m.ToPriority
		if m.ToAssignee != nil {
			*assignee = *m.ToAssignee
		}
	case EventStatusChanged:
		if m.ToStatus.Valid() {
			*status = m.ToStatus
		}
	case EventPriorityChanged:
		if m.ToPriority.Valid() {
			*priority = m.ToPriority
		}
	case EventAssigned:
		if m.ToAssignee != nil {
			*assignee = *m.ToAssignee
		}
	case EventUpdated:
		if m.ToPriority.Valid() {
			*priority = m.ToPriority
		}
		if m.ToAssignee != nil {
			*assignee = *m.ToAssignee
		}
	}
}
