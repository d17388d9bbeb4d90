package mission

import "time"

// Clone returns a deep copy of d.
func (d Data) Clone() Data {
	out := Data{
		Tasks:        make([]TaskCard, len(d.Tasks)),
		Threads:      make([]AgentThread, len(d.Threads)),
		AgentRuntime: append([]AgentRuntimeStatus(nil), d.AgentRuntime...),
	}
	for i, t := range d.Tasks {
		out.Tasks[i] = t.Clone()
	}
	for i, th := range d.Threads {
		out.Threads[i] = th.Clone()
	}
	if out.AgentRuntime == nil {
		out.AgentRuntime = []AgentRuntimeStatus{}
	}
	return out
}

// Clone returns a deep copy of t.
func (t TaskCard) Clone() TaskCard {
	if t.Tags != nil {
		t.Tags = append([]string{}, t.Tags...)
	}
	t.Comments = append([]TaskComment{}, t.Comments...)
	events := make([]TaskEvent, len(t.Events))
	for i, e := range t.Events {
		events[i] = e.clone()
	}
	t.Events = events
	return t
}

func (e TaskEvent) clone() TaskEvent {
	if e.Meta == nil {
		return e
	}
	m := *e.Meta
	if m.FromAssignee != nil {
		m.FromAssignee = strPtr(*m.FromAssignee)
	}
	if m.ToAssignee != nil {
		m.ToAssignee = strPtr(*m.ToAssignee)
	}
	if m.Fields != nil {
		m.Fields = append([]string{}, m.Fields...)
	}
	e.Meta = &m
	return e
}

// Clone returns a deep copy of th.
func (th AgentThread) Clone() AgentThread {
	th.Messages = append([]AgentMessage{}, th.Messages...)
	if th.LastReadAt != nil {
		ts := *th.LastReadAt
		th.LastReadAt = &ts
	}
	return th
}

func timePtr(t time.Time) *time.Time { return &t }
