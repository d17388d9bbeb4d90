package mission

// NewEmpty returns an empty Mission Control document.
func NewEmpty() Data {
	return Data{
		Tasks:        []TaskCard{},
		Threads:      []AgentThread{},
		AgentRuntime: []AgentRuntimeStatus{},
	}
}

// Normalize fills nil collections and repairs unknown enum values in a
// decoded document. It never drops tasks, threads, or events.
func Normalize(d Data) Data {
	out := d.Clone()
	for i := range out.Tasks {
		t := &out.Tasks[i]
		if !t.Status.Valid() {
			t.Status = StatusBacklog
		}
		if !t.Priority.Valid() {
			t.Priority = PriorityNormal
		}
		if t.Comments == nil {
			t.Comments = []TaskComment{}
		}
		if t.Events == nil {
			t.Events = []TaskEvent{}
		}
	}
	for i := range out.Threads {
		if out.Threads[i].Messages == nil {
			out.Threads[i].Messages = []AgentMessage{}
		}
	}
	for i := range out.AgentRuntime {
		if !out.AgentRuntime[i].State.Valid() {
			out.AgentRuntime[i].State = StateOffline
		}
	}
	return out
}
