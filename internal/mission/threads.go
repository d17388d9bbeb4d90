package mission

import (
	"slices"
	"strings"
	"time"

	"github.com/nugget/lifeboard/internal/agents"
	"github.com/nugget/lifeboard/internal/uid"
)

// MessageInput describes a chat message to append to an agent thread.
type MessageInput struct {
	SenderID  string
	Body      string
	CreatedAt time.Time
	// ThreadTitle names a thread created by this message. Ignored when
	// the thread already exists.
	ThreadTitle string
}

// Unread summarizes unread message counts.
type Unread struct {
	Total      int            `json:"total"`
	ByThreadID map[string]int `json:"byThreadId"`
	ByAgentID  map[string]int `json:"byAgentId"`
}

// FindThread returns the index of the thread held with agentID, or -1.
func FindThread(d Data, agentID string) int {
	return slices.IndexFunc(d.Threads, func(t AgentThread) bool { return t.AgentID == agentID })
}

func findThreadByID(d Data, threadID string) int {
	return slices.IndexFunc(d.Threads, func(t AgentThread) bool { return t.ID == threadID })
}

// AppendAgentMessage appends a message to the thread with agentID,
// creating the thread if it does not exist. A blank body or agent id
// is a no-op.
func AppendAgentMessage(d Data, agentID string, in MessageInput) (Data, bool) {
	agentID = strings.TrimSpace(agentID)
	body := strings.TrimSpace(in.Body)
	if agentID == "" || body == "" {
		return d, false
	}
	at := stamp(in.CreatedAt)
	sender := actorOr(in.SenderID)

	out := d.Clone()
	idx := FindThread(out, agentID)
	if idx < 0 {
		title := strings.TrimSpace(in.ThreadTitle)
		if title == "" {
			title = "Thread: " + agentID
		}
		out.Threads = append(out.Threads, AgentThread{
			ID:        uid.New("thread"),
			AgentID:   agentID,
			Title:     title,
			Messages:  []AgentMessage{},
			CreatedAt: at,
			UpdatedAt: at,
		})
		idx = len(out.Threads) - 1
	}
	th := &out.Threads[idx]
	th.Messages = append(th.Messages, AgentMessage{
		ID:        uid.New("msg"),
		ThreadID:  th.ID,
		SenderID:  sender,
		Body:      body,
		CreatedAt: at,
	})
	th.UpdatedAt = at
	return out, true
}

// MarkThreadRead moves a thread's read cursor to readAt. A zero readAt
// means "everything so far": the latest message, or the thread's
// update time when it has none.
func MarkThreadRead(d Data, threadID string, readAt time.Time) (Data, bool) {
	idx := findThreadByID(d, threadID)
	if idx < 0 {
		return d, false
	}
	return markRead(d, idx, readAt)
}

// MarkAgentThreadRead is [MarkThreadRead] addressed by agent id.
func MarkAgentThreadRead(d Data, agentID string, readAt time.Time) (Data, bool) {
	idx := FindThread(d, agentID)
	if idx < 0 {
		return d, false
	}
	return markRead(d, idx, readAt)
}

func markRead(d Data, idx int, readAt time.Time) (Data, bool) {
	th := d.Threads[idx]
	if readAt.IsZero() {
		readAt = ThreadLastActivity(th)
	}
	if th.LastReadAt != nil && th.LastReadAt.Equal(readAt) {
		return d, false
	}
	out := d.Clone()
	out.Threads[idx].LastReadAt = timePtr(readAt)
	return out, true
}

// ThreadUnreadCount counts messages not sent by the user that arrived
// after the read cursor. With no cursor every such message is unread.
func ThreadUnreadCount(th AgentThread) int {
	n := 0
	for _, m := range th.Messages {
		if m.SenderID == agents.User {
			continue
		}
		if th.LastReadAt == nil || m.CreatedAt.After(*th.LastReadAt) {
			n++
		}
	}
	return n
}

// UnreadCounts tallies unread messages across threads.
func UnreadCounts(threads []AgentThread) Unread {
	u := Unread{
		ByThreadID: make(map[string]int, len(threads)),
		ByAgentID:  make(map[string]int, len(threads)),
	}
	for _, th := range threads {
		n := ThreadUnreadCount(th)
		u.ByThreadID[th.ID] = n
		u.ByAgentID[th.AgentID] += n
		u.Total += n
	}
	return u
}

// ThreadLastActivity is the time of the last message, or the thread's
// update time if it has no messages.
func ThreadLastActivity(th AgentThread) time.Time {
	last := th.UpdatedAt
	for _, m := range th.Messages {
		if m.CreatedAt.After(last) {
			last = m.CreatedAt
		}
	}
	return last
}

// SortThreadsByActivity returns a copy of threads, most recently active
// first. Ties keep their input order.
func SortThreadsByActivity(threads []AgentThread) []AgentThread {
	out := slices.Clone(threads)
	slices.SortStableFunc(out, func(a, b AgentThread) int {
		return ThreadLastActivity(b).Compare(ThreadLastActivity(a))
	})
	return out
}

// HasUserMessage reports whether the user has written in the thread.
func HasUserMessage(th AgentThread) bool {
	return slices.ContainsFunc(th.Messages, func(m AgentMessage) bool { return m.SenderID == agents.User })
}
