// Package events provides the publish/subscribe bus that carries
// document-change notifications. The dashboard controller publishes an
// event after every accepted mutation; the websocket stream, the MQTT
// publisher, and the CLI subscribe. The bus is nil-safe: calling Publish
// on a nil *Bus is a no-op, so components do not need guard checks.
package events

import (
	"sync"
	"time"
)

// Source constants identify which component published an event.
const (
	// SourceDashboard identifies events from the document controller.
	SourceDashboard = "dashboard"
	// SourceGateway identifies events from the status gateway poller.
	SourceGateway = "gateway"
	// SourceDigest identifies events from the nightly digest job.
	SourceDigest = "digest"
	// SourceKnowledge identifies events from the knowledge index watcher.
	SourceKnowledge = "knowledge"
)

// Kind constants describe the type of event within a source.
const (
	// Habits. Data: habit_id.
	KindHabitToggled = "habit_toggled"
	KindHabitAdded   = "habit_added"
	KindHabitRemoved = "habit_removed"

	// Daily entries. Data: date.
	KindMetricUpserted  = "metric_upserted"
	KindCheckinUpserted = "checkin_upserted"

	// Bills. Data: bill_id.
	KindBillUpserted = "bill_upserted"
	KindBillRemoved  = "bill_removed"
	KindBillPaid     = "bill_paid"

	// Simple kanban board. Data: task_id.
	KindAgentTaskAdded   = "agent_task_added"
	KindAgentTaskMoved   = "agent_task_moved"
	KindAgentTaskRemoved = "agent_task_removed"

	// Mission Control. Data: task_id or agent_id.
	KindTaskCreated    = "task_created"
	KindTaskUpdated    = "task_updated"
	KindTaskMoved      = "task_moved"
	KindTaskCommented  = "task_commented"
	KindTaskEvent      = "task_event"
	KindTaskRemoved    = "task_removed"
	KindMessageSent    = "message_sent"
	KindThreadRead     = "thread_read"
	KindRuntimeUpdated = "runtime_updated"

	// Whole-document changes.
	KindReconciled = "reconciled"
	KindReplaced   = "replaced"

	// KindSaved signals a debounced write reached storage.
	// Data: bytes.
	KindSaved = "saved"
	// KindSaveFailed signals a write failed. Data: error.
	KindSaveFailed = "save_failed"

	// KindGatewayPolled signals a status poll finished.
	// Data: connected, sessions, jobs.
	KindGatewayPolled = "gateway_polled"

	// KindDigestReady signals the nightly digest was generated.
	// Data: date, summary.
	KindDigestReady = "digest_ready"

	// KindKnowledgeReloaded signals the knowledge index was re-read.
	// Data: items.
	KindKnowledgeReloaded = "knowledge_reloaded"
)

// Event represents a single event published by a component.
type Event struct {
	// Timestamp is when the event occurred.
	Timestamp time.Time `json:"ts"`
	// Source identifies the component that published the event.
	Source string `json:"source"`
	// Kind describes the type of event within the source.
	Kind string `json:"kind"`
	// Data holds event-specific key/value pairs.
	Data map[string]any `json:"data,omitempty"`
}

// Bus is a non-blocking broadcast event bus. Subscribers receive events
// on buffered channels; slow subscribers miss events rather than
// blocking publishers.
type Bus struct {
	mu   sync.RWMutex
	subs map[chan Event]struct{}
	// recvToSend maps the receive-only channel handed to subscribers
	// back to the channel stored in subs so Unsubscribe can close it.
	recvToSend map[<-chan Event]chan Event
}

// New creates a new event bus ready for use.
func New() *Bus {
	return &Bus{
		subs:       make(map[chan Event]struct{}),
		recvToSend: make(map[<-chan Event]chan Event),
	}
}

// Publish sends an event to all subscribers. Non-blocking: if a
// subscriber's channel is full, the event is dropped for that
// subscriber. Safe to call on a nil receiver (no-op).
func (b *Bus) Publish(e Event) {
	if b == nil {
		return
	}
	b.mu.RLock()
	defer b.mu.RUnlock()
	for ch := range b.subs {
		select {
		case ch <- e:
		default:
		}
	}
}

// Emit publishes an event stamped with the current time.
func (b *Bus) Emit(source, kind string, data map[string]any) {
	b.Publish(Event{Timestamp: time.Now(), Source: source, Kind: kind, Data: data})
}

// Subscribe returns a channel that receives published events. The
// caller must eventually call Unsubscribe. bufSize controls the channel
// buffer; 64 suits a websocket client.
func (b *Bus) Subscribe(bufSize int) <-chan Event {
	ch := make(chan Event, bufSize)
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subs[ch] = struct{}{}
	b.recvToSend[ch] = ch
	return ch
}

// Unsubscribe removes a subscription and closes the channel. Safe to
// call with a channel that is already unsubscribed (no-op).
func (b *Bus) Unsubscribe(ch <-chan Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	sendCh, ok := b.recvToSend[ch]
	if !ok {
		return
	}
	delete(b.subs, sendCh)
	delete(b.recvToSend, ch)
	close(sendCh)
}

// SubscriberCount returns the number of active subscribers.
func (b *Bus) SubscriberCount() int {
	if b == nil {
		return 0
	}
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}
