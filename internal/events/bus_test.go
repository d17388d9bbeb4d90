package events

import (
	"encoding/json"
	"sync"
	"testing"
	"time"
)

func TestNilBus(t *testing.T) {
	var b *Bus
	// Must not panic.
	b.Publish(Event{Source: SourceDashboard, Kind: KindHabitToggled})
	b.Emit(SourceDigest, KindDigestReady, nil)
	if got := b.SubscriberCount(); got != 0 {
		t.Errorf("SubscriberCount() on nil bus = %d, want 0", got)
	}
}

func TestEmit_StampsAndDelivers(t *testing.T) {
	b := New()
	ch := b.Subscribe(8)
	defer b.Unsubscribe(ch)

	before := time.Now()
	b.Emit(SourceDashboard, KindTaskMoved, map[string]any{"task_id": "task_1"})

	select {
	case got := <-ch:
		if got.Source != SourceDashboard || got.Kind != KindTaskMoved {
			t.Errorf("got %s/%s", got.Source, got.Kind)
		}
		if got.Timestamp.Before(before) {
			t.Errorf("timestamp %v predates publish", got.Timestamp)
		}
		if id, _ := got.Data["task_id"].(string); id != "task_1" {
			t.Errorf("task_id = %v", got.Data["task_id"])
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for event")
	}
}

func TestPublishMultipleSubscribers(t *testing.T) {
	b := New()
	const n = 5
	channels := make([]<-chan Event, n)
	for i := range n {
		channels[i] = b.Subscribe(8)
	}
	defer func() {
		for _, ch := range channels {
			b.Unsubscribe(ch)
		}
	}()

	evt := Event{Source: SourceGateway, Kind: KindGatewayPolled}
	b.Publish(evt)

	for i, ch := range channels {
		select {
		case got := <-ch:
			if got.Kind != evt.Kind {
				t.Errorf("subscriber %d: got %v, want %v", i, got, evt)
			}
		case <-time.After(time.Second):
			t.Fatalf("subscriber %d: timed out", i)
		}
	}
}

func TestDropOnFull(t *testing.T) {
	b := New()
	ch := b.Subscribe(1)
	defer b.Unsubscribe(ch)

	b.Publish(Event{Kind: "first"})
	b.Publish(Event{Kind: "second"})

	if got := <-ch; got.Kind != "first" {
		t.Errorf("got kind %q, want first", got.Kind)
	}
	select {
	case evt := <-ch:
		t.Errorf("expected empty channel, got event %v", evt)
	default:
	}
}

func TestUnsubscribe(t *testing.T) {
	b := New()
	ch1 := b.Subscribe(4)
	ch2 := b.Subscribe(4)
	if got := b.SubscriberCount(); got != 2 {
		t.Errorf("count = %d, want 2", got)
	}

	b.Unsubscribe(ch1)
	if _, ok := <-ch1; ok {
		t.Error("channel still open after Unsubscribe")
	}
	b.Unsubscribe(ch1) // second call is a no-op
	if got := b.SubscriberCount(); got != 1 {
		t.Errorf("count = %d, want 1", got)
	}

	b.Unsubscribe(ch2)
	b.Publish(Event{Kind: KindSaved}) // no subscribers left
}

func TestConcurrentPublishSubscribe(t *testing.T) {
	b := New()
	ch := b.Subscribe(64)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for range ch {
		}
	}()

	var pubWg sync.WaitGroup
	for i := range 10 {
		pubWg.Add(1)
		go func() {
			defer pubWg.Done()
			for j := range 100 {
				b.Emit(SourceDashboard, KindMessageSent, map[string]any{"publisher": i, "seq": j})
			}
		}()
	}
	pubWg.Wait()
	b.Unsubscribe(ch)
	wg.Wait()
}

func TestEvent_JSON(t *testing.T) {
	raw, err := json.Marshal(Event{Source: SourceDigest, Kind: KindDigestReady})
	if err != nil {
		t.Fatal(err)
	}
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		t.Fatal(err)
	}
	if m["source"] != "digest" || m["kind"] != "digest_ready" {
		t.Errorf("json = %s", raw)
	}
	if _, ok := m["data"]; ok {
		t.Error("empty data not omitted")
	}
}
