package uid

import (
	"strings"
	"testing"

	"github.com/google/uuid"
)

func TestNew_Prefix(t *testing.T) {
	id := New("task")
	if !HasPrefix(id, "task") {
		t.Fatalf("New(task) = %q, want task_ prefix", id)
	}
	if _, err := uuid.Parse(strings.TrimPrefix(id, "task_")); err != nil {
		t.Errorf("suffix is not a UUID: %v", err)
	}
}

func TestNew_Unique(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 1000; i++ {
		id := New("event")
		if seen[id] {
			t.Fatalf("duplicate id %q after %d iterations", id, i)
		}
		seen[id] = true
	}
}

func TestNew_NoPrefix(t *testing.T) {
	if _, err := uuid.Parse(New("")); err != nil {
		t.Errorf("New(\"\") is not a bare UUID: %v", err)
	}
}
