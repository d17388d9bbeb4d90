package agents

import "testing"

func TestRoster_UniqueIDs(t *testing.T) {
	seen := make(map[string]bool)
	for _, p := range Roster() {
		if seen[p.ID] {
			t.Errorf("duplicate agent id %q", p.ID)
		}
		seen[p.ID] = true
	}
	if len(seen) != 17 {
		t.Errorf("roster size = %d, want 17", len(seen))
	}
}

func TestRoster_ReturnsCopy(t *testing.T) {
	r := Roster()
	r[0].Name = "changed"
	r[0].Focus[0] = "changed"

	p, _ := ByID(r[0].ID)
	if p.Name == "changed" || p.Focus[0] == "changed" {
		t.Error("mutating Roster() result leaked into package state")
	}
}

func TestIsActor(t *testing.T) {
	tests := []struct {
		id   string
		want bool
	}{
		{User, true},
		{System, true},
		{"main", true},
		{"execution-watchdog", true},
		{"stranger", false},
		{"", false},
	}
	for _, tt := range tests {
		if got := IsActor(tt.id); got != tt.want {
			t.Errorf("IsActor(%q) = %v, want %v", tt.id, got, tt.want)
		}
	}
}
