package webhook

import "testing"

func TestPolicy_Authorized(t *testing.T) {
	p := NewPolicy([]string{" U1 ", "U2", ""}, "eyes")

	if !p.Authorized("U1") || !p.Authorized("U2") {
		t.Error("expected listed users to be authorised")
	}
	if p.Authorized("U3") || p.Authorized("") {
		t.Error("expected unlisted users to be rejected")
	}
	if p.Users() != 2 {
		t.Errorf("expected 2 users, got %d", p.Users())
	}
}

func TestPolicy_EmptyAllowList(t *testing.T) {
	p := NewPolicy(nil, "eyes")
	if p.Authorized("U1") {
		t.Error("expected empty allow-list to authorise nobody")
	}
}

func TestPolicy_Triggers(t *testing.T) {
	p := NewPolicy(nil, ":chart_increasing:")

	tests := []struct {
		reaction string
		want     bool
	}{
		{"chart_increasing", true},
		{":chart_increasing:", true},
		{"chart_decreasing", false},
		{"", false},
	}
	for _, tt := range tests {
		if got := p.Triggers(tt.reaction); got != tt.want {
			t.Errorf("Triggers(%q) = %v, want %v", tt.reaction, got, tt.want)
		}
	}
}

func TestPolicy_NoEmojiNeverTriggers(t *testing.T) {
	p := NewPolicy([]string{"U1"}, "")
	if p.Triggers("") || p.Triggers("eyes") {
		t.Error("expected empty trigger emoji to match nothing")
	}
}
