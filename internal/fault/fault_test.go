package fault

import (
	"errors"
	"fmt"
	"testing"
)

func TestError_Message(t *testing.T) {
	cause := errors.New("dial tcp: timeout")
	err := Wrap(KindUpstream, "slack.fetch", cause, "failed to reach Slack").WithHint("try again later")

	want := "slack.fetch: failed to reach Slack (try again later): dial tcp: timeout"
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}
	if err.UserMessage() != "failed to reach Slack. try again later" {
		t.Errorf("UserMessage() = %q", err.UserMessage())
	}
	if !errors.Is(err, cause) {
		t.Error("expected cause to be reachable via errors.Is")
	}
}

func TestKindOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Kind
	}{
		{"direct", New(KindValidation, "op", "bad"), KindValidation},
		{"wrapped", fmt.Errorf("outer: %w", New(KindPermission, "op", "scope")), KindPermission},
		{"plain", errors.New("boom"), KindUnknown},
		{"nil", nil, KindUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := KindOf(tt.err); got != tt.want {
				t.Errorf("KindOf() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestIs(t *testing.T) {
	err := fmt.Errorf("wrap: %w", New(KindContractViolation, "extract", "bad json").WithDetail("raw"))
	if !Is(err, KindContractViolation) {
		t.Error("expected contract violation")
	}
	if Is(err, KindUpstream) {
		t.Error("did not expect upstream")
	}
	if Is(nil, KindUnknown) {
		t.Error("nil error should never match")
	}
}

func TestAs(t *testing.T) {
	inner := New(KindPermission, "slack.fetch_thread", "missing scope").WithHint("add channels:history")
	wrapped := fmt.Errorf("fetch: %w", inner)

	fe, ok := As(wrapped)
	if !ok || fe != inner {
		t.Fatalf("As() = %v, %v; want the inner error", fe, ok)
	}
	if _, ok := As(errors.New("plain")); ok {
		t.Error("expected plain error not to match")
	}
}
