package store

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/uuid"

	"github.com/MikeSquared-Agency/estimator/internal/fault"
)

func strPtr(s string) *string { return &s }

func TestBuildListQuery(t *testing.T) {
	tests := []struct {
		name     string
		opts     ListOptions
		contains []string
		excludes []string
		args     []any
	}{
		{
			name:     "no options",
			opts:     ListOptions{Filter: FilterAll},
			excludes: []string{"WHERE", "ILIKE"},
		},
		{
			name:     "search",
			opts:     ListOptions{Search: "abc"},
			contains: []string{"fund_name ILIKE $1", "items ILIKE $1", "qa_estimation ILIKE $1"},
			args:     []any{"%abc%"},
		},
		{
			name:     "ds filter",
			opts:     ListOptions{Filter: FilterDS},
			contains: []string{"ds_estimation IS NOT NULL AND ds_estimation <> ''"},
			excludes: []string{"ILIKE"},
		},
		{
			name:     "missing filter with search",
			opts:     ListOptions{Search: " fund ", Filter: FilterMissing},
			contains: []string{"ILIKE $1", ") AND (ds_estimation IS NULL", "qa_estimation = ''"},
			args:     []any{"%fund%"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			query, args := buildListQuery(tt.opts)
			if !strings.HasSuffix(query, "ORDER BY created_at DESC") {
				t.Errorf("expected newest-first ordering, got %q", query)
			}
			for _, c := range tt.contains {
				if !strings.Contains(query, c) {
					t.Errorf("expected query to contain %q, got %q", c, query)
				}
			}
			for _, e := range tt.excludes {
				if strings.Contains(query, e) {
					t.Errorf("expected query not to contain %q, got %q", e, query)
				}
			}
			if diff := cmp.Diff(tt.args, args); diff != "" {
				t.Errorf("args mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestParseFilter(t *testing.T) {
	tests := map[string]Filter{
		"":        FilterAll,
		"all":     FilterAll,
		"ds":      FilterDS,
		"LE":      FilterLE,
		" qa ":    FilterQA,
		"missing": FilterMissing,
		"bogus":   FilterAll,
	}
	for in, want := range tests {
		if got := ParseFilter(in); got != want {
			t.Errorf("ParseFilter(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestBuildUpdate(t *testing.T) {
	id := uuid.New()

	query, args, err := buildUpdate(id, Patch{
		"qa_estimation": strPtr(""),
		"fund_name":     strPtr("  ABC Fund  "),
		"ds_estimation": strPtr("2h"),
		"id":            strPtr("hijack"),
		"created_at":    strPtr("yesterday"),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	wantSets := "SET ds_estimation = $2, fund_name = $3, qa_estimation = $4, updated_at = now() WHERE id = $1"
	if !strings.Contains(query, wantSets) {
		t.Errorf("expected %q in query, got %q", wantSets, query)
	}
	if strings.Contains(query, "created_at =") {
		t.Errorf("expected non-writable columns to be ignored, got %q", query)
	}

	want := []any{id, strPtr("2h"), strPtr("ABC Fund"), (*string)(nil)}
	if diff := cmp.Diff(want, args); diff != "" {
		t.Errorf("args mismatch (-want +got):\n%s", diff)
	}
}

func TestBuildUpdate_EmptyPatch(t *testing.T) {
	query, args, err := buildUpdate(uuid.New(), Patch{"unknown": strPtr("x")})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if query != "" || args != nil {
		t.Errorf("expected no update, got %q %v", query, args)
	}
}

func TestBuildUpdate_FundNameRequired(t *testing.T) {
	for _, v := range []*string{nil, strPtr(""), strPtr("   ")} {
		_, _, err := buildUpdate(uuid.New(), Patch{"fund_name": v})
		if !fault.Is(err, fault.KindValidation) {
			t.Errorf("expected validation error for %v, got %v", v, err)
		}
	}
}

func TestParseID(t *testing.T) {
	if _, err := parseID("op", "not-a-uuid"); !fault.Is(err, fault.KindNotFound) {
		t.Errorf("expected not found for malformed id, got %v", err)
	}
	id := uuid.New()
	got, err := parseID("op", id.String())
	if err != nil || got != id {
		t.Errorf("parseID() = %v, %v", got, err)
	}
}

func TestNullable(t *testing.T) {
	if nullable(nil) != nil {
		t.Error("expected nil to stay nil")
	}
	if nullable(strPtr("")) != nil {
		t.Error("expected empty string to become nil")
	}
	if v := nullable(strPtr("x")); v == nil || *v != "x" {
		t.Errorf("expected value preserved, got %v", v)
	}
}

func TestCreate_FundNameRequired(t *testing.T) {
	s := &Store{}
	_, err := s.Create(context.Background(), NewEstimation{FundName: "   "})
	if !fault.Is(err, fault.KindValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestLazy_Unconfigured(t *testing.T) {
	l := NewLazy("")
	if l.Configured() {
		t.Error("expected unconfigured")
	}
	_, err := l.List(context.Background(), ListOptions{})
	if !fault.Is(err, fault.KindConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}
}

func TestLazy_PingUnconfigured(t *testing.T) {
	if err := NewLazy("").Ping(context.Background()); !fault.Is(err, fault.KindConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}
}

func TestLazy_PingOpenFailure(t *testing.T) {
	l := NewLazy("postgres://example")
	l.open = func(context.Context, string) (*Store, error) {
		return nil, errors.New("connection refused")
	}
	if err := l.Ping(context.Background()); !fault.Is(err, fault.KindUpstream) {
		t.Fatalf("expected upstream error, got %v", err)
	}
}

func TestLazy_OpensOnce(t *testing.T) {
	calls := 0
	shared := &Store{}
	l := NewLazy("postgres://example")
	l.open = func(_ context.Context, url string) (*Store, error) {
		calls++
		return shared, nil
	}

	for i := 0; i < 3; i++ {
		s, err := l.Open(context.Background())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if s != shared {
			t.Fatal("expected the shared store")
		}
	}
	if calls != 1 {
		t.Errorf("expected one open, got %d", calls)
	}
}

func TestLazy_RetriesAfterFailure(t *testing.T) {
	calls := 0
	l := NewLazy("postgres://example")
	l.open = func(_ context.Context, url string) (*Store, error) {
		calls++
		if calls == 1 {
			return nil, errors.New("connection refused")
		}
		return &Store{}, nil
	}

	if _, err := l.Open(context.Background()); !fault.Is(err, fault.KindUpstream) {
		t.Fatalf("expected upstream error, got %v", err)
	}
	if _, err := l.Open(context.Background()); err != nil {
		t.Fatalf("expected retry to succeed, got %v", err)
	}
	if calls != 2 {
		t.Errorf("expected 2 opens, got %d", calls)
	}
}

func TestMigrateURL(t *testing.T) {
	tests := map[string]string{
		"postgres://u:p@db:5432/est": "pgx5://u:p@db:5432/est",
		"postgresql://u@db/est":      "pgx5://u@db/est",
		"pgx5://u@db/est":            "pgx5://u@db/est",
	}
	for in, want := range tests {
		if got := migrateURL(in); got != want {
			t.Errorf("migrateURL(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestEmbeddedMigrations(t *testing.T) {
	latest, err := latestVersion()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if latest != 1 {
		t.Errorf("expected latest version 1, got %d", latest)
	}
}

func TestMigrate_RequiresURL(t *testing.T) {
	if err := Migrate(""); err == nil {
		t.Fatal("expected error without database url")
	}
}
