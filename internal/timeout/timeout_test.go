package timeout

import (
	"strings"
	"testing"
	"time"
)

func newTestManager(t *testing.T) *Manager {
	t.Helper()
	m, err := NewManager(Config{
		DefaultTimeout: 30 * time.Second,
		Rules: []Rule{
			{Pattern: "pg_stat", Timeout: 5 * time.Second},
			{Pattern: "JOIN", Timeout: 60 * time.Second},
		},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return m
}

func TestResolveMatchesFirstRule(t *testing.T) {
	t.Parallel()
	m := newTestManager(t)

	got, pattern := m.Resolve("SELECT * FROM pg_stat_activity", 0)
	if got != 5*time.Second {
		t.Errorf("expected 5s, got %v", got)
	}
	if pattern != "pg_stat" {
		t.Errorf("expected pattern 'pg_stat', got %q", pattern)
	}
}

func TestResolveStopsOnFirstMatch(t *testing.T) {
	t.Parallel()
	m := newTestManager(t)

	got, _ := m.Resolve("SELECT * FROM pg_stat JOIN x JOIN y", 0)
	if got != 5*time.Second {
		t.Errorf("expected 5s (first match wins), got %v", got)
	}
}

func TestResolveDefault(t *testing.T) {
	t.Parallel()
	m := newTestManager(t)

	got, pattern := m.Resolve("SELECT 1", 0)
	if got != 30*time.Second {
		t.Errorf("expected 30s (default), got %v", got)
	}
	if pattern != "" {
		t.Errorf("expected empty pattern for default, got %q", pattern)
	}
}

func TestResolveOverrideWins(t *testing.T) {
	t.Parallel()
	m := newTestManager(t)

	got, pattern := m.Resolve("SELECT * FROM pg_stat_activity", 7*time.Second)
	if got != 7*time.Second {
		t.Errorf("expected 7s override, got %v", got)
	}
	if pattern != "override" {
		t.Errorf("expected pattern 'override', got %q", pattern)
	}
}

func TestResolveNoRules(t *testing.T) {
	t.Parallel()
	m, err := NewManager(Config{DefaultTimeout: 30 * time.Second})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got, _ := m.Resolve("SELECT 1", 0)
	if got != 30*time.Second {
		t.Errorf("expected 30s (default), got %v", got)
	}
}

func TestNewManagerErrorsOnInvalidRegex(t *testing.T) {
	t.Parallel()
	_, err := NewManager(Config{
		DefaultTimeout: 30 * time.Second,
		Rules: []Rule{
			{Pattern: `[invalid`, Timeout: 5 * time.Second},
		},
	})
	if err == nil {
		t.Fatal("expected error for invalid regex pattern")
	}
	if !strings.Contains(err.Error(), "invalid regex pattern") {
		t.Fatalf("expected error to contain 'invalid regex pattern', got: %s", err)
	}
}
