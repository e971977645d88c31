package pipeline_test

// ── Additional edge-case and consistency tests ────────────────────────────
//
// This file extends transitions_test.go with whole-table consistency checks:
// agreement between IsValidTransition, NextStatuses and IsTerminal, and the
// forward-only shape of the status graph.

import (
	"testing"

	"rolevate/pipeline-service/internal/pipeline"
)

// ParseStatus must be case-sensitive — lowercase variants must not be valid.
func TestParseStatus_CaseSensitive(t *testing.T) {
	lowercase := []string{
		"pending", "analyzed", "reviewed", "shortlisted",
		"interviewed", "offered", "hired", "rejected", "withdrawn",
	}
	for _, s := range lowercase {
		_, err := pipeline.ParseStatus(s)
		if err == nil {
			t.Errorf("ParseStatus(%q) should reject lowercase value, got nil error", s)
		}
	}
}

// ParseStatus must reject whitespace-padded strings.
func TestParseStatus_WithWhitespace(t *testing.T) {
	padded := []string{" PENDING", "PENDING ", " PENDING "}
	for _, s := range padded {
		_, err := pipeline.ParseStatus(s)
		if err == nil {
			t.Errorf("ParseStatus(%q) should reject padded value, got nil error", s)
		}
	}
}

// All nine constants must round-trip through ParseStatus without error.
func TestParseStatus_AllConstantsRoundTrip(t *testing.T) {
	for _, s := range pipeline.AllStatuses() {
		got, err := pipeline.ParseStatus(string(s))
		if err != nil {
			t.Errorf("ParseStatus(%q) unexpected error: %v", s, err)
		}
		if got != s {
			t.Errorf("ParseStatus(%q) = %q, want %q", s, got, s)
		}
	}
}

// IsValidTransition(s, t) must hold exactly when t appears in NextStatuses(s).
func TestTransitionTableMatchesNextStatuses(t *testing.T) {
	for _, from := range pipeline.AllStatuses() {
		next := map[pipeline.Status]bool{}
		for _, s := range pipeline.NextStatuses(from) {
			next[s] = true
		}
		for _, to := range pipeline.AllStatuses() {
			got := pipeline.IsValidTransition(from, to)
			if got != next[to] {
				t.Errorf(
					"IsValidTransition(%s → %s) = %v, but NextStatuses membership says %v",
					from, to, got, next[to],
				)
			}
		}
	}
}

// IsTerminal must agree with NextStatuses being empty, for every status.
func TestIsTerminalMatchesNextStatuses(t *testing.T) {
	for _, s := range pipeline.AllStatuses() {
		terminal := pipeline.IsTerminal(s)
		empty := len(pipeline.NextStatuses(s)) == 0
		if terminal != empty {
			t.Errorf(
				"IsTerminal(%s) = %v, but NextStatuses(%s) emptiness = %v",
				s, terminal, s, empty,
			)
		}
	}
}

// Every successor listed in the table must itself be a recognized status.
func TestNextStatusesAreRecognized(t *testing.T) {
	known := map[pipeline.Status]bool{}
	for _, s := range pipeline.AllStatuses() {
		known[s] = true
	}
	for _, from := range pipeline.AllStatuses() {
		for _, to := range pipeline.NextStatuses(from) {
			if !known[to] {
				t.Errorf("NextStatuses(%s) contains unrecognized status %q", from, to)
			}
		}
	}
}

// PENDING is the mandatory initial state for any new application.
// Verify it is never reachable from any other state.
func TestIsValidTransition_PendingIsNeverReachable(t *testing.T) {
	for _, from := range pipeline.AllStatuses() {
		if pipeline.IsValidTransition(from, pipeline.StatusPending) {
			t.Errorf(
				"IsValidTransition(%s → PENDING) must be false: PENDING is only an initial state",
				from,
			)
		}
	}
}

// The graph is a forward-only progression: from any status, repeatedly
// following transitions must reach a terminal status without revisiting a
// status. Walks every path from PENDING and checks for cycles.
func TestStatusGraphIsAcyclic(t *testing.T) {
	var walk func(s pipeline.Status, seen map[pipeline.Status]bool)
	walk = func(s pipeline.Status, seen map[pipeline.Status]bool) {
		if seen[s] {
			t.Fatalf("status graph revisits %s — cycle detected", s)
		}
		seen[s] = true
		for _, next := range pipeline.NextStatuses(s) {
			branch := map[pipeline.Status]bool{}
			for k, v := range seen {
				branch[k] = v
			}
			walk(next, branch)
		}
	}
	walk(pipeline.StatusPending, map[pipeline.Status]bool{})
}

// Mutating a NextStatuses result must not corrupt the shared table.
func TestNextStatusesReturnsCopy(t *testing.T) {
	first := pipeline.NextStatuses(pipeline.StatusOffered)
	if len(first) == 0 {
		t.Fatal("NextStatuses(OFFERED) should be non-empty")
	}
	first[0] = pipeline.StatusPending

	second := pipeline.NextStatuses(pipeline.StatusOffered)
	for _, s := range second {
		if s == pipeline.StatusPending {
			t.Error("NextStatuses result aliasing: caller mutation leaked into the table")
		}
	}
}
