// Package pipeline defines the hiring pipeline state machine for candidate
// applications.
//
// Valid status graph:
//
//	PENDING ──► REVIEWED ──► SHORTLISTED ──► INTERVIEWED ──► OFFERED ──► HIRED
//	    │           ▲              ▲              ▲             ▲
//	    │           └──────┬───────┴──────┬───────┘             │
//	    └──► ANALYZED ─────┴──────────────┴─────────────────────┘
//
// Every non-terminal status may also move to REJECTED or WITHDRAWN.
// HIRED, REJECTED and WITHDRAWN are terminal states.
//
// ANALYZED is reached after automated CV scoring and deliberately fans out
// to any later stage: the score alone may qualify a candidate for an
// interview or even a direct offer without a human review pass. All other
// stages progress strictly forward, one step at a time.
package pipeline

import "fmt"

// Status values mirror the application_status enum in PostgreSQL.
type Status string

const (
	StatusPending     Status = "PENDING"
	StatusAnalyzed    Status = "ANALYZED"
	StatusReviewed    Status = "REVIEWED"
	StatusShortlisted Status = "SHORTLISTED"
	StatusInterviewed Status = "INTERVIEWED"
	StatusOffered     Status = "OFFERED"
	StatusHired       Status = "HIRED"
	StatusRejected    Status = "REJECTED"
	StatusWithdrawn   Status = "WITHDRAWN"
)

// validTransitions lists every allowed (from → to) pair.
var validTransitions = map[Status][]Status{
	StatusPending:     {StatusReviewed, StatusRejected, StatusWithdrawn, StatusAnalyzed},
	StatusAnalyzed:    {StatusReviewed, StatusShortlisted, StatusInterviewed, StatusOffered, StatusRejected, StatusWithdrawn},
	StatusReviewed:    {StatusShortlisted, StatusRejected, StatusWithdrawn},
	StatusShortlisted: {StatusInterviewed, StatusRejected, StatusWithdrawn},
	StatusInterviewed: {StatusOffered, StatusRejected, StatusWithdrawn},
	StatusOffered:     {StatusHired, StatusRejected, StatusWithdrawn},
	// HIRED, REJECTED and WITHDRAWN are terminal — no outgoing transitions
}

// allStatuses is the full recognized universe, in pipeline order.
var allStatuses = []Status{
	StatusPending, StatusAnalyzed, StatusReviewed, StatusShortlisted,
	StatusInterviewed, StatusOffered, StatusHired, StatusRejected,
	StatusWithdrawn,
}

// ParseStatus converts a raw string to a Status, returning an error for
// unknown values. Matching is strict: case-sensitive, no trimming.
func ParseStatus(s string) (Status, error) {
	st := Status(s)
	for _, known := range allStatuses {
		if st == known {
			return st, nil
		}
	}
	return "", fmt.Errorf("unknown application status %q", s)
}

// AllStatuses returns every recognized status in pipeline order. Callers
// that need strict input validation can check membership here before
// consulting the transition table.
func AllStatuses() []Status {
	return append([]Status(nil), allStatuses...)
}

// IsValidTransition returns true when moving current → proposed is permitted
// by the state machine. Unrecognized statuses on either side fail closed:
// they never permit a transition.
func IsValidTransition(current, proposed Status) bool {
	for _, s := range validTransitions[current] {
		if s == proposed {
			return true
		}
	}
	return false
}

// NextStatuses returns the set of statuses current may directly become.
// Terminal and unrecognized statuses yield nil.
func NextStatuses(current Status) []Status {
	next := validTransitions[current]
	if len(next) == 0 {
		return nil
	}
	return append([]Status(nil), next...)
}

// IsTerminal returns true when status has no outgoing transitions.
// Unrecognized statuses are treated as terminal: they are not actionable.
func IsTerminal(status Status) bool {
	return len(validTransitions[status]) == 0
}

// IsHired returns true when status is HIRED (triggers job-posting closure).
func IsHired(s Status) bool { return s == StatusHired }
