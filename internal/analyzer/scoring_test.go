package analyzer_test

import (
	"testing"

	"rolevate/pipeline-service/internal/analyzer"
)

const sampleCV = `Senior backend engineer. 8 years of Go and PostgreSQL.
Built event-driven services on Redis and Kafka. Some React on the side.`

// ── Analyze — matching ─────────────────────────────────────────────────────

func TestAnalyze_FullMatch(t *testing.T) {
	got := analyzer.Analyze(sampleCV, []string{"Go", "PostgreSQL", "Redis"})
	if got.Score != 100 {
		t.Errorf("Score = %d, want 100", got.Score)
	}
	if got.Fit != analyzer.FitStrong {
		t.Errorf("Fit = %s, want %s", got.Fit, analyzer.FitStrong)
	}
	if len(got.Missing) != 0 {
		t.Errorf("Missing = %v, want empty", got.Missing)
	}
}

func TestAnalyze_PartialMatch(t *testing.T) {
	got := analyzer.Analyze(sampleCV, []string{"Go", "Rust", "Kubernetes", "Redis"})
	if got.Score != 50 {
		t.Errorf("Score = %d, want 50", got.Score)
	}
	if got.Fit != analyzer.FitModerate {
		t.Errorf("Fit = %s, want %s", got.Fit, analyzer.FitModerate)
	}
	if len(got.Matched) != 2 || len(got.Missing) != 2 {
		t.Errorf("Matched/Missing = %v / %v, want 2 each", got.Matched, got.Missing)
	}
}

func TestAnalyze_NoMatch(t *testing.T) {
	got := analyzer.Analyze(sampleCV, []string{"COBOL", "Fortran", "Erlang"})
	if got.Score != 0 {
		t.Errorf("Score = %d, want 0", got.Score)
	}
	if got.Fit != analyzer.FitWeak {
		t.Errorf("Fit = %s, want %s", got.Fit, analyzer.FitWeak)
	}
}

// Matching must be case-insensitive in both directions.
func TestAnalyze_CaseInsensitive(t *testing.T) {
	got := analyzer.Analyze("expert in GOLANG and postgresql", []string{"golang", "PostgreSQL"})
	if got.Score != 100 {
		t.Errorf("Score = %d, want 100 (case-insensitive match)", got.Score)
	}
}

// ── Analyze — degenerate inputs ────────────────────────────────────────────

func TestAnalyze_NoRequirements(t *testing.T) {
	for _, reqs := range [][]string{nil, {}, {"", "  "}} {
		got := analyzer.Analyze(sampleCV, reqs)
		if got.Score != 50 {
			t.Errorf("Analyze(cv, %v) Score = %d, want neutral 50", reqs, got.Score)
		}
		if got.Fit != analyzer.FitModerate {
			t.Errorf("Analyze(cv, %v) Fit = %s, want %s", reqs, got.Fit, analyzer.FitModerate)
		}
	}
}

func TestAnalyze_EmptyCV(t *testing.T) {
	got := analyzer.Analyze("", []string{"Go", "Redis"})
	if got.Score != 0 {
		t.Errorf("Score = %d, want 0 for empty CV", got.Score)
	}
	if len(got.Missing) != 2 {
		t.Errorf("Missing = %v, want both requirements", got.Missing)
	}
}

// Blank requirement entries must not dilute the score.
func TestAnalyze_BlankRequirementsIgnored(t *testing.T) {
	got := analyzer.Analyze(sampleCV, []string{"Go", "", "   ", "Redis"})
	if got.Score != 100 {
		t.Errorf("Score = %d, want 100 (blanks ignored)", got.Score)
	}
}

// Matched and Missing must always be non-nil so the JSONB verdict renders
// as [] rather than null.
func TestAnalyze_SlicesNeverNil(t *testing.T) {
	got := analyzer.Analyze("", nil)
	if got.Matched == nil || got.Missing == nil {
		t.Error("Matched and Missing must be non-nil empty slices")
	}
}
