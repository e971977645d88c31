// Package analyzer implements automated CV scoring for new applications.
//
// Scoring is deliberate keyword matching, not an LLM call: each job
// requirement is checked against the candidate's CV text and the match ratio
// becomes the score. The verdict is stored on the application as JSONB and
// drives the PENDING → ANALYZED transition.
package analyzer

import (
	"strings"
	"time"
)

// Fit labels attached to an analysis verdict.
const (
	FitStrong   = "STRONG"
	FitModerate = "MODERATE"
	FitWeak     = "WEAK"
)

const (
	strongThreshold   = 75
	moderateThreshold = 40
)

// Analysis is the verdict stored in applications.cv_analysis.
type Analysis struct {
	Score      int       `json:"score"` // 0–100
	Fit        string    `json:"fit"`
	Matched    []string  `json:"matched"`
	Missing    []string  `json:"missing"`
	AnalyzedAt time.Time `json:"analyzedAt"`
}

// Analyze scores cvText against the job's requirement list.
// A job without requirements cannot discriminate, so every candidate gets a
// moderate verdict rather than a perfect score.
func Analyze(cvText string, requirements []string) Analysis {
	a := Analysis{
		Matched:    []string{},
		Missing:    []string{},
		AnalyzedAt: time.Now().UTC(),
	}

	kept := 0
	cv := strings.ToLower(cvText)
	for _, req := range requirements {
		req = strings.TrimSpace(req)
		if req == "" {
			continue
		}
		kept++
		if strings.Contains(cv, strings.ToLower(req)) {
			a.Matched = append(a.Matched, req)
		} else {
			a.Missing = append(a.Missing, req)
		}
	}

	if kept == 0 {
		a.Score = 50
		a.Fit = FitModerate
		return a
	}

	a.Score = (len(a.Matched) * 100) / kept
	a.Fit = fit(a.Score)
	return a
}

func fit(score int) string {
	switch {
	case score >= strongThreshold:
		return FitStrong
	case score >= moderateThreshold:
		return FitModerate
	default:
		return FitWeak
	}
}
