// Service layer for the pipeline package: pure business logic, no transport
// dependency. Used by the HTTP handlers and the analyzer worker.
package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
)

// SystemActor is the actor id recorded for transitions performed by the
// service itself (CV analyzer, schedulers) rather than a user.
const SystemActor = "system"

// Redis channels consumed by the gateway and the analyzer worker.
const (
	ChannelAnalyzeApplication = "CMD_ANALYZE_APPLICATION"
	ChannelStatusChanged      = "EVENT_STATUS_CHANGED"
	ChannelFollowupDue        = "EVENT_FOLLOWUP_DUE"
)

// ─── Types ───────────────────────────────────────────────────────────────────

// Application is the JSON shape returned to the gateway / web clients.
type Application struct {
	ID              string          `json:"id"`
	JobID           string          `json:"jobId"`
	CandidateID     string          `json:"candidateId"`
	Status          string          `json:"status"`
	CVAnalysis      json.RawMessage `json:"cvAnalysis"`
	RecruiterNotes  *string         `json:"recruiterNotes"`
	RecruiterRating *int            `json:"recruiterRating"`
	HistoryLog      json.RawMessage `json:"historyLog"`
	CreatedAt       time.Time       `json:"createdAt"`
	UpdatedAt       time.Time       `json:"updatedAt"`
}

// Actions describes the legal next moves for an application, as shown to a
// user: the current status, the statuses it may become, and whether the
// pipeline has finished.
type Actions struct {
	Status       string   `json:"status"`
	NextStatuses []Status `json:"nextStatuses"`
	Terminal     bool     `json:"terminal"`
}

// appColumns is the SELECT list shared by every query returning an Application.
const appColumns = `id, job_id, candidate_id, status, cv_analysis,
	recruiter_notes, recruiter_rating, history_log, created_at, updated_at`

// ─── Service ─────────────────────────────────────────────────────────────────

// Service encapsulates all pipeline business logic.
type Service struct {
	pool *pgxpool.Pool
	rdb  *redis.Client
}

// NewService returns a configured Service.
func NewService(pool *pgxpool.Pool, rdb *redis.Client) *Service {
	return &Service{pool: pool, rdb: rdb}
}

func scanApp(row pgx.Row) (*Application, error) {
	var a Application
	err := row.Scan(
		&a.ID, &a.JobID, &a.CandidateID, &a.Status, &a.CVAnalysis,
		&a.RecruiterNotes, &a.RecruiterRating, &a.HistoryLog,
		&a.CreatedAt, &a.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// ─── Reads ───────────────────────────────────────────────────────────────────

// ListApplications returns all applications for the given job posting, newest
// first. If statusFilter is non-empty it must be a recognized status and only
// applications with that status are returned.
func (s *Service) ListApplications(ctx context.Context, jobID, statusFilter string) ([]Application, error) {
	if statusFilter != "" {
		if _, err := ParseStatus(statusFilter); err != nil {
			return nil, &ValidationError{Msg: err.Error()}
		}
	}

	base := `SELECT ` + appColumns + ` FROM applications WHERE job_id = $1`

	var (
		rows pgx.Rows
		err  error
	)
	if statusFilter != "" {
		rows, err = s.pool.Query(ctx, base+` AND status = $2::application_status ORDER BY updated_at DESC`, jobID, statusFilter)
	} else {
		rows, err = s.pool.Query(ctx, base+` ORDER BY updated_at DESC`, jobID)
	}
	if err != nil {
		return nil, fmt.Errorf("listApplications query: %w", err)
	}
	defer rows.Close()

	apps := make([]Application, 0)
	for rows.Next() {
		a, err := scanApp(rows)
		if err != nil {
			return nil, fmt.Errorf("listApplications scan: %w", err)
		}
		apps = append(apps, *a)
	}
	return apps, rows.Err()
}

// GetApplication returns a single application by ID, validating that it
// belongs to candidateID.
func (s *Service) GetApplication(ctx context.Context, candidateID, appID string) (*Application, error) {
	a, err := scanApp(s.pool.QueryRow(ctx,
		`SELECT `+appColumns+` FROM applications WHERE id = $1 AND candidate_id = $2`,
		appID, candidateID,
	))
	if err != nil {
		return nil, ErrNotFound
	}
	return a, nil
}

// NextActions returns the legal next statuses for an application, for the UI
// to render only permitted actions.
func (s *Service) NextActions(ctx context.Context, candidateID, appID string) (*Actions, error) {
	var statusStr string
	err := s.pool.QueryRow(ctx,
		`SELECT status FROM applications WHERE id = $1 AND candidate_id = $2`,
		appID, candidateID,
	).Scan(&statusStr)
	if err != nil {
		return nil, ErrNotFound
	}

	st := Status(statusStr)
	return &Actions{
		Status:       statusStr,
		NextStatuses: NextStatuses(st),
		Terminal:     IsTerminal(st),
	}, nil
}

// ─── Writes ──────────────────────────────────────────────────────────────────

// SubmitApplication inserts a new application at PENDING for the given job
// posting. Duplicate submissions (same candidate, same job) return the
// existing row instead of erroring. It then publishes CMD_ANALYZE_APPLICATION
// so the CV analyzer scores the candidate.
func (s *Service) SubmitApplication(ctx context.Context, candidateID, jobID string) (*Application, error) {
	var open bool
	if err := s.pool.QueryRow(ctx,
		`SELECT is_open FROM jobs WHERE id = $1`, jobID,
	).Scan(&open); err != nil {
		return nil, ErrJobNotFound
	}
	if !open {
		return nil, &ValidationError{Msg: "job posting is closed"}
	}

	a, err := scanApp(s.pool.QueryRow(ctx,
		`INSERT INTO applications (candidate_id, job_id, status)
		 VALUES ($1, $2, 'PENDING')
		 ON CONFLICT (candidate_id, job_id) DO UPDATE SET candidate_id = EXCLUDED.candidate_id
		 RETURNING `+appColumns,
		candidateID, jobID,
	))
	if err != nil {
		return nil, fmt.Errorf("submitApplication: %w", err)
	}

	// Kick off CV scoring (non-fatal).
	s.publish(ctx, ChannelAnalyzeApplication, map[string]string{
		"eventId":       uuid.NewString(),
		"type":          ChannelAnalyzeApplication,
		"applicationId": a.ID,
		"jobId":         jobID,
		"candidateId":   candidateID,
	})

	return a, nil
}

// ChangeStatus transitions an application to a new pipeline status.
//
// The full caller protocol runs here: load current status, consult the state
// machine, and on success atomically persist the new status, append a
// {from,to,at} entry to history_log, and write an audit_logs row. The
// EVENT_STATUS_CHANGED publish and the hire side effect are non-fatal.
//
// Returns ErrNotFound if the application does not exist, ValidationError if
// the status string is unknown or the transition is not permitted.
func (s *Service) ChangeStatus(ctx context.Context, actorID, appID, newStatusStr string) (*Application, error) {
	newStatus, err := ParseStatus(newStatusStr)
	if err != nil {
		return nil, &ValidationError{Msg: err.Error()}
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("changeStatus begin: %w", err)
	}
	defer tx.Rollback(ctx)

	var currentStatusStr string
	err = tx.QueryRow(ctx,
		`SELECT status FROM applications WHERE id = $1 FOR UPDATE`,
		appID,
	).Scan(&currentStatusStr)
	if err != nil {
		return nil, ErrNotFound
	}

	currentStatus := Status(currentStatusStr)
	if !IsValidTransition(currentStatus, newStatus) {
		return nil, &ValidationError{
			Msg: fmt.Sprintf("transition %s → %s is not allowed", currentStatus, newStatus),
		}
	}

	historyEntry, _ := json.Marshal(map[string]string{
		"from": string(currentStatus),
		"to":   string(newStatus),
		"at":   time.Now().UTC().Format(time.RFC3339),
	})

	app, err := scanApp(tx.QueryRow(ctx,
		`UPDATE applications
		 SET status      = $1::application_status,
		     history_log = history_log || $2::jsonb,
		     updated_at  = NOW()
		 WHERE id = $3
		 RETURNING `+appColumns,
		string(newStatus), fmt.Sprintf("[%s]", historyEntry), appID,
	))
	if err != nil {
		return nil, fmt.Errorf("changeStatus update: %w", err)
	}

	detail, _ := json.Marshal(map[string]string{
		"from": string(currentStatus),
		"to":   string(newStatus),
	})
	_, err = tx.Exec(ctx,
		`INSERT INTO audit_logs (id, application_id, actor_id, action, detail)
		 VALUES ($1, $2, $3, 'STATUS_CHANGE', $4::jsonb)`,
		uuid.NewString(), appID, actorID, string(detail),
	)
	if err != nil {
		return nil, fmt.Errorf("changeStatus audit insert: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("changeStatus commit: %w", err)
	}

	// On HIRED: close the job posting (non-fatal).
	if IsHired(newStatus) {
		if err := s.closeJobPosting(ctx, appID); err != nil {
			slog.Warn("closeJobPosting failed", "applicationId", appID, "err", err)
		}
	}

	// Publish event for gateway SSE / notification fan-out (non-fatal).
	s.publish(ctx, ChannelStatusChanged, map[string]string{
		"eventId":       uuid.NewString(),
		"type":          ChannelStatusChanged,
		"applicationId": appID,
		"actorId":       actorID,
		"from":          string(currentStatus),
		"to":            string(newStatus),
	})

	return app, nil
}

// WithdrawApplication is the candidate self-service path: it validates
// ownership, then changes status to WITHDRAWN with the candidate as actor.
func (s *Service) WithdrawApplication(ctx context.Context, candidateID, appID string) (*Application, error) {
	var owner string
	err := s.pool.QueryRow(ctx,
		`SELECT candidate_id FROM applications WHERE id = $1`, appID,
	).Scan(&owner)
	if err != nil || owner != candidateID {
		return nil, ErrNotFound
	}
	return s.ChangeStatus(ctx, candidateID, appID, string(StatusWithdrawn))
}

// RecordAnalysis stores the CV analyzer's verdict and moves the application
// from PENDING to ANALYZED as the system actor. Applications no longer in
// PENDING (a recruiter got there first, or the candidate withdrew) keep
// their status; the analysis payload is still saved.
func (s *Service) RecordAnalysis(ctx context.Context, appID string, analysis json.RawMessage) (*Application, error) {
	app, err := scanApp(s.pool.QueryRow(ctx,
		`UPDATE applications SET cv_analysis = $1::jsonb, updated_at = NOW()
		 WHERE id = $2
		 RETURNING `+appColumns,
		string(analysis), appID,
	))
	if err != nil {
		return nil, ErrNotFound
	}

	if Status(app.Status) != StatusPending {
		slog.Info("analysis recorded without transition", "applicationId", appID, "status", app.Status)
		return app, nil
	}
	return s.ChangeStatus(ctx, SystemActor, appID, string(StatusAnalyzed))
}

// AddNote sets or replaces the recruiter's free-text note on an application.
func (s *Service) AddNote(ctx context.Context, recruiterID, appID, note string) (*Application, error) {
	app, err := scanApp(s.pool.QueryRow(ctx,
		`UPDATE applications SET recruiter_notes = $1, updated_at = NOW()
		 WHERE id = $2
		 RETURNING `+appColumns,
		note, appID,
	))
	if err != nil {
		return nil, ErrNotFound
	}

	detail, _ := json.Marshal(map[string]string{"note": note})
	if _, err := s.pool.Exec(ctx,
		`INSERT INTO audit_logs (id, application_id, actor_id, action, detail)
		 VALUES ($1, $2, $3, 'NOTE_ADDED', $4::jsonb)`,
		uuid.NewString(), appID, recruiterID, string(detail),
	); err != nil {
		slog.Warn("audit insert failed", "applicationId", appID, "err", err)
	}

	return app, nil
}

// RateCandidate sets a 1–5 star rating on an application.
func (s *Service) RateCandidate(ctx context.Context, recruiterID, appID string, rating int) (*Application, error) {
	if rating < 1 || rating > 5 {
		return nil, &ValidationError{Msg: "rating must be between 1 and 5"}
	}

	app, err := scanApp(s.pool.QueryRow(ctx,
		`UPDATE applications SET recruiter_rating = $1, updated_at = NOW()
		 WHERE id = $2
		 RETURNING `+appColumns,
		rating, appID,
	))
	if err != nil {
		return nil, ErrNotFound
	}
	return app, nil
}

// ─── Side effects ────────────────────────────────────────────────────────────

// closeJobPosting marks the job linked to a hired application as no longer
// open. Other pending applications for the job stay untouched — recruiters
// reject them explicitly.
func (s *Service) closeJobPosting(ctx context.Context, appID string) error {
	_, err := s.pool.Exec(ctx,
		`UPDATE jobs j
		 SET is_open    = false,
		     updated_at = NOW()
		 FROM applications a
		 WHERE a.id = $1 AND j.id = a.job_id`,
		appID,
	)
	return err
}

// publish sends a JSON event to a Redis channel, logging failures instead of
// surfacing them — a missed event must not fail the request that caused it.
func (s *Service) publish(ctx context.Context, channel string, payload map[string]string) {
	event, _ := json.Marshal(payload)
	if err := s.rdb.Publish(ctx, channel, event).Err(); err != nil {
		slog.Warn("redis publish failed", "channel", channel, "err", err)
	}
}

// ─── Sentinel errors ─────────────────────────────────────────────────────────

// ErrNotFound is returned when an application is missing or does not belong
// to the requesting user.
var ErrNotFound = fmt.Errorf("application not found")

// ErrJobNotFound is returned when a submission targets an unknown job posting.
var ErrJobNotFound = fmt.Errorf("job posting not found")

// ValidationError wraps a user-facing validation message.
type ValidationError struct{ Msg string }

func (e *ValidationError) Error() string { return e.Msg }
