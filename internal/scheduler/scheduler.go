// Package scheduler wires up the cron job that periodically flags stale
// applications for recruiter follow-up.
//
// An application is stale when it has sat in a non-terminal status with no
// update for the configured number of days. For each one the scheduler
// publishes EVENT_FOLLOWUP_DUE; the notification service turns those into
// recruiter nudges. Terminal applications (HIRED, REJECTED, WITHDRAWN) are
// never flagged.
package scheduler

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/robfig/cron/v3"

	"rolevate/pipeline-service/internal/pipeline"
)

// Scheduler wraps robfig/cron and manages the follow-up sweep.
type Scheduler struct {
	cron      *cron.Cron
	pool      *pgxpool.Pool
	rdb       *redis.Client
	spec      string // cron spec, e.g. "@every 24h"
	staleDays int
}

// New creates a Scheduler that fires every intervalHours hours and flags
// applications idle for staleDays days or more.
func New(pool *pgxpool.Pool, rdb *redis.Client, intervalHours, staleDays int) *Scheduler {
	return &Scheduler{
		cron:      cron.New(cron.WithLogger(cron.DefaultLogger)),
		pool:      pool,
		rdb:       rdb,
		spec:      fmt.Sprintf("@every %dh", intervalHours),
		staleDays: staleDays,
	}
}

// Start registers the job and starts the scheduler. Also runs one sweep
// immediately so overdue follow-ups are flagged without waiting for the
// first tick.
func (s *Scheduler) Start(ctx context.Context) error {
	_, err := s.cron.AddFunc(s.spec, func() {
		s.runSweep(ctx)
	})
	if err != nil {
		return fmt.Errorf("cron.AddFunc: %w", err)
	}

	s.cron.Start()
	log.Printf("[scheduler] Cron started — spec: %s, stale after %dd", s.spec, s.staleDays)

	// Run immediately on startup (non-blocking)
	go s.runSweep(ctx)

	return nil
}

// Stop gracefully shuts down the scheduler.
func (s *Scheduler) Stop() {
	s.cron.Stop()
	log.Println("[scheduler] Cron stopped")
}

// activeStatuses returns every non-terminal status, as strings for the
// ANY($1) parameter. Derived from the state machine so the sweep and the
// transition table can never disagree on what "still in flight" means.
func activeStatuses() []string {
	var active []string
	for _, st := range pipeline.AllStatuses() {
		if !pipeline.IsTerminal(st) {
			active = append(active, string(st))
		}
	}
	return active
}

// runSweep finds stale in-flight applications and publishes one follow-up
// event per application.
func (s *Scheduler) runSweep(ctx context.Context) {
	log.Println("[scheduler] Follow-up sweep started")

	cutoff := time.Now().UTC().AddDate(0, 0, -s.staleDays)

	rows, err := s.pool.Query(ctx,
		`SELECT id, job_id, status, updated_at
		 FROM applications
		 WHERE status = ANY($1::application_status[])
		   AND updated_at < $2`,
		activeStatuses(), cutoff,
	)
	if err != nil {
		log.Printf("[scheduler] Stale query error: %v", err)
		return
	}
	defer rows.Close()

	flagged := 0
	for rows.Next() {
		var (
			appID, jobID, status string
			updatedAt            time.Time
		)
		if err := rows.Scan(&appID, &jobID, &status, &updatedAt); err != nil {
			log.Printf("[scheduler] Scan error: %v", err)
			return
		}

		event, _ := json.Marshal(map[string]string{
			"eventId":       uuid.NewString(),
			"type":          pipeline.ChannelFollowupDue,
			"applicationId": appID,
			"jobId":         jobID,
			"status":        status,
			"idleSince":     updatedAt.UTC().Format(time.RFC3339),
		})
		if err := s.rdb.Publish(ctx, pipeline.ChannelFollowupDue, event).Err(); err != nil {
			log.Printf("[scheduler] Publish failed for application %s: %v — continuing", appID, err)
			continue
		}
		flagged++
	}
	if err := rows.Err(); err != nil {
		log.Printf("[scheduler] Row iteration error: %v", err)
		return
	}

	if flagged == 0 {
		log.Println("[scheduler] No stale applications — nothing to flag")
		return
	}
	log.Printf("[scheduler] Follow-up sweep complete — flagged=%d", flagged)
}
