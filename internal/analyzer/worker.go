package analyzer

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"rolevate/pipeline-service/internal/pipeline"
)

// Worker consumes CMD_ANALYZE_APPLICATION events and scores each referenced
// application. One worker per process is enough: scoring is cheap and the
// Redis subscription delivers messages sequentially.
type Worker struct {
	pool *pgxpool.Pool
	rdb  *redis.Client
	svc  *pipeline.Service
}

// NewWorker constructs a Worker.
func NewWorker(pool *pgxpool.Pool, rdb *redis.Client, svc *pipeline.Service) *Worker {
	return &Worker{pool: pool, rdb: rdb, svc: svc}
}

// analyzeCommand mirrors the payload published by SubmitApplication.
type analyzeCommand struct {
	ApplicationID string `json:"applicationId"`
}

// Run subscribes to the analyze channel and processes commands until ctx is
// cancelled. Malformed payloads and per-application failures are logged and
// skipped — the subscription itself stays up.
func (w *Worker) Run(ctx context.Context) {
	sub := w.rdb.Subscribe(ctx, pipeline.ChannelAnalyzeApplication)
	defer sub.Close()

	log.Printf("[analyzer] Subscribed to %s", pipeline.ChannelAnalyzeApplication)

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			log.Println("[analyzer] Stopped.")
			return
		case msg, ok := <-ch:
			if !ok {
				log.Println("[analyzer] Subscription channel closed")
				return
			}

			var cmd analyzeCommand
			if err := json.Unmarshal([]byte(msg.Payload), &cmd); err != nil || cmd.ApplicationID == "" {
				log.Printf("[analyzer] Skipping malformed payload: %q", msg.Payload)
				continue
			}

			if err := w.analyze(ctx, cmd.ApplicationID); err != nil {
				log.Printf("[analyzer] Analysis failed for application %s: %v", cmd.ApplicationID, err)
			}
		}
	}
}

// analyze loads the candidate's CV and the job's requirements, computes the
// verdict, and records it through the pipeline service (which performs the
// PENDING → ANALYZED transition).
func (w *Worker) analyze(ctx context.Context, appID string) error {
	var (
		cvText       string
		requirements []string
	)
	err := w.pool.QueryRow(ctx,
		`SELECT COALESCE(c.cv_text, ''), COALESCE(j.requirements, '{}')
		 FROM applications a
		 JOIN candidates c ON c.id = a.candidate_id
		 JOIN jobs j       ON j.id = a.job_id
		 WHERE a.id = $1`,
		appID,
	).Scan(&cvText, &requirements)
	if err != nil {
		return fmt.Errorf("load application context: %w", err)
	}

	verdict := Analyze(cvText, requirements)
	payload, err := json.Marshal(verdict)
	if err != nil {
		return fmt.Errorf("marshal analysis: %w", err)
	}

	app, err := w.svc.RecordAnalysis(ctx, appID, payload)
	if err != nil {
		return fmt.Errorf("record analysis: %w", err)
	}

	log.Printf("[analyzer] Application %s scored %d (%s), status now %s",
		appID, verdict.Score, verdict.Fit, app.Status)
	return nil
}
