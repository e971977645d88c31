// rolevate-pipeline-service
//
// Hiring pipeline state machine for candidate applications.
// Exposes a REST API used by the Gateway to implement:
//   - submitApplication(jobId)                    — new application at PENDING
//   - changeStatus(applicationId, newStatus)      — state machine transitions
//   - withdraw(applicationId)                     — candidate self-service exit
//   - nextActions(applicationId)                  — legal moves for the UI
//   - addNote / rateCandidate                     — recruiter annotations
//   - applications query                          — list a job's applications
//
// New applications are scored by the CV analyzer worker (PENDING → ANALYZED).
// Every transition is written to audit_logs and published as
// EVENT_STATUS_CHANGED on Redis for Gateway SSE forward. On HIRED the linked
// job posting is closed. A cron sweep flags stale applications with
// EVENT_FOLLOWUP_DUE.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"rolevate/pipeline-service/internal/analyzer"
	"rolevate/pipeline-service/internal/config"
	"rolevate/pipeline-service/internal/db"
	"rolevate/pipeline-service/internal/pipeline"
	"rolevate/pipeline-service/internal/scheduler"
)

const version = "1.0.0"

func main() {
	// ── Config ──────────────────────────────────────────────────────────────
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("[pipeline-service] Config error: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ── PostgreSQL ───────────────────────────────────────────────────────────
	log.Println("[pipeline-service] Connecting to PostgreSQL…")
	pool, err := db.NewPostgresPool(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("[pipeline-service] PostgreSQL: %v", err)
	}
	defer pool.Close()
	log.Println("[pipeline-service] PostgreSQL connected ✓")

	// ── Redis ────────────────────────────────────────────────────────────────
	log.Println("[pipeline-service] Connecting to Redis…")
	rdb, err := db.NewRedisClient(ctx, cfg.RedisURL)
	if err != nil {
		log.Fatalf("[pipeline-service] Redis: %v", err)
	}
	defer rdb.Close()
	log.Println("[pipeline-service] Redis connected ✓")

	svc := pipeline.NewService(pool, rdb)

	// ── CV analyzer worker ───────────────────────────────────────────────────
	if cfg.AnalyzerEnabled {
		go analyzer.NewWorker(pool, rdb, svc).Run(ctx)
	} else {
		log.Println("[pipeline-service] Analyzer disabled — applications stay PENDING until reviewed")
	}

	// ── Follow-up scheduler ──────────────────────────────────────────────────
	sched := scheduler.New(pool, rdb, cfg.ReminderIntervalHours, cfg.ReminderStaleDays)
	if err := sched.Start(ctx); err != nil {
		log.Fatalf("[pipeline-service] Scheduler: %v", err)
	}
	defer sched.Stop()

	// ── HTTP server ──────────────────────────────────────────────────────────
	mux := http.NewServeMux()
	mux.HandleFunc("/health", healthHandler)

	h := pipeline.NewHandler(svc)
	h.RegisterRoutes(mux)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Port),
		Handler:      mux,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	go func() {
		log.Printf("[pipeline-service] v%s listening on :%s", version, cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("[pipeline-service] HTTP server error: %v", err)
		}
	}()

	// ── Graceful shutdown ────────────────────────────────────────────────────
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("[pipeline-service] Shutting down…")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("[pipeline-service] Shutdown error: %v", err)
	}
	log.Println("[pipeline-service] Stopped.")
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]string{
		"status":  "ok",
		"service": "pipeline-service",
		"version": version,
	})
}
