// propagation-service
//
// Keeps the job board's cached pages and external search engines in
// sync with the jobs table:
//   - POST /api/revalidate      — database change webhook: invalidates
//     every cached path a job change touches, then notifies the Google
//     Indexing API and IndexNow in the background.
//   - GET  /api/cron/expire-jobs — expiry sweep: tells search engines
//     about expired listings and flags them notified.
//
// An optional in-process cron runs the same sweep on an interval.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"syscall"
	"time"

	"seojobs/propagation-service/internal/cache"
	"seojobs/propagation-service/internal/config"
	"seojobs/propagation-service/internal/db"
	"seojobs/propagation-service/internal/indexing"
	"seojobs/propagation-service/internal/scheduler"
	"seojobs/propagation-service/internal/sweep"
	"seojobs/propagation-service/internal/webhook"
)

const version = "1.0.0"

func main() {
	// ── Config ──────────────────────────────────────────────────────────────
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("[propagation-service] Config error: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ── PostgreSQL ───────────────────────────────────────────────────────────
	log.Println("[propagation-service] Connecting to PostgreSQL…")
	pool, err := db.NewPostgresPool(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("[propagation-service] PostgreSQL: %v", err)
	}
	defer pool.Close()
	log.Println("[propagation-service] PostgreSQL connected ✓")

	// ── Redis ────────────────────────────────────────────────────────────────
	log.Println("[propagation-service] Connecting to Redis…")
	rdb, err := db.NewRedisClient(ctx, cfg.RedisURL)
	if err != nil {
		log.Fatalf("[propagation-service] Redis: %v", err)
	}
	defer rdb.Close()
	log.Println("[propagation-service] Redis connected ✓")

	// ── Indexing providers ──────────────────────────────────────────────────
	notifier := buildNotifier(ctx, cfg)
	invalidator := cache.NewInvalidator(rdb, cfg.CacheKeyPrefix)
	sweeper := sweep.NewSweeper(sweep.NewPGStore(pool), notifier, cfg.SiteBaseURL)

	// ── HTTP server ──────────────────────────────────────────────────────────
	mux := http.NewServeMux()
	mux.HandleFunc("/health", healthHandler)

	h := webhook.NewHandler(invalidator, notifier, sweeper, cfg.SiteBaseURL, cfg.RevalidateSecret, cfg.CronSecret)
	h.RegisterRoutes(mux)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Port),
		Handler:      mux,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	go func() {
		log.Printf("[propagation-service] v%s listening on :%s", version, cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("[propagation-service] HTTP server error: %v", err)
		}
	}()

	// ── In-process sweep cron (optional) ────────────────────────────────────
	var sched *scheduler.Scheduler
	if cfg.SweepIntervalH > 0 {
		sched = scheduler.New(sweeper, cfg.SweepIntervalH)
		if err := sched.Start(ctx); err != nil {
			log.Fatalf("[propagation-service] Scheduler: %v", err)
		}
	}

	// ── Graceful shutdown ────────────────────────────────────────────────────
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("[propagation-service] Shutting down…")
	if sched != nil {
		sched.Stop()
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("[propagation-service] Shutdown error: %v", err)
	}
	log.Println("[propagation-service] Stopped.")
}

// buildNotifier assembles the indexing orchestrator from whichever
// providers are configured. Running with one — or zero — providers is
// fine: indexing is an optimization, not a dependency.
func buildNotifier(ctx context.Context, cfg *config.Config) *indexing.Notifier {
	var providers []indexing.Submitter

	if cfg.GoogleCredsJSON != "" {
		google, err := indexing.NewGoogleClient(cfg.GoogleCredsJSON)
		if err != nil {
			log.Fatalf("[propagation-service] Google credentials: %v", err)
		}
		providers = append(providers, google)
	} else {
		log.Println("[propagation-service] GOOGLE_SERVICE_ACCOUNT_JSON not set — Google indexing disabled")
	}

	if cfg.IndexNowKey != "" {
		indexnow := indexing.NewIndexNowClient(cfg.IndexNowKey)
		providers = append(providers, indexnow)
		verifyIndexNowKey(ctx, indexnow, cfg.SiteBaseURL)
	} else {
		log.Println("[propagation-service] INDEXNOW_KEY not set — IndexNow disabled")
	}

	return indexing.NewNotifier(providers...)
}

// verifyIndexNowKey pre-flights the hosted key file. A failure is an
// operator warning, not a startup error: submissions would be rejected
// by the protocol, but the rest of the pipeline still works.
func verifyIndexNowKey(ctx context.Context, c *indexing.IndexNowClient, baseURL string) {
	u, err := url.Parse(baseURL)
	if err != nil || u.Host == "" {
		log.Printf("[propagation-service] Cannot derive host from SITE_BASE_URL %q — skipping key-file check", baseURL)
		return
	}

	checkCtx, checkCancel := context.WithTimeout(ctx, 10*time.Second)
	defer checkCancel()

	if err := c.VerifyKeyFile(checkCtx, u.Host); err != nil {
		log.Printf("[propagation-service] IndexNow key-file check failed: %v", err)
		return
	}
	log.Println("[propagation-service] IndexNow key file verified ✓")
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]string{
		"status":  "ok",
		"service": "propagation-service",
		"version": version,
	})
}
