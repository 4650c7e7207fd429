// Package scheduler wires up the optional in-process cron that runs
// the expiry sweep. Deployments with an external scheduler hitting
// /api/cron/expire-jobs run with the cron disabled; the sweep is
// idempotent either way, so both firing is harmless.
package scheduler

import (
	"context"
	"fmt"
	"log"

	"github.com/robfig/cron/v3"

	"seojobs/propagation-service/internal/sweep"
)

// Scheduler wraps robfig/cron and manages the sweep loop.
type Scheduler struct {
	cron    *cron.Cron
	sweeper *sweep.Sweeper
	spec    string // cron spec, e.g. "@every 6h"
}

// New creates a Scheduler that fires every intervalHours hours.
func New(sweeper *sweep.Sweeper, intervalHours int) *Scheduler {
	return &Scheduler{
		cron:    cron.New(cron.WithLogger(cron.DefaultLogger)),
		sweeper: sweeper,
		spec:    fmt.Sprintf("@every %dh", intervalHours),
	}
}

// Start registers the job and starts the scheduler. Also runs one
// sweep immediately so a backlog left by downtime drains without
// waiting for the first tick.
func (s *Scheduler) Start(ctx context.Context) error {
	_, err := s.cron.AddFunc(s.spec, func() {
		s.runSweep(ctx)
	})
	if err != nil {
		return fmt.Errorf("cron.AddFunc: %w", err)
	}

	s.cron.Start()
	log.Printf("[scheduler] Cron started — spec: %s", s.spec)

	go s.runSweep(ctx)

	return nil
}

// Stop gracefully shuts down the scheduler.
func (s *Scheduler) Stop() {
	s.cron.Stop()
	log.Println("[scheduler] Cron stopped")
}

func (s *Scheduler) runSweep(ctx context.Context) {
	log.Println("[scheduler] Expiry sweep started")

	res, err := s.sweeper.Run(ctx)
	if err != nil {
		log.Printf("[scheduler] Sweep error: %v", err)
		return
	}

	if res.Processed == 0 {
		log.Println("[scheduler] No expired jobs to notify")
		return
	}
	log.Printf("[scheduler] Sweep complete — processed=%d backlog=%d", res.Processed, res.TotalExpired)
}
