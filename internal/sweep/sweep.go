// Package sweep notifies search engines about expired job listings.
//
// The sweep is an at-least-once batch job: it selects expired rows
// whose removal_notified flag is still false, notifies both indexing
// providers with delete semantics, then flips the flag — regardless
// of whether the notification succeeded. The flag means "we attempted
// notification", which bounds retry amplification against an
// unreachable provider; a missed notification is an SEO inefficiency,
// not a correctness problem.
package sweep

import (
	"context"
	"fmt"
	"log"

	"github.com/jackc/pgx/v5/pgxpool"

	"seojobs/propagation-service/internal/indexing"
	"seojobs/propagation-service/internal/slug"
)

// BatchSize bounds one sweep invocation. Jobs beyond it are picked up
// on the next scheduled run.
const BatchSize = 100

// ExpiredJob is the subset of a jobs row the sweep needs.
type ExpiredJob struct {
	ID          string
	Slug        string
	Title       string
	CompanyName string
	City        string
}

// Store is the persistence surface of the sweep.
type Store interface {
	// SelectExpiredUnnotified returns at most limit expired jobs with
	// removal_notified = false.
	SelectExpiredUnnotified(ctx context.Context, limit int) ([]ExpiredJob, error)
	// CountExpiredUnnotified returns the total backlog size.
	CountExpiredUnnotified(ctx context.Context) (int, error)
	// MarkNotified sets removal_notified = true for the given job IDs.
	MarkNotified(ctx context.Context, ids []string) error
}

// Notifier is the orchestration contract of internal/indexing.
type Notifier interface {
	NotifyAll(ctx context.Context, urls []string, typ indexing.NotificationType) []indexing.Outcome
}

// Result summarises one sweep run for the endpoint response.
type Result struct {
	Processed    int      `json:"processed"`
	URLs         []string `json:"urls"`
	TotalExpired int      `json:"totalExpired"`
}

// Sweeper runs the expiry sweep.
type Sweeper struct {
	store    Store
	notifier Notifier
	baseURL  string
}

// NewSweeper constructs a Sweeper. baseURL is the site's canonical
// base for building deletion URLs.
func NewSweeper(store Store, notifier Notifier, baseURL string) *Sweeper {
	return &Sweeper{store: store, notifier: notifier, baseURL: baseURL}
}

// Run executes one sweep batch. Provider failures never fail the run:
// every selected job is flagged notified afterwards either way, so a
// rerun selects only jobs the sweep has not yet seen.
func (s *Sweeper) Run(ctx context.Context) (Result, error) {
	total, err := s.store.CountExpiredUnnotified(ctx)
	if err != nil {
		return Result{}, fmt.Errorf("count expired jobs: %w", err)
	}

	jobs, err := s.store.SelectExpiredUnnotified(ctx, BatchSize)
	if err != nil {
		return Result{}, fmt.Errorf("select expired jobs: %w", err)
	}
	if len(jobs) == 0 {
		return Result{TotalExpired: total, URLs: []string{}}, nil
	}

	ids := make([]string, 0, len(jobs))
	urls := make([]string, 0, len(jobs))
	for _, j := range jobs {
		ids = append(ids, j.ID)
		if sl := slug.Resolve(j.Slug, j.Title, j.CompanyName, j.City); sl != "" {
			urls = append(urls, indexing.JobURL(s.baseURL, sl))
		} else {
			log.Printf("[sweep] job %s has no usable slug — skipping notification", j.ID)
		}
	}

	outcomes := s.notifier.NotifyAll(ctx, urls, indexing.NotifyDeleted)
	indexing.LogOutcomes("sweep", outcomes)

	// Flag every selected job, independent of provider outcomes.
	if err := s.store.MarkNotified(ctx, ids); err != nil {
		return Result{}, fmt.Errorf("mark notified: %w", err)
	}

	log.Printf("[sweep] processed %d job(s), %d URL(s) submitted, backlog %d", len(jobs), len(urls), total)
	return Result{Processed: len(jobs), URLs: urls, TotalExpired: total}, nil
}

// ─── Postgres store ──────────────────────────────────────────────────────────

// PGStore implements Store against the jobs table.
type PGStore struct {
	pool *pgxpool.Pool
}

// NewPGStore returns a Store backed by the given pool.
func NewPGStore(pool *pgxpool.Pool) *PGStore {
	return &PGStore{pool: pool}
}

func (s *PGStore) SelectExpiredUnnotified(ctx context.Context, limit int) ([]ExpiredJob, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, COALESCE(slug, ''), COALESCE(title, ''), COALESCE(company_name, ''), COALESCE(city, '')
		 FROM jobs
		 WHERE expires_at < NOW() AND removal_notified = false
		 ORDER BY expires_at
		 LIMIT $1`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query expired jobs: %w", err)
	}
	defer rows.Close()

	var jobs []ExpiredJob
	for rows.Next() {
		var j ExpiredJob
		if err := rows.Scan(&j.ID, &j.Slug, &j.Title, &j.CompanyName, &j.City); err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		jobs = append(jobs, j)
	}
	return jobs, rows.Err()
}

func (s *PGStore) CountExpiredUnnotified(ctx context.Context) (int, error) {
	var n int
	err := s.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM jobs WHERE expires_at < NOW() AND removal_notified = false`,
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count expired jobs: %w", err)
	}
	return n, nil
}

func (s *PGStore) MarkNotified(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	_, err := s.pool.Exec(ctx,
		`UPDATE jobs SET removal_notified = true WHERE id = ANY($1)`,
		ids,
	)
	if err != nil {
		return fmt.Errorf("update removal_notified: %w", err)
	}
	return nil
}
