// Package cache invalidates cached page renders stored in Redis.
//
// Invalidation is best-effort: a failure on one path is logged and
// never aborts the others, and never propagates to the webhook
// handler that triggered it.
package cache

import (
	"context"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"
)

const (
	maxConcurrent = 8
	opTimeout     = 10 * time.Second
)

// Invalidator deletes cached render keys for site-relative paths.
type Invalidator struct {
	rdb    *redis.Client
	prefix string // render-key prefix, e.g. "render:"
}

// NewInvalidator returns an Invalidator using the given key prefix.
func NewInvalidator(rdb *redis.Client, prefix string) *Invalidator {
	return &Invalidator{rdb: rdb, prefix: prefix}
}

// Key returns the Redis key caching the render of path.
func (inv *Invalidator) Key(path string) string {
	return inv.prefix + path
}

// InvalidateAll deletes the cached render of every path, concurrently
// and independently. Returns the number of paths whose keys were
// deleted without error; individual failures are logged only.
func (inv *Invalidator) InvalidateAll(ctx context.Context, pathList []string) int {
	var g errgroup.Group
	g.SetLimit(maxConcurrent)

	ok := make([]bool, len(pathList))
	for i, p := range pathList {
		i, p := i, p
		g.Go(func() error {
			opCtx, cancel := context.WithTimeout(ctx, opTimeout)
			defer cancel()

			if err := inv.rdb.Del(opCtx, inv.Key(p)).Err(); err != nil {
				log.Printf("[cache] invalidate %s failed: %v", p, err)
				return nil // best-effort: never abort siblings
			}
			ok[i] = true
			return nil
		})
	}
	g.Wait()

	succeeded := 0
	for _, b := range ok {
		if b {
			succeeded++
		}
	}
	return succeeded
}
