// Package paths computes the set of site-relative paths whose cached
// renders are stale after a job row changes.
//
// The resolver is pure: no I/O, no failure mode. It unions the paths
// of the previous and current snapshots — a job moving from Berlin to
// Paris must invalidate both city listings, not just the new one.
package paths

import (
	"net/url"
	"sort"
	"strings"

	"seojobs/propagation-service/internal/model"
	"seojobs/propagation-service/internal/slug"
)

// globalPaths are invalidated on every change regardless of snapshot
// contents: the home listing, feeds and SEO surfaces all embed job data.
var globalPaths = []string{"/", "/feed.xml", "/sitemap.xml", "/sitemap.txt", "/robots.txt"}

// Set is a deduplicated collection of site-relative paths. Callers
// must not rely on any ordering.
type Set struct {
	m map[string]struct{}
}

// NewSet returns an empty path set.
func NewSet() *Set {
	return &Set{m: make(map[string]struct{})}
}

// Add inserts a path; duplicates are ignored.
func (s *Set) Add(path string) {
	s.m[path] = struct{}{}
}

// Contains reports whether path is in the set.
func (s *Set) Contains(path string) bool {
	_, ok := s.m[path]
	return ok
}

// Len returns the number of distinct paths.
func (s *Set) Len() int { return len(s.m) }

// Sorted returns the paths in lexical order, for stable responses
// and logs.
func (s *Set) Sorted() []string {
	out := make([]string, 0, len(s.m))
	for p := range s.m {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}

// Resolve computes the invalidation path set for a change event.
// Always includes the global paths, even when neither snapshot
// carries a usable slug, city or tags.
func Resolve(ev model.JobChangeEvent) *Set {
	set := NewSet()
	for _, p := range globalPaths {
		set.Add(p)
	}

	addSnapshot(set, ev.Previous)
	addSnapshot(set, ev.Current)
	return set
}

func addSnapshot(set *Set, snap *model.JobSnapshot) {
	if snap == nil {
		return
	}

	if s := slug.Resolve(snap.Slug, snap.Title, snap.CompanyName, snap.City); s != "" {
		set.Add("/job/" + s)
	}

	if city := strings.TrimSpace(snap.City); city != "" {
		escaped := url.PathEscape(strings.ToLower(city))
		set.Add("/jobs/city/" + escaped)
		set.Add("/feed/city/" + escaped)
	}

	for _, tag := range snap.Tags {
		if ts := slug.ForTag(tag); ts != "" {
			set.Add("/jobs/tag/" + ts)
		}
	}
}
