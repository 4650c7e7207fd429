// Package webhook implements the HTTP surface of the propagation
// pipeline.
//
// Routes:
//
//	POST /api/revalidate?secret=…   → change-event ingress (database webhook)
//	GET  /api/cron/expire-jobs      → expiry sweep (external scheduler, Bearer secret)
//
// The revalidate handler awaits cache invalidation (cheap, local) but
// dispatches search-engine notification as a detached background task:
// the webhook caller must never be failed or slowed by a flaky third
// party, or it would retry the whole event.
package webhook

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"seojobs/propagation-service/internal/indexing"
	"seojobs/propagation-service/internal/model"
	"seojobs/propagation-service/internal/paths"
	"seojobs/propagation-service/internal/slug"
	"seojobs/propagation-service/internal/sweep"
)

// notifyTimeout bounds the detached indexing dispatch as a whole; the
// provider clients carry their own per-call timeouts underneath.
const notifyTimeout = 2 * time.Minute

// Invalidator deletes cached renders for site-relative paths.
type Invalidator interface {
	InvalidateAll(ctx context.Context, pathList []string) int
}

// Notifier is the indexing orchestration contract.
type Notifier interface {
	NotifyAll(ctx context.Context, urls []string, typ indexing.NotificationType) []indexing.Outcome
}

// SweepRunner runs one expiry-sweep batch.
type SweepRunner interface {
	Run(ctx context.Context) (sweep.Result, error)
}

// Handler holds shared dependencies.
type Handler struct {
	inv              Invalidator
	notifier         Notifier
	sweeper          SweepRunner
	baseURL          string
	revalidateSecret string
	cronSecret       string

	// notified is closed/sent by the background dispatch; tests use it
	// to observe the fire-and-forget path. Nil in production.
	notified chan struct{}
}

// NewHandler returns a configured Handler.
func NewHandler(inv Invalidator, notifier Notifier, sweeper SweepRunner, baseURL, revalidateSecret, cronSecret string) *Handler {
	return &Handler{
		inv:              inv,
		notifier:         notifier,
		sweeper:          sweeper,
		baseURL:          strings.TrimRight(baseURL, "/"),
		revalidateSecret: revalidateSecret,
		cronSecret:       cronSecret,
	}
}

// RegisterRoutes mounts all propagation routes on mux.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/api/revalidate", h.handleRevalidate)
	mux.HandleFunc("/api/cron/expire-jobs", h.handleExpireSweep)
}

// ─── Change-event ingress ────────────────────────────────────────────────────

// changePayload mirrors the JSON the database change-notification
// service posts on every jobs-row mutation.
type changePayload struct {
	Type      string             `json:"type"`
	Record    *model.JobSnapshot `json:"record"`
	OldRecord *model.JobSnapshot `json:"old_record"`
}

func (h *Handler) handleRevalidate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		jsonError(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	if r.URL.Query().Get("secret") != h.revalidateSecret {
		jsonError(w, "invalid secret", http.StatusUnauthorized)
		return
	}

	var payload changePayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		jsonError(w, "invalid JSON body", http.StatusBadRequest)
		return
	}

	changeType, err := model.ParseChangeType(payload.Type)
	if err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}
	if payload.Record == nil && payload.OldRecord == nil {
		jsonError(w, "payload carries neither record nor old_record", http.StatusBadRequest)
		return
	}

	ev := model.JobChangeEvent{
		Type:     changeType,
		Current:  payload.Record,
		Previous: payload.OldRecord,
	}

	pathSet := paths.Resolve(ev).Sorted()
	invalidated := h.inv.InvalidateAll(r.Context(), pathSet)
	log.Printf("[webhook] %s event — %d path(s) resolved, %d invalidated", changeType, len(pathSet), invalidated)

	// Detached: the webhook response does not wait on search engines.
	go h.notifySearchEngines(ev)

	jsonOK(w, map[string]any{
		"revalidated": true,
		"event":       string(changeType),
		"paths":       pathSet,
		"timestamp":   time.Now().UTC().Format(time.RFC3339),
	})
}

// notifySearchEngines submits the job-detail URL affected by the event
// to both indexing providers. Runs outside the request lifecycle; all
// failures end up in the log and nowhere else.
func (h *Handler) notifySearchEngines(ev model.JobChangeEvent) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("[webhook] indexing dispatch panic: %v", r)
		}
		if h.notified != nil {
			h.notified <- struct{}{}
		}
	}()

	url, typ, ok := indexingTarget(h.baseURL, ev)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), notifyTimeout)
	defer cancel()

	outcomes := h.notifier.NotifyAll(ctx, []string{url}, typ)
	indexing.LogOutcomes("webhook", outcomes)
}

// indexingTarget derives the single search-engine-relevant URL of a
// change event: the current snapshot's job page on insert/update, the
// previous snapshot's on delete. Listings and feeds are recrawled
// naturally and are not submitted.
func indexingTarget(baseURL string, ev model.JobChangeEvent) (string, indexing.NotificationType, bool) {
	snap := ev.Current
	typ := indexing.NotifyUpdated
	if ev.Type == model.ChangeDeleted {
		snap = ev.Previous
		typ = indexing.NotifyDeleted
	}
	if snap == nil {
		return "", "", false
	}

	s := slug.Resolve(snap.Slug, snap.Title, snap.CompanyName, snap.City)
	if s == "" {
		return "", "", false
	}
	return indexing.JobURL(baseURL, s), typ, true
}

// ─── Expiry sweep ────────────────────────────────────────────────────────────

func (h *Handler) handleExpireSweep(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		jsonError(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	if r.Header.Get("Authorization") != "Bearer "+h.cronSecret {
		jsonError(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	res, err := h.sweeper.Run(r.Context())
	if err != nil {
		log.Printf("[webhook] sweep error: %v", err)
		jsonError(w, fmt.Sprintf("sweep failed: %v", err), http.StatusInternalServerError)
		return
	}

	if res.Processed == 0 {
		jsonOK(w, map[string]any{
			"processed":    0,
			"message":      "no expired jobs to notify",
			"totalExpired": res.TotalExpired,
		})
		return
	}
	jsonOK(w, res)
}

// ─── Helpers ─────────────────────────────────────────────────────────────────

func jsonOK(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(v)
}

func jsonError(w http.ResponseWriter, msg string, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
