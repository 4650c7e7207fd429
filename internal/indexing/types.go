// Package indexing submits changed URLs to external search-engine
// notification APIs (Google Indexing API and IndexNow).
//
// Submissions are fire-and-forget from the caller's perspective: every
// failure is converted into a structured outcome, never a panic or an
// error that crosses the component boundary unhandled.
package indexing

import "strings"

// NotificationType tells the providers whether a URL's content changed
// or the URL is gone.
type NotificationType string

const (
	NotifyUpdated NotificationType = "URL_UPDATED"
	NotifyDeleted NotificationType = "URL_DELETED"
)

// Provider identifies one of the two notification services.
type Provider string

const (
	ProviderGoogle   Provider = "GoogleIndexing"
	ProviderIndexNow Provider = "IndexNow"
)

// Outcome is the per-provider result of one orchestrated submission.
type Outcome struct {
	Provider  Provider
	Succeeded bool
	Err       string // empty when Succeeded
}

// URLResult is the per-URL result of a Google batch submission.
type URLResult struct {
	URL       string
	Succeeded bool
	Message   string
}

// JobURL builds the absolute job-detail URL for a slug. baseURL is the
// site's canonical base, with or without a trailing slash.
func JobURL(baseURL, slug string) string {
	return strings.TrimRight(baseURL, "/") + "/job/" + slug
}
