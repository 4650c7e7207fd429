// Package model defines shared data structures for the propagation service.
package model

import "fmt"

// ChangeType mirrors the event types emitted by the database
// change-notification webhook. Anything else is rejected outright.
type ChangeType string

const (
	ChangeInserted ChangeType = "INSERT"
	ChangeUpdated  ChangeType = "UPDATE"
	ChangeDeleted  ChangeType = "DELETE"
)

// ParseChangeType converts a raw webhook type string to a ChangeType,
// returning an error for unknown values.
func ParseChangeType(s string) (ChangeType, error) {
	ct := ChangeType(s)
	switch ct {
	case ChangeInserted, ChangeUpdated, ChangeDeleted:
		return ct, nil
	}
	return "", fmt.Errorf("unsupported change type %q", s)
}

// JobSnapshot is the subset of a jobs row the pipeline cares about.
// The webhook delivers the full row; extra columns are ignored.
type JobSnapshot struct {
	Slug            string   `json:"slug"`
	Title           string   `json:"title"`
	CompanyName     string   `json:"company_name"`
	City            string   `json:"city"` // empty means remote
	Tags            []string `json:"tags"`
	ExpiresAt       string   `json:"expires_at,omitempty"`
	RemovalNotified bool     `json:"removal_notified"`
}

// JobChangeEvent is the unit of work driving the pipeline.
// At least one of Current/Previous is present: Current on insert,
// both on update, Previous on delete.
type JobChangeEvent struct {
	Type     ChangeType
	Current  *JobSnapshot
	Previous *JobSnapshot
}
