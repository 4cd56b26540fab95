package domain

import "time"

// Job is a production order; its items are routed through an ordered
// sequence of station steps.
type Job struct {
	ID     string
	Code   string
	Name   string
	Active bool
}

// JobItem is one article of a job.
type JobItem struct {
	ID          string
	JobID       string
	ProductCode string
	// RequiresFirstProductApproval gates quantity commits; the core
	// checks the flag but admin tooling owns it and records the approval.
	RequiresFirstProductApproval bool
	FirstProductApprovedAt       *time.Time
}

// JobItemStep binds a job item to a station at a routing position.
// Positions are 1-based and contiguous per item.
type JobItemStep struct {
	ID        string
	JobItemID string
	StationID string
	Position  int
}
