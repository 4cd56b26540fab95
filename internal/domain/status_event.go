package domain

import "time"

// Well-known status definition codes. StatusDefinition rows are seeded
// reference data; these constants name the ones the core itself needs.
const (
	StatusProduction  = "production"
	StatusStoppage    = "stoppage"
	StatusSetup       = "setup"
	StatusMalfunction = "malfunction"
	StatusStopped     = "stopped"
)

// GraceWindowExpiredNote marks the terminal event appended by the idle
// sweep when a session is force-closed.
const GraceWindowExpiredNote = "grace-window-expired"

// StatusDefinition is a catalog entry for a declarable worker state.
type StatusDefinition struct {
	ID           string
	Code         string
	Name         string
	IsProduction bool
}

// StationReason is a per-station catalog of stoppage/malfunction causes.
type StationReason struct {
	ID        string
	StationID string
	Code      string
	Label     string
}

// StatusEvent is one time interval within a session during which the
// worker was in one declared state. Events are append-only; a session
// has exactly one open event (EndedAt == nil) outside the instant of a
// transition.
type StatusEvent struct {
	ID                 string
	SessionID          string
	StatusDefinitionID string
	StationReasonID    string
	Note               string
	ImageURL           string

	StartedAt time.Time
	EndedAt   *time.Time

	// Production-type events only.
	QuantityGood  int
	QuantityScrap int
	JobItemID     string
	JobItemStepID string
}

// IsOpen reports whether the event is the session's current interval.
func (e *StatusEvent) IsOpen() bool { return e.EndedAt == nil }
