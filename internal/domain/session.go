package domain

import "time"

// SessionStatus is the lifecycle state of a session. Terminal states are
// final: no operation mutates a completed or abandoned session.
type SessionStatus string

const (
	SessionActive    SessionStatus = "active"
	SessionCompleted SessionStatus = "completed"
	SessionAbandoned SessionStatus = "abandoned"
)

// AbandonReason records why a session was abandoned.
type AbandonReason string

const (
	AbandonWorkerChoice AbandonReason = "worker_choice"
	AbandonExpired      AbandonReason = "expired"
)

// Session is one worker's continuous occupancy of one station. At most
// one active session exists per worker and per station.
type Session struct {
	ID        string
	WorkerID  string
	StationID string

	// Job binding is deferred until the worker enters production.
	JobID         string
	JobItemID     string
	JobItemStepID string

	Status SessionStatus

	// ActiveInstanceID identifies the tab or device that owns the
	// session. Empty for legacy clients that never send one.
	ActiveInstanceID string

	StartedAt      time.Time
	LastSeenAt     time.Time
	EndedAt        *time.Time
	ForcedClosedAt *time.Time

	// CurrentStatusID points at the single open status event, when one
	// exists.
	CurrentStatusID string

	// Running totals, denormalized from production status events.
	TotalGood  int
	TotalScrap int
}

// IsTerminal reports whether the session reached a final state.
func (s *Session) IsTerminal() bool {
	return s.Status == SessionCompleted || s.Status == SessionAbandoned
}

// IdleSince reports the instant the session was last known alive: the
// last heartbeat, or the start time when no heartbeat ever arrived.
func (s *Session) IdleSince() time.Time {
	if s.LastSeenAt.IsZero() {
		return s.StartedAt
	}
	return s.LastSeenAt
}
