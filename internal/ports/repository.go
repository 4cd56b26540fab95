package ports

import (
	"context"
	"time"

	"floorline/internal/domain"
)

// NewSessionParams carries a validated session-creation request into the
// storage transaction.
type NewSessionParams struct {
	WorkerID   string
	StationID  string
	JobID      string
	InstanceID string
	// Grace bounds the occupancy check: another worker's active session
	// only blocks the station while its last heartbeat is younger.
	Grace time.Duration
	At    time.Time
}

// StartEventParams describes a status transition.
type StartEventParams struct {
	SessionID          string
	StatusDefinitionID string
	StationReasonID    string
	Note               string
	ImageURL           string
	At                 time.Time
}

// EndProductionParams closes a named production event with its final
// quantities and opens the follow-up event in the same transaction.
type EndProductionParams struct {
	SessionID     string
	StatusEventID string
	QuantityGood  int
	QuantityScrap int
	JobItemID     string
	JobItemStepID string

	NextStatusDefinitionID string
	NextStationReasonID    string
	NextNote               string
	At                     time.Time
}

// ReferenceReader reads the immutable catalog entities.
type ReferenceReader interface {
	GetWorker(ctx context.Context, id string) (*domain.Worker, error)
	GetWorkerByCode(ctx context.Context, code string) (*domain.Worker, error)
	GetStation(ctx context.Context, id string) (*domain.Station, error)
	GetStationByCode(ctx context.Context, code string) (*domain.Station, error)
	GetStatusDefinition(ctx context.Context, id string) (*domain.StatusDefinition, error)
	GetStatusDefinitionByCode(ctx context.Context, code string) (*domain.StatusDefinition, error)
	GetJobItem(ctx context.Context, id string) (*domain.JobItem, error)
}

// SessionReader reads session and ledger state.
type SessionReader interface {
	GetSession(ctx context.Context, id string) (*domain.Session, error)
	ListSessions(ctx context.Context, activeOnly bool) ([]domain.Session, error)
	ListStatusEvents(ctx context.Context, sessionID string) ([]domain.StatusEvent, error)
	StationOccupancy(ctx context.Context, stationID string, liveAfter time.Time) (*domain.Occupancy, error)
	GetWipBalance(ctx context.Context, jobItemID, stationID string) (*domain.WipBalance, error)
}

// SessionWriter owns the session lifecycle transactions. Every method is
// one atomic unit: its guard checks commit or fail together with its
// writes.
type SessionWriter interface {
	// CreateSession checks occupancy, closes the worker's prior active
	// sessions, and inserts the new one.
	CreateSession(ctx context.Context, p NewSessionParams) (*domain.Session, error)
	// RecordHeartbeat refreshes last_seen_at. An empty instanceID is the
	// legacy unconditional mode; otherwise the stored instance must match.
	RecordHeartbeat(ctx context.Context, sessionID, instanceID string, at time.Time) error
	// Takeover hands the session to a new instance of the same worker.
	Takeover(ctx context.Context, sessionID, workerID, newInstanceID string, at time.Time) (*domain.Session, error)
	// Abandon terminates the session; a no-op when already terminal.
	Abandon(ctx context.Context, sessionID string, reason domain.AbandonReason, at time.Time) (*domain.Session, error)
}

// StatusWriter owns the status event transitions.
type StatusWriter interface {
	StartStatusEvent(ctx context.Context, p StartEventParams) (*domain.StatusEvent, error)
	EndProductionInterval(ctx context.Context, p EndProductionParams) (*domain.StatusEvent, error)
}

// LedgerWriter applies live quantity deltas to the open production event,
// the session totals, and the WIP balances, atomically.
type LedgerWriter interface {
	UpdateQuantities(ctx context.Context, sessionID string, goodDelta, scrapDelta int, at time.Time) (*domain.Session, error)
}

// SweepStore backs the idle sweep.
type SweepStore interface {
	// ListIdleSessions returns active, not-yet-force-closed sessions
	// whose liveness instant predates the cutoff.
	ListIdleSessions(ctx context.Context, cutoff time.Time) ([]domain.Session, error)
	// ForceClose closes the open event, appends the terminal stopped
	// event, and completes the session. Idempotent: a session that is no
	// longer active is left untouched and reported via ok=false.
	ForceClose(ctx context.Context, sessionID string, at time.Time) (ok bool, err error)
}

// Repository is the composite persistence port.
type Repository interface {
	ReferenceReader
	SessionReader
	SessionWriter
	StatusWriter
	LedgerWriter
	SweepStore

	Close() error
}
