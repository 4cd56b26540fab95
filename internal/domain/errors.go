package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors for the session and ledger operations. Callers branch
// with errors.Is; errors carrying payloads have dedicated types below and
// unwrap to these sentinels.
var (
	ErrWorkerNotFound   = errors.New("worker not found")
	ErrWorkerInactive   = errors.New("worker is not active")
	ErrStationNotFound  = errors.New("station not found")
	ErrStationOccupied  = errors.New("station occupied by another worker")
	ErrSessionNotFound  = errors.New("session not found")
	ErrSessionNotActive = errors.New("session is not active")
	ErrInstanceMismatch = errors.New("session owned by another instance")
	ErrUnauthorized     = errors.New("session belongs to another worker")

	ErrStatusEventNotFound        = errors.New("status event not found")
	ErrStatusEventSessionMismatch = errors.New("status event belongs to another session")
	ErrStatusEventAlreadyEnded    = errors.New("status event already ended")
	ErrStatusEventNotProduction   = errors.New("status event is not a production interval")
	ErrStatusDefinitionNotFound   = errors.New("status definition not found")

	ErrInvalidQuantity         = errors.New("quantities must not be negative")
	ErrWipDownstreamConsumed   = errors.New("downstream station already consumed the requested quantity")
	ErrWipInsufficientUpstream = errors.New("upstream station has not produced the requested quantity")
	ErrJobItemStepNotFound     = errors.New("no routing step for job item at this station")
	ErrFirstProductNotApproved = errors.New("job item awaits first-product approval")
)

// StationOccupiedError reports who holds the station so the client can
// show the occupying worker. Unwraps to ErrStationOccupied.
type StationOccupiedError struct {
	StationID  string
	WorkerID   string
	WorkerCode string
}

func (e *StationOccupiedError) Error() string {
	return fmt.Sprintf("station %s occupied by worker %s", e.StationID, e.WorkerCode)
}

func (e *StationOccupiedError) Unwrap() error { return ErrStationOccupied }

// WipConflictError reports how much of a balance is still available when
// a decrease is rejected. Unwraps to ErrWipDownstreamConsumed.
type WipConflictError struct {
	JobItemID string
	StationID string
	Available int
	Requested int
}

func (e *WipConflictError) Error() string {
	return fmt.Sprintf("wip balance for item %s at station %s holds %d, cannot remove %d",
		e.JobItemID, e.StationID, e.Available, e.Requested)
}

func (e *WipConflictError) Unwrap() error { return ErrWipDownstreamConsumed }
