package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"floorline/internal/domain"
	"floorline/internal/logging"
	"floorline/internal/ports"
)

// OwnershipService arbitrates who holds a session: one active session
// per worker and per station, one owning instance per session.
type OwnershipService struct {
	repo     ports.Repository
	notifier ports.TakeoverNotifier
	grace    time.Duration
	now      func() time.Time
}

// NewOwnershipService creates a new OwnershipService. grace is the idle
// threshold: it bounds both the occupancy check and the sweep cutoff.
func NewOwnershipService(repo ports.Repository, notifier ports.TakeoverNotifier, grace time.Duration) *OwnershipService {
	return &OwnershipService{
		repo:     repo,
		notifier: notifier,
		grace:    grace,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// CreateSession opens a session for the worker at the station. The
// worker's prior active sessions are closed first; the single-active-
// session invariant never depends on a unique constraint firing.
func (s *OwnershipService) CreateSession(ctx context.Context, p CreateSessionParams) (*domain.Session, error) {
	if p.WorkerID == "" || p.StationID == "" {
		return nil, fmt.Errorf("worker and station are required: %w", domain.ErrSessionNotFound)
	}

	session, err := s.repo.CreateSession(ctx, ports.NewSessionParams{
		WorkerID:   p.WorkerID,
		StationID:  p.StationID,
		JobID:      p.JobID,
		InstanceID: p.InstanceID,
		Grace:      s.grace,
		At:         s.now(),
	})
	if err != nil {
		if errors.Is(err, domain.ErrStationOccupied) {
			logging.Logger.Info("session creation blocked by occupancy",
				"worker", p.WorkerID, "station", p.StationID)
		}
		return nil, err
	}

	logging.Logger.Info("session created",
		"session", session.ID,
		"worker", p.WorkerID,
		"station", p.StationID,
		"instance", p.InstanceID)
	return session, nil
}

// Heartbeat refreshes the session's liveness clock. An instance mismatch
// is an expected control-flow outcome: the caller lost ownership and
// must stop treating the session as its own.
func (s *OwnershipService) Heartbeat(ctx context.Context, sessionID, instanceID string) error {
	err := s.repo.RecordHeartbeat(ctx, sessionID, instanceID, s.now())
	if err != nil && !isOwnershipConflict(err) {
		logging.Logger.Error("heartbeat failed", "session", sessionID, "error", err)
	}
	return err
}

// Takeover hands an active session to a new instance of its own worker
// and tells the previous instance to disengage.
func (s *OwnershipService) Takeover(ctx context.Context, sessionID, workerID, newInstanceID string) (*domain.Session, error) {
	if newInstanceID == "" {
		return nil, fmt.Errorf("instance id is required: %w", domain.ErrInstanceMismatch)
	}

	session, err := s.repo.Takeover(ctx, sessionID, workerID, newInstanceID, s.now())
	if err != nil {
		return nil, err
	}

	logging.Logger.Info("session taken over",
		"session", sessionID, "worker", workerID, "instance", newInstanceID)
	if s.notifier != nil {
		s.notifier.NotifyTakeover(ports.TakeoverNotice{
			SessionID:     sessionID,
			NewInstanceID: newInstanceID,
			At:            s.now(),
		})
	}
	return session, nil
}

// Abandon terminates a session. Already-terminal sessions are a no-op so
// duplicate requests (page unload retries) stay harmless.
func (s *OwnershipService) Abandon(ctx context.Context, sessionID string, reason domain.AbandonReason) (*domain.Session, error) {
	switch reason {
	case domain.AbandonWorkerChoice, domain.AbandonExpired:
	default:
		reason = domain.AbandonWorkerChoice
	}

	session, err := s.repo.Abandon(ctx, sessionID, reason, s.now())
	if err != nil {
		return nil, err
	}
	logging.Logger.Info("session abandoned", "session", sessionID, "reason", string(reason))
	return session, nil
}

// Occupancy reports who currently holds a station, using the grace
// window as the liveness bound.
func (s *OwnershipService) Occupancy(ctx context.Context, stationID string) (*domain.Occupancy, error) {
	return s.repo.StationOccupancy(ctx, stationID, s.now().Add(-s.grace))
}

// GetSession returns the authoritative session state.
func (s *OwnershipService) GetSession(ctx context.Context, sessionID string) (*domain.Session, error) {
	return s.repo.GetSession(ctx, sessionID)
}

// ListSessions lists sessions, optionally only active ones.
func (s *OwnershipService) ListSessions(ctx context.Context, activeOnly bool) ([]domain.Session, error) {
	return s.repo.ListSessions(ctx, activeOnly)
}

func isOwnershipConflict(err error) bool {
	return errors.Is(err, domain.ErrInstanceMismatch) ||
		errors.Is(err, domain.ErrSessionNotActive) ||
		errors.Is(err, domain.ErrSessionNotFound)
}
