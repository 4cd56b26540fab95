package services

import (
	"context"
	"fmt"
	"time"

	"floorline/internal/domain"
	"floorline/internal/logging"
	"floorline/internal/ports"
)

// StatusService drives the status event state machine: one open event
// per active session, closed and reopened atomically on transition.
type StatusService struct {
	repo ports.Repository
	now  func() time.Time
}

// NewStatusService creates a new StatusService
func NewStatusService(repo ports.Repository) *StatusService {
	return &StatusService{
		repo: repo,
		now:  func() time.Time { return time.Now().UTC() },
	}
}

// Start closes the session's open status event and opens the next one.
func (s *StatusService) Start(ctx context.Context, p StartStatusParams) (*domain.StatusEvent, error) {
	statusID, err := s.resolveStatus(ctx, p.StatusID, p.StatusCode)
	if err != nil {
		return nil, err
	}

	event, err := s.repo.StartStatusEvent(ctx, ports.StartEventParams{
		SessionID:          p.SessionID,
		StatusDefinitionID: statusID,
		StationReasonID:    p.StationReasonID,
		Note:               p.Note,
		ImageURL:           p.ImageURL,
		At:                 s.now(),
	})
	if err != nil {
		return nil, err
	}

	logging.Logger.Info("status transition",
		"session", p.SessionID, "status", statusID, "event", event.ID)
	return event, nil
}

// EndProduction finalizes a production interval: quantities land on the
// closing event and the WIP ledger in one atomic unit, then the next
// status opens. Quantity validation happens before any transaction.
func (s *StatusService) EndProduction(ctx context.Context, p EndProductionParams) (*domain.StatusEvent, error) {
	if p.QuantityGood < 0 || p.QuantityScrap < 0 {
		return nil, domain.ErrInvalidQuantity
	}
	if p.StatusEventID == "" {
		return nil, domain.ErrStatusEventNotFound
	}

	nextID, err := s.resolveStatus(ctx, p.NextStatusID, p.NextStatusCode)
	if err != nil {
		return nil, err
	}

	event, err := s.repo.EndProductionInterval(ctx, ports.EndProductionParams{
		SessionID:              p.SessionID,
		StatusEventID:          p.StatusEventID,
		QuantityGood:           p.QuantityGood,
		QuantityScrap:          p.QuantityScrap,
		JobItemID:              p.JobItemID,
		JobItemStepID:          p.JobItemStepID,
		NextStatusDefinitionID: nextID,
		NextStationReasonID:    p.NextReasonID,
		NextNote:               p.NextNote,
		At:                     s.now(),
	})
	if err != nil {
		return nil, err
	}

	logging.Logger.Info("production interval ended",
		"session", p.SessionID,
		"closed_event", p.StatusEventID,
		"good", p.QuantityGood,
		"scrap", p.QuantityScrap,
		"next_event", event.ID)
	return event, nil
}

// History returns the session's status events in start order.
func (s *StatusService) History(ctx context.Context, sessionID string) ([]domain.StatusEvent, error) {
	return s.repo.ListStatusEvents(ctx, sessionID)
}

func (s *StatusService) resolveStatus(ctx context.Context, id, code string) (string, error) {
	if id != "" {
		return id, nil
	}
	if code == "" {
		return "", fmt.Errorf("status id or code required: %w", domain.ErrStatusDefinitionNotFound)
	}
	def, err := s.repo.GetStatusDefinitionByCode(ctx, code)
	if err != nil {
		return "", err
	}
	return def.ID, nil
}
