package services

import (
	"context"
	"time"

	"floorline/internal/domain"
	"floorline/internal/logging"
	"floorline/internal/ports"
)

// WipService applies live quantity adjustments to the pipeline ledger.
type WipService struct {
	repo ports.Repository
	now  func() time.Time
}

// NewWipService creates a new WipService
func NewWipService(repo ports.Repository) *WipService {
	return &WipService{
		repo: repo,
		now:  func() time.Time { return time.Now().UTC() },
	}
}

// UpdateQuantities applies good/scrap deltas to the open production
// event. Routed sessions also move WIP; unrouted sessions only touch
// their totals. The repository rejects any delta that would leave a
// quantity or balance negative, with no partial effect.
func (s *WipService) UpdateQuantities(ctx context.Context, sessionID string, goodDelta, scrapDelta int) (*domain.Session, error) {
	session, err := s.repo.UpdateQuantities(ctx, sessionID, goodDelta, scrapDelta, s.now())
	if err != nil {
		return nil, err
	}

	logging.Logger.Debug("quantities updated",
		"session", sessionID,
		"good_delta", goodDelta,
		"scrap_delta", scrapDelta,
		"total_good", session.TotalGood,
		"total_scrap", session.TotalScrap)
	return session, nil
}

// Balance reads the available quantity for a job item at a station.
func (s *WipService) Balance(ctx context.Context, jobItemID, stationID string) (*domain.WipBalance, error) {
	return s.repo.GetWipBalance(ctx, jobItemID, stationID)
}
