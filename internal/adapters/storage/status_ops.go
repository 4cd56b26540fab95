package storage

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"floorline/internal/domain"
	"floorline/internal/ports"
)

// StartStatusEvent implements ports.StatusWriter. Closing the open event,
// opening the next, and repointing current_status_id are one atomic unit.
func (r *SQLiteRepository) StartStatusEvent(ctx context.Context, p ports.StartEventParams) (*domain.StatusEvent, error) {
	var created StatusEventModel

	err := withRetry(func() error {
		return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			var session SessionModel
			if err := tx.Where("id = ?", p.SessionID).First(&session).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return domain.ErrSessionNotFound
				}
				return err
			}
			if session.Status != string(domain.SessionActive) {
				return domain.ErrSessionNotActive
			}

			var def StatusDefinitionModel
			if err := tx.Where("id = ?", p.StatusDefinitionID).First(&def).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return domain.ErrStatusDefinitionNotFound
				}
				return err
			}

			if err := closeOpenEventTx(tx, p.SessionID, p.At); err != nil {
				return err
			}

			created = StatusEventModel{
				ID:                 uuid.NewString(),
				SessionID:          p.SessionID,
				StatusDefinitionID: p.StatusDefinitionID,
				StationReasonID:    optional(p.StationReasonID),
				Note:               p.Note,
				ImageURL:           p.ImageURL,
				StartedAt:          p.At,
			}
			if err := tx.Create(&created).Error; err != nil {
				return err
			}

			return tx.Model(&SessionModel{}).
				Where("id = ?", p.SessionID).
				Update("current_status_id", created.ID).Error
		})
	}, 3)
	if err != nil {
		return nil, err
	}

	event := statusEventModelToDomain(created)
	return &event, nil
}

// EndProductionInterval implements ports.StatusWriter. The final
// quantities on the closing event, the WIP delta they imply, the session
// totals, and the follow-up event commit together or not at all.
func (r *SQLiteRepository) EndProductionInterval(ctx context.Context, p ports.EndProductionParams) (*domain.StatusEvent, error) {
	var opened StatusEventModel

	err := withRetry(func() error {
		return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			var session SessionModel
			if err := tx.Where("id = ?", p.SessionID).First(&session).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return domain.ErrSessionNotFound
				}
				return err
			}
			if session.Status != string(domain.SessionActive) {
				return domain.ErrSessionNotActive
			}

			var event StatusEventModel
			if err := tx.Where("id = ?", p.StatusEventID).First(&event).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return domain.ErrStatusEventNotFound
				}
				return err
			}
			if event.SessionID != p.SessionID {
				return domain.ErrStatusEventSessionMismatch
			}
			if event.EndedAt != nil {
				// Double submission; reject with no side effects so a
				// retried request cannot double-count quantities.
				return domain.ErrStatusEventAlreadyEnded
			}

			var eventDef StatusDefinitionModel
			if err := tx.Where("id = ?", event.StatusDefinitionID).First(&eventDef).Error; err != nil {
				return err
			}
			if !eventDef.IsProduction {
				// Quantities only land on production intervals; other
				// statuses are closed through StartStatusEvent.
				return domain.ErrStatusEventNotProduction
			}

			var nextDef StatusDefinitionModel
			if err := tx.Where("id = ?", p.NextStatusDefinitionID).First(&nextDef).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return domain.ErrStatusDefinitionNotFound
				}
				return err
			}

			jobItemID := p.JobItemID
			if jobItemID == "" {
				jobItemID = deref(event.JobItemID)
			}
			if jobItemID == "" {
				jobItemID = deref(session.JobItemID)
			}
			jobItemStepID := p.JobItemStepID

			// Live updates already moved WIP for the quantities recorded
			// on a bound event; only the remainder applies now.
			wipApplied := 0
			if deref(event.JobItemID) != "" {
				wipApplied = event.QuantityGood
			}

			if jobItemID != "" {
				if err := checkFirstProductGateTx(tx, jobItemID, p.QuantityGood-wipApplied); err != nil {
					return err
				}
				delta := p.QuantityGood - wipApplied
				if delta != 0 {
					if err := applyGoodDeltaTx(tx, jobItemID, session.StationID, delta, p.At); err != nil {
						return err
					}
				}
				if jobItemStepID == "" {
					var step JobItemStepModel
					if err := tx.Where("job_item_id = ? AND station_id = ?", jobItemID, session.StationID).
						First(&step).Error; err == nil {
						jobItemStepID = step.ID
					}
				}
			}

			if err := tx.Model(&StatusEventModel{}).
				Where("id = ?", event.ID).
				Updates(map[string]any{
					"ended_at":         p.At,
					"quantity_good":    p.QuantityGood,
					"quantity_scrap":   p.QuantityScrap,
					"job_item_id":      optional(jobItemID),
					"job_item_step_id": optional(jobItemStepID),
				}).Error; err != nil {
				return err
			}

			opened = StatusEventModel{
				ID:                 uuid.NewString(),
				SessionID:          p.SessionID,
				StatusDefinitionID: p.NextStatusDefinitionID,
				StationReasonID:    optional(p.NextStationReasonID),
				Note:               p.NextNote,
				StartedAt:          p.At,
			}
			if err := tx.Create(&opened).Error; err != nil {
				return err
			}

			return tx.Model(&SessionModel{}).
				Where("id = ?", p.SessionID).
				Updates(map[string]any{
					"current_status_id": opened.ID,
					"total_good":        session.TotalGood + p.QuantityGood - event.QuantityGood,
					"total_scrap":       session.TotalScrap + p.QuantityScrap - event.QuantityScrap,
					"job_item_id":       optional(jobItemID),
					"job_item_step_id":  optional(jobItemStepID),
				}).Error
		})
	}, 3)
	if err != nil {
		return nil, err
	}

	event := statusEventModelToDomain(opened)
	return &event, nil
}

// checkFirstProductGateTx rejects new good quantity for a job item whose
// first product still awaits approval.
func checkFirstProductGateTx(tx *gorm.DB, jobItemID string, goodDelta int) error {
	if goodDelta <= 0 {
		return nil
	}
	var item JobItemModel
	if err := tx.Where("id = ?", jobItemID).First(&item).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.ErrJobItemStepNotFound
		}
		return err
	}
	if item.RequiresFirstProductApproval && item.FirstProductApprovedAt == nil {
		return domain.ErrFirstProductNotApproved
	}
	return nil
}
