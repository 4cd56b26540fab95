package storage

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"floorline/internal/domain"
)

// UpdateQuantities implements ports.LedgerWriter. Live adjustments land
// on the open production event, the session totals, and (for routed
// sessions) the WIP balances, in one transaction.
func (r *SQLiteRepository) UpdateQuantities(ctx context.Context, sessionID string, goodDelta, scrapDelta int, at time.Time) (*domain.Session, error) {
	var result SessionModel

	err := withRetry(func() error {
		return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			var session SessionModel
			if err := tx.Where("id = ?", sessionID).First(&session).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return domain.ErrSessionNotFound
				}
				return err
			}
			if session.Status != string(domain.SessionActive) {
				return domain.ErrSessionNotActive
			}
			if session.CurrentStatusID == nil {
				return domain.ErrStatusEventNotFound
			}

			var event StatusEventModel
			if err := tx.Where("id = ?", *session.CurrentStatusID).First(&event).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return domain.ErrStatusEventNotFound
				}
				return err
			}
			if event.EndedAt != nil {
				return domain.ErrStatusEventAlreadyEnded
			}

			var def StatusDefinitionModel
			if err := tx.Where("id = ?", event.StatusDefinitionID).First(&def).Error; err != nil {
				return err
			}
			if !def.IsProduction {
				// Quantities only accrue during production intervals.
				return domain.ErrStatusEventNotProduction
			}

			newGood := event.QuantityGood + goodDelta
			newScrap := event.QuantityScrap + scrapDelta
			if newGood < 0 || newScrap < 0 {
				return domain.ErrInvalidQuantity
			}

			// Unrouted work skips WIP accounting entirely.
			jobItemID := deref(session.JobItemID)
			if jobItemID == "" {
				jobItemID = deref(event.JobItemID)
			}
			if jobItemID != "" && goodDelta != 0 {
				if err := checkFirstProductGateTx(tx, jobItemID, goodDelta); err != nil {
					return err
				}
				if err := applyGoodDeltaTx(tx, jobItemID, session.StationID, goodDelta, at); err != nil {
					return err
				}
			}

			// Binding the event marks its quantities as already applied to
			// WIP, so a later interval close only moves the remainder.
			eventUpdates := map[string]any{
				"quantity_good":  newGood,
				"quantity_scrap": newScrap,
			}
			if jobItemID != "" && deref(event.JobItemID) == "" {
				eventUpdates["job_item_id"] = jobItemID
			}
			if err := tx.Model(&StatusEventModel{}).
				Where("id = ?", event.ID).
				Updates(eventUpdates).Error; err != nil {
				return err
			}

			session.TotalGood += goodDelta
			session.TotalScrap += scrapDelta
			if err := tx.Model(&SessionModel{}).
				Where("id = ?", sessionID).
				Updates(map[string]any{
					"total_good":  session.TotalGood,
					"total_scrap": session.TotalScrap,
				}).Error; err != nil {
				return err
			}
			result = session
			return nil
		})
	}, 3)
	if err != nil {
		return nil, err
	}

	session := sessionModelToDomain(result)
	return &session, nil
}

// applyGoodDeltaTx moves good units through the pipeline inside an open
// transaction. An increase at a station adds to its balance and consumes
// the same amount from the upstream station's balance; a decrease
// (worker correcting an over-count) reverses both moves. Either direction
// fails when it would take any balance negative: the downstream station
// already consumed the units, or the upstream station never produced
// them.
func applyGoodDeltaTx(tx *gorm.DB, jobItemID, stationID string, delta int, at time.Time) error {
	if delta == 0 {
		return nil
	}

	var step JobItemStepModel
	if err := tx.Where("job_item_id = ? AND station_id = ?", jobItemID, stationID).
		First(&step).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.ErrJobItemStepNotFound
		}
		return err
	}

	var upstream *JobItemStepModel
	if step.Position > 1 {
		var u JobItemStepModel
		err := tx.Where("job_item_id = ? AND position = ?", jobItemID, step.Position-1).
			First(&u).Error
		if err != nil {
			if !errors.Is(err, gorm.ErrRecordNotFound) {
				return err
			}
		} else {
			upstream = &u
		}
	}

	balance, err := loadOrCreateBalanceTx(tx, jobItemID, step)
	if err != nil {
		return err
	}

	if delta > 0 {
		if upstream != nil {
			upBalance, err := loadOrCreateBalanceTx(tx, jobItemID, *upstream)
			if err != nil {
				return err
			}
			if upBalance.GoodAvailable < delta {
				return domain.ErrWipInsufficientUpstream
			}
			if err := adjustBalanceTx(tx, upBalance, -delta); err != nil {
				return err
			}
			if err := appendConsumptionTx(tx, jobItemID, upstream.StationID, stationID, delta, at); err != nil {
				return err
			}
		}
		return adjustBalanceTx(tx, balance, delta)
	}

	// Correction: units can only be claimed back while they still sit in
	// this station's balance.
	removed := -delta
	if balance.GoodAvailable < removed {
		return &domain.WipConflictError{
			JobItemID: jobItemID,
			StationID: stationID,
			Available: balance.GoodAvailable,
			Requested: removed,
		}
	}
	if err := adjustBalanceTx(tx, balance, delta); err != nil {
		return err
	}
	if upstream != nil {
		upBalance, err := loadOrCreateBalanceTx(tx, jobItemID, *upstream)
		if err != nil {
			return err
		}
		if err := adjustBalanceTx(tx, upBalance, removed); err != nil {
			return err
		}
		// The reversal stays in the append-only ledger as a negative row.
		return appendConsumptionTx(tx, jobItemID, upstream.StationID, stationID, delta, at)
	}
	return nil
}

func loadOrCreateBalanceTx(tx *gorm.DB, jobItemID string, step JobItemStepModel) (*WipBalanceModel, error) {
	var balance WipBalanceModel
	err := tx.Where("job_item_id = ? AND station_id = ?", jobItemID, step.StationID).
		First(&balance).Error
	if err == nil {
		return &balance, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	var downstreamSteps int64
	if err := tx.Model(&JobItemStepModel{}).
		Where("job_item_id = ? AND position > ?", jobItemID, step.Position).
		Count(&downstreamSteps).Error; err != nil {
		return nil, err
	}

	balance = WipBalanceModel{
		JobItemID:  jobItemID,
		StationID:  step.StationID,
		IsTerminal: downstreamSteps == 0,
	}
	if err := tx.Create(&balance).Error; err != nil {
		return nil, err
	}
	return &balance, nil
}

func adjustBalanceTx(tx *gorm.DB, balance *WipBalanceModel, delta int) error {
	balance.GoodAvailable += delta
	return tx.Model(&WipBalanceModel{}).
		Where("job_item_id = ? AND station_id = ?", balance.JobItemID, balance.StationID).
		Update("good_available", balance.GoodAvailable).Error
}

func appendConsumptionTx(tx *gorm.DB, jobItemID, fromStationID, toStationID string, quantity int, at time.Time) error {
	return tx.Create(&WipConsumptionModel{
		JobItemID:     jobItemID,
		FromStationID: fromStationID,
		ToStationID:   toStationID,
		Quantity:      quantity,
		ConsumedAt:    at,
	}).Error
}
