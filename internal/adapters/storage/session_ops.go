package storage

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"floorline/internal/domain"
	"floorline/internal/ports"
)

// CreateSession implements ports.SessionWriter. The occupancy guard, the
// closure of the worker's prior sessions, and the insert commit together
// or not at all.
func (r *SQLiteRepository) CreateSession(ctx context.Context, p ports.NewSessionParams) (*domain.Session, error) {
	var created SessionModel

	err := withRetry(func() error {
		return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			var worker WorkerModel
			if err := tx.Where("id = ?", p.WorkerID).First(&worker).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return domain.ErrWorkerNotFound
				}
				return err
			}
			if !worker.IsActive {
				return domain.ErrWorkerInactive
			}

			var station StationModel
			if err := tx.Where("id = ?", p.StationID).First(&station).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return domain.ErrStationNotFound
				}
				return err
			}

			// Occupancy guard: another worker's live session blocks the
			// station. The same worker's own session does not; it is
			// closed below like any other prior session.
			liveAfter := p.At.Add(-p.Grace)
			var occupant SessionModel
			err := tx.
				Where("station_id = ? AND status = ? AND worker_id <> ?",
					p.StationID, string(domain.SessionActive), p.WorkerID).
				Where("COALESCE(last_seen_at, started_at) >= ?", liveAfter).
				First(&occupant).Error
			if err == nil {
				occErr := &domain.StationOccupiedError{
					StationID: p.StationID,
					WorkerID:  occupant.WorkerID,
				}
				var occWorker WorkerModel
				if err := tx.Where("id = ?", occupant.WorkerID).First(&occWorker).Error; err == nil {
					occErr.WorkerCode = occWorker.Code
				}
				return occErr
			}
			if !errors.Is(err, gorm.ErrRecordNotFound) {
				return err
			}

			// Any remaining active session at the station belongs to
			// another worker and is past the grace window; expire it now
			// so the station never carries two active sessions until the
			// next sweep round.
			var staleOccupants []SessionModel
			if err := tx.Where("station_id = ? AND status = ? AND worker_id <> ?",
				p.StationID, string(domain.SessionActive), p.WorkerID).
				Find(&staleOccupants).Error; err != nil {
				return err
			}
			for i := range staleOccupants {
				if err := forceCloseSessionTx(tx, staleOccupants[i].ID, p.At); err != nil {
					return err
				}
			}

			// Close every prior active session of the requesting worker,
			// each with its open status event.
			var priors []SessionModel
			if err := tx.Where("worker_id = ? AND status = ?",
				p.WorkerID, string(domain.SessionActive)).Find(&priors).Error; err != nil {
				return err
			}
			for i := range priors {
				if err := closeSessionTx(tx, &priors[i], domain.SessionCompleted, p.At); err != nil {
					return err
				}
			}

			lastSeen := p.At
			created = SessionModel{
				ID:               uuid.NewString(),
				WorkerID:         p.WorkerID,
				StationID:        p.StationID,
				JobID:            optional(p.JobID),
				Status:           string(domain.SessionActive),
				ActiveInstanceID: p.InstanceID,
				StartedAt:        p.At,
				LastSeenAt:       &lastSeen,
			}
			return tx.Create(&created).Error
		})
	}, 3)
	if err != nil {
		return nil, err
	}

	session := sessionModelToDomain(created)
	return &session, nil
}

// RecordHeartbeat implements ports.SessionWriter. An empty instanceID is
// the legacy mode: refresh without ownership checks. With an instanceID
// the stored owner must match; a mismatch is an expected outcome, not a
// fault, and must not refresh the clock.
func (r *SQLiteRepository) RecordHeartbeat(ctx context.Context, sessionID, instanceID string, at time.Time) error {
	return withRetry(func() error {
		return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			var session SessionModel
			if err := tx.Where("id = ?", sessionID).First(&session).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return domain.ErrSessionNotFound
				}
				return err
			}

			if instanceID == "" {
				// Legacy clients never carry an instance id. A heartbeat
				// landing after closure is a harmless duplicate.
				if session.Status != string(domain.SessionActive) {
					return nil
				}
				return tx.Model(&SessionModel{}).
					Where("id = ?", sessionID).
					Update("last_seen_at", at).Error
			}

			if session.Status != string(domain.SessionActive) {
				return domain.ErrSessionNotActive
			}
			if session.ActiveInstanceID != instanceID {
				return domain.ErrInstanceMismatch
			}
			return tx.Model(&SessionModel{}).
				Where("id = ?", sessionID).
				Update("last_seen_at", at).Error
		})
	}, 3)
}

// Takeover implements ports.SessionWriter
func (r *SQLiteRepository) Takeover(ctx context.Context, sessionID, workerID, newInstanceID string, at time.Time) (*domain.Session, error) {
	var updated SessionModel

	err := withRetry(func() error {
		return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			var session SessionModel
			if err := tx.Where("id = ?", sessionID).First(&session).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return domain.ErrSessionNotFound
				}
				return err
			}
			if session.WorkerID != workerID {
				return domain.ErrUnauthorized
			}
			if session.Status != string(domain.SessionActive) {
				return domain.ErrSessionNotActive
			}

			session.ActiveInstanceID = newInstanceID
			session.LastSeenAt = &at
			if err := tx.Model(&SessionModel{}).
				Where("id = ?", sessionID).
				Updates(map[string]any{
					"active_instance_id": newInstanceID,
					"last_seen_at":       at,
				}).Error; err != nil {
				return err
			}
			updated = session
			return nil
		})
	}, 3)
	if err != nil {
		return nil, err
	}

	session := sessionModelToDomain(updated)
	return &session, nil
}

// Abandon implements ports.SessionWriter. Terminal sessions pass through
// unchanged so duplicate client requests stay harmless.
func (r *SQLiteRepository) Abandon(ctx context.Context, sessionID string, reason domain.AbandonReason, at time.Time) (*domain.Session, error) {
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
				result = session
				return nil
			}

			if err := closeSessionTx(tx, &session, domain.SessionAbandoned, at); err != nil {
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

// closeSessionTx ends a session inside an open transaction: the open
// status event gets its ended_at, then the session reaches the terminal
// status. The caller's model is updated in place.
func closeSessionTx(tx *gorm.DB, session *SessionModel, status domain.SessionStatus, at time.Time) error {
	if err := closeOpenEventTx(tx, session.ID, at); err != nil {
		return err
	}

	session.Status = string(status)
	session.EndedAt = &at
	return tx.Model(&SessionModel{}).
		Where("id = ?", session.ID).
		Updates(map[string]any{
			"status":   string(status),
			"ended_at": at,
		}).Error
}

// closeOpenEventTx stamps ended_at on the session's open status event,
// if one exists.
func closeOpenEventTx(tx *gorm.DB, sessionID string, at time.Time) error {
	return tx.Model(&StatusEventModel{}).
		Where("session_id = ? AND ended_at IS NULL", sessionID).
		Update("ended_at", at).Error
}
