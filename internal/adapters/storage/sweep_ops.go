package storage

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"floorline/internal/domain"
)

// ListIdleSessions implements ports.SweepStore. A session is idle when
// its liveness instant (last heartbeat, or start when none arrived)
// predates the cutoff.
func (r *SQLiteRepository) ListIdleSessions(ctx context.Context, cutoff time.Time) ([]domain.Session, error) {
	var models []SessionModel
	err := r.db.WithContext(ctx).
		Where("status = ? AND forced_closed_at IS NULL", string(domain.SessionActive)).
		Where("COALESCE(last_seen_at, started_at) < ?", cutoff).
		Find(&models).Error
	if err != nil {
		return nil, err
	}

	sessions := make([]domain.Session, 0, len(models))
	for _, m := range models {
		sessions = append(sessions, sessionModelToDomain(m))
	}
	return sessions, nil
}

// ForceClose implements ports.SweepStore. The guard re-checks the status
// inside the transaction so a sweep racing a client close (or a second
// sweep round) degrades to a no-op.
func (r *SQLiteRepository) ForceClose(ctx context.Context, sessionID string, at time.Time) (bool, error) {
	closed := false

	err := withRetry(func() error {
		return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			var session SessionModel
			if err := tx.Where("id = ?", sessionID).First(&session).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return domain.ErrSessionNotFound
				}
				return err
			}
			if session.Status != string(domain.SessionActive) || session.ForcedClosedAt != nil {
				return nil
			}

			if err := forceCloseSessionTx(tx, sessionID, at); err != nil {
				return err
			}
			closed = true
			return nil
		})
	}, 3)
	if err != nil {
		return false, err
	}
	return closed, nil
}

// forceCloseSessionTx expires a session inside an open transaction: the
// open event is closed, a terminal stopped event records why, and the
// session completes with forced_closed_at set.
func forceCloseSessionTx(tx *gorm.DB, sessionID string, at time.Time) error {
	stoppedDef, err := getOrCreateStatusDefinitionTx(tx, domain.StatusStopped)
	if err != nil {
		return err
	}

	if err := closeOpenEventTx(tx, sessionID, at); err != nil {
		return err
	}

	terminal := StatusEventModel{
		ID:                 uuid.NewString(),
		SessionID:          sessionID,
		StatusDefinitionID: stoppedDef.ID,
		Note:               domain.GraceWindowExpiredNote,
		StartedAt:          at,
		EndedAt:            &at,
	}
	if err := tx.Create(&terminal).Error; err != nil {
		return err
	}

	return tx.Model(&SessionModel{}).
		Where("id = ?", sessionID).
		Updates(map[string]any{
			"status":            string(domain.SessionCompleted),
			"ended_at":          at,
			"forced_closed_at":  at,
			"current_status_id": terminal.ID,
		}).Error
}

func getOrCreateStatusDefinitionTx(tx *gorm.DB, code string) (*StatusDefinitionModel, error) {
	var def StatusDefinitionModel
	err := tx.Where("code = ?", code).First(&def).Error
	if err == nil {
		return &def, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	def = StatusDefinitionModel{
		ID:   uuid.NewString(),
		Code: code,
		Name: code,
	}
	if err := tx.Create(&def).Error; err != nil {
		return nil, err
	}
	return &def, nil
}
