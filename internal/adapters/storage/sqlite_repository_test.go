package storage

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"floorline/internal/domain"
	"floorline/internal/ports"
)

const testGrace = 5 * time.Minute

// floor holds the reference data every test drives against: two workers,
// a three-station line, and one job item routed through all of it.
type floor struct {
	worker1  string
	worker2  string
	inactive string

	station1 string
	station2 string
	station3 string

	production string
	setup      string

	jobID  string
	itemID string
}

func newTestRepo(t *testing.T) *SQLiteRepository {
	t.Helper()
	repo, err := NewSQLiteRepository(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = repo.Close() })
	return repo
}

func seedFloor(t *testing.T, repo *SQLiteRepository) floor {
	t.Helper()

	f := floor{
		worker1:    uuid.NewString(),
		worker2:    uuid.NewString(),
		inactive:   uuid.NewString(),
		station1:   uuid.NewString(),
		station2:   uuid.NewString(),
		station3:   uuid.NewString(),
		production: uuid.NewString(),
		setup:      uuid.NewString(),
		jobID:      uuid.NewString(),
		itemID:     uuid.NewString(),
	}

	require.NoError(t, repo.db.Create(&WorkerModel{ID: f.worker1, Code: "W-1", Name: "Worker One", IsActive: true}).Error)
	require.NoError(t, repo.db.Create(&WorkerModel{ID: f.worker2, Code: "W-2", Name: "Worker Two", IsActive: true}).Error)
	require.NoError(t, repo.db.Create(&WorkerModel{ID: f.inactive, Code: "W-3", Name: "Gone", IsActive: false}).Error)

	require.NoError(t, repo.db.Create(&StationModel{ID: f.station1, Code: "S-1", Position: 1}).Error)
	require.NoError(t, repo.db.Create(&StationModel{ID: f.station2, Code: "S-2", Position: 2}).Error)
	require.NoError(t, repo.db.Create(&StationModel{ID: f.station3, Code: "S-3", Position: 3, IsTerminal: true}).Error)

	require.NoError(t, repo.db.Create(&StatusDefinitionModel{ID: f.production, Code: domain.StatusProduction, Name: "Production", IsProduction: true}).Error)
	require.NoError(t, repo.db.Create(&StatusDefinitionModel{ID: f.setup, Code: domain.StatusSetup, Name: "Setup"}).Error)

	require.NoError(t, repo.db.Create(&JobModel{ID: f.jobID, Code: "J-1", Active: true}).Error)
	require.NoError(t, repo.db.Create(&JobItemModel{ID: f.itemID, JobID: f.jobID, ProductCode: "P-1"}).Error)
	require.NoError(t, repo.db.Create(&JobItemStepModel{ID: uuid.NewString(), JobItemID: f.itemID, StationID: f.station1, Position: 1}).Error)
	require.NoError(t, repo.db.Create(&JobItemStepModel{ID: uuid.NewString(), JobItemID: f.itemID, StationID: f.station2, Position: 2}).Error)
	require.NoError(t, repo.db.Create(&JobItemStepModel{ID: uuid.NewString(), JobItemID: f.itemID, StationID: f.station3, Position: 3}).Error)

	return f
}

func createSession(t *testing.T, repo *SQLiteRepository, workerID, stationID, instanceID string, at time.Time) *domain.Session {
	t.Helper()
	session, err := repo.CreateSession(context.Background(), ports.NewSessionParams{
		WorkerID:   workerID,
		StationID:  stationID,
		InstanceID: instanceID,
		Grace:      testGrace,
		At:         at,
	})
	require.NoError(t, err)
	return session
}

func startProduction(t *testing.T, repo *SQLiteRepository, f floor, sessionID string, at time.Time) *domain.StatusEvent {
	t.Helper()
	event, err := repo.StartStatusEvent(context.Background(), ports.StartEventParams{
		SessionID:          sessionID,
		StatusDefinitionID: f.production,
		At:                 at,
	})
	require.NoError(t, err)
	return event
}

// bindSession routes a session to the shared job item, as a client would
// after scanning a job card.
func bindSession(t *testing.T, repo *SQLiteRepository, sessionID, itemID string) {
	t.Helper()
	require.NoError(t, repo.db.Model(&SessionModel{}).
		Where("id = ?", sessionID).
		Update("job_item_id", itemID).Error)
}

func balanceAt(t *testing.T, repo *SQLiteRepository, itemID, stationID string) int {
	t.Helper()
	b, err := repo.GetWipBalance(context.Background(), itemID, stationID)
	require.NoError(t, err)
	return b.GoodAvailable
}

func TestCreateSession_ChecksReferences(t *testing.T) {
	repo := newTestRepo(t)
	f := seedFloor(t, repo)
	now := time.Now().UTC()

	_, err := repo.CreateSession(context.Background(), ports.NewSessionParams{
		WorkerID: uuid.NewString(), StationID: f.station1, Grace: testGrace, At: now,
	})
	assert.ErrorIs(t, err, domain.ErrWorkerNotFound)

	_, err = repo.CreateSession(context.Background(), ports.NewSessionParams{
		WorkerID: f.inactive, StationID: f.station1, Grace: testGrace, At: now,
	})
	assert.ErrorIs(t, err, domain.ErrWorkerInactive)

	_, err = repo.CreateSession(context.Background(), ports.NewSessionParams{
		WorkerID: f.worker1, StationID: uuid.NewString(), Grace: testGrace, At: now,
	})
	assert.ErrorIs(t, err, domain.ErrStationNotFound)
}

func TestCreateSession_ClosesPriorSessionsOfSameWorker(t *testing.T) {
	repo := newTestRepo(t)
	f := seedFloor(t, repo)
	now := time.Now().UTC()

	first := createSession(t, repo, f.worker1, f.station1, "tab-1", now)
	startProduction(t, repo, f, first.ID, now)

	second := createSession(t, repo, f.worker1, f.station2, "tab-1", now.Add(time.Minute))

	closed, err := repo.GetSession(context.Background(), first.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.SessionCompleted, closed.Status)
	require.NotNil(t, closed.EndedAt)

	// The prior session's open event was closed with it.
	events, err := repo.ListStatusEvents(context.Background(), first.ID)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.NotNil(t, events[0].EndedAt)

	current, err := repo.GetSession(context.Background(), second.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.SessionActive, current.Status)
}

func TestCreateSession_RejectsOccupiedStation(t *testing.T) {
	repo := newTestRepo(t)
	f := seedFloor(t, repo)
	now := time.Now().UTC()

	createSession(t, repo, f.worker1, f.station1, "tab-1", now)

	_, err := repo.CreateSession(context.Background(), ports.NewSessionParams{
		WorkerID: f.worker2, StationID: f.station1, Grace: testGrace, At: now.Add(time.Second),
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrStationOccupied)

	var occ *domain.StationOccupiedError
	require.ErrorAs(t, err, &occ)
	assert.Equal(t, f.worker1, occ.WorkerID)
	assert.Equal(t, "W-1", occ.WorkerCode)
}

func TestCreateSession_StaleOccupantDoesNotBlock(t *testing.T) {
	repo := newTestRepo(t)
	f := seedFloor(t, repo)
	now := time.Now().UTC()

	stale := createSession(t, repo, f.worker1, f.station1, "tab-1", now.Add(-time.Hour))
	require.NoError(t, repo.db.Model(&SessionModel{}).
		Where("id = ?", stale.ID).
		Update("last_seen_at", now.Add(-time.Hour)).Error)

	session, err := repo.CreateSession(context.Background(), ports.NewSessionParams{
		WorkerID: f.worker2, StationID: f.station1, Grace: testGrace, At: now,
	})
	require.NoError(t, err)
	assert.Equal(t, domain.SessionActive, session.Status)

	// The stale occupant is expired in the same transaction, so the
	// station never carries two active sessions.
	expired, err := repo.GetSession(context.Background(), stale.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.SessionCompleted, expired.Status)
	require.NotNil(t, expired.ForcedClosedAt)

	events, err := repo.ListStatusEvents(context.Background(), stale.ID)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, domain.GraceWindowExpiredNote, events[0].Note)

	active, err := repo.ListSessions(context.Background(), true)
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, session.ID, active[0].ID)
}

func TestRecordHeartbeat_LegacyMode(t *testing.T) {
	repo := newTestRepo(t)
	f := seedFloor(t, repo)
	now := time.Now().UTC()

	session := createSession(t, repo, f.worker1, f.station1, "", now)

	later := now.Add(30 * time.Second)
	require.NoError(t, repo.RecordHeartbeat(context.Background(), session.ID, "", later))

	got, err := repo.GetSession(context.Background(), session.ID)
	require.NoError(t, err)
	assert.WithinDuration(t, later, got.LastSeenAt, time.Second)

	// A heartbeat landing after closure is a harmless duplicate.
	_, err = repo.Abandon(context.Background(), session.ID, domain.AbandonWorkerChoice, later)
	require.NoError(t, err)
	assert.NoError(t, repo.RecordHeartbeat(context.Background(), session.ID, "", later.Add(time.Second)))

	assert.ErrorIs(t,
		repo.RecordHeartbeat(context.Background(), uuid.NewString(), "", later),
		domain.ErrSessionNotFound)
}

func TestRecordHeartbeat_InstanceChecked(t *testing.T) {
	repo := newTestRepo(t)
	f := seedFloor(t, repo)
	now := time.Now().UTC()

	session := createSession(t, repo, f.worker1, f.station1, "tab-1", now)

	require.NoError(t, repo.RecordHeartbeat(context.Background(), session.ID, "tab-1", now.Add(15*time.Second)))

	err := repo.RecordHeartbeat(context.Background(), session.ID, "tab-2", now.Add(time.Minute))
	assert.ErrorIs(t, err, domain.ErrInstanceMismatch)

	// The rejected heartbeat must not refresh the liveness clock.
	got, err := repo.GetSession(context.Background(), session.ID)
	require.NoError(t, err)
	assert.WithinDuration(t, now.Add(15*time.Second), got.LastSeenAt, time.Second)

	_, err = repo.Abandon(context.Background(), session.ID, domain.AbandonWorkerChoice, now.Add(time.Minute))
	require.NoError(t, err)
	assert.ErrorIs(t,
		repo.RecordHeartbeat(context.Background(), session.ID, "tab-1", now.Add(2*time.Minute)),
		domain.ErrSessionNotActive)
}

func TestTakeover(t *testing.T) {
	repo := newTestRepo(t)
	f := seedFloor(t, repo)
	now := time.Now().UTC()

	session := createSession(t, repo, f.worker1, f.station1, "tab-1", now)

	_, err := repo.Takeover(context.Background(), session.ID, f.worker2, "tab-9", now)
	assert.ErrorIs(t, err, domain.ErrUnauthorized)

	taken, err := repo.Takeover(context.Background(), session.ID, f.worker1, "tab-2", now.Add(time.Second))
	require.NoError(t, err)
	assert.Equal(t, "tab-2", taken.ActiveInstanceID)

	// The old instance lost ownership; the new one heartbeats freely.
	assert.ErrorIs(t,
		repo.RecordHeartbeat(context.Background(), session.ID, "tab-1", now.Add(2*time.Second)),
		domain.ErrInstanceMismatch)
	assert.NoError(t,
		repo.RecordHeartbeat(context.Background(), session.ID, "tab-2", now.Add(2*time.Second)))

	_, err = repo.Abandon(context.Background(), session.ID, domain.AbandonWorkerChoice, now.Add(time.Minute))
	require.NoError(t, err)
	_, err = repo.Takeover(context.Background(), session.ID, f.worker1, "tab-3", now.Add(time.Minute))
	assert.ErrorIs(t, err, domain.ErrSessionNotActive)
}

func TestAbandon_IsIdempotent(t *testing.T) {
	repo := newTestRepo(t)
	f := seedFloor(t, repo)
	now := time.Now().UTC()

	session := createSession(t, repo, f.worker1, f.station1, "tab-1", now)
	startProduction(t, repo, f, session.ID, now)

	first, err := repo.Abandon(context.Background(), session.ID, domain.AbandonWorkerChoice, now.Add(time.Minute))
	require.NoError(t, err)
	assert.Equal(t, domain.SessionAbandoned, first.Status)

	events, err := repo.ListStatusEvents(context.Background(), session.ID)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.NotNil(t, events[0].EndedAt)

	second, err := repo.Abandon(context.Background(), session.ID, domain.AbandonExpired, now.Add(2*time.Minute))
	require.NoError(t, err)
	assert.Equal(t, domain.SessionAbandoned, second.Status)
}

func TestStartStatusEvent_KeepsExactlyOneOpenEvent(t *testing.T) {
	repo := newTestRepo(t)
	f := seedFloor(t, repo)
	now := time.Now().UTC()

	session := createSession(t, repo, f.worker1, f.station1, "tab-1", now)

	first := startProduction(t, repo, f, session.ID, now)
	second, err := repo.StartStatusEvent(context.Background(), ports.StartEventParams{
		SessionID:          session.ID,
		StatusDefinitionID: f.setup,
		At:                 now.Add(time.Minute),
	})
	require.NoError(t, err)

	events, err := repo.ListStatusEvents(context.Background(), session.ID)
	require.NoError(t, err)
	require.Len(t, events, 2)

	open := 0
	for i := range events {
		if events[i].IsOpen() {
			open++
			assert.Equal(t, second.ID, events[i].ID)
		} else {
			assert.Equal(t, first.ID, events[i].ID)
		}
	}
	assert.Equal(t, 1, open)

	got, err := repo.GetSession(context.Background(), session.ID)
	require.NoError(t, err)
	assert.Equal(t, second.ID, got.CurrentStatusID)

	_, err = repo.StartStatusEvent(context.Background(), ports.StartEventParams{
		SessionID:          session.ID,
		StatusDefinitionID: uuid.NewString(),
		At:                 now,
	})
	assert.ErrorIs(t, err, domain.ErrStatusDefinitionNotFound)
}

func TestUpdateQuantities_UnroutedSession(t *testing.T) {
	repo := newTestRepo(t)
	f := seedFloor(t, repo)
	now := time.Now().UTC()

	session := createSession(t, repo, f.worker1, f.station1, "tab-1", now)

	// No open event yet.
	_, err := repo.UpdateQuantities(context.Background(), session.ID, 1, 0, now)
	assert.ErrorIs(t, err, domain.ErrStatusEventNotFound)

	startProduction(t, repo, f, session.ID, now)

	updated, err := repo.UpdateQuantities(context.Background(), session.ID, 5, 1, now.Add(time.Minute))
	require.NoError(t, err)
	assert.Equal(t, 5, updated.TotalGood)
	assert.Equal(t, 1, updated.TotalScrap)

	_, err = repo.UpdateQuantities(context.Background(), session.ID, -10, 0, now.Add(time.Minute))
	assert.ErrorIs(t, err, domain.ErrInvalidQuantity)

	// Quantities only accrue during production intervals.
	_, err = repo.StartStatusEvent(context.Background(), ports.StartEventParams{
		SessionID:          session.ID,
		StatusDefinitionID: f.setup,
		At:                 now.Add(2 * time.Minute),
	})
	require.NoError(t, err)
	_, err = repo.UpdateQuantities(context.Background(), session.ID, 1, 0, now.Add(3*time.Minute))
	assert.ErrorIs(t, err, domain.ErrStatusEventNotProduction)
}

func TestUpdateQuantities_MovesWipThroughThePipeline(t *testing.T) {
	repo := newTestRepo(t)
	f := seedFloor(t, repo)
	now := time.Now().UTC()

	upstream := createSession(t, repo, f.worker1, f.station1, "tab-1", now)
	bindSession(t, repo, upstream.ID, f.itemID)
	startProduction(t, repo, f, upstream.ID, now)

	_, err := repo.UpdateQuantities(context.Background(), upstream.ID, 10, 0, now.Add(time.Minute))
	require.NoError(t, err)
	assert.Equal(t, 10, balanceAt(t, repo, f.itemID, f.station1))

	downstream := createSession(t, repo, f.worker2, f.station2, "tab-2", now)
	bindSession(t, repo, downstream.ID, f.itemID)
	startProduction(t, repo, f, downstream.ID, now)

	// Producing downstream consumes the upstream balance.
	_, err = repo.UpdateQuantities(context.Background(), downstream.ID, 4, 0, now.Add(2*time.Minute))
	require.NoError(t, err)
	assert.Equal(t, 6, balanceAt(t, repo, f.itemID, f.station1))
	assert.Equal(t, 4, balanceAt(t, repo, f.itemID, f.station2))

	var consumptions []WipConsumptionModel
	require.NoError(t, repo.db.Order("id ASC").Find(&consumptions).Error)
	require.Len(t, consumptions, 1)
	assert.Equal(t, f.station1, consumptions[0].FromStationID)
	assert.Equal(t, f.station2, consumptions[0].ToStationID)
	assert.Equal(t, 4, consumptions[0].Quantity)

	// More than upstream holds is rejected with no partial effect.
	_, err = repo.UpdateQuantities(context.Background(), downstream.ID, 20, 0, now.Add(3*time.Minute))
	assert.ErrorIs(t, err, domain.ErrWipInsufficientUpstream)
	assert.Equal(t, 6, balanceAt(t, repo, f.itemID, f.station1))
	assert.Equal(t, 4, balanceAt(t, repo, f.itemID, f.station2))

	// A correction returns units upstream via a negative ledger row.
	_, err = repo.UpdateQuantities(context.Background(), downstream.ID, -2, 0, now.Add(4*time.Minute))
	require.NoError(t, err)
	assert.Equal(t, 8, balanceAt(t, repo, f.itemID, f.station1))
	assert.Equal(t, 2, balanceAt(t, repo, f.itemID, f.station2))

	require.NoError(t, repo.db.Order("id ASC").Find(&consumptions).Error)
	require.Len(t, consumptions, 2)
	assert.Equal(t, -2, consumptions[1].Quantity)
}

func TestUpdateQuantities_DownstreamConsumptionBlocksCorrection(t *testing.T) {
	repo := newTestRepo(t)
	f := seedFloor(t, repo)
	now := time.Now().UTC()

	upstream := createSession(t, repo, f.worker1, f.station1, "tab-1", now)
	bindSession(t, repo, upstream.ID, f.itemID)
	startProduction(t, repo, f, upstream.ID, now)
	_, err := repo.UpdateQuantities(context.Background(), upstream.ID, 10, 0, now.Add(time.Minute))
	require.NoError(t, err)

	downstream := createSession(t, repo, f.worker2, f.station2, "tab-2", now)
	bindSession(t, repo, downstream.ID, f.itemID)
	startProduction(t, repo, f, downstream.ID, now)
	_, err = repo.UpdateQuantities(context.Background(), downstream.ID, 8, 0, now.Add(2*time.Minute))
	require.NoError(t, err)
	require.Equal(t, 2, balanceAt(t, repo, f.itemID, f.station1))

	// The upstream worker can no longer take back units the downstream
	// station already consumed.
	_, err = repo.UpdateQuantities(context.Background(), upstream.ID, -5, 0, now.Add(3*time.Minute))
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrWipDownstreamConsumed)

	var conflict *domain.WipConflictError
	require.ErrorAs(t, err, &conflict)
	assert.Equal(t, 2, conflict.Available)
	assert.Equal(t, 5, conflict.Requested)

	// No partial effect.
	assert.Equal(t, 2, balanceAt(t, repo, f.itemID, f.station1))
	assert.Equal(t, 8, balanceAt(t, repo, f.itemID, f.station2))
	got, err := repo.GetSession(context.Background(), upstream.ID)
	require.NoError(t, err)
	assert.Equal(t, 10, got.TotalGood)
}

func TestEndProductionInterval(t *testing.T) {
	repo := newTestRepo(t)
	f := seedFloor(t, repo)
	now := time.Now().UTC()

	session := createSession(t, repo, f.worker1, f.station1, "tab-1", now)
	event := startProduction(t, repo, f, session.ID, now)

	next, err := repo.EndProductionInterval(context.Background(), ports.EndProductionParams{
		SessionID:              session.ID,
		StatusEventID:          event.ID,
		QuantityGood:           7,
		QuantityScrap:          1,
		JobItemID:              f.itemID,
		NextStatusDefinitionID: f.setup,
		At:                     now.Add(time.Hour),
	})
	require.NoError(t, err)
	assert.True(t, next.IsOpen())
	assert.Equal(t, f.setup, next.StatusDefinitionID)

	events, err := repo.ListStatusEvents(context.Background(), session.ID)
	require.NoError(t, err)
	require.Len(t, events, 2)
	closed := events[0]
	assert.Equal(t, event.ID, closed.ID)
	assert.NotNil(t, closed.EndedAt)
	assert.Equal(t, 7, closed.QuantityGood)
	assert.Equal(t, 1, closed.QuantityScrap)
	assert.Equal(t, f.itemID, closed.JobItemID)
	assert.NotEmpty(t, closed.JobItemStepID)

	got, err := repo.GetSession(context.Background(), session.ID)
	require.NoError(t, err)
	assert.Equal(t, 7, got.TotalGood)
	assert.Equal(t, 1, got.TotalScrap)
	assert.Equal(t, next.ID, got.CurrentStatusID)
	assert.Equal(t, f.itemID, got.JobItemID)

	assert.Equal(t, 7, balanceAt(t, repo, f.itemID, f.station1))

	// A retried submission is rejected with no side effects.
	_, err = repo.EndProductionInterval(context.Background(), ports.EndProductionParams{
		SessionID:              session.ID,
		StatusEventID:          event.ID,
		QuantityGood:           7,
		QuantityScrap:          1,
		NextStatusDefinitionID: f.setup,
		At:                     now.Add(2 * time.Hour),
	})
	assert.ErrorIs(t, err, domain.ErrStatusEventAlreadyEnded)

	got, err = repo.GetSession(context.Background(), session.ID)
	require.NoError(t, err)
	assert.Equal(t, 7, got.TotalGood)
	assert.Equal(t, 7, balanceAt(t, repo, f.itemID, f.station1))
}

func TestEndProductionInterval_LiveUpdatesAreNotDoubleCounted(t *testing.T) {
	repo := newTestRepo(t)
	f := seedFloor(t, repo)
	now := time.Now().UTC()

	session := createSession(t, repo, f.worker1, f.station1, "tab-1", now)
	bindSession(t, repo, session.ID, f.itemID)
	event := startProduction(t, repo, f, session.ID, now)

	_, err := repo.UpdateQuantities(context.Background(), session.ID, 5, 0, now.Add(time.Minute))
	require.NoError(t, err)
	require.Equal(t, 5, balanceAt(t, repo, f.itemID, f.station1))

	// Closing with a higher final count moves only the remainder.
	_, err = repo.EndProductionInterval(context.Background(), ports.EndProductionParams{
		SessionID:              session.ID,
		StatusEventID:          event.ID,
		QuantityGood:           8,
		QuantityScrap:          0,
		NextStatusDefinitionID: f.setup,
		At:                     now.Add(time.Hour),
	})
	require.NoError(t, err)

	assert.Equal(t, 8, balanceAt(t, repo, f.itemID, f.station1))
	got, err := repo.GetSession(context.Background(), session.ID)
	require.NoError(t, err)
	assert.Equal(t, 8, got.TotalGood)
}

func TestEndProductionInterval_RejectsForeignEvent(t *testing.T) {
	repo := newTestRepo(t)
	f := seedFloor(t, repo)
	now := time.Now().UTC()

	one := createSession(t, repo, f.worker1, f.station1, "tab-1", now)
	other := createSession(t, repo, f.worker2, f.station2, "tab-2", now)
	foreign := startProduction(t, repo, f, other.ID, now)

	_, err := repo.EndProductionInterval(context.Background(), ports.EndProductionParams{
		SessionID:              one.ID,
		StatusEventID:          foreign.ID,
		NextStatusDefinitionID: f.setup,
		At:                     now.Add(time.Minute),
	})
	assert.ErrorIs(t, err, domain.ErrStatusEventSessionMismatch)

	_, err = repo.EndProductionInterval(context.Background(), ports.EndProductionParams{
		SessionID:              one.ID,
		StatusEventID:          uuid.NewString(),
		NextStatusDefinitionID: f.setup,
		At:                     now.Add(time.Minute),
	})
	assert.ErrorIs(t, err, domain.ErrStatusEventNotFound)
}

func TestEndProductionInterval_RejectsNonProductionEvent(t *testing.T) {
	repo := newTestRepo(t)
	f := seedFloor(t, repo)
	now := time.Now().UTC()

	session := createSession(t, repo, f.worker1, f.station1, "tab-1", now)
	event, err := repo.StartStatusEvent(context.Background(), ports.StartEventParams{
		SessionID:          session.ID,
		StatusDefinitionID: f.setup,
		At:                 now,
	})
	require.NoError(t, err)

	_, err = repo.EndProductionInterval(context.Background(), ports.EndProductionParams{
		SessionID:              session.ID,
		StatusEventID:          event.ID,
		QuantityGood:           5,
		NextStatusDefinitionID: f.production,
		At:                     now.Add(time.Minute),
	})
	assert.ErrorIs(t, err, domain.ErrStatusEventNotProduction)

	// The setup interval stays open with no quantities stamped on it.
	events, err := repo.ListStatusEvents(context.Background(), session.ID)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Nil(t, events[0].EndedAt)
	assert.Equal(t, 0, events[0].QuantityGood)

	got, err := repo.GetSession(context.Background(), session.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, got.TotalGood)
}

func TestCreateSession_ConcurrentStormKeepsOneActivePerWorker(t *testing.T) {
	repo := newTestRepo(t)
	f := seedFloor(t, repo)
	now := time.Now().UTC()

	stations := []string{f.station1, f.station2, f.station3}

	const storm = 12
	var wg sync.WaitGroup
	errs := make([]error, storm)
	for i := 0; i < storm; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = repo.CreateSession(context.Background(), ports.NewSessionParams{
				WorkerID:   f.worker1,
				StationID:  stations[i%len(stations)],
				InstanceID: fmt.Sprintf("tab-%d", i),
				Grace:      testGrace,
				At:         now.Add(time.Duration(i) * time.Millisecond),
			})
		}(i)
	}
	wg.Wait()

	for i, err := range errs {
		assert.NoError(t, err, "create %d", i)
	}

	// Every transaction closes the worker's priors before inserting, so
	// whatever the commit order, exactly one active session survives.
	active, err := repo.ListSessions(context.Background(), true)
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, f.worker1, active[0].WorkerID)

	all, err := repo.ListSessions(context.Background(), false)
	require.NoError(t, err)
	assert.Len(t, all, storm)
}

func TestEndProductionInterval_ConcurrentClosesHaveOneWinner(t *testing.T) {
	repo := newTestRepo(t)
	f := seedFloor(t, repo)
	now := time.Now().UTC()

	session := createSession(t, repo, f.worker1, f.station1, "tab-1", now)
	bindSession(t, repo, session.ID, f.itemID)
	event := startProduction(t, repo, f, session.ID, now)

	const attempts = 4
	var wg sync.WaitGroup
	errs := make([]error, attempts)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = repo.EndProductionInterval(context.Background(), ports.EndProductionParams{
				SessionID:              session.ID,
				StatusEventID:          event.ID,
				QuantityGood:           10,
				NextStatusDefinitionID: f.setup,
				At:                     now.Add(time.Minute),
			})
		}(i)
	}
	wg.Wait()

	wins := 0
	for _, err := range errs {
		if err == nil {
			wins++
			continue
		}
		assert.ErrorIs(t, err, domain.ErrStatusEventAlreadyEnded)
	}
	assert.Equal(t, 1, wins)

	// Quantities and WIP applied exactly once, one open follow-up event.
	got, err := repo.GetSession(context.Background(), session.ID)
	require.NoError(t, err)
	assert.Equal(t, 10, got.TotalGood)
	assert.Equal(t, 10, balanceAt(t, repo, f.itemID, f.station1))

	events, err := repo.ListStatusEvents(context.Background(), session.ID)
	require.NoError(t, err)
	open := 0
	for i := range events {
		if events[i].IsOpen() {
			open++
		}
	}
	assert.Equal(t, 1, open)
	assert.Len(t, events, 2)
}

func TestFirstProductApprovalGate(t *testing.T) {
	repo := newTestRepo(t)
	f := seedFloor(t, repo)
	now := time.Now().UTC()

	require.NoError(t, repo.db.Model(&JobItemModel{}).
		Where("id = ?", f.itemID).
		Update("requires_first_product_approval", true).Error)

	session := createSession(t, repo, f.worker1, f.station1, "tab-1", now)
	bindSession(t, repo, session.ID, f.itemID)
	startProduction(t, repo, f, session.ID, now)

	_, err := repo.UpdateQuantities(context.Background(), session.ID, 3, 0, now.Add(time.Minute))
	assert.ErrorIs(t, err, domain.ErrFirstProductNotApproved)

	approvedAt := now
	require.NoError(t, repo.db.Model(&JobItemModel{}).
		Where("id = ?", f.itemID).
		Update("first_product_approved_at", approvedAt).Error)

	_, err = repo.UpdateQuantities(context.Background(), session.ID, 3, 0, now.Add(2*time.Minute))
	require.NoError(t, err)
	assert.Equal(t, 3, balanceAt(t, repo, f.itemID, f.station1))
}

func TestSweep_ForceClosesIdleSessions(t *testing.T) {
	repo := newTestRepo(t)
	f := seedFloor(t, repo)
	now := time.Now().UTC()

	session := createSession(t, repo, f.worker1, f.station1, "tab-1", now.Add(-time.Hour))
	require.NoError(t, repo.db.Model(&SessionModel{}).
		Where("id = ?", session.ID).
		Update("last_seen_at", now.Add(-time.Hour)).Error)
	startProduction(t, repo, f, session.ID, now.Add(-time.Hour))

	fresh := createSession(t, repo, f.worker2, f.station2, "tab-2", now)

	idle, err := repo.ListIdleSessions(context.Background(), now.Add(-testGrace))
	require.NoError(t, err)
	require.Len(t, idle, 1)
	assert.Equal(t, session.ID, idle[0].ID)

	ok, err := repo.ForceClose(context.Background(), session.ID, now)
	require.NoError(t, err)
	assert.True(t, ok)

	got, err := repo.GetSession(context.Background(), session.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.SessionCompleted, got.Status)
	require.NotNil(t, got.ForcedClosedAt)
	require.NotNil(t, got.EndedAt)

	// The production event is closed and a terminal stopped marker
	// records why.
	events, err := repo.ListStatusEvents(context.Background(), session.ID)
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.NotNil(t, events[0].EndedAt)
	terminal := events[1]
	assert.Equal(t, domain.GraceWindowExpiredNote, terminal.Note)
	assert.NotNil(t, terminal.EndedAt)

	def, err := repo.GetStatusDefinition(context.Background(), terminal.StatusDefinitionID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusStopped, def.Code)

	// Idempotent: a second round is a no-op.
	ok, err = repo.ForceClose(context.Background(), session.ID, now.Add(time.Minute))
	require.NoError(t, err)
	assert.False(t, ok)

	idle, err = repo.ListIdleSessions(context.Background(), now.Add(-testGrace))
	require.NoError(t, err)
	assert.Empty(t, idle)

	// The fresh session was never touched.
	gotFresh, err := repo.GetSession(context.Background(), fresh.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.SessionActive, gotFresh.Status)
}

func TestStationOccupancy(t *testing.T) {
	repo := newTestRepo(t)
	f := seedFloor(t, repo)
	now := time.Now().UTC()

	occ, err := repo.StationOccupancy(context.Background(), f.station1, now.Add(-testGrace))
	require.NoError(t, err)
	assert.False(t, occ.Occupied)

	session := createSession(t, repo, f.worker1, f.station1, "tab-1", now)

	occ, err = repo.StationOccupancy(context.Background(), f.station1, now.Add(-testGrace))
	require.NoError(t, err)
	assert.True(t, occ.Occupied)
	assert.Equal(t, session.ID, occ.SessionID)
	assert.Equal(t, f.worker1, occ.WorkerID)
	assert.Equal(t, "W-1", occ.WorkerCode)

	// A stale heartbeat frees the station.
	require.NoError(t, repo.db.Model(&SessionModel{}).
		Where("id = ?", session.ID).
		Update("last_seen_at", now.Add(-time.Hour)).Error)
	occ, err = repo.StationOccupancy(context.Background(), f.station1, now.Add(-testGrace))
	require.NoError(t, err)
	assert.False(t, occ.Occupied)
}

func TestSeed_IsIdempotent(t *testing.T) {
	repo := newTestRepo(t)

	require.NoError(t, repo.Seed(context.Background(), true))
	require.NoError(t, repo.Seed(context.Background(), true))

	var defs int64
	require.NoError(t, repo.db.Model(&StatusDefinitionModel{}).Count(&defs).Error)
	assert.Equal(t, int64(5), defs)

	var stations int64
	require.NoError(t, repo.db.Model(&StationModel{}).Count(&stations).Error)
	assert.Equal(t, int64(3), stations)

	def, err := repo.GetStatusDefinitionByCode(context.Background(), domain.StatusProduction)
	require.NoError(t, err)
	assert.True(t, def.IsProduction)
}
