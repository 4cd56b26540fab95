package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"floorline/internal/domain"
)

type fakeSweepStore struct {
	mu      sync.Mutex
	idle    []domain.Session
	listErr error
	failIDs map[string]error
	closed  []string
}

func (f *fakeSweepStore) ListIdleSessions(ctx context.Context, cutoff time.Time) ([]domain.Session, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.idle, nil
}

func (f *fakeSweepStore) ForceClose(ctx context.Context, sessionID string, at time.Time) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err, ok := f.failIDs[sessionID]; ok {
		return false, err
	}
	f.closed = append(f.closed, sessionID)
	return true, nil
}

func idleSession(id string) domain.Session {
	return domain.Session{
		ID:         id,
		WorkerID:   "w-" + id,
		StationID:  "s-" + id,
		Status:     domain.SessionActive,
		StartedAt:  time.Now().UTC().Add(-time.Hour),
		LastSeenAt: time.Now().UTC().Add(-time.Hour),
	}
}

func TestSweepOnce_ClosesAllIdleSessions(t *testing.T) {
	store := &fakeSweepStore{
		idle: []domain.Session{idleSession("a"), idleSession("b"), idleSession("c")},
	}
	sweeper := NewSweeper(store, time.Second, 5*time.Minute)

	report := sweeper.SweepOnce(context.Background())

	assert.Equal(t, 3, report.Scanned)
	assert.Equal(t, 3, report.Closed)
	assert.Empty(t, report.Errors)
	assert.ElementsMatch(t, []string{"a", "b", "c"}, store.closed)
}

func TestSweepOnce_IsolatesFailures(t *testing.T) {
	store := &fakeSweepStore{
		idle:    []domain.Session{idleSession("a"), idleSession("b"), idleSession("c")},
		failIDs: map[string]error{"b": errors.New("db locked")},
	}
	sweeper := NewSweeper(store, time.Second, 5*time.Minute)

	report := sweeper.SweepOnce(context.Background())

	assert.Equal(t, 3, report.Scanned)
	assert.Equal(t, 2, report.Closed)
	require.Len(t, report.Errors, 1)
	assert.ElementsMatch(t, []string{"a", "c"}, store.closed)
}

func TestSweepOnce_ListFailure(t *testing.T) {
	store := &fakeSweepStore{listErr: errors.New("db gone")}
	sweeper := NewSweeper(store, time.Second, 5*time.Minute)

	report := sweeper.SweepOnce(context.Background())

	assert.Equal(t, 0, report.Scanned)
	assert.Equal(t, 0, report.Closed)
	require.Len(t, report.Errors, 1)
}

func TestSweepOnce_EmptyRoundIsQuiet(t *testing.T) {
	store := &fakeSweepStore{}
	sweeper := NewSweeper(store, time.Second, 5*time.Minute)

	report := sweeper.SweepOnce(context.Background())

	assert.Equal(t, 0, report.Scanned)
	assert.Equal(t, 0, report.Closed)
	assert.Empty(t, report.Errors)
}

func TestRun_StopsOnContextCancel(t *testing.T) {
	store := &fakeSweepStore{}
	sweeper := NewSweeper(store, 10*time.Millisecond, 5*time.Minute)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		sweeper.Run(ctx)
		close(done)
	}()

	time.Sleep(30 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("sweeper did not stop on context cancel")
	}
}
