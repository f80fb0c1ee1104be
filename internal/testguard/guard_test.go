package testguard

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jobdeck/jobdeck/internal/model"
	"github.com/jobdeck/jobdeck/internal/store"
	"github.com/jobdeck/jobdeck/tests/testutil"
)

// failingStore wraps a real store but refuses to persist locks.
type failingStore struct {
	store.Store
}

func (failingStore) CreateTestLock(context.Context, model.TestLock) error {
	return errors.New("disk full")
}

func TestStartTestCreatesLock(t *testing.T) {
	st := testutil.NewTestStore(t)
	base := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

	g := New(st)
	g.now = func() time.Time { return base }

	lock, err := g.StartTest(context.Background(), "app-1", 45*time.Minute)
	require.NoError(t, err)
	assert.Equal(t, "app-1", lock.ApplicationID)
	assert.Equal(t, base.Add(45*time.Minute), lock.ExpiresAt)

	assert.True(t, g.IsLocked(context.Background(), "app-1"))
	assert.False(t, g.IsLocked(context.Background(), "app-2"))
}

func TestStartTestDefaultsDuration(t *testing.T) {
	st := testutil.NewTestStore(t)
	base := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

	g := New(st)
	g.now = func() time.Time { return base }

	lock, err := g.StartTest(context.Background(), "app-1", 0)
	require.NoError(t, err)
	assert.Equal(t, base.Add(DefaultTestDuration), lock.ExpiresAt)
}

func TestStartTestSecondAttemptBlocked(t *testing.T) {
	st := testutil.NewTestStore(t)
	g := New(st)

	_, err := g.StartTest(context.Background(), "app-1", time.Minute)
	require.NoError(t, err)

	_, err = g.StartTest(context.Background(), "app-1", time.Minute)
	assert.ErrorIs(t, err, ErrAlreadyLocked)
}

func TestLockSurvivesRestart(t *testing.T) {
	st := testutil.NewTestStore(t)

	g := New(st)
	_, err := g.StartTest(context.Background(), "app-1", time.Minute)
	require.NoError(t, err)

	// A fresh guard over the same store still sees the lock.
	g2 := New(st)
	assert.True(t, g2.IsLocked(context.Background(), "app-1"))
}

func TestStartTestStoreFailureKeepsOverlay(t *testing.T) {
	st := testutil.NewTestStore(t)
	g := New(failingStore{Store: st})

	lock, err := g.StartTest(context.Background(), "app-1", time.Minute)
	require.NoError(t, err)
	require.NotNil(t, lock)

	// The write failed but the in-memory overlay still reports the lock.
	assert.True(t, g.IsLocked(context.Background(), "app-1"))

	_, err = g.StartTest(context.Background(), "app-1", time.Minute)
	assert.ErrorIs(t, err, ErrAlreadyLocked)
}

func TestClearLock(t *testing.T) {
	st := testutil.NewTestStore(t)
	g := New(st)

	_, err := g.StartTest(context.Background(), "app-1", time.Minute)
	require.NoError(t, err)

	g.ClearLock(context.Background(), "app-1")

	assert.False(t, g.IsLocked(context.Background(), "app-1"))
	assert.Nil(t, g.Lock(context.Background(), "app-1"))
}

func TestLockNeverExpiresLocally(t *testing.T) {
	st := testutil.NewTestStore(t)
	base := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

	g := New(st)
	g.now = func() time.Time { return base }

	_, err := g.StartTest(context.Background(), "app-1", 30*time.Minute)
	require.NoError(t, err)

	// Long past the recorded expiry the application stays locked; only
	// ClearLock (server-reported submission) releases it.
	g.now = func() time.Time { return base.Add(2 * time.Hour) }
	assert.True(t, g.IsLocked(context.Background(), "app-1"))
	assert.Equal(t, time.Duration(0), g.Remaining(context.Background(), "app-1"))
}

func TestRemaining(t *testing.T) {
	st := testutil.NewTestStore(t)
	base := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

	g := New(st)
	g.now = func() time.Time { return base }

	_, err := g.StartTest(context.Background(), "app-1", 30*time.Minute)
	require.NoError(t, err)

	tests := []struct {
		name string
		at   time.Time
		app  string
		want time.Duration
	}{
		{name: "just started", at: base, app: "app-1", want: 30 * time.Minute},
		{name: "mid test", at: base.Add(10 * time.Minute), app: "app-1", want: 20 * time.Minute},
		{name: "past expiry", at: base.Add(31 * time.Minute), app: "app-1", want: 0},
		{name: "no lock", at: base, app: "app-9", want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g.now = func() time.Time { return tt.at }
			assert.Equal(t, tt.want, g.Remaining(context.Background(), tt.app))
		})
	}
}

func TestBlockedChord(t *testing.T) {
	tests := []struct {
		chord   string
		blocked bool
	}{
		{chord: "ctrl+c", blocked: true},
		{chord: "ctrl+v", blocked: true},
		{chord: "ctrl+a", blocked: true},
		{chord: "shift+insert", blocked: true},
		{chord: "ctrl+shift+c", blocked: true},
		{chord: "j", blocked: false},
		{chord: "enter", blocked: false},
		{chord: "ctrl+d", blocked: false},
	}

	for _, tt := range tests {
		t.Run(tt.chord, func(t *testing.T) {
			assert.Equal(t, tt.blocked, BlockedChord(tt.chord))
		})
	}
}
