package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jobdeck/jobdeck/internal/model"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()

	s, err := NewSQLiteStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func cachedNotif(
	kind model.NotificationKind, id string, read bool,
) model.Notification {
	return model.Notification{
		ID:        id,
		Kind:      kind,
		Read:      read,
		CreatedAt: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
	}
}

func TestReplaceNotificationsSwapsOneKindOnly(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	err := s.ReplaceNotifications(ctx, model.KindJobMatch,
		[]model.Notification{
			cachedNotif(model.KindJobMatch, "j1", false),
			cachedNotif(model.KindJobMatch, "j2", true),
		})
	require.NoError(t, err)

	err = s.ReplaceNotifications(ctx, model.KindAppStatus,
		[]model.Notification{
			cachedNotif(model.KindAppStatus, "a1", false),
		})
	require.NoError(t, err)

	// Replacing the job feed leaves the application feed untouched.
	err = s.ReplaceNotifications(ctx, model.KindJobMatch,
		[]model.Notification{
			cachedNotif(model.KindJobMatch, "j3", false),
		})
	require.NoError(t, err)

	ns, err := s.GetNotifications(ctx)
	require.NoError(t, err)
	require.Len(t, ns, 2)

	ids := make(map[string]model.NotificationKind, len(ns))
	for _, n := range ns {
		ids[n.ID] = n.Kind
	}
	assert.Equal(t, model.KindJobMatch, ids["j3"])
	assert.Equal(t, model.KindAppStatus, ids["a1"])
}

func TestMarkNotificationRead(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	err := s.ReplaceNotifications(ctx, model.KindJobMatch,
		[]model.Notification{
			cachedNotif(model.KindJobMatch, "j1", false),
		})
	require.NoError(t, err)

	require.NoError(
		t, s.MarkNotificationRead(ctx, model.KindJobMatch, "j1"),
	)

	ns, err := s.GetNotifications(ctx)
	require.NoError(t, err)
	require.Len(t, ns, 1)
	assert.True(t, ns[0].Read)
}

func TestTestLockWriteOnce(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	lock := model.TestLock{
		ApplicationID: "app-1",
		ExpiresAt:     time.Now().Add(30 * time.Minute),
		CreatedAt:     time.Now(),
	}
	require.NoError(t, s.CreateTestLock(ctx, lock))

	// Second insert for the same application hits the primary key.
	err := s.CreateTestLock(ctx, lock)
	assert.Error(t, err)

	got, err := s.GetTestLock(ctx, "app-1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "app-1", got.ApplicationID)
	assert.WithinDuration(t, lock.ExpiresAt, got.ExpiresAt, time.Second)
}

func TestGetTestLockMissing(t *testing.T) {
	s := newTestStore(t)

	got, err := s.GetTestLock(context.Background(), "app-404")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestDeleteTestLock(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.CreateTestLock(ctx, model.TestLock{
		ApplicationID: "app-1",
		ExpiresAt:     time.Now().Add(30 * time.Minute),
	}))
	require.NoError(t, s.DeleteTestLock(ctx, "app-1"))

	got, err := s.GetTestLock(ctx, "app-1")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestUpsertEmailAlertsDeduplicates(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	alerts := []model.EmailAlert{
		{
			MessageID:  "<digest-1@portal>",
			Title:      "Go Engineer",
			Company:    "Acme",
			Link:       "https://portal.example.com/jobs/1",
			ReceivedAt: time.Now(),
		},
		{
			MessageID:  "<digest-1@portal>",
			Title:      "Backend Engineer",
			Company:    "Initech",
			Link:       "https://portal.example.com/jobs/2",
			ReceivedAt: time.Now(),
		},
	}

	inserted, err := s.UpsertEmailAlerts(ctx, alerts)
	require.NoError(t, err)
	assert.Equal(t, 2, inserted)

	// A rescan of the same digest yields nothing new.
	inserted, err = s.UpsertEmailAlerts(ctx, alerts)
	require.NoError(t, err)
	assert.Equal(t, 0, inserted)

	stored, err := s.GetEmailAlerts(ctx)
	require.NoError(t, err)
	assert.Len(t, stored, 2)
}

func TestMarkEmailAlertRead(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	_, err := s.UpsertEmailAlerts(ctx, []model.EmailAlert{{
		ID:         "alert-1",
		MessageID:  "<digest-1@portal>",
		Title:      "Go Engineer",
		Link:       "https://portal.example.com/jobs/1",
		ReceivedAt: time.Now(),
	}})
	require.NoError(t, err)

	require.NoError(t, s.MarkEmailAlertRead(ctx, "alert-1"))

	stored, err := s.GetEmailAlerts(ctx)
	require.NoError(t, err)
	require.Len(t, stored, 1)
	assert.True(t, stored[0].Read)
}

func TestSavedJobs(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	job := model.Job{
		ID:       "job-1",
		Title:    "Go Engineer",
		Company:  "Acme",
		PostedAt: time.Now(),
	}

	require.NoError(t, s.SaveJob(ctx, job))
	// Re-saving is idempotent.
	require.NoError(t, s.SaveJob(ctx, job))

	saved, err := s.SavedJobIDs(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[string]bool{"job-1": true}, saved)

	require.NoError(t, s.UnsaveJob(ctx, "job-1"))

	saved, err = s.SavedJobIDs(ctx)
	require.NoError(t, err)
	assert.Empty(t, saved)
}
