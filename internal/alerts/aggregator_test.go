package alerts

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jobdeck/jobdeck/internal/model"
	"github.com/jobdeck/jobdeck/internal/portal"
	"github.com/jobdeck/jobdeck/internal/session"
)

// fakeFeed is an in-memory feedClient. MarkNotificationRead flips the
// read flag in place so a reconciling LoadAll observes the new state.
type fakeFeed struct {
	mu      sync.Mutex
	jobs    []model.Notification
	apps    []model.Notification
	jobsErr error
	appsErr error
	markErr map[string]error
	marked  []string

	// When set, the next JobNotifications call signals jobsStarted and
	// then blocks until jobsRelease is closed.
	jobsStarted chan struct{}
	jobsRelease chan struct{}
}

func (f *fakeFeed) JobNotifications(
	_ context.Context,
) ([]model.Notification, error) {
	f.mu.Lock()
	started, release := f.jobsStarted, f.jobsRelease
	f.jobsStarted, f.jobsRelease = nil, nil
	jobs := append([]model.Notification(nil), f.jobs...)
	err := f.jobsErr
	f.mu.Unlock()

	if started != nil {
		close(started)
		<-release
	}
	return jobs, err
}

func (f *fakeFeed) ApplicationNotifications(
	_ context.Context,
) ([]model.Notification, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]model.Notification(nil), f.apps...), f.appsErr
}

func (f *fakeFeed) MarkNotificationRead(
	_ context.Context, kind model.NotificationKind, id string,
) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.markErr[id]; err != nil {
		return err
	}
	f.marked = append(f.marked, string(kind)+":"+id)

	feed := f.jobs
	if kind == model.KindAppStatus {
		feed = f.apps
	}
	for i := range feed {
		if feed[i].ID == id {
			feed[i].Read = true
		}
	}
	return nil
}

// staticTokens is a TokenStore that always holds the same token.
type staticTokens struct{}

func (staticTokens) Get() (string, error) { return "test-token", nil }
func (staticTokens) Set(string) error     { return nil }
func (staticTokens) Delete() error        { return nil }

// newTestSession returns an authenticated session manager so
// SetUnreadCount is not ignored.
func newTestSession(t *testing.T) *session.Manager {
	t.Helper()
	client := portal.NewClient("http://portal.invalid")
	sess := session.NewManager(client, staticTokens{})
	require.True(t, sess.Restore())
	return sess
}

func notif(
	kind model.NotificationKind, id string, read bool, age time.Duration,
) model.Notification {
	return model.Notification{
		ID:        id,
		Kind:      kind,
		Read:      read,
		CreatedAt: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC).Add(-age),
	}
}

func TestLoadAllAggregatesBothFeeds(t *testing.T) {
	feed := &fakeFeed{
		jobs: []model.Notification{
			notif(model.KindJobMatch, "j1", false, time.Hour),
			notif(model.KindJobMatch, "j2", true, 3*time.Hour),
		},
		apps: []model.Notification{
			notif(model.KindAppStatus, "a1", false, 2*time.Hour),
		},
	}
	sess := newTestSession(t)
	agg := New(feed, sess, nil)

	result, err := agg.LoadAll(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 2, result.UnreadCount)
	assert.Equal(t, 2, sess.Snapshot().UnreadCount)
	assert.Equal(t, result, agg.Last())

	merged := result.Merged()
	require.Len(t, merged, 3)
	assert.Equal(t, "j1", merged[0].ID)
	assert.Equal(t, "a1", merged[1].ID)
	assert.Equal(t, "j2", merged[2].ID)
}

func TestLoadAllFailsFast(t *testing.T) {
	feed := &fakeFeed{
		jobs: []model.Notification{
			notif(model.KindJobMatch, "j1", false, time.Hour),
		},
	}
	sess := newTestSession(t)
	agg := New(feed, sess, nil)

	_, err := agg.LoadAll(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, sess.Snapshot().UnreadCount)

	feed.mu.Lock()
	feed.appsErr = errors.New("boom")
	feed.jobs = append(feed.jobs,
		notif(model.KindJobMatch, "j2", false, time.Minute))
	feed.mu.Unlock()

	_, err = agg.LoadAll(context.Background())
	require.Error(t, err)

	// Nothing committed: count and last result keep their previous values.
	assert.Equal(t, 1, sess.Snapshot().UnreadCount)
	assert.Equal(t, 1, agg.Last().UnreadCount)
}

func TestLoadAllDiscardsStaleResult(t *testing.T) {
	feed := &fakeFeed{
		jobs: []model.Notification{
			notif(model.KindJobMatch, "j1", false, time.Hour),
		},
	}
	sess := newTestSession(t)
	agg := New(feed, sess, nil)

	started := make(chan struct{})
	release := make(chan struct{})
	feed.mu.Lock()
	feed.jobsStarted, feed.jobsRelease = started, release
	feed.mu.Unlock()

	slowErr := make(chan error, 1)
	go func() {
		_, err := agg.LoadAll(context.Background())
		slowErr <- err
	}()
	<-started

	// A newer load completes while the first is still in flight.
	feed.mu.Lock()
	feed.jobs = append(feed.jobs,
		notif(model.KindJobMatch, "j2", false, time.Minute))
	feed.mu.Unlock()

	fresh, err := agg.LoadAll(context.Background())
	require.NoError(t, err)
	require.Equal(t, 2, fresh.UnreadCount)

	close(release)
	assert.ErrorIs(t, <-slowErr, ErrStale)

	// The stale result never overwrote the fresher one.
	assert.Equal(t, fresh, agg.Last())
	assert.Equal(t, 2, sess.Snapshot().UnreadCount)
}

func TestMarkReadDecrementsAndReconciles(t *testing.T) {
	feed := &fakeFeed{
		jobs: []model.Notification{
			notif(model.KindJobMatch, "j1", false, time.Hour),
			notif(model.KindJobMatch, "j2", false, 2*time.Hour),
		},
	}
	sess := newTestSession(t)
	agg := New(feed, sess, nil)

	_, err := agg.LoadAll(context.Background())
	require.NoError(t, err)

	err = agg.MarkRead(context.Background(), model.KindJobMatch, "j1")
	require.NoError(t, err)

	assert.Equal(t, []string{"job:j1"}, feed.marked)
	assert.Equal(t, 1, sess.Snapshot().UnreadCount)
	assert.Equal(t, 1, agg.Last().UnreadCount)
}

func TestMarkReadAlreadyReadIsNoOp(t *testing.T) {
	feed := &fakeFeed{
		jobs: []model.Notification{
			notif(model.KindJobMatch, "j1", true, time.Hour),
		},
	}
	sess := newTestSession(t)
	agg := New(feed, sess, nil)

	_, err := agg.LoadAll(context.Background())
	require.NoError(t, err)

	err = agg.MarkRead(context.Background(), model.KindJobMatch, "j1")
	require.NoError(t, err)

	assert.Empty(t, feed.marked)
}

func TestMarkReadRollsBackOnFailure(t *testing.T) {
	feed := &fakeFeed{
		jobs: []model.Notification{
			notif(model.KindJobMatch, "j1", false, time.Hour),
		},
		markErr: map[string]error{"j1": errors.New("boom")},
	}
	sess := newTestSession(t)
	agg := New(feed, sess, nil)

	_, err := agg.LoadAll(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, sess.Snapshot().UnreadCount)

	err = agg.MarkRead(context.Background(), model.KindJobMatch, "j1")
	require.Error(t, err)

	// The optimistic decrement was undone.
	assert.Equal(t, 1, sess.Snapshot().UnreadCount)
	assert.Equal(t, 1, agg.Last().UnreadCount)
	assert.False(t, agg.Last().JobNotifications[0].Read)
}

func TestMarkReadNeverMutatesHandedOutResults(t *testing.T) {
	feed := &fakeFeed{
		jobs: []model.Notification{
			notif(model.KindJobMatch, "j1", false, time.Hour),
			notif(model.KindJobMatch, "j2", false, 2*time.Hour),
		},
	}
	sess := newTestSession(t)
	agg := New(feed, sess, nil)

	before, err := agg.LoadAll(context.Background())
	require.NoError(t, err)
	require.Equal(t, 2, before.UnreadCount)

	err = agg.MarkRead(context.Background(), model.KindJobMatch, "j1")
	require.NoError(t, err)

	// The result handed out earlier is frozen; only the freshly
	// committed one reflects the mark-read.
	assert.False(t, before.JobNotifications[0].Read)
	assert.Equal(t, 2, before.UnreadCount)
	assert.True(t, agg.Last().JobNotifications[0].Read)
	assert.Equal(t, 1, agg.Last().UnreadCount)
}

func TestMarkReadConcurrentWithReaders(t *testing.T) {
	feed := &fakeFeed{
		jobs: []model.Notification{
			notif(model.KindJobMatch, "j1", false, time.Hour),
			notif(model.KindJobMatch, "j2", false, 2*time.Hour),
		},
		markErr: map[string]error{"j1": errors.New("boom")},
	}
	sess := newTestSession(t)
	agg := New(feed, sess, nil)

	_, err := agg.LoadAll(context.Background())
	require.NoError(t, err)

	// Readers walk Last().Merged() while mark-read flips j1 back and
	// forth (optimistic set, then rollback on the failing call).
	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 500; i++ {
			if r := agg.Last(); r != nil {
				for _, n := range r.Merged() {
					_ = n.Read
				}
			}
		}
	}()

	for i := 0; i < 500; i++ {
		_ = agg.MarkRead(context.Background(), model.KindJobMatch, "j1")
	}
	<-done

	// Every rollback restored the count.
	assert.Equal(t, 2, agg.Last().UnreadCount)
	assert.Equal(t, 2, sess.Snapshot().UnreadCount)
}

func TestMarkAllReadContinuesPastFailures(t *testing.T) {
	feed := &fakeFeed{
		jobs: []model.Notification{
			notif(model.KindJobMatch, "j1", false, 1*time.Hour),
			notif(model.KindJobMatch, "j2", false, 2*time.Hour),
			notif(model.KindJobMatch, "j3", false, 3*time.Hour),
			notif(model.KindJobMatch, "j4", false, 4*time.Hour),
			notif(model.KindJobMatch, "j5", false, 5*time.Hour),
		},
		markErr: map[string]error{"j3": errors.New("boom")},
	}
	sess := newTestSession(t)
	agg := New(feed, sess, nil)

	_, err := agg.LoadAll(context.Background())
	require.NoError(t, err)

	err = agg.MarkAllRead(context.Background(), model.KindJobMatch)
	require.EqualError(t, err, "1 of 5 mark-read calls failed")

	// The other four were still marked, and the reconcile reflects the
	// one remaining unread item.
	assert.Len(t, feed.marked, 4)
	assert.Equal(t, 1, sess.Snapshot().UnreadCount)
}

func TestMarkAllReadOnlyTouchesOneKind(t *testing.T) {
	feed := &fakeFeed{
		jobs: []model.Notification{
			notif(model.KindJobMatch, "j1", false, time.Hour),
		},
		apps: []model.Notification{
			notif(model.KindAppStatus, "a1", false, time.Hour),
		},
	}
	sess := newTestSession(t)
	agg := New(feed, sess, nil)

	_, err := agg.LoadAll(context.Background())
	require.NoError(t, err)

	err = agg.MarkAllRead(context.Background(), model.KindJobMatch)
	require.NoError(t, err)

	assert.Equal(t, []string{"job:j1"}, feed.marked)
	assert.Equal(t, 1, sess.Snapshot().UnreadCount)
}
