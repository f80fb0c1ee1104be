// Package alerts merges the portal's two notification feeds (job
// matches, application status) into a single unread count and a combined
// read/unread view.
package alerts

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"

	"github.com/jobdeck/jobdeck/internal/model"
	"github.com/jobdeck/jobdeck/internal/session"
	"github.com/jobdeck/jobdeck/internal/store"
)

// ErrStale is returned by LoadAll when a newer load was issued while
// this one was in flight. The result has been discarded; callers drop it
// silently.
var ErrStale = errors.New("load superseded by a newer one")

// feedClient is the slice of the portal client the aggregator needs.
type feedClient interface {
	JobNotifications(ctx context.Context) ([]model.Notification, error)
	ApplicationNotifications(ctx context.Context) ([]model.Notification, error)
	MarkNotificationRead(
		ctx context.Context, kind model.NotificationKind, id string,
	) error
}

// Result is a fully consistent pair of feeds plus their combined unread
// count. A Result is only ever built from two successful fetches; there
// is no partial variant. Once committed a Result is immutable: readers
// hold it without a lock, so local read-flag changes replace the whole
// Result instead of writing through it.
type Result struct {
	JobNotifications []model.Notification
	AppNotifications []model.Notification
	UnreadCount      int
}

// Merged returns both feeds interleaved, newest first.
func (r *Result) Merged() []model.Notification {
	merged := make([]model.Notification, 0,
		len(r.JobNotifications)+len(r.AppNotifications))
	merged = append(merged, r.JobNotifications...)
	merged = append(merged, r.AppNotifications...)

	// Insertion sort by CreatedAt descending; feeds are small and
	// already mostly ordered.
	for i := 1; i < len(merged); i++ {
		for j := i; j > 0 && merged[j].CreatedAt.After(merged[j-1].CreatedAt); j-- {
			merged[j], merged[j-1] = merged[j-1], merged[j]
		}
	}
	return merged
}

// Aggregator fetches both feeds, computes the aggregate unread count,
// and pushes it into the session manager. Successful loads are cached in
// the local store for offline display.
type Aggregator struct {
	client  feedClient
	session *session.Manager
	store   store.Store

	mu      sync.Mutex
	seq     uint64
	applied uint64
	last    *Result
}

// New creates an Aggregator. The store may be nil when offline caching
// is not wanted (tests).
func New(
	client feedClient, sess *session.Manager, st store.Store,
) *Aggregator {
	return &Aggregator{client: client, session: sess, store: st}
}

// LoadAll fetches both feeds concurrently and joins fail-fast: if either
// fetch fails the whole load fails, nothing is committed, and the
// session's unread count keeps its previous value. On success the count
// equals unread(jobs) + unread(apps) and is written into the session.
//
// Overlapping loads are serialized by a sequence number: a load that
// finishes after a newer one was issued is discarded with ErrStale so a
// slow, stale response can never overwrite a fresher aggregate.
func (a *Aggregator) LoadAll(ctx context.Context) (*Result, error) {
	a.mu.Lock()
	a.seq++
	seq := a.seq
	a.mu.Unlock()

	var (
		wg      sync.WaitGroup
		jobs    []model.Notification
		apps    []model.Notification
		jobsErr error
		appsErr error
	)

	wg.Add(2)
	go func() {
		defer wg.Done()
		jobs, jobsErr = a.client.JobNotifications(ctx)
	}()
	go func() {
		defer wg.Done()
		apps, appsErr = a.client.ApplicationNotifications(ctx)
	}()
	wg.Wait()

	if jobsErr != nil {
		return nil, fmt.Errorf("loading notification feeds: %w", jobsErr)
	}
	if appsErr != nil {
		return nil, fmt.Errorf("loading notification feeds: %w", appsErr)
	}

	result := &Result{
		JobNotifications: jobs,
		AppNotifications: apps,
		UnreadCount:      model.CountUnread(jobs) + model.CountUnread(apps),
	}

	if err := a.commit(seq, result); err != nil {
		return nil, err
	}

	if a.store != nil {
		// Cache failures cost offline display only; never the load.
		cctx := context.WithoutCancel(ctx)
		if err := a.store.ReplaceNotifications(
			cctx, model.KindJobMatch, jobs,
		); err != nil {
			log.Printf("caching job notifications: %v", err)
		}
		if err := a.store.ReplaceNotifications(
			cctx, model.KindAppStatus, apps,
		); err != nil {
			log.Printf("caching application notifications: %v", err)
		}
	}

	return result, nil
}

// commit applies a completed load unless a newer one has already been
// applied or issued.
func (a *Aggregator) commit(seq uint64, result *Result) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if seq < a.seq || seq <= a.applied {
		return ErrStale
	}
	a.applied = seq
	a.last = result

	a.session.SetUnreadCount(result.UnreadCount)
	return nil
}

// Last returns the most recently committed result, or nil before the
// first successful load.
func (a *Aggregator) Last() *Result {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.last
}

// MarkRead marks one notification read: optimistic local decrement for
// immediate feedback, the mark-read call, then a reconciling LoadAll so
// the aggregate matches the server. Marking an already-read notification
// changes nothing and does not error.
//
// If the mark-read call fails the optimistic decrement is rolled back
// and the error returned; the caller surfaces it as a non-blocking
// notice.
func (a *Aggregator) MarkRead(
	ctx context.Context, kind model.NotificationKind, id string,
) error {
	if !a.markLocalRead(kind, id) {
		return nil
	}

	if err := a.client.MarkNotificationRead(ctx, kind, id); err != nil {
		a.rollbackLocalRead(kind, id)
		return fmt.Errorf("marking notification read: %w", err)
	}

	if a.store != nil {
		if err := a.store.MarkNotificationRead(ctx, kind, id); err != nil {
			log.Printf("updating notification cache: %v", err)
		}
	}

	if _, err := a.LoadAll(ctx); err != nil && !errors.Is(err, ErrStale) {
		// The mark-read itself succeeded; the reconcile will happen on
		// the next poll.
		log.Printf("reconciling after mark-read: %v", err)
	}
	return nil
}

// MarkAllRead marks every currently-unread notification of one kind as
// read, one request per item. Individual failures are logged and
// collected but never abort the batch; the final reconciling LoadAll is
// issued only after every item call has settled.
func (a *Aggregator) MarkAllRead(
	ctx context.Context, kind model.NotificationKind,
) error {
	unread := a.unreadOfKind(kind)

	failed := 0
	for _, n := range unread {
		if err := a.client.MarkNotificationRead(ctx, kind, n.ID); err != nil {
			failed++
			log.Printf(
				"marking %s notification %s read: %v", kind, n.ID, err,
			)
			continue
		}
		a.markLocalRead(kind, n.ID)
	}

	if _, err := a.LoadAll(ctx); err != nil && !errors.Is(err, ErrStale) {
		log.Printf("reconciling after mark-all-read: %v", err)
	}

	if failed > 0 {
		return fmt.Errorf(
			"%d of %d mark-read calls failed", failed, len(unread),
		)
	}
	return nil
}

// unreadOfKind snapshots the unread notifications of one kind from the
// last committed result.
func (a *Aggregator) unreadOfKind(
	kind model.NotificationKind,
) []model.Notification {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.last == nil {
		return nil
	}

	feed := a.last.JobNotifications
	if kind == model.KindAppStatus {
		feed = a.last.AppNotifications
	}

	var unread []model.Notification
	for _, n := range feed {
		if !n.Read {
			unread = append(unread, n)
		}
	}
	return unread
}

// markLocalRead flips the local read flag and decrements the session
// count. Returns false when the notification is unknown or already read.
func (a *Aggregator) markLocalRead(
	kind model.NotificationKind, id string,
) bool {
	return a.setLocalRead(kind, id, true)
}

// rollbackLocalRead undoes an optimistic markLocalRead after the server
// call failed.
func (a *Aggregator) rollbackLocalRead(
	kind model.NotificationKind, id string,
) {
	a.setLocalRead(kind, id, false)
}

func (a *Aggregator) setLocalRead(
	kind model.NotificationKind, id string, read bool,
) bool {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.last == nil {
		return false
	}

	feed := a.last.JobNotifications
	if kind == model.KindAppStatus {
		feed = a.last.AppNotifications
	}

	idx := -1
	for i := range feed {
		if feed[i].ID == id && feed[i].Read != read {
			idx = i
			break
		}
	}
	if idx < 0 {
		return false
	}

	// Committed Results are read concurrently without the lock, so the
	// touched feed is cloned and the Result replaced wholesale.
	updated := make([]model.Notification, len(feed))
	copy(updated, feed)
	updated[idx].Read = read

	next := &Result{
		JobNotifications: a.last.JobNotifications,
		AppNotifications: a.last.AppNotifications,
		UnreadCount:      a.last.UnreadCount,
	}
	if kind == model.KindAppStatus {
		next.AppNotifications = updated
	} else {
		next.JobNotifications = updated
	}
	if read {
		next.UnreadCount--
	} else {
		next.UnreadCount++
	}
	a.last = next

	a.session.SetUnreadCount(next.UnreadCount)
	return true
}
