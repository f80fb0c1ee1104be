// Package testguard gates a candidate from starting more than one timed
// skill-test attempt per application, and deters trivial cheating while
// an attempt is on screen.
//
// The lock is an optimistic UI hint. The backend owns the authoritative
// test timer and submission state; whenever the server's application
// state disagrees with the local lock, the server wins.
package testguard

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"github.com/jobdeck/jobdeck/internal/model"
	"github.com/jobdeck/jobdeck/internal/store"
)

// DefaultTestDuration is the expiry recorded on a new lock when the
// server does not supply a duration.
const DefaultTestDuration = 30 * time.Minute

// ErrAlreadyLocked is returned by StartTest when an attempt has already
// been started for the application. The call is a no-op; the caller
// should have disabled the trigger.
var ErrAlreadyLocked = errors.New("test already started for this application")

// Guard tracks one test lock per application id. Locks persist in the
// local store; a persistence failure degrades to an in-memory overlay so
// the current session still sees the lock.
type Guard struct {
	store store.Store

	mu      sync.Mutex
	overlay map[string]model.TestLock

	now func() time.Time
}

// New creates a Guard backed by the given store.
func New(st store.Store) *Guard {
	return &Guard{
		store:   st,
		overlay: make(map[string]model.TestLock),
		now:     time.Now,
	}
}

// IsLocked reports whether a test attempt has been started for the
// application on this client. Deliberately does not compare ExpiresAt to
// the current time: the lock stays until the server reports the test
// submitted (see ClearLock), since only the server knows whether the
// attempt concluded.
func (g *Guard) IsLocked(ctx context.Context, applicationID string) bool {
	g.mu.Lock()
	_, ok := g.overlay[applicationID]
	g.mu.Unlock()
	if ok {
		return true
	}

	lock, err := g.store.GetTestLock(ctx, applicationID)
	if err != nil {
		log.Printf("reading test lock for %s: %v", applicationID, err)
		return false
	}
	return lock != nil
}

// Lock returns the lock record for an application, if any, preferring
// the in-memory overlay. Used by the test view for its countdown.
func (g *Guard) Lock(
	ctx context.Context, applicationID string,
) *model.TestLock {
	g.mu.Lock()
	if lock, ok := g.overlay[applicationID]; ok {
		g.mu.Unlock()
		return &lock
	}
	g.mu.Unlock()

	lock, err := g.store.GetTestLock(ctx, applicationID)
	if err != nil {
		log.Printf("reading test lock for %s: %v", applicationID, err)
		return nil
	}
	return lock
}

// StartTest creates the lock for an application and returns it so the
// caller can navigate to the test screen. When an attempt already
// exists it is a no-op returning ErrAlreadyLocked.
//
// A store write failure is logged and swallowed: the in-memory overlay
// still reports the lock for this session, and the user proceeds
// regardless since the authoritative timer lives server-side.
func (g *Guard) StartTest(
	ctx context.Context, applicationID string, duration time.Duration,
) (*model.TestLock, error) {
	if g.IsLocked(ctx, applicationID) {
		return nil, ErrAlreadyLocked
	}

	if duration <= 0 {
		duration = DefaultTestDuration
	}

	now := g.now()
	lock := model.TestLock{
		ApplicationID: applicationID,
		ExpiresAt:     now.Add(duration),
		CreatedAt:     now,
	}

	g.mu.Lock()
	g.overlay[applicationID] = lock
	g.mu.Unlock()

	if err := g.store.CreateTestLock(ctx, lock); err != nil {
		log.Printf(
			"persisting test lock for %s: %v (kept in memory only)",
			applicationID, err,
		)
	}

	return &lock, nil
}

// ClearLock removes the local lock. Called when the server reports the
// test submitted; the server state is authoritative over the hint.
func (g *Guard) ClearLock(ctx context.Context, applicationID string) {
	g.mu.Lock()
	delete(g.overlay, applicationID)
	g.mu.Unlock()

	if err := g.store.DeleteTestLock(ctx, applicationID); err != nil {
		log.Printf("clearing test lock for %s: %v", applicationID, err)
	}
}

// Remaining returns the time left until the lock's recorded expiry, or 0
// when no lock exists or it has already passed.
func (g *Guard) Remaining(
	ctx context.Context, applicationID string,
) time.Duration {
	lock := g.Lock(ctx, applicationID)
	if lock == nil {
		return 0
	}

	remaining := lock.ExpiresAt.Sub(g.now())
	if remaining < 0 {
		return 0
	}
	return remaining
}
