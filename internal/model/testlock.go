package model

import "time"

// TestLock marks that a timed skill-test attempt has been started for an
// application on this client. Its presence is the "locked" signal; there
// is no separate boolean. A lock is written once and never updated.
//
// The lock is an optimistic UI hint only: the backend tracks the
// authoritative test expiry, and the server-side application state always
// wins over this record.
type TestLock struct {
	// ApplicationID references the application the test belongs to.
	ApplicationID string `json:"application_id"`

	// ExpiresAt is the wall-clock deadline recorded at creation
	// (start time + test duration). Shown as a countdown in the test
	// view; not consulted to unlock.
	ExpiresAt time.Time `json:"expires_at"`

	// CreatedAt is when the attempt was started.
	CreatedAt time.Time `json:"created_at"`
}
