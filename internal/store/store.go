package store

import (
	"context"

	"github.com/jobdeck/jobdeck/internal/model"
)

// Store defines the local persistence interface: the offline notification
// cache, client-side test locks, email job alerts, and saved jobs.
type Store interface {
	// === Notification cache ===

	// ReplaceNotifications swaps the cached feed of the given kind for a
	// freshly fetched one. Only called after a fully successful load so
	// the cache never holds a partial aggregate.
	ReplaceNotifications(
		ctx context.Context,
		kind model.NotificationKind,
		ns []model.Notification,
	) error
	GetNotifications(ctx context.Context) ([]model.Notification, error)
	MarkNotificationRead(
		ctx context.Context, kind model.NotificationKind, id string,
	) error

	// === Test locks ===

	CreateTestLock(ctx context.Context, lock model.TestLock) error
	// GetTestLock returns nil (and no error) when no lock exists.
	GetTestLock(
		ctx context.Context, applicationID string,
	) (*model.TestLock, error)
	DeleteTestLock(ctx context.Context, applicationID string) error

	// === Email job alerts ===

	// UpsertEmailAlerts inserts alerts not seen before (keyed by digest
	// message id + link) and reports how many were new.
	UpsertEmailAlerts(
		ctx context.Context, alerts []model.EmailAlert,
	) (int, error)
	GetEmailAlerts(ctx context.Context) ([]model.EmailAlert, error)
	MarkEmailAlertRead(ctx context.Context, id string) error

	// === Saved jobs ===

	SaveJob(ctx context.Context, job model.Job) error
	UnsaveJob(ctx context.Context, jobID string) error
	SavedJobIDs(ctx context.Context) (map[string]bool, error)
}
