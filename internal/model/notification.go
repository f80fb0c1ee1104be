package model

import "time"

// NotificationKind identifies which backend feed a notification came from.
type NotificationKind string

const (
	KindJobMatch  NotificationKind = "job"
	KindAppStatus NotificationKind = "application"
)

// Notification is the unified representation of an alert from either
// portal feed. Job-match notifications carry JobID/JobTitle; application
// status notifications carry Message and the owning application id.
type Notification struct {
	// ID is the backend-assigned identifier, unique within its kind.
	ID string `json:"id"`

	// Kind identifies the originating feed.
	Kind NotificationKind `json:"kind"`

	// Read indicates whether the user has acknowledged this notification.
	// It flips false to true exactly once and never back.
	Read bool `json:"read"`

	// CreatedAt is when the backend generated the notification. Used for
	// display ordering only.
	CreatedAt time.Time `json:"created_at"`

	// JobID and JobTitle are set for job-match notifications.
	JobID    string `json:"job_id,omitempty"`
	JobTitle string `json:"job_title,omitempty"`

	// Message and ApplicationID are set for application-status
	// notifications.
	Message       string `json:"message,omitempty"`
	ApplicationID string `json:"application_id,omitempty"`
}

// CountUnread returns the number of notifications with Read == false.
func CountUnread(ns []Notification) int {
	unread := 0
	for _, n := range ns {
		if !n.Read {
			unread++
		}
	}
	return unread
}
