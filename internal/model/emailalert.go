package model

import "time"

// EmailAlert is a single job alert extracted from a portal digest email.
// Alerts are display-only: they carry their own read flag and count and
// never enter the two-feed unread aggregate.
type EmailAlert struct {
	// ID is a locally minted identifier.
	ID string `json:"id"`

	// MessageID is the Message-ID of the digest email the alert came
	// from, used for de-duplication across scans.
	MessageID string `json:"message_id"`

	// Title and Company describe the advertised position.
	Title   string `json:"title"`
	Company string `json:"company"`

	// Link is the posting URL extracted from the digest body.
	Link string `json:"link"`

	// Read indicates whether the user has seen this alert.
	Read bool `json:"read"`

	// ReceivedAt is the date of the digest email.
	ReceivedAt time.Time `json:"received_at"`
}
