package email

import "time"

// Envelope holds the parsed envelope data from an IMAP message.
type Envelope struct {
	MessageID string
	Subject   string
	From      string
	Date      time.Time
	UID       uint32
}

// ParsedMessage holds the full parsed content of a digest message.
type ParsedMessage struct {
	Envelope Envelope
	TextBody string
	HTMLBody string
}

// Config holds the IMAP settings for the job-alert digest integration.
type Config struct {
	Host     string
	Port     string
	Username string
	Password string
	TLS      bool

	// FromFilter restricts the scan to digests from this sender address
	// or domain fragment. Empty scans by subject only.
	FromFilter string
}
