package email

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDigest(t *testing.T) {
	body := `Hi Dana, here are new jobs matching your profile:

Go Engineer at Acme
https://portal.example.com/jobs/1

Backend Engineer - Initech
See it here: https://portal.example.com/jobs/2.

Orphan heading without a link

https://portal.example.com/jobs/999

Thanks,
The Portal Team`

	entries := ParseDigest(body)
	require.Len(t, entries, 3)

	assert.Equal(t, "Go Engineer", entries[0].Title)
	assert.Equal(t, "Acme", entries[0].Company)
	assert.Equal(t, "https://portal.example.com/jobs/1", entries[0].Link)

	assert.Equal(t, "Backend Engineer", entries[1].Title)
	assert.Equal(t, "Initech", entries[1].Company)
	// Trailing sentence punctuation is not part of the URL.
	assert.Equal(t, "https://portal.example.com/jobs/2", entries[1].Link)

	// The orphan heading pairs with the next URL line.
	assert.Equal(t, "Orphan heading without a link", entries[2].Title)
	assert.Equal(t, "https://portal.example.com/jobs/999", entries[2].Link)
}

func TestParseDigestEmptyAndLinkOnly(t *testing.T) {
	assert.Empty(t, ParseDigest(""))
	assert.Empty(t, ParseDigest("https://portal.example.com/jobs/1"))
}

func TestSplitHeading(t *testing.T) {
	tests := []struct {
		heading string
		title   string
		company string
	}{
		{heading: "Go Engineer at Acme", title: "Go Engineer", company: "Acme"},
		{heading: "Go Engineer - Acme", title: "Go Engineer", company: "Acme"},
		{heading: "Go Engineer — Acme", title: "Go Engineer", company: "Acme"},
		{heading: "Go Engineer | Acme", title: "Go Engineer", company: "Acme"},
		{heading: "Go Engineer", title: "Go Engineer", company: ""},
		{heading: "Platform Lead at Acme at Berlin", title: "Platform Lead", company: "Acme at Berlin"},
	}

	for _, tt := range tests {
		t.Run(tt.heading, func(t *testing.T) {
			title, company := splitHeading(tt.heading)
			assert.Equal(t, tt.title, title)
			assert.Equal(t, tt.company, company)
		})
	}
}

func TestStripHTML(t *testing.T) {
	html := `<div><p>Go Engineer at Acme</p>` +
		`<a href="https://portal.example.com/jobs/1">View &amp; apply</a><br>` +
		`<p>Salary: &gt;100k</p></div>`

	got := stripHTML(html)

	assert.Contains(t, got, "Go Engineer at Acme")
	assert.Contains(t, got, "View & apply")
	assert.Contains(t, got, "Salary: >100k")
	assert.NotContains(t, got, "<")
	assert.NotContains(t, got, "href")
}

func TestIsDigest(t *testing.T) {
	tests := []struct {
		name       string
		fromFilter string
		env        Envelope
		want       bool
	}{
		{
			name: "job alert subject",
			env:  Envelope{From: "alerts@portal.example.com", Subject: "Your daily job alert"},
			want: true,
		},
		{
			name: "matching jobs subject",
			env:  Envelope{From: "alerts@portal.example.com", Subject: "5 new jobs matching Go Engineer"},
			want: true,
		},
		{
			name: "unrelated subject",
			env:  Envelope{From: "alerts@portal.example.com", Subject: "Your invoice for March"},
			want: false,
		},
		{
			name:       "sender filter match is case insensitive",
			fromFilter: "Portal.Example.com",
			env:        Envelope{From: "alerts@portal.example.com", Subject: "Job alert"},
			want:       true,
		},
		{
			name:       "sender filter rejects other senders",
			fromFilter: "portal.example.com",
			env:        Envelope{From: "spam@elsewhere.net", Subject: "Job alert"},
			want:       false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := &Scanner{fromFilter: tt.fromFilter}
			tt.env.Date = time.Now()
			assert.Equal(t, tt.want, s.isDigest(tt.env))
		})
	}
}
