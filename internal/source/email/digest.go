package email

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/google/uuid"

	"github.com/jobdeck/jobdeck/internal/model"
	"github.com/jobdeck/jobdeck/internal/store"
)

// envelopeFetchLimit caps how many recent messages one scan inspects.
const envelopeFetchLimit = 100

// Scanner finds job-alert digest emails in the inbox and turns each
// advertised posting into an EmailAlert persisted in the local store.
// Alerts are display-only and never enter the two-feed unread aggregate.
type Scanner struct {
	client     *IMAPClient
	store      store.Store
	fromFilter string
}

// NewScanner creates a digest scanner from the email configuration.
func NewScanner(cfg Config, st store.Store) *Scanner {
	return &Scanner{
		client: NewIMAPClient(
			cfg.Host, cfg.Port, cfg.Username, cfg.Password, cfg.TLS,
		),
		store:      st,
		fromFilter: cfg.FromFilter,
	}
}

// Scan fetches recent inbox envelopes, picks out job-alert digests,
// parses their bodies, and stores any postings not seen before. It
// returns the number of newly stored alerts.
func (s *Scanner) Scan(ctx context.Context) (int, error) {
	envelopes, err := s.client.FetchEnvelopes(ctx, envelopeFetchLimit)
	if err != nil {
		return 0, fmt.Errorf("scanning for job-alert digests: %w", err)
	}

	var alerts []model.EmailAlert
	for _, env := range envelopes {
		if !s.isDigest(env) {
			continue
		}

		parsed, err := s.client.FetchMessage(ctx, env.UID)
		if err != nil {
			// One unreadable digest must not sink the scan.
			continue
		}

		body := parsed.TextBody
		if body == "" && parsed.HTMLBody != "" {
			body = stripHTML(parsed.HTMLBody)
		}

		for _, entry := range ParseDigest(body) {
			alerts = append(alerts, model.EmailAlert{
				ID:         uuid.New().String(),
				MessageID:  env.MessageID,
				Title:      entry.Title,
				Company:    entry.Company,
				Link:       entry.Link,
				ReceivedAt: env.Date,
			})
		}
	}

	inserted, err := s.store.UpsertEmailAlerts(ctx, alerts)
	if err != nil {
		return 0, fmt.Errorf("storing digest alerts: %w", err)
	}
	return inserted, nil
}

// isDigest reports whether an envelope looks like a job-alert digest.
func (s *Scanner) isDigest(env Envelope) bool {
	if s.fromFilter != "" &&
		!strings.Contains(strings.ToLower(env.From), strings.ToLower(s.fromFilter)) {
		return false
	}

	subject := strings.ToLower(env.Subject)
	for _, marker := range digestSubjectMarkers {
		if strings.Contains(subject, marker) {
			return true
		}
	}
	return false
}

// digestSubjectMarkers are subject fragments that identify alert digests.
var digestSubjectMarkers = []string{
	"job alert",
	"jobs for you",
	"new jobs matching",
	"matching jobs",
}

// DigestEntry is one posting advertised in a digest body.
type DigestEntry struct {
	Title   string
	Company string
	Link    string
}

// linkPattern matches posting URLs in a digest body.
var linkPattern = regexp.MustCompile(`https?://\S+`)

// ParseDigest extracts posting entries from a plain-text digest body.
// The expected shape is a heading line ("Title at Company" or
// "Title - Company") followed by the posting URL; headings without a
// following URL are skipped.
func ParseDigest(body string) []DigestEntry {
	var entries []DigestEntry

	lines := strings.Split(body, "\n")
	lastHeading := ""
	for _, raw := range lines {
		line := strings.TrimSpace(raw)
		if line == "" {
			continue
		}

		if link := linkPattern.FindString(line); link != "" {
			if lastHeading == "" {
				continue
			}
			title, company := splitHeading(lastHeading)
			entries = append(entries, DigestEntry{
				Title:   title,
				Company: company,
				Link:    strings.TrimRight(link, ".,;)"),
			})
			lastHeading = ""
			continue
		}

		lastHeading = line
	}

	return entries
}

// splitHeading splits "Title at Company" / "Title - Company" into parts.
// When no separator is present the whole heading becomes the title.
func splitHeading(heading string) (title, company string) {
	for _, sep := range []string{" at ", " — ", " - ", " | "} {
		if idx := strings.Index(heading, sep); idx > 0 {
			return strings.TrimSpace(heading[:idx]),
				strings.TrimSpace(heading[idx+len(sep):])
		}
	}
	return heading, ""
}

// htmlTagPattern matches HTML tags for stripping.
var htmlTagPattern = regexp.MustCompile(`<[^>]*>`)

// stripHTML removes HTML tags from a string and decodes common
// entities, providing a basic plain-text rendering of HTML-only digests.
func stripHTML(html string) string {
	if html == "" {
		return ""
	}

	result := html
	for _, tag := range []string{
		"<br>", "<br/>", "<br />", "</p>", "</div>", "</li>",
	} {
		result = strings.ReplaceAll(result, tag, "\n")
	}

	result = htmlTagPattern.ReplaceAllString(result, "")

	replacer := strings.NewReplacer(
		"&amp;", "&",
		"&lt;", "<",
		"&gt;", ">",
		"&quot;", `"`,
		"&#39;", "'",
		"&nbsp;", " ",
	)
	result = replacer.Replace(result)

	for strings.Contains(result, "\n\n\n") {
		result = strings.ReplaceAll(result, "\n\n\n", "\n\n")
	}

	return strings.TrimSpace(result)
}
