package joblist

import (
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/jobdeck/jobdeck/internal/model"
	"github.com/jobdeck/jobdeck/internal/theme"
)

// JobItem wraps a model.Job so it can be used in a bubbles/list.
type JobItem struct {
	Job   model.Job
	Saved bool
}

// FilterValue returns the string used for fuzzy filtering.
func (i JobItem) FilterValue() string { return i.Job.Title }

// Title returns the job title for the list.
func (i JobItem) Title() string { return i.Job.Title }

// Description returns a short summary line for the list.
func (i JobItem) Description() string {
	return fmt.Sprintf(
		"%s | %s | %s",
		i.Job.Company, i.Job.Location, relativeTime(i.Job.PostedAt),
	)
}

// ItemDelegate implements list.ItemDelegate for rendering job rows.
type ItemDelegate struct{}

// Height returns the number of lines each item takes.
func (d ItemDelegate) Height() int { return 1 }

// Spacing returns the number of blank lines between items.
func (d ItemDelegate) Spacing() int { return 0 }

// Update handles per-item messages (unused).
func (d ItemDelegate) Update(_ tea.Msg, _ *list.Model) tea.Cmd {
	return nil
}

// Render draws a single job row.
func (d ItemDelegate) Render(
	w io.Writer, m list.Model, index int, item list.Item,
) {
	ji, ok := item.(JobItem)
	if !ok {
		return
	}

	job := ji.Job

	savedMark := " "
	if ji.Saved {
		savedMark = lipgloss.NewStyle().
			Foreground(theme.ColorYellow).
			Render("★")
	}

	title := job.Title

	company := lipgloss.NewStyle().
		Foreground(theme.ColorBlue).
		Render(job.Company)

	location := lipgloss.NewStyle().
		Foreground(theme.ColorGray).
		Render(job.Location)

	salary := ""
	if sr := job.SalaryRange(); sr != "" {
		salary = lipgloss.NewStyle().
			Foreground(theme.ColorGreen).
			Render("  " + sr)
	}

	posted := lipgloss.NewStyle().
		Foreground(theme.ColorGray).
		Render("  " + relativeTime(job.PostedAt))

	line := fmt.Sprintf(
		"%s %s  %s  %s%s%s",
		savedMark, title, company, location, salary, posted,
	)

	if index == m.Index() {
		line = theme.SelectedItemStyle.Render(line)
	} else {
		line = theme.ListItemStyle.Render(line)
	}

	fmt.Fprint(w, line)
}

// relativeTime returns a human-friendly relative time string.
func relativeTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}

	d := time.Since(t)
	switch {
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		mins := int(d.Minutes())
		if mins == 1 {
			return "1m ago"
		}
		return fmt.Sprintf("%dm ago", mins)
	case d < 24*time.Hour:
		hrs := int(d.Hours())
		if hrs == 1 {
			return "1h ago"
		}
		return fmt.Sprintf("%dh ago", hrs)
	case d < 7*24*time.Hour:
		days := int(d.Hours() / 24)
		if days == 1 {
			return "1d ago"
		}
		return fmt.Sprintf("%dd ago", days)
	default:
		weeks := int(d.Hours() / 24 / 7)
		if weeks == 1 {
			return "1w ago"
		}
		return fmt.Sprintf("%dw ago", weeks)
	}
}
