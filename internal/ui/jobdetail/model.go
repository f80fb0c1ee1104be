package jobdetail

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/jobdeck/jobdeck/internal/keys"
	"github.com/jobdeck/jobdeck/internal/model"
	"github.com/jobdeck/jobdeck/internal/portal"
	"github.com/jobdeck/jobdeck/internal/store"
	"github.com/jobdeck/jobdeck/internal/theme"
)

// BackMsg signals the parent to navigate back to the list view.
type BackMsg struct{}

// JobLoadedMsg carries the loaded posting.
type JobLoadedMsg struct {
	Job *model.Job
	Err error
}

// ApplyMsg signals the parent to open the application form for the
// displayed job.
type ApplyMsg struct {
	Job model.Job
}

// Model is the job posting detail view.
type Model struct {
	job      *model.Job
	saved    bool
	viewport viewport.Model
	client   *portal.Client
	store    store.Store
	keys     *keys.KeyMap
	loading  bool
	loadErr  error
	width    int
	height   int
}

// New creates a new job detail model.
func New(
	client *portal.Client, st store.Store, k *keys.KeyMap,
	width, height int,
) Model {
	vp := viewport.New(width, height-2)
	vp.Style = lipgloss.NewStyle()

	return Model{
		viewport: vp,
		client:   client,
		store:    st,
		keys:     k,
		width:    width,
		height:   height,
	}
}

// Load returns a command that fetches the posting by id.
func (m *Model) Load(jobID string) tea.Cmd {
	m.loading = true
	m.loadErr = nil
	m.job = nil

	client := m.client
	st := m.store
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(
			context.Background(), 30*time.Second,
		)
		defer cancel()

		job, err := client.Job(ctx, jobID)
		if err != nil {
			return JobLoadedMsg{Err: err}
		}

		if st != nil {
			if ids, err := st.SavedJobIDs(ctx); err == nil && ids[job.ID] {
				job.Saved = true
			}
		}

		return JobLoadedMsg{Job: job}
	}
}

// Update handles messages for the detail view.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case JobLoadedMsg:
		m.loading = false
		m.loadErr = msg.Err
		m.job = msg.Job
		if msg.Job != nil {
			m.saved = msg.Job.Saved
			m.viewport.SetContent(m.renderContent())
			m.viewport.GotoTop()
		}
		return m, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Back):
			return m, func() tea.Msg { return BackMsg{} }

		case key.Matches(msg, m.keys.Apply):
			if m.job != nil {
				job := *m.job
				return m, func() tea.Msg { return ApplyMsg{Job: job} }
			}

		case key.Matches(msg, m.keys.SaveJob):
			if m.job != nil {
				m.saved = !m.saved
				m.job.Saved = m.saved
				m.viewport.SetContent(m.renderContent())
				return m, m.persistSaved()
			}
		}
	}

	// Delegate to viewport for scrolling (j/k, up/down, pgup/pgdn)
	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

// persistSaved writes the flipped bookmark state to the local store.
func (m Model) persistSaved() tea.Cmd {
	st := m.store
	job := *m.job
	saved := m.saved
	return func() tea.Msg {
		ctx := context.Background()
		if saved {
			_ = st.SaveJob(ctx, job)
		} else {
			_ = st.UnsaveJob(ctx, job.ID)
		}
		return nil
	}
}

// View renders the detail view.
func (m Model) View() string {
	centered := lipgloss.NewStyle().
		Width(m.width).
		Height(m.height).
		Align(lipgloss.Center, lipgloss.Center)

	if m.loading {
		return centered.
			Foreground(theme.ColorGray).
			Render("Loading posting...")
	}

	if m.loadErr != nil {
		return centered.Render(
			theme.ErrorStyle.Render(
				"Could not load posting: "+m.loadErr.Error(),
			) + "\n\n" +
				theme.HelpStyle.Render("Press esc to go back."),
		)
	}

	if m.job == nil {
		return centered.
			Foreground(theme.ColorGray).
			Render("No job selected")
	}

	return m.viewport.View()
}

// renderContent builds the full posting content for the viewport.
func (m Model) renderContent() string {
	job := m.job
	var sections []string

	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(theme.ColorWhite)
	title := job.Title
	if m.saved {
		title += "  ★"
	}
	sections = append(sections, titleStyle.Render(title))

	companyLine := lipgloss.JoinHorizontal(
		lipgloss.Top,
		lipgloss.NewStyle().
			Bold(true).
			Foreground(theme.ColorBlue).
			Render(job.Company),
		"  ",
		lipgloss.NewStyle().
			Foreground(theme.ColorGray).
			Render(job.Location),
	)
	sections = append(sections, companyLine)
	sections = append(sections, "")

	metaStyle := lipgloss.NewStyle().Foreground(theme.ColorGray)
	valStyle := lipgloss.NewStyle().Foreground(theme.ColorWhite)

	if sr := job.SalaryRange(); sr != "" {
		sections = append(sections, fmt.Sprintf(
			"%s   %s",
			metaStyle.Render("Salary:"),
			lipgloss.NewStyle().Foreground(theme.ColorGreen).Render(sr),
		))
	}
	if len(job.Skills) > 0 {
		sections = append(sections, fmt.Sprintf(
			"%s   %s",
			metaStyle.Render("Skills:"),
			valStyle.Render(strings.Join(job.Skills, ", ")),
		))
	}
	if !job.PostedAt.IsZero() {
		sections = append(sections, fmt.Sprintf(
			"%s   %s",
			metaStyle.Render("Posted:"),
			valStyle.Render(job.PostedAt.Format("2006-01-02")),
		))
	}

	sepStyle := lipgloss.NewStyle().Foreground(theme.ColorSubtle)
	separator := sepStyle.Render(strings.Repeat("─", min(m.width-4, 80)))
	sections = append(sections, "")
	sections = append(sections, separator)
	sections = append(sections, "")

	body := job.Description
	if body == "" {
		body = lipgloss.NewStyle().
			Foreground(theme.ColorGray).
			Italic(true).
			Render("No description")
	}
	sections = append(sections, body)

	sections = append(sections, "")
	sections = append(sections, theme.HelpStyle.Render(
		"a apply | s save | esc back",
	))

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

// SetSize updates the detail view dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.viewport.Width = width
	m.viewport.Height = height - 2
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}
