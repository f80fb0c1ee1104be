package joblist

import (
	"context"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/jobdeck/jobdeck/internal/keys"
	"github.com/jobdeck/jobdeck/internal/model"
	"github.com/jobdeck/jobdeck/internal/portal"
	"github.com/jobdeck/jobdeck/internal/store"
	"github.com/jobdeck/jobdeck/internal/theme"
)

// JobsLoadedMsg is sent when the job listing request finishes.
type JobsLoadedMsg struct {
	Jobs  []model.Job
	Saved map[string]bool
	Err   error
}

// SelectedJobMsg is sent when a user selects a job to view details.
type SelectedJobMsg struct {
	JobID string
}

// ApplyRequestedMsg is sent when a user wants to apply to the
// selected job.
type ApplyRequestedMsg struct {
	Job model.Job
}

// sortModes defines the available sort orderings cycled by Tab.
var sortModes = []string{
	"-posted_at",
	"title",
	"company",
}

// Model is the browsable job listing view.
type Model struct {
	list        list.Model
	client      *portal.Client
	store       store.Store
	keys        *keys.KeyMap
	filter      portal.JobFilter
	sortIndex   int
	searchMode  bool
	searchInput textinput.Model
	loading     bool
	loadErr     error
	width       int
	height      int
}

// New creates a new job listing model.
func New(
	client *portal.Client, st store.Store, k *keys.KeyMap,
	width, height int,
) Model {
	l := list.New([]list.Item{}, ItemDelegate{}, width, height-2)
	l.Title = "Jobs"
	l.SetShowStatusBar(true)
	l.SetShowHelp(false)
	l.SetFilteringEnabled(false)
	l.Styles.Title = theme.HeaderStyle

	si := textinput.New()
	si.Placeholder = "search jobs..."
	si.Prompt = "/ "
	si.Width = width - 4

	return Model{
		list:        l,
		client:      client,
		store:       st,
		keys:        k,
		filter:      portal.JobFilter{Ordering: sortModes[0]},
		searchInput: si,
		width:       width,
		height:      height,
	}
}

// Init returns a command that loads the initial job listing.
func (m Model) Init() tea.Cmd {
	return m.LoadJobs()
}

// Update handles messages for the job listing view.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case JobsLoadedMsg:
		m.loading = false
		m.loadErr = msg.Err
		if msg.Err != nil {
			return m, nil
		}
		items := make([]list.Item, len(msg.Jobs))
		for i, job := range msg.Jobs {
			items[i] = JobItem{Job: job, Saved: msg.Saved[job.ID]}
		}
		cmd := m.list.SetItems(items)
		return m, cmd

	case tea.KeyMsg:
		if m.searchMode {
			return m.handleSearchKeys(msg)
		}
		return m.handleNormalKeys(msg)
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

// handleSearchKeys processes key input while in search mode.
func (m Model) handleSearchKeys(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		m.searchMode = false
		m.filter.Query = m.searchInput.Value()
		return m, m.LoadJobs()

	case "esc":
		m.searchMode = false
		m.searchInput.Reset()
		m.filter.Query = ""
		return m, m.LoadJobs()
	}

	var cmd tea.Cmd
	m.searchInput, cmd = m.searchInput.Update(msg)
	return m, cmd
}

// handleNormalKeys processes key input in normal (non-search) mode.
func (m Model) handleNormalKeys(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Select):
		item, ok := m.list.SelectedItem().(JobItem)
		if !ok {
			return m, nil
		}
		return m, func() tea.Msg {
			return SelectedJobMsg{JobID: item.Job.ID}
		}

	case key.Matches(msg, m.keys.Search):
		m.searchMode = true
		m.searchInput.Reset()
		return m, m.searchInput.Focus()

	case key.Matches(msg, m.keys.SaveJob):
		item, ok := m.list.SelectedItem().(JobItem)
		if !ok {
			return m, nil
		}
		return m, m.toggleSaved(item)

	case key.Matches(msg, m.keys.Apply):
		item, ok := m.list.SelectedItem().(JobItem)
		if !ok {
			return m, nil
		}
		return m, func() tea.Msg {
			return ApplyRequestedMsg{Job: item.Job}
		}

	case key.Matches(msg, m.keys.Refresh):
		return m, m.LoadJobs()

	case msg.String() == "tab":
		m.sortIndex = (m.sortIndex + 1) % len(sortModes)
		m.filter.Ordering = sortModes[m.sortIndex]
		return m, m.LoadJobs()
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

// toggleSaved flips the bookmark state of a job and reloads the list.
func (m Model) toggleSaved(item JobItem) tea.Cmd {
	st := m.store
	load := m.LoadJobs()
	return func() tea.Msg {
		ctx := context.Background()
		if item.Saved {
			_ = st.UnsaveJob(ctx, item.Job.ID)
		} else {
			_ = st.SaveJob(ctx, item.Job)
		}
		return load()
	}
}

// View renders the job listing view.
func (m Model) View() string {
	if m.searchMode {
		searchBar := lipgloss.NewStyle().
			Foreground(theme.ColorWhite).
			Padding(0, 1).
			Render(m.searchInput.View())
		return lipgloss.JoinVertical(
			lipgloss.Left, searchBar, m.list.View(),
		)
	}

	if m.loadErr != nil {
		return m.renderError()
	}

	if len(m.list.Items()) == 0 {
		return m.renderEmptyState()
	}

	return m.list.View()
}

// renderError shows the load failure with a retry hint.
func (m Model) renderError() string {
	style := lipgloss.NewStyle().
		Width(m.width).
		Height(m.height).
		Align(lipgloss.Center, lipgloss.Center)

	return style.Render(
		theme.ErrorStyle.Render("Could not load jobs: "+m.loadErr.Error()) +
			"\n\n" +
			theme.HelpStyle.Render("Press r to retry."),
	)
}

// renderEmptyState shows guidance text when no jobs match.
func (m Model) renderEmptyState() string {
	style := lipgloss.NewStyle().
		Width(m.width).
		Height(m.height).
		Align(lipgloss.Center, lipgloss.Center).
		Foreground(theme.ColorGray)

	if m.filter.Query != "" {
		return style.Render(
			"No jobs matched \"" + m.filter.Query + "\".\n" +
				"Press / to change the search.",
		)
	}

	return style.Render("No open positions right now.")
}

// LoadJobs returns a tea.Cmd that queries the portal with the
// current filter and resolves saved-job bookmarks from the store.
func (m Model) LoadJobs() tea.Cmd {
	client := m.client
	st := m.store
	filter := m.filter
	return func() tea.Msg {
		ctx := context.Background()

		jobs, _, err := client.Jobs(ctx, filter)
		if err != nil {
			return JobsLoadedMsg{Err: err}
		}

		saved := make(map[string]bool)
		if st != nil {
			if ids, err := st.SavedJobIDs(ctx); err == nil {
				saved = ids
			}
		}

		return JobsLoadedMsg{Jobs: jobs, Saved: saved}
	}
}

// Searching reports whether the search prompt currently owns key input.
func (m Model) Searching() bool {
	return m.searchMode
}

// SetSize updates the list dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.list.SetSize(width, height-2)
	m.searchInput.Width = width - 4
}
