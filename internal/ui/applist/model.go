package applist

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/jobdeck/jobdeck/internal/keys"
	"github.com/jobdeck/jobdeck/internal/model"
	"github.com/jobdeck/jobdeck/internal/portal"
	"github.com/jobdeck/jobdeck/internal/testguard"
	"github.com/jobdeck/jobdeck/internal/theme"
)

// AppsLoadedMsg is sent when the applications request finishes.
type AppsLoadedMsg struct {
	Apps []model.Application
	Err  error
}

// StartTestRequestedMsg is sent when the user wants to take the skill
// test for an application. The root model opens the test view.
type StartTestRequestedMsg struct {
	Application model.Application
}

// ViewResultsRequestedMsg is sent when the user wants the graded
// outcome of a submitted test.
type ViewResultsRequestedMsg struct {
	ApplicationID string
}

// appItem wraps a model.Application for bubbles/list.
type appItem struct {
	app    model.Application
	locked bool
}

func (i appItem) FilterValue() string { return i.app.Job }

// itemDelegate renders one application row.
type itemDelegate struct{}

func (d itemDelegate) Height() int  { return 1 }
func (d itemDelegate) Spacing() int { return 0 }

func (d itemDelegate) Update(_ tea.Msg, _ *list.Model) tea.Cmd {
	return nil
}

func (d itemDelegate) Render(
	w io.Writer, m list.Model, index int, item list.Item,
) {
	ai, ok := item.(appItem)
	if !ok {
		return
	}
	app := ai.app

	statusBadge := theme.StatusStyle(app.Status).Render(app.Status)

	testHint := ""
	switch {
	case app.TestSubmitted:
		testHint = lipgloss.NewStyle().
			Foreground(theme.ColorGreen).
			Render("  test submitted")
	case app.TestRequired && ai.locked:
		testHint = lipgloss.NewStyle().
			Foreground(theme.ColorOrange).
			Render("  test in progress")
	case app.TestRequired:
		testHint = lipgloss.NewStyle().
			Foreground(theme.ColorYellow).
			Render("  test available")
	}

	applied := lipgloss.NewStyle().
		Foreground(theme.ColorGray).
		Render("  applied " + app.AppliedAt.Format("Jan 02"))

	line := fmt.Sprintf("%s %s%s%s", statusBadge, app.Job, testHint, applied)

	if index == m.Index() {
		line = theme.SelectedItemStyle.Render(line)
	} else {
		line = theme.ListItemStyle.Render(line)
	}

	fmt.Fprint(w, line)
}

// Model is the candidate's application list view.
type Model struct {
	list      list.Model
	client    *portal.Client
	guard     *testguard.Guard
	keys      *keys.KeyMap
	loadErr   error
	statusMsg string
	width     int
	height    int
}

// New creates the application list model.
func New(
	client *portal.Client, guard *testguard.Guard, k *keys.KeyMap,
	width, height int,
) Model {
	l := list.New([]list.Item{}, itemDelegate{}, width, height-2)
	l.Title = "Applications"
	l.SetShowStatusBar(true)
	l.SetShowHelp(false)
	l.SetFilteringEnabled(false)
	l.Styles.Title = theme.HeaderStyle

	return Model{
		list:   l,
		client: client,
		guard:  guard,
		keys:   k,
		width:  width,
		height: height,
	}
}

// Init returns a command that loads the applications.
func (m Model) Init() tea.Cmd {
	return m.Load()
}

// Update handles messages for the application list view.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case AppsLoadedMsg:
		m.loadErr = msg.Err
		if msg.Err != nil {
			return m, nil
		}
		items := make([]list.Item, len(msg.Apps))
		for i, app := range msg.Apps {
			items[i] = appItem{
				app:    app,
				locked: m.guard.IsLocked(context.Background(), app.ID),
			}
		}
		cmd := m.list.SetItems(items)
		return m, cmd

	case tea.KeyMsg:
		return m.handleKeys(msg)
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

// handleKeys processes key input for the application list.
func (m Model) handleKeys(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.StartTest):
		item, ok := m.list.SelectedItem().(appItem)
		if !ok {
			return m, nil
		}
		app := item.app

		if !app.TestRequired {
			m.statusMsg = "No test is attached to this application."
			return m, nil
		}
		if app.TestSubmitted {
			m.statusMsg = "Test already submitted. Press v for results."
			return m, nil
		}

		// A locked item re-enters the running attempt; the test view
		// picks the countdown up from the recorded expiry.
		m.statusMsg = ""
		return m, func() tea.Msg {
			return StartTestRequestedMsg{Application: app}
		}

	case key.Matches(msg, m.keys.ViewResults):
		item, ok := m.list.SelectedItem().(appItem)
		if !ok {
			return m, nil
		}
		if !item.app.TestSubmitted {
			m.statusMsg = "No submitted test for this application."
			return m, nil
		}
		m.statusMsg = ""
		id := item.app.ID
		return m, func() tea.Msg {
			return ViewResultsRequestedMsg{ApplicationID: id}
		}

	case key.Matches(msg, m.keys.Refresh):
		m.statusMsg = ""
		return m, m.Load()
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

// View renders the application list.
func (m Model) View() string {
	if m.loadErr != nil {
		style := lipgloss.NewStyle().
			Width(m.width).
			Height(m.height).
			Align(lipgloss.Center, lipgloss.Center)
		return style.Render(
			theme.ErrorStyle.Render(
				"Could not load applications: "+m.loadErr.Error(),
			) + "\n\n" +
				theme.HelpStyle.Render("Press r to retry."),
		)
	}

	if len(m.list.Items()) == 0 {
		style := lipgloss.NewStyle().
			Width(m.width).
			Height(m.height).
			Align(lipgloss.Center, lipgloss.Center).
			Foreground(theme.ColorGray)
		return style.Render(
			"No applications yet.\nApply to a job from the jobs view.",
		)
	}

	view := m.list.View()
	if m.statusMsg != "" {
		view += "\n" + lipgloss.NewStyle().
			Foreground(theme.ColorYellow).
			Padding(0, 1).
			Render(m.statusMsg)
	}
	return view
}

// Load returns a tea.Cmd that fetches the applications from the portal.
func (m Model) Load() tea.Cmd {
	client := m.client
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(
			context.Background(), 30*time.Second,
		)
		defer cancel()

		apps, err := client.Applications(ctx)
		return AppsLoadedMsg{Apps: apps, Err: err}
	}
}

// SetSize updates the list dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.list.SetSize(width, height-2)
}
