package alertsview

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
	"github.com/jobdeck/jobdeck/internal/store"
	"github.com/jobdeck/jobdeck/internal/theme"
)

// AlertsLoadedMsg is sent when the stored email alerts were read.
type AlertsLoadedMsg struct {
	Alerts []model.EmailAlert
	Err    error
}

// alertItem wraps a model.EmailAlert for bubbles/list.
type alertItem struct {
	alert model.EmailAlert
}

func (i alertItem) FilterValue() string { return i.alert.Title }

// itemDelegate renders one email alert row.
type itemDelegate struct{}

func (d itemDelegate) Height() int  { return 1 }
func (d itemDelegate) Spacing() int { return 0 }

func (d itemDelegate) Update(_ tea.Msg, _ *list.Model) tea.Cmd {
	return nil
}

func (d itemDelegate) Render(
	w io.Writer, m list.Model, index int, item list.Item,
) {
	ai, ok := item.(alertItem)
	if !ok {
		return
	}
	a := ai.alert

	marker := " "
	if !a.Read {
		marker = theme.UnreadStyle.Render("●")
	}

	badge := theme.KindLabelStyle("email").Render("MAIL")

	text := a.Title
	if a.Company != "" {
		text += " at " + a.Company
	}

	when := lipgloss.NewStyle().
		Foreground(theme.ColorGray).
		Render("  " + a.ReceivedAt.Format("Jan 02"))

	line := fmt.Sprintf("%s %s %s%s", marker, badge, text, when)
	if a.Read {
		line = theme.ReadStyle.Render(line)
	}

	if index == m.Index() {
		line = theme.SelectedItemStyle.Render(line)
	} else {
		line = theme.ListItemStyle.Render(line)
	}

	fmt.Fprint(w, line)
}

// Model is the email job-alert digest view. It reads alerts from the
// local store; the background scanner keeps the store fresh. These are
// display-only and never count toward the portal unread badge.
type Model struct {
	list    list.Model
	store   store.Store
	keys    *keys.KeyMap
	loadErr error
	width   int
	height  int
}

// New creates the email alerts model.
func New(st store.Store, k *keys.KeyMap, width, height int) Model {
	l := list.New([]list.Item{}, itemDelegate{}, width, height-2)
	l.Title = "Email Alerts"
	l.SetShowStatusBar(true)
	l.SetShowHelp(false)
	l.SetFilteringEnabled(false)
	l.Styles.Title = theme.HeaderStyle

	return Model{
		list:   l,
		store:  st,
		keys:   k,
		width:  width,
		height: height,
	}
}

// Init returns a command that loads stored alerts.
func (m Model) Init() tea.Cmd {
	return m.Load()
}

// Update handles messages for the email alerts view.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case AlertsLoadedMsg:
		m.loadErr = msg.Err
		if msg.Err != nil {
			return m, nil
		}
		items := make([]list.Item, len(msg.Alerts))
		for i, a := range msg.Alerts {
			items[i] = alertItem{alert: a}
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

// handleKeys processes key input for the alerts view.
func (m Model) handleKeys(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.MarkRead), key.Matches(msg, m.keys.Select):
		item, ok := m.list.SelectedItem().(alertItem)
		if !ok || item.alert.Read {
			return m, nil
		}
		return m, m.markRead(item.alert.ID)

	case key.Matches(msg, m.keys.Refresh):
		return m, m.Load()
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

// View renders the email alerts view.
func (m Model) View() string {
	if m.loadErr != nil {
		style := lipgloss.NewStyle().
			Width(m.width).
			Height(m.height).
			Align(lipgloss.Center, lipgloss.Center)
		return style.Render(
			theme.ErrorStyle.Render(
				"Could not load email alerts: "+m.loadErr.Error(),
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
			"No email alerts.\n" +
				"Enable the email integration in settings to scan " +
				"your inbox for job-alert digests.",
		)
	}

	return m.list.View()
}

// Load returns a tea.Cmd that reads stored alerts.
func (m Model) Load() tea.Cmd {
	st := m.store
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(
			context.Background(), 10*time.Second,
		)
		defer cancel()

		alerts, err := st.GetEmailAlerts(ctx)
		return AlertsLoadedMsg{Alerts: alerts, Err: err}
	}
}

// markRead flips one stored alert to read and reloads the view.
func (m Model) markRead(id string) tea.Cmd {
	st := m.store
	load := m.Load()
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(
			context.Background(), 10*time.Second,
		)
		defer cancel()

		if err := st.MarkEmailAlertRead(ctx, id); err != nil {
			return AlertsLoadedMsg{Err: err}
		}
		return load()
	}
}

// SetSize updates the list dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.list.SetSize(width, height-2)
}
