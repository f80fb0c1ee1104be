package notifications

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/jobdeck/jobdeck/internal/alerts"
	"github.com/jobdeck/jobdeck/internal/keys"
	"github.com/jobdeck/jobdeck/internal/model"
	"github.com/jobdeck/jobdeck/internal/theme"
)

// FeedLoadedMsg is sent when both notification feeds finished loading.
type FeedLoadedMsg struct {
	Result *alerts.Result
	Err    error
}

// MarkDoneMsg is sent when a mark-read or mark-all-read call settled.
type MarkDoneMsg struct {
	Err error
}

// OpenNotificationMsg is sent when a user opens a notification; the
// root model routes to the job detail or application view.
type OpenNotificationMsg struct {
	Notification model.Notification
}

// notificationItem wraps a model.Notification for bubbles/list.
type notificationItem struct {
	n model.Notification
}

func (i notificationItem) FilterValue() string {
	if i.n.Kind == model.KindJobMatch {
		return i.n.JobTitle
	}
	return i.n.Message
}

// itemDelegate renders one notification row.
type itemDelegate struct{}

func (d itemDelegate) Height() int  { return 1 }
func (d itemDelegate) Spacing() int { return 0 }

func (d itemDelegate) Update(_ tea.Msg, _ *list.Model) tea.Cmd {
	return nil
}

func (d itemDelegate) Render(
	w io.Writer, m list.Model, index int, item list.Item,
) {
	ni, ok := item.(notificationItem)
	if !ok {
		return
	}
	n := ni.n

	marker := " "
	if !n.Read {
		marker = theme.UnreadStyle.Render("●")
	}

	kindBadge := theme.KindLabelStyle(string(n.Kind)).
		Render(kindLabel(n.Kind))

	var text string
	switch n.Kind {
	case model.KindJobMatch:
		text = "New match: " + n.JobTitle
	default:
		text = n.Message
	}

	when := lipgloss.NewStyle().
		Foreground(theme.ColorGray).
		Render("  " + n.CreatedAt.Format("Jan 02 15:04"))

	line := fmt.Sprintf("%s %s %s%s", marker, kindBadge, text, when)
	if n.Read {
		line = theme.ReadStyle.Render(line)
	}

	if index == m.Index() {
		line = theme.SelectedItemStyle.Render(line)
	} else {
		line = theme.ListItemStyle.Render(line)
	}

	fmt.Fprint(w, line)
}

// kindLabel returns the short display label for a notification kind.
func kindLabel(kind model.NotificationKind) string {
	switch kind {
	case model.KindJobMatch:
		return "JOB"
	case model.KindAppStatus:
		return "APP"
	default:
		return "???"
	}
}

// Model is the merged notification feed view.
type Model struct {
	list    list.Model
	agg     *alerts.Aggregator
	keys    *keys.KeyMap
	loading bool
	loadErr error
	width   int
	height  int
}

// New creates the notification feed model.
func New(agg *alerts.Aggregator, k *keys.KeyMap, width, height int) Model {
	l := list.New([]list.Item{}, itemDelegate{}, width, height-2)
	l.Title = "Notifications"
	l.SetShowStatusBar(true)
	l.SetShowHelp(false)
	l.SetFilteringEnabled(false)
	l.Styles.Title = theme.HeaderStyle

	m := Model{
		list:   l,
		agg:    agg,
		keys:   k,
		width:  width,
		height: height,
	}
	m.setItemsFromResult(agg.Last())
	return m
}

// Init returns a command that loads both feeds.
func (m Model) Init() tea.Cmd {
	return m.Load()
}

// Update handles messages for the notification feed view.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case FeedLoadedMsg:
		m.loading = false
		if msg.Err != nil {
			if !errors.Is(msg.Err, alerts.ErrStale) {
				m.loadErr = msg.Err
			}
			return m, nil
		}
		m.loadErr = nil
		m.setItemsFromResult(msg.Result)
		return m, nil

	case MarkDoneMsg:
		// Refresh the view from the aggregator's reconciled state.
		m.setItemsFromResult(m.agg.Last())
		return m, nil

	case tea.KeyMsg:
		return m.handleKeys(msg)
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

// handleKeys processes key input for the feed.
func (m Model) handleKeys(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Select):
		item, ok := m.list.SelectedItem().(notificationItem)
		if !ok {
			return m, nil
		}
		n := item.n
		mark := m.markRead(n)
		return m, tea.Batch(mark, func() tea.Msg {
			return OpenNotificationMsg{Notification: n}
		})

	case key.Matches(msg, m.keys.MarkRead):
		item, ok := m.list.SelectedItem().(notificationItem)
		if !ok {
			return m, nil
		}
		// Optimistic flip; the aggregator reconciles afterwards.
		m.setLocalRead(item.n.Kind, item.n.ID)
		return m, m.markRead(item.n)

	case key.Matches(msg, m.keys.MarkAllRead):
		return m, m.markAllRead()

	case key.Matches(msg, m.keys.Refresh):
		m.loading = true
		return m, m.Load()
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

// setLocalRead flips one row to read in the visible list.
func (m *Model) setLocalRead(kind model.NotificationKind, id string) {
	items := m.list.Items()
	for i, it := range items {
		ni, ok := it.(notificationItem)
		if !ok || ni.n.Kind != kind || ni.n.ID != id {
			continue
		}
		ni.n.Read = true
		items[i] = ni
	}
	m.list.SetItems(items)
}

// setItemsFromResult replaces the visible list with the merged feed.
func (m *Model) setItemsFromResult(result *alerts.Result) {
	if result == nil {
		m.list.SetItems(nil)
		return
	}

	merged := result.Merged()
	items := make([]list.Item, len(merged))
	for i, n := range merged {
		items[i] = notificationItem{n: n}
	}
	m.list.SetItems(items)
}

// View renders the notification feed.
func (m Model) View() string {
	if m.loadErr != nil {
		style := lipgloss.NewStyle().
			Width(m.width).
			Height(m.height).
			Align(lipgloss.Center, lipgloss.Center)
		return style.Render(
			theme.ErrorStyle.Render(
				"Could not load notifications: "+m.loadErr.Error(),
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
		if m.loading {
			return style.Render("Loading notifications...")
		}
		return style.Render("No notifications.")
	}

	return m.list.View()
}

// Load returns a tea.Cmd that reloads both feeds via the aggregator.
func (m Model) Load() tea.Cmd {
	agg := m.agg
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(
			context.Background(), 30*time.Second,
		)
		defer cancel()

		result, err := agg.LoadAll(ctx)
		return FeedLoadedMsg{Result: result, Err: err}
	}
}

// markRead returns a tea.Cmd that marks one notification read.
func (m Model) markRead(n model.Notification) tea.Cmd {
	agg := m.agg
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(
			context.Background(), 30*time.Second,
		)
		defer cancel()

		return MarkDoneMsg{Err: agg.MarkRead(ctx, n.Kind, n.ID)}
	}
}

// markAllRead returns a tea.Cmd that marks every unread notification of
// both kinds read.
func (m Model) markAllRead() tea.Cmd {
	agg := m.agg
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(
			context.Background(), 60*time.Second,
		)
		defer cancel()

		err := agg.MarkAllRead(ctx, model.KindJobMatch)
		if appErr := agg.MarkAllRead(ctx, model.KindAppStatus); err == nil {
			err = appErr
		}
		return MarkDoneMsg{Err: err}
	}
}

// SetSize updates the list dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.list.SetSize(width, height-2)
}
