package keys

import "github.com/charmbracelet/bubbles/key"

// KeyMap defines the global keybindings for the application.
type KeyMap struct {
	// Navigation
	Down key.Binding
	Up   key.Binding

	// Selection
	Select key.Binding

	// Back / Quit
	Back key.Binding
	Quit key.Binding

	// Search
	Search key.Binding

	// Command palette
	Command key.Binding

	// Help toggle
	Help key.Binding

	// Manual refresh
	Refresh key.Binding

	// View switching
	GotoJobs          key.Binding
	GotoApplications  key.Binding
	GotoNotifications key.Binding
	GotoEmailAlerts   key.Binding

	// Job actions
	SaveJob key.Binding
	Apply   key.Binding

	// Notification actions
	MarkRead    key.Binding
	MarkAllRead key.Binding

	// Application actions
	StartTest   key.Binding
	ViewResults key.Binding
}

// DefaultKeyMap returns the default set of keybindings.
func DefaultKeyMap() *KeyMap {
	return &KeyMap{
		Down: key.NewBinding(
			key.WithKeys("j", "down"),
			key.WithHelp("j/↓", "down"),
		),
		Up: key.NewBinding(
			key.WithKeys("k", "up"),
			key.WithHelp("k/↑", "up"),
		),
		Select: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "open detail"),
		),
		Back: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "back"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q"),
			key.WithHelp("q", "quit"),
		),
		Search: key.NewBinding(
			key.WithKeys("/"),
			key.WithHelp("/", "search jobs"),
		),
		Command: key.NewBinding(
			key.WithKeys(":"),
			key.WithHelp(":", "command palette"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "toggle help"),
		),
		Refresh: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "refresh"),
		),
		GotoJobs: key.NewBinding(
			key.WithKeys("1"),
			key.WithHelp("1", "jobs"),
		),
		GotoApplications: key.NewBinding(
			key.WithKeys("2"),
			key.WithHelp("2", "applications"),
		),
		GotoNotifications: key.NewBinding(
			key.WithKeys("3"),
			key.WithHelp("3", "notifications"),
		),
		GotoEmailAlerts: key.NewBinding(
			key.WithKeys("4"),
			key.WithHelp("4", "email alerts"),
		),
		SaveJob: key.NewBinding(
			key.WithKeys("s"),
			key.WithHelp("s", "save job"),
		),
		Apply: key.NewBinding(
			key.WithKeys("a"),
			key.WithHelp("a", "apply"),
		),
		MarkRead: key.NewBinding(
			key.WithKeys("m"),
			key.WithHelp("m", "mark read"),
		),
		MarkAllRead: key.NewBinding(
			key.WithKeys("M"),
			key.WithHelp("M", "mark all read"),
		),
		StartTest: key.NewBinding(
			key.WithKeys("t"),
			key.WithHelp("t", "start test"),
		),
		ViewResults: key.NewBinding(
			key.WithKeys("v"),
			key.WithHelp("v", "view test results"),
		),
	}
}

// ShortHelp returns the most essential keybindings for the compact help view.
func (k *KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{
		k.Up, k.Down, k.Select, k.Back,
		k.Quit, k.Help, k.Search,
	}
}

// FullHelp returns all keybindings grouped by category for the expanded
// help view.
func (k *KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.Select, k.Back, k.Quit},
		{k.Search, k.Command, k.Help, k.Refresh},
		{k.GotoJobs, k.GotoApplications, k.GotoNotifications, k.GotoEmailAlerts},
		{k.SaveJob, k.Apply, k.MarkRead, k.MarkAllRead},
		{k.StartTest, k.ViewResults},
	}
}
