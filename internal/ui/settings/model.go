package settings

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/jobdeck/jobdeck/internal/credential"
	"github.com/jobdeck/jobdeck/internal/keys"
	"github.com/jobdeck/jobdeck/internal/model"
	"github.com/jobdeck/jobdeck/internal/theme"
)

// emailPasswordKey is the keyring entry for the IMAP mailbox password.
const emailPasswordKey = "email-password"

// Mode represents the current state of the settings view.
type Mode int

const (
	ModeMenu Mode = iota
	ModeFormPortal
	ModeFormEmail
)

// DoneMsg signals the settings view should close.
type DoneMsg struct{}

// SavedMsg signals the configuration changed; the root model re-wires
// pollers with the new settings.
type SavedMsg struct {
	Config *model.AppConfig
}

// formBindings holds form field values on the heap so that huh's Value()
// pointers remain valid across Bubble Tea model copies.
type formBindings struct {
	portalBaseURL string
	portalPoll    string

	emailEnabled  bool
	emailHost     string
	emailPort     string
	emailUsername string
	emailPassword string
	emailTLS      bool
}

// Model is the Bubble Tea model for the settings view.
type Model struct {
	mode       Mode
	cfg        *model.AppConfig
	configPath string

	menuIdx    int
	portalForm *huh.Form
	emailForm  *huh.Form
	fb         *formBindings

	statusMsg string

	keys          *keys.KeyMap
	width, height int
}

// New creates the settings view model.
func New(
	cfg *model.AppConfig, configPath string, k *keys.KeyMap,
	width, height int,
) Model {
	return Model{
		mode:       ModeMenu,
		cfg:        cfg,
		configPath: configPath,
		fb:         &formBindings{},
		keys:       k,
		width:      width,
		height:     height,
	}
}

// Update handles messages for the settings view.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok && m.mode == ModeMenu {
		return m.handleMenuKeys(keyMsg)
	}

	switch m.mode {
	case ModeFormPortal:
		return m.updatePortalForm(msg)
	case ModeFormEmail:
		return m.updateEmailForm(msg)
	}
	return m, nil
}

// handleMenuKeys processes key input in the section menu.
func (m Model) handleMenuKeys(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch msg.String() {
	case "esc", "q":
		return m, func() tea.Msg { return DoneMsg{} }

	case "j", "down":
		m.menuIdx = (m.menuIdx + 1) % 2
		return m, nil

	case "k", "up":
		m.menuIdx--
		if m.menuIdx < 0 {
			m.menuIdx = 1
		}
		return m, nil

	case "enter":
		m.statusMsg = ""
		if m.menuIdx == 0 {
			m.mode = ModeFormPortal
			m.portalForm = m.buildPortalForm()
			return m, m.portalForm.Init()
		}
		m.mode = ModeFormEmail
		m.emailForm = m.buildEmailForm()
		return m, m.emailForm.Init()
	}
	return m, nil
}

// --- Portal form ---

func (m *Model) buildPortalForm() *huh.Form {
	m.fb.portalBaseURL = m.cfg.Portal.BaseURL
	m.fb.portalPoll = strconv.Itoa(m.cfg.Portal.PollIntervalSec)

	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Portal URL").
				Description("Root URL of the portal REST API").
				Placeholder("http://localhost:8000/api").
				Value(&m.fb.portalBaseURL).
				Validate(validateURL),
			huh.NewInput().
				Title("Poll Interval").
				Description("Seconds between notification refreshes").
				Value(&m.fb.portalPoll).
				Validate(validateNumber),
		),
	).WithWidth(m.formWidth())
}

func (m Model) updatePortalForm(msg tea.Msg) (Model, tea.Cmd) {
	if m.portalForm == nil {
		return m, nil
	}

	mdl, cmd := m.portalForm.Update(msg)
	if f, ok := mdl.(*huh.Form); ok {
		m.portalForm = f
	}

	if m.portalForm.State == huh.StateCompleted {
		m.cfg.Portal.BaseURL = strings.TrimRight(m.fb.portalBaseURL, "/")
		m.cfg.Portal.PollIntervalSec, _ = strconv.Atoi(m.fb.portalPoll)
		return m.save()
	}
	if m.portalForm.State == huh.StateAborted {
		m.mode = ModeMenu
		return m, nil
	}

	return m, cmd
}

// --- Email form ---

func (m *Model) buildEmailForm() *huh.Form {
	m.fb.emailEnabled = m.cfg.Email.Enabled
	m.fb.emailHost = m.cfg.Email.Host
	m.fb.emailPort = m.cfg.Email.Port
	m.fb.emailUsername = m.cfg.Email.Username
	m.fb.emailPassword = ""
	m.fb.emailTLS = m.cfg.Email.TLS

	return huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title("Scan inbox for job-alert digests").
				Affirmative("Enabled").
				Negative("Disabled").
				Value(&m.fb.emailEnabled),
			huh.NewInput().
				Title("IMAP Host").
				Placeholder("imap.example.com").
				Value(&m.fb.emailHost),
			huh.NewInput().
				Title("IMAP Port").
				Placeholder("993").
				Value(&m.fb.emailPort).
				Validate(validatePort),
			huh.NewInput().
				Title("Username").
				Placeholder("you@example.com").
				Value(&m.fb.emailUsername),
			huh.NewInput().
				Title("Password").
				Description("Stored in the system keyring; " +
					"leave blank to keep the current one").
				EchoMode(huh.EchoModePassword).
				Value(&m.fb.emailPassword),
			huh.NewConfirm().
				Title("Use TLS").
				Affirmative("Yes").
				Negative("No").
				Value(&m.fb.emailTLS),
		),
	).WithWidth(m.formWidth())
}

func (m Model) updateEmailForm(msg tea.Msg) (Model, tea.Cmd) {
	if m.emailForm == nil {
		return m, nil
	}

	mdl, cmd := m.emailForm.Update(msg)
	if f, ok := mdl.(*huh.Form); ok {
		m.emailForm = f
	}

	if m.emailForm.State == huh.StateCompleted {
		m.cfg.Email.Enabled = m.fb.emailEnabled
		m.cfg.Email.Host = m.fb.emailHost
		m.cfg.Email.Port = m.fb.emailPort
		m.cfg.Email.Username = m.fb.emailUsername
		m.cfg.Email.TLS = m.fb.emailTLS

		if m.fb.emailPassword != "" {
			if err := credential.Set(
				emailPasswordKey, m.fb.emailPassword,
			); err != nil {
				m.statusMsg = fmt.Sprintf(
					"Error saving password: %v", err,
				)
				m.mode = ModeMenu
				return m, nil
			}
		}
		return m.save()
	}
	if m.emailForm.State == huh.StateAborted {
		m.mode = ModeMenu
		return m, nil
	}

	return m, cmd
}

// save persists the configuration and returns to the menu.
func (m Model) save() (Model, tea.Cmd) {
	if err := model.SaveConfig(m.configPath, m.cfg); err != nil {
		m.statusMsg = fmt.Sprintf("Error saving settings: %v", err)
		m.mode = ModeMenu
		return m, nil
	}

	m.statusMsg = "Settings saved."
	m.mode = ModeMenu
	cfg := m.cfg
	return m, func() tea.Msg { return SavedMsg{Config: cfg} }
}

// EmailPassword reads the stored mailbox password from the keyring.
func EmailPassword() (string, error) {
	return credential.Get(emailPasswordKey)
}

// View renders the settings view.
func (m Model) View() string {
	switch m.mode {
	case ModeFormPortal:
		return m.viewForm(m.portalForm)
	case ModeFormEmail:
		return m.viewForm(m.emailForm)
	}
	return m.viewMenu()
}

func (m Model) viewMenu() string {
	var b strings.Builder

	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(theme.ColorWhite).
		MarginBottom(1)

	b.WriteString(titleStyle.Render("Settings"))
	b.WriteString("\n\n")

	sections := []string{
		fmt.Sprintf("Portal  (%s)", m.cfg.Portal.BaseURL),
		fmt.Sprintf("Email alerts  (%s)", enabledLabel(m.cfg.Email.Enabled)),
	}
	for i, s := range sections {
		if i == m.menuIdx {
			b.WriteString(theme.SelectedItemStyle.Render(s))
		} else {
			b.WriteString(theme.ListItemStyle.Render(s))
		}
		b.WriteString("\n")
	}

	if m.statusMsg != "" {
		b.WriteString("\n")
		b.WriteString(lipgloss.NewStyle().
			Foreground(theme.ColorYellow).
			Italic(true).
			Render(m.statusMsg))
	}

	b.WriteString("\n\n")
	b.WriteString(theme.HelpStyle.Render("enter edit | esc back"))

	return lipgloss.NewStyle().
		Padding(1, 2).
		Width(m.width).
		Height(m.height).
		Render(b.String())
}

func (m Model) viewForm(f *huh.Form) string {
	if f == nil {
		return ""
	}
	return lipgloss.NewStyle().
		Padding(1, 2).
		Width(m.width).
		Height(m.height).
		Render(f.View())
}

// SetSize updates the view dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
}

func (m Model) formWidth() int {
	w := m.width - 4
	if w < 40 {
		w = 40
	}
	if w > 100 {
		w = 100
	}
	return w
}

func enabledLabel(on bool) string {
	if on {
		return "enabled"
	}
	return "disabled"
}

// --- Validators ---

func validateURL(s string) error {
	if strings.TrimSpace(s) == "" {
		return fmt.Errorf("URL is required")
	}
	parsed, err := url.Parse(s)
	if err != nil {
		return fmt.Errorf("invalid URL: %w", err)
	}
	if parsed.Scheme == "" || parsed.Host == "" {
		return fmt.Errorf(
			"URL must include scheme and host (e.g., https://example.com)",
		)
	}
	return nil
}

func validateNumber(s string) error {
	if _, err := strconv.Atoi(strings.TrimSpace(s)); err != nil {
		return fmt.Errorf("must be a whole number")
	}
	return nil
}

func validatePort(s string) error {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	for _, c := range s {
		if c < '0' || c > '9' {
			return fmt.Errorf("port must be a number")
		}
	}
	return nil
}
