package testview

import (
	"context"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/jobdeck/jobdeck/internal/model"
	"github.com/jobdeck/jobdeck/internal/portal"
	"github.com/jobdeck/jobdeck/internal/testguard"
	"github.com/jobdeck/jobdeck/internal/theme"
)

// Mode represents the current state of the test view.
type Mode int

const (
	ModeLoading Mode = iota
	ModeTaking
	ModeSubmitting
	ModeSubmitted
	ModeResults
	ModeError
)

// SubmittedMsg is dispatched after the answers were accepted by the
// portal. The root model refreshes the application list on it.
type SubmittedMsg struct {
	ApplicationID string
}

// ExitMsg is dispatched when the user leaves the test view. Leaving
// does not release the attempt lock.
type ExitMsg struct{}

// testLoadedMsg carries the fetched questions.
type testLoadedMsg struct {
	questions []model.TestQuestion
	duration  time.Duration
	err       error
}

// submitDoneMsg carries the outcome of the submit call.
type submitDoneMsg struct {
	err error
}

// resultsLoadedMsg carries the graded outcome.
type resultsLoadedMsg struct {
	result *model.TestResult
	err    error
}

// tickMsg drives the countdown clock.
type tickMsg time.Time

// Model is the timed skill-test view.
type Model struct {
	client *portal.Client
	guard  *testguard.Guard

	mode      Mode
	appID     string
	questions []model.TestQuestion
	answers   map[string]string

	qIndex    int
	optCursor int

	result *model.TestResult

	errMsg    string
	warnMsg   string
	remaining time.Duration

	width  int
	height int
}

// New creates the test view model.
func New(client *portal.Client, guard *testguard.Guard, width, height int) Model {
	return Model{
		client: client,
		guard:  guard,
		width:  width,
		height: height,
	}
}

// Start begins a test attempt for the application: it fetches the
// questions, records the attempt lock, and starts the countdown.
func (m *Model) Start(app model.Application) tea.Cmd {
	m.mode = ModeLoading
	m.appID = app.ID
	m.questions = nil
	m.answers = make(map[string]string)
	m.qIndex = 0
	m.optCursor = 0
	m.result = nil
	m.errMsg = ""
	m.warnMsg = ""

	client := m.client
	appID := app.ID
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(
			context.Background(), 30*time.Second,
		)
		defer cancel()

		questions, minutes, err := client.Test(ctx, appID)
		return testLoadedMsg{
			questions: questions,
			duration:  time.Duration(minutes) * time.Minute,
			err:       err,
		}
	}
}

// ShowResults opens the view in results mode for a submitted test.
func (m *Model) ShowResults(applicationID string) tea.Cmd {
	m.mode = ModeLoading
	m.appID = applicationID
	m.result = nil
	m.errMsg = ""

	client := m.client
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(
			context.Background(), 30*time.Second,
		)
		defer cancel()

		result, err := client.TestResult(ctx, applicationID)
		return resultsLoadedMsg{result: result, err: err}
	}
}

// Update handles messages for the test view.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case testLoadedMsg:
		if msg.err != nil {
			m.mode = ModeError
			m.errMsg = msg.err.Error()
			return m, nil
		}
		m.questions = msg.questions

		// ErrAlreadyLocked means resuming an existing attempt; the
		// countdown picks up the original expiry.
		_, _ = m.guard.StartTest(
			context.Background(), m.appID, msg.duration,
		)

		m.remaining = m.guard.Remaining(context.Background(), m.appID)
		m.mode = ModeTaking
		return m, m.tick()

	case resultsLoadedMsg:
		if msg.err != nil {
			m.mode = ModeError
			m.errMsg = msg.err.Error()
			return m, nil
		}
		m.result = msg.result
		m.mode = ModeResults
		return m, nil

	case submitDoneMsg:
		if msg.err != nil {
			m.mode = ModeTaking
			m.warnMsg = "Submit failed: " + msg.err.Error() +
				" (press S to retry)"
			return m, m.tick()
		}
		m.guard.ClearLock(context.Background(), m.appID)
		m.mode = ModeSubmitted
		appID := m.appID
		return m, func() tea.Msg {
			return SubmittedMsg{ApplicationID: appID}
		}

	case tickMsg:
		if m.mode != ModeTaking {
			return m, nil
		}
		m.remaining = m.guard.Remaining(context.Background(), m.appID)
		if m.remaining <= 0 {
			// Time is up on the local clock; submit what we have. The
			// server's own timer decides whether it still counts.
			return m.submit()
		}
		return m, m.tick()

	case tea.KeyMsg:
		return m.handleKeys(msg)
	}

	return m, nil
}

// handleKeys processes key input for the test view.
func (m Model) handleKeys(msg tea.KeyMsg) (Model, tea.Cmd) {
	chord := msg.String()

	if m.mode == ModeTaking && testguard.BlockedChord(chord) {
		m.warnMsg = "Copy and paste shortcuts are disabled during the test."
		return m, nil
	}

	switch m.mode {
	case ModeTaking:
		return m.handleTakingKeys(chord)

	case ModeResults, ModeSubmitted, ModeError:
		switch chord {
		case "esc", "enter", "q":
			return m, func() tea.Msg { return ExitMsg{} }
		}
	}

	return m, nil
}

// handleTakingKeys processes navigation and answer keys while the test
// is on screen.
func (m Model) handleTakingKeys(chord string) (Model, tea.Cmd) {
	q := m.currentQuestion()

	switch chord {
	case "esc":
		// The attempt lock stays; the countdown keeps running on the
		// server regardless of what this client shows.
		return m, func() tea.Msg { return ExitMsg{} }

	case "j", "down":
		if q != nil && m.optCursor < len(q.Options)-1 {
			m.optCursor++
		}
		return m, nil

	case "k", "up":
		if m.optCursor > 0 {
			m.optCursor--
		}
		return m, nil

	case "h", "left":
		if m.qIndex > 0 {
			m.qIndex--
			m.syncCursor()
		}
		return m, nil

	case "l", "right":
		if m.qIndex < len(m.questions)-1 {
			m.qIndex++
			m.syncCursor()
		}
		return m, nil

	case "enter", " ":
		if q != nil && m.optCursor < len(q.Options) {
			m.answers[q.ID] = q.Options[m.optCursor]
			if m.qIndex < len(m.questions)-1 {
				m.qIndex++
				m.syncCursor()
			}
		}
		return m, nil

	case "S":
		return m.submit()
	}

	return m, nil
}

// submit sends the recorded answers to the portal.
func (m Model) submit() (Model, tea.Cmd) {
	m.mode = ModeSubmitting

	client := m.client
	appID := m.appID
	answers := make(map[string]string, len(m.answers))
	for k, v := range m.answers {
		answers[k] = v
	}

	return m, func() tea.Msg {
		ctx, cancel := context.WithTimeout(
			context.Background(), 30*time.Second,
		)
		defer cancel()

		return submitDoneMsg{err: client.SubmitTest(ctx, appID, answers)}
	}
}

// tick returns a command that fires the next countdown update.
func (m Model) tick() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// currentQuestion returns the question under the cursor, or nil.
func (m Model) currentQuestion() *model.TestQuestion {
	if m.qIndex < 0 || m.qIndex >= len(m.questions) {
		return nil
	}
	return &m.questions[m.qIndex]
}

// syncCursor points the option cursor at the recorded answer of the
// current question, or the first option.
func (m *Model) syncCursor() {
	m.optCursor = 0
	q := m.currentQuestion()
	if q == nil {
		return
	}
	if answer, ok := m.answers[q.ID]; ok {
		for i, opt := range q.Options {
			if opt == answer {
				m.optCursor = i
				return
			}
		}
	}
}

// View renders the test view.
func (m Model) View() string {
	frame := lipgloss.NewStyle().
		Padding(1, 2).
		Width(m.width).
		Height(m.height)

	switch m.mode {
	case ModeLoading:
		return frame.Render("Loading test...")

	case ModeSubmitting:
		return frame.Render("Submitting answers...")

	case ModeSubmitted:
		return frame.Render(
			lipgloss.NewStyle().
				Bold(true).
				Foreground(theme.ColorGreen).
				Render("Test submitted.") +
				"\n\n" +
				theme.HelpStyle.Render("Press enter to go back."),
		)

	case ModeError:
		return frame.Render(
			theme.ErrorStyle.Render("Test unavailable: "+m.errMsg) +
				"\n\n" +
				theme.HelpStyle.Render("Press esc to go back."),
		)

	case ModeResults:
		return frame.Render(m.viewResults())
	}

	return frame.Render(m.viewTaking())
}

// viewTaking renders the active question with the countdown header.
func (m Model) viewTaking() string {
	var b strings.Builder

	clock := theme.CountdownStyle.Render(formatCountdown(m.remaining))
	progress := fmt.Sprintf(
		"Question %d of %d  (%d answered)",
		m.qIndex+1, len(m.questions), len(m.answers),
	)
	b.WriteString(clock + "  " + theme.HelpStyle.Render(progress))
	b.WriteString("\n\n")

	q := m.currentQuestion()
	if q == nil {
		b.WriteString("No questions.")
		return b.String()
	}

	b.WriteString(lipgloss.NewStyle().Bold(true).Render(q.Prompt))
	b.WriteString("\n\n")

	answered := m.answers[q.ID]
	for i, opt := range q.Options {
		marker := "( )"
		if opt == answered {
			marker = "(x)"
		}
		line := fmt.Sprintf("%s %s", marker, opt)
		if i == m.optCursor {
			line = theme.SelectedItemStyle.Render(line)
		} else {
			line = theme.ListItemStyle.Render(line)
		}
		b.WriteString(line)
		b.WriteString("\n")
	}

	if m.warnMsg != "" {
		b.WriteString("\n")
		b.WriteString(lipgloss.NewStyle().
			Foreground(theme.ColorOrange).
			Render(m.warnMsg))
	}

	b.WriteString("\n\n")
	b.WriteString(theme.HelpStyle.Render(
		"j/k option | h/l question | enter answer | S submit | esc leave",
	))

	return b.String()
}

// viewResults renders the graded outcome.
func (m Model) viewResults() string {
	if m.result == nil {
		return "No results."
	}

	var b strings.Builder

	score := fmt.Sprintf("Score: %.1f / %.1f", m.result.Score, m.result.MaxScore)
	b.WriteString(lipgloss.NewStyle().
		Bold(true).
		Foreground(theme.ColorGreen).
		Render(score))
	b.WriteString("\n")
	b.WriteString(theme.HelpStyle.Render(
		"Submitted " + m.result.SubmittedAt.Format("Jan 02 15:04"),
	))
	b.WriteString("\n\n")

	for i, qr := range m.result.Breakdown {
		mark := theme.ErrorStyle.Render("✗")
		if qr.Correct {
			mark = lipgloss.NewStyle().
				Foreground(theme.ColorGreen).
				Render("✓")
		}
		b.WriteString(fmt.Sprintf("%s Q%d: %s\n", mark, i+1, qr.Answer))
	}

	b.WriteString("\n")
	b.WriteString(theme.HelpStyle.Render("Press esc to go back."))

	return b.String()
}

// formatCountdown renders a duration as MM:SS.
func formatCountdown(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	total := int(d.Seconds())
	return fmt.Sprintf("%02d:%02d", total/60, total%60)
}

// SetSize updates the view dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
}
