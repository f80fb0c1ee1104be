package applyform

import (
	"fmt"
	"strconv"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/jobdeck/jobdeck/internal/model"
	"github.com/jobdeck/jobdeck/internal/theme"
)

// SubmittedMsg is dispatched when the user completes the application
// form. The root model performs the portal call.
type SubmittedMsg struct {
	JobID          string
	CoverLetter    string
	ExpectedSalary int
}

// CancelMsg is dispatched when the user abandons the form.
type CancelMsg struct{}

// formBindings holds form field values on the heap so that huh's Value()
// pointers remain valid across Bubble Tea model copies.
type formBindings struct {
	coverLetter    string
	expectedSalary string
}

// Model is the Bubble Tea model for the job application form.
type Model struct {
	form   *huh.Form
	fb     *formBindings
	job    model.Job
	width  int
	height int
}

// New creates a new application form model.
func New(width, height int) Model {
	return Model{
		fb:     &formBindings{},
		width:  width,
		height: height,
	}
}

// Start initializes the form for applying to the given job.
func (m *Model) Start(job model.Job) tea.Cmd {
	m.job = job
	m.fb.coverLetter = ""
	m.fb.expectedSalary = ""
	m.form = m.buildForm()
	return m.form.Init()
}

// Update handles messages for the application form.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if m.form == nil {
		return m, nil
	}

	mdl, cmd := m.form.Update(msg)
	if f, ok := mdl.(*huh.Form); ok {
		m.form = f
	}

	if m.form.State == huh.StateCompleted {
		return m, m.handleSubmit()
	}
	if m.form.State == huh.StateAborted {
		return m, func() tea.Msg { return CancelMsg{} }
	}

	return m, cmd
}

// View renders the application form.
func (m Model) View() string {
	if m.form == nil {
		return ""
	}

	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(theme.ColorWhite).
		MarginBottom(1)

	title := fmt.Sprintf("Apply: %s at %s", m.job.Title, m.job.Company)
	content := titleStyle.Render(title) + "\n" + m.form.View()

	return lipgloss.NewStyle().
		Padding(1, 2).
		Render(content)
}

// SetSize updates the form dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
}

func (m *Model) buildForm() *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewText().
				Title("Cover Letter").
				Placeholder("Why are you a fit for this role?").
				Value(&m.fb.coverLetter).
				Validate(validateRequired("Cover letter")),
			huh.NewInput().
				Title("Expected Salary").
				Placeholder("e.g. 85000 (optional)").
				Value(&m.fb.expectedSalary).
				Validate(validateOptionalNumber),
		),
	).WithWidth(m.formWidth()).WithHeight(m.formHeight())
}

func (m Model) handleSubmit() tea.Cmd {
	jobID := m.job.ID
	cover := m.fb.coverLetter

	salary := 0
	if s := strings.TrimSpace(m.fb.expectedSalary); s != "" {
		salary, _ = strconv.Atoi(s)
	}

	return func() tea.Msg {
		return SubmittedMsg{
			JobID:          jobID,
			CoverLetter:    cover,
			ExpectedSalary: salary,
		}
	}
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

func (m Model) formHeight() int {
	h := m.height - 4
	if h < 10 {
		h = 10
	}
	return h
}

func validateRequired(fieldName string) func(string) error {
	return func(s string) error {
		if strings.TrimSpace(s) == "" {
			return fmt.Errorf("%s is required", fieldName)
		}
		return nil
	}
}

func validateOptionalNumber(s string) error {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	if _, err := strconv.Atoi(s); err != nil {
		return fmt.Errorf("must be a whole number")
	}
	return nil
}
