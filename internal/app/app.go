package app

import (
	"context"
	"fmt"
	"log"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jobdeck/jobdeck/internal/alerts"
	"github.com/jobdeck/jobdeck/internal/keys"
	"github.com/jobdeck/jobdeck/internal/model"
	"github.com/jobdeck/jobdeck/internal/portal"
	"github.com/jobdeck/jobdeck/internal/session"
	"github.com/jobdeck/jobdeck/internal/source/email"
	"github.com/jobdeck/jobdeck/internal/store"
	appsync "github.com/jobdeck/jobdeck/internal/sync"
	"github.com/jobdeck/jobdeck/internal/testguard"
	"github.com/jobdeck/jobdeck/internal/ui"
	"github.com/jobdeck/jobdeck/internal/ui/alertsview"
	"github.com/jobdeck/jobdeck/internal/ui/applist"
	"github.com/jobdeck/jobdeck/internal/ui/applyform"
	"github.com/jobdeck/jobdeck/internal/ui/command"
	helpview "github.com/jobdeck/jobdeck/internal/ui/help"
	"github.com/jobdeck/jobdeck/internal/ui/jobdetail"
	"github.com/jobdeck/jobdeck/internal/ui/joblist"
	"github.com/jobdeck/jobdeck/internal/ui/login"
	"github.com/jobdeck/jobdeck/internal/ui/notifications"
	"github.com/jobdeck/jobdeck/internal/ui/settings"
	"github.com/jobdeck/jobdeck/internal/ui/testview"
)

// ViewState represents the current active view in the application.
type ViewState int

const (
	ViewLogin ViewState = iota
	ViewJobs
	ViewJobDetail
	ViewApply
	ViewApplications
	ViewNotifications
	ViewEmailAlerts
	ViewTest
	ViewHelp
	ViewCommand
	ViewSettings
)

// sessionValidatedMsg carries the outcome of validating a restored token.
type sessionValidatedMsg struct {
	err error
}

// loginResultMsg carries the outcome of a login attempt.
type loginResultMsg struct {
	err error
}

// applyResultMsg carries the outcome of submitting an application.
type applyResultMsg struct {
	jobID string
	err   error
}

// Model is the root Bubble Tea model that manages view routing, layout,
// session state, and background polling.
type Model struct {
	currentView  ViewState
	previousView ViewState
	layout       ui.Layout

	cfg        *model.AppConfig
	configPath string

	store   *store.SQLiteStore
	client  *portal.Client
	session *session.Manager
	agg     *alerts.Aggregator
	guard   *testguard.Guard
	poller  *appsync.Poller
	keys    *keys.KeyMap

	loginView    login.Model
	jobList      joblist.Model
	jobDetail    jobdetail.Model
	applyForm    applyform.Model
	appList      applist.Model
	notifView    notifications.Model
	alertsView   alertsview.Model
	testView     testview.Model
	helpView     helpview.Model
	commandView  command.Model
	settingsView settings.Model

	ready         bool
	pollerStarted bool
	statusMsg     string
}

// New creates the root application model and wires the portal client,
// session, aggregator, test guard, and poller around the given store.
func New(cfg *model.AppConfig, configPath string, st *store.SQLiteStore) Model {
	k := keys.DefaultKeyMap()

	client := portal.NewClient(cfg.Portal.BaseURL)
	sess := session.NewManager(client, session.NewKeyringTokenStore())
	agg := alerts.New(client, sess, st)
	guard := testguard.New(st)

	poller := appsync.New()
	poller.Register(
		appsync.NewFeedsRefresher(agg),
		time.Duration(cfg.Portal.PollIntervalSec)*time.Second,
	)
	if cfg.Email.Enabled {
		if password, err := settings.EmailPassword(); err == nil && password != "" {
			scanner := email.NewScanner(email.Config{
				Host:       cfg.Email.Host,
				Port:       cfg.Email.Port,
				Username:   cfg.Email.Username,
				Password:   password,
				TLS:        cfg.Email.TLS,
				FromFilter: cfg.Email.FromFilter,
			}, st)
			poller.Register(
				appsync.NewEmailRefresher(scanner),
				time.Duration(cfg.Email.PollIntervalSec)*time.Second,
			)
		} else {
			log.Printf("email alerts enabled but no mailbox password stored")
		}
	}

	return Model{
		currentView:  ViewLogin,
		cfg:          cfg,
		configPath:   configPath,
		store:        st,
		client:       client,
		session:      sess,
		agg:          agg,
		guard:        guard,
		poller:       poller,
		keys:         k,
		loginView:    login.New(80, 24),
		jobList:      joblist.New(client, st, k, 80, 24),
		jobDetail:    jobdetail.New(client, st, k, 80, 24),
		applyForm:    applyform.New(80, 24),
		appList:      applist.New(client, guard, k, 80, 24),
		notifView:    notifications.New(agg, k, 80, 24),
		alertsView:   alertsview.New(st, k, 80, 24),
		testView:     testview.New(client, guard, 80, 24),
		helpView:     helpview.New(k, 80, 24),
		commandView:  command.New(80, 24),
		settingsView: settings.New(cfg, configPath, k, 80, 24),
	}
}

// Init restores a stored session if one exists, otherwise shows login.
func (m Model) Init() tea.Cmd {
	if m.session.Restore() {
		return m.validateSession()
	}
	return m.loginView.Init()
}

// validateSession checks the restored token against the portal.
func (m Model) validateSession() tea.Cmd {
	sess := m.session
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(
			context.Background(), 30*time.Second,
		)
		defer cancel()

		_, err := sess.WhoAmI(ctx)
		return sessionValidatedMsg{err: err}
	}
}

// Update handles messages and dispatches to the active view.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.layout = ui.NewLayout(msg.Width, msg.Height)
		m.ready = true
		w := m.layout.ContentWidth()
		h := m.layout.ContentHeight()
		m.loginView.SetSize(w, h)
		m.jobList.SetSize(w, h)
		m.jobDetail.SetSize(w, h)
		m.applyForm.SetSize(w, h)
		m.appList.SetSize(w, h)
		m.notifView.SetSize(w, h)
		m.alertsView.SetSize(w, h)
		m.testView.SetSize(w, h)
		m.helpView.SetSize(w, h)
		m.commandView.SetSize(w, h)
		m.settingsView.SetSize(w, h)
		// Forward to active view so huh forms can calculate their layout.
		return m.updateActiveView(msg)

	case sessionValidatedMsg:
		if msg.err != nil {
			m.session.Logout()
			m.currentView = ViewLogin
			message := "Could not reach the portal: " + msg.err.Error()
			if portal.IsAuthError(msg.err) {
				message = "Session expired. Please sign in again."
			}
			return m, m.loginView.Start(message)
		}
		return m.enterMain()

	case login.SubmittedMsg:
		return m, m.doLogin(msg.Username, msg.Password)

	case loginResultMsg:
		if msg.err != nil {
			return m, m.loginView.SetError(msg.err)
		}
		return m.enterMain()

	case appsync.ResultMsg:
		return m.handleRefreshResult(msg)

	case joblist.SelectedJobMsg:
		m.previousView = m.currentView
		m.currentView = ViewJobDetail
		return m, m.jobDetail.Load(msg.JobID)

	case joblist.ApplyRequestedMsg:
		m.previousView = m.currentView
		m.currentView = ViewApply
		return m, m.applyForm.Start(msg.Job)

	case jobdetail.ApplyMsg:
		m.previousView = m.currentView
		m.currentView = ViewApply
		return m, m.applyForm.Start(msg.Job)

	case jobdetail.BackMsg:
		m.currentView = ViewJobs
		return m, nil

	case applyform.SubmittedMsg:
		return m, m.submitApplication(msg)

	case applyform.CancelMsg:
		m.currentView = m.previousView
		return m, nil

	case applyResultMsg:
		if msg.err != nil {
			m.statusMsg = "Application failed: " + msg.err.Error()
			m.currentView = ViewJobs
			return m, nil
		}
		m.statusMsg = "Application submitted."
		m.currentView = ViewApplications
		return m, m.appList.Load()

	case applist.StartTestRequestedMsg:
		m.previousView = m.currentView
		m.currentView = ViewTest
		return m, m.testView.Start(msg.Application)

	case applist.ViewResultsRequestedMsg:
		m.previousView = m.currentView
		m.currentView = ViewTest
		return m, m.testView.ShowResults(msg.ApplicationID)

	case testview.SubmittedMsg:
		// The lock is cleared; refresh the list behind the test view.
		return m, m.appList.Load()

	case testview.ExitMsg:
		m.currentView = ViewApplications
		return m, m.appList.Load()

	case notifications.OpenNotificationMsg:
		return m.openNotification(msg.Notification)

	case command.CommandMsg:
		m.currentView = m.previousView
		return m.executeCommand(string(msg))

	case command.CancelMsg:
		m.currentView = m.previousView
		return m, nil

	case settings.DoneMsg:
		m.currentView = m.previousView
		return m, nil

	case settings.SavedMsg:
		m.cfg = msg.Config
		m.client.SetBaseURL(msg.Config.Portal.BaseURL)
		m.statusMsg = "Settings saved. Email changes apply after restart."
		return m, nil

	case tea.KeyMsg:
		if handled, mm, cmd := m.handleGlobalKeys(msg); handled {
			return mm, cmd
		}
	}

	return m.updateActiveView(msg)
}

// enterMain switches to the jobs view and starts background polling.
func (m Model) enterMain() (tea.Model, tea.Cmd) {
	m.currentView = ViewJobs
	m.statusMsg = ""

	cmds := []tea.Cmd{m.jobList.Init()}
	if !m.pollerStarted {
		m.pollerStarted = true
		cmds = append(cmds, m.poller.Start())
	}
	return m, tea.Batch(cmds...)
}

// doLogin performs the login call off the UI loop.
func (m Model) doLogin(username, password string) tea.Cmd {
	sess := m.session
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(
			context.Background(), 30*time.Second,
		)
		defer cancel()

		return loginResultMsg{err: sess.Login(ctx, username, password)}
	}
}

// submitApplication performs the apply call off the UI loop.
func (m Model) submitApplication(msg applyform.SubmittedMsg) tea.Cmd {
	client := m.client
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(
			context.Background(), 30*time.Second,
		)
		defer cancel()

		err := client.Apply(
			ctx, msg.JobID, msg.CoverLetter, msg.ExpectedSalary,
		)
		return applyResultMsg{jobID: msg.JobID, err: err}
	}
}

// handleRefreshResult reacts to a background refresh finishing.
func (m Model) handleRefreshResult(msg appsync.ResultMsg) (tea.Model, tea.Cmd) {
	waitCmd := m.poller.WaitForNextResult()

	if msg.AuthExpired {
		m.session.Logout()
		m.currentView = ViewLogin
		return m, tea.Batch(
			waitCmd,
			m.loginView.Start("Session expired. Please sign in again."),
		)
	}

	if msg.Error != nil {
		m.statusMsg = fmt.Sprintf("%s refresh failed: %v", msg.Kind, msg.Error)
		return m, waitCmd
	}
	m.statusMsg = ""

	var cmds []tea.Cmd
	cmds = append(cmds, waitCmd)

	switch msg.Kind {
	case appsync.RefreshFeeds:
		if m.currentView == ViewNotifications {
			var cmd tea.Cmd
			m.notifView, cmd = m.notifView.Update(
				notifications.FeedLoadedMsg{Result: m.agg.Last()},
			)
			cmds = append(cmds, cmd)
		}
	case appsync.RefreshEmail:
		if m.currentView == ViewEmailAlerts && msg.Count > 0 {
			cmds = append(cmds, m.alertsView.Load())
		}
	}

	return m, tea.Batch(cmds...)
}

// openNotification routes a selected notification to its subject.
func (m Model) openNotification(n model.Notification) (tea.Model, tea.Cmd) {
	m.previousView = m.currentView

	switch n.Kind {
	case model.KindJobMatch:
		m.currentView = ViewJobDetail
		return m, m.jobDetail.Load(n.JobID)
	case model.KindAppStatus:
		m.currentView = ViewApplications
		return m, m.appList.Load()
	}
	return m, nil
}

// handleGlobalKeys processes keys that work regardless of the focused
// view. Views that own text input or a running test see keys first in
// the sense that globals are suppressed for them.
func (m Model) handleGlobalKeys(msg tea.KeyMsg) (bool, tea.Model, tea.Cmd) {
	chord := msg.String()

	if chord == "ctrl+c" {
		m.poller.Stop()
		return true, m, tea.Quit
	}

	if m.inputView() {
		return false, m, nil
	}

	switch chord {
	case "q":
		if m.listView() {
			m.poller.Stop()
			return true, m, tea.Quit
		}

	case "?":
		if m.currentView == ViewHelp {
			m.currentView = m.previousView
			return true, m, nil
		}
		m.previousView = m.currentView
		m.currentView = ViewHelp
		return true, m, nil

	case ":":
		m.previousView = m.currentView
		m.currentView = ViewCommand
		return true, m, m.commandView.Focus()

	case "1":
		mm, cmd := m.switchTo(ViewJobs, m.jobList.LoadJobs())
		return true, mm, cmd
	case "2":
		mm, cmd := m.switchTo(ViewApplications, m.appList.Load())
		return true, mm, cmd
	case "3":
		mm, cmd := m.switchTo(ViewNotifications, m.notifView.Load())
		return true, mm, cmd
	case "4":
		mm, cmd := m.switchTo(ViewEmailAlerts, m.alertsView.Load())
		return true, mm, cmd

	case "S":
		if m.listView() {
			m.previousView = m.currentView
			m.currentView = ViewSettings
			return true, m, nil
		}
	}

	return false, m, nil
}

// switchTo changes the active list view and kicks off its reload. Only
// reachable from non-input views; the global key handler filters those.
func (m Model) switchTo(v ViewState, cmd tea.Cmd) (tea.Model, tea.Cmd) {
	if m.inputView() {
		return m, nil
	}
	m.previousView = m.currentView
	m.currentView = v
	m.statusMsg = ""
	return m, cmd
}

// inputView reports whether the active view owns raw key input.
func (m Model) inputView() bool {
	switch m.currentView {
	case ViewLogin, ViewApply, ViewSettings, ViewCommand, ViewTest:
		return true
	case ViewJobs:
		// The search prompt consumes text while open.
		return m.jobList.Searching()
	}
	return false
}

// listView reports whether one of the four main list views is active.
func (m Model) listView() bool {
	switch m.currentView {
	case ViewJobs, ViewApplications, ViewNotifications, ViewEmailAlerts:
		return true
	}
	return false
}

// updateActiveView dispatches the message to the currently active view.
func (m Model) updateActiveView(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch m.currentView {
	case ViewLogin:
		m.loginView, cmd = m.loginView.Update(msg)
	case ViewJobs:
		m.jobList, cmd = m.jobList.Update(msg)
	case ViewJobDetail:
		m.jobDetail, cmd = m.jobDetail.Update(msg)
	case ViewApply:
		m.applyForm, cmd = m.applyForm.Update(msg)
	case ViewApplications:
		m.appList, cmd = m.appList.Update(msg)
	case ViewNotifications:
		m.notifView, cmd = m.notifView.Update(msg)
	case ViewEmailAlerts:
		m.alertsView, cmd = m.alertsView.Update(msg)
	case ViewTest:
		m.testView, cmd = m.testView.Update(msg)
	case ViewHelp:
		m.helpView, cmd = m.helpView.Update(msg)
	case ViewCommand:
		m.commandView, cmd = m.commandView.Update(msg)
	case ViewSettings:
		m.settingsView, cmd = m.settingsView.Update(msg)
	}

	return m, cmd
}

// View renders the full terminal UI using the layout manager.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}

	snap := m.session.Snapshot()

	title := "jobdeck"
	if snap.Authenticated && snap.User != nil {
		title = "jobdeck — " + snap.User.Username
	}

	header := m.layout.RenderHeader(title, snap.UnreadCount, m.syncStatus())
	content := m.renderContent()
	statusBar := m.layout.RenderStatusBar(m.keyHints())

	return m.layout.RenderWithFrame(header, content, statusBar)
}

// renderContent returns the rendered string for the current active view.
func (m Model) renderContent() string {
	switch m.currentView {
	case ViewLogin:
		return m.loginView.View()
	case ViewJobs:
		return m.jobList.View()
	case ViewJobDetail:
		return m.jobDetail.View()
	case ViewApply:
		return m.applyForm.View()
	case ViewApplications:
		return m.appList.View()
	case ViewNotifications:
		return m.notifView.View()
	case ViewEmailAlerts:
		return m.alertsView.View()
	case ViewTest:
		return m.testView.View()
	case ViewHelp:
		return m.helpView.View()
	case ViewCommand:
		return m.commandView.View()
	case ViewSettings:
		return m.settingsView.View()
	default:
		return ""
	}
}

// syncStatus returns a short string describing the combined refresh state.
func (m Model) syncStatus() string {
	if !m.pollerStarted {
		return ""
	}

	statuses := m.poller.GetStatuses()
	running := 0
	errCount := 0
	for _, s := range statuses {
		switch s.State {
		case appsync.StateRunning:
			running++
		case appsync.StateError:
			errCount++
		}
	}

	if running > 0 {
		return "refreshing"
	}
	if errCount > 0 {
		return "offline"
	}
	return "idle"
}

// keyHints returns keyboard shortcut hints for the status bar.
func (m Model) keyHints() string {
	if m.statusMsg != "" && m.listView() {
		return m.statusMsg
	}

	switch m.currentView {
	case ViewLogin:
		return "enter sign in"
	case ViewJobs:
		return "q quit | ? help | / search | s save | a apply | " +
			"tab sort | 1-4 views"
	case ViewJobDetail:
		return "a apply | s save | j/k scroll | esc back"
	case ViewApply:
		return "enter submit | esc cancel"
	case ViewApplications:
		return "t start test | v results | r refresh | 1-4 views"
	case ViewNotifications:
		return "m mark read | M mark all | enter open | r refresh | 1-4 views"
	case ViewEmailAlerts:
		return "m mark read | r refresh | 1-4 views"
	case ViewTest:
		return "j/k option | h/l question | enter answer | S submit"
	case ViewHelp:
		return "? close help"
	case ViewCommand:
		return "enter execute | esc back"
	case ViewSettings:
		return "enter edit | esc back"
	default:
		return "q quit | ? help"
	}
}

// executeCommand handles a command string from the command palette.
func (m Model) executeCommand(cmd string) (tea.Model, tea.Cmd) {
	switch cmd {
	case "jobs":
		return m.switchTo(ViewJobs, m.jobList.LoadJobs())
	case "applications", "apps":
		return m.switchTo(ViewApplications, m.appList.Load())
	case "notifications":
		return m.switchTo(ViewNotifications, m.notifView.Load())
	case "alerts", "email":
		return m.switchTo(ViewEmailAlerts, m.alertsView.Load())
	case "settings", "config":
		m.previousView = m.currentView
		m.currentView = ViewSettings
		return m, nil
	case "refresh", "sync":
		m.poller.RefreshAll()
		return m, nil
	case "logout":
		m.session.Logout()
		m.currentView = ViewLogin
		return m, m.loginView.Start("Signed out.")
	case "quit", "q":
		m.poller.Stop()
		return m, tea.Quit
	default:
		m.statusMsg = fmt.Sprintf("Unknown command: %s", cmd)
		return m, nil
	}
}
