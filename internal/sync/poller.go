package sync

import (
	"context"
	"errors"
	gosync "sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jobdeck/jobdeck/internal/alerts"
	"github.com/jobdeck/jobdeck/internal/portal"
	"github.com/jobdeck/jobdeck/internal/source/email"
)

// RefreshKind identifies a background refresh job.
type RefreshKind string

const (
	RefreshFeeds RefreshKind = "feeds"
	RefreshEmail RefreshKind = "email"
)

// State represents the current state of a refresh job.
type State int

const (
	StateIdle State = iota
	StateRunning
	StateError
)

// Status holds the refresh state for a single job.
type Status struct {
	Kind     RefreshKind
	State    State
	LastSync time.Time
	Error    error
}

// ResultMsg is a tea.Msg sent when a refresh completes.
type ResultMsg struct {
	Kind RefreshKind

	// Count is the unread aggregate for feeds, or the number of newly
	// stored alerts for email.
	Count int

	Error error

	// AuthExpired is set when the portal rejected the session token; the
	// UI must route to the login screen.
	AuthExpired bool
}

// refreshTimeout is the maximum time allowed for a single refresh.
const refreshTimeout = 30 * time.Second

// Refresher is one background refresh job.
type Refresher interface {
	Kind() RefreshKind
	Refresh(ctx context.Context) (int, error)
}

// feedsRefresher reloads both notification feeds via the aggregator.
type feedsRefresher struct {
	agg *alerts.Aggregator
}

// NewFeedsRefresher wraps the aggregator as a poller job.
func NewFeedsRefresher(agg *alerts.Aggregator) Refresher {
	return &feedsRefresher{agg: agg}
}

func (f *feedsRefresher) Kind() RefreshKind { return RefreshFeeds }

func (f *feedsRefresher) Refresh(ctx context.Context) (int, error) {
	result, err := f.agg.LoadAll(ctx)
	if err != nil {
		return 0, err
	}
	return result.UnreadCount, nil
}

// emailRefresher scans the inbox for new job-alert digests.
type emailRefresher struct {
	scanner *email.Scanner
}

// NewEmailRefresher wraps the digest scanner as a poller job.
func NewEmailRefresher(scanner *email.Scanner) Refresher {
	return &emailRefresher{scanner: scanner}
}

func (e *emailRefresher) Kind() RefreshKind { return RefreshEmail }

func (e *emailRefresher) Refresh(ctx context.Context) (int, error) {
	return e.scanner.Scan(ctx)
}

// entry holds a registered refresher, its polling interval, and its own
// trigger channel so a manual trigger for one job can never be consumed
// and dropped by another job's loop.
type entry struct {
	r        Refresher
	interval time.Duration
	trigger  chan struct{}
}

// Poller orchestrates background polling of registered refresh jobs.
type Poller struct {
	entries  []entry
	statuses map[RefreshKind]*Status
	resultCh chan ResultMsg
	stopCh   chan struct{}
	mu       gosync.Mutex
	running  bool
}

// New creates a new Poller.
func New() *Poller {
	return &Poller{
		statuses: make(map[RefreshKind]*Status),
		resultCh: make(chan ResultMsg, 16),
		stopCh:   make(chan struct{}),
	}
}

// Register adds a refresh job with its polling interval.
func (p *Poller) Register(r Refresher, interval time.Duration) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.entries = append(p.entries, entry{
		r:        r,
		interval: interval,
		trigger:  make(chan struct{}, 1),
	})
	p.statuses[r.Kind()] = &Status{
		Kind:  r.Kind(),
		State: StateIdle,
	}
}

// Start returns a tea.Cmd that starts all polling goroutines and
// subscribes to results. The returned command waits on the result
// channel and returns ResultMsg messages to the Bubble Tea runtime.
func (p *Poller) Start() tea.Cmd {
	p.mu.Lock()
	if p.running {
		p.mu.Unlock()
		return nil
	}
	p.running = true
	p.mu.Unlock()

	for _, e := range p.entries {
		go p.pollLoop(e)
	}

	return p.waitForResult()
}

// Stop halts all polling goroutines.
func (p *Poller) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.running {
		return
	}

	close(p.stopCh)
	p.running = false
}

// RefreshAll triggers an immediate run of every registered job.
func (p *Poller) RefreshAll() {
	p.mu.Lock()
	entries := make([]entry, len(p.entries))
	copy(entries, p.entries)
	p.mu.Unlock()

	for _, e := range entries {
		select {
		case e.trigger <- struct{}{}:
		default:
			// A trigger is already pending; one run is enough.
		}
	}
}

// Refresh triggers an immediate run of a single job kind.
func (p *Poller) Refresh(kind RefreshKind) {
	p.mu.Lock()
	defer p.mu.Unlock()

	for _, e := range p.entries {
		if e.r.Kind() != kind {
			continue
		}
		select {
		case e.trigger <- struct{}{}:
		default:
		}
		return
	}
}

// GetStatuses returns the current status of all registered jobs.
func (p *Poller) GetStatuses() []Status {
	p.mu.Lock()
	defer p.mu.Unlock()

	statuses := make([]Status, 0, len(p.statuses))
	for _, s := range p.statuses {
		statuses = append(statuses, *s)
	}
	return statuses
}

// pollLoop runs the polling loop for a single job.
func (p *Poller) pollLoop(e entry) {
	interval := e.interval
	if interval <= 0 {
		interval = 120 * time.Second
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	kind := e.r.Kind()

	// Do an initial refresh immediately.
	p.doRefresh(e, kind)

	for {
		select {
		case <-p.stopCh:
			return
		case <-ticker.C:
			p.doRefresh(e, kind)
		case <-e.trigger:
			p.doRefresh(e, kind)
		}
	}
}

// doRefresh performs a single refresh and sends a ResultMsg on the
// result channel.
func (p *Poller) doRefresh(e entry, kind RefreshKind) {
	p.setStatus(kind, StateRunning, nil)

	ctx, cancel := context.WithTimeout(context.Background(), refreshTimeout)
	defer cancel()

	count, err := e.r.Refresh(ctx)

	if errors.Is(err, alerts.ErrStale) {
		// A newer load already won; nothing to report.
		p.setStatus(kind, StateIdle, nil)
		return
	}

	if err != nil {
		p.setStatus(kind, StateError, err)
		p.sendResult(ResultMsg{
			Kind:        kind,
			Error:       err,
			AuthExpired: portal.IsAuthError(err),
		})
		return
	}

	p.setStatus(kind, StateIdle, nil)
	p.sendResult(ResultMsg{Kind: kind, Count: count})
}

// setStatus updates the status for a job kind.
func (p *Poller) setStatus(kind RefreshKind, state State, err error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	status, ok := p.statuses[kind]
	if !ok {
		return
	}

	status.State = state
	status.Error = err
	if state == StateIdle && err == nil {
		status.LastSync = time.Now()
	}
}

// sendResult sends a ResultMsg on the result channel without blocking.
func (p *Poller) sendResult(msg ResultMsg) {
	select {
	case p.resultCh <- msg:
	default:
		// Drop if channel is full to avoid blocking the poller.
	}
}

// waitForResult returns a tea.Cmd that waits for the next result from
// the result channel.
func (p *Poller) waitForResult() tea.Cmd {
	return func() tea.Msg {
		result, ok := <-p.resultCh
		if !ok {
			return nil
		}
		return result
	}
}

// WaitForNextResult returns a tea.Cmd that waits for the next refresh
// result. Call after processing a ResultMsg to keep listening.
func (p *Poller) WaitForNextResult() tea.Cmd {
	return p.waitForResult()
}
