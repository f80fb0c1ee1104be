package sync

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeRefresher reports every Refresh call on a shared channel.
type fakeRefresher struct {
	kind  RefreshKind
	calls chan RefreshKind
}

func (f *fakeRefresher) Kind() RefreshKind { return f.kind }

func (f *fakeRefresher) Refresh(_ context.Context) (int, error) {
	f.calls <- f.kind
	return 1, nil
}

// collectCalls receives exactly n refresh calls and tallies them by kind.
func collectCalls(t *testing.T, calls <-chan RefreshKind, n int) map[RefreshKind]int {
	t.Helper()

	got := make(map[RefreshKind]int)
	deadline := time.After(5 * time.Second)
	for i := 0; i < n; i++ {
		select {
		case kind := <-calls:
			got[kind]++
		case <-deadline:
			t.Fatalf("timed out after %d of %d refresh calls", i, n)
		}
	}
	return got
}

func assertNoCall(t *testing.T, calls <-chan RefreshKind) {
	t.Helper()

	select {
	case kind := <-calls:
		t.Fatalf("unexpected refresh of %s", kind)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestRefreshAllRunsEveryJob(t *testing.T) {
	calls := make(chan RefreshKind, 16)
	p := New()
	p.Register(&fakeRefresher{kind: RefreshFeeds, calls: calls}, time.Hour)
	p.Register(&fakeRefresher{kind: RefreshEmail, calls: calls}, time.Hour)

	require.NotNil(t, p.Start())
	defer p.Stop()

	// Each loop refreshes once on startup.
	initial := collectCalls(t, calls, 2)
	assert.Equal(t, map[RefreshKind]int{RefreshFeeds: 1, RefreshEmail: 1}, initial)

	// A manual refresh-all must reach both jobs, whichever loop is
	// scheduled first.
	p.RefreshAll()
	triggered := collectCalls(t, calls, 2)
	assert.Equal(t, map[RefreshKind]int{RefreshFeeds: 1, RefreshEmail: 1}, triggered)
}

func TestRefreshTargetsOneJob(t *testing.T) {
	calls := make(chan RefreshKind, 16)
	p := New()
	p.Register(&fakeRefresher{kind: RefreshFeeds, calls: calls}, time.Hour)
	p.Register(&fakeRefresher{kind: RefreshEmail, calls: calls}, time.Hour)

	require.NotNil(t, p.Start())
	defer p.Stop()

	collectCalls(t, calls, 2)

	p.Refresh(RefreshEmail)
	triggered := collectCalls(t, calls, 1)
	assert.Equal(t, map[RefreshKind]int{RefreshEmail: 1}, triggered)
	assertNoCall(t, calls)
}
