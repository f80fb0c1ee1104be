package applist

import (
	"context"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jobdeck/jobdeck/internal/keys"
	"github.com/jobdeck/jobdeck/internal/model"
	"github.com/jobdeck/jobdeck/internal/portal"
	"github.com/jobdeck/jobdeck/internal/testguard"
	"github.com/jobdeck/jobdeck/tests/testutil"
)

func newTestModel(t *testing.T) (Model, *testguard.Guard) {
	t.Helper()

	guard := testguard.New(testutil.NewTestStore(t))
	m := New(
		portal.NewClient("http://portal.invalid"), guard,
		keys.DefaultKeyMap(), 80, 24,
	)
	return m, guard
}

func runeKey(r rune) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}}
}

func TestStartTestRoutesToTestView(t *testing.T) {
	m, _ := newTestModel(t)
	m, _ = m.Update(AppsLoadedMsg{Apps: []model.Application{
		{ID: "app-1", Job: "Go Engineer", TestRequired: true},
	}})

	m, cmd := m.Update(runeKey('t'))
	require.NotNil(t, cmd)

	req, ok := cmd().(StartTestRequestedMsg)
	require.True(t, ok)
	assert.Equal(t, "app-1", req.Application.ID)
	assert.Empty(t, m.statusMsg)
}

func TestStartTestResumesLockedAttempt(t *testing.T) {
	m, guard := newTestModel(t)

	// A test left mid-attempt keeps its lock; re-entering must still
	// reach the test view so the candidate can finish within the window.
	_, err := guard.StartTest(context.Background(), "app-1", 30*time.Minute)
	require.NoError(t, err)

	m, _ = m.Update(AppsLoadedMsg{Apps: []model.Application{
		{ID: "app-1", Job: "Go Engineer", TestRequired: true},
	}})

	m, cmd := m.Update(runeKey('t'))
	require.NotNil(t, cmd)

	req, ok := cmd().(StartTestRequestedMsg)
	require.True(t, ok)
	assert.Equal(t, "app-1", req.Application.ID)
	assert.Empty(t, m.statusMsg)
}

func TestStartTestBlockedAfterSubmission(t *testing.T) {
	m, _ := newTestModel(t)
	m, _ = m.Update(AppsLoadedMsg{Apps: []model.Application{
		{ID: "app-1", Job: "Go Engineer", TestRequired: true, TestSubmitted: true},
	}})

	m, cmd := m.Update(runeKey('t'))
	assert.Nil(t, cmd)
	assert.Equal(t, "Test already submitted. Press v for results.", m.statusMsg)
}

func TestStartTestWithoutTest(t *testing.T) {
	m, _ := newTestModel(t)
	m, _ = m.Update(AppsLoadedMsg{Apps: []model.Application{
		{ID: "app-1", Job: "Go Engineer"},
	}})

	m, cmd := m.Update(runeKey('t'))
	assert.Nil(t, cmd)
	assert.Equal(t, "No test is attached to this application.", m.statusMsg)
}
