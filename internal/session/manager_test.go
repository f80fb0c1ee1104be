package session

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jobdeck/jobdeck/internal/portal"
)

// memTokens is an in-memory TokenStore.
type memTokens struct {
	token   string
	deleted bool
}

func (m *memTokens) Get() (string, error) { return m.token, nil }

func (m *memTokens) Set(token string) error {
	m.token = token
	return nil
}

func (m *memTokens) Delete() error {
	m.token = ""
	m.deleted = true
	return nil
}

// newPortalServer serves the auth endpoints. When authorized is false
// every /auth/me/ request is rejected with 401.
func newPortalServer(t *testing.T, authorized bool) *httptest.Server {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("/auth/login/", func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Username string `json:"username"`
			Password string `json:"password"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		if body.Password != "hunter2" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		json.NewEncoder(w).Encode(map[string]string{"token": "tok-123"})
	})
	mux.HandleFunc("/auth/me/", func(w http.ResponseWriter, r *http.Request) {
		if !authorized {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		json.NewEncoder(w).Encode(map[string]interface{}{
			"username":         "dana",
			"role":             "candidate",
			"profile_complete": true,
		})
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestLoginStoresTokenAndFetchesUser(t *testing.T) {
	srv := newPortalServer(t, true)
	tokens := &memTokens{}
	m := NewManager(portal.NewClient(srv.URL), tokens)

	err := m.Login(context.Background(), "dana", "hunter2")
	require.NoError(t, err)

	assert.Equal(t, "tok-123", tokens.token)

	snap := m.Snapshot()
	assert.True(t, snap.Authenticated)
	require.NotNil(t, snap.User)
	assert.Equal(t, "dana", snap.User.Username)
	assert.Equal(t, 0, snap.UnreadCount)
}

func TestLoginRejectedCredentials(t *testing.T) {
	srv := newPortalServer(t, true)
	m := NewManager(portal.NewClient(srv.URL), &memTokens{})

	err := m.Login(context.Background(), "dana", "wrong")
	require.Error(t, err)
	assert.True(t, portal.IsAuthError(err))
	assert.False(t, m.Snapshot().Authenticated)
}

func TestLoginUserFetchFailureLeavesLoggedOut(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/auth/login/", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{"token": "tok-123"})
	})
	mux.HandleFunc("/auth/me/", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	tokens := &memTokens{}
	m := NewManager(portal.NewClient(srv.URL), tokens)

	err := m.Login(context.Background(), "dana", "hunter2")
	require.Error(t, err)
	assert.False(t, portal.IsAuthError(err))

	// The session never shows authenticated-with-no-user; the token
	// stays stored so a later Restore can retry the user fetch.
	assert.Equal(t, Snapshot{}, m.Snapshot())
	assert.Equal(t, "tok-123", tokens.token)
	assert.False(t, tokens.deleted)
}

func TestRestoreWithoutToken(t *testing.T) {
	srv := newPortalServer(t, true)
	m := NewManager(portal.NewClient(srv.URL), &memTokens{})

	assert.False(t, m.Restore())
	assert.False(t, m.Snapshot().Authenticated)
}

func TestWhoAmIExpiredSessionLogsOut(t *testing.T) {
	srv := newPortalServer(t, false)
	tokens := &memTokens{token: "stale-token"}
	m := NewManager(portal.NewClient(srv.URL), tokens)

	require.True(t, m.Restore())

	_, err := m.WhoAmI(context.Background())
	require.Error(t, err)
	assert.True(t, portal.IsAuthError(err))

	// The 401 terminated the session and removed the stored token.
	assert.True(t, tokens.deleted)
	assert.Equal(t, Snapshot{}, m.Snapshot())
}

func TestLogoutResetsEverything(t *testing.T) {
	srv := newPortalServer(t, true)
	tokens := &memTokens{token: "tok-123"}
	m := NewManager(portal.NewClient(srv.URL), tokens)

	require.True(t, m.Restore())
	m.SetUnreadCount(7)
	require.Equal(t, 7, m.Snapshot().UnreadCount)

	m.Logout()

	assert.True(t, tokens.deleted)
	assert.Equal(t, Snapshot{}, m.Snapshot())
}

func TestSetUnreadCountIgnoredWhileLoggedOut(t *testing.T) {
	srv := newPortalServer(t, true)
	m := NewManager(portal.NewClient(srv.URL), &memTokens{})

	m.SetUnreadCount(5)

	assert.Equal(t, 0, m.Snapshot().UnreadCount)
}
