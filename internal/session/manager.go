// Package session holds the process-wide authenticated-session state:
// who is logged in and how many notifications they have not read. It is
// an explicit injected object with a defined lifecycle, not an ambient
// singleton, so consumers stay testable.
package session

import (
	"context"
	"fmt"
	"log"
	"sync"

	"github.com/jobdeck/jobdeck/internal/credential"
	"github.com/jobdeck/jobdeck/internal/model"
	"github.com/jobdeck/jobdeck/internal/portal"
)

// tokenKey is the keyring entry holding the portal session token.
const tokenKey = "portal-token"

// TokenStore persists the session token across restarts.
type TokenStore interface {
	Get() (string, error)
	Set(token string) error
	Delete() error
}

// keyringTokenStore stores the token in the system keyring.
type keyringTokenStore struct{}

// NewKeyringTokenStore returns the keyring-backed TokenStore used in
// production.
func NewKeyringTokenStore() TokenStore {
	return keyringTokenStore{}
}

func (keyringTokenStore) Get() (string, error) {
	return credential.Get(tokenKey)
}

func (keyringTokenStore) Set(token string) error {
	return credential.Set(tokenKey, token)
}

func (keyringTokenStore) Delete() error {
	return credential.Delete(tokenKey)
}

// Snapshot is an atomic copy of the session state. UnreadCount is only
// meaningful while Authenticated is true; it is always 0 otherwise.
type Snapshot struct {
	Authenticated bool
	User          *model.User
	UnreadCount   int
}

// Manager owns the mutable session state. All writes to the current user
// and the unread count go through it; components must not cache copies
// that can drift.
type Manager struct {
	client *portal.Client
	tokens TokenStore

	mu            sync.Mutex
	authenticated bool
	user          *model.User
	unreadCount   int
}

// NewManager creates a session manager bound to the given portal client
// and token store.
func NewManager(client *portal.Client, tokens TokenStore) *Manager {
	return &Manager{client: client, tokens: tokens}
}

// Restore loads a previously stored token and arms the client with it.
// It reports whether a token was found; the caller should follow up with
// WhoAmI to validate it.
func (m *Manager) Restore() bool {
	token, err := m.tokens.Get()
	if err != nil || token == "" {
		return false
	}

	m.client.SetToken(token)

	m.mu.Lock()
	m.authenticated = true
	m.mu.Unlock()
	return true
}

// Login exchanges credentials for a token, stores it, and fetches the
// current user. A token-store failure is logged but does not fail the
// login; it only costs session persistence across restarts.
func (m *Manager) Login(
	ctx context.Context, username, password string,
) error {
	token, err := m.client.Login(ctx, username, password)
	if err != nil {
		return fmt.Errorf("logging in as %s: %w", username, err)
	}

	if err := m.tokens.Set(token); err != nil {
		log.Printf("storing session token: %v", err)
	}

	m.mu.Lock()
	m.authenticated = true
	m.mu.Unlock()

	if _, err := m.WhoAmI(ctx); err != nil {
		// A 401 already went through Logout. Any other failure must
		// not leave the session authenticated with no user; the stored
		// token is kept so a later Restore can pick it up.
		if !portal.IsAuthError(err) {
			m.mu.Lock()
			m.authenticated = false
			m.user = nil
			m.unreadCount = 0
			m.mu.Unlock()
		}
		return err
	}
	return nil
}

// Logout deletes the stored token and atomically resets the session to
// {unauthenticated, no user, zero unread}. No reader can observe an
// intermediate state.
func (m *Manager) Logout() {
	if err := m.tokens.Delete(); err != nil {
		log.Printf("deleting session token: %v", err)
	}
	m.client.SetToken("")

	m.mu.Lock()
	m.authenticated = false
	m.user = nil
	m.unreadCount = 0
	m.mu.Unlock()
}

// WhoAmI fetches the current user from the portal. A 401 terminates the
// session: Logout is invoked and the AuthError is returned so the caller
// can route to the login screen. This is a hard authorization boundary,
// never retried.
func (m *Manager) WhoAmI(ctx context.Context) (*model.User, error) {
	user, err := m.client.Me(ctx)
	if err != nil {
		if portal.IsAuthError(err) {
			m.Logout()
		}
		return nil, err
	}

	m.mu.Lock()
	m.user = user
	m.mu.Unlock()

	return user, nil
}

// SetUnreadCount overwrites the aggregate unread count. Ignored while
// logged out so a late aggregation result cannot resurrect a count after
// Logout.
func (m *Manager) SetUnreadCount(n int) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.authenticated {
		return
	}
	m.unreadCount = n
}

// Snapshot returns an atomic copy of the session state.
func (m *Manager) Snapshot() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.authenticated {
		return Snapshot{}
	}
	return Snapshot{
		Authenticated: true,
		User:          m.user,
		UnreadCount:   m.unreadCount,
	}
}
