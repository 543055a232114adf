// ABOUTME: Session state machine owning identity and the auth lifecycle
// ABOUTME: Drives project mirror load on login and teardown on logout

package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/colonylab/labsync/internal/remote"
)

// ErrNotLoggedOut is returned when login is attempted from a state other than
// LoggedOut.
var ErrNotLoggedOut = errors.New("not logged out")

// ErrNotLoggedIn is returned when logout is attempted without a session.
var ErrNotLoggedIn = errors.New("not logged in")

// State is the session lifecycle state.
type State int

const (
	// StateUnknown means session existence has not been checked yet.
	StateUnknown State = iota
	// StateAuthenticating means a login or restore call is in flight.
	StateAuthenticating
	// StateLoggedIn means an identity is established.
	StateLoggedIn
	// StateLoggedOut means no identity is established.
	StateLoggedOut
)

func (s State) String() string {
	switch s {
	case StateUnknown:
		return "unknown"
	case StateAuthenticating:
		return "authenticating"
	case StateLoggedIn:
		return "logged_in"
	case StateLoggedOut:
		return "logged_out"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// ProjectMirror defines what the session layer needs from the project store.
type ProjectMirror interface {
	Load(ctx context.Context, owner string) error
	Reset()
}

// Manager owns the authentication state and the current user identity. It is
// the sole writer of both. Operations are serialized per manager instance;
// overlapping Login/Logout/Restore calls run one at a time.
type Manager struct {
	gateway  remote.Gateway
	projects ProjectMirror
	logger   *slog.Logger

	opMu sync.Mutex // serializes state-changing operations

	mu    sync.RWMutex // guards state and user
	state State
	user  string
}

// NewManager creates a session manager in StateUnknown. Call Restore once at
// startup to resolve any prior session.
func NewManager(gateway remote.Gateway, projects ProjectMirror, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{
		gateway:  gateway,
		projects: projects,
		logger:   logger.With("component", "session"),
		state:    StateUnknown,
	}
}

// State returns the current lifecycle state.
func (m *Manager) State() State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state
}

// CurrentUser returns the authenticated identity, empty when logged out.
func (m *Manager) CurrentUser() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.user
}

func (m *Manager) setState(state State, user string) {
	m.mu.Lock()
	m.state = state
	m.user = user
	m.mu.Unlock()
}

// Restore performs the one-shot startup check for a previously authenticated
// identity. It always resolves to LoggedIn or LoggedOut, never stays in
// Authenticating. Restoring when a session is already resolved is a no-op.
func (m *Manager) Restore(ctx context.Context) error {
	m.opMu.Lock()
	defer m.opMu.Unlock()

	if m.State() != StateUnknown {
		return nil
	}

	m.setState(StateAuthenticating, "")

	identity, err := m.gateway.RestoreSession(ctx)
	if err != nil {
		m.setState(StateLoggedOut, "")
		if errors.Is(err, remote.ErrNoSession) {
			m.logger.Info("no prior session to restore")
			return nil
		}
		return fmt.Errorf("restoring session: %w", err)
	}

	m.setState(StateLoggedIn, identity)
	m.logger.Info("session restored", "user", identity)

	if err := m.projects.Load(ctx, identity); err != nil {
		// Identity is established even if the project fetch failed; the
		// mirror stays empty until the next successful load.
		m.logger.Warn("loading projects after restore failed", "error", err)
		return fmt.Errorf("loading projects: %w", err)
	}
	return nil
}

// Login authenticates and, on success, loads the user's projects. Only
// callable from LoggedOut. On failure the state returns to LoggedOut and the
// error carries the reason.
func (m *Manager) Login(ctx context.Context, username, password string) error {
	m.opMu.Lock()
	defer m.opMu.Unlock()

	if state := m.State(); state != StateLoggedOut {
		return fmt.Errorf("%w: login from %s", ErrNotLoggedOut, state)
	}

	m.setState(StateAuthenticating, "")

	identity, err := m.gateway.Login(ctx, username, password)
	if err != nil {
		m.setState(StateLoggedOut, "")
		m.logger.Info("login failed", "username", username, "error", err)
		return err
	}

	m.setState(StateLoggedIn, identity)
	m.logger.Info("login successful", "user", identity)

	if err := m.projects.Load(ctx, identity); err != nil {
		m.logger.Warn("loading projects after login failed", "error", err)
		return fmt.Errorf("loading projects: %w", err)
	}
	return nil
}

// Register creates a new account. It never changes the session state; a
// subsequent explicit Login is required.
func (m *Manager) Register(ctx context.Context, username, password string) error {
	m.opMu.Lock()
	defer m.opMu.Unlock()

	if m.State() == StateLoggedIn {
		return fmt.Errorf("%w: already logged in", ErrNotLoggedOut)
	}

	if err := m.gateway.Register(ctx, username, password); err != nil {
		return err
	}
	m.logger.Info("registered user", "username", username)
	return nil
}

// Logout invalidates the remote credential and clears all local state:
// identity, active selection, and the project mirror. The local transition
// never fails, even when the remote call does; a stale identity must not
// survive a logout.
func (m *Manager) Logout(ctx context.Context) error {
	m.opMu.Lock()
	defer m.opMu.Unlock()

	if m.State() != StateLoggedIn {
		return ErrNotLoggedIn
	}

	if err := m.gateway.Logout(ctx); err != nil {
		m.logger.Warn("remote logout failed, clearing local state anyway", "error", err)
	}

	m.setState(StateLoggedOut, "")
	m.projects.Reset()
	m.logger.Info("logged out")
	return nil
}
