// package session manages the authenticated session lifecycle
//
// A session is a bearer token plus the profile it was issued for, persisted
// through [repositories.CredentialRepository] so it survives restarts. The
// manager is safe for concurrent use.
package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/charmbracelet/log"

	"github.com/Jakson-Almeida/shortsgrab/internal/models"
	"github.com/Jakson-Almeida/shortsgrab/internal/shared"
)

// MinSecretLength is the shortest password accepted before a credential
// request is sent anywhere.
const MinSecretLength = 6

// Authenticator is the credential surface of the download backend.
type Authenticator interface {
	Login(ctx context.Context, email, password string) (string, *models.Profile, error)
	Register(ctx context.Context, email, password string) (string, *models.Profile, error)
	Logout(ctx context.Context, token string) error
	Verify(ctx context.Context, token string) (*models.Profile, error)
}

// CredentialStore persists the single credential slot.
type CredentialStore interface {
	Save(token string, profile *models.Profile) error
	Load() (string, *models.Profile, error)
	Clear() error
}

// Manager owns the current session and its persistence.
type Manager struct {
	auth   Authenticator
	store  CredentialStore
	logger *log.Logger

	mu      sync.RWMutex
	token   string
	profile *models.Profile
}

// NewManager creates a session manager and restores any persisted session.
func NewManager(auth Authenticator, store CredentialStore, logger *log.Logger) (*Manager, error) {
	m := &Manager{
		auth:   auth,
		store:  store,
		logger: logger,
	}

	token, profile, err := store.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to restore session: %w", err)
	}
	m.token = token
	m.profile = profile

	return m, nil
}

// validateCredentials rejects obviously bad input before any network call.
func validateCredentials(email, password, confirm string, withConfirm bool) error {
	if strings.TrimSpace(email) == "" || !strings.Contains(email, "@") {
		return fmt.Errorf("%w: a valid email address is required", shared.ErrValidation)
	}
	if len(password) < MinSecretLength {
		return fmt.Errorf("%w: password must be at least %d characters", shared.ErrValidation, MinSecretLength)
	}
	if withConfirm && password != confirm {
		return fmt.Errorf("%w: passwords do not match", shared.ErrValidation)
	}
	return nil
}

// Login authenticates against the backend and persists the session.
func (m *Manager) Login(ctx context.Context, email, password string) (*models.Profile, error) {
	if err := validateCredentials(email, password, "", false); err != nil {
		return nil, err
	}

	token, profile, err := m.auth.Login(ctx, email, password)
	if err != nil {
		return nil, err
	}

	return m.adopt(token, profile, email)
}

// Register creates an account and persists the resulting session.
func (m *Manager) Register(ctx context.Context, email, password, confirm string) (*models.Profile, error) {
	if err := validateCredentials(email, password, confirm, true); err != nil {
		return nil, err
	}

	token, profile, err := m.auth.Register(ctx, email, password)
	if err != nil {
		return nil, err
	}

	return m.adopt(token, profile, email)
}

func (m *Manager) adopt(token string, profile *models.Profile, email string) (*models.Profile, error) {
	if profile == nil {
		profile = &models.Profile{Email: email}
	}

	if err := m.store.Save(token, profile); err != nil {
		return nil, fmt.Errorf("failed to persist session: %w", err)
	}

	m.mu.Lock()
	m.token = token
	m.profile = profile
	m.mu.Unlock()

	m.logger.Debug("session established", "email", profile.Email)
	return profile, nil
}

// Logout discards the session locally and tells the server best-effort.
//
// The local credential is cleared even when the server call fails, and
// logging out without a session is not an error.
func (m *Manager) Logout(ctx context.Context) error {
	m.mu.Lock()
	token := m.token
	m.token = ""
	m.profile = nil
	m.mu.Unlock()

	if err := m.store.Clear(); err != nil {
		return fmt.Errorf("failed to clear session: %w", err)
	}

	if token == "" {
		return nil
	}
	if err := m.auth.Logout(ctx, token); err != nil {
		m.logger.Debug("server logout failed, session cleared locally", "error", err)
	}
	return nil
}

// IsAuthenticated reports whether a token is held. It never performs network
// IO; only [Manager.Verify] receiving a rejection invalidates the session.
func (m *Manager) IsAuthenticated() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.token != ""
}

// Token returns the current bearer token, or empty.
func (m *Manager) Token() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.token
}

// Profile returns the profile the session was issued for, or nil.
func (m *Manager) Profile() *models.Profile {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.profile
}

// AuthHeader returns the Authorization header value for the session.
func (m *Manager) AuthHeader() (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.token == "" {
		return "", shared.ErrNotAuthenticated
	}
	return "Bearer " + m.token, nil
}

// Verify checks the held token against the server.
//
// Only an explicit rejection clears the session; connectivity and server
// failures leave the stored credential alone so a flaky network cannot log
// the user out.
func (m *Manager) Verify(ctx context.Context) (*models.Profile, error) {
	m.mu.RLock()
	token := m.token
	m.mu.RUnlock()

	if token == "" {
		return nil, shared.ErrNotAuthenticated
	}

	profile, err := m.auth.Verify(ctx, token)
	if err != nil {
		if errors.Is(err, shared.ErrAuthRejected) {
			m.logger.Debug("stored token rejected, clearing session")
			m.mu.Lock()
			m.token = ""
			m.profile = nil
			m.mu.Unlock()
			if clearErr := m.store.Clear(); clearErr != nil {
				return nil, fmt.Errorf("failed to clear rejected session: %w", clearErr)
			}
		}
		return nil, err
	}

	if profile != nil {
		m.mu.Lock()
		m.profile = profile
		m.mu.Unlock()
		if err := m.store.Save(token, profile); err != nil {
			return nil, fmt.Errorf("failed to refresh session: %w", err)
		}
	}

	return profile, nil
}
