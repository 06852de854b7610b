package session

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/trezcool/tirgul/core"
	"github.com/trezcool/tirgul/core/user"
)

var (
	// errors
	ErrNotFound = errors.New("session not found")
	ErrRevoked  = errors.New("session revoked")
)

type (
	Session struct {
		ID        string     `json:"id"`
		UserID    string     `json:"user_id"`
		Email     string     `json:"email"`
		CreatedAt time.Time  `json:"created_at"` // UTC
		RevokedAt *time.Time `json:"revoked_at,omitempty"`
	}

	Repository interface {
		CreateSession(ctx context.Context, s Session) (Session, error)
		GetSession(ctx context.Context, id string) (Session, error)
		RevokeSession(ctx context.Context, id string, at time.Time) error
		// RevokeUserSessions revokes all active sessions of the user but exceptID.
		RevokeUserSessions(ctx context.Context, userID, exceptID string, at time.Time) (int64, error)
	}

	// Manager keeps track of the signed in sessions for the lifetime of the process.
	// The first time a session of a user is detected, the user's other sessions are revoked.
	// One Manager is shared by the whole process.
	Manager struct {
		repo   Repository
		logger core.Logger

		mu      sync.Mutex
		cleaned map[string]bool // {userID: other sessions revoked}
	}
)

func (s Session) IsActive() bool { return s.RevokedAt == nil }

func NewManager(repo Repository, logger core.Logger) *Manager {
	m := &Manager{repo: repo, logger: logger}
	m.Init()
	return m
}

// Init (re)starts the manager's lifetime: every user is considered unseen.
func (m *Manager) Init() {
	m.mu.Lock()
	m.cleaned = make(map[string]bool)
	m.mu.Unlock()
}

// Start opens a new session for the signed in user.
func (m *Manager) Start(ctx context.Context, usr user.User) (Session, error) {
	s, err := m.repo.CreateSession(ctx, Session{
		ID:        uuid.NewString(),
		UserID:    usr.ID,
		Email:     usr.Email,
		CreatedAt: time.Now().UTC(),
	})
	if err != nil {
		return Session{}, errors.Wrap(err, "creating session")
	}
	if err = m.Detected(ctx, s); err != nil {
		return Session{}, err
	}
	return s, nil
}

// Detected must be called whenever a session is established.
// On the first detection of the user since Init, the user's other sessions are revoked.
func (m *Manager) Detected(ctx context.Context, s Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.cleaned[s.UserID] {
		return nil
	}
	n, err := m.repo.RevokeUserSessions(ctx, s.UserID, s.ID, time.Now().UTC())
	if err != nil {
		return errors.Wrap(err, "revoking other sessions")
	}
	m.cleaned[s.UserID] = true
	if n > 0 {
		m.logger.Info("revoked other sessions", map[string]interface{}{"user": s.UserID, "count": n})
	}
	return nil
}

// Check returns the session identified by id if it is still active.
func (m *Manager) Check(ctx context.Context, id string) (Session, error) {
	s, err := m.repo.GetSession(ctx, id)
	if err != nil {
		return Session{}, errors.Wrap(err, "getting session")
	}
	if !s.IsActive() {
		return Session{}, ErrRevoked
	}
	return s, nil
}

// Reset signs the user out of the session: it is revoked and the user is considered unseen again.
func (m *Manager) Reset(ctx context.Context, userID, sessionID string) error {
	if err := m.repo.RevokeSession(ctx, sessionID, time.Now().UTC()); err != nil && errors.Cause(err) != ErrNotFound {
		return errors.Wrap(err, "revoking session")
	}

	m.mu.Lock()
	delete(m.cleaned, userID)
	m.mu.Unlock()
	return nil
}

// Cleaned reports whether the other sessions of the user were revoked since Init.
func (m *Manager) Cleaned(userID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.cleaned[userID]
}
