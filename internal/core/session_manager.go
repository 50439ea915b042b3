package core

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"hoursandfuture.com/nexthours/internal/auth"
	"hoursandfuture.com/nexthours/internal/store"
)

const DefaultLoginDelay = 500 * time.Millisecond

// SessionManager owns the logged-in user of one profile. The in-memory user
// is a cache of one stored record and never holds the password. Every
// operation runs under one lock, in call order.
type SessionManager struct {
	mu      sync.Mutex
	records *store.RecordStore
	current *store.User

	logger     *zap.Logger
	loginDelay time.Duration
	now        func() time.Time
	newID      func() string
}

type Option func(*SessionManager)

func WithLogger(l *zap.Logger) Option {
	return func(m *SessionManager) { m.logger = l }
}

// WithLoginDelay sets the simulated latency of Login.
func WithLoginDelay(d time.Duration) Option {
	return func(m *SessionManager) { m.loginDelay = d }
}

func WithClock(now func() time.Time) Option {
	return func(m *SessionManager) { m.now = now }
}

func WithIDGenerator(newID func() string) Option {
	return func(m *SessionManager) { m.newID = newID }
}

// NewSessionManager builds the manager and restores any saved session.
func NewSessionManager(ctx context.Context, records *store.RecordStore, opts ...Option) (*SessionManager, error) {
	m := &SessionManager{
		records:    records,
		logger:     zap.NewNop(),
		loginDelay: DefaultLoginDelay,
		now:        time.Now,
		newID:      uuid.NewString,
	}
	for _, opt := range opts {
		opt(m)
	}
	if err := m.RestoreSession(ctx); err != nil {
		return nil, err
	}
	return m, nil
}

// RestoreSession loads the user named by the session pointer. A pointer to a
// missing or unreadable record is cleared and the profile stays logged out.
func (m *SessionManager) RestoreSession(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.current = nil
	email, ok, err := m.records.GetSessionPointer(ctx)
	if err != nil || !ok {
		return err
	}
	rec, err := m.records.GetUser(ctx, email)
	if err != nil {
		return err
	}
	if rec == nil {
		m.logger.Warn("session pointer refers to a missing record, clearing it")
		return m.records.ClearSessionPointer(ctx)
	}
	u := rec.User.Clone()
	m.current = &u
	m.logger.Debug("session restored", zap.String("email", u.Email))
	return nil
}

// Login checks the credentials after the simulated latency. Unknown emails
// and wrong passwords come back as a LoginResult, not as an error.
func (m *SessionManager) Login(ctx context.Context, email, password string) (LoginResult, error) {
	if m.loginDelay > 0 {
		timer := time.NewTimer(m.loginDelay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return LoginResult{}, ctx.Err()
		case <-timer.C:
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	rec, err := m.records.GetUser(ctx, email)
	if err != nil {
		return LoginResult{}, err
	}
	if rec == nil {
		m.logger.Info("login failed", zap.String("reason", string(LoginUserNotFound)))
		return LoginResult{Error: LoginUserNotFound}, nil
	}
	if !auth.CheckPassword(rec.Password, password) {
		m.logger.Info("login failed", zap.String("reason", string(LoginWrongPassword)))
		return LoginResult{Error: LoginWrongPassword}, nil
	}

	if err := m.records.SetSessionPointer(ctx, rec.Email); err != nil {
		return LoginResult{}, err
	}
	u := rec.User.Clone()
	m.current = &u
	m.logger.Debug("login succeeded", zap.String("email", u.Email))
	return LoginResult{Success: true}, nil
}

// Signup writes a fresh free-tier record. It does not log the user in and it
// replaces any record already stored for the email; use IsRegistered first
// when that matters.
func (m *SessionManager) Signup(ctx context.Context, email, name, password string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	rec := &store.UserRecord{
		User: store.User{
			Email:            email,
			Name:             name,
			SubscriptionTier: store.TierFree,
			ChatHistory:      []store.ChatSession{},
			FreeUsageCount:   0,
		},
		Password: password,
	}
	if err := m.records.PutUser(ctx, rec); err != nil {
		return err
	}
	m.logger.Debug("account created", zap.String("email", email))
	return nil
}

func (m *SessionManager) IsRegistered(ctx context.Context, email string) (bool, error) {
	rec, err := m.records.GetUser(ctx, email)
	if err != nil {
		return false, err
	}
	return rec != nil, nil
}

// Logout is idempotent.
func (m *SessionManager) Logout(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.current != nil {
		m.logger.Debug("logout", zap.String("email", m.current.Email))
	}
	m.current = nil
	return m.records.ClearSessionPointer(ctx)
}

// CurrentUser returns a copy of the logged-in user.
func (m *SessionManager) CurrentUser() (store.User, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.current == nil {
		return store.User{}, false
	}
	return m.current.Clone(), true
}

func (m *SessionManager) IsAuthenticated() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.current != nil
}

// commit applies change to the logged-in user and writes the result to both
// the backing record and memory. The caller holds m.mu. With nobody logged
// in it does nothing. If the backing record is gone the session is dropped.
func (m *SessionManager) commit(ctx context.Context, change func(rec *store.UserRecord)) (bool, error) {
	if m.current == nil {
		return false, nil
	}

	rec, err := m.records.GetUser(ctx, m.current.Email)
	if err != nil {
		return false, err
	}
	if rec == nil {
		m.logger.Warn("record of the logged-in user is gone, dropping session")
		m.current = nil
		return false, m.records.ClearSessionPointer(ctx)
	}

	next := &store.UserRecord{User: m.current.Clone(), Password: rec.Password}
	change(next)
	if err := m.records.PutUser(ctx, next); err != nil {
		return false, err
	}
	u := next.User.Clone()
	m.current = &u
	return true, nil
}
