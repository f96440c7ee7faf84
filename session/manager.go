package session

import (
	"context"
	"sync"
	"time"

	"github.com/AsheeSoftworks/Authentication-Frontend-Boilerplate-Auth-Flow/apierrors"
	"github.com/AsheeSoftworks/Authentication-Frontend-Boilerplate-Auth-Flow/authclient"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"
)

const (
	defaultErrorClearAfter = 5 * time.Second
	defaultTokenTTL        = 7 * 24 * time.Hour

	refreshKey = "refresh-token"
)

// Manager is the session store. Construct one at startup and hand it to
// every consumer; there is no package-level instance.
type Manager struct {
	backend Backend
	store   Store
	log     zerolog.Logger
	nowTime func() time.Time

	errorClearAfter time.Duration
	tokenTTL        time.Duration

	mu       sync.RWMutex
	current  Session
	errTimer *time.Timer

	refreshGroup singleflight.Group
}

// Option defines a function type to modify the Manager instance.
type Option func(*Manager)

// WithLogger sets the logger (default: no-op).
func WithLogger(log zerolog.Logger) Option {
	return func(m *Manager) {
		m.log = log
	}
}

// WithNowTime sets the now time function (primarily for testing).
func WithNowTime(nowFunc func() time.Time) Option {
	return func(m *Manager) {
		m.nowTime = nowFunc
	}
}

// WithErrorClearAfter overrides how long LastError stays on the session
// before it is cleared automatically (default 5s). Zero disables the timer.
func WithErrorClearAfter(d time.Duration) Option {
	return func(m *Manager) {
		m.errorClearAfter = d
	}
}

// WithTokenTTL overrides the expiry written on the durable credential
// record (default 7 days).
func WithTokenTTL(ttl time.Duration) Option {
	return func(m *Manager) {
		m.tokenTTL = ttl
	}
}

// New initializes a Manager with its required dependencies.
func New(backend Backend, store Store, options ...Option) (*Manager, error) {
	if backend == nil {
		return nil, errors.New("[session.New] backend is required")
	}
	if store == nil {
		return nil, errors.New("[session.New] store is required")
	}

	manager := &Manager{
		backend:         backend,
		store:           store,
		log:             zerolog.Nop(),
		nowTime:         time.Now,
		errorClearAfter: defaultErrorClearAfter,
		tokenTTL:        defaultTokenTTL,
	}
	for _, opt := range options {
		opt(manager)
	}
	return manager, nil
}

// Rehydrate loads the persisted session projection, if any, in one atomic
// assignment. Call it once at startup, before any consumer reads state.
func (m *Manager) Rehydrate() error {
	persisted, err := m.store.LoadSession()
	if err != nil {
		return errors.Wrap(err, "[Manager.Rehydrate] loading persisted session")
	}
	if persisted == nil {
		return nil
	}

	m.mu.Lock()
	m.current = Session{
		User:          persisted.User,
		Token:         persisted.Token,
		Authenticated: persisted.IsAuthenticated,
	}
	m.mu.Unlock()

	m.log.Debug().Bool("authenticated", persisted.IsAuthenticated).Msg("session rehydrated")
	return nil
}

// Current returns a copy of the session snapshot.
func (m *Manager) Current() Session {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.current
}

// Token returns the current credential, or "" when unauthenticated.
func (m *Manager) Token() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.current.Token
}

// Authenticated reports whether a credential is currently held and accepted.
func (m *Manager) Authenticated() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.current.Authenticated
}

// SignUp registers a new account. On success the returned user is stored on
// the session but no credential is granted; email verification comes first.
func (m *Manager) SignUp(ctx context.Context, name, email, password, confirmPassword string) error {
	switch {
	case name == "":
		return m.fail(apierrors.Validation("name", "name is required"))
	case email == "":
		return m.fail(apierrors.Validation("email", "email is required"))
	case password == "":
		return m.fail(apierrors.Validation("password", "password is required"))
	case password != confirmPassword:
		return m.fail(apierrors.Validation("confirmPassword", "passwords do not match"))
	}

	m.begin()
	user, err := m.backend.Register(ctx, name, email, password, confirmPassword)
	if err != nil {
		return m.fail(err)
	}

	if err := m.persist(user, "", false); err != nil {
		return m.fail(err)
	}
	m.commit(Session{User: user})
	m.log.Debug().Str("email", email).Msg("account registered")
	return nil
}

// LogIn exchanges credentials for a session. A failed attempt leaves no
// partial login state behind, in memory or on disk.
func (m *Manager) LogIn(ctx context.Context, email, password string) error {
	switch {
	case email == "":
		return m.fail(apierrors.Validation("email", "email is required"))
	case password == "":
		return m.fail(apierrors.Validation("password", "password is required"))
	}

	m.begin()
	user, token, err := m.backend.Login(ctx, email, password)
	if err != nil {
		return m.failTeardown(err)
	}

	if err := m.persist(user, token, true); err != nil {
		return m.failTeardown(err)
	}
	m.commit(Session{User: user, Token: token, Authenticated: true})
	m.log.Debug().Str("email", email).Msg("logged in")
	return nil
}

// GoogleLogin exchanges a Google authorization code for a session, with the
// same commit contract as LogIn.
func (m *Manager) GoogleLogin(ctx context.Context, authorizationCode string) error {
	if authorizationCode == "" {
		return m.fail(apierrors.Validation("code", "authorization code is required"))
	}

	m.begin()
	user, token, err := m.backend.GoogleLogin(ctx, authorizationCode)
	if err != nil {
		return m.failTeardown(err)
	}

	if err := m.persist(user, token, true); err != nil {
		return m.failTeardown(err)
	}
	m.commit(Session{User: user, Token: token, Authenticated: true})
	m.log.Debug().Msg("logged in via google")
	return nil
}

// LogOut clears the session and its durable projection. It is idempotent
// and never fails from the caller's perspective; store faults are logged
// and swallowed.
func (m *Manager) LogOut() {
	m.clearDurable()

	m.mu.Lock()
	m.stopErrorTimerLocked()
	m.current = Session{}
	m.mu.Unlock()

	m.log.Debug().Msg("logged out")
}

// RefreshToken exchanges the current credential for a new one. Concurrent
// callers coalesce into a single backend call and share its outcome. Any
// failure tears the session down via LogOut before returning.
func (m *Manager) RefreshToken(ctx context.Context) (string, error) {
	result, err, _ := m.refreshGroup.Do(refreshKey, func() (any, error) {
		token := m.Token()
		if token == "" {
			return "", m.fail(apierrors.NoSession())
		}

		m.begin()
		newToken, err := m.backend.RefreshToken(ctx, token)
		if err == nil {
			err = m.persistCredential(newToken)
		}
		if err != nil {
			structured := apierrors.FromErr(err)
			m.log.Error().Str("kind", string(structured.Kind)).Msg("token renewal failed, tearing down session")
			m.LogOut()
			m.setLastError(structured)
			return "", structured
		}

		m.mu.Lock()
		next := m.current
		next.Token = newToken
		next.Authenticated = true
		next.Loading = false
		m.current = next
		m.mu.Unlock()

		m.log.Debug().Msg("token renewed")
		return newToken, nil
	})
	if err != nil {
		return "", err
	}
	return result.(string), nil
}

// RequestPasswordReset starts a reset flow. The outcome never reveals
// whether the email exists; the session is untouched beyond loading/error.
func (m *Manager) RequestPasswordReset(ctx context.Context, email string) error {
	if email == "" {
		return m.fail(apierrors.Validation("email", "email is required"))
	}

	m.begin()
	if err := m.backend.RequestPasswordReset(ctx, email); err != nil {
		return m.fail(err)
	}
	m.endLoading()
	return nil
}

// ResendVerificationEmail asks the backend for another verification email.
// Throttling repeated attempts is the calling surface's obligation (see
// ResendThrottle); the store does not enforce it.
func (m *Manager) ResendVerificationEmail(ctx context.Context, email string) error {
	if email == "" {
		return m.fail(apierrors.Validation("email", "email is required"))
	}

	m.begin()
	if err := m.backend.ResendVerification(ctx, email); err != nil {
		return m.fail(err)
	}
	m.endLoading()
	return nil
}

// VerifyEmail confirms an email verification token. Only the backend's
// verification record changes; Authenticated is not mutated.
func (m *Manager) VerifyEmail(ctx context.Context, token string) error {
	if token == "" {
		return m.fail(apierrors.Validation("token", "verification token is required"))
	}

	m.begin()
	if err := m.backend.VerifyEmail(ctx, token); err != nil {
		return m.fail(err)
	}
	m.endLoading()
	return nil
}

// PasswordReset completes a password reset. The backend invalidates every
// session for the account; no local session exists yet, so nothing more to
// do client-side.
func (m *Manager) PasswordReset(ctx context.Context, password, confirmPassword, token string) error {
	switch {
	case password == "":
		return m.fail(apierrors.Validation("password", "password is required"))
	case password != confirmPassword:
		return m.fail(apierrors.Validation("confirmPassword", "passwords do not match"))
	case token == "":
		return m.fail(apierrors.Validation("token", "reset token is required"))
	}

	m.begin()
	if err := m.backend.ResetPassword(ctx, password, confirmPassword, token); err != nil {
		return m.fail(err)
	}
	m.endLoading()
	return nil
}

// ClearError clears LastError. Synchronous, no other effect.
func (m *Manager) ClearError() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stopErrorTimerLocked()
	m.current.LastError = nil
}

// begin marks an operation in flight: loading set, stale error cleared.
// Each operation owns its loading transition end to end.
func (m *Manager) begin() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stopErrorTimerLocked()
	m.current.Loading = true
	m.current.LastError = nil
}

// commit publishes a new snapshot in one assignment.
func (m *Manager) commit(next Session) {
	m.mu.Lock()
	defer m.mu.Unlock()
	next.Loading = false
	m.current = next
}

// endLoading completes an operation that leaves the rest of the snapshot
// unchanged.
func (m *Manager) endLoading() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.current.Loading = false
}

// fail records the failure on the session and returns it to the caller.
// Both channels fire on every failure.
func (m *Manager) fail(err error) *apierrors.Error {
	structured := apierrors.FromErr(err)
	m.mu.Lock()
	m.current.Loading = false
	m.current.LastError = structured
	m.mu.Unlock()
	m.scheduleErrorClear(structured)
	return structured
}

// failTeardown is fail for login-shaped operations: no partial login state
// survives, in memory or on disk.
func (m *Manager) failTeardown(err error) *apierrors.Error {
	structured := apierrors.FromErr(err)
	m.clearDurable()
	m.mu.Lock()
	m.current = Session{LastError: structured}
	m.mu.Unlock()
	m.scheduleErrorClear(structured)
	return structured
}

// setLastError attaches an error to the current snapshot without touching
// the other fields. Used after a renewal teardown, where LogOut has already
// reset the session.
func (m *Manager) setLastError(structured *apierrors.Error) {
	m.mu.Lock()
	m.current.LastError = structured
	m.mu.Unlock()
	m.scheduleErrorClear(structured)
}

// persist writes the durable projection and the credential record. Both
// writes must succeed before the in-memory snapshot is published.
func (m *Manager) persist(user *authclient.User, token string, authenticated bool) error {
	if err := m.store.SaveSession(&PersistedSession{
		User:            user,
		Token:           token,
		IsAuthenticated: authenticated,
	}); err != nil {
		return errors.Wrap(err, "[Manager.persist] saving session projection")
	}

	if token == "" {
		if err := m.store.DeleteToken(); err != nil {
			return errors.Wrap(err, "[Manager.persist] deleting credential record")
		}
		return nil
	}
	if err := m.store.SaveToken(token, m.nowTime().Add(m.tokenTTL)); err != nil {
		return errors.Wrap(err, "[Manager.persist] saving credential record")
	}
	return nil
}

// persistCredential updates only the credential on the durable projection,
// leaving the persisted user as is.
func (m *Manager) persistCredential(token string) error {
	m.mu.RLock()
	user := m.current.User
	m.mu.RUnlock()
	return m.persist(user, token, true)
}

func (m *Manager) clearDurable() {
	if err := m.store.DeleteSession(); err != nil {
		m.log.Warn().Err(err).Msg("deleting persisted session failed")
	}
	if err := m.store.DeleteToken(); err != nil {
		m.log.Warn().Err(err).Msg("deleting credential record failed")
	}
}

func (m *Manager) scheduleErrorClear(structured *apierrors.Error) {
	if m.errorClearAfter <= 0 {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stopErrorTimerLocked()
	m.errTimer = time.AfterFunc(m.errorClearAfter, func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		// Only clear the error this timer was armed for.
		if m.current.LastError == structured {
			m.current.LastError = nil
		}
	})
}

func (m *Manager) stopErrorTimerLocked() {
	if m.errTimer != nil {
		m.errTimer.Stop()
		m.errTimer = nil
	}
}
