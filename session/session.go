// Package session owns the client-side authentication state. The Manager is
// the single source of truth for the current session: it performs every
// session-mutating operation against the backend, persists the durable
// projection, and replaces the in-memory snapshot atomically so readers
// never observe a half-committed state.
package session

import (
	"context"
	"time"

	"github.com/AsheeSoftworks/Authentication-Frontend-Boilerplate-Auth-Flow/apierrors"
	"github.com/AsheeSoftworks/Authentication-Frontend-Boilerplate-Auth-Flow/authclient"
)

// Session is the complete client-side authentication state. Authenticated
// implies Token is present. User may be present with Authenticated false
// only after signup, before email verification grants a login.
type Session struct {
	User          *authclient.User
	Token         string
	Authenticated bool
	Loading       bool
	LastError     *apierrors.Error
}

// PersistedSession is the durable projection of Session. It is written on
// every session change and read once at startup; Loading and LastError are
// never persisted.
type PersistedSession struct {
	User            *authclient.User `json:"user"`
	Token           string           `json:"token"`
	IsAuthenticated bool             `json:"isAuthenticated"`
}

// Store persists the session projection and the standalone credential
// record the route guard reads. Only the Manager writes; every write is a
// full replace.
type Store interface {
	// LoadSession returns the persisted projection, or nil when absent.
	LoadSession() (*PersistedSession, error)
	SaveSession(persisted *PersistedSession) error
	DeleteSession() error

	// SaveToken writes the cookie-like credential record with its expiry.
	SaveToken(token string, expiresAt time.Time) error
	DeleteToken() error
}

// Backend is the slice of the authentication API the Manager consumes.
// *authclient.Client satisfies it; tests substitute a fake.
type Backend interface {
	Register(ctx context.Context, name, email, password, confirmPassword string) (*authclient.User, error)
	Login(ctx context.Context, email, password string) (*authclient.User, string, error)
	RefreshToken(ctx context.Context, token string) (string, error)
	VerifyEmail(ctx context.Context, token string) error
	RequestPasswordReset(ctx context.Context, email string) error
	ResetPassword(ctx context.Context, password, confirmPassword, token string) error
	ResendVerification(ctx context.Context, email string) error
	GoogleLogin(ctx context.Context, code string) (*authclient.User, string, error)
}

var _ Backend = (*authclient.Client)(nil)
