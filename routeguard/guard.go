// Package routeguard decides whether a navigation target may be reached
// with the session state currently on disk. It runs ahead of and
// independently from the session manager, so it only ever consults the
// durable credential record and the backend's verify endpoint, never
// in-memory session state.
package routeguard

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

// Default navigation surface. All of it is configurable per deployment.
var (
	defaultProtectedPrefixes = []string{"/dashboard"}
	defaultAuthPaths         = []string{"/login", "/signup", "/forgot-password", "/reset-password"}
)

const (
	defaultSignInPath = "/login"
	defaultHomePath   = "/dashboard"

	// redirectParam carries the original target through the sign-in flow.
	redirectParam = "redirect"
)

// TokenReader reads the durable credential record. *storage.FileStore
// satisfies it.
type TokenReader interface {
	LoadToken() (string, error)
}

// Verifier asks the backend whether a credential is still valid.
// *authclient.Client satisfies it.
type Verifier interface {
	VerifyToken(ctx context.Context, token string) (bool, error)
}

// Action is the guard's verdict on a navigation.
type Action int

const (
	// ActionAllow lets the navigation pass through unchanged.
	ActionAllow Action = iota
	// ActionRedirect bounces the navigation to Decision.Location.
	ActionRedirect
)

// Decision is the outcome of evaluating one navigation target.
type Decision struct {
	Action   Action
	Location string
}

// Guard evaluates navigation against the persisted session state.
type Guard struct {
	tokens   TokenReader
	verifier Verifier
	log      zerolog.Logger

	signInPath        string
	homePath          string
	protectedPrefixes []string
	authPaths         []string
}

// Option defines a function type to modify the Guard instance.
type Option func(*Guard)

// WithLogger sets the logger (default: no-op).
func WithLogger(log zerolog.Logger) Option {
	return func(g *Guard) {
		g.log = log
	}
}

// WithSignInPath sets where unauthenticated navigation is sent.
func WithSignInPath(path string) Option {
	return func(g *Guard) {
		g.signInPath = path
	}
}

// WithHomePath sets where authenticated navigation to auth pages is sent.
func WithHomePath(path string) Option {
	return func(g *Guard) {
		g.homePath = path
	}
}

// WithProtectedPrefixes sets the path prefixes requiring a valid session.
func WithProtectedPrefixes(prefixes ...string) Option {
	return func(g *Guard) {
		g.protectedPrefixes = prefixes
	}
}

// WithAuthPaths sets the auth-only paths authenticated users are bounced
// away from.
func WithAuthPaths(paths ...string) Option {
	return func(g *Guard) {
		g.authPaths = paths
	}
}

// New initializes a Guard with its required dependencies.
func New(tokens TokenReader, verifier Verifier, options ...Option) (*Guard, error) {
	if tokens == nil {
		return nil, errors.New("[routeguard.New] token reader is required")
	}
	if verifier == nil {
		return nil, errors.New("[routeguard.New] verifier is required")
	}

	guard := &Guard{
		tokens:            tokens,
		verifier:          verifier,
		log:               zerolog.Nop(),
		signInPath:        defaultSignInPath,
		homePath:          defaultHomePath,
		protectedPrefixes: defaultProtectedPrefixes,
		authPaths:         defaultAuthPaths,
	}
	for _, opt := range options {
		opt(guard)
	}
	return guard, nil
}

// Evaluate decides what happens to a navigation targeting path.
// Unauthenticated navigation to a protected path redirects to sign-in with
// the original target preserved; authenticated navigation to an auth-only
// path redirects home; everything else passes through.
func (g *Guard) Evaluate(ctx context.Context, path string) Decision {
	authenticated := g.sessionValid(ctx)

	if g.isProtected(path) && !authenticated {
		target := g.signInPath + "?" + redirectParam + "=" + url.QueryEscape(path)
		return Decision{Action: ActionRedirect, Location: target}
	}
	if g.isAuthPath(path) && authenticated {
		return Decision{Action: ActionRedirect, Location: g.homePath}
	}
	return Decision{Action: ActionAllow}
}

// Middleware mounts the guard in front of an http.Handler.
func (g *Guard) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		decision := g.Evaluate(r.Context(), r.URL.Path)
		if decision.Action == ActionRedirect {
			http.Redirect(w, r, decision.Location, http.StatusSeeOther)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// sessionValid reports whether a server-verified credential is on disk.
// Verification failures of any sort read as unauthenticated: the guard
// fails closed on protected paths.
func (g *Guard) sessionValid(ctx context.Context) bool {
	token, err := g.tokens.LoadToken()
	if err != nil {
		g.log.Warn().Err(err).Msg("reading credential record failed")
		return false
	}
	if token == "" {
		return false
	}

	valid, err := g.verifier.VerifyToken(ctx, token)
	if err != nil {
		g.log.Warn().Err(err).Msg("credential verification failed")
		return false
	}
	return valid
}

func (g *Guard) isProtected(path string) bool {
	for _, prefix := range g.protectedPrefixes {
		if strings.HasPrefix(path, prefix) {
			return true
		}
	}
	return false
}

func (g *Guard) isAuthPath(path string) bool {
	for _, authPath := range g.authPaths {
		if path == authPath {
			return true
		}
	}
	return false
}
