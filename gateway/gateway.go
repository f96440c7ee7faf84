// Package gateway wraps outgoing application HTTP calls with credential
// handling: it attaches the current bearer token at dispatch time and
// recovers from credential expiry with a single coalesced renewal and a
// single replay. Auth operations themselves do not go through the gateway;
// it exists for everything else the application calls.
package gateway

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"time"

	"github.com/AsheeSoftworks/Authentication-Frontend-Boilerplate-Auth-Flow/session"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const (
	defaultTimeout  = 10 * time.Second
	maxBufferedBody = 1 << 20

	requestIDHeader = "X-Request-Id"
)

// TokenSource is the slice of the session manager the gateway consumes.
// *session.Manager satisfies it.
type TokenSource interface {
	Token() string
	RefreshToken(ctx context.Context) (string, error)
}

var _ TokenSource = (*session.Manager)(nil)

// Transport is an http.RoundTripper that authenticates outgoing calls.
// The bearer header is derived from a live TokenSource read on every
// dispatch; there is no mutable transport-wide credential to race with
// concurrent logins and logouts.
type Transport struct {
	base     http.RoundTripper
	sessions TokenSource
	log      zerolog.Logger
	nowTime  func() time.Time
}

// Option defines a function type to modify the Transport instance.
type Option func(*Transport)

// WithBase sets the underlying round tripper (default http.DefaultTransport).
func WithBase(base http.RoundTripper) Option {
	return func(t *Transport) {
		t.base = base
	}
}

// WithLogger sets the logger (default: no-op).
func WithLogger(log zerolog.Logger) Option {
	return func(t *Transport) {
		t.log = log
	}
}

// WithNowTime sets the now time function (primarily for testing).
func WithNowTime(nowFunc func() time.Time) Option {
	return func(t *Transport) {
		t.nowTime = nowFunc
	}
}

// NewTransport creates a Transport reading credentials from sessions.
func NewTransport(sessions TokenSource, options ...Option) *Transport {
	transport := &Transport{
		base:     http.DefaultTransport,
		sessions: sessions,
		log:      zerolog.Nop(),
		nowTime:  time.Now,
	}
	for _, opt := range options {
		opt(transport)
	}
	return transport
}

// Client returns an *http.Client dispatching through this transport with
// the standard network-level timeout.
func (t *Transport) Client() *http.Client {
	return &http.Client{Transport: t, Timeout: defaultTimeout}
}

// RoundTrip dispatches the request with the current credential attached.
// On 401 it triggers one renewal through the session manager and replays
// the original call exactly once; a request already replayed is never
// replayed again, bounding amplification to one extra round trip. If the
// renewal fails, the original unauthorized response is surfaced (the
// session manager has already torn the session down).
func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	requestID := uuid.New().String()

	token := t.sessions.Token()
	if token != "" && session.CredentialExpired(token, t.nowTime()) {
		// Known-expired credential: renew before dispatch and save the
		// wasted round trip. A failed renewal falls through and the call
		// dispatches unauthenticated.
		if renewed, err := t.sessions.RefreshToken(req.Context()); err == nil {
			token = renewed
		} else {
			token = t.sessions.Token()
			t.log.Debug().Str("request_id", requestID).Msg("pre-dispatch renewal failed")
		}
	}

	attempt := cloneRequest(req)
	attempt.Header.Set(requestIDHeader, requestID)
	setBearer(attempt, token)

	response, err := t.base.RoundTrip(attempt)
	if err != nil || response.StatusCode != http.StatusUnauthorized {
		return response, err
	}

	// Buffer the unauthorized response so it can be surfaced intact if the
	// renewal or the replay does not pan out.
	unauthorized, err := bufferResponse(response)
	if err != nil {
		return nil, err
	}

	renewed, refreshErr := t.sessions.RefreshToken(req.Context())
	if refreshErr != nil {
		t.log.Debug().Str("request_id", requestID).Msg("renewal after 401 failed, surfacing original response")
		return unauthorized, nil
	}

	if req.Body != nil && req.GetBody == nil {
		// Cannot rebuild the body for a replay; the original outcome stands.
		return unauthorized, nil
	}

	replay := cloneRequest(req)
	replay.Header.Set(requestIDHeader, requestID)
	setBearer(replay, renewed)
	if req.GetBody != nil {
		body, bodyErr := req.GetBody()
		if bodyErr != nil {
			return unauthorized, nil
		}
		replay.Body = body
	}

	t.log.Debug().Str("request_id", requestID).Msg("replaying request with renewed credential")
	return t.base.RoundTrip(replay)
}

func setBearer(req *http.Request, token string) {
	if token == "" {
		req.Header.Del("Authorization")
		return
	}
	req.Header.Set("Authorization", "Bearer "+token)
}

// cloneRequest shallow-copies the request with its own header map, per the
// RoundTripper contract that the request must not be mutated.
func cloneRequest(req *http.Request) *http.Request {
	return req.Clone(req.Context())
}

// bufferResponse reads the body into memory and rewinds it so the response
// can be returned to the caller after the transport has consumed it.
func bufferResponse(response *http.Response) (*http.Response, error) {
	body, err := io.ReadAll(io.LimitReader(response.Body, maxBufferedBody))
	closeErr := response.Body.Close()
	if err != nil {
		return nil, err
	}
	if closeErr != nil {
		return nil, closeErr
	}
	response.Body = io.NopCloser(bytes.NewReader(body))
	return response, nil
}
