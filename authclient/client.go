// Package authclient is the typed HTTP client for the authentication
// backend. It mirrors the backend's JSON wire format with its own request
// and response types; every failed call crosses the apierrors boundary, so
// callers only ever see structured errors.
package authclient

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/AsheeSoftworks/Authentication-Frontend-Boilerplate-Auth-Flow/apierrors"
	"github.com/pkg/errors"
)

// Backend routes. The base URL is configuration; the paths are part of the
// backend contract.
const (
	registerPath             = "/auth/register"
	loginPath                = "/auth/login"
	refreshTokenPath         = "/auth/refresh-token"
	verifyTokenPath          = "/auth/verify-token"
	verifyEmailPath          = "/auth/verify/"
	requestPasswordResetPath = "/auth/request-password-reset"
	resetPasswordPath        = "/auth/reset-password"
	resendVerificationPath   = "/auth/resend-verification"
	googleLoginPath          = "/auth/google/login"
)

const (
	defaultTimeout  = 10 * time.Second
	maxResponseBody = 1 << 20
)

// User is the identity record the backend returns on registration and login.
type User struct {
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Client talks to the authentication backend over JSON HTTP.
type Client struct {
	httpClient *http.Client
	baseURL    string
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client. Tests use this to
// point the client at an httptest server transport.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// WithTimeout overrides the network-level timeout (default 10s). After the
// timeout a call fails as a NETWORK_ERROR.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		c.httpClient.Timeout = timeout
	}
}

// New creates a Client for the backend at baseURL.
func New(baseURL string, options ...Option) *Client {
	client := &Client{
		httpClient: &http.Client{Timeout: defaultTimeout},
		baseURL:    baseURL,
	}
	for _, opt := range options {
		opt(client)
	}
	return client
}

type registerRequest struct {
	Email           string `json:"email"`
	Password        string `json:"password"`
	Name            string `json:"name"`
	ConfirmPassword string `json:"confirm_password"`
}

type userResponse struct {
	User *User `json:"user"`
}

// Register creates an account. Registration does not grant a session; the
// account must verify its email before logging in.
func (c *Client) Register(ctx context.Context, name, email, password, confirmPassword string) (*User, error) {
	var result userResponse
	if err := c.post(ctx, registerPath, registerRequest{
		Email:           email,
		Password:        password,
		Name:            name,
		ConfirmPassword: confirmPassword,
	}, &result); err != nil {
		return nil, err
	}
	return result.User, nil
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type tokenResponse struct {
	User  *User  `json:"user"`
	Token string `json:"token"`
}

// Login exchanges credentials for a user record and a bearer token.
func (c *Client) Login(ctx context.Context, email, password string) (*User, string, error) {
	var result tokenResponse
	if err := c.post(ctx, loginPath, loginRequest{Email: email, Password: password}, &result); err != nil {
		return nil, "", err
	}
	return result.User, result.Token, nil
}

type refreshRequest struct {
	Token string `json:"token"`
}

// RefreshToken exchanges the current bearer token for a new one.
func (c *Client) RefreshToken(ctx context.Context, token string) (string, error) {
	var result tokenResponse
	if err := c.post(ctx, refreshTokenPath, refreshRequest{Token: token}, &result); err != nil {
		return "", err
	}
	return result.Token, nil
}

type verifyTokenResponse struct {
	Valid bool `json:"valid"`
}

// VerifyToken asks the backend whether a bearer token is still valid. The
// route guard uses this; token verification never happens client-side.
func (c *Client) VerifyToken(ctx context.Context, token string) (bool, error) {
	var result verifyTokenResponse
	if err := c.post(ctx, verifyTokenPath, refreshRequest{Token: token}, &result); err != nil {
		return false, err
	}
	return result.Valid, nil
}

// VerifyEmail confirms an email verification token. Only the backend's
// record of verification changes; the local session is untouched.
func (c *Client) VerifyEmail(ctx context.Context, token string) error {
	return c.post(ctx, verifyEmailPath+url.PathEscape(token), nil, nil)
}

type emailRequest struct {
	Email string `json:"email"`
}

// RequestPasswordReset asks the backend to start a password reset flow. The
// response never reveals whether the email exists.
func (c *Client) RequestPasswordReset(ctx context.Context, email string) error {
	return c.post(ctx, requestPasswordResetPath, emailRequest{Email: email}, nil)
}

type resetPasswordRequest struct {
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirm_password"`
	Token           string `json:"token"`
}

// ResetPassword completes a password reset with the emailed token. The
// backend invalidates all existing sessions for the account.
func (c *Client) ResetPassword(ctx context.Context, password, confirmPassword, token string) error {
	return c.post(ctx, resetPasswordPath, resetPasswordRequest{
		Password:        password,
		ConfirmPassword: confirmPassword,
		Token:           token,
	}, nil)
}

// ResendVerification asks the backend to send another verification email.
func (c *Client) ResendVerification(ctx context.Context, email string) error {
	return c.post(ctx, resendVerificationPath, emailRequest{Email: email}, nil)
}

type googleLoginRequest struct {
	Code string `json:"code"`
}

// GoogleLogin exchanges a Google authorization code for a user record and a
// bearer token. The code-for-token exchange with Google happens backend-side.
func (c *Client) GoogleLogin(ctx context.Context, code string) (*User, string, error) {
	var result tokenResponse
	if err := c.post(ctx, googleLoginPath, googleLoginRequest{Code: code}, &result); err != nil {
		return nil, "", err
	}
	return result.User, result.Token, nil
}

// post makes a POST request and decodes the JSON response into out. Non-2xx
// responses and transport failures come back classified.
func (c *Client) post(ctx context.Context, path string, body any, out any) error {
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return errors.Wrap(err, "[Client.post] encoding request body")
		}
		reader = bytes.NewReader(encoded)
	}

	request, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, reader)
	if err != nil {
		return errors.Wrap(err, "[Client.post] building request")
	}
	request.Header.Set("Content-Type", "application/json")
	request.Header.Set("Accept", "application/json")

	response, err := c.httpClient.Do(request)
	if err != nil {
		return apierrors.Classify(0, nil, err)
	}
	defer response.Body.Close()

	responseBody, err := io.ReadAll(io.LimitReader(response.Body, maxResponseBody))
	if err != nil {
		return apierrors.Classify(0, nil, err)
	}

	if response.StatusCode < 200 || response.StatusCode > 299 {
		return apierrors.Classify(response.StatusCode, responseBody, nil)
	}

	if out != nil && len(responseBody) > 0 {
		if err := json.Unmarshal(responseBody, out); err != nil {
			return errors.Wrap(err, "[Client.post] decoding response")
		}
	}
	return nil
}
