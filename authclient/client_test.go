package authclient_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/AsheeSoftworks/Authentication-Frontend-Boilerplate-Auth-Flow/apierrors"
	"github.com/AsheeSoftworks/Authentication-Frontend-Boilerplate-Auth-Flow/authclient"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoginSuccess(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/auth/login", r.URL.Path)
		require.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		require.Equal(t, "user@example.com", body["email"])
		require.Equal(t, "secret123", body["password"])

		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"user":{"email":"user@example.com","name":"Jo Doe"},"token":"abc"}`)
	}))
	defer server.Close()

	client := authclient.New(server.URL)

	user, token, err := client.Login(context.Background(), "user@example.com", "secret123")
	require.NoError(t, err)
	require.NotNil(t, user)
	assert.Equal(t, "user@example.com", user.Email)
	assert.Equal(t, "Jo Doe", user.Name)
	assert.Equal(t, "abc", token)
}

func TestLoginUnauthorized(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = io.WriteString(w, `{"message":"Invalid credentials"}`)
	}))
	defer server.Close()

	client := authclient.New(server.URL)

	_, _, err := client.Login(context.Background(), "user@example.com", "wrong")
	require.Error(t, err)

	var structured *apierrors.Error
	require.ErrorAs(t, err, &structured)
	assert.Equal(t, apierrors.KindUnauthorized, structured.Kind)
	assert.Equal(t, "Invalid credentials", structured.Message)
	assert.Equal(t, http.StatusUnauthorized, structured.StatusCode)
}

func TestUnreachableBackendIsNetworkError(t *testing.T) {
	// Reserved TEST-NET-1 address: nothing listens there.
	client := authclient.New("http://192.0.2.1:1", authclient.WithTimeout(100*time.Millisecond))

	_, _, err := client.Login(context.Background(), "user@example.com", "secret123")
	require.Error(t, err)

	var structured *apierrors.Error
	require.ErrorAs(t, err, &structured)
	assert.Equal(t, apierrors.KindNetworkError, structured.Kind)
}

func TestRegisterConflict(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/auth/register", r.URL.Path)

		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		require.Equal(t, "p1", body["confirm_password"])

		w.WriteHeader(http.StatusConflict)
		_, _ = io.WriteString(w, `{"message":"email already registered","field":"email"}`)
	}))
	defer server.Close()

	client := authclient.New(server.URL)

	_, err := client.Register(context.Background(), "Jo", "dup@example.com", "p1", "p1")
	require.Error(t, err)

	var structured *apierrors.Error
	require.ErrorAs(t, err, &structured)
	assert.Equal(t, apierrors.KindConflict, structured.Kind)
	assert.Equal(t, "email", structured.Field)
}

func TestRefreshToken(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/auth/refresh-token", r.URL.Path)

		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		require.Equal(t, "abc", body["token"])

		_, _ = io.WriteString(w, `{"token":"next"}`)
	}))
	defer server.Close()

	client := authclient.New(server.URL)

	token, err := client.RefreshToken(context.Background(), "abc")
	require.NoError(t, err)
	assert.Equal(t, "next", token)
}

func TestVerifyToken(t *testing.T) {
	tests := []struct {
		name string
		body string
		want bool
	}{
		{"valid", `{"valid":true}`, true},
		{"invalid", `{"valid":false}`, false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				require.Equal(t, "/auth/verify-token", r.URL.Path)
				_, _ = io.WriteString(w, tc.body)
			}))
			defer server.Close()

			valid, err := authclient.New(server.URL).VerifyToken(context.Background(), "abc")
			require.NoError(t, err)
			assert.Equal(t, tc.want, valid)
		})
	}
}

func TestVerifyEmailEscapesToken(t *testing.T) {
	var seenPath string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seenPath = r.URL.EscapedPath()
	}))
	defer server.Close()

	require.NoError(t, authclient.New(server.URL).VerifyEmail(context.Background(), "tok/with?odd=chars"))
	assert.Equal(t, "/auth/verify/tok%2Fwith%3Fodd=chars", seenPath)
}

func TestBodilessEndpoints(t *testing.T) {
	var paths []string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		paths = append(paths, r.URL.Path)
	}))
	defer server.Close()

	client := authclient.New(server.URL)
	ctx := context.Background()

	require.NoError(t, client.RequestPasswordReset(ctx, "user@example.com"))
	require.NoError(t, client.ResendVerification(ctx, "user@example.com"))
	require.NoError(t, client.ResetPassword(ctx, "newpass", "newpass", "reset-tok"))

	assert.Equal(t, []string{
		"/auth/request-password-reset",
		"/auth/resend-verification",
		"/auth/reset-password",
	}, paths)
}

func TestGoogleLogin(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/auth/google/login", r.URL.Path)

		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		require.Equal(t, "auth-code-1", body["code"])

		_, _ = io.WriteString(w, `{"user":{"email":"user@example.com"},"token":"abc"}`)
	}))
	defer server.Close()

	user, token, err := authclient.New(server.URL).GoogleLogin(context.Background(), "auth-code-1")
	require.NoError(t, err)
	require.NotNil(t, user)
	assert.Equal(t, "user@example.com", user.Email)
	assert.Equal(t, "abc", token)
}
