package apierrors_test

import (
	"errors"
	"net/http"
	"testing"

	"github.com/AsheeSoftworks/Authentication-Frontend-Boilerplate-Auth-Flow/apierrors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassifyNoResponse(t *testing.T) {
	structured := apierrors.Classify(0, nil, errors.New("dial tcp: connection refused"))

	require.NotNil(t, structured)
	assert.Equal(t, apierrors.KindNetworkError, structured.Kind)
	assert.Contains(t, structured.Message, "network unreachable")
	assert.Contains(t, structured.Message, "connection refused")
}

func TestClassifyStatusCodes(t *testing.T) {
	tests := []struct {
		name       string
		statusCode int
		body       string
		wantKind   apierrors.Kind
		wantMsg    string
		wantField  string
	}{
		{
			name:       "bad request is validation",
			statusCode: http.StatusBadRequest,
			body:       `{"message":"email is required","field":"email"}`,
			wantKind:   apierrors.KindValidation,
			wantMsg:    "email is required",
			wantField:  "email",
		},
		{
			name:       "unauthorized",
			statusCode: http.StatusUnauthorized,
			body:       `{"message":"Invalid credentials"}`,
			wantKind:   apierrors.KindUnauthorized,
			wantMsg:    "Invalid credentials",
		},
		{
			name:       "forbidden",
			statusCode: http.StatusForbidden,
			body:       `{}`,
			wantKind:   apierrors.KindForbidden,
			wantMsg:    "not permitted",
		},
		{
			name:       "not found",
			statusCode: http.StatusNotFound,
			body:       `{"message":"reset token not found"}`,
			wantKind:   apierrors.KindNotFound,
			wantMsg:    "reset token not found",
		},
		{
			name:       "conflict with field",
			statusCode: http.StatusConflict,
			body:       `{"message":"email already registered","field":"email"}`,
			wantKind:   apierrors.KindConflict,
			wantMsg:    "email already registered",
			wantField:  "email",
		},
		{
			name:       "rate limited",
			statusCode: http.StatusTooManyRequests,
			body:       ``,
			wantKind:   apierrors.KindRateLimited,
			wantMsg:    "too many requests",
		},
		{
			name:       "internal server error",
			statusCode: http.StatusInternalServerError,
			body:       `not even json`,
			wantKind:   apierrors.KindServerError,
			wantMsg:    "server error",
		},
		{
			name:       "bad gateway",
			statusCode: http.StatusBadGateway,
			body:       ``,
			wantKind:   apierrors.KindServerError,
			wantMsg:    "server error",
		},
		{
			name:       "teapot is unknown",
			statusCode: http.StatusTeapot,
			body:       ``,
			wantKind:   apierrors.KindUnknown,
			wantMsg:    "unexpected response",
		},
		{
			name:       "error key fallback",
			statusCode: http.StatusUnauthorized,
			body:       `{"error":"token expired"}`,
			wantKind:   apierrors.KindUnauthorized,
			wantMsg:    "token expired",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			structured := apierrors.Classify(tc.statusCode, []byte(tc.body), nil)

			require.NotNil(t, structured)
			assert.Equal(t, tc.wantKind, structured.Kind)
			assert.Equal(t, tc.wantMsg, structured.Message)
			assert.Equal(t, tc.wantField, structured.Field)
			assert.Equal(t, tc.statusCode, structured.StatusCode)
		})
	}
}

func TestClassifyIsDeterministic(t *testing.T) {
	body := []byte(`{"message":"email already registered","field":"email"}`)

	first := apierrors.Classify(http.StatusConflict, body, nil)
	second := apierrors.Classify(http.StatusConflict, body, nil)

	assert.Equal(t, first, second)
}

func TestErrorIsMatchesOnKind(t *testing.T) {
	err := apierrors.Classify(http.StatusUnauthorized, nil, nil)

	assert.True(t, errors.Is(err, apierrors.New(apierrors.KindUnauthorized, "")))
	assert.False(t, errors.Is(err, apierrors.New(apierrors.KindConflict, "")))
}

func TestFromErr(t *testing.T) {
	t.Run("nil stays nil", func(t *testing.T) {
		assert.Nil(t, apierrors.FromErr(nil))
	})

	t.Run("structured passes through", func(t *testing.T) {
		structured := apierrors.Validation("email", "email is required")
		assert.Same(t, structured, apierrors.FromErr(structured))
	})

	t.Run("plain error becomes unknown", func(t *testing.T) {
		structured := apierrors.FromErr(errors.New("boom"))
		require.NotNil(t, structured)
		assert.Equal(t, apierrors.KindUnknown, structured.Kind)
		assert.Equal(t, "boom", structured.Message)
	})
}

func TestNoSession(t *testing.T) {
	structured := apierrors.NoSession()

	assert.Equal(t, apierrors.KindNoSession, structured.Kind)
	assert.Zero(t, structured.StatusCode)
}
