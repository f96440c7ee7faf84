// Package googleauth builds the Google consent URL that starts the OAuth
// login flow. The authorization code Google redirects back with is handed
// to the session manager's GoogleLogin, which lets the backend do the
// code-for-token exchange.
package googleauth

import (
	"github.com/google/uuid"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

var consentScopes = []string{
	"https://www.googleapis.com/auth/userinfo.email",
	"https://www.googleapis.com/auth/userinfo.profile",
}

// NewState returns a fresh opaque state value to correlate the redirect
// with the consent request.
func NewState() string {
	return uuid.New().String()
}

// ConsentURL returns the Google consent page URL for the given client.
// state must be echoed back on the redirect and checked by the caller.
func ConsentURL(clientID, redirectURL, state string) string {
	cfg := &oauth2.Config{
		ClientID:    clientID,
		RedirectURL: redirectURL,
		Scopes:      consentScopes,
		Endpoint:    google.Endpoint,
	}
	return cfg.AuthCodeURL(state, oauth2.AccessTypeOffline)
}
