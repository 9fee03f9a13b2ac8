// ABOUTME: OAuth configuration and token management for the Google source
// ABOUTME: Handles OAuth config, token storage at XDG paths, and refresh capability checks
package sync

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/adrg/xdg"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

// NewOAuthConfig creates the OAuth2 config for the Google People API.
// Client credentials come from the environment; users create their own
// OAuth app in Google Cloud Console.
func NewOAuthConfig() *oauth2.Config {
	return &oauth2.Config{
		ClientID:     os.Getenv("GOOGLE_CLIENT_ID"),
		ClientSecret: os.Getenv("GOOGLE_CLIENT_SECRET"),
		RedirectURL:  "http://localhost:8080/oauth/callback",
		Scopes: []string{
			"https://www.googleapis.com/auth/contacts.readonly",
		},
		Endpoint: google.Endpoint,
	}
}

// GoogleTokenPath returns the XDG-compliant path for the Google OAuth token.
func GoogleTokenPath() string {
	return filepath.Join(xdg.DataHome, "nocioun", "google-credentials.json")
}

// NotionTokenPath returns the XDG-compliant path for the Notion token.
func NotionTokenPath() string {
	return filepath.Join(xdg.DataHome, "nocioun", "notion-credentials.json")
}

// SaveGoogleToken saves the OAuth token with restricted permissions.
func SaveGoogleToken(token *oauth2.Token) error {
	path := GoogleTokenPath()

	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("failed to create token directory: %w", err)
	}

	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("failed to create token file: %w", err)
	}
	defer func() { _ = f.Close() }()

	if err := json.NewEncoder(f).Encode(token); err != nil {
		return fmt.Errorf("failed to encode token: %w", err)
	}

	return nil
}

// LoadGoogleToken loads the OAuth token from the XDG data directory.
func LoadGoogleToken() (*oauth2.Token, error) {
	f, err := os.Open(GoogleTokenPath())
	if err != nil {
		return nil, fmt.Errorf("failed to open token file: %w", err)
	}
	defer func() { _ = f.Close() }()

	var token oauth2.Token
	if err := json.NewDecoder(f).Decode(&token); err != nil {
		return nil, fmt.Errorf("failed to decode token: %w", err)
	}

	return &token, nil
}

type notionCredentials struct {
	Token string `json:"token"`
}

// SaveNotionToken stores the Notion integration token.
func SaveNotionToken(token string) error {
	path := NotionTokenPath()

	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("failed to create token directory: %w", err)
	}

	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("failed to create token file: %w", err)
	}
	defer func() { _ = f.Close() }()

	if err := json.NewEncoder(f).Encode(notionCredentials{Token: token}); err != nil {
		return fmt.Errorf("failed to encode token: %w", err)
	}

	return nil
}

// LoadNotionToken returns the Notion integration token, preferring the
// NOTION_TOKEN environment variable over the stored credentials file.
func LoadNotionToken() (string, error) {
	if token := os.Getenv("NOTION_TOKEN"); token != "" {
		return token, nil
	}

	f, err := os.Open(NotionTokenPath())
	if err != nil {
		return "", fmt.Errorf("failed to open notion token file: %w", err)
	}
	defer func() { _ = f.Close() }()

	var creds notionCredentials
	if err := json.NewDecoder(f).Decode(&creds); err != nil {
		return "", fmt.Errorf("failed to decode notion token: %w", err)
	}
	if creds.Token == "" {
		return "", fmt.Errorf("stored notion token is empty")
	}

	return creds.Token, nil
}

// CheckCredentials verifies both providers are authenticated before a run.
// The Google token must carry a refresh token so the run cannot die halfway
// through pagination on an expired access token.
func CheckCredentials() error {
	token, err := LoadGoogleToken()
	if err != nil {
		return fmt.Errorf("google credentials missing, run 'nocioun auth google': %w", err)
	}
	if token.RefreshToken == "" {
		return fmt.Errorf("google token has no refresh token, run 'nocioun auth google' again")
	}

	if _, err := LoadNotionToken(); err != nil {
		return fmt.Errorf("notion credentials missing, run 'nocioun auth notion' or set NOTION_TOKEN: %w", err)
	}

	return nil
}
