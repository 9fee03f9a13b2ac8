// ABOUTME: Authentication CLI commands
// ABOUTME: Handles the Google browser OAuth flow and Notion token storage
package cli

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os/exec"
	"runtime"

	"github.com/kaonmir/Nocioun-sub000/sync"
	"golang.org/x/oauth2"
)

// AuthGoogleCommand runs the browser OAuth flow and stores the resulting
// token. Offline access is requested so the stored token carries a refresh
// token.
func AuthGoogleCommand(args []string) error {
	fs := flag.NewFlagSet("google", flag.ExitOnError)
	_ = fs.Parse(args)

	ctx := context.Background()

	config := sync.NewOAuthConfig()
	if config.ClientID == "" || config.ClientSecret == "" {
		return fmt.Errorf("google OAuth credentials not configured. Set GOOGLE_CLIENT_ID and GOOGLE_CLIENT_SECRET environment variables")
	}

	callbackChan := make(chan *oauth2.Token)
	errChan := make(chan error)

	mux := http.NewServeMux()
	mux.HandleFunc("/oauth/callback", func(w http.ResponseWriter, r *http.Request) {
		code := r.URL.Query().Get("code")
		if code == "" {
			errChan <- fmt.Errorf("no authorization code received")
			return
		}

		token, err := config.Exchange(ctx, code)
		if err != nil {
			errChan <- fmt.Errorf("failed to exchange code: %w", err)
			return
		}

		callbackChan <- token
		_, _ = fmt.Fprintf(w, "Authorization successful! You can close this window.")
	})

	server := &http.Server{Addr: ":8080", Handler: mux}
	go func() {
		if err := server.ListenAndServe(); err != http.ErrServerClosed {
			errChan <- err
		}
	}()

	authURL := config.AuthCodeURL("state", oauth2.AccessTypeOffline)

	fmt.Println("Opening browser for Google OAuth...")
	fmt.Printf("\nIf browser doesn't open, visit this URL:\n%s\n\n", authURL)

	_ = openBrowser(authURL)

	select {
	case token := <-callbackChan:
		_ = server.Shutdown(ctx)

		if err := sync.SaveGoogleToken(token); err != nil {
			return fmt.Errorf("failed to save token: %w", err)
		}

		fmt.Printf("\n✓ Authenticated successfully\n")
		fmt.Printf("✓ Tokens saved to %s\n\n", sync.GoogleTokenPath())
		fmt.Println("Ready to sync! Run 'nocioun sync --database-id <id>' to sync contacts.")

		return nil

	case err := <-errChan:
		_ = server.Shutdown(ctx)
		return fmt.Errorf("OAuth flow failed: %w", err)
	}
}

// AuthNotionCommand stores the Notion integration token.
func AuthNotionCommand(args []string) error {
	fs := flag.NewFlagSet("notion", flag.ExitOnError)
	token := fs.String("token", "", "Notion integration token (ntn_... or secret_...)")
	_ = fs.Parse(args)

	if *token == "" {
		return fmt.Errorf("--token is required (create an integration at https://www.notion.so/my-integrations)")
	}

	if err := sync.SaveNotionToken(*token); err != nil {
		return fmt.Errorf("failed to save notion token: %w", err)
	}

	fmt.Printf("✓ Notion token saved to %s\n", sync.NotionTokenPath())
	fmt.Println("Remember to share the target database with your integration.")

	return nil
}

// openBrowser opens the URL in the default browser.
func openBrowser(url string) error {
	var cmd string
	var args []string

	switch runtime.GOOS {
	case "windows":
		cmd = "cmd"
		args = []string{"/c", "start"}
	case "darwin":
		cmd = "open"
	default:
		cmd = "xdg-open"
	}
	args = append(args, url)

	return exec.Command(cmd, args...).Start()
}
