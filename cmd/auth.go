package main

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/ChrisT3B/beats-repeats-test/internal/server"
	"github.com/ChrisT3B/beats-repeats-test/internal/shared"
)

// AuthLogin runs the PKCE authorization flow.
//
// Starts a local HTTP server, opens the browser for user authorization, and
// completes the code/verifier exchange when the callback arrives. The
// resulting access token is printed, never written to disk.
func (r *Runner) AuthLogin(ctx context.Context, cmd *cli.Command) error {
	if r.config.Credentials.Spotify.ClientID == "" {
		return fmt.Errorf("%w: Spotify client_id must be set in config.toml", shared.ErrMissingConfig)
	}

	broker, err := r.broker()
	if err != nil {
		return fmt.Errorf("failed to create credential broker: %w", err)
	}

	authURL, err := broker.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin authorization: %w", err)
	}

	callbackHandler := server.NewCallbackHandler(broker)
	router := server.NewBasicRouter()
	router.Use(server.RequestLogger(r.logger))
	router.Handler(callbackHandler)

	serverAddr := fmt.Sprintf("%s:%d", r.config.Server.Host, r.config.Server.Port)
	httpServer := &http.Server{
		Addr:    serverAddr,
		Handler: router,
	}

	serverErrors := make(chan error, 1)
	go func() {
		r.logger.Infof("starting callback server at %v", serverAddr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrors <- err
		}
	}()

	time.Sleep(100 * time.Millisecond)

	r.writePlain("→ Opening browser for Spotify authorization...\n")
	if err := shared.OpenBrowser(authURL); err != nil {
		r.logger.Warnf("failed to open browser automatically %v", err)
		r.writePlainln("⚠ Could not open browser automatically.")
		r.writePlain("Please open this URL in your browser:\n%s\n\n", authURL)
	}

	r.writePlain("→ Waiting for authorization (2 minute timeout)...\n")

	timeout := time.NewTimer(2 * time.Minute)
	defer timeout.Stop()

	var result server.CallbackResult

	select {
	case result = <-callbackHandler.Result():
		// Got result from callback
	case err := <-serverErrors:
		return fmt.Errorf("server error: %w", err)
	case <-timeout.C:
		return fmt.Errorf("%w: authorization timed out after 2 minutes", shared.ErrTimeout)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		r.logger.Warn("error shutting down server", "error", err)
	}

	if err := result.Error(); err != nil {
		return err
	}

	token := result.Token
	r.writePlainln("✓ Authorization successful")
	if !token.Expiry.IsZero() {
		r.writePlain("Token expires: %s\n\n", token.Expiry.Format(time.RFC1123))
	}
	r.writePlain("Export it for the other commands:\n")
	r.writePlain("  export BRT_TOKEN=%s\n", token.AccessToken)

	return nil
}

// AuthStatus checks the current token by fetching the user profile.
//
// Also reports the account tier: device sessions need a premium account.
func (r *Runner) AuthStatus(ctx context.Context, cmd *cli.Command) error {
	token, err := r.token(cmd)
	if err != nil {
		return err
	}

	r.logger.Info("checking auth status")

	user, err := r.client(token).Profile(ctx)
	if err != nil {
		return fmt.Errorf("profile request failed: %w", err)
	}

	r.writePlain("✓ Token is valid\n")
	r.writePlain("User: %s (%s)\n", user.DisplayName, user.ID)
	if user.Product == "premium" {
		r.writePlain("Account: premium\n")
	} else {
		r.writePlain("Account: %s (device sessions require premium)\n", user.Product)
	}
	return nil
}
