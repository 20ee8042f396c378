package main

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/desertthunder/irx/internal/server"
	"github.com/desertthunder/irx/internal/shared"
	"github.com/urfave/cli/v3"
)

// AuthLogin performs the OAuth2 + PKCE authorization flow.
//
// By default it starts a local HTTP server on the configured redirect URI,
// opens the browser, and exchanges the caught code. With --listen=false it
// prints the authorize URL and leaves completion to `auth callback`.
func (r *Runner) AuthLogin(ctx context.Context, cmd *cli.Command) error {
	session, err := r.session()
	if err != nil {
		return err
	}

	authURL, err := session.AuthorizeURL()
	if err != nil {
		return fmt.Errorf("failed to build authorize URL: %w", err)
	}

	if !cmd.Bool("listen") {
		r.writePlain("Open this URL in your browser and authorize access:\n\n%s\n\n", authURL)
		r.writePlain("Then finish with: irx auth callback \"<redirect url>\"\n")
		return nil
	}

	callbackURL, err := r.catchCallback(ctx, authURL, !cmd.Bool("no-browser"))
	if err != nil {
		return err
	}

	if err := session.HandleCallback(ctx, callbackURL); err != nil {
		return fmt.Errorf("code exchange failed: %w", err)
	}

	r.writePlainln("✓ Authorization successful")
	r.writePlain("✓ Session saved to %s\n\n", r.config.Database.Path)
	r.writePlain("You can now use: irx data get /data/member/info\n")

	return nil
}

// AuthCallback completes a pending login from a pasted redirect URL or a
// bare authorization code.
func (r *Runner) AuthCallback(ctx context.Context, cmd *cli.Command) error {
	input := strings.TrimSpace(cmd.StringArg("url"))
	if input == "" {
		return fmt.Errorf("%w: redirect URL or authorization code", shared.ErrMissingArgument)
	}

	session, err := r.session()
	if err != nil {
		return err
	}

	if err := session.HandleCallback(ctx, input); err != nil {
		return fmt.Errorf("code exchange failed: %w", err)
	}

	r.writePlainln("✓ Authorization successful")
	return nil
}

// AuthRefresh exchanges the stored refresh token for a new access token.
func (r *Runner) AuthRefresh(ctx context.Context, cmd *cli.Command) error {
	session, err := r.session()
	if err != nil {
		return err
	}

	refreshed, err := session.RefreshAccessToken(ctx)
	if err != nil {
		return fmt.Errorf("refresh failed: %w", err)
	}
	if !refreshed {
		return fmt.Errorf("no refresh token stored, run 'irx auth login' first")
	}

	r.writePlainln("✓ Access token refreshed")
	return nil
}

// AuthStatus reports the session state, optionally verifying it against the API.
func (r *Runner) AuthStatus(ctx context.Context, cmd *cli.Command) error {
	session, err := r.session()
	if err != nil {
		return err
	}

	if !session.IsAuthenticated() {
		r.writePlain("✗ Not signed in\n")
		r.writePlain("Run 'irx auth login' to authorize.\n")
		return nil
	}

	r.writePlain("✓ Signed in\n")
	if session.RefreshToken() != "" {
		r.writePlain("Refresh token: present\n")
	} else {
		r.writePlain("Refresh token: absent, sign in again when the access token expires\n")
	}

	if !cmd.Bool("verify") {
		return nil
	}

	client, err := r.dataClient()
	if err != nil {
		return err
	}

	result, err := client.GetData(ctx, "/data/member/info")
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}

	r.writePlain("API check: ✓ %s, %d bytes in %s\n", result.ContentType, result.SizeBytes, result.Duration.Round(time.Millisecond))
	return nil
}

// AuthLogout clears the stored session.
func (r *Runner) AuthLogout(ctx context.Context, cmd *cli.Command) error {
	session, err := r.session()
	if err != nil {
		return err
	}

	if err := session.Logout(); err != nil {
		return fmt.Errorf("logout failed: %w", err)
	}

	r.writePlain("✓ Signed out, session cleared\n")
	return nil
}

// AuthSetSession installs tokens obtained out of band.
func (r *Runner) AuthSetSession(ctx context.Context, cmd *cli.Command) error {
	access := cmd.String("access")
	if access == "" {
		return fmt.Errorf("%w: --access token", shared.ErrMissingArgument)
	}

	session, err := r.session()
	if err != nil {
		return err
	}

	if err := session.SetSession(access, cmd.String("refresh")); err != nil {
		return fmt.Errorf("failed to store session: %w", err)
	}

	r.writePlain("✓ Session installed\n")
	return nil
}

// catchCallback runs a local HTTP server on the configured redirect URI and
// waits for the provider to redirect back, returning the full callback URL.
func (r *Runner) catchCallback(ctx context.Context, authURL string, openBrowser bool) (string, error) {
	redirect, err := url.Parse(r.config.Credentials.RedirectURI)
	if err != nil || redirect.Host == "" {
		return "", fmt.Errorf("%w: redirect_uri %q is not listenable", shared.ErrInvalidConfig, r.config.Credentials.RedirectURI)
	}

	handler := server.NewCallbackHandler(redirect.Path)
	router := server.NewBasicRouter()
	router.Use(server.Logging(r.logger))
	router.Handler(handler)

	httpServer := &http.Server{
		Addr:    redirect.Host,
		Handler: router,
	}

	serverErrors := make(chan error, 1)
	go func() {
		r.logger.Info("starting callback server", "addr", redirect.Host)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrors <- err
		}
	}()

	time.Sleep(100 * time.Millisecond)

	if openBrowser {
		r.writePlain("→ Opening browser for iRacing sign-in...\n")
		if err := shared.OpenBrowser(authURL); err != nil {
			r.logger.Warnf("failed to open browser automatically %v", err)
			r.writePlainln("⚠ Could not open browser automatically.")
			r.writePlain("Please open this URL in your browser:\n%s\n\n", authURL)
		}
	} else {
		r.writePlain("Open this URL in your browser:\n\n%s\n\n", authURL)
	}

	r.writePlain("→ Waiting for authorization (2 minute timeout)...\n")

	timeout := time.NewTimer(2 * time.Minute)
	defer timeout.Stop()

	var result server.CallbackResult

	select {
	case result = <-handler.Result():
		// Got the redirect
	case err := <-serverErrors:
		return "", fmt.Errorf("callback server error: %w", err)
	case <-timeout.C:
		return "", fmt.Errorf("%w: no redirect after 2 minutes", shared.ErrCallbackTimeout)
	case <-ctx.Done():
		return "", ctx.Err()
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		r.logger.Warn("error shutting down callback server", "error", err)
	}

	if result.Error() != nil {
		return "", fmt.Errorf("authorization failed: %w", result.Error())
	}

	return result.URL, nil
}
