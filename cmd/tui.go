package main

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/irx/api"
	"github.com/desertthunder/irx/auth"
	"github.com/desertthunder/irx/internal/shared"
	"github.com/desertthunder/irx/internal/ui"
	"github.com/urfave/cli/v3"
)

// TUI launches the interactive endpoint browser.
//
// The TUI gets its own authenticator wired to the address bar: the pasted
// callback URL is read through the bar and the scrubbed URL written back,
// while tokens and the pending verifier share the CLI's database.
func (r *Runner) TUI(ctx context.Context, cmd *cli.Command) error {
	store, err := r.tokenStore()
	if err != nil {
		return err
	}

	// Redirect logs to file to avoid interfering with TUI rendering
	fileLogger, err := shared.NewFileLogger("./tmp/irx-tui.log")
	if err != nil {
		return fmt.Errorf("failed to create file logger: %w", err)
	}

	address := ui.NewAddressBar()
	host := address.Host()
	host.Attempts = store

	creds := r.config.Credentials
	session, err := auth.New(auth.Config{
		ClientID:    creds.ClientID,
		RedirectURI: creds.RedirectURI,
		Scope:       creds.Scope,
		AuthURL:     creds.AuthURL,
	}, auth.Opts{
		Store:      store,
		Host:       host,
		HTTPClient: r.httpClient,
		Logger:     fileLogger,
	})
	if err != nil {
		return fmt.Errorf("failed to build authenticator: %w", err)
	}

	client := api.NewClient(r.config.API.BaseURL, session, api.Opts{
		FileProxyURL: r.config.API.FileProxyURL,
		HTTPClient:   r.httpClient,
		Logger:       fileLogger,
	})

	model := ui.NewModel(ctx, session, client, address)
	p := tea.NewProgram(model, tea.WithAltScreen())

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running TUI: %w", err)
	}

	return nil
}
