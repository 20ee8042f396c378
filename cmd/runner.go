package main

import (
	"database/sql"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/irx/api"
	"github.com/desertthunder/irx/auth"
	"github.com/desertthunder/irx/internal/shared"
	"github.com/urfave/cli/v3"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
//
// The database, authenticator, and API client are built lazily on first use
// so commands that never touch them (setup, serve) stay cheap.
type Runner struct {
	config     *shared.Config
	configPath string
	logger     *log.Logger
	output     io.Writer
	httpClient *http.Client

	db   *sql.DB
	auth *auth.Authenticator
	api  *api.Client
}

// RunnerOpts contains configuration options for creating a Runner. Auth and
// API override the lazily built instances, mainly for tests.
type RunnerOpts struct {
	Config     *shared.Config
	ConfigPath string
	Auth       *auth.Authenticator
	API        *api.Client
	HTTPClient *http.Client
	Logger     *log.Logger
	Output     io.Writer
}

// NewRunner creates a new Runner with the provided configuration
func NewRunner(opts RunnerOpts) *Runner {
	if opts.Config == nil {
		opts.Config = shared.DefaultConfig()
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = &http.Client{Timeout: opts.Config.API.Timeout()}
	}

	return &Runner{
		config:     opts.Config,
		configPath: opts.ConfigPath,
		logger:     opts.Logger,
		output:     opts.Output,
		httpClient: opts.HTTPClient,
		auth:       opts.Auth,
		api:        opts.API,
	}
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		setupCommand, authCommand, dataCommand, bulkCommand, serveCommand, tuiCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// Close releases the lazily opened database handle.
func (r *Runner) Close() {
	if r.db == nil {
		return
	}
	if err := r.db.Close(); err != nil {
		r.logger.Warn("failed to close database", "error", err)
	}
	r.db = nil
}

// database opens the token database on first use and caches the handle.
func (r *Runner) database() (*sql.DB, error) {
	if r.db != nil {
		return r.db, nil
	}

	db, err := shared.NewDatabase(r.config.Database.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open token database: %w", err)
	}
	shared.ConfigureDatabase(db, r.config.Database.MaxOpenConns, r.config.Database.MaxIdleConns)

	r.db = db
	return db, nil
}

// tokenStore returns a durable store backed by the token database. It also
// holds pending attempt verifiers, so a login can span two invocations.
func (r *Runner) tokenStore() (*auth.SQLiteStore, error) {
	db, err := r.database()
	if err != nil {
		return nil, err
	}
	return auth.NewSQLiteStore(db, "")
}

// session returns the authenticator, building it on first use from the
// configured client registration and the durable token store.
func (r *Runner) session() (*auth.Authenticator, error) {
	if r.auth != nil {
		return r.auth, nil
	}

	store, err := r.tokenStore()
	if err != nil {
		return nil, err
	}

	creds := r.config.Credentials
	session, err := auth.New(auth.Config{
		ClientID:    creds.ClientID,
		RedirectURI: creds.RedirectURI,
		Scope:       creds.Scope,
		AuthURL:     creds.AuthURL,
	}, auth.Opts{
		Store:      store,
		Host:       auth.HostContext{Attempts: store},
		HTTPClient: r.httpClient,
		Logger:     r.logger,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to build authenticator: %w", err)
	}

	r.auth = session
	return session, nil
}

// dataClient returns the API client, built on first use on top of the
// session so fetches carry auth headers and refresh on a 401.
func (r *Runner) dataClient() (*api.Client, error) {
	if r.api != nil {
		return r.api, nil
	}

	session, err := r.session()
	if err != nil {
		return nil, err
	}

	r.api = api.NewClient(r.config.API.BaseURL, session, api.Opts{
		FileProxyURL: r.config.API.FileProxyURL,
		HTTPClient:   r.httpClient,
		Logger:       r.logger,
	})
	return r.api, nil
}

func (r *Runner) writeJSON(data any, pretty bool) error {
	output, err := shared.MarshalJSON(data, pretty)
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	if _, err := r.output.Write(output); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	if _, err := r.output.Write([]byte("\n")); err != nil {
		return fmt.Errorf("failed to write newline: %w", err)
	}

	return nil
}

func (r *Runner) writePlain(format string, args ...any) error {
	text := fmt.Sprintf(format, args...)
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainln(format string, args ...any) error {
	text := "\n" + fmt.Sprintf(format, args...) + "\n"
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainHeader(title string) {
	r.writePlain("═══════════════════════════════════════\n")
	r.writePlain("%v\n", title)
	r.writePlain("═══════════════════════════════════════\n")
}
