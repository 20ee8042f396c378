// submodule cmd contains command definitions
package main

import "github.com/urfave/cli/v3"

// authCommand handles the OAuth session lifecycle
func authCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "auth",
		Usage: "Manage the iRacing OAuth session",
		Commands: []*cli.Command{
			{
				Name:  "login",
				Usage: "Authorize with iRacing using OAuth2 + PKCE",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "listen",
						Usage: "Run a local server to catch the OAuth redirect",
						Value: true,
					},
					&cli.BoolFlag{
						Name:  "no-browser",
						Usage: "Print the authorize URL instead of opening a browser",
					},
				},
				Action: r.AuthLogin,
			},
			{
				Name:  "callback",
				Usage: "Complete a pending login from a pasted redirect URL or code",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "url"},
				},
				Action: r.AuthCallback,
			},
			{
				Name:   "refresh",
				Usage:  "Exchange the refresh token for a new access token",
				Action: r.AuthRefresh,
			},
			{
				Name:  "status",
				Usage: "Show the current session state",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "verify",
						Usage: "Make an authenticated API call to verify the session",
					},
				},
				Action: r.AuthStatus,
			},
			{
				Name:   "logout",
				Usage:  "Clear the stored session",
				Action: r.AuthLogout,
			},
			{
				Name:  "set-session",
				Usage: "Install tokens obtained elsewhere (CI, another machine)",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "access",
						Usage:    "Access token",
						Required: true,
					},
					&cli.StringFlag{
						Name:  "refresh",
						Usage: "Refresh token",
					},
				},
				Action: r.AuthSetSession,
			},
		},
	}
}

// dataCommand handles single dataset fetches
func dataCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "data",
		Usage: "Fetch Data API datasets",
		Commands: []*cli.Command{
			{
				Name:  "get",
				Usage: "Fetch a dataset, following the link envelope when present",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "path"},
				},
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "pretty",
						Usage: "Pretty-print output",
						Value: true,
					},
					&cli.BoolFlag{
						Name:  "raw",
						Usage: "Compact JSON output",
					},
					&cli.StringFlag{
						Name:    "output",
						Aliases: []string{"o"},
						Usage:   "Write the payload to a file instead of stdout",
					},
				},
				Action: r.DataGet,
			},
			{
				Name:  "chunks",
				Usage: "Download and merge the chunk files of a chunked dataset",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "path"},
				},
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:  "start",
						Usage: "First chunk index to download",
					},
					&cli.IntFlag{
						Name:  "limit",
						Usage: "Number of chunks to download (0 = through the end)",
					},
					&cli.BoolFlag{
						Name:  "csv",
						Usage: "Export records as CSV instead of JSON",
					},
					&cli.StringFlag{
						Name:    "output",
						Aliases: []string{"o"},
						Usage:   "Write records to a file instead of stdout",
					},
				},
				Action: r.DataChunks,
			},
			{
				Name:  "meta",
				Usage: "Show response metadata without printing the payload",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "path"},
				},
				Action: r.DataMeta,
			},
		},
	}
}

// bulkCommand downloads many datasets through the worker pool
func bulkCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:      "bulk",
		Usage:     "Download multiple datasets concurrently with a manifest",
		ArgsUsage: "<path> [path...]",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "format",
				Aliases: []string{"f"},
				Usage:   "Export format: json or csv",
				Value:   "json",
			},
			&cli.StringFlag{
				Name:    "out",
				Aliases: []string{"o"},
				Usage:   "Output directory (default irx_export_<timestamp>)",
			},
			&cli.IntFlag{
				Name:    "workers",
				Aliases: []string{"w"},
				Usage:   "Concurrent download workers",
				Value:   5,
			},
			&cli.FloatFlag{
				Name:  "rps",
				Usage: "API requests per second",
				Value: 5.0,
			},
		},
		Action: r.BulkDownload,
	}
}

// serveCommand runs the local demo proxy.
func serveCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Run the CORS proxy for browser clients",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "host",
				Usage: "Bind host (default from config)",
			},
			&cli.IntFlag{
				Name:    "port",
				Aliases: []string{"p"},
				Usage:   "Bind port (default from config)",
			},
		},
		Action: r.Serve,
	}
}

// setupCommand prepares the config file and the token database.
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "Create the config file and initialize the token database",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to configuration file",
				Value:   "config.toml",
			},
		},
		Action: r.Setup,
	}
}

// tuiCommand returns the top-level TUI command for interactive browsing.
func tuiCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "tui",
		Aliases: []string{"interactive", "ui"},
		Usage:   "Launch the interactive endpoint browser",
		Action:  r.TUI,
	}
}
