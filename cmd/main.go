package main

import (
	"context"
	"os"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/irx/internal/shared"
	"github.com/urfave/cli/v3"
)

func main() {
	logger := shared.NewLogger(nil)

	configPath := "config.toml"
	config := shared.DefaultConfig()
	if _, err := os.Stat(configPath); err == nil {
		if loadedConfig, err := shared.LoadConfig(configPath); err == nil {
			config = loadedConfig
		} else {
			logger.Warn("failed to parse config, using defaults", "error", err)
		}
	}

	runner := NewRunner(RunnerOpts{
		Config:     config,
		ConfigPath: configPath,
		Logger:     logger,
	})

	app := &cli.Command{
		Name:    "irx",
		Usage:   "iRacing Data API client with OAuth2 + PKCE sign-in",
		Version: "0.3.0",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:    "verbose",
				Aliases: []string{"v"},
				Usage:   "Enable debug logging",
			},
			&cli.BoolFlag{
				Name:    "quiet",
				Aliases: []string{"q"},
				Usage:   "Log warnings and errors only",
			},
		},
		Before: func(ctx context.Context, cmd *cli.Command) (context.Context, error) {
			switch {
			case cmd.Bool("verbose"):
				shared.SetLogLevel(logger, log.DebugLevel)
			case cmd.Bool("quiet"):
				shared.SetLogLevel(logger, log.WarnLevel)
			}
			return ctx, nil
		},
		Commands: runner.register(),
	}

	err := app.Run(context.Background(), os.Args)
	runner.Close()
	if err != nil {
		logger.Fatalf("application error: %v", err)
	}
}
