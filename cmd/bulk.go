package main

import (
	"context"
	"fmt"

	"github.com/desertthunder/irx/internal/shared"
	"github.com/desertthunder/irx/internal/tasks"
	"github.com/urfave/cli/v3"
)

// BulkDownload fetches multiple datasets through the worker pool and writes
// them to an output directory with a manifest.
func (r *Runner) BulkDownload(ctx context.Context, cmd *cli.Command) error {
	paths := cmd.Args().Slice()
	if len(paths) == 0 {
		return fmt.Errorf("%w: at least one endpoint path", shared.ErrMissingArgument)
	}

	format := cmd.String("format")
	if format != "json" && format != "csv" {
		return fmt.Errorf("%w: format must be json or csv, got %q", shared.ErrInvalidArgument, format)
	}

	client, err := r.dataClient()
	if err != nil {
		return err
	}
	engine := tasks.NewDownloadEngine(client)

	opts := tasks.BulkDownloadOpts{
		Format:     format,
		OutputDir:  cmd.String("out"),
		NumWorkers: cmd.Int("workers"),
		RateLimit:  cmd.Float("rps"),
	}

	r.logger.Info("starting bulk download", "paths", len(paths), "workers", opts.NumWorkers, "rps", opts.RateLimit)
	r.writePlain("Downloading %d datasets...\n\n", len(paths))

	// Create progress channel and goroutine to handle updates
	progressCh := make(chan tasks.ProgressUpdate, 50)
	done := make(chan struct{})
	go func() {
		for update := range progressCh {
			switch update.Phase {
			case tasks.FetchDataset:
				r.writePlain("📥 %s\n", update.Message)
			case tasks.DownloadChunks:
				r.writePlain("📦 %s\n", update.Message)
			default:
				r.writePlain("   %s\n", update.Message)
			}
		}
		close(done)
	}()

	// Run the engine operation
	result, err := engine.BulkDownload(ctx, progressCh, paths, opts)
	close(progressCh)
	<-done

	if err != nil {
		return err
	}

	r.writePlain("\n")
	r.writePlainHeader("Bulk Download Complete")
	r.writePlain("Datasets: %d\n", result.TotalPaths)
	r.writePlain("Succeeded: %d\n", result.SuccessfulDownloads)
	r.writePlain("Failed: %d\n", result.FailedDownloads)
	r.writePlain("Output: %s\n", result.OutputDirectory)
	r.writePlain("Manifest: %s\n", result.ManifestPath)

	if result.FailedDownloads > 0 {
		r.writePlain("\nFailed datasets:\n")
		for _, res := range result.Results {
			if !res.Success {
				r.writePlain("  - %s: %v\n", res.Path, res.Error)
			}
		}
	}

	return nil
}
