package main

import (
	"context"
	"fmt"
	"time"

	"github.com/desertthunder/irx/api"
	"github.com/desertthunder/irx/internal/formatter"
	"github.com/desertthunder/irx/internal/shared"
	"github.com/urfave/cli/v3"
)

// DataGet fetches a dataset and prints or saves its payload.
func (r *Runner) DataGet(ctx context.Context, cmd *cli.Command) error {
	path := cmd.StringArg("path")
	if path == "" {
		return fmt.Errorf("%w: endpoint path, e.g. /data/car/assets", shared.ErrMissingArgument)
	}

	client, err := r.dataClient()
	if err != nil {
		return err
	}

	r.logger.Info("fetching dataset", "path", path)

	result, err := client.GetData(ctx, path)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}

	if result.Chunks != nil {
		r.writePlain("Dataset is chunked: %d chunks, %d rows.\n", result.Chunks.NumChunks, result.Chunks.Rows)
		r.writePlain("Use: irx data chunks %s\n", path)
		return nil
	}

	if output := cmd.String("output"); output != "" {
		written, err := formatter.WriteJSONExport(result.Payload, output)
		if err != nil {
			return err
		}
		r.writePlain("✓ Saved to %s (%d bytes fetched in %s)\n", written, result.SizeBytes, result.Duration.Round(time.Millisecond))
		return nil
	}

	return r.writeJSON(result.Payload, cmd.Bool("pretty") && !cmd.Bool("raw"))
}

// DataChunks downloads the chunk files of a chunked dataset and merges them.
func (r *Runner) DataChunks(ctx context.Context, cmd *cli.Command) error {
	path := cmd.StringArg("path")
	if path == "" {
		return fmt.Errorf("%w: endpoint path, e.g. /data/results/season_results", shared.ErrMissingArgument)
	}

	client, err := r.dataClient()
	if err != nil {
		return err
	}

	r.logger.Info("fetching chunk descriptor", "path", path)

	data, err := client.GetData(ctx, path)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}
	if data.Chunks == nil {
		return fmt.Errorf("dataset %s is not chunked, use 'irx data get'", path)
	}

	var rng *api.ChunkRange
	if cmd.Int("start") > 0 || cmd.Int("limit") > 0 {
		rng = &api.ChunkRange{Start: cmd.Int("start"), Limit: cmd.Int("limit")}
	}

	r.logger.Info("downloading chunks", "total", data.Chunks.NumChunks)

	chunks, err := client.GetChunks(ctx, data, rng)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}

	r.logger.Info("chunks downloaded",
		"records", len(chunks.Records),
		"bytes", chunks.SizeBytes,
		"download_time", chunks.Duration.Round(time.Millisecond),
	)

	output := cmd.String("output")

	if cmd.Bool("csv") {
		if output != "" {
			written, err := formatter.WriteCSVExport(chunks.Records, output)
			if err != nil {
				return err
			}
			r.writePlain("✓ %d records saved to %s\n", len(chunks.Records), written)
			return nil
		}

		csvData, err := formatter.ExportToCSV(chunks.Records)
		if err != nil {
			return err
		}
		_, err = r.output.Write(csvData)
		return err
	}

	if output != "" {
		written, err := formatter.WriteJSONExport(chunks.Records, output)
		if err != nil {
			return err
		}
		r.writePlain("✓ %d records saved to %s\n", len(chunks.Records), written)
		return nil
	}

	return r.writeJSON(chunks.Records, true)
}

// DataMeta shows response metadata without printing the payload.
func (r *Runner) DataMeta(ctx context.Context, cmd *cli.Command) error {
	path := cmd.StringArg("path")
	if path == "" {
		return fmt.Errorf("%w: endpoint path", shared.ErrMissingArgument)
	}

	client, err := r.dataClient()
	if err != nil {
		return err
	}

	result, err := client.GetData(ctx, path)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}

	r.writePlain("Path: %s\n", path)
	r.writePlain("Content type: %s\n", result.ContentType)
	r.writePlain("Size: %d bytes\n", result.SizeBytes)
	r.writePlain("Duration: %s\n", result.Duration.Round(time.Millisecond))
	r.writePlain("Link followed: %t\n", result.LinkFollowed)

	if result.Chunks != nil {
		r.writePlain("Chunked: yes\n")
		r.writePlain("  Chunks: %d\n", result.Chunks.NumChunks)
		r.writePlain("  Rows: %d\n", result.Chunks.Rows)
		r.writePlain("  Chunk size: %d\n", result.Chunks.ChunkSize)
	} else {
		r.writePlain("Chunked: no\n")
	}

	return nil
}
