package tasks

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/desertthunder/irx/internal/formatter"
	"github.com/desertthunder/irx/internal/shared"
	"golang.org/x/time/rate"
)

// BulkDownloadOpts contains configuration for bulk dataset downloads.
type BulkDownloadOpts struct {
	Format     string  // Export format: json, csv
	OutputDir  string  // Base output directory (default: irx_export_{epoch})
	NumWorkers int     // Concurrent workers (default: 5)
	RateLimit  float64 // API requests per second (default: 5)
}

// BulkDownload fetches multiple datasets concurrently with rate limiting and progress tracking.
//
// This method implements a worker pool pattern to efficiently download multiple datasets.
// The limiter paces the API calls made by the producer; chunk downloads hit the
// file host and run unpaced in the workers. Partial failures are collected per
// path, and a manifest file summarizes the run.
func (e *DownloadEngine) BulkDownload(
	ctx context.Context,
	prog chan<- ProgressUpdate,
	paths []string,
	opts BulkDownloadOpts,
) (*BulkResult, error) {
	if e.api == nil {
		return nil, fmt.Errorf("%w: API client not initialized", shared.ErrServiceUnavailable)
	}

	if opts.OutputDir == "" {
		opts.OutputDir = fmt.Sprintf("irx_export_%d", time.Now().Unix())
	}
	if opts.NumWorkers <= 0 {
		opts.NumWorkers = 5
	}
	if opts.NumWorkers > 10 {
		opts.NumWorkers = 10
	}
	if opts.RateLimit <= 0 {
		opts.RateLimit = 5.0
	}

	if err := os.MkdirAll(opts.OutputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	result := &BulkResult{
		TotalPaths:      len(paths),
		OutputDirectory: opts.OutputDir,
		Results:         make([]DownloadResult, 0, len(paths)),
	}

	limiter := rate.NewLimiter(rate.Limit(opts.RateLimit), 1)

	jobs := make(chan DownloadJob, len(paths))
	results := make(chan DownloadResult, len(paths))

	var wg sync.WaitGroup
	for i := 0; i < opts.NumWorkers; i++ {
		wg.Add(1)
		go e.downloadWorker(ctx, &wg, jobs, results, opts)
	}

	go func() {
		for i, path := range paths {
			select {
			case <-ctx.Done():
				close(jobs)
				return
			default:
			}

			if err := limiter.Wait(ctx); err != nil {
				close(jobs)
				return
			}

			e.sendProgress(prog, fetchingDatasetUpdate(i+1, len(paths), path))

			data, err := e.api.GetData(ctx, path)
			if err != nil {
				results <- DownloadResult{
					Path:    path,
					Name:    datasetName(path),
					Success: false,
					Error:   fmt.Errorf("failed to fetch dataset: %w", err),
				}
				continue
			}

			if data.Chunks != nil {
				e.sendProgress(prog, downloadingChunksUpdate(i+1, len(paths), path, data.Chunks.NumChunks))
			}

			jobs <- DownloadJob{
				Path: path,
				Data: data,
			}
		}
		close(jobs)
	}()

	go func() {
		wg.Wait()
		close(results)
	}()

	completed := 0
	for res := range results {
		completed++
		result.Results = append(result.Results, res)

		if res.Success {
			result.SuccessfulDownloads++
			e.sendProgress(prog, downloadCompletedUpdate(
				completed,
				len(paths),
				res.Name,
				len(res.Files),
			))
		} else {
			result.FailedDownloads++
			e.sendProgress(prog, downloadFailedUpdate(
				completed,
				len(paths),
				res.Name,
				res.Error,
			))
		}
	}

	manifestPath := filepath.Join(opts.OutputDir, "download_manifest.json")
	if err := formatter.WriteManifest(buildManifest(result, opts.Format), manifestPath); err != nil {
		return result, fmt.Errorf("download completed but failed to write manifest: %w", err)
	}
	result.ManifestPath = manifestPath
	return result, nil
}

// downloadWorker is a worker goroutine that exports datasets from the jobs channel.
func (e *DownloadEngine) downloadWorker(
	ctx context.Context,
	wg *sync.WaitGroup,
	jobs <-chan DownloadJob,
	results chan<- DownloadResult,
	opts BulkDownloadOpts,
) {
	defer wg.Done()

	for job := range jobs {
		select {
		case <-ctx.Done():
			return
		default:
		}

		res := e.downloadSingleDataset(ctx, job, opts)
		results <- res
	}
}

// downloadSingleDataset resolves chunks if present and writes the dataset in
// the requested format.
func (e *DownloadEngine) downloadSingleDataset(
	ctx context.Context,
	j DownloadJob,
	opts BulkDownloadOpts,
) DownloadResult {
	result := DownloadResult{
		Path:         j.Path,
		Name:         datasetName(j.Path),
		Success:      false,
		Files:        []string{},
		LinkFollowed: j.Data.LinkFollowed,
	}

	payload := j.Data.Payload
	var records []any

	if j.Data.Chunks != nil {
		result.Chunked = true

		chunks, err := e.api.GetChunks(ctx, j.Data, nil)
		if err != nil {
			result.Error = fmt.Errorf("chunk download failed: %w", err)
			return result
		}
		records = chunks.Records
		result.Records = len(records)
		payload = records
	}

	switch opts.Format {
	case "csv":
		if records == nil {
			list, ok := payload.([]any)
			if !ok {
				result.Error = fmt.Errorf("csv export requires a record list, %s is not one", j.Path)
				return result
			}
			records = list
			result.Records = len(records)
		}

		csvPath := filepath.Join(opts.OutputDir, fmt.Sprintf("%s.csv", result.Name))
		written, err := formatter.WriteCSVExport(records, csvPath)
		if err != nil {
			result.Error = fmt.Errorf("CSV export failed: %w", err)
			return result
		}
		result.Files = []string{written}
		result.Success = true

	case "json":
		fallthrough
	default:
		jsonPath := filepath.Join(opts.OutputDir, fmt.Sprintf("%s.json", result.Name))
		written, err := formatter.WriteJSONExport(payload, jsonPath)
		if err != nil {
			result.Error = fmt.Errorf("JSON export failed: %w", err)
			return result
		}
		result.Files = []string{written}
		result.Success = true
	}
	return result
}

// buildManifest converts a BulkResult into its manifest representation.
func buildManifest(result *BulkResult, format string) *formatter.Manifest {
	if format == "" {
		format = "json"
	}

	manifest := &formatter.Manifest{
		GeneratedAt:     time.Now().UTC(),
		OutputDirectory: result.OutputDirectory,
		Format:          format,
		TotalPaths:      result.TotalPaths,
		Successful:      result.SuccessfulDownloads,
		Failed:          result.FailedDownloads,
		Entries:         make([]formatter.ManifestEntry, 0, len(result.Results)),
	}

	for _, res := range result.Results {
		entry := formatter.ManifestEntry{
			Path:         res.Path,
			Files:        res.Files,
			Records:      res.Records,
			Chunked:      res.Chunked,
			LinkFollowed: res.LinkFollowed,
		}
		if res.Error != nil {
			entry.Error = res.Error.Error()
		}
		manifest.Entries = append(manifest.Entries, entry)
	}
	return manifest
}

// datasetName derives a file base name from an API path.
//
//	/data/car/assets → car_assets
func datasetName(path string) string {
	name := strings.Trim(path, "/")
	name = strings.TrimPrefix(name, "data/")
	name = strings.ReplaceAll(name, "/", "_")
	if name == "" {
		return "dataset"
	}
	return name
}
