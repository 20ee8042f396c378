package tasks

import (
	"context"

	"github.com/desertthunder/irx/api"
)

// DownloadJob carries one fetched dataset from the producer to a worker.
type DownloadJob struct {
	Path string          // API path the dataset came from
	Data *api.DataResult // Fetched dataset, link already resolved
}

// DownloadResult represents the outcome of exporting a single dataset.
type DownloadResult struct {
	Path         string   // API path
	Name         string   // Derived file base name
	Success      bool     // Whether the export completed
	Error        error    // Error if the download or export failed
	Files        []string // Files written
	Records      int      // Record count for chunked datasets
	Chunked      bool     // Whether the dataset carried a chunk descriptor
	LinkFollowed bool     // Whether the payload came from a link target
}

// BulkResult contains all data from a bulk download operation.
type BulkResult struct {
	TotalPaths          int              // Paths requested
	SuccessfulDownloads int              // Datasets exported
	FailedDownloads     int              // Datasets that failed
	OutputDirectory     string           // Where files were written
	ManifestPath        string           // Path of the manifest file
	Results             []DownloadResult // Individual outcomes
}

// DataFetcher defines the interface for fetching datasets from the API.
// This abstraction allows for easier testing and decoupling from concrete implementation.
type DataFetcher interface {
	GetData(ctx context.Context, path string) (*api.DataResult, error)
	GetChunks(ctx context.Context, data *api.DataResult, rng *api.ChunkRange) (*api.ChunkResult, error)
}

// DownloadEngine orchestrates bulk dataset downloads.
type DownloadEngine struct {
	api DataFetcher
}

// NewDownloadEngine creates a new DownloadEngine backed by the given fetcher.
func NewDownloadEngine(api DataFetcher) *DownloadEngine {
	return &DownloadEngine{api: api}
}

// sendProgress sends a progress update through the channel without blocking.
// Uses select with default to ensure progress reporting never blocks execution.
func (e *DownloadEngine) sendProgress(progress chan<- ProgressUpdate, update ProgressUpdate) {
	if progress == nil {
		return
	}
	select {
	case progress <- update:
		// Sent successfully
	default:
		// Channel full or closed, skip this update
	}
}
