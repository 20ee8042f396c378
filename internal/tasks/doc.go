// Package tasks orchestrates bulk dataset downloads with real-time progress reporting.
//
// # Core Operation
//
// [DownloadEngine.BulkDownload] takes a list of API paths and exports each
// dataset to disk:
//
//   - Fetches each dataset root, link resolution included
//   - Downloads and merges chunked result sets
//   - Writes JSON or CSV files plus a manifest summarizing the run
//
// # Worker Pool
//
// A producer goroutine fetches dataset roots under a [rate.Limiter] so the
// tool stays inside the API's request budget. Fetched datasets flow through a
// jobs channel to a pool of workers that download chunks and write files.
// Chunk downloads hit the file host rather than the API, so they are not
// paced by the limiter.
//
// # Progress Reporting
//
// All operations use non-blocking channels for progress updates.
//
// The [ProgressUpdate] struct contains phase, step counters, messages, and optional data for advanced UI rendering.
// Updates use select with default to prevent blocking.
//
// # Implementation
//
// [DownloadEngine] depends on [DataFetcher], the subset of the API client it
// needs. The concrete implementation is api.Client.
package tasks
