package tasks

import "fmt"

// ProgressUpdate represents a progress event during a long-running operation.
//
// Used to send real-time updates to the CLI or UI layer for display.
type ProgressUpdate struct {
	Phase   Phase  // Operation phase
	Step    int    // Current step number within phase
	Total   int    // Total steps in this phase
	Message string // Human-readable message for display
	Data    any    // Optional phase-specific data for advanced UIs
}

// Operation phase enumeration
type Phase int

const (
	FetchDataset Phase = iota
	DownloadChunks
	ExportDataset
)

func (p Phase) String() string {
	switch p {
	case FetchDataset:
		return "fetch_dataset"
	case DownloadChunks:
		return "download_chunks"
	case ExportDataset:
		return "export_dataset"
	default:
		return ""
	}
}

func fetchingDatasetUpdate(step, total int, path string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   FetchDataset,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] Fetching: %s...", step, total, path),
	}
}

func downloadingChunksUpdate(step, total int, path string, numChunks int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   DownloadChunks,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] Downloading %d chunks: %s...", step, total, numChunks, path),
	}
}

func downloadCompletedUpdate(step, total int, name string, filesCount int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ExportDataset,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] ✓ %s (%d files)", step, total, name, filesCount),
	}
}

func downloadFailedUpdate(step, total int, name string, err error) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ExportDataset,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] ✗ %s: %v", step, total, name, err),
	}
}
