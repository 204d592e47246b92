// package tasks implements long-running archive operations over the book log.
//
// The core abstraction is ArchiveEngine, which writes a full export of the
// library to disk and downloads cover images with a bounded worker pool.
// Operations emit progress updates via channels for non-blocking status
// reporting to CLI/UI layers.
package tasks

import (
	"net/http"
	"time"
)

// CoverResult represents the outcome of downloading a single cover image.
type CoverResult struct {
	BookID int64  `json:"bookId"`
	Title  string `json:"title"`
	File   string `json:"file,omitempty"`
	Error  string `json:"error,omitempty"`
}

// ArchiveResult contains all data from a completed archive run.
type ArchiveResult struct {
	TotalBooks      int           `json:"totalBooks"`
	CoversRequested int           `json:"coversRequested"`
	CoversSaved     int           `json:"coversSaved"`
	CoversFailed    int           `json:"coversFailed"`
	Covers          []CoverResult `json:"covers,omitempty"`
	ListFile        string        `json:"listFile"`
	ManifestPath    string        `json:"manifestPath"`
	OutputDirectory string        `json:"outputDirectory"`
}

// ArchiveEngine writes library archives to disk.
type ArchiveEngine struct {
	client *http.Client
}

// NewArchiveEngine creates an ArchiveEngine. A nil client gets a default with
// a request timeout, so a stalled image host cannot hang the whole run.
func NewArchiveEngine(client *http.Client) *ArchiveEngine {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	return &ArchiveEngine{client: client}
}

// sendProgress sends a progress update through the channel without blocking.
// Uses select with default to ensure progress reporting never blocks execution.
func (e *ArchiveEngine) sendProgress(progress chan<- ProgressUpdate, update ProgressUpdate) {
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
