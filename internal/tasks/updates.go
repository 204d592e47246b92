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
	WriteList Phase = iota
	FetchCovers
	WriteManifest
)

func (p Phase) String() string {
	switch p {
	case WriteList:
		return "write_list"
	case FetchCovers:
		return "fetch_covers"
	case WriteManifest:
		return "write_manifest"
	default:
		return ""
	}
}

func writingListUpdate(total int, format string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   WriteList,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Writing %d books as %s...", total, format),
	}
}

func fetchingCoversUpdate(total int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   FetchCovers,
		Step:    0,
		Total:   total,
		Message: fmt.Sprintf("Downloading %d cover images...", total),
	}
}

func coverSavedUpdate(step, total int, title, file string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   FetchCovers,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] ✓ %s", step, total, title),
		Data:    file,
	}
}

func coverFailedUpdate(step, total int, title string, err error) ProgressUpdate {
	return ProgressUpdate{
		Phase:   FetchCovers,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] ✗ %s: %v", step, total, title, err),
	}
}

func writingManifestUpdate(path string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   WriteManifest,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Writing manifest to %s", path),
	}
}
