package tasks

import (
	"fmt"

	"github.com/desertthunder/crate/internal/formatter"
)

// ProgressUpdate represents a progress event during a long-running operation.
//
// Sent over channels to report status without blocking the operation.
type ProgressUpdate struct {
	Phase   Phase  // Operation phase
	Step    int    // Current step number within phase
	Total   int    // Total steps in this phase
	Message string // Human-readable message for display
	Data    any    // Optional phase-specific data for advanced UIs
}

// Phase identifies the current stage of an export.
type Phase int

const (
	FetchPages Phase = iota
	FetchReleases
	WriteRows
)

func (p Phase) String() string {
	switch p {
	case FetchPages:
		return "fetch_pages"
	case FetchReleases:
		return "fetch_releases"
	case WriteRows:
		return "write_rows"
	default:
		return ""
	}
}

func fetchPageUpdate(page, pages, count, total int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   FetchPages,
		Step:    page,
		Total:   pages,
		Message: fmt.Sprintf("Page %d/%d — %d items — total %d", page, pages, count, total),
	}
}

func collectedUpdate(total int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   FetchReleases,
		Step:    0,
		Total:   total,
		Message: fmt.Sprintf("Fetching details for %d releases...", total),
	}
}

func releaseUpdate(step, total int, row *formatter.ExportRow) ProgressUpdate {
	return ProgressUpdate{
		Phase:   FetchReleases,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] %s - %s", step, total, row.Artist, row.Title),
		Data:    row,
	}
}

func skippedUpdate(step, total int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   FetchReleases,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] skipped item without release id", step, total),
	}
}

func writeRowsUpdate(count int, path string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   WriteRows,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Writing %d rows to %s", count, path),
	}
}
