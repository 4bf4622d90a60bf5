package tasks

import "fmt"

// ProgressUpdate represents a progress event during a long-running operation.
//
// Used to send real-time updates to the CLI or UI layer for display.
type ProgressUpdate struct {
	Phase    Phase   // Operation phase
	ItemID   string  // Item the update belongs to
	Percent  float64 // Transfer completion, 0-100
	Step     int     // Current step number within a batch
	Total    int     // Total steps in the batch
	Message  string  // Human-readable message for display
	SpeedMBs float64 // Transfer rate in MB/s, when known
}

// Operation phase enumeration
type Phase int

const (
	PhaseStarting Phase = iota
	PhaseTransferring
	PhaseFinalizing
	PhaseSaving
	PhaseFallback
	PhaseCompleted
	PhaseFailed
)

func (p Phase) String() string {
	switch p {
	case PhaseStarting:
		return "starting"
	case PhaseTransferring:
		return "transferring"
	case PhaseFinalizing:
		return "finalizing"
	case PhaseSaving:
		return "saving"
	case PhaseFallback:
		return "fallback"
	case PhaseCompleted:
		return "completed"
	case PhaseFailed:
		return "failed"
	default:
		return ""
	}
}

func startingUpdate(itemID, title string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   PhaseStarting,
		ItemID:  itemID,
		Message: fmt.Sprintf("Preparing download: %s...", title),
	}
}

func transferUpdate(itemID string, percent, downloadedMB, totalMB, speed float64) ProgressUpdate {
	msg := fmt.Sprintf("Downloading... %.1f%%", percent)
	if totalMB > 0 {
		msg = fmt.Sprintf("Downloading... %.1f%% (%.1f/%.1f MB)", percent, downloadedMB, totalMB)
	}
	return ProgressUpdate{
		Phase:    PhaseTransferring,
		ItemID:   itemID,
		Percent:  percent,
		Message:  msg,
		SpeedMBs: speed,
	}
}

func finalizingUpdate(itemID string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   PhaseFinalizing,
		ItemID:  itemID,
		Percent: 100,
		Message: "Processing on server...",
	}
}

func savingUpdate(itemID, filename string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   PhaseSaving,
		ItemID:  itemID,
		Percent: 100,
		Message: fmt.Sprintf("Saving %s...", filename),
	}
}

func fallbackUpdate(itemID string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   PhaseFallback,
		ItemID:  itemID,
		Message: "Progress channel unavailable, retrying with direct download...",
	}
}

func completedUpdate(itemID, path string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   PhaseCompleted,
		ItemID:  itemID,
		Percent: 100,
		Message: fmt.Sprintf("✓ Saved to %s", path),
	}
}

func failedUpdate(itemID string, err error) ProgressUpdate {
	return ProgressUpdate{
		Phase:   PhaseFailed,
		ItemID:  itemID,
		Message: fmt.Sprintf("✗ %v", err),
	}
}

func batchItemUpdate(step, total int, itemID, title string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   PhaseStarting,
		ItemID:  itemID,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] %s", step, total, title),
	}
}

func batchDoneUpdate(step, total int, itemID string, err error) ProgressUpdate {
	if err != nil {
		return ProgressUpdate{
			Phase:   PhaseFailed,
			ItemID:  itemID,
			Step:    step,
			Total:   total,
			Message: fmt.Sprintf("[%d/%d] ✗ %s: %v", step, total, itemID, err),
		}
	}
	return ProgressUpdate{
		Phase:   PhaseCompleted,
		ItemID:  itemID,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] ✓ %s", step, total, itemID),
	}
}
