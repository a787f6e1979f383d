package wizard

import (
	"fmt"
	"math"
	"strconv"
)

// Progress is the indicator derived from the current step index.
type Progress struct {
	Current      int
	Total        int
	Percent      float64
	Width        string
	PercentLabel string
	StepLabel    string
}

// ComputeProgress derives the indicator for a zero-based current index.
func ComputeProgress(current, total int) Progress {
	if total <= 0 {
		return Progress{}
	}
	percent := float64(current+1) / float64(total) * 100
	return Progress{
		Current:      current,
		Total:        total,
		Percent:      percent,
		Width:        strconv.FormatFloat(percent, 'f', -1, 64) + "%",
		PercentLabel: fmt.Sprintf("%d%%", int(math.Floor(percent+0.5))),
		StepLabel:    fmt.Sprintf("Step %d / %d", current+1, total),
	}
}
