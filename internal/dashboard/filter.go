package dashboard

import (
	"time"

	"github.com/bdjukic/outputdash/internal/outputsports"

	log "github.com/sirupsen/logrus"
)

// FilterResult is the outcome of narrowing a measurement snapshot to a
// time window.
type FilterResult struct {
	InRange             []outputsports.Measurement
	ExerciseIDsWithData map[string]bool
	// Skipped counts measurements dropped for an unparseable completedDate.
	Skipped int
}

// FilterMeasurements keeps measurements whose completion instant falls in
// [window.Start, window.End], inclusive on both ends. For `today` windows
// the decision is made on the calendar date in the window's zone, so a
// record stamped earlier the same day by a skewed clock still counts.
// Pure: the input slice is never mutated.
func FilterMeasurements(measurements []outputsports.Measurement, window TimeWindow) FilterResult {
	result := FilterResult{
		InRange:             make([]outputsports.Measurement, 0, len(measurements)),
		ExerciseIDsWithData: make(map[string]bool),
	}

	loc := window.Start.Location()
	for _, m := range measurements {
		completed, err := time.Parse(time.RFC3339, m.CompletedDate)
		if err != nil {
			log.Warnf("filter measurements: skipping %s, bad completed date %q: %s", m.ID, m.CompletedDate, err)
			result.Skipped++
			continue
		}

		var include bool
		if window.Today {
			y1, mo1, d1 := completed.In(loc).Date()
			y2, mo2, d2 := window.Start.Date()
			include = y1 == y2 && mo1 == mo2 && d1 == d2
		} else {
			include = !completed.Before(window.Start) && !completed.After(window.End)
		}

		if include {
			result.InRange = append(result.InRange, m)
			result.ExerciseIDsWithData[m.ExerciseID] = true
		}
	}

	return result
}

// NextSelectedExercise keeps the current selection when it still has data
// in range, otherwise falls back to the first exercise (in metadata order)
// that does. Empty string means no selection is possible.
func NextSelectedExercise(
	currentID string,
	exerciseIDsWithData map[string]bool,
	metadata []outputsports.ExerciseMetadata,
) string {
	if exerciseIDsWithData[currentID] {
		return currentID
	}
	for _, meta := range metadata {
		if exerciseIDsWithData[meta.ID] {
			return meta.ID
		}
	}
	return ""
}
