package analysis

import (
	"fmt"
	"strings"
	"time"

	"github.com/bdjukic/outputdash/internal/outputsports"
)

// PrepareAnalysisData flattens a measurement set into the plain-text
// summary the model is asked to narrate: per-exercise session counts and
// metric min/avg/max, plus the most recent sessions.
func PrepareAnalysisData(
	measurements []outputsports.Measurement,
	metadata []outputsports.ExerciseMetadata,
	selectedAthlete *outputsports.Athlete,
	totalAthletes int,
	now time.Time,
) string {
	if len(measurements) == 0 {
		if selectedAthlete != nil {
			return fmt.Sprintf("No performance data available for %s in the selected time period.", selectedAthlete.FullName)
		}
		return "No performance data available for any athletes in the selected time period."
	}

	metadataByID := make(map[string]outputsports.ExerciseMetadata, len(metadata))
	for _, meta := range metadata {
		metadataByID[meta.ID] = meta
	}

	// group measurements per exercise, keeping first-seen exercise order
	groups := make(map[string][]outputsports.Measurement)
	var exerciseOrder []string
	for _, m := range measurements {
		if _, ok := groups[m.ExerciseID]; !ok {
			exerciseOrder = append(exerciseOrder, m.ExerciseID)
		}
		groups[m.ExerciseID] = append(groups[m.ExerciseID], m)
	}

	var b strings.Builder

	if selectedAthlete != nil {
		fmt.Fprintf(&b, "Performance Analysis for: %s\n", selectedAthlete.FullName)
		if age, ok := ageFromDateOfBirth(selectedAthlete.DateOfBirth, now); ok {
			fmt.Fprintf(&b, "Age: %d years\n", age)
		}
		b.WriteString("\n")
	} else {
		fmt.Fprintf(&b, "Performance Analysis for: All Athletes (%d total)\n\n", totalAthletes)
	}

	fmt.Fprintf(&b, "Total Measurements: %d\n", len(measurements))
	fmt.Fprintf(&b, "Exercises Performed: %d\n", len(groups))
	fmt.Fprintf(
		&b, "Date Range: %s to %s\n\n",
		dateOnly(measurements[0].CompletedDate),
		dateOnly(measurements[len(measurements)-1].CompletedDate),
	)

	for _, exerciseID := range exerciseOrder {
		group := groups[exerciseID]
		meta, hasMeta := metadataByID[exerciseID]

		name, category := exerciseID, "Unknown"
		if hasMeta {
			name, category = meta.Name, meta.Category
		}
		fmt.Fprintf(&b, "Exercise: %s (%s)\n", name, category)
		fmt.Fprintf(&b, "- Sessions: %d\n", len(group))

		for _, metric := range meta.Metrics {
			var values []float64
			for _, m := range group {
				for _, mv := range m.Metrics {
					if mv.Field == metric.Field {
						values = append(values, mv.Value)
					}
				}
			}
			if len(values) == 0 {
				continue
			}

			sum, minVal, maxVal := 0.0, values[0], values[0]
			for _, v := range values {
				sum += v
				if v < minVal {
					minVal = v
				}
				if v > maxVal {
					maxVal = v
				}
			}
			fmt.Fprintf(
				&b, "- %s: Avg %.2f%s, Max %g%s, Min %g%s\n",
				metric.Name,
				sum/float64(len(values)), metric.UnitOfMeasure,
				maxVal, metric.UnitOfMeasure,
				minVal, metric.UnitOfMeasure,
			)
		}

		b.WriteString("\n")
	}

	// last sessions give the model a sense of current form
	recent := measurements
	if len(recent) > 10 {
		recent = recent[len(recent)-10:]
	}
	b.WriteString("Recent Performance (Last 10 sessions):\n")
	for _, m := range recent {
		name := m.ExerciseID
		if meta, ok := metadataByID[m.ExerciseID]; ok {
			name = meta.Name
		}
		fmt.Fprintf(&b, "- %s: %s\n", dateOnly(m.CompletedDate), name)
	}

	return b.String()
}

func dateOnly(completedDate string) string {
	if idx := strings.IndexByte(completedDate, 'T'); idx > 0 {
		return completedDate[:idx]
	}
	return completedDate
}

func ageFromDateOfBirth(dateOfBirth string, now time.Time) (int, bool) {
	birth, err := time.Parse(time.RFC3339, dateOfBirth)
	if err != nil {
		birth, err = time.Parse(time.DateOnly, dateOfBirth)
		if err != nil {
			return 0, false
		}
	}

	age := now.Year() - birth.Year()
	if now.Month() < birth.Month() ||
		(now.Month() == birth.Month() && now.Day() < birth.Day()) {
		age--
	}
	return age, true
}
