package dashboard

import (
	"strings"
	"unicode"

	"github.com/bdjukic/outputdash/internal/outputsports"
)

// fieldUnits maps the common biomechanical metric fields to their units.
// The field set is exercise-dependent and open-ended, so this is only the
// first lookup tier; unknown fields fall back to exercise metadata.
var fieldUnits = map[string]string{
	"meanForce":         "N",
	"peakForce":         "N",
	"relativeMeanForce": "N/kg",
	"meanVelocity":      "m/s",
	"peakVelocity":      "m/s",
	"takeoffVelocity":   "m/s",
	"meanPower":         "W",
	"peakPower":         "W",
	"relativePeakPower": "W/kg",
	"meanAcceleration":  "m/s²",
	"peakAcceleration":  "m/s²",
	"impulse":           "N·s",
	"netImpulse":        "N·s",
	"rfd":               "N/s",
	"bodyWeight":        "kg",
	"load":              "kg",
	"contactTime":       "s",
	"flightTime":        "s",
	"duration":          "s",
	"workDone":          "J",
	"jumpHeight":        "cm",
	"distance":          "m",
	"repCount":          "reps",
}

// unitSpellings normalizes free-text unit spellings found in exercise
// metadata to canonical shorthand. Keys are lowercase.
var unitSpellings = map[string]string{
	"newton":                     "N",
	"newtons":                    "N",
	"newton second":              "N·s",
	"newton seconds":             "N·s",
	"meter per second":           "m/s",
	"meters per second":          "m/s",
	"metre per second":           "m/s",
	"metres per second":          "m/s",
	"meter per second squared":   "m/s²",
	"meters per second squared":  "m/s²",
	"metre per second squared":   "m/s²",
	"metres per second squared":  "m/s²",
	"watt":                       "W",
	"watts":                      "W",
	"kilogram":                   "kg",
	"kilograms":                  "kg",
	"second":                     "s",
	"seconds":                    "s",
	"millisecond":                "ms",
	"milliseconds":               "ms",
	"centimeter":                 "cm",
	"centimeters":                "cm",
	"centimetre":                 "cm",
	"centimetres":                "cm",
	"meter":                      "m",
	"meters":                     "m",
	"joule":                      "J",
	"joules":                     "J",
	"repetition":                 "reps",
	"repetitions":                "reps",
	"percent":                    "%",
	"percentage":                 "%",
	"degree":                     "°",
	"degrees":                    "°",
}

// DisplayName turns a camelCase metric field into a human title:
// "meanForce" becomes "Mean Force".
func DisplayName(field string) string {
	if field == "" {
		return ""
	}

	var b strings.Builder
	b.Grow(len(field) + 4)
	for i, r := range field {
		if i == 0 {
			b.WriteRune(unicode.ToUpper(r))
			continue
		}
		if unicode.IsUpper(r) {
			b.WriteRune(' ')
		}
		b.WriteRune(r)
	}
	return b.String()
}

// Unit resolves the physical unit for a metric field: the built-in table
// first, then the unitOfMeasure recorded on the exercise metadata
// (normalized from free-text spellings), then the raw metadata string.
func Unit(field string, metadata *outputsports.ExerciseMetadata) string {
	if unit, ok := fieldUnits[field]; ok {
		return unit
	}

	if metadata == nil {
		return ""
	}
	for _, metric := range metadata.Metrics {
		if metric.Field != field {
			continue
		}
		raw := strings.TrimSpace(metric.UnitOfMeasure)
		if canonical, ok := unitSpellings[strings.ToLower(raw)]; ok {
			return canonical
		}
		return raw
	}

	return ""
}

// Label combines display name and unit: "Mean Force (N)", or just the
// display name when no unit is known.
func Label(field string, metadata *outputsports.ExerciseMetadata) string {
	name := DisplayName(field)
	if unit := Unit(field, metadata); unit != "" {
		return name + " (" + unit + ")"
	}
	return name
}
