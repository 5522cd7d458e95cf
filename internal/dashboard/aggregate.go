package dashboard

import (
	"fmt"
	"sort"
	"time"

	"github.com/bdjukic/outputdash/internal/outputsports"

	log "github.com/sirupsen/logrus"
)

// Bucket is one chart-ready row: either a single measurement (showAll or
// today) or a calendar day/week/month group with averaged metrics.
// MetricAverages carries every field seen anywhere in the series; a field
// with no contributing values in this bucket is nil (JSON null), never
// omitted - downstream consumers rely on a stable field set.
type Bucket struct {
	BucketKey          string              `json:"bucketKey"`
	DisplayLabel       string              `json:"displayLabel"`
	RepresentativeDate time.Time           `json:"representativeDate"`
	MeasurementCount   int                 `json:"measurementCount"`
	AthleteID          string              `json:"athleteId"`
	AthleteName        string              `json:"athleteName"`
	ExerciseID         string              `json:"exerciseId"`
	ExerciseCategory   string              `json:"exerciseCategory"`
	ExerciseType       string              `json:"exerciseType"`
	Variant            string              `json:"variant"`
	MetricAverages     map[string]*float64 `json:"metricAverages"`
}

type timedMeasurement struct {
	outputsports.Measurement
	completed time.Time
}

// AggregateMeasurements turns filtered measurements into chart buckets.
//
// showAll mode and the today range keep one bucket per measurement; other
// ranges group by calendar day (7days), simplified Jan-1-anchored week
// (30days) or month (90days and wider). Measurements with an unparseable
// completedDate are skipped with a warning. Calendar fields are derived in
// `loc`, the same zone the window was resolved in.
func AggregateMeasurements(
	measurements []outputsports.Measurement,
	kind RangeKind,
	mode AggregationMode,
	loc *time.Location,
) []Bucket {
	if loc == nil {
		loc = time.Local
	}

	timed := make([]timedMeasurement, 0, len(measurements))
	for _, m := range measurements {
		completed, err := time.Parse(time.RFC3339, m.CompletedDate)
		if err != nil {
			log.Warnf("aggregate measurements: skipping %s, bad completed date %q: %s", m.ID, m.CompletedDate, err)
			continue
		}
		timed = append(timed, timedMeasurement{Measurement: m, completed: completed.In(loc)})
	}
	if len(timed) == 0 {
		return []Bucket{}
	}

	// stable union of every metric field seen in the series
	fieldSet := make(map[string]bool)
	var fields []string
	for _, tm := range timed {
		for _, metric := range tm.Metrics {
			if !fieldSet[metric.Field] {
				fieldSet[metric.Field] = true
				fields = append(fields, metric.Field)
			}
		}
	}

	if mode == ModeShowAll || kind == RangeToday {
		return perMeasurementBuckets(timed, kind, mode, fields)
	}
	return groupedBuckets(timed, kind, fields)
}

func perMeasurementBuckets(
	timed []timedMeasurement,
	kind RangeKind,
	mode AggregationMode,
	fields []string,
) []Bucket {
	sort.Slice(timed, func(i, j int) bool {
		return timed[i].completed.Before(timed[j].completed)
	})

	buckets := make([]Bucket, 0, len(timed))
	for _, tm := range timed {
		averages := make(map[string]*float64, len(fields))
		for _, field := range fields {
			averages[field] = nil
		}
		for _, metric := range tm.Metrics {
			value := metric.Value
			averages[metric.Field] = &value
		}

		var label string
		if mode == ModeAggregate && kind == RangeToday {
			label = fmt.Sprintf("%d:%02d", tm.completed.Hour(), tm.completed.Minute())
		} else {
			label = fmt.Sprintf(
				"%d/%d %d:%02d",
				int(tm.completed.Month()), tm.completed.Day(),
				tm.completed.Hour(), tm.completed.Minute(),
			)
		}

		buckets = append(buckets, Bucket{
			BucketKey:          tm.ID,
			DisplayLabel:       label,
			RepresentativeDate: tm.completed,
			MeasurementCount:   1,
			AthleteID:          tm.AthleteID,
			AthleteName:        athleteName(tm.Measurement),
			ExerciseID:         tm.ExerciseID,
			ExerciseCategory:   tm.ExerciseCategory,
			ExerciseType:       tm.ExerciseType,
			Variant:            variantOrStandard(tm.Variant),
			MetricAverages:     averages,
		})
	}

	return buckets
}

type bucketAccum struct {
	key   string
	label string
	// ascending sort rank: (sortA, sortB) follows the key semantics
	sortA int
	sortB int

	first  timedMeasurement
	count  int
	sums   map[string]float64
	counts map[string]int
}

func groupedBuckets(timed []timedMeasurement, kind RangeKind, fields []string) []Bucket {
	accums := make(map[string]*bucketAccum)

	for _, tm := range timed {
		key, label, sortA, sortB := bucketKeyFor(tm.completed, kind)

		accum, ok := accums[key]
		if !ok {
			accum = &bucketAccum{
				key:    key,
				label:  label,
				sortA:  sortA,
				sortB:  sortB,
				first:  tm,
				sums:   make(map[string]float64),
				counts: make(map[string]int),
			}
			accums[key] = accum
		}
		if tm.completed.Before(accum.first.completed) {
			accum.first = tm
		}

		accum.count++
		for _, metric := range tm.Metrics {
			accum.sums[metric.Field] += metric.Value
			accum.counts[metric.Field]++
		}
	}

	ordered := make([]*bucketAccum, 0, len(accums))
	for _, accum := range accums {
		ordered = append(ordered, accum)
	}
	sort.Slice(ordered, func(i, j int) bool {
		if ordered[i].sortA != ordered[j].sortA {
			return ordered[i].sortA < ordered[j].sortA
		}
		return ordered[i].sortB < ordered[j].sortB
	})

	buckets := make([]Bucket, 0, len(ordered))
	for _, accum := range ordered {
		averages := make(map[string]*float64, len(fields))
		for _, field := range fields {
			if count := accum.counts[field]; count > 0 {
				avg := accum.sums[field] / float64(count)
				averages[field] = &avg
			} else {
				averages[field] = nil
			}
		}

		buckets = append(buckets, Bucket{
			BucketKey:          accum.key,
			DisplayLabel:       accum.label,
			RepresentativeDate: accum.first.completed,
			MeasurementCount:   accum.count,
			AthleteID:          accum.first.AthleteID,
			AthleteName:        athleteName(accum.first.Measurement),
			ExerciseID:         accum.first.ExerciseID,
			ExerciseCategory:   accum.first.ExerciseCategory,
			ExerciseType:       accum.first.ExerciseType,
			Variant:            variantOrStandard(accum.first.Variant),
			MetricAverages:     averages,
		})
	}

	return buckets
}

// bucketKeyFor picks the bucket granularity for a range: days for a week
// of data, simplified weeks for a month, months for anything wider.
// Custom ranges bucket by day.
func bucketKeyFor(completed time.Time, kind RangeKind) (key, label string, sortA, sortB int) {
	switch kind {
	case Range30Days:
		// weeks counted from Jan 1, not ISO-8601; a truncated "week 0"
		// at year start is expected
		year := completed.Year()
		week := (completed.YearDay() - 1) / 7
		blockStart := time.Date(year, 1, 1, 0, 0, 0, 0, completed.Location()).AddDate(0, 0, week*7)
		blockEnd := blockStart.AddDate(0, 0, 6)
		key = fmt.Sprintf("%d-W%d", year, week)
		label = fmt.Sprintf(
			"%d/%d-%d/%d",
			int(blockStart.Month()), blockStart.Day(),
			int(blockEnd.Month()), blockEnd.Day(),
		)
		return key, label, year, week
	case Range90Days, RangeYear, RangeAll:
		key = completed.Format("2006-01")
		label = completed.Format("January 2006")
		return key, label, completed.Year(), int(completed.Month())
	default: // 7days, custom
		key = completed.Format(time.DateOnly)
		label = fmt.Sprintf("%d/%d", int(completed.Month()), completed.Day())
		return key, label, completed.Year(), completed.YearDay()
	}
}

func athleteName(m outputsports.Measurement) string {
	switch {
	case m.AthleteFirstName == "" && m.AthleteLastName == "":
		return ""
	case m.AthleteFirstName == "":
		return m.AthleteLastName
	case m.AthleteLastName == "":
		return m.AthleteFirstName
	}
	return m.AthleteFirstName + " " + m.AthleteLastName
}

func variantOrStandard(variant *string) string {
	if variant == nil || *variant == "" {
		return "Standard"
	}
	return *variant
}
