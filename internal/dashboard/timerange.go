package dashboard

import (
	"errors"
	"fmt"
	"time"
)

// RangeKind is the symbolic time range selector coming from the UI.
type RangeKind string

const (
	RangeToday  RangeKind = "today"
	Range7Days  RangeKind = "7days"
	Range30Days RangeKind = "30days"
	Range90Days RangeKind = "90days"
	RangeYear   RangeKind = "year"
	RangeAll    RangeKind = "all"
	RangeCustom RangeKind = "custom"
)

// AggregationMode selects between calendar bucketing and raw pass-through.
type AggregationMode string

const (
	ModeAggregate AggregationMode = "aggregate"
	ModeShowAll   AggregationMode = "showAll"
)

var (
	ErrInvalidRange = errors.New("invalid range")
	ErrUnknownRange = errors.New("unknown range kind")
	ErrUnknownMode  = errors.New("unknown aggregation mode")
)

// TimeWindow is a concrete [Start, End] pair, End always >= Start.
// Today marks windows produced by the `today` resolver, which downstream
// filtering treats by calendar date instead of by instant.
type TimeWindow struct {
	Start time.Time
	End   time.Time
	Today bool
}

func ParseRangeKind(s string) (RangeKind, error) {
	switch RangeKind(s) {
	case RangeToday, Range7Days, Range30Days, Range90Days, RangeYear, RangeAll, RangeCustom:
		return RangeKind(s), nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownRange, s)
}

func ParseAggregationMode(s string) (AggregationMode, error) {
	switch AggregationMode(s) {
	case ModeAggregate, ModeShowAll:
		return AggregationMode(s), nil
	case "":
		return ModeAggregate, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownMode, s)
}

func startOfDay(t time.Time) time.Time {
	year, month, day := t.Date()
	return time.Date(year, month, day, 0, 0, 0, 0, t.Location())
}

func endOfDay(t time.Time) time.Time {
	year, month, day := t.Date()
	return time.Date(year, month, day, 23, 59, 59, int(999*time.Millisecond), t.Location())
}

// ResolveRange maps a symbolic range to a concrete window, anchored so that
// "today" is always included. All calendar arithmetic happens in the
// location of `now` - the single calendar authority for the whole pipeline.
//
// The 90days, year and all kinds are all capped at 90 days: the upstream
// measurement API rejects wider spans.
func ResolveRange(kind RangeKind, now time.Time) (TimeWindow, error) {
	end := endOfDay(now)
	switch kind {
	case RangeToday:
		return TimeWindow{Start: startOfDay(now), End: end, Today: true}, nil
	case Range7Days:
		return TimeWindow{Start: startOfDay(now.AddDate(0, 0, -6)), End: end}, nil
	case Range30Days:
		return TimeWindow{Start: startOfDay(now.AddDate(0, 0, -29)), End: end}, nil
	case Range90Days, RangeYear, RangeAll:
		return TimeWindow{Start: startOfDay(now.AddDate(0, 0, -89)), End: end}, nil
	case RangeCustom:
		return TimeWindow{}, fmt.Errorf("%w: custom range needs explicit bounds", ErrInvalidRange)
	}
	return TimeWindow{}, fmt.Errorf("%w: %q", ErrUnknownRange, kind)
}

// ResolveCustomRange expands caller-supplied calendar dates to a full-day
// window in the zone of `start`.
func ResolveCustomRange(start, end time.Time) (TimeWindow, error) {
	dayStart := startOfDay(start)
	dayEnd := endOfDay(end.In(start.Location()))
	if dayStart.After(dayEnd) {
		return TimeWindow{}, fmt.Errorf(
			"%w: start %s after end %s",
			ErrInvalidRange, start.Format(time.DateOnly), end.Format(time.DateOnly),
		)
	}
	return TimeWindow{Start: dayStart, End: dayEnd}, nil
}
