package dashboard

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/bdjukic/outputdash/internal/outputsports"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type upstreamClientStub struct {
	measurements   []outputsports.Measurement
	metadata       []outputsports.ExerciseMetadata
	rejectYearSpan bool
	failAll        bool

	measurementCalls []struct{ start, end time.Time }
}

func (s *upstreamClientStub) Measurements(
	_ context.Context,
	startDate, endDate time.Time,
	_ []string,
	_ []string,
) ([]outputsports.Measurement, error) {
	s.measurementCalls = append(s.measurementCalls, struct{ start, end time.Time }{startDate, endDate})
	if s.failAll {
		return nil, errors.New("upstream down")
	}
	if s.rejectYearSpan && endDate.Sub(startDate) > 91*24*time.Hour {
		return nil, fmt.Errorf("span too wide: %w", outputsports.ErrUpstreamBadRequest)
	}
	return s.measurements, nil
}

func (s *upstreamClientStub) ExercisesMetadata(_ context.Context) ([]outputsports.ExerciseMetadata, error) {
	if s.failAll {
		return nil, errors.New("upstream down")
	}
	return s.metadata, nil
}

func testMetadata() []outputsports.ExerciseMetadata {
	return []outputsports.ExerciseMetadata{
		{ID: "ex1", Name: "Counter Movement Jump"},
		{ID: "ex2", Name: "Squat Jump"},
	}
}

func TestService_GetSnapshot_yearSpanWithFallback(t *testing.T) {
	now := time.Date(2024, 5, 10, 12, 0, 0, 0, time.UTC)
	stub := &upstreamClientStub{
		measurements:   []outputsports.Measurement{testMeasurement("m1", "ex1", "2024-05-01T10:00:00Z", nil)},
		metadata:       testMetadata(),
		rejectYearSpan: true,
	}
	service := NewService(stub, nil)

	snapshot, err := service.GetSnapshot(context.Background(), "athlete-1", now)
	require.NoError(t, err)
	require.Len(t, snapshot.Measurements, 1)

	// first try a year, then fall back to the 90 days upstream accepts
	require.Len(t, stub.measurementCalls, 2)
	yearCall := stub.measurementCalls[0]
	assert.Equal(t, yearCall.end.AddDate(-1, 0, 0), yearCall.start)
	fallbackCall := stub.measurementCalls[1]
	assert.Equal(t, fallbackCall.end.AddDate(0, 0, -89), fallbackCall.start)
}

func TestService_GetSnapshot_cachedWithinTTL(t *testing.T) {
	now := time.Date(2024, 5, 10, 12, 0, 0, 0, time.UTC)
	stub := &upstreamClientStub{metadata: testMetadata()}
	service := NewService(stub, nil)

	_, err := service.GetSnapshot(context.Background(), "athlete-1", now)
	require.NoError(t, err)
	_, err = service.GetSnapshot(context.Background(), "athlete-1", now.Add(time.Minute))
	require.NoError(t, err)
	assert.Len(t, stub.measurementCalls, 1)

	// expired snapshot triggers a refetch
	_, err = service.GetSnapshot(context.Background(), "athlete-1", now.Add(snapshotTTL+time.Minute))
	require.NoError(t, err)
	assert.Len(t, stub.measurementCalls, 2)

	// invalidation drops the cache
	service.InvalidateSnapshot("athlete-1")
	_, err = service.GetSnapshot(context.Background(), "athlete-1", now.Add(snapshotTTL+2*time.Minute))
	require.NoError(t, err)
	assert.Len(t, stub.measurementCalls, 3)
}

func TestService_GetSnapshot_upstreamFailure(t *testing.T) {
	stub := &upstreamClientStub{failAll: true}
	service := NewService(stub, nil)

	_, err := service.GetSnapshot(context.Background(), "athlete-1", time.Now())
	require.Error(t, err)
}

func TestService_GetSnapshot_staleServedOnRefetchFailure(t *testing.T) {
	now := time.Date(2024, 5, 10, 12, 0, 0, 0, time.UTC)
	stub := &upstreamClientStub{
		measurements: []outputsports.Measurement{testMeasurement("m1", "ex1", "2024-05-01T10:00:00Z", nil)},
		metadata:     testMetadata(),
	}
	service := NewService(stub, nil)

	snapshot, err := service.GetSnapshot(context.Background(), "athlete-1", now)
	require.NoError(t, err)

	// upstream goes down, the expired snapshot is served instead of an error
	stub.failAll = true
	stale, err := service.GetSnapshot(context.Background(), "athlete-1", now.Add(snapshotTTL+time.Minute))
	require.NoError(t, err)
	assert.Equal(t, snapshot, stale)
}

// three same-day measurements with mode=aggregate and range=today produce
// one bucket per measurement
func TestService_BuildSeries_todayScenario(t *testing.T) {
	now := time.Date(2024, 5, 10, 18, 0, 0, 0, time.UTC)
	snapshot := &Snapshot{
		AthleteID: "athlete-1",
		Measurements: []outputsports.Measurement{
			testMeasurement("m1", "ex1", "2024-05-10T08:00:00Z", map[string]float64{"jumpHeight": 40}),
			testMeasurement("m2", "ex1", "2024-05-10T12:00:00Z", map[string]float64{"jumpHeight": 42}),
			testMeasurement("m3", "ex1", "2024-05-10T16:00:00Z", map[string]float64{"jumpHeight": 41}),
		},
		Metadata:  testMetadata(),
		FetchedAt: now,
	}
	service := NewService(&upstreamClientStub{}, nil)

	series, err := service.BuildSeries(snapshot, Selection{
		RangeKind:  RangeToday,
		Mode:       ModeAggregate,
		ExerciseID: "ex1",
	}, now)
	require.NoError(t, err)

	require.Len(t, series.Buckets, 3)
	for _, bucket := range series.Buckets {
		assert.Equal(t, 1, bucket.MeasurementCount)
	}
	assert.Equal(t, "ex1", series.SelectedExerciseID)
}

// measurements on days D, D+1 and D+3 inside a 7-day window come back as
// exactly three day buckets, with no empty buckets emitted in between
func TestService_BuildSeries_sevenDaysScenario(t *testing.T) {
	now := time.Date(2024, 5, 10, 18, 0, 0, 0, time.UTC) // window covers 5/4 - 5/10
	snapshot := &Snapshot{
		AthleteID: "athlete-1",
		Measurements: []outputsports.Measurement{
			testMeasurement("m1", "ex1", "2024-05-04T08:00:00Z", map[string]float64{"meanForce": 400}),
			testMeasurement("m2", "ex1", "2024-05-05T09:00:00Z", map[string]float64{"meanForce": 500}),
			testMeasurement("m3", "ex1", "2024-05-05T17:00:00Z", map[string]float64{"meanForce": 700}),
			testMeasurement("m4", "ex1", "2024-05-07T08:00:00Z", map[string]float64{"meanForce": 600}),
		},
		Metadata:  testMetadata(),
		FetchedAt: now,
	}
	service := NewService(&upstreamClientStub{}, nil)

	series, err := service.BuildSeries(snapshot, Selection{
		RangeKind:  Range7Days,
		Mode:       ModeAggregate,
		ExerciseID: "ex1",
	}, now)
	require.NoError(t, err)

	require.Len(t, series.Buckets, 3)
	assert.Equal(t, "2024-05-04", series.Buckets[0].BucketKey)
	assert.Equal(t, "2024-05-05", series.Buckets[1].BucketKey)
	assert.Equal(t, 2, series.Buckets[1].MeasurementCount)
	assert.InDelta(t, 600, *series.Buckets[1].MetricAverages["meanForce"], 1e-9)
	assert.Equal(t, "2024-05-07", series.Buckets[2].BucketKey)
}

func TestService_BuildSeries_exerciseFallback(t *testing.T) {
	now := time.Date(2024, 5, 10, 18, 0, 0, 0, time.UTC)
	snapshot := &Snapshot{
		AthleteID: "athlete-1",
		Measurements: []outputsports.Measurement{
			testMeasurement("m1", "ex2", "2024-05-09T08:00:00Z", map[string]float64{"meanForce": 450}),
		},
		Metadata:  testMetadata(),
		FetchedAt: now,
	}
	service := NewService(&upstreamClientStub{}, nil)

	// ex1 has no data in range: selection falls back to ex2
	series, err := service.BuildSeries(snapshot, Selection{
		RangeKind:  Range7Days,
		Mode:       ModeAggregate,
		ExerciseID: "ex1",
	}, now)
	require.NoError(t, err)
	assert.Equal(t, "ex2", series.SelectedExerciseID)
	assert.Equal(t, []string{"ex2"}, series.ExercisesWithData)
	require.Len(t, series.Buckets, 1)
}

func TestService_BuildSeries_emptyWindowIsNotAnError(t *testing.T) {
	now := time.Date(2024, 5, 10, 18, 0, 0, 0, time.UTC)
	snapshot := &Snapshot{
		AthleteID: "athlete-1",
		Measurements: []outputsports.Measurement{
			testMeasurement("m1", "ex1", "2023-01-01T08:00:00Z", map[string]float64{"meanForce": 450}),
		},
		Metadata:  testMetadata(),
		FetchedAt: now,
	}
	service := NewService(&upstreamClientStub{}, nil)

	series, err := service.BuildSeries(snapshot, Selection{
		RangeKind: Range7Days,
		Mode:      ModeAggregate,
	}, now)
	require.NoError(t, err)
	assert.Empty(t, series.Buckets)
	assert.Empty(t, series.ExercisesWithData)
	assert.Equal(t, "", series.SelectedExerciseID)
}

func TestService_BuildSeries_invalidCustomRange(t *testing.T) {
	now := time.Date(2024, 5, 10, 18, 0, 0, 0, time.UTC)
	service := NewService(&upstreamClientStub{}, nil)

	_, err := service.BuildSeries(&Snapshot{}, Selection{
		RangeKind:   RangeCustom,
		Mode:        ModeAggregate,
		CustomStart: time.Date(2024, 5, 8, 0, 0, 0, 0, time.UTC),
		CustomEnd:   time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC),
	}, now)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidRange)
}

func TestService_BuildSeries_labelsAndAxes(t *testing.T) {
	now := time.Date(2024, 5, 10, 18, 0, 0, 0, time.UTC)
	snapshot := &Snapshot{
		AthleteID: "athlete-1",
		Measurements: []outputsports.Measurement{
			testMeasurement("m1", "ex1", "2024-05-09T08:00:00Z", map[string]float64{
				"meanForce":    480,
				"peakVelocity": 2.2,
			}),
		},
		Metadata:  testMetadata(),
		FetchedAt: now,
	}
	service := NewService(&upstreamClientStub{}, nil)

	series, err := service.BuildSeries(snapshot, Selection{
		RangeKind:  Range7Days,
		Mode:       ModeAggregate,
		ExerciseID: "ex1",
	}, now)
	require.NoError(t, err)

	assert.Equal(t, "Mean Force (N)", series.Labels["meanForce"])
	assert.Equal(t, "Peak Velocity (m/s)", series.Labels["peakVelocity"])
	assert.Equal(t, []string{"meanForce"}, series.Axes.Primary)
	assert.Equal(t, []string{"peakVelocity"}, series.Axes.Secondary)
}
