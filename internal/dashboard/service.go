package dashboard

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/bdjukic/outputdash/internal/outputsports"
	"github.com/bdjukic/outputdash/internal/telemetry/metrics"
	"github.com/bdjukic/outputdash/internal/telemetry/tracing"

	log "github.com/sirupsen/logrus"
)

const snapshotTTL = 10 * time.Minute

// upstreamClient is the slice of the Output Sports client the dashboard
// needs.
type upstreamClient interface {
	Measurements(
		ctx context.Context,
		startDate, endDate time.Time,
		exerciseMetadataIDs []string,
		athleteIDs []string,
	) ([]outputsports.Measurement, error)
	ExercisesMetadata(ctx context.Context) ([]outputsports.ExerciseMetadata, error)
}

// Snapshot is the immutable per-athlete working set: one broad fetch of
// measurements plus exercise metadata. All series are recomputed purely
// from it, so re-running on every interaction needs no locking.
type Snapshot struct {
	AthleteID    string
	Measurements []outputsports.Measurement
	Metadata     []outputsports.ExerciseMetadata
	FetchedAt    time.Time
}

// Selection is what the user picked on the dashboard.
type Selection struct {
	RangeKind   RangeKind
	Mode        AggregationMode
	ExerciseID  string
	CustomStart time.Time
	CustomEnd   time.Time
}

// Series is the chart-ready output for one selection.
type Series struct {
	SelectedExerciseID string            `json:"selectedExerciseId"`
	Buckets            []Bucket          `json:"buckets"`
	Axes               AxisAssignment    `json:"axes"`
	Labels             map[string]string `json:"labels"`
	ExercisesWithData  []string          `json:"exercisesWithData"`
}

type Service struct {
	client  upstreamClient
	metrics *metrics.Manager

	mu        sync.Mutex
	snapshots map[string]*Snapshot
}

func NewService(client upstreamClient, metricsManager *metrics.Manager) *Service {
	return &Service{
		client:    client,
		metrics:   metricsManager,
		snapshots: make(map[string]*Snapshot),
	}
}

// GetSnapshot returns a cached snapshot for the athlete or fetches a new
// one. A fetch tries a ~1-year span first; when the upstream rejects the
// span with HTTP 400 it falls back to the 90 days it is known to accept.
func (s *Service) GetSnapshot(ctx context.Context, athleteID string, now time.Time) (snapshot *Snapshot, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "dashboard.getSnapshot")
	defer func() { tracing.EndSpanWithErrCheck(span, err) }()

	s.mu.Lock()
	cached, ok := s.snapshots[athleteID]
	s.mu.Unlock()
	if ok && now.Sub(cached.FetchedAt) < snapshotTTL {
		return cached, nil
	}

	fetchStart := time.Now()
	defer func() {
		if err == nil && s.metrics != nil {
			s.metrics.HistSnapshotFetchDuration.Observe(time.Since(fetchStart).Seconds())
		}
	}()

	end := endOfDay(now)
	measurements, err := s.client.Measurements(ctx, end.AddDate(-1, 0, 0), end, nil, []string{athleteID})
	if errors.Is(err, outputsports.ErrUpstreamBadRequest) {
		log.Warnf("snapshot fetch for athlete %s: year span rejected, retrying with 90 days", athleteID)
		measurements, err = s.client.Measurements(ctx, end.AddDate(0, 0, -89), end, nil, []string{athleteID})
	}
	if err != nil {
		// a stale snapshot beats no dashboard at all
		if cached != nil {
			log.Warnf("snapshot fetch for athlete %s failed, serving stale: %s", athleteID, err)
			return cached, nil
		}
		return nil, fmt.Errorf("fetch measurements: %w", err)
	}

	metadata, err := s.client.ExercisesMetadata(ctx)
	if err != nil {
		if cached != nil {
			log.Warnf("metadata fetch for athlete %s failed, serving stale: %s", athleteID, err)
			return cached, nil
		}
		return nil, fmt.Errorf("fetch exercises metadata: %w", err)
	}

	snapshot = &Snapshot{
		AthleteID:    athleteID,
		Measurements: measurements,
		Metadata:     metadata,
		FetchedAt:    now,
	}
	s.mu.Lock()
	s.snapshots[athleteID] = snapshot
	s.mu.Unlock()

	log.Debugf(
		"snapshot for athlete %s: %d measurements, %d exercise types",
		athleteID, len(measurements), len(metadata),
	)

	return snapshot, nil
}

// InvalidateSnapshot drops the cached snapshot for an athlete.
func (s *Service) InvalidateSnapshot(athleteID string) {
	s.mu.Lock()
	delete(s.snapshots, athleteID)
	s.mu.Unlock()
}

// BuildSeries runs resolver, filter, aggregator, classifier and presenter
// over the snapshot for one selection. Pure with respect to the snapshot.
func (s *Service) BuildSeries(snapshot *Snapshot, selection Selection, now time.Time) (*Series, error) {
	var window TimeWindow
	var err error
	if selection.RangeKind == RangeCustom {
		window, err = ResolveCustomRange(selection.CustomStart, selection.CustomEnd)
	} else {
		window, err = ResolveRange(selection.RangeKind, now)
	}
	if err != nil {
		return nil, err
	}

	filtered := FilterMeasurements(snapshot.Measurements, window)
	if skipped := filtered.Skipped; skipped > 0 && s.metrics != nil {
		s.metrics.CounterSkippedMeasurement.Add(float64(skipped))
	}

	selectedExercise := NextSelectedExercise(selection.ExerciseID, filtered.ExerciseIDsWithData, snapshot.Metadata)

	var selectedMeasurements []outputsports.Measurement
	for _, m := range filtered.InRange {
		if m.ExerciseID == selectedExercise {
			selectedMeasurements = append(selectedMeasurements, m)
		}
	}

	buckets := AggregateMeasurements(selectedMeasurements, selection.RangeKind, selection.Mode, window.Start.Location())

	var fields []string
	seen := make(map[string]bool)
	for _, bucket := range buckets {
		for field := range bucket.MetricAverages {
			if !seen[field] {
				seen[field] = true
				fields = append(fields, field)
			}
		}
	}
	sort.Strings(fields)

	axes := ClassifyAxes(buckets, fields)

	var selectedMetadata *outputsports.ExerciseMetadata
	for i := range snapshot.Metadata {
		if snapshot.Metadata[i].ID == selectedExercise {
			selectedMetadata = &snapshot.Metadata[i]
			break
		}
	}

	labels := make(map[string]string, len(fields))
	for _, field := range fields {
		labels[field] = Label(field, selectedMetadata)
	}

	exercisesWithData := make([]string, 0, len(filtered.ExerciseIDsWithData))
	for _, meta := range snapshot.Metadata {
		if filtered.ExerciseIDsWithData[meta.ID] {
			exercisesWithData = append(exercisesWithData, meta.ID)
		}
	}

	if s.metrics != nil {
		s.metrics.CounterSeriesBuilt.Inc()
	}

	return &Series{
		SelectedExerciseID: selectedExercise,
		Buckets:            buckets,
		Axes:               axes,
		Labels:             labels,
		ExercisesWithData:  exercisesWithData,
	}, nil
}
