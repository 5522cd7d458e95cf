package dashboard

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/bdjukic/outputdash/internal/telemetry/tracing"

	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/codes"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// selectionFromRequest parses athlete_id, range, mode, exercise_id and the
// optional from/to custom bounds out of the query string.
func selectionFromRequest(r *http.Request) (athleteID string, selection Selection, err error) {
	query := r.URL.Query()

	athleteID = query.Get("athlete_id")
	if athleteID == "" {
		return "", Selection{}, errors.New("athlete_id is required")
	}

	rangeKind, err := ParseRangeKind(query.Get("range"))
	if err != nil {
		return "", Selection{}, err
	}
	mode, err := ParseAggregationMode(query.Get("mode"))
	if err != nil {
		return "", Selection{}, err
	}

	selection = Selection{
		RangeKind:  rangeKind,
		Mode:       mode,
		ExerciseID: query.Get("exercise_id"),
	}

	if rangeKind == RangeCustom {
		from, err := time.ParseInLocation(time.DateOnly, query.Get("from"), time.Local)
		if err != nil {
			return "", Selection{}, errors.New("custom range needs a valid from date (YYYY-MM-DD)")
		}
		to, err := time.ParseInLocation(time.DateOnly, query.Get("to"), time.Local)
		if err != nil {
			return "", Selection{}, errors.New("custom range needs a valid to date (YYYY-MM-DD)")
		}
		selection.CustomStart = from
		selection.CustomEnd = to
	}

	return athleteID, selection, nil
}

func (handler *Handler) HandleSeries(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "dashboard.handleSeries")
	defer span.End()

	w.Header().Set("Content-Type", "application/json")

	athleteID, selection, err := selectionFromRequest(r)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	snapshot, err := handler.service.GetSnapshot(ctx, athleteID, time.Now())
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		log.Errorf("handle series: get snapshot for athlete %s: %s", athleteID, err)
		http.Error(w, "measurements upstream error", http.StatusBadGateway)
		return
	}

	series, err := handler.service.BuildSeries(snapshot, selection, time.Now())
	switch {
	case errors.Is(err, ErrInvalidRange):
		span.SetStatus(codes.Error, err.Error())
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	case err != nil:
		span.SetStatus(codes.Error, err.Error())
		log.Errorf("handle series: build series for athlete %s: %s", athleteID, err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	seriesBytes, err := json.Marshal(series)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		log.Errorf("handle series: marshal series: %s", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	if _, err = w.Write(seriesBytes); err != nil {
		log.Errorf("failed to write response for series: %s", err)
	}
}

func (handler *Handler) HandleChart(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "dashboard.handleChart")
	defer span.End()

	athleteID, selection, err := selectionFromRequest(r)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	snapshot, err := handler.service.GetSnapshot(ctx, athleteID, time.Now())
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		log.Errorf("handle chart: get snapshot for athlete %s: %s", athleteID, err)
		http.Error(w, "measurements upstream error", http.StatusBadGateway)
		return
	}

	series, err := handler.service.BuildSeries(snapshot, selection, time.Now())
	switch {
	case errors.Is(err, ErrInvalidRange):
		span.SetStatus(codes.Error, err.Error())
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	case err != nil:
		span.SetStatus(codes.Error, err.Error())
		log.Errorf("handle chart: build series for athlete %s: %s", athleteID, err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	line := BuildLineChart(series, chartTitle(snapshot, series))
	if err := line.Render(w); err != nil {
		log.Errorf("failed to render chart: %s", err)
	}
}

func chartTitle(snapshot *Snapshot, series *Series) string {
	for _, meta := range snapshot.Metadata {
		if meta.ID == series.SelectedExerciseID {
			return meta.Name
		}
	}
	return "Measurements"
}
