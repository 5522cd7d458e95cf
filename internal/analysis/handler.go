package analysis

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/bdjukic/outputdash/internal/dashboard"
	"github.com/bdjukic/outputdash/internal/outputsports"
	"github.com/bdjukic/outputdash/internal/telemetry/metrics"
	"github.com/bdjukic/outputdash/internal/telemetry/tracing"

	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/codes"
)

type upstreamClient interface {
	Athletes(ctx context.Context) ([]outputsports.Athlete, error)
	ExercisesMetadata(ctx context.Context) ([]outputsports.ExerciseMetadata, error)
	Measurements(
		ctx context.Context,
		startDate, endDate time.Time,
		exerciseMetadataIDs []string,
		athleteIDs []string,
	) ([]outputsports.Measurement, error)
}

type narrator interface {
	Narrate(ctx context.Context, analysisData string) (string, error)
}

type Handler struct {
	upstream upstreamClient
	narrator narrator
	metrics  *metrics.Manager
}

func NewHandler(upstream upstreamClient, narrator narrator, metricsManager *metrics.Manager) *Handler {
	return &Handler{
		upstream: upstream,
		narrator: narrator,
		metrics:  metricsManager,
	}
}

type analyzeRequest struct {
	AthleteID  string `json:"athleteId"`
	TimeRange  string `json:"timeRange"`
	ExerciseID string `json:"exerciseId"`
}

type analyzeResponse struct {
	Analysis    string `json:"analysis"`
	AthleteName string `json:"athleteName"`
	TimeRange   string `json:"timeRange"`
	DataPoints  int    `json:"dataPoints"`
}

func (handler *Handler) HandleAnalyze(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "analysis.handleAnalyze")
	defer span.End()

	w.Header().Set("Content-Type", "application/json")

	var req analyzeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		span.SetStatus(codes.Error, err.Error())
		http.Error(w, "decode body error", http.StatusBadRequest)
		return
	}

	if handler.metrics != nil {
		handler.metrics.CounterAnalysisRequests.Inc()
	}

	// unknown or missing range falls back to a week of data
	rangeKind, err := dashboard.ParseRangeKind(req.TimeRange)
	if err != nil {
		rangeKind = dashboard.Range7Days
	}
	window, err := dashboard.ResolveRange(rangeKind, time.Now())
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		http.Error(w, "invalid time range", http.StatusBadRequest)
		return
	}

	var selectedAthlete *outputsports.Athlete
	athletes, err := handler.upstream.Athletes(ctx)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		log.Errorf("analyze: get athletes: %s", err)
		http.Error(w, "athletes upstream error", http.StatusBadGateway)
		return
	}
	for i := range athletes {
		if athletes[i].ID == req.AthleteID {
			selectedAthlete = &athletes[i]
			break
		}
	}

	var exerciseIDs, athleteIDs []string
	if req.ExerciseID != "" {
		exerciseIDs = []string{req.ExerciseID}
	}
	if req.AthleteID != "" {
		athleteIDs = []string{req.AthleteID}
	}

	measurements, err := handler.upstream.Measurements(ctx, window.Start, window.End, exerciseIDs, athleteIDs)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		log.Errorf("analyze: get measurements: %s", err)
		http.Error(w, "measurements upstream error", http.StatusBadGateway)
		return
	}

	metadata, err := handler.upstream.ExercisesMetadata(ctx)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		log.Errorf("analyze: get exercises metadata: %s", err)
		http.Error(w, "exercises metadata upstream error", http.StatusBadGateway)
		return
	}

	analysisData := PrepareAnalysisData(measurements, metadata, selectedAthlete, len(athletes), time.Now())

	narration, err := handler.narrator.Narrate(ctx, analysisData)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		log.Errorf("analyze: narrate: %s", err)
		http.Error(w, "failed to generate analysis", http.StatusBadGateway)
		return
	}

	athleteName := "All Athletes"
	if selectedAthlete != nil {
		athleteName = selectedAthlete.FullName
	}

	respBytes, err := json.Marshal(analyzeResponse{
		Analysis:    narration,
		AthleteName: athleteName,
		TimeRange:   string(rangeKind),
		DataPoints:  len(measurements),
	})
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		log.Errorf("analyze: marshal response: %s", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	if _, err = w.Write(respBytes); err != nil {
		log.Errorf("failed to write response for analysis: %s", err)
	}
}
