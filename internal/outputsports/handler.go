package outputsports

import (
	"encoding/json"
	"net/http"

	"github.com/bdjukic/outputdash/internal/telemetry/tracing"

	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/codes"
)

// Handler exposes the athletes and exercise metadata lists as a thin,
// cached proxy for the front end.
type Handler struct {
	client *Client
}

func NewHandler(client *Client) *Handler {
	return &Handler{client: client}
}

func (handler *Handler) HandleAthletes(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "outputsports.handleAthletes")
	defer span.End()

	w.Header().Set("Content-Type", "application/json")

	athletes, err := handler.client.Athletes(ctx)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		log.Errorf("error getting athletes: %s", err)
		http.Error(w, "athletes upstream error", http.StatusBadGateway)
		return
	}
	if athletes == nil {
		athletes = []Athlete{}
	}

	athletesBytes, err := json.Marshal(athletes)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		log.Errorf("error marshaling athletes: %s", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	if _, err = w.Write(athletesBytes); err != nil {
		log.Errorf("failed to write response for athletes: %s", err)
	}
}

func (handler *Handler) HandleExercisesMetadata(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "outputsports.handleExercisesMetadata")
	defer span.End()

	w.Header().Set("Content-Type", "application/json")

	metadata, err := handler.client.ExercisesMetadata(ctx)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		log.Errorf("error getting exercises metadata: %s", err)
		http.Error(w, "exercises metadata upstream error", http.StatusBadGateway)
		return
	}
	if metadata == nil {
		metadata = []ExerciseMetadata{}
	}

	metadataBytes, err := json.Marshal(metadata)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		log.Errorf("error marshaling exercises metadata: %s", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	if _, err = w.Write(metadataBytes); err != nil {
		log.Errorf("failed to write response for exercises metadata: %s", err)
	}
}
