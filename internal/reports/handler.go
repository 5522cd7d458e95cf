package reports

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/bdjukic/outputdash/internal/telemetry/metrics"
	"github.com/bdjukic/outputdash/pkg"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"
)

type repo interface {
	Add(ctx context.Context, report *Report) (*Report, error)
	Get(ctx context.Context, id int) (*Report, error)
	Update(ctx context.Context, report *Report) error
	Delete(ctx context.Context, id int) error
	List(ctx context.Context, athleteID string) ([]Report, error)
}

type Handler struct {
	repo    repo
	metrics *metrics.Manager
}

func NewHandler(repo repo, metricsManager *metrics.Manager) *Handler {
	return &Handler{
		repo:    repo,
		metrics: metricsManager,
	}
}

func (handler *Handler) HandleAdd(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodOptions {
		w.Header().Add("Allow", "POST, OPTIONS")
		w.WriteHeader(http.StatusOK)
		return
	}

	var report Report
	if err := json.NewDecoder(r.Body).Decode(&report); err != nil {
		log.Errorf("add report failed, decode body error: %s", err)
		http.Error(w, "decode body error", http.StatusBadRequest)
		return
	}

	if report.Name == "" || report.AthleteID == "" {
		http.Error(w, "error, name or athlete empty", http.StatusBadRequest)
		return
	}
	report.CreatedAt = time.Now()

	addedReport, err := handler.repo.Add(r.Context(), &report)
	if err != nil {
		log.Errorf("failed to add report [%s] for athlete [%s]: %s", report.Name, report.AthleteID, err)
		http.Error(w, "error, failed to add report", http.StatusInternalServerError)
		return
	}

	if handler.metrics != nil {
		handler.metrics.CounterReportsSaved.Inc()
	}

	log.Debugf("report added: [%s] for athlete [%s]: %d", addedReport.Name, addedReport.AthleteID, addedReport.ID)
	pkg.WriteTextResponseOK(w, fmt.Sprintf("added:%d", addedReport.ID))
}

func (handler *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodOptions {
		w.Header().Add("Allow", "PUT, OPTIONS")
		w.WriteHeader(http.StatusOK)
		return
	}

	var report Report
	if err := json.NewDecoder(r.Body).Decode(&report); err != nil {
		log.Errorf("update report failed, decode body error: %s", err)
		http.Error(w, "decode body error", http.StatusBadRequest)
		return
	}

	if report.ID == 0 {
		http.Error(w, "error, id empty", http.StatusBadRequest)
		return
	}
	if report.Name == "" {
		http.Error(w, "error, name empty", http.StatusBadRequest)
		return
	}

	err := handler.repo.Update(r.Context(), &report)
	switch {
	case errors.Is(err, ErrReportNotFound):
		http.Error(w, "error, report not found", http.StatusNotFound)
		return
	case err != nil:
		log.Errorf("failed to update report [%d]: %s", report.ID, err)
		http.Error(w, "error, failed to update report", http.StatusInternalServerError)
		return
	}

	pkg.WriteTextResponseOK(w, fmt.Sprintf("updated:%d", report.ID))
}

func (handler *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)

	id, err := strconv.Atoi(vars["id"])
	if err != nil {
		http.Error(w, "error, id invalid", http.StatusBadRequest)
		return
	}

	report, err := handler.repo.Get(r.Context(), id)
	switch {
	case errors.Is(err, ErrReportNotFound):
		http.Error(w, "error, report not found", http.StatusNotFound)
		return
	case err != nil:
		log.Errorf("failed to get report %d: %s", id, err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	reportJson, err := json.Marshal(report)
	if err != nil {
		log.Errorf("marshal report error: %s", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	pkg.WriteResponseBytesOK(w, pkg.ContentType.JSON, reportJson)
}

func (handler *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)

	id, err := strconv.Atoi(vars["id"])
	if err != nil {
		http.Error(w, "error, id invalid", http.StatusBadRequest)
		return
	}

	err = handler.repo.Delete(r.Context(), id)
	switch {
	case errors.Is(err, ErrReportNotFound):
		http.Error(w, "error, report not found", http.StatusNotFound)
		return
	case err != nil:
		log.Errorf("failed to delete report %d: %s", id, err)
		http.Error(w, "error, report not deleted, internal server error", http.StatusInternalServerError)
		return
	}

	pkg.WriteTextResponseOK(w, fmt.Sprintf("deleted:%d", id))
}

func (handler *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	athleteID := r.URL.Query().Get("athlete_id")

	reportsList, err := handler.repo.List(r.Context(), athleteID)
	if err != nil {
		log.Errorf("list reports error: %s", err)
		http.Error(w, "failed to get reports", http.StatusInternalServerError)
		return
	}

	if len(reportsList) == 0 {
		reportsList = []Report{}
	}

	reportsJson, err := json.Marshal(reportsList)
	if err != nil {
		log.Errorf("marshal reports error: %s", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	resJson := fmt.Sprintf(`{"reports": %s, "total": %d}`, reportsJson, len(reportsList))
	pkg.WriteResponseBytesOK(w, pkg.ContentType.JSON, []byte(resJson))
}
