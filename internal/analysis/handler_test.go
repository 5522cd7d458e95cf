package analysis

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/bdjukic/outputdash/internal/outputsports"
	"github.com/bdjukic/outputdash/internal/telemetry/metrics"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type upstreamStub struct {
	athletes     []outputsports.Athlete
	metadata     []outputsports.ExerciseMetadata
	measurements []outputsports.Measurement
	failAll      bool

	lastStart, lastEnd time.Time
}

func (s *upstreamStub) Athletes(context.Context) ([]outputsports.Athlete, error) {
	if s.failAll {
		return nil, errors.New("upstream down")
	}
	return s.athletes, nil
}

func (s *upstreamStub) ExercisesMetadata(context.Context) ([]outputsports.ExerciseMetadata, error) {
	if s.failAll {
		return nil, errors.New("upstream down")
	}
	return s.metadata, nil
}

func (s *upstreamStub) Measurements(
	_ context.Context,
	startDate, endDate time.Time,
	_ []string,
	_ []string,
) ([]outputsports.Measurement, error) {
	if s.failAll {
		return nil, errors.New("upstream down")
	}
	s.lastStart, s.lastEnd = startDate, endDate
	return s.measurements, nil
}

type narratorStub struct {
	narration string
	err       error
	gotData   string
}

func (n *narratorStub) Narrate(_ context.Context, analysisData string) (string, error) {
	n.gotData = analysisData
	return n.narration, n.err
}

func TestHandler_HandleAnalyze(t *testing.T) {
	measurements, metadata := promptTestData()
	upstream := &upstreamStub{
		athletes: []outputsports.Athlete{
			{ID: "a1", FullName: "Mia Kovac", DateOfBirth: "2000-03-15"},
			{ID: "a2", FullName: "Luka Novak"},
		},
		metadata:     metadata,
		measurements: measurements,
	}
	narrator := &narratorStub{narration: "Jump height trending up."}
	m := metrics.NewTestManager()
	handler := NewHandler(upstream, narrator, m)

	body := `{"athleteId":"a1","timeRange":"30days","exerciseId":"ex1"}`
	req := httptest.NewRequest("POST", "/analysis", strings.NewReader(body))
	rr := httptest.NewRecorder()
	handler.HandleAnalyze(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	var resp analyzeResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, "Jump height trending up.", resp.Analysis)
	assert.Equal(t, "Mia Kovac", resp.AthleteName)
	assert.Equal(t, "30days", resp.TimeRange)
	assert.Equal(t, 3, resp.DataPoints)

	assert.Contains(t, narrator.gotData, "Performance Analysis for: Mia Kovac")
	assert.Equal(t, float64(1), testutil.ToFloat64(m.CounterAnalysisRequests))

	// 30 days requested: start + 29 days lands on today
	y1, mo1, d1 := upstream.lastStart.AddDate(0, 0, 29).Date()
	y2, mo2, d2 := time.Now().Date()
	assert.Equal(t, [3]int{y2, int(mo2), d2}, [3]int{y1, int(mo1), d1})
}

func TestHandler_HandleAnalyze_unknownAthlete(t *testing.T) {
	measurements, metadata := promptTestData()
	upstream := &upstreamStub{metadata: metadata, measurements: measurements}
	narrator := &narratorStub{narration: "ok"}
	handler := NewHandler(upstream, narrator, nil)

	body := `{"timeRange":"7days"}`
	req := httptest.NewRequest("POST", "/analysis", strings.NewReader(body))
	rr := httptest.NewRecorder()
	handler.HandleAnalyze(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	var resp analyzeResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, "All Athletes", resp.AthleteName)
}

func TestHandler_HandleAnalyze_badBody(t *testing.T) {
	handler := NewHandler(&upstreamStub{}, &narratorStub{}, nil)

	req := httptest.NewRequest("POST", "/analysis", strings.NewReader("timeRange=7days"))
	rr := httptest.NewRecorder()
	handler.HandleAnalyze(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestHandler_HandleAnalyze_upstreamDown(t *testing.T) {
	handler := NewHandler(&upstreamStub{failAll: true}, &narratorStub{}, nil)

	req := httptest.NewRequest("POST", "/analysis", strings.NewReader(`{"timeRange":"7days"}`))
	rr := httptest.NewRecorder()
	handler.HandleAnalyze(rr, req)

	assert.Equal(t, http.StatusBadGateway, rr.Code)
}

func TestHandler_HandleAnalyze_narrationFails(t *testing.T) {
	measurements, metadata := promptTestData()
	upstream := &upstreamStub{metadata: metadata, measurements: measurements}
	narrator := &narratorStub{err: ErrNarrationFailed}
	handler := NewHandler(upstream, narrator, nil)

	req := httptest.NewRequest("POST", "/analysis", strings.NewReader(`{"timeRange":"7days"}`))
	rr := httptest.NewRecorder()
	handler.HandleAnalyze(rr, req)

	assert.Equal(t, http.StatusBadGateway, rr.Code)
}
