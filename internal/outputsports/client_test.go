package outputsports

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type upstreamStub struct {
	tokenCalls     atomic.Int64
	athleteCalls   atomic.Int64
	metadataCalls  atomic.Int64
	measureCalls   atomic.Int64
	rejectWideSpan bool
}

func (s *upstreamStub) server(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()

	mux.HandleFunc("/oauth/token", func(w http.ResponseWriter, r *http.Request) {
		s.tokenCalls.Add(1)
		var req oauthTokenRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "password", req.GrantType)
		assert.Equal(t, "coach@club.test", req.Email)
		require.NoError(t, json.NewEncoder(w).Encode(oauthTokenResponse{
			AccessToken: "access-token-1",
			ExpiresIn:   "3600",
		}))
	})

	mux.HandleFunc("/athletes", func(w http.ResponseWriter, r *http.Request) {
		s.athleteCalls.Add(1)
		assert.Equal(t, "Bearer access-token-1", r.Header.Get("Authorization"))
		require.NoError(t, json.NewEncoder(w).Encode([]Athlete{
			{ID: "a1", FullName: "Mia Kovac"},
			{ID: "a2", FullName: "Luka Novak"},
		}))
	})

	mux.HandleFunc("/exercises/metadata", func(w http.ResponseWriter, r *http.Request) {
		s.metadataCalls.Add(1)
		require.NoError(t, json.NewEncoder(w).Encode([]ExerciseMetadata{
			{ID: "ex1", Name: "Counter Movement Jump", Metrics: []MetadataMetric{
				{Name: "Jump Height", Field: "jumpHeight", UnitOfMeasure: "Centimeter"},
			}},
		}))
	})

	mux.HandleFunc("/exercises/measurements", func(w http.ResponseWriter, r *http.Request) {
		s.measureCalls.Add(1)
		var req measurementsRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		start, err := time.Parse(time.RFC3339, req.StartDate)
		require.NoError(t, err)
		end, err := time.Parse(time.RFC3339, req.EndDate)
		require.NoError(t, err)

		if s.rejectWideSpan && end.Sub(start) > 91*24*time.Hour {
			http.Error(w, "date span too wide", http.StatusBadRequest)
			return
		}
		require.NoError(t, json.NewEncoder(w).Encode([]Measurement{
			{ID: "m1", AthleteID: "a1", ExerciseID: "ex1", CompletedDate: "2024-05-01T10:00:00Z"},
		}))
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func newTestClient(t *testing.T, stub *upstreamStub) *Client {
	t.Helper()
	srv := stub.server(t)
	return NewClient(srv.URL, "coach@club.test", "secret", srv.Client(), nil)
}

func TestClient_Athletes_cached(t *testing.T) {
	stub := &upstreamStub{}
	client := newTestClient(t, stub)
	ctx := context.Background()

	athletes, err := client.Athletes(ctx)
	require.NoError(t, err)
	require.Len(t, athletes, 2)
	assert.Equal(t, "Mia Kovac", athletes[0].FullName)

	// second call comes from the cache
	athletes, err = client.Athletes(ctx)
	require.NoError(t, err)
	require.Len(t, athletes, 2)
	assert.Equal(t, int64(1), stub.athleteCalls.Load())
	// token was only fetched once too
	assert.Equal(t, int64(1), stub.tokenCalls.Load())
}

func TestClient_ExercisesMetadata_cached(t *testing.T) {
	stub := &upstreamStub{}
	client := newTestClient(t, stub)
	ctx := context.Background()

	metadata, err := client.ExercisesMetadata(ctx)
	require.NoError(t, err)
	require.Len(t, metadata, 1)
	assert.Equal(t, "jumpHeight", metadata[0].Metrics[0].Field)

	_, err = client.ExercisesMetadata(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), stub.metadataCalls.Load())
}

func TestClient_Measurements(t *testing.T) {
	stub := &upstreamStub{}
	client := newTestClient(t, stub)
	ctx := context.Background()

	end := time.Date(2024, 5, 10, 0, 0, 0, 0, time.UTC)
	measurements, err := client.Measurements(ctx, end.AddDate(0, 0, -30), end, nil, []string{"a1"})
	require.NoError(t, err)
	require.Len(t, measurements, 1)
	assert.Equal(t, "m1", measurements[0].ID)

	// measurements are never cached
	_, err = client.Measurements(ctx, end.AddDate(0, 0, -30), end, nil, []string{"a1"})
	require.NoError(t, err)
	assert.Equal(t, int64(2), stub.measureCalls.Load())
}

func TestClient_Measurements_badRequest(t *testing.T) {
	stub := &upstreamStub{rejectWideSpan: true}
	client := newTestClient(t, stub)
	ctx := context.Background()

	end := time.Date(2024, 5, 10, 0, 0, 0, 0, time.UTC)
	_, err := client.Measurements(ctx, end.AddDate(-1, 0, 0), end, nil, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUpstreamBadRequest)
}
