package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCors(t *testing.T) {
	testCases := []struct {
		name               string
		origin             string
		userAgent          string
		path               string
		expectedStatusCode int
	}{
		{
			name:               "AllowedOrigin",
			origin:             "http://localhost:3000",
			path:               "/dashboard/series",
			expectedStatusCode: http.StatusOK,
		},
		{
			name:               "CurlAgent",
			userAgent:          "curl/8.4.0",
			path:               "/athletes",
			expectedStatusCode: http.StatusOK,
		},
		{
			name:               "ChartPageNoOrigin",
			path:               "/dashboard/chart",
			expectedStatusCode: http.StatusOK,
		},
		{
			name:               "UnknownOrigin",
			origin:             "https://evil.example.com",
			path:               "/dashboard/series",
			expectedStatusCode: http.StatusForbidden,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", tc.path, nil)
			if tc.origin != "" {
				req.Header.Set("Origin", tc.origin)
			}
			if tc.userAgent != "" {
				req.Header.Set("User-Agent", tc.userAgent)
			}

			rr := httptest.NewRecorder()
			nextCalled := false
			next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				nextCalled = true
			})
			Cors()(next).ServeHTTP(rr, req)

			assert.Equal(t, tc.expectedStatusCode, rr.Code)
			assert.Equal(t, tc.expectedStatusCode == http.StatusOK, nextCalled)
		})
	}
}
