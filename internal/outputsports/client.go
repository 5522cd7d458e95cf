package outputsports

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/bdjukic/outputdash/internal/telemetry/metrics"
	"github.com/bdjukic/outputdash/internal/telemetry/tracing"

	"github.com/coocood/freecache"
	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel/codes"
)

const (
	oneHour              = 60 * 60
	athletesCacheExpire  = oneHour * 1
	metadataCacheExpire  = oneHour * 6
	tokenExpirySafetyGap = 30 * time.Second
)

// ErrUpstreamBadRequest marks an HTTP 400 from the measurements endpoint,
// which the API returns for date spans it refuses to serve.
var ErrUpstreamBadRequest = errors.New("upstream rejected the request")

type Client struct {
	baseURL    string
	email      string
	password   string
	httpClient *http.Client
	cache      *freecache.Cache
	tokenCache *TokenCache
	metrics    *metrics.Manager
}

func NewClient(
	baseURL string,
	email string,
	password string,
	httpClient *http.Client,
	metricsManager *metrics.Manager,
) *Client {
	if httpClient == nil {
		httpClient = &http.Client{
			Transport: otelhttp.NewTransport(http.DefaultTransport),
			Timeout:   30 * time.Second,
		}
	}

	megabyte := 1024 * 1024
	cacheSize := 10 * megabyte

	return &Client{
		baseURL:    baseURL,
		email:      email,
		password:   password,
		httpClient: httpClient,
		cache:      freecache.NewCache(cacheSize),
		tokenCache: NewTokenCache(),
		metrics:    metricsManager,
	}
}

func (c *Client) countUpstreamCall(endpoint string, statusCode int) {
	if c.metrics == nil {
		return
	}
	c.metrics.CounterUpstreamCalls.
		WithLabelValues(endpoint, strconv.Itoa(statusCode)).
		Inc()
}

func (c *Client) countCacheHit() {
	if c.metrics == nil {
		return
	}
	c.metrics.CounterUpstreamCacheHits.Inc()
}

func (c *Client) authToken(ctx context.Context) (token string, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "outputsports.authToken")
	defer span.End()
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		} else {
			span.SetStatus(codes.Ok, "ok")
		}
	}()

	if cached, ok := c.tokenCache.Get(time.Now()); ok {
		return cached, nil
	}

	reqBody, err := json.Marshal(oauthTokenRequest{
		GrantType: "password",
		Email:     c.email,
		Password:  c.password,
	})
	if err != nil {
		return "", fmt.Errorf("marshal token request: %w", err)
	}

	req, err := http.NewRequestWithContext(
		ctx, http.MethodPost,
		c.baseURL+"/oauth/token",
		bytes.NewReader(reqBody),
	)
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("http client do: %w", err)
	}
	defer resp.Body.Close()

	c.countUpstreamCall("oauth/token", resp.StatusCode)
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("authenticate: unexpected status %s", resp.Status)
	}

	var tokenResp oauthTokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&tokenResp); err != nil {
		return "", fmt.Errorf("decode token response: %w", err)
	}

	expiresInSec, err := strconv.Atoi(tokenResp.ExpiresIn)
	if err != nil {
		return "", fmt.Errorf("parse token expiry %q: %w", tokenResp.ExpiresIn, err)
	}

	expiresIn := time.Duration(expiresInSec)*time.Second - tokenExpirySafetyGap
	c.tokenCache.Set(tokenResp.AccessToken, expiresIn, time.Now())
	log.Debugf("output sports: new access token acquired, expires in %s", expiresIn)

	return tokenResp.AccessToken, nil
}

// getCachedJSON runs an authenticated GET against `path`, keeping the raw
// response in the freecache under `cacheKey` for `cacheExpireSec` seconds.
func (c *Client) getCachedJSON(
	ctx context.Context,
	path string,
	cacheKey string,
	cacheExpireSec int,
	dest any,
) error {
	if cachedBytes, err := c.cache.Get([]byte(cacheKey)); err == nil {
		if err = json.Unmarshal(cachedBytes, dest); err == nil {
			c.countCacheHit()
			log.Tracef("output sports: %s served from cache", cacheKey)
			return nil
		}
		log.Errorf("output sports: unmarshal cached %s: %s", cacheKey, err)
	}

	token, err := c.authToken(ctx)
	if err != nil {
		return fmt.Errorf("get auth token: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("http client do: %w", err)
	}
	defer resp.Body.Close()

	c.countUpstreamCall(path, resp.StatusCode)
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("get %s: unexpected status %s", path, resp.Status)
	}

	respBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read %s response: %w", path, err)
	}

	if err := json.Unmarshal(respBytes, dest); err != nil {
		return fmt.Errorf("unmarshal %s response: %w", path, err)
	}

	if err := c.cache.Set([]byte(cacheKey), respBytes, cacheExpireSec); err != nil {
		log.Errorf("output sports: cache set for %s: %s", cacheKey, err)
	}

	return nil
}

func (c *Client) Athletes(ctx context.Context) (athletes []Athlete, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "outputsports.athletes")
	defer func() { tracing.EndSpanWithErrCheck(span, err) }()

	if err := c.getCachedJSON(ctx, "/athletes", "athletes", athletesCacheExpire, &athletes); err != nil {
		return nil, err
	}
	return athletes, nil
}

func (c *Client) ExercisesMetadata(ctx context.Context) (metadata []ExerciseMetadata, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "outputsports.exercisesMetadata")
	defer func() { tracing.EndSpanWithErrCheck(span, err) }()

	if err := c.getCachedJSON(
		ctx, "/exercises/metadata", "exercises-metadata", metadataCacheExpire, &metadata,
	); err != nil {
		return nil, err
	}
	return metadata, nil
}

// Measurements fetches measurements for the given span and filters. Not
// cached: spans vary per request and the snapshot layer above holds results.
func (c *Client) Measurements(
	ctx context.Context,
	startDate, endDate time.Time,
	exerciseMetadataIDs []string,
	athleteIDs []string,
) (measurements []Measurement, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "outputsports.measurements")
	defer func() { tracing.EndSpanWithErrCheck(span, err) }()

	token, err := c.authToken(ctx)
	if err != nil {
		return nil, fmt.Errorf("get auth token: %w", err)
	}

	if exerciseMetadataIDs == nil {
		exerciseMetadataIDs = []string{}
	}
	if athleteIDs == nil {
		athleteIDs = []string{}
	}

	reqBody, err := json.Marshal(measurementsRequest{
		StartDate:           startDate.UTC().Format(time.RFC3339),
		EndDate:             endDate.UTC().Format(time.RFC3339),
		ExerciseMetadataIDs: exerciseMetadataIDs,
		AthleteIDs:          athleteIDs,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal measurements request: %w", err)
	}

	req, err := http.NewRequestWithContext(
		ctx, http.MethodPost,
		c.baseURL+"/exercises/measurements",
		bytes.NewReader(reqBody),
	)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http client do: %w", err)
	}
	defer resp.Body.Close()

	c.countUpstreamCall("exercises/measurements", resp.StatusCode)
	switch {
	case resp.StatusCode == http.StatusOK:
		// proceed
	case resp.StatusCode == http.StatusBadRequest:
		return nil, fmt.Errorf(
			"get measurements [%s - %s]: %w",
			startDate.Format(time.DateOnly), endDate.Format(time.DateOnly),
			ErrUpstreamBadRequest,
		)
	default:
		return nil, fmt.Errorf("get measurements: unexpected status %s", resp.Status)
	}

	if err := json.NewDecoder(resp.Body).Decode(&measurements); err != nil {
		return nil, fmt.Errorf("decode measurements response: %w", err)
	}

	return measurements, nil
}
