package analysis

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/bdjukic/outputdash/internal/telemetry/tracing"

	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

const (
	defaultTimeout = 60 * time.Second
	maxAttempts    = 3
)

// ErrNarrationFailed is returned once all attempts against the completion
// API are exhausted.
var ErrNarrationFailed = errors.New("narration failed")

// supportedModels maps the model names the API accepts to their provider
// identifiers.
var supportedModels = map[string]string{
	"default": "gpt-4.1",
	"fast":    "gpt-4.1-mini",
}

func ResolveModel(name string) (string, error) {
	if name == "" {
		return supportedModels["default"], nil
	}
	model, ok := supportedModels[name]
	if !ok {
		return "", fmt.Errorf("unsupported model %q", name)
	}
	return model, nil
}

const systemPrompt = `You are an expert data analyst specializing in sports performance analytics. ` +
	`You extract meaningful insights from training and measurement datasets to drive evidence-based decisions. ` +
	`Identify trends, outliers and plateaus, compare against the athlete's own history, ` +
	`and support every recommendation with the numbers provided. ` +
	`Acknowledge limitations in the data and provide your responses in plain text.`

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatCompletionRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens"`
	Temperature float64       `json:"temperature"`
}

type chatCompletionResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

// Client talks to an OpenAI-compatible chat completions endpoint.
type Client struct {
	baseURL    string
	apiKey     string
	model      string
	httpClient *http.Client
	retryDelay time.Duration
}

func NewClient(baseURL, apiKey, model string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{
			Transport: otelhttp.NewTransport(http.DefaultTransport),
			Timeout:   defaultTimeout,
		}
	}
	return &Client{
		baseURL:    baseURL,
		apiKey:     apiKey,
		model:      model,
		httpClient: httpClient,
		retryDelay: time.Second,
	}
}

// Narrate sends the prepared performance summary and returns the model's
// narration. Transient failures (network, 429, 5xx) are retried with a
// short pause, bounded by maxAttempts.
func (c *Client) Narrate(ctx context.Context, analysisData string) (narration string, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "analysis.narrate")
	defer func() { tracing.EndSpanWithErrCheck(span, err) }()

	reqBody, err := json.Marshal(chatCompletionRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: userPrompt(analysisData)},
		},
		MaxTokens:   1500,
		Temperature: 0.7,
	})
	if err != nil {
		return "", fmt.Errorf("marshal completion request: %w", err)
	}

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if attempt > 1 {
			select {
			case <-ctx.Done():
				return "", ctx.Err()
			case <-time.After(c.retryDelay):
			}
		}

		narration, retryable, err := c.complete(ctx, reqBody)
		if err == nil {
			return narration, nil
		}
		lastErr = err
		if !retryable {
			break
		}
		log.Warnf("narration attempt %d/%d failed: %s", attempt, maxAttempts, err)
	}

	return "", fmt.Errorf("%w: %s", ErrNarrationFailed, lastErr)
}

func (c *Client) complete(ctx context.Context, reqBody []byte) (narration string, retryable bool, err error) {
	req, err := http.NewRequestWithContext(
		ctx, http.MethodPost,
		c.baseURL+"/chat/completions",
		bytes.NewReader(reqBody),
	)
	if err != nil {
		return "", false, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", true, fmt.Errorf("http client do: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
		// proceed
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
		return "", true, fmt.Errorf("completion api status %s", resp.Status)
	default:
		return "", false, fmt.Errorf("completion api status %s", resp.Status)
	}

	var completion chatCompletionResponse
	if err := json.NewDecoder(resp.Body).Decode(&completion); err != nil {
		return "", false, fmt.Errorf("decode completion response: %w", err)
	}
	if len(completion.Choices) == 0 || completion.Choices[0].Message.Content == "" {
		return "", false, errors.New("no analysis generated")
	}

	return completion.Choices[0].Message.Content, false, nil
}

func userPrompt(analysisData string) string {
	return "Please analyze the following athlete performance data and provide insights:\n\n" +
		analysisData +
		"\n\nPlease provide:\n" +
		"1. Key performance insights\n" +
		"2. Trends observed in the data\n" +
		"3. Areas for improvement\n" +
		"4. Strengths identified\n" +
		"5. Specific recommendations\n\n" +
		"Format your response in clear sections with headings."
}
