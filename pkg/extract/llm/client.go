// Package llm implements the extract collaborators on top of an
// OpenAI-compatible chat completions endpoint.
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/inkguard/inkguard/pkg/extract"
	"github.com/inkguard/inkguard/pkg/listing"
)

const (
	DefaultBaseURL = "https://api.openai.com/v1"
	DefaultModel   = "gpt-4o-mini"

	defaultTimeout             = 60 * time.Second
	defaultMaxRetries          = 3
	defaultBackoff             = time.Second
	defaultMaxDescriptionChars = 1500
)

// Client talks to a chat completions API. It implements both
// extract.StructureExtractor and extract.ReviewClassifier and is safe for
// concurrent use.
type Client struct {
	apiKey              string
	baseURL             string
	model               string
	httpClient          *http.Client
	maxRetries          int
	backoff             time.Duration
	jsonMode            bool
	maxDescriptionChars int
}

var (
	_ extract.StructureExtractor = (*Client)(nil)
	_ extract.ReviewClassifier   = (*Client)(nil)
)

// Option configures a Client.
type Option func(*Client)

// WithBaseURL sets the API root, e.g. http://localhost:11434/v1.
func WithBaseURL(u string) Option {
	return func(c *Client) { c.baseURL = strings.TrimRight(u, "/") }
}

// WithModel sets the model name.
func WithModel(m string) Option {
	return func(c *Client) { c.model = m }
}

// WithHTTPClient replaces the HTTP client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.httpClient = h }
}

// WithTimeout sets the per-request timeout of the default HTTP client.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.httpClient = &http.Client{Timeout: d} }
}

// WithMaxRetries sets how many times a retryable failure is retried.
func WithMaxRetries(n int) Option {
	return func(c *Client) { c.maxRetries = n }
}

// WithBackoff sets the base delay between retries; it doubles per attempt.
func WithBackoff(d time.Duration) Option {
	return func(c *Client) { c.backoff = d }
}

// WithJSONMode toggles response_format=json_object on requests.
func WithJSONMode(on bool) Option {
	return func(c *Client) { c.jsonMode = on }
}

// WithMaxDescriptionChars caps how much of a listing description is sent.
func WithMaxDescriptionChars(n int) Option {
	return func(c *Client) { c.maxDescriptionChars = n }
}

// New creates a Client.
func New(apiKey string, opts ...Option) *Client {
	c := &Client{
		apiKey:              apiKey,
		baseURL:             DefaultBaseURL,
		model:               DefaultModel,
		httpClient:          &http.Client{Timeout: defaultTimeout},
		maxRetries:          defaultMaxRetries,
		backoff:             defaultBackoff,
		jsonMode:            true,
		maxDescriptionChars: defaultMaxDescriptionChars,
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// ExtractStructure asks the model for the bundle decomposition of a listing.
func (c *Client) ExtractStructure(ctx context.Context, title, description string) (*listing.Decomposition, error) {
	user := structurePrompt(title, truncateRunes(description, c.maxDescriptionChars))
	text, err := c.complete(ctx, structureSystemPrompt, user)
	if err != nil {
		return nil, fmt.Errorf("extracting structure: %w", err)
	}

	var d listing.Decomposition
	if err := json.Unmarshal([]byte(stripCodeFences(text)), &d); err != nil {
		return nil, fmt.Errorf("parsing structure json: %w", err)
	}
	if err := listing.Validate(&d); err != nil {
		return nil, fmt.Errorf("structure response: %w", err)
	}
	return &d, nil
}

// ClassifyReview asks the model to judge one review.
func (c *Client) ClassifyReview(ctx context.Context, review listing.Review, rc extract.ReviewContext) (*listing.ReviewJudgment, error) {
	text, err := c.complete(ctx, reviewSystemPrompt(rc), reviewPrompt(review, rc))
	if err != nil {
		return nil, fmt.Errorf("classifying review: %w", err)
	}

	var j listing.ReviewJudgment
	if err := json.Unmarshal([]byte(stripCodeFences(text)), &j); err != nil {
		return nil, fmt.Errorf("parsing judgment json: %w", err)
	}
	j.ReviewNumber = review.Number
	j.Rating = review.Rating
	if err := listing.Validate(&j); err != nil {
		return nil, fmt.Errorf("judgment response: %w", err)
	}
	return &j, nil
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type responseFormat struct {
	Type string `json:"type"`
}

type chatRequest struct {
	Model          string          `json:"model"`
	Messages       []chatMessage   `json:"messages"`
	ResponseFormat *responseFormat `json:"response_format,omitempty"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// statusError is a non-200 reply from the API.
type statusError struct {
	code int
	body string
}

func (e *statusError) Error() string {
	return fmt.Sprintf("llm status %d: %s", e.code, e.body)
}

func (e *statusError) retryable() bool {
	return e.code == http.StatusTooManyRequests || e.code >= 500
}

// complete sends one chat completion, retrying rate limits, server errors and
// transport failures with exponential backoff.
func (c *Client) complete(ctx context.Context, system, user string) (string, error) {
	body := chatRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "system", Content: system},
			{Role: "user", Content: user},
		},
	}
	if c.jsonMode {
		body.ResponseFormat = &responseFormat{Type: "json_object"}
	}
	payload, err := json.Marshal(body)
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			delay := c.backoff * time.Duration(1<<(attempt-1))
			select {
			case <-ctx.Done():
				return "", ctx.Err()
			case <-time.After(delay):
			}
		}

		text, err := c.do(ctx, payload)
		if err == nil {
			return text, nil
		}
		lastErr = err

		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		var se *statusError
		if errors.As(err, &se) && !se.retryable() {
			return "", err
		}
		if errors.Is(err, extract.ErrEmptyResponse) {
			return "", err
		}
	}
	return "", fmt.Errorf("failed after %d attempts: %w", c.maxRetries+1, lastErr)
}

func (c *Client) do(ctx context.Context, payload []byte) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("request llm: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return "", &statusError{code: resp.StatusCode, body: strings.TrimSpace(string(data))}
	}

	var parsed chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}
	if len(parsed.Choices) == 0 || strings.TrimSpace(parsed.Choices[0].Message.Content) == "" {
		return "", extract.ErrEmptyResponse
	}
	return parsed.Choices[0].Message.Content, nil
}

func stripCodeFences(input string) string {
	trimmed := strings.TrimSpace(input)
	if strings.HasPrefix(trimmed, "```") {
		trimmed = strings.TrimPrefix(trimmed, "```")
		trimmed = strings.TrimPrefix(trimmed, "json")
		trimmed = strings.TrimSpace(trimmed)
		if idx := strings.LastIndex(trimmed, "```"); idx != -1 {
			trimmed = strings.TrimSpace(trimmed[:idx])
		}
	}
	return trimmed
}

func truncateRunes(s string, n int) string {
	if n <= 0 {
		return s
	}
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
