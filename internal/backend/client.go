// Package backend is the HTTP client of the recipe generation service.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/hammamikhairi/ottointake/internal/domain"
	"github.com/hammamikhairi/ottointake/internal/logger"
)

// GeneratePath is the generation endpoint relative to the base URL.
const GeneratePath = "/api/recipes/generate"

const maxErrorBody = 64 << 10

// Compile-time interface check.
var _ domain.Generator = (*Client)(nil)

// successBody is the 200 response envelope.
type successBody struct {
	Status   string          `json:"status"`
	RecipeID string          `json:"recipe_id"`
	Recipe   json.RawMessage `json:"recipe"`
	Message  string          `json:"message"`
}

// errorBody is the error envelope. detail is a string for handled errors
// and a list of field errors for request validation failures.
type errorBody struct {
	Detail json.RawMessage `json:"detail"`
}

type fieldIssue struct {
	Loc []any  `json:"loc"`
	Msg string `json:"msg"`
}

// ClientOption configures the Client.
type ClientOption func(*Client)

// WithHTTPTimeout sets the HTTP client timeout.
func WithHTTPTimeout(d time.Duration) ClientOption {
	return func(c *Client) { c.http.Timeout = d }
}

// WithHTTPClient replaces the HTTP client.
func WithHTTPClient(h *http.Client) ClientOption {
	return func(c *Client) { c.http = h }
}

// Client posts generation requests to the backend.
type Client struct {
	endpoint string
	http     *http.Client
	log      *logger.Logger
}

// NewClient creates a client for the service at baseURL
// (e.g. "http://localhost:8000").
func NewClient(baseURL string, log *logger.Logger, opts ...ClientOption) *Client {
	c := &Client{
		endpoint: strings.TrimRight(baseURL, "/") + GeneratePath,
		http:     &http.Client{Timeout: 90 * time.Second},
		log:      log,
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Generate sends the request with the bearer token. Failures are
// *domain.SubmitError: 401/403 are fatal, 400/422 are rejections carrying
// the service's message verbatim, everything else is retryable.
func (c *Client) Generate(ctx context.Context, token string, genReq domain.GenerationRequest) (*domain.GenerationResponse, error) {
	if token == "" {
		return nil, &domain.SubmitError{Kind: domain.SubmitFatal, Message: "Not signed in.", Err: domain.ErrNotAuthenticated}
	}

	jsonData, err := json.Marshal(genReq)
	if err != nil {
		return nil, &domain.SubmitError{Kind: domain.SubmitFatal, Message: "Could not encode the request.", Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(jsonData))
	if err != nil {
		return nil, &domain.SubmitError{Kind: domain.SubmitFatal, Message: "Bad backend address.", Err: err}
	}
	requestID := uuid.NewString()
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("X-Request-ID", requestID)

	c.log.Debug("POST %s (%d bytes, request %s)", c.endpoint, len(jsonData), requestID)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &domain.SubmitError{
			Kind:    domain.SubmitRetryable,
			Message: "Could not reach the recipe service. Try again.",
			Err:     fmt.Errorf("backend: request failed: %w", err),
		}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 16<<20))
	if err != nil {
		return nil, &domain.SubmitError{
			Kind:    domain.SubmitRetryable,
			Message: "The recipe service response was cut off. Try again.",
			Err:     fmt.Errorf("backend: read response: %w", err),
		}
	}

	if resp.StatusCode != http.StatusOK {
		return nil, c.statusError(resp, respBody)
	}

	var ok successBody
	if err := json.Unmarshal(respBody, &ok); err != nil || ok.RecipeID == "" {
		if err == nil {
			err = fmt.Errorf("no recipe_id in response")
		}
		return nil, &domain.SubmitError{
			Kind:    domain.SubmitRetryable,
			Message: "The recipe service sent an unexpected response. Try again.",
			Err:     fmt.Errorf("backend: decode response: %w", err),
		}
	}

	c.log.Debug("generated recipe %s (%d bytes)", ok.RecipeID, len(ok.Recipe))
	return &domain.GenerationResponse{RecipeID: ok.RecipeID, Recipe: ok.Recipe}, nil
}

func (c *Client) statusError(resp *http.Response, body []byte) error {
	detail := parseDetail(body)
	cause := fmt.Errorf("backend: %s: %s", resp.Status, truncate(string(body), maxErrorBody))
	c.log.Warn("generation failed: %s", resp.Status)

	switch resp.StatusCode {
	case http.StatusUnauthorized, http.StatusForbidden:
		if detail == "" {
			detail = "Your session has expired. Sign in again."
		}
		return &domain.SubmitError{
			Kind:    domain.SubmitFatal,
			Message: detail,
			Err:     fmt.Errorf("%w: %v", domain.ErrNotAuthenticated, cause),
		}
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		if detail == "" {
			detail = "The recipe service rejected the request."
		}
		return &domain.SubmitError{Kind: domain.SubmitRejected, Message: detail, Err: cause}
	default:
		if detail == "" {
			detail = fmt.Sprintf("The recipe service failed (%d). Try again.", resp.StatusCode)
		}
		return &domain.SubmitError{Kind: domain.SubmitRetryable, Message: detail, Err: cause}
	}
}

// parseDetail extracts the human message from an error body, or "".
func parseDetail(body []byte) string {
	var eb errorBody
	if err := json.Unmarshal(body, &eb); err != nil || len(eb.Detail) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(eb.Detail, &s); err == nil {
		return s
	}
	var issues []fieldIssue
	if err := json.Unmarshal(eb.Detail, &issues); err == nil {
		msgs := make([]string, 0, len(issues))
		for _, is := range issues {
			if where := location(is.Loc); where != "" {
				msgs = append(msgs, where+": "+is.Msg)
				continue
			}
			msgs = append(msgs, is.Msg)
		}
		return strings.Join(msgs, "; ")
	}
	return ""
}

// location renders a validation error location without the leading
// "body" segment.
func location(loc []any) string {
	parts := make([]string, 0, len(loc))
	for i, p := range loc {
		if i == 0 && p == "body" {
			continue
		}
		parts = append(parts, fmt.Sprint(p))
	}
	return strings.Join(parts, ".")
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-3] + "..."
}
