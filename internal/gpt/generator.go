package gpt

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/openai/openai-go"

	"github.com/hammamikhairi/ottointake/internal/domain"
	"github.com/hammamikhairi/ottointake/internal/logger"
)

// Messages of generator failures.
const (
	MsgBadOutput    = "The recipe came back garbled. Try again."
	MsgModelRefused = "The recipe model could not use these answers."
	MsgNotSetUp     = "The recipe model is not set up (check the API key)."
	MsgModelDown    = "Could not reach the recipe model. Your answers are kept; try again."
)

var _ domain.Generator = (*Generator)(nil)

// Generator implements domain.Generator with a chat model. It needs no
// user token; the bearer token passed in is ignored.
type Generator struct {
	client *Client
	log    *logger.Logger
}

// NewGenerator creates a generator backed by the given Client.
func NewGenerator(client *Client, log *logger.Logger) *Generator {
	return &Generator{client: client, log: log}
}

// Generate asks the model for a recipe matching the request. The result
// gets a fresh recipe id.
func (g *Generator) Generate(ctx context.Context, _ string, req domain.GenerationRequest) (*domain.GenerationResponse, error) {
	user := "User Requirements:\n" + Requirements(req)

	raw, err := g.client.ChatJSON(ctx, PromptRecipe, user)
	if err != nil {
		return nil, classify(err)
	}

	// Strip markdown code fences in case the model wraps the JSON anyway.
	raw = stripCodeFence(raw)

	var recipe Recipe
	if err := json.Unmarshal([]byte(raw), &recipe); err != nil {
		g.log.Error("recipe JSON did not parse: %v\nraw: %s", err, truncate(raw, 400))
		return nil, &domain.SubmitError{Kind: domain.SubmitRetryable, Message: MsgBadOutput, Err: err}
	}
	if err := normalize(&recipe, req); err != nil {
		g.log.Error("recipe unusable: %v", err)
		return nil, &domain.SubmitError{Kind: domain.SubmitRetryable, Message: MsgBadOutput, Err: err}
	}

	body, err := json.Marshal(recipe)
	if err != nil {
		return nil, fmt.Errorf("encoding recipe: %w", err)
	}
	id := uuid.NewString()
	g.log.Info("generated %q (%d steps) as %s", recipe.Title, len(recipe.Steps), id)
	return &domain.GenerationResponse{RecipeID: id, Recipe: body}, nil
}

// classify maps SDK errors onto submission failure kinds.
func classify(err error) error {
	var apiErr *openai.Error
	if !errors.As(err, &apiErr) {
		return &domain.SubmitError{Kind: domain.SubmitRetryable, Message: MsgModelDown, Err: err}
	}
	switch apiErr.StatusCode {
	case http.StatusUnauthorized, http.StatusForbidden:
		return &domain.SubmitError{Kind: domain.SubmitFatal, Message: MsgNotSetUp, Err: err}
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		return &domain.SubmitError{Kind: domain.SubmitRejected, Message: MsgModelRefused, Err: err}
	default:
		return &domain.SubmitError{Kind: domain.SubmitRetryable, Message: MsgModelDown, Err: err}
	}
}

// stripCodeFence removes ```json ... ``` wrappers.
func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "```") {
		if idx := strings.Index(s, "\n"); idx != -1 {
			s = s[idx+1:]
		}
		if idx := strings.LastIndex(s, "```"); idx != -1 {
			s = s[:idx]
		}
	}
	return strings.TrimSpace(s)
}
