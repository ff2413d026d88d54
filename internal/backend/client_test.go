package backend

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hammamikhairi/ottointake/internal/domain"
	"github.com/hammamikhairi/ottointake/internal/logger"
)

func dinnerRequest() domain.GenerationRequest {
	name, mealType, skill := "Spicy Chicken Curry", "Dinner", "Intermediate"
	servings := 2
	return domain.GenerationRequest{
		MealName:          &name,
		Description:       "A spicy curry with vegetables and rice",
		ServingSize:       &servings,
		MealType:          &mealType,
		CookingSkillLevel: &skill,
	}
}

func TestGenerateSuccess(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, GeneratePath, r.URL.Path)
		assert.Equal(t, "Bearer tok-1", r.Header.Get("Authorization"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		_, err := uuid.Parse(r.Header.Get("X-Request-ID"))
		assert.NoError(t, err, "request id must be a uuid")

		body, _ := io.ReadAll(r.Body)
		assert.NoError(t, json.Unmarshal(body, &got))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"success","recipe_id":"abc-123","recipe":{"title":"Curry","steps":[]},"message":"Recipe generated successfully"}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL+"/", logger.New(logger.LevelOff, nil))
	resp, err := c.Generate(context.Background(), "tok-1", dinnerRequest())
	require.NoError(t, err)
	assert.Equal(t, "abc-123", resp.RecipeID)
	assert.JSONEq(t, `{"title":"Curry","steps":[]}`, string(resp.Recipe))

	assert.Equal(t, "Dinner", got["meal_type"])
	assert.Equal(t, float64(2), got["serving_size"])
	assert.Nil(t, got["flavor_controls"])
	assert.Contains(t, got, "calorie_range")
}

func TestGenerateStatusMapping(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		kind    domain.SubmitErrorKind
		message string
		auth    bool
	}{
		{"unauthorized", http.StatusUnauthorized, `{"detail":"Not authenticated"}`, domain.SubmitFatal, "Not authenticated", true},
		{"forbidden no body", http.StatusForbidden, ``, domain.SubmitFatal, "Your session has expired. Sign in again.", true},
		{"bad request verbatim", http.StatusBadRequest, `{"detail":"Invalid calorie range format. Use format like '400-600'"}`, domain.SubmitRejected, "Invalid calorie range format. Use format like '400-600'", false},
		{"validation list", http.StatusUnprocessableEntity, `{"detail":[{"loc":["body","serving_size"],"msg":"value is not a valid integer","type":"type_error.integer"}]}`, domain.SubmitRejected, "serving_size: value is not a valid integer", false},
		{"server error", http.StatusInternalServerError, `{"detail":"Error generating recipe: upstream timeout"}`, domain.SubmitRetryable, "Error generating recipe: upstream timeout", false},
		{"bad gateway html", http.StatusBadGateway, `<html>oops</html>`, domain.SubmitRetryable, "The recipe service failed (502). Try again.", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			c := NewClient(srv.URL, logger.New(logger.LevelOff, nil))
			_, err := c.Generate(context.Background(), "tok", dinnerRequest())

			var se *domain.SubmitError
			require.ErrorAs(t, err, &se)
			assert.Equal(t, tt.kind, se.Kind)
			assert.Equal(t, tt.message, se.Message)
			assert.Equal(t, tt.auth, errors.Is(err, domain.ErrNotAuthenticated))
		})
	}
}

func TestGenerateWithoutTokenNeverCalls(t *testing.T) {
	called := false
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { called = true }))
	defer srv.Close()

	_, err := NewClient(srv.URL, logger.New(logger.LevelOff, nil)).Generate(context.Background(), "", dinnerRequest())
	assert.ErrorIs(t, err, domain.ErrNotAuthenticated)
	assert.False(t, called)
}

func TestGenerateTransportErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, logger.New(logger.LevelOff, nil), WithHTTPTimeout(20*time.Millisecond))
	_, err := c.Generate(context.Background(), "tok", dinnerRequest())
	var se *domain.SubmitError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, domain.SubmitRetryable, se.Kind)
	assert.True(t, se.Retryable())
}

func TestGenerateMalformedSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"status":"success"}`))
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL, logger.New(logger.LevelOff, nil)).Generate(context.Background(), "tok", dinnerRequest())
	var se *domain.SubmitError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, domain.SubmitRetryable, se.Kind)
}
