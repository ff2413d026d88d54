package domain

import "context"

// KVStore is the persistence surface used for drafts. Implementations can
// be in-memory, SQLite, Postgres, Redis or any other backend. Get returns
// ErrNotFound for a missing key.
type KVStore interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Remove(ctx context.Context, key string) error
}

// Generator turns a normalized request into a recipe. Implementations can
// call the generation backend over HTTP or an LLM directly.
type Generator interface {
	Generate(ctx context.Context, token string, req GenerationRequest) (*GenerationResponse, error)
}

// IdentityProvider reports the signed-in user. Current returns
// ErrNotAuthenticated when nobody is signed in.
type IdentityProvider interface {
	Current(ctx context.Context) (Identity, error)
}

// IntentParser converts raw user input into structured intents.
type IntentParser interface {
	Parse(ctx context.Context, input string, mode Mode) (*Intent, error)
}

// Notifier delivers messages to the user.
type Notifier interface {
	Notify(ctx context.Context, message string) error
	NotifyUrgent(ctx context.Context, message string) error
}
