// Package auth supplies the signed-in user to the submission path. The
// bearer token comes from the environment or a token file written by a
// separate login step; its claims are read but not verified here, the
// generation service verifies the signature.
package auth

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/hammamikhairi/ottointake/internal/domain"
	"github.com/hammamikhairi/ottointake/internal/logger"
)

// DefaultAudience is the audience of user tokens accepted by the service.
const DefaultAudience = "authenticated"

var (
	_ domain.IdentityProvider = (*TokenProvider)(nil)
	_ domain.IdentityProvider = Static{}
)

// Option configures a TokenProvider.
type Option func(*TokenProvider)

// WithTokenFile reads the token from a file on every call, so a fresh
// login is picked up without a restart. The file wins over a fixed token.
func WithTokenFile(path string) Option {
	return func(p *TokenProvider) { p.file = path }
}

// WithAudience overrides the required audience. Empty disables the check.
func WithAudience(aud string) Option {
	return func(p *TokenProvider) { p.audience = aud }
}

// WithNow overrides the clock used for expiry checks.
func WithNow(now func() time.Time) Option {
	return func(p *TokenProvider) { p.now = now }
}

// TokenProvider reports the user of a bearer JWT.
type TokenProvider struct {
	token    string
	file     string
	audience string
	now      func() time.Time
	log      *logger.Logger
}

// NewTokenProvider creates a provider for a fixed token (may be empty
// when a token file is configured).
func NewTokenProvider(token string, log *logger.Logger, opts ...Option) *TokenProvider {
	p := &TokenProvider{
		token:    strings.TrimSpace(token),
		audience: DefaultAudience,
		now:      time.Now,
		log:      log,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Current returns the identity of the token. Missing, malformed, expired
// and wrong-audience tokens all yield domain.ErrNotAuthenticated.
func (p *TokenProvider) Current(ctx context.Context) (domain.Identity, error) {
	token, err := p.read()
	if err != nil {
		return domain.Identity{}, err
	}
	if token == "" {
		return domain.Identity{}, domain.ErrNotAuthenticated
	}

	claims := jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, &claims); err != nil {
		p.log.Warn("unreadable bearer token: %v", err)
		return domain.Identity{}, fmt.Errorf("%w: malformed token", domain.ErrNotAuthenticated)
	}
	if claims.Subject == "" {
		return domain.Identity{}, fmt.Errorf("%w: token has no subject", domain.ErrNotAuthenticated)
	}
	if claims.ExpiresAt == nil || !claims.ExpiresAt.After(p.now()) {
		return domain.Identity{}, fmt.Errorf("%w: token expired", domain.ErrNotAuthenticated)
	}
	if p.audience != "" && !contains(claims.Audience, p.audience) {
		return domain.Identity{}, fmt.Errorf("%w: token audience %v", domain.ErrNotAuthenticated, []string(claims.Audience))
	}
	return domain.Identity{UserID: claims.Subject, Token: token}, nil
}

func (p *TokenProvider) read() (string, error) {
	if p.file == "" {
		return p.token, nil
	}
	data, err := os.ReadFile(p.file)
	if errors.Is(err, os.ErrNotExist) {
		return p.token, nil
	}
	if err != nil {
		return "", fmt.Errorf("auth: reading token file: %w", err)
	}
	if t := strings.TrimSpace(string(data)); t != "" {
		return t, nil
	}
	return p.token, nil
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

// Static is a fixed identity. The zero value is signed out.
type Static struct {
	Identity domain.Identity
}

// Current returns the fixed identity, or ErrNotAuthenticated when it has
// no token.
func (s Static) Current(context.Context) (domain.Identity, error) {
	if s.Identity.Token == "" {
		return domain.Identity{}, domain.ErrNotAuthenticated
	}
	return s.Identity, nil
}
