// Package config reads the intake settings from the environment, after
// loading any .env files.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/hammamikhairi/ottointake/internal/logger"
	"github.com/hammamikhairi/ottointake/internal/storage"
)

// Environment variable names.
const (
	EnvBackendURL      = "INTAKE_BACKEND_URL"
	EnvToken           = "INTAKE_TOKEN"
	EnvTokenFile       = "INTAKE_TOKEN_FILE"
	EnvDraftBackend    = "INTAKE_DRAFT_BACKEND"
	EnvDraftDSN        = "INTAKE_DRAFT_DSN"
	EnvDraftTTL        = "INTAKE_DRAFT_TTL"
	EnvRedisAddr       = "INTAKE_REDIS_ADDR"
	EnvRedisPassword   = "INTAKE_REDIS_PASSWORD"
	EnvRedisDB         = "INTAKE_REDIS_DB"
	EnvDraftDebounce   = "INTAKE_DRAFT_DEBOUNCE"
	EnvTransitionDwell = "INTAKE_TRANSITION_DWELL"
	EnvCatalogFile     = "INTAKE_CATALOG_FILE"
	EnvHTTPTimeout     = "INTAKE_HTTP_TIMEOUT"
	EnvLogLevel        = "INTAKE_LOG_LEVEL"
	EnvLogFile         = "INTAKE_LOG_FILE"
	EnvOpenAIKey       = "OPENAI_API_KEY"
	EnvOpenAIBaseURL   = "OPENAI_BASE_URL"
	EnvOpenAIModel     = "OPENAI_MODEL"
)

// Generator names returned by Config.Generator.
const (
	GeneratorBackend = "backend"
	GeneratorOpenAI  = "openai"
)

// ErrNoGenerator is returned by Validate when neither a backend URL nor
// an OpenAI key is set.
var ErrNoGenerator = fmt.Errorf("set %s or %s", EnvBackendURL, EnvOpenAIKey)

// Config holds every setting of the intake CLI.
type Config struct {
	BackendURL  string
	Token       string
	TokenFile   string
	HTTPTimeout time.Duration

	Draft           storage.Config
	DraftDebounce   time.Duration
	TransitionDwell time.Duration
	CatalogFile     string

	OpenAIKey     string
	OpenAIBaseURL string
	OpenAIModel   string

	LogLevel logger.Level
	LogFile  string
}

// Defaults returns the settings used when nothing is configured.
func Defaults() Config {
	return Config{
		HTTPTimeout:     90 * time.Second,
		Draft:           storage.Config{Backend: storage.BackendSQLite, DSN: ".otto-intake/drafts.db"},
		DraftDebounce:   300 * time.Millisecond,
		TransitionDwell: 250 * time.Millisecond,
		LogLevel:        logger.LevelNormal,
		LogFile:         ".otto-logs/intake.log",
	}
}

// Load reads the given .env files (".env" when none are named; missing
// files are skipped) and then the process environment.
func Load(files ...string) (Config, error) {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("config: loading %s: %w", f, err)
		}
	}
	return FromEnv(os.LookupEnv)
}

// FromEnv builds a Config from a lookup function such as os.LookupEnv.
// Unset variables keep their defaults.
func FromEnv(lookup func(string) (string, bool)) (Config, error) {
	cfg := Defaults()
	r := reader{lookup: lookup}

	r.str(EnvBackendURL, &cfg.BackendURL)
	r.str(EnvToken, &cfg.Token)
	r.str(EnvTokenFile, &cfg.TokenFile)
	r.duration(EnvHTTPTimeout, &cfg.HTTPTimeout)

	r.str(EnvDraftBackend, &cfg.Draft.Backend)
	cfg.Draft.Backend = strings.ToLower(cfg.Draft.Backend)
	r.str(EnvDraftDSN, &cfg.Draft.DSN)
	r.duration(EnvDraftTTL, &cfg.Draft.TTL)
	r.str(EnvRedisAddr, &cfg.Draft.RedisAddr)
	r.str(EnvRedisPassword, &cfg.Draft.RedisPassword)
	r.integer(EnvRedisDB, &cfg.Draft.RedisDB)
	r.duration(EnvDraftDebounce, &cfg.DraftDebounce)
	r.duration(EnvTransitionDwell, &cfg.TransitionDwell)
	r.str(EnvCatalogFile, &cfg.CatalogFile)

	r.str(EnvOpenAIKey, &cfg.OpenAIKey)
	r.str(EnvOpenAIBaseURL, &cfg.OpenAIBaseURL)
	r.str(EnvOpenAIModel, &cfg.OpenAIModel)

	if v, ok := r.get(EnvLogLevel); ok {
		cfg.LogLevel = logger.ParseLevel(v)
	}
	r.str(EnvLogFile, &cfg.LogFile)

	if len(r.errs) > 0 {
		return Config{}, errors.Join(r.errs...)
	}
	return cfg, nil
}

// Generator names the generator the settings select. The backend wins
// over a direct model call.
func (c Config) Generator() string {
	switch {
	case c.BackendURL != "":
		return GeneratorBackend
	case c.OpenAIKey != "":
		return GeneratorOpenAI
	default:
		return ""
	}
}

// Validate checks the settings are usable together.
func (c Config) Validate() error {
	var errs []error
	if c.Generator() == "" {
		errs = append(errs, ErrNoGenerator)
	}
	switch c.Draft.Backend {
	case "", storage.BackendMemory, storage.BackendSQLite, storage.BackendRedis:
	case storage.BackendPostgres:
		if c.Draft.DSN == "" {
			errs = append(errs, fmt.Errorf("%s is required for the postgres draft backend", EnvDraftDSN))
		}
	default:
		errs = append(errs, fmt.Errorf("%s: unknown backend %q", EnvDraftBackend, c.Draft.Backend))
	}
	if c.DraftDebounce <= 0 {
		errs = append(errs, fmt.Errorf("%s must be positive", EnvDraftDebounce))
	}
	if c.TransitionDwell < 0 {
		errs = append(errs, fmt.Errorf("%s must not be negative", EnvTransitionDwell))
	}
	return errors.Join(errs...)
}

type reader struct {
	lookup func(string) (string, bool)
	errs   []error
}

func (r *reader) get(key string) (string, bool) {
	v, ok := r.lookup(key)
	v = strings.TrimSpace(v)
	return v, ok && v != ""
}

func (r *reader) str(key string, dst *string) {
	if v, ok := r.get(key); ok {
		*dst = v
	}
}

func (r *reader) duration(key string, dst *time.Duration) {
	v, ok := r.get(key)
	if !ok {
		return
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		r.errs = append(r.errs, fmt.Errorf("%s: %w", key, err))
		return
	}
	*dst = d
}

func (r *reader) integer(key string, dst *int) {
	v, ok := r.get(key)
	if !ok {
		return
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		r.errs = append(r.errs, fmt.Errorf("%s: %w", key, err))
		return
	}
	*dst = n
}
