// Package draft persists the in-progress guided intake so it survives a
// crash or a closed terminal. Writes are debounced: every edit restarts a
// quiet-period timer and only the last state is written.
package draft

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/Masterminds/semver/v3"

	"github.com/hammamikhairi/ottointake/internal/domain"
	"github.com/hammamikhairi/ottointake/internal/logger"
	"github.com/hammamikhairi/ottointake/internal/timer"
)

const (
	// DefaultKey is the storage key of the draft.
	DefaultKey = "intake_draft_v1"
	// DefaultDebounce is the quiet period before a write.
	DefaultDebounce = 300 * time.Millisecond
	// SchemaVersion is written with every draft.
	SchemaVersion = "1.0.0"
	// legacyVersion is assumed for drafts written without a version.
	legacyVersion = "1.0.0"
	// supportedVersions is the range of schema versions Load accepts.
	supportedVersions = "^1"

	flushTimeout = 5 * time.Second
)

// record is the stored JSON: the form fields at the top level plus
// bookkeeping fields.
type record struct {
	SchemaVersion string    `json:"schemaVersion,omitempty"`
	SavedAt       time.Time `json:"savedAt"`
	domain.IntakeForm
}

// SnapshotFunc returns the form to persist, read at write time. Returning
// false skips the write.
type SnapshotFunc func() (domain.IntakeForm, bool)

// Option configures the store.
type Option func(*Store)

// WithKey overrides the storage key.
func WithKey(key string) Option {
	return func(s *Store) {
		s.key = key
	}
}

// WithDebounce overrides the quiet period.
func WithDebounce(d time.Duration) Option {
	return func(s *Store) {
		s.wait = d
	}
}

// WithClock sets the clock for the debounce timer and timestamps.
func WithClock(c timer.Clock) Option {
	return func(s *Store) {
		s.clock = c
	}
}

// Store saves, loads and clears the draft through a KV port.
type Store struct {
	kv    domain.KVStore
	log   *logger.Logger
	key   string
	wait  time.Duration
	clock timer.Clock

	supported *semver.Constraints
	debouncer *timer.Debouncer

	mu       sync.Mutex
	snapshot SnapshotFunc
	writes   int
}

// New creates a draft store over the given KV port.
func New(kv domain.KVStore, log *logger.Logger, opts ...Option) *Store {
	s := &Store{
		kv:    kv,
		log:   log,
		key:   DefaultKey,
		wait:  DefaultDebounce,
		clock: timer.Real(),
	}
	for _, opt := range opts {
		opt(s)
	}
	c, err := semver.NewConstraint(supportedVersions)
	if err != nil {
		panic(fmt.Sprintf("draft: bad version constraint: %v", err))
	}
	s.supported = c
	s.debouncer = timer.NewDebouncer(s.wait, s.flushPending,
		timer.WithClock(s.clock),
		timer.WithLogger(log),
	)
	return s
}

// Key returns the storage key.
func (s *Store) Key() string { return s.key }

// Schedule (re)starts the debounce timer. When it fires, snapshot is
// called and its result written. A later Schedule replaces the snapshot
// function and restarts the timer.
func (s *Store) Schedule(snapshot SnapshotFunc) {
	s.mu.Lock()
	s.snapshot = snapshot
	s.mu.Unlock()
	s.debouncer.Trigger()
}

// Pending reports whether a debounced write is waiting.
func (s *Store) Pending() bool { return s.debouncer.Pending() }

// Flush performs the pending write now, if any.
func (s *Store) Flush() bool { return s.debouncer.Flush() }

// Writes returns how many drafts were written by this store.
func (s *Store) Writes() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.writes
}

// Save writes the form immediately.
func (s *Store) Save(ctx context.Context, form domain.IntakeForm) error {
	rec := record{
		SchemaVersion: SchemaVersion,
		SavedAt:       s.clock.Now().UTC(),
		IntakeForm:    form,
	}
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("draft: encoding: %w", err)
	}
	if err := s.kv.Set(ctx, s.key, data); err != nil {
		return fmt.Errorf("draft: writing %s: %w", s.key, err)
	}

	s.mu.Lock()
	s.writes++
	s.mu.Unlock()

	s.log.Debug("draft saved (%d bytes)", len(data))
	return nil
}

// Load reads the draft. Returns domain.ErrNotFound when there is none
// and domain.ErrDraftIncompatible (after removing it) when it cannot be
// read by this version.
func (s *Store) Load(ctx context.Context) (*domain.Draft, error) {
	data, err := s.kv.Get(ctx, s.key)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("draft: reading %s: %w", s.key, err)
	}

	var rec record
	if err := json.Unmarshal(data, &rec); err != nil {
		s.discard(ctx, "undecodable")
		return nil, fmt.Errorf("%w: %v", domain.ErrDraftIncompatible, err)
	}

	version := rec.SchemaVersion
	if version == "" {
		version = legacyVersion
	}
	v, err := semver.NewVersion(version)
	if err != nil || !s.supported.Check(v) {
		s.discard(ctx, "version "+version)
		return nil, fmt.Errorf("%w: %s", domain.ErrDraftIncompatible, version)
	}

	s.log.Debug("draft loaded (version %s, saved %s)", version, rec.SavedAt.Format(time.RFC3339))
	return &domain.Draft{
		SchemaVersion: version,
		SavedAt:       rec.SavedAt,
		Form:          rec.IntakeForm,
	}, nil
}

// Clear cancels any pending write and deletes the draft. A missing draft
// is not an error.
func (s *Store) Clear(ctx context.Context) error {
	s.debouncer.Cancel()

	s.mu.Lock()
	s.snapshot = nil
	s.mu.Unlock()

	if err := s.kv.Remove(ctx, s.key); err != nil && !errors.Is(err, domain.ErrNotFound) {
		return fmt.Errorf("draft: removing %s: %w", s.key, err)
	}
	s.log.Debug("draft cleared")
	return nil
}

// Close flushes the pending write and stops the debounce timer.
func (s *Store) Close() {
	s.debouncer.Flush()
	s.debouncer.Stop()
}

func (s *Store) flushPending() {
	s.mu.Lock()
	snapshot := s.snapshot
	s.mu.Unlock()
	if snapshot == nil {
		return
	}

	form, ok := snapshot()
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), flushTimeout)
	defer cancel()
	if err := s.Save(ctx, form); err != nil {
		s.log.Error("debounced draft write failed: %v", err)
	}
}

func (s *Store) discard(ctx context.Context, reason string) {
	s.log.Warn("discarding unreadable draft (%s)", reason)
	if err := s.kv.Remove(ctx, s.key); err != nil && !errors.Is(err, domain.ErrNotFound) {
		s.log.Error("removing unreadable draft: %v", err)
	}
}
