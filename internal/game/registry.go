package game

import (
	"context"
	"log/slog"
	"sync"

	"github.com/myrjola/whodunit/internal/ai"
	"github.com/myrjola/whodunit/internal/config"
	"github.com/myrjola/whodunit/internal/contradiction"
	"github.com/myrjola/whodunit/internal/errors"
	"github.com/myrjola/whodunit/internal/memory"
	"github.com/myrjola/whodunit/internal/mystery"
	"github.com/myrjola/whodunit/internal/random"
)

// ErrSessionNotFound is returned for ids the registry does not know.
var ErrSessionNotFound = errors.NewSentinel("game session not found")

// Capabilities is everything the engine needs from the language layer.
type Capabilities interface {
	ai.Completer
	ai.StructuredCompleter
	ai.Embedder
}

// Registry creates and tracks live game sessions in memory. The session id
// is the handle stored in the player's cookie session.
type Registry struct {
	capability Capabilities
	store      *memory.Store
	detector   *contradiction.Detector
	logger     *slog.Logger

	mu       sync.RWMutex
	sessions map[string]*Session
}

func NewRegistry(capability Capabilities, store *memory.Store, logger *slog.Logger) *Registry {
	return &Registry{
		capability: capability,
		store:      store,
		detector:   contradiction.NewDetector(capability, store, logger),
		logger:     logger,
		sessions:   make(map[string]*Session),
	}
}

// Start generates a fresh scenario and opens a session for it.
func (r *Registry) Start(ctx context.Context, settings config.Settings) (*Session, error) {
	oracle, err := mystery.Generate(ctx, r.capability, settings, r.logger)
	if err != nil {
		return nil, errors.Wrap(err, "generate scenario")
	}

	id, err := random.Letters(20)
	if err != nil {
		return nil, errors.Wrap(err, "generate session id")
	}

	session := newSession(id, oracle, r.store, r.detector, r.logger)
	r.mu.Lock()
	r.sessions[id] = session
	r.mu.Unlock()

	r.logger.LogAttrs(ctx, slog.LevelInfo, "game session started",
		slog.String("game_id", id),
		slog.Int("suspects", settings.Suspects),
		slog.String("difficulty", string(settings.Difficulty)))
	return session, nil
}

func (r *Registry) Get(id string) (*Session, error) {
	r.mu.RLock()
	session, ok := r.sessions[id]
	r.mu.RUnlock()
	if !ok {
		return nil, errors.Wrap(ErrSessionNotFound, "get session", slog.String("game_id", id))
	}
	return session, nil
}

// Close ends a session and drops it from the registry.
func (r *Registry) Close(ctx context.Context, id string) error {
	session, err := r.Get(id)
	if err != nil {
		return err
	}
	if err = session.Close(ctx); err != nil {
		return err
	}
	r.mu.Lock()
	delete(r.sessions, id)
	r.mu.Unlock()
	return nil
}
