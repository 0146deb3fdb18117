package service

import (
	"errors"
	"sync"
	"time"

	"aichess/internal/game"
	"aichess/internal/storage"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

var (
	ErrGameNotFound = errors.New("game not found")
	ErrGameExists   = errors.New("game already exists")
	ErrAIPending    = errors.New("AI move in progress")
	ErrGameOver     = errors.New("game is over")
	ErrNotHumanTurn = errors.New("not the human player's turn")
	ErrNotAITurn    = errors.New("not the AI player's turn")
	ErrStaleTurn    = errors.New("game changed while AI move was in flight")
)

// Service owns every game. All mutation happens under its mutex; callers
// get game.View copies.
type Service struct {
	games  map[string]*game.Game
	mu     sync.RWMutex
	store  storage.Recorder // nil if persistence disabled
	waiter *WaitRegistry
	log    zerolog.Logger
}

// New creates a new service instance with optional storage
func New(store storage.Recorder, log zerolog.Logger) *Service {
	return &Service{
		games:  make(map[string]*game.Game),
		store:  store,
		waiter: NewWaitRegistry(),
		log:    log.With().Str("component", "service").Logger(),
	}
}

// GenerateGameID creates a new unique game ID
func (s *Service) GenerateGameID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for {
		id := uuid.New().String()
		if _, exists := s.games[id]; !exists {
			return id
		}
	}
}

// GetStorageHealth returns the storage component status
func (s *Service) GetStorageHealth() string {
	if s.store == nil {
		return "disabled"
	}
	if s.store.IsHealthy() {
		return "ok"
	}
	return "degraded"
}

// Close releases waiters and storage
func (s *Service) Close() error {
	if err := s.waiter.Shutdown(2 * time.Second); err != nil {
		s.log.Warn().Err(err).Msg("waiter shutdown")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.games = make(map[string]*game.Game)

	if s.store != nil {
		return s.store.Close()
	}
	return nil
}

// record calls fn on the store when persistence is enabled
func (s *Service) record(fn func(storage.Recorder) error) {
	if s.store == nil {
		return
	}
	if err := fn(s.store); err != nil {
		s.log.Warn().Err(err).Msg("record failed")
	}
}
