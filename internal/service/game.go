package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"aichess/internal/core"
	"aichess/internal/game"
	"aichess/internal/rules"
	"aichess/internal/storage"
)

// CreateGame registers a new game with pre-constructed players
func (s *Service) CreateGame(id string, initial rules.Position, human, ai *core.Player) (game.View, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.games[id]; exists {
		return game.View{}, fmt.Errorf("%w: %s", ErrGameExists, id)
	}

	g := game.New(id, initial, human, ai)
	s.games[id] = g

	s.record(func(r storage.Recorder) error {
		return r.RecordNewGame(storage.GameRecord{
			GameID:        id,
			InitialFEN:    initial.FEN(),
			HumanColor:    human.Color.String(),
			HumanPlayerID: human.ID,
			PlayerName:    human.Name,
			AIPlayerID:    ai.ID,
			Model:         ai.Model,
			StartTimeUTC:  g.StartedAt(),
		})
	})

	return g.View(), nil
}

// GetGame retrieves a snapshot of a game by ID
func (s *Service) GetGame(gameID string) (game.View, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	g, ok := s.games[gameID]
	if !ok {
		return game.View{}, fmt.Errorf("%w: %s", ErrGameNotFound, gameID)
	}
	return g.View(), nil
}

// lookup must be called with s.mu held
func (s *Service) lookup(gameID string) (*game.Game, error) {
	g, ok := s.games[gameID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrGameNotFound, gameID)
	}
	return g, nil
}

// SetModel changes the AI opponent mid-game
func (s *Service) SetModel(gameID, model string) (game.View, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	g, err := s.lookup(gameID)
	if err != nil {
		return game.View{}, err
	}
	if g.State() == core.StatePending {
		return game.View{}, ErrAIPending
	}

	g.SetModel(model)
	s.record(func(r storage.Recorder) error { return r.RecordOpponent(gameID, model) })

	return g.View(), nil
}

// ApplyHumanMove plays a coordinate (e2e4, e7e8q) or SAN (Nf3) move for
// the human side
func (s *Service) ApplyHumanMove(gameID, move string) (game.View, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	g, err := s.lookup(gameID)
	if err != nil {
		return game.View{}, err
	}

	switch {
	case g.State() == core.StatePending:
		return game.View{}, ErrAIPending
	case g.State().IsOver():
		return game.View{}, fmt.Errorf("%w: %s", ErrGameOver, g.State())
	case g.IsAITurn():
		return game.View{}, ErrNotHumanTurn
	}

	pos := g.CurrentPosition()
	move = strings.TrimSpace(move)

	var (
		next rules.Position
		lm   rules.LegalMove
	)
	if cm, ok := rules.ParseCoord(move); ok {
		next, lm, err = pos.Apply(cm)
	} else {
		next, lm, err = pos.ApplySAN(move)
	}
	if err != nil {
		return game.View{}, err
	}

	s.applyLocked(g, next, &game.MoveResult{
		Move:   lm,
		Player: lm.Side,
		Source: core.SourceHuman,
	})

	return g.View(), nil
}

// BeginAITurn marks the game pending and returns the position the AI must
// answer. The returned view's MoveCount identifies the turn.
func (s *Service) BeginAITurn(gameID string) (game.View, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	g, err := s.lookup(gameID)
	if err != nil {
		return game.View{}, err
	}

	switch {
	case g.State() == core.StatePending:
		return game.View{}, ErrAIPending
	case g.State().IsOver():
		return game.View{}, fmt.Errorf("%w: %s", ErrGameOver, g.State())
	case !g.IsAITurn():
		return game.View{}, ErrNotAITurn
	}

	g.SetState(core.StatePending)
	s.waiter.NotifyGame(gameID, -1)

	return g.View(), nil
}

// CompleteAITurn applies the AI's move if the game is still pending at the
// move count the turn began with
func (s *Service) CompleteAITurn(gameID string, moveCount int, next rules.Position, result game.MoveResult) (game.View, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	g, err := s.lookup(gameID)
	if err != nil {
		return game.View{}, err
	}
	if g.State() != core.StatePending || g.MoveCount() != moveCount {
		return game.View{}, ErrStaleTurn
	}

	s.applyLocked(g, next, &result)

	return g.View(), nil
}

// AbortAITurn clears the pending flag without a move
func (s *Service) AbortAITurn(gameID string, moveCount int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	g, err := s.lookup(gameID)
	if err != nil || g.MoveCount() != moveCount {
		return
	}
	g.ClearPending()
	s.waiter.NotifyGame(gameID, -1)
}

// applyLocked must be called with s.mu held
func (s *Service) applyLocked(g *game.Game, next rules.Position, result *game.MoveResult) {
	g.AddSnapshot(next, result.Move, result.Source)
	g.SetLastResult(result)

	moveNumber := g.MoveCount()
	s.waiter.NotifyGame(g.ID(), moveNumber)

	s.record(func(r storage.Recorder) error {
		return r.RecordMove(storage.MoveRecord{
			GameID:       g.ID(),
			MoveNumber:   moveNumber,
			MoveUCI:      result.Move.UCI(),
			MoveSAN:      result.Move.SAN,
			FENAfterMove: next.FEN(),
			PlayerColor:  result.Player.String(),
			Source:       string(result.Source),
			RawText:      result.RawText,
			MoveTimeUTC:  time.Now().UTC(),
		})
	})
}

// UndoMoves removes the specified number of moves from game history
func (s *Service) UndoMoves(gameID string, count int) (game.View, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	g, err := s.lookup(gameID)
	if err != nil {
		return game.View{}, err
	}
	if g.State() == core.StatePending {
		return game.View{}, ErrAIPending
	}

	if err := g.UndoMoves(count); err != nil {
		return game.View{}, err
	}

	remaining := g.MoveCount()
	s.waiter.NotifyGame(gameID, remaining)
	s.record(func(r storage.Recorder) error { return r.DeleteUndoneMoves(gameID, remaining) })

	return g.View(), nil
}

// DeleteGame removes a game from memory
func (s *Service) DeleteGame(gameID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	g, err := s.lookup(gameID)
	if err != nil {
		return err
	}
	if g.State() == core.StatePending {
		return ErrAIPending
	}

	s.waiter.RemoveGame(gameID)
	delete(s.games, gameID)
	return nil
}

// WaitForChange blocks until the game's move count differs from moveCount,
// the game is deleted, the wait times out or ctx ends
func (s *Service) WaitForChange(ctx context.Context, gameID string, moveCount int) error {
	s.mu.RLock()
	g, err := s.lookup(gameID)
	if err != nil {
		s.mu.RUnlock()
		return err
	}
	if g.MoveCount() != moveCount {
		s.mu.RUnlock()
		return nil
	}
	req := s.waiter.RegisterWait(gameID, moveCount)
	s.mu.RUnlock()

	s.waiter.Wait(ctx, req)
	return nil
}
