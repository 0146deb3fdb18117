// Package session holds the terminal client's state between commands.
package session

import (
	"aichess/internal/client/api"
	"aichess/internal/core"
)

type Session struct {
	APIBaseURL string
	Client     *api.Client
	Verbose    bool

	CurrentGame      string
	CurrentGameState *core.GameResponse
	PlayerColor      string // "w" or "b"
	LastMoveCount    int
}

func New(baseURL string) *Session {
	return &Session{
		APIBaseURL: baseURL,
		Client:     api.New(baseURL),
	}
}

// SetGameState stores the latest game snapshot
func (s *Session) SetGameState(g *core.GameResponse) {
	if g == nil {
		return
	}
	s.CurrentGame = g.GameID
	s.CurrentGameState = g
	s.LastMoveCount = len(g.Moves)
}

// ClearGame forgets the current game
func (s *Session) ClearGame() {
	s.CurrentGame = ""
	s.CurrentGameState = nil
	s.PlayerColor = ""
	s.LastMoveCount = 0
}

// AIThinking reports whether the last known state has an AI turn in flight
func (s *Session) AIThinking() bool {
	return s.CurrentGameState != nil && s.CurrentGameState.AIThinking
}
