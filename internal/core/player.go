package core

import (
	"github.com/google/uuid"
)

type PlayerType int

const (
	PlayerHuman PlayerType = iota + 1
	PlayerAI
)

func (t PlayerType) String() string {
	if t == PlayerAI {
		return "ai"
	}
	return "human"
}

// Player is one side of a game
type Player struct {
	ID    string     `json:"id"`
	Color Color      `json:"color"`
	Type  PlayerType `json:"type"`
	Name  string     `json:"name,omitempty"`
	Model string     `json:"model,omitempty"` // Only for AI
}

// PlayersResponse for API responses
type PlayersResponse struct {
	White *Player `json:"white"`
	Black *Player `json:"black"`
}

func NewHumanPlayer(name string, color Color) *Player {
	return &Player{
		ID:    uuid.New().String(),
		Color: color,
		Type:  PlayerHuman,
		Name:  name,
	}
}

func NewAIPlayer(model string, color Color) *Player {
	return &Player{
		ID:    uuid.New().String(),
		Color: color,
		Type:  PlayerAI,
		Model: model,
	}
}
