package core

// Request types

type CreateGameRequest struct {
	HumanColor string `json:"humanColor" validate:"required,oneof=white black"`
	Model      string `json:"model,omitempty" validate:"omitempty,max=64"`
	PlayerName string `json:"playerName,omitempty" validate:"omitempty,max=32"`
	FEN        string `json:"fen,omitempty" validate:"omitempty,max=100"`
}

type ConfigureOpponentRequest struct {
	Model string `json:"model" validate:"required,max=64"`
}

type MoveRequest struct {
	Move string `json:"move" validate:"required,min=2,max=7"` // coordinate (e2e4, e7e8q) or SAN (Nf3, O-O)
}

type UndoRequest struct {
	Count int `json:"count" validate:"required,min=1,max=300"`
}

// MoveRelayRequest is the body sent to the backend relay for one AI turn
type MoveRelayRequest struct {
	LegalMoves   []string `json:"legalMoves" validate:"required,min=1,dive,max=10"`
	CurrentBoard string   `json:"currentBoard" validate:"required,max=100"`
	Color        string   `json:"color" validate:"required,oneof=white black"`
	UserColor    string   `json:"userColor" validate:"required,oneof=white black"`
	Model        string   `json:"model" validate:"required,max=64"`
}

// Response types

type GameResponse struct {
	GameID     string          `json:"gameId"`
	FEN        string          `json:"fen"`
	Turn       string          `json:"turn"`  // "w" or "b"
	State      string          `json:"state"` // "ongoing", "pending", "white wins", ...
	Status     string          `json:"status,omitempty"`
	Moves      []string        `json:"moves"`    // SAN
	MovesUCI   []string        `json:"movesUci"` // coordinate notation
	Players    PlayersResponse `json:"players"`
	Model      string          `json:"model"`
	AIThinking bool            `json:"aiThinking"`
	LastMove   *MoveInfo       `json:"lastMove,omitempty"`
}

type MoveInfo struct {
	Move        string     `json:"move"`
	SAN         string     `json:"san,omitempty"`
	PlayerColor string     `json:"playerColor"` // "w" or "b"
	Source      MoveSource `json:"source,omitempty"`
	Notice      string     `json:"notice,omitempty"`
	RawText     string     `json:"rawText,omitempty"`
}

type BoardResponse struct {
	FEN   string `json:"fen"`
	Board string `json:"board"` // ASCII representation
}

type PGNResponse struct {
	PGN string `json:"pgn"`
}

type ModelInfo struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Provider    string `json:"provider"`
	Description string `json:"description"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code"`
	Details string `json:"details,omitempty"`
}
