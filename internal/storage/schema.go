package storage

import "time"

// GameRecord represents a row in the games table
type GameRecord struct {
	GameID        string    `db:"game_id" bson:"_id"`
	InitialFEN    string    `db:"initial_fen" bson:"initial_fen"`
	HumanColor    string    `db:"human_color" bson:"human_color"` // "w" or "b"
	HumanPlayerID string    `db:"human_player_id" bson:"human_player_id"`
	PlayerName    string    `db:"player_name" bson:"player_name,omitempty"`
	AIPlayerID    string    `db:"ai_player_id" bson:"ai_player_id"`
	Model         string    `db:"model" bson:"model"`
	StartTimeUTC  time.Time `db:"start_time_utc" bson:"start_time_utc"`
}

// MoveRecord represents a row in the moves table
type MoveRecord struct {
	MoveID       int64     `db:"move_id" bson:"-"`
	GameID       string    `db:"game_id" bson:"-"`
	MoveNumber   int       `db:"move_number" bson:"number"`
	MoveUCI      string    `db:"move_uci" bson:"uci"`
	MoveSAN      string    `db:"move_san" bson:"san"`
	FENAfterMove string    `db:"fen_after_move" bson:"fen_after"`
	PlayerColor  string    `db:"player_color" bson:"color"` // "w" or "b"
	Source       string    `db:"source" bson:"source"`      // human, ai or fallback
	RawText      string    `db:"raw_text" bson:"raw_text,omitempty"`
	MoveTimeUTC  time.Time `db:"move_time_utc" bson:"time"`
}

// Schema defines the SQLite database structure
const Schema = `
CREATE TABLE IF NOT EXISTS games (
	game_id TEXT PRIMARY KEY,
	initial_fen TEXT NOT NULL,
	human_color TEXT NOT NULL CHECK(human_color IN ('w', 'b')),
	human_player_id TEXT NOT NULL,
	player_name TEXT NOT NULL DEFAULT '',
	ai_player_id TEXT NOT NULL,
	model TEXT NOT NULL,
	start_time_utc DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS moves (
	move_id INTEGER PRIMARY KEY AUTOINCREMENT,
	game_id TEXT NOT NULL,
	move_number INTEGER NOT NULL,
	move_uci TEXT NOT NULL,
	move_san TEXT NOT NULL,
	fen_after_move TEXT NOT NULL,
	player_color TEXT NOT NULL CHECK(player_color IN ('w', 'b')),
	source TEXT NOT NULL CHECK(source IN ('human', 'ai', 'fallback')),
	raw_text TEXT NOT NULL DEFAULT '',
	move_time_utc DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	FOREIGN KEY (game_id) REFERENCES games(game_id) ON DELETE CASCADE,
	UNIQUE(game_id, move_number)
);

CREATE INDEX IF NOT EXISTS idx_moves_game_id ON moves(game_id);
CREATE INDEX IF NOT EXISTS idx_games_model ON games(model);
CREATE INDEX IF NOT EXISTS idx_games_human_player ON games(human_player_id);
`
