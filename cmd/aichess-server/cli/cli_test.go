package cli

import (
	"bytes"
	"path/filepath"
	"testing"
	"time"

	"aichess/internal/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQueryEmptyDatabase(t *testing.T) {
	path := filepath.Join(t.TempDir(), "games.db")
	require.NoError(t, Run([]string{"init", "-path", path}))

	var out bytes.Buffer
	require.NoError(t, runQuery([]string{"-path", path, "-gameId", "*"}, &out))
	assert.Contains(t, out.String(), "No games found")
}

func TestRunRequiresSubcommand(t *testing.T) {
	assert.Error(t, Run(nil))
	assert.Error(t, Run([]string{"vacuum"}))
	assert.Error(t, Run([]string{"query"}))
	assert.Error(t, Run([]string{"moves", "-path", "x.db"}))
}

func TestPrintTables(t *testing.T) {
	var out bytes.Buffer
	printGames(&out, []storage.GameRecord{{
		GameID:       "3f6c1a8e-2b4d-4c5e-9f0a-1b2c3d4e5f60",
		HumanColor:   "w",
		PlayerName:   "ada",
		Model:        "stockfish-17-depth-12",
		StartTimeUTC: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
	}})
	assert.Contains(t, out.String(), "stockfish-17-depth-12")
	assert.Contains(t, out.String(), "2024-05-01 12:00:00")
	assert.Contains(t, out.String(), "Found 1 game(s)")

	out.Reset()
	printMoves(&out, []storage.MoveRecord{
		{MoveNumber: 1, PlayerColor: "w", MoveSAN: "e4", MoveUCI: "e2e4", Source: "human"},
		{MoveNumber: 2, PlayerColor: "b", MoveSAN: "Nf6", MoveUCI: "g8f6", Source: "fallback", RawText: "I would play the Sicilian"},
	})
	assert.Contains(t, out.String(), "fallback")
	assert.Contains(t, out.String(), `"I would play the Sicilian"`)

	out.Reset()
	printMoves(&out, nil)
	assert.Equal(t, "No moves recorded\n", out.String())
}
