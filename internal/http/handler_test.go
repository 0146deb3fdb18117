package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"aichess/internal/core"
	"aichess/internal/dispatch"
	"aichess/internal/processor"
	"aichess/internal/provider"
	"aichess/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixedProvider struct {
	text string
	err  error
}

func (f fixedProvider) RequestMove(context.Context, provider.Selection, core.MoveRelayRequest) (string, error) {
	return f.text, f.err
}

func newApp(t *testing.T) *fiber.App {
	t.Helper()
	log := zerolog.Nop()

	router := provider.NewRouter(log).
		Register(provider.KindGroq, fixedProvider{text: "Black plays: e7e5"}).
		Register(provider.KindChessAPI, fixedProvider{err: fmt.Errorf("%w: 503", provider.ErrEngine)})

	svc := service.New(nil, log)
	turn := dispatch.NewTurn(dispatch.NewDispatcher(dispatch.NewLocalRelay(router), log), log,
		dispatch.WithPicker(func(int) int { return 0 }))
	proc := processor.New(svc, turn, router, processor.Options{Workers: 1, TurnTimeout: 2 * time.Second}, log)

	t.Cleanup(func() {
		proc.Close()
		svc.Close()
	})
	return NewFiberApp(proc, svc, true, log)
}

func do(t *testing.T, app *fiber.App, method, path string, body any) (int, []byte) {
	t.Helper()
	var r io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		r = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, r)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := app.Test(req, 10000)
	require.NoError(t, err)
	defer resp.Body.Close()
	out, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, out
}

func decode[T any](t *testing.T, b []byte) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(b, &v), string(b))
	return v
}

func TestHealth(t *testing.T) {
	app := newApp(t)
	status, body := do(t, app, "GET", "/health", nil)
	assert.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, "disabled", decode[map[string]any](t, body)["storage"])
}

func TestGameFlow(t *testing.T) {
	app := newApp(t)

	status, body := do(t, app, "POST", "/api/v1/games", core.CreateGameRequest{HumanColor: "white", PlayerName: "ada"})
	require.Equal(t, fiber.StatusCreated, status, string(body))
	g := decode[core.GameResponse](t, body)
	assert.Equal(t, "w", g.Turn)
	assert.Equal(t, provider.DefaultModel, g.Model)

	status, body = do(t, app, "POST", "/api/v1/games/"+g.GameID+"/moves", core.MoveRequest{Move: "e2e4"})
	require.Equal(t, fiber.StatusOK, status, string(body))
	assert.Equal(t, []string{"e4"}, decode[core.GameResponse](t, body).Moves)

	// long-poll until the AI replies
	status, body = do(t, app, "GET", "/api/v1/games/"+g.GameID+"?wait=true&moveCount=1", nil)
	require.Equal(t, fiber.StatusOK, status)
	g = decode[core.GameResponse](t, body)
	if g.AIThinking {
		status, body = do(t, app, "GET", "/api/v1/games/"+g.GameID+"?wait=true&moveCount=1", nil)
		require.Equal(t, fiber.StatusOK, status)
		g = decode[core.GameResponse](t, body)
	}
	assert.Equal(t, []string{"e4", "e5"}, g.Moves)
	require.NotNil(t, g.LastMove)
	assert.Equal(t, core.SourceAI, g.LastMove.Source)

	status, body = do(t, app, "GET", "/api/v1/games/"+g.GameID+"/pgn", nil)
	require.Equal(t, fiber.StatusOK, status)
	assert.Contains(t, decode[core.PGNResponse](t, body).PGN, "e5")

	status, body = do(t, app, "GET", "/api/v1/games/"+g.GameID+"/board", nil)
	require.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, g.FEN, decode[core.BoardResponse](t, body).FEN)

	status, body = do(t, app, "PUT", "/api/v1/games/"+g.GameID+"/opponent", core.ConfigureOpponentRequest{Model: "stockfish-17-depth-6"})
	require.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, "stockfish-17-depth-6", decode[core.GameResponse](t, body).Model)

	status, _ = do(t, app, "DELETE", "/api/v1/games/"+g.GameID, nil)
	assert.Equal(t, fiber.StatusNoContent, status)

	status, body = do(t, app, "GET", "/api/v1/games/"+g.GameID, nil)
	assert.Equal(t, fiber.StatusNotFound, status)
	assert.Equal(t, core.ErrGameNotFound, decode[core.ErrorResponse](t, body).Code)
}

func TestIllegalMove(t *testing.T) {
	app := newApp(t)

	_, body := do(t, app, "POST", "/api/v1/games", core.CreateGameRequest{HumanColor: "white"})
	g := decode[core.GameResponse](t, body)

	status, body := do(t, app, "POST", "/api/v1/games/"+g.GameID+"/moves", core.MoveRequest{Move: "e2e5"})
	assert.Equal(t, fiber.StatusBadRequest, status)
	assert.Equal(t, core.ErrInvalidMove, decode[core.ErrorResponse](t, body).Code)
}

func TestRequestValidation(t *testing.T) {
	app := newApp(t)

	status, body := do(t, app, "POST", "/api/v1/games", core.CreateGameRequest{HumanColor: "purple"})
	assert.Equal(t, fiber.StatusBadRequest, status)
	e := decode[core.ErrorResponse](t, body)
	assert.Equal(t, core.ErrInvalidRequest, e.Code)
	assert.Contains(t, e.Details, "HumanColor must be one of")

	status, body = do(t, app, "GET", "/api/v1/games/not-a-uuid", nil)
	assert.Equal(t, fiber.StatusBadRequest, status)
	assert.Equal(t, core.ErrInvalidRequest, decode[core.ErrorResponse](t, body).Code)

	status, _ = do(t, app, "GET", "/api/v1/games/"+uuid.NewString(), nil)
	assert.Equal(t, fiber.StatusNotFound, status)

	req := httptest.NewRequest("POST", "/api/v1/games", bytes.NewBufferString("humanColor=white"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnsupportedMediaType, resp.StatusCode)

	status, _ = do(t, app, "POST", "/api/v1/games", core.CreateGameRequest{HumanColor: "white", FEN: "garbage"})
	assert.Equal(t, fiber.StatusBadRequest, status)
}

func TestRelayEndpoint(t *testing.T) {
	app := newApp(t)

	req := core.MoveRelayRequest{
		LegalMoves:   []string{"e5", "Nf6"},
		CurrentBoard: "rnbqkbnr/pppppppp/8/8/4P3/8/PPPP1PPP/RNBQKBNR b KQkq - 0 1",
		Color:        "black",
		UserColor:    "white",
		Model:        "llama-3.3-70b-versatile",
	}

	status, body := do(t, app, "POST", "/api/v1/move", req)
	require.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, "Black plays: e7e5", string(body))

	req.Model = "stockfish-17-depth-12"
	status, body = do(t, app, "POST", "/api/v1/move", req)
	require.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, "error", string(body))

	req.Model = "gemini-1.5-pro"
	status, _ = do(t, app, "POST", "/api/v1/move", req)
	assert.Equal(t, fiber.StatusBadRequest, status)

	req.Color = "green"
	status, _ = do(t, app, "POST", "/api/v1/move", req)
	assert.Equal(t, fiber.StatusBadRequest, status)
}

func TestModels(t *testing.T) {
	app := newApp(t)

	status, body := do(t, app, "GET", "/api/v1/models", nil)
	require.Equal(t, fiber.StatusOK, status)
	models := decode[[]core.ModelInfo](t, body)
	require.NotEmpty(t, models)
	assert.Equal(t, "llama-3.3-70b-versatile", models[0].ID)
}
