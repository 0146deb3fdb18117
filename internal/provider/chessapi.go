package provider

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"aichess/internal/core"

	"github.com/gofiber/fiber/v2"
)

const (
	ChessAPIURL        = "https://chess-api.com/v1"
	defaultEngineLimit = 10 * time.Second
)

type chessAPIRequest struct {
	FEN             string `json:"fen"`
	Depth           int    `json:"depth"`
	Variants        int    `json:"variants"`
	MaxThinkingTime int    `json:"maxThinkingTime"`
}

type chessAPIResponse struct {
	Move string `json:"move"` // coordinate notation
	SAN  string `json:"san"`
	Text string `json:"text"`
}

// ChessAPI asks the hosted Stockfish at chess-api.com for a best move
type ChessAPI struct {
	url string
}

func NewChessAPI(url string) *ChessAPI {
	if url == "" {
		url = ChessAPIURL
	}
	return &ChessAPI{url: url}
}

func (c *ChessAPI) RequestMove(ctx context.Context, sel Selection, req core.MoveRelayRequest) (string, error) {
	timeout := defaultEngineLimit
	if deadline, ok := ctx.Deadline(); ok {
		timeout = time.Until(deadline)
	}
	if timeout <= 0 {
		return "", fmt.Errorf("%w: %v", ErrEngine, context.DeadlineExceeded)
	}

	agent := fiber.Post(c.url).
		JSON(chessAPIRequest{
			FEN:             req.CurrentBoard,
			Depth:           sel.Depth,
			Variants:        1,
			MaxThinkingTime: 50,
		}).
		Timeout(timeout)
	if err := agent.Parse(); err != nil {
		return "", fmt.Errorf("%w: %v", ErrEngine, err)
	}

	code, body, errs := agent.Bytes()
	if len(errs) > 0 {
		return "", fmt.Errorf("%w: %v", ErrEngine, errors.Join(errs...))
	}
	if code != fiber.StatusOK {
		return "", fmt.Errorf("%w: status %d", ErrEngine, code)
	}

	var resp chessAPIResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", fmt.Errorf("%w: decode response: %v", ErrEngine, err)
	}
	if resp.Move == "" {
		return "", fmt.Errorf("%w: no move returned", ErrEngine)
	}

	return resp.Move, nil
}
