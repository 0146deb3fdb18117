package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"aichess/internal/client/display"
	"aichess/internal/core"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/utils"
)

const (
	requestTimeout = 30 * time.Second
	// pollTimeout outlasts the server's long-poll window
	pollTimeout = 35 * time.Second
)

// APIError is a non-2xx answer from the server
type APIError struct {
	Status int
	core.ErrorResponse
}

func (e *APIError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("%s (%s): %s", e.ErrorResponse.Error, e.Code, e.Details)
	}
	if e.Code != "" {
		return fmt.Sprintf("%s (%s)", e.ErrorResponse.Error, e.Code)
	}
	return fmt.Sprintf("request failed with status %d", e.Status)
}

// IsCode reports whether err is an APIError carrying code
func IsCode(err error, code string) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Code == code
}

type Client struct {
	BaseURL string
	Verbose bool
	Out     io.Writer
}

func New(baseURL string) *Client {
	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		Out:     os.Stdout,
	}
}

func (c *Client) SetVerbose(v bool) {
	c.Verbose = v
}

// SetBaseURL updates the API base URL for the client
func (c *Client) SetBaseURL(url string) {
	c.BaseURL = strings.TrimRight(url, "/")
}

func (c *Client) agent(method, url string) *fiber.Agent {
	switch method {
	case fiber.MethodPost:
		return fiber.Post(url)
	case fiber.MethodPut:
		return fiber.Put(url)
	case fiber.MethodDelete:
		return fiber.Delete(url)
	default:
		return fiber.Get(url)
	}
}

func (c *Client) doRequest(method, path string, body, result any, timeout time.Duration) error {
	a := c.agent(method, c.BaseURL+path).Timeout(timeout)
	if body != nil {
		a.JSON(body)
	}

	if c.Verbose {
		fmt.Fprintf(c.Out, "%s[API] %s %s%s\n", display.Blue, method, path, display.Reset)
		if body != nil {
			pretty, _ := json.MarshalIndent(body, "", "  ")
			fmt.Fprintf(c.Out, "%sRequest Body:%s\n%s\n", display.Cyan, display.Reset, pretty)
		}
	}

	status, respBody, errs := a.Bytes()
	if len(errs) > 0 {
		return fmt.Errorf("%s %s: %w", method, path, errors.Join(errs...))
	}

	if c.Verbose {
		statusColor := display.Green
		if status >= 400 {
			statusColor = display.Red
		}
		fmt.Fprintf(c.Out, "%s[%d %s]%s\n", statusColor, status, utils.StatusMessage(status), display.Reset)
		if len(respBody) > 0 {
			fmt.Fprintf(c.Out, "%sResponse Body:%s\n%s\n", display.Cyan, display.Reset, respBody)
		}
	}

	if status >= 400 {
		apiErr := &APIError{Status: status}
		_ = json.Unmarshal(respBody, &apiErr.ErrorResponse)
		return apiErr
	}

	if result != nil && len(respBody) > 0 {
		if err := json.Unmarshal(respBody, result); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}
	return nil
}

// API Methods

func (c *Client) Health() (map[string]any, error) {
	var resp map[string]any
	err := c.doRequest(fiber.MethodGet, "/health", nil, &resp, requestTimeout)
	return resp, err
}

func (c *Client) Models() ([]core.ModelInfo, error) {
	var resp []core.ModelInfo
	err := c.doRequest(fiber.MethodGet, "/api/v1/models", nil, &resp, requestTimeout)
	return resp, err
}

func (c *Client) CreateGame(req core.CreateGameRequest) (*core.GameResponse, error) {
	var resp core.GameResponse
	err := c.doRequest(fiber.MethodPost, "/api/v1/games", req, &resp, requestTimeout)
	return &resp, err
}

func (c *Client) GetGame(gameID string) (*core.GameResponse, error) {
	var resp core.GameResponse
	err := c.doRequest(fiber.MethodGet, "/api/v1/games/"+gameID, nil, &resp, requestTimeout)
	return &resp, err
}

// GetGameWithPoll blocks until the game's move count differs from
// moveCount or the server's wait window closes
func (c *Client) GetGameWithPoll(gameID string, moveCount int) (*core.GameResponse, error) {
	var resp core.GameResponse
	path := fmt.Sprintf("/api/v1/games/%s?wait=true&moveCount=%d", gameID, moveCount)
	err := c.doRequest(fiber.MethodGet, path, nil, &resp, pollTimeout)
	return &resp, err
}

func (c *Client) ConfigureOpponent(gameID, model string) (*core.GameResponse, error) {
	var resp core.GameResponse
	req := core.ConfigureOpponentRequest{Model: model}
	err := c.doRequest(fiber.MethodPut, "/api/v1/games/"+gameID+"/opponent", req, &resp, requestTimeout)
	return &resp, err
}

func (c *Client) DeleteGame(gameID string) error {
	return c.doRequest(fiber.MethodDelete, "/api/v1/games/"+gameID, nil, nil, requestTimeout)
}

func (c *Client) MakeMove(gameID, move string) (*core.GameResponse, error) {
	var resp core.GameResponse
	req := core.MoveRequest{Move: move}
	err := c.doRequest(fiber.MethodPost, "/api/v1/games/"+gameID+"/moves", req, &resp, requestTimeout)
	return &resp, err
}

func (c *Client) UndoMoves(gameID string, count int) (*core.GameResponse, error) {
	var resp core.GameResponse
	req := core.UndoRequest{Count: count}
	err := c.doRequest(fiber.MethodPost, "/api/v1/games/"+gameID+"/undo", req, &resp, requestTimeout)
	return &resp, err
}

func (c *Client) GetBoard(gameID string) (*core.BoardResponse, error) {
	var resp core.BoardResponse
	err := c.doRequest(fiber.MethodGet, "/api/v1/games/"+gameID+"/board", nil, &resp, requestTimeout)
	return &resp, err
}

func (c *Client) GetPGN(gameID string) (*core.PGNResponse, error) {
	var resp core.PGNResponse
	err := c.doRequest(fiber.MethodGet, "/api/v1/games/"+gameID+"/pgn", nil, &resp, requestTimeout)
	return &resp, err
}
