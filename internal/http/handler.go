package http

import (
	"strconv"
	"time"

	"aichess/internal/core"
	"aichess/internal/processor"
	"aichess/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/rs/zerolog"
)

const rateLimitRate = 10 // req/sec

type HTTPHandler struct {
	proc *processor.Processor
	svc  *service.Service
	log  zerolog.Logger
}

func NewHTTPHandler(proc *processor.Processor, svc *service.Service, log zerolog.Logger) *HTTPHandler {
	return &HTTPHandler{proc: proc, svc: svc, log: log}
}

func NewFiberApp(proc *processor.Processor, svc *service.Service, devMode bool, log zerolog.Logger) *fiber.App {
	h := NewHTTPHandler(proc, svc, log)

	app := fiber.New(fiber.Config{
		ErrorHandler: customErrorHandler,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: service.WaitTimeout + 5*time.Second, // long-poll
		IdleTimeout:  30 * time.Second,
	})

	// Global middleware (order matters)
	app.Use(recover.New())
	app.Use(logger.New(logger.Config{
		Format: "${time} ${status} ${method} ${path} ${latency}\n",
		Output: log,
	}))
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,PUT,DELETE,OPTIONS",
		AllowHeaders: "Origin,Content-Type,Accept",
	}))

	// Health check (no rate limit)
	app.Get("/health", h.Health)

	api := app.Group("/api/v1")

	maxReq := rateLimitRate
	if devMode {
		maxReq = rateLimitRate * 2
	}
	api.Use(limiter.New(limiter.Config{
		Max:          maxReq,
		Expiration:   1 * time.Second,
		KeyGenerator: clientKey,
		LimitReached: rateLimitReached(maxReq),
	}))

	api.Use(contentTypeValidator)
	api.Use(validationMiddleware)

	api.Get("/models", h.ListModels)
	api.Post("/move", h.RelayMove)

	api.Post("/games", h.CreateGame)
	api.Get("/games/:gameId", h.GetGame)
	api.Put("/games/:gameId/opponent", h.ConfigureOpponent)
	api.Post("/games/:gameId/moves", h.MakeMove)
	api.Post("/games/:gameId/undo", h.UndoMove)
	api.Delete("/games/:gameId", h.DeleteGame)
	api.Get("/games/:gameId/board", h.GetBoard)
	api.Get("/games/:gameId/pgn", h.GetPGN)

	return app
}

// Health check endpoint
func (h *HTTPHandler) Health(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status":  "healthy",
		"time":    time.Now().Unix(),
		"storage": h.svc.GetStorageHealth(),
	})
}

// ListModels returns the selectable AI opponents
func (h *HTTPHandler) ListModels(c *fiber.Ctx) error {
	resp := h.proc.Execute(processor.NewListModelsCommand())
	return c.JSON(resp.Data)
}

// RelayMove forwards a raw move request to the selected provider and
// answers with the provider's text as text/plain
func (h *HTTPHandler) RelayMove(c *fiber.Ctx) error {
	req, err := validatedBody[core.MoveRelayRequest](c)
	if err != nil {
		return err
	}

	resp := h.proc.Execute(processor.NewRelayMoveCommand(*req))
	if !resp.Success {
		status := fiber.StatusBadGateway
		if resp.Error.Code == core.ErrInvalidRequest {
			status = fiber.StatusBadRequest
		}
		return c.Status(status).JSON(resp.Error)
	}

	c.Set(fiber.HeaderContentType, fiber.MIMETextPlainCharsetUTF8)
	return c.SendString(resp.Data.(string))
}

// CreateGame starts a game against the AI
func (h *HTTPHandler) CreateGame(c *fiber.Ctx) error {
	req, err := validatedBody[core.CreateGameRequest](c)
	if err != nil {
		return err
	}

	resp := h.proc.Execute(processor.NewCreateGameCommand(*req))
	if !resp.Success {
		return c.Status(statusFor(resp.Error.Code)).JSON(resp.Error)
	}

	return c.Status(fiber.StatusCreated).JSON(resp.Data)
}

// ConfigureOpponent changes the AI model mid-game
func (h *HTTPHandler) ConfigureOpponent(c *fiber.Ctx) error {
	gameID, err := gameIDParam(c)
	if err != nil {
		return err
	}
	req, err := validatedBody[core.ConfigureOpponentRequest](c)
	if err != nil {
		return err
	}

	return h.respond(c, processor.NewConfigureOpponentCommand(gameID, *req))
}

// GetGame retrieves current game state. With wait=true it long-polls until
// the move count differs from moveCount.
func (h *HTTPHandler) GetGame(c *fiber.Ctx) error {
	gameID, err := gameIDParam(c)
	if err != nil {
		return err
	}

	if c.Query("wait", "false") == "true" {
		moveCount, err := strconv.Atoi(c.Query("moveCount", "-1"))
		if err != nil {
			moveCount = -1
		}

		if err := h.svc.WaitForChange(c.Context(), gameID, moveCount); err != nil {
			return c.Status(fiber.StatusNotFound).JSON(core.ErrorResponse{
				Error: "game not found",
				Code:  core.ErrGameNotFound,
			})
		}
	}

	return h.respond(c, processor.NewGetGameCommand(gameID))
}

// MakeMove submits a human move
func (h *HTTPHandler) MakeMove(c *fiber.Ctx) error {
	gameID, err := gameIDParam(c)
	if err != nil {
		return err
	}
	req, err := validatedBody[core.MoveRequest](c)
	if err != nil {
		return err
	}

	return h.respond(c, processor.NewMakeMoveCommand(gameID, *req))
}

// UndoMove undoes one or more moves
func (h *HTTPHandler) UndoMove(c *fiber.Ctx) error {
	gameID, err := gameIDParam(c)
	if err != nil {
		return err
	}
	req, err := validatedBody[core.UndoRequest](c)
	if err != nil {
		return err
	}

	return h.respond(c, processor.NewUndoMoveCommand(gameID, *req))
}

// DeleteGame ends and cleans up a game
func (h *HTTPHandler) DeleteGame(c *fiber.Ctx) error {
	gameID, err := gameIDParam(c)
	if err != nil {
		return err
	}

	resp := h.proc.Execute(processor.NewDeleteGameCommand(gameID))
	if !resp.Success {
		return c.Status(statusFor(resp.Error.Code)).JSON(resp.Error)
	}

	return c.SendStatus(fiber.StatusNoContent)
}

// GetBoard returns ASCII representation of the board
func (h *HTTPHandler) GetBoard(c *fiber.Ctx) error {
	gameID, err := gameIDParam(c)
	if err != nil {
		return err
	}

	return h.respond(c, processor.NewGetBoardCommand(gameID))
}

// GetPGN exports the game in PGN
func (h *HTTPHandler) GetPGN(c *fiber.Ctx) error {
	gameID, err := gameIDParam(c)
	if err != nil {
		return err
	}

	return h.respond(c, processor.NewGetPGNCommand(gameID))
}

// respond executes cmd and writes its data or error
func (h *HTTPHandler) respond(c *fiber.Ctx, cmd processor.Command) error {
	resp := h.proc.Execute(cmd)
	if !resp.Success {
		return c.Status(statusFor(resp.Error.Code)).JSON(resp.Error)
	}
	return c.JSON(resp.Data)
}

// statusFor maps error codes onto HTTP status
func statusFor(code string) int {
	switch code {
	case core.ErrGameNotFound:
		return fiber.StatusNotFound
	case core.ErrAIPending:
		return fiber.StatusConflict
	case core.ErrInternalError:
		return fiber.StatusInternalServerError
	case core.ErrUpstream:
		return fiber.StatusBadGateway
	default:
		return fiber.StatusBadRequest
	}
}
