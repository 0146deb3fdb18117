package processor

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"aichess/internal/core"
	"aichess/internal/dispatch"
	"aichess/internal/game"
	"aichess/internal/provider"
	"aichess/internal/rules"
	"aichess/internal/service"

	"github.com/rs/zerolog"
)

// Options tune the processor
type Options struct {
	Workers      int
	TurnTimeout  time.Duration
	DefaultModel string
}

// Processor handles command execution and coordinates the service with
// the AI turn queue
type Processor struct {
	svc          *service.Service
	turn         *dispatch.Turn
	queue        *TurnQueue
	router       *provider.Router
	defaultModel string
	turnTimeout  time.Duration
	log          zerolog.Logger
}

// New creates a processor. router serves the relay and catalog commands and
// may differ from the relay behind turn.
func New(svc *service.Service, turn *dispatch.Turn, router *provider.Router, opts Options, log zerolog.Logger) *Processor {
	if opts.TurnTimeout <= 0 {
		opts.TurnTimeout = dispatch.DefaultTurnTimeout
	}
	if opts.DefaultModel == "" {
		opts.DefaultModel = provider.DefaultModel
	}

	log = log.With().Str("component", "processor").Logger()
	return &Processor{
		svc:          svc,
		turn:         turn,
		queue:        NewTurnQueue(turn, opts.Workers, opts.TurnTimeout+5*time.Second, log),
		router:       router,
		defaultModel: opts.DefaultModel,
		turnTimeout:  opts.TurnTimeout,
		log:          log,
	}
}

func (p *Processor) Execute(cmd Command) ProcessorResponse {
	switch cmd.Type {
	case CmdCreateGame:
		return p.handleCreateGame(cmd)
	case CmdConfigureOpponent:
		return p.handleConfigureOpponent(cmd)
	case CmdGetGame:
		return p.handleGetGame(cmd)
	case CmdMakeMove:
		return p.handleMakeMove(cmd)
	case CmdUndoMove:
		return p.handleUndoMove(cmd)
	case CmdDeleteGame:
		return p.handleDeleteGame(cmd)
	case CmdGetBoard:
		return p.handleGetBoard(cmd)
	case CmdGetPGN:
		return p.handleGetPGN(cmd)
	case CmdListModels:
		return ProcessorResponse{Success: true, Data: p.router.Catalog()}
	case CmdRelayMove:
		return p.handleRelayMove(cmd)
	default:
		return p.errorResponse("unknown command", core.ErrInvalidRequest)
	}
}

// handleCreateGame creates a new game and starts the AI turn when the AI
// has the first move
func (p *Processor) handleCreateGame(cmd Command) ProcessorResponse {
	args, ok := cmd.Args.(core.CreateGameRequest)
	if !ok {
		return p.errorResponse("invalid arguments", core.ErrInvalidRequest)
	}

	humanColor, ok := core.ParseColor(args.HumanColor)
	if !ok {
		return p.errorResponse("humanColor must be white or black", core.ErrInvalidRequest)
	}

	initial, err := rules.NewPosition(args.FEN)
	if err != nil {
		return p.errorResponse(err.Error(), core.ErrInvalidFEN)
	}

	model := strings.TrimSpace(args.Model)
	if model == "" {
		model = p.defaultModel
	}

	human := core.NewHumanPlayer(args.PlayerName, humanColor)
	ai := core.NewAIPlayer(model, core.OppositeColor(humanColor))

	gameID := p.svc.GenerateGameID()
	v, err := p.svc.CreateGame(gameID, initial, human, ai)
	if err != nil {
		return p.errorResponse(fmt.Sprintf("failed to create game: %v", err), core.ErrInternalError)
	}

	p.log.Info().Str("game", gameID).Str("model", model).Str("human", humanColor.Name()).Msg("game created")

	pending := false
	if v.IsAITurn() && !v.State.IsOver() {
		if started, ok := p.triggerAITurn(gameID); ok {
			v, pending = started, true
		}
	}

	return ProcessorResponse{
		Success: true,
		Pending: pending,
		Data:    v.Response(),
	}
}

// handleConfigureOpponent switches the AI model mid-game
func (p *Processor) handleConfigureOpponent(cmd Command) ProcessorResponse {
	args, ok := cmd.Args.(core.ConfigureOpponentRequest)
	if !ok {
		return p.errorResponse("invalid arguments", core.ErrInvalidRequest)
	}

	v, err := p.svc.SetModel(cmd.GameID, strings.TrimSpace(args.Model))
	if err != nil {
		return p.serviceError(err, core.ErrInternalError)
	}

	return ProcessorResponse{
		Success: true,
		Data:    v.Response(),
	}
}

func (p *Processor) handleGetGame(cmd Command) ProcessorResponse {
	v, err := p.svc.GetGame(cmd.GameID)
	if err != nil {
		return p.serviceError(err, core.ErrGameNotFound)
	}

	return ProcessorResponse{
		Success: true,
		Pending: v.State == core.StatePending,
		Data:    v.Response(),
	}
}

// handleMakeMove applies a human move and hands the turn to the AI
func (p *Processor) handleMakeMove(cmd Command) ProcessorResponse {
	args, ok := cmd.Args.(core.MoveRequest)
	if !ok {
		return p.errorResponse("invalid arguments", core.ErrInvalidRequest)
	}

	v, err := p.svc.ApplyHumanMove(cmd.GameID, args.Move)
	if err != nil {
		return p.serviceError(err, core.ErrInternalError)
	}

	pending := false
	if v.IsAITurn() && !v.State.IsOver() {
		if started, ok := p.triggerAITurn(cmd.GameID); ok {
			v, pending = started, true
		}
	}

	return ProcessorResponse{
		Success: true,
		Pending: pending,
		Data:    v.Response(),
	}
}

// handleUndoMove reverts moves; if that leaves the AI to move, it plays again
func (p *Processor) handleUndoMove(cmd Command) ProcessorResponse {
	args := core.UndoRequest{Count: 1}
	if req, ok := cmd.Args.(core.UndoRequest); ok {
		args = req
	}

	v, err := p.svc.UndoMoves(cmd.GameID, args.Count)
	if err != nil {
		return p.serviceError(err, core.ErrInvalidRequest)
	}

	pending := false
	if v.IsAITurn() && !v.State.IsOver() {
		if started, ok := p.triggerAITurn(cmd.GameID); ok {
			v, pending = started, true
		}
	}

	return ProcessorResponse{
		Success: true,
		Pending: pending,
		Data:    v.Response(),
	}
}

func (p *Processor) handleDeleteGame(cmd Command) ProcessorResponse {
	if err := p.svc.DeleteGame(cmd.GameID); err != nil {
		return p.serviceError(err, core.ErrGameNotFound)
	}

	return ProcessorResponse{
		Success: true,
	}
}

// handleGetBoard returns board visualization
func (p *Processor) handleGetBoard(cmd Command) ProcessorResponse {
	v, err := p.svc.GetGame(cmd.GameID)
	if err != nil {
		return p.serviceError(err, core.ErrGameNotFound)
	}

	return ProcessorResponse{
		Success: true,
		Data: core.BoardResponse{
			FEN:   v.Position.FEN(),
			Board: v.Position.Board(),
		},
	}
}

func (p *Processor) handleGetPGN(cmd Command) ProcessorResponse {
	v, err := p.svc.GetGame(cmd.GameID)
	if err != nil {
		return p.serviceError(err, core.ErrGameNotFound)
	}

	return ProcessorResponse{
		Success: true,
		Data:    core.PGNResponse{PGN: v.Position.PGN()},
	}
}

// handleRelayMove answers a raw relay request with the provider's text.
// Engine failures answer with the sentinel body, as the relay contract
// expects; other upstream failures are errors.
func (p *Processor) handleRelayMove(cmd Command) ProcessorResponse {
	args, ok := cmd.Args.(core.MoveRelayRequest)
	if !ok {
		return p.errorResponse("invalid arguments", core.ErrInvalidRequest)
	}

	ctx, cancel := context.WithTimeout(context.Background(), p.turnTimeout)
	defer cancel()

	text, err := p.router.RequestMove(ctx, args)
	switch {
	case errors.Is(err, provider.ErrEngine):
		return ProcessorResponse{Success: true, Data: provider.EngineErrorSentinel}
	case errors.Is(err, provider.ErrProviderUnavailable):
		return p.errorResponse(err.Error(), core.ErrInvalidRequest)
	case err != nil:
		return ProcessorResponse{
			Success: false,
			Error: &core.ErrorResponse{
				Error:   "failed to get AI move",
				Code:    core.ErrUpstream,
				Details: err.Error(),
			},
		}
	}

	return ProcessorResponse{Success: true, Data: text}
}

// triggerAITurn marks the game pending and queues the turn. It reports the
// pending view, or false if the turn could not start.
func (p *Processor) triggerAITurn(gameID string) (game.View, bool) {
	v, err := p.svc.BeginAITurn(gameID)
	if err != nil {
		p.log.Warn().Err(err).Str("game", gameID).Msg("AI turn not started")
		return game.View{}, false
	}

	in := dispatch.TurnInput{
		GameID:   gameID,
		Position: v.Position,
		AIColor:  v.AIColor(),
		Model:    v.Model,
	}
	moveCount := v.MoveCount()

	err = p.queue.SubmitAsync(in, func(outcome TurnOutcome) {
		p.completeAITurn(in, moveCount, outcome)
	})
	if err != nil {
		p.log.Error().Err(err).Str("game", gameID).Msg("AI turn not queued")
		p.svc.AbortAITurn(gameID, moveCount)
		return game.View{}, false
	}

	return v, true
}

// completeAITurn applies a finished turn if the game has not moved on
func (p *Processor) completeAITurn(in dispatch.TurnInput, moveCount int, outcome TurnOutcome) {
	log := p.log.With().Str("game", in.GameID).Str("model", in.Model).Logger()

	res, err := outcome.Result, outcome.Error
	if errors.Is(err, ErrTurnStuck) {
		log.Error().Msg("AI turn stuck, playing fallback move")
		res, err = p.turn.Fallback(in, err)
	}
	if err != nil {
		log.Error().Err(err).Msg("AI turn failed")
		p.svc.AbortAITurn(in.GameID, moveCount)
		return
	}

	if res.Outcome == dispatch.OutcomeDead {
		p.svc.AbortAITurn(in.GameID, moveCount)
		return
	}

	result := game.MoveResult{
		Move:    res.Move,
		Player:  in.AIColor,
		Source:  res.Source(),
		Notice:  res.Notice,
		RawText: res.RawText,
	}
	if res.Outcome == dispatch.OutcomeResolved {
		result.Stage = res.Stage.String()
	}

	if _, err := p.svc.CompleteAITurn(in.GameID, moveCount, res.Position, result); err != nil {
		log.Debug().Err(err).Msg("AI move discarded")
		return
	}

	if res.Outcome == dispatch.OutcomeFallback {
		log.Warn().Str("move", res.Move.SAN).Str("notice", res.Notice).Msg("AI fallback move applied")
	}
}

// serviceError maps service and rules errors onto API error codes
func (p *Processor) serviceError(err error, fallbackCode string) ProcessorResponse {
	switch {
	case errors.Is(err, service.ErrGameNotFound):
		return p.errorResponse("game not found", core.ErrGameNotFound)
	case errors.Is(err, service.ErrAIPending):
		return p.errorResponse("AI move in progress", core.ErrAIPending)
	case errors.Is(err, service.ErrGameOver):
		return p.errorResponse(err.Error(), core.ErrGameOver)
	case errors.Is(err, service.ErrNotHumanTurn):
		return p.errorResponse("not human player's turn", core.ErrNotHumanTurn)
	case errors.Is(err, rules.ErrIllegalMove):
		return ProcessorResponse{
			Error: &core.ErrorResponse{
				Error:   "illegal move",
				Code:    core.ErrInvalidMove,
				Details: err.Error(),
			},
		}
	default:
		return p.errorResponse(err.Error(), fallbackCode)
	}
}

// errorResponse creates error response
func (p *Processor) errorResponse(message, code string) ProcessorResponse {
	return ProcessorResponse{
		Success: false,
		Error: &core.ErrorResponse{
			Error: message,
			Code:  code,
		},
	}
}

// Close stops the AI turn workers
func (p *Processor) Close() error {
	return p.queue.Shutdown(5 * time.Second)
}
