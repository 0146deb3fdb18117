package dispatch

import (
	"context"
	"errors"
	"fmt"
	"time"

	"aichess/internal/core"
	"aichess/internal/resolver"
	"aichess/internal/rules"

	"github.com/rs/zerolog"
)

const DefaultTurnTimeout = 30 * time.Second

var ErrNotAITurn = errors.New("not the AI's turn")

// Outcome is the state of one AI turn
type Outcome int

const (
	OutcomeIdle Outcome = iota
	OutcomeRequestSent
	OutcomeResolved
	OutcomeFallback
	OutcomeDead
)

func (o Outcome) String() string {
	switch o {
	case OutcomeIdle:
		return "idle"
	case OutcomeRequestSent:
		return "request_sent"
	case OutcomeResolved:
		return "resolved"
	case OutcomeFallback:
		return "fallback"
	case OutcomeDead:
		return "dead"
	default:
		return "unknown"
	}
}

// TurnInput is the position the AI must answer
type TurnInput struct {
	GameID   string
	Position rules.Position
	AIColor  core.Color
	Model    string
}

// TurnResult describes a finished turn. Position is the position after Move
// and is zero when the outcome is OutcomeDead.
type TurnResult struct {
	Outcome  Outcome
	Move     rules.LegalMove
	Position rules.Position
	RawText  string
	Stage    resolver.Stage
	Notice   string
	Cause    error
}

// Source reports how the move was chosen
func (r TurnResult) Source() core.MoveSource {
	if r.Outcome == OutcomeFallback {
		return core.SourceFallback
	}
	return core.SourceAI
}

type TurnOption func(*Turn)

func WithTimeout(d time.Duration) TurnOption {
	return func(t *Turn) {
		if d > 0 {
			t.timeout = d
		}
	}
}

func WithPicker(p resolver.Picker) TurnOption {
	return func(t *Turn) {
		if p != nil {
			t.pick = p
		}
	}
}

// Turn plays AI moves through a dispatcher
type Turn struct {
	dispatcher *Dispatcher
	timeout    time.Duration
	pick       resolver.Picker
	log        zerolog.Logger
}

func NewTurn(d *Dispatcher, log zerolog.Logger, opts ...TurnOption) *Turn {
	t := &Turn{
		dispatcher: d,
		timeout:    DefaultTurnTimeout,
		pick:       resolver.RandomPicker,
		log:        log,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

type response struct {
	text string
	err  error
}

// Play runs one AI turn. It returns an error only when the precondition
// fails or the rules engine rejects a move it listed as legal; upstream
// failures end in OutcomeFallback.
func (t *Turn) Play(ctx context.Context, in TurnInput) (TurnResult, error) {
	log := t.log.With().Str("game", in.GameID).Str("model", in.Model).Logger()

	if in.Position.Turn() != in.AIColor {
		log.Warn().
			Str("turn", in.Position.Turn().Name()).
			Str("ai", in.AIColor.Name()).
			Msg("AI turn requested out of turn")
		return TurnResult{Outcome: OutcomeIdle}, ErrNotAITurn
	}

	legal := in.Position.LegalMoves()
	if len(legal) == 0 {
		log.Info().Msg("no legal moves, nothing to request")
		return TurnResult{Outcome: OutcomeDead}, nil
	}

	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()

	done := make(chan response, 1)
	go func() {
		text, err := t.dispatcher.Request(ctx, in.Position, in.AIColor, in.Model)
		done <- response{text: text, err: err}
	}()

	var resp response
	select {
	case resp = <-done:
	case <-ctx.Done():
		resp = response{err: ctx.Err()}
	}

	if resp.err != nil {
		log.Warn().Err(resp.err).Msg("move request failed, falling back")
		return t.fallback(in.Position, legal, "", resp.err, fmt.Sprintf("AI Error: %s", describe(resp.err)))
	}

	res, err := resolver.ResolveMoves(resp.text, legal, func(cm rules.CoordMove) (rules.LegalMove, error) {
		lm, ok := in.Position.Find(cm)
		if !ok {
			return rules.LegalMove{}, rules.ErrIllegalMove
		}
		return lm, nil
	})
	if err != nil {
		log.Warn().Err(err).Str("text", resp.text).Msg("unresolvable move text, falling back")
		return t.fallback(in.Position, legal, resp.text, err, fmt.Sprintf("AI Error: %s", err))
	}

	next, err := in.Position.ApplyMove(res.Move)
	if err != nil {
		return TurnResult{}, fmt.Errorf("apply resolved move %s: %w", res.Move.UCI(), err)
	}

	log.Info().Str("move", res.Move.SAN).Str("stage", res.Stage.String()).Msg("AI move resolved")
	return TurnResult{
		Outcome:  OutcomeResolved,
		Move:     res.Move,
		Position: next,
		RawText:  resp.text,
		Stage:    res.Stage,
	}, nil
}

// Fallback plays a random legal move for in without asking the relay, for
// callers that gave up on a turn themselves
func (t *Turn) Fallback(in TurnInput, cause error) (TurnResult, error) {
	legal := in.Position.LegalMoves()
	if len(legal) == 0 {
		return TurnResult{Outcome: OutcomeDead}, nil
	}
	return t.fallback(in.Position, legal, "", cause, fmt.Sprintf("AI Error: %s", describe(cause)))
}

func (t *Turn) fallback(pos rules.Position, legal []rules.LegalMove, raw string, cause error, notice string) (TurnResult, error) {
	lm, err := resolver.Fallback(legal, t.pick)
	if err != nil {
		return TurnResult{}, err
	}

	next, err := pos.ApplyMove(lm)
	if err != nil {
		return TurnResult{}, fmt.Errorf("apply fallback move %s: %w", lm.UCI(), err)
	}

	return TurnResult{
		Outcome:  OutcomeFallback,
		Move:     lm,
		Position: next,
		RawText:  raw,
		Notice:   fmt.Sprintf("%s. AI played random move: %s", notice, lm.SAN),
		Cause:    cause,
	}, nil
}
