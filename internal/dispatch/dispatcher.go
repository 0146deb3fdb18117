// Package dispatch runs AI turns: it sends the position to a relay, resolves
// the returned text into a legal move and falls back to a random legal move
// when anything goes wrong.
package dispatch

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"aichess/internal/core"
	"aichess/internal/provider"
	"aichess/internal/rules"

	"github.com/rs/zerolog"
)

var ErrEngineSentinel = errors.New("engine reported an error")

// Dispatcher builds relay requests and drains the responses
type Dispatcher struct {
	relay Relay
	log   zerolog.Logger
}

func NewDispatcher(relay Relay, log zerolog.Logger) *Dispatcher {
	return &Dispatcher{relay: relay, log: log}
}

// BuildRequest describes pos for the relay. Legal moves are listed in SAN,
// in rules-engine order.
func BuildRequest(pos rules.Position, aiColor core.Color, model string) core.MoveRelayRequest {
	return core.MoveRelayRequest{
		LegalMoves:   rules.SANs(pos.LegalMoves()),
		CurrentBoard: pos.FEN(),
		Color:        aiColor.Name(),
		UserColor:    core.OppositeColor(aiColor).Name(),
		Model:        model,
	}
}

// Request sends the position and returns the complete response text
func (d *Dispatcher) Request(ctx context.Context, pos rules.Position, aiColor core.Color, model string) (string, error) {
	req := BuildRequest(pos, aiColor, model)

	d.log.Debug().
		Str("model", model).
		Str("fen", req.CurrentBoard).
		Int("legal", len(req.LegalMoves)).
		Msg("sending move request")

	text, err := d.relay.Send(ctx, req)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(text) == provider.EngineErrorSentinel {
		return "", ErrEngineSentinel
	}

	return text, nil
}

// describe renders a request failure for notices
func describe(err error) string {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return "request timed out"
	case errors.Is(err, ErrEngineSentinel):
		return "chess engine error"
	default:
		return fmt.Sprint(err)
	}
}
