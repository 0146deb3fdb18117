package dispatch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"aichess/internal/core"
	"aichess/internal/provider"
	"aichess/internal/resolver"
	"aichess/internal/rules"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type relayFunc func(ctx context.Context, req core.MoveRelayRequest) (string, error)

func (f relayFunc) Send(ctx context.Context, req core.MoveRelayRequest) (string, error) {
	return f(ctx, req)
}

func staticRelay(text string, err error) relayFunc {
	return func(context.Context, core.MoveRelayRequest) (string, error) { return text, err }
}

func firstPicker(int) int { return 0 }

func afterE4(t *testing.T) rules.Position {
	t.Helper()
	pos, _, err := rules.StartingPosition().ApplySAN("e4")
	require.NoError(t, err)
	return pos
}

func newTurn(relay Relay, opts ...TurnOption) *Turn {
	opts = append([]TurnOption{WithPicker(firstPicker)}, opts...)
	return NewTurn(NewDispatcher(relay, zerolog.Nop()), zerolog.Nop(), opts...)
}

func TestBuildRequest(t *testing.T) {
	pos := afterE4(t)
	req := BuildRequest(pos, core.ColorBlack, "llama3-70b-8192")

	assert.Equal(t, pos.FEN(), req.CurrentBoard)
	assert.Equal(t, "black", req.Color)
	assert.Equal(t, "white", req.UserColor)
	assert.Equal(t, "llama3-70b-8192", req.Model)
	assert.Len(t, req.LegalMoves, 20)
	assert.Contains(t, req.LegalMoves, "Nf6")
}

func TestPlayResolved(t *testing.T) {
	turn := newTurn(staticRelay("Move: e7e5", nil))

	res, err := turn.Play(context.Background(), TurnInput{Position: afterE4(t), AIColor: core.ColorBlack, Model: "m"})
	require.NoError(t, err)
	assert.Equal(t, OutcomeResolved, res.Outcome)
	assert.Equal(t, "e5", res.Move.SAN)
	assert.Equal(t, resolver.StageCoordinate, res.Stage)
	assert.Equal(t, core.SourceAI, res.Source())
	assert.Equal(t, core.ColorWhite, res.Position.Turn())
	assert.Empty(t, res.Notice)
}

func TestPlayResolvesSAN(t *testing.T) {
	turn := newTurn(staticRelay("Nf6", nil))

	res, err := turn.Play(context.Background(), TurnInput{Position: afterE4(t), AIColor: core.ColorBlack})
	require.NoError(t, err)
	assert.Equal(t, OutcomeResolved, res.Outcome)
	assert.Equal(t, "g8f6", res.Move.UCI())
}

func TestPlayFallsBackOnUnresolvableText(t *testing.T) {
	pos := afterE4(t)
	turn := newTurn(staticRelay("I think the best move is to develop", nil))

	res, err := turn.Play(context.Background(), TurnInput{Position: pos, AIColor: core.ColorBlack})
	require.NoError(t, err)
	assert.Equal(t, OutcomeFallback, res.Outcome)
	assert.Equal(t, pos.LegalMoves()[0].UCI(), res.Move.UCI())
	assert.Equal(t, "I think the best move is to develop", res.RawText)
	assert.Equal(t, core.SourceFallback, res.Source())
	assert.Contains(t, res.Notice, "AI played random move: "+res.Move.SAN)

	var rerr *resolver.ResolutionError
	assert.True(t, errors.As(res.Cause, &rerr))
}

func TestPlayFallsBackOnRelayFailure(t *testing.T) {
	tests := []struct {
		name  string
		relay Relay
	}{
		{"transport error", staticRelay("", errors.New("connection refused"))},
		{"engine sentinel", staticRelay("error", nil)},
		{"engine sentinel with newline", staticRelay("error\n", nil)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pos := afterE4(t)
			res, err := newTurn(tt.relay).Play(context.Background(), TurnInput{Position: pos, AIColor: core.ColorBlack})
			require.NoError(t, err)
			assert.Equal(t, OutcomeFallback, res.Outcome)
			assert.Empty(t, res.RawText)
			assert.Equal(t, resolver.StageNone, res.Stage)
			assert.Error(t, res.Cause)
			assert.Contains(t, res.Notice, "AI Error")
		})
	}
}

func TestPlayFallsBackOnHTTPStatus(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
		fmt.Fprint(w, "e7e5")
	}))
	defer srv.Close()

	res, err := newTurn(NewHTTPRelay(srv.URL)).Play(context.Background(), TurnInput{Position: afterE4(t), AIColor: core.ColorBlack})
	require.NoError(t, err)
	assert.Equal(t, int32(1), hits.Load())
	assert.Equal(t, OutcomeFallback, res.Outcome)
	assert.ErrorIs(t, res.Cause, ErrRelayStatus)
	// the body of a failed response is never resolved
	assert.Empty(t, res.RawText)
}

func TestPlayTimesOut(t *testing.T) {
	block := make(chan struct{})
	defer close(block)
	relay := relayFunc(func(context.Context, core.MoveRelayRequest) (string, error) {
		<-block
		return "e7e5", nil
	})

	start := time.Now()
	res, err := newTurn(relay, WithTimeout(50*time.Millisecond)).Play(context.Background(), TurnInput{Position: afterE4(t), AIColor: core.ColorBlack})
	require.NoError(t, err)
	assert.Less(t, time.Since(start), 5*time.Second)
	assert.Equal(t, OutcomeFallback, res.Outcome)
	assert.ErrorIs(t, res.Cause, context.DeadlineExceeded)
	assert.Contains(t, res.Notice, "timed out")
}

func TestPlayRejectsWrongSide(t *testing.T) {
	called := false
	relay := relayFunc(func(context.Context, core.MoveRelayRequest) (string, error) {
		called = true
		return "e2e4", nil
	})

	res, err := newTurn(relay).Play(context.Background(), TurnInput{Position: rules.StartingPosition(), AIColor: core.ColorBlack})
	assert.ErrorIs(t, err, ErrNotAITurn)
	assert.Equal(t, OutcomeIdle, res.Outcome)
	assert.False(t, called)
}

func TestPlayDeadPosition(t *testing.T) {
	pos := rules.StartingPosition()
	for _, san := range []string{"f3", "e5", "g4", "Qh4#"} {
		var err error
		pos, _, err = pos.ApplySAN(san)
		require.NoError(t, err)
	}

	called := false
	relay := relayFunc(func(context.Context, core.MoveRelayRequest) (string, error) {
		called = true
		return "", nil
	})

	res, err := newTurn(relay).Play(context.Background(), TurnInput{Position: pos, AIColor: core.ColorWhite})
	require.NoError(t, err)
	assert.Equal(t, OutcomeDead, res.Outcome)
	assert.True(t, res.Position.IsZero())
	assert.False(t, called)
}

func TestHTTPRelayReturnsBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		assert.Contains(t, string(body), `"legalMoves"`)
		assert.Contains(t, string(body), `"currentBoard"`)
		w.Header().Set("Content-Type", "text/plain")
		fmt.Fprint(w, "Black plays: e7e5")
	}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	text, err := NewHTTPRelay(srv.URL).Send(ctx, BuildRequest(afterE4(t), core.ColorBlack, "m"))
	require.NoError(t, err)
	assert.Equal(t, "Black plays: e7e5", text)
}

func TestLocalRelayMapsEngineError(t *testing.T) {
	router := provider.NewRouter(zerolog.Nop())

	_, err := NewLocalRelay(router).Send(context.Background(), core.MoveRelayRequest{Model: "stockfish-17"})
	assert.ErrorIs(t, err, provider.ErrProviderUnavailable)
}

func TestFallbackWithoutRequest(t *testing.T) {
	called := false
	relay := relayFunc(func(context.Context, core.MoveRelayRequest) (string, error) {
		called = true
		return "", nil
	})

	res, err := newTurn(relay).Fallback(TurnInput{Position: afterE4(t), AIColor: core.ColorBlack}, context.DeadlineExceeded)
	require.NoError(t, err)
	assert.False(t, called)
	assert.Equal(t, OutcomeFallback, res.Outcome)
	assert.Equal(t, "AI Error: request timed out. AI played random move: "+res.Move.SAN, res.Notice)
}
