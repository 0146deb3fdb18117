package provider

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os/exec"
	"strings"
	"testing"
	"time"

	"aichess/internal/core"
	"aichess/internal/rules"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeProvider struct {
	text string
	err  error
	got  []Selection
}

func (f *fakeProvider) RequestMove(_ context.Context, sel Selection, _ core.MoveRelayRequest) (string, error) {
	f.got = append(f.got, sel)
	return f.text, f.err
}

func TestParseSelector(t *testing.T) {
	tests := []struct {
		model string
		want  Selection
	}{
		{"stockfish-17-depth-18", Selection{Kind: KindChessAPI, Model: "stockfish-17-depth-18", Depth: 18}},
		{"stockfish-17", Selection{Kind: KindChessAPI, Model: "stockfish-17", Depth: DefaultDepth}},
		{"stockfish-17-depth-0", Selection{Kind: KindChessAPI, Model: "stockfish-17-depth-0", Depth: DefaultDepth}},
		{"uci-stockfish-depth-4", Selection{Kind: KindLocalEngine, Model: "uci-stockfish-depth-4", Depth: 4}},
		{"gemini-1.5-flash", Selection{Kind: KindGoogle, Model: "gemini-1.5-flash"}},
		{"mixtral-8x7b-32768", Selection{Kind: KindGroq, Model: "mixtral-8x7b-32768"}},
		{"", Selection{Kind: KindGroq, Model: DefaultModel}},
	}
	for _, tt := range tests {
		t.Run(tt.model, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseSelector(tt.model))
		})
	}
}

func TestRouterRoutesByModel(t *testing.T) {
	groq := &fakeProvider{text: "e7e5"}
	engine := &fakeProvider{text: "g8f6"}
	r := NewRouter(zerolog.Nop()).
		Register(KindGroq, groq).
		Register(KindChessAPI, engine)

	text, err := r.RequestMove(context.Background(), core.MoveRelayRequest{Model: "llama3-70b-8192"})
	require.NoError(t, err)
	assert.Equal(t, "e7e5", text)

	text, err = r.RequestMove(context.Background(), core.MoveRelayRequest{Model: "stockfish-17-depth-8"})
	require.NoError(t, err)
	assert.Equal(t, "g8f6", text)
	require.Len(t, engine.got, 1)
	assert.Equal(t, 8, engine.got[0].Depth)

	_, err = r.RequestMove(context.Background(), core.MoveRelayRequest{Model: "gemini-1.5-pro"})
	assert.ErrorIs(t, err, ErrProviderUnavailable)
}

func TestRouterPassesErrorsThrough(t *testing.T) {
	r := NewRouter(zerolog.Nop()).Register(KindChessAPI, &fakeProvider{err: fmt.Errorf("%w: boom", ErrEngine)})

	_, err := r.RequestMove(context.Background(), core.MoveRelayRequest{Model: "stockfish-17"})
	assert.ErrorIs(t, err, ErrEngine)
}

func TestRouterIgnoresNilProvider(t *testing.T) {
	r := NewRouter(zerolog.Nop()).
		Register(KindGoogle, NewLLM("", GoogleBaseURL, time.Second)).
		Register(KindGroq, NewLLM("", GroqBaseURL, time.Second)).
		Register(KindLocalEngine, NewLocalEngine("", nil, zerolog.Nop())).
		Register(KindChessAPI, nil)
	assert.False(t, r.Has(KindGoogle))
	assert.False(t, r.Has(KindGroq))
	assert.False(t, r.Has(KindLocalEngine))
	assert.False(t, r.Has(KindChessAPI))
	assert.Empty(t, r.Catalog())

	for _, model := range []string{"llama-3.3-70b-versatile", "gemini-1.5-flash", "uci-stockfish-depth-12"} {
		assert.NotPanics(t, func() {
			_, err := r.RequestMove(context.Background(), core.MoveRelayRequest{Model: model})
			assert.ErrorIs(t, err, ErrProviderUnavailable, model)
		})
	}
}

func TestNilProvidersRefuseRequests(t *testing.T) {
	var llm *LLM
	_, err := llm.RequestMove(context.Background(), Selection{Kind: KindGroq}, core.MoveRelayRequest{})
	assert.ErrorIs(t, err, ErrProviderUnavailable)

	var engine *LocalEngine
	_, err = engine.RequestMove(context.Background(), Selection{Kind: KindLocalEngine}, core.MoveRelayRequest{})
	assert.ErrorIs(t, err, ErrProviderUnavailable)
	assert.NotPanics(t, engine.Close)
}

func TestCatalogListsConfiguredProviders(t *testing.T) {
	r := NewRouter(zerolog.Nop()).Register(KindGoogle, &fakeProvider{})

	models := r.Catalog()
	require.Len(t, models, 2)
	for _, m := range models {
		assert.Equal(t, "Google", m.Provider)
	}
}

func TestPromptListsLegalMoves(t *testing.T) {
	p := buildPrompt(core.MoveRelayRequest{
		LegalMoves:   []string{"e7e5", "g8f6"},
		CurrentBoard: rules.StartingFEN,
		Color:        "black",
		UserColor:    "white",
	})

	assert.Contains(t, p, "playing as black")
	assert.Contains(t, p, "The user is playing as white")
	assert.Contains(t, p, "e7e5, g8f6")
	assert.Contains(t, p, rules.StartingFEN)
}

func sseServer(t *testing.T, chunks []string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.True(t, strings.HasSuffix(r.URL.Path, "/chat/completions"))
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		w.Header().Set("Content-Type", "text/event-stream")
		for _, c := range chunks {
			payload, _ := json.Marshal(map[string]any{
				"id":      "chatcmpl-1",
				"object":  "chat.completion.chunk",
				"created": 1,
				"model":   "test",
				"choices": []map[string]any{{"index": 0, "delta": map[string]string{"content": c}}},
			})
			fmt.Fprintf(w, "data: %s\n\n", payload)
		}
		fmt.Fprint(w, "data: [DONE]\n\n")
	}))
}

func TestLLMDrainsStream(t *testing.T) {
	srv := sseServer(t, []string{"Move: ", "e7", "e5"})
	defer srv.Close()

	llm := NewLLM("test-key", srv.URL, 5*time.Second)
	text, err := llm.RequestMove(context.Background(), ParseSelector("llama-3.3-70b-versatile"), core.MoveRelayRequest{
		LegalMoves: []string{"e7e5"},
		Color:      "black",
		UserColor:  "white",
	})
	require.NoError(t, err)
	assert.Equal(t, "Move: e7e5", text)
}

func TestLLMUpstreamFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	llm := NewLLM("test-key", srv.URL, 5*time.Second)
	_, err := llm.RequestMove(context.Background(), ParseSelector("gemini-1.5-pro"), core.MoveRelayRequest{})
	assert.Error(t, err)
}

func TestChessAPIReturnsMove(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		var req chessAPIRequest
		assert.NoError(t, json.Unmarshal(body, &req))
		assert.Equal(t, 18, req.Depth)
		assert.Equal(t, 1, req.Variants)
		assert.Equal(t, rules.StartingFEN, req.FEN)

		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"move":"e2e4","san":"e4","text":"Move e2 to e4"}`)
	}))
	defer srv.Close()

	api := NewChessAPI(srv.URL)
	text, err := api.RequestMove(context.Background(), ParseSelector("stockfish-17-depth-18"), core.MoveRelayRequest{CurrentBoard: rules.StartingFEN})
	require.NoError(t, err)
	assert.Equal(t, "e2e4", text)
}

func TestChessAPIFailuresAreEngineErrors(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		payload string
	}{
		{"server error", http.StatusInternalServerError, `{}`},
		{"missing move", http.StatusOK, `{"text":"no move"}`},
		{"garbage", http.StatusOK, `not json`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				fmt.Fprint(w, tt.payload)
			}))
			defer srv.Close()

			_, err := NewChessAPI(srv.URL).RequestMove(context.Background(), ParseSelector("stockfish-17"), core.MoveRelayRequest{})
			assert.True(t, errors.Is(err, ErrEngine), "got %v", err)
		})
	}
}

func TestLocalEngine(t *testing.T) {
	path, err := exec.LookPath("stockfish")
	if err != nil {
		t.Skip("stockfish not installed")
	}

	eng := NewLocalEngine(path, nil, zerolog.Nop())
	defer eng.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()

	text, err := eng.RequestMove(ctx, ParseSelector("uci-stockfish-depth-6"), core.MoveRelayRequest{CurrentBoard: rules.StartingFEN})
	require.NoError(t, err)

	pos := rules.StartingPosition()
	coord, ok := rules.ParseCoord(text)
	require.True(t, ok, text)
	_, found := pos.Find(coord)
	assert.True(t, found)
}
