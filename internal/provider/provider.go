// Package provider talks to the hosted services that produce AI moves:
// OpenAI-compatible language model endpoints and chess engines.
package provider

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"aichess/internal/core"

	"github.com/rs/zerolog"
)

const (
	EnginePrefix      = "stockfish-17"
	LocalEnginePrefix = "uci-"
	GooglePrefix      = "gemini"
	DefaultDepth      = 12
	DefaultModel      = "llama-3.3-70b-versatile"
)

var (
	// ErrEngine is an upstream chess engine failure; the relay reports it
	// with the EngineErrorSentinel body
	ErrEngine              = errors.New("chess engine error")
	ErrProviderUnavailable = errors.New("provider not configured")
)

// EngineErrorSentinel is the plain-text relay body signalling an engine error
const EngineErrorSentinel = "error"

var depthPattern = regexp.MustCompile(`depth-(\d+)`)

// Kind is the family of service a model selector routes to
type Kind int

const (
	KindGroq Kind = iota
	KindGoogle
	KindChessAPI
	KindLocalEngine
)

func (k Kind) String() string {
	switch k {
	case KindGoogle:
		return "google"
	case KindChessAPI:
		return "chess-api"
	case KindLocalEngine:
		return "uci"
	default:
		return "groq"
	}
}

// IsEngine reports whether the selection routes to a chess engine
func (k Kind) IsEngine() bool {
	return k == KindChessAPI || k == KindLocalEngine
}

// Selection is a parsed model selector
type Selection struct {
	Kind  Kind
	Model string
	Depth int // engines only
}

// ParseSelector interprets a model identifier. Engine selectors embed their
// search depth ("stockfish-17-depth-18"); everything that is not an engine
// or a Gemini model goes to Groq.
func ParseSelector(model string) Selection {
	model = strings.TrimSpace(model)
	if model == "" {
		model = DefaultModel
	}

	switch {
	case strings.HasPrefix(model, EnginePrefix):
		return Selection{Kind: KindChessAPI, Model: model, Depth: parseDepth(model)}
	case strings.HasPrefix(model, LocalEnginePrefix):
		return Selection{Kind: KindLocalEngine, Model: model, Depth: parseDepth(model)}
	case strings.HasPrefix(model, GooglePrefix):
		return Selection{Kind: KindGoogle, Model: model}
	default:
		return Selection{Kind: KindGroq, Model: model}
	}
}

func parseDepth(model string) int {
	m := depthPattern.FindStringSubmatch(model)
	if m == nil {
		return DefaultDepth
	}
	depth, err := strconv.Atoi(m[1])
	if err != nil || depth < 1 {
		return DefaultDepth
	}
	return depth
}

// Provider produces raw move text for one AI turn
type Provider interface {
	RequestMove(ctx context.Context, sel Selection, req core.MoveRelayRequest) (string, error)
}

// Router dispatches a relay request to the provider its model selects
type Router struct {
	providers map[Kind]Provider
	log       zerolog.Logger
}

func NewRouter(log zerolog.Logger) *Router {
	return &Router{
		providers: make(map[Kind]Provider),
		log:       log,
	}
}

// Register installs p for a selector family. Nil providers are ignored,
// including the nil *LLM and *LocalEngine returned for missing credentials.
func (r *Router) Register(kind Kind, p Provider) *Router {
	if p == nil {
		return r
	}
	if c, ok := p.(interface{ configured() bool }); ok && !c.configured() {
		return r
	}
	r.providers[kind] = p
	return r
}

// Has reports whether a provider is configured for kind
func (r *Router) Has(kind Kind) bool {
	_, ok := r.providers[kind]
	return ok
}

// RequestMove forwards req to the provider selected by req.Model and
// returns the raw response text verbatim
func (r *Router) RequestMove(ctx context.Context, req core.MoveRelayRequest) (string, error) {
	sel := ParseSelector(req.Model)
	p, ok := r.providers[sel.Kind]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrProviderUnavailable, sel.Kind)
	}

	text, err := p.RequestMove(ctx, sel, req)
	if err != nil {
		r.log.Warn().Err(err).Str("model", sel.Model).Str("provider", sel.Kind.String()).Msg("move request failed")
		return "", err
	}

	r.log.Debug().Str("model", sel.Model).Str("text", text).Msg("move response")
	return text, nil
}

// Catalog lists the selectable models whose provider is configured
func (r *Router) Catalog() []core.ModelInfo {
	var out []core.ModelInfo
	for _, m := range catalog {
		if r.Has(ParseSelector(m.ID).Kind) {
			out = append(out, m)
		}
	}
	return out
}

var catalog = []core.ModelInfo{
	{ID: "llama-3.3-70b-versatile", Name: "Llama 3.3 70B", Provider: "Groq", Description: "Most advanced"},
	{ID: "llama3-70b-8192", Name: "Llama 3 70B", Provider: "Groq", Description: "Advanced"},
	{ID: "llama-3.1-70b-versatile", Name: "Llama 3.1 70B", Provider: "Groq", Description: "Balanced"},
	{ID: "mixtral-8x7b-32768", Name: "Mixtral 8x7B", Provider: "Groq", Description: "Fast"},
	{ID: "gemini-1.5-pro", Name: "Gemini 1.5 Pro", Provider: "Google", Description: "Strategic"},
	{ID: "gemini-1.5-flash", Name: "Gemini 1.5 Flash", Provider: "Google", Description: "Quick"},
	{ID: "stockfish-17-depth-6", Name: "Stockfish 17 (depth 6)", Provider: "chess-api.com", Description: "Casual"},
	{ID: "stockfish-17-depth-12", Name: "Stockfish 17 (depth 12)", Provider: "chess-api.com", Description: "Strong"},
	{ID: "stockfish-17-depth-18", Name: "Stockfish 17 (depth 18)", Provider: "chess-api.com", Description: "Master"},
	{ID: "uci-stockfish-depth-12", Name: "Local Stockfish (depth 12)", Provider: "UCI", Description: "Offline"},
}
