package provider

import (
	"context"
	"fmt"
	"sync"

	"aichess/internal/core"

	"github.com/freeeve/uci"
	"github.com/rs/zerolog"
)

// LocalEngine runs a UCI engine binary on this host. One search at a time;
// an engine that overruns its deadline is discarded and restarted lazily.
type LocalEngine struct {
	path string
	args []string
	log  zerolog.Logger

	mu  sync.Mutex
	eng *uci.Engine
}

// NewLocalEngine returns nil when no engine path is configured
func NewLocalEngine(path string, args []string, log zerolog.Logger) *LocalEngine {
	if path == "" {
		return nil
	}
	return &LocalEngine{path: path, args: args, log: log}
}

func (l *LocalEngine) start() (*uci.Engine, error) {
	if l.eng != nil {
		return l.eng, nil
	}

	e, err := uci.NewEngine(l.path, l.args...)
	if err != nil {
		return nil, fmt.Errorf("start engine: %w", err)
	}
	if err := e.SetOptions(uci.Options{
		MultiPV: 1,
		Hash:    64,
		Ponder:  false,
		OwnBook: false,
	}); err != nil {
		e.Close()
		return nil, fmt.Errorf("engine options: %w", err)
	}

	l.eng = e
	return e, nil
}

type searchResult struct {
	move string
	err  error
}

func (l *LocalEngine) configured() bool { return l != nil }

func (l *LocalEngine) RequestMove(ctx context.Context, sel Selection, req core.MoveRelayRequest) (string, error) {
	if l == nil {
		return "", ErrProviderUnavailable
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	e, err := l.start()
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrEngine, err)
	}

	done := make(chan searchResult, 1)
	go func() {
		if err := e.SetFEN(req.CurrentBoard); err != nil {
			done <- searchResult{err: err}
			return
		}
		res, err := e.GoDepth(sel.Depth)
		if err != nil {
			done <- searchResult{err: err}
			return
		}
		done <- searchResult{move: res.BestMove}
	}()

	select {
	case r := <-done:
		if r.err != nil {
			return "", fmt.Errorf("%w: %v", ErrEngine, r.err)
		}
		if r.move == "" || r.move == "(none)" {
			return "", fmt.Errorf("%w: no move returned", ErrEngine)
		}
		return r.move, nil
	case <-ctx.Done():
		l.log.Warn().Str("engine", l.path).Msg("engine search overran deadline, restarting")
		go e.Close()
		l.eng = nil
		return "", fmt.Errorf("%w: %v", ErrEngine, ctx.Err())
	}
}

// Close stops the engine process if running
func (l *LocalEngine) Close() {
	if l == nil {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.eng != nil {
		l.eng.Close()
		l.eng = nil
	}
}
