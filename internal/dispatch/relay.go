package dispatch

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"aichess/internal/core"
	"aichess/internal/provider"

	"github.com/gofiber/fiber/v2"
)

var ErrRelayStatus = errors.New("relay returned non-success status")

// Relay carries a move request to whatever produces the AI's raw text
type Relay interface {
	Send(ctx context.Context, req core.MoveRelayRequest) (string, error)
}

// LocalRelay calls the provider router in-process
type LocalRelay struct {
	router *provider.Router
}

func NewLocalRelay(router *provider.Router) *LocalRelay {
	return &LocalRelay{router: router}
}

func (r *LocalRelay) Send(ctx context.Context, req core.MoveRelayRequest) (string, error) {
	return r.router.RequestMove(ctx, req)
}

// HTTPRelay posts the request to a remote relay endpoint and returns the
// plain-text body
type HTTPRelay struct {
	url string
}

func NewHTTPRelay(url string) *HTTPRelay {
	return &HTTPRelay{url: strings.TrimRight(url, "/")}
}

func (r *HTTPRelay) Send(ctx context.Context, req core.MoveRelayRequest) (string, error) {
	timeout := 30 * time.Second
	if deadline, ok := ctx.Deadline(); ok {
		timeout = time.Until(deadline)
	}
	if timeout <= 0 {
		return "", context.DeadlineExceeded
	}

	agent := fiber.Post(r.url).JSON(req).Timeout(timeout)
	if err := agent.Parse(); err != nil {
		return "", fmt.Errorf("relay request: %w", err)
	}

	code, body, errs := agent.Bytes()
	if len(errs) > 0 {
		return "", fmt.Errorf("relay request: %w", errors.Join(errs...))
	}
	if code < 200 || code > 299 {
		return "", fmt.Errorf("%w: %d", ErrRelayStatus, code)
	}

	return string(body), nil
}
