package provider

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"aichess/internal/core"

	openai "github.com/sashabaranov/go-openai"
)

const (
	GroqBaseURL   = "https://api.groq.com/openai/v1"
	GoogleBaseURL = "https://generativelanguage.googleapis.com/v1beta/openai"
)

// LLM streams a chat completion from an OpenAI-compatible endpoint and
// returns the drained text
type LLM struct {
	client *openai.Client
}

// NewLLM returns nil when apiKey is empty so the router leaves the
// provider unregistered
func NewLLM(apiKey, baseURL string, timeout time.Duration) *LLM {
	if apiKey == "" {
		return nil
	}

	cfg := openai.DefaultConfig(apiKey)
	cfg.BaseURL = strings.TrimRight(baseURL, "/")
	cfg.HTTPClient = &http.Client{Timeout: timeout}

	return &LLM{client: openai.NewClientWithConfig(cfg)}
}

func (l *LLM) configured() bool { return l != nil }

func (l *LLM) RequestMove(ctx context.Context, sel Selection, req core.MoveRelayRequest) (string, error) {
	if l == nil {
		return "", ErrProviderUnavailable
	}
	stream, err := l.client.CreateChatCompletionStream(ctx, openai.ChatCompletionRequest{
		Model: sel.Model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: buildPrompt(req)},
		},
		Stream: true,
	})
	if err != nil {
		return "", fmt.Errorf("%s completion: %w", sel.Kind, err)
	}
	defer stream.Close()

	var sb strings.Builder
	for {
		chunk, err := stream.Recv()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return "", fmt.Errorf("%s stream: %w", sel.Kind, err)
		}
		for _, choice := range chunk.Choices {
			sb.WriteString(choice.Delta.Content)
		}
	}

	return sb.String(), nil
}
