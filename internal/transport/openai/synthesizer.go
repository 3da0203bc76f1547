package openai

import (
	"context"
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"github.com/kailas-cloud/resumeqa/internal/domain"
)

// Synthesizer generates free-text answers from a system directive and a prompt.
type Synthesizer struct {
	chat        chatClient
	temperature float32
}

// NewSynthesizer creates an answer generator backed by a chat model.
func NewSynthesizer(cfg *Config, model string, temperature float32) *Synthesizer {
	return &Synthesizer{
		chat:        chatClient{client: newClient(cfg), role: "synthesizer", model: model},
		temperature: temperature,
	}
}

// Model returns the chat model name.
func (s *Synthesizer) Model() string { return s.chat.model }

// Tool names the service in query traces.
func (s *Synthesizer) Tool() string { return ToolChat }

// Complete returns the model's reply. Failures wrap domain.ErrSynthesis.
func (s *Synthesizer) Complete(ctx context.Context, system, prompt string) (string, error) {
	resp, err := s.chat.complete(ctx, openai.ChatCompletionRequest{
		Temperature: chatTemperature(s.temperature),
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: system},
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
	})
	if err != nil {
		return "", parseAPIError(err, domain.ErrSynthesis, "synthesis")
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("%w: empty choices", domain.ErrSynthesis)
	}

	answer := strings.TrimSpace(resp.Choices[0].Message.Content)
	if answer == "" {
		return "", fmt.Errorf("%w: empty answer", domain.ErrSynthesis)
	}
	return answer, nil
}
