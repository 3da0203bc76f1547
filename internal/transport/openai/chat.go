package openai

import (
	"context"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/kailas-cloud/resumeqa/internal/metrics"
)

// chatClient runs one chat completion and records role-labelled metrics.
type chatClient struct {
	client *openai.Client
	role   string
	model  string
}

func (c *chatClient) complete(
	ctx context.Context, req openai.ChatCompletionRequest,
) (openai.ChatCompletionResponse, error) {
	req.Model = c.model

	start := time.Now()
	resp, err := c.client.CreateChatCompletion(ctx, req)
	duration := time.Since(start)

	if err != nil {
		metrics.ChatRequestsTotal.WithLabelValues(c.role, c.model, "error").Inc()
		return openai.ChatCompletionResponse{}, err //nolint:wrapcheck // callers wrap with their error kind
	}

	metrics.ChatRequestsTotal.WithLabelValues(c.role, c.model, "success").Inc()
	metrics.ChatRequestDuration.WithLabelValues(c.role, c.model).Observe(duration.Seconds())
	if resp.Usage.TotalTokens > 0 {
		metrics.ChatTokensTotal.WithLabelValues(c.role, c.model, "prompt").Add(float64(resp.Usage.PromptTokens))
		metrics.ChatTokensTotal.WithLabelValues(c.role, c.model, "completion").Add(float64(resp.Usage.CompletionTokens))
	}
	return resp, nil
}
