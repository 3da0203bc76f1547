// Package openai adapts the OpenAI-compatible API to the embedding, classifier
// and synthesizer contracts.
package openai

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/http"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"
)

// Trace tool names.
const (
	ToolChat       = "OpenAI Chat Completions"
	ToolEmbeddings = "OpenAI Embeddings"
)

// Config holds the provider connection settings shared by all adapters.
type Config struct {
	APIKey     string
	BaseURL    string
	User       string
	Provider   string
	HTTPClient *http.Client
	Logger     *zap.Logger
}

func newClient(cfg *Config) *openai.Client {
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}
	if cfg.HTTPClient != nil {
		clientCfg.HTTPClient = cfg.HTTPClient
	}
	return openai.NewClientWithConfig(clientCfg)
}

func loggerOrNop(l *zap.Logger) *zap.Logger {
	if l == nil {
		return zap.NewNop()
	}
	return l
}

// chatTemperature maps 0 to the smallest non-zero value: the request field is
// omitempty, and an omitted temperature means the provider default of 1.
func chatTemperature(t float32) float32 {
	if t == 0 {
		return math.SmallestNonzeroFloat32
	}
	return t
}

// parseAPIError extracts a human-readable error from the API response and wraps it with kind.
func parseAPIError(err error, kind error, what string) error {
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		detail := extractDetail(reqErr.Body)
		if detail == "" {
			detail = string(reqErr.Body)
		}
		return fmt.Errorf("%w: %s API error %d: %s", kind, what, reqErr.HTTPStatusCode, detail)
	}

	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return fmt.Errorf("%w: %s API error %d: %s", kind, what, apiErr.HTTPStatusCode, apiErr.Message)
	}

	return fmt.Errorf("%w: %s request failed: %w", kind, what, err)
}

// extractDetail extracts the "detail" field from a JSON error body (Nebius error format).
func extractDetail(body []byte) string {
	var parsed struct {
		Detail string `json:"detail"`
	}
	if json.Unmarshal(body, &parsed) == nil && parsed.Detail != "" {
		return parsed.Detail
	}
	return ""
}
