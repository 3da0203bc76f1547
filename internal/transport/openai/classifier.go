package openai

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"
	"github.com/xeipuuv/gojsonschema"
	"go.uber.org/zap"

	"github.com/kailas-cloud/resumeqa/internal/domain"
	"github.com/kailas-cloud/resumeqa/internal/domain/category"
)

const classifierSystemPrompt = "You are a classifier. Respond ONLY with a JSON object of the form " +
	`{"category": "..."}. Return exactly one category that best matches the user's query. ` +
	"Choose only from the allowed enum categories. No extra text."

// Classifier maps a free-text query to exactly one resume category.
type Classifier struct {
	chat        chatClient
	temperature float32
	schema      *gojsonschema.Schema
	logger      *zap.Logger
}

// NewClassifier creates a classifier backed by a chat model with structured output.
func NewClassifier(cfg *Config, model string, temperature float32) (*Classifier, error) {
	schema, err := gojsonschema.NewSchema(gojsonschema.NewBytesLoader(category.Schema()))
	if err != nil {
		return nil, fmt.Errorf("%w: compile category schema: %w", domain.ErrConfiguration, err)
	}
	return &Classifier{
		chat:        chatClient{client: newClient(cfg), role: "classifier", model: model},
		temperature: temperature,
		schema:      schema,
		logger:      loggerOrNop(cfg.Logger),
	}, nil
}

// Model returns the chat model name.
func (c *Classifier) Model() string { return c.chat.model }

// Tool names the service in query traces.
func (c *Classifier) Tool() string { return ToolChat }

// Classify returns the single best-matching category. Any reply that is not
// a schema-valid member of the enumeration fails with domain.ErrClassification.
func (c *Classifier) Classify(ctx context.Context, query string) (category.Category, error) {
	resp, err := c.chat.complete(ctx, openai.ChatCompletionRequest{
		Temperature: chatTemperature(c.temperature),
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: classifierSystemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: classifierUserPrompt(query)},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONSchema,
			JSONSchema: &openai.ChatCompletionResponseFormatJSONSchema{
				Name:   "resume_category",
				Schema: category.Schema(),
				Strict: true,
			},
		},
	})
	if err != nil {
		return "", parseAPIError(err, domain.ErrClassification, "classifier")
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("%w: empty choices", domain.ErrClassification)
	}

	cat, err := c.parse(resp.Choices[0].Message.Content)
	if err != nil {
		c.logger.Warn("Classifier returned an invalid category", zap.Error(err))
		return "", err
	}
	return cat, nil
}

func (c *Classifier) parse(content string) (category.Category, error) {
	raw := stripFences(content)
	if raw == "" {
		return "", fmt.Errorf("%w: empty response", domain.ErrClassification)
	}

	res, err := c.schema.Validate(gojsonschema.NewStringLoader(raw))
	if err != nil {
		return "", fmt.Errorf("%w: malformed JSON: %w", domain.ErrClassification, err)
	}
	if !res.Valid() {
		msgs := make([]string, 0, len(res.Errors()))
		for _, e := range res.Errors() {
			msgs = append(msgs, e.String())
		}
		return "", fmt.Errorf("%w: %s", domain.ErrClassification, strings.Join(msgs, "; "))
	}

	var out struct {
		Category string `json:"category"`
	}
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		return "", fmt.Errorf("%w: decode: %w", domain.ErrClassification, err)
	}

	cat, err := category.Parse(out.Category)
	if err != nil {
		return "", fmt.Errorf("%w: %w", domain.ErrClassification, err)
	}
	return cat, nil
}

func classifierUserPrompt(query string) string {
	return "Allowed categories: " + strings.Join(category.Strings(), ", ") + "\n\n" + query
}

// stripFences removes a surrounding ``` or ```json code fence.
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if nl := strings.IndexByte(s, '\n'); nl >= 0 {
		s = s[nl+1:]
	} else {
		s = strings.TrimPrefix(s, "json")
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
