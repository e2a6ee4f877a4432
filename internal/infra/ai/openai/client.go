package openai

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/sashabaranov/go-openai"
	"github.com/sashabaranov/go-openai/jsonschema"

	"github.com/bryanwahyu/risklens/internal/domain/ai"
	"github.com/bryanwahyu/risklens/internal/domain/analysis"
	"github.com/bryanwahyu/risklens/internal/infra/ai/prompt"
)

const maxTokens = 4096

type Client struct {
	*openai.Client
	Model  string
	schema *jsonschema.Definition
}

func NewClient(apiKey, model string) (*Client, error) {
	schema, err := jsonschema.GenerateSchemaForType(analysis.RiskAssessment{})
	if err != nil {
		return nil, fmt.Errorf("generate response schema: %w", err)
	}
	return &Client{Client: openai.NewClient(apiKey), Model: model, schema: schema}, nil
}

// Analyze runs one chat completion constrained to the risk-analysis JSON
// schema and returns the validated assessment.
func (c *Client) Analyze(ctx context.Context, input analysis.ProjectInput, intel *analysis.ClientIntel) (*analysis.RiskAssessment, error) {
	model := c.Model
	if model == "" {
		model = "gpt-4o-2024-08-06"
	}
	req := openai.ChatCompletionRequest{
		Model: model,
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONSchema,
			JSONSchema: &openai.ChatCompletionResponseFormatJSONSchema{
				Name:   prompt.SchemaName,
				Schema: c.schema,
				Strict: true,
			},
		},
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: prompt.SystemPrompt()},
			{Role: openai.ChatMessageRoleUser, Content: prompt.UserPrompt(input, intel)},
		},
	}
	// For reasoning models (o1/o3/o4/gpt-5*) use MaxCompletionTokens instead of MaxTokens
	if strings.HasPrefix(model, "o1") || strings.HasPrefix(model, "o3") || strings.HasPrefix(model, "o4") || strings.HasPrefix(model, "gpt-5") {
		req.MaxCompletionTokens = maxTokens
	} else {
		req.MaxTokens = maxTokens
	}

	resp, err := c.CreateChatCompletion(ctx, req)
	if err != nil {
		var apiErr *openai.APIError
		if errors.As(err, &apiErr) && apiErr.HTTPStatusCode == 429 {
			return nil, ai.ErrQuotaExceeded
		}
		return nil, fmt.Errorf("failed to create chat completion: %w", err)
	}

	if len(resp.Choices) == 0 || strings.TrimSpace(resp.Choices[0].Message.Content) == "" {
		return nil, ai.ErrEmptyResult
	}
	return prompt.ParseAssessment(resp.Choices[0].Message.Content)
}
