package llm

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/anthropics/anthropic-sdk-go/packages/param"

	"github.com/fleveque/deck-image-service/internal/model"
)

// AnthropicClient implements the Client interface using Claude.
// We define a custom tool so Claude returns structured per-slide queries
// instead of free-form text that would need parsing.
type AnthropicClient struct {
	client *anthropic.Client
	model  string
}

// NewAnthropicClient creates a Claude-powered query suggester.
func NewAnthropicClient(apiKey string, modelName string) *AnthropicClient {
	client := anthropic.NewClient(
		option.WithAPIKey(apiKey),
	)
	return &AnthropicClient{
		client: &client,
		model:  modelName,
	}
}

func (a *AnthropicClient) ProviderName() string { return "anthropic" }
func (a *AnthropicClient) ModelName() string    { return a.model }

// SuggestQueries asks Claude for one image-search query per slide.
func (a *AnthropicClient) SuggestQueries(ctx context.Context, outline model.Outline) (map[string]string, error) {
	prompt := buildPrompt(outline)

	submitTool := anthropic.ToolParam{
		Name:        "submit_search_queries",
		Description: param.NewOpt("Submit one image-search query per slide. Call this tool exactly once with all queries."),
		InputSchema: anthropic.ToolInputSchemaParam{
			Properties: queriesSchema,
		},
	}
	tools := []anthropic.ToolUnionParam{
		{OfTool: &submitTool},
	}

	messages := []anthropic.MessageParam{
		anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
	}

	// Claude normally calls the tool on the first turn; allow a couple of
	// retries in case it answers in prose first.
	for i := 0; i < 3; i++ {
		message, err := a.client.Messages.New(ctx, anthropic.MessageNewParams{
			Model:     anthropic.Model(a.model),
			MaxTokens: 1024,
			Messages:  messages,
			Tools:     tools,
		})
		if err != nil {
			return nil, fmt.Errorf("anthropic API call: %w", err)
		}

		for _, block := range message.Content {
			toolUse, ok := block.AsAny().(anthropic.ToolUseBlock)
			if !ok || toolUse.Name != "submit_search_queries" {
				continue
			}

			inputBytes, err := json.Marshal(toolUse.Input)
			if err != nil {
				return nil, fmt.Errorf("marshaling tool input: %w", err)
			}

			var result submitQueriesResult
			if err := json.Unmarshal(inputBytes, &result); err != nil {
				return nil, fmt.Errorf("parsing tool input: %w", err)
			}

			hints := toHintMap(result)
			if len(hints) == 0 {
				return nil, fmt.Errorf("Claude submitted no usable queries for deck %s", outline.ID)
			}
			return hints, nil
		}

		if message.StopReason == "end_turn" {
			return nil, fmt.Errorf("Claude ended without submitting queries for deck %s", outline.ID)
		}

		messages = append(messages, message.ToParam())
		messages = append(messages, anthropic.NewUserMessage(
			anthropic.NewTextBlock("Please call submit_search_queries with your queries."),
		))
	}

	return nil, fmt.Errorf("exceeded max turns without queries for deck %s", outline.ID)
}
