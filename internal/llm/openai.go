package llm

import (
	"context"
	"encoding/json"
	"fmt"

	openai "github.com/sashabaranov/go-openai"

	"github.com/fleveque/deck-image-service/internal/model"
)

// OpenAIClient implements the Client interface using OpenAI's API as a
// fallback. Uses function calling to get structured per-slide queries.
type OpenAIClient struct {
	client *openai.Client
	model  string
}

// NewOpenAIClient creates an OpenAI-powered query suggester.
func NewOpenAIClient(apiKey string, modelName string) *OpenAIClient {
	return &OpenAIClient{
		client: openai.NewClient(apiKey),
		model:  modelName,
	}
}

func (o *OpenAIClient) ProviderName() string { return "openai" }
func (o *OpenAIClient) ModelName() string    { return o.model }

// SuggestQueries asks the model for one image-search query per slide.
func (o *OpenAIClient) SuggestQueries(ctx context.Context, outline model.Outline) (map[string]string, error) {
	prompt := buildPrompt(outline)

	tools := []openai.Tool{
		{
			Type: openai.ToolTypeFunction,
			Function: &openai.FunctionDefinition{
				Name:        "submit_search_queries",
				Description: "Submit one image-search query per slide. Call this function exactly once with all queries.",
				Parameters: map[string]interface{}{
					"type":       "object",
					"properties": queriesSchema,
					"required":   []string{"queries"},
				},
			},
		},
	}

	messages := []openai.ChatCompletionMessage{
		{
			Role: openai.ChatMessageRoleSystem,
			Content: `You suggest image-search queries for presentation slides.
Return queries only via the submit_search_queries function.`,
		},
		{
			Role:    openai.ChatMessageRoleUser,
			Content: prompt,
		},
	}

	for i := 0; i < 3; i++ {
		resp, err := o.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
			Model:    o.model,
			Messages: messages,
			Tools:    tools,
		})
		if err != nil {
			return nil, fmt.Errorf("openai API call: %w", err)
		}

		if len(resp.Choices) == 0 {
			return nil, fmt.Errorf("openai returned no choices")
		}
		choice := resp.Choices[0]

		if len(choice.Message.ToolCalls) > 0 {
			messages = append(messages, choice.Message)

			for _, toolCall := range choice.Message.ToolCalls {
				if toolCall.Function.Name == "submit_search_queries" {
					var result submitQueriesResult
					if err := json.Unmarshal([]byte(toolCall.Function.Arguments), &result); err != nil {
						return nil, fmt.Errorf("parsing tool arguments: %w", err)
					}

					hints := toHintMap(result)
					if len(hints) == 0 {
						return nil, fmt.Errorf("OpenAI submitted no usable queries for deck %s", outline.ID)
					}
					return hints, nil
				}

				messages = append(messages, openai.ChatCompletionMessage{
					Role:       openai.ChatMessageRoleTool,
					Content:    "Received. Please call submit_search_queries with the queries.",
					ToolCallID: toolCall.ID,
				})
			}
			continue
		}

		if choice.FinishReason == "stop" {
			return nil, fmt.Errorf("OpenAI ended without submitting queries for deck %s", outline.ID)
		}
	}

	return nil, fmt.Errorf("exceeded max turns without queries for deck %s", outline.ID)
}
