// Package llm provides a provider-agnostic interface for using LLMs to
// suggest one image-search query per slide. The hints feed the search
// pipeline as the pre-computed query map; when no LLM is configured (or
// the call fails) the pipeline falls back to heuristic topic extraction.
package llm

import (
	"context"

	"github.com/fleveque/deck-image-service/internal/model"
)

// Client is the interface for LLM providers that can suggest slide queries.
// Both Anthropic (Claude) and OpenAI implement it, allowing the service to
// fall back from one to the other in configured order.
type Client interface {
	// SuggestQueries returns a map of slide id → short search query.
	// Slides the model skipped are simply absent from the map.
	SuggestQueries(ctx context.Context, outline model.Outline) (map[string]string, error)
	ProviderName() string
	ModelName() string
}
