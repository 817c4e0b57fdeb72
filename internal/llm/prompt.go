package llm

import (
	"fmt"
	"strings"

	"github.com/fleveque/deck-image-service/internal/model"
)

// slideQuery is the schema for one entry of the submit tool's payload.
type slideQuery struct {
	SlideID string `json:"slide_id"`
	Query   string `json:"query"`
}

type submitQueriesResult struct {
	Queries []slideQuery `json:"queries"`
}

// buildPrompt renders the outline into the user prompt. Both clients share
// it so the two providers see identical instructions.
func buildPrompt(outline model.Outline) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Presentation title: %q\n\nSlides:\n", outline.Title)
	for i, slide := range outline.Slides {
		fmt.Fprintf(&b, "%d. id=%s title=%q", i+1, slide.ID, slide.Title)
		if slide.Content != "" {
			fmt.Fprintf(&b, " content=%q", truncate(slide.Content, 300))
		}
		b.WriteString("\n")
	}

	b.WriteString(`
For each slide that would benefit from a stock photo, propose ONE short
image-search query (2-4 words, concrete and visual — nouns over abstractions).
Skip quiz, poll and assessment slides. Do not propose generic queries like
"image", "background" or "content".

Call the submit_search_queries tool once with every query.`)
	return b.String()
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "…"
}

// toHintMap converts the tool payload into the slide-id → query map the
// pipeline consumes, dropping empty entries.
func toHintMap(result submitQueriesResult) map[string]string {
	hints := make(map[string]string, len(result.Queries))
	for _, q := range result.Queries {
		query := strings.TrimSpace(q.Query)
		if q.SlideID == "" || query == "" {
			continue
		}
		hints[q.SlideID] = query
	}
	return hints
}

// queriesSchema is the JSON schema for the submit tool's input, shared by
// both providers (Anthropic takes it as tool properties, OpenAI as function
// parameters).
var queriesSchema = map[string]interface{}{
	"queries": map[string]interface{}{
		"type":        "array",
		"description": "One search query per slide that wants an image.",
		"items": map[string]interface{}{
			"type": "object",
			"properties": map[string]interface{}{
				"slide_id": map[string]interface{}{
					"type":        "string",
					"description": "The slide id exactly as given in the outline.",
				},
				"query": map[string]interface{}{
					"type":        "string",
					"description": "Short concrete image-search query (2-4 words).",
				},
			},
			"required": []string{"slide_id", "query"},
		},
	},
}
