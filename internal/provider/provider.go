// Package provider defines the interface for external image-search backends.
// Each provider (Pexels, Unsplash) implements this interface so the search
// orchestrator stays provider-agnostic — which backend is primary and which
// is fallback is a config choice, not a code change.
package provider

import (
	"context"

	"github.com/fleveque/deck-image-service/internal/model"
)

// SearchOptions are the style knobs forwarded to the backend. The pipeline
// passes these through from the deck's style preferences without
// interpreting them.
type SearchOptions struct {
	Orientation string // "landscape", "portrait", "square"
	Color       string
	Locale      string
}

// ImageProvider is the narrow contract the pipeline depends on.
//
// Implementations must be safe to call concurrently and must return within
// a bounded time — the orchestrator wraps every call in a deadline and
// treats timeouts and errors alike as "found 0 images".
//
// Go interface design tip: keep interfaces small. One search method plus a
// name is all the orchestrator needs; the smaller the interface, the easier
// it is to mock in tests.
type ImageProvider interface {
	// Search returns up to count candidates for the query, most relevant
	// first. An empty slice with nil error is a valid "no results" answer.
	Search(ctx context.Context, query string, count int, opts SearchOptions) ([]model.ImageCandidate, error)

	// Name identifies the backend in logs and call-tracking records.
	Name() string
}
