// Package model defines the core data types for the deck image service.
// In Go, we use structs instead of classes. Struct tags (the `json:"..."` and
// `db:"..."` annotations) tell serialization libraries how to map fields.
package model

// Outline is the read-only input from the deck-composition layer: the deck
// being generated, with the slides that may want images. The service never
// mutates an outline — it only derives search topics from it.
type Outline struct {
	ID               string            `json:"id"`
	Title            string            `json:"title"`
	Slides           []Slide           `json:"slides"`
	StylePreferences *StylePreferences `json:"style_preferences,omitempty"`
}

// Slide is one slide of an outline. Title and Content are free text produced
// upstream; Layout is a hint like "content", "quiz" or "poll" — quiz-style
// slides are skipped during topic extraction.
type Slide struct {
	ID      string `json:"id"`
	Title   string `json:"title"`
	Content string `json:"content"`
	Layout  string `json:"layout,omitempty"`
}

// StylePreferences carries optional visual preferences from the deck style.
// The pipeline passes these through to the image providers but does not
// interpret them itself.
type StylePreferences struct {
	Orientation string `json:"orientation,omitempty"` // "landscape", "portrait", "square"
	Color       string `json:"color,omitempty"`
	Locale      string `json:"locale,omitempty"`
}

// SearchTopic is the unit of external image search: a short phrase derived
// from slide/deck text plus the ids of every slide that asked for it.
// Topics are deduplicated case-insensitively across the whole deck, so each
// phrase is searched at most once per run.
type SearchTopic struct {
	Text     string   `json:"text"`
	SlideIDs []string `json:"slide_ids"`
}
