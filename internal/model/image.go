package model

// ImageCandidate is one image result returned by a search provider.
// Identity (for dedup and the deck-wide no-reuse policy) is the URL,
// falling back to the thumbnail URL when the provider gave none.
type ImageCandidate struct {
	ID           string `json:"id,omitempty"`
	URL          string `json:"url"`
	ThumbnailURL string `json:"thumbnail,omitempty"`
	Photographer string `json:"photographer,omitempty"`
	Alt          string `json:"alt,omitempty"`
	Topic        string `json:"topic,omitempty"`
	Provider     string `json:"provider,omitempty"`
	AIGenerated  bool   `json:"ai_generated,omitempty"`

	// DataBase64 holds inline image bytes when a generation fallback
	// (external to this pipeline) supplied the image instead of a URL.
	// It is never emitted in events — see Ref().
	DataBase64 string `json:"-"`
}

// Identity returns the string used for equality: two candidates are the
// same image when their identities are equal.
func (c ImageCandidate) Identity() string {
	if c.URL != "" {
		return c.URL
	}
	return c.ThumbnailURL
}

// ImageRef is the display-safe shape of a candidate for event payloads:
// just the fields a UI needs, with any embedded binary payload stripped.
type ImageRef struct {
	ID           string `json:"id,omitempty"`
	URL          string `json:"url"`
	Thumbnail    string `json:"thumbnail,omitempty"`
	Photographer string `json:"photographer,omitempty"`
	Alt          string `json:"alt,omitempty"`
	Topic        string `json:"topic,omitempty"`
	AIGenerated  bool   `json:"ai_generated,omitempty"`
}

// Ref reduces the candidate to its display-safe shape.
func (c ImageCandidate) Ref() ImageRef {
	return ImageRef{
		ID:           c.ID,
		URL:          c.URL,
		Thumbnail:    c.ThumbnailURL,
		Photographer: c.Photographer,
		Alt:          c.Alt,
		Topic:        c.Topic,
		AIGenerated:  c.AIGenerated,
	}
}

// Refs converts a candidate list for emission.
func Refs(candidates []ImageCandidate) []ImageRef {
	refs := make([]ImageRef, 0, len(candidates))
	for _, c := range candidates {
		refs = append(refs, c.Ref())
	}
	return refs
}
