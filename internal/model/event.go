package model

// EventType identifies a pipeline progress event.
// Go doesn't have enums — we use typed string constants.
type EventType string

const (
	// EventTopicImagesFound fires as soon as one topic's search resolves,
	// successful or empty, regardless of sibling topics.
	EventTopicImagesFound EventType = "topic_images_found"

	// EventSlideImagesFound fires every time a slide's gallery grows
	// (one of its topics completed). Carries the flattened gallery so far.
	EventSlideImagesFound EventType = "slide_images_found"

	// EventSlideImagesReady fires once per slide, when every topic the
	// slide requested has resolved. Carries the final capped gallery.
	EventSlideImagesReady EventType = "slide_images_ready"

	// EventCollectionComplete is the terminal event for a run.
	EventCollectionComplete EventType = "images_collection_complete"
)

// Event is one entry in the caller-facing progress stream. A single flat
// struct with omitempty keeps SSE payloads simple; which fields are set
// depends on Type.
type Event struct {
	Type EventType `json:"type"`

	// topic_images_found
	Topic            string   `json:"topic,omitempty"`
	SlidesUsingTopic []string `json:"slides_using_topic,omitempty"`

	// slide_images_found / slide_images_ready. SlideIndex must serialize
	// even when it is 0 — the first slide of every deck — so no omitempty.
	SlideID    string     `json:"slide_id,omitempty"`
	SlideIndex int        `json:"slide_index"`
	Images     []ImageRef `json:"images,omitempty"`
	TopicsUsed []string   `json:"topics_used,omitempty"`

	ImagesCount int `json:"images_count"`

	// images_collection_complete. Zero is a real value here too (a deck of
	// all quiz slides resolves zero topics).
	TotalTopicsSearched  int `json:"total_topics_searched"`
	TotalSlidesProcessed int `json:"total_slides_processed"`
}
