package model

import (
	"encoding/json"
	"testing"
)

func marshalToMap(t *testing.T, ev Event) map[string]interface{} {
	t.Helper()
	data, err := json.Marshal(ev)
	if err != nil {
		t.Fatalf("marshaling event: %v", err)
	}
	var m map[string]interface{}
	if err := json.Unmarshal(data, &m); err != nil {
		t.Fatalf("unmarshaling event: %v", err)
	}
	return m
}

func TestEvent_SlideIndexZeroSerialized(t *testing.T) {
	// The first slide of every deck has index 0; consumers must still see
	// the key rather than reading an absent field.
	ev := Event{
		Type:        EventSlideImagesFound,
		SlideID:     "slide-a",
		SlideIndex:  0,
		ImagesCount: 3,
	}

	m := marshalToMap(t, ev)
	idx, ok := m["slide_index"]
	if !ok {
		t.Fatalf("slide_index missing from payload: %v", m)
	}
	if idx.(float64) != 0 {
		t.Errorf("slide_index = %v, want 0", idx)
	}
}

func TestEvent_TerminalCountsZeroSerialized(t *testing.T) {
	// A deck of all quiz slides resolves zero topics; the terminal event
	// still carries both totals.
	ev := Event{Type: EventCollectionComplete}

	m := marshalToMap(t, ev)
	for _, key := range []string{"total_topics_searched", "total_slides_processed", "images_count"} {
		if _, ok := m[key]; !ok {
			t.Errorf("%s missing from terminal payload: %v", key, m)
		}
	}
}
