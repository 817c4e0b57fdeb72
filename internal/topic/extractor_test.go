package topic

import (
	"reflect"
	"strings"
	"testing"

	"github.com/fleveque/deck-image-service/internal/model"
)

func TestFilterTerms(t *testing.T) {
	// Table-driven tests: define cases as a slice of structs and loop.
	tests := []struct {
		name string
		in   []string
		want []string
	}{
		{
			name: "stop and vague words removed",
			in:   []string{"the", "a", "image", "photo", "Pikachu"},
			want: []string{"Pikachu"},
		},
		{
			name: "short terms removed",
			in:   []string{"ab", "x", "cat"},
			want: []string{"cat"},
		},
		{
			name: "multi-word phrase kept when any word is significant",
			in:   []string{"Electric Battles", "the image"},
			want: []string{"Electric Battles"},
		},
		{
			name: "casing preserved",
			in:   []string{"Machu Picchu"},
			want: []string{"Machu Picchu"},
		},
		{
			name: "empty input",
			in:   nil,
			want: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FilterTerms(tt.in)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("FilterTerms(%v) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestDeckTopic(t *testing.T) {
	tests := []struct {
		title string
		want  string
	}{
		{"Pokemon Facts", "Pokemon"}, // "Facts" is a vague term
		{"The History of Rome", "History Rome"},
		{"Intro", ""}, // entirely vague
		{"", ""},
	}

	for _, tt := range tests {
		if got := DeckTopic(tt.title); got != tt.want {
			t.Errorf("DeckTopic(%q) = %q, want %q", tt.title, got, tt.want)
		}
	}
}

func TestComparisonPairs(t *testing.T) {
	got := ComparisonPairs("Solar Energy vs Wind Energy in 2024")
	want := []string{"Solar Energy", "Wind Energy"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("ComparisonPairs = %v, want %v", got, want)
	}

	got = ComparisonPairs("cats versus dogs")
	want = []string{"cats", "dogs"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("ComparisonPairs = %v, want %v", got, want)
	}

	if got := ComparisonPairs("no comparison here"); got != nil {
		t.Errorf("expected nil for text without comparison, got %v", got)
	}
}

func TestDomainTerms(t *testing.T) {
	got := DomainTerms("the photosynthesis process and cell biology")
	want := []string{"photosynthesis", "biology"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("DomainTerms = %v, want %v", got, want)
	}

	if got := DomainTerms("plain short words here"); got != nil {
		t.Errorf("expected no domain terms, got %v", got)
	}
}

func TestProperNounRuns(t *testing.T) {
	// Runs inside sentence-cased text are detected.
	got := ProperNounRuns("We visited Machu Picchu last summer")
	if len(got) != 1 || got[0] != "Machu Picchu" {
		t.Errorf("ProperNounRuns = %v, want [Machu Picchu]", got)
	}

	// Fully title-cased text would match everything — treated as noise.
	if got := ProperNounRuns("Electric Pokemon Battles"); got != nil {
		t.Errorf("expected nil for title-cased text, got %v", got)
	}
}

func TestSlideNeedsImages(t *testing.T) {
	tests := []struct {
		slide model.Slide
		want  bool
	}{
		{model.Slide{Title: "Pokemon Quiz Time"}, false},
		{model.Slide{Title: "Audience Poll"}, false},
		{model.Slide{Title: "Normal Slide", Layout: "assessment"}, false},
		{model.Slide{Title: "Ocean Currents"}, true},
	}

	for _, tt := range tests {
		if got := SlideNeedsImages(tt.slide); got != tt.want {
			t.Errorf("SlideNeedsImages(%q/%q) = %v, want %v",
				tt.slide.Title, tt.slide.Layout, got, tt.want)
		}
	}
}

func TestExtractSlideTopics_HintWins(t *testing.T) {
	slide := model.Slide{ID: "s1", Title: "Electric Pokemon Battles"}

	got := ExtractSlideTopics(slide, "Pokemon Facts", "pikachu thunderbolt", 5)
	if len(got) == 0 || got[0] != "pikachu thunderbolt" {
		t.Fatalf("expected hint to lead the topic list, got %v", got)
	}

	// A hint that fails the filter falls back to heuristics.
	got = ExtractSlideTopics(slide, "Pokemon Facts", "image", 5)
	for _, topic := range got {
		if topic == "image" {
			t.Errorf("vague hint should have been filtered, got %v", got)
		}
	}
	if len(got) == 0 {
		t.Error("expected heuristic topics after hint was filtered")
	}
}

func TestExtractSlideTopics_QuizSlideSkipped(t *testing.T) {
	slide := model.Slide{ID: "s1", Title: "Chapter Quiz"}
	if got := ExtractSlideTopics(slide, "Biology Basics", "", 5); got != nil {
		t.Errorf("quiz slide should yield no topics, got %v", got)
	}
}

func TestExtractSlideTopics_Deterministic(t *testing.T) {
	slide := model.Slide{
		ID:      "s1",
		Title:   "Ancient Rome vs Ancient Greece",
		Content: "A look at civilization and architecture in the Mediterranean",
	}

	first := ExtractSlideTopics(slide, "World History", "", 5)
	for i := 0; i < 10; i++ {
		again := ExtractSlideTopics(slide, "World History", "", 5)
		if !reflect.DeepEqual(first, again) {
			t.Fatalf("extraction not deterministic: %v vs %v", first, again)
		}
	}
}

func TestExtractSlideTopics_CapRespected(t *testing.T) {
	slide := model.Slide{
		ID:      "s1",
		Title:   "Photosynthesis vs Respiration in Plant Biology",
		Content: "Evolution, germination, pollination, classification and Charles Darwin",
	}

	got := ExtractSlideTopics(slide, "Science Overview", "", 3)
	if len(got) > 3 {
		t.Errorf("expected at most 3 topics, got %d: %v", len(got), got)
	}
}

// TestBuildTopics_PokemonOutline covers the full extraction contract on a
// concrete outline: a shared deck topic plus one distinct topic per slide,
// deduplicated case-insensitively across slides.
func TestBuildTopics_PokemonOutline(t *testing.T) {
	outline := model.Outline{
		ID:    "deck-1",
		Title: "Pokemon Facts",
		Slides: []model.Slide{
			{ID: "slide-a", Title: "Electric Pokemon Battles"},
			{ID: "slide-b", Title: "Pokemon Evolution Timeline"},
		},
	}

	topics := BuildTopics(outline, nil, 5)

	if len(topics) != 3 {
		t.Fatalf("expected exactly 3 unique topics, got %d: %v", len(topics), topicTexts(topics))
	}

	byText := make(map[string]model.SearchTopic)
	for _, topic := range topics {
		byText[strings.ToLower(topic.Text)] = topic
	}

	shared, ok := byText["pokemon"]
	if !ok {
		t.Fatalf("expected shared topic 'pokemon', got %v", topicTexts(topics))
	}
	if !reflect.DeepEqual(shared.SlideIDs, []string{"slide-a", "slide-b"}) {
		t.Errorf("shared topic slide ids = %v, want both slides", shared.SlideIDs)
	}

	a, ok := byText["electric battles"]
	if !ok || !reflect.DeepEqual(a.SlideIDs, []string{"slide-a"}) {
		t.Errorf("expected 'electric battles' owned by slide-a, got %v", topics)
	}

	b, ok := byText["evolution timeline"]
	if !ok || !reflect.DeepEqual(b.SlideIDs, []string{"slide-b"}) {
		t.Errorf("expected 'evolution timeline' owned by slide-b, got %v", topics)
	}
}

func TestBuildTopics_CaseInsensitiveDedup(t *testing.T) {
	outline := model.Outline{
		ID:    "deck-2",
		Title: "",
		Slides: []model.Slide{
			{ID: "s1", Title: "about volcanoes"},
			{ID: "s2", Title: "About Volcanoes"},
		},
	}
	hints := map[string]string{"s1": "volcano eruption", "s2": "Volcano Eruption"}

	topics := BuildTopics(outline, hints, 5)
	if len(topics) != 1 {
		t.Fatalf("expected 1 deduplicated topic, got %d: %v", len(topics), topicTexts(topics))
	}
	if len(topics[0].SlideIDs) != 2 {
		t.Errorf("expected both slides on the shared topic, got %v", topics[0].SlideIDs)
	}
	// First-seen casing is preserved.
	if topics[0].Text != "volcano eruption" {
		t.Errorf("expected first-seen casing, got %q", topics[0].Text)
	}
}

func topicTexts(topics []model.SearchTopic) []string {
	texts := make([]string, 0, len(topics))
	for _, topic := range topics {
		texts = append(texts, topic.Text)
	}
	return texts
}
