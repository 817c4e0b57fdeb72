package topic

import (
	"regexp"
	"strings"

	"github.com/fleveque/deck-image-service/internal/model"
)

// DefaultMaxPerSlide caps how many search phrases one slide may request.
const DefaultMaxPerSlide = 5

// noImageKeywords mark slides that don't want stock imagery — interactive
// slides render their own UI instead.
var noImageKeywords = []string{
	"quiz", "poll", "assessment", "survey", "question", "true or false",
}

// properNounRun matches two or more consecutive capitalized words, e.g.
// "Pokemon Evolution" inside "Learn about Pokemon Evolution today".
var properNounRun = regexp.MustCompile(`\b[A-Z][a-z]+(?:\s+[A-Z][a-z]+)+\b`)

// comparisonPair matches "X vs Y" / "X versus Y" with one- or two-word sides.
var comparisonPair = regexp.MustCompile(`(?i)\b([A-Za-z][\w'-]*(?:\s+[A-Za-z][\w'-]*)?)\s+(?:vs\.?|versus)\s+([A-Za-z][\w'-]*(?:\s+[A-Za-z][\w'-]*)?)`)

// Domain-term heuristics: technical vocabulary tends to carry these
// suffixes/prefixes and makes precise image queries on its own.
var domainSuffixes = []string{"tion", "sion", "osis", "itis", "ology", "graphy", "omics", "ics"}
var domainPrefixes = []string{"photo", "bio", "micro", "thermo", "electro", "neuro", "cyber", "nano", "astro"}

// SlideNeedsImages reports whether a slide should participate in image
// search. Quiz/poll/assessment slides are excluded entirely.
func SlideNeedsImages(s model.Slide) bool {
	haystack := strings.ToLower(s.Title + " " + s.Layout)
	for _, kw := range noImageKeywords {
		if strings.Contains(haystack, kw) {
			return false
		}
	}
	return true
}

// DeckTopic derives the one topic shared across the whole deck from its
// title: the significant title words joined back into a phrase.
// "Pokemon Facts" → "Pokemon" ("Facts" is a vague term).
func DeckTopic(deckTitle string) string {
	words := significantWords(deckTitle)
	phrase := strings.Join(words, " ")
	if len(phrase) < 3 {
		return ""
	}
	return phrase
}

// ProperNounRuns extracts multi-word capitalized runs from text. When the
// text is fully title-cased (every word capitalized, as slide titles often
// are), runs are noise — the whole title would match — so nothing is returned.
func ProperNounRuns(text string) []string {
	if isTitleCased(text) {
		return nil
	}
	return properNounRun.FindAllString(text, -1)
}

func isTitleCased(text string) bool {
	words := tokenize(text)
	if len(words) < 2 {
		return false
	}
	for _, w := range words {
		if w[0] < 'A' || w[0] > 'Z' {
			return false
		}
	}
	return true
}

// ComparisonPairs extracts both sides of "X vs Y" constructions as
// separate candidate phrases.
func ComparisonPairs(text string) []string {
	var pairs []string
	for _, m := range comparisonPair.FindAllStringSubmatch(text, -1) {
		pairs = append(pairs, m[1], m[2])
	}
	return pairs
}

// DomainTerms picks out technical/domain vocabulary by suffix and prefix
// heuristics: "photosynthesis", "evolution", "thermodynamics".
func DomainTerms(text string) []string {
	var terms []string
	for _, w := range tokenize(text) {
		if len(w) < 6 || !significant(w) {
			continue
		}
		lower := strings.ToLower(w)
		if hasAnySuffix(lower, domainSuffixes) || hasAnyPrefix(lower, domainPrefixes) {
			terms = append(terms, w)
		}
	}
	return terms
}

func hasAnySuffix(s string, suffixes []string) bool {
	for _, suf := range suffixes {
		if strings.HasSuffix(s, suf) {
			return true
		}
	}
	return false
}

func hasAnyPrefix(s string, prefixes []string) bool {
	for _, pre := range prefixes {
		if strings.HasPrefix(s, pre) {
			return true
		}
	}
	return false
}

// titleResidue rebuilds the slide title from its significant words, minus
// any word already covered by the deck topic. For a slide "Electric Pokemon
// Battles" in a "Pokemon Facts" deck this yields "Electric Battles" — the
// slide-specific part of the title.
func titleResidue(slideTitle string, exclude map[string]struct{}) string {
	var words []string
	for _, w := range significantWords(slideTitle) {
		if _, ok := exclude[strings.ToLower(w)]; ok {
			continue
		}
		words = append(words, w)
	}
	phrase := strings.Join(words, " ")
	if len(phrase) < 3 {
		return ""
	}
	return phrase
}

// ExtractSlideTopics converts one slide into at most max search phrases.
// An externally supplied query hint wins over heuristic extraction, but
// both paths go through the same filter + dedup.
func ExtractSlideTopics(slide model.Slide, deckTitle, hint string, max int) []string {
	if max <= 0 {
		max = DefaultMaxPerSlide
	}
	if !SlideNeedsImages(slide) {
		return nil
	}

	deckTopic := DeckTopic(deckTitle)

	var candidates []string
	if filtered := FilterTerms([]string{hint}); len(filtered) > 0 {
		// Upstream already knows what this slide is about — trust it,
		// keep only the shared deck topic alongside.
		candidates = append(filtered, deckTopic)
	} else {
		exclude := make(map[string]struct{})
		for _, w := range tokenize(deckTopic) {
			exclude[strings.ToLower(w)] = struct{}{}
		}

		body := slide.Title + " " + slide.Content
		candidates = append(candidates, deckTopic)
		candidates = append(candidates, titleResidue(slide.Title, exclude))
		candidates = append(candidates, ProperNounRuns(slide.Content)...)
		candidates = append(candidates, ComparisonPairs(body)...)
		candidates = append(candidates, DomainTerms(body)...)
	}

	return dedupeTopics(FilterTerms(candidates), max)
}

// dedupeTopics removes case-insensitive duplicates and candidates fully
// subsumed by an earlier, longer phrase ("Evolution" after "Evolution
// Timeline" adds nothing but a redundant provider call), then caps the list.
func dedupeTopics(candidates []string, max int) []string {
	var topics []string
	seen := make(map[string]struct{})
	for _, candidate := range candidates {
		lower := strings.ToLower(candidate)
		if _, ok := seen[lower]; ok {
			continue
		}
		if subsumed(lower, topics) {
			continue
		}
		seen[lower] = struct{}{}
		topics = append(topics, candidate)
		if len(topics) == max {
			break
		}
	}
	return topics
}

// subsumed reports whether every word of the candidate already appears in
// one of the accepted phrases.
func subsumed(lower string, accepted []string) bool {
	words := strings.Fields(lower)
	for _, phrase := range accepted {
		phraseWords := make(map[string]struct{})
		for _, w := range strings.Fields(strings.ToLower(phrase)) {
			phraseWords[w] = struct{}{}
		}
		all := true
		for _, w := range words {
			if _, ok := phraseWords[w]; !ok {
				all = false
				break
			}
		}
		if all {
			return true
		}
	}
	return false
}

// BuildTopics derives the deck-wide deduplicated topic set: every slide's
// phrases merged case-insensitively, each topic remembering which slides
// requested it. The same phrase is searched at most once per run no matter
// how many slides share it.
func BuildTopics(outline model.Outline, hints map[string]string, maxPerSlide int) []model.SearchTopic {
	index := make(map[string]*model.SearchTopic)
	var order []string

	for _, slide := range outline.Slides {
		phrases := ExtractSlideTopics(slide, outline.Title, hints[slide.ID], maxPerSlide)
		for _, phrase := range phrases {
			key := strings.ToLower(phrase)
			t, ok := index[key]
			if !ok {
				t = &model.SearchTopic{Text: phrase}
				index[key] = t
				order = append(order, key)
			}
			t.SlideIDs = append(t.SlideIDs, slide.ID)
		}
	}

	topics := make([]model.SearchTopic, 0, len(order))
	for _, key := range order {
		topics = append(topics, *index[key])
	}
	return topics
}
