// Package topic derives image-search phrases from slide and deck text.
// Extraction is a small pipeline of independent strategies (deck-title
// topic, proper-noun runs, comparison pairs, domain terms, title residue)
// followed by a single filter + dedup step. Everything here is pure and
// deterministic — no randomness, no I/O — so each strategy is testable
// in isolation.
package topic

import (
	"regexp"
	"strings"
)

// stopWords are articles, conjunctions, prepositions and common verbs that
// never carry search meaning on their own.
var stopWords = map[string]struct{}{
	"a": {}, "an": {}, "the": {}, "and": {}, "or": {}, "but": {}, "nor": {},
	"of": {}, "in": {}, "on": {}, "at": {}, "to": {}, "for": {}, "from": {},
	"with": {}, "without": {}, "about": {}, "into": {}, "over": {}, "under": {},
	"is": {}, "are": {}, "was": {}, "were": {}, "be": {}, "been": {}, "being": {},
	"have": {}, "has": {}, "had": {}, "do": {}, "does": {}, "did": {},
	"will": {}, "would": {}, "can": {}, "could": {}, "should": {}, "may": {},
	"this": {}, "that": {}, "these": {}, "those": {}, "it": {}, "its": {},
	"your": {}, "our": {}, "their": {}, "his": {}, "her": {}, "my": {},
	"how": {}, "what": {}, "when": {}, "where": {}, "why": {}, "who": {},
	"not": {}, "all": {}, "any": {}, "each": {}, "more": {}, "most": {},
	"as": {}, "by": {}, "so": {}, "than": {}, "then": {}, "too": {}, "very": {},
}

// vagueTerms are words that pass the stop-word filter but make useless
// image queries — generic media words and deck-structure words. Searching
// "photo" or "overview" returns noise, so these are dropped outright.
var vagueTerms = map[string]struct{}{
	"image": {}, "images": {}, "photo": {}, "photos": {}, "picture": {},
	"pictures": {}, "graphic": {}, "graphics": {}, "icon": {}, "icons": {},
	"background": {}, "content": {}, "visual": {}, "visuals": {},
	"illustration": {}, "thumbnail": {},
	"slide": {}, "slides": {}, "deck": {}, "presentation": {},
	"overview": {}, "introduction": {}, "intro": {}, "conclusion": {},
	"summary": {}, "agenda": {}, "outline": {}, "recap": {},
	"original": {}, "comparison": {}, "stats": {}, "statistics": {},
	"facts": {}, "basics": {}, "examples": {}, "example": {},
	"things": {}, "stuff": {}, "topics": {}, "ideas": {}, "tips": {},
}

var wordPattern = regexp.MustCompile(`[A-Za-z][A-Za-z0-9'-]*`)

// tokenize splits free text into word tokens, preserving casing.
func tokenize(text string) []string {
	return wordPattern.FindAllString(text, -1)
}

// significant reports whether a single word carries search meaning:
// at least 3 characters and neither a stop word nor a vague term.
func significant(word string) bool {
	if len(word) < 3 {
		return false
	}
	lower := strings.ToLower(word)
	if _, ok := stopWords[lower]; ok {
		return false
	}
	if _, ok := vagueTerms[lower]; ok {
		return false
	}
	return true
}

// FilterTerms drops candidates with no search meaning: phrases shorter
// than 3 characters, or phrases whose every word is a stop word or vague
// term. Casing is preserved on survivors.
func FilterTerms(candidates []string) []string {
	var kept []string
	for _, candidate := range candidates {
		phrase := strings.TrimSpace(candidate)
		if len(phrase) < 3 {
			continue
		}
		words := tokenize(phrase)
		if len(words) == 0 {
			continue
		}
		meaningful := false
		for _, w := range words {
			if significant(w) {
				meaningful = true
				break
			}
		}
		if meaningful {
			kept = append(kept, phrase)
		}
	}
	return kept
}

// significantWords returns the significant tokens of a text, in order.
func significantWords(text string) []string {
	var words []string
	for _, w := range tokenize(text) {
		if significant(w) {
			words = append(words, w)
		}
	}
	return words
}
