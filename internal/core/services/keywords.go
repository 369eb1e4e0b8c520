package services

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// minKeywordRunes is the exclusive lower bound on keyword length.
const minKeywordRunes = 2

var stopwords = map[string]struct{}{
	"the": {}, "and": {}, "for": {}, "are": {}, "but": {}, "not": {},
	"you": {}, "all": {}, "any": {}, "can": {}, "had": {}, "her": {},
	"was": {}, "one": {}, "our": {}, "out": {}, "has": {}, "have": {},
	"his": {}, "how": {}, "its": {}, "may": {}, "new": {}, "now": {},
	"old": {}, "see": {}, "two": {}, "who": {}, "did": {}, "she": {},
	"use": {}, "way": {}, "with": {}, "that": {}, "this": {}, "from": {},
	"they": {}, "them": {}, "then": {}, "than": {}, "there": {}, "their": {},
	"these": {}, "those": {}, "what": {}, "when": {}, "where": {}, "which": {},
	"while": {}, "will": {}, "would": {}, "could": {}, "should": {}, "been": {},
	"being": {}, "into": {}, "over": {}, "also": {}, "were": {}, "some": {},
	"such": {}, "only": {}, "very": {}, "just": {}, "more": {}, "most": {},
	"each": {}, "other": {}, "about": {}, "after": {}, "before": {}, "because": {},
	"does": {}, "your": {}, "him": {}, "why": {}, "too": {}, "off": {},
}

// isStopword reports whether w (lowercase) carries no topical meaning.
func isStopword(w string) bool {
	_, ok := stopwords[w]
	return ok
}

// tokenize lowercases s and splits it on anything that is not a letter or digit.
func tokenize(s string) []string {
	return strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

// significantTokens returns the tokens of s that are longer than
// minKeywordRunes and are not stopwords.
func significantTokens(s string) []string {
	var out []string
	for _, tok := range tokenize(s) {
		if utf8.RuneCountInString(tok) <= minKeywordRunes || isStopword(tok) {
			continue
		}
		out = append(out, tok)
	}
	return out
}

// ExtractKeywords returns the distinct significant words of s in order of
// first appearance.
func ExtractKeywords(s string) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, tok := range significantTokens(s) {
		if _, ok := seen[tok]; ok {
			continue
		}
		seen[tok] = struct{}{}
		out = append(out, tok)
	}
	return out
}

// KeywordScore returns the fraction of keywords that match a token of
// candidate. A keyword matches when it is a substring of a token or
// contains one. The result is in [0, 1]; no keywords scores 0.
func KeywordScore(keywords []string, candidate string) float64 {
	if len(keywords) == 0 {
		return 0
	}
	tokens := significantTokens(candidate)
	matched := 0
	for _, kw := range keywords {
		for _, tok := range tokens {
			if strings.Contains(tok, kw) || strings.Contains(kw, tok) {
				matched++
				break
			}
		}
	}
	return float64(matched) / float64(len(keywords))
}
