// Package tokenizer turns comic text into the terms stored in the index.
//
// Text is split on runs of spaces and newlines. Each token loses every rune
// that is not a letter or a number, is lower-cased, reduced with the Porter
// stemmer, and dropped if the stem is empty or an English stop word. The
// stemming step is part of the on-disk index contract: changing it changes
// which terms existing postings can be matched against.
package tokenizer

import (
	"strings"
	"unicode"

	porterstemmer "github.com/blevesearch/go-porterstemmer"

	"github.com/Adithya-Monish-Kumar-K/xkcd-index/internal/indexer/index"
)

var stopWords = map[string]struct{}{
	"i": {}, "me": {}, "my": {}, "myself": {}, "we": {}, "our": {}, "ours": {},
	"ourselves": {}, "you": {}, "your": {}, "yours": {}, "yourself": {},
	"yourselves": {}, "he": {}, "him": {}, "his": {}, "himself": {}, "she": {},
	"her": {}, "hers": {}, "herself": {}, "it": {}, "its": {}, "itself": {},
	"they": {}, "them": {}, "their": {}, "theirs": {}, "themselves": {},
	"what": {}, "which": {}, "who": {}, "whom": {}, "this": {}, "that": {},
	"these": {}, "those": {}, "am": {}, "is": {}, "are": {}, "was": {},
	"were": {}, "be": {}, "been": {}, "being": {}, "have": {}, "has": {},
	"had": {}, "having": {}, "do": {}, "does": {}, "did": {}, "doing": {},
	"a": {}, "an": {}, "the": {}, "and": {}, "but": {}, "if": {}, "or": {},
	"because": {}, "as": {}, "until": {}, "while": {}, "of": {}, "at": {},
	"by": {}, "for": {}, "with": {}, "about": {}, "against": {}, "between": {},
	"into": {}, "through": {}, "during": {}, "before": {}, "after": {},
	"above": {}, "below": {}, "to": {}, "from": {}, "up": {}, "down": {},
	"in": {}, "out": {}, "on": {}, "off": {}, "over": {}, "under": {},
	"again": {}, "further": {}, "then": {}, "once": {}, "here": {}, "there": {},
	"when": {}, "where": {}, "why": {}, "how": {}, "all": {}, "any": {},
	"both": {}, "each": {}, "few": {}, "more": {}, "most": {}, "other": {},
	"some": {}, "such": {}, "no": {}, "nor": {}, "not": {}, "only": {},
	"own": {}, "same": {}, "so": {}, "than": {}, "too": {}, "very": {},
	"s": {}, "t": {}, "can": {}, "will": {}, "just": {}, "don": {},
	"should": {}, "now": {},
}

// Analysis is the result of normalizing one piece of text.
type Analysis struct {
	// Terms counts every stemmed, non-stop-word term.
	Terms index.TermFrequencies
	// Discarded holds the raw tokens whose stem came out empty.
	Discarded []string
}

// SearchableText joins the fields of a comic that are indexed.
func SearchableText(title, transcript string) string {
	return title + " " + transcript
}

// Analyze normalizes text into term counts. It has no side effects; callers
// decide how to report Discarded tokens.
func Analyze(text string) Analysis {
	out := Analysis{Terms: make(index.TermFrequencies)}
	for _, raw := range split(text) {
		term := Term(raw)
		if term == "" {
			out.Discarded = append(out.Discarded, raw)
			continue
		}
		if IsStopWord(term) {
			continue
		}
		out.Terms[term]++
	}
	return out
}

// Normalize returns only the term counts of Analyze.
func Normalize(text string) index.TermFrequencies {
	return Analyze(text).Terms
}

// Term normalizes a single raw token. It returns "" when nothing indexable
// is left.
func Term(raw string) string {
	cleaned := strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsNumber(r) {
			return r
		}
		return -1
	}, raw)
	cleaned = strings.ToLower(strings.TrimSpace(cleaned))
	if cleaned == "" {
		return ""
	}
	return porterstemmer.StemString(cleaned)
}

// IsStopWord reports whether term is excluded from the index.
func IsStopWord(term string) bool {
	_, ok := stopWords[term]
	return ok
}

func split(text string) []string {
	return strings.FieldsFunc(text, func(r rune) bool {
		return r == ' ' || r == '\n'
	})
}
