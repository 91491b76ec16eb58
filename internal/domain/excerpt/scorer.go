package excerpt

import (
	"strings"
	"unicode"
)

// TermOverlapScorer scores a window by how many distinct query terms it
// contains, breaking ties by the total number of term occurrences.
type TermOverlapScorer struct{}

// Score implements Scorer. window must already be lowercased.
func (TermOverlapScorer) Score(terms []string, window []rune) float64 {
	if len(terms) == 0 {
		return 0
	}
	distinct, total := 0, 0
	for _, t := range terms {
		n := len(indexAll(window, []rune(t)))
		if n > 0 {
			distinct++
			total += n
		}
	}
	return float64(distinct)/float64(len(terms)) + 0.01*float64(total)
}

// Tokenize splits a query into unique lowercase terms, dropping stopwords and
// single characters.
func Tokenize(query string) []string {
	fields := strings.FieldsFunc(strings.ToLower(query), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})

	seen := make(map[string]struct{}, len(fields))
	out := make([]string, 0, len(fields))
	for _, f := range fields {
		if len([]rune(f)) < 2 {
			continue
		}
		if _, stop := stopwords[f]; stop {
			continue
		}
		if _, dup := seen[f]; dup {
			continue
		}
		seen[f] = struct{}{}
		out = append(out, f)
	}
	return out
}

var stopwords = map[string]struct{}{
	"a": {}, "about": {}, "an": {}, "and": {}, "are": {}, "as": {}, "at": {},
	"be": {}, "by": {}, "did": {}, "do": {}, "does": {}, "for": {}, "from": {},
	"has": {}, "have": {}, "he": {}, "her": {}, "his": {}, "how": {}, "in": {},
	"is": {}, "it": {}, "its": {}, "of": {}, "on": {}, "or": {}, "she": {},
	"that": {}, "the": {}, "their": {}, "them": {}, "they": {}, "this": {},
	"to": {}, "was": {}, "what": {}, "when": {}, "where": {}, "which": {},
	"who": {}, "why": {}, "will": {}, "with": {}, "would": {},
}
