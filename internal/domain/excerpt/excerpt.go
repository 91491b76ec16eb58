// Package excerpt extracts bounded text windows from documents as supporting
// evidence for search results. Everything here is a pure computation over
// request-local data.
package excerpt

import (
	"math"
	"regexp"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/kailas-cloud/polaudit/internal/domain/hit"
)

const (
	// DefaultLength is the excerpt window length in characters.
	DefaultLength = 500
	// DefaultCount is the number of excerpts extracted from a document body.
	DefaultCount = 2
	// PassageCount is the number of top service passages kept per hit.
	PassageCount = 2

	// maxCorrupted is the number of placeholder characters an excerpt may lose
	// to cleaning before it is rejected.
	maxCorrupted = 100
)

// placeholderRe matches OCR / font-encoding artifacts left by PDF text extraction.
var placeholderRe = regexp.MustCompile(`GLYPH<[^>]*>|\(cid:\d+\)|/uni[0-9A-Fa-f]{4}|\x{FFFD}`)

// Scorer rates how relevant a window of text is to the query terms.
type Scorer interface {
	Score(terms []string, window []rune) float64
}

// Engine extracts, extends and filters excerpts.
type Engine struct {
	scorer Scorer
	length int
	count  int
}

// Option configures an Engine.
type Option func(*Engine)

// WithScorer replaces the default term-overlap scorer.
func WithScorer(s Scorer) Option {
	return func(e *Engine) { e.scorer = s }
}

// WithLength sets the window length.
func WithLength(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.length = n
		}
	}
}

// WithCount sets the number of windows extracted from the document body.
func WithCount(k int) Option {
	return func(e *Engine) {
		if k > 0 {
			e.count = k
		}
	}
}

// New creates an engine with the default window length and count.
func New(opts ...Option) *Engine {
	e := &Engine{scorer: TermOverlapScorer{}, length: DefaultLength, count: DefaultCount}
	for _, o := range opts {
		o(e)
	}
	return e
}

// ForHit builds the excerpt list for one hit: windows extracted from the text
// followed by the extended top passages, with bad excerpts dropped. Duplicates
// between the two sources are kept.
func (e *Engine) ForHit(query string, h *hit.Hit, passages []hit.Passage) []string {
	candidates := e.Extract(query, h.Text, e.count, e.length)
	candidates = append(candidates, e.FromPassages(h.ID, h.Text, passages)...)

	out := make([]string, 0, len(candidates))
	for _, c := range candidates {
		if IsGood(c) {
			out = append(out, c)
		}
	}
	return out
}

// FromPassages selects the passages that belong to documentID, keeps the
// PassageCount highest scoring ones and extends each to a full window.
func (e *Engine) FromPassages(documentID, text string, passages []hit.Passage) []string {
	own := make([]hit.Passage, 0, len(passages))
	for _, p := range passages {
		if p.DocumentID == documentID {
			own = append(own, p)
		}
	}
	sort.SliceStable(own, func(i, j int) bool { return own[i].Score > own[j].Score })
	if len(own) > PassageCount {
		own = own[:PassageCount]
	}

	out := make([]string, len(own))
	for i, p := range own {
		out[i] = Extend(p.Text, text, e.length)
	}
	return out
}

// Extract returns up to k non-overlapping windows of at most length characters
// from text, most relevant to query first. Empty text or a query that matches
// nothing yields no windows.
func (e *Engine) Extract(query, text string, k, length int) []string {
	if text == "" || k <= 0 || length <= 0 {
		return nil
	}
	terms := Tokenize(query)
	if len(terms) == 0 {
		return nil
	}

	doc := []rune(text)
	lower := make([]rune, len(doc))
	for i, r := range doc {
		lower[i] = unicode.ToLower(r)
	}

	type window struct {
		start, end int
		score      float64
	}

	seen := make(map[int]struct{})
	var windows []window
	for _, t := range terms {
		tr := []rune(t)
		for _, pos := range indexAll(lower, tr) {
			start, end := centerWindow(pos, len(tr), length, len(doc))
			if _, dup := seen[start]; dup {
				continue
			}
			seen[start] = struct{}{}
			windows = append(windows, window{start: start, end: end, score: e.scorer.Score(terms, lower[start:end])})
		}
	}
	if len(windows) == 0 {
		return nil
	}

	sort.SliceStable(windows, func(i, j int) bool {
		if windows[i].score != windows[j].score {
			return windows[i].score > windows[j].score
		}
		return windows[i].start < windows[j].start
	})

	var picked []window
	for _, w := range windows {
		if len(picked) == k {
			break
		}
		overlaps := false
		for _, p := range picked {
			if w.start < p.end && p.start < w.end {
				overlaps = true
				break
			}
		}
		if !overlaps {
			picked = append(picked, w)
		}
	}

	out := make([]string, len(picked))
	for i, w := range picked {
		out[i] = string(doc[w.start:w.end])
	}
	return out
}

// Extend centers a window of length characters on the first occurrence of
// passage in document. Windows are clamped at the document edges; the clamped
// remainder is not moved to the other side. Returns "" when passage is empty or
// absent.
func Extend(passage, document string, length int) string {
	if passage == "" {
		return ""
	}
	idx := strings.Index(document, passage)
	if idx < 0 {
		return ""
	}

	doc := []rune(document)
	start := utf8.RuneCountInString(document[:idx])
	plen := utf8.RuneCountInString(passage)
	delta := int(math.Ceil(float64(length-plen) / 2))

	from := max(0, start-delta)
	to := min(len(doc), start+plen+delta)
	if from >= to {
		return ""
	}
	return string(doc[from:to])
}

// Clean strips placeholder artifacts from an excerpt.
func Clean(s string) string {
	return placeholderRe.ReplaceAllString(s, "")
}

// IsGood rejects empty excerpts and excerpts that lose more than 100
// characters to Clean.
func IsGood(s string) bool {
	if s == "" {
		return false
	}
	return utf8.RuneCountInString(Clean(s)) >= utf8.RuneCountInString(s)-maxCorrupted
}

// centerWindow returns the [start,end) window of size length centered on a
// match, shifted to stay inside a document of n runes.
func centerWindow(pos, matchLen, length, n int) (int, int) {
	if n <= length {
		return 0, n
	}
	start := pos - (length-matchLen)/2
	start = max(0, min(start, n-length))
	return start, start + length
}

func indexAll(haystack, needle []rune) []int {
	if len(needle) == 0 || len(needle) > len(haystack) {
		return nil
	}
	var out []int
	for i := 0; i+len(needle) <= len(haystack); i++ {
		if hasPrefixAt(haystack, needle, i) {
			out = append(out, i)
		}
	}
	return out
}

func hasPrefixAt(haystack, needle []rune, i int) bool {
	for j, r := range needle {
		if haystack[i+j] != r {
			return false
		}
	}
	return true
}
