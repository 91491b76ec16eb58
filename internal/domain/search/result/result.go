package result

import "github.com/kailas-cloud/polaudit/internal/domain/term"

// Result is one formatted search result. Only one Result per filename survives
// aggregation.
type Result struct {
	DisplayName string             `json:"displayName"`
	DocumentID  string             `json:"documentId"`
	Filename    string             `json:"filename"`
	Text        string             `json:"text"`
	Excerpts    []string           `json:"excerpts"`
	Categories  []string           `json:"categories"`
	Confidence  float64            `json:"confidence"`
	Score       float64            `json:"score"`
	DocumentURL string             `json:"documentUrl"`
	Terms       []term.ExploreTerm `json:"terms"`
}

// Merge folds a later duplicate into r. Categories and excerpts become the
// ordered union of both, confidence and score the maximum. Every other field
// keeps r's value.
func (r *Result) Merge(other *Result) {
	r.Categories = union(r.Categories, other.Categories)
	r.Excerpts = union(r.Excerpts, other.Excerpts)
	r.Confidence = max(r.Confidence, other.Confidence)
	r.Score = max(r.Score, other.Score)
}

// union returns the distinct elements of a followed by those of b, in first-seen order.
func union(a, b []string) []string {
	seen := make(map[string]struct{}, len(a)+len(b))
	out := make([]string, 0, len(a)+len(b))
	for _, list := range [][]string{a, b} {
		for _, s := range list {
			if _, ok := seen[s]; ok {
				continue
			}
			seen[s] = struct{}{}
			out = append(out, s)
		}
	}
	return out
}
