package polaudit

// Relevancy is a relevance label on the 0..10 training scale.
type Relevancy int

// Allowed relevancy labels.
const (
	NotRelevant      Relevancy = 0
	SomewhatRelevant Relevancy = 5
	Relevant         Relevancy = 10
)

// Result is one aggregated search result, at most one per document file.
type Result struct {
	DisplayName string
	DocumentID  string
	Filename    string
	Text        string
	Excerpts    []string
	Categories  []string
	Confidence  float64
	Score       float64
	DocumentURL string
	Terms       []Term
}

// Term is an entity or concept of a result, resolved to a knowledge-base
// article when the term tables know it.
type Term struct {
	Original string
	Title    string
	Link     string
	Summary  string
}

// Feedback is a relevancy judgement for one document under one query.
type Feedback struct {
	DocumentID string
	Query      string
	Subject    string
	Relevancy  Relevancy
}

// TermReport lists what the term tables and display names do not cover.
type TermReport struct {
	Terms               int
	MissingMappings     []string
	MissingSummaries    []string
	MissingDisplayNames []string
}
