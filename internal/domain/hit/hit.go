// Package hit models the raw search payload returned by the external search
// service. Optional upstream fields are defaulted once, when the payload is
// decoded, so downstream formatting never deals with missing values.
package hit

// Hit is a single raw search result.
type Hit struct {
	ID         string
	Text       string
	Filename   string
	Confidence float64
	Score      float64
	Entities   []string
	Concepts   []string
	Categories []string // hierarchical labels, e.g. "/law, govt and politics/government"
}

// Passage is a service-provided candidate excerpt.
type Passage struct {
	DocumentID string
	Text       string
	Score      float64
}

// Response is the outcome of a single search call.
type Response struct {
	Hits     []Hit
	Passages []Passage
}

// TermCount is one bucket of a term aggregation.
type TermCount struct {
	Term  string
	Count int
}

// Aggregated fields of the enrichment index.
const (
	FieldEntities = "enriched_text.entities.text"
	FieldConcepts = "enriched_text.concepts.text"
)
