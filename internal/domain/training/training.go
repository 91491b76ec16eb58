// Package training models relevancy feedback and the training queries it is
// stored under in the external search service.
package training

import (
	"fmt"
	"strings"

	"github.com/kailas-cloud/polaudit/internal/domain"
)

// Relevancy is a human-assigned relevance label on the service's 0..10 scale.
type Relevancy int

// Allowed relevancy labels.
const (
	NotRelevant      Relevancy = 0
	SomewhatRelevant Relevancy = 5
	Relevant         Relevancy = 10
)

// Valid reports whether r is one of the allowed labels.
func (r Relevancy) Valid() bool {
	switch r {
	case NotRelevant, SomewhatRelevant, Relevant:
		return true
	default:
		return false
	}
}

// Example associates a document with a relevancy label.
type Example struct {
	DocumentID string
	Relevancy  Relevancy
}

// Query is a training query persisted in the external service.
type Query struct {
	ID       string
	Text     string
	Examples []Example
}

// HasDocument reports whether the query already holds an example for documentID.
func (q *Query) HasDocument(documentID string) bool {
	for _, ex := range q.Examples {
		if ex.DocumentID == documentID {
			return true
		}
	}
	return false
}

// NormalizeQuery prepares query text for matching against stored training queries.
func NormalizeQuery(q string) string {
	return strings.ToLower(strings.TrimSpace(q))
}

// Feedback is an inbound relevancy judgement.
type Feedback struct {
	DocumentID string
	Query      string
	Subject    string
	Relevancy  Relevancy
}

// NewFeedback validates and creates a Feedback.
func NewFeedback(documentID, query, subject string, relevancy Relevancy) (Feedback, error) {
	switch {
	case documentID == "":
		return Feedback{}, fmt.Errorf("%w: documentId is required", domain.ErrInvalidFeedback)
	case strings.TrimSpace(query) == "":
		return Feedback{}, fmt.Errorf("%w: query is required", domain.ErrInvalidFeedback)
	case subject == "":
		return Feedback{}, fmt.Errorf("%w: subject is required", domain.ErrInvalidFeedback)
	}
	if !relevancy.Valid() {
		return Feedback{}, fmt.Errorf("%w: %d", domain.ErrInvalidRelevancy, relevancy)
	}
	return Feedback{
		DocumentID: documentID,
		Query:      query,
		Subject:    subject,
		Relevancy:  relevancy,
	}, nil
}

// FewestExamples returns the index of the query with the fewest examples.
// The first query wins ties. Returns -1 for an empty slice.
func FewestExamples(queries []Query) int {
	victim := -1
	for i := range queries {
		if victim < 0 || len(queries[i].Examples) < len(queries[victim].Examples) {
			victim = i
		}
	}
	return victim
}
