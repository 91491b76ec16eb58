package termcheck

import (
	"context"

	"github.com/kailas-cloud/polaudit/internal/domain/hit"
	"github.com/kailas-cloud/polaudit/internal/domain/term"
)

// Aggregator enumerates the most frequent values of an enriched field.
type Aggregator interface {
	TermAggregate(ctx context.Context, collectionID, field string, topN int) ([]hit.TermCount, error)
}

// Dictionary is the loaded term tables.
type Dictionary interface {
	Known(term string) bool
	ShouldIgnore(term string) bool
	Article(term string) (term.Article, bool)
	Summary(title string) (string, bool)
}

// DocumentLister lists served documents and their display names.
type DocumentLister interface {
	List(subject string) ([]string, error)
	HasDisplayName(filename string) bool
}
