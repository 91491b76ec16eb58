package query

import (
	"context"

	"github.com/kailas-cloud/polaudit/internal/domain/hit"
	"github.com/kailas-cloud/polaudit/internal/domain/term"
)

// SearchClient runs natural-language queries against the external search service.
type SearchClient interface {
	Search(ctx context.Context, collectionID, query string) (hit.Response, error)
}

// TermResolver maps extracted entities and concepts to knowledge-base articles.
type TermResolver interface {
	ResolveAll(terms []string) []term.ExploreTerm
}

// ExcerptBuilder produces the excerpts shown for a hit.
type ExcerptBuilder interface {
	ForHit(query string, h *hit.Hit, passages []hit.Passage) []string
}

// DocumentCatalog resolves display names and links for source documents.
type DocumentCatalog interface {
	DisplayName(filename string) string
	URL(subject, filename string) string
}
