package query

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/polaudit/internal/domain"
	"github.com/kailas-cloud/polaudit/internal/domain/hit"
	"github.com/kailas-cloud/polaudit/internal/domain/search/request"
	"github.com/kailas-cloud/polaudit/internal/domain/search/result"
	logpkg "github.com/kailas-cloud/polaudit/internal/logger"
)

// Service turns raw search hits into ranked, de-duplicated results.
// It holds no mutable state; concurrent calls need no coordination.
type Service struct {
	search   SearchClient
	subjects domain.Subjects
	terms    TermResolver
	excerpts ExcerptBuilder
	catalog  DocumentCatalog
	timeout  time.Duration
}

// New creates a query service.
func New(
	search SearchClient,
	subjects domain.Subjects,
	terms TermResolver,
	excerpts ExcerptBuilder,
	catalog DocumentCatalog,
) *Service {
	return &Service{
		search:   search,
		subjects: subjects,
		terms:    terms,
		excerpts: excerpts,
		catalog:  catalog,
	}
}

// WithTimeout bounds the external search call. Zero disables the bound.
func (s *Service) WithTimeout(d time.Duration) *Service {
	s.timeout = d
	return s
}

// Query searches the subject's collection and returns the aggregated results.
// Unknown subjects fail before any external call.
func (s *Service) Query(ctx context.Context, req *request.Request) ([]result.Result, error) {
	collectionID, err := s.subjects.Collection(req.Subject())
	if err != nil {
		return nil, err
	}

	searchCtx := ctx
	if s.timeout > 0 {
		var cancel context.CancelFunc
		searchCtx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	resp, err := s.search.Search(searchCtx, collectionID, req.Query())
	if err != nil {
		return nil, fmt.Errorf("search %s: %w", req.Subject(), err)
	}

	formatted := make([]result.Result, len(resp.Hits))
	for i := range resp.Hits {
		formatted[i] = s.format(req, &resp.Hits[i], resp.Passages)
	}

	results := aggregate(formatted)

	logpkg.FromContext(ctx).Debug("query aggregated",
		zap.String("subject", req.Subject()),
		zap.Int("hits", len(resp.Hits)),
		zap.Int("passages", len(resp.Passages)),
		zap.Int("results", len(results)),
	)
	return results, nil
}

// format builds the result for a single hit.
func (s *Service) format(req *request.Request, h *hit.Hit, passages []hit.Passage) result.Result {
	terms := make([]string, 0, len(h.Entities)+len(h.Concepts))
	terms = append(terms, h.Entities...)
	terms = append(terms, h.Concepts...)

	return result.Result{
		DisplayName: s.catalog.DisplayName(h.Filename),
		DocumentID:  h.ID,
		Filename:    h.Filename,
		Text:        h.Text,
		Excerpts:    s.excerpts.ForHit(req.Query(), h, passages),
		Categories:  normalizeCategories(h.Categories),
		Confidence:  max(h.Confidence, 0),
		Score:       max(h.Score, 0),
		DocumentURL: s.catalog.URL(req.Subject(), h.Filename),
		Terms:       s.terms.ResolveAll(terms),
	}
}
