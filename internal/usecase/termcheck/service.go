// Package termcheck cross-references the live entities and concepts of every
// collection against the local term tables and the document display names.
// Mismatches are reported and logged, never treated as failures.
package termcheck

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/kailas-cloud/polaudit/internal/domain"
	"github.com/kailas-cloud/polaudit/internal/domain/hit"
)

// TopN is how many values per field are requested from the search service.
const TopN = 1000

// Report lists everything the tables do not cover. All slices are sorted.
type Report struct {
	Terms               int      `json:"terms"`
	MissingMappings     []string `json:"missing_mappings"`
	MissingSummaries    []string `json:"missing_summaries"`
	MissingDisplayNames []string `json:"missing_display_names"`
}

// Clean reports whether nothing is missing.
func (r *Report) Clean() bool {
	return len(r.MissingMappings) == 0 && len(r.MissingSummaries) == 0 && len(r.MissingDisplayNames) == 0
}

// Service runs the diagnostic.
type Service struct {
	agg         Aggregator
	subjects    domain.Subjects
	dict        Dictionary
	docs        DocumentLister
	concurrency int
	logger      *zap.Logger
}

// New creates the diagnostic. docs may be nil to skip the display name check.
func New(agg Aggregator, subjects domain.Subjects, dict Dictionary, docs DocumentLister, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		agg:         agg,
		subjects:    subjects,
		dict:        dict,
		docs:        docs,
		concurrency: 4,
		logger:      logger,
	}
}

// Run fetches entities and concepts for every subject and checks them.
// It fails only when the live terms cannot be fetched.
func (s *Service) Run(ctx context.Context) (Report, error) {
	terms, err := s.fetchTerms(ctx)
	if err != nil {
		return Report{}, err
	}

	report := s.checkTerms(terms)
	if s.docs != nil {
		missing, err := s.checkDisplayNames()
		if err != nil {
			return Report{}, err
		}
		report.MissingDisplayNames = missing
	}

	s.logger.Info("finished checking terms",
		zap.Int("terms", report.Terms),
		zap.Int("missing_mappings", len(report.MissingMappings)),
		zap.Int("missing_summaries", len(report.MissingSummaries)),
		zap.Int("missing_display_names", len(report.MissingDisplayNames)),
	)
	return report, nil
}

// fetchTerms queries subjects x {entities, concepts} concurrently and
// returns the distinct non-empty keys.
func (s *Service) fetchTerms(ctx context.Context) ([]string, error) {
	var (
		mu   sync.Mutex
		seen = make(map[string]struct{})
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)

	for _, subject := range s.subjects.Names() {
		collectionID, err := s.subjects.Collection(subject)
		if err != nil {
			return nil, err
		}
		for _, field := range []string{hit.FieldEntities, hit.FieldConcepts} {
			g.Go(func() error {
				counts, err := s.agg.TermAggregate(gctx, collectionID, field, TopN)
				if err != nil {
					return fmt.Errorf("aggregate %s for %s: %w", field, subject, err)
				}
				mu.Lock()
				defer mu.Unlock()
				for _, c := range counts {
					if c.Term != "" {
						seen[c.Term] = struct{}{}
					}
				}
				return nil
			})
		}
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := make([]string, 0, len(seen))
	for t := range seen {
		out = append(out, t)
	}
	slices.Sort(out)
	return out, nil
}

func (s *Service) checkTerms(terms []string) Report {
	report := Report{Terms: len(terms)}
	titles := make(map[string]struct{})

	for _, t := range terms {
		if !s.dict.Known(t) {
			s.logger.Warn("missing term to article mapping", zap.String("term", t))
			report.MissingMappings = append(report.MissingMappings, t)
			continue
		}
		if s.dict.ShouldIgnore(t) {
			continue
		}
		article, ok := s.dict.Article(t)
		if !ok {
			continue
		}
		if summary, ok := s.dict.Summary(article.Title); ok && summary != "" {
			continue
		}
		if _, dup := titles[article.Title]; dup {
			continue
		}
		titles[article.Title] = struct{}{}
		s.logger.Warn("missing article summary", zap.String("title", article.Title))
		report.MissingSummaries = append(report.MissingSummaries, article.Title)
	}

	slices.Sort(report.MissingSummaries)
	return report
}

func (s *Service) checkDisplayNames() ([]string, error) {
	var missing []string
	for _, subject := range s.subjects.Names() {
		files, err := s.docs.List(subject)
		if err != nil {
			return nil, fmt.Errorf("list documents for %s: %w", subject, err)
		}
		for _, f := range files {
			if !s.docs.HasDisplayName(f) {
				s.logger.Warn("missing display name", zap.String("subject", subject), zap.String("filename", f))
				missing = append(missing, subject+"/"+f)
			}
		}
	}
	slices.Sort(missing)
	return missing, nil
}
