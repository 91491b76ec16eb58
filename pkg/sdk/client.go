package polaudit

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	dbRedis "github.com/kailas-cloud/polaudit/internal/db/redis"
	"github.com/kailas-cloud/polaudit/internal/domain"
	"github.com/kailas-cloud/polaudit/internal/domain/excerpt"
	"github.com/kailas-cloud/polaudit/internal/domain/search/request"
	"github.com/kailas-cloud/polaudit/internal/domain/search/result"
	"github.com/kailas-cloud/polaudit/internal/domain/training"
	"github.com/kailas-cloud/polaudit/internal/repository/catalog"
	"github.com/kailas-cloud/polaudit/internal/repository/terms"
	"github.com/kailas-cloud/polaudit/internal/transport/discovery"
	feedbackuc "github.com/kailas-cloud/polaudit/internal/usecase/feedback"
	healthuc "github.com/kailas-cloud/polaudit/internal/usecase/health"
	queryuc "github.com/kailas-cloud/polaudit/internal/usecase/query"
	"github.com/kailas-cloud/polaudit/internal/usecase/termcheck"
)

const (
	defaultReadinessTimeout = 10 * time.Second
	defaultTimeout          = 15 * time.Second
	defaultDocumentsDir     = "documents"
	defaultBaseURL          = "http://localhost:3000"
	lockTTL                 = 30 * time.Second
	lockWait                = 10 * time.Second
)

// Internal interfaces, swapped for fakes in tests.
type queryUseCase interface {
	Query(ctx context.Context, req *request.Request) ([]result.Result, error)
}

type feedbackUseCase interface {
	Submit(ctx context.Context, fb training.Feedback) (feedbackuc.Outcome, error)
}

type termCheckUseCase interface {
	Run(ctx context.Context) (termcheck.Report, error)
}

// Client is the polaudit entry point. Safe for concurrent use.
type Client struct {
	subjects    domain.Subjects
	store       *dbRedis.Store
	querySvc    queryUseCase
	feedbackSvc feedbackUseCase
	termSvc     termCheckUseCase
	healthSvc   healthUseCase
	obs         *observer
}

// New loads the term tables, connects the optional Redis lock and returns a
// ready Client. The provided context bounds the Redis readiness check.
func New(ctx context.Context, opts ...Option) (*Client, error) {
	cfg := &clientConfig{
		timeout:      defaultTimeout,
		documentsDir: defaultDocumentsDir,
		baseURL:      defaultBaseURL,
	}
	for _, o := range opts {
		o.apply(cfg)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	obs, err := newObserver(cfg.logger, cfg.metricsReg)
	if err != nil {
		return nil, err
	}

	var store *dbRedis.Store
	if len(cfg.redisAddrs) > 0 {
		store, err = dbRedis.NewStore(dbRedis.Config{
			Addrs:    cfg.redisAddrs,
			Password: cfg.redisPassword,
		})
		if err != nil {
			return nil, fmt.Errorf("polaudit: create redis store: %w", err)
		}
		if err := store.WaitForReady(ctx, defaultReadinessTimeout); err != nil {
			store.Close()
			return nil, fmt.Errorf("polaudit: redis not ready: %w", err)
		}
	}

	c, err := wireClient(cfg, store, obs)
	if err != nil {
		if store != nil {
			store.Close()
		}
		return nil, err
	}
	return c, nil
}

func (cfg *clientConfig) validate() error {
	switch {
	case cfg.discoveryURL == "" || cfg.environmentID == "":
		return errors.New("polaudit: search service required (use WithDiscovery)")
	case len(cfg.collections) == 0:
		return errors.New("polaudit: at least one subject required (use WithCollections)")
	case cfg.ignoredTerms == "" || cfg.articleNames == "" || cfg.articleSummaries == "":
		return errors.New("polaudit: term tables required (use WithTermTables)")
	}
	return nil
}

func wireClient(cfg *clientConfig, store *dbRedis.Store, obs *observer) (*Client, error) {
	resolver, err := terms.Load(terms.Paths{
		IgnoredTerms:     cfg.ignoredTerms,
		ArticleNames:     cfg.articleNames,
		ArticleSummaries: cfg.articleSummaries,
	})
	if err != nil {
		return nil, fmt.Errorf("polaudit: %w", err)
	}

	nop := zap.NewNop()
	subjects := domain.NewSubjects(cfg.collections)
	docs := catalog.New(cfg.documentsDir, cfg.baseURL, cfg.displayNames, nop)

	search := discovery.New(&discovery.Config{
		URL:           cfg.discoveryURL,
		APIKey:        cfg.apiKey,
		EnvironmentID: cfg.environmentID,
		Version:       cfg.version,
		RateLimit:     cfg.rateLimit,
		HTTPClient:    cfg.httpClient,
		Logger:        nop,
	})

	querySvc := queryuc.New(search, subjects, resolver, excerpt.New(), docs).WithTimeout(cfg.timeout)
	feedbackSvc := feedbackuc.New(search, subjects, nop).WithTimeout(cfg.timeout)
	if cfg.maxQueries > 0 {
		feedbackSvc.WithMaxQueries(cfg.maxQueries)
	}

	// Keep the interface nil, not a typed nil pointer, when Redis is off.
	var coordination healthuc.Pinger
	if store != nil {
		feedbackSvc.WithDistributedLock(store, lockTTL, lockWait)
		coordination = store
	}

	// Display names are only audited when a table was supplied.
	var lister termcheck.DocumentLister
	if cfg.displayNames != nil {
		lister = docs
	}

	return &Client{
		subjects:    subjects,
		store:       store,
		querySvc:    querySvc,
		feedbackSvc: feedbackSvc,
		termSvc:     termcheck.New(search, subjects, resolver, lister, nop),
		healthSvc:   healthuc.New(search, coordination),
		obs:         obs,
	}, nil
}

// Close releases all resources.
func (c *Client) Close() {
	if c.store != nil {
		c.store.Close()
	}
}

// Subjects returns the configured subject names, sorted.
func (c *Client) Subjects() []string {
	return c.subjects.Names()
}

// Query searches the subject's collection. Results are ordered by descending
// confidence with at most one result per document file.
func (c *Client) Query(ctx context.Context, subject, q string) (_ []Result, err error) {
	start := time.Now()
	defer func() { c.obs.observe("query", subject, start, err) }()

	req, err := request.New(subject, q)
	if err != nil {
		return nil, err
	}
	rs, err := c.querySvc.Query(ctx, &req)
	if err != nil {
		return nil, err
	}
	out := make([]Result, len(rs))
	for i := range rs {
		out[i] = toResult(&rs[i])
	}
	return out, nil
}

// Feedback stores a relevancy judgement as training data. Submitting the same
// judgement twice is a no-op.
func (c *Client) Feedback(ctx context.Context, fb Feedback) (err error) {
	start := time.Now()
	defer func() { c.obs.observe("feedback", fb.Subject, start, err) }()

	f, err := training.NewFeedback(fb.DocumentID, fb.Query, fb.Subject, training.Relevancy(fb.Relevancy))
	if err != nil {
		return err
	}
	_, err = c.feedbackSvc.Submit(ctx, f)
	return err
}

// CheckTerms audits the term tables against every collection's entities and concepts.
func (c *Client) CheckTerms(ctx context.Context) (_ TermReport, err error) {
	start := time.Now()
	defer func() { c.obs.observe("check_terms", "", start, err) }()

	r, err := c.termSvc.Run(ctx)
	if err != nil {
		return TermReport{}, err
	}
	return TermReport{
		Terms:               r.Terms,
		MissingMappings:     r.MissingMappings,
		MissingSummaries:    r.MissingSummaries,
		MissingDisplayNames: r.MissingDisplayNames,
	}, nil
}

func toResult(r *result.Result) Result {
	terms := make([]Term, len(r.Terms))
	for i, t := range r.Terms {
		terms[i] = Term{
			Original: t.OriginalTerm,
			Title:    t.ArticleTitle,
			Link:     t.ArticleLink,
			Summary:  t.ArticleSummary,
		}
	}
	return Result{
		DisplayName: r.DisplayName,
		DocumentID:  r.DocumentID,
		Filename:    r.Filename,
		Text:        r.Text,
		Excerpts:    r.Excerpts,
		Categories:  r.Categories,
		Confidence:  r.Confidence,
		Score:       r.Score,
		DocumentURL: r.DocumentURL,
		Terms:       terms,
	}
}
