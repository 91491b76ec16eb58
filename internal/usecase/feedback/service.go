// Package feedback records relevancy judgements as training examples in a
// capacity-bounded training store, one collection per subject.
package feedback

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/polaudit/internal/domain"
	"github.com/kailas-cloud/polaudit/internal/domain/training"
	logpkg "github.com/kailas-cloud/polaudit/internal/logger"
	"github.com/kailas-cloud/polaudit/internal/metrics"
	"github.com/kailas-cloud/polaudit/internal/retry"
)

// DefaultMaxQueries is the service-side limit of distinct training queries per collection.
const DefaultMaxQueries = 10_000

// Outcome describes what a submission changed.
type Outcome string

// Submission outcomes.
const (
	OutcomeAppended       Outcome = "appended"
	OutcomeDuplicate      Outcome = "duplicate"
	OutcomeCreated        Outcome = "created"
	OutcomeEvictedCreated Outcome = "evicted_created"
)

// Service is the feedback store. All writes for one subject are serialized.
type Service struct {
	store      TrainingStore
	subjects   domain.Subjects
	locks      *keyedMutex
	dist       DistributedLocker
	lockTTL    time.Duration
	lockWait   time.Duration
	maxQueries int
	timeout    time.Duration
	retry      retry.Config
	logger     *zap.Logger
}

// New creates a feedback service.
func New(store TrainingStore, subjects domain.Subjects, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	rc := retry.DefaultConfig()
	// Per-call timeouts are retried; the caller's own deadline still ends the loop.
	rc.Permanent = nil
	rc.IsPermanent = isPermanent
	rc.Logger = logger

	return &Service{
		store:      store,
		subjects:   subjects,
		locks:      newKeyedMutex(),
		lockTTL:    30 * time.Second,
		lockWait:   10 * time.Second,
		maxQueries: DefaultMaxQueries,
		retry:      rc,
		logger:     logger,
	}
}

// WithMaxQueries overrides the per-collection capacity.
func (s *Service) WithMaxQueries(n int) *Service {
	if n > 0 {
		s.maxQueries = n
	}
	return s
}

// WithTimeout bounds every external call. Zero disables the bound.
func (s *Service) WithTimeout(d time.Duration) *Service {
	s.timeout = d
	return s
}

// WithInsertRetry configures how the insertion and its compensation are retried.
func (s *Service) WithInsertRetry(attempts int, initialDelay time.Duration) *Service {
	if attempts > 0 {
		s.retry.MaxAttempts = attempts
	}
	if initialDelay > 0 {
		s.retry.InitialDelay = initialDelay
	}
	return s
}

// WithDistributedLock adds a cross-replica lock on top of the in-process one.
func (s *Service) WithDistributedLock(l DistributedLocker, ttl, wait time.Duration) *Service {
	s.dist = l
	if ttl > 0 {
		s.lockTTL = ttl
	}
	if wait > 0 {
		s.lockWait = wait
	}
	return s
}

// Submit records fb. The sequence list, decide and mutate runs under the subject lock.
func (s *Service) Submit(ctx context.Context, fb training.Feedback) (Outcome, error) {
	collectionID, err := s.subjects.Collection(fb.Subject)
	if err != nil {
		return "", err
	}
	if !fb.Relevancy.Valid() {
		return "", fmt.Errorf("%w: %d", domain.ErrInvalidRelevancy, fb.Relevancy)
	}
	subject := strings.ToLower(strings.TrimSpace(fb.Subject))
	text := training.NormalizeQuery(fb.Query)
	if text == "" || fb.DocumentID == "" {
		return "", fmt.Errorf("%w: query and documentId are required", domain.ErrInvalidFeedback)
	}

	release, err := s.acquire(ctx, subject)
	if err != nil {
		return "", err
	}
	defer release()

	outcome, err := s.submitLocked(ctx, subject, collectionID, text, training.Example{
		DocumentID: fb.DocumentID,
		Relevancy:  fb.Relevancy,
	})
	if err != nil {
		return "", err
	}

	metrics.FeedbackTotal.WithLabelValues(subject, string(outcome)).Inc()
	logpkg.FromContext(ctx).Debug("feedback recorded",
		zap.String("subject", subject),
		zap.String("outcome", string(outcome)),
	)
	return outcome, nil
}

func (s *Service) submitLocked(
	ctx context.Context, subject, collectionID, text string, ex training.Example,
) (Outcome, error) {
	var queries []training.Query
	err := s.call(ctx, func(ctx context.Context) error {
		var err error
		queries, err = s.store.ListTrainingQueries(ctx, collectionID)
		return err
	})
	if err != nil {
		return "", fmt.Errorf("list training queries: %w", err)
	}

	for i := range queries {
		if queries[i].Text != text {
			continue
		}
		if queries[i].HasDocument(ex.DocumentID) {
			return OutcomeDuplicate, nil
		}
		if err := s.call(ctx, func(ctx context.Context) error {
			return s.store.CreateExample(ctx, collectionID, queries[i].ID, ex)
		}); err != nil {
			return "", fmt.Errorf("create training example: %w", err)
		}
		return OutcomeAppended, nil
	}

	var evicted *training.Query
	if len(queries) >= s.maxQueries {
		victim := queries[training.FewestExamples(queries)]
		if err := s.call(ctx, func(ctx context.Context) error {
			return s.store.DeleteTrainingQuery(ctx, collectionID, victim.ID)
		}); err != nil {
			return "", fmt.Errorf("evict training query: %w", err)
		}
		metrics.FeedbackEvictionsTotal.WithLabelValues(subject).Inc()
		s.logger.Info("training query evicted",
			zap.String("subject", subject),
			zap.String("query_id", victim.ID),
			zap.Int("examples", len(victim.Examples)),
		)
		evicted = &victim
	}

	insertErr := s.addQuery(ctx, collectionID, text, []training.Example{ex})

	// A failed write may still have landed. Check before deciding to compensate.
	var present map[string]bool
	if insertErr != nil {
		var err error
		present, err = s.queryTexts(context.WithoutCancel(ctx), collectionID)
		if err != nil {
			s.logger.Warn("failed to reconcile training queries", zap.String("subject", subject), zap.Error(err))
		}
		if present[text] {
			s.logger.Warn("insert reported failure but query exists",
				zap.String("subject", subject),
				zap.Error(insertErr),
			)
			insertErr = nil
		}
	}
	if insertErr == nil {
		if evicted != nil {
			return OutcomeEvictedCreated, nil
		}
		return OutcomeCreated, nil
	}

	if evicted == nil {
		return "", fmt.Errorf("add training query: %w", insertErr)
	}
	if present[evicted.Text] {
		return "", fmt.Errorf("add training query: %w", insertErr)
	}
	if err := s.restore(ctx, collectionID, evicted); err != nil {
		s.logger.Error("failed to restore evicted training query",
			zap.String("subject", subject),
			zap.String("query_id", evicted.ID),
			zap.Error(err),
		)
		return "", fmt.Errorf("%w: %w", domain.ErrCompensationFailed, errors.Join(insertErr, err))
	}
	s.logger.Warn("insert after eviction failed, evicted query restored",
		zap.String("subject", subject),
		zap.Error(insertErr),
	)
	return "", fmt.Errorf("add training query: %w", insertErr)
}

// restore re-adds an evicted query. It runs detached from ctx cancellation so a
// client disconnect does not leave the collection one query short.
func (s *Service) restore(ctx context.Context, collectionID string, q *training.Query) error {
	return s.addQuery(context.WithoutCancel(ctx), collectionID, q.Text, q.Examples)
}

// addQuery inserts a training query with retries. The insert is not idempotent
// and a timed out call may have been applied, so every retry first re-lists the
// collection and counts an existing query with the same text as success.
func (s *Service) addQuery(ctx context.Context, collectionID, text string, examples []training.Example) error {
	attempt := 0
	return retry.Do(ctx, s.retry, func(ctx context.Context) error {
		attempt++
		if attempt > 1 {
			present, err := s.queryTexts(ctx, collectionID)
			if err != nil {
				return err
			}
			if present[text] {
				return nil
			}
		}
		return s.call(ctx, func(ctx context.Context) error {
			_, err := s.store.AddTrainingQuery(ctx, collectionID, text, examples)
			return err
		})
	})
}

// queryTexts lists the texts currently stored in collectionID.
func (s *Service) queryTexts(ctx context.Context, collectionID string) (map[string]bool, error) {
	var queries []training.Query
	err := s.call(ctx, func(ctx context.Context) error {
		var err error
		queries, err = s.store.ListTrainingQueries(ctx, collectionID)
		return err
	})
	if err != nil {
		return nil, err
	}
	texts := make(map[string]bool, len(queries))
	for _, q := range queries {
		texts[q.Text] = true
	}
	return texts, nil
}

// call runs fn under the per-call timeout.
func (s *Service) call(ctx context.Context, fn func(ctx context.Context) error) error {
	if s.timeout <= 0 {
		return fn(ctx)
	}
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	return fn(ctx)
}

// isPermanent stops retries on client-side service errors and cancellation.
func isPermanent(err error) bool {
	if errors.Is(err, context.Canceled) {
		return true
	}
	var se *domain.ServiceError
	if errors.As(err, &se) {
		return !se.Temporary()
	}
	return false
}
