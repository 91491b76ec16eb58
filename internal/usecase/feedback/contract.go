package feedback

import (
	"context"
	"time"

	"github.com/kailas-cloud/polaudit/internal/domain/training"
)

// TrainingStore is the external training data collection of one search service.
type TrainingStore interface {
	ListTrainingQueries(ctx context.Context, collectionID string) ([]training.Query, error)
	CreateExample(ctx context.Context, collectionID, queryID string, ex training.Example) error
	AddTrainingQuery(ctx context.Context, collectionID, text string, examples []training.Example) (training.Query, error)
	DeleteTrainingQuery(ctx context.Context, collectionID, queryID string) error
}

// DistributedLocker serializes writers across replicas.
type DistributedLocker interface {
	TryLock(ctx context.Context, key, token string, ttl time.Duration) (bool, error)
	Unlock(ctx context.Context, key, token string) (bool, error)
	Extend(ctx context.Context, key, token string, ttl time.Duration) (bool, error)
}
