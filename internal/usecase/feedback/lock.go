package feedback

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/kailas-cloud/polaudit/internal/domain"
)

const lockPollInterval = 50 * time.Millisecond

// keyedMutex is a set of context-aware mutexes, one per key.
type keyedMutex struct {
	mu    sync.Mutex
	slots map[string]chan struct{}
}

func newKeyedMutex() *keyedMutex {
	return &keyedMutex{slots: make(map[string]chan struct{})}
}

func (k *keyedMutex) lock(ctx context.Context, key string) (func(), error) {
	k.mu.Lock()
	slot, ok := k.slots[key]
	if !ok {
		slot = make(chan struct{}, 1)
		k.slots[key] = slot
	}
	k.mu.Unlock()

	select {
	case slot <- struct{}{}:
		return func() { <-slot }, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// acquire takes the in-process lock for subject, then the distributed lock when configured.
// The returned release func must be called exactly once.
func (s *Service) acquire(ctx context.Context, subject string) (func(), error) {
	waitCtx, cancel := context.WithTimeout(ctx, s.lockWait)
	defer cancel()

	unlockLocal, err := s.locks.lock(waitCtx, subject)
	if err != nil {
		return nil, lockError(subject, err)
	}
	if s.dist == nil {
		return unlockLocal, nil
	}

	key := "polaudit:lock:feedback:" + subject
	token := uuid.NewString()
	if err := s.pollDistributed(waitCtx, key, token); err != nil {
		unlockLocal()
		return nil, lockError(subject, err)
	}

	stopRenew := s.renew(ctx, subject, key, token)

	return func() {
		stopRenew()
		// Release even when the request context is already done.
		relCtx, relCancel := context.WithTimeout(context.WithoutCancel(ctx), s.lockWait)
		defer relCancel()
		released, err := s.dist.Unlock(relCtx, key, token)
		switch {
		case err != nil:
			s.logger.Warn("failed to release subject lock", zap.String("subject", subject), zap.Error(err))
		case !released:
			s.logger.Warn("subject lock expired before release", zap.String("subject", subject),
				zap.Duration("ttl", s.lockTTL))
		}
		unlockLocal()
	}, nil
}

func (s *Service) pollDistributed(ctx context.Context, key, token string) error {
	ticker := time.NewTicker(lockPollInterval)
	defer ticker.Stop()

	for {
		ok, err := s.dist.TryLock(ctx, key, token, s.lockTTL)
		if err != nil {
			return err
		}
		if ok {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// renew keeps the distributed lock alive at a third of its TTL until the returned
// stop func is called. A lost lock is logged and renewal ends.
func (s *Service) renew(ctx context.Context, subject, key, token string) func() {
	ctx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	done := make(chan struct{})

	go func() {
		defer close(done)
		ticker := time.NewTicker(max(s.lockTTL/3, time.Millisecond))
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
			}
			extCtx, extCancel := context.WithTimeout(ctx, s.lockTTL)
			ok, err := s.dist.Extend(extCtx, key, token, s.lockTTL)
			extCancel()
			switch {
			case err != nil:
				if ctx.Err() != nil {
					return
				}
				s.logger.Warn("failed to extend subject lock", zap.String("subject", subject), zap.Error(err))
			case !ok:
				s.logger.Error("subject lock lost while held", zap.String("subject", subject))
				return
			}
		}
	}()

	return func() {
		cancel()
		<-done
	}
}

func lockError(subject string, err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %s", domain.ErrLockTimeout, subject)
	}
	return fmt.Errorf("lock subject %s: %w", subject, err)
}
