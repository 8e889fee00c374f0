package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	eventqueue "github.com/okian/flyerhub/internal/adapters/mq/queue"
	"github.com/okian/flyerhub/internal/adapters/repository"
	"github.com/okian/flyerhub/internal/domain/catalog"
	"github.com/okian/flyerhub/internal/domain/model"
	"github.com/okian/flyerhub/pkg/logger"
	"github.com/okian/flyerhub/pkg/metrics"
)

// snapshotter moves one store's whole state to and from the repository.
type snapshotter struct {
	snapshot func(ctx context.Context) any
	restore  func(ctx context.Context, store repository.Store, key string) (bool, error)
}

// restoreInto loads key into a fresh T and hands it to apply.
func restoreInto[T any](apply func(ctx context.Context, v T)) func(context.Context, repository.Store, string) (bool, error) {
	return func(ctx context.Context, store repository.Store, key string) (bool, error) {
		var v T
		found, err := store.Load(ctx, key, &v)
		if err != nil || !found {
			return found, err
		}
		apply(ctx, v)
		return true, nil
	}
}

func (s *Service) registerSnapshots() {
	s.snapshots = map[string]snapshotter{
		repository.KeyCatalog: {
			snapshot: func(ctx context.Context) any { return s.catalog.Snapshot(ctx) },
			restore:  restoreInto(s.catalog.Restore),
		},
		repository.KeyRedemptions: {
			snapshot: func(ctx context.Context) any { return s.redemptions.Snapshot(ctx) },
			restore:  restoreInto(s.redemptions.Restore),
		},
		repository.KeyReviews: {
			snapshot: func(ctx context.Context) any { return s.reviews.Snapshot(ctx) },
			restore:  restoreInto(s.reviews.Restore),
		},
		repository.KeyQuota: {
			snapshot: func(ctx context.Context) any { return s.quotas.Snapshot(ctx) },
			restore:  restoreInto(s.quotas.Restore),
		},
		repository.KeyBusiness: {
			snapshot: func(ctx context.Context) any { return s.businesses.Snapshot(ctx) },
			restore:  restoreInto(s.businesses.Restore),
		},
	}
	s.flushLocks = make(map[string]*sync.Mutex, len(s.snapshots))
	for key := range s.snapshots {
		s.flushLocks[key] = &sync.Mutex{}
	}
}

// loadAll restores every store that has a saved snapshot.
func (s *Service) loadAll(ctx context.Context) error {
	for _, key := range repository.Keys() {
		found, err := s.snapshots[key].restore(ctx, s.store, key)
		if err != nil {
			return fmt.Errorf("load %s: %w", key, err)
		}
		s.logger.Debug(ctx, "snapshot loaded", logger.String("key", key), logger.Bool("found", found))
	}
	return nil
}

// seedCatalog fills an empty catalog from the seed file and seed flyers.
func (s *Service) seedCatalog(ctx context.Context) error {
	if s.catalog.Len(ctx) > 0 {
		return nil
	}
	seeds := append([]model.Flyer(nil), s.seedFlyers...)
	if s.seedFile != "" {
		loaded, err := catalog.LoadSeed(s.seedFile)
		if err != nil {
			return fmt.Errorf("seed catalog: %w", err)
		}
		seeds = append(seeds, loaded...)
	}
	if len(seeds) == 0 {
		return nil
	}
	if err := s.catalog.Add(ctx, seeds...); err != nil {
		return fmt.Errorf("seed catalog: %w", err)
	}
	s.logger.Info(ctx, "catalog seeded", logger.Int("flyers", len(seeds)))
	return s.Flush(ctx, repository.KeyCatalog)
}

// Flush writes the current snapshot of the store saved under key. The per-key
// lock spans snapshot and write so a later flush never lands before an earlier one.
func (s *Service) Flush(ctx context.Context, key string) error {
	snap, ok := s.snapshots[key]
	if !ok {
		return fmt.Errorf("%w: unknown snapshot key %q", model.ErrInvalidArgument, key)
	}
	lock := s.flushLocks[key]
	lock.Lock()
	defer lock.Unlock()

	if err := s.store.Save(ctx, key, snap.snapshot(ctx)); err != nil {
		return fmt.Errorf("flush %s: %w", key, err)
	}
	return nil
}

// FlushAll flushes every store concurrently.
func (s *Service) FlushAll(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)
	for _, key := range repository.Keys() {
		g.Go(func() error { return s.Flush(gctx, key) })
	}
	return g.Wait()
}

func (s *Service) scheduledFlush(ctx context.Context) error {
	metrics.RecordFlushRun()
	return s.FlushAll(ctx)
}

// save queues a flush for each key. When the queue is full, or the service is
// not running, the flush happens inline.
func (s *Service) save(ctx context.Context, keys ...string) {
	s.mu.RLock()
	q, started := s.saveQueue, s.started
	s.mu.RUnlock()

	for _, key := range keys {
		if started && q.Enqueue(ctx, eventqueue.Job{Key: key, EnqueuedAt: time.Now()}) {
			continue
		}
		if err := s.Flush(context.WithoutCancel(ctx), key); err != nil {
			metrics.RecordErrorByComponent("service", "flush_error")
			s.logger.Error(ctx, "inline flush failed", logger.String("key", key), logger.Error(err))
		}
	}
}
