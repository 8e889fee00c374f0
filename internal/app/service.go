// Package service composes the marketplace stores, their persistence and the
// background save machinery behind the operations the HTTP API exposes.
package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	eventqueue "github.com/okian/flyerhub/internal/adapters/mq/queue"
	workerpool "github.com/okian/flyerhub/internal/adapters/mq/worker"
	"github.com/okian/flyerhub/internal/adapters/repository"
	"github.com/okian/flyerhub/internal/adapters/scheduler"
	"github.com/okian/flyerhub/internal/domain/business"
	"github.com/okian/flyerhub/internal/domain/catalog"
	"github.com/okian/flyerhub/internal/domain/dedupe"
	"github.com/okian/flyerhub/internal/domain/model"
	"github.com/okian/flyerhub/internal/domain/quota"
	"github.com/okian/flyerhub/internal/domain/redemption"
	"github.com/okian/flyerhub/internal/domain/review"
	"github.com/okian/flyerhub/pkg/logger"
	"github.com/okian/flyerhub/pkg/metrics"
)

// Default service configuration.
const (
	defaultWorkerCount   = 2
	defaultQueueSize     = 1024
	defaultFlushSchedule = "@every 1m"
	defaultDedupeTTL     = 24 * time.Hour
	flushJobName         = "flush-snapshots"
	stopTimeout          = 30 * time.Second
)

// Service implements the API dependencies for the flyer marketplace.
type Service struct {
	mu sync.RWMutex

	// Domain stores
	catalog     *catalog.InMemory
	redemptions *redemption.Ledger
	reviews     *review.Aggregator
	quotas      *quota.Registry
	businesses  *business.Registry
	deduper     dedupe.Deduper

	// Persistence
	store      repository.Store
	snapshots  map[string]snapshotter
	flushLocks map[string]*sync.Mutex
	saveQueue  eventqueue.Queue
	workerPool *workerpool.Pool
	scheduler  *scheduler.Scheduler

	// Configuration
	workerCount   int
	queueSize     int
	flushSchedule string
	dedupeTTL     time.Duration
	seedFile      string
	seedFlyers    []model.Flyer
	reserved      []string
	quotaOpts     []quota.Option
	now           func() time.Time

	// State
	started bool

	// Logging
	logger logger.Logger
}

// New constructs a Service. Stores are usable right away; Start loads their
// snapshots and launches the background savers.
func New(opts ...Option) *Service {
	s := &Service{
		workerCount:   defaultWorkerCount,
		queueSize:     defaultQueueSize,
		flushSchedule: defaultFlushSchedule,
		dedupeTTL:     defaultDedupeTTL,
		reserved:      business.DefaultReserved,
		now:           time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = logger.Get().Named("service")
	}
	if s.store == nil {
		s.store = repository.NewMemoryStore()
	}

	s.catalog = catalog.NewInMemory(catalog.WithClock(s.now))
	s.redemptions = redemption.NewLedger(redemption.WithClock(s.now))
	s.reviews = review.NewAggregator(review.WithClock(s.now))
	s.quotas = quota.NewRegistry(append([]quota.Option{quota.WithClock(s.now)}, s.quotaOpts...)...)
	s.businesses = business.NewRegistry(business.WithReserved(s.reserved))
	s.deduper = dedupe.NewInMemoryDeduper(dedupe.WithTTL(s.dedupeTTL))
	s.registerSnapshots()

	return s
}

// Start loads persisted state and starts the save workers and the flush schedule.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}
	s.logger.Info(ctx, "starting flyer service...")

	if err := s.loadAll(ctx); err != nil {
		return err
	}
	if err := s.seedCatalog(ctx); err != nil {
		return err
	}
	metrics.UpdateCatalogSize(s.catalog.Len(ctx))

	q := eventqueue.NewInMemoryQueue(eventqueue.WithCapacity(s.queueSize))
	pool := workerpool.NewPool(s.workerCount, q, workerpool.FlusherFunc(s.Flush))
	sched := scheduler.New()
	if err := sched.AddJob(flushJobName, s.flushSchedule, s.scheduledFlush); err != nil {
		_ = q.Close()
		return fmt.Errorf("schedule flush: %w", err)
	}
	pool.Start(context.WithoutCancel(ctx))
	sched.Start()

	s.saveQueue = q
	s.workerPool = pool
	s.scheduler = sched
	s.started = true

	s.logger.Info(ctx, "flyer service started",
		logger.Int("workers", pool.Size()),
		logger.Int("queueSize", s.queueSize),
		logger.String("flushSchedule", s.flushSchedule),
		logger.Int("flyers", s.catalog.Len(ctx)),
	)
	return nil
}

// Stop halts the flush schedule, drains the save queue, flushes every store
// once more and closes the repository.
func (s *Service) Stop(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return nil
	}
	s.logger.Info(ctx, "stopping flyer service...")

	ctx, cancel := context.WithTimeout(ctx, stopTimeout)
	defer cancel()

	if err := s.scheduler.Stop(ctx); err != nil {
		s.logger.Warn(ctx, "scheduler did not stop cleanly", logger.Error(err))
	}
	if err := s.workerPool.Shutdown(ctx); err != nil {
		s.logger.Warn(ctx, "save workers did not drain", logger.Error(err))
	}
	s.started = false

	flushErr := s.FlushAll(ctx)
	if flushErr != nil {
		s.logger.Error(ctx, "final flush failed", logger.Error(flushErr))
	}
	if err := s.store.Close(); err != nil {
		s.logger.Error(ctx, "closing repository", logger.Error(err))
	}

	s.logger.Info(ctx, "flyer service stopped")
	return flushErr
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ctx := context.Background()
	stats := map[string]interface{}{
		"started":         s.started,
		"workerCount":     s.workerCount,
		"queueSize":       s.queueSize,
		"flushSchedule":   s.flushSchedule,
		"flyers":          s.catalog.Len(ctx),
		"redemptionCodes": s.redemptions.Len(ctx),
		"reviews":         s.reviews.Len(ctx),
		"quotaUsers":      s.quotas.Len(ctx),
		"submissions":     s.deduper.Size(),
	}

	if s.started {
		queueLen := s.saveQueue.Len(ctx)
		stats["queueLength"] = queueLen
		metrics.UpdateQueueSize(queueLen)
	}
	metrics.UpdateCatalogSize(s.catalog.Len(ctx))

	return stats
}

func (s *Service) isStarted() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.started
}
