package service

import (
	"time"

	"github.com/okian/flyerhub/internal/adapters/repository"
	"github.com/okian/flyerhub/internal/domain/model"
	"github.com/okian/flyerhub/internal/domain/quota"
	"github.com/okian/flyerhub/pkg/logger"
)

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithStore sets the snapshot repository. The Service closes it on Stop.
func WithStore(store repository.Store) Option {
	return func(s *Service) {
		if store != nil {
			s.store = store
		}
	}
}

// WithWorkerCount sets the number of save workers.
func WithWorkerCount(count int) Option {
	return func(s *Service) {
		if count > 0 {
			s.workerCount = count
		}
	}
}

// WithQueueSize sets the capacity of the save queue.
func WithQueueSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.queueSize = size
		}
	}
}

// WithFlushSchedule sets the cron spec of the periodic full flush.
func WithFlushSchedule(spec string) Option {
	return func(s *Service) {
		if spec != "" {
			s.flushSchedule = spec
		}
	}
}

// WithDedupeTTL sets how long submission ids are remembered.
func WithDedupeTTL(ttl time.Duration) Option {
	return func(s *Service) {
		s.dedupeTTL = ttl
	}
}

// WithQuotaPolicy sets the free tier and the overage price.
func WithQuotaPolicy(p quota.Policy) Option {
	return func(s *Service) {
		s.quotaOpts = append(s.quotaOpts, quota.WithPolicy(p))
	}
}

// WithReservedBusinessNames replaces the reserved business names.
func WithReservedBusinessNames(names []string) Option {
	return func(s *Service) {
		if names != nil {
			s.reserved = names
		}
	}
}

// WithSeedFile loads the catalog from a YAML file when no catalog snapshot exists.
func WithSeedFile(path string) Option {
	return func(s *Service) {
		s.seedFile = path
	}
}

// WithSeedFlyers seeds the catalog when no catalog snapshot exists.
func WithSeedFlyers(flyers []model.Flyer) Option {
	return func(s *Service) {
		s.seedFlyers = append(s.seedFlyers, flyers...)
	}
}

// WithClock overrides the time source of every store.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}
