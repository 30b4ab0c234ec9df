// Package sweep removes storage namespaces that no worker record owns.
// They are left behind when a registration fails after its files were
// written, or when a delete could not clean up storage.
package sweep

import (
	"context"
	"time"

	"go-idcard/internal/idalloc"
	"go-idcard/internal/metrics"
	"go-idcard/internal/storage"
	"go-idcard/internal/worker"

	"go.uber.org/zap"
)

type Sweeper struct {
	repo    worker.Repository
	store   storage.Storage
	metrics *metrics.Metrics
	prefix  string
	minAge  time.Duration
	now     func() time.Time
	logger  *zap.Logger
}

// New builds a sweeper for identifiers carrying prefix. Namespaces modified
// within minAge are left alone so an in-flight registration is never swept.
func New(
	repo worker.Repository,
	store storage.Storage,
	m *metrics.Metrics,
	prefix string,
	minAge time.Duration,
	logger ...*zap.Logger,
) *Sweeper {
	l := zap.L().Named("sweep")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("sweep")
	}
	return &Sweeper{
		repo:    repo,
		store:   store,
		metrics: m,
		prefix:  prefix,
		minAge:  minAge,
		now:     time.Now,
		logger:  l,
	}
}

// SweepOnce removes every orphaned namespace and returns the names removed.
// Directories that are not prefix followed by digits are skipped.
func (s *Sweeper) SweepOnce(ctx context.Context) ([]string, error) {
	namespaces, err := s.store.ListNamespaces(ctx)
	if err != nil {
		return nil, err
	}
	if len(namespaces) == 0 {
		return nil, nil
	}

	ids, err := s.repo.ListIDs(ctx)
	if err != nil {
		return nil, err
	}
	owned := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		owned[id] = struct{}{}
	}

	cutoff := s.now().Add(-s.minAge)
	var removed []string
	for _, ns := range namespaces {
		if _, ok := owned[ns.Name]; ok {
			continue
		}
		if _, ok := idalloc.Suffix(s.prefix, ns.Name); !ok {
			continue
		}
		if ns.ModifiedAt.After(cutoff) {
			continue
		}

		if err := s.store.RemoveNamespace(ctx, ns.Name); err != nil {
			s.logger.Warn("remove orphan namespace failed",
				zap.String("namespace", ns.Name),
				zap.Error(err),
			)
			continue
		}
		removed = append(removed, ns.Name)
	}

	s.metrics.AddOrphansSwept(len(removed))
	if len(removed) > 0 {
		s.logger.Info("orphan namespaces swept", zap.Strings("namespaces", removed))
	}
	return removed, nil
}

// Run sweeps on every tick until ctx ends.
func (s *Sweeper) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = time.Hour
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	s.logger.Info("orphan sweeper started",
		zap.Duration("interval", interval),
		zap.Duration("min_age", s.minAge),
	)

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("orphan sweeper stopped")
			return
		case <-ticker.C:
			if _, err := s.SweepOnce(ctx); err != nil {
				s.logger.Error("sweep failed", zap.Error(err))
			}
		}
	}
}
