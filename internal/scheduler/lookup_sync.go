package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/jboss-openshift/openshift-kieserver/internal/logger"
	"github.com/jboss-openshift/openshift-kieserver/internal/lookup"
)

// OwnerSource lists every instance owner known to the process runtime.
type OwnerSource interface {
	Owners(ctx context.Context) ([]lookup.Owner, error)
}

// OwnerSink stores owners for fast lookups.
type OwnerSink interface {
	SaveOwners(ctx context.Context, owners []lookup.Owner, ttl time.Duration) error
}

// LookupSyncer mirrors instance owners from the runtime database into redis
type LookupSyncer struct {
	source   OwnerSource
	sink     OwnerSink
	logger   logger.Logger
	interval time.Duration
	ttl      time.Duration
	stopCh   chan struct{}
}

// NewLookupSyncer creates a new lookup syncer
func NewLookupSyncer(
	source OwnerSource,
	sink OwnerSink,
	log logger.Logger,
	interval time.Duration,
	ttl time.Duration,
) *LookupSyncer {
	return &LookupSyncer{
		source:   source,
		sink:     sink,
		logger:   log,
		interval: interval,
		ttl:      ttl,
		stopCh:   make(chan struct{}),
	}
}

// Start syncs once, then keeps syncing every interval until Stop or ctx ends.
func (s *LookupSyncer) Start(ctx context.Context) error {
	if s.interval <= 0 {
		return fmt.Errorf("lookup sync interval must be > 0, got %v", s.interval)
	}

	// Run immediately on start
	if _, err := s.Sync(ctx); err != nil {
		s.logger.Warn("initial lookup sync failed",
			logger.Error(err))
	}

	ticker := time.NewTicker(s.interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if _, err := s.Sync(ctx); err != nil {
					s.logger.Error("lookup sync failed",
						logger.Error(err))
				}
			case <-s.stopCh:
				return
			case <-ctx.Done():
				return
			}
		}
	}()

	return nil
}

// Stop stops the periodic sync
func (s *LookupSyncer) Stop() {
	close(s.stopCh)
}

// Sync copies every owner once and returns how many were written.
func (s *LookupSyncer) Sync(ctx context.Context) (int, error) {
	owners, err := s.source.Owners(ctx)
	if err != nil {
		return 0, fmt.Errorf("list owners: %w", err)
	}

	if len(owners) == 0 {
		s.logger.Debug("no instance owners to sync")
		return 0, nil
	}

	if err := s.sink.SaveOwners(ctx, owners, s.ttl); err != nil {
		return 0, fmt.Errorf("save owners: %w", err)
	}

	s.logger.Info("synced instance owners to redis",
		logger.Int("count", len(owners)),
		logger.Duration("ttl", s.ttl))

	return len(owners), nil
}
