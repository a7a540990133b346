package ingest

import (
	"context"
	"sync"
	"time"

	"github.com/minjaelee/vigil/internal/model"
	"github.com/minjaelee/vigil/pkg/logger"
	"github.com/minjaelee/vigil/pkg/redis"
)

// Store holds the current candidate snapshot. Replace swaps the whole
// snapshot atomically so readers never observe a partially refreshed
// set; a failed refresh simply leaves the previous snapshot in place.
type Store struct {
	mu     sync.RWMutex
	snap   model.Snapshot
	cache  *redis.Cache
	logger *logger.Logger
}

// NewStore creates a snapshot store. cache may be nil when Redis is
// not configured; the store then works purely in memory.
func NewStore(cache *redis.Cache, log *logger.Logger) *Store {
	return &Store{cache: cache, logger: log}
}

// Replace publishes a new snapshot, replacing the old one in full.
func (s *Store) Replace(ctx context.Context, candidates []model.Candidate, dropped int64) {
	snap := model.Snapshot{
		Candidates: candidates,
		Dropped:    dropped,
		UpdatedAt:  time.Now(),
	}

	s.mu.Lock()
	s.snap = snap
	s.mu.Unlock()

	if s.cache != nil {
		if err := s.cache.Set(ctx, redis.SnapshotKey(), snap, redis.TTLMedium); err != nil {
			s.logger.WithError(err).Warn("Failed to cache candidate snapshot")
		}
	}
}

// Snapshot returns the current snapshot. The slice is shared with the
// store; callers must treat it as read-only.
func (s *Store) Snapshot() model.Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snap
}

// WarmStart loads the last cached snapshot so the store has data
// before the first refresh completes. Returns false when nothing was
// cached.
func (s *Store) WarmStart(ctx context.Context) bool {
	if s.cache == nil {
		return false
	}

	var snap model.Snapshot
	found, err := s.cache.Get(ctx, redis.SnapshotKey(), &snap)
	if err != nil || !found {
		return false
	}

	s.mu.Lock()
	s.snap = snap
	s.mu.Unlock()

	s.logger.WithFields(map[string]interface{}{
		"candidates": len(snap.Candidates),
		"cached_at":  snap.UpdatedAt,
	}).Info("Restored candidate snapshot from cache")

	return true
}
