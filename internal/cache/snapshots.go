// FilePath: internal/cache/snapshots.go
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/strct-org/beeportal/internal/config"
	"github.com/strct-org/beeportal/internal/models"
	nuts "github.com/vaudience/go-nuts"
)

const snapshotTTL = 24 * time.Hour

// SnapshotStore keeps the last published live-stats snapshot per session in
// Redis. Strictly a convenience cache: the portal works fully without it.
type SnapshotStore struct {
	rdb *redis.Client
}

// NewSnapshotStore connects to Redis, or returns nil when caching is
// disabled in the config. A nil *SnapshotStore is a valid "no cache" value.
func NewSnapshotStore(cfg config.RedisConfig) *SnapshotStore {
	if !cfg.Enabled {
		return nil
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	nuts.L.Infof("[SnapshotStore] Redis snapshot cache enabled at %s:%d", cfg.Host, cfg.Port)
	return &SnapshotStore{rdb: rdb}
}

func (s *SnapshotStore) Put(ctx context.Context, key string, stats map[string]models.LiveStats) error {
	if s == nil {
		return nil
	}
	payload, err := json.Marshal(stats)
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}
	return s.rdb.Set(ctx, snapshotKey(key), payload, snapshotTTL).Err()
}

func (s *SnapshotStore) Get(ctx context.Context, key string) (map[string]models.LiveStats, error) {
	if s == nil {
		return nil, nil
	}
	payload, err := s.rdb.Get(ctx, snapshotKey(key)).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var stats map[string]models.LiveStats
	if err := json.Unmarshal(payload, &stats); err != nil {
		return nil, fmt.Errorf("unmarshal snapshot: %w", err)
	}
	return stats, nil
}

func (s *SnapshotStore) Close() error {
	if s == nil {
		return nil
	}
	return s.rdb.Close()
}

func snapshotKey(key string) string {
	return "beeportal:livestats:" + key
}
