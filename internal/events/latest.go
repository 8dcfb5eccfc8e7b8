package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// ObservationTTL bounds how stale a cached observation can be.
const ObservationTTL = 10 * time.Second

// Observation is the latest reduced reading for one camera zone.
type Observation struct {
	Camera string  `json:"camera"`
	Zone   string  `json:"zone"`
	State  string  `json:"state"`
	Score  float64 `json:"score"`
	TS     int64   `json:"ts"`
}

// LatestCache keeps per-zone observation snapshots in Redis with a short TTL.
// It is optional wiring: a nil cache is a no-op in the worker.
type LatestCache struct {
	rdb *redis.Client
}

func NewLatestCache(rdb *redis.Client) *LatestCache {
	return &LatestCache{rdb: rdb}
}

func obsKey(camera, zone string) string {
	return fmt.Sprintf("safehaven:obs:%s:%s", camera, zone)
}

// Save overwrites the cached observation for the zone.
func (c *LatestCache) Save(ctx context.Context, obs Observation) error {
	data, err := json.Marshal(obs)
	if err != nil {
		return fmt.Errorf("marshal observation: %w", err)
	}
	if err := c.rdb.Set(ctx, obsKey(obs.Camera, obs.Zone), data, ObservationTTL).Err(); err != nil {
		return fmt.Errorf("save observation: %w", err)
	}
	return nil
}

// Get returns the cached observation, or nil when none exists or it expired.
func (c *LatestCache) Get(ctx context.Context, camera, zone string) (*Observation, error) {
	data, err := c.rdb.Get(ctx, obsKey(camera, zone)).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get observation: %w", err)
	}
	var obs Observation
	if err := json.Unmarshal([]byte(data), &obs); err != nil {
		return nil, fmt.Errorf("decode observation: %w", err)
	}
	return &obs, nil
}
