package pipeline

import (
	"fmt"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
)

// WarnDedup suppresses repeated inference warnings for the same camera zone
// within a time window, so a dead detector does not flood the log at sample
// rate.
type WarnDedup struct {
	cache *lru.Cache[string, time.Time]
	ttl   time.Duration
}

func NewWarnDedup(maxKeys int, ttl time.Duration) *WarnDedup {
	c, _ := lru.New[string, time.Time](maxKeys)
	return &WarnDedup{cache: c, ttl: ttl}
}

// ShouldLog reports whether a warning for the camera zone should be written
// now, and records it when it should.
func (d *WarnDedup) ShouldLog(camera, zone string) bool {
	key := fmt.Sprintf("%s|%s", camera, zone)
	if lastAt, ok := d.cache.Get(key); ok {
		if time.Since(lastAt) < d.ttl {
			return false
		}
	}
	d.cache.Add(key, time.Now())
	return true
}
