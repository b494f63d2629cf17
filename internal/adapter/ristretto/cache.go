// Package ristretto is the in-process L1 layer of the event cache.
package ristretto

import (
	"context"
	"errors"
	"time"

	"github.com/dgraph-io/ristretto/v2"

	"github.com/Strob0t/EventBoard/internal/config"
	"github.com/Strob0t/EventBoard/internal/port/cache"
)

// avgEntryBytes is the expected size of one JSON-encoded event.
const avgEntryBytes = 512

var _ cache.Cache = (*Cache)(nil)

// Cache holds encoded events keyed by cache.EventKey, costed by byte size.
type Cache struct {
	c   *ristretto.Cache[string, []byte]
	ttl time.Duration
}

// Stats summarises cache effectiveness since start.
type Stats struct {
	Hits     uint64
	Misses   uint64
	Rejected uint64
	Ratio    float64
}

// New sizes the cache from cfg: L1MaxSizeMB bounds the total bytes held and
// L1TTL applies to entries stored without an explicit TTL.
func New(cfg config.Cache) (*Cache, error) {
	if cfg.L1MaxSizeMB < 1 {
		return nil, errors.New("ristretto: l1 size must be at least 1 MB")
	}
	maxCost := cfg.L1MaxSizeMB << 20
	c, err := ristretto.NewCache(&ristretto.Config[string, []byte]{
		NumCounters:        maxCost / avgEntryBytes * 10,
		MaxCost:            maxCost,
		BufferItems:        64,
		Metrics:            true,
		IgnoreInternalCost: true,
	})
	if err != nil {
		return nil, err
	}
	return &Cache{c: c, ttl: cfg.L1TTL}, nil
}

func (c *Cache) Get(_ context.Context, key string) (data []byte, ok bool, err error) {
	data, ok = c.c.Get(key)
	return data, ok, nil
}

// Set stores value. A zero ttl falls back to the configured L1 TTL. The
// write buffer is flushed before returning so the next Get observes it;
// entries refused by the admission policy are silently not cached.
func (c *Cache) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = c.ttl
	}
	if c.c.SetWithTTL(key, value, int64(len(value)), ttl) {
		c.c.Wait()
	}
	return nil
}

func (c *Cache) Delete(_ context.Context, key string) error {
	c.c.Del(key)
	return nil
}

// Stats reports hit and admission counters.
func (c *Cache) Stats() Stats {
	m := c.c.Metrics
	return Stats{
		Hits:     m.Hits(),
		Misses:   m.Misses(),
		Rejected: m.SetsRejected() + m.SetsDropped(),
		Ratio:    m.Ratio(),
	}
}

// Close stops the cache's background goroutines.
func (c *Cache) Close() {
	c.c.Close()
}
