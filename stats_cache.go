package main

import (
	"database/sql"
	"fmt"
	"log"
	"sync"
	"time"
)

// StatsSource fetches a fresh throughput snapshot from the external store.
type StatsSource interface {
	FetchStats() (*StatsSnapshot, error)
}

// statsCacheTTL bounds how long a snapshot is served before a refetch.
const statsCacheTTL = 30 * time.Minute

// StatsCache serves throughput snapshots with a TTL, backed by a sqlite
// snapshot table so a restart does not force an immediate refetch. Safe for
// concurrent readers; a refresh runs under the lock, so concurrent callers
// share one fetch and the last writer's refresh wins.
type StatsCache struct {
	source StatsSource
	db     *sql.DB
	ttl    time.Duration
	now    func() time.Time

	mu   sync.Mutex
	snap *StatsSnapshot
}

func NewStatsCache(source StatsSource, db *sql.DB) *StatsCache {
	return &StatsCache{
		source: source,
		db:     db,
		ttl:    statsCacheTTL,
		now:    time.Now,
	}
}

func (c *StatsCache) fresh(snap *StatsSnapshot) bool {
	return snap != nil && c.now().Sub(snap.FetchedAt) < c.ttl
}

// Get returns the cached snapshot when it is within the TTL, otherwise
// fetches fresh data, persists it, and returns it. forceRefresh skips the
// cache entirely. A corrupted stored snapshot falls back to a fetch; a
// failed persist of a successful fetch is logged but does not fail the call.
func (c *StatsCache) Get(forceRefresh bool) (*StatsSnapshot, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !forceRefresh {
		if c.fresh(c.snap) {
			return c.snap, nil
		}
		stored, err := LoadSnapshot(c.db)
		if err != nil {
			log.Printf("stats cache read failed, refetching: %v", err)
		} else if c.fresh(stored) {
			c.snap = stored
			return stored, nil
		}
	}

	snap, err := c.source.FetchStats()
	if err != nil {
		return nil, fmt.Errorf("fetching stats: %w", err)
	}
	snap.FetchedAt = c.now()
	if err := SaveSnapshot(c.db, snap); err != nil {
		log.Printf("stats cache write failed: %v", err)
	}
	c.snap = snap
	log.Printf("stats refreshed: %d rows", len(snap.Rows))
	return snap, nil
}
