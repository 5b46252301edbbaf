package catalog

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/linkflyer/venued/pkg/venue"
)

// LookupCache is a TTL cache for place-lookup results, persisted in the same
// SQLite file as the catalog. Misses from the lookup service are cached too
// (as a null payload) so repeated unresolvable queries do not hammer the
// external service.
type LookupCache struct {
	db          *sql.DB
	ttl         time.Duration
	negativeTTL time.Duration
}

// NewLookupCache creates the lookup_cache table on the store's database.
// Positive results live for ttl, negative results for negativeTTL.
func NewLookupCache(s *Store, ttl, negativeTTL time.Duration) (*LookupCache, error) {
	const ddl = `CREATE TABLE IF NOT EXISTS lookup_cache (
		cache_key  TEXT PRIMARY KEY,
		payload    TEXT NOT NULL,
		expires_at INTEGER NOT NULL
	)`
	if _, err := s.db.Exec(ddl); err != nil {
		return nil, fmt.Errorf("create lookup_cache table: %w", err)
	}
	return &LookupCache{db: s.db, ttl: ttl, negativeTTL: negativeTTL}, nil
}

// Key builds the cache key for a lookup. Normalization keeps trivially
// different spellings of the same query on one cache row.
func (lc *LookupCache) Key(name, locality string) string {
	return venue.Normalize(name) + "|" + venue.Normalize(locality)
}

// Get returns the cached result for key. found is false on a cache miss or
// an expired row; a found nil record is a cached negative result.
func (lc *LookupCache) Get(ctx context.Context, key string) (rec *venue.Record, found bool, err error) {
	var payload string
	var expiresAt int64
	row := lc.db.QueryRowContext(ctx,
		`SELECT payload, expires_at FROM lookup_cache WHERE cache_key = ?`, key)
	if err := row.Scan(&payload, &expiresAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("read lookup cache: %w", err)
	}

	if time.Now().Unix() > expiresAt {
		// Expired rows are dropped lazily on read.
		_, _ = lc.db.ExecContext(ctx, `DELETE FROM lookup_cache WHERE cache_key = ?`, key)
		return nil, false, nil
	}

	if payload == "null" {
		return nil, true, nil
	}
	var r venue.Record
	if err := json.Unmarshal([]byte(payload), &r); err != nil {
		return nil, false, fmt.Errorf("decode lookup cache payload: %w", err)
	}
	return &r, true, nil
}

// Put stores a lookup result under key. A nil record caches the negative
// outcome at the shorter TTL.
func (lc *LookupCache) Put(ctx context.Context, key string, rec *venue.Record) error {
	ttl := lc.ttl
	payload := []byte("null")
	if rec != nil {
		var err error
		payload, err = json.Marshal(rec)
		if err != nil {
			return fmt.Errorf("encode lookup cache payload: %w", err)
		}
	} else {
		ttl = lc.negativeTTL
	}

	_, err := lc.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO lookup_cache (cache_key, payload, expires_at) VALUES (?, ?, ?)`,
		key, string(payload), time.Now().Add(ttl).Unix())
	if err != nil {
		return fmt.Errorf("write lookup cache: %w", err)
	}
	return nil
}

// PurgeExpired removes all expired rows and returns how many were dropped.
func (lc *LookupCache) PurgeExpired(ctx context.Context) (int, error) {
	res, err := lc.db.ExecContext(ctx,
		`DELETE FROM lookup_cache WHERE expires_at < ?`, time.Now().Unix())
	if err != nil {
		return 0, fmt.Errorf("purge lookup cache: %w", err)
	}
	n, _ := res.RowsAffected()
	return int(n), nil
}
