// Package catalog owns the durable venue store and the in-memory snapshot
// cache that the resolver searches.
package catalog

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/linkflyer/venued/pkg/venue"
)

// Store is the durable venue catalog backed by SQLite.
type Store struct {
	db *sql.DB
}

// Open opens (or creates) the catalog database at path and ensures the
// venues table exists.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(wal)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open catalog db: %w", err)
	}

	const ddl = `CREATE TABLE IF NOT EXISTS venues (
		place_id          TEXT PRIMARY KEY,
		display_name      TEXT NOT NULL,
		formatted_address TEXT NOT NULL DEFAULT '',
		business_status   TEXT NOT NULL DEFAULT '',
		categories        TEXT NOT NULL DEFAULT '[]',
		latitude          REAL,
		longitude         REAL,
		country           TEXT NOT NULL DEFAULT '',
		region            TEXT NOT NULL DEFAULT '',
		locality          TEXT NOT NULL DEFAULT '',
		created_at        INTEGER NOT NULL
	)`
	if _, err := db.Exec(ddl); err != nil {
		db.Close()
		return nil, fmt.Errorf("create venues table: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Insert persists a venue record. Repeated inserts of the same place_id are
// ignored; uniqueness across real-world duplicates is this layer's contract,
// not the resolver's.
func (s *Store) Insert(ctx context.Context, rec venue.Record) error {
	if rec.ID == "" {
		return fmt.Errorf("insert venue: empty place_id")
	}
	categories, err := json.Marshal(rec.Categories)
	if err != nil {
		return fmt.Errorf("marshal categories: %w", err)
	}

	const q = `INSERT OR IGNORE INTO venues
		(place_id, display_name, formatted_address, business_status, categories,
		 latitude, longitude, country, region, locality, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	var lat, lng any
	if rec.Latitude != nil {
		lat = *rec.Latitude
	}
	if rec.Longitude != nil {
		lng = *rec.Longitude
	}

	_, err = s.db.ExecContext(ctx, q,
		rec.ID, rec.Name, rec.Address, rec.BusinessStatus, string(categories),
		lat, lng, rec.Country, rec.Region, rec.Locality, time.Now().Unix(),
	)
	if err != nil {
		return fmt.Errorf("insert venue %s: %w", rec.ID, err)
	}
	return nil
}

// ListActive returns every venue that is still operating, ordered by
// place_id. Missing coordinates are allowed and come back as nil.
func (s *Store) ListActive(ctx context.Context) ([]venue.Record, error) {
	const q = `SELECT place_id, display_name, formatted_address, business_status,
		categories, latitude, longitude, country, region, locality
		FROM venues
		WHERE business_status != 'CLOSED_PERMANENTLY'
		ORDER BY place_id`

	rows, err := s.db.QueryContext(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("list venues: %w", err)
	}
	defer rows.Close()

	var records []venue.Record
	for rows.Next() {
		var rec venue.Record
		var categories string
		var lat, lng sql.NullFloat64
		if err := rows.Scan(&rec.ID, &rec.Name, &rec.Address, &rec.BusinessStatus,
			&categories, &lat, &lng, &rec.Country, &rec.Region, &rec.Locality); err != nil {
			return nil, fmt.Errorf("scan venue: %w", err)
		}
		if err := json.Unmarshal([]byte(categories), &rec.Categories); err != nil {
			return nil, fmt.Errorf("venue %s: malformed categories: %w", rec.ID, err)
		}
		if lat.Valid {
			v := lat.Float64
			rec.Latitude = &v
		}
		if lng.Valid {
			v := lng.Float64
			rec.Longitude = &v
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// Count returns the total number of stored venues, active or not.
func (s *Store) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM venues`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count venues: %w", err)
	}
	return n, nil
}
