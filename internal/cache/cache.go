// Package cache is a local SQLite-backed cache of fetched activities. Fetch
// paths write through it; offline runs read date ranges back out of it.
package cache

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"git.home.luguber.info/inful/ridelog/internal/strava"
	"git.home.luguber.info/inful/ridelog/internal/timerange"
)

// Cache stores raw activity payloads keyed by activity ID.
type Cache struct {
	db *sql.DB
}

// Open creates or opens the cache database.
// Use ":memory:" for an in-memory database, or a file path for persistence.
func Open(path string) (*Cache, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
			return nil, fmt.Errorf("create cache directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	c := &Cache{db: db}
	if err := c.initialize(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("initialize schema: %w", err)
	}
	return c, nil
}

func (c *Cache) initialize() error {
	schema := `
	CREATE TABLE IF NOT EXISTS activities (
		id INTEGER PRIMARY KEY,
		start_local INTEGER NOT NULL,
		payload BLOB NOT NULL,
		fetched_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_start_local ON activities(start_local);
	`
	_, err := c.db.Exec(schema)
	return err
}

// Close releases the underlying database handle.
func (c *Cache) Close() error {
	return c.db.Close()
}

// PutActivities upserts the given activities. Re-fetching an activity
// replaces its payload, so edits on Strava eventually propagate.
func (c *Cache) PutActivities(ctx context.Context, activities []strava.Activity) error {
	if len(activities) == 0 {
		return nil
	}

	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin cache transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO activities (id, start_local, payload, fetched_at)
		 VALUES (?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
		   start_local = excluded.start_local,
		   payload = excluded.payload,
		   fetched_at = excluded.fetched_at`)
	if err != nil {
		return fmt.Errorf("prepare cache upsert: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	now := time.Now().Unix()
	for i := range activities {
		a := &activities[i]
		payload, err := json.Marshal(a)
		if err != nil {
			return fmt.Errorf("marshal activity %d: %w", a.ID, err)
		}
		if _, err := stmt.ExecContext(ctx, a.ID, a.StartLocal().Unix(), payload, now); err != nil {
			return fmt.Errorf("upsert activity %d: %w", a.ID, err)
		}
	}

	return tx.Commit()
}

// ActivitiesInRange returns cached activities whose local start falls within
// the range, oldest first. A zero range returns everything.
func (c *Cache) ActivitiesInRange(ctx context.Context, tr timerange.Range) ([]strava.Activity, error) {
	query := "SELECT payload FROM activities"
	var args []any
	var conds []string
	if after := tr.AfterEpoch(); after > 0 {
		conds = append(conds, "start_local >= ?")
		args = append(args, after)
	}
	if before := tr.BeforeEpoch(); before > 0 {
		conds = append(conds, "start_local <= ?")
		args = append(args, before)
	}
	for i, cond := range conds {
		if i == 0 {
			query += " WHERE " + cond
		} else {
			query += " AND " + cond
		}
	}
	query += " ORDER BY start_local ASC"

	rows, err := c.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query activities: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var activities []strava.Activity
	for rows.Next() {
		var payload []byte
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("scan activity row: %w", err)
		}
		var a strava.Activity
		if err := json.Unmarshal(payload, &a); err != nil {
			return nil, fmt.Errorf("unmarshal cached activity: %w", err)
		}
		activities = append(activities, a)
	}
	return activities, rows.Err()
}

// Count returns the number of cached activities.
func (c *Cache) Count(ctx context.Context) (int64, error) {
	var n int64
	err := c.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM activities").Scan(&n)
	return n, err
}
