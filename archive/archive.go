// Package archive keeps a history of fetched schedules in SQLite.
package archive

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"devfestsched/model"
	"devfestsched/schedule"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

var ErrNoSnapshot = errors.New("no snapshot")

const schema = `
	CREATE TABLE IF NOT EXISTS snapshots (
		id TEXT PRIMARY KEY,
		event TEXT NOT NULL,
		fetched_at INTEGER NOT NULL,
		sessions INTEGER NOT NULL,
		payload TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS snapshots_event_fetched ON snapshots(event, fetched_at);
`

// Snapshot is one archived collection.
type Snapshot struct {
	ID        string
	Event     string
	FetchedAt time.Time
	Sessions  int
	Schedule  model.Collection
}

// Store is an SQLite-backed snapshot archive.
type Store struct {
	db *sql.DB
}

// Open opens (creating if needed) the archive at path.
func Open(path string) (*Store, error) {
	dsn := fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open archive: %w", err)
	}
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping archive: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// Save stores c as a new snapshot of event and returns its ID.
func (s *Store) Save(ctx context.Context, event string, at time.Time, c model.Collection) (string, error) {
	payload, err := schedule.MarshalJSON(c)
	if err != nil {
		return "", err
	}
	id := uuid.NewString()
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO snapshots (id, event, fetched_at, sessions, payload) VALUES (?, ?, ?, ?, ?)`,
		id, event, at.UnixMilli(), c.Count(), string(payload))
	if err != nil {
		return "", fmt.Errorf("insert snapshot: %w", err)
	}
	return id, nil
}

// Latest returns the most recent snapshot of event.
func (s *Store) Latest(ctx context.Context, event string) (Snapshot, error) {
	snaps, err := s.List(ctx, event, 1)
	if err != nil {
		return Snapshot{}, err
	}
	if len(snaps) == 0 {
		return Snapshot{}, fmt.Errorf("%w for %q", ErrNoSnapshot, event)
	}
	return snaps[0], nil
}

// List returns up to limit snapshots of event, newest first.
// A limit <= 0 returns all of them.
func (s *Store) List(ctx context.Context, event string, limit int) ([]Snapshot, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, event, fetched_at, sessions, payload
		FROM snapshots
		WHERE event = ?
		ORDER BY fetched_at DESC, rowid DESC
		LIMIT ?
	`, event, limit)
	if err != nil {
		return nil, fmt.Errorf("query snapshots: %w", err)
	}
	defer rows.Close()

	var out []Snapshot
	for rows.Next() {
		var snap Snapshot
		var fetchedAt int64
		var payload string
		if err := rows.Scan(&snap.ID, &snap.Event, &fetchedAt, &snap.Sessions, &payload); err != nil {
			return nil, fmt.Errorf("scan snapshot: %w", err)
		}
		snap.FetchedAt = time.UnixMilli(fetchedAt)
		if snap.Schedule, err = schedule.UnmarshalJSON([]byte(payload)); err != nil {
			return nil, fmt.Errorf("decode snapshot %s: %w", snap.ID, err)
		}
		out = append(out, snap)
	}
	return out, rows.Err()
}
