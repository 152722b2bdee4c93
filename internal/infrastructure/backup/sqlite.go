package backup

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"anzsco-lookup/internal/domain/occupation"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"
)

const DefaultKeep = 3

var ErrNoSnapshot = errors.New("no snapshot")

const schema = `
CREATE TABLE IF NOT EXISTS snapshots (
	id           INTEGER PRIMARY KEY AUTOINCREMENT,
	saved_at     TEXT NOT NULL,
	record_count INTEGER NOT NULL DEFAULT 0,
	payload      TEXT NOT NULL DEFAULT '[]'
);
`

type snapshotRow struct {
	ID          int64  `db:"id"`
	SavedAt     string `db:"saved_at"`
	RecordCount int    `db:"record_count"`
	Payload     string `db:"payload"`
}

type SnapshotInfo struct {
	ID          int64     `json:"id"`
	SavedAt     time.Time `json:"savedAt"`
	RecordCount int       `json:"recordCount"`
}

// SQLiteStore keeps the most recent merged datasets in a local SQLite file.
type SQLiteStore struct {
	db   *sqlx.DB
	keep int
}

// Open opens (or creates) the snapshot database at path. Use ":memory:" in
// tests.
func Open(path string, keep int) (*SQLiteStore, error) {
	dsn := path
	if path != ":memory:" {
		dsn = path + "?_pragma=journal_mode(wal)&_pragma=busy_timeout(5000)"
	}
	db, err := sqlx.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	if keep <= 0 {
		keep = DefaultKeep
	}
	return &SQLiteStore{db: db, keep: keep}, nil
}

func (s *SQLiteStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Save stores records as a new snapshot and prunes snapshots beyond keep.
func (s *SQLiteStore) Save(ctx context.Context, records []occupation.Record, at time.Time) error {
	if s == nil || s.db == nil {
		return fmt.Errorf("nil snapshot store")
	}
	payload, err := json.Marshal(records)
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO snapshots (saved_at, record_count, payload) VALUES (?, ?, ?)`,
		at.UTC().Format(time.RFC3339Nano), len(records), string(payload),
	); err != nil {
		return fmt.Errorf("insert snapshot: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		`DELETE FROM snapshots WHERE id NOT IN (SELECT id FROM snapshots ORDER BY id DESC LIMIT ?)`,
		s.keep,
	); err != nil {
		return fmt.Errorf("prune snapshots: %w", err)
	}
	return tx.Commit()
}

// Load returns the newest snapshot. It returns ErrNoSnapshot when none exist.
func (s *SQLiteStore) Load(ctx context.Context) ([]occupation.Record, time.Time, error) {
	if s == nil || s.db == nil {
		return nil, time.Time{}, ErrNoSnapshot
	}
	var row snapshotRow
	err := s.db.GetContext(ctx, &row,
		`SELECT id, saved_at, record_count, payload FROM snapshots ORDER BY id DESC LIMIT 1`)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, time.Time{}, ErrNoSnapshot
	}
	if err != nil {
		return nil, time.Time{}, fmt.Errorf("load snapshot: %w", err)
	}

	var records []occupation.Record
	if err := json.Unmarshal([]byte(row.Payload), &records); err != nil {
		return nil, time.Time{}, fmt.Errorf("decode snapshot %d: %w", row.ID, err)
	}
	savedAt, _ := time.Parse(time.RFC3339Nano, row.SavedAt)
	return records, savedAt, nil
}

func (s *SQLiteStore) List(ctx context.Context) ([]SnapshotInfo, error) {
	if s == nil || s.db == nil {
		return []SnapshotInfo{}, nil
	}
	var rows []snapshotRow
	if err := s.db.SelectContext(ctx, &rows,
		`SELECT id, saved_at, record_count FROM snapshots ORDER BY id DESC`); err != nil {
		return nil, fmt.Errorf("list snapshots: %w", err)
	}
	out := make([]SnapshotInfo, 0, len(rows))
	for _, r := range rows {
		at, _ := time.Parse(time.RFC3339Nano, r.SavedAt)
		out = append(out, SnapshotInfo{ID: r.ID, SavedAt: at, RecordCount: r.RecordCount})
	}
	return out, nil
}
