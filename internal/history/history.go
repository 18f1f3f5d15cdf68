// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package history persists the address bar of a CLI session: the
// sequence of visited addresses and a cursor for back and forward.
package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

const dbFile = "history.db"

var (
	// ErrEmpty is returned when nothing has been visited yet.
	ErrEmpty = errors.New("history is empty")
	// ErrNoPrevious is returned by Back at the oldest entry.
	ErrNoPrevious = errors.New("no previous address")
	// ErrNoNext is returned by Forward at the newest entry.
	ErrNoNext = errors.New("no next address")
)

// Entry is one visited address.
type Entry struct {
	Seq     int64     `json:"seq"`
	Address string    `json:"address"`
	Visited time.Time `json:"visited"`
	Current bool      `json:"current"`
}

// Store is the SQLite-backed navigation history.
type Store struct {
	db *sql.DB
}

// Open opens or creates the history database in dir.
func Open(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating session directory: %w", err)
	}

	dbPath := filepath.Join(dir, dbFile)
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Store{db: db}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return s, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS entries (
			seq INTEGER PRIMARY KEY AUTOINCREMENT,
			address TEXT NOT NULL,
			visited TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS cursor (
			id INTEGER PRIMARY KEY CHECK (id = 1),
			seq INTEGER NOT NULL
		)`,
		`INSERT OR IGNORE INTO cursor (id, seq) VALUES (1, 0)`,
	}
	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}

type querier interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func cursor(ctx context.Context, q querier) (int64, error) {
	var seq int64
	if err := q.QueryRowContext(ctx, `SELECT seq FROM cursor WHERE id = 1`).Scan(&seq); err != nil {
		return 0, fmt.Errorf("reading cursor: %w", err)
	}
	return seq, nil
}

func entry(ctx context.Context, q querier, where string, args ...any) (Entry, error) {
	var (
		e       Entry
		visited string
	)
	err := q.QueryRowContext(ctx, `SELECT seq, address, visited FROM entries WHERE `+where, args...).
		Scan(&e.Seq, &e.Address, &visited)
	if err != nil {
		return Entry{}, err
	}
	e.Visited, _ = time.Parse(time.RFC3339Nano, visited)
	return e, nil
}

// Push records address as the new current entry. Entries after the
// cursor are discarded. Pushing the current address again does nothing.
func (s *Store) Push(ctx context.Context, address string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	cur, err := cursor(ctx, tx)
	if err != nil {
		return err
	}
	e, err := entry(ctx, tx, `seq = ?`, cur)
	switch {
	case err == nil && e.Address == address:
		return nil
	case err != nil && !errors.Is(err, sql.ErrNoRows):
		return fmt.Errorf("reading current entry: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM entries WHERE seq > ?`, cur); err != nil {
		return fmt.Errorf("truncating forward entries: %w", err)
	}
	res, err := tx.ExecContext(ctx,
		`INSERT INTO entries (address, visited) VALUES (?, ?)`,
		address, time.Now().UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("inserting entry: %w", err)
	}
	seq, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("reading entry id: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `UPDATE cursor SET seq = ? WHERE id = 1`, seq); err != nil {
		return fmt.Errorf("moving cursor: %w", err)
	}
	return tx.Commit()
}

// Current returns the entry under the cursor.
func (s *Store) Current(ctx context.Context) (Entry, error) {
	cur, err := cursor(ctx, s.db)
	if err != nil {
		return Entry{}, err
	}
	e, err := entry(ctx, s.db, `seq = ?`, cur)
	if errors.Is(err, sql.ErrNoRows) {
		return Entry{}, ErrEmpty
	}
	if err != nil {
		return Entry{}, fmt.Errorf("reading current entry: %w", err)
	}
	e.Current = true
	return e, nil
}

// Back moves the cursor to the previous entry and returns it.
func (s *Store) Back(ctx context.Context) (Entry, error) {
	return s.move(ctx, `seq < ? ORDER BY seq DESC LIMIT 1`, ErrNoPrevious)
}

// Forward moves the cursor to the next entry and returns it.
func (s *Store) Forward(ctx context.Context) (Entry, error) {
	return s.move(ctx, `seq > ? ORDER BY seq ASC LIMIT 1`, ErrNoNext)
}

func (s *Store) move(ctx context.Context, where string, none error) (Entry, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return Entry{}, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	cur, err := cursor(ctx, tx)
	if err != nil {
		return Entry{}, err
	}
	if cur == 0 {
		return Entry{}, ErrEmpty
	}
	e, err := entry(ctx, tx, where, cur)
	if errors.Is(err, sql.ErrNoRows) {
		return Entry{}, none
	}
	if err != nil {
		return Entry{}, fmt.Errorf("reading entry: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `UPDATE cursor SET seq = ? WHERE id = 1`, e.Seq); err != nil {
		return Entry{}, fmt.Errorf("moving cursor: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return Entry{}, fmt.Errorf("committing: %w", err)
	}
	e.Current = true
	return e, nil
}

// Entries returns every entry, oldest first, marking the current one.
func (s *Store) Entries(ctx context.Context) ([]Entry, error) {
	cur, err := cursor(ctx, s.db)
	if err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx, `SELECT seq, address, visited FROM entries ORDER BY seq`)
	if err != nil {
		return nil, fmt.Errorf("querying entries: %w", err)
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var (
			e       Entry
			visited string
		)
		if err := rows.Scan(&e.Seq, &e.Address, &visited); err != nil {
			return nil, fmt.Errorf("scanning entry: %w", err)
		}
		e.Visited, _ = time.Parse(time.RFC3339Nano, visited)
		e.Current = e.Seq == cur
		out = append(out, e)
	}
	return out, rows.Err()
}

// Clear ends the session: every entry is removed and the cursor reset.
func (s *Store) Clear(ctx context.Context) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM entries`); err != nil {
		return fmt.Errorf("deleting entries: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `UPDATE cursor SET seq = 0 WHERE id = 1`); err != nil {
		return fmt.Errorf("resetting cursor: %w", err)
	}
	return tx.Commit()
}
