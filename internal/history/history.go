// Package history journals completed tool calls in SQLite so that failures
// on the drawing side can be reconstructed after the fact.
package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

const maxCommandBytes = 64 * 1024

type Journal struct {
	db *sql.DB
}

func New(db *sql.DB) *Journal {
	return &Journal{db: db}
}

// Append journals one call and returns its id. Entries without an id get a
// fresh UUID; entries without a timestamp get the current time.
func (j *Journal) Append(ctx context.Context, e Entry) (string, error) {
	if e.Tool == "" {
		return "", fmt.Errorf("tool is empty")
	}
	if e.Operation == "" {
		return "", fmt.Errorf("operation is empty")
	}
	if e.Backend == "" {
		return "", fmt.Errorf("backend is empty")
	}

	id := e.ID
	if id == "" {
		id = uuid.NewString()
	}
	at := e.At
	if at.IsZero() {
		at = time.Now().UTC()
	}

	command := e.Command
	if len(command) > maxCommandBytes {
		command = command[:maxCommandBytes]
	}
	var commandVal any
	if command != "" {
		commandVal = command
	}
	var errVal any
	if e.Error != "" {
		errVal = e.Error
	}
	okVal := 0
	if e.OK {
		okVal = 1
	}

	_, err := j.db.ExecContext(ctx, `
INSERT INTO call_history(id, tool, operation, command, ok, error, duration_ms, backend, at)
VALUES(?, ?, ?, ?, ?, ?, ?, ?, ?);
`, id, e.Tool, e.Operation, commandVal, okVal, errVal, e.DurationMS, e.Backend, at.Format(time.RFC3339Nano))
	if err != nil {
		return "", fmt.Errorf("append history: %w", err)
	}
	return id, nil
}

// Recent returns up to limit entries, newest first. A non-positive limit
// defaults to 50.
func (j *Journal) Recent(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := j.db.QueryContext(ctx, `
SELECT id, tool, operation, command, ok, error, duration_ms, backend, at
FROM call_history
ORDER BY at DESC, rowid DESC
LIMIT ?;
`, limit)
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}
	defer func() { _ = rows.Close() }()

	entries := []Entry{}
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("scan history entry: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate history: %w", err)
	}
	return entries, nil
}

// Get loads one entry by id. Returns ErrNotFound when absent.
func (j *Journal) Get(ctx context.Context, id string) (*Entry, error) {
	if id == "" {
		return nil, fmt.Errorf("id is empty")
	}

	row := j.db.QueryRowContext(ctx, `
SELECT id, tool, operation, command, ok, error, duration_ms, backend, at
FROM call_history
WHERE id = ?;
`, id)
	e, err := scanEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load history entry: %w", err)
	}
	return &e, nil
}

// CountByOutcome reports how many journaled calls succeeded and failed.
func (j *Journal) CountByOutcome(ctx context.Context) (succeeded, failed int64, err error) {
	rows, err := j.db.QueryContext(ctx, `SELECT ok, COUNT(*) FROM call_history GROUP BY ok;`)
	if err != nil {
		return 0, 0, fmt.Errorf("count history: %w", err)
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		var ok int
		var n int64
		if err := rows.Scan(&ok, &n); err != nil {
			return 0, 0, fmt.Errorf("scan history count: %w", err)
		}
		if ok != 0 {
			succeeded = n
		} else {
			failed = n
		}
	}
	if err := rows.Err(); err != nil {
		return 0, 0, fmt.Errorf("iterate history counts: %w", err)
	}
	return succeeded, failed, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEntry(row rowScanner) (Entry, error) {
	var (
		e       Entry
		command sql.NullString
		okInt   int
		errText sql.NullString
		atS     string
	)
	if err := row.Scan(&e.ID, &e.Tool, &e.Operation, &command, &okInt, &errText, &e.DurationMS, &e.Backend, &atS); err != nil {
		return Entry{}, err
	}
	e.OK = okInt != 0
	if command.Valid {
		e.Command = command.String
	}
	if errText.Valid {
		e.Error = errText.String
	}
	if t, err := time.Parse(time.RFC3339Nano, atS); err == nil {
		e.At = t
	}
	return e, nil
}
