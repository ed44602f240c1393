package journal

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	_ "github.com/lib/pq"
)

// PostgresStore implements Store backed by the call_journal table.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore creates a store on db. Run Migrate first.
func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// Append inserts e.
func (s *PostgresStore) Append(ctx context.Context, e Entry) error {
	// jsonb parameters go over the wire as text
	var ret sql.NullString
	if e.ReturnValue != nil {
		ret = sql.NullString{String: string(e.ReturnValue), Valid: true}
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO call_journal (id, fake_id, sequence, method, arguments, return_value, fault, recorded_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, e.ID, e.FakeID, int64(e.Sequence), e.Method, string(e.Arguments), ret, e.Fault, e.RecordedAt)
	if err != nil {
		return fmt.Errorf("failed to insert journal entry: %w", err)
	}
	return nil
}

// Get retrieves an entry by ID.
func (s *PostgresStore) Get(ctx context.Context, id string) (Entry, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, fake_id, sequence, method, arguments, return_value, fault, recorded_at
		FROM call_journal
		WHERE id = $1
	`, id)

	e, err := scanEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Entry{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return Entry{}, fmt.Errorf("failed to get journal entry: %w", err)
	}
	return e, nil
}

// List returns the entries of fakeID in sequence order.
func (s *PostgresStore) List(ctx context.Context, fakeID string) ([]Entry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, fake_id, sequence, method, arguments, return_value, fault, recorded_at
		FROM call_journal
		WHERE fake_id = $1
		ORDER BY sequence ASC
	`, fakeID)
	if err != nil {
		return nil, fmt.Errorf("failed to list journal entries: %w", err)
	}
	defer rows.Close()

	entries := []Entry{}
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan journal entry: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating journal entries: %w", err)
	}
	return entries, nil
}

// Delete removes the entries of fakeID.
func (s *PostgresStore) Delete(ctx context.Context, fakeID string) (int64, error) {
	result, err := s.db.ExecContext(ctx, `DELETE FROM call_journal WHERE fake_id = $1`, fakeID)
	if err != nil {
		return 0, fmt.Errorf("failed to delete journal entries: %w", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return n, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanEntry(sc scanner) (Entry, error) {
	var (
		e    Entry
		seq  int64
		args []byte
		ret  []byte
	)
	if err := sc.Scan(&e.ID, &e.FakeID, &seq, &e.Method, &args, &ret, &e.Fault, &e.RecordedAt); err != nil {
		return Entry{}, err
	}
	e.Sequence = uint64(seq)
	e.Arguments = args
	if ret != nil {
		e.ReturnValue = ret
	}
	return e, nil
}
