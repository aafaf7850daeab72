package supervisor

import (
	"context"
	"database/sql"
	"errors"
	"time"

	_ "modernc.org/sqlite"
)

// SQLiteStore persists execution records in SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore creates a SQLite-backed execution store and ensures schema.
func NewSQLiteStore(db *sql.DB) (*SQLiteStore, error) {
	if db == nil {
		return nil, errors.New("db is nil")
	}
	if err := ensureExecutionSchema(db); err != nil {
		return nil, err
	}
	return &SQLiteStore{db: db}, nil
}

// Save upserts an execution record.
func (s *SQLiteStore) Save(ctx context.Context, record Record) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO executions (
			id, goal, status, steps_completed, steps_failed, halt_reason, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			status = excluded.status,
			steps_completed = excluded.steps_completed,
			steps_failed = excluded.steps_failed,
			halt_reason = excluded.halt_reason,
			updated_at = excluded.updated_at
	`,
		record.ID,
		record.Goal,
		string(record.Status),
		record.StepsCompleted,
		record.StepsFailed,
		record.HaltReason,
		normalizeStoreTime(record.CreatedAt),
		normalizeStoreTime(record.UpdatedAt),
	)
	return err
}

// Get returns the record for the execution id.
func (s *SQLiteStore) Get(ctx context.Context, id string) (Record, bool, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, goal, status, steps_completed, steps_failed, halt_reason, created_at, updated_at
		FROM executions WHERE id = ?
	`, id)
	record, err := scanRecord(row.Scan)
	if err == sql.ErrNoRows {
		return Record{}, false, nil
	}
	if err != nil {
		return Record{}, false, err
	}
	return record, true, nil
}

// List returns records matching the filter, oldest first.
func (s *SQLiteStore) List(ctx context.Context, filter RecordFilter) ([]Record, error) {
	query := `
		SELECT id, goal, status, steps_completed, steps_failed, halt_reason, created_at, updated_at
		FROM executions
	`
	var args []any
	if filter.Status != "" {
		query += " WHERE status = ?"
		args = append(args, string(filter.Status))
	}
	query += " ORDER BY created_at ASC, rowid ASC"
	if filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		record, err := scanRecord(rows.Scan)
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return records, nil
}

func scanRecord(scan func(...any) error) (Record, error) {
	var (
		record  Record
		status  string
		created sql.NullTime
		updated sql.NullTime
	)
	if err := scan(
		&record.ID,
		&record.Goal,
		&status,
		&record.StepsCompleted,
		&record.StepsFailed,
		&record.HaltReason,
		&created,
		&updated,
	); err != nil {
		return Record{}, err
	}
	record.Status = Status(status)
	if created.Valid {
		record.CreatedAt = created.Time
	}
	if updated.Valid {
		record.UpdatedAt = updated.Time
	}
	return record, nil
}

func ensureExecutionSchema(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS executions (
			id TEXT PRIMARY KEY,
			goal TEXT NOT NULL,
			status TEXT NOT NULL,
			steps_completed INTEGER NOT NULL DEFAULT 0,
			steps_failed INTEGER NOT NULL DEFAULT 0,
			halt_reason TEXT,
			created_at TIMESTAMP,
			updated_at TIMESTAMP
		);
		CREATE INDEX IF NOT EXISTS idx_executions_status ON executions(status);
	`)
	return err
}

func normalizeStoreTime(value time.Time) time.Time {
	if value.IsZero() {
		return value
	}
	return value.UTC()
}
