package violation

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

// SQLiteAuditStore persists violations in SQLite.
type SQLiteAuditStore struct {
	db *sql.DB
}

// NewSQLiteAuditStore creates a SQLite-backed audit store and ensures schema.
func NewSQLiteAuditStore(db *sql.DB) (*SQLiteAuditStore, error) {
	if db == nil {
		return nil, errors.New("db is nil")
	}
	if err := ensureViolationSchema(db); err != nil {
		return nil, err
	}
	return &SQLiteAuditStore{db: db}, nil
}

// Save upserts a violation record.
func (s *SQLiteAuditStore) Save(ctx context.Context, v Violation) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO violations (
			id, type, severity, expected, actual, resources, detected_at,
			halted_at, disclosed_at, rollback_at, isolation_at, acknowledged_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			severity = excluded.severity,
			halted_at = excluded.halted_at,
			disclosed_at = excluded.disclosed_at,
			rollback_at = excluded.rollback_at,
			isolation_at = excluded.isolation_at,
			acknowledged_at = excluded.acknowledged_at
	`,
		v.ID,
		string(v.Type),
		string(v.Severity),
		v.Evidence.Expected,
		v.Evidence.Actual,
		strings.Join(v.AffectedResources, "\n"),
		normalizeAuditTime(v.DetectedAt),
		recordTime(v.Halted),
		recordTime(v.Disclosed),
		recordTime(v.RollbackPerformed),
		recordTime(v.IsolationPerformed),
		recordTime(v.Acknowledged),
	)
	return err
}

// Get returns the violation with the given id.
func (s *SQLiteAuditStore) Get(ctx context.Context, id string) (Violation, bool, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, type, severity, expected, actual, resources, detected_at,
			halted_at, disclosed_at, rollback_at, isolation_at, acknowledged_at
		FROM violations WHERE id = ?
	`, id)
	v, err := scanViolation(row.Scan)
	if err == sql.ErrNoRows {
		return Violation{}, false, nil
	}
	if err != nil {
		return Violation{}, false, err
	}
	return v, true, nil
}

// List returns filtered violations, oldest first.
func (s *SQLiteAuditStore) List(ctx context.Context, filter AuditFilter) ([]Violation, error) {
	query := `
		SELECT id, type, severity, expected, actual, resources, detected_at,
			halted_at, disclosed_at, rollback_at, isolation_at, acknowledged_at
		FROM violations
	`
	var (
		clauses []string
		args    []any
	)
	if filter.Type != "" {
		clauses = append(clauses, "type = ?")
		args = append(args, string(filter.Type))
	}
	if filter.Severity != "" {
		clauses = append(clauses, "severity = ?")
		args = append(args, string(filter.Severity))
	}
	if filter.Unresolved {
		clauses = append(clauses, "acknowledged_at IS NULL")
	}
	if len(clauses) > 0 {
		query += " WHERE " + strings.Join(clauses, " AND ")
	}
	query += " ORDER BY detected_at ASC, rowid ASC"
	if filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var violations []Violation
	for rows.Next() {
		v, err := scanViolation(rows.Scan)
		if err != nil {
			return nil, err
		}
		violations = append(violations, v)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return violations, nil
}

func scanViolation(scan func(...any) error) (Violation, error) {
	var (
		v            Violation
		vType        string
		severity     string
		resources    string
		detected     sql.NullTime
		halted       sql.NullTime
		disclosed    sql.NullTime
		rollback     sql.NullTime
		isolation    sql.NullTime
		acknowledged sql.NullTime
	)
	if err := scan(
		&v.ID,
		&vType,
		&severity,
		&v.Evidence.Expected,
		&v.Evidence.Actual,
		&resources,
		&detected,
		&halted,
		&disclosed,
		&rollback,
		&isolation,
		&acknowledged,
	); err != nil {
		return Violation{}, err
	}
	v.Type = Type(vType)
	v.Severity = Severity(severity)
	if resources != "" {
		v.AffectedResources = strings.Split(resources, "\n")
	}
	if detected.Valid {
		v.DetectedAt = detected.Time
	}
	v.Halted = recordFrom(halted)
	v.Disclosed = recordFrom(disclosed)
	v.RollbackPerformed = recordFrom(rollback)
	v.IsolationPerformed = recordFrom(isolation)
	v.Acknowledged = recordFrom(acknowledged)
	return v, nil
}

func ensureViolationSchema(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS violations (
			id TEXT PRIMARY KEY,
			type TEXT NOT NULL,
			severity TEXT NOT NULL,
			expected TEXT,
			actual TEXT,
			resources TEXT,
			detected_at TIMESTAMP,
			halted_at TIMESTAMP,
			disclosed_at TIMESTAMP,
			rollback_at TIMESTAMP,
			isolation_at TIMESTAMP,
			acknowledged_at TIMESTAMP
		);
		CREATE INDEX IF NOT EXISTS idx_violations_type ON violations(type);
		CREATE INDEX IF NOT EXISTS idx_violations_severity ON violations(severity);
	`)
	return err
}

func recordTime(r ActionRecord) any {
	if !r.Performed {
		return nil
	}
	return normalizeAuditTime(r.At)
}

func recordFrom(t sql.NullTime) ActionRecord {
	if !t.Valid {
		return ActionRecord{}
	}
	return ActionRecord{Performed: true, At: t.Time}
}

func normalizeAuditTime(value time.Time) time.Time {
	if value.IsZero() {
		return value
	}
	return value.UTC()
}
