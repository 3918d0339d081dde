package planlog

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	_ "modernc.org/sqlite"
)

// SQLiteStore persists records to a SQLite database. Created schedules are
// indexed by rake so rake queries do not scan every run.
type SQLiteStore struct {
	db *sql.DB
}

const schema = `
CREATE TABLE IF NOT EXISTS plan_runs (
    run_id TEXT PRIMARY KEY,
    ts INTEGER NOT NULL,
    record TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS plan_assignments (
    run_id TEXT NOT NULL REFERENCES plan_runs(run_id),
    schedule_id TEXT NOT NULL,
    rake_id TEXT NOT NULL,
    route_id TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS plan_assignments_rake ON plan_assignments(rake_id);`

// NewSQLiteStore opens or creates the database at path and ensures schema.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	if _, err := db.Exec(schema); err != nil {
		if cerr := db.Close(); cerr != nil {
			return nil, fmt.Errorf("close db: %v (schema err: %w)", cerr, err)
		}
		return nil, err
	}
	return &SQLiteStore{db: db}, nil
}

// Append writes the record and its assignments in one transaction.
func (s *SQLiteStore) Append(ctx context.Context, rec Record) error {
	b, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO plan_runs (run_id, ts, record) VALUES (?, ?, ?)`,
		rec.RunID, rec.Timestamp.UnixNano(), string(b)); err != nil {
		return fmt.Errorf("insert run %s: %w", rec.RunID, err)
	}
	for _, sch := range rec.Created {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO plan_assignments (run_id, schedule_id, rake_id, route_id) VALUES (?, ?, ?, ?)`,
			rec.RunID, sch.ID, sch.RakeID, sch.RouteID); err != nil {
			return fmt.Errorf("insert assignment %s: %w", sch.ID, err)
		}
	}
	return tx.Commit()
}

// Query returns records matching q ordered by timestamp.
func (s *SQLiteStore) Query(ctx context.Context, q Query) ([]Record, error) {
	var args []any
	query := `SELECT record FROM plan_runs WHERE 1=1`
	if !q.Start.IsZero() {
		query += ` AND ts >= ?`
		args = append(args, q.Start.UnixNano())
	}
	if !q.End.IsZero() {
		query += ` AND ts <= ?`
		args = append(args, q.End.UnixNano())
	}
	if q.RakeID != "" {
		query += ` AND run_id IN (SELECT run_id FROM plan_assignments WHERE rake_id = ?)`
		args = append(args, q.RakeID)
	}
	query += ` ORDER BY ts`
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	var res []Record
	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return nil, err
		}
		var r Record
		if err := json.Unmarshal([]byte(data), &r); err != nil {
			return nil, fmt.Errorf("unmarshal record: %w", err)
		}
		res = append(res, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return res, nil
}

// Close closes the underlying database.
func (s *SQLiteStore) Close() error { return s.db.Close() }
