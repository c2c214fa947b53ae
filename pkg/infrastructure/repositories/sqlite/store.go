package sqlite

import (
	"context"
	"database/sql"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/vsinha/harvest/pkg/domain/entities"
	"github.com/vsinha/harvest/pkg/domain/repositories"
)

//go:embed schema.sql
var schemaSQL string

// Store is an append-only event log per country backed by SQLite. Rows are
// stored as read, in the column order the country log was created with.
type Store struct {
	sqlDB *sql.DB
}

// Verify interface compliance
var _ repositories.EventLogRepository = (*Store)(nil)

// Open opens an event log database and creates its tables
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}
	dsn := filepath.Clean(path) + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if _, err := sqlDB.Exec(schemaSQL); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("create tables: %w", err)
	}
	return &Store{sqlDB: sqlDB}, nil
}

// Close releases the SQLite connection
func (s *Store) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

func (s *Store) check(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	return nil
}

type querier interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func logColumns(ctx context.Context, q querier, country string) ([]string, error) {
	var raw string
	err := q.QueryRowContext(ctx, `SELECT columns FROM event_logs WHERE country = ?`, country).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read event log columns: %w", err)
	}
	var columns []string
	if err := json.Unmarshal([]byte(raw), &columns); err != nil {
		return nil, fmt.Errorf("decode event log columns: %w", err)
	}
	return columns, nil
}

func createLog(ctx context.Context, tx *sql.Tx, country string, columns []string) error {
	raw, err := json.Marshal(columns)
	if err != nil {
		return fmt.Errorf("encode event log columns: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO event_logs (country, columns, created_at) VALUES (?, ?, ?)`,
		country, string(raw), time.Now().UTC().UnixMilli()); err != nil {
		return fmt.Errorf("create event log: %w", err)
	}
	return nil
}

func insertRow(ctx context.Context, tx *sql.Tx, country string, runID sql.NullString, row []string) error {
	raw, err := json.Marshal(row)
	if err != nil {
		return fmt.Errorf("encode event row: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO disturbance_events (country, run_id, row_values) VALUES (?, ?, ?)`,
		country, runID, string(raw)); err != nil {
		return fmt.Errorf("insert event row: %w", err)
	}
	return nil
}

// Seed imports a historical log for a country that has none yet
func (s *Store) Seed(ctx context.Context, country string, log *entities.EventLog) error {
	if err := s.check(ctx); err != nil {
		return err
	}
	tx, err := s.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin seed: %w", err)
	}
	defer tx.Rollback()

	existing, err := logColumns(ctx, tx, country)
	if err != nil {
		return err
	}
	if existing != nil {
		return fmt.Errorf("event log for %s already exists", country)
	}
	if err := createLog(ctx, tx, country, log.Columns()); err != nil {
		return err
	}
	for _, row := range log.Rows() {
		if err := insertRow(ctx, tx, country, sql.NullString{}, row); err != nil {
			return err
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit seed: %w", err)
	}
	return nil
}

// LoadHistory returns the stored log of a country, or nil when it has none
func (s *Store) LoadHistory(ctx context.Context, country string, schema entities.ClassifierSchema) (*entities.EventLog, error) {
	if err := s.check(ctx); err != nil {
		return nil, err
	}
	columns, err := logColumns(ctx, s.sqlDB, country)
	if err != nil || columns == nil {
		return nil, err
	}

	rows, err := s.sqlDB.QueryContext(ctx,
		`SELECT row_values FROM disturbance_events WHERE country = ? ORDER BY id`, country)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	defer rows.Close()

	var records [][]string
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		var record []string
		if err := json.Unmarshal([]byte(raw), &record); err != nil {
			return nil, fmt.Errorf("decode event row: %w", err)
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate events: %w", err)
	}
	return entities.NewEventLog(schema, columns, records)
}

// Append stores the events of one run in a single transaction. Events
// are written in the column order of the existing log; columns only
// applies to a country logged for the first time.
func (s *Store) Append(
	ctx context.Context,
	runID, country string,
	schema entities.ClassifierSchema,
	columns []string,
	events []entities.DisturbanceEvent,
) error {
	if err := s.check(ctx); err != nil {
		return err
	}
	if strings.TrimSpace(runID) == "" {
		return fmt.Errorf("run id is required")
	}

	tx, err := s.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin append: %w", err)
	}
	defer tx.Rollback()

	existing, err := logColumns(ctx, tx, country)
	if err != nil {
		return err
	}
	if existing == nil {
		if err := createLog(ctx, tx, country, columns); err != nil {
			return err
		}
		existing = columns
	}
	empty, err := entities.NewEventLog(schema, existing, nil)
	if err != nil {
		return err
	}
	rendered, err := empty.Append(events)
	if err != nil {
		return err
	}

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO runs (run_id, country, event_count, created_at) VALUES (?, ?, ?, ?)`,
		runID, country, len(events), time.Now().UTC().UnixMilli()); err != nil {
		return fmt.Errorf("record run %s: %w", runID, err)
	}
	run := sql.NullString{String: runID, Valid: true}
	for _, row := range rendered.Rows() {
		if err := insertRow(ctx, tx, country, run, row); err != nil {
			return err
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit append: %w", err)
	}
	return nil
}

// RunEventCount returns the number of events a run appended
func (s *Store) RunEventCount(ctx context.Context, runID string) (int, error) {
	if err := s.check(ctx); err != nil {
		return 0, err
	}
	var n int
	err := s.sqlDB.QueryRowContext(ctx, `SELECT event_count FROM runs WHERE run_id = ?`, runID).Scan(&n)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("run %s not found", runID)
	}
	if err != nil {
		return 0, fmt.Errorf("read run: %w", err)
	}
	return n, nil
}
