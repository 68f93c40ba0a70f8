package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	_ "github.com/lib/pq"
	log "github.com/sirupsen/logrus"
	_ "modernc.org/sqlite"

	"github.com/i474232898/coffee-machine/internal/coffee"
	"github.com/i474232898/coffee-machine/internal/common"
)

// dialect carries the statements that differ between database drivers.
type dialect struct {
	driver string
	schema string
	get    string
	upsert string
}

var sqliteDialect = dialect{
	driver: "sqlite",
	schema: `CREATE TABLE IF NOT EXISTS coffee_requests (
        machine_id TEXT PRIMARY KEY,
        request_count INTEGER NOT NULL,
        last_request_date TEXT NOT NULL
    );`,
	get: `SELECT request_count, last_request_date FROM coffee_requests WHERE machine_id = ?`,
	upsert: `INSERT INTO coffee_requests(machine_id, request_count, last_request_date) VALUES(?,?,?)
        ON CONFLICT(machine_id) DO UPDATE SET request_count = excluded.request_count, last_request_date = excluded.last_request_date`,
}

var postgresDialect = dialect{
	driver: "postgres",
	schema: `CREATE TABLE IF NOT EXISTS coffee_requests (
        machine_id TEXT PRIMARY KEY,
        request_count INTEGER NOT NULL,
        last_request_date TEXT NOT NULL
    );`,
	get: `SELECT request_count, last_request_date FROM coffee_requests WHERE machine_id = $1`,
	upsert: `INSERT INTO coffee_requests (machine_id, request_count, last_request_date) VALUES ($1, $2, $3)
        ON CONFLICT (machine_id) DO UPDATE SET request_count = EXCLUDED.request_count, last_request_date = EXCLUDED.last_request_date`,
}

// SQLStore keeps the brew record in a single table row per machine.
type SQLStore struct {
	db        *sql.DB
	d         dialect
	machineID string
}

// NewSQLite opens (or creates) the sqlite database at path and applies the schema.
func NewSQLite(path, machineID string) (*SQLStore, error) {
	db, err := sql.Open(sqliteDialect.driver, path)
	if err != nil {
		return nil, err
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL;"); err != nil {
		log.WithError(err).Warn("store: could not set WAL mode")
	}

	return newSQLStore(db, sqliteDialect, machineID)
}

// NewPostgres connects to dsn and applies the schema.
func NewPostgres(dsn, machineID string) (*SQLStore, error) {
	db, err := sql.Open(postgresDialect.driver, dsn)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return newSQLStore(db, postgresDialect, machineID)
}

func newSQLStore(db *sql.DB, d dialect, machineID string) (*SQLStore, error) {
	if _, err := db.Exec(d.schema); err != nil {
		db.Close()
		return nil, err
	}
	return &SQLStore{db: db, d: d, machineID: machineID}, nil
}

// Get returns nil when the machine has no row yet.
func (s *SQLStore) Get(ctx context.Context) (*coffee.BrewRecord, error) {
	var (
		count int
		date  string
	)
	err := s.db.QueryRowContext(ctx, s.d.get, s.machineID).Scan(&count, &date)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	parsed, err := common.ParseDate(date)
	if err != nil {
		return nil, fmt.Errorf("invalid last_request_date %q: %w", date, err)
	}
	return &coffee.BrewRecord{RequestCount: count, LastRequestDate: parsed}, nil
}

// Update inserts or replaces the machine row.
func (s *SQLStore) Update(ctx context.Context, record coffee.BrewRecord) error {
	_, err := s.db.ExecContext(ctx, s.d.upsert,
		s.machineID, record.RequestCount, common.FormatDate(record.LastRequestDate))
	return err
}

// Close closes the database handle.
func (s *SQLStore) Close() error {
	return s.db.Close()
}
