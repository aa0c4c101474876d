package audit

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "github.com/lib/pq"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

const defaultListLimit = 50

// PostgresRecorder stores entries in the request_log table.
type PostgresRecorder struct {
	db *sql.DB
}

var _ Recorder = (*PostgresRecorder)(nil)

// NewPostgresRecorder connects to databaseURL and applies pending migrations.
func NewPostgresRecorder(databaseURL string) (*PostgresRecorder, error) {
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// A CLI process issues requests one at a time.
	db.SetMaxOpenConns(2)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := runMigrations(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &PostgresRecorder{db: db}, nil
}

func runMigrations(db *sql.DB) error {
	sourceDriver, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("create migration source: %w", err)
	}

	dbDriver, err := postgres.WithInstance(db, &postgres.Config{MigrationsTable: "ims_schema_migrations"})
	if err != nil {
		return fmt.Errorf("create migration db driver: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", sourceDriver, "postgres", dbDriver)
	if err != nil {
		return fmt.Errorf("create migrator: %w", err)
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("apply migrations: %w", err)
	}

	return nil
}

// Close closes the underlying database connection.
func (r *PostgresRecorder) Close() error {
	return r.db.Close()
}

func (r *PostgresRecorder) Record(ctx context.Context, e *Entry) error {
	if e.CompletedAt.IsZero() {
		e.CompletedAt = time.Now().UTC()
	}
	err := r.db.QueryRowContext(ctx,
		`INSERT INTO request_log (request_id, method, path, status_code, outcome, authenticated, duration_ms, error, completed_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		 RETURNING id`,
		e.RequestID, e.Method, e.Path, e.StatusCode, e.Outcome, e.Authenticated, e.DurationMS, e.Error, e.CompletedAt,
	).Scan(&e.ID)
	if err != nil {
		return fmt.Errorf("insert request log: %w", err)
	}
	return nil
}

// List returns the most recent entries first.
func (r *PostgresRecorder) List(ctx context.Context, opts ListOptions) ([]*Entry, error) {
	limit := opts.Limit
	if limit <= 0 {
		limit = defaultListLimit
	}

	var (
		where []string
		args  []any
	)
	if opts.Outcome != "" {
		args = append(args, opts.Outcome)
		where = append(where, fmt.Sprintf("outcome = $%d", len(args)))
	}
	args = append(args, limit)

	query := `SELECT id, request_id, method, path, status_code, outcome, authenticated, duration_ms, error, completed_at
		FROM request_log`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += fmt.Sprintf(" ORDER BY completed_at DESC, id DESC LIMIT $%d", len(args))

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query request log: %w", err)
	}
	defer rows.Close()

	var entries []*Entry
	for rows.Next() {
		e := &Entry{}
		if err := rows.Scan(&e.ID, &e.RequestID, &e.Method, &e.Path, &e.StatusCode, &e.Outcome,
			&e.Authenticated, &e.DurationMS, &e.Error, &e.CompletedAt); err != nil {
			return nil, fmt.Errorf("scan request log: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate request log: %w", err)
	}
	return entries, nil
}
