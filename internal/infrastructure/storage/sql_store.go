package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"

	"SearchScorer/internal/ports"
)

const (
	kvTable = "kv_store"

	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

const createKVTable = `CREATE TABLE IF NOT EXISTS kv_store (
	name    TEXT PRIMARY KEY,
	payload TEXT NOT NULL
)`

// SQLStore persists string values in a single key-value table.
// Settings and cached scores share the table under distinct key namespaces.
type SQLStore struct {
	db      *sql.DB
	builder sq.StatementBuilderType
}

var _ ports.KVStore = (*SQLStore)(nil)

// Open connects to sqlite or postgres and prepares the schema.
func Open(ctx context.Context, driver, dsn string) (*SQLStore, error) {
	if driver == "" {
		driver = DriverSQLite
	}
	if driver != DriverSQLite && driver != DriverPostgres {
		return nil, fmt.Errorf("unsupported storage driver %q", driver)
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", driver, err)
	}
	if driver == DriverSQLite {
		// every ":memory:" connection is its own database
		db.SetMaxOpenConns(1)
	}

	store, err := NewSQLStore(ctx, db, driver)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// NewSQLStore wires an existing sql.DB and creates the table if needed.
func NewSQLStore(ctx context.Context, db *sql.DB, driver string) (*SQLStore, error) {
	if db == nil {
		return nil, errors.New("sql store: nil database")
	}

	var placeholder sq.PlaceholderFormat = sq.Question
	if driver == DriverPostgres {
		placeholder = sq.Dollar
	}

	if _, err := db.ExecContext(ctx, createKVTable); err != nil {
		return nil, fmt.Errorf("create kv schema: %w", err)
	}

	return &SQLStore{
		db:      db,
		builder: sq.StatementBuilder.PlaceholderFormat(placeholder),
	}, nil
}

// Close releases the underlying connection pool.
func (s *SQLStore) Close() error {
	return s.db.Close()
}

// Get returns the stored value and whether the key exists.
func (s *SQLStore) Get(ctx context.Context, key string) (string, bool, error) {
	query, args, err := s.builder.
		Select("payload").
		From(kvTable).
		Where(sq.Eq{"name": key}).
		ToSql()
	if err != nil {
		return "", false, fmt.Errorf("build get: %w", err)
	}

	var payload string
	err = s.db.QueryRowContext(ctx, query, args...).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("get %s: %w", key, err)
	}

	return payload, true, nil
}

// GetMany returns every present key among keys; absent keys are omitted.
func (s *SQLStore) GetMany(ctx context.Context, keys []string) (map[string]string, error) {
	result := make(map[string]string, len(keys))
	if len(keys) == 0 {
		return result, nil
	}

	query, args, err := s.builder.
		Select("name", "payload").
		From(kvTable).
		Where(sq.Eq{"name": keys}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build get many: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query keys: %w", err)
	}

	for rows.Next() {
		var name, payload string
		if err := rows.Scan(&name, &payload); err != nil {
			_ = rows.Close()
			return nil, fmt.Errorf("scan key: %w", err)
		}
		result[name] = payload
	}

	if rowsErr := rows.Err(); rowsErr != nil {
		_ = rows.Close()
		return nil, fmt.Errorf("rows iteration: %w", rowsErr)
	}

	if closeErr := rows.Close(); closeErr != nil {
		return nil, fmt.Errorf("close rows: %w", closeErr)
	}

	return result, nil
}

// Put upserts a value; the last write wins.
func (s *SQLStore) Put(ctx context.Context, key, value string) error {
	query, args, err := s.builder.
		Insert(kvTable).
		Columns("name", "payload").
		Values(key, value).
		Suffix("ON CONFLICT (name) DO UPDATE SET payload = excluded.payload").
		ToSql()
	if err != nil {
		return fmt.Errorf("build put: %w", err)
	}

	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("upsert %s: %w", key, err)
	}

	return nil
}
