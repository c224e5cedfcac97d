package cache

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"
)

// SQL drivers supported by SQLStore
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// openDB is a package-level var to allow test injection
var openDB = sql.Open

// SQLStore keeps documents in a single table of a SQLite or PostgreSQL database
type SQLStore struct {
	db     *sql.DB
	driver string
	ttl    time.Duration
	now    func() time.Time
}

// OpenSQLStore opens the database, applies pragmas for SQLite and creates the table
func OpenSQLStore(driver, dsn string, ttl time.Duration) (*SQLStore, error) {
	if driver != DriverSQLite && driver != DriverPostgres {
		return nil, fmt.Errorf("unsupported sql driver: %s", driver)
	}

	if driver == DriverSQLite {
		if dir := filepath.Dir(dsn); dir != "." && dsn != ":memory:" {
			if err := os.MkdirAll(dir, 0755); err != nil {
				return nil, fmt.Errorf("create database dir: %w", err)
			}
		}
	}

	db, err := openDB(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if driver == DriverSQLite {
		// one connection keeps an in-memory database shared across calls
		db.SetMaxOpenConns(1)
		pragmas := []string{
			"PRAGMA journal_mode = WAL",
			"PRAGMA busy_timeout = 5000",
			"PRAGMA synchronous = NORMAL",
		}
		for _, p := range pragmas {
			if _, err := db.Exec(p); err != nil {
				db.Close()
				return nil, fmt.Errorf("pragma %q: %w", p, err)
			}
		}
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	s := &SQLStore{db: db, driver: driver, ttl: ttl, now: time.Now}
	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("initialize schema: %w", err)
	}

	return s, nil
}

func (s *SQLStore) initSchema() error {
	_, err := s.db.Exec(`CREATE TABLE IF NOT EXISTS view_documents (
		key TEXT PRIMARY KEY,
		body TEXT NOT NULL,
		updated_at BIGINT NOT NULL
	)`)
	return err
}

// Close closes the database connection
func (s *SQLStore) Close() error {
	return s.db.Close()
}

// Get retrieves a document; expired rows are removed and reported as a miss
func (s *SQLStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	var body string
	var updated int64
	err := s.db.QueryRowContext(ctx, s.rebind(`SELECT body, updated_at FROM view_documents WHERE key = ?`), key).Scan(&body, &updated)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, ioError("select", key, err)
	}

	if s.ttl > 0 && s.now().Sub(time.Unix(0, updated)) > s.ttl {
		_ = s.Delete(ctx, key)
		return nil, false, nil
	}

	return []byte(body), true, nil
}

// Set inserts or replaces a document
func (s *SQLStore) Set(ctx context.Context, key string, value []byte) error {
	_, err := s.db.ExecContext(ctx, s.rebind(`INSERT INTO view_documents (key, body, updated_at) VALUES (?, ?, ?)
		ON CONFLICT (key) DO UPDATE SET body = excluded.body, updated_at = excluded.updated_at`),
		key, string(value), s.now().UnixNano())
	if err != nil {
		return ioError("upsert", key, err)
	}
	return nil
}

// Delete removes a document
func (s *SQLStore) Delete(ctx context.Context, key string) error {
	if _, err := s.db.ExecContext(ctx, s.rebind(`DELETE FROM view_documents WHERE key = ?`), key); err != nil {
		return ioError("delete", key, err)
	}
	return nil
}

// Clear removes every document
func (s *SQLStore) Clear(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM view_documents`); err != nil {
		return ioError("clear", "view_documents", err)
	}
	return nil
}

// rebind rewrites ? placeholders to $n for postgres
func (s *SQLStore) rebind(query string) string {
	if s.driver != DriverPostgres {
		return query
	}
	out := make([]byte, 0, len(query)+8)
	n := 0
	for i := 0; i < len(query); i++ {
		if query[i] == '?' {
			n++
			out = append(out, fmt.Sprintf("$%d", n)...)
			continue
		}
		out = append(out, query[i])
	}
	return string(out)
}
