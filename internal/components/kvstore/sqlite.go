package kvstore

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"

	_ "github.com/tursodatabase/libsql-client-go/libsql"
	_ "modernc.org/sqlite"
)

//go:embed schema.sql
var Schema string

// SQLStore implements Store on a single `kv` table.
type SQLStore struct {
	db *sql.DB
}

// NewSQLStore creates the `kv` table if needed and returns a store backed by it.
func NewSQLStore(ctx context.Context, db *sql.DB) (SQLStore, error) {
	_, err := db.ExecContext(ctx, Schema)
	if err != nil {
		return SQLStore{}, fmt.Errorf("create kv schema: %w", err)
	}
	return SQLStore{db: db}, nil
}

func (s SQLStore) Get(ctx context.Context, key string) (string, bool, error) {
	var value string
	err := s.db.QueryRowContext(ctx, "select value from kv where key = ?", key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return value, true, nil
}

func (s SQLStore) Set(ctx context.Context, key, value string) error {
	_, err := s.db.ExecContext(
		ctx,
		"insert into kv(key, value) values (?, ?) on conflict(key) do update set value = excluded.value",
		key, value,
	)
	return err
}

func (s SQLStore) Delete(ctx context.Context, key string) error {
	_, err := s.db.ExecContext(ctx, "delete from kv where key = ?", key)
	return err
}

func (s SQLStore) ListKeys(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, "select key from kv order by key")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return nil, err
		}
		keys = append(keys, key)
	}
	return keys, rows.Err()
}

// Config selects where the store lives. If `Url` is set the store is a remote libsql
// database, otherwise `File` is opened as a local sqlite database.
type Config struct {
	File      string `json:"file"`
	Url       string `json:"url"`
	AuthToken string `json:"auth_token"`
}

func wrapOpenDB(err error) error {
	return fmt.Errorf("open kv db: %w", err)
}

// OpenDB opens the database described by the config.
func (c Config) OpenDB() (*sql.DB, error) {
	if c.Url != "" {
		dsn, err := url.Parse(c.Url)
		if err != nil {
			return nil, wrapOpenDB(err)
		}
		if c.AuthToken != "" {
			query := dsn.Query()
			query.Set("authToken", c.AuthToken)
			dsn.RawQuery = query.Encode()
		}
		db, err := sql.Open("libsql", dsn.String())
		if err != nil {
			return nil, wrapOpenDB(err)
		}
		return db, nil
	}

	if c.File == "" {
		return nil, wrapOpenDB(fmt.Errorf("neither a file nor a url was specified"))
	}
	return OpenSqlite(c.File)
}

// OpenSqlite opens (creating if needed) a sqlite database at path, `:memory:` is allowed.
func OpenSqlite(path string) (*sql.DB, error) {
	if path != ":memory:" {
		err := os.MkdirAll(filepath.Dir(path), 0777)
		if err != nil {
			return nil, wrapOpenDB(err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, wrapOpenDB(err)
	}

	// sqlite only allows one writer, and every new connection to `:memory:` would be
	// a different database
	db.SetMaxOpenConns(1)
	if path != ":memory:" {
		_, err = db.Exec("PRAGMA journal_mode=WAL")
		if err != nil {
			return nil, wrapOpenDB(err)
		}
	}

	return db, nil
}
