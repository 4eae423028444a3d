package database

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	_ "modernc.org/sqlite"
)

// Connect opens the SQLite store at dsn, creating its directory when the
// DSN names a file. The pool is pinned to one connection so that SQLite
// sees a single writer and in-memory databases survive between queries.
func Connect(dsn string) (*sqlx.DB, error) {
	if path := filePath(dsn); path != "" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, errors.Wrap(err, "create database directory")
		}
	}

	db, err := sqlx.Connect("sqlite", dsn)
	if err != nil {
		return nil, errors.Wrap(err, "connect to database")
	}
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(`PRAGMA foreign_keys = ON`); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "enable foreign keys")
	}

	log.Debug().Str("dsn", dsn).Msg("database connected")
	return db, nil
}

func filePath(dsn string) string {
	name := dsn
	if i := strings.IndexByte(name, '?'); i >= 0 {
		name = name[:i]
	}
	name = strings.TrimPrefix(name, "file:")
	if name == "" || name == ":memory:" || strings.Contains(dsn, "mode=memory") {
		return ""
	}
	return name
}
