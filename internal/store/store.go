package store

import (
	"database/sql"
	"os"
	"path/filepath"
	"sync"
	"time"

	"codeberg.org/mutker/smartmon/internal/errors"
	"codeberg.org/mutker/smartmon/internal/logger"

	_ "github.com/mattn/go-sqlite3"
)

const (
	SchemaVersion = 1

	defaultDirPerm = 0o755

	createTablesSQL = `
    CREATE TABLE IF NOT EXISTS schema_versions (
        version     INTEGER PRIMARY KEY,
        applied_at  TEXT NOT NULL
    );
    CREATE TABLE IF NOT EXISTS value_store (
        item       TEXT NOT NULL,
        key        TEXT NOT NULL,
        timestamp  INTEGER NOT NULL,
        value      REAL NOT NULL,
        PRIMARY KEY (item, key)
    );`
)

// DB is the sqlite backed value store shared by all monitored items.
// One row per (item, key) holds the last seen counter sample.
type DB struct {
	db *sql.DB
	mu sync.Mutex
}

func Open(path string) (*DB, error) {
	errFactory := errors.New()

	if path == "" {
		return nil, errFactory.New(ErrInvalidDBPath)
	}

	logger.Debug().Msgf("Opening value store at: %s", path)

	// Ensure the directory exists
	if err := os.MkdirAll(filepath.Dir(path), defaultDirPerm); err != nil {
		return nil, errFactory.Wrap(ErrStorageInit, err)
	}

	db, err := sql.Open("sqlite3", path+"?_journal=WAL&_auto_vacuum=2")
	if err != nil {
		return nil, errFactory.Wrap(ErrStorageInit, err)
	}

	if err := initSchema(db); err != nil {
		db.Close()
		return nil, errFactory.Wrap(ErrStorageInit, err)
	}

	return &DB{db: db}, nil
}

func initSchema(db *sql.DB) error {
	errFactory := errors.New()

	tx, err := db.Begin()
	if err != nil {
		return errFactory.Wrap(ErrSchemaInitFailed, err)
	}

	committed := false
	defer func() {
		if !committed {
			if err := tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
				logger.Debug().Err(err).Msg("Failed to rollback transaction")
			}
		}
	}()

	if _, err := tx.Exec(createTablesSQL); err != nil {
		return errFactory.Wrap(ErrSchemaInitFailed, err)
	}

	if _, err := tx.Exec(`
        INSERT OR IGNORE INTO schema_versions (version, applied_at)
        VALUES (?, datetime('now'))
    `, SchemaVersion); err != nil {
		return errFactory.Wrap(ErrSchemaInitFailed, err)
	}

	if err := tx.Commit(); err != nil {
		return errFactory.Wrap(ErrSchemaInitFailed, err)
	}
	committed = true

	return nil
}

// Item returns the store slot scoped to one monitored item.
func (d *DB) Item(item string) ItemStore {
	return &itemStore{db: d, item: item}
}

func (d *DB) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	errFactory := errors.New()

	// Checkpoint WAL and cleanup on close
	if _, err := d.db.Exec("PRAGMA wal_checkpoint(TRUNCATE)"); err != nil {
		return errFactory.Wrap(ErrStorageClose, err)
	}

	if err := d.db.Close(); err != nil {
		return errFactory.Wrap(ErrStorageClose, err)
	}

	logger.Debug().Msg("Value store closed")

	return nil
}

type itemStore struct {
	db   *DB
	item string
}

func (s *itemStore) Load(key string) (Sample, bool, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()

	var (
		ts    int64
		value float64
	)
	err := s.db.db.QueryRow(`
        SELECT timestamp, value FROM value_store
        WHERE item = ? AND key = ?
    `, s.item, key).Scan(&ts, &value)
	if errors.Is(err, sql.ErrNoRows) {
		return Sample{}, false, nil
	}
	if err != nil {
		return Sample{}, false, errors.New().Wrap(ErrStorageAccess, err)
	}

	return Sample{Time: time.Unix(0, ts), Value: value}, true, nil
}

func (s *itemStore) Save(key string, sample Sample) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()

	_, err := s.db.db.Exec(`
        INSERT INTO value_store (item, key, timestamp, value)
        VALUES (?, ?, ?, ?)
        ON CONFLICT(item, key) DO UPDATE SET
            timestamp = excluded.timestamp,
            value = excluded.value
    `, s.item, key, sample.Time.UnixNano(), sample.Value)
	if err != nil {
		return errors.New().Wrap(ErrStorageAccess, err)
	}

	return nil
}
