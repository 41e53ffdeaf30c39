// Package journal persists one row per published form transaction.
//
// The journal is an audit trail and a session-restore mechanism, not a
// configuration store: it records what the user did (values, versions,
// error counts), stamped with the configuration fingerprint so a log
// is never replayed through a different configuration.
package journal

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"

	_ "github.com/mattn/go-sqlite3"

	"github.com/roach88/formic/internal/config"
	"github.com/roach88/formic/internal/engine"
)

//go:embed schema.sql
var schemaSQL string

// Schema version tracking:
// 1 - Initial schema
const currentSchemaVersion = 1

// Journal provides durable storage for form transaction logs.
// Uses SQLite with WAL mode for concurrent read access.
// Implements engine.Recorder.
type Journal struct {
	db *sql.DB
}

// Open creates or opens a journal database at the given path.
//
// The database is configured with:
//   - WAL mode for concurrent reads during writes
//   - NORMAL synchronous mode (balance durability/performance)
//   - 5-second busy timeout for lock contention
//   - Foreign key enforcement
//
// Idempotent: safe to call on an existing journal.
func Open(path string) (*Journal, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open journal: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("connect journal: %w", err)
	}

	// SQLite supports one writer at a time; a single connection avoids
	// SQLITE_BUSY under the engine's serialized write path.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := applyPragmas(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply pragmas: %w", err)
	}
	if err := applySchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return &Journal{db: db}, nil
}

// Close closes the database connection.
func (j *Journal) Close() error {
	if j.db == nil {
		return nil
	}
	return j.db.Close()
}

func applyPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA foreign_keys=ON",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return fmt.Errorf("%s: %w", p, err)
		}
	}
	return nil
}

func applySchema(db *sql.DB) error {
	var version int
	if err := db.QueryRow("PRAGMA user_version").Scan(&version); err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}
	if version >= currentSchemaVersion {
		return nil
	}
	if _, err := db.Exec(schemaSQL); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	if _, err := db.Exec(fmt.Sprintf("PRAGMA user_version=%d", currentSchemaVersion)); err != nil {
		return fmt.Errorf("set schema version: %w", err)
	}
	return nil
}

// Record appends one transaction row. Idempotent via ON CONFLICT on
// the transaction token: replaying a duplicate record is silently
// ignored.
func (j *Journal) Record(ctx context.Context, tx engine.Transaction) error {
	var valueJSON []byte
	if tx.Value != nil {
		b, err := config.MarshalCanonical(tx.Value)
		if err != nil {
			return fmt.Errorf("record transaction %s: marshal value: %w", tx.Token, err)
		}
		valueJSON = b
	}

	_, err := j.db.ExecContext(ctx, `
		INSERT INTO transactions
		(token, version, kind, element_id, value, error_count, config_hash)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(token) DO NOTHING
	`,
		tx.Token,
		tx.Version,
		tx.Kind,
		string(tx.ElementID),
		valueJSON,
		tx.ErrorCount,
		tx.ConfigHash,
	)
	if err != nil {
		return fmt.Errorf("record transaction %s: %w", tx.Token, err)
	}
	return nil
}

// Entry is one journal row read back for replay or inspection.
type Entry struct {
	Token      string
	Version    int64
	Kind       string
	ElementID  config.ElementID
	Value      config.Value
	ErrorCount int
	ConfigHash string
}

// List returns all transactions for a configuration hash in version
// order.
func (j *Journal) List(ctx context.Context, configHash string) ([]Entry, error) {
	rows, err := j.db.QueryContext(ctx, `
		SELECT token, version, kind, element_id, value, error_count, config_hash
		FROM transactions
		WHERE config_hash = ?
		ORDER BY version ASC
	`, configHash)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		var elementID string
		var valueJSON []byte
		if err := rows.Scan(&e.Token, &e.Version, &e.Kind, &elementID, &valueJSON, &e.ErrorCount, &e.ConfigHash); err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		e.ElementID = config.ElementID(elementID)
		if len(valueJSON) > 0 {
			v, err := config.FromJSON(valueJSON)
			if err != nil {
				return nil, fmt.Errorf("decode value for %s: %w", e.Token, err)
			}
			e.Value = v
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// LastVersion returns the highest recorded version for a configuration
// hash, or 0 when the journal has no rows for it.
func (j *Journal) LastVersion(ctx context.Context, configHash string) (int64, error) {
	var v sql.NullInt64
	err := j.db.QueryRow(`
		SELECT MAX(version) FROM transactions WHERE config_hash = ?
	`, configHash).Scan(&v)
	if err != nil {
		return 0, fmt.Errorf("last version: %w", err)
	}
	if !v.Valid {
		return 0, nil
	}
	return v.Int64, nil
}
