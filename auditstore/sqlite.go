package auditstore

import (
	"database/sql"
	"encoding/json"
	"fmt"

	_ "github.com/mattn/go-sqlite3"

	"github.com/hengadev/phiguard"
)

// SQLiteStore persists signed entries in a single-table SQLite database.
// The sequence number is the primary key, so a duplicate append (two loggers
// writing one chain) fails loudly instead of forking the chain silently.
type SQLiteStore struct {
	db *sql.DB
}

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS audit_entries (
	sequence_number INTEGER PRIMARY KEY,
	timestamp       TEXT NOT NULL,
	data            TEXT NOT NULL,
	previous_hash   TEXT,
	signature       TEXT NOT NULL
);`

// NewSQLiteStore opens (and if needed initializes) the database at path.
// Use ":memory:" for throwaway stores in tests.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open audit database %s: %w", path, err)
	}
	if _, err := db.Exec(sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("initialize audit schema: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

// Close releases the underlying database handle.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Append inserts one entry. Appending an already-used sequence number
// returns an error.
func (s *SQLiteStore) Append(entry phiguard.SignedEntry) error {
	var prev sql.NullString
	if entry.PreviousHash != nil {
		prev = sql.NullString{String: *entry.PreviousHash, Valid: true}
	}

	_, err := s.db.Exec(
		`INSERT INTO audit_entries (sequence_number, timestamp, data, previous_hash, signature)
		 VALUES (?, ?, ?, ?, ?)`,
		entry.SequenceNumber, entry.Timestamp, string(entry.Data), prev, entry.Signature,
	)
	if err != nil {
		return fmt.Errorf("append entry %d: %w", entry.SequenceNumber, err)
	}
	return nil
}

// ReadAll loads the whole chain ordered by sequence number.
func (s *SQLiteStore) ReadAll() ([]phiguard.SignedEntry, error) {
	rows, err := s.db.Query(
		`SELECT sequence_number, timestamp, data, previous_hash, signature
		 FROM audit_entries ORDER BY sequence_number`,
	)
	if err != nil {
		return nil, fmt.Errorf("query audit entries: %w", err)
	}
	defer rows.Close()

	var entries []phiguard.SignedEntry
	for rows.Next() {
		var (
			entry phiguard.SignedEntry
			data  string
			prev  sql.NullString
		)
		if err := rows.Scan(&entry.SequenceNumber, &entry.Timestamp, &data, &prev, &entry.Signature); err != nil {
			return nil, fmt.Errorf("scan audit entry: %w", err)
		}
		entry.Data = json.RawMessage(data)
		if prev.Valid {
			h := prev.String
			entry.PreviousHash = &h
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate audit entries: %w", err)
	}
	return entries, nil
}
