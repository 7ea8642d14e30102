// Package auditstore provides host-side persistence collaborators for audit
// chains. The core logger owns chain state but never does I/O; these stores
// implement the one-append-only-stream-per-logger layout the host is
// responsible for.
//
// A chain must have a single writer. Both stores serialize their own appends
// and both assume no other process extends the same chain; multi-instance
// coordination is explicitly out of scope for the core.
package auditstore

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"sync"

	"github.com/hengadev/phiguard"
	"github.com/hengadev/phiguard/internal/canonical"
)

// FileStore appends signed entries to a newline-delimited JSON file.
type FileStore struct {
	mu   sync.Mutex
	path string
}

// NewFileStore creates the file (0600, append-only) if it does not exist.
func NewFileStore(path string) (*FileStore, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600)
	if err != nil {
		return nil, fmt.Errorf("open audit log %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return nil, err
	}
	return &FileStore{path: path}, nil
}

// Append writes one entry as a single JSON line.
func (s *FileStore) Append(entry phiguard.SignedEntry) error {
	// Canonical encoding keeps Data bytes identical to what was signed;
	// default JSON encoding would re-escape HTML characters.
	line, err := canonical.Marshal(entry)
	if err != nil {
		return fmt.Errorf("marshal entry %d: %w", entry.SequenceNumber, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := os.OpenFile(s.path, os.O_APPEND|os.O_WRONLY, 0o600)
	if err != nil {
		return fmt.Errorf("open audit log %s: %w", s.path, err)
	}
	defer f.Close()

	if _, err := f.Write(append(line, '\n')); err != nil {
		return fmt.Errorf("append entry %d: %w", entry.SequenceNumber, err)
	}
	return f.Sync()
}

// ReadAll loads the whole chain in file order.
func (s *FileStore) ReadAll() ([]phiguard.SignedEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := os.Open(s.path)
	if err != nil {
		return nil, fmt.Errorf("open audit log %s: %w", s.path, err)
	}
	defer f.Close()

	var entries []phiguard.SignedEntry
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for lineNo := 1; scanner.Scan(); lineNo++ {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var entry phiguard.SignedEntry
		if err := json.Unmarshal(line, &entry); err != nil {
			return nil, fmt.Errorf("parse line %d: %w", lineNo, err)
		}
		entries = append(entries, entry)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read audit log %s: %w", s.path, err)
	}
	return entries, nil
}
