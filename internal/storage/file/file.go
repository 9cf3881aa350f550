// Package file stores session records as one JSON document per session.
package file

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/AaronLay10/DecisionSim/internal/storage"
)

const recordExt = ".json"

// Store writes records under a directory. Writes go through a temp file and
// rename so a crash never leaves a partial record.
type Store struct {
	dir string
	mu  sync.Mutex
}

// Open creates the directory if needed.
func Open(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating session directory: %w", err)
	}
	return &Store{dir: dir}, nil
}

func (s *Store) path(sessionID string) (string, error) {
	if sessionID == "" || strings.ContainsAny(sessionID, `/\`) || strings.HasPrefix(sessionID, ".") {
		return "", fmt.Errorf("invalid session id: %q", sessionID)
	}
	return filepath.Join(s.dir, sessionID+recordExt), nil
}

func (s *Store) Save(_ context.Context, r storage.Record) error {
	path, err := s.path(r.SessionID)
	if err != nil {
		return err
	}

	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling session record: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("writing session record temp file: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("renaming session record: %w", err)
	}
	return nil
}

func (s *Store) Load(_ context.Context, sessionID string) (storage.Record, error) {
	path, err := s.path(sessionID)
	if err != nil {
		return storage.Record{}, err
	}
	return readRecord(path)
}

func readRecord(path string) (storage.Record, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return storage.Record{}, storage.ErrNotFound
		}
		return storage.Record{}, fmt.Errorf("reading session record: %w", err)
	}

	var r storage.Record
	if err := json.Unmarshal(data, &r); err != nil {
		return storage.Record{}, fmt.Errorf("unmarshaling session record %s: %w", filepath.Base(path), err)
	}
	return r, nil
}

func (s *Store) List(_ context.Context) ([]storage.Record, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("listing session records: %w", err)
	}

	var out []storage.Record
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != recordExt {
			continue
		}
		r, err := readRecord(filepath.Join(s.dir, e.Name()))
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	storage.SortRecords(out)
	return out, nil
}

func (s *Store) Delete(_ context.Context, sessionID string) error {
	path, err := s.path(sessionID)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("removing session record: %w", err)
	}
	return nil
}

func (s *Store) Close() error {
	return nil
}
