package store

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/Tiliavir/medrem/internal/model"
)

// JSONStore keeps all records in one JSON array file. Every operation reads
// the file, and every write replaces it atomically.
type JSONStore struct {
	mu   sync.Mutex
	path string
}

// NewJSONStore returns a store backed by the file at path. The file is
// created on first write.
func NewJSONStore(path string) *JSONStore {
	return &JSONStore{path: path}
}

// load reads the data file. Returns an empty list if not found.
func (s *JSONStore) load() ([]model.Medicine, error) {
	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return []model.Medicine{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("storage error reading %s: %w", s.path, err)
	}

	var records []model.Medicine
	if err := json.Unmarshal(data, &records); err != nil {
		// Back up corrupt file and abort.
		backupPath := s.path + ".corrupt"
		_ = os.Rename(s.path, backupPath)
		return nil, fmt.Errorf("corrupt JSON in %s (backed up to %s): %w", s.path, backupPath, err)
	}
	if records == nil {
		records = []model.Medicine{}
	}
	return records, nil
}

// save atomically writes records to the data file.
func (s *JSONStore) save(records []model.Medicine) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return fmt.Errorf("storage error creating directories: %w", err)
	}

	data, err := json.MarshalIndent(records, "", "    ")
	if err != nil {
		return fmt.Errorf("storage error marshalling JSON: %w", err)
	}

	// Atomic write: write to temp file then rename.
	tmpPath := s.path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0o600); err != nil {
		return fmt.Errorf("storage error writing temp file: %w", err)
	}
	if err := os.Rename(tmpPath, s.path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("storage error renaming temp file: %w", err)
	}
	return nil
}

// List returns all records ordered by taken time.
func (s *JSONStore) List(_ context.Context) ([]model.Medicine, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	records, err := s.load()
	if err != nil {
		return nil, err
	}
	sortByTakenTime(records)
	return records, nil
}

// Get returns record id.
func (s *JSONStore) Get(_ context.Context, id int64) (model.Medicine, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	records, err := s.load()
	if err != nil {
		return model.Medicine{}, err
	}
	i := findByID(records, id)
	if i < 0 {
		return model.Medicine{}, ErrNotFound
	}
	return records[i], nil
}

// Add appends a new record with the next free id.
func (s *JSONStore) Add(_ context.Context, f model.Fields) (model.Medicine, error) {
	f, err := checkFields(f)
	if err != nil {
		return model.Medicine{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	records, err := s.load()
	if err != nil {
		return model.Medicine{}, err
	}
	if findByName(records, f.Name, 0) != nil {
		return model.Medicine{}, &DuplicateError{Name: f.Name}
	}

	m := model.Medicine{ID: nextID(records)}
	m.Apply(f)
	if err := s.save(append(records, m)); err != nil {
		return model.Medicine{}, err
	}
	return m, nil
}

// Update replaces the editable fields of record id.
func (s *JSONStore) Update(_ context.Context, id int64, f model.Fields) (model.Medicine, error) {
	f, err := checkFields(f)
	if err != nil {
		return model.Medicine{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	records, err := s.load()
	if err != nil {
		return model.Medicine{}, err
	}
	i := findByID(records, id)
	if i < 0 {
		return model.Medicine{}, ErrNotFound
	}
	if findByName(records, f.Name, id) != nil {
		return model.Medicine{}, &DuplicateError{Name: f.Name}
	}

	records[i].Apply(f)
	if err := s.save(records); err != nil {
		return model.Medicine{}, err
	}
	return records[i], nil
}

// Remove deletes record id and returns it.
func (s *JSONStore) Remove(_ context.Context, id int64) (model.Medicine, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	records, err := s.load()
	if err != nil {
		return model.Medicine{}, err
	}
	i := findByID(records, id)
	if i < 0 {
		return model.Medicine{}, ErrNotFound
	}

	removed := records[i]
	records = append(records[:i], records[i+1:]...)
	if err := s.save(records); err != nil {
		return model.Medicine{}, err
	}
	return removed, nil
}

// Close implements Store.
func (s *JSONStore) Close() error { return nil }
