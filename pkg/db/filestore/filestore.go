// Package filestore is the flat-file storage adapter: one JSON
// document holding every aggregate, guarded by a single mutex.
// Updates run against a deep copy and are persisted with a
// write-temp-then-rename, so a failed update leaves neither the
// in-memory state nor the file half-written. Because the mutex is
// held across an entire Update, a check-then-create sequence inside
// one Update is serialized against all concurrent writers — this is
// what enforces the one-active-order-per-slot invariant on this
// adapter.
package filestore

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"masterbook/pkg/model"
)

// User wraps the account record for persistence: the model hides the
// credential from API encoding with json:"-", but the store must keep
// it.
type User struct {
	model.User
	PasswordHash string `json:"password_hash,omitempty"`
}

// NewUser converts an account record for storage.
func NewUser(u model.User) User {
	return User{User: u, PasswordHash: u.PasswordHash}
}

// Unwrap restores the account record, credential included.
func (u User) Unwrap() model.User {
	out := u.User
	out.PasswordHash = u.PasswordHash
	return out
}

// Data is the whole database.
type Data struct {
	Users          []User               `json:"users"`
	Sessions       []model.Session      `json:"sessions"`
	Categories     []model.Category     `json:"categories"`
	Services       []model.Service      `json:"services"`
	Orders         []model.Order        `json:"orders"`
	Availabilities []model.Availability `json:"availabilities"`
}

type Store struct {
	path string

	mu   sync.RWMutex
	data *Data
}

// Open loads the store from path, creating an empty database (and the
// parent directory) if the file does not exist.
func Open(path string) (*Store, error) {
	s := &Store{path: path, data: &Data{}}

	raw, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("create data directory: %w", err)
		}
		if err := s.persist(s.data); err != nil {
			return nil, err
		}
	case err != nil:
		return nil, fmt.Errorf("read data file: %w", err)
	default:
		if err := json.Unmarshal(raw, s.data); err != nil {
			return nil, fmt.Errorf("parse data file %s: %w", path, err)
		}
	}

	return s, nil
}

// View runs fn with read access to the data. fn must not retain or
// mutate anything it reads; copy out what it needs.
func (s *Store) View(fn func(*Data) error) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return fn(s.data)
}

// Update runs fn against a deep copy of the data, persists the copy
// and swaps it in. If fn or the write fails, nothing changes.
func (s *Store) Update(fn func(*Data) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	clone, err := cloneData(s.data)
	if err != nil {
		return err
	}
	if err := fn(clone); err != nil {
		return err
	}
	if err := s.persist(clone); err != nil {
		return err
	}
	s.data = clone
	return nil
}

func (s *Store) persist(data *Data) error {
	raw, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Errorf("encode data: %w", err)
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, raw, 0o644); err != nil {
		return fmt.Errorf("write data file: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("replace data file: %w", err)
	}
	return nil
}

func cloneData(data *Data) (*Data, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("clone data: %w", err)
	}
	clone := &Data{}
	if err := json.Unmarshal(raw, clone); err != nil {
		return nil, fmt.Errorf("clone data: %w", err)
	}
	return clone, nil
}
