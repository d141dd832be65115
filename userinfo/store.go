package userinfo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sync"
)

// Store persists user profiles keyed by user id. Implementations are safe
// for concurrent use and hand out deep copies in both directions.
type Store interface {
	// Get returns the stored profile, reporting whether one exists.
	Get(ctx context.Context, userID string) (*UserProfile, bool, error)

	// Upsert merges the fragment into the stored profile, creating the
	// profile on first contact, and returns the updated copy.
	Upsert(ctx context.Context, userID string, f Fragment) (*UserProfile, error)
}

// MemoryStore is a volatile Store keeping profiles in a process local map.
type MemoryStore struct {
	mu       sync.RWMutex
	profiles map[string]*UserProfile
}

// NewMemoryStore constructs an empty in-memory profile store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{profiles: make(map[string]*UserProfile)}
}

// Get returns a copy of the stored profile for userID.
func (s *MemoryStore) Get(_ context.Context, userID string) (*UserProfile, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	profile, ok := s.profiles[userID]
	if !ok {
		return nil, false, nil
	}
	return profile.Clone(), true, nil
}

// Upsert merges the fragment into the stored profile.
func (s *MemoryStore) Upsert(_ context.Context, userID string, f Fragment) (*UserProfile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	profile, ok := s.profiles[userID]
	if !ok {
		profile = &UserProfile{UserID: userID}
		s.profiles[userID] = profile
	}
	profile.Apply(f)

	return profile.Clone(), nil
}

// Len reports the number of stored profiles.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.profiles)
}

// FileStore keeps profiles in memory and mirrors every change into a JSON
// document on disk, reloading that document on construction. Writes go
// through a temp file and rename, so a crash never leaves a half-written
// database behind. Suited for single-instance deployments.
type FileStore struct {
	mu       sync.RWMutex
	path     string
	profiles map[string]*UserProfile
}

// NewFileStore loads the profile database at path, starting empty when the
// file does not exist yet. A file that exists but cannot be decoded is an
// error; silently replacing it would lose every profile collected so far.
func NewFileStore(path string) (*FileStore, error) {
	s := &FileStore{
		path:     path,
		profiles: make(map[string]*UserProfile),
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read profile database: %w", err)
	}

	if err := json.Unmarshal(data, &s.profiles); err != nil {
		return nil, fmt.Errorf("decode profile database %s: %w", path, err)
	}
	for userID, profile := range s.profiles {
		if profile.UserID == "" {
			profile.UserID = userID
		}
	}

	return s, nil
}

// Get returns a copy of the stored profile for userID.
func (s *FileStore) Get(_ context.Context, userID string) (*UserProfile, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	profile, ok := s.profiles[userID]
	if !ok {
		return nil, false, nil
	}
	return profile.Clone(), true, nil
}

// Upsert merges the fragment into the stored profile and persists the
// database. The in-memory copy keeps the merge even when persisting fails;
// the next successful write catches the file up.
func (s *FileStore) Upsert(_ context.Context, userID string, f Fragment) (*UserProfile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	profile, ok := s.profiles[userID]
	if !ok {
		profile = &UserProfile{UserID: userID}
		s.profiles[userID] = profile
	}
	profile.Apply(f)

	if err := s.persist(); err != nil {
		return nil, err
	}

	return profile.Clone(), nil
}

// persist writes the whole database. Callers hold the write lock.
func (s *FileStore) persist() error {
	data, err := json.MarshalIndent(s.profiles, "", "  ")
	if err != nil {
		return fmt.Errorf("encode profile database: %w", err)
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("write profile database: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("replace profile database: %w", err)
	}
	return nil
}
