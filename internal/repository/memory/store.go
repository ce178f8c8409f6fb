// Package memory keeps users and notes in process memory. State lives as long
// as the Store value; nothing is written to disk.
package memory

import (
	"sync"

	"notes-server/internal/domain"
	"notes-server/internal/repository"
)

// Store owns the user and note collections behind a single lock so that
// writes from concurrent requests are applied one at a time, last write wins.
type Store struct {
	mu    sync.RWMutex
	users []*domain.User
	notes []*domain.Note
}

func NewStore() *Store {
	return &Store{}
}

func (s *Store) Users() repository.UserRepository {
	return &userRepository{store: s}
}

func (s *Store) Notes() repository.NoteRepository {
	return &noteRepository{store: s}
}
