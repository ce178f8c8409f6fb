package memory

import (
	"context"

	"notes-server/internal/domain"
	"notes-server/internal/repository"
)

type noteRepository struct {
	store *Store
}

func (r *noteRepository) Create(ctx context.Context, note *domain.Note) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	r.store.notes = append(r.store.notes, note.Clone())
	return nil
}

func (r *noteRepository) indexOf(userID, id string) int {
	for i, n := range r.store.notes {
		if n.ID == id && n.UserID == userID {
			return i
		}
	}
	return -1
}

func (r *noteRepository) FindByID(ctx context.Context, userID, id string) (*domain.Note, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	i := r.indexOf(userID, id)
	if i < 0 {
		return nil, repository.ErrNotFound
	}
	return r.store.notes[i].Clone(), nil
}

func (r *noteRepository) ListByUser(ctx context.Context, userID string) ([]*domain.Note, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	notes := []*domain.Note{}
	for _, n := range r.store.notes {
		if n.UserID == userID {
			notes = append(notes, n.Clone())
		}
	}
	return notes, nil
}

func (r *noteRepository) Update(ctx context.Context, note *domain.Note) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	i := r.indexOf(note.UserID, note.ID)
	if i < 0 {
		return repository.ErrNotFound
	}
	r.store.notes[i] = note.Clone()
	return nil
}

func (r *noteRepository) Delete(ctx context.Context, userID, id string) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	i := r.indexOf(userID, id)
	if i < 0 {
		return repository.ErrNotFound
	}
	r.store.notes = append(r.store.notes[:i], r.store.notes[i+1:]...)
	return nil
}

func (r *noteRepository) Count(ctx context.Context) (int, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	return len(r.store.notes), nil
}
