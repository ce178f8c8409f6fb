package repository

import (
	"context"

	"notes-server/internal/domain"
)

// UserRepository stores user accounts. Create must reject duplicate usernames
// and emails atomically with ErrUsernameTaken / ErrEmailTaken.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	FindByID(ctx context.Context, id string) (*domain.User, error)
	FindByUsername(ctx context.Context, username string) (*domain.User, error)
	Update(ctx context.Context, user *domain.User) error
	// Delete removes the user and frees its username and email.
	Delete(ctx context.Context, id string) error
	UsernameExists(ctx context.Context, username string) (bool, error)
	EmailExists(ctx context.Context, email string) (bool, error)
	Count(ctx context.Context) (int, error)
}

// NoteRepository stores notes. Every lookup is scoped by owner: a note owned
// by someone else is reported as ErrNotFound.
type NoteRepository interface {
	Create(ctx context.Context, note *domain.Note) error
	FindByID(ctx context.Context, userID, id string) (*domain.Note, error)
	// ListByUser returns the owner's notes in storage order.
	ListByUser(ctx context.Context, userID string) ([]*domain.Note, error)
	Update(ctx context.Context, note *domain.Note) error
	Delete(ctx context.Context, userID, id string) error
	Count(ctx context.Context) (int, error)
}
