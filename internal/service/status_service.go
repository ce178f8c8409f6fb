package service

import (
	"context"
	"fmt"
	"time"

	"notes-server/internal/domain"
	"notes-server/internal/repository"
)

const statusMessage = "Сервер работает!"

type StatusService struct {
	userRepo repository.UserRepository
	noteRepo repository.NoteRepository
	now      func() time.Time
}

func NewStatusService(userRepo repository.UserRepository, noteRepo repository.NoteRepository, opts ...Option) *StatusService {
	o := buildOptions(opts)
	return &StatusService{
		userRepo: userRepo,
		noteRepo: noteRepo,
		now:      o.now,
	}
}

func (s *StatusService) Status(ctx context.Context) (*domain.ServerStatus, error) {
	users, err := s.userRepo.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count users: %w", err)
	}

	notes, err := s.noteRepo.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count notes: %w", err)
	}

	return &domain.ServerStatus{
		Message:    statusMessage,
		UsersCount: users,
		NotesCount: notes,
		Timestamp:  s.now(),
	}, nil
}
