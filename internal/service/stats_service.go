package service

import (
	"context"
	"fmt"

	"notes-server/internal/domain"
	"notes-server/internal/repository"
	"notes-server/internal/stats"
)

type StatsService struct {
	repo      repository.NoteRepository
	formatter stats.Formatter
}

func NewStatsService(repo repository.NoteRepository, formatter stats.Formatter) *StatsService {
	return &StatsService{
		repo:      repo,
		formatter: formatter,
	}
}

// Compute reads the user's current notes on every call.
func (s *StatsService) Compute(ctx context.Context, userID string) (*domain.Stats, error) {
	notes, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load notes for stats: %w", err)
	}

	snapshot := s.formatter.Compute(notes)
	return &snapshot, nil
}
