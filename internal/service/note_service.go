package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"notes-server/internal/domain"
	"notes-server/internal/idgen"
	"notes-server/internal/repository"
)

// ChangePublisher receives every note mutation after it is stored.
type ChangePublisher interface {
	PublishNoteEvent(userID string, event domain.NoteEvent)
}

type NoteService struct {
	repo      repository.NoteRepository
	publisher ChangePublisher
	now       func() time.Time
	log       *logrus.Logger
}

// NewNoteService wires the repository and an optional publisher (nil disables
// change events).
func NewNoteService(repo repository.NoteRepository, publisher ChangePublisher, opts ...Option) *NoteService {
	o := buildOptions(opts)
	return &NoteService{
		repo:      repo,
		publisher: publisher,
		now:       o.now,
		log:       o.logger,
	}
}

func (s *NoteService) publish(userID, eventType, noteID string, note *domain.Note) {
	if s.publisher == nil {
		return
	}
	if note != nil {
		note = note.Clone()
	}
	s.publisher.PublishNoteEvent(userID, domain.NoteEvent{Type: eventType, NoteID: noteID, Note: note})
}

// List returns the user's notes, most recently updated first.
func (s *NoteService) List(ctx context.Context, userID string) ([]*domain.Note, error) {
	notes, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list notes: %w", err)
	}

	sort.SliceStable(notes, func(i, j int) bool {
		return notes[i].UpdatedAt.After(notes[j].UpdatedAt)
	})

	return notes, nil
}

func (s *NoteService) GetByID(ctx context.Context, userID, noteID string) (*domain.Note, error) {
	note, err := s.repo.FindByID(ctx, userID, noteID)
	if err != nil {
		return nil, notFound(err)
	}
	return note, nil
}

func (s *NoteService) Create(ctx context.Context, userID string, req *domain.CreateNoteRequest) (*domain.Note, error) {
	title := strings.TrimSpace(req.Title)
	content := strings.TrimSpace(req.Content)
	if title == "" || content == "" {
		return nil, &ValidationError{
			Message: msgTitleContentNeeded,
			Fields:  map[string]bool{"title": title == "", "content": content == ""},
		}
	}

	tags := []string(req.Tags)
	if tags == nil {
		tags = []string{}
	}

	now := s.now()
	note := &domain.Note{
		ID:         idgen.New(),
		UserID:     userID,
		Title:      title,
		Content:    content,
		Tags:       tags,
		IsFavorite: false,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	if err := s.repo.Create(ctx, note); err != nil {
		return nil, fmt.Errorf("failed to create note: %w", err)
	}

	s.log.WithFields(logrus.Fields{"user_id": userID, "note_id": note.ID}).Debug("note created")
	s.publish(userID, domain.EventNoteCreated, note.ID, note)

	return note, nil
}

// Update applies only the fields present in req and always bumps UpdatedAt.
func (s *NoteService) Update(ctx context.Context, userID, noteID string, req *domain.UpdateNoteRequest) (*domain.Note, error) {
	note, err := s.repo.FindByID(ctx, userID, noteID)
	if err != nil {
		return nil, notFound(err)
	}

	if req.Title != nil {
		title := strings.TrimSpace(*req.Title)
		if title == "" {
			return nil, &ValidationError{Message: msgTitleContentNeeded, Fields: map[string]bool{"title": true}}
		}
		note.Title = title
	}

	if req.Content != nil {
		content := strings.TrimSpace(*req.Content)
		if content == "" {
			return nil, &ValidationError{Message: msgTitleContentNeeded, Fields: map[string]bool{"content": true}}
		}
		note.Content = content
	}

	if req.Tags != nil {
		note.Tags = []string(*req.Tags)
		if note.Tags == nil {
			note.Tags = []string{}
		}
	}

	if req.IsFavorite != nil {
		note.IsFavorite = *req.IsFavorite
	}

	note.UpdatedAt = s.now()
	if note.UpdatedAt.Before(note.CreatedAt) {
		note.UpdatedAt = note.CreatedAt
	}

	if err := s.repo.Update(ctx, note); err != nil {
		return nil, notFound(err)
	}

	s.log.WithFields(logrus.Fields{"user_id": userID, "note_id": note.ID}).Debug("note updated")
	s.publish(userID, domain.EventNoteUpdated, note.ID, note)

	return note, nil
}

func (s *NoteService) Delete(ctx context.Context, userID, noteID string) (*domain.DeleteNoteResponse, error) {
	if err := s.repo.Delete(ctx, userID, noteID); err != nil {
		return nil, notFound(err)
	}

	s.log.WithFields(logrus.Fields{"user_id": userID, "note_id": noteID}).Debug("note deleted")
	s.publish(userID, domain.EventNoteDeleted, noteID, nil)

	return &domain.DeleteNoteResponse{NoteID: noteID}, nil
}

// Search matches query against title and content, ignoring case. Results keep
// storage order.
func (s *NoteService) Search(ctx context.Context, userID, query string) ([]*domain.Note, error) {
	notes, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to search notes: %w", err)
	}

	q := strings.ToLower(query)
	matches := []*domain.Note{}
	for _, n := range notes {
		if strings.Contains(strings.ToLower(n.Title), q) || strings.Contains(strings.ToLower(n.Content), q) {
			matches = append(matches, n)
		}
	}

	return matches, nil
}

func notFound(err error) error {
	if errors.Is(err, repository.ErrNotFound) {
		return &NotFoundError{Message: msgNoteNotFound}
	}
	return fmt.Errorf("note storage: %w", err)
}
