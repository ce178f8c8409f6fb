package couchdb

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/go-kivik/kivik/v4"

	"notes-server/internal/domain"
	"notes-server/internal/repository"
)

type noteDoc struct {
	ID         string    `json:"_id"`
	Rev        string    `json:"_rev,omitempty"`
	Type       string    `json:"type"`
	NoteID     string    `json:"note_id"`
	UserID     string    `json:"user_id"`
	Title      string    `json:"title"`
	Content    string    `json:"content"`
	Tags       []string  `json:"tags"`
	IsFavorite bool      `json:"is_favorite"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
	// StoredAt records insertion order, which is what ListByUser returns.
	StoredAt int64 `json:"stored_at"`
}

type noteRepository struct {
	db *kivik.DB
}

func noteDocID(id string) string { return fmt.Sprintf("note:%s", id) }

func toNoteDoc(n *domain.Note) *noteDoc {
	tags := n.Tags
	if tags == nil {
		tags = []string{}
	}
	return &noteDoc{
		ID:         noteDocID(n.ID),
		Type:       docTypeNote,
		NoteID:     n.ID,
		UserID:     n.UserID,
		Title:      n.Title,
		Content:    n.Content,
		Tags:       tags,
		IsFavorite: n.IsFavorite,
		CreatedAt:  n.CreatedAt,
		UpdatedAt:  n.UpdatedAt,
	}
}

func (d *noteDoc) toDomain() *domain.Note {
	tags := d.Tags
	if tags == nil {
		tags = []string{}
	}
	return &domain.Note{
		ID:         d.NoteID,
		UserID:     d.UserID,
		Title:      d.Title,
		Content:    d.Content,
		Tags:       tags,
		IsFavorite: d.IsFavorite,
		CreatedAt:  d.CreatedAt,
		UpdatedAt:  d.UpdatedAt,
	}
}

func (r *noteRepository) Create(ctx context.Context, note *domain.Note) error {
	doc := toNoteDoc(note)
	doc.StoredAt = time.Now().UnixNano()

	if _, err := r.db.Put(ctx, doc.ID, doc); err != nil {
		return fmt.Errorf("failed to create note: %w", err)
	}

	return nil
}

// get loads a note document owned by userID. Notes owned by someone else
// are reported as missing.
func (r *noteRepository) get(ctx context.Context, userID, id string) (*noteDoc, error) {
	var doc noteDoc
	if err := r.db.Get(ctx, noteDocID(id)).ScanDoc(&doc); err != nil {
		if isNotFound(err) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find note: %w", err)
	}

	if doc.UserID != userID {
		return nil, repository.ErrNotFound
	}

	return &doc, nil
}

func (r *noteRepository) FindByID(ctx context.Context, userID, id string) (*domain.Note, error) {
	doc, err := r.get(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	return doc.toDomain(), nil
}

func (r *noteRepository) ListByUser(ctx context.Context, userID string) ([]*domain.Note, error) {
	query := map[string]interface{}{
		"selector": map[string]interface{}{
			"type":    docTypeNote,
			"user_id": userID,
		},
	}

	rows := r.db.Find(ctx, query)
	defer rows.Close()

	var docs []*noteDoc
	for rows.Next() {
		var doc noteDoc
		if err := rows.ScanDoc(&doc); err != nil {
			return nil, fmt.Errorf("failed to scan note: %w", err)
		}
		docs = append(docs, &doc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list notes: %w", err)
	}

	sort.SliceStable(docs, func(i, j int) bool {
		return docs[i].StoredAt < docs[j].StoredAt
	})

	notes := make([]*domain.Note, 0, len(docs))
	for _, doc := range docs {
		notes = append(notes, doc.toDomain())
	}

	return notes, nil
}

func (r *noteRepository) Update(ctx context.Context, note *domain.Note) error {
	existing, err := r.get(ctx, note.UserID, note.ID)
	if err != nil {
		return err
	}

	doc := toNoteDoc(note)
	doc.Rev = existing.Rev
	doc.CreatedAt = existing.CreatedAt
	doc.StoredAt = existing.StoredAt

	if _, err := r.db.Put(ctx, doc.ID, doc); err != nil {
		return fmt.Errorf("failed to update note: %w", err)
	}

	return nil
}

func (r *noteRepository) Delete(ctx context.Context, userID, id string) error {
	existing, err := r.get(ctx, userID, id)
	if err != nil {
		return err
	}

	if _, err := r.db.Delete(ctx, existing.ID, existing.Rev); err != nil {
		if isNotFound(err) {
			return repository.ErrNotFound
		}
		return fmt.Errorf("failed to delete note: %w", err)
	}

	return nil
}

func (r *noteRepository) Count(ctx context.Context) (int, error) {
	n, err := count(ctx, r.db, map[string]interface{}{"type": docTypeNote})
	if err != nil {
		return 0, fmt.Errorf("failed to count notes: %w", err)
	}
	return n, nil
}
