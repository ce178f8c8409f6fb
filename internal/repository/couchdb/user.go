package couchdb

import (
	"context"
	"fmt"
	"time"

	"github.com/go-kivik/kivik/v4"

	"notes-server/internal/domain"
	"notes-server/internal/repository"
)

// userDoc is the stored form of a user. domain.User hides its password from
// JSON, so the document carries it explicitly.
type userDoc struct {
	ID        string     `json:"_id"`
	Rev       string     `json:"_rev,omitempty"`
	Type      string     `json:"type"`
	UserID    string     `json:"user_id"`
	Username  string     `json:"username"`
	Email     string     `json:"email"`
	Password  string     `json:"password"`
	CreatedAt time.Time  `json:"created_at"`
	IsActive  bool       `json:"is_active"`
	LastLogin *time.Time `json:"last_login,omitempty"`
}

// claimDoc reserves a unique username or email. CouchDB rejects a second
// create of the same _id, which makes the reservation atomic.
type claimDoc struct {
	UserID string `json:"user_id"`
}

type userRepository struct {
	db *kivik.DB
}

func userDocID(id string) string             { return fmt.Sprintf("user:%s", id) }
func usernameClaimID(username string) string { return fmt.Sprintf("username:%s", username) }
func emailClaimID(email string) string       { return fmt.Sprintf("email:%s", email) }

func toUserDoc(u *domain.User) *userDoc {
	return &userDoc{
		ID:        userDocID(u.ID),
		Type:      docTypeUser,
		UserID:    u.ID,
		Username:  u.Username,
		Email:     u.Email,
		Password:  u.Password,
		CreatedAt: u.CreatedAt,
		IsActive:  u.IsActive,
		LastLogin: u.LastLogin,
	}
}

func (d *userDoc) toDomain() *domain.User {
	return &domain.User{
		ID:        d.UserID,
		Username:  d.Username,
		Email:     d.Email,
		Password:  d.Password,
		CreatedAt: d.CreatedAt,
		IsActive:  d.IsActive,
		LastLogin: d.LastLogin,
	}
}

func (r *userRepository) claim(ctx context.Context, docID, userID string, taken error) error {
	if _, err := r.db.Put(ctx, docID, claimDoc{UserID: userID}); err != nil {
		if isConflict(err) {
			return taken
		}
		return fmt.Errorf("failed to reserve %s: %w", docID, err)
	}
	return nil
}

func (r *userRepository) release(ctx context.Context, docID string) {
	if rev, err := r.db.GetRev(ctx, docID); err == nil {
		_, _ = r.db.Delete(ctx, docID, rev)
	}
}

func (r *userRepository) Create(ctx context.Context, user *domain.User) error {
	if err := r.claim(ctx, usernameClaimID(user.Username), user.ID, repository.ErrUsernameTaken); err != nil {
		return err
	}

	if err := r.claim(ctx, emailClaimID(user.Email), user.ID, repository.ErrEmailTaken); err != nil {
		r.release(ctx, usernameClaimID(user.Username))
		return err
	}

	doc := toUserDoc(user)
	if _, err := r.db.Put(ctx, doc.ID, doc); err != nil {
		r.release(ctx, usernameClaimID(user.Username))
		r.release(ctx, emailClaimID(user.Email))
		return fmt.Errorf("failed to create user: %w", err)
	}

	return nil
}

func (r *userRepository) get(ctx context.Context, id string) (*userDoc, error) {
	var doc userDoc
	if err := r.db.Get(ctx, userDocID(id)).ScanDoc(&doc); err != nil {
		if isNotFound(err) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find user by ID: %w", err)
	}
	return &doc, nil
}

func (r *userRepository) FindByID(ctx context.Context, id string) (*domain.User, error) {
	doc, err := r.get(ctx, id)
	if err != nil {
		return nil, err
	}
	return doc.toDomain(), nil
}

func (r *userRepository) FindByUsername(ctx context.Context, username string) (*domain.User, error) {
	var claim claimDoc
	if err := r.db.Get(ctx, usernameClaimID(username)).ScanDoc(&claim); err != nil {
		if isNotFound(err) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("failed to query user by username: %w", err)
	}
	return r.FindByID(ctx, claim.UserID)
}

// Update rewrites the mutable fields. Username and email are fixed after
// registration, so their claims are left alone.
func (r *userRepository) Update(ctx context.Context, user *domain.User) error {
	existing, err := r.get(ctx, user.ID)
	if err != nil {
		return err
	}

	doc := toUserDoc(user)
	doc.Rev = existing.Rev
	doc.Username = existing.Username
	doc.Email = existing.Email

	if _, err := r.db.Put(ctx, doc.ID, doc); err != nil {
		return fmt.Errorf("failed to update user: %w", err)
	}

	return nil
}

func (r *userRepository) Delete(ctx context.Context, id string) error {
	doc, err := r.get(ctx, id)
	if err != nil {
		return err
	}

	if _, err := r.db.Delete(ctx, doc.ID, doc.Rev); err != nil {
		if isNotFound(err) {
			return repository.ErrNotFound
		}
		return fmt.Errorf("failed to delete user: %w", err)
	}

	r.release(ctx, usernameClaimID(doc.Username))
	r.release(ctx, emailClaimID(doc.Email))
	return nil
}

func (r *userRepository) claimExists(ctx context.Context, docID string) (bool, error) {
	_, err := r.db.GetRev(ctx, docID)
	switch {
	case err == nil:
		return true, nil
	case isNotFound(err):
		return false, nil
	default:
		return false, fmt.Errorf("failed to check %s: %w", docID, err)
	}
}

func (r *userRepository) UsernameExists(ctx context.Context, username string) (bool, error) {
	return r.claimExists(ctx, usernameClaimID(username))
}

func (r *userRepository) EmailExists(ctx context.Context, email string) (bool, error) {
	return r.claimExists(ctx, emailClaimID(email))
}

func (r *userRepository) Count(ctx context.Context) (int, error) {
	n, err := count(ctx, r.db, map[string]interface{}{"type": docTypeUser})
	if err != nil {
		return 0, fmt.Errorf("failed to count users: %w", err)
	}
	return n, nil
}
