// Package repotest holds behaviour tests shared by every repository backend.
package repotest

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"notes-server/internal/domain"
	"notes-server/internal/repository"
)

// Factory returns fresh, empty repositories for one test.
type Factory func(t *testing.T) (repository.UserRepository, repository.NoteRepository)

func newUser(id, username, email string) *domain.User {
	return &domain.User{
		ID:        id,
		Username:  username,
		Email:     email,
		Password:  "hashed",
		CreatedAt: time.Now().UTC().Truncate(time.Millisecond),
		IsActive:  true,
	}
}

func newNote(id, userID, title string, at time.Time) *domain.Note {
	return &domain.Note{
		ID:        id,
		UserID:    userID,
		Title:     title,
		Content:   "content of " + title,
		Tags:      []string{"a", "b"},
		CreatedAt: at,
		UpdatedAt: at,
	}
}

// Run executes the full suite against the repositories produced by factory.
func Run(t *testing.T, factory Factory) {
	t.Run("UserCreateAndFind", func(t *testing.T) { testUserCreateAndFind(t, factory) })
	t.Run("UserUniqueness", func(t *testing.T) { testUserUniqueness(t, factory) })
	t.Run("UserUpdate", func(t *testing.T) { testUserUpdate(t, factory) })
	t.Run("UserDelete", func(t *testing.T) { testUserDelete(t, factory) })
	t.Run("NoteCRUD", func(t *testing.T) { testNoteCRUD(t, factory) })
	t.Run("NoteOwnerScoping", func(t *testing.T) { testNoteOwnerScoping(t, factory) })
	t.Run("NoteStorageOrder", func(t *testing.T) { testNoteStorageOrder(t, factory) })
	t.Run("Counts", func(t *testing.T) { testCounts(t, factory) })
}

func testUserCreateAndFind(t *testing.T, factory Factory) {
	ctx := context.Background()
	users, _ := factory(t)

	user := newUser("u1", "alice", "alice@x.com")
	require.NoError(t, users.Create(ctx, user))

	byID, err := users.FindByID(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "alice", byID.Username)
	assert.Equal(t, "alice@x.com", byID.Email)
	assert.Equal(t, "hashed", byID.Password)
	assert.True(t, byID.IsActive)
	assert.Nil(t, byID.LastLogin)

	byName, err := users.FindByUsername(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, "u1", byName.ID)

	_, err = users.FindByID(ctx, "missing")
	assert.ErrorIs(t, err, repository.ErrNotFound)

	_, err = users.FindByUsername(ctx, "Alice")
	assert.ErrorIs(t, err, repository.ErrNotFound, "usernames are case-sensitive")

	exists, err := users.UsernameExists(ctx, "alice")
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = users.EmailExists(ctx, "nobody@x.com")
	require.NoError(t, err)
	assert.False(t, exists)
}

func testUserUniqueness(t *testing.T, factory Factory) {
	ctx := context.Background()
	users, _ := factory(t)

	require.NoError(t, users.Create(ctx, newUser("u1", "alice", "alice@x.com")))

	err := users.Create(ctx, newUser("u2", "alice", "other@x.com"))
	assert.ErrorIs(t, err, repository.ErrUsernameTaken)

	err = users.Create(ctx, newUser("u3", "bob", "alice@x.com"))
	assert.ErrorIs(t, err, repository.ErrEmailTaken)

	count, err := users.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func testUserUpdate(t *testing.T, factory Factory) {
	ctx := context.Background()
	users, _ := factory(t)

	user := newUser("u1", "alice", "alice@x.com")
	require.NoError(t, users.Create(ctx, user))

	login := time.Now().UTC().Truncate(time.Millisecond)
	user.LastLogin = &login
	user.IsActive = false
	require.NoError(t, users.Update(ctx, user))

	got, err := users.FindByID(ctx, "u1")
	require.NoError(t, err)
	require.NotNil(t, got.LastLogin)
	assert.True(t, login.Equal(*got.LastLogin))
	assert.False(t, got.IsActive)

	err = users.Update(ctx, newUser("ghost", "ghost", "ghost@x.com"))
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func testUserDelete(t *testing.T, factory Factory) {
	ctx := context.Background()
	users, _ := factory(t)

	require.NoError(t, users.Create(ctx, newUser("u1", "alice", "alice@x.com")))
	require.NoError(t, users.Create(ctx, newUser("u2", "bob", "bob@x.com")))

	require.NoError(t, users.Delete(ctx, "u1"))

	_, err := users.FindByID(ctx, "u1")
	assert.ErrorIs(t, err, repository.ErrNotFound)

	exists, err := users.UsernameExists(ctx, "alice")
	require.NoError(t, err)
	assert.False(t, exists)

	exists, err = users.EmailExists(ctx, "alice@x.com")
	require.NoError(t, err)
	assert.False(t, exists)

	require.NoError(t, users.Create(ctx, newUser("u3", "alice", "alice@x.com")), "freed username and email can be reused")

	_, err = users.FindByID(ctx, "u2")
	require.NoError(t, err)

	err = users.Delete(ctx, "u1")
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func testNoteCRUD(t *testing.T, factory Factory) {
	ctx := context.Background()
	_, notes := factory(t)

	at := time.Now().UTC().Truncate(time.Millisecond)
	note := newNote("n1", "u1", "first", at)
	require.NoError(t, notes.Create(ctx, note))

	got, err := notes.FindByID(ctx, "u1", "n1")
	require.NoError(t, err)
	assert.Equal(t, "first", got.Title)
	assert.Equal(t, []string{"a", "b"}, got.Tags)
	assert.False(t, got.IsFavorite)
	assert.True(t, at.Equal(got.CreatedAt))

	got.Title = "renamed"
	got.IsFavorite = true
	got.Tags = []string{}
	got.UpdatedAt = at.Add(time.Minute)
	require.NoError(t, notes.Update(ctx, got))

	updated, err := notes.FindByID(ctx, "u1", "n1")
	require.NoError(t, err)
	assert.Equal(t, "renamed", updated.Title)
	assert.True(t, updated.IsFavorite)
	assert.Empty(t, updated.Tags)
	assert.NotNil(t, updated.Tags)
	assert.True(t, at.Add(time.Minute).Equal(updated.UpdatedAt))

	require.NoError(t, notes.Delete(ctx, "u1", "n1"))

	_, err = notes.FindByID(ctx, "u1", "n1")
	assert.ErrorIs(t, err, repository.ErrNotFound)

	err = notes.Delete(ctx, "u1", "n1")
	assert.ErrorIs(t, err, repository.ErrNotFound)

	err = notes.Update(ctx, newNote("n404", "u1", "ghost", at))
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func testNoteOwnerScoping(t *testing.T, factory Factory) {
	ctx := context.Background()
	_, notes := factory(t)

	at := time.Now().UTC().Truncate(time.Millisecond)
	require.NoError(t, notes.Create(ctx, newNote("n1", "alice", "alice's", at)))

	_, err := notes.FindByID(ctx, "bob", "n1")
	assert.ErrorIs(t, err, repository.ErrNotFound)

	err = notes.Delete(ctx, "bob", "n1")
	assert.ErrorIs(t, err, repository.ErrNotFound)

	foreign := newNote("n1", "bob", "hijack", at)
	err = notes.Update(ctx, foreign)
	assert.ErrorIs(t, err, repository.ErrNotFound)

	list, err := notes.ListByUser(ctx, "bob")
	require.NoError(t, err)
	assert.Empty(t, list)
	assert.NotNil(t, list)

	still, err := notes.FindByID(ctx, "alice", "n1")
	require.NoError(t, err)
	assert.Equal(t, "alice's", still.Title)
}

func testNoteStorageOrder(t *testing.T, factory Factory) {
	ctx := context.Background()
	_, notes := factory(t)

	base := time.Now().UTC().Truncate(time.Millisecond)
	require.NoError(t, notes.Create(ctx, newNote("n-c", "u1", "third-newest", base.Add(2*time.Hour))))
	require.NoError(t, notes.Create(ctx, newNote("n-a", "u1", "oldest", base)))
	require.NoError(t, notes.Create(ctx, newNote("n-other", "u2", "other", base)))
	require.NoError(t, notes.Create(ctx, newNote("n-b", "u1", "middle", base.Add(time.Hour))))

	list, err := notes.ListByUser(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, list, 3)

	assert.Equal(t, "n-c", list[0].ID)
	assert.Equal(t, "n-a", list[1].ID)
	assert.Equal(t, "n-b", list[2].ID)
}

func testCounts(t *testing.T, factory Factory) {
	ctx := context.Background()
	users, notes := factory(t)

	at := time.Now().UTC().Truncate(time.Millisecond)
	require.NoError(t, users.Create(ctx, newUser("u1", "alice", "alice@x.com")))
	require.NoError(t, users.Create(ctx, newUser("u2", "bob", "bob@x.com")))
	require.NoError(t, notes.Create(ctx, newNote("n1", "u1", "one", at)))

	userCount, err := users.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, userCount)

	noteCount, err := notes.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, noteCount)
}
