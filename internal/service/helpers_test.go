package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"golang.org/x/crypto/bcrypt"

	"notes-server/internal/domain"
	"notes-server/internal/repository/memory"
	"notes-server/pkg/hash"
)

func init() {
	hash.Cost = bcrypt.MinCost
}

// fakeClock advances by step on every call so consecutive timestamps differ.
type fakeClock struct {
	mu   sync.Mutex
	t    time.Time
	step time.Duration
}

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Date(2024, time.March, 1, 9, 0, 0, 0, time.UTC), step: time.Second}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(c.step)
	return c.t
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []domain.NoteEvent
	users  []string
}

func (p *recordingPublisher) PublishNoteEvent(userID string, event domain.NoteEvent) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.users = append(p.users, userID)
	p.events = append(p.events, event)
}

var errStorageDown = errors.New("storage down")

// brokenNoteRepo fails every call.
type brokenNoteRepo struct{}

func (brokenNoteRepo) Create(context.Context, *domain.Note) error { return errStorageDown }
func (brokenNoteRepo) FindByID(context.Context, string, string) (*domain.Note, error) {
	return nil, errStorageDown
}
func (brokenNoteRepo) ListByUser(context.Context, string) ([]*domain.Note, error) {
	return nil, errStorageDown
}
func (brokenNoteRepo) Update(context.Context, *domain.Note) error         { return errStorageDown }
func (brokenNoteRepo) Delete(context.Context, string, string) error       { return errStorageDown }
func (brokenNoteRepo) Count(context.Context) (int, error)                 { return 0, errStorageDown }

type testEnv struct {
	store     *memory.Store
	clock     *fakeClock
	publisher *recordingPublisher
	auth      *AuthService
	notes     *NoteService
	users     *UserService
}

const testSecret = "test-secret"

func newTestEnv() *testEnv {
	store := memory.NewStore()
	clock := newFakeClock()
	publisher := &recordingPublisher{}

	return &testEnv{
		store:     store,
		clock:     clock,
		publisher: publisher,
		auth:      NewAuthService(store.Users(), store.Notes(), testSecret, 15*time.Minute, 7*24*time.Hour, WithClock(clock.Now)),
		notes:     NewNoteService(store.Notes(), publisher, WithClock(clock.Now)),
		users:     NewUserService(store.Users()),
	}
}

func (e *testEnv) register(username string) string {
	resp, err := e.auth.Register(context.Background(), &domain.RegisterRequest{
		Username: username,
		Email:    username + "@x.com",
		Password: "secret1",
	})
	if err != nil {
		panic(err)
	}
	return resp.UserID
}

func strPtr(s string) *string { return &s }
func boolPtr(b bool) *bool    { return &b }
