package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"notes-server/internal/domain"
	"notes-server/internal/stats"
)

func TestNoteService_Create(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	tests := []struct {
		name     string
		req      *domain.CreateNoteRequest
		wantErr  bool
		wantTags []string
	}{
		{
			name:     "valid note",
			req:      &domain.CreateNoteRequest{Title: "  T  ", Content: " C ", Tags: domain.TagList{"x", "y"}},
			wantTags: []string{"x", "y"},
		},
		{
			name:     "tags absent",
			req:      &domain.CreateNoteRequest{Title: "T", Content: "C"},
			wantTags: []string{},
		},
		{
			name:     "duplicate tags kept",
			req:      &domain.CreateNoteRequest{Title: "T", Content: "C", Tags: domain.TagList{"x", "x"}},
			wantTags: []string{"x", "x"},
		},
		{name: "empty title", req: &domain.CreateNoteRequest{Title: "", Content: "C"}, wantErr: true},
		{name: "blank content", req: &domain.CreateNoteRequest{Title: "T", Content: "   "}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			note, err := env.notes.Create(ctx, "u1", tt.req)

			if tt.wantErr {
				if !IsValidation(err) {
					t.Errorf("Create() error = %v, want ValidationError", err)
				}
				return
			}

			if err != nil {
				t.Fatalf("Create() unexpected error = %v", err)
			}
			if note.Title != "T" || note.Content != "C" {
				t.Errorf("Create() did not trim: %q %q", note.Title, note.Content)
			}
			if note.IsFavorite {
				t.Error("Create() note is favorite")
			}
			if !note.CreatedAt.Equal(note.UpdatedAt) {
				t.Error("Create() createdAt != updatedAt")
			}
			if len(note.Tags) != len(tt.wantTags) || note.Tags == nil {
				t.Errorf("Create() tags = %#v, want %#v", note.Tags, tt.wantTags)
			}
			if note.UserID != "u1" {
				t.Errorf("Create() owner = %s", note.UserID)
			}
		})
	}
}

func TestNoteService_List_RecencyOrder(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	var ids []string
	for _, title := range []string{"first", "second", "third"} {
		note, err := env.notes.Create(ctx, "u1", &domain.CreateNoteRequest{Title: title, Content: "c"})
		if err != nil {
			t.Fatal(err)
		}
		ids = append(ids, note.ID)
	}

	list, _ := env.notes.List(ctx, "u1")
	if len(list) != 3 || list[0].ID != ids[2] || list[2].ID != ids[0] {
		t.Fatalf("List() order = %v", noteIDs(list))
	}

	if _, err := env.notes.Update(ctx, "u1", ids[0], &domain.UpdateNoteRequest{}); err != nil {
		t.Fatal(err)
	}

	list, _ = env.notes.List(ctx, "u1")
	if list[0].ID != ids[0] {
		t.Errorf("after updating the oldest note, List()[0] = %s, want %s", list[0].ID, ids[0])
	}

	for i := 1; i < len(list); i++ {
		if list[i].UpdatedAt.After(list[i-1].UpdatedAt) {
			t.Errorf("List() not sorted by updatedAt desc at %d", i)
		}
	}

	empty, err := env.notes.List(ctx, "nobody")
	if err != nil || empty == nil || len(empty) != 0 {
		t.Errorf("List(empty) = %v, %v", empty, err)
	}
}

func TestNoteService_Update_SparsePatch(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	created, _ := env.notes.Create(ctx, "u1", &domain.CreateNoteRequest{Title: "T", Content: "C", Tags: domain.TagList{"x"}})

	updated, err := env.notes.Update(ctx, "u1", created.ID, &domain.UpdateNoteRequest{IsFavorite: boolPtr(false)})
	if err != nil {
		t.Fatalf("Update() error = %v", err)
	}

	if !updated.UpdatedAt.After(created.UpdatedAt) {
		t.Error("Update() did not advance updatedAt")
	}
	if updated.Title != "T" || updated.Content != "C" || updated.IsFavorite || len(updated.Tags) != 1 {
		t.Errorf("Update() changed untouched fields: %+v", updated)
	}
	if !updated.CreatedAt.Equal(created.CreatedAt) {
		t.Error("Update() changed createdAt")
	}

	fav, _ := env.notes.Update(ctx, "u1", created.ID, &domain.UpdateNoteRequest{IsFavorite: boolPtr(true)})
	unfav, _ := env.notes.Update(ctx, "u1", created.ID, &domain.UpdateNoteRequest{IsFavorite: boolPtr(false)})
	if !fav.IsFavorite || unfav.IsFavorite {
		t.Error("explicit isFavorite false was not applied")
	}

	empty := domain.TagList{}
	retitled, _ := env.notes.Update(ctx, "u1", created.ID, &domain.UpdateNoteRequest{
		Title: strPtr("  New  "),
		Tags:  &empty,
	})
	if retitled.Title != "New" || retitled.Content != "C" || len(retitled.Tags) != 0 || retitled.Tags == nil {
		t.Errorf("Update() = %+v", retitled)
	}

	stored, _ := env.notes.GetByID(ctx, "u1", created.ID)
	if stored.Title != "New" {
		t.Errorf("update not persisted: %+v", stored)
	}
}

func TestNoteService_Update_Errors(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	created, _ := env.notes.Create(ctx, "u1", &domain.CreateNoteRequest{Title: "T", Content: "C"})

	if _, err := env.notes.Update(ctx, "u1", "missing", &domain.UpdateNoteRequest{}); !IsNotFound(err) {
		t.Errorf("Update(missing) error = %v", err)
	}
	if _, err := env.notes.Update(ctx, "u1", created.ID, &domain.UpdateNoteRequest{Title: strPtr("  ")}); !IsValidation(err) {
		t.Errorf("Update(blank title) error = %v", err)
	}
	if _, err := env.notes.Update(ctx, "u1", created.ID, &domain.UpdateNoteRequest{Content: strPtr("")}); !IsValidation(err) {
		t.Errorf("Update(empty content) error = %v", err)
	}

	stored, _ := env.notes.GetByID(ctx, "u1", created.ID)
	if stored.Title != "T" || stored.Content != "C" {
		t.Errorf("rejected update was stored: %+v", stored)
	}
}

func TestNoteService_Delete(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	created, _ := env.notes.Create(ctx, "u1", &domain.CreateNoteRequest{Title: "T", Content: "C"})

	resp, err := env.notes.Delete(ctx, "u1", created.ID)
	if err != nil || resp.NoteID != created.ID {
		t.Fatalf("Delete() = %v, %v", resp, err)
	}

	if _, err := env.notes.GetByID(ctx, "u1", created.ID); !IsNotFound(err) {
		t.Errorf("GetByID(after delete) error = %v, want NotFoundError", err)
	}
	if _, err := env.notes.Delete(ctx, "u1", created.ID); !IsNotFound(err) {
		t.Errorf("Delete(twice) error = %v, want NotFoundError", err)
	}
}

func TestNoteService_CrossUserIsolation(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	bobNote, _ := env.notes.Create(ctx, "bob", &domain.CreateNoteRequest{Title: "secret", Content: "bob only"})

	if _, err := env.notes.GetByID(ctx, "alice", bobNote.ID); !IsNotFound(err) {
		t.Errorf("GetByID(foreign) error = %v, want NotFoundError", err)
	}
	if _, err := env.notes.Update(ctx, "alice", bobNote.ID, &domain.UpdateNoteRequest{Title: strPtr("pwned")}); !IsNotFound(err) {
		t.Errorf("Update(foreign) error = %v, want NotFoundError", err)
	}
	if _, err := env.notes.Delete(ctx, "alice", bobNote.ID); !IsNotFound(err) {
		t.Errorf("Delete(foreign) error = %v, want NotFoundError", err)
	}

	missing, _ := env.notes.GetByID(ctx, "alice", "does-not-exist")
	_, foreignErr := env.notes.GetByID(ctx, "alice", bobNote.ID)
	_, missingErr := env.notes.GetByID(ctx, "alice", "does-not-exist")
	if missing != nil || foreignErr.Error() != missingErr.Error() {
		t.Error("foreign and missing notes must be indistinguishable")
	}

	stored, _ := env.notes.GetByID(ctx, "bob", bobNote.ID)
	if stored.Title != "secret" {
		t.Errorf("foreign update leaked through: %+v", stored)
	}

	results, _ := env.notes.Search(ctx, "alice", "secret")
	if len(results) != 0 {
		t.Errorf("Search() returned foreign notes: %v", noteIDs(results))
	}
}

func TestNoteService_Search(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	a, _ := env.notes.Create(ctx, "u1", &domain.CreateNoteRequest{Title: "Shopping List", Content: "milk"})
	b, _ := env.notes.Create(ctx, "u1", &domain.CreateNoteRequest{Title: "Ideas", Content: "go SHOPPING later"})
	_, _ = env.notes.Create(ctx, "u1", &domain.CreateNoteRequest{Title: "Other", Content: "nothing", Tags: domain.TagList{"shopping"}})
	_, _ = env.notes.Update(ctx, "u1", a.ID, &domain.UpdateNoteRequest{})

	results, err := env.notes.Search(ctx, "u1", "shopping")
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 2 || results[0].ID != a.ID || results[1].ID != b.ID {
		t.Errorf("Search() = %v, want [%s %s] in storage order", noteIDs(results), a.ID, b.ID)
	}

	none, _ := env.notes.Search(ctx, "u1", "zzz")
	if none == nil || len(none) != 0 {
		t.Errorf("Search(no match) = %v", none)
	}

	cyr, _ := env.notes.Create(ctx, "u1", &domain.CreateNoteRequest{Title: "Привет", Content: "мир"})
	found, _ := env.notes.Search(ctx, "u1", "ПРИВЕТ")
	if len(found) != 1 || found[0].ID != cyr.ID {
		t.Errorf("Search(cyrillic) = %v", noteIDs(found))
	}
}

func TestNoteService_PublishesEvents(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	note, _ := env.notes.Create(ctx, "u1", &domain.CreateNoteRequest{Title: "T", Content: "C"})
	_, _ = env.notes.Update(ctx, "u1", note.ID, &domain.UpdateNoteRequest{IsFavorite: boolPtr(true)})
	_, _ = env.notes.Delete(ctx, "u1", note.ID)
	_, _ = env.notes.Delete(ctx, "u1", note.ID)

	want := []string{domain.EventNoteCreated, domain.EventNoteUpdated, domain.EventNoteDeleted}
	if len(env.publisher.events) != len(want) {
		t.Fatalf("events = %+v", env.publisher.events)
	}
	for i, ev := range env.publisher.events {
		if ev.Type != want[i] || ev.NoteID != note.ID || env.publisher.users[i] != "u1" {
			t.Errorf("event %d = %+v", i, ev)
		}
	}
	if env.publisher.events[2].Note != nil {
		t.Error("delete event carries a note")
	}
}

func TestNoteService_StorageErrors(t *testing.T) {
	svc := NewNoteService(brokenNoteRepo{}, nil)
	ctx := context.Background()

	_, err := svc.GetByID(ctx, "u1", "n1")
	if !errors.Is(err, errStorageDown) || IsNotFound(err) {
		t.Errorf("GetByID() error = %v", err)
	}
	if _, err := svc.List(ctx, "u1"); !errors.Is(err, errStorageDown) {
		t.Errorf("List() error = %v", err)
	}
	if _, err := svc.Create(ctx, "u1", &domain.CreateNoteRequest{Title: "T", Content: "C"}); !errors.Is(err, errStorageDown) {
		t.Errorf("Create() error = %v", err)
	}
}

func TestStatsService_Compute(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	svc := NewStatsService(env.store.Notes(), stats.NewFormatter("en_US", time.UTC))

	empty, err := svc.Compute(ctx, "u1")
	if err != nil {
		t.Fatal(err)
	}
	if empty.Total != 0 || empty.Favorites != 0 || len(empty.Tags) != 0 || empty.LastCreated != nil || empty.LastUpdated != nil || len(empty.ByMonth) != 0 {
		t.Errorf("empty stats = %+v", empty)
	}

	note, _ := env.notes.Create(ctx, "u1", &domain.CreateNoteRequest{Title: "T", Content: "C", Tags: domain.TagList{"x", "y"}})
	_, _ = env.notes.Create(ctx, "u1", &domain.CreateNoteRequest{Title: "T2", Content: "C2", Tags: domain.TagList{"y"}})

	before, _ := svc.Compute(ctx, "u1")
	if before.Favorites != 0 || before.Total != 2 {
		t.Fatalf("stats = %+v", before)
	}

	_, _ = env.notes.Update(ctx, "u1", note.ID, &domain.UpdateNoteRequest{IsFavorite: boolPtr(true)})

	after, _ := svc.Compute(ctx, "u1")
	if after.Favorites != 1 {
		t.Errorf("stats not recomputed after mutation: %+v", after)
	}
	if len(after.Tags) != 2 || after.Tags[0] != "x" || after.Tags[1] != "y" {
		t.Errorf("tags = %v", after.Tags)
	}
	if after.ByMonth["March 2024"] != 2 {
		t.Errorf("byMonth = %v", after.ByMonth)
	}
}

func TestStatusService_Status(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	env.register("alice")

	svc := NewStatusService(env.store.Users(), env.store.Notes(), WithClock(env.clock.Now))
	status, err := svc.Status(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if status.UsersCount != 1 || status.NotesCount != 1 || status.Message == "" || status.Timestamp.IsZero() {
		t.Errorf("Status() = %+v", status)
	}

	if _, err := NewStatusService(env.store.Users(), brokenNoteRepo{}).Status(ctx); !errors.Is(err, errStorageDown) {
		t.Errorf("Status(broken) error = %v", err)
	}
}

func noteIDs(notes []*domain.Note) []string {
	ids := make([]string, 0, len(notes))
	for _, n := range notes {
		ids = append(ids, n.ID)
	}
	return ids
}
