package client

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"notes-server/internal/domain"
	feed "notes-server/internal/websocket"
)

const statsRefreshTimeout = 10 * time.Second

// Mirror is a local, non-authoritative copy of the signed-in user's notes.
// Mutations patch the local list as soon as the server confirms them and
// refresh stats in the background.
type Mirror struct {
	api *Client
	log *logrus.Logger

	mu            sync.RWMutex
	notes         []*domain.Note
	search        string
	favoritesOnly bool
	stats         *domain.Stats
	// statsIssued numbers every stats fetch; statsApplied is the newest one
	// written to stats. Replies older than statsApplied are dropped.
	statsIssued  uint64
	statsApplied uint64

	refreshes sync.WaitGroup
}

func NewMirror(api *Client, logger *logrus.Logger) *Mirror {
	return &Mirror{
		api:   api,
		log:   logger,
		notes: []*domain.Note{},
	}
}

func (m *Mirror) SetSearch(search string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.search = search
}

func (m *Mirror) SetFavoritesOnly(on bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.favoritesOnly = on
}

// Notes returns the mirrored notes in their local order.
func (m *Mirror) Notes() []*domain.Note {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return cloneNotes(m.notes)
}

// Stats returns a copy of the last fetched snapshot, or nil before the first
// fetch.
func (m *Mirror) Stats() *domain.Stats {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return cloneStats(m.stats)
}

func cloneStats(s *domain.Stats) *domain.Stats {
	if s == nil {
		return nil
	}

	c := *s
	c.Tags = append([]string{}, s.Tags...)
	c.ByMonth = make(map[string]int, len(s.ByMonth))
	for month, n := range s.ByMonth {
		c.ByMonth[month] = n
	}
	if s.LastCreated != nil {
		v := *s.LastCreated
		c.LastCreated = &v
	}
	if s.LastUpdated != nil {
		v := *s.LastUpdated
		c.LastUpdated = &v
	}
	return &c
}

// FilteredView applies the current search text and favorites toggle.
func (m *Mirror) FilteredView() []*domain.Note {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return cloneNotes(Filter(m.notes, m.search, m.favoritesOnly))
}

// Filter keeps notes whose title, content or any tag contains search
// (ignoring case) and, when favoritesOnly is set, that are favorites.
// Order is preserved.
func Filter(notes []*domain.Note, search string, favoritesOnly bool) []*domain.Note {
	q := strings.ToLower(search)
	out := []*domain.Note{}
	for _, n := range notes {
		if favoritesOnly && !n.IsFavorite {
			continue
		}
		if q != "" && !matches(n, q) {
			continue
		}
		out = append(out, n)
	}
	return out
}

func matches(n *domain.Note, q string) bool {
	if strings.Contains(strings.ToLower(n.Title), q) || strings.Contains(strings.ToLower(n.Content), q) {
		return true
	}
	for _, tag := range n.Tags {
		if strings.Contains(strings.ToLower(tag), q) {
			return true
		}
	}
	return false
}

// Load replaces the local state with a full fetch of notes and stats.
func (m *Mirror) Load(ctx context.Context) error {
	notes, err := m.api.ListNotes(ctx)
	if err != nil {
		return err
	}

	seq := m.nextStatsSeq()
	stats, err := m.api.Stats(ctx)
	if err != nil {
		return err
	}

	m.mu.Lock()
	m.notes = notes
	m.mu.Unlock()

	m.storeStats(seq, stats)
	return nil
}

func (m *Mirror) Create(ctx context.Context, req domain.CreateNoteRequest) (*domain.Note, error) {
	note, err := m.api.CreateNote(ctx, req)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	m.upsert(note, true)
	m.mu.Unlock()

	m.refreshStats(ctx)
	return note, nil
}

func (m *Mirror) Update(ctx context.Context, id string, req domain.UpdateNoteRequest) (*domain.Note, error) {
	note, err := m.api.UpdateNote(ctx, id, req)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	m.upsert(note, false)
	m.mu.Unlock()

	m.refreshStats(ctx)
	return note, nil
}

func (m *Mirror) Delete(ctx context.Context, id string) error {
	if err := m.api.DeleteNote(ctx, id); err != nil {
		return err
	}

	m.mu.Lock()
	m.remove(id)
	m.mu.Unlock()

	m.refreshStats(ctx)
	return nil
}

// ToggleFavorite flips the favorite flag of a mirrored note.
func (m *Mirror) ToggleFavorite(ctx context.Context, id string) (*domain.Note, error) {
	m.mu.RLock()
	idx := m.indexOf(id)
	var fav bool
	if idx >= 0 {
		fav = !m.notes[idx].IsFavorite
	}
	m.mu.RUnlock()

	if idx < 0 {
		return nil, fmt.Errorf("note %s is not loaded", id)
	}

	return m.Update(ctx, id, domain.UpdateNoteRequest{IsFavorite: &fav})
}

// Apply folds a change-feed event from another session into the local list.
// Stats are not refreshed; call RefreshStats when they matter.
func (m *Mirror) Apply(event domain.NoteEvent) {
	m.mu.Lock()
	defer m.mu.Unlock()

	switch event.Type {
	case domain.EventNoteCreated, domain.EventNoteUpdated:
		if event.Note != nil {
			m.upsert(event.Note, true)
		}
	case domain.EventNoteDeleted:
		m.remove(event.NoteID)
	}
}

// Follow subscribes to the change feed and applies events until ctx is done
// or the connection drops. notify, if not nil, sees each event after it is
// applied.
func (m *Mirror) Follow(ctx context.Context, notify func(domain.NoteEvent)) error {
	conn, err := m.api.Subscribe(ctx)
	if err != nil {
		return err
	}

	go func() {
		<-ctx.Done()
		conn.Close()
	}()

	for {
		var msg feed.Message
		if err := conn.ReadJSON(&msg); err != nil {
			if ctx.Err() != nil || websocket.IsCloseError(err, websocket.CloseNormalClosure) {
				return nil
			}
			return fmt.Errorf("change feed: %w", err)
		}

		switch msg.Type {
		case feed.TypeNoteCreated, feed.TypeNoteUpdated, feed.TypeNoteDeleted:
		default:
			continue
		}

		event, err := msg.NoteEvent()
		if err != nil {
			m.log.WithError(err).Warn("skipping malformed change event")
			continue
		}
		m.Apply(event)
		if notify != nil {
			notify(event)
		}
	}
}

// RefreshStats fetches a fresh stats snapshot synchronously.
// A reply that arrives after a newer one has been stored is discarded.
func (m *Mirror) RefreshStats(ctx context.Context) error {
	return m.fetchStats(ctx, m.nextStatsSeq())
}

func (m *Mirror) nextStatsSeq() uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.statsIssued++
	return m.statsIssued
}

func (m *Mirror) fetchStats(ctx context.Context, seq uint64) error {
	stats, err := m.api.Stats(ctx)
	if err != nil {
		return err
	}

	m.storeStats(seq, stats)
	return nil
}

func (m *Mirror) storeStats(seq uint64, stats *domain.Stats) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if seq < m.statsApplied {
		m.log.WithField("seq", seq).Debug("dropping stale stats reply")
		return
	}
	m.statsApplied = seq
	m.stats = stats
}

// refreshStats numbers the fetch before returning so that a later mutation
// always gets a higher number than this one.
func (m *Mirror) refreshStats(ctx context.Context) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), statsRefreshTimeout)
	seq := m.nextStatsSeq()

	m.refreshes.Add(1)
	go func() {
		defer m.refreshes.Done()
		defer cancel()

		if err := m.fetchStats(ctx, seq); err != nil {
			m.log.WithError(err).Warn("failed to refresh stats")
		}
	}()
}

// Wait blocks until every background stats refresh has finished.
func (m *Mirror) Wait() {
	m.refreshes.Wait()
}

func (m *Mirror) indexOf(id string) int {
	for i, n := range m.notes {
		if n.ID == id {
			return i
		}
	}
	return -1
}

// upsert replaces the note in place or, if missing, inserts it at the front
// (prepend) or back.
func (m *Mirror) upsert(note *domain.Note, prepend bool) {
	if idx := m.indexOf(note.ID); idx >= 0 {
		m.notes[idx] = note.Clone()
		return
	}
	if prepend {
		m.notes = append([]*domain.Note{note.Clone()}, m.notes...)
		return
	}
	m.notes = append(m.notes, note.Clone())
}

func (m *Mirror) remove(id string) {
	if idx := m.indexOf(id); idx >= 0 {
		m.notes = append(m.notes[:idx], m.notes[idx+1:]...)
	}
}

func cloneNotes(notes []*domain.Note) []*domain.Note {
	out := make([]*domain.Note, len(notes))
	for i, n := range notes {
		out[i] = n.Clone()
	}
	return out
}
