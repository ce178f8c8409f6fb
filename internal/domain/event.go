package domain

const (
	EventNoteCreated = "note_created"
	EventNoteUpdated = "note_updated"
	EventNoteDeleted = "note_deleted"
)

// NoteEvent describes one note mutation. Note is nil for deletions.
type NoteEvent struct {
	Type   string `json:"type"`
	NoteID string `json:"noteId"`
	Note   *Note  `json:"note,omitempty"`
}
