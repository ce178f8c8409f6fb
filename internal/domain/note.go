package domain

import (
	"bytes"
	"encoding/json"
	"time"
)

type Note struct {
	ID         string    `json:"id"`
	UserID     string    `json:"userId"`
	Title      string    `json:"title"`
	Content    string    `json:"content"`
	Tags       []string  `json:"tags"`
	IsFavorite bool      `json:"isFavorite"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

// Clone returns a copy that shares no memory with n.
func (n *Note) Clone() *Note {
	c := *n
	c.Tags = append([]string{}, n.Tags...)
	return &c
}

// TagList decodes leniently: anything other than a JSON array of strings
// becomes an empty list instead of a decoding error.
type TagList []string

func (t *TagList) UnmarshalJSON(data []byte) error {
	*t = TagList{}

	if !bytes.HasPrefix(bytes.TrimSpace(data), []byte("[")) {
		return nil
	}

	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil
	}

	for _, item := range raw {
		var tag string
		if err := json.Unmarshal(item, &tag); err != nil {
			continue
		}
		*t = append(*t, tag)
	}

	return nil
}

type CreateNoteRequest struct {
	Title   string  `json:"title"`
	Content string  `json:"content"`
	Tags    TagList `json:"tags,omitempty"`
}

// UpdateNoteRequest is a sparse patch: nil fields leave the stored value untouched.
type UpdateNoteRequest struct {
	Title      *string  `json:"title,omitempty"`
	Content    *string  `json:"content,omitempty"`
	Tags       *TagList `json:"tags,omitempty"`
	IsFavorite *bool    `json:"isFavorite,omitempty"`
}

type DeleteNoteResponse struct {
	NoteID string `json:"noteId"`
}
