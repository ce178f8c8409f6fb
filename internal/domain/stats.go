package domain

import "time"

// Stats is computed from a user's notes on every request and never stored.
type Stats struct {
	Total       int            `json:"total"`
	Favorites   int            `json:"favorites"`
	Tags        []string       `json:"tags"`
	LastCreated *string        `json:"lastCreated"`
	LastUpdated *string        `json:"lastUpdated"`
	ByMonth     map[string]int `json:"byMonth"`
}

type ServerStatus struct {
	Message    string    `json:"message"`
	UsersCount int       `json:"usersCount"`
	NotesCount int       `json:"notesCount"`
	Timestamp  time.Time `json:"timestamp"`
}
