// Package idgen produces identifiers for users and notes.
package idgen

import "github.com/google/uuid"

// New returns a UUIDv7: a millisecond timestamp and sub-millisecond counter
// followed by random bits, so ids created concurrently never collide.
func New() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.New().String()
	}
	return id.String()
}
