// Package couchdb stores users and notes as documents in a CouchDB database.
package couchdb

import (
	"context"
	"fmt"
	"net/http"

	"github.com/go-kivik/kivik/v4"
	_ "github.com/go-kivik/kivik/v4/couchdb"

	"notes-server/internal/repository"
)

const (
	docTypeUser = "user"
	docTypeNote = "note"
)

type Storage struct {
	client *kivik.Client
	dbName string
}

// Open connects to the CouchDB server at url and creates dbName when missing.
func Open(ctx context.Context, url, dbName string) (*Storage, error) {
	client, err := kivik.New("couch", url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to CouchDB: %w", err)
	}

	exists, err := client.DBExists(ctx, dbName)
	if err != nil {
		return nil, fmt.Errorf("failed to check database existence: %w", err)
	}

	if !exists {
		if err := client.CreateDB(ctx, dbName); err != nil && kivik.HTTPStatus(err) != http.StatusPreconditionFailed {
			return nil, fmt.Errorf("failed to create database: %w", err)
		}
	}

	return &Storage{client: client, dbName: dbName}, nil
}

func (s *Storage) Close() error {
	return s.client.Close()
}

func (s *Storage) Users() repository.UserRepository {
	return &userRepository{db: s.client.DB(s.dbName)}
}

func (s *Storage) Notes() repository.NoteRepository {
	return &noteRepository{db: s.client.DB(s.dbName)}
}

func isNotFound(err error) bool {
	return kivik.HTTPStatus(err) == http.StatusNotFound
}

func isConflict(err error) bool {
	return kivik.HTTPStatus(err) == http.StatusConflict
}

// count runs a Mango query and counts matching documents.
func count(ctx context.Context, db *kivik.DB, selector map[string]interface{}) (int, error) {
	query := map[string]interface{}{
		"selector": selector,
		"fields":   []string{"_id"},
	}

	rows := db.Find(ctx, query)
	defer rows.Close()

	n := 0
	for rows.Next() {
		n++
	}
	if err := rows.Err(); err != nil {
		return 0, err
	}
	return n, nil
}
