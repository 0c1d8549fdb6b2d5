package db

import (
	"database/sql"
	"errors"
	"fmt"
	_ "github.com/mattn/go-sqlite3"
)

var ErrNotFound = errors.New("not found")

type Storage struct {
	db *sql.DB
}

// ConnectDB opens the SQLite database at path and creates the schema.
// ":memory:" gives a private in-memory database.
func ConnectDB(path string) (*Storage, error) {
	db, err := sql.Open("sqlite3", path+"?_foreign_keys=on&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("error opening database: %w", err)
	}

	// every connection to :memory: is a separate database
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("error connecting to database: %w", err)
	}

	s := &Storage{db: db}
	if err := s.UpdateSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("error updating schema: %w", err)
	}

	return s, nil
}

func (s *Storage) Close() error {
	return s.db.Close()
}

func (s *Storage) Health() error {
	return s.db.Ping()
}
