package main

import (
	"context"
	"errors"
	"time"
)

var ErrLibraryEntryNotFound = errors.New("library entry not found")

// LibraryStatus is the closed set of reading states of a library entry.
type LibraryStatus string

const (
	LibraryWant    LibraryStatus = "want"
	LibraryReading LibraryStatus = "reading"
	LibraryRead    LibraryStatus = "read"
)

// IsValid reports whether the status is one of the known reading states.
func (s LibraryStatus) IsValid() bool {
	switch s {
	case LibraryWant, LibraryReading, LibraryRead:
		return true
	}
	return false
}

// LibraryEntry tracks one book in one user personal library. An entry
// is unique per (user, book): saving again replaces the previous state.
// Progress is meaningful only while Status is reading and lies in [0,100].
type LibraryEntry struct {
	UserID    string        `json:"userId"`
	BookID    string        `json:"bookId"`
	Status    LibraryStatus `json:"status"`
	Progress  int           `json:"progress,omitempty"`
	UpdatedAt time.Time     `json:"updatedAt"`
}

// LibraryStorage defines possible operations on library entries.
type LibraryStorage interface {
	Upsert(ctx context.Context, entry LibraryEntry) error
	GetOne(ctx context.Context, userID, bookID string) (LibraryEntry, error)
	GetAllForUser(ctx context.Context, userID string) ([]LibraryEntry, error)
	GetAll(ctx context.Context) ([]LibraryEntry, error)
}
