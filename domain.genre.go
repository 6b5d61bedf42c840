package main

import (
	"context"
	"errors"
	"time"
)

var (
	ErrGenreNotFound = errors.New("genre not found")
	ErrGenreTaken    = errors.New("genre already exists")
)

// Genre represents a genre entity.
type Genre struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"createdAt"`
}

// GenreStorage defines possible operations on genre entity.
type GenreStorage interface {
	Add(ctx context.Context, id string, genre Genre) error
	GetOne(ctx context.Context, id string) (Genre, error)
	Update(ctx context.Context, id string, genre Genre) (Genre, error)
	Delete(ctx context.Context, id string) error
	GetAll(ctx context.Context) ([]Genre, error)
}
