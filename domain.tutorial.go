package main

import (
	"context"
	"errors"
	"time"
)

var ErrTutorialNotFound = errors.New("tutorial not found")

// Tutorial represents an admin curated video tutorial entry.
type Tutorial struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	YoutubeLink string    `json:"youtubeLink"`
	CreatedAt   time.Time `json:"createdAt"`
}

// TutorialStorage defines possible operations on tutorial entity.
type TutorialStorage interface {
	Add(ctx context.Context, id string, tutorial Tutorial) error
	GetOne(ctx context.Context, id string) (Tutorial, error)
	Update(ctx context.Context, id string, tutorial Tutorial) (Tutorial, error)
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, q ListQuery) ([]Tutorial, int, error)
	Count(ctx context.Context) (int, error)
}
