package main

import (
	"context"
	"errors"
	"time"
)

var ErrBookNotFound = errors.New("book not found")

// Book represents a book entity. AverageRating and TotalReviews are
// derived from approved reviews and recomputed on review transitions.
type Book struct {
	ID            string    `json:"id"`
	Title         string    `json:"title"`
	Author        string    `json:"author"`
	Description   string    `json:"description"`
	TotalPages    int       `json:"totalPages"`
	CoverImage    string    `json:"coverImage"`
	Genres        []string  `json:"genres"`
	AverageRating float64   `json:"averageRating"`
	TotalReviews  int       `json:"totalReviews"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

// ListQuery carries the pagination and filtering parameters accepted
// by every list endpoint. Values are passed through from the query
// string verbatim, then normalized.
type ListQuery struct {
	Search string
	Genre  string
	Page   int
	Limit  int
}

// Normalize enforces sane pagination defaults.
func (q ListQuery) Normalize() ListQuery {
	if q.Page < 1 {
		q.Page = 1
	}
	if q.Limit < 1 {
		q.Limit = 10
	}
	if q.Limit > 100 {
		q.Limit = 100
	}
	return q
}

// Bounds returns the slice window of the current page over total items.
func (q ListQuery) Bounds(total int) (int, int) {
	start := (q.Page - 1) * q.Limit
	if start > total {
		start = total
	}
	end := start + q.Limit
	if end > total {
		end = total
	}
	return start, end
}

// BookStorage defines possible operations on book entity.
type BookStorage interface {
	Add(ctx context.Context, id string, book Book) error
	GetOne(ctx context.Context, id string) (Book, error)
	Update(ctx context.Context, id string, book Book) (Book, error)
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, q ListQuery) ([]Book, int, error)
	Count(ctx context.Context) (int, error)
}
