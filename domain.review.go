package main

import (
	"context"
	"errors"
	"time"
)

var ErrReviewNotFound = errors.New("review not found")

// ReviewStatus is the moderation state of a review. A review starts
// pending and only an admin approve transition makes it visible.
type ReviewStatus string

const (
	ReviewPending  ReviewStatus = "pending"
	ReviewApproved ReviewStatus = "approved"
)

// Review represents a review entity. UserName and BookName are
// denormalized at creation time for the moderation listing.
type Review struct {
	ID        string       `json:"id"`
	BookID    string       `json:"bookId"`
	UserID    string       `json:"userId"`
	UserName  string       `json:"userName"`
	BookName  string       `json:"bookName"`
	Rating    int          `json:"rating"`
	Comment   string       `json:"comment"`
	Status    ReviewStatus `json:"status"`
	CreatedAt time.Time    `json:"createdAt"`
}

// ReviewStorage defines possible operations on review entity.
type ReviewStorage interface {
	Add(ctx context.Context, id string, review Review) error
	GetOne(ctx context.Context, id string) (Review, error)
	Update(ctx context.Context, id string, review Review) (Review, error)
	Delete(ctx context.Context, id string) error
	ListForBook(ctx context.Context, bookID string, status ReviewStatus) ([]Review, error)
	ListByStatus(ctx context.Context, status ReviewStatus, q ListQuery) ([]Review, int, error)
	ListByUser(ctx context.Context, userID string) ([]Review, error)
	CountByStatus(ctx context.Context, status ReviewStatus) (int, error)
}
