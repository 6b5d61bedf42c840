package main

import (
	"context"
	"encoding/json"
	"sort"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const HReviews string = "reviews"

type redisReviewStorage struct {
	logger *zap.Logger
	client *redis.Client
}

// NewRedisReviewStorage provides an instance of redis-based review storage.
func NewRedisReviewStorage(logger *zap.Logger, client *redis.Client) ReviewStorage {
	return &redisReviewStorage{
		logger: logger,
		client: client,
	}
}

// Add inserts a new review record.
func (rs *redisReviewStorage) Add(ctx context.Context, id string, review Review) error {
	reviewBytes, err := json.Marshal(review)
	if err != nil {
		return err
	}
	return rs.client.HSet(ctx, HReviews, id, reviewBytes).Err()
}

// GetOne retrieves a review record based on its ID.
func (rs *redisReviewStorage) GetOne(ctx context.Context, id string) (Review, error) {
	var review Review
	reviewJSONString, err := rs.client.HGet(ctx, HReviews, id).Result()
	if err == redis.Nil {
		return review, ErrReviewNotFound
	}
	if err != nil {
		return review, err
	}
	err = json.Unmarshal([]byte(reviewJSONString), &review)
	return review, err
}

// Update replaces existing review record data.
func (rs *redisReviewStorage) Update(ctx context.Context, id string, review Review) (Review, error) {
	reviewBytes, err := json.Marshal(review)
	if err != nil {
		return review, err
	}
	err = rs.client.HSet(ctx, HReviews, id, reviewBytes).Err()
	return review, err
}

// Delete removes a review record based on its ID.
func (rs *redisReviewStorage) Delete(ctx context.Context, id string) error {
	n, err := rs.client.HDel(ctx, HReviews, id).Result()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrReviewNotFound
	}
	return nil
}

// getAll loads every review record of the hash.
func (rs *redisReviewStorage) getAll(ctx context.Context) ([]Review, error) {
	mapReviews, err := rs.client.HVals(ctx, HReviews).Result()
	if err != nil {
		return nil, err
	}
	reviews := []Review{}
	for _, reviewJSONString := range mapReviews {
		var review Review
		if err = json.Unmarshal([]byte(reviewJSONString), &review); err != nil {
			return nil, err
		}
		reviews = append(reviews, review)
	}
	return reviews, nil
}

// ListForBook retrieves all reviews of a book in a given status,
// newest first.
func (rs *redisReviewStorage) ListForBook(ctx context.Context, bookID string, status ReviewStatus) ([]Review, error) {
	all, err := rs.getAll(ctx)
	if err != nil {
		return nil, err
	}
	reviews := []Review{}
	for _, review := range all {
		if review.BookID == bookID && review.Status == status {
			reviews = append(reviews, review)
		}
	}
	sortReviewsNewestFirst(reviews)
	return reviews, nil
}

// ListByStatus retrieves the page of reviews in a given status, newest
// first, with the total number of matches before pagination.
func (rs *redisReviewStorage) ListByStatus(ctx context.Context, status ReviewStatus, q ListQuery) ([]Review, int, error) {
	all, err := rs.getAll(ctx)
	if err != nil {
		return nil, 0, err
	}
	q = q.Normalize()
	reviews := []Review{}
	for _, review := range all {
		if review.Status == status {
			reviews = append(reviews, review)
		}
	}
	sortReviewsNewestFirst(reviews)
	total := len(reviews)
	start, end := q.Bounds(total)
	return reviews[start:end], total, nil
}

// ListByUser retrieves all reviews authored by a user, newest first.
func (rs *redisReviewStorage) ListByUser(ctx context.Context, userID string) ([]Review, error) {
	all, err := rs.getAll(ctx)
	if err != nil {
		return nil, err
	}
	reviews := []Review{}
	for _, review := range all {
		if review.UserID == userID {
			reviews = append(reviews, review)
		}
	}
	sortReviewsNewestFirst(reviews)
	return reviews, nil
}

// CountByStatus returns the number of reviews in a given status.
func (rs *redisReviewStorage) CountByStatus(ctx context.Context, status ReviewStatus) (int, error) {
	all, err := rs.getAll(ctx)
	if err != nil {
		return 0, err
	}
	count := 0
	for _, review := range all {
		if review.Status == status {
			count++
		}
	}
	return count, nil
}

func sortReviewsNewestFirst(reviews []Review) {
	sort.Slice(reviews, func(i, j int) bool {
		return reviews[i].CreatedAt.After(reviews[j].CreatedAt)
	})
}
