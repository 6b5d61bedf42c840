package main

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const HBooks string = "books"

type redisBookStorage struct {
	logger *zap.Logger
	client *redis.Client
}

// NewRedisBookStorage provides an instance of redis-based book storage.
func NewRedisBookStorage(logger *zap.Logger, client *redis.Client) BookStorage {
	return &redisBookStorage{
		logger: logger,
		client: client,
	}
}

// GetRedisClient provides a ready to use redis client.
func GetRedisClient(config *Config) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         fmt.Sprintf("%s:%s", config.Redis.Host, config.Redis.Port),
		DialTimeout:  config.Redis.DialTimeout,
		ReadTimeout:  config.Redis.ReadTimeout,
		WriteTimeout: config.Redis.WriteTimeout,
		PoolSize:     config.Redis.PoolSize,
		PoolTimeout:  config.Redis.PoolTimeout,
		Password:     config.Redis.Password,
		Username:     config.Redis.Username,
		DB:           config.Redis.DatabaseIndex,
	})

	// test connection.
	if pong, err := client.Ping(context.Background()).Result(); pong != "PONG" || err != nil {
		return client, fmt.Errorf("test connection failed: %v", err)
	}
	return client, nil
}

// Add inserts a new book record.
func (rs *redisBookStorage) Add(ctx context.Context, id string, book Book) error {
	bookBytes, err := json.Marshal(book)
	if err != nil {
		return err
	}
	return rs.client.HSet(ctx, HBooks, id, bookBytes).Err()
}

// GetOne retrieves a book record based on its ID.
func (rs *redisBookStorage) GetOne(ctx context.Context, id string) (Book, error) {
	var book Book
	bookJSONString, err := rs.client.HGet(ctx, HBooks, id).Result()
	if err == redis.Nil {
		return book, ErrBookNotFound
	}
	if err != nil {
		return book, err
	}
	err = json.Unmarshal([]byte(bookJSONString), &book)
	return book, err
}

// Delete removes a book record based on its ID.
func (rs *redisBookStorage) Delete(ctx context.Context, id string) error {
	n, err := rs.client.HDel(ctx, HBooks, id).Result()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrBookNotFound
	}
	return nil
}

// Update replaces existing book record data.
func (rs *redisBookStorage) Update(ctx context.Context, id string, book Book) (Book, error) {
	bookBytes, err := json.Marshal(book)
	if err != nil {
		return book, err
	}
	err = rs.client.HSet(ctx, HBooks, id, bookBytes).Err()
	return book, err
}

// List retrieves the page of books matching the query filters, with
// the total number of matches before pagination. Newest books first.
func (rs *redisBookStorage) List(ctx context.Context, q ListQuery) ([]Book, int, error) {
	mapBooks, err := rs.client.HVals(ctx, HBooks).Result()
	if err != nil {
		return nil, 0, err
	}
	q = q.Normalize()
	books := []Book{}
	for _, bookJSONString := range mapBooks {
		var book Book
		if err = json.Unmarshal([]byte(bookJSONString), &book); err != nil {
			return nil, 0, err
		}
		if matchesBookQuery(book, q) {
			books = append(books, book)
		}
	}
	sort.Slice(books, func(i, j int) bool {
		return books[i].CreatedAt.After(books[j].CreatedAt)
	})
	total := len(books)
	start, end := q.Bounds(total)
	return books[start:end], total, nil
}

// Count returns the total number of books stored.
func (rs *redisBookStorage) Count(ctx context.Context) (int, error) {
	n, err := rs.client.HLen(ctx, HBooks).Result()
	return int(n), err
}

func matchesBookQuery(book Book, q ListQuery) bool {
	if q.Search != "" {
		search := strings.ToLower(q.Search)
		if !strings.Contains(strings.ToLower(book.Title), search) &&
			!strings.Contains(strings.ToLower(book.Author), search) {
			return false
		}
	}
	if q.Genre != "" {
		found := false
		for _, g := range book.Genres {
			if strings.EqualFold(g, q.Genre) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}
