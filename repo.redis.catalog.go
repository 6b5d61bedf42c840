package main

import (
	"context"
	"encoding/json"
	"sort"
	"strings"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	HGenres    string = "genres"
	HTutorials string = "tutorials"
)

type redisGenreStorage struct {
	logger *zap.Logger
	client *redis.Client
}

// NewRedisGenreStorage provides an instance of redis-based genre storage.
func NewRedisGenreStorage(logger *zap.Logger, client *redis.Client) GenreStorage {
	return &redisGenreStorage{
		logger: logger,
		client: client,
	}
}

// Add inserts a new genre record. Genre names are unique.
func (rs *redisGenreStorage) Add(ctx context.Context, id string, genre Genre) error {
	existing, err := rs.GetAll(ctx)
	if err != nil {
		return err
	}
	for _, g := range existing {
		if strings.EqualFold(g.Name, genre.Name) {
			return ErrGenreTaken
		}
	}
	genreBytes, err := json.Marshal(genre)
	if err != nil {
		return err
	}
	return rs.client.HSet(ctx, HGenres, id, genreBytes).Err()
}

// GetOne retrieves a genre record based on its ID.
func (rs *redisGenreStorage) GetOne(ctx context.Context, id string) (Genre, error) {
	var genre Genre
	genreJSONString, err := rs.client.HGet(ctx, HGenres, id).Result()
	if err == redis.Nil {
		return genre, ErrGenreNotFound
	}
	if err != nil {
		return genre, err
	}
	err = json.Unmarshal([]byte(genreJSONString), &genre)
	return genre, err
}

// Update replaces existing genre record data.
func (rs *redisGenreStorage) Update(ctx context.Context, id string, genre Genre) (Genre, error) {
	genreBytes, err := json.Marshal(genre)
	if err != nil {
		return genre, err
	}
	err = rs.client.HSet(ctx, HGenres, id, genreBytes).Err()
	return genre, err
}

// Delete removes a genre record based on its ID.
func (rs *redisGenreStorage) Delete(ctx context.Context, id string) error {
	n, err := rs.client.HDel(ctx, HGenres, id).Result()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrGenreNotFound
	}
	return nil
}

// GetAll retrieves all genre records sorted by name.
func (rs *redisGenreStorage) GetAll(ctx context.Context) ([]Genre, error) {
	mapGenres, err := rs.client.HVals(ctx, HGenres).Result()
	if err != nil {
		return nil, err
	}
	genres := []Genre{}
	for _, genreJSONString := range mapGenres {
		var genre Genre
		if err = json.Unmarshal([]byte(genreJSONString), &genre); err != nil {
			return nil, err
		}
		genres = append(genres, genre)
	}
	sort.Slice(genres, func(i, j int) bool {
		return genres[i].Name < genres[j].Name
	})
	return genres, nil
}

type redisTutorialStorage struct {
	logger *zap.Logger
	client *redis.Client
}

// NewRedisTutorialStorage provides an instance of redis-based tutorial storage.
func NewRedisTutorialStorage(logger *zap.Logger, client *redis.Client) TutorialStorage {
	return &redisTutorialStorage{
		logger: logger,
		client: client,
	}
}

// Add inserts a new tutorial record.
func (rs *redisTutorialStorage) Add(ctx context.Context, id string, tutorial Tutorial) error {
	tutorialBytes, err := json.Marshal(tutorial)
	if err != nil {
		return err
	}
	return rs.client.HSet(ctx, HTutorials, id, tutorialBytes).Err()
}

// GetOne retrieves a tutorial record based on its ID.
func (rs *redisTutorialStorage) GetOne(ctx context.Context, id string) (Tutorial, error) {
	var tutorial Tutorial
	tutorialJSONString, err := rs.client.HGet(ctx, HTutorials, id).Result()
	if err == redis.Nil {
		return tutorial, ErrTutorialNotFound
	}
	if err != nil {
		return tutorial, err
	}
	err = json.Unmarshal([]byte(tutorialJSONString), &tutorial)
	return tutorial, err
}

// Update replaces existing tutorial record data.
func (rs *redisTutorialStorage) Update(ctx context.Context, id string, tutorial Tutorial) (Tutorial, error) {
	tutorialBytes, err := json.Marshal(tutorial)
	if err != nil {
		return tutorial, err
	}
	err = rs.client.HSet(ctx, HTutorials, id, tutorialBytes).Err()
	return tutorial, err
}

// Delete removes a tutorial record based on its ID.
func (rs *redisTutorialStorage) Delete(ctx context.Context, id string) error {
	n, err := rs.client.HDel(ctx, HTutorials, id).Result()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrTutorialNotFound
	}
	return nil
}

// List retrieves the page of tutorials matching the query, newest
// first, with the total number of matches before pagination.
func (rs *redisTutorialStorage) List(ctx context.Context, q ListQuery) ([]Tutorial, int, error) {
	mapTutorials, err := rs.client.HVals(ctx, HTutorials).Result()
	if err != nil {
		return nil, 0, err
	}
	q = q.Normalize()
	tutorials := []Tutorial{}
	for _, tutorialJSONString := range mapTutorials {
		var tutorial Tutorial
		if err = json.Unmarshal([]byte(tutorialJSONString), &tutorial); err != nil {
			return nil, 0, err
		}
		if q.Search != "" && !strings.Contains(strings.ToLower(tutorial.Title), strings.ToLower(q.Search)) {
			continue
		}
		tutorials = append(tutorials, tutorial)
	}
	sort.Slice(tutorials, func(i, j int) bool {
		return tutorials[i].CreatedAt.After(tutorials[j].CreatedAt)
	})
	total := len(tutorials)
	start, end := q.Bounds(total)
	return tutorials[start:end], total, nil
}

// Count returns the total number of tutorials stored.
func (rs *redisTutorialStorage) Count(ctx context.Context) (int, error) {
	n, err := rs.client.HLen(ctx, HTutorials).Result()
	return int(n), err
}
