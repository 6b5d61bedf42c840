package main

import (
	"context"
	"encoding/json"
	"sort"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// HLibraryPrefix scopes one hash per user, keyed by book ID. The hash
// field keying makes the (user, book) uniqueness a property of the
// store itself: saving the same book again replaces the field.
const HLibraryPrefix string = "library:"

// SLibraryUsers tracks users owning at least one entry, for full scans.
const SLibraryUsers string = "library:users"

type redisLibraryStorage struct {
	logger *zap.Logger
	client *redis.Client
}

// NewRedisLibraryStorage provides an instance of redis-based library storage.
func NewRedisLibraryStorage(logger *zap.Logger, client *redis.Client) LibraryStorage {
	return &redisLibraryStorage{
		logger: logger,
		client: client,
	}
}

// Upsert inserts or replaces the entry of (entry.UserID, entry.BookID).
func (rs *redisLibraryStorage) Upsert(ctx context.Context, entry LibraryEntry) error {
	entryBytes, err := json.Marshal(entry)
	if err != nil {
		return err
	}
	if err = rs.client.HSet(ctx, HLibraryPrefix+entry.UserID, entry.BookID, entryBytes).Err(); err != nil {
		return err
	}
	return rs.client.SAdd(ctx, SLibraryUsers, entry.UserID).Err()
}

// GetOne retrieves the entry of one book in one user library.
func (rs *redisLibraryStorage) GetOne(ctx context.Context, userID, bookID string) (LibraryEntry, error) {
	var entry LibraryEntry
	entryJSONString, err := rs.client.HGet(ctx, HLibraryPrefix+userID, bookID).Result()
	if err == redis.Nil {
		return entry, ErrLibraryEntryNotFound
	}
	if err != nil {
		return entry, err
	}
	err = json.Unmarshal([]byte(entryJSONString), &entry)
	return entry, err
}

// GetAllForUser retrieves all entries of a user library, most recently
// updated first.
func (rs *redisLibraryStorage) GetAllForUser(ctx context.Context, userID string) ([]LibraryEntry, error) {
	mapEntries, err := rs.client.HVals(ctx, HLibraryPrefix+userID).Result()
	if err != nil {
		return nil, err
	}
	entries := []LibraryEntry{}
	for _, entryJSONString := range mapEntries {
		var entry LibraryEntry
		if err = json.Unmarshal([]byte(entryJSONString), &entry); err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].UpdatedAt.After(entries[j].UpdatedAt)
	})
	return entries, nil
}

// GetAll retrieves the entries of every user library.
func (rs *redisLibraryStorage) GetAll(ctx context.Context) ([]LibraryEntry, error) {
	userIDs, err := rs.client.SMembers(ctx, SLibraryUsers).Result()
	if err != nil {
		return nil, err
	}
	entries := []LibraryEntry{}
	for _, userID := range userIDs {
		userEntries, err := rs.GetAllForUser(ctx, userID)
		if err != nil {
			return nil, err
		}
		entries = append(entries, userEntries...)
	}
	return entries, nil
}
