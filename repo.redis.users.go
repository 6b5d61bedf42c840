package main

import (
	"context"
	"encoding/json"
	"sort"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	HUsers      string = "users"
	HUserEmails string = "users:emails"
)

// KSessions prefixes each session key so the redis TTL applies per token.
const KSessions string = "sessions:"

type redisUserStorage struct {
	logger *zap.Logger
	client *redis.Client
}

// NewRedisUserStorage provides an instance of redis-based user storage.
// Users live in one hash keyed by ID, with a second hash mapping email
// to ID so that sign-in and uniqueness checks stay single lookups.
func NewRedisUserStorage(logger *zap.Logger, client *redis.Client) UserStorage {
	return &redisUserStorage{
		logger: logger,
		client: client,
	}
}

// Add inserts a new user record. The email index claim goes first so
// two concurrent sign-ups with the same email cannot both succeed.
func (rs *redisUserStorage) Add(ctx context.Context, id string, user User) error {
	claimed, err := rs.client.HSetNX(ctx, HUserEmails, strings.ToLower(user.Email), id).Result()
	if err != nil {
		return err
	}
	if !claimed {
		return ErrEmailTaken
	}
	userBytes, err := json.Marshal(user)
	if err != nil {
		return err
	}
	return rs.client.HSet(ctx, HUsers, id, userBytes).Err()
}

// GetOne retrieves a user record based on its ID.
func (rs *redisUserStorage) GetOne(ctx context.Context, id string) (User, error) {
	var user User
	userJSONString, err := rs.client.HGet(ctx, HUsers, id).Result()
	if err == redis.Nil {
		return user, ErrUserNotFound
	}
	if err != nil {
		return user, err
	}
	err = json.Unmarshal([]byte(userJSONString), &user)
	return user, err
}

// GetByEmail resolves the email index then loads the user record.
func (rs *redisUserStorage) GetByEmail(ctx context.Context, email string) (User, error) {
	id, err := rs.client.HGet(ctx, HUserEmails, strings.ToLower(email)).Result()
	if err == redis.Nil {
		return User{}, ErrUserNotFound
	}
	if err != nil {
		return User{}, err
	}
	return rs.GetOne(ctx, id)
}

// List retrieves the page of users matching the query, oldest first,
// with the total number of matches before pagination.
func (rs *redisUserStorage) List(ctx context.Context, q ListQuery) ([]User, int, error) {
	mapUsers, err := rs.client.HVals(ctx, HUsers).Result()
	if err != nil {
		return nil, 0, err
	}
	q = q.Normalize()
	users := []User{}
	for _, userJSONString := range mapUsers {
		var user User
		if err = json.Unmarshal([]byte(userJSONString), &user); err != nil {
			return nil, 0, err
		}
		if q.Search != "" {
			search := strings.ToLower(q.Search)
			if !strings.Contains(strings.ToLower(user.Name), search) &&
				!strings.Contains(strings.ToLower(user.Email), search) {
				continue
			}
		}
		users = append(users, user)
	}
	sort.Slice(users, func(i, j int) bool {
		return users[i].CreatedAt.Before(users[j].CreatedAt)
	})
	total := len(users)
	start, end := q.Bounds(total)
	return users[start:end], total, nil
}

// UpdateRole changes the role of an existing user record.
func (rs *redisUserStorage) UpdateRole(ctx context.Context, id string, role Role) (User, error) {
	user, err := rs.GetOne(ctx, id)
	if err != nil {
		return user, err
	}
	user.Role = role
	userBytes, err := json.Marshal(user)
	if err != nil {
		return user, err
	}
	err = rs.client.HSet(ctx, HUsers, id, userBytes).Err()
	return user, err
}

// Count returns the total number of registered users.
func (rs *redisUserStorage) Count(ctx context.Context) (int, error) {
	n, err := rs.client.HLen(ctx, HUsers).Result()
	return int(n), err
}

type redisSessionStorage struct {
	logger *zap.Logger
	client *redis.Client
}

// NewRedisSessionStorage provides an instance of redis-based session
// storage. Each session is its own key so redis expires it on its own.
func NewRedisSessionStorage(logger *zap.Logger, client *redis.Client) SessionStorage {
	return &redisSessionStorage{
		logger: logger,
		client: client,
	}
}

// Add stores a session record under its token with the given lifetime.
func (rs *redisSessionStorage) Add(ctx context.Context, session Session, ttl time.Duration) error {
	sessionBytes, err := json.Marshal(session)
	if err != nil {
		return err
	}
	return rs.client.Set(ctx, KSessions+session.Token, sessionBytes, ttl).Err()
}

// Get retrieves a live session record based on its token.
func (rs *redisSessionStorage) Get(ctx context.Context, token string) (Session, error) {
	var session Session
	sessionJSONString, err := rs.client.Get(ctx, KSessions+token).Result()
	if err == redis.Nil {
		return session, ErrSessionNotFound
	}
	if err != nil {
		return session, err
	}
	err = json.Unmarshal([]byte(sessionJSONString), &session)
	return session, err
}

// Delete revokes a session record based on its token.
func (rs *redisSessionStorage) Delete(ctx context.Context, token string) error {
	n, err := rs.client.Del(ctx, KSessions+token).Result()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrSessionNotFound
	}
	return nil
}
