package main

import (
	"context"
	"errors"
	"time"
)

var ErrSessionNotFound = errors.New("session not found")

// Session is the server side record of a signed-in account. The token
// is opaque (`s:<uuid>`) and revocable, which lets sign-out invalidate
// it immediately.
type Session struct {
	Token     string    `json:"token"`
	UserID    string    `json:"userId"`
	CreatedAt time.Time `json:"createdAt"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// SessionStorage defines possible operations on session entity.
type SessionStorage interface {
	Add(ctx context.Context, session Session, ttl time.Duration) error
	Get(ctx context.Context, token string) (Session, error)
	Delete(ctx context.Context, token string) error
}
