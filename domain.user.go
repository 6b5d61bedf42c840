package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

var (
	ErrUserNotFound = errors.New("user not found")
	ErrEmailTaken   = errors.New("email already registered")
)

// Role is the closed set of access levels known to the platform.
// Guest is the implicit role of any request without a valid session.
type Role uint8

const (
	RoleGuest Role = iota
	RoleUser
	RoleAdmin
)

// ParseRole maps a stored role string to its Role value. Anything
// that is not explicitly admin or user resolves to guest.
func ParseRole(s string) Role {
	switch s {
	case "admin":
		return RoleAdmin
	case "user":
		return RoleUser
	default:
		return RoleGuest
	}
}

func (r Role) String() string {
	switch r {
	case RoleAdmin:
		return "admin"
	case RoleUser:
		return "user"
	default:
		return "guest"
	}
}

// IsAuthenticated reports whether the role belongs to a signed-in account.
func (r Role) IsAuthenticated() bool {
	return r == RoleUser || r == RoleAdmin
}

func (r Role) MarshalJSON() ([]byte, error) {
	return json.Marshal(r.String())
}

func (r *Role) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("role: %w", err)
	}
	*r = ParseRole(s)
	return nil
}

// User represents a platform account. The password hash round-trips
// through storage but must never reach a client, so handlers always
// send the Sanitized copy.
type User struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	Image        string    `json:"image"`
	Role         Role      `json:"role"`
	PasswordHash string    `json:"passwordHash,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
}

// Sanitized returns a copy of the user safe to serialize in responses.
func (u User) Sanitized() User {
	u.PasswordHash = ""
	return u
}

// UserStorage defines possible operations on user entity.
type UserStorage interface {
	Add(ctx context.Context, id string, user User) error
	GetOne(ctx context.Context, id string) (User, error)
	GetByEmail(ctx context.Context, email string) (User, error)
	List(ctx context.Context, q ListQuery) ([]User, int, error)
	UpdateRole(ctx context.Context, id string, role Role) (User, error)
	Count(ctx context.Context) (int, error)
}
