package model

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// UserStore defines persistence operations for users, including the atomic
// credit primitives. The credits column is mutated only through
// DebitIfSufficient and Credit, never by a plain field overwrite, so
// concurrent decrements cannot be lost.
type UserStore interface {
	Create(ctx context.Context, user User) (User, error)
	GetByID(ctx context.Context, id uuid.UUID) (User, error)
	GetByEmail(ctx context.Context, email string) (User, error)
	// DebitIfSufficient decrements credits by amount only if the current
	// balance covers it, returning the post-decrement balance. The
	// decrement-if-sufficient must execute as one conditional write.
	DebitIfSufficient(ctx context.Context, id uuid.UUID, amount int) (int, error)
	// Credit unconditionally increments credits by amount and returns the
	// new balance. Used for top-ups and compensating refunds.
	Credit(ctx context.Context, id uuid.UUID, amount int) (int, error)
}

// UserRole enumerates user roles. Role checks belong to the calling layer;
// the core only stores the value.
type UserRole string

const (
	RoleSuperAdmin UserRole = "super_admin"
	RoleAdmin      UserRole = "admin"
	RoleUser       UserRole = "user"
)

// User represents an account holding the credit balance.
type User struct {
	ID        uuid.UUID
	Email     string
	FullName  string
	Role      UserRole
	Credits   int
	IsActive  bool
	CreatedAt time.Time
	UpdatedAt time.Time
}
