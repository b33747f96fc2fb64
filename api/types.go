package api

import (
	"context"

	"github.com/labstack/echo/v4"

	"taskboard-api/domain"
)

// Storage abstracts persistence for handlers.
type Storage interface {
	UpsertUser(ctx context.Context, email, name string) (domain.User, error)
	ListUsers(ctx context.Context) ([]domain.User, error)
	CreateTask(ctx context.Context, owner string, t domain.Task) (string, error)
	ListTasks(ctx context.Context) ([]domain.Task, error)
	ListTasksByOwner(ctx context.Context, email string) ([]domain.Task, error)
	GetTask(ctx context.Context, id string) (domain.Task, error)
	UpdateTask(ctx context.Context, owner, id string, u domain.TaskUpdate) error
	DeleteTask(ctx context.Context, owner, id string) error
	ReorderTasks(ctx context.Context, owner string, placements []domain.Placement) error
}

// Identity is the verified subject attached to authenticated requests.
type Identity struct {
	Email string
}

// Authenticator issues and verifies the board credential and manages its
// cookie lifecycle.
type Authenticator interface {
	Issue(email string) (string, error)
	Verify(token string) (Identity, error)
	SetCookie(c echo.Context, token string)
	ClearCookie(c echo.Context)
}

// Locker serializes bulk reorders per board owner so two concurrent drag
// operations cannot interleave.
type Locker interface {
	// Acquire takes the owner's board lock, returning false when another
	// reorder already holds it.
	Acquire(ctx context.Context, owner string) (bool, error)
	// Release frees a previously acquired lock.
	Release(ctx context.Context, owner string) error
}
