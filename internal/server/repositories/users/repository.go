// Package users is the user store. Email uniqueness is enforced by the
// store itself and surfaces as common.ErrorUniqueViolation.
package users

import (
	"context"

	"github.com/dmitrijs2005/erm/internal/server/models"
)

type Repository interface {
	// Insert assigns ID and timestamps and stores u.
	Insert(ctx context.Context, u *models.User) (*models.User, error)
	FindByID(ctx context.Context, id string) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	// UpdateConditional replaces email, password hash, name and roles of the
	// user with u.ID in one write.
	UpdateConditional(ctx context.Context, u *models.User) (*models.User, error)
	// Delete reports whether a user was removed.
	Delete(ctx context.Context, id string) (bool, error)
	// FindPage returns one page of users and the total count.
	FindPage(ctx context.Context, req models.PageRequest) ([]*models.User, int64, error)
}
