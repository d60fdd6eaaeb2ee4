// Package projects is the external project store. Listings are always
// scoped to one owner.
package projects

import (
	"context"

	"github.com/dmitrijs2005/erm/internal/server/models"
)

type Repository interface {
	// Insert assigns ID and timestamps and stores p.
	Insert(ctx context.Context, p *models.ExternalProject) (*models.ExternalProject, error)
	// FindPage returns one page of the owner's projects and their total count.
	FindPage(ctx context.Context, ownerID string, req models.PageRequest) ([]*models.ExternalProject, int64, error)
}
