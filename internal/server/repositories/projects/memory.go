package projects

import (
	"cmp"
	"context"
	"slices"
	"sync"
	"time"

	"github.com/dmitrijs2005/erm/internal/server/models"
	"github.com/google/uuid"
)

// MemoryRepository indexes projects by owner.
type MemoryRepository struct {
	mu      sync.RWMutex
	byOwner map[string][]*models.ExternalProject
	now     func() time.Time
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		byOwner: make(map[string][]*models.ExternalProject),
		now:     func() time.Time { return time.Now().UTC() },
	}
}

func (r *MemoryRepository) Insert(ctx context.Context, p *models.ExternalProject) (*models.ExternalProject, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	stored := *p
	stored.ID = uuid.NewString()
	stored.CreatedAt = r.now()
	stored.UpdatedAt = stored.CreatedAt

	r.byOwner[stored.OwnerID] = append(r.byOwner[stored.OwnerID], &stored)
	out := stored
	return &out, nil
}

// FindPage computes the total and the slice under one read lock.
func (r *MemoryRepository) FindPage(ctx context.Context, ownerID string, req models.PageRequest) ([]*models.ExternalProject, int64, error) {
	if err := ctx.Err(); err != nil {
		return nil, 0, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	owned := slices.Clone(r.byOwner[ownerID])
	slices.SortFunc(owned, compareBy(req.Sort))

	total := int64(len(owned))
	start, end := req.Bounds(len(owned))

	items := make([]*models.ExternalProject, 0, end-start)
	for _, p := range owned[start:end] {
		c := *p
		items = append(items, &c)
	}
	return items, total, nil
}

func compareBy(s models.Sort) func(a, b *models.ExternalProject) int {
	return func(a, b *models.ExternalProject) int {
		var c int
		if s.Field == models.SortByName {
			c = cmp.Compare(a.Name, b.Name)
		} else {
			c = a.CreatedAt.Compare(b.CreatedAt)
		}
		if c == 0 {
			c = cmp.Compare(a.ID, b.ID)
		}
		if s.Desc {
			return -c
		}
		return c
	}
}
