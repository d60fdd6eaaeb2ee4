package users

import (
	"cmp"
	"context"
	"slices"
	"sync"
	"time"

	"github.com/dmitrijs2005/erm/internal/common"
	"github.com/dmitrijs2005/erm/internal/server/models"
	"github.com/google/uuid"
)

// MemoryRepository keeps users in maps guarded by one mutex. The email index
// plays the role of the unique constraint.
type MemoryRepository struct {
	mu      sync.RWMutex
	byID    map[string]*models.User
	byEmail map[string]string
	now     func() time.Time
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		byID:    make(map[string]*models.User),
		byEmail: make(map[string]string),
		now:     func() time.Time { return time.Now().UTC() },
	}
}

func clone(u *models.User) *models.User {
	c := *u
	c.Roles = append(models.Roles(nil), u.Roles...)
	return &c
}

func (r *MemoryRepository) Insert(ctx context.Context, u *models.User) (*models.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, taken := r.byEmail[u.Email]; taken {
		return nil, common.ErrorUniqueViolation
	}

	stored := clone(u)
	stored.ID = uuid.NewString()
	stored.CreatedAt = r.now()
	stored.UpdatedAt = stored.CreatedAt

	r.byID[stored.ID] = stored
	r.byEmail[stored.Email] = stored.ID
	return clone(stored), nil
}

func (r *MemoryRepository) FindByID(ctx context.Context, id string) (*models.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	u, ok := r.byID[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return clone(u), nil
}

func (r *MemoryRepository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.byEmail[email]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return clone(r.byID[id]), nil
}

func (r *MemoryRepository) UpdateConditional(ctx context.Context, u *models.User) (*models.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	cur, ok := r.byID[u.ID]
	if !ok {
		return nil, common.ErrorNotFound
	}
	if owner, taken := r.byEmail[u.Email]; taken && owner != u.ID {
		return nil, common.ErrorUniqueViolation
	}

	next := clone(u)
	next.CreatedAt = cur.CreatedAt
	next.UpdatedAt = r.now()

	delete(r.byEmail, cur.Email)
	r.byEmail[next.Email] = next.ID
	r.byID[next.ID] = next
	return clone(next), nil
}

func (r *MemoryRepository) Delete(ctx context.Context, id string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.byID[id]
	if !ok {
		return false, nil
	}
	delete(r.byID, id)
	delete(r.byEmail, u.Email)
	return true, nil
}

// FindPage computes the total and the slice under one read lock.
func (r *MemoryRepository) FindPage(ctx context.Context, req models.PageRequest) ([]*models.User, int64, error) {
	if err := ctx.Err(); err != nil {
		return nil, 0, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	all := make([]*models.User, 0, len(r.byID))
	for _, u := range r.byID {
		all = append(all, u)
	}
	slices.SortFunc(all, compareBy(req.Sort))

	total := int64(len(all))
	start, end := req.Bounds(len(all))

	items := make([]*models.User, 0, end-start)
	for _, u := range all[start:end] {
		items = append(items, clone(u))
	}
	return items, total, nil
}

func compareBy(s models.Sort) func(a, b *models.User) int {
	return func(a, b *models.User) int {
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
