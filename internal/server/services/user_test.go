package services

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/dmitrijs2005/erm/internal/common"
	"github.com/dmitrijs2005/erm/internal/dbx"
	"github.com/dmitrijs2005/erm/internal/logging"
	"github.com/dmitrijs2005/erm/internal/server/models"
	"github.com/dmitrijs2005/erm/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/erm/internal/server/repositories/users"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func create(t *testing.T, svc *UserService, email string, roles ...models.Role) *models.User {
	t.Helper()
	if len(roles) == 0 {
		roles = []models.Role{models.RoleUser}
	}
	u, err := svc.Create(context.Background(), CreateUserCommand{Email: email, Password: "pw-" + email, Name: "n", Roles: roles})
	require.NoError(t, err)
	return u
}

func TestUserService_CreateHashesPassword(t *testing.T) {
	svc, _, m := newServices(t)
	ctx := context.Background()

	u, err := svc.Create(ctx, CreateUserCommand{Email: "a@x.com", Password: "pw1", Roles: models.Roles{models.RoleUser, models.RoleAdmin, models.RoleUser}})
	require.NoError(t, err)

	stored, err := m.Users(nil).FindByID(ctx, u.ID)
	require.NoError(t, err)
	assert.NotEqual(t, "pw1", stored.PasswordHash)
	assert.True(t, svc.hasher.Verify("pw1", stored.PasswordHash))
	assert.False(t, svc.hasher.Verify("pw2", stored.PasswordHash))
	assert.Equal(t, models.Roles{models.RoleAdmin, models.RoleUser}, stored.Roles)

	other := create(t, svc, "b@x.com")
	otherStored, _ := m.Users(nil).FindByID(ctx, other.ID)
	assert.NotEqual(t, stored.PasswordHash, otherStored.PasswordHash)
}

func TestUserService_CreateValidation(t *testing.T) {
	svc, _, _ := newServices(t)
	ctx := context.Background()

	cases := []CreateUserCommand{
		{Email: "", Password: "pw", Roles: models.Roles{models.RoleUser}},
		{Email: "a@x.com", Password: "  ", Roles: models.Roles{models.RoleUser}},
		{Email: "a@x.com", Password: "pw"},
		{Email: "a@x.com", Password: "pw", Roles: models.Roles{"SUPERUSER"}},
	}
	for _, cmd := range cases {
		_, err := svc.Create(ctx, cmd)
		assert.ErrorIs(t, err, common.ErrorValidation)
	}
}

func TestUserService_CreateDuplicate(t *testing.T) {
	svc, _, _ := newServices(t)
	ctx := context.Background()

	create(t, svc, "a@x.com")
	_, err := svc.Create(ctx, CreateUserCommand{Email: "a@x.com", Password: "other", Roles: models.Roles{models.RoleAdmin}})

	var dup *common.DuplicateEmailError
	require.ErrorAs(t, err, &dup)
	assert.Equal(t, "a@x.com", dup.Email)
	assert.ErrorIs(t, err, common.ErrDuplicateEmail)

	page, err := svc.List(ctx, models.PageRequest{})
	require.NoError(t, err)
	assert.EqualValues(t, 1, page.TotalElements, "no partial record")
}

func TestUserService_ConcurrentCreateSameEmail(t *testing.T) {
	svc, _, _ := newServices(t)
	ctx := context.Background()

	var wg sync.WaitGroup
	var created, dups atomic.Int32
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.Create(ctx, CreateUserCommand{Email: "race@x.com", Password: "pw", Roles: models.Roles{models.RoleUser}})
			switch {
			case err == nil:
				created.Add(1)
			case errors.Is(err, common.ErrDuplicateEmail):
				dups.Add(1)
			}
		}()
	}
	wg.Wait()
	assert.EqualValues(t, 1, created.Load())
	assert.EqualValues(t, 7, dups.Load())
}

func TestUserService_Update(t *testing.T) {
	svc, _, m := newServices(t)
	ctx := context.Background()

	a := create(t, svc, "a@x.com")
	b := create(t, svc, "b@x.com")

	got, err := svc.Update(ctx, UpdateUserCommand{ID: a.ID, Email: "a2@x.com", Password: "new", Name: "Alice", Roles: models.Roles{models.RoleAdmin}})
	require.NoError(t, err)
	assert.Equal(t, "a2@x.com", got.Email)
	assert.Equal(t, models.Roles{models.RoleAdmin}, got.Roles)

	stored, _ := m.Users(nil).FindByID(ctx, a.ID)
	assert.True(t, svc.hasher.Verify("new", stored.PasswordHash), "password re-hashed")

	before, err := m.Users(nil).FindByID(ctx, b.ID)
	require.NoError(t, err)
	_, err = svc.Update(ctx, UpdateUserCommand{ID: b.ID, Email: "a2@x.com", Password: "x", Name: "changed", Roles: models.Roles{models.RoleAdmin}})
	assert.ErrorIs(t, err, common.ErrDuplicateEmail)

	unchanged, err := m.Users(nil).FindByID(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, before, unchanged, "conflicting update leaves every field unchanged")
	assert.Equal(t, "b@x.com", unchanged.Email)
	assert.Equal(t, "n", unchanged.Name)
	assert.Equal(t, models.Roles{models.RoleUser}, unchanged.Roles)
	assert.Equal(t, before.UpdatedAt, unchanged.UpdatedAt)
	assert.True(t, svc.hasher.Verify("pw-b@x.com", unchanged.PasswordHash), "old password still verifies")
	assert.False(t, svc.hasher.Verify("x", unchanged.PasswordHash))

	_, err = svc.Update(ctx, UpdateUserCommand{ID: uuid.NewString(), Email: "c@x.com", Password: "x", Roles: models.Roles{models.RoleUser}})
	var nf *common.UserNotFoundError
	assert.ErrorAs(t, err, &nf)

	_, err = svc.Update(ctx, UpdateUserCommand{ID: "not-a-uuid", Email: "c@x.com", Password: "x", Roles: models.Roles{models.RoleUser}})
	assert.ErrorIs(t, err, common.ErrorNotFound)

	_, err = svc.Update(ctx, UpdateUserCommand{ID: a.ID, Email: "a3@x.com", Password: "x"})
	assert.ErrorIs(t, err, common.ErrorValidation)
}

func TestUserService_ConcurrentUpdatesToSameEmail(t *testing.T) {
	svc, _, _ := newServices(t)
	ctx := context.Background()

	ids := make([]string, 6)
	for i := range ids {
		ids[i] = create(t, svc, uuid.NewString()+"@x.com").ID
	}

	var wg sync.WaitGroup
	var ok atomic.Int32
	for _, id := range ids {
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			_, err := svc.Update(ctx, UpdateUserCommand{ID: id, Email: "target@x.com", Password: "pw", Roles: models.Roles{models.RoleUser}})
			if err == nil {
				ok.Add(1)
			}
		}(id)
	}
	wg.Wait()
	assert.EqualValues(t, 1, ok.Load())

	_, err := svc.FindByEmail(ctx, "target@x.com")
	assert.NoError(t, err)
}

func TestUserService_Find(t *testing.T) {
	svc, _, _ := newServices(t)
	ctx := context.Background()
	a := create(t, svc, "a@x.com")

	got, err := svc.FindByID(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, a.Email, got.Email)

	got, err = svc.FindByEmail(ctx, "a@x.com")
	require.NoError(t, err)
	assert.Equal(t, a.ID, got.ID)

	_, err = svc.FindByID(ctx, uuid.NewString())
	assert.ErrorIs(t, err, common.ErrorNotFound)
	_, err = svc.FindByID(ctx, "42")
	assert.ErrorIs(t, err, common.ErrorNotFound)
	_, err = svc.FindByEmail(ctx, "ghost@x.com")
	assert.ErrorIs(t, err, common.ErrorNotFound)
}

func TestUserService_DeleteIdempotent(t *testing.T) {
	svc, _, _ := newServices(t)
	ctx := context.Background()
	a := create(t, svc, "a@x.com")

	ok, err := svc.Delete(ctx, a.ID)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = svc.Delete(ctx, a.ID)
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = svc.Delete(ctx, "garbage")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestUserService_List(t *testing.T) {
	svc, _, _ := newServices(t)
	ctx := context.Background()
	for i := 0; i < 5; i++ {
		create(t, svc, uuid.NewString()+"@x.com")
	}

	page, err := svc.List(ctx, models.PageRequest{Index: 1, Size: 2})
	require.NoError(t, err)
	assert.Len(t, page.Items, 2)
	assert.EqualValues(t, 5, page.TotalElements)
	assert.Equal(t, 3, page.TotalPages)

	_, err = svc.List(ctx, models.PageRequest{Index: -1})
	assert.ErrorIs(t, err, common.ErrorValidation)
}

func TestUserService_Authenticate(t *testing.T) {
	svc, _, _ := newServices(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, CreateUserCommand{Email: "a@x.com", Password: "pw1", Roles: models.Roles{models.RoleAdmin}})
	require.NoError(t, err)

	p, err := svc.Authenticate(ctx, "a@x.com", "pw1")
	require.NoError(t, err)
	assert.Equal(t, "a@x.com", p.Email)
	assert.True(t, p.Roles.Has(models.RoleAdmin))

	_, err = svc.Authenticate(ctx, "a@x.com", "wrong")
	assert.ErrorIs(t, err, common.ErrorUnauthorized)

	_, err = svc.Authenticate(ctx, "ghost@x.com", "pw1")
	assert.ErrorIs(t, err, common.ErrorUnauthorized)
	assert.NotEmpty(t, svc.dummyHash, "unknown emails still verify against a dummy hash")
}

type failingUsers struct {
	users.Repository
	err error
}

func (f failingUsers) FindByEmail(context.Context, string) (*models.User, error) { return nil, f.err }
func (f failingUsers) Insert(context.Context, *models.User) (*models.User, error) { return nil, f.err }

type failingManager struct {
	repomanager.RepositoryManager
	err error
}

func (f failingManager) Users(dbx.DBTX) users.Repository { return failingUsers{err: f.err} }

func TestUserService_StoreErrorsPropagate(t *testing.T) {
	boom := errors.New("db error: connection refused")
	svc := NewUserService(nil, failingManager{err: boom}, newHasher(t), logging.Nop(), testPages)
	ctx := context.Background()

	_, err := svc.Authenticate(ctx, "a@x.com", "pw")
	assert.ErrorIs(t, err, boom)
	assert.NotErrorIs(t, err, common.ErrorUnauthorized)

	_, err = svc.Create(ctx, CreateUserCommand{Email: "a@x.com", Password: "pw", Roles: models.Roles{models.RoleUser}})
	assert.ErrorIs(t, err, boom)
}
