package migrations

import (
	"context"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/erm/internal/common"
	"github.com/dmitrijs2005/erm/internal/dbx"
	"github.com/dmitrijs2005/erm/internal/server/auth"
	"github.com/dmitrijs2005/erm/internal/server/models"
	"github.com/dmitrijs2005/erm/internal/server/repositories/users"
)

// Versions of the bootstrap steps. SQL files and Go steps share one
// sequence.
const (
	VersionSchema    int64 = 1
	VersionSeedAdmin int64 = 2
)

// StepFunc runs one direction of a step. db is the transaction the step
// runs in, or nil for stores without transactions.
type StepFunc func(ctx context.Context, db dbx.DBTX) error

// Step is a versioned initialization step with a compensating action.
type Step struct {
	Version     int64
	Description string
	Up          StepFunc
	Down        StepFunc
}

// UsersFactory binds a user repository to a connection or transaction.
type UsersFactory func(db dbx.DBTX) users.Repository

// SeedAdminConfig is the account created by the seed step.
type SeedAdminConfig struct {
	Email    string
	Password string
}

const seedAdminName = "admin"

// SeedAdminStep creates the first administrator. Running it again without a
// rollback fails with a *common.DuplicateEmailError.
func SeedAdminStep(usersFor UsersFactory, hasher auth.Hasher, cfg SeedAdminConfig) Step {
	return Step{
		Version:     VersionSeedAdmin,
		Description: "seed_admin",
		Up: func(ctx context.Context, db dbx.DBTX) error {
			if cfg.Email == "" || cfg.Password == "" {
				return common.NewValidationError("bootstrap", "email and password are required")
			}
			hash, err := hasher.Hash(cfg.Password)
			if err != nil {
				return fmt.Errorf("hash bootstrap password: %w", err)
			}
			_, err = usersFor(db).Insert(ctx, &models.User{
				Email:        cfg.Email,
				PasswordHash: hash,
				Name:         seedAdminName,
				Roles:        models.Roles{models.RoleAdmin},
			})
			if errors.Is(err, common.ErrorUniqueViolation) {
				return &common.DuplicateEmailError{Email: cfg.Email}
			}
			return err
		},
		Down: func(ctx context.Context, db dbx.DBTX) error {
			repo := usersFor(db)
			u, err := repo.FindByEmail(ctx, cfg.Email)
			if errors.Is(err, common.ErrorNotFound) {
				return nil
			}
			if err != nil {
				return err
			}
			_, err = repo.Delete(ctx, u.ID)
			return err
		},
	}
}

// SchemaStep stands in for the SQL schema file on stores that have no
// schema.
func SchemaStep() Step {
	return Step{Version: VersionSchema, Description: "create_users_and_projects"}
}
