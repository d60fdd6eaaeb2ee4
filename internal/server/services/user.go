// Package services contains the user and project managers. They enforce
// hashing, uniqueness and owner scoping; authorization happens before they
// are called.
package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/dmitrijs2005/erm/internal/common"
	"github.com/dmitrijs2005/erm/internal/dbx"
	"github.com/dmitrijs2005/erm/internal/logging"
	"github.com/dmitrijs2005/erm/internal/server/auth"
	"github.com/dmitrijs2005/erm/internal/server/models"
	"github.com/dmitrijs2005/erm/internal/server/repositories/repomanager"
	"github.com/google/uuid"
)

// CreateUserCommand carries the fields of a new user. Password is plaintext.
type CreateUserCommand struct {
	Email    string
	Password string
	Name     string
	Roles    models.Roles
}

// UpdateUserCommand fully replaces a user's email, password, name and roles.
type UpdateUserCommand struct {
	ID       string
	Email    string
	Password string
	Name     string
	Roles    models.Roles
}

type UserService struct {
	db          dbx.DBTX
	repomanager repomanager.RepositoryManager
	hasher      auth.Hasher
	logger      logging.Logger
	pages       models.PageSizeConfig

	dummyOnce sync.Once
	dummyHash string
}

func NewUserService(db dbx.DBTX, m repomanager.RepositoryManager, hasher auth.Hasher, logger logging.Logger, pages models.PageSizeConfig) *UserService {
	return &UserService{
		db:          db,
		repomanager: m,
		hasher:      hasher,
		logger:      logger.With("component", "users"),
		pages:       pages,
	}
}

func validateCredentials(email, password string, roles models.Roles) error {
	if strings.TrimSpace(email) == "" {
		return common.NewValidationError("email", "must not be blank")
	}
	if strings.TrimSpace(password) == "" {
		return common.NewValidationError("password", "must not be blank")
	}
	return roles.Validate()
}

// Create hashes the password and inserts the user. An email already in use
// yields *common.DuplicateEmailError and nothing is written.
func (s *UserService) Create(ctx context.Context, cmd CreateUserCommand) (*models.User, error) {
	if err := validateCredentials(cmd.Email, cmd.Password, cmd.Roles); err != nil {
		return nil, err
	}

	hash, err := s.hasher.Hash(cmd.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	s.logger.Debug(ctx, "creating user", "email", cmd.Email)
	u, err := s.repomanager.Users(s.db).Insert(ctx, &models.User{
		Email:        cmd.Email,
		PasswordHash: hash,
		Name:         cmd.Name,
		Roles:        cmd.Roles.Normalize(),
	})
	if err != nil {
		if errors.Is(err, common.ErrorUniqueViolation) {
			return nil, &common.DuplicateEmailError{Email: cmd.Email}
		}
		return nil, err
	}

	s.logger.Info(ctx, "user created", "user_id", u.ID)
	return u, nil
}

// Update replaces the user in a single conditional write. The password is
// always re-hashed.
func (s *UserService) Update(ctx context.Context, cmd UpdateUserCommand) (*models.User, error) {
	if _, err := uuid.Parse(cmd.ID); err != nil {
		return nil, &common.UserNotFoundError{ID: cmd.ID}
	}
	if err := validateCredentials(cmd.Email, cmd.Password, cmd.Roles); err != nil {
		return nil, err
	}

	hash, err := s.hasher.Hash(cmd.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	s.logger.Debug(ctx, "updating user", "user_id", cmd.ID)
	u, err := s.repomanager.Users(s.db).UpdateConditional(ctx, &models.User{
		ID:           cmd.ID,
		Email:        cmd.Email,
		PasswordHash: hash,
		Name:         cmd.Name,
		Roles:        cmd.Roles.Normalize(),
	})
	switch {
	case errors.Is(err, common.ErrorNotFound):
		return nil, &common.UserNotFoundError{ID: cmd.ID}
	case errors.Is(err, common.ErrorUniqueViolation):
		return nil, &common.DuplicateEmailError{Email: cmd.Email}
	case err != nil:
		return nil, err
	}
	return u, nil
}

func (s *UserService) FindByID(ctx context.Context, id string) (*models.User, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, &common.UserNotFoundError{ID: id}
	}
	u, err := s.repomanager.Users(s.db).FindByID(ctx, id)
	if errors.Is(err, common.ErrorNotFound) {
		return nil, &common.UserNotFoundError{ID: id}
	}
	return u, err
}

func (s *UserService) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	u, err := s.repomanager.Users(s.db).FindByEmail(ctx, email)
	if errors.Is(err, common.ErrorNotFound) {
		return nil, &common.UserNotFoundError{ID: email}
	}
	return u, err
}

// Delete reports whether a user existed and was removed. The user's
// projects are kept.
func (s *UserService) Delete(ctx context.Context, id string) (bool, error) {
	if _, err := uuid.Parse(id); err != nil {
		return false, nil
	}
	ok, err := s.repomanager.Users(s.db).Delete(ctx, id)
	if err != nil {
		return false, err
	}
	if ok {
		s.logger.Info(ctx, "user deleted", "user_id", id)
	}
	return ok, nil
}

// List returns one page of all users. The count and the slice are read from
// one snapshot.
func (s *UserService) List(ctx context.Context, req models.PageRequest) (models.Page[*models.User], error) {
	req, err := req.Normalize(s.pages)
	if err != nil {
		return models.Page[*models.User]{}, err
	}

	var (
		items []*models.User
		total int64
	)
	err = s.repomanager.ReadSnapshot(ctx, func(ctx context.Context, tx dbx.DBTX) error {
		var err error
		items, total, err = s.repomanager.Users(tx).FindPage(ctx, req)
		return err
	})
	if err != nil {
		return models.Page[*models.User]{}, err
	}
	return models.NewPage(items, req, total), nil
}

// Authenticate resolves the principal for an email and password. Unknown
// emails still cost one hash verification.
func (s *UserService) Authenticate(ctx context.Context, email, password string) (*models.Principal, error) {
	u, err := s.repomanager.Users(s.db).FindByEmail(ctx, email)
	if errors.Is(err, common.ErrorNotFound) {
		s.hasher.Verify(password, s.dummy())
		return nil, common.ErrorUnauthorized
	}
	if err != nil {
		return nil, err
	}

	if !s.hasher.Verify(password, u.PasswordHash) {
		return nil, common.ErrorUnauthorized
	}
	if s.hasher.NeedsRehash(u.PasswordHash) {
		s.logger.Info(ctx, "password hash uses outdated parameters", "user_id", u.ID)
	}
	return models.PrincipalOf(u), nil
}

func (s *UserService) dummy() string {
	s.dummyOnce.Do(func() {
		h, err := s.hasher.Hash(uuid.NewString())
		if err == nil {
			s.dummyHash = h
		}
	})
	return s.dummyHash
}
