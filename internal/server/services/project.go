package services

import (
	"context"
	"strings"

	"github.com/dmitrijs2005/erm/internal/common"
	"github.com/dmitrijs2005/erm/internal/dbx"
	"github.com/dmitrijs2005/erm/internal/logging"
	"github.com/dmitrijs2005/erm/internal/server/models"
	"github.com/dmitrijs2005/erm/internal/server/repositories/repomanager"
	"github.com/google/uuid"
)

// ProjectService creates and lists external projects of one owner. It does
// not check that the owner exists.
type ProjectService struct {
	db          dbx.DBTX
	repomanager repomanager.RepositoryManager
	logger      logging.Logger
	pages       models.PageSizeConfig
}

func NewProjectService(db dbx.DBTX, m repomanager.RepositoryManager, logger logging.Logger, pages models.PageSizeConfig) *ProjectService {
	return &ProjectService{
		db:          db,
		repomanager: m,
		logger:      logger.With("component", "projects"),
		pages:       pages,
	}
}

func validateOwner(ownerID string) error {
	if _, err := uuid.Parse(ownerID); err != nil {
		return common.NewValidationError("userId", "must be a UUID")
	}
	return nil
}

func (s *ProjectService) Create(ctx context.Context, ownerID, name string) (*models.ExternalProject, error) {
	if err := validateOwner(ownerID); err != nil {
		return nil, err
	}
	if strings.TrimSpace(name) == "" {
		return nil, common.NewValidationError("name", "must not be blank")
	}

	p, err := s.repomanager.Projects(s.db).Insert(ctx, &models.ExternalProject{OwnerID: ownerID, Name: name})
	if err != nil {
		return nil, err
	}
	s.logger.Debug(ctx, "project created", "project_id", p.ID, "user_id", ownerID)
	return p, nil
}

// List returns one page of the owner's projects. The count and the slice are
// read from one snapshot.
func (s *ProjectService) List(ctx context.Context, ownerID string, req models.PageRequest) (models.Page[*models.ExternalProject], error) {
	if err := validateOwner(ownerID); err != nil {
		return models.Page[*models.ExternalProject]{}, err
	}
	req, err := req.Normalize(s.pages)
	if err != nil {
		return models.Page[*models.ExternalProject]{}, err
	}

	var (
		items []*models.ExternalProject
		total int64
	)
	err = s.repomanager.ReadSnapshot(ctx, func(ctx context.Context, tx dbx.DBTX) error {
		var err error
		items, total, err = s.repomanager.Projects(tx).FindPage(ctx, ownerID, req)
		return err
	})
	if err != nil {
		return models.Page[*models.ExternalProject]{}, err
	}
	return models.NewPage(items, req, total), nil
}
