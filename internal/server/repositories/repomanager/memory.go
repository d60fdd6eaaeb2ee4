package repomanager

import (
	"context"

	"github.com/dmitrijs2005/erm/internal/dbx"
	"github.com/dmitrijs2005/erm/internal/server/migrations"
	"github.com/dmitrijs2005/erm/internal/server/repositories/projects"
	"github.com/dmitrijs2005/erm/internal/server/repositories/users"
)

// MemoryRepositoryManager shares one in-memory store per entity. The db
// handle passed to the factories is ignored.
type MemoryRepositoryManager struct {
	users    *users.MemoryRepository
	projects *projects.MemoryRepository
	ledger   *migrations.Ledger
}

func NewMemoryRepositoryManager() *MemoryRepositoryManager {
	return &MemoryRepositoryManager{
		users:    users.NewMemoryRepository(),
		projects: projects.NewMemoryRepository(),
		ledger:   migrations.NewLedger(),
	}
}

func (m *MemoryRepositoryManager) Users(dbx.DBTX) users.Repository {
	return m.users
}

func (m *MemoryRepositoryManager) Projects(dbx.DBTX) projects.Repository {
	return m.projects
}

func (m *MemoryRepositoryManager) Conn() dbx.DBTX {
	return nil
}

// ReadSnapshot calls fn directly: each memory FindPage already computes its
// count and slice under a single lock.
func (m *MemoryRepositoryManager) ReadSnapshot(ctx context.Context, fn func(ctx context.Context, tx dbx.DBTX) error) error {
	return fn(ctx, nil)
}

func (m *MemoryRepositoryManager) Migrator(steps []migrations.Step) (migrations.Runner, error) {
	all := append([]migrations.Step{migrations.SchemaStep()}, steps...)
	return migrations.NewMemoryRunnerWithLedger(m.ledger, all), nil
}

func (m *MemoryRepositoryManager) Close() error {
	return nil
}
