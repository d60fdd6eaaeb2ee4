// Package repomanager vends the repositories of one storage backend and the
// runner for its bootstrap steps.
package repomanager

import (
	"context"

	"github.com/dmitrijs2005/erm/internal/dbx"
	"github.com/dmitrijs2005/erm/internal/server/migrations"
	"github.com/dmitrijs2005/erm/internal/server/repositories/projects"
	"github.com/dmitrijs2005/erm/internal/server/repositories/users"
)

type RepositoryManager interface {
	Users(db dbx.DBTX) users.Repository
	Projects(db dbx.DBTX) projects.Repository

	// Conn is the default handle passed to the factories outside a
	// transaction.
	Conn() dbx.DBTX

	// ReadSnapshot runs fn so that every read it makes through tx observes
	// the same snapshot.
	ReadSnapshot(ctx context.Context, fn func(ctx context.Context, tx dbx.DBTX) error) error

	// Migrator returns a runner for the schema plus the given Go steps.
	Migrator(steps []migrations.Step) (migrations.Runner, error)

	Close() error
}
