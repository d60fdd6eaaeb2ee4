package migrations

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"path"
	"strings"

	"github.com/pressly/goose/v3"
)

type gooseProvider interface {
	Up(ctx context.Context) ([]*goose.MigrationResult, error)
	Down(ctx context.Context) (*goose.MigrationResult, error)
	Status(ctx context.Context) ([]*goose.MigrationStatus, error)
}

// newGooseProvider is a seam for tests.
var newGooseProvider = func(db *sql.DB, fsys fs.FS, gm []*goose.Migration) (gooseProvider, error) {
	return goose.NewProvider(goose.DialectPostgres, db, fsys,
		goose.WithGoMigrations(gm...),
		goose.WithDisableGlobalRegistry(true),
	)
}

// GooseRunner applies the embedded SQL files and the Go steps with goose.
// Each Go step runs in its own transaction.
type GooseRunner struct {
	provider gooseProvider
	names    map[int64]string
}

func NewGooseRunner(db *sql.DB, steps []Step) (*GooseRunner, error) {
	names := make(map[int64]string, len(steps))
	gm := make([]*goose.Migration, 0, len(steps))
	for _, s := range steps {
		names[s.Version] = s.Description
		gm = append(gm, goose.NewGoMigration(s.Version, txFunc(s.Up), txFunc(s.Down)))
	}

	p, err := newGooseProvider(db, Migrations, gm)
	if err != nil {
		return nil, fmt.Errorf("goose provider: %w", err)
	}
	return &GooseRunner{provider: p, names: names}, nil
}

func txFunc(fn StepFunc) *goose.GoFunc {
	if fn == nil {
		return nil
	}
	return &goose.GoFunc{
		RunTx: func(ctx context.Context, tx *sql.Tx) error { return fn(ctx, tx) },
		Mode:  goose.TransactionEnabled,
	}
}

func (r *GooseRunner) Up(ctx context.Context) ([]Result, error) {
	res, err := r.provider.Up(ctx)
	out := make([]Result, 0, len(res))
	for _, mr := range res {
		out = append(out, r.result(mr))
	}
	return out, err
}

func (r *GooseRunner) Down(ctx context.Context) (*Result, error) {
	mr, err := r.provider.Down(ctx)
	if errors.Is(err, goose.ErrNoNextVersion) {
		return nil, ErrNothingApplied
	}
	if err != nil {
		return nil, err
	}
	res := r.result(mr)
	return &res, nil
}

func (r *GooseRunner) Status(ctx context.Context) ([]Status, error) {
	st, err := r.provider.Status(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]Status, 0, len(st))
	for _, s := range st {
		out = append(out, Status{
			Version:     s.Source.Version,
			Description: r.describe(s.Source),
			Applied:     s.State == goose.StateApplied,
			AppliedAt:   s.AppliedAt,
		})
	}
	return out, nil
}

func (r *GooseRunner) result(mr *goose.MigrationResult) Result {
	return Result{
		Version:     mr.Source.Version,
		Description: r.describe(mr.Source),
		Direction:   mr.Direction,
		Duration:    mr.Duration,
	}
}

func (r *GooseRunner) describe(src *goose.Source) string {
	if name, ok := r.names[src.Version]; ok {
		return name
	}
	base := strings.TrimSuffix(path.Base(src.Path), path.Ext(src.Path))
	if _, rest, ok := strings.Cut(base, "_"); ok {
		return rest
	}
	return base
}
