package migrations

import (
	"context"
	"database/sql"
	"errors"
	"io/fs"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/erm/internal/dbx"
	"github.com/pressly/goose/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeProvider struct {
	up     []*goose.MigrationResult
	upErr  error
	down   *goose.MigrationResult
	status []*goose.MigrationStatus
}

func (f *fakeProvider) Up(context.Context) ([]*goose.MigrationResult, error) { return f.up, f.upErr }
func (f *fakeProvider) Down(context.Context) (*goose.MigrationResult, error) {
	if f.down == nil {
		return nil, goose.ErrNoNextVersion
	}
	return f.down, nil
}
func (f *fakeProvider) Status(context.Context) ([]*goose.MigrationStatus, error) { return f.status, nil }

func stubProvider(t *testing.T, fake *fakeProvider, captured *[]*goose.Migration) {
	t.Helper()
	orig := newGooseProvider
	newGooseProvider = func(db *sql.DB, fsys fs.FS, gm []*goose.Migration) (gooseProvider, error) {
		*captured = gm
		return fake, nil
	}
	t.Cleanup(func() { newGooseProvider = orig })
}

func TestNewGooseRunner_RegistersGoSteps(t *testing.T) {
	db, _, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	var gm []*goose.Migration
	stubProvider(t, &fakeProvider{}, &gm)

	step := Step{
		Version:     VersionSeedAdmin,
		Description: "seed_admin",
		Up:          func(context.Context, dbx.DBTX) error { return nil },
		Down:        func(context.Context, dbx.DBTX) error { return nil },
	}
	_, err = NewGooseRunner(db, []Step{step})
	require.NoError(t, err)

	require.Len(t, gm, 1)
	assert.Equal(t, VersionSeedAdmin, gm[0].Version)
	require.NotNil(t, gm[0].UpFnContext)
	assert.True(t, gm[0].UseTx)
	require.NotNil(t, gm[0].DownFnContext)
}

func TestGooseRunner_MapsResults(t *testing.T) {
	db, _, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	sqlSrc := &goose.Source{Type: goose.TypeSQL, Path: "00001_create_users_and_projects.sql", Version: 1}
	goSrc := &goose.Source{Type: goose.TypeGo, Version: 2}
	at := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	fake := &fakeProvider{
		up: []*goose.MigrationResult{
			{Source: sqlSrc, Direction: "up", Duration: time.Millisecond},
			{Source: goSrc, Direction: "up"},
		},
		down: &goose.MigrationResult{Source: goSrc, Direction: "down"},
		status: []*goose.MigrationStatus{
			{Source: sqlSrc, State: goose.StateApplied, AppliedAt: at},
			{Source: goSrc, State: goose.StatePending},
		},
	}
	var gm []*goose.Migration
	stubProvider(t, fake, &gm)

	r, err := NewGooseRunner(db, []Step{{Version: 2, Description: "seed_admin"}})
	require.NoError(t, err)
	ctx := context.Background()

	res, err := r.Up(ctx)
	require.NoError(t, err)
	assert.Equal(t, []Result{
		{Version: 1, Description: "create_users_and_projects", Direction: "up", Duration: time.Millisecond},
		{Version: 2, Description: "seed_admin", Direction: "up"},
	}, res)

	down, err := r.Down(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), down.Version)

	st, err := r.Status(ctx)
	require.NoError(t, err)
	assert.Equal(t, []Status{
		{Version: 1, Description: "create_users_and_projects", Applied: true, AppliedAt: at},
		{Version: 2, Description: "seed_admin"},
	}, st)
}

func TestGooseRunner_UpErrorKeepsPartialResults(t *testing.T) {
	db, _, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	boom := errors.New("seed failed")
	fake := &fakeProvider{
		up:    []*goose.MigrationResult{{Source: &goose.Source{Version: 1, Path: "00001_x.sql"}, Direction: "up"}},
		upErr: boom,
	}
	var gm []*goose.Migration
	stubProvider(t, fake, &gm)

	r, err := NewGooseRunner(db, nil)
	require.NoError(t, err)

	res, err := r.Up(context.Background())
	assert.ErrorIs(t, err, boom)
	assert.Len(t, res, 1)

	fake.down = nil
	_, err = r.Down(context.Background())
	assert.ErrorIs(t, err, ErrNothingApplied)
}
