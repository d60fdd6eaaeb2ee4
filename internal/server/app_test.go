package server

import (
	"context"
	"testing"
	"time"

	"github.com/dmitrijs2005/erm/internal/common"
	"github.com/dmitrijs2005/erm/internal/logging"
	"github.com/dmitrijs2005/erm/internal/server/config"
	"github.com/dmitrijs2005/erm/internal/server/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func memoryConfig() *config.Config {
	c := &config.Config{}
	c.LoadDefaults()
	c.StorageDriver = config.StorageMemory
	c.EndpointAddrHTTP = "127.0.0.1:0"
	c.EndpointAddrGRPC = "127.0.0.1:0"
	c.HashAlgorithm = "bcrypt"
	c.BcryptCost = 4
	c.BootstrapPassword = "root-pw"
	c.ShutdownTimeout = time.Second
	return c
}

func TestBootstrap_SeedsAdmin(t *testing.T) {
	ctx := context.Background()
	app, err := NewApp(ctx, memoryConfig(), logging.Nop())
	require.NoError(t, err)

	require.NoError(t, app.Bootstrap(ctx))

	p, err := app.users.Authenticate(ctx, "admin@example.com", "root-pw")
	require.NoError(t, err)
	assert.True(t, p.Roles.Has(models.RoleAdmin))

	// Already applied: nothing pending, no duplicate.
	require.NoError(t, app.Bootstrap(ctx))
}

func TestBootstrap_MissingPassword(t *testing.T) {
	ctx := context.Background()
	c := memoryConfig()
	c.BootstrapPassword = ""
	app, err := NewApp(ctx, c, logging.Nop())
	require.NoError(t, err)

	err = app.Bootstrap(ctx)
	assert.ErrorIs(t, err, common.ErrorValidation)
}

func TestNewApp_UnknownStorage(t *testing.T) {
	c := memoryConfig()
	c.StorageDriver = "redis"

	_, err := NewApp(context.Background(), c, logging.Nop())
	assert.Error(t, err)
}

func TestRun_StopsOnContextCancel(t *testing.T) {
	app, err := NewApp(context.Background(), memoryConfig(), logging.Nop())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- app.Run(ctx) }()

	select {
	case err := <-done:
		t.Fatalf("app exited too early: %v", err)
	case <-time.After(200 * time.Millisecond):
	}

	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("app did not stop within timeout after context cancel")
	}
}

func TestRun_BootstrapFailureStops(t *testing.T) {
	c := memoryConfig()
	c.BootstrapPassword = ""
	app, err := NewApp(context.Background(), c, logging.Nop())
	require.NoError(t, err)

	select {
	case err := <-runAsync(app):
		assert.ErrorIs(t, err, common.ErrorValidation)
	case <-time.After(5 * time.Second):
		t.Fatal("app did not stop after bootstrap failure")
	}
}

func runAsync(app *App) <-chan error {
	done := make(chan error, 1)
	go func() { done <- app.Run(context.Background()) }()
	return done
}
