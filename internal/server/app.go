// Package server wires storage, bootstrap steps, services and the HTTP and
// gRPC health servers, and runs them until a signal arrives.
package server

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/dmitrijs2005/erm/internal/logging"
	"github.com/dmitrijs2005/erm/internal/server/auth"
	"github.com/dmitrijs2005/erm/internal/server/config"
	"github.com/dmitrijs2005/erm/internal/server/httpapi"
	"github.com/dmitrijs2005/erm/internal/server/migrations"
	"github.com/dmitrijs2005/erm/internal/server/models"
	"github.com/dmitrijs2005/erm/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/erm/internal/server/services"

	gs "github.com/dmitrijs2005/erm/internal/server/grpc"
)

type App struct {
	config   *config.Config
	logger   logging.Logger
	repos    repomanager.RepositoryManager
	hasher   auth.Hasher
	users    *services.UserService
	projects *services.ProjectService
}

// OpenStorage returns the repository manager selected by StorageDriver.
func OpenStorage(ctx context.Context, c *config.Config) (repomanager.RepositoryManager, error) {
	switch c.StorageDriver {
	case config.StorageMemory:
		return repomanager.NewMemoryRepositoryManager(), nil
	case config.StoragePostgres:
		db, err := repomanager.OpenPostgres(ctx, c.DatabaseDSN, repomanager.PoolConfig{
			MaxOpenConns:    c.DBMaxOpenConns,
			MaxIdleConns:    c.DBMaxIdleConns,
			ConnMaxLifetime: c.DBConnMaxLifetime,
		})
		if err != nil {
			return nil, fmt.Errorf("db init error: %w", err)
		}
		return repomanager.NewPostgresRepositoryManager(db), nil
	default:
		return nil, fmt.Errorf("unknown storage driver %q", c.StorageDriver)
	}
}

func NewHasher(c *config.Config) (*auth.PasswordHasher, error) {
	return auth.NewPasswordHasher(auth.HasherConfig{Algorithm: c.HashAlgorithm, BcryptCost: c.BcryptCost})
}

// NewMigrator returns the runner for the schema and the admin seed.
func NewMigrator(c *config.Config, repos repomanager.RepositoryManager, hasher auth.Hasher) (migrations.Runner, error) {
	seed := migrations.SeedAdminStep(repos.Users, hasher, migrations.SeedAdminConfig{
		Email:    c.BootstrapEmail,
		Password: c.BootstrapPassword,
	})
	return repos.Migrator([]migrations.Step{seed})
}

func NewApp(ctx context.Context, c *config.Config, logger logging.Logger) (*App, error) {
	hasher, err := NewHasher(c)
	if err != nil {
		return nil, err
	}

	repos, err := OpenStorage(ctx, c)
	if err != nil {
		return nil, err
	}

	pages := models.PageSizeConfig{Default: c.DefaultPageSize, Max: c.MaxPageSize}
	return &App{
		config:   c,
		logger:   logger,
		repos:    repos,
		hasher:   hasher,
		users:    services.NewUserService(repos.Conn(), repos, hasher, logger, pages),
		projects: services.NewProjectService(repos.Conn(), repos, logger, pages),
	}, nil
}

// Bootstrap applies every pending bootstrap step.
func (app *App) Bootstrap(ctx context.Context) error {
	runner, err := NewMigrator(app.config, app.repos, app.hasher)
	if err != nil {
		return err
	}

	results, err := runner.Up(ctx)
	for _, r := range results {
		app.logger.Info(ctx, "bootstrap step applied",
			"version", r.Version, "description", r.Description, "duration", r.Duration)
	}
	if err != nil {
		return fmt.Errorf("bootstrap: %w", err)
	}
	return nil
}

func (app *App) initSignalHandler(ctx context.Context, cancelFunc context.CancelFunc) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		defer signal.Stop(sigs)
		select {
		case s := <-sigs:
			app.logger.Info(ctx, "Received signal", "signal", s.String())
			cancelFunc()
		case <-ctx.Done():
		}
	}()
}

// Run starts the health server, applies the bootstrap steps, then serves the
// HTTP API until ctx is cancelled or a server fails.
func (app *App) Run(ctx context.Context) error {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...", "storage", app.config.StorageDriver)
	app.initSignalHandler(ctx, cancelFunc)

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		errs []error
	)
	fail := func(err error) {
		app.logger.Error(ctx, err.Error())
		mu.Lock()
		errs = append(errs, err)
		mu.Unlock()
		cancelFunc()
	}

	health := gs.NewGRPCServer(app.config.EndpointAddrGRPC, app.logger)
	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := health.Run(ctx); err != nil {
			fail(fmt.Errorf("grpc server: %w", err))
		}
	}()

	if err := app.Bootstrap(ctx); err != nil {
		fail(err)
	} else if ctx.Err() == nil {
		health.SetServing(true)

		handler := httpapi.NewHandler(app.users, app.projects, app.logger, app.config.RequestTimeout)
		router := httpapi.NewRouter(handler, httpapi.BasicAuth(app.users, app.logger, app.config.RequestTimeout))
		srv := httpapi.NewServer(app.config.EndpointAddrHTTP, router.Handler, app.logger, app.config.ShutdownTimeout)

		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := srv.Run(ctx); err != nil {
				fail(fmt.Errorf("http server: %w", err))
			}
		}()
	}

	<-ctx.Done()
	health.SetServing(false)
	wg.Wait()

	if err := app.repos.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close storage: %w", err))
	}
	app.logger.Info(context.Background(), "App stopped")
	return errors.Join(errs...)
}
