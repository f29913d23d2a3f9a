// @title        Employee Directory API
// @version      1.0
// @description  Employee records, filtered listings and the manager hierarchy.
// @BasePath     /
//
// @securityDefinitions.apikey  BearerAuth
// @in                          header
// @name                        Authorization
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/workforce/employee-directory/internal/api"
	"github.com/workforce/employee-directory/internal/api/handler"
	"github.com/workforce/employee-directory/internal/core/ports"
	"github.com/workforce/employee-directory/internal/core/service"
	"github.com/workforce/employee-directory/internal/infrastructure/db/mongo"
	"github.com/workforce/employee-directory/internal/infrastructure/db/postgres"
	"github.com/workforce/employee-directory/internal/infrastructure/db/redis"
	"github.com/workforce/employee-directory/internal/pkg/config"
	"github.com/workforce/employee-directory/pkg/logger"
)

const serviceName = "employee-directory"

func main() {
	cfg := config.Load()
	logger.Init(logger.Options{
		Level:   cfg.LogLevel,
		Pretty:  cfg.IsDevelopment(),
		Service: serviceName,
	})

	if err := run(cfg); err != nil {
		logger.Get().Error().Err(err).Msg("server stopped with error")
		os.Exit(1)
	}
}

func run(cfg *config.Config) error {
	log := logger.Get()
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	st, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer st.close()
	log.Info().Str("backend", cfg.StoreBackend).Msg("store ready")

	secrets, err := service.NewSecretMatcher(cfg.PasswordMode)
	if err != nil {
		return err
	}
	svc := service.NewDirectoryService(st.repo, secrets, nil, log)

	if cfg.AdminJWTSecret == "" {
		log.Warn().Msg("ADMIN_JWT_SECRET not set: DELETE /employees is unauthenticated")
	}

	e := api.NewRouter(api.Deps{
		Service:     svc,
		Logger:      log,
		AdminSecret: cfg.AdminJWTSecret,
		Health:      st.health,
	})

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("port", cfg.Port).Msg("listening")
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	return e.Shutdown(shutdownCtx)
}

// store bundles the selected repository with its readiness check and the
// cleanup for its connection.
type store struct {
	repo   ports.EmployeeRepository
	health map[string]handler.Pinger
	close  func()
}

func openStore(ctx context.Context, cfg *config.Config) (*store, error) {
	switch cfg.StoreBackend {
	case config.BackendPostgres:
		pool, err := postgres.NewPool(ctx, postgres.Config{
			DSN:      cfg.Postgres.DSN,
			MaxConns: cfg.Postgres.MaxConns,
		})
		if err != nil {
			return nil, err
		}
		if err := postgres.EnsureSchema(ctx, pool); err != nil {
			pool.Close()
			return nil, err
		}
		return &store{
			repo:   postgres.NewEmployeeRepository(pool),
			health: map[string]handler.Pinger{"postgres": handler.PingFunc(pool.Ping)},
			close:  pool.Close,
		}, nil

	case config.BackendRedis:
		client, err := redis.Connect(ctx, redis.Config{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err != nil {
			return nil, err
		}
		repo := redis.NewEmployeeRepository(client)
		return &store{
			repo:   repo,
			health: map[string]handler.Pinger{"redis": repo},
			close:  func() { _ = client.Close() },
		}, nil

	case config.BackendMongo:
		client, db, err := mongo.Connect(ctx, mongo.Config{
			URI:      cfg.Mongo.URI,
			Database: cfg.Mongo.Database,
		})
		if err != nil {
			return nil, err
		}
		repo := mongo.NewEmployeeRepository(db)
		if err := repo.EnsureIndexes(ctx); err != nil {
			_ = client.Disconnect(context.Background())
			return nil, err
		}
		return &store{
			repo:   repo,
			health: map[string]handler.Pinger{"mongodb": repo},
			close:  func() { _ = client.Disconnect(context.Background()) },
		}, nil
	}
	return nil, fmt.Errorf("unsupported store backend %q", cfg.StoreBackend)
}
