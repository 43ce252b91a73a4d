// Copyright 2026 The Yardstick Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/yardsticknotes/yardstick/internal/audit"
	"github.com/yardsticknotes/yardstick/internal/config"
	"github.com/yardsticknotes/yardstick/internal/identity"
	"github.com/yardsticknotes/yardstick/internal/note"
	"github.com/yardsticknotes/yardstick/internal/observability/logger"
	"github.com/yardsticknotes/yardstick/internal/observability/metrics"
	"github.com/yardsticknotes/yardstick/internal/observability/tracing"
	"github.com/yardsticknotes/yardstick/internal/session"
	"github.com/yardsticknotes/yardstick/internal/store/memory"
	"github.com/yardsticknotes/yardstick/internal/store/postgres"
	"github.com/yardsticknotes/yardstick/internal/tenant"
	transportHTTP "github.com/yardsticknotes/yardstick/internal/transport/http"
	sdklog "go.opentelemetry.io/otel/sdk/log"
	"golang.org/x/sync/errgroup"
)

// repositories is the storage backend selected by config.
type repositories struct {
	users   identity.UserRepository
	tenants tenant.Repository
	notes   note.Repository
	close   func()
}

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	logCfg := logger.Config{
		Level:       cfg.Observability.LogLevel,
		Format:      cfg.Observability.LogFormat,
		ServiceName: cfg.Observability.ServiceName,
		OTELEnabled: cfg.Observability.OTELEnabled,
	}
	var logProvider *sdklog.LoggerProvider
	if cfg.Observability.OTELEnabled {
		logProvider, err = logger.NewProvider(context.Background(),
			cfg.Observability.ServiceName, cfg.Observability.ServiceVersion)
		if err != nil {
			fmt.Printf("Failed to initialize log export: %v\n", err)
			logCfg.OTELEnabled = false
		} else {
			logCfg.LoggerProvider = logProvider
		}
	}
	logger.InitLogger(logCfg)

	// Phase: CLI Commands
	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "migrate":
			if err := runMigrate(cfg); err != nil {
				fmt.Printf("Migration failed: %v\n", err)
				os.Exit(1)
			}
			os.Exit(0)
		case "hash-password":
			if len(os.Args) != 3 {
				fmt.Println("usage: server hash-password <password>")
				os.Exit(2)
			}
			hash, err := identity.NewPasswordHasher(cfg.Auth.BcryptCost).Hash(os.Args[2])
			if err != nil {
				fmt.Printf("Hashing failed: %v\n", err)
				os.Exit(1)
			}
			fmt.Println(hash)
			os.Exit(0)
		}
	}

	err = run(cfg)
	if err != nil {
		slog.Error("server exited", logger.Error(err))
	} else {
		slog.Info("server stopped")
	}
	if logProvider != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		_ = logProvider.Shutdown(shutdownCtx)
		cancel()
	}
	if err != nil {
		os.Exit(1)
	}
}

func run(cfg *config.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	slog.Info("starting yardstick notes service",
		logger.Driver(cfg.Store.Driver),
		logger.String("environment", cfg.App.Environment),
	)

	// Initialize tracer
	tracer, err := tracing.New(ctx, tracing.Config{
		Enabled:        cfg.Observability.OTELEnabled,
		ServiceName:    cfg.Observability.ServiceName,
		ServiceVersion: cfg.Observability.ServiceVersion,
		SamplingRate:   1.0,
	})
	if err != nil {
		slog.Error("failed to initialize tracer", logger.Error(err))
		tracer = &tracing.Tracer{}
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = tracer.Shutdown(shutdownCtx)
	}()

	// Initialize meter
	meter, err := metrics.New(ctx, metrics.Config{
		Enabled:        cfg.Observability.OTELEnabled,
		ServiceVersion: cfg.Observability.ServiceVersion,
	}, cfg.Observability.ServiceName)
	if err != nil {
		return fmt.Errorf("initialize meter: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = meter.Shutdown(shutdownCtx)
	}()
	domainMetrics, err := metrics.NewDomain(meter)
	if err != nil {
		return fmt.Errorf("initialize metrics: %w", err)
	}

	repos, err := openRepositories(ctx, cfg)
	if err != nil {
		return err
	}
	defer repos.close()

	// Initialize services
	auditLogger := audit.NewSlogLogger()
	identityService := identity.NewService(
		repos.users,
		identity.NewPasswordHasher(cfg.Auth.BcryptCost),
		auditLogger,
		domainMetrics,
	)
	sessionService, err := session.NewService(
		session.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.TokenLifetime),
		repos.users,
		repos.tenants,
		cfg.Auth.CacheTTL,
	)
	if err != nil {
		return fmt.Errorf("initialize session service: %w", err)
	}
	defer sessionService.Close()
	tenantService := tenant.NewService(repos.tenants, auditLogger, domainMetrics)
	noteService := note.NewService(repos.notes, auditLogger, cfg.Plan.FreeNoteLimit,
		note.WithMetrics(domainMetrics),
	)

	// Rate Limiter
	rateLimiter := transportHTTP.NewRateLimiter(
		cfg.RateLimit.RequestsPerSecond,
		cfg.RateLimit.Burst,
		cfg.RateLimit.TrustProxy,
	)
	defer rateLimiter.Stop()

	handler := transportHTTP.NewHandler(
		identityService,
		sessionService,
		tenantService,
		noteService,
		auditLogger,
		cfg.App.IsDevelopment(),
	)

	routerCfg := transportHTTP.RouterConfig{
		CORSOrigin:     cfg.Server.CORSOrigin,
		TracerProvider: tracer.Provider(),
	}
	if cfg.Server.StaticDir != "" {
		routerCfg.StaticFS = staticFS(cfg.Server.StaticDir)
	}
	router := transportHTTP.NewRouter(handler, rateLimiter, routerCfg)

	// Create HTTP server
	addr := fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port)
	server := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		slog.Info("starting http server", logger.Component("server"), logger.Operation("listen"))
		slog.Info(fmt.Sprintf("listening on %s", addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		slog.Info("shutting down server")

		// Graceful shutdown
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

func openRepositories(ctx context.Context, cfg *config.Config) (*repositories, error) {
	switch cfg.Store.Driver {
	case config.DriverPostgres:
		dbCfg := databaseConfig(cfg)
		version, err := postgres.Migrate(ctx, dbCfg)
		if err != nil {
			return nil, fmt.Errorf("migrate database: %w", err)
		}
		db, err := postgres.New(ctx, dbCfg)
		if err != nil {
			return nil, fmt.Errorf("connect to database: %w", err)
		}
		slog.Info("connected to database", logger.String("schema_version", fmt.Sprint(version)))
		return &repositories{
			users:   postgres.NewUserRepository(db),
			tenants: postgres.NewTenantRepository(db),
			notes:   postgres.NewNoteRepository(db),
			close:   db.Close,
		}, nil

	default:
		seed, err := loadSeed(cfg.Store.SeedFile)
		if err != nil {
			return nil, err
		}
		store, err := memory.NewSeeded(seed)
		if err != nil {
			return nil, fmt.Errorf("seed memory store: %w", err)
		}
		slog.Warn("using in-memory store; data is lost on restart")
		return &repositories{
			users:   store,
			tenants: store.Tenants(),
			notes:   store,
			close:   func() {},
		}, nil
	}
}

func loadSeed(path string) (*memory.Seed, error) {
	if path == "" {
		return memory.DefaultSeed()
	}
	seed, err := memory.LoadSeedFile(path)
	if err != nil {
		return nil, fmt.Errorf("load seed file: %w", err)
	}
	return seed, nil
}

func staticFS(dir string) fs.FS {
	if _, err := os.Stat(dir); err != nil {
		slog.Warn("static directory unavailable; serving API only", logger.Error(err))
		return nil
	}
	return os.DirFS(dir)
}

func databaseConfig(cfg *config.Config) postgres.Config {
	return postgres.Config{
		Host:         cfg.Database.Host,
		Port:         cfg.Database.Port,
		User:         cfg.Database.User,
		Password:     cfg.Database.Password,
		Database:     cfg.Database.Database,
		SSLMode:      cfg.Database.SSLMode,
		MaxOpenConns: cfg.Database.MaxOpenConns,
		MaxIdleConns: cfg.Database.MaxIdleConns,
	}
}

func runMigrate(cfg *config.Config) error {
	ctx := context.Background()

	fmt.Println("Applying migrations...")
	version, err := postgres.Migrate(ctx, databaseConfig(cfg))
	if err != nil {
		return err
	}
	fmt.Printf("Migration successful. Schema version %d.\n", version)
	return nil
}
