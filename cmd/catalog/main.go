package main

import (
	"context"
	"io"
	"os/signal"
	"syscall"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"

	"Storefront/config"
	"Storefront/internal/auth"
	"Storefront/internal/catalog"
	"Storefront/pkg/kit"
)

const service = "catalog"

func main() {
	_ = godotenv.Load()
	cfg := config.LoadEnv()

	log, err := kit.NewLogger(service, kit.LogConfig{
		Development:       cfg.IsDevelopment(),
		Level:             cfg.Logger.Level,
		Encoding:          cfg.Logger.Encoding,
		DisableCaller:     cfg.Logger.DisableCaller,
		DisableStacktrace: cfg.Logger.DisableStacktrace,
	})
	if err != nil {
		panic(err)
	}

	if err := run(cfg, log); err != nil {
		log.Fatal("catalog stopped", zap.Error(err))
	}
	log.Info("server stopped")
	_ = log.Sync()
}

// run owns every resource it opens, so returning closes them before main exits.
func run(cfg *config.Config, log *zap.Logger) error {
	if err := cfg.Validate(); err != nil {
		return errors.Wrap(err, "invalid config")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	slots, closer, err := openSlots(ctx, cfg)
	if err != nil {
		return errors.Wrapf(err, "open %s snapshot store", cfg.Catalog.Backend)
	}
	defer func() {
		if err := closer.Close(); err != nil {
			log.Warn("close snapshot store", zap.Error(err))
		}
	}()

	seed, err := catalog.LoadSeed(cfg.Catalog.SeedPath)
	if err != nil {
		return errors.Wrap(err, "load seed")
	}

	newID, err := catalog.NewSnowflakeIDs(int64(cfg.Catalog.NodeID))
	if err != nil {
		return errors.Wrap(err, "id generator")
	}

	store := catalog.New(catalog.Options{
		Slots:        slots,
		SnapshotKey:  cfg.Catalog.SnapshotKey,
		Seed:         seed,
		ResetOnStart: cfg.Catalog.ResetOnStart,
		NewID:        newID,
		Log:          log.Named("store"),
	})

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	s := &catalog.Server{Catalog: store, Log: log}
	deps := catalog.HTTPDeps{
		Log:            log,
		Service:        service,
		Registry:       reg,
		MetricsEnabled: cfg.Metrics.Enabled,
		MetricsToken:   cfg.Metrics.Token,
	}

	if cfg.AdminEnabled() {
		jwt := auth.NewTokenMaker(cfg.Auth.JWTSecret)
		users := auth.NewMemStore()
		if err := users.Create(ctx, cfg.Auth.AdminEmail, cfg.Auth.AdminPassword, auth.RoleAdmin, "u_"+uuid.NewString()); err != nil {
			return errors.Wrap(err, "seed admin")
		}

		s.RequireAdmin = auth.RequireRole(jwt, auth.RoleAdmin)
		deps.Auth = (&auth.Server{
			Log:        log.Named("auth"),
			Store:      users,
			JWT:        jwt,
			TokenTTL:   cfg.Auth.TokenTTL,
			LoginLimit: cfg.Auth.LoginLimit,
		}).Routes()
	} else {
		log.Warn("no admin configured, catalog is read-only")
	}

	h := catalog.NewHandler(s, deps)
	store.Initialize(ctx)

	return kit.RunHTTPServer(ctx, ":"+cfg.Server.Port, h, log, kit.ServerConfig{
		ReadHeaderTimeout: cfg.Server.ReadHeaderTimeout,
		ShutdownTimeout:   cfg.Server.ShutdownTimeout,
	})
}

func openSlots(ctx context.Context, cfg *config.Config) (catalog.SlotStore, io.Closer, error) {
	switch cfg.Catalog.Backend {
	case config.BackendBolt:
		s, err := catalog.OpenBoltSlots(cfg.Catalog.BoltPath)
		if err != nil {
			return nil, nil, err
		}
		return s, s, nil

	case config.BackendPostgres:
		s, err := catalog.OpenPostgresSlots(ctx, cfg.Postgres.DSN())
		if err != nil {
			return nil, nil, err
		}
		s.SetPool(cfg.Postgres.MaxOpenConns, cfg.Postgres.MaxIdleConns, cfg.Postgres.ConnMaxLifetime)
		if err := s.EnsureSchema(ctx); err != nil {
			_ = s.Close()
			return nil, nil, err
		}
		return s, s, nil

	default:
		return catalog.NewMemSlots(), nopCloser{}, nil
	}
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
