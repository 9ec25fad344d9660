// Package backend selects and opens the storage backend at startup.
package backend

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/dukerupert/campusshop/internal"
	"github.com/dukerupert/campusshop/internal/bootstrap"
	"github.com/dukerupert/campusshop/internal/firestore"
	"github.com/dukerupert/campusshop/internal/memory"
	"github.com/dukerupert/campusshop/internal/postgres"
	"github.com/dukerupert/campusshop/internal/repository"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Backend is the set of repositories the application runs on. Kind reports
// the store actually in use, which is memory after a failed probe.
type Backend struct {
	Kind      string
	Orders    repository.OrderRepository
	Products  repository.ProductRepository
	Users     repository.UserRepository
	CartSlots repository.CartSlotRepository

	closers []func() error
}

// Close releases connections held by the backend.
func (b *Backend) Close() error {
	var errs []error
	for _, c := range b.closers {
		if err := c(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Fallback reports whether a live backend was requested but memory is in use.
func (b *Backend) Fallback(requested string) bool {
	return requested != internal.BackendMemory && b.Kind == internal.BackendMemory
}

// probeFunc checks that a live store answers.
type probeFunc func(ctx context.Context) error

// Open connects to the configured store. A live store that fails its probe
// within cfg.ProbeTimeout is replaced by a seeded in-memory store.
func Open(ctx context.Context, cfg *internal.Config, logger *slog.Logger) (*Backend, error) {
	switch cfg.StoreBackend {
	case internal.BackendFirestore:
		b, err := openFirestore(ctx, cfg, logger)
		if err != nil {
			return fallback(ctx, cfg.StoreBackend, err, logger)
		}
		return b, nil
	case internal.BackendPostgres:
		b, err := openPostgres(ctx, cfg, logger)
		if errors.Is(err, errMigration) {
			return nil, err
		}
		if err != nil {
			return fallback(ctx, cfg.StoreBackend, err, logger)
		}
		return b, nil
	default:
		return OpenMemory(ctx, logger)
	}
}

var errMigration = errors.New("database migration failed")

func probe(ctx context.Context, cfg *internal.Config, check probeFunc) error {
	ctx, cancel := context.WithTimeout(ctx, cfg.ProbeTimeout)
	defer cancel()
	return check(ctx)
}

func openFirestore(ctx context.Context, cfg *internal.Config, logger *slog.Logger) (*Backend, error) {
	provider := firestore.NewProvider(firestore.Config{
		ProjectID:       cfg.Firestore.ProjectID,
		EmulatorHost:    cfg.Firestore.EmulatorHost,
		CredentialsFile: cfg.Firestore.CredentialsFile,
	})

	if err := probe(ctx, cfg, provider.Probe); err != nil {
		_ = provider.Close()
		return nil, fmt.Errorf("firestore probe: %w", err)
	}

	b := &Backend{
		Kind:      internal.BackendFirestore,
		Orders:    firestore.NewOrderRepository(provider),
		Products:  firestore.NewProductRepository(provider),
		Users:     firestore.NewUserRepository(provider),
		CartSlots: firestore.NewCartSlotRepository(provider),
		closers:   []func() error{provider.Close},
	}
	seedLive(ctx, b, logger)

	logger.Info("storage backend ready", "backend", b.Kind, "project", cfg.Firestore.ProjectID)
	return b, nil
}

func openPostgres(ctx context.Context, cfg *internal.Config, logger *slog.Logger) (*Backend, error) {
	pool, err := pgxpool.New(ctx, cfg.DatabaseUrl)
	if err != nil {
		return nil, fmt.Errorf("postgres pool: %w", err)
	}
	store := postgres.NewStore(pool)

	if err := probe(ctx, cfg, store.Probe); err != nil {
		store.Close()
		return nil, fmt.Errorf("postgres probe: %w", err)
	}

	if err := internal.RunMigrations(cfg.DatabaseUrl); err != nil {
		store.Close()
		return nil, fmt.Errorf("%w: %w", errMigration, err)
	}

	b := &Backend{
		Kind:      internal.BackendPostgres,
		Orders:    store.Orders,
		Products:  store.Products,
		Users:     store.Users,
		CartSlots: store.CartSlots,
		closers: []func() error{func() error {
			store.Close()
			return nil
		}},
	}
	seedLive(ctx, b, logger)

	logger.Info("storage backend ready", "backend", b.Kind)
	return b, nil
}

// seedLive fills an empty live catalog. Failure is logged; the store is
// still usable.
func seedLive(ctx context.Context, b *Backend, logger *slog.Logger) {
	if err := bootstrap.SeedCatalog(ctx, b.Products, logger); err != nil {
		logger.Warn("catalog seeding failed", "backend", b.Kind, "error", err)
	}
}

func fallback(ctx context.Context, requested string, cause error, logger *slog.Logger) (*Backend, error) {
	logger.Warn("live storage unavailable, falling back to in-memory store",
		"requested", requested,
		"error", cause,
	)
	return OpenMemory(ctx, logger)
}

// OpenMemory builds a process-local store seeded with the sample catalog and
// demo accounts.
func OpenMemory(ctx context.Context, logger *slog.Logger) (*Backend, error) {
	b := &Backend{
		Kind:      internal.BackendMemory,
		Orders:    memory.NewOrderRepository(),
		Products:  memory.NewProductRepository(),
		Users:     memory.NewUserRepository(),
		CartSlots: memory.NewCartSlots(),
	}

	if err := bootstrap.SeedCatalog(ctx, b.Products, logger); err != nil {
		return nil, err
	}
	if err := bootstrap.SeedDemo(ctx, b.Users, b.Orders, logger); err != nil {
		return nil, err
	}

	logger.Info("storage backend ready", "backend", b.Kind)
	return b, nil
}
