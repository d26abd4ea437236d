package providers

import (
	"context"
	"fmt"

	"github.com/samber/do/v2"

	"github.com/rohmanhakim/canonurl/internal/config"
	"github.com/rohmanhakim/canonurl/internal/logger"
	"github.com/rohmanhakim/canonurl/internal/storage"
	"github.com/rohmanhakim/canonurl/internal/storage/badgerstore"
	"github.com/rohmanhakim/canonurl/internal/storage/postgres"
	"github.com/rohmanhakim/canonurl/internal/storage/redisstore"
	"github.com/rohmanhakim/canonurl/internal/storage/sqlite"
	"github.com/rohmanhakim/canonurl/pkg/fileutil"
)

// StoreHandle wraps the offender store with shutdown capability.
type StoreHandle struct {
	storage.Backend
}

// Shutdown implements do.Shutdownable.
func (h *StoreHandle) Shutdown() error {
	return h.Close()
}

// ProvideStore opens the backend named by the configured store driver.
func ProvideStore(i do.Injector) (*StoreHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Timeout())
	defer cancel()

	backend, err := openBackend(ctx, *cfg, log)
	if err != nil {
		return nil, err
	}

	log.Info("offender store opened", "driver", cfg.StoreDriver())
	return &StoreHandle{Backend: backend}, nil
}

func openBackend(ctx context.Context, cfg config.Config, log *logger.Logger) (storage.Backend, error) {
	switch cfg.StoreDriver() {
	case storage.DriverMemory:
		return storage.NewMemoryStore(), nil
	case storage.DriverSQLite:
		if err := fileutil.EnsureParentDir(cfg.StorePath()); err != nil {
			return nil, err
		}
		return sqlite.Open(cfg.StorePath(), log.Logger)
	case storage.DriverBadger:
		if err := fileutil.EnsureDir(cfg.StorePath()); err != nil {
			return nil, err
		}
		return badgerstore.Open(cfg.StorePath(), log.Logger)
	case storage.DriverRedis:
		return redisstore.Open(ctx, cfg.StoreDSN(), log.Logger)
	case storage.DriverPostgres:
		return postgres.Open(ctx, cfg.StoreDSN(), log.Logger)
	default:
		return nil, storage.NewError(cfg.StoreDriver(), storage.ErrCauseUnknownDriver,
			fmt.Sprintf("supported drivers: %v", storage.Drivers()), nil)
	}
}
