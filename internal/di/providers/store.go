package providers

import (
	"context"
	"fmt"

	"github.com/samber/do/v2"

	"github.com/cinelogapp/cinelog-server/internal/config"
	"github.com/cinelogapp/cinelog-server/internal/logger"
	"github.com/cinelogapp/cinelog-server/internal/store"
	"github.com/cinelogapp/cinelog-server/internal/store/badger"
	"github.com/cinelogapp/cinelog-server/internal/store/mongo"
	"github.com/cinelogapp/cinelog-server/internal/store/sqlite"
)

// StoreHandle carries the document store through the container and closes it
// on teardown.
type StoreHandle struct {
	store.Store
}

// Shutdown flushes and closes the backend.
func (h *StoreHandle) Shutdown() error {
	return h.Close()
}

// ProvideStore opens the document store backend named in configuration.
func ProvideStore(i do.Injector) (*StoreHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	var (
		st  store.Store
		err error
	)
	switch cfg.Store.Backend {
	case config.BackendBadger:
		st, err = badger.Open(cfg.BadgerPath(), log.Logger)
	case config.BackendMongo:
		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		st, err = mongo.Open(ctx, cfg.Store.MongoURI, cfg.Store.MongoDatabase, log.Logger)
	case config.BackendSQLite:
		st, err = sqlite.Open(cfg.SQLitePath(), log.Logger)
	default:
		return nil, fmt.Errorf("unknown store backend: %q", cfg.Store.Backend)
	}
	if err != nil {
		return nil, err
	}

	log.Info("Document store initialized", "backend", cfg.Store.Backend)

	return &StoreHandle{Store: st}, nil
}
