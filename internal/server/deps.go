package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/sakif/job-board/internal/cache"
	"github.com/sakif/job-board/internal/config"
	"github.com/sakif/job-board/internal/repository"
	"github.com/sakif/job-board/internal/repository/memory"
	sqliteRepo "github.com/sakif/job-board/internal/repository/sqlite"
	"github.com/sakif/job-board/internal/service"
)

// Deps are the long-lived components shared by the HTTP server and the CLI:
// the board service over the configured store, the user repository, and
// whatever has to be closed on the way out.
type Deps struct {
	Board   *service.BoardService
	Users   repository.UserRepository
	closers []func() error
}

// Open builds Deps from cfg: the sqlite or memory store under a Board,
// fronted by the Redis cache when one is configured.
func Open(ctx context.Context, cfg config.Config, logger *slog.Logger) (*Deps, error) {
	d := &Deps{}

	var store repository.BoardStore
	switch cfg.Store.Driver {
	case config.DriverMemory:
		store = memory.New()
		d.Users = memory.NewUsers()
	default:
		if dir := filepath.Dir(cfg.Store.Path); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("server: creating data directory: %w", err)
			}
		}
		db, err := sqliteRepo.New(cfg.Store.Path)
		if err != nil {
			return nil, fmt.Errorf("server: opening database: %w", err)
		}
		store = db
		d.Users = db
		d.closers = append(d.closers, db.Close)
	}

	var c cache.Cache = cache.Nop{}
	if cfg.Cache.RedisAddr != "" {
		r := cache.NewRedis(cache.RedisOptions{
			Addr:     cfg.Cache.RedisAddr,
			Password: cfg.Cache.RedisPassword,
			DB:       cfg.Cache.RedisDB,
		}, logger)
		if err := r.Ping(ctx); err != nil {
			// Keep going: every cache call degrades to a miss.
			logger.Warn("redis unreachable; continuing without a warm cache", slog.String("error", err.Error()))
		}
		c = r
		d.closers = append(d.closers, r.Close)
	}

	d.Board = service.NewBoardService(service.NewBoard(store), c, cfg.Cache.TTL, logger)
	return d, nil
}

// Close releases everything Open acquired, in reverse order.
func (d *Deps) Close() error {
	var errs []error
	for i := len(d.closers) - 1; i >= 0; i-- {
		if err := d.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	d.closers = nil
	return errors.Join(errs...)
}
