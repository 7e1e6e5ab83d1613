// Package wire assembles the major services for injection into
// commands.
package wire

import (
	"context"
	"log"
	"os"
	"path/filepath"

	"github.com/spf13/viper"

	"github.com/avencourt/listflow/internal/batch"
	"github.com/avencourt/listflow/internal/client"
	"github.com/avencourt/listflow/internal/config"
	"github.com/avencourt/listflow/internal/engine"
	"github.com/avencourt/listflow/internal/snapshot"
)

// App aggregates the shared services; controllers are built per list.
type App struct {
	V       *viper.Viper
	Log     *log.Logger
	Store   snapshot.Store
	Backend *client.Client
}

// BuildApp wires dependencies with the provided config. A snapshot DB
// that fails to open degrades to an in-memory store; the cache must
// never block startup.
func BuildApp(ctx context.Context, v *viper.Viper) (*App, error) {
	logger := log.New(os.Stderr, "listflow ", log.LstdFlags)

	var store snapshot.Store
	dbPath := config.ResolveDBPath(v)
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		logger.Printf("data dir %s: %v; snapshots stay in memory", filepath.Dir(dbPath), err)
		store = snapshot.NewMem(v.GetInt("cache.max_entries"))
	} else if s, err := snapshot.OpenSQLite(dbPath, v.GetInt("cache.max_entries")); err != nil {
		logger.Printf("snapshot db %s: %v; snapshots stay in memory", dbPath, err)
		store = snapshot.NewMem(v.GetInt("cache.max_entries"))
	} else {
		store = s
	}

	backend := client.New(
		v.GetString("backend.base_url"),
		v.GetString("backend.resource"),
		v.GetDuration("backend.timeout"),
	)

	return &App{V: v, Log: logger, Store: store, Backend: backend}, nil
}

// Controller builds an engine for one logical list.
func (a *App) Controller(scope string) *engine.Controller {
	return engine.New(scope, a.Store, a.Backend, engine.Options{
		TTL:           a.V.GetDuration("cache.ttl"),
		Timeout:       a.V.GetDuration("backend.timeout"),
		PageSize:      a.V.GetInt("page.size"),
		ChunkSize:     a.V.GetInt("render.chunk_size"),
		ChunkInterval: a.V.GetDuration("render.interval"),
	})
}

// Warmer builds a batch warm-up runner for one scope.
func (a *App) Warmer(scope string) *batch.Runner {
	return batch.New(scope, a.Store, a.Backend, batch.Options{
		TTL:      a.V.GetDuration("cache.ttl"),
		Timeout:  a.V.GetDuration("backend.timeout"),
		PageSize: a.V.GetInt("page.size"),
		Rate:     a.V.GetFloat64("warmup.rate"),
		Burst:    a.V.GetInt("warmup.burst"),
	})
}

// Close releases held resources.
func (a *App) Close() {
	if c, ok := a.Store.(*snapshot.SQLiteStore); ok {
		_ = c.Close()
	}
}
