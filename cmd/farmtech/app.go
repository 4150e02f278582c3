package main

import (
	"context"
	"fmt"
	"os"

	"github.com/farmtech/irrigation/internal/config"
	"github.com/farmtech/irrigation/internal/event"
	"github.com/farmtech/irrigation/internal/insight"
	irrigationapi "github.com/farmtech/irrigation/internal/irrigation/api"
	"github.com/farmtech/irrigation/internal/listener"
	"github.com/farmtech/irrigation/internal/mqtt"
	"github.com/farmtech/irrigation/internal/readings"
	"github.com/farmtech/irrigation/internal/registry"
	"github.com/farmtech/irrigation/internal/store"
	"github.com/farmtech/irrigation/internal/version"
	"github.com/farmtech/irrigation/internal/weather"
	"github.com/farmtech/irrigation/pkg/plugin"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// app is the composed runtime shared by serve and listen.
type app struct {
	v      *viper.Viper
	cfg    *config.ViperConfig
	logger *zap.Logger
	db     *store.SQLiteStore
	bus    *event.Bus
	reg    *registry.Registry
}

// allModules lists every module compiled into the binary.
func allModules() []plugin.Plugin {
	return []plugin.Plugin{
		readings.New(),
		irrigationapi.New(),
		insight.New(),
		weather.New(),
		listener.New(),
		mqtt.New(),
	}
}

// loadRuntime loads configuration and builds the logger. Errors are
// printed to stderr since no logger exists yet.
func loadRuntime(configPath string) (*viper.Viper, *zap.Logger, bool) {
	v, err := config.Load(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		return nil, nil, false
	}
	logger, err := config.NewLogger(v)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		return nil, nil, false
	}

	if f := v.ConfigFileUsed(); f != "" {
		logger.Info("configuration loaded",
			zap.String("component", "config"),
			zap.String("source", f),
		)
	} else {
		logger.Warn("no configuration file found, using defaults",
			zap.String("component", "config"),
		)
	}
	return v, logger, true
}

// openStore opens the configured database and checks its schema version.
func openStore(ctx context.Context, v *viper.Viper) (*store.SQLiteStore, error) {
	dbPath := v.GetString("database.path")
	if dbPath == "" {
		dbPath = "farmtech.db"
	}
	db, err := store.New(dbPath)
	if err != nil {
		return nil, err
	}
	if err := db.CheckVersion(ctx, version.Short()); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

// newApp opens the store and registers, validates and initializes modules.
// Modules are not started.
func newApp(ctx context.Context, v *viper.Viper, logger *zap.Logger, modules []plugin.Plugin) (*app, error) {
	db, err := openStore(ctx, v)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	logger.Info("database initialized",
		zap.String("component", "database"),
		zap.String("path", db.Path()),
	)

	a := &app{
		v:      v,
		cfg:    config.New(v),
		logger: logger,
		db:     db,
		bus:    event.NewBus(logger.Named("event")),
		reg:    registry.New(logger.Named("registry")),
	}

	for _, m := range modules {
		if err := a.reg.Register(m); err != nil {
			db.Close()
			return nil, fmt.Errorf("register module: %w", err)
		}
	}
	if err := a.reg.Validate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("module validation: %w", err)
	}

	err = a.reg.InitAll(ctx, func(name string) plugin.Dependencies {
		return plugin.Dependencies{
			Config:  a.cfg.Sub("plugins." + name),
			Global:  a.cfg,
			Logger:  logger.Named(name),
			Store:   db,
			Bus:     a.bus,
			Plugins: a.reg,
		}
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("initialize modules: %w", err)
	}
	return a, nil
}

// module finds the registered module of type T.
func module[T plugin.Plugin](a *app) (T, bool) {
	for _, p := range a.reg.All() {
		if m, ok := p.(T); ok {
			return m, true
		}
	}
	var zero T
	return zero, false
}

// close stops modules in reverse order and closes the database.
func (a *app) close(ctx context.Context) {
	a.reg.StopAll(ctx)
	if err := a.db.Close(); err != nil {
		a.logger.Warn("closing database", zap.Error(err))
	}
}
