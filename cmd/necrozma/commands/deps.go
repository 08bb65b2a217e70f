package commands

import (
	"context"
	"fmt"

	"github.com/dans91364-create/NECROZMAv2/internal/contracts"
	"github.com/dans91364-create/NECROZMAv2/internal/labeling"
	"github.com/dans91364-create/NECROZMAv2/internal/labelstats"
	"github.com/dans91364-create/NECROZMAv2/internal/labelstore"
	"github.com/dans91364-create/NECROZMAv2/internal/series"
	"github.com/dans91364-create/NECROZMAv2/internal/sweepconfig"
	"github.com/dans91364-create/NECROZMAv2/pkg/config"
	"github.com/dans91364-create/NECROZMAv2/pkg/database"
	"github.com/dans91364-create/NECROZMAv2/pkg/logger"
	"github.com/dans91364-create/NECROZMAv2/pkg/redis"
)

// app holds the wired dependencies shared by the commands
type app struct {
	cfg     *config.Config
	log     *logger.Logger
	gate    *series.Gate
	db      *database.DB  // nil without DATABASE_URL
	redis   *redis.Client // nil unless the redis backend is selected
	store   contracts.LabelStore
	stats   *labelstats.Repository // nil without DB
	service *labeling.Service
}

type bootstrapOptions struct {
	requireDB bool
}

// bootstrap wires config → logger → store → sweeper → cache → service
func bootstrap(ctx context.Context, opts bootstrapOptions) (*app, error) {
	// 1. Config (+ optional sweep YAML)
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if verbose {
		cfg.LogLevel = "debug"
	}

	gateConfig := series.DefaultGateConfig()
	if sweepFile != "" {
		f, err := sweepconfig.Load(sweepFile)
		if err != nil {
			return nil, err
		}
		f.Apply(&cfg.Labeling)
		gateConfig = f.GateConfig()
		if err := cfg.Labeling.Validate(); err != nil {
			return nil, fmt.Errorf("sweep config: %w", err)
		}
	}

	// 2. Logger
	log := logger.New(cfg)
	a := &app{cfg: cfg, log: log, gate: series.NewGate(gateConfig)}

	// 3. Label store
	switch cfg.Labeling.CacheBackend {
	case config.CacheBackendRedis:
		cfg.Redis.Enabled = true
		client, err := redis.New(cfg)
		if err != nil {
			return nil, fmt.Errorf("connect to redis: %w", err)
		}
		a.redis = client
		a.store = labelstore.NewRedisStore(client, cfg.Labeling.CacheTTL)
	case config.CacheBackendMemory:
		a.store = labelstore.NewMemoryStore(log)
	default:
		a.store = labelstore.NewFileStore(cfg.Labeling.CacheDir)
	}

	// 4. Database (optional unless required)
	if cfg.Database.Enabled() {
		db, err := database.New(ctx, cfg)
		switch {
		case err != nil && opts.requireDB:
			a.Close()
			return nil, fmt.Errorf("connect to database: %w", err)
		case err != nil:
			log.WithError(err).Warn("Database unavailable, sweep stats will not be stored")
		default:
			a.db = db
			a.stats = labelstats.NewRepository(db.Pool)
			if err := a.stats.EnsureSchema(ctx); err != nil {
				log.WithError(err).Warn("Failed to ensure labels schema")
			}
		}
	} else if opts.requireDB {
		return nil, database.ErrNotConfigured
	}

	// 5. Labeling service
	sweeper := labeling.NewSweeper(cfg.Labeling.Workers, log)
	a.service = labeling.NewService(sweeper, labeling.NewCache(a.store, log), log)
	if a.stats != nil {
		a.service.WithStatsRepository(a.stats)
	}

	log.WithFields(map[string]interface{}{
		"backend":  cfg.Labeling.CacheBackend,
		"workers":  cfg.Labeling.Workers,
		"configs":  a.grid().Size(),
		"database": a.db != nil,
	}).Debug("Labeling engine initialized")

	return a, nil
}

// grid returns the configured sweep grid
func (a *app) grid() contracts.SweepGrid {
	l := a.cfg.Labeling
	return contracts.SweepGrid{
		TargetPips: l.TargetPips,
		StopPips:   l.StopPips,
		Horizons:   l.Horizons,
		PipValue:   l.PipValue,
	}
}

// options returns the labeling options of the configuration
func (a *app) options() labeling.Options {
	return labeling.Options{
		Grid:            a.grid(),
		UseCache:        a.cfg.Labeling.UseCache,
		FingerprintMode: labeling.FingerprintMode(a.cfg.Labeling.FingerprintMode),
	}
}

// Close releases connections
func (a *app) Close() {
	if a.db != nil {
		a.db.Close()
	}
	if a.redis != nil {
		a.redis.Close()
	}
}
