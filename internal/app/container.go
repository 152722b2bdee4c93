package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"anzsco-lookup/internal/config"
	"anzsco-lookup/internal/database"
	"anzsco-lookup/internal/database/migration"
	dbpostgres "anzsco-lookup/internal/database/postgres"
	"anzsco-lookup/internal/domain/occupation"
	"anzsco-lookup/internal/infrastructure/backup"
	"anzsco-lookup/internal/infrastructure/cache"
	"anzsco-lookup/internal/pkg/jwt"
	"anzsco-lookup/internal/pkg/telemetry"
	"anzsco-lookup/internal/quality"
	"anzsco-lookup/internal/repository"
	"anzsco-lookup/internal/scheduler"
	"anzsco-lookup/internal/search"
	"anzsco-lookup/internal/source"
	"anzsco-lookup/internal/usecase"
	ucauth "anzsco-lookup/internal/usecase/auth"
	"anzsco-lookup/internal/ws"

	"go.uber.org/zap"
)

const tracerName = "anzsco-lookup/internal/source"

// Container holds every long-lived dependency of the service.
type Container struct {
	Config config.Config
	Logger *zap.Logger
	Tables occupation.Tables

	DB      database.DB
	Cache   *cache.Redis
	Backup  *backup.SQLiteStore
	Sources *source.Aggregator
	Hub     *ws.Hub

	Dataset *usecase.Dataset
	Search  *usecase.Search
	History *usecase.History
	Quality *usecase.Quality
	Auth    *usecase.Auth
	JWT     jwt.Service
	Monitor *quality.Monitor

	Scheduler *scheduler.Scheduler

	shutdownTracing func(context.Context) error
}

func NewContainer(ctx context.Context, cfg config.Config, logger *zap.Logger) (*Container, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	c := &Container{Config: cfg, Logger: logger}

	tables, err := loadTables(cfg.Sources.TablesFile)
	if err != nil {
		return nil, err
	}
	c.Tables = tables

	c.shutdownTracing, err = telemetry.Setup(ctx, telemetry.Config{
		ServiceName:  cfg.App.Name,
		HTTPEndpoint: cfg.Telemetry.OTLPEndpoint,
	})
	if err != nil {
		return nil, fmt.Errorf("telemetry: %w", err)
	}

	var repo repository.OccupationRepository
	if cfg.Database.Enabled() {
		if c.DB, err = connectDatabase(ctx, cfg.Database, logger); err != nil {
			_ = c.Close(ctx)
			return nil, err
		}
		repo = repository.NewPostgresOccupationRepository(c.DB)
	} else {
		logger.Info("[App] database not configured, running without Postgres")
	}

	c.Cache = cache.NewRedis(cache.Options{
		Addr:       cfg.Redis.Addr,
		Password:   cfg.Redis.Password,
		DB:         cfg.Redis.DB,
		DefaultTTL: cfg.Redis.TTL,
	}, logger)

	var snapshots usecase.SnapshotStore
	if c.Backup, err = openBackup(cfg.Backup); err != nil {
		logger.Warn("[App] snapshot store unavailable", zap.String("path", cfg.Backup.Path), zap.Error(err))
	} else {
		snapshots = c.Backup
	}

	c.Sources = buildAggregator(cfg.Sources, tables, snapshots, logger)
	c.Hub = ws.NewHub(logger)

	validator := quality.NewValidator(tables, quality.WithLogger(logger))
	qopts := quality.DefaultDatasetOptions()
	qopts.Parallel = cfg.Quality.Parallel
	qopts.MaxConcurrency = cfg.Quality.MaxConcurrency

	c.Dataset = usecase.NewDatasetUsecase(usecase.DatasetConfig{
		Fetcher:         c.Sources,
		Repo:            repo,
		Snapshots:       snapshots,
		Cache:           c.Cache,
		Notifier:        c.Hub,
		Validator:       validator,
		ValidateOptions: qopts,
		Tables:          tables,
		TTL:             cfg.Search.DatasetTTL,
		AlertThreshold:  cfg.Quality.AlertThreshold,
		Logger:          logger,
	})
	c.History = usecase.NewHistoryUsecase(c.Cache, cfg.Search.HistoryMax, logger)
	c.Search = usecase.NewSearchUsecase(c.Dataset, search.NewProcessor(tables), c.Cache, c.History, cfg.Search.CacheTTL, cfg.Search.MaxResults, logger)
	c.Quality = usecase.NewQualityUsecase(c.Dataset, validator, qopts)

	c.JWT = jwt.NewHMACService(cfg.Auth.JWTSecret, cfg.Auth.Issuer, cfg.Auth.TokenTTL)
	c.Auth = usecase.NewAuthUsecase(ucauth.NewService(cfg.Auth.AdminUser, cfg.Auth.AdminPasswordHash), c.JWT)

	hub := c.Hub
	c.Monitor = quality.NewMonitor(validator, c.Dataset, cfg.Quality.SampleSize, cfg.Quality.AlertThreshold,
		func(_ context.Context, report quality.QuickReport) {
			hub.Notify(usecase.EventQualityDegraded, report)
		}, logger)

	c.Scheduler = scheduler.New(logger)
	if cfg.Scheduler.Enabled {
		if err := c.Scheduler.Add(scheduler.JobRefresh, cfg.Scheduler.RefreshSpec, scheduler.RefreshJob(c.Dataset)); err != nil {
			_ = c.Close(ctx)
			return nil, err
		}
		if err := c.Scheduler.Add(scheduler.JobQuality, cfg.Scheduler.QualitySpec, scheduler.QualityJob(c.Monitor)); err != nil {
			_ = c.Close(ctx)
			return nil, err
		}
	}
	return c, nil
}

func loadTables(path string) (occupation.Tables, error) {
	if path == "" {
		return occupation.DefaultTables(), nil
	}
	t, err := occupation.LoadTables(path)
	if err != nil {
		return occupation.Tables{}, fmt.Errorf("reference tables: %w", err)
	}
	return t, nil
}

func connectDatabase(ctx context.Context, cfg config.DatabaseConfig, logger *zap.Logger) (database.DB, error) {
	cctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	db, err := dbpostgres.Connect(cctx, cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("postgres: %w", err)
	}
	if cfg.Migrate {
		if err := (&migration.Runner{Logger: logger}).Run(cctx, db.SQLDB()); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("migrate: %w", err)
		}
	}
	return db, nil
}

func openBackup(cfg config.BackupConfig) (*backup.SQLiteStore, error) {
	if cfg.Path == "" {
		return nil, errors.New("no snapshot path")
	}
	if cfg.Path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(cfg.Path), 0o755); err != nil {
			return nil, err
		}
	}
	return backup.Open(cfg.Path, cfg.Keep)
}

func buildAggregator(cfg config.SourcesConfig, tables occupation.Tables, snapshots usecase.SnapshotStore, logger *zap.Logger) *source.Aggregator {
	opts := source.DefaultClientOptions()
	opts.Timeout = cfg.Timeout
	opts.RetryCount = cfg.Retries
	opts.RetryWait = cfg.RetryWait
	opts.RetryMaxWait = cfg.RetryMaxWait
	opts.Debug = cfg.Debug
	client := source.NewHTTPClient(opts)
	telemetry.InstrumentResty(client, tracerName)

	var renderer source.Renderer
	if cfg.Headless {
		renderer = source.NewChromeRenderer(cfg.Timeout)
	}
	var fallbackStore source.SnapshotStore
	if snapshots != nil {
		fallbackStore = snapshots
	}

	guard := func(s source.Source) source.Source {
		return source.NewGuarded(s, cfg.BreakerFailures, cfg.BreakerCooldown, logger)
	}
	return source.NewAggregator(source.AggregatorConfig{
		Primary: []source.Source{
			guard(source.NewSkillSelect(client, cfg.SkillSelectURL, tables, renderer, logger)),
			guard(source.NewDataGovAU(client, cfg.DataGovAUURL, tables, logger)),
		},
		Supplementary: []source.Source{
			source.NewUnintegrated(occupation.SourceABS),
			source.NewUnintegrated(occupation.SourceAuthorities),
			source.NewUnintegrated(occupation.SourceThirdParty),
		},
		Fallback:  source.NewLocalBackup(fallbackStore, tables, logger),
		Lists:     source.NewHomeAffairsLists(cfg.ListsURL, logger),
		Tables:    tables,
		RateLimit: cfg.RateLimit,
		Logger:    logger,
	})
}

// Close releases every resource, returning all errors joined.
func (c *Container) Close(ctx context.Context) error {
	if c == nil {
		return nil
	}
	var errs []error
	if c.Cache != nil {
		errs = append(errs, c.Cache.Close())
	}
	if c.Backup != nil {
		errs = append(errs, c.Backup.Close())
	}
	if c.DB != nil {
		errs = append(errs, c.DB.Close())
	}
	if c.shutdownTracing != nil {
		errs = append(errs, c.shutdownTracing(ctx))
	}
	return errors.Join(errs...)
}
