package usecase

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"anzsco-lookup/internal/domain/occupation"
	"anzsco-lookup/internal/quality"
	"anzsco-lookup/internal/repository"
	"anzsco-lookup/internal/source"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"
)

var tracer = otel.Tracer("anzsco-lookup/internal/usecase")

const (
	DefaultDatasetTTL = 24 * time.Hour

	refreshLockTTL = 5 * time.Minute
	refreshTimeout = 3 * time.Minute
)

// Where the in-memory dataset was loaded from.
const (
	OriginCache    = "cache"
	OriginDatabase = "database"
	OriginSnapshot = "snapshot"
	OriginStatic   = "static"
	OriginRefresh  = "refresh"
)

// Events pushed through the Notifier.
const (
	EventDatasetRefreshed = "dataset_refreshed"
	EventQualityDegraded  = "quality_degraded"
)

type DatasetFetcher interface {
	Fetch(ctx context.Context) (source.Report, error)
}

type SnapshotStore interface {
	Save(ctx context.Context, records []occupation.Record, at time.Time) error
	Load(ctx context.Context) ([]occupation.Record, time.Time, error)
}

type DatasetConfig struct {
	Fetcher         DatasetFetcher
	Repo            repository.OccupationRepository
	Snapshots       SnapshotStore
	Cache           Cache
	Notifier        Notifier
	Validator       *quality.Validator
	ValidateOptions quality.DatasetOptions
	Tables          occupation.Tables
	TTL             time.Duration
	AlertThreshold  int
	Logger          *zap.Logger
}

type datasetState struct {
	records  []occupation.Record
	loadedAt time.Time
	origin   string
}

type cachedDataset struct {
	Records   []occupation.Record `json:"records"`
	FetchedAt time.Time           `json:"fetchedAt"`
}

type RefreshResult struct {
	Source     source.Report         `json:"source"`
	Summary    quality.Summary       `json:"summary"`
	Quality    quality.QualityReport `json:"qualityReport"`
	DurationMs int64                 `json:"durationMs"`
}

type DatasetStatus struct {
	RecordCount  int                    `json:"recordCount"`
	Origin       string                 `json:"origin"`
	LoadedAt     time.Time              `json:"loadedAt"`
	Stale        bool                   `json:"stale"`
	Refreshing   bool                   `json:"refreshing"`
	AverageScore int                    `json:"averageScore"`
	LastRefresh  *repository.RefreshLog `json:"lastRefresh,omitempty"`
}

type DatasetRefreshedEvent struct {
	RecordCount  int       `json:"recordCount"`
	AverageScore int       `json:"averageScore"`
	Primary      string    `json:"primary"`
	UsedFallback bool      `json:"usedFallback"`
	FetchedAt    time.Time `json:"fetchedAt"`
}

type DatasetUsecase interface {
	Refresh(ctx context.Context) (RefreshResult, error)
	Status(ctx context.Context) DatasetStatus
	ClearCache(ctx context.Context) error
	EnsureFresh(ctx context.Context) bool
}

// Dataset owns the occupation records being served. Readers get an
// immutable snapshot; a refresh swaps in a new one.
type Dataset struct {
	fetcher        DatasetFetcher
	repo           repository.OccupationRepository
	snapshots      SnapshotStore
	cache          Cache
	notifier       Notifier
	validator      *quality.Validator
	validateOpts   quality.DatasetOptions
	tables         occupation.Tables
	ttl            time.Duration
	alertThreshold int
	logger         *zap.Logger
	now            func() time.Time

	state       atomic.Pointer[datasetState]
	refreshing  atomic.Bool
	lastRefresh atomic.Pointer[repository.RefreshLog]
}

func NewDatasetUsecase(cfg DatasetConfig) *Dataset {
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	if cfg.TTL <= 0 {
		cfg.TTL = DefaultDatasetTTL
	}
	if cfg.Validator == nil {
		cfg.Validator = quality.NewValidator(cfg.Tables, quality.WithLogger(cfg.Logger))
	}
	if cfg.AlertThreshold <= 0 {
		cfg.AlertThreshold = quality.DefaultAlertThreshold
	}
	if cfg.ValidateOptions == (quality.DatasetOptions{}) {
		cfg.ValidateOptions = quality.DefaultDatasetOptions()
	}
	return &Dataset{
		fetcher:        cfg.Fetcher,
		repo:           cfg.Repo,
		snapshots:      cfg.Snapshots,
		cache:          cfg.Cache,
		notifier:       cfg.Notifier,
		validator:      cfg.Validator,
		validateOpts:   cfg.ValidateOptions,
		tables:         cfg.Tables,
		ttl:            cfg.TTL,
		alertThreshold: cfg.AlertThreshold,
		logger:         cfg.Logger,
		now:            time.Now,
	}
}

func (d *Dataset) store(records []occupation.Record, at time.Time, origin string) {
	if records == nil {
		records = []occupation.Record{}
	}
	d.state.Store(&datasetState{records: records, loadedAt: at, origin: origin})
}

// Snapshot returns the records currently served. Callers must not modify them.
func (d *Dataset) Snapshot() []occupation.Record {
	if d == nil {
		return nil
	}
	st := d.state.Load()
	if st == nil {
		return nil
	}
	return st.records
}

// Initialize loads the first dataset from the cheapest available place:
// cache, Postgres, the local snapshot, then the embedded static dataset. A
// dataset loaded without a known fetch time is treated as stale.
func (d *Dataset) Initialize(ctx context.Context) {
	if d == nil {
		return
	}

	if d.cache != nil {
		var cached cachedDataset
		ok, err := d.cache.GetJSON(ctx, DatasetCacheKey, &cached)
		if err != nil {
			d.logger.Warn("[Dataset] cache read failed", zap.Error(err))
		}
		if ok && len(cached.Records) > 0 {
			d.store(cached.Records, cached.FetchedAt, OriginCache)
			d.logLoaded(OriginCache, len(cached.Records))
			return
		}
	}

	if d.repo != nil {
		records, err := d.repo.ListAll(ctx)
		if err != nil {
			d.logger.Warn("[Dataset] database read failed", zap.Error(err))
		} else if len(records) > 0 {
			var at time.Time
			if last, ok, err := d.repo.LastRefresh(ctx); err == nil && ok {
				at = last.FinishedAt
				d.lastRefresh.Store(&last)
			}
			d.store(records, at, OriginDatabase)
			d.logLoaded(OriginDatabase, len(records))
			return
		}
	}

	if d.snapshots != nil {
		records, at, err := d.snapshots.Load(ctx)
		if err == nil && len(records) > 0 {
			d.store(records, at, OriginSnapshot)
			d.logLoaded(OriginSnapshot, len(records))
			return
		}
	}

	records := source.StaticDataset(d.tables)
	d.store(records, time.Time{}, OriginStatic)
	d.logLoaded(OriginStatic, len(records))
}

func (d *Dataset) logLoaded(origin string, n int) {
	d.logger.Info("[Dataset] loaded", zap.String("origin", origin), zap.Int("records", n))
}

// Refresh fetches, validates and publishes a new dataset. Persistence
// failures are logged and do not fail the refresh.
func (d *Dataset) Refresh(ctx context.Context) (RefreshResult, error) {
	if d == nil || d.fetcher == nil {
		return RefreshResult{}, errors.New("dataset fetcher not configured")
	}
	if !d.refreshing.CompareAndSwap(false, true) {
		return RefreshResult{}, ErrRefreshInProgress
	}
	defer d.refreshing.Store(false)

	ctx, span := tracer.Start(ctx, "dataset.refresh")
	defer span.End()

	started := d.now()
	report, err := d.fetcher.Fetch(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		d.logger.Error("[Dataset] refresh failed", zap.Error(err))
		return RefreshResult{}, err
	}

	_, vspan := tracer.Start(ctx, "dataset.validate")
	validation := d.validator.ValidateDataset(report.Records, d.validateOpts)
	vspan.SetAttributes(
		attribute.Int("records", validation.Summary.Total),
		attribute.Int("average_score", validation.Summary.AverageScore),
	)
	vspan.End()

	fetchedAt := report.FetchedAt
	if fetchedAt.IsZero() {
		fetchedAt = started
	}
	d.store(report.Records, fetchedAt, OriginRefresh)

	finished := d.now()
	log := repository.RefreshLog{
		StartedAt:    started,
		FinishedAt:   finished,
		Primary:      report.Primary,
		UsedFallback: report.UsedFallback,
		RecordCount:  len(report.Records),
		AverageScore: validation.Summary.AverageScore,
		SourceCounts: report.SourceCounts,
		Errors:       report.Errors,
	}
	d.lastRefresh.Store(&log)
	d.persist(ctx, report.Records, fetchedAt, log)

	span.SetAttributes(
		attribute.String("primary", report.Primary),
		attribute.Int("records", len(report.Records)),
	)
	d.logger.Info("[Dataset] refreshed",
		zap.String("primary", report.Primary),
		zap.Bool("used_fallback", report.UsedFallback),
		zap.Int("records", len(report.Records)),
		zap.Int("average_score", validation.Summary.AverageScore),
		zap.Duration("elapsed", finished.Sub(started)),
	)

	d.notify(EventDatasetRefreshed, DatasetRefreshedEvent{
		RecordCount:  len(report.Records),
		AverageScore: validation.Summary.AverageScore,
		Primary:      report.Primary,
		UsedFallback: report.UsedFallback,
		FetchedAt:    fetchedAt,
	})
	if validation.Summary.Total > 0 && validation.Summary.AverageScore < d.alertThreshold {
		d.notify(EventQualityDegraded, validation.Summary)
	}

	return RefreshResult{
		Source:     report,
		Summary:    validation.Summary,
		Quality:    validation.QualityReport,
		DurationMs: finished.Sub(started).Milliseconds(),
	}, nil
}

func (d *Dataset) persist(ctx context.Context, records []occupation.Record, at time.Time, log repository.RefreshLog) {
	if d.repo != nil {
		if err := d.repo.ReplaceAll(ctx, records); err != nil {
			d.logger.Warn("[Dataset] database write failed", zap.Error(err))
		}
		if err := d.repo.RecordRefresh(ctx, log); err != nil {
			d.logger.Warn("[Dataset] refresh log write failed", zap.Error(err))
		}
	}
	if d.snapshots != nil {
		if err := d.snapshots.Save(ctx, records, at); err != nil {
			d.logger.Warn("[Dataset] snapshot write failed", zap.Error(err))
		}
	}
	if d.cache != nil {
		if err := d.cache.SetJSON(ctx, DatasetCacheKey, cachedDataset{Records: records, FetchedAt: at}, d.ttl); err != nil {
			d.logger.Warn("[Dataset] cache write failed", zap.Error(err))
		}
		if err := d.cache.DeleteByPattern(ctx, SearchCachePattern()); err != nil {
			d.logger.Warn("[Dataset] search cache purge failed", zap.Error(err))
		}
	}
}

func (d *Dataset) notify(event string, payload any) {
	if d.notifier == nil {
		return
	}
	d.notifier.Notify(event, payload)
}

// Stale reports whether the served dataset is older than the TTL or has no
// known fetch time.
func (d *Dataset) Stale() bool {
	if d == nil {
		return false
	}
	st := d.state.Load()
	if st == nil || st.loadedAt.IsZero() {
		return true
	}
	return d.now().Sub(st.loadedAt) >= d.ttl
}

// EnsureFresh starts a background refresh when the dataset is stale and no
// other instance holds the refresh lock. It reports whether one was started.
func (d *Dataset) EnsureFresh(ctx context.Context) bool {
	if d == nil || d.fetcher == nil {
		return false
	}
	if !d.Stale() || d.refreshing.Load() {
		return false
	}

	acquired := true
	if d.cache != nil {
		ok, err := d.cache.SetIfNotExists(ctx, DatasetRefreshLock, "1", refreshLockTTL)
		if err == nil {
			acquired = ok
		}
	}
	if !acquired {
		return false
	}

	d.logger.Info("[Dataset] stale, refreshing in background", zap.Duration("ttl", d.ttl))
	go func() {
		bg, cancel := context.WithTimeout(context.Background(), refreshTimeout)
		defer cancel()
		if _, err := d.Refresh(bg); err != nil && !errors.Is(err, ErrRefreshInProgress) {
			d.logger.Warn("[Dataset] background refresh failed", zap.Error(err))
		}
	}()
	return true
}

func (d *Dataset) Status(ctx context.Context) DatasetStatus {
	if d == nil {
		return DatasetStatus{}
	}
	out := DatasetStatus{
		Stale:      d.Stale(),
		Refreshing: d.refreshing.Load(),
	}
	if st := d.state.Load(); st != nil {
		out.RecordCount = len(st.records)
		out.Origin = st.origin
		out.LoadedAt = st.loadedAt
	}

	last := d.lastRefresh.Load()
	if last == nil && d.repo != nil {
		if l, ok, err := d.repo.LastRefresh(ctx); err == nil && ok {
			last = &l
		}
	}
	if last != nil {
		out.LastRefresh = last
		out.AverageScore = last.AverageScore
	}
	return out
}

// ClearCache drops the cached dataset and every cached search result.
func (d *Dataset) ClearCache(ctx context.Context) error {
	if d == nil || d.cache == nil {
		return nil
	}
	if err := d.cache.Delete(ctx, DatasetCacheKey); err != nil {
		return err
	}
	return d.cache.DeleteByPattern(ctx, SearchCachePattern())
}
