package source

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"anzsco-lookup/internal/domain/occupation"
	"anzsco-lookup/internal/pkg/workerpool"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

const DefaultRateLimit = 10

var ErrNoData = errors.New("no occupation data from any source")

type Report struct {
	Records      []occupation.Record `json:"-"`
	SourceCounts map[string]int      `json:"sourceCounts"`
	Errors       map[string]string   `json:"errors,omitempty"`
	Primary      string              `json:"primary"`
	UsedFallback bool                `json:"usedFallback"`
	ListCodes    int                 `json:"listCodes"`
	FetchedAt    time.Time           `json:"fetchedAt"`
}

// Aggregator fetches every source concurrently, keeps the highest-priority
// primary source that returned data, merges the supplementary sources into
// it and applies the authoritative list flags. When no primary source has
// data the fallback is used.
type Aggregator struct {
	primary       []Source
	supplementary []Source
	fallback      Source
	lists         ListProvider
	tables        occupation.Tables
	rateLimit     int
	logger        *zap.Logger
	now           func() time.Time
}

type AggregatorConfig struct {
	Primary       []Source
	Supplementary []Source
	Fallback      Source
	Lists         ListProvider
	Tables        occupation.Tables
	RateLimit     int
	Logger        *zap.Logger
}

func NewAggregator(cfg AggregatorConfig) *Aggregator {
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	if cfg.RateLimit == 0 {
		cfg.RateLimit = DefaultRateLimit
	}
	return &Aggregator{
		primary:       cfg.Primary,
		supplementary: cfg.Supplementary,
		fallback:      cfg.Fallback,
		lists:         cfg.Lists,
		tables:        cfg.Tables,
		rateLimit:     cfg.RateLimit,
		logger:        cfg.Logger,
		now:           time.Now,
	}
}

type fetched struct {
	records []occupation.Record
	err     error
}

func (a *Aggregator) Fetch(ctx context.Context) (Report, error) {
	if a == nil {
		return Report{}, ErrNoData
	}
	ctx, span := tracer.Start(ctx, "Aggregator.Fetch")
	defer span.End()

	sources := make([]Source, 0, len(a.primary)+len(a.supplementary))
	sources = append(sources, a.primary...)
	sources = append(sources, a.supplementary...)

	got := make([]fetched, len(sources))
	var index ListIndex
	var listErr error

	tasks := len(sources)
	if a.lists != nil {
		tasks++
	}
	pool := workerpool.New(tasks, tasks)
	pool.SetRateLimit(a.rateLimit)
	results := pool.Run(ctx)
	for i, src := range sources {
		i, src := i, src
		pool.Submit(func(ctx context.Context) error {
			recs, err := src.Fetch(ctx)
			got[i] = fetched{records: recs, err: err}
			return err
		})
	}
	if a.lists != nil {
		pool.Submit(func(ctx context.Context) error {
			index, listErr = a.lists.Lists(ctx)
			return listErr
		})
	}
	pool.Close()
	for range results {
	}
	if err := ctx.Err(); err != nil {
		return Report{}, err
	}

	rep := Report{
		SourceCounts: map[string]int{},
		Errors:       map[string]string{},
		FetchedAt:    a.now().UTC(),
	}
	for i, src := range sources {
		rep.SourceCounts[src.Name()] = len(got[i].records)
		if got[i].err != nil {
			rep.Errors[src.Name()] = got[i].err.Error()
			a.logger.Warn("[Aggregator] source failed", zap.String("source", src.Name()), zap.Error(got[i].err))
		}
	}

	var base []occupation.Record
	for i := range a.primary {
		if len(got[i].records) > 0 {
			base = got[i].records
			rep.Primary = a.primary[i].Name()
			break
		}
	}
	if len(base) == 0 && a.fallback != nil {
		recs, err := a.fallback.Fetch(ctx)
		if err != nil {
			rep.Errors[a.fallback.Name()] = err.Error()
		}
		base = recs
		rep.Primary = a.fallback.Name()
		rep.UsedFallback = true
		rep.SourceCounts[a.fallback.Name()] = len(recs)
	}
	if len(base) == 0 {
		return rep, fmt.Errorf("%w (%d sources tried)", ErrNoData, len(sources)+1)
	}

	combined := append([]occupation.Record{}, base...)
	for i := len(a.primary); i < len(sources); i++ {
		combined = append(combined, got[i].records...)
	}
	merged := occupation.MergeAll(combined)

	if listErr != nil {
		rep.Errors["lists"] = listErr.Error()
		a.logger.Warn("[Aggregator] occupation lists unavailable", zap.Error(listErr))
	}
	rep.ListCodes = len(index)
	for i := range merged {
		merged[i] = occupation.Enrich(index.Apply(merged[i]), a.tables)
	}
	sort.SliceStable(merged, func(i, j int) bool { return merged[i].Key() < merged[j].Key() })
	rep.Records = merged

	span.SetAttributes(
		attribute.String("primary", rep.Primary),
		attribute.Int("records", len(merged)),
		attribute.Bool("fallback", rep.UsedFallback),
	)
	a.logger.Info("[Aggregator] dataset fetched",
		zap.String("primary", rep.Primary),
		zap.Int("records", len(merged)),
		zap.Bool("fallback", rep.UsedFallback),
		zap.Int("list_codes", rep.ListCodes),
	)
	return rep, nil
}
