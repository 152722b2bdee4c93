package usecase

import (
	"context"
	"strings"
	"time"

	"anzsco-lookup/internal/domain/occupation"
	"anzsco-lookup/internal/search"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

const (
	DefaultSearchCacheTTL = 10 * time.Minute
	maxQueryLength        = 100
)

// DatasetReader exposes the records currently served.
type DatasetReader interface {
	Snapshot() []occupation.Record
}

type SearchUsecase interface {
	Search(ctx context.Context, in SearchInput) (SearchOutput, error)
	Suggest(ctx context.Context, query string, limit int) []search.Suggestion
	Popular(ctx context.Context, limit int) []occupation.Record
	Categories(ctx context.Context) []search.CategoryCount
	ByCategory(ctx context.Context, category string) ([]occupation.Record, error)
	Get(ctx context.Context, code string) (occupation.Record, error)
}

type SearchInput struct {
	Query    string
	ClientID string
	Options  search.Options
}

type SearchOutput struct {
	search.Response
	Query  search.QueryContext `json:"query"`
	Cached bool                `json:"cached"`
}

type Search struct {
	data       DatasetReader
	processor  *search.Processor
	cache      Cache
	history    *History
	cacheTTL   time.Duration
	maxResults int
	logger     *zap.Logger
}

func NewSearchUsecase(data DatasetReader, processor *search.Processor, cache Cache, history *History, cacheTTL time.Duration, maxResults int, logger *zap.Logger) *Search {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cacheTTL <= 0 {
		cacheTTL = DefaultSearchCacheTTL
	}
	if maxResults <= 0 {
		maxResults = search.DefaultMaxResults
	}
	return &Search{
		data:       data,
		processor:  processor,
		cache:      cache,
		history:    history,
		cacheTTL:   cacheTTL,
		maxResults: maxResults,
		logger:     logger,
	}
}

// Search expands the query with synonyms, collects candidates for every
// variant and ranks them. When nothing matches, the first word of the query
// is tried on its own. Results are cached per normalized query and options.
func (u *Search) Search(ctx context.Context, in SearchInput) (SearchOutput, error) {
	if u == nil || u.data == nil || u.processor == nil {
		return SearchOutput{}, ErrInternal
	}
	raw := strings.TrimSpace(in.Query)
	if raw == "" || len([]rune(raw)) > maxQueryLength {
		return SearchOutput{}, ErrInvalidInput
	}
	qc := search.ProcessQuery(raw)
	if qc.Normalized == "" {
		return SearchOutput{}, ErrInvalidInput
	}

	opts := in.Options
	if opts.MaxResults <= 0 || opts.MaxResults > u.maxResults {
		opts.MaxResults = u.maxResults
	}

	ctx, span := tracer.Start(ctx, "search.occupations")
	defer span.End()
	span.SetAttributes(attribute.String("query", qc.Normalized))

	u.recordHistory(ctx, in.ClientID, qc.Normalized)

	key := SearchCacheKey(qc.Normalized, opts)
	if u.cache != nil {
		var cached SearchOutput
		ok, err := u.cache.GetJSON(ctx, key, &cached)
		if err == nil && ok {
			cached.Cached = true
			span.SetAttributes(attribute.Bool("cached", true))
			return cached, nil
		}
	}

	candidates := collectCandidates(u.data.Snapshot(), qc)
	resp := u.processor.ProcessRecords(candidates, raw, opts)
	out := SearchOutput{Response: resp, Query: qc}

	span.SetAttributes(
		attribute.Int("candidates", len(candidates)),
		attribute.Int("returned", resp.Metadata.TotalReturned),
	)
	u.logger.Debug("[Search] processed",
		zap.String("keyword", qc.Normalized),
		zap.Int("candidates", len(candidates)),
		zap.Int("returned", resp.Metadata.TotalReturned),
	)

	if u.cache != nil {
		if err := u.cache.SetJSON(ctx, key, out, u.cacheTTL); err != nil {
			u.logger.Warn("[Search] cache write failed", zap.String("keyword", qc.Normalized), zap.Error(err))
		}
	}
	return out, nil
}

func (u *Search) recordHistory(ctx context.Context, clientID, keyword string) {
	if u.history == nil || strings.TrimSpace(clientID) == "" {
		return
	}
	if err := u.history.Add(ctx, clientID, keyword); err != nil {
		u.logger.Warn("[Search] history write failed", zap.String("keyword", keyword), zap.Error(err))
	}
}

func collectCandidates(records []occupation.Record, qc search.QueryContext) []occupation.Record {
	out := make([]occupation.Record, 0)
	seen := make(map[string]struct{})
	add := func(rs []occupation.Record) {
		for _, r := range rs {
			k := r.Key()
			if _, ok := seen[k]; ok {
				continue
			}
			seen[k] = struct{}{}
			out = append(out, r)
		}
	}

	for _, v := range qc.Variants {
		add(search.FilterCandidates(records, v))
	}
	if len(out) == 0 {
		if w := search.FallbackFirstWord(qc.Normalized); w != "" && w != qc.Normalized {
			add(search.FilterCandidates(records, w))
		}
	}
	return out
}

func (u *Search) Suggest(_ context.Context, query string, limit int) []search.Suggestion {
	if u == nil || u.data == nil {
		return []search.Suggestion{}
	}
	return search.Suggest(u.data.Snapshot(), query, limit)
}

func (u *Search) Popular(_ context.Context, limit int) []occupation.Record {
	if u == nil || u.data == nil {
		return []occupation.Record{}
	}
	return search.Popular(u.data.Snapshot(), limit)
}

func (u *Search) Categories(_ context.Context) []search.CategoryCount {
	if u == nil || u.data == nil {
		return []search.CategoryCount{}
	}
	return search.Categories(u.data.Snapshot())
}

func (u *Search) ByCategory(_ context.Context, category string) ([]occupation.Record, error) {
	if strings.TrimSpace(category) == "" {
		return nil, ErrInvalidInput
	}
	if u == nil || u.data == nil {
		return []occupation.Record{}, nil
	}
	return search.ByCategory(u.data.Snapshot(), category), nil
}

func (u *Search) Get(_ context.Context, code string) (occupation.Record, error) {
	code = strings.TrimSpace(code)
	if !occupation.ValidCode(code) {
		return occupation.Record{}, ErrInvalidInput
	}
	if u == nil || u.data == nil {
		return occupation.Record{}, ErrNotFound
	}
	r, ok := search.FindByCode(u.data.Snapshot(), code)
	if !ok {
		return occupation.Record{}, ErrNotFound
	}
	return r, nil
}
