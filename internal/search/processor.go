package search

import (
	"time"

	"anzsco-lookup/internal/domain/occupation"
)

const DefaultMaxResults = 50

type Options struct {
	MaxResults int
	Grouping   bool
	Scoring    bool
	Filtering  bool
}

func DefaultOptions() Options {
	return Options{
		MaxResults: DefaultMaxResults,
		Grouping:   true,
		Scoring:    true,
		Filtering:  true,
	}
}

type Result struct {
	occupation.Record
	Score        int         `json:"score"`
	DisplayScore int         `json:"displayScore"`
	MatchType    MatchType   `json:"matchType,omitempty"`
	DisplayInfo  DisplayInfo `json:"displayInfo"`
}

type Metadata struct {
	TotalProcessed   int    `json:"totalProcessed"`
	TotalReturned    int    `json:"totalReturned"`
	SearchKeyword    string `json:"searchKeyword"`
	ProcessingTimeMs int64  `json:"processingTime"`
	HasMoreResults   bool   `json:"hasMoreResults"`
}

type Response struct {
	Results  []Result `json:"results"`
	Metadata Metadata `json:"metadata"`
}

type Processor struct {
	tables  occupation.Tables
	adapter occupation.Adapter
	now     func() time.Time
}

type ProcessorOption func(*Processor)

func WithClock(now func() time.Time) ProcessorOption {
	return func(p *Processor) {
		if now != nil {
			p.now = now
		}
	}
}

func NewProcessor(tables occupation.Tables, opts ...ProcessorOption) *Processor {
	p := &Processor{
		tables:  tables,
		adapter: occupation.MustAdapter(occupation.FormatCandidate, tables),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Process maps raw candidates and ranks them against query. Candidates that
// cannot be mapped are dropped.
func (p *Processor) Process(raw []occupation.Raw, query string, opts Options) Response {
	records := make([]occupation.Record, 0, len(raw))
	for _, item := range raw {
		r, err := p.adapter.Map(item)
		if err != nil {
			continue
		}
		records = append(records, r)
	}
	return p.run(records, len(raw), query, opts)
}

// ProcessRecords ranks already typed records.
func (p *Processor) ProcessRecords(records []occupation.Record, query string, opts Options) Response {
	kept := make([]occupation.Record, 0, len(records))
	for _, r := range records {
		if r.Key() == "" || r.EnglishName == "" {
			continue
		}
		kept = append(kept, r)
	}
	return p.run(kept, len(records), query, opts)
}

func (p *Processor) run(records []occupation.Record, total int, query string, opts Options) Response {
	start := time.Now()
	now := p.now()
	if opts.MaxResults <= 0 {
		opts.MaxResults = DefaultMaxResults
	}

	results := make([]Result, 0, len(records))
	for _, r := range records {
		results = append(results, Result{Record: p.normalize(r, now)})
	}

	if opts.Scoring {
		for i := range results {
			results[i].Score, results[i].MatchType = Score(results[i].Record, query, now)
			results[i].DisplayScore = results[i].Score
		}
	}
	if opts.Filtering {
		results = Deduplicate(results)
	}
	Rank(results)
	if opts.Grouping {
		results = Group(results)
	}

	hasMore := len(results) > opts.MaxResults
	if hasMore {
		results = results[:opts.MaxResults]
	}
	for i := range results {
		results[i].DisplayInfo = displayInfo(results[i], now)
	}

	return Response{
		Results: results,
		Metadata: Metadata{
			TotalProcessed:   total,
			TotalReturned:    len(results),
			SearchKeyword:    query,
			ProcessingTimeMs: time.Since(start).Milliseconds(),
			HasMoreResults:   hasMore,
		},
	}
}

func (p *Processor) normalize(r occupation.Record, now time.Time) occupation.Record {
	if r.DataQuality == 0 {
		r.DataQuality = AssessDataQuality(r)
	}
	out := occupation.Enrich(r, p.tables)
	if out.LastUpdated.IsZero() {
		out.LastUpdated = now
	}
	return out
}
