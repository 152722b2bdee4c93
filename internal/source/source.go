package source

import (
	"context"
	"errors"
	"strings"
	"time"

	"anzsco-lookup/internal/domain/occupation"

	"github.com/go-resty/resty/v2"
	"go.opentelemetry.io/otel"
)

var tracer = otel.Tracer("anzsco-lookup/internal/source")

var (
	ErrCircuitOpen = errors.New("source circuit open")
	ErrBadStatus   = errors.New("unexpected upstream status")
)

// Source yields occupation records from one upstream. Sources that are not
// integrated return an empty list and no error.
type Source interface {
	Name() string
	Fetch(ctx context.Context) ([]occupation.Record, error)
}

const (
	defaultUserAgent = "ANZSCOLookup/1.0"
	defaultReferer   = "https://immi.homeaffairs.gov.au/"
	maxBodyBytes     = 8 << 20
)

type ClientOptions struct {
	Timeout       time.Duration
	RetryCount    int
	RetryWait     time.Duration
	RetryMaxWait  time.Duration
	UserAgent     string
	Referer       string
	Debug         bool
	DisableRetry  bool
	RetryOnStatus []int
}

func DefaultClientOptions() ClientOptions {
	return ClientOptions{
		Timeout:       30 * time.Second,
		RetryCount:    2,
		RetryWait:     time.Second,
		RetryMaxWait:  10 * time.Second,
		UserAgent:     defaultUserAgent,
		Referer:       defaultReferer,
		RetryOnStatus: []int{429, 500, 502, 503, 504},
	}
}

// NewHTTPClient builds the shared upstream client. RetryCount counts retries
// after the first attempt, so the default makes three attempts with
// exponential backoff starting at RetryWait.
func NewHTTPClient(opts ClientOptions) *resty.Client {
	c := resty.New()
	c.SetTimeout(opts.Timeout)
	ua := strings.TrimSpace(opts.UserAgent)
	if ua == "" {
		ua = defaultUserAgent
	}
	c.SetHeader("User-Agent", ua)
	if opts.Referer != "" {
		c.SetHeader("Referer", opts.Referer)
	}
	c.SetDebug(opts.Debug)
	if opts.DisableRetry {
		return c
	}

	c.SetRetryCount(opts.RetryCount)
	c.SetRetryWaitTime(opts.RetryWait)
	c.SetRetryMaxWaitTime(opts.RetryMaxWait)
	retryOn := map[int]struct{}{}
	for _, s := range opts.RetryOnStatus {
		retryOn[s] = struct{}{}
	}
	c.AddRetryCondition(func(r *resty.Response, err error) bool {
		if err != nil {
			return true
		}
		_, ok := retryOn[r.StatusCode()]
		return ok
	})
	return c
}

// Unintegrated is a named source without an upstream integration. It keeps
// the Source contract by returning an empty list.
type Unintegrated struct {
	name string
}

func NewUnintegrated(name string) Unintegrated {
	return Unintegrated{name: name}
}

func (u Unintegrated) Name() string { return u.name }

func (u Unintegrated) Fetch(ctx context.Context) ([]occupation.Record, error) {
	return []occupation.Record{}, nil
}

func mapAll(adapter occupation.Adapter, raws []occupation.Raw) []occupation.Record {
	out := make([]occupation.Record, 0, len(raws))
	for _, raw := range raws {
		r, err := adapter.Map(raw)
		if err != nil {
			continue
		}
		out = append(out, r)
	}
	return out
}
