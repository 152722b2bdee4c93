package source

import (
	"context"
	"fmt"
	"net"
	"net/url"
	"regexp"
	"strings"
	"time"

	"anzsco-lookup/internal/domain/occupation"

	"github.com/gocolly/colly/v2"
	"go.uber.org/zap"
)

const DefaultListsURL = "https://immi.homeaffairs.gov.au/visas/working-in-australia/skill-occupation-list"

var listCodeRe = regexp.MustCompile(`\b(\d{6})\b`)

type ListFlags struct {
	MLTSSL bool `json:"mltssl"`
	STSOL  bool `json:"stsol"`
	ROL    bool `json:"rol"`
}

// ListIndex maps ANZSCO codes to their skilled occupation list membership.
type ListIndex map[string]ListFlags

// Apply overwrites the list flags of r when the index knows its code.
func (idx ListIndex) Apply(r occupation.Record) occupation.Record {
	f, ok := idx[r.Key()]
	if !ok {
		return r
	}
	r.MLTSSL, r.STSOL, r.ROL = f.MLTSSL, f.STSOL, f.ROL
	return r
}

type ListProvider interface {
	Lists(ctx context.Context) (ListIndex, error)
}

// HomeAffairsLists scrapes the published skilled occupation list tables.
type HomeAffairsLists struct {
	url         string
	allowedHost string
	timeout     time.Duration
	logger      *zap.Logger
}

func NewHomeAffairsLists(pageURL string, logger *zap.Logger) *HomeAffairsLists {
	pageURL = strings.TrimSpace(pageURL)
	if pageURL == "" {
		pageURL = DefaultListsURL
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &HomeAffairsLists{
		url:         pageURL,
		allowedHost: hostOf(pageURL),
		timeout:     30 * time.Second,
		logger:      logger,
	}
}

func (h *HomeAffairsLists) Lists(ctx context.Context) (ListIndex, error) {
	if h == nil {
		return ListIndex{}, nil
	}
	ctx, span := tracer.Start(ctx, "HomeAffairsLists.Lists")
	defer span.End()

	c := colly.NewCollector(colly.AllowedDomains(h.allowedHost))
	c.SetRequestTimeout(h.timeout)
	_ = c.Limit(&colly.LimitRule{DomainGlob: "*", Parallelism: 1, Delay: 250 * time.Millisecond})

	idx := ListIndex{}
	c.OnHTML("tr", func(e *colly.HTMLElement) {
		var code string
		var lists []string
		e.ForEach("td", func(_ int, td *colly.HTMLElement) {
			text := strings.TrimSpace(td.Text)
			if code == "" {
				if m := listCodeRe.FindStringSubmatch(text); m != nil {
					code = m[1]
					return
				}
			}
			lists = append(lists, strings.ToUpper(text))
		})
		if code == "" {
			return
		}
		f := idx[code]
		for _, l := range lists {
			f.MLTSSL = f.MLTSSL || strings.Contains(l, "MLTSSL")
			f.STSOL = f.STSOL || strings.Contains(l, "STSOL")
			f.ROL = f.ROL || containsWord(l, "ROL")
		}
		if f.MLTSSL || f.STSOL || f.ROL {
			idx[code] = f
		}
	})

	var reqErr error
	c.OnError(func(r *colly.Response, err error) {
		reqErr = err
	})
	c.OnRequest(func(r *colly.Request) {
		r.Headers.Set("User-Agent", defaultUserAgent)
		r.Headers.Set("Accept-Language", "en-AU,en;q=0.9")
	})

	if ctx.Err() != nil {
		return nil, ctx.Err()
	}
	if err := c.Visit(h.url); err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("visit occupation lists: %w", err)
	}
	c.Wait()
	if reqErr != nil {
		span.RecordError(reqErr)
		return nil, fmt.Errorf("scrape occupation lists: %w", reqErr)
	}

	h.logger.Info("[Lists] occupation lists scraped", zap.Int("codes", len(idx)))
	return idx, nil
}

func containsWord(s, word string) bool {
	for _, f := range strings.FieldsFunc(s, func(r rune) bool {
		return !(r >= 'A' && r <= 'Z')
	}) {
		if f == word {
			return true
		}
	}
	return false
}

func hostOf(raw string) string {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil || u.Host == "" {
		return "immi.homeaffairs.gov.au"
	}
	if h, _, err := net.SplitHostPort(u.Host); err == nil {
		return h
	}
	return u.Host
}
