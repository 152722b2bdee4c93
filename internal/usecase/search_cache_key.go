package usecase

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"strings"

	"anzsco-lookup/internal/search"
)

const (
	DatasetCacheKey      = "occupations:dataset"
	DatasetRefreshLock   = "occupations:refresh:lock"
	searchCachePrefix    = "occupations:search:"
	searchHistoryPrefix  = "occupations:history:"
	anonymousHistoryUser = "anonymous"
)

type searchCacheKeyInput struct {
	Query      string `json:"query"`
	MaxResults int    `json:"max_results"`
	Grouping   bool   `json:"grouping"`
	Scoring    bool   `json:"scoring"`
	Filtering  bool   `json:"filtering"`
}

func normalizeSearchValue(s string) string {
	s = strings.TrimSpace(s)
	s = strings.ToLower(s)
	s = strings.Join(strings.Fields(s), " ")
	return s
}

// SearchCacheKey identifies a processed result set by its normalized query
// and processing options.
func SearchCacheKey(query string, opts search.Options) string {
	in := searchCacheKeyInput{
		Query:      normalizeSearchValue(query),
		MaxResults: opts.MaxResults,
		Grouping:   opts.Grouping,
		Scoring:    opts.Scoring,
		Filtering:  opts.Filtering,
	}
	b, _ := json.Marshal(in)
	sum := sha256.Sum256(b)
	return searchCachePrefix + hex.EncodeToString(sum[:])
}

func SearchCachePattern() string {
	return searchCachePrefix + "*"
}

func HistoryKey(clientID string) string {
	clientID = normalizeSearchValue(clientID)
	if clientID == "" {
		clientID = anonymousHistoryUser
	}
	return searchHistoryPrefix + clientID
}
