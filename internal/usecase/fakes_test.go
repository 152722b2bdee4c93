package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"time"

	"anzsco-lookup/internal/domain/occupation"
	"anzsco-lookup/internal/source"
)

// memCache is an in-memory Cache and HistoryStore.
type memCache struct {
	mu    sync.Mutex
	kv    map[string][]byte
	lists map[string][]string
}

func newMemCache() *memCache {
	return &memCache{kv: map[string][]byte{}, lists: map[string][]string{}}
}

func (m *memCache) GetJSON(_ context.Context, key string, out any) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.kv[key]
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal(b, out)
}

func (m *memCache) SetJSON(_ context.Context, key string, value any, _ time.Duration) error {
	b, err := json.Marshal(value)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.kv[key] = b
	return nil
}

func (m *memCache) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.kv, key)
	delete(m.lists, key)
	return nil
}

func (m *memCache) DeleteByPattern(_ context.Context, pattern string) error {
	prefix := strings.TrimSuffix(pattern, "*")
	m.mu.Lock()
	defer m.mu.Unlock()
	for k := range m.kv {
		if strings.HasPrefix(k, prefix) {
			delete(m.kv, k)
		}
	}
	return nil
}

func (m *memCache) SetIfNotExists(_ context.Context, key, value string, _ time.Duration) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.kv[key]; ok {
		return false, nil
	}
	m.kv[key] = []byte(value)
	return true, nil
}

func (m *memCache) has(key string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.kv[key]
	return ok
}

func (m *memCache) PushUnique(_ context.Context, key, value string, max int, _ time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	list := []string{value}
	for _, v := range m.lists[key] {
		if v != value {
			list = append(list, v)
		}
	}
	if len(list) > max {
		list = list[:max]
	}
	m.lists[key] = list
	return nil
}

func (m *memCache) ListRange(_ context.Context, key string, max int) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	list := m.lists[key]
	if max > 0 && len(list) > max {
		list = list[:max]
	}
	return append([]string(nil), list...), nil
}

func (m *memCache) ListRemove(_ context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := m.lists[key][:0]
	for _, v := range m.lists[key] {
		if v != value {
			out = append(out, v)
		}
	}
	m.lists[key] = out
	return nil
}

type stubFetcher struct {
	report  source.Report
	err     error
	started chan struct{}
	release chan struct{}

	mu    sync.Mutex
	calls int
}

func (s *stubFetcher) Fetch(ctx context.Context) (source.Report, error) {
	s.mu.Lock()
	s.calls++
	s.mu.Unlock()
	if s.started != nil {
		s.started <- struct{}{}
	}
	if s.release != nil {
		select {
		case <-s.release:
		case <-ctx.Done():
			return source.Report{}, ctx.Err()
		}
	}
	return s.report, s.err
}

func (s *stubFetcher) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

type memSnapshots struct {
	mu      sync.Mutex
	records []occupation.Record
	at      time.Time
	saves   int
}

func (m *memSnapshots) Save(_ context.Context, records []occupation.Record, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records, m.at = records, at
	m.saves++
	return nil
}

func (m *memSnapshots) Load(context.Context) ([]occupation.Record, time.Time, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.records) == 0 {
		return nil, time.Time{}, errors.New("no snapshot")
	}
	return m.records, m.at, nil
}

type sentEvent struct {
	name    string
	payload any
}

type recordingNotifier struct {
	mu     sync.Mutex
	events []sentEvent
}

func (n *recordingNotifier) Notify(event string, payload any) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, sentEvent{name: event, payload: payload})
}

func (n *recordingNotifier) names() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]string, 0, len(n.events))
	for _, e := range n.events {
		out = append(out, e.name)
	}
	return out
}

type staticReader []occupation.Record

func (s staticReader) Snapshot() []occupation.Record { return s }

func sampleRecord(code, name string, cat occupation.Category, authority string, visas ...string) occupation.Record {
	r := occupation.Record{Code: code, AnzscoCode: code, EnglishName: name, Category: cat}
	r.SkillLevel = 1
	r.MLTSSL = true
	r.VisaSubclasses = visas
	r.AssessmentAuthority = authority
	r.DataSources = []string{occupation.SourceImmigration}
	r.LastUpdated = time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC)
	return r
}

func sampleRecords() []occupation.Record {
	swe := sampleRecord("261313", "Software Engineer", occupation.CategoryICT, "ACS", "189", "190")
	swe.Description = "Designs and maintains software systems."
	swe.IsPopular = true
	return []occupation.Record{
		swe,
		sampleRecord("261312", "Developer Programmer", occupation.CategoryICT, "ACS", "189"),
		sampleRecord("233211", "Civil Engineer", occupation.CategoryEngineering, "Engineers Australia", "189", "190", "491"),
	}
}
