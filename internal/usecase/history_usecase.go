package usecase

import (
	"context"
	"time"

	"go.uber.org/zap"
)

const (
	DefaultHistoryMax = 10
	historyTTL        = 30 * 24 * time.Hour
)

type HistoryUsecase interface {
	List(ctx context.Context, clientID string) ([]string, error)
	Remove(ctx context.Context, clientID, keyword string) error
	Clear(ctx context.Context, clientID string) error
}

// History keeps the most recent distinct search keywords per client.
type History struct {
	store  HistoryStore
	max    int
	logger *zap.Logger
}

func NewHistoryUsecase(store HistoryStore, max int, logger *zap.Logger) *History {
	if max <= 0 {
		max = DefaultHistoryMax
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &History{store: store, max: max, logger: logger}
}

// Add moves keyword to the front of the client's history.
func (h *History) Add(ctx context.Context, clientID, keyword string) error {
	keyword = normalizeSearchValue(keyword)
	if keyword == "" {
		return ErrInvalidInput
	}
	if h == nil || h.store == nil {
		return nil
	}
	return h.store.PushUnique(ctx, HistoryKey(clientID), keyword, h.max, historyTTL)
}

func (h *History) List(ctx context.Context, clientID string) ([]string, error) {
	if h == nil || h.store == nil {
		return []string{}, nil
	}
	out, err := h.store.ListRange(ctx, HistoryKey(clientID), h.max)
	if err != nil {
		return nil, err
	}
	if out == nil {
		out = []string{}
	}
	return out, nil
}

func (h *History) Remove(ctx context.Context, clientID, keyword string) error {
	keyword = normalizeSearchValue(keyword)
	if keyword == "" {
		return ErrInvalidInput
	}
	if h == nil || h.store == nil {
		return nil
	}
	return h.store.ListRemove(ctx, HistoryKey(clientID), keyword)
}

func (h *History) Clear(ctx context.Context, clientID string) error {
	if h == nil || h.store == nil {
		return nil
	}
	return h.store.Delete(ctx, HistoryKey(clientID))
}
