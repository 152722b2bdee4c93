package handler

import (
	"context"
	"time"

	"anzsco-lookup/internal/pkg/response"
	"anzsco-lookup/internal/usecase"

	"github.com/gofiber/fiber/v3"
)

const (
	componentUp       = "up"
	componentDown     = "down"
	componentDisabled = "disabled"
)

type Pinger interface {
	Ping(ctx context.Context) error
}

type DatasetStatusReader interface {
	Status(ctx context.Context) usecase.DatasetStatus
}

type HealthHandler struct {
	db      Pinger
	cache   Pinger
	dataset DatasetStatusReader
}

type healthResponse struct {
	Status  string            `json:"status"`
	Checks  map[string]string `json:"checks"`
	Records int               `json:"records"`
	Origin  string            `json:"origin,omitempty"`
	Stale   bool              `json:"stale"`
	Uptime  string            `json:"uptime"`
	Checked time.Time         `json:"checkedAt"`
}

var startedAt = time.Now()

// NewHealthHandler accepts nil pingers for components that are not configured.
func NewHealthHandler(db, cache Pinger, dataset DatasetStatusReader) *HealthHandler {
	return &HealthHandler{db: db, cache: cache, dataset: dataset}
}

func (h *HealthHandler) RegisterRoutes(r fiber.Router) {
	if r == nil {
		return
	}
	r.Get("/health", h.Health)
}

// Health reports degraded rather than failing when a backing store is down;
// the service keeps answering from memory.
func (h *HealthHandler) Health(c fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.Context(), 2*time.Second)
	defer cancel()

	out := healthResponse{
		Status: "ok",
		Checks: map[string]string{
			"database": ping(ctx, h.db),
			"cache":    ping(ctx, h.cache),
		},
		Uptime:  time.Since(startedAt).Round(time.Second).String(),
		Checked: time.Now().UTC(),
	}
	if h.dataset != nil {
		st := h.dataset.Status(ctx)
		out.Records = st.RecordCount
		out.Origin = st.Origin
		out.Stale = st.Stale
	}
	for _, v := range out.Checks {
		if v == componentDown {
			out.Status = "degraded"
		}
	}
	if out.Records == 0 {
		out.Status = "degraded"
	}
	return response.OK(c, out)
}

func ping(ctx context.Context, p Pinger) string {
	if p == nil {
		return componentDisabled
	}
	if err := p.Ping(ctx); err != nil {
		return componentDown
	}
	return componentUp
}
