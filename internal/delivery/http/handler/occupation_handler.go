package handler

import (
	"context"

	"anzsco-lookup/internal/pkg/response"
	"anzsco-lookup/internal/search"
	"anzsco-lookup/internal/usecase"

	"github.com/gofiber/fiber/v3"
)

// Freshener triggers a background dataset refresh when the data is stale.
type Freshener interface {
	EnsureFresh(ctx context.Context) bool
}

type OccupationHandler struct {
	uc    usecase.SearchUsecase
	fresh Freshener
}

func NewOccupationHandler(uc usecase.SearchUsecase, fresh Freshener) *OccupationHandler {
	return &OccupationHandler{uc: uc, fresh: fresh}
}

func (h *OccupationHandler) RegisterRoutes(r fiber.Router) {
	if r == nil {
		return
	}

	r.Get("/search", h.Search)
	r.Get("/suggest", h.Suggest)
	r.Get("/popular", h.Popular)
	r.Get("/categories", h.Categories)
	r.Get("/category/:category", h.ByCategory)
	r.Get("/:code", h.Get)
}

func (h *OccupationHandler) Search(c fiber.Ctx) error {
	opts, err := searchOptions(c)
	if err != nil {
		return badRequest(err)
	}
	if h.fresh != nil {
		h.fresh.EnsureFresh(c.Context())
	}

	out, err := h.uc.Search(c.Context(), usecase.SearchInput{
		Query:    c.Query("q"),
		ClientID: clientID(c),
		Options:  opts,
	})
	if err != nil {
		return mapUsecaseError(err)
	}
	return response.OK(c, out)
}

func searchOptions(c fiber.Ctx) (search.Options, error) {
	opts := search.DefaultOptions()
	var err error
	if opts.MaxResults, err = parseQueryIntStrict(c, "limit", opts.MaxResults); err != nil {
		return opts, err
	}
	if opts.Grouping, err = parseQueryBool(c, "grouping", opts.Grouping); err != nil {
		return opts, err
	}
	if opts.Scoring, err = parseQueryBool(c, "scoring", opts.Scoring); err != nil {
		return opts, err
	}
	if opts.Filtering, err = parseQueryBool(c, "filtering", opts.Filtering); err != nil {
		return opts, err
	}
	return opts, nil
}

func (h *OccupationHandler) Suggest(c fiber.Ctx) error {
	limit, err := parseQueryIntStrict(c, "limit", search.DefaultSuggestLimit)
	if err != nil {
		return badRequest(err)
	}
	return response.OK(c, h.uc.Suggest(c.Context(), c.Query("q"), limit))
}

func (h *OccupationHandler) Popular(c fiber.Ctx) error {
	limit, err := parseQueryIntStrict(c, "limit", 20)
	if err != nil {
		return badRequest(err)
	}
	return response.OK(c, h.uc.Popular(c.Context(), limit))
}

func (h *OccupationHandler) Categories(c fiber.Ctx) error {
	return response.OK(c, h.uc.Categories(c.Context()))
}

func (h *OccupationHandler) ByCategory(c fiber.Ctx) error {
	items, err := h.uc.ByCategory(c.Context(), pathParam(c, "category"))
	if err != nil {
		return mapUsecaseError(err)
	}
	return response.OK(c, items)
}

func (h *OccupationHandler) Get(c fiber.Ctx) error {
	item, err := h.uc.Get(c.Context(), pathParam(c, "code"))
	if err != nil {
		return mapUsecaseError(err)
	}
	return response.OK(c, item)
}
