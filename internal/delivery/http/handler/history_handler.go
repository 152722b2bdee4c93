package handler

import (
	"anzsco-lookup/internal/pkg/response"
	"anzsco-lookup/internal/usecase"

	"github.com/gofiber/fiber/v3"
)

type HistoryHandler struct {
	uc usecase.HistoryUsecase
}

func NewHistoryHandler(uc usecase.HistoryUsecase) *HistoryHandler {
	return &HistoryHandler{uc: uc}
}

func (h *HistoryHandler) RegisterRoutes(r fiber.Router) {
	if r == nil {
		return
	}

	r.Get("/", h.List)
	r.Delete("/", h.Clear)
	r.Delete("/:keyword", h.Remove)
}

func (h *HistoryHandler) List(c fiber.Ctx) error {
	items, err := h.uc.List(c.Context(), clientID(c))
	if err != nil {
		return mapUsecaseError(err)
	}
	return response.OK(c, items)
}

func (h *HistoryHandler) Clear(c fiber.Ctx) error {
	if err := h.uc.Clear(c.Context(), clientID(c)); err != nil {
		return mapUsecaseError(err)
	}
	return response.OK(c, nil)
}

func (h *HistoryHandler) Remove(c fiber.Ctx) error {
	if err := h.uc.Remove(c.Context(), clientID(c), pathParam(c, "keyword")); err != nil {
		return mapUsecaseError(err)
	}
	return response.OK(c, nil)
}
