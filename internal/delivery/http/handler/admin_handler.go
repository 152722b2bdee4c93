package handler

import (
	"anzsco-lookup/internal/pkg/response"
	"anzsco-lookup/internal/usecase"

	"github.com/gofiber/fiber/v3"
)

// AdminHandler exposes dataset maintenance to authenticated operators.
type AdminHandler struct {
	dataset usecase.DatasetUsecase
}

func NewAdminHandler(dataset usecase.DatasetUsecase) *AdminHandler {
	return &AdminHandler{dataset: dataset}
}

func (h *AdminHandler) RegisterRoutes(r fiber.Router) {
	if r == nil {
		return
	}

	r.Post("/dataset/refresh", h.Refresh)
	r.Get("/dataset/status", h.Status)
	r.Delete("/cache", h.ClearCache)
}

func (h *AdminHandler) Refresh(c fiber.Ctx) error {
	res, err := h.dataset.Refresh(c.Context())
	if err != nil {
		return mapUsecaseError(err)
	}
	return response.OK(c, res)
}

func (h *AdminHandler) Status(c fiber.Ctx) error {
	return response.OK(c, h.dataset.Status(c.Context()))
}

func (h *AdminHandler) ClearCache(c fiber.Ctx) error {
	if err := h.dataset.ClearCache(c.Context()); err != nil {
		return mapUsecaseError(err)
	}
	return response.OK(c, nil)
}
