package handler

import (
	"anzsco-lookup/internal/domain/occupation"
	"anzsco-lookup/internal/pkg/response"
	"anzsco-lookup/internal/usecase"

	"github.com/gofiber/fiber/v3"
)

type QualityHandler struct {
	uc usecase.QualityUsecase
}

type validateRequest struct {
	Items []occupation.Record `json:"items"`
}

func NewQualityHandler(uc usecase.QualityUsecase) *QualityHandler {
	return &QualityHandler{uc: uc}
}

func (h *QualityHandler) RegisterRoutes(r fiber.Router) {
	if r == nil {
		return
	}

	r.Get("/report", h.Report)
	r.Post("/validate", h.Validate)
	r.Get("/item/:code", h.Item)
}

func (h *QualityHandler) Report(c fiber.Ctx) error {
	return response.OK(c, h.uc.Report(c.Context()))
}

func (h *QualityHandler) Validate(c fiber.Ctx) error {
	var req validateRequest
	if err := c.Bind().Body(&req); err != nil {
		return badRequest(err)
	}

	report, err := h.uc.Validate(c.Context(), req.Items)
	if err != nil {
		return mapUsecaseError(err)
	}
	return response.OK(c, report)
}

func (h *QualityHandler) Item(c fiber.Ctx) error {
	item, err := h.uc.Item(c.Context(), pathParam(c, "code"))
	if err != nil {
		return mapUsecaseError(err)
	}
	return response.OK(c, item)
}
