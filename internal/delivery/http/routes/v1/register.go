package v1

import (
	"anzsco-lookup/internal/delivery/http/handler"
	"anzsco-lookup/internal/delivery/http/middleware"

	"github.com/gofiber/fiber/v3"
)

type Handlers struct {
	Health      *handler.HealthHandler
	Occupations *handler.OccupationHandler
	History     *handler.HistoryHandler
	Quality     *handler.QualityHandler
	Auth        *handler.AuthHandler
	Admin       *handler.AdminHandler
	AuthMw      *middleware.AuthMiddleware
}

func Register(r fiber.Router, h Handlers) {
	if r == nil {
		return
	}

	if h.Health != nil {
		h.Health.RegisterRoutes(r)
	}
	if h.Occupations != nil {
		h.Occupations.RegisterRoutes(r.Group("/occupations"))
	}
	if h.History != nil {
		h.History.RegisterRoutes(r.Group("/history"))
	}
	if h.Quality != nil {
		h.Quality.RegisterRoutes(r.Group("/quality"))
	}
	if h.Auth != nil {
		h.Auth.RegisterRoutes(r.Group("/auth"))
	}
	if h.Admin != nil && h.AuthMw != nil {
		h.Admin.RegisterRoutes(r.Group("/admin", h.AuthMw.Middleware()))
	}
}
