package routes

import (
	v1 "anzsco-lookup/internal/delivery/http/routes/v1"
	"anzsco-lookup/internal/ws"

	"github.com/gofiber/fiber/v3"
)

type Registry struct {
	v1 v1.Handlers
	ws *ws.Handler
}

func NewRegistry(handlers v1.Handlers, wsHandler *ws.Handler) *Registry {
	return &Registry{v1: handlers, ws: wsHandler}
}

func (r *Registry) Register(app *fiber.App) {
	if app == nil || r == nil {
		return
	}

	r.registerHealth(app)
	r.registerWS(app)
	r.registerAPI(app)
}

func (r *Registry) registerHealth(app *fiber.App) {
	if r.v1.Health != nil {
		r.v1.Health.RegisterRoutes(app)
	}
}

func (r *Registry) registerWS(app *fiber.App) {
	if r.ws != nil {
		app.Get("/ws", r.ws.HandleEvents)
	}
}

func (r *Registry) registerAPI(app *fiber.App) {
	api := app.Group("/api")
	RegisterV1(api.Group("/v1"), r.v1)
}
