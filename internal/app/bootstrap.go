package app

import (
	"context"
	"fmt"
	"strings"

	"anzsco-lookup/internal/config"
	"anzsco-lookup/internal/delivery/http/handler"
	"anzsco-lookup/internal/delivery/http/middleware"
	"anzsco-lookup/internal/delivery/http/routes"
	v1 "anzsco-lookup/internal/delivery/http/routes/v1"
	"anzsco-lookup/internal/ws"

	"github.com/gofiber/fiber/v3"
	"go.uber.org/zap"
)

type App struct {
	Fiber     *fiber.App
	Container *Container
}

func New(c *Container) *App {
	f := fiber.New(fiber.Config{
		AppName:     c.Config.App.Name,
		ReadTimeout: c.Config.HTTP.ReadTimeout,
	})

	registerGlobalMiddleware(f, c.Logger)
	registerRoutes(f, c)

	return &App{Fiber: f, Container: c}
}

// Bootstrap builds the container, loads the dataset and starts the
// background workers. The returned cleanup stops them in reverse order.
func Bootstrap(ctx context.Context, cfg config.Config, logger *zap.Logger) (*App, func(context.Context) error, error) {
	c, err := NewContainer(ctx, cfg, logger)
	if err != nil {
		return nil, nil, err
	}

	c.Dataset.Initialize(ctx)

	hubCtx, stopHub := context.WithCancel(context.Background())
	go c.Hub.Run(hubCtx)

	c.Scheduler.Start()
	c.Dataset.EnsureFresh(ctx)

	app := New(c)
	cleanup := func(ctx context.Context) error {
		c.Scheduler.Stop(ctx)
		stopHub()
		return c.Close(ctx)
	}
	return app, cleanup, nil
}

func registerGlobalMiddleware(app *fiber.App, logger *zap.Logger) {
	if app == nil {
		return
	}

	app.Use(middleware.NewAccessLogMiddleware(logger).Middleware())
	app.Use(middleware.NewErrorMiddleware(logger).Middleware())
}

func registerRoutes(app *fiber.App, c *Container) {
	if app == nil || c == nil {
		return
	}

	var db handler.Pinger
	if c.DB != nil {
		db = c.DB
	}
	handlers := v1.Handlers{
		Health:      handler.NewHealthHandler(db, c.Cache, c.Dataset),
		Occupations: handler.NewOccupationHandler(c.Search, c.Dataset),
		History:     handler.NewHistoryHandler(c.History),
		Quality:     handler.NewQualityHandler(c.Quality),
		Auth:        handler.NewAuthHandler(c.Auth),
		Admin:       handler.NewAdminHandler(c.Dataset),
		AuthMw:      middleware.NewAuthMiddleware(c.JWT),
	}
	routes.NewRegistry(handlers, ws.NewHandler(c.Hub, c.Logger)).Register(app)
}

func ListenAddr(port string) (string, error) {
	p := strings.TrimSpace(port)
	if p == "" {
		return "", fmt.Errorf("empty HTTP port")
	}
	if strings.HasPrefix(p, ":") {
		return p, nil
	}
	return ":" + p, nil
}
