// Package web assembles the fiber application: view engine, middleware and
// routes.
package web

import (
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/template/html/v2"

	"tasktracker/internal/config"
	"tasktracker/internal/middleware"
	"tasktracker/internal/web/handlers"
	"tasktracker/pkg/database"
	"tasktracker/views"
)

// NewApp builds the application over deps. It does not start listening.
func NewApp(deps *config.Dependencies) *fiber.App {
	engine := html.NewFileSystem(http.FS(views.FS), ".html")

	app := fiber.New(fiber.Config{
		Views:        engine,
		ErrorHandler: middleware.ErrorPage(deps.Loggers),
	})

	// Middleware
	app.Use(middleware.ErrorHandler(deps.Loggers))
	if deps.RateLimitMax > 0 {
		limitCfg := limiter.Config{
			Max:        deps.RateLimitMax,
			Expiration: 1 * time.Minute,
		}
		if deps.Redis != nil {
			limitCfg.Storage = database.NewRedisStorage(deps.Redis, "limiter:")
		}
		app.Use(limiter.New(limitCfg))
	}
	app.Use(deps.Sessions.Middleware())

	h := handlers.New(deps.Accounts, deps.Tasks, deps.Repo, deps.Sessions, deps.Loggers)
	auth := middleware.NewAuthenticator(deps.Sessions, deps.Accounts, deps.Loggers, "/login")
	RegisterRoutes(app, h, auth)

	return app
}
