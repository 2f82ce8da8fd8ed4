package web

import (
	"github.com/gofiber/fiber/v2"

	"tasktracker/internal/middleware"
	"tasktracker/internal/web/handlers"
)

func RegisterRoutes(app *fiber.App, h *handlers.Handler, auth *middleware.Authenticator) {
	app.Get("/healthz", h.Health)

	// Public
	app.Get("/", h.Landing)
	app.Get("/register", h.RegisterPage)
	app.Post("/register", h.Register)
	app.Get("/login", h.LoginPage)
	app.Post("/login", h.Login)

	// Session required
	app.Get("/home", auth.Require(h.Home))
	app.Get("/logout", auth.Require(h.Logout))

	// Task
	app.Get("/add-task-page", auth.Require(h.AddTaskPage))
	app.Post("/add_task", auth.Require(h.AddTask))
	app.Get("/edit/:task_id", auth.Require(h.EditPage))
	app.Post("/edit/:task_id", auth.Require(h.Edit))
	app.Post("/delete/:task_id", auth.Require(h.Delete))
	app.Post("/complete/:task_id", auth.Require(h.Complete))
	app.Get("/reschedule/:task_id", auth.Require(h.ReschedulePage))
	app.Post("/reschedule/:task_id", auth.Require(h.Reschedule))
}
