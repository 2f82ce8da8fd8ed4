// Package handlers serves the task tracker pages. Handlers only translate
// between HTTP and the services; every rule lives in internal/service.
package handlers

import (
	"context"
	"errors"

	"github.com/gofiber/fiber/v2"

	"tasktracker/internal/models"
	"tasktracker/internal/service"
	"tasktracker/internal/sessions"
	"tasktracker/pkg/logger"
)

type AccountService interface {
	Register(ctx context.Context, in service.RegisterInput) (*models.User, error)
	Login(ctx context.Context, in service.LoginInput) (*models.User, error)
	Identify(ctx context.Context, userID uint) (models.Identity, error)
}

type TaskService interface {
	List(ctx context.Context, owner models.Identity, rawDate, status string) (*service.Listing, error)
	Create(ctx context.Context, owner models.Identity, in service.TaskInput) (*models.Task, error)
	Get(ctx context.Context, owner models.Identity, id uint) (*models.Task, error)
	Update(ctx context.Context, owner models.Identity, id uint, in service.TaskInput) (*models.Task, error)
	Toggle(ctx context.Context, owner models.Identity, id uint) (*models.Task, error)
	Reschedule(ctx context.Context, owner models.Identity, id uint, rawDate string) (*models.Task, error)
	Delete(ctx context.Context, owner models.Identity, id uint) error
}

type Pinger interface {
	Ping(ctx context.Context) error
}

type Handler struct {
	accounts AccountService
	tasks    TaskService
	db       Pinger
	sessions *sessions.Manager
	log      *logger.Loggers
}

func New(accounts AccountService, tasks TaskService, db Pinger, sm *sessions.Manager, log *logger.Loggers) *Handler {
	return &Handler{accounts: accounts, tasks: tasks, db: db, sessions: sm, log: log}
}

// render draws view inside the main layout with the pending flashes and the
// current user, if any.
func (h *Handler) render(c *fiber.Ctx, view string, user *models.Identity, data fiber.Map) error {
	sess, err := h.sessions.From(c)
	if err != nil {
		return err
	}
	if data == nil {
		data = fiber.Map{}
	}
	data["Flashes"] = sess.Flashes()
	data["User"] = user
	return c.Render(view, data, "layouts/main")
}

// redirect queues a flash and sends the browser to path.
func (h *Handler) redirect(c *fiber.Ctx, category, message, path string) error {
	sess, err := h.sessions.From(c)
	if err != nil {
		return err
	}
	sess.AddFlash(category, message)
	return c.Redirect(path)
}

// fail turns a service error into the response the user sees. back is the
// form to return to for bad input; denied is the message for another user's
// task.
func (h *Handler) fail(c *fiber.Ctx, err error, back, denied string) error {
	var verr *service.ValidationError
	var cerr *service.ConflictError
	switch {
	case errors.As(err, &verr):
		return h.redirect(c, sessions.CategoryWarning, verr.Message, back)
	case errors.As(err, &cerr):
		return h.redirect(c, sessions.CategoryDanger, cerr.Message, back)
	case errors.Is(err, service.ErrForbidden):
		return h.redirect(c, sessions.CategoryDanger, denied, "/home")
	case errors.Is(err, service.ErrTaskNotFound):
		return fiber.ErrNotFound
	default:
		return err
	}
}

// taskID reads the :task_id route parameter. Anything that is not a
// positive integer cannot name a task.
func taskID(c *fiber.Ctx) (uint, error) {
	id, err := c.ParamsInt("task_id")
	if err != nil || id <= 0 {
		return 0, fiber.ErrNotFound
	}
	return uint(id), nil
}
