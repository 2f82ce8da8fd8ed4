package handlers

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"tasktracker/internal/models"
	"tasktracker/internal/service"
	"tasktracker/internal/sessions"
)

type taskForm struct {
	TaskText    string `form:"task_text"`
	Description string `form:"description"`
}

type rescheduleForm struct {
	NewDate string `form:"new_date"`
}

// Home lists the user's tasks for ?date= (default today), optionally
// narrowed by ?status=.
func (h *Handler) Home(c *fiber.Ctx, user models.Identity) error {
	listing, err := h.tasks.List(c.UserContext(), user, c.Query("date"), c.Query("status"))
	if err != nil {
		return h.fail(c, err, "/home", "")
	}
	return h.render(c, "index", &user, fiber.Map{
		"Title":  "My tasks",
		"Tasks":  listing.Tasks,
		"Day":    listing.Day,
		"Today":  listing.Today,
		"Status": listing.Status,
	})
}

func (h *Handler) AddTaskPage(c *fiber.Ctx, user models.Identity) error {
	return h.render(c, "add_task", &user, fiber.Map{"Title": "Add task"})
}

func (h *Handler) AddTask(c *fiber.Ctx, user models.Identity) error {
	var form taskForm
	if err := c.BodyParser(&form); err != nil {
		h.log.Error.Error("Bad request in add task", zap.Error(err))
		return fiber.ErrBadRequest
	}

	if _, err := h.tasks.Create(c.UserContext(), user, service.TaskInput(form)); err != nil {
		return h.fail(c, err, "/add-task-page", "")
	}
	return h.redirect(c, sessions.CategorySuccess, "Task added successfully!", "/home")
}

func (h *Handler) EditPage(c *fiber.Ctx, user models.Identity) error {
	id, err := taskID(c)
	if err != nil {
		return err
	}
	task, err := h.tasks.Get(c.UserContext(), user, id)
	if err != nil {
		return h.fail(c, err, "/home", "Unauthorized access!")
	}
	return h.render(c, "edit", &user, fiber.Map{"Title": "Edit task", "Task": task})
}

func (h *Handler) Edit(c *fiber.Ctx, user models.Identity) error {
	id, err := taskID(c)
	if err != nil {
		return err
	}
	var form taskForm
	if err := c.BodyParser(&form); err != nil {
		h.log.Error.Error("Bad request in edit task", zap.Error(err))
		return fiber.ErrBadRequest
	}

	if _, err := h.tasks.Update(c.UserContext(), user, id, service.TaskInput(form)); err != nil {
		return h.fail(c, err, c.Path(), "Unauthorized access!")
	}
	return h.redirect(c, sessions.CategorySuccess, "Task updated successfully!", "/home")
}

func (h *Handler) Delete(c *fiber.Ctx, user models.Identity) error {
	id, err := taskID(c)
	if err != nil {
		return err
	}
	if err := h.tasks.Delete(c.UserContext(), user, id); err != nil {
		return h.fail(c, err, "/home", "Unauthorized action!")
	}
	return h.redirect(c, sessions.CategorySuccess, "Task deleted successfully!", "/home")
}

// Complete flips the task between pending and completed.
func (h *Handler) Complete(c *fiber.Ctx, user models.Identity) error {
	id, err := taskID(c)
	if err != nil {
		return err
	}
	if _, err := h.tasks.Toggle(c.UserContext(), user, id); err != nil {
		return h.fail(c, err, "/home", "Unauthorized action!")
	}
	return h.redirect(c, sessions.CategorySuccess, "Task status updated!", "/home")
}

func (h *Handler) ReschedulePage(c *fiber.Ctx, user models.Identity) error {
	id, err := taskID(c)
	if err != nil {
		return err
	}
	task, err := h.tasks.Get(c.UserContext(), user, id)
	if err != nil {
		return h.fail(c, err, "/home", "Unauthorized!")
	}
	return h.render(c, "reschedule", &user, fiber.Map{"Title": "Reschedule task", "Task": task})
}

func (h *Handler) Reschedule(c *fiber.Ctx, user models.Identity) error {
	id, err := taskID(c)
	if err != nil {
		return err
	}
	var form rescheduleForm
	if err := c.BodyParser(&form); err != nil {
		h.log.Error.Error("Bad request in reschedule task", zap.Error(err))
		return fiber.ErrBadRequest
	}

	if _, err := h.tasks.Reschedule(c.UserContext(), user, id, form.NewDate); err != nil {
		return h.fail(c, err, c.Path(), "Unauthorized!")
	}
	return h.redirect(c, sessions.CategorySuccess, "Task rescheduled successfully!", "/home")
}
