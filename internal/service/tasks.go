package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"tasktracker/internal/models"
	"tasktracker/internal/repository"
	"tasktracker/pkg/logger"
)

const msgInvalidDate = "Invalid date!"

// TaskInput is the editable part of a task. Create and edit share the same
// rules, so an edit cannot blank out a title either.
type TaskInput struct {
	TaskText    string `validate:"required,max=200"`
	Description string
}

var taskRules = []rule{
	{field: "TaskText", tag: "required", message: "Task title is required"},
	{field: "TaskText", tag: "max", message: "Task title must be at most 200 characters."},
}

// Listing is one day of a user's tasks.
type Listing struct {
	Tasks  []models.Task
	Day    models.Date
	Today  models.Date
	Status string
}

// Tasks implements the per-user task operations. Every mutation checks
// ownership and writes inside one transaction.
type Tasks struct {
	store    repository.TaskStore
	validate *validator.Validate
	now      func() time.Time
	log      *logger.Loggers
}

func NewTasks(store repository.TaskStore, validate *validator.Validate, now func() time.Time, log *logger.Loggers) *Tasks {
	if now == nil {
		now = time.Now
	}
	return &Tasks{store: store, validate: validate, now: now, log: log}
}

// Today is the current calendar day in the server's location.
func (s *Tasks) Today() models.Date { return models.DateOf(s.now()) }

// List returns owner's tasks for the day in rawDate (today when empty),
// restricted to status when it is not empty.
func (s *Tasks) List(ctx context.Context, owner models.Identity, rawDate, status string) (*Listing, error) {
	today := s.Today()
	day := today
	if raw := strings.TrimSpace(rawDate); raw != "" {
		parsed, err := models.ParseDate(raw)
		if err != nil {
			return nil, &ValidationError{Field: "date", Message: msgInvalidDate}
		}
		day = parsed
	}
	status = strings.TrimSpace(status)

	tasks, err := s.store.ListTasks(ctx, owner.ID, day, status)
	if err != nil {
		s.log.Error.Error("Error fetching tasks", zap.Error(err))
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	return &Listing{Tasks: tasks, Day: day, Today: today, Status: status}, nil
}

// Create stores a new pending task for owner scheduled today.
func (s *Tasks) Create(ctx context.Context, owner models.Identity, in TaskInput) (*models.Task, error) {
	in, err := s.clean(in)
	if err != nil {
		return nil, err
	}

	task := &models.Task{
		TaskText:    in.TaskText,
		Description: in.Description,
		CreatedAt:   s.Today(),
		Status:      models.StatusPending,
		UserID:      owner.ID,
	}
	if err := s.store.CreateTask(ctx, task); err != nil {
		s.log.Error.Error("Error creating task", zap.Error(err))
		return nil, fmt.Errorf("create task: %w", err)
	}

	s.log.Audit.Info("Task created successfully", zap.Uint("task_id", task.ID), zap.Uint("user_id", owner.ID))
	return task, nil
}

// Get returns the task with id if owner owns it.
func (s *Tasks) Get(ctx context.Context, owner models.Identity, id uint) (*models.Task, error) {
	return s.owned(ctx, s.store, owner, id)
}

// Update overwrites the title and description.
func (s *Tasks) Update(ctx context.Context, owner models.Identity, id uint, in TaskInput) (*models.Task, error) {
	return s.mutate(ctx, owner, id, "Task updated", func(task *models.Task) (map[string]interface{}, error) {
		in, err := s.clean(in)
		if err != nil {
			return nil, err
		}
		task.TaskText = in.TaskText
		task.Description = in.Description
		return map[string]interface{}{"task_text": in.TaskText, "description": in.Description}, nil
	})
}

// Toggle flips the task between pending and completed.
func (s *Tasks) Toggle(ctx context.Context, owner models.Identity, id uint) (*models.Task, error) {
	return s.mutate(ctx, owner, id, "Task status toggled", func(task *models.Task) (map[string]interface{}, error) {
		task.Status = task.ToggledStatus()
		return map[string]interface{}{"status": task.Status}, nil
	})
}

// Reschedule moves the task to the ISO date in rawDate.
func (s *Tasks) Reschedule(ctx context.Context, owner models.Identity, id uint, rawDate string) (*models.Task, error) {
	return s.mutate(ctx, owner, id, "Task rescheduled", func(task *models.Task) (map[string]interface{}, error) {
		day, err := models.ParseDate(strings.TrimSpace(rawDate))
		if err != nil {
			return nil, &ValidationError{Field: "new_date", Message: msgInvalidDate}
		}
		task.CreatedAt = day
		return map[string]interface{}{"created_at": day}, nil
	})
}

// Delete removes the task permanently. Deleting it again reports
// ErrTaskNotFound.
func (s *Tasks) Delete(ctx context.Context, owner models.Identity, id uint) error {
	err := s.store.Transaction(ctx, func(tx repository.TaskStore) error {
		if _, err := s.owned(ctx, tx, owner, id); err != nil {
			return err
		}
		if err := tx.DeleteOwnedTask(ctx, id, owner.ID); err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return ErrTaskNotFound
			}
			return fmt.Errorf("delete task %d: %w", id, err)
		}
		return nil
	})
	if err != nil {
		return err
	}
	s.log.Audit.Info("Task deleted", zap.Uint("task_id", id), zap.Uint("user_id", owner.ID))
	return nil
}

// mutate loads the owned task, lets change edit it and return the columns
// to write, then writes them guarded by the owner id.
func (s *Tasks) mutate(ctx context.Context, owner models.Identity, id uint, event string,
	change func(task *models.Task) (map[string]interface{}, error)) (*models.Task, error) {
	var result *models.Task
	err := s.store.Transaction(ctx, func(tx repository.TaskStore) error {
		task, err := s.owned(ctx, tx, owner, id)
		if err != nil {
			return err
		}
		fields, err := change(task)
		if err != nil {
			return err
		}
		if err := tx.UpdateOwnedTask(ctx, id, owner.ID, fields); err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return ErrTaskNotFound
			}
			return fmt.Errorf("update task %d: %w", id, err)
		}
		result = task
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.log.Audit.Info(event, zap.Uint("task_id", id), zap.Uint("user_id", owner.ID))
	return result, nil
}

func (s *Tasks) owned(ctx context.Context, store repository.TaskStore, owner models.Identity, id uint) (*models.Task, error) {
	task, err := store.FindTask(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrTaskNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find task %d: %w", id, err)
	}
	if !task.OwnedBy(owner.ID) {
		s.log.Security.Warn("Task access by non-owner",
			zap.Uint("task_id", id), zap.Uint("owner_id", task.UserID), zap.Uint("user_id", owner.ID))
		return nil, ErrForbidden
	}
	return task, nil
}

func (s *Tasks) clean(in TaskInput) (TaskInput, error) {
	in.TaskText = strings.TrimSpace(in.TaskText)
	in.Description = strings.TrimSpace(in.Description)
	if err := s.validate.Struct(in); err != nil {
		return in, firstViolation(err, taskRules)
	}
	return in, nil
}
