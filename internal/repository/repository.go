package repository

import (
	"context"
	"errors"

	"github.com/lib/pq"
	"github.com/mattn/go-sqlite3"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"tasktracker/internal/models"
)

var (
	ErrNotFound  = errors.New("record not found")
	ErrDuplicate = errors.New("duplicate key")
)

type UserStore interface {
	CreateUser(ctx context.Context, user *models.User) error
	FindUserByID(ctx context.Context, id uint) (*models.User, error)
	FindUserByEmail(ctx context.Context, email string) (*models.User, error)
	EmailTaken(ctx context.Context, email string) (bool, error)
	UsernameTaken(ctx context.Context, username string) (bool, error)
}

type TaskStore interface {
	CreateTask(ctx context.Context, task *models.Task) error
	FindTask(ctx context.Context, id uint) (*models.Task, error)
	ListTasks(ctx context.Context, userID uint, day models.Date, status string) ([]models.Task, error)
	UpdateOwnedTask(ctx context.Context, id, ownerID uint, fields map[string]interface{}) error
	DeleteOwnedTask(ctx context.Context, id, ownerID uint) error
	// Transaction runs fn against a store bound to one transaction.
	Transaction(ctx context.Context, fn func(TaskStore) error) error
}

// Repository implements UserStore and TaskStore on gorm.
type Repository struct {
	db *gorm.DB
}

func New(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Ping checks the underlying connection.
func (r *Repository) Ping(ctx context.Context) error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func (r *Repository) CreateUser(ctx context.Context, user *models.User) error {
	return translate(r.db.WithContext(ctx).Create(user).Error)
}

func (r *Repository) FindUserByID(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).First(&user, id).Error; err != nil {
		return nil, translate(err)
	}
	return &user, nil
}

func (r *Repository) FindUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		return nil, translate(err)
	}
	return &user, nil
}

func (r *Repository) EmailTaken(ctx context.Context, email string) (bool, error) {
	return r.exists(ctx, &models.User{}, "email = ?", email)
}

func (r *Repository) UsernameTaken(ctx context.Context, username string) (bool, error) {
	return r.exists(ctx, &models.User{}, "username = ?", username)
}

func (r *Repository) exists(ctx context.Context, model interface{}, query string, args ...interface{}) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(model).Where(query, args...).Count(&count).Error; err != nil {
		return false, translate(err)
	}
	return count > 0, nil
}

func (r *Repository) CreateTask(ctx context.Context, task *models.Task) error {
	return translate(r.db.WithContext(ctx).Omit(clause.Associations).Create(task).Error)
}

func (r *Repository) FindTask(ctx context.Context, id uint) (*models.Task, error) {
	var task models.Task
	if err := r.db.WithContext(ctx).First(&task, id).Error; err != nil {
		return nil, translate(err)
	}
	return &task, nil
}

// ListTasks returns userID's tasks scheduled on day, optionally restricted
// to status, in creation order.
func (r *Repository) ListTasks(ctx context.Context, userID uint, day models.Date, status string) ([]models.Task, error) {
	q := r.db.WithContext(ctx).Where("user_id = ? AND created_at = ?", userID, day)
	if status != "" {
		q = q.Where("status = ?", status)
	}
	tasks := []models.Task{}
	if err := q.Order("id").Find(&tasks).Error; err != nil {
		return nil, translate(err)
	}
	return tasks, nil
}

// UpdateOwnedTask writes fields only if ownerID still owns the task.
// ErrNotFound covers both a missing row and a changed owner.
func (r *Repository) UpdateOwnedTask(ctx context.Context, id, ownerID uint, fields map[string]interface{}) error {
	res := r.db.WithContext(ctx).Model(&models.Task{}).
		Where("id = ? AND user_id = ?", id, ownerID).
		Updates(fields)
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *Repository) DeleteOwnedTask(ctx context.Context, id, ownerID uint) error {
	res := r.db.WithContext(ctx).Where("id = ? AND user_id = ?", id, ownerID).Delete(&models.Task{})
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *Repository) Transaction(ctx context.Context, fn func(TaskStore) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&Repository{db: tx})
	})
}

// translate maps driver errors onto the package sentinels. lib/pq errors
// bypass gorm's translator, so both drivers are also checked directly.
func translate(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return ErrDuplicate
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == "23505" {
		return ErrDuplicate
	}
	var liteErr sqlite3.Error
	if errors.As(err, &liteErr) &&
		(liteErr.ExtendedCode == sqlite3.ErrConstraintUnique || liteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey) {
		return ErrDuplicate
	}
	return err
}
