package models

const (
	StatusPending   = "pending"
	StatusCompleted = "completed"
)

// User is a registered account. Password holds the bcrypt hash, never the
// plain text.
type User struct {
	ID       uint   `gorm:"primaryKey" json:"id"`
	Username string `gorm:"size:100;uniqueIndex;not null" json:"username"`
	Email    string `gorm:"size:120;uniqueIndex;not null" json:"email"`
	Password string `gorm:"size:200;not null" json:"-"`
}

func (User) TableName() string { return "users" }

// Task is a to-do item scheduled for a single day. CreatedAt doubles as the
// scheduled day and is moved by a reschedule.
type Task struct {
	ID          uint   `gorm:"primaryKey" json:"id"`
	TaskText    string `gorm:"size:200;not null" json:"task_text"`
	Description string `gorm:"type:text" json:"description"`
	CreatedAt   Date   `gorm:"type:date;not null;index" json:"created_at"`
	Status      string `gorm:"size:20;not null;default:pending" json:"status"`
	UserID      uint   `gorm:"not null;index" json:"user_id"`
	User        User   `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
}

func (Task) TableName() string { return "tasks" }

// Completed reports whether the task is in the completed state.
func (t *Task) Completed() bool { return t.Status == StatusCompleted }

// ToggledStatus returns the status the task moves to on a toggle. Anything
// that is not pending becomes pending, so repeated toggles oscillate.
func (t *Task) ToggledStatus() string {
	if t.Status == StatusPending {
		return StatusCompleted
	}
	return StatusPending
}

// OwnedBy reports whether userID owns the task.
func (t *Task) OwnedBy(userID uint) bool { return t.UserID == userID }

// Identity is the authenticated user resolved from the session.
type Identity struct {
	ID       uint
	Username string
}
