package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"tasktracker/internal/models"
	"tasktracker/internal/repository"
	"tasktracker/pkg/crypto"
	"tasktracker/pkg/database"
	"tasktracker/pkg/logger"
)

var fixedNow = time.Date(2025, time.May, 14, 9, 30, 0, 0, time.UTC)

type fixture struct {
	db       *gorm.DB
	repo     *repository.Repository
	accounts *Accounts
	tasks    *Tasks
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db, err := database.OpenSQLite(database.MemorySQLite, logger.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close(db) })
	require.NoError(t, repository.CreateTableIfNotExists(db))

	repo := repository.New(db)
	v := NewValidator()
	return &fixture{
		db:       db,
		repo:     repo,
		accounts: NewAccounts(repo, crypto.NewBcryptHasher(bcrypt.MinCost), v, logger.Nop()),
		tasks:    NewTasks(repo, v, func() time.Time { return fixedNow }, logger.Nop()),
	}
}

func (f *fixture) userCount(t *testing.T) int64 {
	t.Helper()
	var n int64
	require.NoError(t, f.db.Model(&models.User{}).Count(&n).Error)
	return n
}

func (f *fixture) register(t *testing.T, username, email, password string) models.Identity {
	t.Helper()
	u, err := f.accounts.Register(context.Background(), RegisterInput{Username: username, Email: email, Password: password})
	require.NoError(t, err)
	return models.Identity{ID: u.ID, Username: u.Username}
}

func validationMessage(t *testing.T, err error) string {
	t.Helper()
	var verr *ValidationError
	require.True(t, errors.As(err, &verr), "expected ValidationError, got %v", err)
	return verr.Message
}

func conflictMessage(t *testing.T, err error) string {
	t.Helper()
	var cerr *ConflictError
	require.True(t, errors.As(err, &cerr), "expected ConflictError, got %v", err)
	return cerr.Message
}

func TestRegisterValidationOrder(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	cases := []struct {
		name string
		in   RegisterInput
		want string
	}{
		{"empty username", RegisterInput{"", "a@x.com", "secret1"}, "All fields are required."},
		{"whitespace only", RegisterInput{"alice", "   ", "secret1"}, "All fields are required."},
		{"empty beats bad email", RegisterInput{"alice", "nope", ""}, "All fields are required."},
		{"bad email", RegisterInput{"alice", "a@x", "secret1"}, "Invalid email format."},
		{"bad email beats short password", RegisterInput{"alice", "a x@x.com", "123"}, "Invalid email format."},
		{"short password", RegisterInput{"alice", "a@x.com", "12345"}, "Password must be at least 6 characters long."},
		{"long username", RegisterInput{strings.Repeat("u", 101), "a@x.com", "secret1"}, "Username must be at most 100 characters."},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.accounts.Register(ctx, tc.in)
			assert.Equal(t, tc.want, validationMessage(t, err))
		})
	}
	assert.Zero(t, f.userCount(t))
}

func TestRegisterAcceptsBasicEmailShapes(t *testing.T) {
	for _, email := range []string{"a@x.com", "first.last@mail.example.org", "a-b_c@x-y.io"} {
		assert.True(t, emailPattern.MatchString(email), email)
	}
	for _, email := range []string{"a@x", "@x.com", "a@.", "a b@x.com", "a@x.c-m"} {
		assert.False(t, emailPattern.MatchString(email), email)
	}
}

func TestRegisterDuplicateEmailThenUsername(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.register(t, "alice", "a@x.com", "secret1")

	_, err := f.accounts.Register(ctx, RegisterInput{"alice", "a@x.com", "secret1"})
	assert.Equal(t, "Email already registered. Try logging in.", conflictMessage(t, err))

	_, err = f.accounts.Register(ctx, RegisterInput{"alice", "other@x.com", "secret1"})
	assert.Equal(t, "Username already taken. Please choose another.", conflictMessage(t, err))

	assert.EqualValues(t, 1, f.userCount(t))
}

func TestRegisterTrimsAndHashes(t *testing.T) {
	f := newFixture(t)
	id := f.register(t, "  alice ", " a@x.com ", " secret1 ")
	assert.Equal(t, "alice", id.Username)

	stored, err := f.repo.FindUserByID(context.Background(), id.ID)
	require.NoError(t, err)
	assert.Equal(t, "a@x.com", stored.Email)
	assert.NotEqual(t, "secret1", stored.Password)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(stored.Password), []byte("secret1")))
}

// racingUsers reports names as free so the unique index is what rejects the
// insert.
type racingUsers struct {
	*repository.Repository
	checks int
}

func (r *racingUsers) EmailTaken(ctx context.Context, email string) (bool, error) {
	r.checks++
	if r.checks == 1 {
		return false, nil
	}
	return r.Repository.EmailTaken(ctx, email)
}

func (r *racingUsers) UsernameTaken(ctx context.Context, username string) (bool, error) {
	if r.checks == 1 {
		return false, nil
	}
	return r.Repository.UsernameTaken(ctx, username)
}

func TestRegisterMapsUniqueViolationToConflict(t *testing.T) {
	f := newFixture(t)
	f.register(t, "alice", "a@x.com", "secret1")

	users := &racingUsers{Repository: f.repo}
	accounts := NewAccounts(users, crypto.NewBcryptHasher(bcrypt.MinCost), NewValidator(), logger.Nop())

	_, err := accounts.Register(context.Background(), RegisterInput{"alice2", "a@x.com", "secret1"})
	assert.Equal(t, "Email already registered. Try logging in.", conflictMessage(t, err))
	assert.EqualValues(t, 1, f.userCount(t))
}

func TestLogin(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := f.register(t, "alice", "a@x.com", "secret1")

	u, err := f.accounts.Login(ctx, LoginInput{Email: "a@x.com", Password: "secret1"})
	require.NoError(t, err)
	assert.Equal(t, alice.ID, u.ID)

	_, err = f.accounts.Login(ctx, LoginInput{Email: "a@x.com", Password: "wrong99"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = f.accounts.Login(ctx, LoginInput{Email: "nobody@x.com", Password: "secret1"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = f.accounts.Login(ctx, LoginInput{Email: "a@x.com"})
	assert.Equal(t, "Please fill in all fields.", validationMessage(t, err))
}

func TestIdentify(t *testing.T) {
	f := newFixture(t)
	alice := f.register(t, "alice", "a@x.com", "secret1")

	id, err := f.accounts.Identify(context.Background(), alice.ID)
	require.NoError(t, err)
	assert.Equal(t, alice, id)

	_, err = f.accounts.Identify(context.Background(), alice.ID+100)
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestCreateTask(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := f.register(t, "alice", "a@x.com", "secret1")

	task, err := f.tasks.Create(ctx, alice, TaskInput{TaskText: " Buy milk ", Description: "2 litres"})
	require.NoError(t, err)
	assert.Equal(t, "Buy milk", task.TaskText)
	assert.Equal(t, models.StatusPending, task.Status)
	assert.Equal(t, models.DateOf(fixedNow), task.CreatedAt)
	assert.Equal(t, alice.ID, task.UserID)

	_, err = f.tasks.Create(ctx, alice, TaskInput{TaskText: "  "})
	assert.Equal(t, "Task title is required", validationMessage(t, err))

	_, err = f.tasks.Create(ctx, alice, TaskInput{TaskText: strings.Repeat("x", 201)})
	assert.Equal(t, "Task title must be at most 200 characters.", validationMessage(t, err))
}

func TestListFiltersByDayStatusAndOwner(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := f.register(t, "alice", "a@x.com", "secret1")
	bob := f.register(t, "bob", "b@x.com", "secret1")

	milk, err := f.tasks.Create(ctx, alice, TaskInput{TaskText: "Buy milk"})
	require.NoError(t, err)
	bread, err := f.tasks.Create(ctx, alice, TaskInput{TaskText: "Buy bread"})
	require.NoError(t, err)
	_, err = f.tasks.Create(ctx, bob, TaskInput{TaskText: "Bob's task"})
	require.NoError(t, err)
	_, err = f.tasks.Toggle(ctx, alice, bread.ID)
	require.NoError(t, err)

	listing, err := f.tasks.List(ctx, alice, "", "")
	require.NoError(t, err)
	assert.Equal(t, models.DateOf(fixedNow), listing.Day)
	assert.Equal(t, listing.Today, listing.Day)
	require.Len(t, listing.Tasks, 2)
	for _, task := range listing.Tasks {
		assert.Equal(t, alice.ID, task.UserID)
	}

	listing, err = f.tasks.List(ctx, alice, "", models.StatusPending)
	require.NoError(t, err)
	require.Len(t, listing.Tasks, 1)
	assert.Equal(t, milk.ID, listing.Tasks[0].ID)

	listing, err = f.tasks.List(ctx, alice, "2025-05-15", "")
	require.NoError(t, err)
	assert.Empty(t, listing.Tasks)
	assert.Equal(t, "2025-05-15", listing.Day.String())
}

func TestListRejectsMalformedDate(t *testing.T) {
	f := newFixture(t)
	alice := f.register(t, "alice", "a@x.com", "secret1")

	_, err := f.tasks.List(context.Background(), alice, "15/05/2025", "")
	assert.Equal(t, "Invalid date!", validationMessage(t, err))
}

func TestToggleTwiceRestoresStatus(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := f.register(t, "alice", "a@x.com", "secret1")
	task, err := f.tasks.Create(ctx, alice, TaskInput{TaskText: "Buy milk"})
	require.NoError(t, err)

	toggled, err := f.tasks.Toggle(ctx, alice, task.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusCompleted, toggled.Status)

	toggled, err = f.tasks.Toggle(ctx, alice, task.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusPending, toggled.Status)

	stored, err := f.repo.FindTask(ctx, task.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusPending, stored.Status)
}

func TestUpdateTask(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := f.register(t, "alice", "a@x.com", "secret1")
	task, err := f.tasks.Create(ctx, alice, TaskInput{TaskText: "Buy milk", Description: "old"})
	require.NoError(t, err)

	updated, err := f.tasks.Update(ctx, alice, task.ID, TaskInput{TaskText: "Buy oat milk", Description: ""})
	require.NoError(t, err)
	assert.Equal(t, "Buy oat milk", updated.TaskText)

	stored, err := f.repo.FindTask(ctx, task.ID)
	require.NoError(t, err)
	assert.Equal(t, "Buy oat milk", stored.TaskText)
	assert.Equal(t, "", stored.Description)
}

func TestUpdateRequiresTitleLikeCreate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := f.register(t, "alice", "a@x.com", "secret1")
	task, err := f.tasks.Create(ctx, alice, TaskInput{TaskText: "Buy milk"})
	require.NoError(t, err)

	_, err = f.tasks.Update(ctx, alice, task.ID, TaskInput{TaskText: "", Description: "gone"})
	assert.Equal(t, "Task title is required", validationMessage(t, err))

	stored, err := f.repo.FindTask(ctx, task.ID)
	require.NoError(t, err)
	assert.Equal(t, "Buy milk", stored.TaskText)
	assert.Equal(t, "", stored.Description)
}

func TestRescheduleMovesTaskBetweenDays(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := f.register(t, "alice", "a@x.com", "secret1")
	task, err := f.tasks.Create(ctx, alice, TaskInput{TaskText: "Buy milk"})
	require.NoError(t, err)

	moved, err := f.tasks.Reschedule(ctx, alice, task.ID, "2025-06-01")
	require.NoError(t, err)
	assert.Equal(t, "2025-06-01", moved.CreatedAt.String())

	today, err := f.tasks.List(ctx, alice, "", "")
	require.NoError(t, err)
	assert.Empty(t, today.Tasks)

	later, err := f.tasks.List(ctx, alice, "2025-06-01", "")
	require.NoError(t, err)
	require.Len(t, later.Tasks, 1)
	assert.Equal(t, task.ID, later.Tasks[0].ID)

	for _, bad := range []string{"", "soon", "2025-02-30"} {
		_, err = f.tasks.Reschedule(ctx, alice, task.ID, bad)
		assert.Equal(t, "Invalid date!", validationMessage(t, err), "input %q", bad)
	}
}

func TestDeleteTwiceIsNotFound(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := f.register(t, "alice", "a@x.com", "secret1")
	task, err := f.tasks.Create(ctx, alice, TaskInput{TaskText: "Buy milk"})
	require.NoError(t, err)

	require.NoError(t, f.tasks.Delete(ctx, alice, task.ID))
	assert.ErrorIs(t, f.tasks.Delete(ctx, alice, task.ID), ErrTaskNotFound)
	_, err = f.tasks.Get(ctx, alice, task.ID)
	assert.ErrorIs(t, err, ErrTaskNotFound)
}

func TestNonOwnerCannotMutate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := f.register(t, "alice", "a@x.com", "secret1")
	mallory := f.register(t, "mallory", "m@x.com", "secret1")
	task, err := f.tasks.Create(ctx, alice, TaskInput{TaskText: "Buy milk", Description: "2 litres"})
	require.NoError(t, err)

	_, err = f.tasks.Get(ctx, mallory, task.ID)
	assert.ErrorIs(t, err, ErrForbidden)
	_, err = f.tasks.Update(ctx, mallory, task.ID, TaskInput{TaskText: "pwned"})
	assert.ErrorIs(t, err, ErrForbidden)
	_, err = f.tasks.Update(ctx, mallory, task.ID, TaskInput{TaskText: ""})
	assert.ErrorIs(t, err, ErrForbidden, "ownership is checked before input")
	_, err = f.tasks.Toggle(ctx, mallory, task.ID)
	assert.ErrorIs(t, err, ErrForbidden)
	_, err = f.tasks.Reschedule(ctx, mallory, task.ID, "2030-01-01")
	assert.ErrorIs(t, err, ErrForbidden)
	assert.ErrorIs(t, f.tasks.Delete(ctx, mallory, task.ID), ErrForbidden)

	stored, err := f.repo.FindTask(ctx, task.ID)
	require.NoError(t, err)
	assert.Equal(t, *task, *stored)
}

func TestMissingTaskIsNotFound(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := f.register(t, "alice", "a@x.com", "secret1")

	_, err := f.tasks.Get(ctx, alice, 404)
	assert.ErrorIs(t, err, ErrTaskNotFound)
	_, err = f.tasks.Toggle(ctx, alice, 404)
	assert.ErrorIs(t, err, ErrTaskNotFound)
	_, err = f.tasks.Reschedule(ctx, alice, 404, "2030-01-01")
	assert.ErrorIs(t, err, ErrTaskNotFound)
}
