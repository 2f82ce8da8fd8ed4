package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"tasktracker/internal/models"
	"tasktracker/internal/repository"
	"tasktracker/pkg/crypto"
	"tasktracker/pkg/logger"
)

const (
	msgEmailTaken    = "Email already registered. Try logging in."
	msgUsernameTaken = "Username already taken. Please choose another."
)

type RegisterInput struct {
	Username string `validate:"required,max=100"`
	Email    string `validate:"required,basic_email,max=120"`
	Password string `validate:"required,min=6"`
}

type LoginInput struct {
	Email    string `validate:"required"`
	Password string `validate:"required"`
}

var registerRules = []rule{
	{tag: "required", message: "All fields are required."},
	{field: "Email", tag: "basic_email", message: "Invalid email format."},
	{field: "Password", tag: "min", message: "Password must be at least 6 characters long."},
	{field: "Username", tag: "max", message: "Username must be at most 100 characters."},
	{field: "Email", tag: "max", message: "Email must be at most 120 characters."},
}

var loginRules = []rule{
	{tag: "required", message: "Please fill in all fields."},
}

// Accounts registers users and checks their credentials.
type Accounts struct {
	users    repository.UserStore
	hasher   crypto.Hasher
	validate *validator.Validate
	log      *logger.Loggers
}

func NewAccounts(users repository.UserStore, hasher crypto.Hasher, validate *validator.Validate, log *logger.Loggers) *Accounts {
	return &Accounts{users: users, hasher: hasher, validate: validate, log: log}
}

// Register validates in, rejects taken emails before taken usernames, and
// stores the user with a hashed password.
func (a *Accounts) Register(ctx context.Context, in RegisterInput) (*models.User, error) {
	in.Username = strings.TrimSpace(in.Username)
	in.Email = strings.TrimSpace(in.Email)
	in.Password = strings.TrimSpace(in.Password)

	if err := a.validate.Struct(in); err != nil {
		verr := firstViolation(err, registerRules)
		a.log.Audit.Warn("Validation error during register", zap.Error(verr))
		return nil, verr
	}

	if err := a.checkAvailable(ctx, in.Email, in.Username); err != nil {
		return nil, err
	}

	hashed, err := a.hasher.Hash(in.Password)
	if err != nil {
		a.log.Error.Error("Error hashing password", zap.Error(err))
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &models.User{Username: in.Username, Email: in.Email, Password: hashed}
	if err := a.users.CreateUser(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			// Lost a race with a concurrent registration.
			if cerr := a.checkAvailable(ctx, in.Email, in.Username); cerr != nil {
				return nil, cerr
			}
			return nil, &ConflictError{Field: "username", Message: msgUsernameTaken}
		}
		a.log.Error.Error("Error creating user", zap.Error(err))
		return nil, fmt.Errorf("create user: %w", err)
	}

	a.log.Audit.Info("User registered successfully", zap.Uint("user_id", user.ID))
	return user, nil
}

func (a *Accounts) checkAvailable(ctx context.Context, email, username string) error {
	taken, err := a.users.EmailTaken(ctx, email)
	if err != nil {
		return fmt.Errorf("check email: %w", err)
	}
	if taken {
		a.log.Security.Warn("Duplicate email", zap.String("email", email))
		return &ConflictError{Field: "email", Message: msgEmailTaken}
	}

	taken, err = a.users.UsernameTaken(ctx, username)
	if err != nil {
		return fmt.Errorf("check username: %w", err)
	}
	if taken {
		a.log.Security.Warn("Duplicate username", zap.String("username", username))
		return &ConflictError{Field: "username", Message: msgUsernameTaken}
	}
	return nil
}

// Login returns the user whose email and password match. Unknown emails and
// wrong passwords both yield ErrInvalidCredentials.
func (a *Accounts) Login(ctx context.Context, in LoginInput) (*models.User, error) {
	if err := a.validate.Struct(in); err != nil {
		return nil, firstViolation(err, loginRules)
	}

	user, err := a.users.FindUserByEmail(ctx, in.Email)
	if errors.Is(err, repository.ErrNotFound) {
		a.log.Security.Warn("Login for unknown email", zap.String("email", in.Email))
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("find user: %w", err)
	}

	if !a.hasher.Verify(user.Password, in.Password) {
		a.log.Security.Warn("Invalid password", zap.Uint("user_id", user.ID))
		return nil, ErrInvalidCredentials
	}

	a.log.Audit.Info("Login success", zap.Uint("user_id", user.ID))
	return user, nil
}

// Identify resolves a session's user id into an Identity.
func (a *Accounts) Identify(ctx context.Context, userID uint) (models.Identity, error) {
	user, err := a.users.FindUserByID(ctx, userID)
	if errors.Is(err, repository.ErrNotFound) {
		return models.Identity{}, ErrUserNotFound
	}
	if err != nil {
		return models.Identity{}, fmt.Errorf("find user %d: %w", userID, err)
	}
	return models.Identity{ID: user.ID, Username: user.Username}, nil
}
