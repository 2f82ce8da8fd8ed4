package middleware

import (
	"context"
	"errors"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"tasktracker/internal/models"
	"tasktracker/internal/service"
	"tasktracker/internal/sessions"
	"tasktracker/pkg/logger"
)

// IdentityResolver turns a session's user id into an Identity.
type IdentityResolver interface {
	Identify(ctx context.Context, userID uint) (models.Identity, error)
}

// AuthedHandler is a handler that runs only for an authenticated user.
type AuthedHandler func(c *fiber.Ctx, user models.Identity) error

type Authenticator struct {
	sessions  *sessions.Manager
	users     IdentityResolver
	log       *logger.Loggers
	loginPath string
}

func NewAuthenticator(sm *sessions.Manager, users IdentityResolver, log *logger.Loggers, loginPath string) *Authenticator {
	return &Authenticator{sessions: sm, users: users, log: log, loginPath: loginPath}
}

// Require wraps h so it only runs with a session identity. Anonymous
// requests, and sessions whose user no longer exists, are sent to the login
// page with a warning.
func (a *Authenticator) Require(h AuthedHandler) fiber.Handler {
	return func(c *fiber.Ctx) error {
		sess, err := a.sessions.From(c)
		if err != nil {
			return err
		}

		if userID, ok := sess.UserID(); ok {
			user, err := a.users.Identify(c.UserContext(), userID)
			if err == nil {
				return h(c, user)
			}
			if !errors.Is(err, service.ErrUserNotFound) {
				return err
			}
			a.log.Security.Warn("Session for deleted user", zap.Uint("user_id", userID))
			if err := sess.Logout(); err != nil {
				return err
			}
		}

		sess.AddFlash(sessions.CategoryWarning, "Please log in to access this page.")
		return c.Redirect(a.loginPath)
	}
}
