package middleware

import (
	"errors"
	"fmt"
	"runtime/debug"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/utils"
	"go.uber.org/zap"

	"tasktracker/pkg/logger"
)

// ErrorHandler logs each request and turns a panic into a 500 handled by
// the app's error page.
func ErrorHandler(log *logger.Loggers) fiber.Handler {
	return func(c *fiber.Ctx) (err error) {
		defer func() {
			if r := recover(); r != nil {
				errMsg := fmt.Sprintf("Recovered from panic: %v", r)
				log.Error.Error(errMsg, zap.String("stack", string(debug.Stack())))
				err = fiber.ErrInternalServerError
			}
		}()
		log.Request.Info("Incoming request",
			zap.String("method", c.Method()),
			zap.String("url", c.OriginalURL()),
		)
		return c.Next()
	}
}

// ErrorPage renders the error view for errors that escape a handler.
// Unknown errors become a 500 and are logged; *fiber.Error keeps its code.
func ErrorPage(log *logger.Loggers) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		code := fiber.StatusInternalServerError
		var fe *fiber.Error
		if errors.As(err, &fe) {
			code = fe.Code
		}
		if code >= fiber.StatusInternalServerError {
			log.Error.Error("Request failed",
				zap.Error(err),
				zap.String("method", c.Method()),
				zap.String("url", c.OriginalURL()),
			)
		}

		c.Status(code)
		data := fiber.Map{"Code": code, "Message": utils.StatusMessage(code)}
		if rerr := c.Render("error", data, "layouts/main"); rerr != nil {
			log.Error.Error("Error rendering error page", zap.Error(rerr))
			return c.SendString(utils.StatusMessage(code))
		}
		return nil
	}
}
