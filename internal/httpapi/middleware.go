// Package httpapi is the REST gateway over the match log and stats services.
// Routes mirror the gRPC surface; both transports share the same services.
package httpapi

import (
	"log/slog"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/oggyb/shuttle-league/internal/auth"
	svcErr "github.com/oggyb/shuttle-league/internal/errors"
	"github.com/oggyb/shuttle-league/internal/logger"
)

const localActorID = "actorID"

// RequestLogger puts a logger carrying req_id on the request's user context.
// An incoming X-Request-ID header is reused and always echoed back.
func RequestLogger(base *slog.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		reqID := c.Get(fiber.HeaderXRequestID)
		if reqID == "" {
			reqID = uuid.NewString()
		}
		c.Set(fiber.HeaderXRequestID, reqID)

		log := base.With("req_id", reqID, "route", c.Method()+" "+c.Path())
		c.SetUserContext(logger.IntoContext(c.UserContext(), log))
		return c.Next()
	}
}

// Auth validates "Authorization: Bearer <jwt>" and stores the actor id
// both in c.Locals and on the user context for the services.
func Auth(m *auth.Manager) fiber.Handler {
	return func(c *fiber.Ctx) error {
		actorID, err := m.ParseBearer(c.Get(fiber.HeaderAuthorization))
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": err.Error(),
			})
		}
		c.Locals(localActorID, actorID)
		c.SetUserContext(auth.WithActor(c.UserContext(), actorID))
		return c.Next()
	}
}

func actorOf(c *fiber.Ctx) uint64 {
	id, _ := c.Locals(localActorID).(uint64)
	return id
}

// writeError maps a service error onto the REST status table and logs internal failures.
func writeError(c *fiber.Ctx, err error) error {
	code, msg := svcErr.HTTPStatus(err)
	if code >= fiber.StatusInternalServerError {
		logger.FromContext(c.UserContext(), nil).Error("request failed", "err", err)
	}
	return c.Status(code).JSON(fiber.Map{"error": msg})
}
