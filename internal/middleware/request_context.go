package middleware

import (
	"storefront/internal/pkg/logging"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// DefaultSessionID is used when a request carries no session header.
const DefaultSessionID = "default-session"

// SessionID returns the cart session of the request: the X-Session-ID
// header, then Session-ID, then DefaultSessionID.
func SessionID(c *fiber.Ctx) string {
	if id := c.Get("X-Session-ID"); id != "" {
		return id
	}
	if id := c.Get("Session-ID"); id != "" {
		return id
	}
	return DefaultSessionID
}

// RequestLogger stores a logger tagged with the request and session ids in
// the request's user context. It must run after the requestid middleware.
func RequestLogger(base *zap.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		requestID, _ := c.Locals("requestid").(string)
		logger := base.With(
			zap.String("request_id", requestID),
			zap.String("session_id", SessionID(c)),
		)
		c.SetUserContext(logging.ContextWithLogger(c.UserContext(), logger))
		return c.Next()
	}
}
