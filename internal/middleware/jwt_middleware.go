package middleware

import (
	"strings"

	"storefront/internal/pkg/logging"
	"storefront/internal/services"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// Locals keys set by the auth middleware.
const (
	LocalUserID   = "user_id"
	LocalUsername = "username"
)

func bearerToken(c *fiber.Ctx) (string, string) {
	authHeader := c.Get("Authorization")
	if authHeader == "" {
		return "", "Authorization header is required"
	}
	parts := strings.SplitN(authHeader, " ", 2)
	if !(len(parts) == 2 && parts[0] == "Bearer") {
		return "", "Authorization header format must be 'Bearer <token>'"
	}
	return parts[1], ""
}

func authenticate(c *fiber.Ctx, authService *services.AuthService, tokenString string) error {
	claims, err := authService.ValidateToken(c.UserContext(), tokenString)
	if err != nil {
		return err
	}
	userID, _ := claims["user_id"].(string)
	username, _ := claims["username"].(string)
	c.Locals(LocalUserID, userID)
	c.Locals(LocalUsername, username)
	c.SetUserContext(logging.ContextWithLogger(c.UserContext(),
		logging.FromContext(c.UserContext()).With(zap.String("user_id", userID))))
	return nil
}

// AuthRequired is a Fiber middleware to check for a valid JWT token.
func AuthRequired(authService *services.AuthService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		tokenString, problem := bearerToken(c)
		if problem != "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"message": problem,
				"code":    "unauthorized",
			})
		}

		if err := authenticate(c, authService, tokenString); err != nil {
			logging.FromContext(c.UserContext()).Info("JWT validation failed", zap.Error(err))
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"message": "Invalid or expired token",
				"error":   err.Error(),
				"code":    "unauthorized",
			})
		}
		return c.Next()
	}
}

// OptionalAuth identifies the user when a valid token is sent and lets the
// request through anonymously otherwise.
func OptionalAuth(authService *services.AuthService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if tokenString, problem := bearerToken(c); problem == "" {
			if err := authenticate(c, authService, tokenString); err != nil {
				logging.FromContext(c.UserContext()).Debug("ignoring invalid token", zap.Error(err))
			}
		}
		return c.Next()
	}
}

// UserID returns the authenticated user's ID, or "" for anonymous requests.
func UserID(c *fiber.Ctx) string {
	userID, _ := c.Locals(LocalUserID).(string)
	return userID
}
