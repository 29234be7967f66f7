package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"gostore/internal/models"
	"gostore/internal/services"
)

// Context keys for values stored by RequiresAuth.
const (
	UserKey  = "user"
	TokenKey = "token"
)

// RequiresAuth resolves the Authorization header through the session cache
// and stores the resulting user in the request context. The header may carry
// the raw token or a "Bearer "-prefixed one. Any resolution failure,
// including a cache outage, is rejected as 401.
func RequiresAuth(auth *services.AuthService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		token := strings.TrimSpace(strings.TrimPrefix(c.Get("Authorization"), "Bearer "))

		user, err := auth.Resolve(c.UserContext(), token)
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"errors": []fiber.Map{{"msg": err.Error()}},
			})
		}

		c.Locals(UserKey, user)
		c.Locals(TokenKey, token)
		return c.Next()
	}
}

// RequiresAdmin rejects authenticated users below the admin access level.
// Must run after RequiresAuth.
func RequiresAdmin() fiber.Handler {
	return func(c *fiber.Ctx) error {
		user, ok := c.Locals(UserKey).(*models.User)
		if !ok {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"errors": []fiber.Map{{"msg": "Unauthenticated"}},
			})
		}
		if !user.IsAdmin() {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"errors": []fiber.Map{{"msg": "User is unauthorized to access this resource"}},
			})
		}
		return c.Next()
	}
}
