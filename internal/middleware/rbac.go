package middleware

import (
	"slices"

	"github.com/gofiber/fiber/v2"
)

// RequireRole rejects callers whose token carries none of the given roles.
// It must run after AuthMiddleware or OptionalAuthMiddleware.
func RequireRole(skipAuth bool, roles ...string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if skipAuth {
			return c.Next()
		}

		claims := CurrentUser(c)
		if claims == nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Unauthorized",
			})
		}

		if !slices.ContainsFunc(roles, claims.HasRole) {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"error":    "Forbidden: Insufficient permissions",
				"required": roles,
			})
		}

		return c.Next()
	}
}
