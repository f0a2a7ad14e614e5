package middleware

import (
	"strings"

	"go-dashboards/pkg/utils"

	"github.com/gofiber/fiber/v2"
)

// AuthMiddleware validates JWT tokens and injects user claims into context
func AuthMiddleware(skipAuth bool) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if skipAuth {
			attach(c, devClaims())
			return c.Next()
		}

		claims, err := claimsFromHeader(c.Get("Authorization"))
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": err.Error(),
			})
		}

		attach(c, claims)
		return c.Next()
	}
}

// OptionalAuthMiddleware attaches claims when a valid token is present and lets
// anonymous requests through. Public dashboards and invitation links use it.
func OptionalAuthMiddleware(skipAuth bool) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if skipAuth {
			attach(c, devClaims())
			return c.Next()
		}
		if header := c.Get("Authorization"); header != "" {
			if claims, err := claimsFromHeader(header); err == nil {
				attach(c, claims)
			}
		}
		return c.Next()
	}
}

// CurrentUser returns the claims attached by the auth middleware, or nil.
func CurrentUser(c *fiber.Ctx) *utils.UserClaims {
	claims, _ := c.Locals(utils.UserClaimsKey).(*utils.UserClaims)
	return claims
}

func attach(c *fiber.Ctx, claims *utils.UserClaims) {
	c.Locals(utils.UserClaimsKey, claims)
	c.SetUserContext(utils.WithClaims(c.UserContext(), claims))
}

func devClaims() *utils.UserClaims {
	return &utils.UserClaims{
		UserID: "dev-admin-id",
		Roles:  []string{utils.RoleAdmin},
	}
}

type authError string

func (e authError) Error() string { return string(e) }

func claimsFromHeader(header string) (*utils.UserClaims, error) {
	if header == "" {
		return nil, authError("Authorization header required")
	}
	token, ok := strings.CutPrefix(header, "Bearer ")
	if !ok {
		return nil, authError("Invalid authorization header format")
	}
	claims, err := utils.ValidateToken(token)
	if err != nil {
		return nil, authError("Invalid token")
	}
	return claims, nil
}
