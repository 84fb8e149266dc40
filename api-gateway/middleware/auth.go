package middleware

import (
	"fmt"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/tair/gym-settlement/pkg/auth"
)

// AuthMiddleware validates JWT tokens and re-issues the identity headers the
// settlement service trusts. Inbound identity headers are always stripped so
// clients cannot spoof them.
func AuthMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		stripIdentityHeaders(c)

		authHeader := c.Get("Authorization")
		if authHeader == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Authorization header required",
			})
		}

		// Extract token from "Bearer <token>"
		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Invalid authorization header format",
			})
		}

		claims, err := auth.ValidateToken(parts[1])
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Invalid token",
			})
		}

		// Store user info in context
		c.Locals("user_id", claims.UserID)
		c.Locals("username", claims.Username)
		c.Locals("role", claims.Role)
		c.Locals("permissions", claims.Permissions)

		// Add user info to headers for backend services
		c.Request().Header.Set("X-User-ID", fmt.Sprintf("%d", claims.UserID))
		c.Request().Header.Set("X-Username", claims.Username)
		c.Request().Header.Set("X-User-Role", claims.Role)
		if len(claims.Permissions) > 0 {
			c.Request().Header.Set("X-Permissions", strings.Join(claims.Permissions, ","))
		}

		return c.Next()
	}
}

// AdminMiddleware checks if user has admin or manager role
func AdminMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		role, _ := c.Locals("role").(string)
		if role != "admin" && role != "manager" {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"error": "Admin access required",
			})
		}
		return c.Next()
	}
}

func stripIdentityHeaders(c *fiber.Ctx) {
	c.Request().Header.Del("X-User-ID")
	c.Request().Header.Del("X-Username")
	c.Request().Header.Del("X-User-Role")
	c.Request().Header.Del("X-Permissions")
}
