package middleware

import (
	"github.com/gofiber/fiber/v2"

	"github.com/noah-isme/aula-go-api/internal/utils"
)

// Roles understood by the school API. Admins inherit every teacher permission.
const (
	AuthRoleAny     = "any"
	AuthRoleAdmin   = "admin"
	AuthRoleTeacher = "teacher"
)

var roleRank = map[string]int{
	AuthRoleTeacher: 1,
	AuthRoleAdmin:   2,
}

// AuthOptions configures WithAuth.
type AuthOptions struct {
	Role        string
	RequireUser bool
}

// WithAuth guards a single handler, typically one route inside an already
// authenticated group that needs a stronger role than its siblings.
func WithAuth(handler fiber.Handler, opts AuthOptions) fiber.Handler {
	role := normalizeRoleValue(opts.Role)
	if role == "" {
		role = AuthRoleAny
	}
	requireUser := opts.RequireUser || role != AuthRoleAny
	needed, ranked := roleRank[role]

	return func(c *fiber.Ctx) error {
		if requireUser && c.Locals("user_id") == nil {
			return utils.Fail(c, fiber.StatusUnauthorized, "authentication required", nil)
		}
		if role == AuthRoleAny {
			return handler(c)
		}

		current := normalizeRoleValue(c.Locals("user_role"))
		if ranked {
			if roleRank[current] < needed {
				return utils.Fail(c, fiber.StatusForbidden, "insufficient permissions", nil)
			}
		} else if current != role {
			return utils.Fail(c, fiber.StatusForbidden, "insufficient permissions", nil)
		}

		return handler(c)
	}
}
