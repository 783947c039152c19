package middleware

import (
	"errors"
	"strings"

	"go-inventory-checklist/internal/model"
	"go-inventory-checklist/internal/service"
	"go-inventory-checklist/pkg/jwt"

	"github.com/gofiber/fiber/v2"
)

// Context keys set by the auth middlewares. The websocket connection
// inherits them, so the realtime feed reads LocalUser directly.
const (
	LocalUser   = "user"
	LocalClaims = "claims"
)

// RequireToken only verifies the provider access token. It guards the sync
// endpoint, which runs before a local account is known.
func RequireToken(verifier *jwt.Verifier) fiber.Handler {
	return func(c *fiber.Ctx) error {
		tokenString, err := jwt.BearerToken(c.Get(fiber.HeaderAuthorization))
		if err != nil {
			return c.Status(401).JSON(fiber.Map{"error": "Missing or malformed authorization token"})
		}
		claims, err := verifier.ValidateToken(tokenString)
		if err != nil {
			return c.Status(401).JSON(fiber.Map{"error": "Invalid or expired token"})
		}
		c.Locals(LocalClaims, claims)
		return c.Next()
	}
}

// RequireAuth verifies the token and loads the linked local user into the context.
func RequireAuth(auth service.AuthService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		tokenString, err := jwt.BearerToken(c.Get(fiber.HeaderAuthorization))
		if err != nil {
			// the realtime feed passes the token as a query parameter
			tokenString = c.Query("token")
		}
		if tokenString == "" {
			return c.Status(401).JSON(fiber.Map{"error": "Missing or malformed authorization token"})
		}
		return authenticate(c, auth, tokenString)
	}
}

func authenticate(c *fiber.Ctx, auth service.AuthService, tokenString string) error {
	claims, user, err := auth.Authenticate(tokenString)
	switch {
	case err == nil:
	case errors.Is(err, jwt.ErrInvalidToken):
		return c.Status(401).JSON(fiber.Map{"error": "Invalid or expired token"})
	case errors.Is(err, service.ErrNoLocalAccount):
		return c.Status(403).JSON(fiber.Map{"error": "No account for this identity, sync first"})
	case errors.Is(err, service.ErrUserInactive), errors.Is(err, service.ErrCompanyInactive):
		return c.Status(403).JSON(fiber.Map{"error": err.Error()})
	default:
		return c.Status(500).JSON(fiber.Map{"error": "Failed to authenticate"})
	}

	c.Locals(LocalClaims, claims)
	c.Locals(LocalUser, user)
	return c.Next()
}

// RequireRole lets through users holding at least one of roles.
func RequireRole(roles ...model.Role) fiber.Handler {
	return func(c *fiber.Ctx) error {
		user := CurrentUser(c)
		if user == nil {
			return c.Status(401).JSON(fiber.Map{"error": "Not authenticated"})
		}
		for _, r := range roles {
			if user.Role == r {
				return c.Next()
			}
		}
		return c.Status(403).JSON(fiber.Map{"error": "Forbidden: requires role " + joinRoles(roles)})
	}
}

func joinRoles(roles []model.Role) string {
	names := make([]string, len(roles))
	for i, r := range roles {
		names[i] = string(r)
	}
	return strings.Join(names, " or ")
}

// RequirePermission checks the user's permission list; MASTER passes every check.
func RequirePermission(code string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		user := CurrentUser(c)
		if user == nil {
			return c.Status(401).JSON(fiber.Map{"error": "Not authenticated"})
		}
		if !user.HasPermission(code) {
			return c.Status(403).JSON(fiber.Map{
				"error": "Forbidden: requires '" + code + "' permission",
			})
		}
		return c.Next()
	}
}

// CurrentUser returns the user set by RequireAuth, or nil.
func CurrentUser(c *fiber.Ctx) *model.User {
	user, _ := c.Locals(LocalUser).(*model.User)
	return user
}

// Claims returns the verified token claims, or nil.
func Claims(c *fiber.Ctx) *jwt.Claims {
	claims, _ := c.Locals(LocalClaims).(*jwt.Claims)
	return claims
}
