package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/example/jinsharnam/internal/services"
)

const identityContextKey = "currentIdentity"

// SessionResolver turns a bearer token into an identity.
type SessionResolver interface {
	ResolveSession(token string) (*services.Identity, error)
}

// AuthMiddleware validates bearer tokens and stores the identity in context.
func AuthMiddleware(sessions SessionResolver) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get(fiber.HeaderAuthorization)
		if authHeader == "" {
			return fiber.NewError(fiber.StatusUnauthorized, "missing authorization header")
		}

		identity, err := resolve(sessions, authHeader)
		if err != nil {
			return err
		}

		c.Locals(identityContextKey, identity)
		return c.Next()
	}
}

// OptionalAuth resolves a bearer token when one is sent. A present but
// invalid token is still rejected.
func OptionalAuth(sessions SessionResolver) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get(fiber.HeaderAuthorization)
		if authHeader == "" {
			return c.Next()
		}

		identity, err := resolve(sessions, authHeader)
		if err != nil {
			return err
		}

		c.Locals(identityContextKey, identity)
		return c.Next()
	}
}

// RequireAdmin rejects requests whose identity does not carry the ADMIN role.
// It must run after AuthMiddleware.
func RequireAdmin() fiber.Handler {
	return func(c *fiber.Ctx) error {
		identity, ok := CurrentIdentity(c)
		if !ok {
			return fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
		}
		if !identity.IsAdmin() {
			return fiber.NewError(fiber.StatusForbidden, "admin access required")
		}
		return c.Next()
	}
}

// CurrentIdentity extracts the authenticated identity from context.
func CurrentIdentity(c *fiber.Ctx) (*services.Identity, bool) {
	identity, ok := c.Locals(identityContextKey).(*services.Identity)
	if !ok || identity == nil {
		return nil, false
	}
	return identity, true
}

func resolve(sessions SessionResolver, authHeader string) (*services.Identity, error) {
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return nil, fiber.NewError(fiber.StatusUnauthorized, "invalid authorization header")
	}

	identity, err := sessions.ResolveSession(strings.TrimSpace(parts[1]))
	if err != nil {
		return nil, fiber.NewError(fiber.StatusUnauthorized, "invalid token")
	}
	return identity, nil
}
