package auth

import (
	"strings"

	"barstock-backend/internal/apperror"
	"barstock-backend/internal/logger"
	"barstock-backend/internal/models"

	"github.com/gofiber/fiber/v2"
)

func JWTMiddleware(issuer *TokenIssuer, revocations *Revocations) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get("Authorization")
		if authHeader == "" {
			return apperror.NewUnauthorized("Authorization header is missing")
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
			return apperror.NewUnauthorized("Authorization header must be 'Bearer <token>'")
		}

		claims, err := issuer.Parse(strings.TrimSpace(parts[1]))
		if err != nil {
			return apperror.NewUnauthorized("Invalid or expired token")
		}

		revoked, err := revocations.IsRevoked(c.UserContext(), claims.ID)
		if err != nil {
			return apperror.NewStoreFailure("check token revocation", err)
		}
		if revoked {
			return apperror.NewUnauthorized("Session has been signed out")
		}

		WithPrincipal(c, principalFromClaims(claims))
		c.Locals(logger.UserIDLocal, claims.Subject)

		return c.Next()
	}
}

func RequireRole(allowedRoles ...models.UserRole) fiber.Handler {
	return func(c *fiber.Ctx) error {
		p, err := PrincipalFrom(c)
		if err != nil {
			return err
		}
		if !p.HasRole(allowedRoles...) {
			return apperror.NewForbidden("You do not have permission for this action")
		}
		return c.Next()
	}
}
