package auth

import (
	"time"

	"barstock-backend/internal/apperror"
	"barstock-backend/internal/models"

	"github.com/gofiber/fiber/v2"
)

const principalLocal = "principal"

// Principal is the authenticated caller. The middleware builds it once per
// request; handlers pass it on to services explicitly.
type Principal struct {
	UserID    string
	Email     string
	Name      string
	Role      models.UserRole
	TokenID   string
	ExpiresAt time.Time
}

func (p Principal) HasRole(roles ...models.UserRole) bool {
	for _, r := range roles {
		if p.Role == r {
			return true
		}
	}
	return false
}

func (p Principal) IsAdmin() bool {
	return p.Role == models.RoleAdmin
}

func principalFromClaims(c *Claims) Principal {
	p := Principal{
		UserID:  c.Subject,
		Email:   c.Email,
		Name:    c.Name,
		Role:    c.Role,
		TokenID: c.ID,
	}
	if c.ExpiresAt != nil {
		p.ExpiresAt = c.ExpiresAt.Time
	}
	return p
}

// PrincipalFrom returns the caller set by JWTMiddleware.
func PrincipalFrom(c *fiber.Ctx) (Principal, error) {
	p, ok := c.Locals(principalLocal).(Principal)
	if !ok || p.UserID == "" {
		return Principal{}, apperror.NewUnauthorized("Not signed in")
	}
	return p, nil
}

// WithPrincipal stores p on the request; used by the middleware and by tests.
func WithPrincipal(c *fiber.Ctx, p Principal) {
	c.Locals(principalLocal, p)
}
