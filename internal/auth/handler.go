package auth

import (
	"barstock-backend/internal/models"
	"barstock-backend/internal/validate"

	"github.com/gofiber/fiber/v2"
)

type SignUpRequest struct {
	FirstName       string `json:"first_name" validate:"required,max=100"`
	LastName        string `json:"last_name" validate:"required,max=100"`
	Email           string `json:"email" validate:"required,email"`
	Password        string `json:"password" validate:"required,min=6"`
	ConfirmPassword string `json:"confirm_password" validate:"required,eqfield=Password"`
	Role            string `json:"role" validate:"omitempty,oneof=admin manager employee"`
}

type SignInRequest struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// POST /api/auth/sign-up
func SignUpHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body SignUpRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
		}
		body.Email = NormalizeEmail(body.Email)
		if err := validate.Struct(body); err != nil {
			return err
		}

		p, err := svc.SignUp(c.UserContext(), SignUpInput{
			FirstName: body.FirstName,
			LastName:  body.LastName,
			Email:     body.Email,
			Password:  body.Password,
			Role:      models.UserRole(body.Role),
		})
		if err != nil {
			return err
		}
		return c.Status(fiber.StatusCreated).JSON(p)
	}
}

// POST /api/auth/sign-in
func SignInHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body SignInRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
		}
		if err := validate.Struct(body); err != nil {
			return err
		}

		session, err := svc.SignIn(c.UserContext(), body.Email, body.Password)
		if err != nil {
			return err
		}
		return c.JSON(session)
	}
}

// POST /api/auth/sign-out
func SignOutHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		p, err := PrincipalFrom(c)
		if err != nil {
			return err
		}
		if err := svc.SignOut(c.UserContext(), p); err != nil {
			return err
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}

// GET /api/auth/me
func MeHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		p, err := PrincipalFrom(c)
		if err != nil {
			return err
		}
		profile, err := svc.Me(c.UserContext(), p)
		if err != nil {
			return err
		}
		return c.JSON(profile)
	}
}
