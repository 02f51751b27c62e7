package admin

import (
	"barstock-backend/internal/auth"
	"barstock-backend/internal/models"
	"barstock-backend/internal/validate"

	"github.com/gofiber/fiber/v2"
)

type CreateUserRequest struct {
	FirstName string `json:"first_name" validate:"required,max=100"`
	LastName  string `json:"last_name" validate:"required,max=100"`
	Email     string `json:"email" validate:"required,email"`
	Password  string `json:"password" validate:"required,min=6"`
	Role      string `json:"role" validate:"required,oneof=admin manager employee"`
}

type UpdateUserRequest struct {
	FirstName *string `json:"first_name" validate:"omitempty,max=100"`
	LastName  *string `json:"last_name" validate:"omitempty,max=100"`
	Email     *string `json:"email" validate:"omitempty,email"`
	Role      *string `json:"role" validate:"omitempty,oneof=admin manager employee"`
}

// ----------------------------------------
// Users
// ----------------------------------------

// GET /api/admin/users
func ListUsersHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		users, err := svc.List(c.UserContext())
		if err != nil {
			return err
		}
		return c.JSON(users)
	}
}

// POST /api/admin/users
func CreateUserHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor, err := auth.PrincipalFrom(c)
		if err != nil {
			return err
		}
		var body CreateUserRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
		}
		body.Email = auth.NormalizeEmail(body.Email)
		if err := validate.Struct(body); err != nil {
			return err
		}

		p, err := svc.Create(c.UserContext(), actor, CreateUserInput{
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

// PUT /api/admin/users/:id
func UpdateUserHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := validate.ID(c.Params("id"), "profile")
		if err != nil {
			return err
		}
		actor, err := auth.PrincipalFrom(c)
		if err != nil {
			return err
		}
		var body UpdateUserRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
		}
		if body.Email != nil {
			email := auth.NormalizeEmail(*body.Email)
			body.Email = &email
		}
		if err := validate.Struct(body); err != nil {
			return err
		}

		in := UpdateUserInput{FirstName: body.FirstName, LastName: body.LastName, Email: body.Email}
		if body.Role != nil {
			role := models.UserRole(*body.Role)
			in.Role = &role
		}
		p, err := svc.Update(c.UserContext(), actor, id, in)
		if err != nil {
			return err
		}
		return c.JSON(p)
	}
}

// DELETE /api/admin/users/:id
func DeleteUserHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := validate.ID(c.Params("id"), "profile")
		if err != nil {
			return err
		}
		actor, err := auth.PrincipalFrom(c)
		if err != nil {
			return err
		}
		if err := svc.Delete(c.UserContext(), actor, id); err != nil {
			return err
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}
