package catalog

import (
	"barstock-backend/internal/auth"
	"barstock-backend/internal/validate"

	"github.com/gofiber/fiber/v2"
)

type StockItemRequest struct {
	Name     string `json:"name" validate:"required,max=150"`
	Category string `json:"category" validate:"required,max=50"`
	Unit     string `json:"unit" validate:"required,max=20"`
}

func parseStockItem(c *fiber.Ctx) (Input, error) {
	var body StockItemRequest
	if err := c.BodyParser(&body); err != nil {
		return Input{}, fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}
	if err := validate.Struct(body); err != nil {
		return Input{}, err
	}
	return Input{Name: body.Name, Category: body.Category, Unit: body.Unit}, nil
}

// GET /api/stock-items
func ListStockItemsHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		items, err := svc.List(c.UserContext())
		if err != nil {
			return err
		}
		return c.JSON(items)
	}
}

// POST /api/stock-items
func CreateStockItemHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		p, err := auth.PrincipalFrom(c)
		if err != nil {
			return err
		}
		in, err := parseStockItem(c)
		if err != nil {
			return err
		}
		item, err := svc.Create(c.UserContext(), p, in)
		if err != nil {
			return err
		}
		return c.Status(fiber.StatusCreated).JSON(item)
	}
}

// PUT /api/stock-items/:id
func UpdateStockItemHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := validate.ID(c.Params("id"), "stock item")
		if err != nil {
			return err
		}
		p, err := auth.PrincipalFrom(c)
		if err != nil {
			return err
		}
		in, err := parseStockItem(c)
		if err != nil {
			return err
		}
		item, err := svc.Update(c.UserContext(), p, id, in)
		if err != nil {
			return err
		}
		return c.JSON(item)
	}
}

// DELETE /api/stock-items/:id
func DeleteStockItemHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := validate.ID(c.Params("id"), "stock item")
		if err != nil {
			return err
		}
		p, err := auth.PrincipalFrom(c)
		if err != nil {
			return err
		}
		if err := svc.Delete(c.UserContext(), p, id); err != nil {
			return err
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}
