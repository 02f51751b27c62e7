package inventory

import (
	"barstock-backend/internal/auth"
	"barstock-backend/internal/models"
	"barstock-backend/internal/validate"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
)

type CreateItemRequest struct {
	Name          string           `json:"name" validate:"required,max=150"`
	Category      string           `json:"category" validate:"required"`
	Quantity      *int64           `json:"quantity" validate:"required,min=0"`
	Unit          string           `json:"unit"`
	MinStock      *int64           `json:"min_stock" validate:"omitempty,min=0"`
	PurchasePrice *decimal.Decimal `json:"purchase_price"`
	SellingPrice  *decimal.Decimal `json:"selling_price"`
	Supplier      string           `json:"supplier" validate:"max=150"`
}

func (r CreateItemRequest) input() ItemInput {
	in := ItemInput{
		Name:          &r.Name,
		Quantity:      r.Quantity,
		MinStock:      r.MinStock,
		PurchasePrice: r.PurchasePrice,
		SellingPrice:  r.SellingPrice,
		Supplier:      &r.Supplier,
	}
	cat := models.ItemCategory(r.Category)
	in.Category = &cat
	if r.Unit != "" {
		unit := models.ItemUnit(r.Unit)
		in.Unit = &unit
	}
	return in
}

// UpdateItemRequest: every field is optional; only sent fields change.
type UpdateItemRequest struct {
	Name          *string          `json:"name" validate:"omitempty,min=1,max=150"`
	Category      *string          `json:"category"`
	Quantity      *int64           `json:"quantity" validate:"omitempty,min=0"`
	Unit          *string          `json:"unit"`
	MinStock      *int64           `json:"min_stock" validate:"omitempty,min=0"`
	PurchasePrice *decimal.Decimal `json:"purchase_price"`
	SellingPrice  *decimal.Decimal `json:"selling_price"`
	Supplier      *string          `json:"supplier" validate:"omitempty,max=150"`
}

func (r UpdateItemRequest) input() ItemInput {
	in := ItemInput{
		Name:          r.Name,
		Quantity:      r.Quantity,
		MinStock:      r.MinStock,
		PurchasePrice: r.PurchasePrice,
		SellingPrice:  r.SellingPrice,
		Supplier:      r.Supplier,
	}
	if r.Category != nil {
		cat := models.ItemCategory(*r.Category)
		in.Category = &cat
	}
	if r.Unit != nil {
		unit := models.ItemUnit(*r.Unit)
		in.Unit = &unit
	}
	return in
}

// ------------------------------------------------------
// Reads
// ------------------------------------------------------

// GET /api/inventory?search=jam&category=Spirits
func ListItemsHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		items, err := svc.List(c.UserContext(), Filter{
			Search:   c.Query("search"),
			Category: c.Query("category"),
		})
		if err != nil {
			return err
		}
		return c.JSON(items)
	}
}

// GET /api/inventory/:id
func GetItemHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		item, err := svc.Get(c.UserContext(), c.Params("id"))
		if err != nil {
			return err
		}
		return c.JSON(item)
	}
}

// ------------------------------------------------------
// Writes
// ------------------------------------------------------

// POST /api/inventory
func CreateItemHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		p, err := auth.PrincipalFrom(c)
		if err != nil {
			return err
		}
		var body CreateItemRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
		}
		if err := validate.Struct(body); err != nil {
			return err
		}

		item, err := svc.Create(c.UserContext(), p, body.input())
		if err != nil {
			return err
		}
		return c.Status(fiber.StatusCreated).JSON(item)
	}
}

// PUT /api/inventory/:id
func UpdateItemHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		p, err := auth.PrincipalFrom(c)
		if err != nil {
			return err
		}
		var body UpdateItemRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
		}
		if err := validate.Struct(body); err != nil {
			return err
		}

		item, err := svc.Update(c.UserContext(), p, c.Params("id"), body.input())
		if err != nil {
			return err
		}
		return c.JSON(item)
	}
}

// DELETE /api/inventory/:id
func DeleteItemHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		p, err := auth.PrincipalFrom(c)
		if err != nil {
			return err
		}
		if err := svc.Delete(c.UserContext(), p, c.Params("id")); err != nil {
			return err
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}

// POST /api/inventory/refresh
func RefreshHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if err := svc.Refresh(c.UserContext()); err != nil {
			return err
		}
		items, err := svc.List(c.UserContext(), Filter{})
		if err != nil {
			return err
		}
		return c.JSON(fiber.Map{"count": len(items)})
	}
}
