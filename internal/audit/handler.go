package audit

import (
	"encoding/json"
	"strconv"

	"barstock-backend/internal/auth"
	"barstock-backend/internal/models"

	"github.com/gofiber/fiber/v2"
)

type AuditLogResponse struct {
	ID          uint               `json:"id"`
	CreatedAt   string             `json:"created_at"`
	UserID      string             `json:"user_id"`
	UserName    string             `json:"user_name"`
	EntityType  string             `json:"entity_type"`
	EntityID    string             `json:"entity_id"`
	Action      models.AuditAction `json:"action"`
	Description string             `json:"description"`
	Before      json.RawMessage    `json:"before"`
	After       json.RawMessage    `json:"after"`
	IsUndone    bool               `json:"is_undone"`
	UndoneBy    *string            `json:"undone_by"`
	UndoneAt    *string            `json:"undone_at"`
}

const timeLayout = "2006-01-02 15:04:05"

func rawOrNull(s string) json.RawMessage {
	if s == "" {
		return json.RawMessage("null")
	}
	return json.RawMessage(s)
}

func toResponse(l models.AuditLog) AuditLogResponse {
	var undoneAt *string
	if l.UndoneAt != nil {
		formatted := l.UndoneAt.Format(timeLayout)
		undoneAt = &formatted
	}
	return AuditLogResponse{
		ID:          l.ID,
		CreatedAt:   l.CreatedAt.Format(timeLayout),
		UserID:      l.UserID,
		UserName:    l.UserName,
		EntityType:  l.EntityType,
		EntityID:    l.EntityID,
		Action:      l.Action,
		Description: l.Description,
		Before:      rawOrNull(l.BeforeData),
		After:       rawOrNull(l.AfterData),
		IsUndone:    l.IsUndone,
		UndoneBy:    l.UndoneBy,
		UndoneAt:    undoneAt,
	}
}

// GET /api/audit-logs?entity_type=expense&limit=50
func ListAuditLogsHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		limit := 0
		if raw := c.Query("limit"); raw != "" {
			n, err := strconv.Atoi(raw)
			if err != nil || n <= 0 {
				return fiber.NewError(fiber.StatusBadRequest, "limit must be a positive number")
			}
			limit = n
		}

		logs, err := svc.List(c.UserContext(), c.Query("entity_type"), limit)
		if err != nil {
			return err
		}

		resp := make([]AuditLogResponse, 0, len(logs))
		for _, l := range logs {
			resp = append(resp, toResponse(l))
		}
		return c.JSON(resp)
	}
}

// POST /api/audit-logs/:id/undo
func UndoAuditLogHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		logID, err := strconv.ParseUint(c.Params("id"), 10, 64)
		if err != nil || logID == 0 {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid log id")
		}

		p, err := auth.PrincipalFrom(c)
		if err != nil {
			return err
		}

		undo, err := svc.Undo(c.UserContext(), uint(logID), p)
		if err != nil {
			return err
		}
		return c.JSON(toResponse(*undo))
	}
}
