// Package catalog manages the stock items that sheet movements and sales
// refer to.
package catalog

import (
	"context"
	"strings"

	"barstock-backend/internal/apperror"
	"barstock-backend/internal/audit"
	"barstock-backend/internal/auth"
	"barstock-backend/internal/logger"
	"barstock-backend/internal/models"

	"github.com/google/uuid"
)

type Input struct {
	Name     string
	Category string
	Unit     string
}

func (in Input) normalized() (Input, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Category = strings.TrimSpace(in.Category)
	in.Unit = strings.TrimSpace(in.Unit)
	switch {
	case in.Name == "":
		return in, apperror.NewFieldValidation("name", "required", "name is required")
	case in.Category == "":
		return in, apperror.NewFieldValidation("category", "required", "category is required")
	case in.Unit == "":
		return in, apperror.NewFieldValidation("unit", "required", "unit is required")
	}
	return in, nil
}

type Service struct {
	repo  Repository
	audit audit.Writer
	log   *logger.Logger
}

func NewService(repo Repository, auditWriter audit.Writer, log *logger.Logger) *Service {
	return &Service{repo: repo, audit: auditWriter, log: log.WithComponent("catalog")}
}

func (s *Service) List(ctx context.Context) ([]models.StockItem, error) {
	items, err := s.repo.List(ctx)
	if err != nil {
		s.log.Errorw("list stock items", "error", err)
		return nil, err
	}
	if items == nil {
		items = []models.StockItem{}
	}
	return items, nil
}

func (s *Service) Create(ctx context.Context, actor auth.Principal, in Input) (*models.StockItem, error) {
	in, err := in.normalized()
	if err != nil {
		return nil, err
	}

	item := &models.StockItem{ID: uuid.NewString(), Name: in.Name, Category: in.Category, Unit: in.Unit}
	if err := s.repo.Create(ctx, item); err != nil {
		return nil, err
	}

	s.audit.WriteLog(ctx, audit.LogOptions{
		Actor:       actor,
		EntityType:  models.EntityStockItem,
		EntityID:    item.ID,
		Action:      models.AuditActionCreate,
		Description: "Added stock item " + item.Name,
		After:       item,
	})
	return item, nil
}

func (s *Service) Update(ctx context.Context, actor auth.Principal, id string, in Input) (*models.StockItem, error) {
	in, err := in.normalized()
	if err != nil {
		return nil, err
	}

	before, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	after := *before
	after.Name, after.Category, after.Unit = in.Name, in.Category, in.Unit

	if err := s.repo.Update(ctx, &after); err != nil {
		return nil, err
	}

	s.audit.WriteLog(ctx, audit.LogOptions{
		Actor:       actor,
		EntityType:  models.EntityStockItem,
		EntityID:    id,
		Action:      models.AuditActionUpdate,
		Description: "Updated stock item " + after.Name,
		Before:      before,
		After:       after,
	})
	return &after, nil
}

func (s *Service) Delete(ctx context.Context, actor auth.Principal, id string) error {
	before, err := s.repo.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}

	s.audit.WriteLog(ctx, audit.LogOptions{
		Actor:       actor,
		EntityType:  models.EntityStockItem,
		EntityID:    id,
		Action:      models.AuditActionDelete,
		Description: "Deleted stock item " + before.Name,
		Before:      before,
	})
	return nil
}
