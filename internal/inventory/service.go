package inventory

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"barstock-backend/internal/apperror"
	"barstock-backend/internal/audit"
	"barstock-backend/internal/auth"
	"barstock-backend/internal/financial"
	"barstock-backend/internal/logger"
	"barstock-backend/internal/models"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ItemView is an item as the API shows it.
type ItemView struct {
	models.InventoryItem
	StockStatus financial.StockStatus `json:"stock_status"`
	SyncState   SyncState             `json:"sync_state"`
}

func view(e Entry) ItemView {
	return ItemView{
		InventoryItem: e.Item,
		StockStatus:   financial.StockStatusOf(e.Item),
		SyncState:     e.State,
	}
}

type Filter struct {
	Search   string
	Category string // "" or "all" for every category
}

func (f Filter) match(it models.InventoryItem) bool {
	if f.Category != "" && !strings.EqualFold(f.Category, "all") && string(it.Category) != f.Category {
		return false
	}
	q := strings.ToLower(strings.TrimSpace(f.Search))
	if q == "" {
		return true
	}
	return strings.Contains(strings.ToLower(it.Name), q) || strings.Contains(strings.ToLower(it.Supplier), q)
}

// ItemInput carries create and partial-update fields; nil means "not sent".
type ItemInput struct {
	Name          *string
	Category      *models.ItemCategory
	Quantity      *int64
	Unit          *models.ItemUnit
	MinStock      *int64
	PurchasePrice *decimal.Decimal
	SellingPrice  *decimal.Decimal
	Supplier      *string
}

func (in ItemInput) apply(it *models.InventoryItem) {
	if in.Name != nil {
		it.Name = strings.TrimSpace(*in.Name)
	}
	if in.Category != nil {
		it.Category = *in.Category
	}
	if in.Quantity != nil {
		it.Quantity = *in.Quantity
	}
	if in.Unit != nil {
		it.Unit = *in.Unit
	}
	if in.MinStock != nil {
		it.MinStock = *in.MinStock
	}
	if in.PurchasePrice != nil {
		it.PurchasePrice = *in.PurchasePrice
	}
	if in.SellingPrice != nil {
		it.SellingPrice = *in.SellingPrice
	}
	if in.Supplier != nil {
		it.Supplier = strings.TrimSpace(*in.Supplier)
	}
}

// checkItem enforces the item invariants on the merged record.
func checkItem(it models.InventoryItem) error {
	switch {
	case it.Name == "":
		return apperror.NewFieldValidation("name", "required", "name is required")
	case !it.Category.Valid():
		return apperror.NewFieldValidation("category", "oneof", fmt.Sprintf("unknown category %q", it.Category))
	case !it.Unit.Valid():
		return apperror.NewFieldValidation("unit", "oneof", fmt.Sprintf("unknown unit %q", it.Unit))
	case it.Quantity < 0:
		return apperror.NewFieldValidation("quantity", "min", "quantity cannot be negative")
	case it.MinStock < 0:
		return apperror.NewFieldValidation("min_stock", "min", "min_stock cannot be negative")
	case it.PurchasePrice.IsNegative():
		return apperror.NewFieldValidation("purchase_price", "min", "purchase_price cannot be negative")
	case it.SellingPrice.IsNegative():
		return apperror.NewFieldValidation("selling_price", "min", "selling_price cannot be negative")
	}
	return nil
}

type Service struct {
	repo  Repository
	store *Store
	audit audit.Writer
	log   *logger.Logger

	loadMu sync.Mutex
}

func NewService(repo Repository, store *Store, auditWriter audit.Writer, log *logger.Logger) *Service {
	return &Service{repo: repo, store: store, audit: auditWriter, log: log.WithComponent("inventory")}
}

// Refresh reloads the snapshot from the repository.
func (s *Service) Refresh(ctx context.Context) error {
	s.loadMu.Lock()
	defer s.loadMu.Unlock()

	items, err := s.repo.List(ctx)
	if err != nil {
		s.log.Errorw("inventory refresh failed", "error", err)
		return err
	}
	s.store.Load(items)
	s.log.Debugw("inventory snapshot loaded", "items", len(items))
	return nil
}

func (s *Service) ensureLoaded(ctx context.Context) error {
	if s.store.Loaded() {
		return nil
	}
	return s.Refresh(ctx)
}

// Items returns the current snapshot for aggregation.
func (s *Service) Items(ctx context.Context) ([]models.InventoryItem, error) {
	if err := s.ensureLoaded(ctx); err != nil {
		return nil, err
	}
	return s.store.Items(), nil
}

func (s *Service) List(ctx context.Context, f Filter) ([]ItemView, error) {
	if err := s.ensureLoaded(ctx); err != nil {
		return nil, err
	}
	out := make([]ItemView, 0)
	for _, e := range s.store.Entries() {
		if f.match(e.Item) {
			out = append(out, view(e))
		}
	}
	return out, nil
}

func (s *Service) Get(ctx context.Context, id string) (ItemView, error) {
	if err := s.ensureLoaded(ctx); err != nil {
		return ItemView{}, err
	}
	e, ok := s.store.Get(id)
	if !ok {
		return ItemView{}, apperror.NewNotFound("inventory item", id)
	}
	return view(e), nil
}

func (s *Service) Create(ctx context.Context, actor auth.Principal, in ItemInput) (ItemView, error) {
	if err := s.ensureLoaded(ctx); err != nil {
		return ItemView{}, err
	}

	item := models.InventoryItem{
		ID:            uuid.NewString(),
		Unit:          models.UnitPieces,
		PurchasePrice: decimal.Zero,
		SellingPrice:  decimal.Zero,
	}
	in.apply(&item)
	if err := checkItem(item); err != nil {
		return ItemView{}, err
	}

	change, err := s.store.StageInsert(item)
	if err != nil {
		return ItemView{}, err
	}
	if err := s.repo.Create(ctx, &item); err != nil {
		s.store.Fail(change)
		s.log.Warnw("inventory insert rolled back", "id", item.ID, "error", err)
		return ItemView{}, err
	}
	s.store.Commit(change, item)

	s.audit.WriteLog(ctx, audit.LogOptions{
		Actor:       actor,
		EntityType:  models.EntityInventoryItem,
		EntityID:    item.ID,
		Action:      models.AuditActionCreate,
		Description: "Added " + item.Name,
		After:       item,
	})
	return view(Entry{Item: item, State: SyncCommitted}), nil
}

func (s *Service) Update(ctx context.Context, actor auth.Principal, id string, in ItemInput) (ItemView, error) {
	if err := s.ensureLoaded(ctx); err != nil {
		return ItemView{}, err
	}
	current, ok := s.store.Get(id)
	if !ok {
		return ItemView{}, apperror.NewNotFound("inventory item", id)
	}

	before := current.Item
	next := current.Item
	in.apply(&next)
	if err := checkItem(next); err != nil {
		return ItemView{}, err
	}

	change, err := s.store.StageUpdate(next)
	if err != nil {
		return ItemView{}, err
	}
	if err := s.repo.Update(ctx, &next); err != nil {
		s.store.Fail(change)
		if apperror.IsNotFound(err) {
			s.store.Forget(id)
		}
		s.log.Warnw("inventory update rolled back", "id", id, "error", err)
		return ItemView{}, err
	}
	s.store.Commit(change, next)

	s.audit.WriteLog(ctx, audit.LogOptions{
		Actor:       actor,
		EntityType:  models.EntityInventoryItem,
		EntityID:    id,
		Action:      models.AuditActionUpdate,
		Description: "Updated " + next.Name,
		Before:      before,
		After:       next,
	})
	return view(Entry{Item: next, State: SyncCommitted}), nil
}

func (s *Service) Delete(ctx context.Context, actor auth.Principal, id string) error {
	if err := s.ensureLoaded(ctx); err != nil {
		return err
	}
	current, ok := s.store.Get(id)
	if !ok {
		return apperror.NewNotFound("inventory item", id)
	}

	change, err := s.store.StageDelete(id)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		if apperror.IsNotFound(err) {
			// already gone from the table; the snapshot was stale
			s.store.Commit(change, models.InventoryItem{})
			return err
		}
		s.store.Fail(change)
		s.log.Warnw("inventory delete rolled back", "id", id, "error", err)
		return err
	}
	s.store.Commit(change, models.InventoryItem{})

	s.audit.WriteLog(ctx, audit.LogOptions{
		Actor:       actor,
		EntityType:  models.EntityInventoryItem,
		EntityID:    id,
		Action:      models.AuditActionDelete,
		Description: "Deleted " + current.Item.Name,
		Before:      current.Item,
	})
	return nil
}
