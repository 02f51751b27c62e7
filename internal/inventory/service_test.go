package inventory

import (
	"context"
	"errors"
	"sync"
	"testing"

	"barstock-backend/internal/apperror"
	"barstock-backend/internal/audit"
	"barstock-backend/internal/auth/authtest"
	"barstock-backend/internal/logger"
	"barstock-backend/internal/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRepo struct {
	mu    sync.Mutex
	rows  []models.InventoryItem
	lists int

	// failWrites is returned by Create, Update and Delete when set
	failWrites error
}

func (f *fakeRepo) List(context.Context) ([]models.InventoryItem, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lists++
	return append([]models.InventoryItem(nil), f.rows...), nil
}

func (f *fakeRepo) Get(_ context.Context, id string) (*models.InventoryItem, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, r := range f.rows {
		if r.ID == id {
			return &r, nil
		}
	}
	return nil, apperror.NewNotFound("inventory item", id)
}

func (f *fakeRepo) Create(_ context.Context, it *models.InventoryItem) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failWrites != nil {
		return f.failWrites
	}
	f.rows = append(f.rows, *it)
	return nil
}

func (f *fakeRepo) Update(_ context.Context, it *models.InventoryItem) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failWrites != nil {
		return f.failWrites
	}
	for i := range f.rows {
		if f.rows[i].ID == it.ID {
			f.rows[i] = *it
			return nil
		}
	}
	return apperror.NewNotFound("inventory item", it.ID)
}

func (f *fakeRepo) Delete(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failWrites != nil {
		return f.failWrites
	}
	for i := range f.rows {
		if f.rows[i].ID == id {
			f.rows = append(f.rows[:i], f.rows[i+1:]...)
			return nil
		}
	}
	return apperror.NewNotFound("inventory item", id)
}

type auditSpy struct {
	mu      sync.Mutex
	entries []audit.LogOptions
}

func (a *auditSpy) WriteLog(_ context.Context, opts audit.LogOptions) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.entries = append(a.entries, opts)
}

func newTestService(seed ...models.InventoryItem) (*Service, *fakeRepo, *auditSpy) {
	repo := &fakeRepo{rows: seed}
	spy := &auditSpy{}
	return NewService(repo, NewStore(), spy, logger.Nop()), repo, spy
}

func ptr[T any](v T) *T { return &v }

var manager = authtest.Principal(models.RoleManager)

func TestService_ListFilters(t *testing.T) {
	svc, repo, _ := newTestService(
		models.InventoryItem{ID: "1", Name: "Jameson", Category: models.CategorySpirits, Quantity: 2, MinStock: 5, Supplier: "Distell", Unit: models.UnitBottles},
		models.InventoryItem{ID: "2", Name: "Castle Lager", Category: models.CategoryBeer, Quantity: 12, MinStock: 5, Supplier: "SAB", Unit: models.UnitCases},
		models.InventoryItem{ID: "3", Name: "Tonic", Category: models.CategoryMixers, Quantity: 7, MinStock: 5, Supplier: "SAB", Unit: models.UnitBottles},
	)
	ctx := context.Background()

	tests := []struct {
		name   string
		filter Filter
		want   []string
	}{
		{"no filter", Filter{}, []string{"1", "2", "3"}},
		{"all category", Filter{Category: "all"}, []string{"1", "2", "3"}},
		{"category", Filter{Category: "Beer"}, []string{"2"}},
		{"search by name", Filter{Search: "JAME"}, []string{"1"}},
		{"search by supplier", Filter{Search: "sab"}, []string{"2", "3"}},
		{"both", Filter{Search: "sab", Category: "Mixers"}, []string{"3"}},
		{"nothing", Filter{Search: "zzz"}, []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := svc.List(ctx, tt.filter)
			require.NoError(t, err)
			ids := make([]string, 0, len(got))
			for _, v := range got {
				ids = append(ids, v.ID)
			}
			assert.Equal(t, tt.want, ids)
		})
	}
	assert.Equal(t, 1, repo.lists, "the snapshot is loaded once")

	views, _ := svc.List(ctx, Filter{})
	assert.Equal(t, "low", string(views[0].StockStatus))
	assert.Equal(t, "good", string(views[1].StockStatus))
	assert.Equal(t, "medium", string(views[2].StockStatus))
	assert.Equal(t, SyncCommitted, views[0].SyncState)
}

func TestService_CreateDefaultsAndAudit(t *testing.T) {
	svc, repo, spy := newTestService()
	ctx := context.Background()

	v, err := svc.Create(ctx, manager, ItemInput{
		Name:     ptr(" Savanna Dry "),
		Category: ptr(models.CategoryBeer),
		Quantity: ptr(int64(24)),
	})
	require.NoError(t, err)

	assert.NotEmpty(t, v.ID)
	assert.Equal(t, "Savanna Dry", v.Name)
	assert.Equal(t, models.UnitPieces, v.Unit)
	assert.True(t, v.PurchasePrice.IsZero())
	assert.Equal(t, SyncCommitted, v.SyncState)
	assert.Len(t, repo.rows, 1)

	require.Len(t, spy.entries, 1)
	assert.Equal(t, models.AuditActionCreate, spy.entries[0].Action)
	assert.Equal(t, manager.UserID, spy.entries[0].Actor.UserID)
}

func TestService_CreateValidation(t *testing.T) {
	svc, repo, _ := newTestService()
	ctx := context.Background()

	tests := []struct {
		name  string
		in    ItemInput
		field string
	}{
		{"missing name", ItemInput{Category: ptr(models.CategoryBeer), Quantity: ptr(int64(1))}, "name"},
		{"bad category", ItemInput{Name: ptr("x"), Category: ptr(models.ItemCategory("Cigars")), Quantity: ptr(int64(1))}, "category"},
		{"bad unit", ItemInput{Name: ptr("x"), Category: ptr(models.CategoryBeer), Unit: ptr(models.ItemUnit("crates"))}, "unit"},
		{"negative quantity", ItemInput{Name: ptr("x"), Category: ptr(models.CategoryBeer), Quantity: ptr(int64(-1))}, "quantity"},
		{"negative min", ItemInput{Name: ptr("x"), Category: ptr(models.CategoryBeer), MinStock: ptr(int64(-2))}, "min_stock"},
		{"negative price", ItemInput{Name: ptr("x"), Category: ptr(models.CategoryBeer), SellingPrice: ptr(decimal.NewFromInt(-1))}, "selling_price"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Create(ctx, manager, tt.in)
			appErr, ok := apperror.AsAppError(err)
			require.True(t, ok)
			assert.Equal(t, apperror.CodeValidation, appErr.Code)
			assert.Contains(t, appErr.Details, tt.field)
		})
	}
	assert.Empty(t, repo.rows)
}

func TestService_FailedWritesRollBack(t *testing.T) {
	seed := models.InventoryItem{ID: "1", Name: "Jameson", Category: models.CategorySpirits, Quantity: 10, Unit: models.UnitBottles}
	svc, repo, spy := newTestService(seed)
	ctx := context.Background()
	_, err := svc.List(ctx, Filter{})
	require.NoError(t, err)

	boom := apperror.NewStoreFailure("write", errors.New("connection reset"))
	repo.failWrites = boom

	_, err = svc.Create(ctx, manager, ItemInput{Name: ptr("Tonic"), Category: ptr(models.CategoryMixers), Quantity: ptr(int64(1))})
	assert.ErrorIs(t, err, boom)

	_, err = svc.Update(ctx, manager, "1", ItemInput{Quantity: ptr(int64(3))})
	assert.ErrorIs(t, err, boom)

	err = svc.Delete(ctx, manager, "1")
	assert.ErrorIs(t, err, boom)

	views, err := svc.List(ctx, Filter{})
	require.NoError(t, err)
	require.Len(t, views, 1)
	assert.Equal(t, int64(10), views[0].Quantity)
	assert.Equal(t, SyncCommitted, views[0].SyncState)
	assert.Empty(t, spy.entries, "failed writes are not audited")
}

func TestService_UpdateAndDelete(t *testing.T) {
	seed := models.InventoryItem{ID: "1", Name: "Jameson", Category: models.CategorySpirits, Quantity: 10, MinStock: 2, Unit: models.UnitBottles}
	svc, repo, spy := newTestService(seed)
	ctx := context.Background()

	v, err := svc.Update(ctx, manager, "1", ItemInput{Quantity: ptr(int64(1)), PurchasePrice: ptr(decimal.RequireFromString("199.99"))})
	require.NoError(t, err)
	assert.Equal(t, int64(1), v.Quantity)
	assert.Equal(t, "Jameson", v.Name, "unsent fields are kept")
	assert.Equal(t, "low", string(v.StockStatus))
	assert.Equal(t, "199.99", repo.rows[0].PurchasePrice.String())

	_, err = svc.Update(ctx, manager, "nope", ItemInput{Quantity: ptr(int64(1))})
	assert.True(t, apperror.IsNotFound(err))

	require.NoError(t, svc.Delete(ctx, manager, "1"))
	assert.Empty(t, repo.rows)
	_, err = svc.Get(ctx, "1")
	assert.True(t, apperror.IsNotFound(err))

	require.Len(t, spy.entries, 2)
	assert.Equal(t, models.AuditActionUpdate, spy.entries[0].Action)
	assert.Equal(t, models.AuditActionDelete, spy.entries[1].Action)
}

func TestService_UpdateOfVanishedRowForgetsIt(t *testing.T) {
	seed := models.InventoryItem{ID: "1", Name: "Jameson", Category: models.CategorySpirits, Quantity: 10, Unit: models.UnitBottles}
	svc, repo, _ := newTestService(seed)
	ctx := context.Background()
	_, err := svc.Items(ctx)
	require.NoError(t, err)

	repo.rows = nil

	_, err = svc.Update(ctx, manager, "1", ItemInput{Quantity: ptr(int64(3))})
	assert.True(t, apperror.IsNotFound(err))

	items, err := svc.Items(ctx)
	require.NoError(t, err)
	assert.Empty(t, items)
}

// gatedRepo holds Create and Update until release is closed.
type gatedRepo struct {
	*fakeRepo
	entered chan struct{}
	release chan struct{}
}

func (g *gatedRepo) Create(ctx context.Context, it *models.InventoryItem) error {
	g.entered <- struct{}{}
	<-g.release
	return g.fakeRepo.Create(ctx, it)
}

func (g *gatedRepo) Update(ctx context.Context, it *models.InventoryItem) error {
	g.entered <- struct{}{}
	<-g.release
	return g.fakeRepo.Update(ctx, it)
}

func TestService_RefreshDuringWriteKeepsTheWrite(t *testing.T) {
	seed := models.InventoryItem{ID: "1", Name: "Jameson", Category: models.CategorySpirits, Quantity: 10, MinStock: 2, Unit: models.UnitBottles}
	repo := &gatedRepo{fakeRepo: &fakeRepo{rows: []models.InventoryItem{seed}}, entered: make(chan struct{}, 2), release: make(chan struct{})}
	svc := NewService(repo, NewStore(), &auditSpy{}, logger.Nop())
	ctx := context.Background()
	require.NoError(t, svc.Refresh(ctx))

	type result struct {
		v   ItemView
		err error
	}
	created := make(chan result, 1)
	updated := make(chan result, 1)
	go func() {
		v, err := svc.Create(ctx, manager, ItemInput{Name: ptr("Savanna"), Category: ptr(models.CategoryBeer), Quantity: ptr(int64(24))})
		created <- result{v, err}
	}()
	go func() {
		v, err := svc.Update(ctx, manager, "1", ItemInput{Quantity: ptr(int64(3))})
		updated <- result{v, err}
	}()
	<-repo.entered
	<-repo.entered

	require.NoError(t, svc.Refresh(ctx))
	close(repo.release)

	c := <-created
	require.NoError(t, c.err)
	u := <-updated
	require.NoError(t, u.err)

	got, err := svc.Get(ctx, c.v.ID)
	require.NoError(t, err, "the created row is still served after the reload")
	assert.Equal(t, SyncCommitted, got.SyncState)

	got, err = svc.Get(ctx, "1")
	require.NoError(t, err)
	assert.Equal(t, int64(3), got.Quantity)
	assert.Equal(t, SyncCommitted, got.SyncState)

	items, err := svc.Items(ctx)
	require.NoError(t, err)
	assert.Len(t, items, 2)
}
