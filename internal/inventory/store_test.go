package inventory

import (
	"testing"

	"barstock-backend/internal/apperror"
	"barstock-backend/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func item(id, name string, qty int64) models.InventoryItem {
	return models.InventoryItem{ID: id, Name: name, Category: models.CategoryBeer, Unit: models.UnitCases, Quantity: qty}
}

func names(entries []Entry) []string {
	out := make([]string, 0, len(entries))
	for _, e := range entries {
		out = append(out, e.Item.Name)
	}
	return out
}

func TestStore_LoadKeepsOrder(t *testing.T) {
	s := NewStore()
	assert.False(t, s.Loaded())

	s.Load([]models.InventoryItem{item("b", "Castle", 3), item("a", "Amstel", 9)})

	assert.True(t, s.Loaded())
	assert.Equal(t, []string{"Castle", "Amstel"}, names(s.Entries()))
	for _, e := range s.Entries() {
		assert.Equal(t, SyncCommitted, e.State)
	}
}

func TestStore_InsertCommitAndFail(t *testing.T) {
	s := NewStore()
	s.Load(nil)

	ch, err := s.StageInsert(item("x", "Savanna", 4))
	require.NoError(t, err)
	e, ok := s.Get("x")
	require.True(t, ok)
	assert.Equal(t, SyncPending, e.State)

	stored := item("x", "Savanna", 4)
	stored.Supplier = "SAB"
	s.Commit(ch, stored)
	e, _ = s.Get("x")
	assert.Equal(t, SyncCommitted, e.State)
	assert.Equal(t, "SAB", e.Item.Supplier, "commit keeps the stored row")

	ch, err = s.StageInsert(item("y", "Hunters", 1))
	require.NoError(t, err)
	s.Fail(ch)
	_, ok = s.Get("y")
	assert.False(t, ok, "a failed insert disappears")
	assert.Equal(t, []string{"Savanna"}, names(s.Entries()))
}

func TestStore_UpdateRollsBack(t *testing.T) {
	s := NewStore()
	s.Load([]models.InventoryItem{item("a", "Amstel", 9)})

	ch, err := s.StageUpdate(item("a", "Amstel Lite", 2))
	require.NoError(t, err)
	e, _ := s.Get("a")
	assert.Equal(t, "Amstel Lite", e.Item.Name, "readers see the staged value")
	assert.Equal(t, SyncPending, e.State)

	_, err = s.StageUpdate(item("a", "Other", 1))
	assert.True(t, apperror.HasCode(err, apperror.CodeConflict), "one write in flight per record")

	s.Fail(ch)
	e, _ = s.Get("a")
	assert.Equal(t, "Amstel", e.Item.Name)
	assert.Equal(t, int64(9), e.Item.Quantity)
	assert.Equal(t, SyncCommitted, e.State)
}

func TestStore_DeleteHidesThenRestoresOrRemoves(t *testing.T) {
	s := NewStore()
	s.Load([]models.InventoryItem{item("a", "Amstel", 9), item("b", "Castle", 3), item("c", "Corona", 1)})

	ch, err := s.StageDelete("b")
	require.NoError(t, err)
	assert.Equal(t, []string{"Amstel", "Corona"}, names(s.Entries()))

	s.Fail(ch)
	assert.Equal(t, []string{"Amstel", "Castle", "Corona"}, names(s.Entries()), "position is kept on rollback")

	ch, err = s.StageDelete("b")
	require.NoError(t, err)
	s.Commit(ch, models.InventoryItem{})
	assert.Equal(t, []string{"Amstel", "Corona"}, names(s.Entries()))

	_, err = s.StageDelete("b")
	assert.True(t, apperror.IsNotFound(err))
}

func TestStore_ReloadKeepsWritesInFlight(t *testing.T) {
	s := NewStore()
	s.Load([]models.InventoryItem{item("a", "Amstel", 9), item("b", "Castle", 3)})

	upd, err := s.StageUpdate(item("a", "Amstel", 5))
	require.NoError(t, err)
	ins, err := s.StageInsert(item("n", "Savanna", 4))
	require.NoError(t, err)
	del, err := s.StageDelete("b")
	require.NoError(t, err)

	// another writer changed "a" and the insert is not in the table yet
	s.Load([]models.InventoryItem{item("a", "Amstel", 7), item("b", "Castle", 3)})

	e, ok := s.Get("a")
	require.True(t, ok)
	assert.Equal(t, int64(5), e.Item.Quantity, "staged value stays visible")
	assert.Equal(t, SyncPending, e.State)
	e, ok = s.Get("n")
	require.True(t, ok)
	assert.Equal(t, SyncPending, e.State)
	_, ok = s.Get("b")
	assert.False(t, ok, "pending delete stays hidden")

	s.Commit(ins, item("n", "Savanna", 4))
	s.Fail(upd)
	s.Commit(del, models.InventoryItem{})

	e, _ = s.Get("a")
	assert.Equal(t, int64(7), e.Item.Quantity, "rollback lands on the reloaded row")
	assert.Equal(t, SyncCommitted, e.State)
	e, ok = s.Get("n")
	require.True(t, ok)
	assert.Equal(t, SyncCommitted, e.State)
	assert.Equal(t, []string{"Amstel", "Savanna"}, names(s.Entries()))
}

func TestStore_ReloadThenFailedInsertDisappears(t *testing.T) {
	s := NewStore()
	s.Load(nil)

	ch, err := s.StageInsert(item("n", "Savanna", 4))
	require.NoError(t, err)
	s.Load(nil)
	s.Fail(ch)

	_, ok := s.Get("n")
	assert.False(t, ok)
	assert.Empty(t, s.Entries())
}

func TestStore_CommitWithoutPendingAppliesStoredRow(t *testing.T) {
	s := NewStore()
	s.Load([]models.InventoryItem{item("a", "Amstel", 9)})

	ch, err := s.StageInsert(item("n", "Savanna", 4))
	require.NoError(t, err)
	s.Forget("n")

	s.Commit(ch, item("n", "Savanna", 4))
	e, ok := s.Get("n")
	require.True(t, ok, "a confirmed write is never dropped")
	assert.Equal(t, SyncCommitted, e.State)

	upd, err := s.StageUpdate(item("a", "Amstel", 1))
	require.NoError(t, err)
	s.Fail(upd)
	s.Commit(upd, item("a", "Amstel", 1))
	e, _ = s.Get("a")
	assert.Equal(t, int64(1), e.Item.Quantity)

	next, err := s.StageUpdate(item("a", "Amstel", 2))
	require.NoError(t, err)
	s.Commit(upd, item("a", "Amstel", 1))
	e, _ = s.Get("a")
	assert.Equal(t, int64(2), e.Item.Quantity, "a newer write in flight is left alone")
	assert.Equal(t, SyncPending, e.State)
	s.Commit(next, item("a", "Amstel", 2))
}

func TestStore_ReadersGetCopies(t *testing.T) {
	s := NewStore()
	s.Load([]models.InventoryItem{item("a", "Amstel", 9)})

	items := s.Items()
	items[0].Quantity = 0

	e, _ := s.Get("a")
	assert.Equal(t, int64(9), e.Item.Quantity)
}
