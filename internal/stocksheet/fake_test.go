package stocksheet

import (
	"context"
	"sort"
	"sync"
	"time"

	"barstock-backend/internal/apperror"
	"barstock-backend/internal/audit"
	"barstock-backend/internal/models"
)

// memRepo is an in-memory Repository. writes counts every call that would
// change stored rows; sheetReads counts GetSheet calls.
type memRepo struct {
	mu       sync.Mutex
	sheets   map[string]models.StockSheet
	moves    []models.StockMovement
	sales    []models.SalesRecord
	expenses []models.ExpenseRecord
	items    map[string]models.StockItem
	writes   int
	seq      int

	sheetReads int

	failSales error
}

func newMemRepo() *memRepo {
	return &memRepo{sheets: map[string]models.StockSheet{}, items: map[string]models.StockItem{}}
}

func (m *memRepo) stamp() time.Time {
	m.seq++
	return time.Date(2024, 6, 1, 8, 0, m.seq, 0, time.UTC)
}

func (m *memRepo) ListSheets(context.Context) ([]models.StockSheet, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]models.StockSheet, 0, len(m.sheets))
	for _, s := range m.sheets {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.After(out[j].Date) })
	return out, nil
}

func (m *memRepo) GetSheet(_ context.Context, id string) (*models.StockSheet, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sheetReads++
	s, ok := m.sheets[id]
	if !ok {
		return nil, apperror.NewNotFound("stock sheet", id)
	}
	return &s, nil
}

func (m *memRepo) CreateSheet(_ context.Context, s *models.StockSheet) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.writes++
	s.CreatedAt = m.stamp()
	m.sheets[s.ID] = *s
	return nil
}

func (m *memRepo) UpdateSheet(_ context.Context, s *models.StockSheet) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.writes++
	cur, ok := m.sheets[s.ID]
	if !ok {
		return apperror.NewNotFound("stock sheet", s.ID)
	}
	cur.Date, cur.Notes = s.Date, s.Notes
	m.sheets[s.ID] = cur
	return nil
}

func (m *memRepo) UpdateStatus(_ context.Context, id string, from, to models.SheetStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.writes++
	cur, ok := m.sheets[id]
	if !ok {
		return apperror.NewNotFound("stock sheet", id)
	}
	if cur.Status != from {
		return apperror.NewInvalidTransition(string(cur.Status), string(to))
	}
	cur.Status = to
	m.sheets[id] = cur
	return nil
}

func (m *memRepo) DeleteSheet(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.writes++
	if _, ok := m.sheets[id]; !ok {
		return apperror.NewNotFound("stock sheet", id)
	}
	delete(m.sheets, id)
	m.moves = filter(m.moves, func(r models.StockMovement) bool { return r.StockSheetID != id })
	m.sales = filter(m.sales, func(r models.SalesRecord) bool { return r.StockSheetID != id })
	m.expenses = filter(m.expenses, func(r models.ExpenseRecord) bool { return r.StockSheetID != id })
	return nil
}

func filter[T any](rows []T, keep func(T) bool) []T {
	out := rows[:0]
	for _, r := range rows {
		if keep(r) {
			out = append(out, r)
		}
	}
	return out
}

func (m *memRepo) ListMovements(_ context.Context, sheetID string) ([]models.StockMovement, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.StockMovement
	for _, r := range m.moves {
		if r.StockSheetID == sheetID {
			if it, ok := m.items[r.ItemID]; ok {
				r.StockItem = &it
			}
			out = append(out, r)
		}
	}
	return out, nil
}

func (m *memRepo) GetMovement(_ context.Context, sheetID, id string) (*models.StockMovement, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.moves {
		if r.ID == id && r.StockSheetID == sheetID {
			return &r, nil
		}
	}
	return nil, apperror.NewNotFound("stock movement", id)
}

func (m *memRepo) CreateMovement(_ context.Context, r *models.StockMovement) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.writes++
	r.CreatedAt = m.stamp()
	m.moves = append(m.moves, *r)
	return nil
}

func (m *memRepo) UpdateMovement(_ context.Context, r *models.StockMovement) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.writes++
	for i := range m.moves {
		if m.moves[i].ID == r.ID && m.moves[i].StockSheetID == r.StockSheetID {
			m.moves[i] = *r
			return nil
		}
	}
	return apperror.NewNotFound("stock movement", r.ID)
}

func (m *memRepo) DeleteMovement(_ context.Context, sheetID, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.writes++
	n := len(m.moves)
	m.moves = filter(m.moves, func(r models.StockMovement) bool { return !(r.ID == id && r.StockSheetID == sheetID) })
	if len(m.moves) == n {
		return apperror.NewNotFound("stock movement", id)
	}
	return nil
}

func (m *memRepo) ListSales(_ context.Context, sheetID string) ([]models.SalesRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failSales != nil {
		return nil, m.failSales
	}
	var out []models.SalesRecord
	for _, r := range m.sales {
		if r.StockSheetID == sheetID {
			if it, ok := m.items[r.ItemID]; ok {
				r.StockItem = &it
			}
			out = append(out, r)
		}
	}
	return out, nil
}

func (m *memRepo) GetSale(_ context.Context, sheetID, id string) (*models.SalesRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.sales {
		if r.ID == id && r.StockSheetID == sheetID {
			return &r, nil
		}
	}
	return nil, apperror.NewNotFound("sales record", id)
}

func (m *memRepo) CreateSale(_ context.Context, r *models.SalesRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.writes++
	r.CreatedAt = m.stamp()
	m.sales = append(m.sales, *r)
	return nil
}

func (m *memRepo) UpdateSale(_ context.Context, r *models.SalesRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.writes++
	for i := range m.sales {
		if m.sales[i].ID == r.ID && m.sales[i].StockSheetID == r.StockSheetID {
			m.sales[i] = *r
			return nil
		}
	}
	return apperror.NewNotFound("sales record", r.ID)
}

func (m *memRepo) DeleteSale(_ context.Context, sheetID, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.writes++
	n := len(m.sales)
	m.sales = filter(m.sales, func(r models.SalesRecord) bool { return !(r.ID == id && r.StockSheetID == sheetID) })
	if len(m.sales) == n {
		return apperror.NewNotFound("sales record", id)
	}
	return nil
}

func (m *memRepo) ListExpenses(_ context.Context, sheetID string) ([]models.ExpenseRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.ExpenseRecord
	for _, r := range m.expenses {
		if r.StockSheetID == sheetID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (m *memRepo) GetExpense(_ context.Context, sheetID, id string) (*models.ExpenseRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.expenses {
		if r.ID == id && r.StockSheetID == sheetID {
			return &r, nil
		}
	}
	return nil, apperror.NewNotFound("expense", id)
}

func (m *memRepo) CreateExpense(_ context.Context, r *models.ExpenseRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.writes++
	r.CreatedAt = m.stamp()
	m.expenses = append(m.expenses, *r)
	return nil
}

func (m *memRepo) UpdateExpense(_ context.Context, r *models.ExpenseRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.writes++
	for i := range m.expenses {
		if m.expenses[i].ID == r.ID && m.expenses[i].StockSheetID == r.StockSheetID {
			m.expenses[i] = *r
			return nil
		}
	}
	return apperror.NewNotFound("expense", r.ID)
}

func (m *memRepo) DeleteExpense(_ context.Context, sheetID, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.writes++
	n := len(m.expenses)
	m.expenses = filter(m.expenses, func(r models.ExpenseRecord) bool { return !(r.ID == id && r.StockSheetID == sheetID) })
	if len(m.expenses) == n {
		return apperror.NewNotFound("expense", id)
	}
	return nil
}

func (m *memRepo) readCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sheetReads
}

func (m *memRepo) writeCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.writes
}

type auditSpy struct {
	mu      sync.Mutex
	entries []audit.LogOptions
}

func (a *auditSpy) WriteLog(_ context.Context, o audit.LogOptions) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.entries = append(a.entries, o)
}
