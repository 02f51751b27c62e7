package inventory

import (
	"sync"

	"barstock-backend/internal/apperror"
	"barstock-backend/internal/models"
)

type SyncState string

const (
	SyncPending   SyncState = "pending"
	SyncCommitted SyncState = "committed"
)

type Op string

const (
	OpInsert Op = "insert"
	OpUpdate Op = "update"
	OpDelete Op = "delete"
)

// RecordState is one of Pending or Committed. A failed write never leaves
// a record in a third state: Fail puts back the Committed value the Pending
// state was holding.
type RecordState interface {
	Sync() SyncState
}

// Pending: a write is in flight. Previous is the last committed value, nil
// for an insert.
type Pending struct {
	Op       Op
	Previous *models.InventoryItem
	seq      uint64
}

func (Pending) Sync() SyncState { return SyncPending }

type Committed struct{}

func (Committed) Sync() SyncState { return SyncCommitted }

type record struct {
	// item is what readers see; nil while a delete is pending
	item  *models.InventoryItem
	state RecordState
}

// Entry is a copy of one visible record.
type Entry struct {
	Item  models.InventoryItem
	State SyncState
}

// Change identifies one staged write; pass it back to Commit or Fail.
type Change struct {
	ID  string
	Op  Op
	seq uint64
}

// Store is the in-memory, insertion-ordered snapshot of inventory items that
// every read is served from. Writes are staged here first, then committed or
// rolled back once the repository answers.
type Store struct {
	mu      sync.RWMutex
	order   []string
	records map[string]*record
	loaded  bool
	seq     uint64
}

func NewStore() *Store {
	return &Store{records: make(map[string]*record)}
}

func (s *Store) Loaded() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loaded
}

// Load replaces the snapshot with committed items in the given order.
// Records with a write in flight survive the reload: they keep their staged
// value and now roll back to the freshly loaded row, or vanish on Fail when
// the store no longer has one.
func (s *Store) Load(items []models.InventoryItem) {
	s.mu.Lock()
	defer s.mu.Unlock()

	order := make([]string, 0, len(items))
	records := make(map[string]*record, len(items))
	for i := range items {
		it := items[i]
		order = append(order, it.ID)
		if r, ok := s.records[it.ID]; ok {
			if p, pending := r.state.(Pending); pending {
				p.Previous = &it
				records[it.ID] = &record{item: r.item, state: p}
				continue
			}
		}
		records[it.ID] = &record{item: &it, state: Committed{}}
	}
	for _, id := range s.order {
		if _, kept := records[id]; kept {
			continue
		}
		r := s.records[id]
		if p, pending := r.state.(Pending); pending {
			p.Previous = nil
			order = append(order, id)
			records[id] = &record{item: r.item, state: p}
		}
	}

	s.order = order
	s.records = records
	s.loaded = true
}

// Entries returns copies of every visible record in insertion order.
func (s *Store) Entries() []Entry {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Entry, 0, len(s.order))
	for _, id := range s.order {
		r := s.records[id]
		if r.item == nil {
			continue
		}
		out = append(out, Entry{Item: *r.item, State: r.state.Sync()})
	}
	return out
}

// Items is Entries without the sync state.
func (s *Store) Items() []models.InventoryItem {
	entries := s.Entries()
	out := make([]models.InventoryItem, 0, len(entries))
	for _, e := range entries {
		out = append(out, e.Item)
	}
	return out
}

func (s *Store) Get(id string) (Entry, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, ok := s.records[id]
	if !ok || r.item == nil {
		return Entry{}, false
	}
	return Entry{Item: *r.item, State: r.state.Sync()}, true
}

func (s *Store) nextSeq() uint64 {
	s.seq++
	return s.seq
}

func busy(id string) error {
	return apperror.NewConflict("Item has a change in progress; try again").WithDetail("id", id)
}

func (s *Store) StageInsert(item models.InventoryItem) (Change, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.records[item.ID]; exists {
		return Change{}, busy(item.ID)
	}
	seq := s.nextSeq()
	s.order = append(s.order, item.ID)
	s.records[item.ID] = &record{item: &item, state: Pending{Op: OpInsert, seq: seq}}
	return Change{ID: item.ID, Op: OpInsert, seq: seq}, nil
}

func (s *Store) StageUpdate(item models.InventoryItem) (Change, error) {
	return s.stage(item.ID, OpUpdate, &item)
}

func (s *Store) StageDelete(id string) (Change, error) {
	return s.stage(id, OpDelete, nil)
}

func (s *Store) stage(id string, op Op, next *models.InventoryItem) (Change, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.records[id]
	if !ok || r.item == nil {
		return Change{}, apperror.NewNotFound("inventory item", id)
	}
	if _, pending := r.state.(Pending); pending {
		return Change{}, busy(id)
	}

	prev := *r.item
	seq := s.nextSeq()
	r.item = next
	r.state = Pending{Op: op, Previous: &prev, seq: seq}
	return Change{ID: id, Op: op, seq: seq}, nil
}

// pendingFor returns the record only if it is still waiting on ch.
func (s *Store) pendingFor(ch Change) (*record, Pending, bool) {
	r, ok := s.records[ch.ID]
	if !ok {
		return nil, Pending{}, false
	}
	p, isPending := r.state.(Pending)
	if !isPending || p.seq != ch.seq {
		return nil, Pending{}, false
	}
	return r, p, true
}

// Commit confirms ch. stored is the row as written (ignored for deletes).
// If the record no longer waits on ch, stored is applied by id unless a
// newer write is in flight.
func (s *Store) Commit(ch Change, stored models.InventoryItem) {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, _, ok := s.pendingFor(ch)
	if !ok {
		s.applyLocked(ch, stored)
		return
	}
	if ch.Op == OpDelete {
		s.removeLocked(ch.ID)
		return
	}
	r.item = &stored
	r.state = Committed{}
}

func (s *Store) applyLocked(ch Change, stored models.InventoryItem) {
	r, exists := s.records[ch.ID]
	if exists {
		if _, pending := r.state.(Pending); pending {
			return
		}
	}
	switch {
	case ch.Op == OpDelete:
		s.removeLocked(ch.ID)
	case exists:
		r.item = &stored
	default:
		s.order = append(s.order, ch.ID)
		s.records[ch.ID] = &record{item: &stored, state: Committed{}}
	}
}

// Fail rolls ch back to the value held before it was staged.
func (s *Store) Fail(ch Change) {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, p, ok := s.pendingFor(ch)
	if !ok {
		return
	}
	if p.Previous == nil {
		s.removeLocked(ch.ID)
		return
	}
	r.item = p.Previous
	r.state = Committed{}
}

// Forget drops a record that turned out not to exist in the store.
func (s *Store) Forget(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.removeLocked(id)
}

func (s *Store) removeLocked(id string) {
	if _, ok := s.records[id]; !ok {
		return
	}
	delete(s.records, id)
	for i, oid := range s.order {
		if oid == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
}
