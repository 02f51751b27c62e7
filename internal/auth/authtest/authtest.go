// Package authtest holds an in-memory profile repository and principal
// helpers for service and handler tests.
package authtest

import (
	"context"
	"sort"
	"sync"
	"time"

	"barstock-backend/internal/apperror"
	"barstock-backend/internal/auth"
	"barstock-backend/internal/models"

	"github.com/google/uuid"
)

type Profiles struct {
	mu   sync.Mutex
	rows map[string]models.Profile
	seq  int

	// Fail, when set, is returned by every call.
	Fail error
}

var _ auth.ProfileRepository = (*Profiles)(nil)

func NewProfiles(seed ...models.Profile) *Profiles {
	p := &Profiles{rows: make(map[string]models.Profile)}
	for _, s := range seed {
		s := s
		_ = p.Create(context.Background(), &s)
	}
	return p
}

// Register makes the first stored profile the admin. The check and the
// insert happen under one lock.
func (p *Profiles) Register(_ context.Context, prof *models.Profile) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.Fail != nil {
		return p.Fail
	}
	if len(p.rows) == 0 {
		prof.Role = models.RoleAdmin
	}
	return p.insertLocked(prof)
}

func (p *Profiles) List(context.Context) ([]models.Profile, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.Fail != nil {
		return nil, p.Fail
	}
	out := make([]models.Profile, 0, len(p.rows))
	for _, r := range p.rows {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (p *Profiles) GetByID(_ context.Context, id string) (*models.Profile, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.Fail != nil {
		return nil, p.Fail
	}
	r, ok := p.rows[id]
	if !ok {
		return nil, apperror.NewNotFound("profile", id)
	}
	return &r, nil
}

func (p *Profiles) GetByEmail(_ context.Context, email string) (*models.Profile, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.Fail != nil {
		return nil, p.Fail
	}
	for _, r := range p.rows {
		if r.Email == email {
			r := r
			return &r, nil
		}
	}
	return nil, apperror.NewNotFound("profile", email)
}

func (p *Profiles) Create(_ context.Context, prof *models.Profile) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.Fail != nil {
		return p.Fail
	}
	return p.insertLocked(prof)
}

func (p *Profiles) insertLocked(prof *models.Profile) error {
	for _, r := range p.rows {
		if r.Email == prof.Email {
			return apperror.NewDuplicate("profile", "email", prof.Email)
		}
	}
	if prof.ID == "" {
		prof.ID = uuid.NewString()
	}
	// strictly increasing so List order is stable
	p.seq++
	prof.CreatedAt = time.Date(2024, 1, 1, 0, 0, p.seq, 0, time.UTC)
	prof.UpdatedAt = prof.CreatedAt
	p.rows[prof.ID] = *prof
	return nil
}

func (p *Profiles) Update(_ context.Context, prof *models.Profile) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.Fail != nil {
		return p.Fail
	}
	if _, ok := p.rows[prof.ID]; !ok {
		return apperror.NewNotFound("profile", prof.ID)
	}
	for id, r := range p.rows {
		if id != prof.ID && r.Email == prof.Email {
			return apperror.NewDuplicate("profile", "email", prof.Email)
		}
	}
	p.rows[prof.ID] = *prof
	return nil
}

func (p *Profiles) Delete(_ context.Context, id string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.Fail != nil {
		return p.Fail
	}
	if _, ok := p.rows[id]; !ok {
		return apperror.NewNotFound("profile", id)
	}
	delete(p.rows, id)
	return nil
}

// Principal returns a signed-in caller with the given role.
func Principal(role models.UserRole) auth.Principal {
	return auth.Principal{
		UserID:    uuid.NewString(),
		Email:     string(role) + "@bar.test",
		Name:      string(role),
		Role:      role,
		TokenID:   uuid.NewString(),
		ExpiresAt: time.Now().Add(time.Hour),
	}
}
