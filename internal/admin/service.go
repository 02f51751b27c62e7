// Package admin is user management for admins and managers. Only an admin
// can hand out or take away the admin role.
package admin

import (
	"context"
	"strings"

	"barstock-backend/internal/apperror"
	"barstock-backend/internal/audit"
	"barstock-backend/internal/auth"
	"barstock-backend/internal/logger"
	"barstock-backend/internal/models"
)

type CreateUserInput struct {
	FirstName string
	LastName  string
	Email     string
	Password  string
	Role      models.UserRole
}

type UpdateUserInput struct {
	FirstName *string
	LastName  *string
	Email     *string
	Role      *models.UserRole
}

type Service struct {
	profiles auth.ProfileRepository
	audit    audit.Writer
	log      *logger.Logger
}

func NewService(profiles auth.ProfileRepository, auditWriter audit.Writer, log *logger.Logger) *Service {
	return &Service{profiles: profiles, audit: auditWriter, log: log.WithComponent("admin")}
}

func (s *Service) List(ctx context.Context) ([]models.Profile, error) {
	users, err := s.profiles.List(ctx)
	if err != nil {
		return nil, err
	}
	if users == nil {
		users = []models.Profile{}
	}
	return users, nil
}

func checkRole(actor auth.Principal, role models.UserRole) error {
	if !role.Valid() {
		return apperror.NewFieldValidation("role", "oneof", "role must be one of: admin manager employee")
	}
	if role == models.RoleAdmin && !actor.IsAdmin() {
		return apperror.NewForbidden("Only an admin can assign the admin role")
	}
	return nil
}

func (s *Service) Create(ctx context.Context, actor auth.Principal, in CreateUserInput) (*models.Profile, error) {
	if in.Role == "" {
		in.Role = models.RoleEmployee
	}
	if err := checkRole(actor, in.Role); err != nil {
		return nil, err
	}
	if len(in.Password) < auth.MinPasswordLength {
		return nil, apperror.NewFieldValidation("password", "min", "password must be at least 6 characters")
	}
	email := auth.NormalizeEmail(in.Email)
	if email == "" {
		return nil, apperror.NewFieldValidation("email", "required", "email is required")
	}

	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		return nil, err
	}
	p := &models.Profile{
		Email:        email,
		FirstName:    strings.TrimSpace(in.FirstName),
		LastName:     strings.TrimSpace(in.LastName),
		PasswordHash: hash,
		Role:         in.Role,
	}
	if err := s.profiles.Create(ctx, p); err != nil {
		return nil, err
	}

	s.log.Infow("user created", "user_id", p.ID, "role", p.Role, "by", actor.UserID)
	s.audit.WriteLog(ctx, audit.LogOptions{
		Actor:       actor,
		EntityType:  models.EntityProfile,
		EntityID:    p.ID,
		Action:      models.AuditActionCreate,
		Description: "Created user " + p.DisplayName(),
		After:       p,
	})
	return p, nil
}

func (s *Service) Update(ctx context.Context, actor auth.Principal, id string, in UpdateUserInput) (*models.Profile, error) {
	p, err := s.profiles.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	before := *p

	if in.Role != nil && *in.Role != p.Role {
		if err := checkRole(actor, *in.Role); err != nil {
			return nil, err
		}
		if p.Role == models.RoleAdmin && !actor.IsAdmin() {
			return nil, apperror.NewForbidden("Only an admin can revoke the admin role")
		}
		p.Role = *in.Role
	}
	if in.FirstName != nil {
		p.FirstName = strings.TrimSpace(*in.FirstName)
	}
	if in.LastName != nil {
		p.LastName = strings.TrimSpace(*in.LastName)
	}
	if in.Email != nil {
		email := auth.NormalizeEmail(*in.Email)
		if email == "" {
			return nil, apperror.NewFieldValidation("email", "required", "email is required")
		}
		if email != p.Email {
			if _, err := s.profiles.GetByEmail(ctx, email); err == nil {
				return nil, apperror.NewDuplicate("profile", "email", email)
			} else if !apperror.IsNotFound(err) {
				return nil, err
			}
		}
		p.Email = email
	}

	if err := s.profiles.Update(ctx, p); err != nil {
		return nil, err
	}

	if before.Role != p.Role {
		s.log.Infow("user role changed", "user_id", p.ID, "from", before.Role, "to", p.Role, "by", actor.UserID)
	}
	s.audit.WriteLog(ctx, audit.LogOptions{
		Actor:       actor,
		EntityType:  models.EntityProfile,
		EntityID:    p.ID,
		Action:      models.AuditActionUpdate,
		Description: "Updated user " + p.DisplayName(),
		Before:      &before,
		After:       p,
	})
	return p, nil
}

// Delete removes a profile. Callers cannot delete themselves, and a
// manager cannot delete an admin.
func (s *Service) Delete(ctx context.Context, actor auth.Principal, id string) error {
	if id == actor.UserID {
		return apperror.NewConflict("You cannot delete your own account")
	}
	p, err := s.profiles.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if p.Role == models.RoleAdmin && !actor.IsAdmin() {
		return apperror.NewForbidden("Only an admin can delete an admin")
	}
	if err := s.profiles.Delete(ctx, id); err != nil {
		return err
	}

	s.log.Infow("user deleted", "user_id", id, "by", actor.UserID)
	s.audit.WriteLog(ctx, audit.LogOptions{
		Actor:       actor,
		EntityType:  models.EntityProfile,
		EntityID:    id,
		Action:      models.AuditActionDelete,
		Description: "Deleted user " + p.DisplayName(),
		Before:      p,
	})
	return nil
}
