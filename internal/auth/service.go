package auth

import (
	"context"
	"strings"
	"time"

	"barstock-backend/internal/apperror"
	"barstock-backend/internal/logger"
	"barstock-backend/internal/models"

	"golang.org/x/crypto/bcrypt"
)

const MinPasswordLength = 6

func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", apperror.NewInternal(err)
	}
	return string(hash), nil
}

func CheckPassword(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

type Service struct {
	profiles    ProfileRepository
	issuer      *TokenIssuer
	revocations *Revocations
	log         *logger.Logger
}

func NewService(profiles ProfileRepository, issuer *TokenIssuer, revocations *Revocations, log *logger.Logger) *Service {
	return &Service{
		profiles:    profiles,
		issuer:      issuer,
		revocations: revocations,
		log:         log.WithComponent("auth"),
	}
}

type SignUpInput struct {
	FirstName string
	LastName  string
	Email     string
	Password  string
	Role      models.UserRole // honoured only through user management
}

// SignUp creates a profile. The very first profile becomes the admin;
// later sign-ups are employees whatever role they ask for.
func (s *Service) SignUp(ctx context.Context, in SignUpInput) (*models.Profile, error) {
	email := NormalizeEmail(in.Email)

	if _, err := s.profiles.GetByEmail(ctx, email); err == nil {
		return nil, apperror.NewDuplicate("profile", "email", email)
	} else if !apperror.IsNotFound(err) {
		return nil, err
	}

	hash, err := HashPassword(in.Password)
	if err != nil {
		return nil, err
	}

	p := &models.Profile{
		Email:        email,
		FirstName:    strings.TrimSpace(in.FirstName),
		LastName:     strings.TrimSpace(in.LastName),
		PasswordHash: hash,
		Role:         models.RoleEmployee,
	}
	if err := s.profiles.Register(ctx, p); err != nil {
		return nil, err
	}
	if p.Role != models.RoleAdmin && in.Role != "" && in.Role != models.RoleEmployee {
		s.log.Infow("ignoring requested role on public sign-up", "email", email, "requested_role", in.Role)
	}

	s.log.Infow("profile signed up", "user_id", p.ID, "role", p.Role)
	return p, nil
}

type Session struct {
	Token     string          `json:"token"`
	ExpiresAt time.Time       `json:"expires_at"`
	User      *models.Profile `json:"user"`
}

func (s *Service) SignIn(ctx context.Context, email, password string) (*Session, error) {
	invalid := apperror.NewUnauthorized("Invalid email or password")

	p, err := s.profiles.GetByEmail(ctx, NormalizeEmail(email))
	if err != nil {
		if apperror.IsNotFound(err) {
			return nil, invalid
		}
		return nil, err
	}
	if !CheckPassword(p.PasswordHash, password) {
		return nil, invalid
	}

	token, claims, err := s.issuer.Issue(p)
	if err != nil {
		return nil, apperror.NewInternal(err)
	}
	return &Session{Token: token, ExpiresAt: claims.ExpiresAt.Time, User: p}, nil
}

// SignOut revokes the caller's token.
func (s *Service) SignOut(ctx context.Context, p Principal) error {
	if err := s.revocations.Revoke(ctx, p.TokenID, p.ExpiresAt); err != nil {
		return apperror.NewStoreFailure("revoke token", err)
	}
	s.log.Infow("signed out", "user_id", p.UserID)
	return nil
}

// Me reloads the caller's profile.
func (s *Service) Me(ctx context.Context, p Principal) (*models.Profile, error) {
	profile, err := s.profiles.GetByID(ctx, p.UserID)
	if err != nil {
		if apperror.IsNotFound(err) {
			return nil, apperror.NewUnauthorized("Account no longer exists")
		}
		return nil, err
	}
	return profile, nil
}
