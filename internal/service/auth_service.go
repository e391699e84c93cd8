package service

import (
	"context"
	"errors"
	"net/mail"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/grocery-storefront/internal/auth"
	"github.com/spec-kit/grocery-storefront/internal/config"
	"github.com/spec-kit/grocery-storefront/internal/domain"
	"github.com/spec-kit/grocery-storefront/internal/repository"
	apperrors "github.com/spec-kit/grocery-storefront/pkg/util"
)

const minPasswordLength = 8

// AuthService coordinates registration, login and profile flows.
type AuthService struct {
	users      repository.UserRepository
	tokenMgr   *auth.TokenManager
	bcryptCost int
}

// NewAuthService builds the service.
func NewAuthService(cfg config.AuthConfig, users repository.UserRepository) *AuthService {
	return &AuthService{
		users:      users,
		tokenMgr:   auth.NewTokenManager(cfg.JWTSecret, cfg.AccessTokenTTL()),
		bcryptCost: cfg.BcryptCost,
	}
}

// Signup creates a customer account and returns a bearer token for it.
func (s *AuthService) Signup(ctx context.Context, name, email, password string) (*domain.User, string, error) {
	name = strings.TrimSpace(name)
	email = strings.ToLower(strings.TrimSpace(email))

	details := map[string]any{}
	if name == "" {
		details["name"] = "required"
	}
	if _, err := mail.ParseAddress(email); err != nil {
		details["email"] = "invalid"
	}
	switch {
	case len(password) < minPasswordLength:
		details["password"] = "too short"
	case len(password) > auth.MaxPasswordBytes:
		details["password"] = "too long"
	}
	if len(details) > 0 {
		return nil, "", apperrors.NewValidationError("Please enter a name, a valid email and a strong password", details)
	}

	if _, err := s.users.GetByEmail(ctx, email); err == nil {
		return nil, "", apperrors.NewConflict("User already exists", nil)
	} else if !errors.Is(err, pgx.ErrNoRows) {
		return nil, "", err
	}

	hash, err := auth.HashPassword(password, s.bcryptCost)
	if err != nil {
		return nil, "", err
	}

	user := &domain.User{
		Name:         name,
		Email:        email,
		PasswordHash: hash,
		Role:         domain.RoleCustomer,
	}
	if err := s.users.Create(ctx, user); err != nil {
		if repository.IsUniqueViolation(err) {
			return nil, "", apperrors.NewConflict("User already exists", nil)
		}
		return nil, "", err
	}

	token, _, err := s.tokenMgr.GenerateToken(user.ID, user.Role)
	if err != nil {
		return nil, "", err
	}
	return user, token, nil
}

// Login authenticates an account by email and password.
func (s *AuthService) Login(ctx context.Context, email, password string) (*domain.User, string, error) {
	user, err := s.users.GetByEmail(ctx, strings.TrimSpace(email))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, "", apperrors.NewUnauthorized("Invalid credentials")
	}
	if err != nil {
		return nil, "", err
	}
	ok, err := auth.PasswordMatches(user.PasswordHash, password)
	if err != nil {
		return nil, "", err
	}
	if !ok {
		return nil, "", apperrors.NewUnauthorized("Invalid credentials")
	}

	token, _, err := s.tokenMgr.GenerateToken(user.ID, user.Role)
	if err != nil {
		return nil, "", err
	}
	return user, token, nil
}

// UpdateAddress stores addr on the user's profile and returns the updated user.
func (s *AuthService) UpdateAddress(ctx context.Context, userID string, addr domain.Address) (*domain.User, error) {
	if missing := addr.MissingFields(); len(missing) > 0 {
		return nil, apperrors.NewValidationError("Address is incomplete", map[string]any{"missing": missing})
	}
	if err := s.users.UpdateAddress(ctx, userID, addr); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("user", nil)
		}
		return nil, err
	}
	return s.users.GetByID(ctx, userID)
}

// TokenManager exposes the underlying token manager for middleware usage.
func (s *AuthService) TokenManager() *auth.TokenManager {
	return s.tokenMgr
}
