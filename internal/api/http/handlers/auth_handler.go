package handlers

import (
	"context"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/grocery-storefront/internal/api/dto"
	"github.com/spec-kit/grocery-storefront/internal/auth"
	"github.com/spec-kit/grocery-storefront/internal/domain"
	apperrors "github.com/spec-kit/grocery-storefront/pkg/util"
)

// AuthService is what the auth endpoints need from the service layer.
type AuthService interface {
	Signup(ctx context.Context, name, email, password string) (*domain.User, string, error)
	Login(ctx context.Context, email, password string) (*domain.User, string, error)
	UpdateAddress(ctx context.Context, userID string, addr domain.Address) (*domain.User, error)
}

// AuthHandler exposes account endpoints.
type AuthHandler struct {
	auth AuthService
}

// NewAuthHandler constructs handler.
func NewAuthHandler(authService AuthService) *AuthHandler {
	return &AuthHandler{auth: authService}
}

// Signup handles POST /auth/signup.
func (h *AuthHandler) Signup(c *fiber.Ctx) error {
	var req dto.SignupRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	user, token, err := h.auth.Signup(c.UserContext(), req.Name, req.Email, req.Password)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(dto.AuthResponse{Success: true, Token: token, User: *user})
}

// Login handles POST /auth/login.
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req dto.LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if strings.TrimSpace(req.Email) == "" || req.Password == "" {
		return apperrors.NewValidationError("Email and password are required", nil)
	}

	user, token, err := h.auth.Login(c.UserContext(), req.Email, req.Password)
	if err != nil {
		return err
	}
	return c.JSON(dto.AuthResponse{Success: true, Token: token, User: *user})
}

// Profile handles GET /auth/user and /auth/profile.
func (h *AuthHandler) Profile(c *fiber.Ctx) error {
	principal, err := principal(c)
	if err != nil {
		return err
	}
	return c.JSON(principal.User)
}

// UpdateAddress handles PUT /auth/update-address.
func (h *AuthHandler) UpdateAddress(c *fiber.Ctx) error {
	principal, err := principal(c)
	if err != nil {
		return err
	}
	var req dto.UpdateAddressRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	if _, err := h.auth.UpdateAddress(c.UserContext(), principal.User.ID, req.Address); err != nil {
		return err
	}
	return c.JSON(dto.SuccessResponse{Success: true, Message: "Address updated"})
}

func principal(c *fiber.Ctx) (*auth.Principal, error) {
	p, ok := auth.PrincipalFromContext(c)
	if !ok || p.User == nil {
		return nil, apperrors.NewUnauthorized("authentication required")
	}
	return p, nil
}
