package auth

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/grocery-storefront/internal/domain"
	apperrors "github.com/spec-kit/grocery-storefront/pkg/util"
)

type fakeUsers map[string]*domain.User

func (f fakeUsers) GetByID(_ context.Context, id string) (*domain.User, error) {
	if u, ok := f[id]; ok {
		return u, nil
	}
	return nil, pgx.ErrNoRows
}

func testApp(mw *AuthMiddleware, extra ...fiber.Handler) *fiber.App {
	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			de := apperrors.ToDomainError(err)
			return c.Status(de.HTTPStatus).SendString(de.Code)
		},
	})
	handlers := append([]fiber.Handler{mw.Handle}, extra...)
	handlers = append(handlers, func(c *fiber.Ctx) error {
		p, _ := PrincipalFromContext(c)
		return c.SendString(p.User.ID)
	})
	app.Get("/", handlers...)
	return app
}

func TestTokenRoundTrip(t *testing.T) {
	tm := NewTokenManager("secret", time.Hour)
	tok, meta, err := tm.GenerateToken("u1", domain.RoleAdmin)
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}
	if meta.SubjectID != "u1" || !meta.ExpiresAt.After(meta.IssuedAt) {
		t.Errorf("meta = %+v", meta)
	}

	claims, err := tm.ParseToken(tok)
	if err != nil {
		t.Fatalf("ParseToken: %v", err)
	}
	if claims.Subject != "u1" || claims.Role != domain.RoleAdmin {
		t.Errorf("claims = %+v", claims)
	}

	if _, err := NewTokenManager("other", time.Hour).ParseToken(tok); err == nil {
		t.Error("token signed with another secret should be rejected")
	}
}

func TestParseToken_Expired(t *testing.T) {
	tm := NewTokenManager("secret", time.Minute)
	past := time.Now().Add(-time.Hour)
	tm.now = func() time.Time { return past }
	tok, _, err := tm.GenerateToken("u1", domain.RoleCustomer)
	if err != nil {
		t.Fatal(err)
	}
	tm.now = time.Now
	if _, err := tm.ParseToken(tok); err == nil {
		t.Error("expired token should be rejected")
	}
}

func TestAuthMiddleware(t *testing.T) {
	tm := NewTokenManager("secret", time.Hour)
	users := fakeUsers{
		"u1":    {ID: "u1", Role: domain.RoleCustomer},
		"admin": {ID: "admin", Role: domain.RoleAdmin},
	}
	customerTok, _, _ := tm.GenerateToken("u1", domain.RoleCustomer)
	ghostTok, _, _ := tm.GenerateToken("ghost", domain.RoleCustomer)
	adminTok, _, _ := tm.GenerateToken("admin", domain.RoleAdmin)
	// Stale admin claim for a user whose stored role is customer.
	promotedTok, _, _ := tm.GenerateToken("u1", domain.RoleAdmin)

	mw := NewAuthMiddleware(tm, users)

	tests := []struct {
		name   string
		header string
		admin  bool
		status int
	}{
		{"missing header", "", false, http.StatusUnauthorized},
		{"wrong scheme", "Basic abc", false, http.StatusUnauthorized},
		{"garbage token", "Bearer nope", false, http.StatusUnauthorized},
		{"unknown user", "Bearer " + ghostTok, false, http.StatusUnauthorized},
		{"customer ok", "Bearer " + customerTok, false, http.StatusOK},
		{"customer on admin route", "Bearer " + customerTok, true, http.StatusForbidden},
		{"stale admin claim", "Bearer " + promotedTok, true, http.StatusForbidden},
		{"admin ok", "Bearer " + adminTok, true, http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var app *fiber.App
			if tt.admin {
				app = testApp(mw, RequireAdmin())
			} else {
				app = testApp(mw)
			}
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			resp, err := app.Test(req)
			if err != nil {
				t.Fatalf("app.Test: %v", err)
			}
			if resp.StatusCode != tt.status {
				t.Errorf("status = %d, want %d", resp.StatusCode, tt.status)
			}
		})
	}
}

func TestPassword(t *testing.T) {
	hash, err := HashPassword("hunter22", 4)
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	if ok, err := PasswordMatches(hash, "hunter22"); !ok || err != nil {
		t.Errorf("PasswordMatches(valid) = %v, %v", ok, err)
	}
	if ok, err := PasswordMatches(hash, "wrong"); ok || err != nil {
		t.Errorf("PasswordMatches(wrong) = %v, %v", ok, err)
	}
	if _, err := PasswordMatches("not-a-hash", "hunter22"); err == nil {
		t.Error("PasswordMatches(malformed) should fail")
	}
	if _, err := HashPassword(strings.Repeat("x", MaxPasswordBytes+1), 4); !errors.Is(err, ErrPasswordTooLong) {
		t.Errorf("HashPassword(long) = %v, want ErrPasswordTooLong", err)
	}
}
