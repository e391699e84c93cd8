package gateway

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/grocery-storefront/internal/api/dto"
	"github.com/spec-kit/grocery-storefront/internal/domain"
)

func startServer(t *testing.T, register func(app *fiber.App)) *Client {
	t.Helper()

	app := fiber.New(fiber.Config{DisableStartupMessage: true})
	register(app)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	go func() { _ = app.Listener(ln) }()
	t.Cleanup(func() { _ = app.Shutdown() })

	return New("http://"+ln.Addr().String()+"/api", WithTimeout(2*time.Second))
}

func TestClient_LoginSuccess(t *testing.T) {
	client := startServer(t, func(app *fiber.App) {
		app.Post("/api/auth/login", func(c *fiber.Ctx) error {
			var req dto.LoginRequest
			if err := c.BodyParser(&req); err != nil {
				return err
			}
			return c.JSON(dto.AuthResponse{
				Success: true,
				Token:   "tok-" + req.Email,
				User:    domain.User{ID: "u1", Email: req.Email, Role: domain.RoleCustomer},
			})
		})
	})

	resp, err := client.Login(context.Background(), "ada@example.com", "secret")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if resp.Token != "tok-ada@example.com" || resp.User.ID != "u1" {
		t.Errorf("resp = %+v", resp)
	}
}

func TestClient_AuthFailureWithOKStatus(t *testing.T) {
	tests := []struct {
		name    string
		body    dto.AuthResponse
		wantMsg string
	}{
		{"unsuccessful", dto.AuthResponse{Success: false, Message: "Invalid credentials"}, "Invalid credentials"},
		{"missing token", dto.AuthResponse{Success: true, User: domain.User{ID: "u1"}}, "Login failed"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := startServer(t, func(app *fiber.App) {
				app.Post("/api/auth/login", func(c *fiber.Ctx) error {
					return c.JSON(tt.body)
				})
				app.Post("/api/auth/signup", func(c *fiber.Ctx) error {
					return c.JSON(tt.body)
				})
			})

			resp, err := client.Login(context.Background(), "ada@example.com", "secret")
			if err == nil || resp != nil {
				t.Fatalf("Login = %+v, %v; want error", resp, err)
			}
			if got := MessageOf(err, "Login failed"); got != tt.wantMsg {
				t.Errorf("MessageOf = %q, want %q", got, tt.wantMsg)
			}
			if _, err := client.Signup(context.Background(), "Ada", "ada@example.com", "secret"); err == nil {
				t.Error("Signup should fail")
			}
		})
	}
}

func TestClient_ErrorMessageExtracted(t *testing.T) {
	client := startServer(t, func(app *fiber.App) {
		app.Post("/api/auth/login", func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "UNAUTHORIZED", Message: "Invalid credentials"})
		})
	})

	_, err := client.Login(context.Background(), "ada@example.com", "wrong")
	if err == nil {
		t.Fatal("Login should fail")
	}
	if !IsUnauthorized(err) {
		t.Errorf("IsUnauthorized = false for %v", err)
	}
	if got := MessageOf(err, "Login failed"); got != "Invalid credentials" {
		t.Errorf("MessageOf = %q", got)
	}
}

func TestClient_ErrorWithoutMessageFallsBack(t *testing.T) {
	client := startServer(t, func(app *fiber.App) {
		app.Get("/api/cart/get", func(c *fiber.Ctx) error {
			return c.SendStatus(fiber.StatusBadGateway)
		})
	})

	_, err := client.GetCart(context.Background(), "tok")
	if got := MessageOf(err, "generic"); got != "generic" {
		t.Errorf("MessageOf = %q, want fallback", got)
	}
}

func TestClient_CartRoundTripSendsBearer(t *testing.T) {
	var stored domain.CartSnapshot
	var auth string
	client := startServer(t, func(app *fiber.App) {
		app.Post("/api/cart/update", func(c *fiber.Ctx) error {
			auth = c.Get(fiber.HeaderAuthorization)
			var req dto.CartUpdateRequest
			if err := c.BodyParser(&req); err != nil {
				return err
			}
			stored = req.CartData
			return c.JSON(dto.SuccessResponse{Success: true})
		})
		app.Get("/api/cart/get", func(c *fiber.Ctx) error {
			return c.JSON(stored)
		})
	})

	ctx := context.Background()
	if err := client.UpdateCart(ctx, "tok", domain.CartSnapshot{"Apple": 2}); err != nil {
		t.Fatalf("UpdateCart: %v", err)
	}
	if auth != "Bearer tok" {
		t.Errorf("Authorization = %q", auth)
	}
	snap, err := client.GetCart(ctx, "tok")
	if err != nil {
		t.Fatalf("GetCart: %v", err)
	}
	if snap["Apple"] != 2 || len(snap) != 1 {
		t.Errorf("snapshot = %v", snap)
	}
}

func TestClient_UnsuccessfulAcknowledgement(t *testing.T) {
	client := startServer(t, func(app *fiber.App) {
		app.Post("/api/cart/update", func(c *fiber.Ctx) error {
			return c.JSON(dto.SuccessResponse{Success: false, Message: "cart locked"})
		})
	})

	err := client.UpdateCart(context.Background(), "tok", domain.CartSnapshot{})
	if MessageOf(err, "") != "cart locked" {
		t.Errorf("err = %v", err)
	}
}

func TestClient_CanceledContext(t *testing.T) {
	client := New("http://127.0.0.1:1/api")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := client.ListCategories(ctx); err != context.Canceled {
		t.Errorf("err = %v, want context.Canceled", err)
	}
}

func TestClient_TimeoutFor(t *testing.T) {
	client := New("http://x", WithTimeout(5*time.Second))
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	if got := client.timeoutFor(ctx); got > time.Second {
		t.Errorf("timeoutFor = %v, want <= 1s", got)
	}
	if got := client.timeoutFor(context.Background()); got != 5*time.Second {
		t.Errorf("timeoutFor = %v, want 5s", got)
	}
}
