package service

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/spec-kit/grocery-storefront/internal/config"
	"github.com/spec-kit/grocery-storefront/internal/domain"
	"github.com/spec-kit/grocery-storefront/internal/events"
	"github.com/spec-kit/grocery-storefront/internal/payment"
	apperrors "github.com/spec-kit/grocery-storefront/pkg/util"
)

func statusOf(err error) int {
	var de *apperrors.DomainError
	if errors.As(err, &de) {
		return de.HTTPStatus
	}
	return 0
}

func newAuth(users *fakeUserRepo) *AuthService {
	return NewAuthService(config.AuthConfig{JWTSecret: "s", AccessTokenTTLMinutes: 60, BcryptCost: 4}, users)
}

func TestAuthService_SignupAndLogin(t *testing.T) {
	ctx := context.Background()
	svc := newAuth(newFakeUserRepo())

	user, token, err := svc.Signup(ctx, " Ada ", "Ada@Example.com", "longenough")
	if err != nil {
		t.Fatalf("Signup: %v", err)
	}
	if token == "" || user.Email != "ada@example.com" || user.Role != domain.RoleCustomer {
		t.Errorf("Signup user = %+v token=%q", user, token)
	}
	claims, err := svc.TokenManager().ParseToken(token)
	if err != nil || claims.Subject != user.ID {
		t.Errorf("token subject = %v, %v", claims, err)
	}

	if _, _, err := svc.Signup(ctx, "Ada", "ada@example.com", "longenough"); statusOf(err) != http.StatusConflict {
		t.Errorf("duplicate signup status = %d, want 409", statusOf(err))
	}

	if _, _, err := svc.Login(ctx, "ada@example.com", "longenough"); err != nil {
		t.Errorf("Login: %v", err)
	}
	if _, _, err := svc.Login(ctx, "ada@example.com", "wrong"); statusOf(err) != http.StatusUnauthorized {
		t.Errorf("bad password status = %d, want 401", statusOf(err))
	}
	if _, _, err := svc.Login(ctx, "nobody@example.com", "x"); statusOf(err) != http.StatusUnauthorized {
		t.Errorf("unknown email status = %d, want 401", statusOf(err))
	}
}

func TestAuthService_SignupValidation(t *testing.T) {
	users := newFakeUserRepo()
	svc := newAuth(users)
	tests := []struct {
		name, email, password string
	}{
		{"", "a@b.co", "longenough"},
		{"A", "not-an-email", "longenough"},
		{"A", "a@b.co", "short"},
	}
	for _, tt := range tests {
		if _, _, err := svc.Signup(context.Background(), tt.name, tt.email, tt.password); statusOf(err) != http.StatusBadRequest {
			t.Errorf("Signup(%q,%q) status = %d, want 400", tt.name, tt.email, statusOf(err))
		}
	}
	if users.calls != 0 {
		t.Errorf("validation failures touched the repository %d times", users.calls)
	}
}

func TestAuthService_UpdateAddress(t *testing.T) {
	ctx := context.Background()
	svc := newAuth(newFakeUserRepo())
	user, _, err := svc.Signup(ctx, "Ada", "ada@example.com", "longenough")
	if err != nil {
		t.Fatal(err)
	}

	if _, err := svc.UpdateAddress(ctx, user.ID, domain.Address{FirstName: "Ada"}); statusOf(err) != http.StatusBadRequest {
		t.Errorf("incomplete address status = %d, want 400", statusOf(err))
	}

	addr := domain.Address{FirstName: "Ada", LastName: "L", Street: "1 Main", City: "Town"}
	updated, err := svc.UpdateAddress(ctx, user.ID, addr)
	if err != nil {
		t.Fatalf("UpdateAddress: %v", err)
	}
	if updated.Address == nil || updated.Address.City != "Town" {
		t.Errorf("address = %+v", updated.Address)
	}
	if _, err := svc.UpdateAddress(ctx, "ghost", addr); statusOf(err) != http.StatusNotFound {
		t.Errorf("unknown user status = %d, want 404", statusOf(err))
	}
}

func TestCartService_Replace(t *testing.T) {
	ctx := context.Background()
	carts := newFakeCartRepo()
	svc := NewCartService(carts)

	if err := svc.Replace(ctx, "u1", domain.CartSnapshot{"Apple": 2, "Milk": 0}); err != nil {
		t.Fatalf("Replace: %v", err)
	}
	got, _ := svc.Get(ctx, "u1")
	if len(got) != 1 || got["Apple"] != 2 {
		t.Errorf("cart = %v, want only Apple:2", got)
	}

	if err := svc.Replace(ctx, "u1", domain.CartSnapshot{"Apple": -1}); statusOf(err) != http.StatusBadRequest {
		t.Errorf("negative status = %d, want 400", statusOf(err))
	}
	got, _ = svc.Get(ctx, "u1")
	if got["Apple"] != 2 {
		t.Errorf("rejected update changed the cart: %v", got)
	}
}

func TestCatalogService(t *testing.T) {
	ctx := context.Background()
	products := &fakeProductRepo{}
	categories := &fakeCategoryRepo{}
	svc := NewCatalogService(products, categories)

	if _, err := svc.CreateProduct(ctx, domain.Product{Name: "Apple"}); statusOf(err) != http.StatusBadRequest {
		t.Errorf("invalid product status = %d, want 400", statusOf(err))
	}
	p, err := svc.CreateProduct(ctx, domain.Product{Name: "Apple", Category: "Fresh Fruits", Price: 1})
	if err != nil {
		t.Fatalf("CreateProduct: %v", err)
	}
	if !p.Active {
		t.Error("new products should be active")
	}
	if _, err := svc.CreateProduct(ctx, domain.Product{Name: "Apple", Category: "Fresh Fruits", Price: 1}); statusOf(err) != http.StatusConflict {
		t.Errorf("duplicate product status = %d, want 409", statusOf(err))
	}

	active, err := svc.ToggleProduct(ctx, p.ID)
	if err != nil || active {
		t.Errorf("ToggleProduct = %v, %v; want false, nil", active, err)
	}
	if list, _ := svc.Products(ctx, true); len(list) != 0 {
		t.Errorf("active products = %d, want 0", len(list))
	}
	if _, err := svc.ToggleProduct(ctx, "missing"); statusOf(err) != http.StatusNotFound {
		t.Errorf("toggle missing status = %d, want 404", statusOf(err))
	}

	n, err := svc.SeedCategories(ctx)
	if err != nil || n != len(domain.DefaultCategories) {
		t.Errorf("SeedCategories = %d, %v", n, err)
	}
	if n, _ := svc.SeedCategories(ctx); n != 0 {
		t.Errorf("second seed added %d, want 0", n)
	}
	if _, err := svc.CreateCategory(ctx, "Chips", ""); statusOf(err) != http.StatusConflict {
		t.Errorf("duplicate category status = %d, want 409", statusOf(err))
	}
	if err := svc.DeleteCategory(ctx, "nope"); statusOf(err) != http.StatusNotFound {
		t.Errorf("delete missing status = %d, want 404", statusOf(err))
	}
}

type orderFixture struct {
	orders     *fakeOrderRepo
	carts      *fakeCartRepo
	dispatcher *recordingDispatcher
	svc        *OrderService
}

func newOrderFixture() *orderFixture {
	f := &orderFixture{
		orders:     &fakeOrderRepo{},
		carts:      newFakeCartRepo(),
		dispatcher: &recordingDispatcher{},
	}
	f.svc = NewOrderService(OrderDependencies{
		OrderRepo:   f.orders,
		ProductRepo: catalog(),
		CartRepo:    f.carts,
		Dispatcher:  f.dispatcher,
	})
	return f
}

func TestOrderService_PlaceRepricesAndClearsCart(t *testing.T) {
	ctx := context.Background()
	f := newOrderFixture()
	_ = f.carts.Put(ctx, "u1", domain.CartSnapshot{"Apple": 2})

	order, err := f.svc.Place(ctx, "u1", PlaceOrderInput{
		Items:         []domain.OrderItem{{Name: "Apple", Quantity: 2, Price: 0.01}, {Name: "Milk", Quantity: 1}},
		Amount:        0.02,
		PaymentMethod: domain.PaymentCOD,
		Address:       "1 Main, Town",
	})
	if err != nil {
		t.Fatalf("Place: %v", err)
	}
	// 2*1.50 + 2.00 = 5.00, plus 2% tax.
	if order.Amount != 5.10 {
		t.Errorf("Amount = %v, want 5.10", order.Amount)
	}
	if order.Items[0].Price != 1.50 {
		t.Errorf("unit price = %v, want catalog 1.50", order.Items[0].Price)
	}
	if order.Status != domain.OrderStatusPlaced || order.Paid {
		t.Errorf("order = %+v", order)
	}
	if cart, _ := f.carts.Get(ctx, "u1"); len(cart) != 0 {
		t.Errorf("cart after order = %v, want empty", cart)
	}
	if got := f.dispatcher.types(); len(got) != 1 || got[0] != events.EventOrderPlaced {
		t.Errorf("events = %v", got)
	}
}

func TestOrderService_PlaceRejects(t *testing.T) {
	tests := []struct {
		name  string
		input PlaceOrderInput
	}{
		{"empty", PlaceOrderInput{Address: "x"}},
		{"no address", PlaceOrderInput{Items: []domain.OrderItem{{Name: "Apple", Quantity: 1}}}},
		{"inactive product", PlaceOrderInput{Items: []domain.OrderItem{{Name: "Old Bread", Quantity: 1}}, Address: "x"}},
		{"zero quantity", PlaceOrderInput{Items: []domain.OrderItem{{Name: "Apple"}}, Address: "x"}},
		{"online method", PlaceOrderInput{Items: []domain.OrderItem{{Name: "Apple", Quantity: 1}}, Address: "x", PaymentMethod: domain.PaymentStripe}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newOrderFixture()
			if _, err := f.svc.Place(context.Background(), "u1", tt.input); statusOf(err) != http.StatusBadRequest {
				t.Errorf("status = %d, want 400 (err=%v)", statusOf(err), err)
			}
			if len(f.orders.orders) != 0 {
				t.Error("rejected order was stored")
			}
		})
	}
}

func TestOrderService_UpdateStatus(t *testing.T) {
	ctx := context.Background()
	f := newOrderFixture()
	order, err := f.svc.Place(ctx, "u1", PlaceOrderInput{Items: []domain.OrderItem{{Name: "Apple", Quantity: 1}}, Address: "x"})
	if err != nil {
		t.Fatal(err)
	}

	if err := f.svc.UpdateStatus(ctx, order.ID, "Lost"); statusOf(err) != http.StatusBadRequest {
		t.Errorf("bad status = %d, want 400", statusOf(err))
	}
	if err := f.svc.UpdateStatus(ctx, "missing", domain.OrderStatusShipped); statusOf(err) != http.StatusNotFound {
		t.Errorf("missing order = %d, want 404", statusOf(err))
	}
	if err := f.svc.UpdateStatus(ctx, order.ID, domain.OrderStatusShipped); err != nil {
		t.Fatalf("UpdateStatus: %v", err)
	}
	list, _ := f.svc.ListForUser(ctx, "u1")
	if len(list) != 1 || list[0].Status != domain.OrderStatusShipped {
		t.Errorf("orders = %+v", list)
	}
	if empty, _ := f.svc.ListForUser(ctx, "u2"); empty == nil || len(empty) != 0 {
		t.Errorf("other user's orders = %v, want empty non-nil", empty)
	}
}

func TestPaymentService_VerifyIsIdempotent(t *testing.T) {
	ctx := context.Background()
	f := newOrderFixture()
	provider := &fakeProvider{paid: map[string]bool{}}
	pending := newFakePendingRepo()
	svc := NewPaymentService(f.svc, pending, provider, nil)
	user := &domain.User{ID: "u1", Email: "ada@example.com"}

	res, err := svc.CreateCheckout(ctx, user, []domain.OrderItem{{Name: "Milk", Quantity: 2}}, "1 Main")
	if err != nil {
		t.Fatalf("CreateCheckout: %v", err)
	}
	if res.URL == "" || res.SessionID == "" {
		t.Fatalf("result = %+v", res)
	}
	if req := provider.created[0]; req.Items[0].Price != 2.00 || req.TaxAmount != 0.08 {
		t.Errorf("provider request = %+v", req)
	}

	if _, err := svc.VerifySession(ctx, "u1", res.SessionID); statusOf(err) != http.StatusBadRequest {
		t.Errorf("unpaid verify status = %d, want 400", statusOf(err))
	}

	provider.paid[res.SessionID] = true
	if _, err := svc.VerifySession(ctx, "u2", res.SessionID); statusOf(err) != http.StatusForbidden {
		t.Errorf("other user's verify status = %d, want 403", statusOf(err))
	}

	first, err := svc.VerifySession(ctx, "u1", res.SessionID)
	if err != nil {
		t.Fatalf("VerifySession: %v", err)
	}
	if first.AlreadyExists || !first.Order.Paid || first.Order.Amount != 4.08 {
		t.Errorf("first verify = %+v order=%+v", first, first.Order)
	}

	second, err := svc.VerifySession(ctx, "u1", res.SessionID)
	if err != nil {
		t.Fatalf("second VerifySession: %v", err)
	}
	if !second.AlreadyExists || second.Order.ID != first.Order.ID {
		t.Errorf("second verify = %+v", second)
	}
	if len(f.orders.orders) != 1 {
		t.Errorf("orders stored = %d, want 1", len(f.orders.orders))
	}
	if got := f.dispatcher.types(); len(got) != 1 || got[0] != events.EventPaymentVerified {
		t.Errorf("events = %v", got)
	}
}

func TestPaymentService_NotConfigured(t *testing.T) {
	f := newOrderFixture()
	svc := NewPaymentService(f.svc, newFakePendingRepo(), &fakeProvider{err: payment.ErrNotConfigured}, nil)
	_, err := svc.CreateCheckout(context.Background(), &domain.User{ID: "u1"}, []domain.OrderItem{{Name: "Milk", Quantity: 1}}, "x")
	if statusOf(err) != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503", statusOf(err))
	}
}

func TestPaymentService_UnknownSession(t *testing.T) {
	f := newOrderFixture()
	svc := NewPaymentService(f.svc, newFakePendingRepo(), &fakeProvider{}, nil)
	if _, err := svc.VerifySession(context.Background(), "u1", "cs_missing"); statusOf(err) != http.StatusNotFound {
		t.Errorf("status = %d, want 404", statusOf(err))
	}
}

func TestNotificationService_ForwardsKeyedByOrder(t *testing.T) {
	dispatcher := events.NewInMemoryDispatcher(nil)
	pub := &fakePublisher{}
	NewNotificationService(dispatcher, pub, zapNop()).RegisterHandlers()

	_ = dispatcher.Publish(context.Background(), events.New(events.EventOrderPlaced, "o1", "u1", nil))
	_ = dispatcher.Publish(context.Background(), events.New(events.EventOrderStatusChanged, "o1", "", nil))

	if len(pub.keys) != 2 || pub.keys[0] != "o1" || pub.keys[1] != "o1" {
		t.Fatalf("keys = %v", pub.keys)
	}
	if h := pub.headers[0][0]; h.Key != "event_type" || string(h.Value) != string(events.EventOrderPlaced) {
		t.Errorf("header = %+v", h)
	}
}
