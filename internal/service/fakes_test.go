package service

import (
	"context"
	"strconv"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/spec-kit/grocery-storefront/internal/domain"
	"github.com/spec-kit/grocery-storefront/internal/events"
	"github.com/spec-kit/grocery-storefront/internal/payment"
	"github.com/spec-kit/grocery-storefront/internal/repository"
)

type fakeUserRepo struct {
	mu    sync.Mutex
	byID  map[string]*domain.User
	seq   int
	calls int
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{byID: map[string]*domain.User{}}
}

func (f *fakeUserRepo) Create(_ context.Context, u *domain.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, existing := range f.byID {
		if existing.Email == u.Email {
			return &pgconn.PgError{Code: "23505"}
		}
	}
	f.seq++
	u.ID = "user-" + strconv.Itoa(f.seq)
	u.CreatedAt = time.Now()
	cp := *u
	f.byID[u.ID] = &cp
	return nil
}

func (f *fakeUserRepo) GetByID(_ context.Context, id string) (*domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if u, ok := f.byID[id]; ok {
		cp := *u
		return &cp, nil
	}
	return nil, pgx.ErrNoRows
}

func (f *fakeUserRepo) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	for _, u := range f.byID {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (f *fakeUserRepo) UpdateAddress(_ context.Context, id string, addr domain.Address) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.byID[id]
	if !ok {
		return pgx.ErrNoRows
	}
	u.Address = &addr
	return nil
}

type fakeCartRepo struct {
	mu    sync.Mutex
	carts map[string]domain.CartSnapshot
}

func newFakeCartRepo() *fakeCartRepo {
	return &fakeCartRepo{carts: map[string]domain.CartSnapshot{}}
}

func (f *fakeCartRepo) Get(_ context.Context, userID string) (domain.CartSnapshot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.carts[userID].Clone(), nil
}

func (f *fakeCartRepo) Put(_ context.Context, userID string, cart domain.CartSnapshot) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.carts[userID] = cart.Clone()
	return nil
}

func (f *fakeCartRepo) Delete(_ context.Context, userID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.carts, userID)
	return nil
}

type fakeProductRepo struct {
	products []domain.Product
}

func (f *fakeProductRepo) Create(_ context.Context, p *domain.Product) error {
	for _, existing := range f.products {
		if existing.Name == p.Name {
			return &pgconn.PgError{Code: "23505"}
		}
	}
	p.ID = "p-" + strconv.Itoa(len(f.products)+1)
	f.products = append(f.products, *p)
	return nil
}

func (f *fakeProductRepo) List(_ context.Context, activeOnly bool) ([]domain.Product, error) {
	var out []domain.Product
	for _, p := range f.products {
		if activeOnly && !p.Active {
			continue
		}
		out = append(out, p)
	}
	return out, nil
}

func (f *fakeProductRepo) ToggleActive(_ context.Context, id string) (bool, error) {
	for i := range f.products {
		if f.products[i].ID == id {
			f.products[i].Active = !f.products[i].Active
			return f.products[i].Active, nil
		}
	}
	return false, pgx.ErrNoRows
}

type fakeCategoryRepo struct {
	categories []domain.Category
}

func (f *fakeCategoryRepo) Create(_ context.Context, c *domain.Category) error {
	for _, existing := range f.categories {
		if existing.Name == c.Name {
			return &pgconn.PgError{Code: "23505"}
		}
	}
	c.ID = "c-" + strconv.Itoa(len(f.categories)+1)
	f.categories = append(f.categories, *c)
	return nil
}

func (f *fakeCategoryRepo) List(context.Context) ([]domain.Category, error) {
	return f.categories, nil
}

func (f *fakeCategoryRepo) Delete(_ context.Context, id string) error {
	for i, c := range f.categories {
		if c.ID == id {
			f.categories = append(f.categories[:i], f.categories[i+1:]...)
			return nil
		}
	}
	return pgx.ErrNoRows
}

func (f *fakeCategoryRepo) EnsureNames(ctx context.Context, names []string) (int, error) {
	added := 0
	for _, name := range names {
		if err := f.Create(ctx, &domain.Category{Name: name}); err == nil {
			added++
		}
	}
	return added, nil
}

type fakeOrderRepo struct {
	mu     sync.Mutex
	orders []domain.Order
}

func (f *fakeOrderRepo) Create(_ context.Context, o *domain.Order) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if o.PaymentRef != nil {
		for _, existing := range f.orders {
			if existing.PaymentRef != nil && *existing.PaymentRef == *o.PaymentRef {
				return &pgconn.PgError{Code: "23505"}
			}
		}
	}
	o.ID = "o-" + strconv.Itoa(len(f.orders)+1)
	o.CreatedAt = time.Now()
	f.orders = append(f.orders, *o)
	return nil
}

func (f *fakeOrderRepo) ListByUser(_ context.Context, userID string) ([]domain.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.Order
	for i := len(f.orders) - 1; i >= 0; i-- {
		if f.orders[i].UserID == userID {
			out = append(out, f.orders[i])
		}
	}
	return out, nil
}

func (f *fakeOrderRepo) ListAll(context.Context, int, int) ([]domain.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]domain.Order(nil), f.orders...), nil
}

func (f *fakeOrderRepo) UpdateStatus(_ context.Context, id string, status domain.OrderStatus) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.orders {
		if f.orders[i].ID == id {
			f.orders[i].Status = status
			return nil
		}
	}
	return pgx.ErrNoRows
}

func (f *fakeOrderRepo) GetByPaymentRef(_ context.Context, ref string) (*domain.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, o := range f.orders {
		if o.PaymentRef != nil && *o.PaymentRef == ref {
			cp := o
			return &cp, nil
		}
	}
	return nil, pgx.ErrNoRows
}

type fakePendingRepo struct {
	mu      sync.Mutex
	pending map[string]repository.PendingCheckout
}

func newFakePendingRepo() *fakePendingRepo {
	return &fakePendingRepo{pending: map[string]repository.PendingCheckout{}}
}

func (f *fakePendingRepo) Save(_ context.Context, p repository.PendingCheckout) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pending[p.SessionID] = p
	return nil
}

func (f *fakePendingRepo) Get(_ context.Context, id string) (*repository.PendingCheckout, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.pending[id]
	if !ok {
		return nil, repository.ErrPendingNotFound
	}
	return &p, nil
}

func (f *fakePendingRepo) Delete(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.pending, id)
	return nil
}

type fakeProvider struct {
	created []payment.CheckoutRequest
	paid    map[string]bool
	err     error
}

func (f *fakeProvider) CreateSession(_ context.Context, req payment.CheckoutRequest) (*payment.Session, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.created = append(f.created, req)
	id := "cs_" + strconv.Itoa(len(f.created))
	return &payment.Session{ID: id, URL: "https://pay.example/" + id}, nil
}

func (f *fakeProvider) SessionPaid(_ context.Context, id string) (bool, error) {
	if f.err != nil {
		return false, f.err
	}
	return f.paid[id], nil
}

type recordingDispatcher struct {
	mu     sync.Mutex
	events []events.Event
}

func (d *recordingDispatcher) Publish(_ context.Context, e events.Event) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.events = append(d.events, e)
	return nil
}

func (d *recordingDispatcher) Subscribe(events.EventType, events.EventHandler) {}

func (d *recordingDispatcher) types() []events.EventType {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]events.EventType, len(d.events))
	for i, e := range d.events {
		out[i] = e.Type
	}
	return out
}

type fakePublisher struct {
	keys    []string
	headers [][]kafka.Header
}

func (f *fakePublisher) Publish(key, _ []byte, headers ...kafka.Header) error {
	f.keys = append(f.keys, string(key))
	f.headers = append(f.headers, headers)
	return nil
}

func catalog() *fakeProductRepo {
	return &fakeProductRepo{products: []domain.Product{
		{ID: "p-1", Name: "Apple", Category: "Fresh Fruits", Price: 1.50, Active: true},
		{ID: "p-2", Name: "Milk", Category: "Dairy Products", Price: 2.00, Active: true},
		{ID: "p-3", Name: "Old Bread", Category: "Bakery & Breads", Price: 3.00, Active: false},
	}}
}

func zapNop() *zap.Logger { return zap.NewNop() }
