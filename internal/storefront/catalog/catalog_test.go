package catalog

import (
	"context"
	"errors"
	"testing"

	"github.com/spec-kit/grocery-storefront/internal/domain"
)

type fakeGateway struct {
	products      []domain.Product
	categories    []domain.Category
	categoriesErr error
}

func (f *fakeGateway) ListActiveProducts(context.Context) ([]domain.Product, error) {
	return f.products, nil
}

func (f *fakeGateway) ListCategories(context.Context) ([]domain.Category, error) {
	return f.categories, f.categoriesErr
}

func TestFindCategory(t *testing.T) {
	categories := []domain.Category{{ID: "c1", Name: "Frozen & Ice"}}

	if c, ok := FindCategory(categories, "frozen-ice"); !ok || c.ID != "c1" {
		t.Errorf("FindCategory(frozen-ice) = %+v, %v", c, ok)
	}
	if c, ok := FindCategory(nil, "bakery-breads"); !ok || c.Name != "Bakery & Breads" {
		t.Errorf("default fallback = %+v, %v", c, ok)
	}
	if _, ok := FindCategory(categories, "tools"); ok {
		t.Error("unknown slug should not match")
	}
}

func TestBrowser_CategoryFallsBackWhenListFails(t *testing.T) {
	gw := &fakeGateway{
		categoriesErr: errors.New("offline"),
		products: []domain.Product{
			{Name: "Cola", Category: "Cold Drinks"},
			{Name: "Bread", Category: "Bakery & Breads"},
		},
	}
	b := NewBrowser(gw, nil)

	cat, products, err := b.Category(context.Background(), "cold-drinks")
	if err != nil {
		t.Fatalf("Category: %v", err)
	}
	if cat.Name != "Cold Drinks" || len(products) != 1 || products[0].Name != "Cola" {
		t.Errorf("category = %+v products = %+v", cat, products)
	}

	if _, _, err := b.Category(context.Background(), "hardware"); !errors.Is(err, ErrUnknownCategory) {
		t.Errorf("err = %v, want ErrUnknownCategory", err)
	}
}

func TestBestSellers(t *testing.T) {
	products := []domain.Product{
		{Name: "A", BestSeller: true},
		{Name: "B"},
		{Name: "C", BestSeller: true},
		{Name: "D", BestSeller: true},
	}
	got := BestSellers(products, 2)
	if len(got) != 2 || got[0].Name != "A" || got[1].Name != "C" {
		t.Errorf("BestSellers = %+v", got)
	}
}

func TestBrowser_Deals(t *testing.T) {
	gw := &fakeGateway{products: []domain.Product{
		{Name: "A", Price: 1, OldPrice: 2},
		{Name: "B", Price: 5},
	}}
	deals, err := NewBrowser(gw, nil).Deals(context.Background(), 5)
	if err != nil || len(deals) != 1 || deals[0].Name != "A" {
		t.Errorf("Deals = %+v, %v", deals, err)
	}
}
