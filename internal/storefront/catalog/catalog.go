// Package catalog resolves storefront category pages and product shelves
// from the API's product and category listings.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/spec-kit/grocery-storefront/internal/domain"
	"github.com/spec-kit/grocery-storefront/internal/pricing"
)

// ErrUnknownCategory is returned for a slug that matches no category.
var ErrUnknownCategory = errors.New("unknown category")

// Gateway is the subset of the API the catalog needs.
type Gateway interface {
	ListActiveProducts(ctx context.Context) ([]domain.Product, error)
	ListCategories(ctx context.Context) ([]domain.Category, error)
}

// Browser reads the catalog for storefront views.
type Browser struct {
	gateway Gateway
	logger  *zap.Logger
}

// NewBrowser builds a Browser. A nil logger is replaced by a no-op one.
func NewBrowser(gw Gateway, logger *zap.Logger) *Browser {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Browser{gateway: gw, logger: logger}
}

// FindCategory matches slug against categories, then against the default
// category names so well-known links keep working before categories are seeded.
func FindCategory(categories []domain.Category, slug string) (domain.Category, bool) {
	for _, c := range categories {
		if c.Slug() == slug {
			return c, true
		}
	}
	for _, name := range domain.DefaultCategories {
		if domain.CategorySlug(name) == slug {
			return domain.Category{Name: name}, true
		}
	}
	return domain.Category{}, false
}

// InCategory returns the products whose category matches name, ignoring case.
func InCategory(products []domain.Product, name string) []domain.Product {
	out := make([]domain.Product, 0)
	for _, p := range products {
		if strings.EqualFold(p.Category, name) {
			out = append(out, p)
		}
	}
	return out
}

// BestSellers returns up to limit products flagged as best sellers.
func BestSellers(products []domain.Product, limit int) []domain.Product {
	out := make([]domain.Product, 0, limit)
	for _, p := range products {
		if !p.BestSeller {
			continue
		}
		out = append(out, p)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out
}

// Category loads the category page for slug.
func (b *Browser) Category(ctx context.Context, slug string) (domain.Category, []domain.Product, error) {
	categories, err := b.gateway.ListCategories(ctx)
	if err != nil {
		b.logger.Warn("category list unavailable, using defaults", zap.Error(err))
	}
	category, ok := FindCategory(categories, slug)
	if !ok {
		return domain.Category{}, nil, fmt.Errorf("%w: %s", ErrUnknownCategory, slug)
	}

	products, err := b.gateway.ListActiveProducts(ctx)
	if err != nil {
		return category, nil, fmt.Errorf("list products: %w", err)
	}
	return category, InCategory(products, category.Name), nil
}

// Deals returns up to limit active products on discount.
func (b *Browser) Deals(ctx context.Context, limit int) ([]domain.Product, error) {
	products, err := b.gateway.ListActiveProducts(ctx)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	return pricing.Deals(products, limit), nil
}

// Products returns every active product.
func (b *Browser) Products(ctx context.Context) ([]domain.Product, error) {
	return b.gateway.ListActiveProducts(ctx)
}
