package service

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/grocery-storefront/internal/domain"
	"github.com/spec-kit/grocery-storefront/internal/repository"
	apperrors "github.com/spec-kit/grocery-storefront/pkg/util"
)

// CatalogService manages products and categories.
type CatalogService struct {
	products   repository.ProductRepository
	categories repository.CategoryRepository
}

// NewCatalogService constructs the service.
func NewCatalogService(products repository.ProductRepository, categories repository.CategoryRepository) *CatalogService {
	return &CatalogService{products: products, categories: categories}
}

// Products lists the catalog, optionally only items currently for sale.
func (s *CatalogService) Products(ctx context.Context, activeOnly bool) ([]domain.Product, error) {
	products, err := s.products.List(ctx, activeOnly)
	if err != nil {
		return nil, err
	}
	if products == nil {
		products = []domain.Product{}
	}
	return products, nil
}

// CreateProduct adds an active product.
func (s *CatalogService) CreateProduct(ctx context.Context, p domain.Product) (*domain.Product, error) {
	p.Name = strings.TrimSpace(p.Name)
	p.Category = strings.TrimSpace(p.Category)

	details := map[string]any{}
	if p.Name == "" {
		details["name"] = "required"
	}
	if p.Category == "" {
		details["category"] = "required"
	}
	if p.Price <= 0 {
		details["price"] = "must be positive"
	}
	if p.OldPrice < 0 {
		details["oldPrice"] = "must not be negative"
	}
	if len(details) > 0 {
		return nil, apperrors.NewValidationError("Invalid product", details)
	}

	p.Active = true
	if err := s.products.Create(ctx, &p); err != nil {
		if repository.IsUniqueViolation(err) {
			return nil, apperrors.NewConflict("Product already exists", nil)
		}
		return nil, err
	}
	return &p, nil
}

// ToggleProduct flips availability and returns the new state.
func (s *CatalogService) ToggleProduct(ctx context.Context, id string) (bool, error) {
	active, err := s.products.ToggleActive(ctx, id)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, apperrors.NewNotFound("product", map[string]any{"id": id})
	}
	return active, err
}

// Categories lists categories in creation order.
func (s *CatalogService) Categories(ctx context.Context) ([]domain.Category, error) {
	categories, err := s.categories.List(ctx)
	if err != nil {
		return nil, err
	}
	if categories == nil {
		categories = []domain.Category{}
	}
	return categories, nil
}

// CreateCategory adds a named category.
func (s *CatalogService) CreateCategory(ctx context.Context, name, imageURL string) (*domain.Category, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperrors.NewValidationError("Category name is required", nil)
	}
	c := &domain.Category{Name: name, ImageURL: strings.TrimSpace(imageURL)}
	if err := s.categories.Create(ctx, c); err != nil {
		if repository.IsUniqueViolation(err) {
			return nil, apperrors.NewConflict("Category already exists", nil)
		}
		return nil, err
	}
	return c, nil
}

// DeleteCategory removes a category by ID.
func (s *CatalogService) DeleteCategory(ctx context.Context, id string) error {
	err := s.categories.Delete(ctx, id)
	if errors.Is(err, pgx.ErrNoRows) {
		return apperrors.NewNotFound("category", map[string]any{"id": id})
	}
	return err
}

// SeedCategories restores the default category list, returning how many were added.
func (s *CatalogService) SeedCategories(ctx context.Context) (int, error) {
	return s.categories.EnsureNames(ctx, domain.DefaultCategories)
}
