package handlers

import (
	"context"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/grocery-storefront/internal/api/dto"
	"github.com/spec-kit/grocery-storefront/internal/domain"
	apperrors "github.com/spec-kit/grocery-storefront/pkg/util"
)

// CatalogService is what the product and category endpoints need.
type CatalogService interface {
	Products(ctx context.Context, activeOnly bool) ([]domain.Product, error)
	CreateProduct(ctx context.Context, p domain.Product) (*domain.Product, error)
	ToggleProduct(ctx context.Context, id string) (bool, error)
	Categories(ctx context.Context) ([]domain.Category, error)
	CreateCategory(ctx context.Context, name, imageURL string) (*domain.Category, error)
	DeleteCategory(ctx context.Context, id string) error
	SeedCategories(ctx context.Context) (int, error)
}

// CatalogHandler serves products and categories.
type CatalogHandler struct {
	catalog CatalogService
}

// NewCatalogHandler constructs handler.
func NewCatalogHandler(catalog CatalogService) *CatalogHandler {
	return &CatalogHandler{catalog: catalog}
}

// Products handles GET /product/list.
func (h *CatalogHandler) Products(c *fiber.Ctx) error {
	return h.products(c, false)
}

// ActiveProducts handles GET /product/active.
func (h *CatalogHandler) ActiveProducts(c *fiber.Ctx) error {
	return h.products(c, true)
}

func (h *CatalogHandler) products(c *fiber.Ctx, activeOnly bool) error {
	products, err := h.catalog.Products(c.UserContext(), activeOnly)
	if err != nil {
		return err
	}
	return c.JSON(products)
}

// AddProduct handles POST /product/add.
func (h *CatalogHandler) AddProduct(c *fiber.Ctx) error {
	var req dto.CreateProductRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	product, err := h.catalog.CreateProduct(c.UserContext(), domain.Product{
		Name:        req.Name,
		Description: req.Description,
		Category:    req.Category,
		Price:       req.Price,
		OldPrice:    req.OldPrice,
		Size:        req.Size,
		ImageURL:    req.ImageURL,
		BestSeller:  req.BestSeller,
	})
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(product)
}

// ToggleProduct handles POST /product/toggle.
func (h *CatalogHandler) ToggleProduct(c *fiber.Ctx) error {
	var req dto.ToggleProductRequest
	if err := c.BodyParser(&req); err != nil || req.ID == "" {
		return apperrors.NewValidationError("id is required", nil)
	}
	active, err := h.catalog.ToggleProduct(c.UserContext(), req.ID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"success": true, "active": active})
}

// Categories handles GET /category/list.
func (h *CatalogHandler) Categories(c *fiber.Ctx) error {
	categories, err := h.catalog.Categories(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(categories)
}

// AddCategory handles POST /category/add.
func (h *CatalogHandler) AddCategory(c *fiber.Ctx) error {
	var req dto.CreateCategoryRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	category, err := h.catalog.CreateCategory(c.UserContext(), req.Name, req.ImageURL)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(category)
}

// DeleteCategory handles DELETE /category/delete/:id.
func (h *CatalogHandler) DeleteCategory(c *fiber.Ctx) error {
	if err := h.catalog.DeleteCategory(c.UserContext(), c.Params("id")); err != nil {
		return err
	}
	return c.JSON(dto.SuccessResponse{Success: true, Message: "Category deleted"})
}

// SeedCategories handles POST /category/seed.
func (h *CatalogHandler) SeedCategories(c *fiber.Ctx) error {
	added, err := h.catalog.SeedCategories(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"success": true, "added": added})
}
