package domain

import (
	"strings"
	"time"
)

// Category groups products on the storefront.
type Category struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	ImageURL  string    `json:"image,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// Slug returns the URL path segment for the category.
func (c Category) Slug() string {
	return CategorySlug(c.Name)
}

// CategorySlug lowercases name and turns " & " and spaces into dashes,
// so "Bakery & Breads" becomes "bakery-breads".
func CategorySlug(name string) string {
	s := strings.ToLower(name)
	s = strings.ReplaceAll(s, " & ", "-")
	return strings.ReplaceAll(s, " ", "-")
}

// DefaultCategories is the seed list restored by the admin "seed" action.
var DefaultCategories = []string{
	"Organic veggies",
	"Fresh Fruits",
	"Cold Drinks",
	"Instant Food",
	"Dairy Products",
	"Bakery & Breads",
	"Grains & Cereals",
	"Chips",
}
