package domain

import "time"

// Product is a catalog entry. Name doubles as the cart key.
type Product struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	Category    string    `json:"category"`
	Price       float64   `json:"price"`
	OldPrice    float64   `json:"oldPrice,omitempty"`
	Size        string    `json:"size,omitempty"`
	ImageURL    string    `json:"image,omitempty"`
	Active      bool      `json:"active"`
	BestSeller  bool      `json:"bestSeller,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
}

// CartKey returns the identifier the cart uses for this product.
func (p Product) CartKey() string {
	return p.Name
}
