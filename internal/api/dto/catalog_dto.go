package dto

// CreateProductRequest is sent by admins.
type CreateProductRequest struct {
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Category    string  `json:"category"`
	Price       float64 `json:"price"`
	OldPrice    float64 `json:"oldPrice"`
	Size        string  `json:"size"`
	ImageURL    string  `json:"image"`
	BestSeller  bool    `json:"bestSeller"`
}

// ToggleProductRequest flips a product's availability.
type ToggleProductRequest struct {
	ID string `json:"id"`
}

// CreateCategoryRequest is sent by admins.
type CreateCategoryRequest struct {
	Name     string `json:"name"`
	ImageURL string `json:"image"`
}
