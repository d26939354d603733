package types

import "time"

// Product represents a catalog item tracked by the inventory system.
type Product struct {
	// ID is the unique identifier of the product.
	ID int `json:"id" db:"id"`

	// Name is the human-readable product name.
	Name string `json:"name" db:"name"`

	// Inventory is the number of units currently in stock.
	// Never negative.
	Inventory int `json:"inventory" db:"inventory"`

	// Price is the unit price. Never negative.
	Price float64 `json:"price" db:"price"`

	// CategoryID references the category this product belongs to,
	// nil when the product is uncategorised.
	CategoryID *int `json:"category_id" db:"category_id"`

	// ImageKey is the object-storage key of the product image,
	// empty when no image has been uploaded.
	ImageKey string `json:"image_key,omitempty" db:"image_key"`

	// CreatedAt is the timestamp at which the product was created.
	CreatedAt time.Time `json:"created_at" db:"created_at"`

	// UpdatedAt is the timestamp of the most recent update to the product.
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// ProductFilter is a sparse set of query criteria. A nil (or, for Name
// and Category, empty) field contributes no predicate; the zero value
// matches every product.
type ProductFilter struct {
	// Name, when non-empty, selects products whose name contains it.
	Name string

	// MinInventory, when set, is an inclusive lower bound on stock.
	MinInventory *int

	// PriceMin and PriceMax, when set, are inclusive price bounds.
	PriceMin *float64
	PriceMax *float64

	// Category, when non-empty, selects products whose category has
	// exactly this name.
	Category string
}

// ProductPatch is a sparse update to a product. Nil fields are left
// untouched; only name, inventory and price are updatable.
type ProductPatch struct {
	Name      *string  `json:"name"`
	Inventory *int     `json:"inventory"`
	Price     *float64 `json:"price"`
}

// Empty reports whether the patch carries no fields at all.
func (p ProductPatch) Empty() bool {
	return p.Name == nil && p.Inventory == nil && p.Price == nil
}
