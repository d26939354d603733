package types

import "time"

// Category groups related products. Names are unique; the database
// enforces the constraint and duplicate inserts fail.
type Category struct {
	// ID is the unique identifier of the category.
	ID int `json:"id" db:"id"`

	// Name is the unique category name.
	Name string `json:"name" db:"name"`

	// CreatedAt is the timestamp at which the category was created.
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}
