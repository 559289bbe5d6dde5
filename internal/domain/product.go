package domain

import "time"

// Product is a purchasable catalog item. Stock is the count of remaining
// units; outside of admin catalog edits it is only ever decremented, and only
// by the checkout transaction. CategoryID, when set, must reference an
// existing category.
type Product struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Description *string   `json:"description,omitempty"`
	Price       float64   `json:"price"`
	Stock       int32     `json:"stock"`
	CategoryID  *int64    `json:"category_id,omitempty"`
	Image       *string   `json:"image,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}
