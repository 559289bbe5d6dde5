package domain

import "time"

// Category is a node in the catalog tree. ParentID is nil for root categories.
// Slug is derived from Name (see Slugify) and is unique across all categories;
// it is recomputed whenever the name changes.
//
// The parent link is non-owning: tree traversal works on id lookups over the
// full category set, never on embedded object references.
type Category struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Slug      string    `json:"slug"`
	ParentID  *int64    `json:"parent_id,omitempty"`
	Icon      *string   `json:"icon,omitempty"`
	Image     *string   `json:"image,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
