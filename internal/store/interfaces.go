package store

import (
	"context"

	"ecommerce-service/internal/domain"
)

// ListProductsParams holds filtering and pagination parameters for listing
// products. CategoryIDs, when non-empty, restricts results to products in any
// of the given categories (used for subtree queries).
type ListProductsParams struct {
	Limit       int
	Offset      int
	SearchQuery *string // case-insensitive substring match on name
	CategoryIDs []int64
	MinPrice    *float64
	MaxPrice    *float64
}

// UserStorer defines the database operations for user accounts.
type UserStorer interface {
	CreateUser(ctx context.Context, user *domain.User) (*domain.User, error)
	GetUserByID(ctx context.Context, id int64) (*domain.User, error)
	GetUserByEmail(ctx context.Context, email string) (*domain.User, error)
	ListUsers(ctx context.Context) ([]domain.User, error)
	UpdateUserRole(ctx context.Context, id int64, role domain.Role) (*domain.User, error)
}

// CategoryStorer defines the database operations for categories.
// ListCategories returns the full category set: the tree resolver operates on
// a complete snapshot, and catalogs are small enough that paginating the
// taxonomy would only complicate the traversals.
type CategoryStorer interface {
	CreateCategory(ctx context.Context, category *domain.Category) (*domain.Category, error)
	GetCategoryByID(ctx context.Context, id int64) (*domain.Category, error)
	GetCategoryBySlug(ctx context.Context, slug string) (*domain.Category, error)
	ListCategories(ctx context.Context) ([]domain.Category, error)
	UpdateCategory(ctx context.Context, category *domain.Category) (*domain.Category, error)
	DeleteCategory(ctx context.Context, id int64) error
}

// ProductStorer defines the database operations for products.
type ProductStorer interface {
	CreateProduct(ctx context.Context, product *domain.Product) (*domain.Product, error)
	GetProductByID(ctx context.Context, id int64) (*domain.Product, error)
	ListProducts(ctx context.Context, params ListProductsParams) ([]domain.Product, int, error) // rows plus total count
	UpdateProduct(ctx context.Context, product *domain.Product) (*domain.Product, error)
	DeleteProduct(ctx context.Context, id int64) error
}

// OrderStorer defines the database operations for orders. CreateOrder is the
// checkout engine: it validates the cart against live stock and commits the
// order header, its lines, and the stock decrements as one transaction.
type OrderStorer interface {
	CreateOrder(ctx context.Context, userID int64, lines []domain.CartLine, address string) (*domain.Order, error)
	GetOrderByID(ctx context.Context, id int64) (*domain.Order, error)
	ListOrders(ctx context.Context) ([]domain.Order, error)
	ListOrdersByUser(ctx context.Context, userID int64) ([]domain.Order, error)
	SetOrderStatus(ctx context.Context, id int64, status domain.OrderStatus) (*domain.Order, error)
	DeleteOrder(ctx context.Context, id int64) error
}
