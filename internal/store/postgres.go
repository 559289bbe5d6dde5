package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/lib/pq"

	"ecommerce-service/internal/domain"
)

// Predefined errors for store operations.
var (
	ErrUserNotFound       = errors.New("store: user not found")
	ErrEmailExists        = errors.New("store: email already registered")
	ErrUsernameExists     = errors.New("store: username already taken")
	ErrCategoryNotFound   = errors.New("store: category not found")
	ErrCategorySlugExists = errors.New("store: category slug already exists")
	ErrCategoryNotEmpty   = errors.New("store: category has child categories or products")
	ErrProductNotFound    = errors.New("store: product not found")
	ErrOrderNotFound      = errors.New("store: order not found")
	ErrEmptyCart          = errors.New("store: order must contain at least one item")
	ErrInvalidQuantity    = errors.New("store: cart line quantity must be at least 1")
)

// InsufficientStockError reports a cart line that asked for more units than
// the product has, carrying what the caller needs for an actionable message.
type InsufficientStockError struct {
	ProductName string
	Available   int32
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("store: insufficient stock for %s, available: %d", e.ProductName, e.Available)
}

// PostgresStore implements the UserStorer, CategoryStorer, ProductStorer and
// OrderStorer interfaces using PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore creates a new PostgresStore instance.
func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// Close shuts down the underlying connection pool.
func (s *PostgresStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// isUniqueViolation reports whether err is a unique-constraint violation on
// the named constraint (or a detail mention of the key column).
func isUniqueViolation(err error, constraint, column string) bool {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) || pqErr.Code != "23505" {
		return false
	}
	return strings.Contains(pqErr.Constraint, constraint) ||
		strings.Contains(pqErr.Detail, fmt.Sprintf("Key (%s)", column))
}

// isForeignKeyViolation reports whether err is a foreign-key violation.
func isForeignKeyViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23503"
}

// --- UserStorer Implementation ---

const userColumns = "id, username, email, password_hash, role, created_at, updated_at"

func scanUser(row *sql.Row) (*domain.User, error) {
	var u domain.User
	err := row.Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.Role, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (s *PostgresStore) CreateUser(ctx context.Context, user *domain.User) (*domain.User, error) {
	query := `
		INSERT INTO users (username, email, password_hash, role)
		VALUES ($1, $2, $3, $4)
		RETURNING ` + userColumns + `;
	`
	created, err := scanUser(s.db.QueryRowContext(ctx, query, user.Username, user.Email, user.PasswordHash, user.Role))
	if err != nil {
		if isUniqueViolation(err, "users_email_key", "email") {
			return nil, ErrEmailExists
		}
		if isUniqueViolation(err, "users_username_key", "username") {
			return nil, ErrUsernameExists
		}
		return nil, fmt.Errorf("store: CreateUser failed to scan row: %w", err)
	}
	return created, nil
}

func (s *PostgresStore) GetUserByID(ctx context.Context, id int64) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1;`
	user, err := scanUser(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("store: GetUserByID failed to scan row: %w", err)
	}
	return user, nil
}

func (s *PostgresStore) GetUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1;`
	user, err := scanUser(s.db.QueryRowContext(ctx, query, email))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("store: GetUserByEmail failed to scan row: %w", err)
	}
	return user, nil
}

func (s *PostgresStore) ListUsers(ctx context.Context) ([]domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users ORDER BY id ASC;`
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("store: ListUsers failed to query users: %w", err)
	}
	defer rows.Close()

	users := make([]domain.User, 0)
	for rows.Next() {
		var u domain.User
		if err := rows.Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.Role, &u.CreatedAt, &u.UpdatedAt); err != nil {
			return nil, fmt.Errorf("store: ListUsers failed to scan user row: %w", err)
		}
		users = append(users, u)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("store: ListUsers iteration error: %w", err)
	}
	return users, nil
}

func (s *PostgresStore) UpdateUserRole(ctx context.Context, id int64, role domain.Role) (*domain.User, error) {
	query := `
		UPDATE users
		SET role = $1, updated_at = CURRENT_TIMESTAMP
		WHERE id = $2
		RETURNING ` + userColumns + `;
	`
	user, err := scanUser(s.db.QueryRowContext(ctx, query, role, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("store: UpdateUserRole failed to scan row: %w", err)
	}
	return user, nil
}
