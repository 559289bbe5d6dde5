package store

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ecommerce-service/internal/domain"
)

func TestPostgresStore_CreateUser(t *testing.T) {
	db, mock, store := newMockDBAndStore(t)
	defer db.Close()

	now := time.Now().Truncate(time.Millisecond)
	userToCreate := &domain.User{
		Username:     "alice",
		Email:        "alice@example.com",
		PasswordHash: "$2a$10$fakehash",
		Role:         domain.RoleCustomer,
	}

	rows := sqlmock.NewRows([]string{"id", "username", "email", "password_hash", "role", "created_at", "updated_at"}).
		AddRow(int64(1), userToCreate.Username, userToCreate.Email, userToCreate.PasswordHash, string(userToCreate.Role), now, now)

	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO users (username, email, password_hash, role)`)).
		WithArgs(userToCreate.Username, userToCreate.Email, userToCreate.PasswordHash, userToCreate.Role).
		WillReturnRows(rows)

	created, err := store.CreateUser(context.Background(), userToCreate)

	require.NoError(t, err)
	assert.Equal(t, int64(1), created.ID)
	assert.Equal(t, domain.RoleCustomer, created.Role)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_CreateUser_DuplicateEmail(t *testing.T) {
	db, mock, store := newMockDBAndStore(t)
	defer db.Close()

	pqErr := &pq.Error{Code: "23505", Constraint: "users_email_key"}
	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO users`)).
		WillReturnError(pqErr)

	_, err := store.CreateUser(context.Background(), &domain.User{
		Username: "alice", Email: "taken@example.com", PasswordHash: "h", Role: domain.RoleCustomer,
	})

	assert.ErrorIs(t, err, ErrEmailExists)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_CreateUser_DuplicateUsername(t *testing.T) {
	db, mock, store := newMockDBAndStore(t)
	defer db.Close()

	pqErr := &pq.Error{Code: "23505", Constraint: "users_username_key"}
	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO users`)).
		WillReturnError(pqErr)

	_, err := store.CreateUser(context.Background(), &domain.User{
		Username: "taken", Email: "alice@example.com", PasswordHash: "h", Role: domain.RoleCustomer,
	})

	assert.ErrorIs(t, err, ErrUsernameExists)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_GetUserByEmail(t *testing.T) {
	db, mock, store := newMockDBAndStore(t)
	defer db.Close()

	now := time.Now()
	rows := sqlmock.NewRows([]string{"id", "username", "email", "password_hash", "role", "created_at", "updated_at"}).
		AddRow(int64(5), "bob", "bob@example.com", "$2a$10$fakehash", "manager", now, now)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT id, username, email, password_hash, role, created_at, updated_at FROM users WHERE email = $1;`)).
		WithArgs("bob@example.com").WillReturnRows(rows)

	user, err := store.GetUserByEmail(context.Background(), "bob@example.com")

	require.NoError(t, err)
	assert.Equal(t, int64(5), user.ID)
	assert.Equal(t, domain.RoleManager, user.Role)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_GetUserByEmail_NotFound(t *testing.T) {
	db, mock, store := newMockDBAndStore(t)
	defer db.Close()

	mock.ExpectQuery(regexp.QuoteMeta(`FROM users WHERE email = $1;`)).
		WithArgs("ghost@example.com").WillReturnError(sql.ErrNoRows)

	_, err := store.GetUserByEmail(context.Background(), "ghost@example.com")
	assert.ErrorIs(t, err, ErrUserNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_UpdateUserRole_NotFound(t *testing.T) {
	db, mock, store := newMockDBAndStore(t)
	defer db.Close()

	mock.ExpectQuery(regexp.QuoteMeta(`UPDATE users`)).
		WithArgs(domain.RoleManager, int64(99)).
		WillReturnError(sql.ErrNoRows)

	_, err := store.UpdateUserRole(context.Background(), 99, domain.RoleManager)
	assert.ErrorIs(t, err, ErrUserNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}
