package repositories

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"

	"lostfound-backend/internal/models"
)

var (
	ErrUserNotFound = errors.New("user not found")
	ErrEmailTaken   = errors.New("email already registered")
)

// UserRepository exposes the account operations the rest of the service needs.
type UserRepository interface {
	Create(ctx context.Context, name, email, passwordHash string, phone *string) (models.User, error)
	GetByEmail(ctx context.Context, email string) (models.User, error)
	GetByID(ctx context.Context, userID int) (models.User, error)
}

// UserRepo is a sqlx implementation of UserRepository.
type UserRepo struct {
	db *sqlx.DB
}

// NewUserRepo constructs a UserRepo.
func NewUserRepo(db *sqlx.DB) *UserRepo {
	return &UserRepo{db: db}
}

const selectUser = `SELECT id, name, email, password_hash, phone, is_admin, is_blocked, created_at FROM users`

// Create inserts a new account. Duplicate emails map to ErrEmailTaken via
// the unique constraint on users.email.
func (r *UserRepo) Create(ctx context.Context, name, email, passwordHash string, phone *string) (models.User, error) {
	var user models.User
	err := r.db.GetContext(ctx, &user, `INSERT INTO users (name, email, password_hash, phone)
        VALUES ($1, $2, $3, $4)
        RETURNING id, name, email, password_hash, phone, is_admin, is_blocked, created_at`,
		name, email, passwordHash, phone)
	if err != nil && isUniqueViolation(err) {
		return models.User{}, ErrEmailTaken
	}
	return user, err
}

// GetByEmail looks an account up for login.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (models.User, error) {
	var user models.User
	err := r.db.GetContext(ctx, &user, selectUser+` WHERE email=$1`, email)
	if errors.Is(err, sql.ErrNoRows) {
		return models.User{}, ErrUserNotFound
	}
	return user, err
}

// GetByID fetches an account by id.
func (r *UserRepo) GetByID(ctx context.Context, userID int) (models.User, error) {
	var user models.User
	err := r.db.GetContext(ctx, &user, selectUser+` WHERE id=$1`, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return models.User{}, ErrUserNotFound
	}
	return user, err
}
