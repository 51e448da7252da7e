package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/arjunmalhotra1/shopline/internal/models"
	"github.com/arjunmalhotra1/shopline/internal/utils"
	"github.com/google/uuid"
	"github.com/lib/pq"
)

type UserRepository interface {
	CreateUserWithCart(ctx context.Context, user *models.User) error
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)
	GetUserByID(ctx context.Context, id uuid.UUID) (*models.User, error)
}

type userRepository struct {
	DB *sql.DB
}

func NewUserRepo(db *sql.DB) UserRepository {
	return &userRepository{DB: db}
}

// CreateUserWithCart inserts the user row and its cart row in a single
// transaction. Every user owns exactly one cart, provisioned here rather
// than lazily, so the cart exists before the first add-to-cart call.
func (r *userRepository) CreateUserWithCart(ctx context.Context, user *models.User) error {

	dbCtx, cancel := utils.WithDBTimeout(ctx)
	defer cancel()

	tx, err := r.DB.BeginTx(dbCtx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	query := `
		INSERT INTO users (id, username, password, created_at, updated_at)
		VALUES ($1, $2, $3, NOW(), NOW())
		RETURNING created_at, updated_at`

	err = tx.QueryRowContext(dbCtx, query, user.ID, user.Username, user.Password).Scan(&user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code.Name() == "unique_violation" {
			return ErrDuplicateUsername
		}

		return fmt.Errorf("failed to insert user: %w", err)
	}

	query = `
		INSERT INTO carts (id, user_id, created_at)
		VALUES ($1, $2, NOW())`

	if _, err := tx.ExecContext(dbCtx, query, uuid.New(), user.ID); err != nil {
		return fmt.Errorf("failed to provision cart: %w", err)
	}

	return tx.Commit()
}

func (r *userRepository) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {

	dbCtx, cancel := utils.WithDBTimeout(ctx)
	defer cancel()

	user := &models.User{}
	query := `SELECT id, username, password, created_at, updated_at
			  FROM users
			  WHERE username = $1`

	err := r.DB.QueryRowContext(dbCtx, query, username).Scan(&user.ID, &user.Username, &user.Password, &user.CreatedAt, &user.UpdatedAt)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}

		return nil, fmt.Errorf("querying database: %w", err)
	}

	return user, nil

}

func (r *userRepository) GetUserByID(ctx context.Context, id uuid.UUID) (*models.User, error) {

	dbCtx, cancel := utils.WithDBTimeout(ctx)
	defer cancel()

	user := &models.User{}

	query := `
	SELECT id, username, created_at, updated_at
	FROM users
	WHERE id = $1
	`

	err := r.DB.QueryRowContext(dbCtx, query, id).Scan(&user.ID, &user.Username, &user.CreatedAt, &user.UpdatedAt)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}

		return nil, fmt.Errorf("querying database: %w", err)
	}

	return user, nil

}
