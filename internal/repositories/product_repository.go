package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/arjunmalhotra1/shopline/internal/models"
	"github.com/arjunmalhotra1/shopline/internal/utils"
	"github.com/google/uuid"
)

type ProductRepository interface {
	CreateProduct(ctx context.Context, product *models.Product) error
	GetProductByID(ctx context.Context, id uuid.UUID) (*models.Product, error)
	GetProductByName(ctx context.Context, name string) (*models.Product, error)
	UpdateProduct(ctx context.Context, product *models.Product) error
	DeleteProduct(ctx context.Context, id uuid.UUID) error
	ListProducts(ctx context.Context, opts models.ProductListOptions) ([]*models.Product, int, error)
}

type productRepository struct {
	DB *sql.DB
}

func NewProductRepo(db *sql.DB) ProductRepository {
	return &productRepository{DB: db}
}

// columns a caller may sort the listing by
var sortableProductColumns = map[string]string{
	"price":      "price",
	"name":       "name",
	"created_at": "created_at",
}

func (r *productRepository) CreateProduct(ctx context.Context, product *models.Product) error {
	dbCtx, cancel := utils.WithDBTimeout(ctx)
	defer cancel()

	query := `INSERT INTO products (id, name, slug, price, created_at, updated_at)
			  VALUES ($1, $2, $3, $4, NOW(), NOW())
			  RETURNING created_at, updated_at
	`

	return r.DB.QueryRowContext(dbCtx, query, product.ID, product.Name, product.Slug, product.Price).Scan(&product.CreatedAt, &product.UpdatedAt)
}

func (r *productRepository) GetProductByID(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	dbCtx, cancel := utils.WithDBTimeout(ctx)
	defer cancel()

	product := &models.Product{}

	query := `
		SELECT id, name, slug, price, created_at, updated_at
		FROM products
		WHERE id = $1`

	err := r.DB.QueryRowContext(dbCtx, query, id).Scan(&product.ID, &product.Name, &product.Slug, &product.Price, &product.CreatedAt, &product.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrProductNotFound
		}

		return nil, fmt.Errorf("querying database: %w", err)
	}

	return product, nil
}

// GetProductByName resolves a product by its exact name. Cart additions
// reference products by name, matching the storefront request shape.
func (r *productRepository) GetProductByName(ctx context.Context, name string) (*models.Product, error) {
	dbCtx, cancel := utils.WithDBTimeout(ctx)
	defer cancel()

	product := &models.Product{}

	query := `
		SELECT id, name, slug, price, created_at, updated_at
		FROM products
		WHERE name = $1`

	err := r.DB.QueryRowContext(dbCtx, query, name).Scan(&product.ID, &product.Name, &product.Slug, &product.Price, &product.CreatedAt, &product.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrProductNotFound
		}

		return nil, fmt.Errorf("querying database: %w", err)
	}

	return product, nil
}

func (r *productRepository) UpdateProduct(ctx context.Context, product *models.Product) error {
	dbCtx, cancel := utils.WithDBTimeout(ctx)
	defer cancel()

	query := `
		UPDATE products SET name = $1, slug = $2, price = $3, updated_at = NOW()
		WHERE id = $4
		RETURNING updated_at
	`

	err := r.DB.QueryRowContext(dbCtx, query, product.Name, product.Slug, product.Price, product.ID).Scan(&product.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrProductNotFound
		}

		return fmt.Errorf("failed to update product: %w", err)
	}

	return nil
}

func (r *productRepository) DeleteProduct(ctx context.Context, id uuid.UUID) error {
	dbCtx, cancel := utils.WithDBTimeout(ctx)
	defer cancel()

	result, err := r.DB.ExecContext(dbCtx, `DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete product: %w", err)
	}

	deletedRows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get deleted rows: %w", err)
	}

	if deletedRows == 0 {
		return ErrProductNotFound
	}

	return nil
}

// ListProducts returns a page of the catalog ordered by price ascending
// unless a different whitelisted sort column is requested. An optional
// search term filters by name substring.
func (r *productRepository) ListProducts(ctx context.Context, opts models.ProductListOptions) ([]*models.Product, int, error) {
	dbCtx, cancel := utils.WithDBTimeout(ctx)
	defer cancel()

	sortBy, ok := sortableProductColumns[opts.SortBy]
	if !ok {
		sortBy = "price"
	}

	sortOrder := "ASC"
	if opts.SortOrder == "desc" {
		sortOrder = "DESC"
	}

	search := "%" + opts.Search + "%"

	var total int

	countQuery := `SELECT COUNT(*) FROM products WHERE name ILIKE $1`

	if err := r.DB.QueryRowContext(dbCtx, countQuery, search).Scan(&total); err != nil {
		return nil, 0, err
	}

	// Offset
	offset := (opts.Page - 1) * opts.Size

	query := fmt.Sprintf(`
		SELECT id, name, slug, price, created_at, updated_at
		FROM products
		WHERE name ILIKE $1
		ORDER BY %s %s
		LIMIT $2 OFFSET $3
	`, sortBy, sortOrder)

	rows, err := r.DB.QueryContext(dbCtx, query, search, opts.Size, offset)
	if err != nil {
		return nil, 0, err
	}

	defer rows.Close()

	var products []*models.Product

	for rows.Next() {
		product := &models.Product{}

		err := rows.Scan(&product.ID, &product.Name, &product.Slug, &product.Price, &product.CreatedAt, &product.UpdatedAt)
		if err != nil {
			return nil, 0, err
		}

		products = append(products, product)
	}

	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	return products, total, nil
}
