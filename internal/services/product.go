package service

import (
	"context"
	"errors"

	apperrors "github.com/arjunmalhotra1/shopline/internal/errors"
	"github.com/arjunmalhotra1/shopline/internal/models"
	repository "github.com/arjunmalhotra1/shopline/internal/repositories"
	"github.com/google/uuid"
)

type ProductService interface {
	CreateProduct(ctx context.Context, req *models.CreateProductRequest) (*models.Product, error)
	GetProductByID(ctx context.Context, id uuid.UUID) (*models.Product, error)
	UpdateProduct(ctx context.Context, id uuid.UUID, req *models.UpdateProductRequest) (*models.Product, error)
	DeleteProduct(ctx context.Context, id uuid.UUID) error
	ListProducts(ctx context.Context, opts models.ProductListOptions) ([]*models.Product, int, error)
}

type productService struct {
	repo repository.ProductRepository
}

func NewProductService(repo repository.ProductRepository) ProductService {
	return &productService{repo: repo}
}

func (s *productService) CreateProduct(ctx context.Context, req *models.CreateProductRequest) (*models.Product, error) {

	// validator has no notion of decimals, the positivity check lives here
	if !req.Price.IsPositive() {
		return nil, apperrors.ValidationError("Price must be greater than zero")
	}

	product := &models.Product{
		ID:    uuid.New(),
		Name:  req.Name,
		Slug:  models.Slugify(req.Name),
		Price: req.Price,
	}

	if err := s.repo.CreateProduct(ctx, product); err != nil {
		return nil, apperrors.DatabaseError("Failed to create product").WithError(err)
	}

	return product, nil
}

func (s *productService) GetProductByID(ctx context.Context, id uuid.UUID) (*models.Product, error) {

	product, err := s.repo.GetProductByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrProductNotFound) {
			return nil, apperrors.NotFoundError("Product not found").WithError(err)
		}

		return nil, apperrors.DatabaseError("Failed to fetch product").WithError(err)
	}

	return product, nil
}

func (s *productService) UpdateProduct(ctx context.Context, id uuid.UUID, req *models.UpdateProductRequest) (*models.Product, error) {

	product, err := s.GetProductByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		product.Name = *req.Name
		product.Slug = models.Slugify(*req.Name)
	}

	if req.Price != nil {
		if !req.Price.IsPositive() {
			return nil, apperrors.ValidationError("Price must be greater than zero")
		}

		product.Price = *req.Price
	}

	if err := s.repo.UpdateProduct(ctx, product); err != nil {
		if errors.Is(err, repository.ErrProductNotFound) {
			return nil, apperrors.NotFoundError("Product not found").WithError(err)
		}

		return nil, apperrors.DatabaseError("Failed to update product").WithError(err)
	}

	return product, nil
}

func (s *productService) DeleteProduct(ctx context.Context, id uuid.UUID) error {

	if err := s.repo.DeleteProduct(ctx, id); err != nil {
		if errors.Is(err, repository.ErrProductNotFound) {
			return apperrors.NotFoundError("Product not found").WithError(err)
		}

		return apperrors.DatabaseError("Failed to delete product").WithError(err)
	}

	return nil
}

func (s *productService) ListProducts(ctx context.Context, opts models.ProductListOptions) ([]*models.Product, int, error) {

	if opts.Page < 1 {
		opts.Page = 1
	}

	if opts.Size < 1 || opts.Size > 100 {
		opts.Size = 20
	}

	products, total, err := s.repo.ListProducts(ctx, opts)
	if err != nil {
		return nil, 0, apperrors.DatabaseError("Failed to list products").WithError(err)
	}

	return products, total, nil
}
