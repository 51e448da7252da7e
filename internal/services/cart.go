package service

import (
	"context"
	"errors"

	apperrors "github.com/arjunmalhotra1/shopline/internal/errors"
	"github.com/arjunmalhotra1/shopline/internal/models"
	repository "github.com/arjunmalhotra1/shopline/internal/repositories"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

func decimalFromInt(n int) decimal.Decimal {
	return decimal.NewFromInt(int64(n))
}

type CartService interface {
	ViewCart(ctx context.Context, userID uuid.UUID) (*models.Cart, error)
	AddItem(ctx context.Context, userID uuid.UUID, req *models.AddCartItemRequest) (*models.CartItem, error)
	RemoveItem(ctx context.Context, userID, productID uuid.UUID) error
}

type cartService struct {
	cartRepo    repository.CartRepository
	productRepo repository.ProductRepository
}

func NewCartService(cartRepo repository.CartRepository, productRepo repository.ProductRepository) CartService {
	return &cartService{cartRepo: cartRepo, productRepo: productRepo}
}

// ViewCart returns the cart with its lines and the total computed on read.
// A cart without lines comes back with an empty items array; only a user
// with no cart row at all is a not-found.
func (s *cartService) ViewCart(ctx context.Context, userID uuid.UUID) (*models.Cart, error) {

	cart, err := s.cartRepo.GetCartByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrCartNotFound) {
			return nil, apperrors.NotFoundError("Cart not found").WithError(err)
		}

		return nil, apperrors.DatabaseError("Failed to fetch cart").WithError(err)
	}

	items, err := s.cartRepo.ListItems(ctx, cart.ID)
	if err != nil {
		return nil, apperrors.DatabaseError("Failed to fetch cart items").WithError(err)
	}

	cart.Items = items
	cart.Total = models.CartTotal(items)

	return cart, nil
}

// AddItem resolves the product by name and upserts the cart line: the first
// add sets the quantity, every later add for the same product adds to it.
func (s *cartService) AddItem(ctx context.Context, userID uuid.UUID, req *models.AddCartItemRequest) (*models.CartItem, error) {

	quantity := req.Quantity
	if quantity == 0 {
		quantity = 1
	}

	product, err := s.productRepo.GetProductByName(ctx, req.Product)
	if err != nil {
		if errors.Is(err, repository.ErrProductNotFound) {
			return nil, apperrors.NotFoundError("Product not found").WithError(err)
		}

		return nil, apperrors.DatabaseError("Failed to resolve product").WithError(err)
	}

	cart, err := s.cartRepo.GetCartByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrCartNotFound) {
			return nil, apperrors.NotFoundError("Cart not found").WithError(err)
		}

		return nil, apperrors.DatabaseError("Failed to fetch cart").WithError(err)
	}

	item, err := s.cartRepo.UpsertItem(ctx, cart.ID, product.ID, quantity)
	if err != nil {
		return nil, apperrors.DatabaseError("Failed to add item to cart").WithError(err)
	}

	item.ProductName = product.Name
	item.UnitPrice = product.Price
	item.TotalPrice = product.Price.Mul(decimalFromInt(item.Quantity))

	return item, nil
}

// RemoveItem deletes the line for the given product. Removing a product
// that is not in the cart is a not-found, not a no-op.
func (s *cartService) RemoveItem(ctx context.Context, userID, productID uuid.UUID) error {

	cart, err := s.cartRepo.GetCartByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrCartNotFound) {
			return apperrors.NotFoundError("Cart not found").WithError(err)
		}

		return apperrors.DatabaseError("Failed to fetch cart").WithError(err)
	}

	if err := s.cartRepo.RemoveItem(ctx, cart.ID, productID); err != nil {
		if errors.Is(err, repository.ErrCartItemNotFound) {
			return apperrors.NotFoundError("Item not found in the cart").WithError(err)
		}

		return apperrors.DatabaseError("Failed to remove cart item").WithError(err)
	}

	return nil
}
