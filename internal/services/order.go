package service

import (
	"context"
	"errors"

	apperrors "github.com/arjunmalhotra1/shopline/internal/errors"
	"github.com/arjunmalhotra1/shopline/internal/models"
	repository "github.com/arjunmalhotra1/shopline/internal/repositories"
	"github.com/google/uuid"
)

type OrderService interface {
	CreateOrder(ctx context.Context, userID uuid.UUID, req *models.CreateOrderRequest) (*models.Order, error)
	GetOrderByID(ctx context.Context, id uuid.UUID) (*models.Order, error)
	ListOrderItems(ctx context.Context, orderID uuid.UUID) ([]models.OrderItem, error)
	ListOrdersByUser(ctx context.Context, userID uuid.UUID, page, size int) ([]models.Order, int, error)
	UpdateOrderStatus(ctx context.Context, id uuid.UUID, status models.OrderStatus) (*models.Order, error)
}

type orderService struct {
	orderRepo repository.OrderRepository
}

func NewOrderService(orderRepo repository.OrderRepository) OrderService {
	return &orderService{orderRepo: orderRepo}
}

// CreateOrder snapshots the user's cart into a new order. The repository
// runs the whole drain in one transaction; here the shipping and payment
// fields are assembled and domain failures mapped onto the API taxonomy.
func (s *orderService) CreateOrder(ctx context.Context, userID uuid.UUID, req *models.CreateOrderRequest) (*models.Order, error) {

	paymentMethod := req.PaymentMethod
	if paymentMethod == "" {
		paymentMethod = models.PaymentMethodCash
	}

	order := &models.Order{
		ID:            uuid.New(),
		UserID:        userID,
		Country:       req.Country,
		City:          req.City,
		State:         req.State,
		Street:        req.Street,
		Phone:         req.Phone,
		ZipCode:       req.ZipCode,
		OrderStatus:   models.OrderStatusProcessing,
		PaymentStatus: models.PaymentStatusUnpaid,
		PaymentMethod: paymentMethod,
	}

	if err := s.orderRepo.CreateOrderFromCart(ctx, order); err != nil {
		switch {
		case errors.Is(err, repository.ErrCartNotFound):
			return nil, apperrors.DomainError("The user does not have an active cart").WithError(err)
		case errors.Is(err, repository.ErrCartEmpty):
			return nil, apperrors.DomainError("Cannot create an order from an empty cart").WithError(err)
		default:
			return nil, apperrors.DatabaseError("Failed to create order").WithError(err)
		}
	}

	return order, nil
}

func (s *orderService) GetOrderByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {

	order, err := s.orderRepo.GetOrderByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrOrderNotFound) {
			return nil, apperrors.NotFoundError("Order not found").WithError(err)
		}

		return nil, apperrors.DatabaseError("Failed to fetch order").WithError(err)
	}

	return order, nil
}

func (s *orderService) ListOrderItems(ctx context.Context, orderID uuid.UUID) ([]models.OrderItem, error) {

	// distinguish an unknown order from an order with no items
	if _, err := s.GetOrderByID(ctx, orderID); err != nil {
		return nil, err
	}

	items, err := s.orderRepo.ListOrderItems(ctx, orderID)
	if err != nil {
		return nil, apperrors.DatabaseError("Failed to fetch order items").WithError(err)
	}

	return items, nil
}

func (s *orderService) ListOrdersByUser(ctx context.Context, userID uuid.UUID, page, size int) ([]models.Order, int, error) {

	if page < 1 {
		page = 1
	}

	if size < 1 || size > 50 {
		size = 10
	}

	orders, total, err := s.orderRepo.ListOrdersByUser(ctx, userID, page, size)
	if err != nil {
		return nil, 0, apperrors.DatabaseError("Failed to fetch orders").WithError(err)
	}

	return orders, total, nil
}

func (s *orderService) UpdateOrderStatus(ctx context.Context, id uuid.UUID, status models.OrderStatus) (*models.Order, error) {

	if err := s.orderRepo.UpdateOrderStatus(ctx, id, status); err != nil {
		if errors.Is(err, repository.ErrOrderNotFound) {
			return nil, apperrors.NotFoundError("Order not found").WithError(err)
		}

		return nil, apperrors.DatabaseError("Failed to update order status").WithError(err)
	}

	return s.GetOrderByID(ctx, id)
}
