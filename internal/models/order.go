package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type OrderStatus string

type PaymentStatus string

type PaymentMethod string

const (
	OrderStatusProcessing OrderStatus = "Processing"
	OrderStatusShipped    OrderStatus = "Shipped"
	OrderStatusDelivered  OrderStatus = "Delivered"

	PaymentStatusPaid   PaymentStatus = "Paid"
	PaymentStatusUnpaid PaymentStatus = "Unpaid"

	PaymentMethodCash PaymentMethod = "Cash"
	PaymentMethodCard PaymentMethod = "Card"
)

// immutable snapshot of a cart line, captured when the order is placed
type OrderItem struct {
	ID          uuid.UUID       `json:"id"`
	OrderID     uuid.UUID       `json:"order_id"`
	ProductID   uuid.UUID       `json:"product_id"`
	ProductName string          `json:"product,omitempty"`
	Quantity    int             `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

type Order struct {
	ID            uuid.UUID       `json:"id"`
	UserID        uuid.UUID       `json:"user_id"`
	Country       string          `json:"country"`
	City          string          `json:"city"`
	State         string          `json:"state"`
	Street        string          `json:"street"`
	Phone         string          `json:"phone"`
	ZipCode       string          `json:"zip_code"`
	OrderStatus   OrderStatus     `json:"order_status"`
	PaymentStatus PaymentStatus   `json:"payment_status"`
	PaymentMethod PaymentMethod   `json:"payment_method"`
	TotalPrice    decimal.Decimal `json:"total_price"`
	Items         []OrderItem     `json:"items,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

type CreateOrderRequest struct {
	Country       string        `json:"country" validate:"required"`
	City          string        `json:"city" validate:"required"`
	State         string        `json:"state" validate:"required"`
	Street        string        `json:"street" validate:"required"`
	Phone         string        `json:"phone" validate:"required,max=15"`
	ZipCode       string        `json:"zip_code" validate:"required,max=20"`
	PaymentMethod PaymentMethod `json:"payment_method,omitempty" validate:"omitempty,oneof=Cash Card"`
}

type UpdateOrderStatusRequest struct {
	Status OrderStatus `json:"status" validate:"required,oneof=Processing Shipped Delivered"`
}

type CreateOrderResponse struct {
	Order   *Order `json:"order"`
	Message string `json:"message"`
}

type OrderHistoryResponse struct {
	Orders []Order `json:"orders"`
	Total  int     `json:"total"`
	Page   int     `json:"page"`
	Size   int     `json:"size"`
}
