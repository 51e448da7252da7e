package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/arjunmalhotra1/shopline/internal/models"
	"github.com/arjunmalhotra1/shopline/internal/utils"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type OrderRepository interface {
	CreateOrderFromCart(ctx context.Context, order *models.Order) error
	GetOrderByID(ctx context.Context, id uuid.UUID) (*models.Order, error)
	ListOrderItems(ctx context.Context, orderID uuid.UUID) ([]models.OrderItem, error)
	ListOrdersByUser(ctx context.Context, userID uuid.UUID, page, size int) ([]models.Order, int, error)
	UpdateOrderStatus(ctx context.Context, id uuid.UUID, status models.OrderStatus) error
}

type orderRepository struct {
	DB *sql.DB
}

func NewOrderRepo(db *sql.DB) OrderRepository {
	return &orderRepository{DB: db}
}

// CreateOrderFromCart drains the user's cart into a new order inside one
// serializable transaction:
//
//  1. lock the cart row (ErrCartNotFound if the user has none),
//  2. read the cart lines joined with current catalog prices
//     (ErrCartEmpty if there are none),
//  3. insert the order with its shipping and payment fields,
//  4. snapshot each cart line into an order item, accumulating the total,
//  5. freeze the accumulated total onto the order,
//  6. delete the cart lines; the cart row itself survives empty.
//
// Any failure rolls the whole sequence back, so an order can never be
// charged for items still sitting in the cart and a cart is never left
// half drained. The row lock also serializes a racing add-to-cart: the add
// lands either before the drain (and is included) or after it (and stays
// in the cart for the next order).
func (r *orderRepository) CreateOrderFromCart(ctx context.Context, order *models.Order) error {

	dbCtx, cancel := utils.WithDBTimeout(ctx)
	defer cancel()

	tx, err := r.DB.BeginTx(dbCtx, &sql.TxOptions{Isolation: sql.LevelSerializable})
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var cartID uuid.UUID

	err = tx.QueryRowContext(dbCtx, `SELECT id FROM carts WHERE user_id = $1 FOR UPDATE`, order.UserID).Scan(&cartID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrCartNotFound
		}

		return fmt.Errorf("failed to lock cart: %w", err)
	}

	query := `
		SELECT ci.product_id, p.name, ci.quantity, p.price
		FROM cart_items ci
		JOIN products p ON p.id = ci.product_id
		WHERE ci.cart_id = $1
		ORDER BY ci.id
	`

	rows, err := tx.QueryContext(dbCtx, query, cartID)
	if err != nil {
		return fmt.Errorf("failed to read cart items: %w", err)
	}

	type cartLine struct {
		productID uuid.UUID
		name      string
		quantity  int
		unitPrice decimal.Decimal
	}

	var lines []cartLine

	for rows.Next() {
		var line cartLine

		if err := rows.Scan(&line.productID, &line.name, &line.quantity, &line.unitPrice); err != nil {
			rows.Close()
			return fmt.Errorf("failed to scan cart item: %w", err)
		}

		lines = append(lines, line)
	}

	rows.Close()

	if err := rows.Err(); err != nil {
		return err
	}

	if len(lines) == 0 {
		return ErrCartEmpty
	}

	query = `
		INSERT INTO orders (id, user_id, country, city, state, street, phone, zip_code,
		                    order_status, payment_status, payment_method, total_price, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, NOW(), NOW())
		RETURNING created_at, updated_at
	`

	err = tx.QueryRowContext(dbCtx, query,
		order.ID, order.UserID, order.Country, order.City, order.State, order.Street,
		order.Phone, order.ZipCode, order.OrderStatus, order.PaymentStatus, order.PaymentMethod,
		decimal.Zero,
	).Scan(&order.CreatedAt, &order.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert order: %w", err)
	}

	total := decimal.Zero

	for _, line := range lines {

		item := models.OrderItem{
			ID:          uuid.New(),
			OrderID:     order.ID,
			ProductID:   line.productID,
			ProductName: line.name,
			Quantity:    line.quantity,
			UnitPrice:   line.unitPrice,
		}

		query = `
			INSERT INTO order_items (id, order_id, product_id, quantity, unit_price, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, NOW(), NOW())
			RETURNING created_at, updated_at
		`

		err := tx.QueryRowContext(dbCtx, query, item.ID, item.OrderID, item.ProductID, item.Quantity, item.UnitPrice).Scan(&item.CreatedAt, &item.UpdatedAt)
		if err != nil {
			return fmt.Errorf("failed to insert order item: %w", err)
		}

		total = total.Add(line.unitPrice.Mul(decimalFromInt(line.quantity)))

		order.Items = append(order.Items, item)
	}

	// the total is frozen here; later catalog price edits never touch it
	if _, err := tx.ExecContext(dbCtx, `UPDATE orders SET total_price = $1, updated_at = NOW() WHERE id = $2`, total, order.ID); err != nil {
		return fmt.Errorf("failed to set order total: %w", err)
	}

	if _, err := tx.ExecContext(dbCtx, `DELETE FROM cart_items WHERE cart_id = $1`, cartID); err != nil {
		return fmt.Errorf("failed to clear cart: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit order: %w", err)
	}

	order.TotalPrice = total

	return nil
}

func (r *orderRepository) GetOrderByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {

	dbCtx, cancel := utils.WithDBTimeout(ctx)
	defer cancel()

	order := &models.Order{
		ID: id,
	}

	query := `
		SELECT user_id, country, city, state, street, phone, zip_code,
		       order_status, payment_status, payment_method, total_price, created_at, updated_at
		FROM orders
		WHERE id = $1
	`

	err := r.DB.QueryRowContext(dbCtx, query, id).Scan(
		&order.UserID, &order.Country, &order.City, &order.State, &order.Street,
		&order.Phone, &order.ZipCode, &order.OrderStatus, &order.PaymentStatus,
		&order.PaymentMethod, &order.TotalPrice, &order.CreatedAt, &order.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrOrderNotFound
		}

		return nil, fmt.Errorf("failed to get the order: %w", err)
	}

	items, err := r.ListOrderItems(ctx, id)
	if err != nil {
		return nil, err
	}

	order.Items = items

	return order, nil
}

func (r *orderRepository) ListOrderItems(ctx context.Context, orderID uuid.UUID) ([]models.OrderItem, error) {

	dbCtx, cancel := utils.WithDBTimeout(ctx)
	defer cancel()

	query := `
		SELECT oi.id, oi.product_id, p.name, oi.quantity, oi.unit_price, oi.created_at, oi.updated_at
		FROM order_items oi
		JOIN products p ON p.id = oi.product_id
		WHERE oi.order_id = $1
		ORDER BY oi.id
	`

	rows, err := r.DB.QueryContext(dbCtx, query, orderID)
	if err != nil {
		return nil, fmt.Errorf("failed to get the order items: %w", err)
	}

	defer rows.Close()

	var items []models.OrderItem

	for rows.Next() {
		var item models.OrderItem

		err := rows.Scan(&item.ID, &item.ProductID, &item.ProductName, &item.Quantity, &item.UnitPrice, &item.CreatedAt, &item.UpdatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan order item: %w", err)
		}

		item.OrderID = orderID

		items = append(items, item)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return items, nil
}

func (r *orderRepository) ListOrdersByUser(ctx context.Context, userID uuid.UUID, page, size int) ([]models.Order, int, error) {

	dbCtx, cancel := utils.WithDBTimeout(ctx)
	defer cancel()

	var total int

	countQuery := `SELECT COUNT(*) FROM orders WHERE user_id = $1`

	if err := r.DB.QueryRowContext(dbCtx, countQuery, userID).Scan(&total); err != nil {
		return nil, 0, err
	}

	// Offset
	offset := (page - 1) * size

	query := `
		SELECT id, country, city, state, street, phone, zip_code,
		       order_status, payment_status, payment_method, total_price, created_at, updated_at
		FROM orders
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`

	rows, err := r.DB.QueryContext(dbCtx, query, userID, size, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list orders: %w", err)
	}

	defer rows.Close()

	var orders []models.Order

	for rows.Next() {
		var order models.Order

		order.UserID = userID

		err := rows.Scan(
			&order.ID, &order.Country, &order.City, &order.State, &order.Street,
			&order.Phone, &order.ZipCode, &order.OrderStatus, &order.PaymentStatus,
			&order.PaymentMethod, &order.TotalPrice, &order.CreatedAt, &order.UpdatedAt,
		)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan the orders: %w", err)
		}

		orders = append(orders, order)
	}

	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	return orders, total, nil
}

func (r *orderRepository) UpdateOrderStatus(ctx context.Context, id uuid.UUID, status models.OrderStatus) error {

	dbCtx, cancel := utils.WithDBTimeout(ctx)
	defer cancel()

	query := `
		UPDATE orders SET order_status = $1, updated_at = $2 WHERE id = $3
	`

	result, err := r.DB.ExecContext(dbCtx, query, status, time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to update order status: %w", err)
	}

	updatedRows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get updated rows: %w", err)
	}

	if updatedRows == 0 {
		return ErrOrderNotFound
	}

	return nil
}
