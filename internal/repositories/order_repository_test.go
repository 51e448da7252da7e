package repository_test

import (
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/arjunmalhotra1/shopline/internal/models"
	repository "github.com/arjunmalhotra1/shopline/internal/repositories"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupOrderRepoTest(t *testing.T) (repository.OrderRepository, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err, "Failed to create sqlmock")

	t.Cleanup(func() {
		db.Close()
	})

	repo := repository.NewOrderRepo(db)
	require.NotNil(t, repo, "NewOrderRepo should return a non-nil repository")

	return repo, mock
}

func newTestOrder(userID uuid.UUID) *models.Order {
	return &models.Order{
		ID:            uuid.New(),
		UserID:        userID,
		Country:       "US",
		City:          "Springfield",
		State:         "IL",
		Street:        "742 Evergreen Terrace",
		Phone:         "555-0101",
		ZipCode:       "62704",
		OrderStatus:   models.OrderStatusProcessing,
		PaymentStatus: models.PaymentStatusUnpaid,
		PaymentMethod: models.PaymentMethodCash,
	}
}

func TestCreateOrderFromCart(t *testing.T) {
	repo, mock := setupOrderRepoTest(t)
	ctx := t.Context()
	userID := uuid.New()
	cartID := uuid.New()
	now := time.Now()

	cartLineRows := func() *sqlmock.Rows {
		return sqlmock.NewRows([]string{"product_id", "name", "quantity", "price"}).
			AddRow(uuid.New(), "Widget", 5, "10.00").
			AddRow(uuid.New(), "Gadget", 1, "3.50")
	}

	t.Run("Success - Cart Drained Into Order", func(t *testing.T) {
		// Arrange
		order := newTestOrder(userID)

		mock.ExpectBegin()
		mock.ExpectQuery(`SELECT id FROM carts WHERE user_id = \$1 FOR UPDATE`).
			WithArgs(userID).
			WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(cartID))
		mock.ExpectQuery(`SELECT ci.product_id, p.name, ci.quantity, p.price\s+FROM cart_items ci`).
			WithArgs(cartID).
			WillReturnRows(cartLineRows())
		mock.ExpectQuery(`INSERT INTO orders`).
			WillReturnRows(sqlmock.NewRows([]string{"created_at", "updated_at"}).AddRow(now, now))
		mock.ExpectQuery(`INSERT INTO order_items`).
			WillReturnRows(sqlmock.NewRows([]string{"created_at", "updated_at"}).AddRow(now, now))
		mock.ExpectQuery(`INSERT INTO order_items`).
			WillReturnRows(sqlmock.NewRows([]string{"created_at", "updated_at"}).AddRow(now, now))
		mock.ExpectExec(`UPDATE orders SET total_price`).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec(`DELETE FROM cart_items WHERE cart_id`).
			WithArgs(cartID).
			WillReturnResult(sqlmock.NewResult(0, 2))
		mock.ExpectCommit()

		// Act
		err := repo.CreateOrderFromCart(ctx, order)

		// Assert
		require.NoError(t, err)
		require.Len(t, order.Items, 2)
		assert.True(t, order.TotalPrice.Equal(decimal.RequireFromString("53.50")), "frozen total should equal sum of quantity times unit price, got %s", order.TotalPrice)
		assert.Equal(t, "Widget", order.Items[0].ProductName)
		assert.Equal(t, 5, order.Items[0].Quantity)
		require.NoError(t, mock.ExpectationsWereMet(), "SQL mock expectations were not met")
	})

	t.Run("Failure - No Cart For User", func(t *testing.T) {
		// Arrange
		order := newTestOrder(userID)

		mock.ExpectBegin()
		mock.ExpectQuery(`SELECT id FROM carts WHERE user_id = \$1 FOR UPDATE`).
			WithArgs(userID).
			WillReturnRows(sqlmock.NewRows([]string{"id"}))
		mock.ExpectRollback()

		// Act
		err := repo.CreateOrderFromCart(ctx, order)

		// Assert
		require.Error(t, err)
		assert.ErrorIs(t, err, repository.ErrCartNotFound)
		assert.Empty(t, order.Items)
		require.NoError(t, mock.ExpectationsWereMet(), "SQL mock expectations were not met")
	})

	t.Run("Failure - Empty Cart Creates Nothing", func(t *testing.T) {
		// Arrange
		order := newTestOrder(userID)

		mock.ExpectBegin()
		mock.ExpectQuery(`SELECT id FROM carts WHERE user_id = \$1 FOR UPDATE`).
			WithArgs(userID).
			WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(cartID))
		mock.ExpectQuery(`SELECT ci.product_id, p.name, ci.quantity, p.price\s+FROM cart_items ci`).
			WithArgs(cartID).
			WillReturnRows(sqlmock.NewRows([]string{"product_id", "name", "quantity", "price"}))
		mock.ExpectRollback()

		// Act
		err := repo.CreateOrderFromCart(ctx, order)

		// Assert: no order row, no order items, cart untouched
		require.Error(t, err)
		assert.ErrorIs(t, err, repository.ErrCartEmpty)
		assert.Empty(t, order.Items)
		assert.True(t, order.TotalPrice.IsZero())
		require.NoError(t, mock.ExpectationsWereMet(), "SQL mock expectations were not met")
	})

	t.Run("Failure - Item Insert Rolls Back Whole Transfer", func(t *testing.T) {
		// Arrange
		order := newTestOrder(userID)
		dbError := errors.New("order item insertion failed")

		mock.ExpectBegin()
		mock.ExpectQuery(`SELECT id FROM carts WHERE user_id = \$1 FOR UPDATE`).
			WithArgs(userID).
			WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(cartID))
		mock.ExpectQuery(`SELECT ci.product_id, p.name, ci.quantity, p.price\s+FROM cart_items ci`).
			WithArgs(cartID).
			WillReturnRows(cartLineRows())
		mock.ExpectQuery(`INSERT INTO orders`).
			WillReturnRows(sqlmock.NewRows([]string{"created_at", "updated_at"}).AddRow(now, now))
		mock.ExpectQuery(`INSERT INTO order_items`).
			WillReturnError(dbError)
		mock.ExpectRollback()

		// Act
		err := repo.CreateOrderFromCart(ctx, order)

		// Assert
		require.Error(t, err)
		assert.ErrorIs(t, err, dbError)
		require.NoError(t, mock.ExpectationsWereMet(), "SQL mock expectations were not met")
	})
}

func TestGetOrderByID(t *testing.T) {
	repo, mock := setupOrderRepoTest(t)
	ctx := t.Context()
	orderID := uuid.New()
	userID := uuid.New()
	now := time.Now()

	t.Run("Success", func(t *testing.T) {
		// Arrange
		mock.ExpectQuery(`SELECT user_id, country, city, state, street, phone, zip_code`).
			WithArgs(orderID).
			WillReturnRows(sqlmock.NewRows([]string{
				"user_id", "country", "city", "state", "street", "phone", "zip_code",
				"order_status", "payment_status", "payment_method", "total_price", "created_at", "updated_at",
			}).AddRow(userID, "US", "Springfield", "IL", "742 Evergreen Terrace", "555-0101", "62704",
				"Processing", "Unpaid", "Cash", "53.50", now, now))
		mock.ExpectQuery(`SELECT oi.id, oi.product_id, p.name, oi.quantity, oi.unit_price`).
			WithArgs(orderID).
			WillReturnRows(sqlmock.NewRows([]string{"id", "product_id", "name", "quantity", "unit_price", "created_at", "updated_at"}).
				AddRow(uuid.New(), uuid.New(), "Widget", 5, "10.00", now, now))

		// Act
		order, err := repo.GetOrderByID(ctx, orderID)

		// Assert
		require.NoError(t, err)
		assert.Equal(t, orderID, order.ID)
		assert.Equal(t, models.OrderStatusProcessing, order.OrderStatus)
		assert.True(t, order.TotalPrice.Equal(decimal.RequireFromString("53.50")))
		require.Len(t, order.Items, 1)
		assert.Equal(t, orderID, order.Items[0].OrderID)
		require.NoError(t, mock.ExpectationsWereMet(), "SQL mock expectations were not met")
	})

	t.Run("Failure - Unknown Order", func(t *testing.T) {
		// Arrange
		mock.ExpectQuery(`SELECT user_id, country, city, state, street, phone, zip_code`).
			WithArgs(orderID).
			WillReturnRows(sqlmock.NewRows([]string{"user_id"}))

		// Act
		order, err := repo.GetOrderByID(ctx, orderID)

		// Assert
		require.Error(t, err)
		assert.ErrorIs(t, err, repository.ErrOrderNotFound)
		assert.Nil(t, order)
		require.NoError(t, mock.ExpectationsWereMet(), "SQL mock expectations were not met")
	})
}

func TestUpdateOrderStatus(t *testing.T) {
	repo, mock := setupOrderRepoTest(t)
	ctx := t.Context()
	orderID := uuid.New()

	t.Run("Success", func(t *testing.T) {
		// Arrange
		mock.ExpectExec(`UPDATE orders SET order_status`).
			WithArgs(models.OrderStatusShipped, sqlmock.AnyArg(), orderID).
			WillReturnResult(sqlmock.NewResult(0, 1))

		// Act
		err := repo.UpdateOrderStatus(ctx, orderID, models.OrderStatusShipped)

		// Assert
		require.NoError(t, err)
		require.NoError(t, mock.ExpectationsWereMet(), "SQL mock expectations were not met")
	})

	t.Run("Failure - Unknown Order", func(t *testing.T) {
		// Arrange
		mock.ExpectExec(`UPDATE orders SET order_status`).
			WithArgs(models.OrderStatusShipped, sqlmock.AnyArg(), orderID).
			WillReturnResult(sqlmock.NewResult(0, 0))

		// Act
		err := repo.UpdateOrderStatus(ctx, orderID, models.OrderStatusShipped)

		// Assert
		require.Error(t, err)
		assert.ErrorIs(t, err, repository.ErrOrderNotFound)
		require.NoError(t, mock.ExpectationsWereMet(), "SQL mock expectations were not met")
	})
}
