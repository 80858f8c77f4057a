package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"herbal_store/internal/domain"

	"github.com/lib/pq"
	"github.com/sirupsen/logrus"
)

type postgresOrderRepository struct {
	db  *sql.DB
	log *logrus.Logger
}

func NewPostgresOrderRepository(db *sql.DB, logger *logrus.Logger) domain.OrderRepository {
	return &postgresOrderRepository{
		db:  db,
		log: logger,
	}
}

const orderColumns = `id, user_id, total_amount, ship_name, ship_phone, ship_address, ship_city, ship_state, ship_pincode,
        status, payment_status, archived, transaction_id, created_at, updated_at, version`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanOrder(row rowScanner) (domain.Order, error) {
	var o domain.Order
	var txn sql.NullString
	err := row.Scan(
		&o.ID, &o.UserID, &o.TotalAmount,
		&o.ShippingAddress.Name, &o.ShippingAddress.Phone, &o.ShippingAddress.Address,
		&o.ShippingAddress.City, &o.ShippingAddress.State, &o.ShippingAddress.Pincode,
		&o.Status, &o.PaymentStatus, &o.Archived, &txn,
		&o.CreatedAt, &o.UpdatedAt, &o.Version,
	)
	o.TransactionID = txn.String
	return o, err
}

func (r *postgresOrderRepository) CreateOrder(ctx context.Context, order *domain.Order) (*domain.Order, error) {
	var err error
	for attempt := 0; attempt < maxIDAttempts; attempt++ {
		var created *domain.Order
		created, err = r.insertOrder(ctx, order, millisID(time.Now(), attempt))
		if err == nil {
			r.log.Infof("Repository: Order %s created for user %s with %d items", created.ID, created.UserID, len(created.Items))
			return created, nil
		}
		var pqErr *pq.Error
		if !errors.As(err, &pqErr) || pqErr.Code != pqUniqueViolation || pqErr.Constraint != "orders_pkey" {
			break
		}
		r.log.Debugf("Repository: Order id collision on attempt %d, retrying", attempt+1)
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code {
		case pqUniqueViolation:
			r.log.Warnf("Repository: Duplicate order for transaction %s", order.TransactionID)
			return nil, fmt.Errorf("order for transaction %s already exists: %w", order.TransactionID, domain.ErrConflict)
		case pqCheckViolation:
			r.log.Warnf("Repository: Order rejected by constraint %s: %v", pqErr.Constraint, pqErr.Message)
			return nil, fmt.Errorf("invalid order data: %s: %w", pqErr.Message, domain.ErrInvalidInput)
		}
	}
	r.log.Errorf("Repository: Failed to create order for user %s: %v", order.UserID, err)
	return nil, fmt.Errorf("could not create order: %w", err)
}

// rollbackFailure drops the ErrTxDone a rollback reports once Commit has already ended the transaction.
func rollbackFailure(err error) error {
	if errors.Is(err, sql.ErrTxDone) {
		return nil
	}
	return err
}

func (r *postgresOrderRepository) insertOrder(ctx context.Context, order *domain.Order, id string) (created *domain.Order, err error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("could not start transaction: %w", err)
	}
	defer func() {
		if err != nil {
			if rbErr := rollbackFailure(tx.Rollback()); rbErr != nil {
				r.log.Errorf("Repository: Failed to rollback transaction: %v", rbErr)
			}
		}
	}()

	o := *order
	o.ID = id
	addr := o.ShippingAddress
	txn := sql.NullString{String: o.TransactionID, Valid: o.TransactionID != ""}

	err = tx.QueryRowContext(ctx, `
        INSERT INTO orders (id, user_id, total_amount, ship_name, ship_phone, ship_address, ship_city, ship_state,
            ship_pincode, status, payment_status, archived, transaction_id)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
        RETURNING created_at, updated_at, version`,
		o.ID, o.UserID, o.TotalAmount, addr.Name, addr.Phone, addr.Address, addr.City, addr.State,
		addr.Pincode, o.Status, o.PaymentStatus, o.Archived, txn,
	).Scan(&o.CreatedAt, &o.UpdatedAt, &o.Version)
	if err != nil {
		return nil, err
	}

	stmt, err := tx.PrepareContext(ctx, `
        INSERT INTO order_items (order_id, position, product_id, name, quantity, price)
        VALUES ($1, $2, $3, $4, $5, $6)`)
	if err != nil {
		return nil, fmt.Errorf("could not prepare item statement: %w", err)
	}
	defer stmt.Close()

	for i, item := range o.Items {
		if _, err = stmt.ExecContext(ctx, o.ID, i, item.ProductID, item.Name, item.Quantity, item.Price); err != nil {
			return nil, err
		}
	}

	if err = tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return &o, nil
}

func (r *postgresOrderRepository) GetOrderByID(ctx context.Context, id string) (*domain.Order, error) {
	orders, err := r.queryOrders(ctx, "WHERE id = $1", id)
	if err != nil {
		return nil, err
	}
	if len(orders) == 0 {
		r.log.Warnf("Repository: Order with ID %s not found", id)
		return nil, fmt.Errorf("order %s: %w", id, domain.ErrNotFound)
	}
	return &orders[0], nil
}

func (r *postgresOrderRepository) GetOrderByTransactionID(ctx context.Context, transactionID string) (*domain.Order, error) {
	if transactionID == "" {
		return nil, fmt.Errorf("empty transaction id: %w", domain.ErrInvalidInput)
	}
	orders, err := r.queryOrders(ctx, "WHERE transaction_id = $1", transactionID)
	if err != nil {
		return nil, err
	}
	if len(orders) == 0 {
		return nil, fmt.Errorf("order for transaction %s: %w", transactionID, domain.ErrNotFound)
	}
	return &orders[0], nil
}

func (r *postgresOrderRepository) ListOrders(ctx context.Context) ([]domain.Order, error) {
	return r.queryOrders(ctx, "")
}

func (r *postgresOrderRepository) ListOrdersByUserID(ctx context.Context, userID string) ([]domain.Order, error) {
	return r.queryOrders(ctx, "WHERE user_id = $1", userID)
}

// queryOrders loads the matching orders in creation order, then their items in one round trip.
func (r *postgresOrderRepository) queryOrders(ctx context.Context, where string, args ...any) ([]domain.Order, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT "+orderColumns+" FROM orders "+where+" ORDER BY created_at, id", args...)
	if err != nil {
		r.log.Errorf("Repository: Failed to query orders: %v", err)
		return nil, fmt.Errorf("could not retrieve orders: %w", err)
	}
	defer rows.Close()

	orders := []domain.Order{}
	ids := []string{}
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			r.log.Errorf("Repository: Failed to scan order row: %v", err)
			return nil, fmt.Errorf("error scanning order data: %w", err)
		}
		orders = append(orders, o)
		ids = append(ids, o.ID)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating orders: %w", err)
	}
	if len(orders) == 0 {
		return orders, nil
	}

	itemRows, err := r.db.QueryContext(ctx, `
        SELECT order_id, product_id, name, quantity, price
        FROM order_items
        WHERE order_id = ANY($1::text[])
        ORDER BY order_id, position`, pq.Array(ids))
	if err != nil {
		r.log.Errorf("Repository: Failed to query items for %d orders: %v", len(ids), err)
		return nil, fmt.Errorf("could not retrieve order items: %w", err)
	}
	defer itemRows.Close()

	itemsByOrder := make(map[string][]domain.OrderItem, len(ids))
	for itemRows.Next() {
		var orderID string
		var item domain.OrderItem
		if err := itemRows.Scan(&orderID, &item.ProductID, &item.Name, &item.Quantity, &item.Price); err != nil {
			return nil, fmt.Errorf("error scanning order item: %w", err)
		}
		itemsByOrder[orderID] = append(itemsByOrder[orderID], item)
	}
	if err = itemRows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating order items: %w", err)
	}

	for i := range orders {
		orders[i].Items = itemsByOrder[orders[i].ID]
		if orders[i].Items == nil {
			orders[i].Items = []domain.OrderItem{}
		}
	}
	r.log.Debugf("Repository: Retrieved %d orders", len(orders))
	return orders, nil
}

// UpdateOrder is a version-checked write. A concurrent writer forces one re-read and retry.
func (r *postgresOrderRepository) UpdateOrder(ctx context.Context, id string, patch domain.OrderPatch) (*domain.Order, error) {
	for attempt := 0; attempt < 2; attempt++ {
		current, err := r.GetOrderByID(ctx, id)
		if err != nil {
			return nil, err
		}
		patch.Apply(current)

		res, err := r.db.ExecContext(ctx, `
            UPDATE orders
            SET status = $1, archived = $2, updated_at = NOW(), version = version + 1
            WHERE id = $3 AND version = $4`,
			current.Status, current.Archived, id, current.Version)
		if err != nil {
			var pqErr *pq.Error
			if errors.As(err, &pqErr) && pqErr.Code == pqCheckViolation {
				return nil, fmt.Errorf("invalid order status %s: %w", current.Status, domain.ErrInvalidInput)
			}
			r.log.Errorf("Repository: Failed to update order %s: %v", id, err)
			return nil, fmt.Errorf("could not update order: %w", err)
		}
		if n, _ := res.RowsAffected(); n == 1 {
			r.log.Infof("Repository: Order %s updated (status=%s, archived=%t)", id, current.Status, current.Archived)
			return r.GetOrderByID(ctx, id)
		}
		r.log.Warnf("Repository: Order %s changed concurrently at version %d, retrying", id, current.Version)
	}
	return nil, fmt.Errorf("order %s was modified concurrently: %w", id, domain.ErrConflict)
}
