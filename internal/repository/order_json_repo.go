package repository

import (
	"context"
	"fmt"
	"strings"

	"herbal_store/internal/domain"

	"github.com/sirupsen/logrus"
)

type jsonOrderRepository struct {
	orders *Collection[domain.Order, *domain.Order]
	log    *logrus.Logger
}

func NewJSONOrderRepository(dataDir string, logger *logrus.Logger) (domain.OrderRepository, error) {
	orders, err := NewCollection[domain.Order](dataDir, "orders", logger)
	if err != nil {
		return nil, err
	}
	return &jsonOrderRepository{orders: orders, log: logger}, nil
}

func (r *jsonOrderRepository) CreateOrder(_ context.Context, order *domain.Order) (*domain.Order, error) {
	txnID := order.TransactionID
	created, err := r.orders.Create(order, func(existing *domain.Order) error {
		if txnID != "" && existing.TransactionID == txnID {
			return fmt.Errorf("order for transaction %s already exists: %w", txnID, domain.ErrConflict)
		}
		return nil
	})
	if err != nil {
		r.log.Warnf("Repository: Failed to create order for user %s: %v", order.UserID, err)
		return nil, err
	}
	r.log.Infof("Repository: Order %s created for user %s with %d items", created.ID, created.UserID, len(created.Items))
	return created, nil
}

func (r *jsonOrderRepository) GetOrderByID(_ context.Context, id string) (*domain.Order, error) {
	order, err := r.orders.FindByID(id)
	if err != nil {
		r.log.Warnf("Repository: Order with ID %s not found: %v", id, err)
		return nil, err
	}
	return order, nil
}

func (r *jsonOrderRepository) GetOrderByTransactionID(_ context.Context, transactionID string) (*domain.Order, error) {
	if strings.TrimSpace(transactionID) == "" {
		return nil, fmt.Errorf("empty transaction id: %w", domain.ErrInvalidInput)
	}
	found, err := r.orders.Find(func(o *domain.Order) bool { return o.TransactionID == transactionID })
	if err != nil {
		return nil, err
	}
	if len(found) == 0 {
		return nil, fmt.Errorf("order for transaction %s: %w", transactionID, domain.ErrNotFound)
	}
	return &found[0], nil
}

func (r *jsonOrderRepository) ListOrders(_ context.Context) ([]domain.Order, error) {
	orders, err := r.orders.All()
	if err != nil {
		return nil, err
	}
	r.log.Debugf("Repository: Listed %d orders", len(orders))
	return orders, nil
}

func (r *jsonOrderRepository) ListOrdersByUserID(_ context.Context, userID string) ([]domain.Order, error) {
	orders, err := r.orders.Find(func(o *domain.Order) bool { return o.UserID == userID })
	if err != nil {
		return nil, err
	}
	r.log.Debugf("Repository: Listed %d orders for user %s", len(orders), userID)
	return orders, nil
}

func (r *jsonOrderRepository) UpdateOrder(_ context.Context, id string, patch domain.OrderPatch) (*domain.Order, error) {
	updated, err := r.orders.Update(id, func(o *domain.Order) error {
		patch.Apply(o)
		return nil
	})
	if err != nil {
		r.log.Warnf("Repository: Failed to update order %s: %v", id, err)
		return nil, err
	}
	r.log.Infof("Repository: Order %s updated (status=%s, archived=%t, version=%d)", id, updated.Status, updated.Archived, updated.Version)
	return updated, nil
}
