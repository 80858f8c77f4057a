package usecase

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"herbal_store/internal/domain"
	"herbal_store/internal/session"

	"github.com/sirupsen/logrus"
)

var _ domain.OrderUseCase = (*orderUseCase)(nil)

type orderUseCase struct {
	orderRepo    domain.OrderRepository
	reservations session.Store[domain.PaymentReservation]
	log          *logrus.Logger
}

func NewOrderUseCase(repo domain.OrderRepository, reservations session.Store[domain.PaymentReservation], logger *logrus.Logger) domain.OrderUseCase {
	return &orderUseCase{
		orderRepo:    repo,
		reservations: reservations,
		log:          logger,
	}
}

func invalid(format string, args ...any) error {
	return fmt.Errorf(format+": %w", append(args, domain.ErrInvalidInput)...)
}

func validateOrderInput(input domain.CreateOrderInput) error {
	if len(input.Items) == 0 {
		return invalid("order must contain at least one item")
	}
	for i, item := range input.Items {
		if strings.TrimSpace(item.ProductID) == "" {
			return invalid("item %d: product id is required", i)
		}
		if item.Quantity <= 0 {
			return invalid("item %d (product %s): quantity must be positive", i, item.ProductID)
		}
		if item.Price.IsNegative() {
			return invalid("item %d (product %s): price cannot be negative", i, item.ProductID)
		}
		if !domain.IsWholePaise(item.Price) {
			return invalid("item %d (product %s): price %s has more than %d decimal places", i, item.ProductID, item.Price, domain.MoneyScale)
		}
	}

	addr := input.ShippingAddress
	required := []struct{ field, value string }{
		{"name", addr.Name}, {"address", addr.Address}, {"city", addr.City}, {"state", addr.State}, {"pincode", addr.Pincode},
	}
	for _, r := range required {
		if strings.TrimSpace(r.value) == "" {
			return invalid("shipping address %s is required", r.field)
		}
	}

	if !domain.IsWholePaise(input.TotalAmount) {
		return invalid("total amount %s has more than %d decimal places", input.TotalAmount, domain.MoneyScale)
	}
	if total := domain.ComputeTotal(input.Items); !total.Equal(input.TotalAmount) {
		return invalid("total amount %s does not match item total %s", input.TotalAmount, total)
	}
	if input.PaymentStatus != "" && !domain.IsValidPaymentStatus(input.PaymentStatus) {
		return invalid("unknown payment status %q", input.PaymentStatus)
	}
	return nil
}

func (uc *orderUseCase) CreateOrder(ctx context.Context, userID string, input domain.CreateOrderInput) (*domain.Order, error) {
	if userID == "" {
		return nil, fmt.Errorf("missing user: %w", domain.ErrUnauthorized)
	}
	if err := validateOrderInput(input); err != nil {
		uc.log.Warnf("Use Case: Rejected order for user %s: %v", userID, err)
		return nil, err
	}

	paymentStatus := input.PaymentStatus
	if paymentStatus == "" {
		paymentStatus = domain.PaymentPending
	}

	txnID := strings.TrimSpace(input.TransactionID)
	if txnID == "" && paymentStatus == domain.PaymentPaid {
		return nil, invalid("paid orders require a transactionId")
	}
	var reserved bool
	if txnID != "" {
		if _, err := uc.orderRepo.GetOrderByTransactionID(ctx, txnID); err == nil {
			uc.log.Warnf("Use Case: Order for transaction %s already exists", txnID)
			return nil, fmt.Errorf("order for transaction %s already exists: %w", txnID, domain.ErrConflict)
		} else if !errors.Is(err, domain.ErrNotFound) {
			return nil, err
		}

		if res, ok := uc.reservations.Get(txnID); ok {
			if res.UserID != userID {
				return nil, fmt.Errorf("transaction %s belongs to another user: %w", txnID, domain.ErrForbidden)
			}
			if !res.Amount.Equal(input.TotalAmount) {
				return nil, invalid("total amount %s does not match paid amount %s", input.TotalAmount, res.Amount)
			}
			if !res.Verified && paymentStatus == domain.PaymentPaid {
				return nil, invalid("payment %s has not been verified", txnID)
			}
			if res.Verified {
				paymentStatus = domain.PaymentPaid
			}
			reserved = true
		}
	}

	order := &domain.Order{
		UserID:          userID,
		Items:           input.Items,
		TotalAmount:     input.TotalAmount,
		ShippingAddress: input.ShippingAddress,
		Status:          domain.StatusPending,
		PaymentStatus:   paymentStatus,
		TransactionID:   txnID,
	}
	created, err := uc.orderRepo.CreateOrder(ctx, order)
	if err != nil {
		return nil, err
	}
	if reserved {
		uc.reservations.Delete(txnID)
	}

	uc.log.Infof("Use Case: Order %s created for user %s (total %s, payment %s)", created.ID, userID, created.TotalAmount, created.PaymentStatus)
	return created, nil
}

func (uc *orderUseCase) GetOrder(ctx context.Context, requester *domain.User, id string) (*domain.Order, error) {
	order, err := uc.orderRepo.GetOrderByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if requester == nil || (!requester.IsAdmin && requester.ID != order.UserID) {
		return nil, fmt.Errorf("order %s: %w", id, domain.ErrForbidden)
	}
	return order, nil
}

func (uc *orderUseCase) ListOrders(ctx context.Context) ([]domain.Order, error) {
	return uc.orderRepo.ListOrders(ctx)
}

// ListUserOrders returns the user's orders newest first.
func (uc *orderUseCase) ListUserOrders(ctx context.Context, userID string) ([]domain.Order, error) {
	orders, err := uc.orderRepo.ListOrdersByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(orders, func(i, j int) bool {
		return domain.NewerThan(orders[i], orders[j])
	})
	return orders, nil
}

func (uc *orderUseCase) UpdateOrder(ctx context.Context, id string, patch domain.OrderPatch) (*domain.Order, error) {
	if patch.IsEmpty() {
		return nil, invalid("status or archived is required")
	}
	if patch.Status != nil && !domain.IsValidStatus(*patch.Status) {
		return nil, invalid("invalid order status %q", *patch.Status)
	}
	updated, err := uc.orderRepo.UpdateOrder(ctx, id, patch)
	if err != nil {
		return nil, err
	}
	uc.log.Infof("Use Case: Order %s now status=%s archived=%t", id, updated.Status, updated.Archived)
	return updated, nil
}
