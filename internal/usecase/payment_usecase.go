package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"herbal_store/internal/clients"
	"herbal_store/internal/domain"
	"herbal_store/internal/session"

	"github.com/sirupsen/logrus"
)

var _ domain.PaymentUseCase = (*paymentUseCase)(nil)

type paymentUseCase struct {
	gateway        domain.PaymentGateway
	reservations   session.Store[domain.PaymentReservation]
	reservationTTL time.Duration
	log            *logrus.Logger
	now            func() time.Time
}

func NewPaymentUseCase(gateway domain.PaymentGateway, reservations session.Store[domain.PaymentReservation], reservationTTL time.Duration, logger *logrus.Logger) domain.PaymentUseCase {
	return &paymentUseCase{
		gateway:        gateway,
		reservations:   reservations,
		reservationTTL: reservationTTL,
		log:            logger,
		now:            time.Now,
	}
}

// CreatePayment opens a gateway session and reserves its transaction id for the caller.
// A gateway failure is not an error: it comes back as a non-success session.
func (uc *paymentUseCase) CreatePayment(ctx context.Context, userID string, input domain.CreatePaymentInput) (domain.PaymentSession, error) {
	if !input.Amount.IsPositive() {
		return domain.PaymentSession{}, invalid("amount must be positive")
	}
	if !domain.IsWholePaise(input.Amount) {
		return domain.PaymentSession{}, invalid("amount %s has more than %d decimal places", input.Amount, domain.MoneyScale)
	}
	if clients.ToMinorUnits(input.Amount) <= 0 {
		return domain.PaymentSession{}, invalid("amount %s is below one paisa", input.Amount)
	}
	if len(input.Items) > 0 {
		if total := domain.ComputeTotal(input.Items); !total.Equal(input.Amount) {
			return domain.PaymentSession{}, invalid("amount %s does not match item total %s", input.Amount, total)
		}
	}

	phone := strings.TrimSpace(input.Phone)
	if phone == "" && input.ShippingAddress != nil {
		phone = input.ShippingAddress.Phone
	}

	sessionResult := uc.gateway.CreatePayment(ctx, domain.PaymentRequest{Amount: input.Amount, PayerPhone: phone, UserID: userID})
	if !sessionResult.Success {
		uc.log.Warnf("Use Case: Payment creation failed for user %s: %s", userID, sessionResult.Error)
		return sessionResult, nil
	}

	uc.reservations.Set(sessionResult.TransactionID, domain.PaymentReservation{
		TransactionID:   sessionResult.TransactionID,
		UserID:          userID,
		Amount:          input.Amount,
		Items:           input.Items,
		ShippingAddress: input.ShippingAddress,
		CreatedAt:       uc.now().UTC(),
	}, uc.reservationTTL)

	uc.log.Infof("Use Case: Payment %s reserved for user %s (amount %s)", sessionResult.TransactionID, userID, input.Amount)
	return sessionResult, nil
}

// VerifyPayment asks the gateway for the transaction state. Another user's
// transaction is reported as not found without a gateway call.
func (uc *paymentUseCase) VerifyPayment(ctx context.Context, userID, transactionID string) (domain.PaymentVerification, error) {
	transactionID = strings.TrimSpace(transactionID)
	if transactionID == "" {
		return domain.PaymentVerification{}, invalid("transactionId is required")
	}

	res, reserved := uc.reservations.Get(transactionID)
	if reserved && res.UserID != userID {
		uc.log.Warnf("Use Case: User %s tried to verify transaction %s owned by %s", userID, transactionID, res.UserID)
		return domain.PaymentVerification{}, fmt.Errorf("transaction %s: %w", transactionID, domain.ErrNotFound)
	}

	result := uc.gateway.VerifyPayment(ctx, transactionID)
	if result.TransactionID == "" {
		result.TransactionID = transactionID
	}

	if result.Paid() && reserved {
		uc.reservations.Update(transactionID, func(r *domain.PaymentReservation) { r.Verified = true })
		uc.log.Infof("Use Case: Payment %s verified for user %s", transactionID, userID)
	} else if !result.Paid() {
		uc.log.Warnf("Use Case: Payment %s not completed (success=%t, state=%s)", transactionID, result.Success, result.Status)
	}
	return result, nil
}
