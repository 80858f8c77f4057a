package domain

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// GatewayStateCompleted is the only gateway state that counts as paid.
const GatewayStateCompleted = "COMPLETED"

type PaymentRequest struct {
	Amount     decimal.Decimal
	PayerPhone string
	UserID     string
}

type PaymentSession struct {
	Success       bool   `json:"success"`
	TransactionID string `json:"transactionId,omitempty"`
	PaymentURL    string `json:"paymentUrl,omitempty"`
	Error         string `json:"error,omitempty"`
}

type PaymentVerification struct {
	Success       bool   `json:"success"`
	Status        string `json:"status"`
	TransactionID string `json:"transactionId"`
	Error         string `json:"error,omitempty"`
}

// Paid reports whether the gateway confirmed the payment as completed.
func (v PaymentVerification) Paid() bool {
	return v.Success && v.Status == GatewayStateCompleted
}

// PaymentGateway never returns an error; failures come back as non-success results.
type PaymentGateway interface {
	CreatePayment(ctx context.Context, req PaymentRequest) PaymentSession
	VerifyPayment(ctx context.Context, transactionID string) PaymentVerification
}

type CreatePaymentInput struct {
	Amount          decimal.Decimal  `json:"amount"`
	Phone           string           `json:"phone,omitempty"`
	Items           []OrderItem      `json:"items,omitempty"`
	ShippingAddress *ShippingAddress `json:"shippingAddress,omitempty"`
}

// PaymentReservation is the server-side record of a created payment, keyed by transaction id.
type PaymentReservation struct {
	TransactionID   string           `json:"transactionId"`
	UserID          string           `json:"userId"`
	Amount          decimal.Decimal  `json:"amount"`
	Items           []OrderItem      `json:"items,omitempty"`
	ShippingAddress *ShippingAddress `json:"shippingAddress,omitempty"`
	Verified        bool             `json:"verified"`
	CreatedAt       time.Time        `json:"createdAt"`
}

type PaymentUseCase interface {
	CreatePayment(ctx context.Context, userID string, input CreatePaymentInput) (PaymentSession, error)
	VerifyPayment(ctx context.Context, userID, transactionID string) (PaymentVerification, error)
}
