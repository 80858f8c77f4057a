package domain

import (
	"context"

	"github.com/shopspring/decimal"
)

func init() {
	decimal.MarshalJSONWithoutQuotes = true
}

type OrderStatus string

const (
	StatusPending   OrderStatus = "pending"
	StatusConfirmed OrderStatus = "confirmed"
	StatusShipped   OrderStatus = "shipped"
	StatusDelivered OrderStatus = "delivered"
	StatusCancelled OrderStatus = "cancelled"
)

// OrderStatuses lists the statuses in lifecycle order.
var OrderStatuses = []OrderStatus{StatusPending, StatusConfirmed, StatusShipped, StatusDelivered, StatusCancelled}

type PaymentStatus string

const (
	PaymentPending PaymentStatus = "pending"
	PaymentPaid    PaymentStatus = "paid"
)

type OrderItem struct {
	ProductID string          `json:"productId"`
	Name      string          `json:"name,omitempty"`
	Quantity  int             `json:"quantity"`
	Price     decimal.Decimal `json:"price"`
}

func (i OrderItem) Subtotal() decimal.Decimal {
	return i.Price.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

type ShippingAddress struct {
	Name    string `json:"name"`
	Phone   string `json:"phone,omitempty"`
	Address string `json:"address"`
	City    string `json:"city"`
	State   string `json:"state"`
	Pincode string `json:"pincode"`
}

type Order struct {
	RecordMeta
	UserID          string          `json:"userId"`
	Items           []OrderItem     `json:"items"`
	TotalAmount     decimal.Decimal `json:"totalAmount"`
	ShippingAddress ShippingAddress `json:"shippingAddress"`
	Status          OrderStatus     `json:"status"`
	PaymentStatus   PaymentStatus   `json:"paymentStatus"`
	Archived        bool            `json:"archived"`
	TransactionID   string          `json:"transactionId,omitempty"`
}

// OrderPatch carries the admin-mutable fields. Nil fields are left alone.
type OrderPatch struct {
	Status   *OrderStatus `json:"status,omitempty"`
	Archived *bool        `json:"archived,omitempty"`
}

func (p OrderPatch) IsEmpty() bool {
	return p.Status == nil && p.Archived == nil
}

func (p OrderPatch) Apply(o *Order) {
	if p.Status != nil {
		o.Status = *p.Status
	}
	if p.Archived != nil {
		o.Archived = *p.Archived
	}
}

type CreateOrderInput struct {
	Items           []OrderItem     `json:"items"`
	TotalAmount     decimal.Decimal `json:"totalAmount"`
	ShippingAddress ShippingAddress `json:"shippingAddress"`
	TransactionID   string          `json:"transactionId,omitempty"`
	PaymentStatus   PaymentStatus   `json:"paymentStatus,omitempty"`
}

type OrderRepository interface {
	CreateOrder(ctx context.Context, order *Order) (*Order, error)
	GetOrderByID(ctx context.Context, id string) (*Order, error)
	GetOrderByTransactionID(ctx context.Context, transactionID string) (*Order, error)
	ListOrders(ctx context.Context) ([]Order, error)
	ListOrdersByUserID(ctx context.Context, userID string) ([]Order, error)
	UpdateOrder(ctx context.Context, id string, patch OrderPatch) (*Order, error)
}

type OrderUseCase interface {
	CreateOrder(ctx context.Context, userID string, input CreateOrderInput) (*Order, error)
	GetOrder(ctx context.Context, requester *User, id string) (*Order, error)
	ListOrders(ctx context.Context) ([]Order, error)
	ListUserOrders(ctx context.Context, userID string) ([]Order, error)
	UpdateOrder(ctx context.Context, id string, patch OrderPatch) (*Order, error)
}

// MoneyScale is the number of decimal places a rupee amount may carry (whole paise).
const MoneyScale = 2

// IsWholePaise reports whether amount has no precision below one paisa.
func IsWholePaise(amount decimal.Decimal) bool {
	return amount.Equal(amount.Round(MoneyScale))
}

// ComputeTotal sums price times quantity over items.
func ComputeTotal(items []OrderItem) decimal.Decimal {
	total := decimal.Zero
	for _, item := range items {
		total = total.Add(item.Subtotal())
	}
	return total
}

func IsValidStatus(status OrderStatus) bool {
	switch status {
	case StatusPending, StatusConfirmed, StatusShipped, StatusDelivered, StatusCancelled:
		return true
	default:
		return false
	}
}

func IsValidPaymentStatus(status PaymentStatus) bool {
	switch status {
	case PaymentPending, PaymentPaid:
		return true
	default:
		return false
	}
}

// StatusRank is the position of status in the lifecycle, or len(OrderStatuses) when unknown.
func StatusRank(status OrderStatus) int {
	for i, s := range OrderStatuses {
		if s == status {
			return i
		}
	}
	return len(OrderStatuses)
}

// NewerThan orders by creation time, falling back to the timestamp-derived id.
func NewerThan(a, b Order) bool {
	if !a.CreatedAt.Equal(b.CreatedAt) {
		return a.CreatedAt.After(b.CreatedAt)
	}
	if len(a.ID) != len(b.ID) {
		return len(a.ID) > len(b.ID)
	}
	return a.ID > b.ID
}
