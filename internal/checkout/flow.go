// Package checkout drives the shopper side of a paid checkout: hand off to
// the payment gateway, then turn a verified return into exactly one order.
package checkout

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	"herbal_store/internal/domain"

	"github.com/sirupsen/logrus"
)

type State string

const (
	StateFilling                 State = "filling"
	StateAwaitingGatewayRedirect State = "awaiting_gateway_redirect"
	StateAwaitingVerification    State = "awaiting_verification"
	StateCompleted               State = "completed"
	StateFailed                  State = "failed"
)

const (
	RouteOrderSuccess  = "/order-success"
	RoutePaymentFailed = "/payment/failure"
	RouteCart          = "/cart"
)

var (
	ErrEmptyCart           = errors.New("cart is empty")
	ErrCheckoutInProgress  = errors.New("checkout already in progress")
	ErrMissingTransaction  = errors.New("no transaction id in return url")
	ErrPaymentNotCompleted = errors.New("payment was not completed")
	ErrNoPendingOrder      = errors.New("no pending order matches this payment")
)

// transactionParams are the query keys a gateway return URL may carry the id under.
var transactionParams = []string{"transactionId", "merchantTransactionId", "transaction_id", "txnId", "id"}

type API interface {
	CreatePayment(ctx context.Context, input domain.CreatePaymentInput) (*domain.PaymentSession, error)
	VerifyPayment(ctx context.Context, transactionID string) (*domain.PaymentVerification, error)
	CreateOrder(ctx context.Context, input domain.CreateOrderInput) (*domain.Order, error)
}

// Outcome is the result of handling a gateway return.
type Outcome struct {
	State         State
	Route         string
	Order         *domain.Order
	TransactionID string
	Err           error
}

type Flow struct {
	api     API
	pending PendingOrderStore
	cart    Cart
	log     *logrus.Logger
	now     func() time.Time

	mu      sync.Mutex
	state   State
	outcome *Outcome
}

func NewFlow(api API, pending PendingOrderStore, cart Cart, logger *logrus.Logger) *Flow {
	return &Flow{
		api:     api,
		pending: pending,
		cart:    cart,
		log:     logger,
		now:     time.Now,
		state:   StateFilling,
	}
}

func (f *Flow) State() State {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

// Reset returns the flow to Filling so the shopper can try again.
func (f *Flow) Reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.state = StateFilling
	f.outcome = nil
}

// Submit validates the address, opens a payment for the cart total and
// remembers the pending order. It returns the URL to send the shopper to.
// On any failure the flow stays in Filling.
func (f *Flow) Submit(ctx context.Context, addr domain.ShippingAddress) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.state != StateFilling {
		return "", ErrCheckoutInProgress
	}
	if err := ValidateShippingAddress(addr); err != nil {
		return "", err
	}
	items := f.cart.Items()
	if len(items) == 0 {
		return "", ErrEmptyCart
	}
	total := domain.ComputeTotal(items)

	session, err := f.api.CreatePayment(ctx, domain.CreatePaymentInput{
		Amount:          total,
		Phone:           addr.Phone,
		Items:           items,
		ShippingAddress: &addr,
	})
	if err != nil {
		f.log.Warnf("Checkout: Payment creation failed: %v", err)
		return "", fmt.Errorf("could not start payment: %w", err)
	}
	if !session.Success || session.PaymentURL == "" {
		f.log.Warnf("Checkout: Gateway declined payment creation: %s", session.Error)
		return "", fmt.Errorf("could not start payment: %s", session.Error)
	}

	if err := f.pending.Save(PendingOrder{
		TransactionID:   session.TransactionID,
		Items:           items,
		TotalAmount:     total,
		ShippingAddress: addr,
		CreatedAt:       f.now().UTC(),
	}); err != nil {
		return "", err
	}

	f.state = StateAwaitingGatewayRedirect
	f.log.Infof("Checkout: Redirecting to gateway for %s (total %s)", session.TransactionID, total)
	return session.PaymentURL, nil
}

// ExtractTransactionID finds the transaction id in a gateway return URL.
func ExtractTransactionID(returnURL string) string {
	u, err := url.Parse(returnURL)
	if err != nil {
		return ""
	}
	q := u.Query()
	for _, key := range transactionParams {
		if v := strings.TrimSpace(q.Get(key)); v != "" {
			return v
		}
	}
	return ""
}

// HandleReturn processes the shopper's return from the gateway. It runs at
// most once: later calls get the first outcome back and create nothing.
func (f *Flow) HandleReturn(ctx context.Context, returnURL string) Outcome {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.outcome != nil {
		f.log.Debug("Checkout: Return already handled, replaying outcome")
		return *f.outcome
	}

	f.state = StateAwaitingVerification
	outcome := f.verifyAndPlace(ctx, returnURL)
	f.state = outcome.State
	f.outcome = &outcome
	return outcome
}

func (f *Flow) verifyAndPlace(ctx context.Context, returnURL string) Outcome {
	txnID := ExtractTransactionID(returnURL)
	if txnID == "" {
		f.log.Warn("Checkout: Return URL has no transaction id")
		return Outcome{State: StateFailed, Route: RouteCart, Err: ErrMissingTransaction}
	}
	failed := func(err error) Outcome {
		f.log.Warnf("Checkout: Payment %s failed: %v", txnID, err)
		return Outcome{State: StateFailed, Route: RoutePaymentFailed, TransactionID: txnID, Err: err}
	}

	verification, err := f.api.VerifyPayment(ctx, txnID)
	if err != nil {
		return failed(fmt.Errorf("verification request failed: %w", err))
	}
	if !verification.Paid() {
		return failed(fmt.Errorf("%w: success=%t status=%q", ErrPaymentNotCompleted, verification.Success, verification.Status))
	}
	returnedID := verification.TransactionID
	if returnedID == "" {
		returnedID = txnID
	}

	pending, err := f.pending.Load()
	if err != nil {
		return failed(err)
	}
	if pending == nil || pending.TransactionID != returnedID || returnedID != txnID {
		return failed(ErrNoPendingOrder)
	}

	order, err := f.api.CreateOrder(ctx, domain.CreateOrderInput{
		Items:           pending.Items,
		TotalAmount:     pending.TotalAmount,
		ShippingAddress: pending.ShippingAddress,
		TransactionID:   pending.TransactionID,
		PaymentStatus:   domain.PaymentPaid,
	})
	if err != nil {
		return failed(fmt.Errorf("order creation failed: %w", err))
	}

	if err := f.pending.Clear(); err != nil {
		f.log.Warnf("Checkout: Order %s placed but pending cache not cleared: %v", order.ID, err)
	}
	f.cart.Clear()
	f.log.Infof("Checkout: Order %s placed for payment %s", order.ID, txnID)

	return Outcome{State: StateCompleted, Route: RouteOrderSuccess, Order: order, TransactionID: txnID}
}
