package usecase

import (
	"context"
	"io"
	"sync"
	"testing"
	"time"

	"herbal_store/internal/domain"
	"herbal_store/internal/repository"
	"herbal_store/internal/session"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockGateway struct {
	mu          sync.Mutex
	CreateFunc  func(req domain.PaymentRequest) domain.PaymentSession
	VerifyFunc  func(txnID string) domain.PaymentVerification
	verifyCalls int
}

func (m *mockGateway) CreatePayment(_ context.Context, req domain.PaymentRequest) domain.PaymentSession {
	return m.CreateFunc(req)
}

func (m *mockGateway) VerifyPayment(_ context.Context, txnID string) domain.PaymentVerification {
	m.mu.Lock()
	m.verifyCalls++
	m.mu.Unlock()
	return m.VerifyFunc(txnID)
}

func completedGateway() *mockGateway {
	return &mockGateway{
		CreateFunc: func(req domain.PaymentRequest) domain.PaymentSession {
			return domain.PaymentSession{Success: true, TransactionID: "TXN_1_ABCDEF", PaymentURL: "http://gw.test/pay/TXN_1_ABCDEF"}
		},
		VerifyFunc: func(txnID string) domain.PaymentVerification {
			return domain.PaymentVerification{Success: true, Status: domain.GatewayStateCompleted, TransactionID: txnID}
		},
	}
}

type fixture struct {
	orders       domain.OrderUseCase
	payments     domain.PaymentUseCase
	reservations *session.MemoryStore[domain.PaymentReservation]
	gateway      *mockGateway
}

func setupFixture(t *testing.T, gateway *mockGateway) fixture {
	t.Helper()
	logger := logrus.New()
	logger.SetOutput(io.Discard)

	repo, err := repository.NewJSONOrderRepository(t.TempDir(), logger)
	require.NoError(t, err)
	reservations := session.NewMemoryStore[domain.PaymentReservation]()

	return fixture{
		orders:       NewOrderUseCase(repo, reservations, logger),
		payments:     NewPaymentUseCase(gateway, reservations, time.Hour, logger),
		reservations: reservations,
		gateway:      gateway,
	}
}

func orderInput(total int64, txn string, status domain.PaymentStatus) domain.CreateOrderInput {
	return domain.CreateOrderInput{
		Items: []domain.OrderItem{
			{ProductID: "brahmi", Quantity: 3, Price: decimal.NewFromInt(100)},
			{ProductID: "giloy", Quantity: 1, Price: decimal.NewFromInt(150)},
		},
		TotalAmount:     decimal.NewFromInt(total),
		ShippingAddress: domain.ShippingAddress{Name: "Ravi", Phone: "9876543210", Address: "221 MG Road Indiranagar", City: "Bengaluru", State: "KA", Pincode: "560038"},
		TransactionID:   txn,
		PaymentStatus:   status,
	}
}

func TestCreateOrderValidation(t *testing.T) {
	f := setupFixture(t, completedGateway())
	ctx := context.Background()

	tests := []struct {
		name   string
		mutate func(in *domain.CreateOrderInput)
	}{
		{"no items", func(in *domain.CreateOrderInput) { in.Items = nil }},
		{"zero quantity", func(in *domain.CreateOrderInput) { in.Items[0].Quantity = 0 }},
		{"negative price", func(in *domain.CreateOrderInput) { in.Items[0].Price = decimal.NewFromInt(-1) }},
		{"missing city", func(in *domain.CreateOrderInput) { in.ShippingAddress.City = " " }},
		{"total mismatch", func(in *domain.CreateOrderInput) { in.TotalAmount = decimal.NewFromInt(449) }},
		{"bad payment status", func(in *domain.CreateOrderInput) { in.PaymentStatus = "refunded" }},
		{"paid without transaction", func(in *domain.CreateOrderInput) { in.PaymentStatus = domain.PaymentPaid }},
		{"sub-paisa price", func(in *domain.CreateOrderInput) {
			in.Items = []domain.OrderItem{{ProductID: "amla", Quantity: 2, Price: decimal.RequireFromString("0.335")}}
			in.TotalAmount = decimal.RequireFromString("0.67")
		}},
		{"sub-paisa total", func(in *domain.CreateOrderInput) {
			in.Items = []domain.OrderItem{{ProductID: "amla", Quantity: 1, Price: decimal.RequireFromString("450.005")}}
			in.TotalAmount = decimal.RequireFromString("450.005")
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := orderInput(450, "", "")
			tt.mutate(&in)
			_, err := f.orders.CreateOrder(ctx, "u1", in)
			assert.ErrorIs(t, err, domain.ErrInvalidInput)
		})
	}
}

func TestCreateOrderDefaults(t *testing.T) {
	f := setupFixture(t, completedGateway())
	order, err := f.orders.CreateOrder(context.Background(), "u1", orderInput(450, "", ""))
	require.NoError(t, err)

	assert.Equal(t, domain.StatusPending, order.Status)
	assert.Equal(t, domain.PaymentPending, order.PaymentStatus)
	assert.False(t, order.Archived)
	assert.True(t, order.TotalAmount.Equal(domain.ComputeTotal(order.Items)))
}

func TestPaidCheckoutThroughReservation(t *testing.T) {
	f := setupFixture(t, completedGateway())
	ctx := context.Background()

	sess, err := f.payments.CreatePayment(ctx, "u1", domain.CreatePaymentInput{Amount: decimal.NewFromInt(450)})
	require.NoError(t, err)
	require.True(t, sess.Success)

	v, err := f.payments.VerifyPayment(ctx, "u1", sess.TransactionID)
	require.NoError(t, err)
	require.True(t, v.Paid())

	res, ok := f.reservations.Get(sess.TransactionID)
	require.True(t, ok)
	assert.True(t, res.Verified)

	order, err := f.orders.CreateOrder(ctx, "u1", orderInput(450, sess.TransactionID, ""))
	require.NoError(t, err)
	assert.Equal(t, domain.PaymentPaid, order.PaymentStatus)
	assert.Equal(t, sess.TransactionID, order.TransactionID)

	_, ok = f.reservations.Get(sess.TransactionID)
	assert.False(t, ok, "reservation should be consumed")

	_, err = f.orders.CreateOrder(ctx, "u1", orderInput(450, sess.TransactionID, domain.PaymentPaid))
	assert.ErrorIs(t, err, domain.ErrConflict)
}

func TestReservationGuards(t *testing.T) {
	f := setupFixture(t, completedGateway())
	ctx := context.Background()

	sess, err := f.payments.CreatePayment(ctx, "u1", domain.CreatePaymentInput{Amount: decimal.NewFromInt(450)})
	require.NoError(t, err)

	_, err = f.orders.CreateOrder(ctx, "u1", orderInput(450, sess.TransactionID, domain.PaymentPaid))
	assert.ErrorIs(t, err, domain.ErrInvalidInput, "unverified payment cannot be marked paid")

	_, err = f.orders.CreateOrder(ctx, "u2", orderInput(450, sess.TransactionID, ""))
	assert.ErrorIs(t, err, domain.ErrForbidden)

	_, err = f.payments.VerifyPayment(ctx, "u2", sess.TransactionID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.Zero(t, f.gateway.verifyCalls)

	_, err = f.payments.VerifyPayment(ctx, "u1", sess.TransactionID)
	require.NoError(t, err)

	in := orderInput(450, sess.TransactionID, "")
	in.Items[1].Price = decimal.NewFromInt(50)
	in.TotalAmount = decimal.NewFromInt(350)
	_, err = f.orders.CreateOrder(ctx, "u1", in)
	assert.ErrorIs(t, err, domain.ErrInvalidInput, "amount must match the paid amount")
}

func TestPaidOrderNeedsTransaction(t *testing.T) {
	f := setupFixture(t, completedGateway())
	ctx := context.Background()

	_, err := f.orders.CreateOrder(ctx, "u1", orderInput(450, "", domain.PaymentPaid))
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	mine, err := f.orders.ListUserOrders(ctx, "u1")
	require.NoError(t, err)
	assert.Empty(t, mine)

	order, err := f.orders.CreateOrder(ctx, "u1", orderInput(450, "", domain.PaymentPending))
	require.NoError(t, err)
	assert.Equal(t, domain.PaymentPending, order.PaymentStatus)
}

func TestCreatePaymentWholePaiseOnly(t *testing.T) {
	gw := completedGateway()
	var charged []decimal.Decimal
	create := gw.CreateFunc
	gw.CreateFunc = func(req domain.PaymentRequest) domain.PaymentSession {
		charged = append(charged, req.Amount)
		return create(req)
	}
	f := setupFixture(t, gw)
	ctx := context.Background()

	for _, amount := range []string{"450.005", "0.004", "0.001"} {
		_, err := f.payments.CreatePayment(ctx, "u1", domain.CreatePaymentInput{Amount: decimal.RequireFromString(amount)})
		assert.ErrorIs(t, err, domain.ErrInvalidInput, amount)
	}
	assert.Empty(t, charged)
	assert.Equal(t, 0, f.reservations.Len())

	sess, err := f.payments.CreatePayment(ctx, "u1", domain.CreatePaymentInput{Amount: decimal.RequireFromString("0.01")})
	require.NoError(t, err)
	assert.True(t, sess.Success)
	require.Len(t, charged, 1)
}

func TestCreatePaymentFailureIsNotAnError(t *testing.T) {
	gw := completedGateway()
	gw.CreateFunc = func(domain.PaymentRequest) domain.PaymentSession {
		return domain.PaymentSession{Error: "payment gateway unavailable"}
	}
	f := setupFixture(t, gw)

	sess, err := f.payments.CreatePayment(context.Background(), "u1", domain.CreatePaymentInput{Amount: decimal.NewFromInt(10)})
	require.NoError(t, err)
	assert.False(t, sess.Success)
	assert.Equal(t, 0, f.reservations.Len())

	_, err = f.payments.CreatePayment(context.Background(), "u1", domain.CreatePaymentInput{Amount: decimal.Zero})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestCreatePaymentItemsMustMatchAmount(t *testing.T) {
	f := setupFixture(t, completedGateway())
	_, err := f.payments.CreatePayment(context.Background(), "u1", domain.CreatePaymentInput{
		Amount: decimal.NewFromInt(100),
		Items:  []domain.OrderItem{{ProductID: "a", Quantity: 1, Price: decimal.NewFromInt(90)}},
	})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestVerifyWithoutReservationStillQueriesGateway(t *testing.T) {
	f := setupFixture(t, completedGateway())
	v, err := f.payments.VerifyPayment(context.Background(), "u1", "TXN_UNKNOWN")
	require.NoError(t, err)
	assert.True(t, v.Paid())
	assert.Equal(t, 1, f.gateway.verifyCalls)
}

func TestUpdateOrder(t *testing.T) {
	f := setupFixture(t, completedGateway())
	ctx := context.Background()
	order, err := f.orders.CreateOrder(ctx, "u1", orderInput(450, "", ""))
	require.NoError(t, err)

	_, err = f.orders.UpdateOrder(ctx, order.ID, domain.OrderPatch{})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	bogus := domain.OrderStatus("lost")
	_, err = f.orders.UpdateOrder(ctx, order.ID, domain.OrderPatch{Status: &bogus})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	shipped := domain.StatusShipped
	_, err = f.orders.UpdateOrder(ctx, "nope", domain.OrderPatch{Status: &shipped})
	assert.ErrorIs(t, err, domain.ErrNotFound)

	updated, err := f.orders.UpdateOrder(ctx, order.ID, domain.OrderPatch{Status: &shipped})
	require.NoError(t, err)
	assert.Equal(t, domain.StatusShipped, updated.Status)
}

func TestGetOrderAccess(t *testing.T) {
	f := setupFixture(t, completedGateway())
	ctx := context.Background()
	order, err := f.orders.CreateOrder(ctx, "u1", orderInput(450, "", ""))
	require.NoError(t, err)

	_, err = f.orders.GetOrder(ctx, &domain.User{RecordMeta: domain.RecordMeta{ID: "u1"}}, order.ID)
	assert.NoError(t, err)
	_, err = f.orders.GetOrder(ctx, &domain.User{RecordMeta: domain.RecordMeta{ID: "admin"}, IsAdmin: true}, order.ID)
	assert.NoError(t, err)
	_, err = f.orders.GetOrder(ctx, &domain.User{RecordMeta: domain.RecordMeta{ID: "u2"}}, order.ID)
	assert.ErrorIs(t, err, domain.ErrForbidden)
}

func TestListUserOrdersNewestFirst(t *testing.T) {
	f := setupFixture(t, completedGateway())
	ctx := context.Background()
	first, err := f.orders.CreateOrder(ctx, "u1", orderInput(450, "", ""))
	require.NoError(t, err)
	second, err := f.orders.CreateOrder(ctx, "u1", orderInput(450, "", ""))
	require.NoError(t, err)
	_, err = f.orders.CreateOrder(ctx, "u2", orderInput(450, "", ""))
	require.NoError(t, err)

	mine, err := f.orders.ListUserOrders(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, mine, 2)
	assert.Equal(t, second.ID, mine[0].ID)
	assert.Equal(t, first.ID, mine[1].ID)
}
