package storefront_test

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"herbal_store/internal/checkout"
	"herbal_store/internal/clients"
	"herbal_store/internal/console"
	"herbal_store/internal/delivery"
	"herbal_store/internal/domain"
	"herbal_store/internal/mockgateway"
	"herbal_store/internal/repository"
	"herbal_store/internal/session"
	"herbal_store/internal/storefront"
	"herbal_store/internal/usecase"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stack struct {
	apiURL  string
	gateway *mockgateway.Server
	users   domain.UserUseCase
	log     *logrus.Logger
}

// setupStack runs the backend against the mock gateway, both over real HTTP.
func setupStack(t *testing.T) *stack {
	t.Helper()
	gin.SetMode(gin.TestMode)
	logger := logrus.New()
	logger.SetOutput(io.Discard)

	gwCfg := mockgateway.Config{MerchantID: "HERBALTEST", SaltKey: "salt", SaltIndex: "1"}
	gw := mockgateway.NewServer(gwCfg, logger)
	gwSrv := httptest.NewServer(gw.Router())
	t.Cleanup(gwSrv.Close)

	dir := t.TempDir()
	orderRepo, err := repository.NewJSONOrderRepository(dir, logger)
	require.NoError(t, err)
	userRepo, err := repository.NewJSONUserRepository(dir, logger)
	require.NoError(t, err)

	reservations := session.NewMemoryStore[domain.PaymentReservation]()
	gatewayClient := clients.NewGatewayHTTPClient(clients.GatewayConfig{
		BaseURL:     gwSrv.URL,
		MerchantID:  gwCfg.MerchantID,
		SaltKey:     gwCfg.SaltKey,
		SaltIndex:   gwCfg.SaltIndex,
		Timeout:     2 * time.Second,
		SiteBaseURL: "http://shop.test",
	}, logger)

	users := usecase.NewUserUseCase(userRepo, session.NewMemoryStore[string](), time.Hour, logger)
	router := delivery.NewRouter(delivery.Services{
		Users:    users,
		Orders:   usecase.NewOrderUseCase(orderRepo, reservations, logger),
		Payments: usecase.NewPaymentUseCase(gatewayClient, reservations, time.Hour, logger),
	}, logger)
	apiSrv := httptest.NewServer(router)
	t.Cleanup(apiSrv.Close)

	ctx := context.Background()
	_, err = users.EnsureAdmin(ctx, "admin@herbal.test", "Admin1234")
	require.NoError(t, err)
	_, err = users.RegisterUser(ctx, "Lakshmi", "lakshmi@herbal.test", "Tulsi1234")
	require.NoError(t, err)

	return &stack{apiURL: apiSrv.URL, gateway: gw, users: users, log: logger}
}

func (s *stack) client(t *testing.T, email, password string) *storefront.Client {
	t.Helper()
	c := storefront.NewClient(s.apiURL, 2*time.Second, s.log)
	_, err := c.Login(context.Background(), email, password)
	require.NoError(t, err)
	return c
}

// payOnGateway plays the shopper's browser on the gateway page and returns
// the merchant URL the gateway redirects back to.
func payOnGateway(t *testing.T, paymentURL string) string {
	t.Helper()
	browser := &http.Client{CheckRedirect: func(*http.Request, []*http.Request) error { return http.ErrUseLastResponse }}
	resp, err := browser.Get(paymentURL)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusFound, resp.StatusCode)
	return resp.Header.Get("Location")
}

func address() domain.ShippingAddress {
	return domain.ShippingAddress{Name: "Lakshmi", Phone: "9123456780", Address: "3 Coconut Grove Lane", City: "Thrissur", State: "KL", Pincode: "680001"}
}

func TestCheckoutEndToEnd(t *testing.T) {
	s := setupStack(t)
	ctx := context.Background()
	shopper := s.client(t, "lakshmi@herbal.test", "Tulsi1234")

	cart := checkout.NewMemoryCart(
		domain.OrderItem{ProductID: "kumkumadi-oil", Name: "Kumkumadi Oil", Quantity: 1, Price: decimal.NewFromInt(300)},
		domain.OrderItem{ProductID: "rose-water", Name: "Rose Water", Quantity: 2, Price: decimal.NewFromInt(75)},
	)
	pending, err := checkout.NewFilePendingStore(t.TempDir())
	require.NoError(t, err)
	flow := checkout.NewFlow(shopper, pending, cart, s.log)

	payURL, err := flow.Submit(ctx, address())
	require.NoError(t, err)

	returnURL := payOnGateway(t, payURL)
	outcome := flow.HandleReturn(ctx, returnURL)
	require.NoError(t, outcome.Err)
	assert.Equal(t, checkout.StateCompleted, outcome.State)
	assert.Equal(t, domain.PaymentPaid, outcome.Order.PaymentStatus)
	assert.True(t, outcome.Order.TotalAmount.Equal(decimal.NewFromInt(450)))

	again := flow.HandleReturn(ctx, returnURL)
	assert.Equal(t, outcome.Order.ID, again.Order.ID)

	mine, err := shopper.MyOrders(ctx)
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, outcome.TransactionID, mine[0].TransactionID)

	_, err = shopper.CreateOrder(ctx, domain.CreateOrderInput{
		Items:           mine[0].Items,
		TotalAmount:     mine[0].TotalAmount,
		ShippingAddress: mine[0].ShippingAddress,
		TransactionID:   mine[0].TransactionID,
		PaymentStatus:   domain.PaymentPaid,
	})
	var apiErr *storefront.APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusConflict, apiErr.StatusCode)
}

func TestCheckoutDeclinedPayment(t *testing.T) {
	s := setupStack(t)
	ctx := context.Background()
	shopper := s.client(t, "lakshmi@herbal.test", "Tulsi1234")

	cart := checkout.NewMemoryCart(domain.OrderItem{ProductID: "neem-oil", Quantity: 1, Price: decimal.NewFromInt(450)})
	flow := checkout.NewFlow(shopper, checkout.NewMemoryPendingStore(), cart, s.log)

	payURL, err := flow.Submit(ctx, address())
	require.NoError(t, err)

	returnURL := payOnGateway(t, payURL+"?fail=1")
	outcome := flow.HandleReturn(ctx, returnURL)
	assert.Equal(t, checkout.StateFailed, outcome.State)
	assert.Equal(t, checkout.RoutePaymentFailed, outcome.Route)
	assert.Len(t, cart.Items(), 1)

	mine, err := shopper.MyOrders(ctx)
	require.NoError(t, err)
	assert.Empty(t, mine)
}

func TestAdminConsoleOverHTTP(t *testing.T) {
	s := setupStack(t)
	ctx := context.Background()
	shopper := s.client(t, "lakshmi@herbal.test", "Tulsi1234")
	admin := s.client(t, "admin@herbal.test", "Admin1234")

	placed, err := shopper.CreateOrder(ctx, domain.CreateOrderInput{
		Items:           []domain.OrderItem{{ProductID: "henna", Quantity: 3, Price: decimal.NewFromInt(150)}},
		TotalAmount:     decimal.NewFromInt(450),
		ShippingAddress: address(),
	})
	require.NoError(t, err)

	_, err = shopper.ListOrders(ctx)
	var apiErr *storefront.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusForbidden, apiErr.StatusCode)

	c := console.New(admin, s.log, console.WithRefreshDelay(10*time.Millisecond))
	defer c.Close()
	require.NoError(t, c.Refresh(ctx))

	require.NoError(t, c.UpdateStatus(ctx, placed.ID, domain.StatusShipped))
	require.NoError(t, c.ToggleArchive(ctx, placed.ID))

	assert.Eventually(t, func() bool {
		orders, err := admin.ListOrders(ctx)
		return err == nil && len(orders) == 1 && orders[0].Status == domain.StatusShipped && orders[0].Archived
	}, time.Second, 10*time.Millisecond)

	assert.Len(t, c.View(console.Filter{ShowArchived: true, Status: "shipped"}), 1)
	assert.Empty(t, c.View(console.Filter{}))

	err = c.UpdateStatus(ctx, "no-such-order", domain.StatusDelivered)
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusNotFound, apiErr.StatusCode)
}

func TestLoginFailureIsAPIError(t *testing.T) {
	s := setupStack(t)
	c := storefront.NewClient(s.apiURL, time.Second, s.log)
	_, err := c.Login(context.Background(), "lakshmi@herbal.test", "nope")
	var apiErr *storefront.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusUnauthorized, apiErr.StatusCode)
	assert.Empty(t, c.Token())
}
