package main

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"herbal_store/internal/checkout"
	"herbal_store/internal/domain"
	"herbal_store/internal/storefront"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
)

var (
	checkoutAPI      string
	checkoutEmail    string
	checkoutPassword string
	checkoutStateDir string
	checkoutItems    []string
	checkoutAddress  domain.ShippingAddress
)

var checkoutCmd = &cobra.Command{
	Use:   "checkout",
	Short: "Run a shopper checkout against a running backend",
	Long: `Pay for a cart through the gateway and place the order on return.

"checkout start" opens a payment and prints the gateway link. After paying, pass
the URL the gateway redirected to into "checkout return". The pending order is
kept in --state-dir between the two steps.

Examples:
  herbal-store checkout start --item 1:Tulsi Tea:150:3 --name Asha --phone 9876543210 \
    --address "12 MG Road" --city Pune --state MH --pincode 411001
  herbal-store checkout return "http://localhost:3000/payment/success?transactionId=TXN_..."`,
}

var checkoutStartCmd = &cobra.Command{
	Use:   "start",
	Short: "Open a payment for the given items",
	RunE:  runCheckoutStart,
}

var checkoutReturnCmd = &cobra.Command{
	Use:   "return [return-url]",
	Short: "Verify the payment and place the order",
	Args:  cobra.ExactArgs(1),
	RunE:  runCheckoutReturn,
}

func init() {
	pf := checkoutCmd.PersistentFlags()
	pf.StringVar(&checkoutAPI, "api", "http://localhost:8080", "backend base URL")
	pf.StringVar(&checkoutEmail, "email", "", "shopper email")
	pf.StringVar(&checkoutPassword, "password", "", "shopper password")
	pf.StringVar(&checkoutStateDir, "state-dir", ".herbal-checkout", "directory holding the pending order")

	f := checkoutStartCmd.Flags()
	f.StringArrayVar(&checkoutItems, "item", nil, "cart line as productId:name:price:quantity (repeatable)")
	f.StringVar(&checkoutAddress.Name, "name", "", "recipient name")
	f.StringVar(&checkoutAddress.Phone, "phone", "", "10 digit phone number")
	f.StringVar(&checkoutAddress.Address, "address", "", "street address")
	f.StringVar(&checkoutAddress.City, "city", "", "city")
	f.StringVar(&checkoutAddress.State, "state", "", "state")
	f.StringVar(&checkoutAddress.Pincode, "pincode", "", "6 digit pincode")

	checkoutCmd.AddCommand(checkoutStartCmd)
	checkoutCmd.AddCommand(checkoutReturnCmd)
}

func newCheckoutFlow(ctx context.Context, cart checkout.Cart) (*checkout.Flow, error) {
	logger := setupLogger("warn")
	client := storefront.NewClient(checkoutAPI, 15*time.Second, logger)
	if _, err := client.Login(ctx, checkoutEmail, checkoutPassword); err != nil {
		return nil, fmt.Errorf("login failed: %w", err)
	}
	pending, err := checkout.NewFilePendingStore(checkoutStateDir)
	if err != nil {
		return nil, err
	}
	return checkout.NewFlow(client, pending, cart, logger), nil
}

func runCheckoutStart(cmd *cobra.Command, args []string) error {
	cart := checkout.NewMemoryCart()
	for _, raw := range checkoutItems {
		item, err := parseCartItem(raw)
		if err != nil {
			return err
		}
		cart.Add(item)
	}

	flow, err := newCheckoutFlow(commandContext(cmd), cart)
	if err != nil {
		return err
	}
	paymentURL, err := flow.Submit(commandContext(cmd), checkoutAddress)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Total %s. Complete the payment at:\n%s\n",
		domain.ComputeTotal(cart.Items()).StringFixed(2), paymentURL)
	return nil
}

func runCheckoutReturn(cmd *cobra.Command, args []string) error {
	flow, err := newCheckoutFlow(commandContext(cmd), checkout.NewMemoryCart())
	if err != nil {
		return err
	}
	outcome := flow.HandleReturn(commandContext(cmd), args[0])
	if outcome.Err != nil {
		return fmt.Errorf("checkout failed (%s): %w", outcome.Route, outcome.Err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Order %s placed, total %s, status %s\n",
		outcome.Order.ID, outcome.Order.TotalAmount.StringFixed(2), outcome.Order.Status)
	return nil
}

// parseCartItem reads productId:name:price:quantity. The name may contain colons.
func parseCartItem(raw string) (domain.OrderItem, error) {
	parts := strings.Split(raw, ":")
	if len(parts) < 4 {
		return domain.OrderItem{}, fmt.Errorf("item %q: want productId:name:price:quantity", raw)
	}
	n := len(parts)
	price, err := decimal.NewFromString(parts[n-2])
	if err != nil {
		return domain.OrderItem{}, fmt.Errorf("item %q: bad price: %w", raw, err)
	}
	qty, err := strconv.Atoi(parts[n-1])
	if err != nil {
		return domain.OrderItem{}, fmt.Errorf("item %q: bad quantity: %w", raw, err)
	}
	return domain.OrderItem{
		ProductID: parts[0],
		Name:      strings.Join(parts[1:n-2], ":"),
		Price:     price,
		Quantity:  qty,
	}, nil
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
