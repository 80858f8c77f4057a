package main

import (
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"herbal_store/internal/console"
	"herbal_store/internal/domain"
	"herbal_store/internal/storefront"

	"github.com/spf13/cobra"
)

var (
	ordersAPI           string
	ordersEmail         string
	ordersPassword      string
	ordersFilter        console.Filter
	ordersAmount        string
	ordersPeriod        string
	ordersSort          string
	ordersSetStatus     string
	ordersToggleArchive string
)

var ordersCmd = &cobra.Command{
	Use:   "orders",
	Short: "Admin order console",
	Long: `List, filter and update orders through a running backend.

Examples:
  herbal-store orders --email admin@example.com --password secret
  herbal-store orders --status pending --period this-week --sort amount-high
  herbal-store orders --set-status 1717000000000 --status shipped
  herbal-store orders --toggle-archive 1717000000000`,
	RunE: runOrders,
}

func init() {
	f := ordersCmd.Flags()
	f.StringVar(&ordersAPI, "api", "http://localhost:8080", "backend base URL")
	f.StringVar(&ordersEmail, "email", os.Getenv("ADMIN_EMAIL"), "admin email")
	f.StringVar(&ordersPassword, "password", os.Getenv("ADMIN_PASSWORD"), "admin password")
	f.StringVarP(&ordersFilter.Search, "search", "q", "", "match id, customer name or city")
	f.StringVar(&ordersFilter.Status, "status", console.StatusAll, "status filter, or the new status with --set-status")
	f.StringVar(&ordersAmount, "amount", string(console.AmountAll), "all, below-500, 500-1000, above-1000")
	f.StringVar(&ordersPeriod, "period", string(console.PeriodAll), "all, today, this-week, last-week, this-month, last-month, this-year")
	f.BoolVar(&ordersFilter.ShowArchived, "archived", false, "show archived orders instead of active ones")
	f.StringVar(&ordersSort, "sort", string(console.SortLatest), "latest, oldest, amount-high, amount-low, status")
	f.StringVar(&ordersSetStatus, "set-status", "", "order id whose status is set to --status")
	f.StringVar(&ordersToggleArchive, "toggle-archive", "", "order id to archive or restore")
}

func runOrders(cmd *cobra.Command, args []string) error {
	level := os.Getenv("LOG_LEVEL")
	if level == "" {
		level = "warn"
	}
	logger := setupLogger(level)
	ctx := commandContext(cmd)

	client := storefront.NewClient(ordersAPI, 10*time.Second, logger)
	if _, err := client.Login(ctx, ordersEmail, ordersPassword); err != nil {
		return fmt.Errorf("login failed: %w", err)
	}

	c := console.New(client, logger)
	defer c.Close()
	if err := c.Refresh(ctx); err != nil {
		return err
	}

	switch {
	case ordersSetStatus != "":
		status := domain.OrderStatus(ordersFilter.Status)
		if !domain.IsValidStatus(status) {
			return fmt.Errorf("--set-status needs a valid --status, got %q", ordersFilter.Status)
		}
		if err := c.UpdateStatus(ctx, ordersSetStatus, status); err != nil {
			return err
		}
		ordersFilter.Status = console.StatusAll
	case ordersToggleArchive != "":
		if err := c.ToggleArchive(ctx, ordersToggleArchive); err != nil {
			return err
		}
	}

	ordersFilter.Amount = console.AmountRange(ordersAmount)
	ordersFilter.Period = console.Period(ordersPeriod)
	ordersFilter.Sort = console.SortKey(ordersSort)
	if err := ordersFilter.Validate(); err != nil {
		return err
	}

	return printOrders(c.View(ordersFilter))
}

func printOrders(orders []domain.Order) error {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tCREATED\tCUSTOMER\tCITY\tTOTAL\tSTATUS\tPAYMENT\tARCHIVED")
	for _, o := range orders {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\t%s\t%t\n",
			o.ID,
			o.CreatedAt.Local().Format("2006-01-02 15:04"),
			o.ShippingAddress.Name,
			o.ShippingAddress.City,
			o.TotalAmount.StringFixed(2),
			o.Status,
			o.PaymentStatus,
			o.Archived,
		)
	}
	return w.Flush()
}
