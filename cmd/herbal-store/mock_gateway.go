package main

import (
	"herbal_store/config"
	"herbal_store/internal/mockgateway"

	"github.com/spf13/cobra"
)

var mockGatewayCmd = &cobra.Command{
	Use:   "mock-gateway",
	Short: "Start the local mock payment gateway",
	Long: `Start a payment provider stand-in for local development.

It accepts signed pay and status requests from the backend and serves /pay/<txn>
pages that settle the payment and redirect back to the storefront. Append ?fail=1
to a pay link to simulate a declined payment.`,
	RunE: runMockGateway,
}

func runMockGateway(cmd *cobra.Command, args []string) error {
	logger := setupLogger("info")
	cfg := config.LoadConfig(logger)
	applyLogLevel(logger, cfg.LogLevel)

	server := mockgateway.NewServer(mockgateway.Config{
		MerchantID: cfg.GatewayMerchantID,
		SaltKey:    cfg.GatewaySaltKey,
		SaltIndex:  cfg.GatewaySaltIndex,
		PublicURL:  cfg.MockGatewayPublicURL,
	}, logger)

	logger.Infof("MockGateway: merchant %s", cfg.GatewayMerchantID)
	return serveHTTP(cfg.MockGatewayPort, server.Router(), logger)
}
