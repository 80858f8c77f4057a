package clients

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"herbal_store/internal/domain"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

type GatewayConfig struct {
	BaseURL     string
	MerchantID  string
	SaltKey     string
	SaltIndex   string
	Timeout     time.Duration
	SiteBaseURL string
	CallbackURL string
}

type gatewayHTTPClient struct {
	cfg    GatewayConfig
	client *http.Client
	log    *logrus.Logger
	now    func() time.Time
}

func NewGatewayHTTPClient(cfg GatewayConfig, logger *logrus.Logger) domain.PaymentGateway {
	return &gatewayHTTPClient{
		cfg: cfg,
		client: &http.Client{
			Timeout: cfg.Timeout,
		},
		log: logger,
		now: time.Now,
	}
}

// NewTransactionID returns TXN_<unix millis>_<random suffix>.
func NewTransactionID(now time.Time) string {
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:6])
	return fmt.Sprintf("TXN_%d_%s", now.UnixMilli(), suffix)
}

// ToMinorUnits converts rupees to paise.
func ToMinorUnits(amount decimal.Decimal) int64 {
	return amount.Mul(decimal.NewFromInt(100)).Round(0).IntPart()
}

func (c *gatewayHTTPClient) CreatePayment(ctx context.Context, req domain.PaymentRequest) domain.PaymentSession {
	if !req.Amount.IsPositive() || !domain.IsWholePaise(req.Amount) || ToMinorUnits(req.Amount) <= 0 {
		c.log.Warnf("GatewayClient: Refusing payment with invalid amount %s", req.Amount)
		return domain.PaymentSession{Error: "amount must be a positive number of whole paise"}
	}

	txnID := NewTransactionID(c.now())
	userID := req.UserID
	if userID == "" {
		userID = fmt.Sprintf("MUID_%d", c.now().UnixMilli())
	}

	payload := PayPayload{
		MerchantID:            c.cfg.MerchantID,
		MerchantTransactionID: txnID,
		MerchantUserID:        userID,
		Amount:                ToMinorUnits(req.Amount),
		RedirectURL:           strings.TrimRight(c.cfg.SiteBaseURL, "/") + "/payment/success?transactionId=" + url.QueryEscape(txnID),
		RedirectMode:          "REDIRECT",
		CallbackURL:           c.cfg.CallbackURL,
		MobileNumber:          req.PayerPhone,
		PaymentInstrument:     PaymentInstrument{Type: "PAY_PAGE"},
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		c.log.Errorf("GatewayClient: Failed to marshal payment payload for %s: %v", txnID, err)
		return domain.PaymentSession{TransactionID: txnID, Error: "failed to prepare payment request"}
	}
	encoded := base64.StdEncoding.EncodeToString(raw)
	body, _ := json.Marshal(PayRequest{Request: encoded})

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+PayPath, bytes.NewReader(body))
	if err != nil {
		c.log.Errorf("GatewayClient: Failed to create pay request for %s: %v", txnID, err)
		return domain.PaymentSession{TransactionID: txnID, Error: "failed to create payment request"}
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set(HeaderVerify, Checksum(encoded, PayPath, c.cfg.SaltKey, c.cfg.SaltIndex))

	c.log.Infof("GatewayClient: Creating payment %s for %d paise", txnID, payload.Amount)
	gwResp, status, err := c.do(httpReq)
	if err != nil {
		c.log.Errorf("GatewayClient: Pay request for %s failed: %v", txnID, err)
		return domain.PaymentSession{TransactionID: txnID, Error: "payment gateway unavailable"}
	}
	if status != http.StatusOK || !gwResp.Success {
		c.log.Warnf("GatewayClient: Gateway rejected payment %s (status %d, code %s): %s", txnID, status, gwResp.Code, gwResp.Message)
		return domain.PaymentSession{TransactionID: txnID, Error: nonEmpty(gwResp.Message, "payment initiation failed")}
	}
	if gwResp.Data == nil || gwResp.Data.InstrumentResponse == nil || gwResp.Data.InstrumentResponse.RedirectInfo == nil ||
		gwResp.Data.InstrumentResponse.RedirectInfo.URL == "" {
		c.log.Errorf("GatewayClient: Gateway response for %s has no redirect url", txnID)
		return domain.PaymentSession{TransactionID: txnID, Error: "payment gateway returned no payment url"}
	}

	return domain.PaymentSession{
		Success:       true,
		TransactionID: txnID,
		PaymentURL:    gwResp.Data.InstrumentResponse.RedirectInfo.URL,
	}
}

func (c *gatewayHTTPClient) VerifyPayment(ctx context.Context, transactionID string) domain.PaymentVerification {
	result := domain.PaymentVerification{TransactionID: transactionID}
	if strings.TrimSpace(transactionID) == "" {
		result.Error = "transaction id is required"
		return result
	}

	path := fmt.Sprintf(StatusPathFmt, url.PathEscape(c.cfg.MerchantID), url.PathEscape(transactionID))
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.BaseURL+path, nil)
	if err != nil {
		c.log.Errorf("GatewayClient: Failed to create status request for %s: %v", transactionID, err)
		result.Error = "failed to create status request"
		return result
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set(HeaderVerify, Checksum("", path, c.cfg.SaltKey, c.cfg.SaltIndex))
	httpReq.Header.Set(HeaderMerchantID, c.cfg.MerchantID)

	gwResp, status, err := c.do(httpReq)
	if err != nil {
		c.log.Errorf("GatewayClient: Status request for %s failed: %v", transactionID, err)
		result.Error = "payment gateway unavailable"
		return result
	}
	if status == http.StatusNotFound {
		c.log.Warnf("GatewayClient: Transaction %s unknown to gateway", transactionID)
		result.Error = nonEmpty(gwResp.Message, "transaction not found")
		return result
	}

	result.Success = status == http.StatusOK && gwResp.Success
	if gwResp.Data != nil {
		result.Status = gwResp.Data.State
	}
	if !result.Success {
		result.Error = nonEmpty(gwResp.Message, "payment verification failed")
	}
	c.log.Infof("GatewayClient: Transaction %s verified: success=%t state=%s", transactionID, result.Success, result.Status)
	return result
}

// do executes req and decodes the gateway envelope. Non-JSON bodies decode to a zero response.
func (c *gatewayHTTPClient) do(req *http.Request) (GatewayResponse, int, error) {
	var gwResp GatewayResponse
	resp, err := c.client.Do(req)
	if err != nil {
		return gwResp, 0, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return gwResp, resp.StatusCode, fmt.Errorf("failed to read gateway response: %w", err)
	}
	if err := json.Unmarshal(raw, &gwResp); err != nil {
		c.log.Warnf("GatewayClient: Undecodable gateway response (status %d): %v", resp.StatusCode, err)
		return GatewayResponse{}, resp.StatusCode, nil
	}
	return gwResp, resp.StatusCode, nil
}

func nonEmpty(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}
