// Package mockgateway is a local stand-in for the hosted payment gateway.
// It speaks the same pay/status wire format and serves a pay page that
// completes (or, with ?fail=1, fails) a transaction and redirects back.
package mockgateway

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"

	"herbal_store/internal/clients"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

const (
	StatePending   = "PENDING"
	StateCompleted = "COMPLETED"
	StateFailed    = "FAILED"
)

type Config struct {
	MerchantID string
	SaltKey    string
	SaltIndex  string
	// PublicURL prefixes pay-page links. Empty means derive it from the request host.
	PublicURL string
}

type transaction struct {
	payload      clients.PayPayload
	state        string
	gatewayTxnID string
}

type Server struct {
	cfg Config
	log *logrus.Logger

	mu   sync.Mutex
	txns map[string]*transaction
}

func NewServer(cfg Config, logger *logrus.Logger) *Server {
	return &Server{
		cfg:  cfg,
		log:  logger,
		txns: make(map[string]*transaction),
	}
}

func (s *Server) Router() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.POST(clients.PayPath, s.pay)
	router.GET("/pg/v1/status/:merchantId/:txnId", s.status)
	router.GET("/pay/:txnId", s.payPage)
	return router
}

func (s *Server) fail(c *gin.Context, code int, gwCode, message string) {
	c.JSON(code, clients.GatewayResponse{Success: false, Code: gwCode, Message: message})
}

func (s *Server) pay(c *gin.Context) {
	var req clients.PayRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Request == "" {
		s.fail(c, http.StatusBadRequest, "BAD_REQUEST", "request body is required")
		return
	}
	if c.GetHeader(clients.HeaderVerify) != clients.Checksum(req.Request, clients.PayPath, s.cfg.SaltKey, s.cfg.SaltIndex) {
		s.log.Warn("MockGateway: Pay request with bad checksum")
		s.fail(c, http.StatusBadRequest, "BAD_REQUEST", "checksum mismatch")
		return
	}

	raw, err := base64.StdEncoding.DecodeString(req.Request)
	if err != nil {
		s.fail(c, http.StatusBadRequest, "BAD_REQUEST", "request is not base64")
		return
	}
	var payload clients.PayPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		s.fail(c, http.StatusBadRequest, "BAD_REQUEST", "request payload is not valid json")
		return
	}
	if payload.MerchantID != s.cfg.MerchantID {
		s.fail(c, http.StatusBadRequest, "INVALID_MERCHANT", "unknown merchant")
		return
	}
	if payload.Amount <= 0 || payload.MerchantTransactionID == "" {
		s.fail(c, http.StatusBadRequest, "BAD_REQUEST", "amount and merchantTransactionId are required")
		return
	}

	s.mu.Lock()
	if _, exists := s.txns[payload.MerchantTransactionID]; exists {
		s.mu.Unlock()
		s.fail(c, http.StatusBadRequest, "DUPLICATE_TRANSACTION", "transaction already exists")
		return
	}
	s.txns[payload.MerchantTransactionID] = &transaction{
		payload:      payload,
		state:        StatePending,
		gatewayTxnID: "T" + strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:16]),
	}
	s.mu.Unlock()

	s.log.Infof("MockGateway: Payment %s initiated for %d paise", payload.MerchantTransactionID, payload.Amount)
	c.JSON(http.StatusOK, clients.GatewayResponse{
		Success: true,
		Code:    "PAYMENT_INITIATED",
		Message: "Payment initiated",
		Data: &clients.GatewayData{
			MerchantID:            payload.MerchantID,
			MerchantTransactionID: payload.MerchantTransactionID,
			InstrumentResponse: &clients.InstrumentResponse{
				Type: "PAY_PAGE",
				RedirectInfo: &clients.RedirectInfo{
					URL:    s.publicURL(c) + "/pay/" + payload.MerchantTransactionID,
					Method: http.MethodGet,
				},
			},
		},
	})
}

func (s *Server) status(c *gin.Context) {
	merchantID, txnID := c.Param("merchantId"), c.Param("txnId")
	path := fmt.Sprintf(clients.StatusPathFmt, merchantID, txnID)
	if c.GetHeader(clients.HeaderVerify) != clients.Checksum("", path, s.cfg.SaltKey, s.cfg.SaltIndex) {
		s.log.Warnf("MockGateway: Status request for %s with bad checksum", txnID)
		s.fail(c, http.StatusBadRequest, "BAD_REQUEST", "checksum mismatch")
		return
	}

	s.mu.Lock()
	txn, ok := s.txns[txnID]
	var snapshot transaction
	if ok {
		snapshot = *txn
	}
	s.mu.Unlock()

	if !ok || merchantID != s.cfg.MerchantID {
		s.fail(c, http.StatusNotFound, "PAYMENT_NOT_FOUND", "transaction not found")
		return
	}

	code := map[string]string{
		StatePending:   "PAYMENT_PENDING",
		StateCompleted: "PAYMENT_SUCCESS",
		StateFailed:    "PAYMENT_ERROR",
	}[snapshot.state]
	c.JSON(http.StatusOK, clients.GatewayResponse{
		Success: snapshot.state != StateFailed,
		Code:    code,
		Message: "Transaction status",
		Data: &clients.GatewayData{
			MerchantID:            snapshot.payload.MerchantID,
			MerchantTransactionID: txnID,
			TransactionID:         snapshot.gatewayTxnID,
			Amount:                snapshot.payload.Amount,
			State:                 snapshot.state,
			ResponseCode:          code,
		},
	})
}

// payPage settles a pending transaction and sends the shopper back to the merchant.
func (s *Server) payPage(c *gin.Context) {
	txnID := c.Param("txnId")
	state := StateCompleted
	if c.Query("fail") != "" {
		state = StateFailed
	}

	redirectURL, ok := s.settle(txnID, state)
	if !ok {
		c.String(http.StatusNotFound, "unknown transaction")
		return
	}
	c.Redirect(http.StatusFound, redirectURL)
}

func (s *Server) settle(txnID, state string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	txn, ok := s.txns[txnID]
	if !ok {
		return "", false
	}
	if txn.state == StatePending {
		txn.state = state
		s.log.Infof("MockGateway: Payment %s settled as %s", txnID, state)
	}
	return txn.payload.RedirectURL, true
}

// Settle moves a pending transaction to state without the browser round trip.
func (s *Server) Settle(txnID, state string) bool {
	_, ok := s.settle(txnID, state)
	return ok
}

// RedirectURL is the merchant return URL recorded for txnID.
func (s *Server) RedirectURL(txnID string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	txn, ok := s.txns[txnID]
	if !ok {
		return "", false
	}
	return txn.payload.RedirectURL, true
}

func (s *Server) publicURL(c *gin.Context) string {
	if s.cfg.PublicURL != "" {
		return strings.TrimRight(s.cfg.PublicURL, "/")
	}
	scheme := "http"
	if c.Request.TLS != nil {
		scheme = "https"
	}
	return scheme + "://" + c.Request.Host
}
