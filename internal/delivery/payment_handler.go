package delivery

import (
	"encoding/json"
	"io"
	"net/http"

	"herbal_store/internal/domain"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

type PaymentHandler struct {
	payments domain.PaymentUseCase
	log      *logrus.Logger
}

func NewPaymentHandler(payments domain.PaymentUseCase, logger *logrus.Logger) *PaymentHandler {
	return &PaymentHandler{payments: payments, log: logger}
}

func (h *PaymentHandler) RegisterRoutes(router gin.IRouter, auth gin.HandlerFunc) {
	payment := router.Group("/payment")
	{
		payment.POST("/create-order", auth, h.CreatePayment)
		payment.POST("/verify", auth, h.VerifyPayment)
		payment.POST("/callback", h.Callback)
	}
}

type VerifyPaymentRequest struct {
	TransactionID string `json:"transactionId" binding:"required"`
}

// CreatePayment answers {success, paymentUrl, transactionId}. A gateway
// failure is reported as 502 with {success:false, error}.
func (h *PaymentHandler) CreatePayment(c *gin.Context) {
	user := currentUser(c)
	log := h.log.WithFields(logrus.Fields{"handler": "CreatePayment", "user_id": user.ID})

	var req domain.CreatePaymentInput
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, log, err)
		return
	}

	session, err := h.payments.CreatePayment(c.Request.Context(), user.ID, req)
	if err != nil {
		respondError(c, log, err)
		return
	}
	if !session.Success {
		c.JSON(http.StatusBadGateway, session)
		return
	}
	c.JSON(http.StatusOK, session)
}

func (h *PaymentHandler) VerifyPayment(c *gin.Context) {
	user := currentUser(c)
	log := h.log.WithFields(logrus.Fields{"handler": "VerifyPayment", "user_id": user.ID})

	var req VerifyPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, log, err)
		return
	}

	result, err := h.payments.VerifyPayment(c.Request.Context(), user.ID, req.TransactionID)
	if err != nil {
		respondError(c, log, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// Callback acknowledges the gateway's server-to-server notification. Order
// state is driven by the client's verify call, so the payload is only logged.
func (h *PaymentHandler) Callback(c *gin.Context) {
	log := h.log.WithField("handler", "PaymentCallback")

	body, err := io.ReadAll(io.LimitReader(c.Request.Body, 64<<10))
	if err != nil {
		log.Warnf("Failed to read callback body: %v", err)
	}
	var payload map[string]any
	if len(body) > 0 && json.Unmarshal(body, &payload) != nil {
		log.Warnf("Callback body is not JSON (%d bytes)", len(body))
	}
	log.WithField("x_verify", c.GetHeader("X-VERIFY") != "").Infof("Gateway callback received: %v", payload)

	c.JSON(http.StatusOK, gin.H{"success": true})
}
