package delivery

import (
	"net/http"
	"strconv"
	"time"

	"herbal_store/internal/console"
	"herbal_store/internal/domain"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

type OrderHandler struct {
	orders domain.OrderUseCase
	log    *logrus.Logger
	now    func() time.Time
}

func NewOrderHandler(orders domain.OrderUseCase, logger *logrus.Logger) *OrderHandler {
	return &OrderHandler{
		orders: orders,
		log:    logger,
		now:    time.Now,
	}
}

func (h *OrderHandler) RegisterRoutes(router gin.IRouter, auth, admin gin.HandlerFunc) {
	orders := router.Group("/orders", auth)
	{
		orders.POST("", h.CreateOrder)
		orders.GET("", admin, h.ListOrders)
		orders.GET("/my-orders", h.MyOrders)
		orders.GET("/:id", h.GetOrderByID)
		orders.PUT("/:id/status", admin, h.UpdateOrderStatus)
	}
}

func (h *OrderHandler) CreateOrder(c *gin.Context) {
	user := currentUser(c)
	log := h.log.WithFields(logrus.Fields{"handler": "CreateOrder", "user_id": user.ID})

	var req domain.CreateOrderInput
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, log, err)
		return
	}

	order, err := h.orders.CreateOrder(c.Request.Context(), user.ID, req)
	if err != nil {
		respondError(c, log, err)
		return
	}
	log.Infof("Order %s created", order.ID)
	c.JSON(http.StatusCreated, order)
}

// ListOrders returns every order. The console query parameters (search, status,
// amount, period, archived, sort) are optional; without them the stored order is kept.
func (h *OrderHandler) ListOrders(c *gin.Context) {
	log := h.log.WithField("handler", "ListOrders")

	orders, err := h.orders.ListOrders(c.Request.Context())
	if err != nil {
		respondError(c, log, err)
		return
	}

	filter, filtered, err := parseConsoleQuery(c)
	if err != nil {
		respondError(c, log, err)
		return
	}
	if filtered {
		orders = console.Apply(orders, filter, h.now())
	}
	c.JSON(http.StatusOK, orders)
}

func parseConsoleQuery(c *gin.Context) (console.Filter, bool, error) {
	filter := console.Filter{
		Search: c.Query("search"),
		Status: c.Query("status"),
		Amount: console.AmountRange(c.Query("amount")),
		Period: console.Period(c.Query("period")),
		Sort:   console.SortKey(c.Query("sort")),
	}
	_, hasArchived := c.GetQuery("archived")
	if hasArchived {
		archived, err := strconv.ParseBool(c.Query("archived"))
		if err != nil {
			return filter, false, invalidQuery("archived must be true or false")
		}
		filter.ShowArchived = archived
	}
	if err := filter.Validate(); err != nil {
		return filter, false, err
	}
	used := hasArchived || filter.Search != "" || filter.Status != "" || filter.Amount != "" ||
		filter.Period != "" || filter.Sort != ""
	return filter, used, nil
}

func (h *OrderHandler) MyOrders(c *gin.Context) {
	user := currentUser(c)
	log := h.log.WithFields(logrus.Fields{"handler": "MyOrders", "user_id": user.ID})

	orders, err := h.orders.ListUserOrders(c.Request.Context(), user.ID)
	if err != nil {
		respondError(c, log, err)
		return
	}
	c.JSON(http.StatusOK, orders)
}

func (h *OrderHandler) GetOrderByID(c *gin.Context) {
	user := currentUser(c)
	log := h.log.WithFields(logrus.Fields{"handler": "GetOrderByID", "user_id": user.ID})

	order, err := h.orders.GetOrder(c.Request.Context(), user, c.Param("id"))
	if err != nil {
		respondError(c, log, err)
		return
	}
	c.JSON(http.StatusOK, order)
}

func (h *OrderHandler) UpdateOrderStatus(c *gin.Context) {
	id := c.Param("id")
	log := h.log.WithFields(logrus.Fields{"handler": "UpdateOrderStatus", "order_id": id})

	var patch domain.OrderPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		badRequest(c, log, err)
		return
	}

	order, err := h.orders.UpdateOrder(c.Request.Context(), id, patch)
	if err != nil {
		respondError(c, log, err)
		return
	}
	c.JSON(http.StatusOK, order)
}
