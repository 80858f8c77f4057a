package delivery

import (
	"net/http"

	"herbal_store/internal/domain"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

type Services struct {
	Users    domain.UserUseCase
	Orders   domain.OrderUseCase
	Payments domain.PaymentUseCase
}

func NewRouter(svc Services, logger *logrus.Logger) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(RequestLogger(logger))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	auth := AuthMiddleware(svc.Users, logger)
	admin := AdminMiddleware(logger)

	authHandler := NewAuthHandler(svc.Users, logger)
	authGroup := router.Group("/auth")
	{
		authGroup.POST("/register", authHandler.Register)
		authGroup.POST("/login", authHandler.Login)
		authGroup.POST("/logout", auth, authHandler.Logout)
		authGroup.GET("/me", auth, authHandler.Me)
	}

	NewOrderHandler(svc.Orders, logger).RegisterRoutes(router, auth, admin)
	NewPaymentHandler(svc.Payments, logger).RegisterRoutes(router, auth)

	router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "Route not found"})
	})
	return router
}
