package delivery

import (
	"net/http"

	"herbal_store/internal/domain"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

type AuthHandler struct {
	users domain.UserUseCase
	log   *logrus.Logger
}

func NewAuthHandler(users domain.UserUseCase, logger *logrus.Logger) *AuthHandler {
	return &AuthHandler{users: users, log: logger}
}

type RegisterRequest struct {
	Name     string `json:"name" binding:"required"`
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type UserResponse struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Email   string `json:"email"`
	IsAdmin bool   `json:"isAdmin"`
}

func toUserResponse(u *domain.User) UserResponse {
	return UserResponse{ID: u.ID, Name: u.Name, Email: u.Email, IsAdmin: u.IsAdmin}
}

func (h *AuthHandler) Register(c *gin.Context) {
	log := h.log.WithField("handler", "Register")
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, log, err)
		return
	}

	user, err := h.users.RegisterUser(c.Request.Context(), req.Name, req.Email, req.Password)
	if err != nil {
		respondError(c, log, err)
		return
	}
	c.JSON(http.StatusCreated, toUserResponse(user))
}

func (h *AuthHandler) Login(c *gin.Context) {
	log := h.log.WithField("handler", "Login")
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, log, err)
		return
	}

	auth, err := h.users.AuthenticateUser(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		respondError(c, log, err)
		return
	}
	c.JSON(http.StatusOK, auth)
}

func (h *AuthHandler) Logout(c *gin.Context) {
	h.users.Logout(c.Request.Context(), c.GetString(ctxTokenKey))
	c.Status(http.StatusNoContent)
}

func (h *AuthHandler) Me(c *gin.Context) {
	c.JSON(http.StatusOK, toUserResponse(currentUser(c)))
}
