package delivery

import (
	"errors"
	"fmt"
	"net/http"

	"herbal_store/internal/domain"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

type ErrorResponse struct {
	Error string `json:"error"`
}

func mapErrorToStatus(err error) int {
	switch {
	case errors.Is(err, domain.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, domain.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrConflict):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// respondError writes err as {"error": ...}. Internal errors are logged and
// replaced by a generic message.
func respondError(c *gin.Context, log *logrus.Entry, err error) {
	status := mapErrorToStatus(err)
	if status == http.StatusInternalServerError {
		log.Errorf("Internal error: %v", err)
		_ = c.Error(err)
		c.JSON(status, ErrorResponse{Error: "Internal server error"})
		return
	}
	log.Warnf("Request failed with %d: %v", status, err)
	c.JSON(status, ErrorResponse{Error: err.Error()})
}

func badRequest(c *gin.Context, log *logrus.Entry, err error) {
	log.Warnf("Failed to bind request: %v", err)
	c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid request body: " + err.Error()})
}

func invalidQuery(msg string) error {
	return fmt.Errorf("%s: %w", msg, domain.ErrInvalidInput)
}
