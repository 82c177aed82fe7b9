package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	domainErrors "github.com/polkiloo/creditledger/internal/domain/errors"
	"github.com/polkiloo/creditledger/internal/server/http/dto"
)

const (
	negativeCreditMessage = "A user cannot have negative credit."
	retryAfterSeconds     = 1
)

// writeError maps ledger errors to HTTP responses.
func writeError(c *gin.Context, err error) {
	var insufficient *domainErrors.InsufficientCreditError
	switch {
	case errors.As(err, &insufficient):
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: negativeCreditMessage, Detail: insufficient.Error()})
	case errors.Is(err, domainErrors.ErrValidation):
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: err.Error()})
	case errors.Is(err, domainErrors.ErrNotFound):
		c.JSON(http.StatusNotFound, dto.ErrorResponse{Error: "user not found"})
	case errors.Is(err, domainErrors.ErrForbidden):
		c.JSON(http.StatusForbidden, dto.ErrorResponse{Error: "forbidden"})
	case domainErrors.IsRetryable(err):
		c.Header("Retry-After", strconv.Itoa(retryAfterSeconds))
		c.JSON(http.StatusServiceUnavailable, dto.ErrorResponse{Error: err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: "internal error"})
	}
}
