package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/polkiloo/creditledger/internal/domain/model"
	"github.com/polkiloo/creditledger/internal/server/http/dto"
)

// AdminCreditHandler manages credit of arbitrary users on behalf of an admin.
type AdminCreditHandler struct {
	facade AdminFacade
}

// NewAdminCreditHandler constructs AdminCreditHandler.
func NewAdminCreditHandler(facade AdminFacade) *AdminCreditHandler {
	return &AdminCreditHandler{facade: facade}
}

// Grant handles POST /api/admin/users/:id/credit.
func (h *AdminCreditHandler) Grant(c *gin.Context) {
	userID, ok := targetUserID(c)
	if !ok {
		return
	}

	var req dto.GrantRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: err.Error()})
		return
	}

	adminID := CurrentUserID(c)
	entry, err := h.facade.Grant(c.Request.Context(), model.GrantRequest{
		AccountID:   userID,
		AmountCents: *req.CreditAmountCents,
		CreatedBy:   &adminID,
		Description: req.Description,
		ExpiresAt:   req.ExpiresAt,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, entryResponse(*entry))
}

// Balance handles GET /api/admin/users/:id/credit.
func (h *AdminCreditHandler) Balance(c *gin.Context) {
	userID, ok := targetUserID(c)
	if !ok {
		return
	}

	amount, err := h.facade.Balance(c.Request.Context(), userID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.CreditResponse{CreditAmountCents: amount})
}

// Spend handles POST /api/admin/users/:id/credit/spend.
func (h *AdminCreditHandler) Spend(c *gin.Context) {
	userID, ok := targetUserID(c)
	if !ok {
		return
	}

	var req dto.SpendRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: err.Error()})
		return
	}

	result, err := h.facade.Spend(c.Request.Context(), userID, *req.AmountOwedCents)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.SpendResponse{
		CreditPaymentCents:    result.CreditPaymentCents,
		NonCreditPaymentCents: result.NonCreditPaymentCents,
	})
}

func targetUserID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "invalid user id"})
		return 0, false
	}
	return id, true
}
