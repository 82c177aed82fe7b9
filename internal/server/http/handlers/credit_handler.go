package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/polkiloo/creditledger/internal/domain/model"
	"github.com/polkiloo/creditledger/internal/server/http/dto"
)

// CreditHandler serves the caller's own credit.
type CreditHandler struct {
	facade CreditFacade
}

// NewCreditHandler constructs CreditHandler.
func NewCreditHandler(facade CreditFacade) *CreditHandler {
	return &CreditHandler{facade: facade}
}

// Balance handles GET /api/user/credit.
func (h *CreditHandler) Balance(c *gin.Context) {
	amount, err := h.facade.Balance(c.Request.Context(), CurrentUserID(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.CreditResponse{CreditAmountCents: amount})
}

// Entries handles GET /api/user/credit/entries.
func (h *CreditHandler) Entries(c *gin.Context) {
	entries, err := h.facade.Entries(c.Request.Context(), CurrentUserID(c))
	if err != nil {
		writeError(c, err)
		return
	}
	if len(entries) == 0 {
		c.Status(http.StatusNoContent)
		return
	}

	resp := make([]dto.EntryResponse, 0, len(entries))
	for _, e := range entries {
		resp = append(resp, entryResponse(e))
	}
	c.JSON(http.StatusOK, resp)
}

func entryResponse(e model.LedgerEntry) dto.EntryResponse {
	return dto.EntryResponse{
		ID:                 e.ID.String(),
		AccountID:          e.AccountID,
		Kind:               string(e.Kind),
		DeltaCents:         e.DeltaCents,
		CreatedBy:          e.CreatedBy,
		Description:        e.Description,
		ExpiresAt:          e.ExpiresAt,
		FinancingAccountID: e.FinancingAccountID,
		CreatedAt:          e.CreatedAt,
	}
}
