package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	domainErrors "github.com/avdeyev/reviewflow/internal/domain/errors"
	"github.com/avdeyev/reviewflow/internal/server/http/dto"
)

// MerchantHandler manages merchant endpoints.
type MerchantHandler struct {
	facade MerchantFacade
}

// NewMerchantHandler constructs MerchantHandler.
func NewMerchantHandler(facade MerchantFacade) *MerchantHandler {
	return &MerchantHandler{facade: facade}
}

// Create handles POST /api/merchants.
func (h *MerchantHandler) Create(c *gin.Context) {
	var req dto.CreateMerchantRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Status(http.StatusBadRequest)
		return
	}

	merchant, err := h.facade.CreateMerchant(c.Request.Context(), req.Name, req.ChatID)
	if err != nil {
		switch {
		case errors.Is(err, domainErrors.ErrInvalidArgument):
			c.Status(http.StatusBadRequest)
		case errors.Is(err, domainErrors.ErrAlreadyExists):
			c.Status(http.StatusConflict)
		default:
			c.Status(http.StatusInternalServerError)
		}
		return
	}

	c.JSON(http.StatusCreated, dto.MerchantResponse{
		ID:        merchant.ID,
		Name:      merchant.Name,
		ChatID:    merchant.ChatID,
		CreatedAt: merchant.CreatedAt,
	})
}
