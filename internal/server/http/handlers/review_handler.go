package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	domainErrors "github.com/avdeyev/reviewflow/internal/domain/errors"
	"github.com/avdeyev/reviewflow/internal/domain/model"
	"github.com/avdeyev/reviewflow/internal/server/http/dto"
)

// ReviewHandler serves review lookups for operators.
type ReviewHandler struct {
	facade ReviewFacade
}

// NewReviewHandler constructs ReviewHandler.
func NewReviewHandler(facade ReviewFacade) *ReviewHandler {
	return &ReviewHandler{facade: facade}
}

// Details handles GET /api/reviews/:id.
func (h *ReviewHandler) Details(c *gin.Context) {
	reviewID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.Status(http.StatusBadRequest)
		return
	}

	details, err := h.facade.ReviewDetails(c.Request.Context(), reviewID)
	if err != nil {
		if errors.Is(err, domainErrors.ErrNotFound) {
			c.Status(http.StatusNotFound)
			return
		}
		c.Status(http.StatusInternalServerError)
		return
	}

	scores := make(map[string]int, len(model.Dimensions))
	for _, d := range model.Dimensions {
		scores[string(d)] = details.Rating.Score(d)
	}

	c.JSON(http.StatusOK, dto.ReviewResponse{
		ID:                    details.ID,
		OrderID:               details.OrderID,
		MerchantID:            details.MerchantID,
		MerchantName:          details.MerchantName,
		CustomerUserID:        details.CustomerUserID,
		CustomerUsername:      details.CustomerUsername,
		Scores:                scores,
		MeanScore:             details.Rating.Mean(),
		TextReview:            details.TextReview,
		Status:                string(details.Status),
		IsConfirmedByMerchant: details.IsConfirmedByMerchant,
		CreatedAt:             details.CreatedAt,
	})
}
