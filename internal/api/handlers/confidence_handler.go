package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/shelfwatch/shelfwatch/backend-go/internal/service"
)

type ConfidenceHandler struct {
	service *service.ConfidenceService
}

func NewConfidenceHandler(service *service.ConfidenceService) *ConfidenceHandler {
	return &ConfidenceHandler{service: service}
}

// GetScore returns the confidence score for one store/SKU.
func (h *ConfidenceHandler) GetScore(c *gin.Context) {
	storeID, ok := pathID(c, "store_id")
	if !ok {
		return
	}
	skuID, ok := pathID(c, "sku_id")
	if !ok {
		return
	}
	asOf, ok := queryDate(c, "as_of")
	if !ok {
		return
	}

	score, err := h.service.Score(c.Request.Context(), storeID, skuID, asOf)
	if err != nil {
		serviceError(c, err)
		return
	}
	c.JSON(http.StatusOK, score)
}

// GetLowConfidence lists a store's SKUs scoring below the threshold, worst
// first. Threshold defaults to 70.
func (h *ConfidenceHandler) GetLowConfidence(c *gin.Context) {
	storeID, ok := pathID(c, "store_id")
	if !ok {
		return
	}
	asOf, ok := queryDate(c, "as_of")
	if !ok {
		return
	}

	threshold := 70.0
	if raw := c.Query("threshold"); raw != "" {
		parsed, err := strconv.ParseFloat(raw, 64)
		if err != nil || parsed < 0 || parsed > 100 {
			errorResponse(c, http.StatusBadRequest, "threshold must be a number between 0 and 100")
			return
		}
		threshold = parsed
	}

	items, err := h.service.LowConfidenceItems(c.Request.Context(), storeID, threshold, asOf)
	if err != nil {
		serviceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"threshold": threshold, "items": items})
}

// GetCountPriorities ranks a store's SKUs for cycle counting.
func (h *ConfidenceHandler) GetCountPriorities(c *gin.Context) {
	storeID, ok := pathID(c, "store_id")
	if !ok {
		return
	}
	asOf, ok := queryDate(c, "as_of")
	if !ok {
		return
	}

	candidates, err := h.service.CountPriorities(c.Request.Context(), storeID, asOf)
	if err != nil {
		serviceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"candidates": candidates})
}
