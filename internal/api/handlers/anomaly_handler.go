package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/shelfwatch/shelfwatch/backend-go/internal/service"
)

type AnomalyHandler struct {
	service *service.AnomalyService
}

func NewAnomalyHandler(service *service.AnomalyService) *AnomalyHandler {
	return &AnomalyHandler{service: service}
}

// RunScan reconciles every active store/SKU pair and persists new events.
func (h *AnomalyHandler) RunScan(c *gin.Context) {
	asOf, ok := queryDate(c, "as_of")
	if !ok {
		return
	}

	findings, err := h.service.Scan(c.Request.Context(), asOf)
	if err != nil {
		serviceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"as_of":    asOf.Format("2006-01-02"),
		"found":    len(findings),
		"findings": findings,
	})
}

// GetHistory lists recorded anomaly events for a store/SKU.
func (h *AnomalyHandler) GetHistory(c *gin.Context) {
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

	days := 30
	if raw := c.Query("days"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			errorResponse(c, http.StatusBadRequest, "invalid days")
			return
		}
		days = parsed
	}

	events, err := h.service.History(c.Request.Context(), storeID, skuID, days, asOf)
	if err != nil {
		serviceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"events": events})
}

// Investigate reconciles a single store/SKU/date on demand.
func (h *AnomalyHandler) Investigate(c *gin.Context) {
	storeID, ok := pathID(c, "store_id")
	if !ok {
		return
	}
	skuID, ok := pathID(c, "sku_id")
	if !ok {
		return
	}
	date, ok := queryDate(c, "date")
	if !ok {
		return
	}

	result, err := h.service.Investigate(c.Request.Context(), storeID, skuID, date)
	if err != nil {
		serviceError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}
