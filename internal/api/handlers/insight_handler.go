package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/shelfwatch/shelfwatch/backend-go/internal/forecast"
	"github.com/shelfwatch/shelfwatch/backend-go/internal/service"
)

type InsightHandler struct {
	service *service.InsightService
}

func NewInsightHandler(service *service.InsightService) *InsightHandler {
	return &InsightHandler{service: service}
}

// GetItemHealth returns the daily health picture for one store/SKU.
func (h *InsightHandler) GetItemHealth(c *gin.Context) {
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

	health, err := h.service.ItemHealth(c.Request.Context(), storeID, skuID, asOf)
	if err != nil {
		serviceError(c, err)
		return
	}
	c.JSON(http.StatusOK, health)
}

// GetHourlyCurve returns the per-hour demand curve for a date. An explicit
// hour query switches to a single-hour forecast.
func (h *InsightHandler) GetHourlyCurve(c *gin.Context) {
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

	if rawHour := c.Query("hour"); rawHour != "" {
		hour, err := strconv.Atoi(rawHour)
		if err != nil || hour < 0 || hour > 23 {
			errorResponse(c, http.StatusBadRequest, "invalid hour, expected 0-23")
			return
		}
		fc, err := h.service.HourForecast(c.Request.Context(), storeID, skuID, hour, forecast.DayOfWeek(date))
		if err != nil {
			serviceError(c, err)
			return
		}
		c.JSON(http.StatusOK, fc)
		return
	}

	curve, err := h.service.HourlyCurve(c.Request.Context(), storeID, skuID, date)
	if err != nil {
		serviceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"date": date.Format("2006-01-02"), "hours": curve})
}

// GetStockout runs the intraday stockout walk for one store/SKU.
func (h *InsightHandler) GetStockout(c *gin.Context) {
	storeID, ok := pathID(c, "store_id")
	if !ok {
		return
	}
	skuID, ok := pathID(c, "sku_id")
	if !ok {
		return
	}

	pred, err := h.service.Stockout(c.Request.Context(), storeID, skuID, time.Now())
	if err != nil {
		serviceError(c, err)
		return
	}
	c.JSON(http.StatusOK, pred)
}

// GetPeakStatus summarizes the next rush and the at-risk critical items.
func (h *InsightHandler) GetPeakStatus(c *gin.Context) {
	storeID, ok := pathID(c, "store_id")
	if !ok {
		return
	}

	status, err := h.service.PeakStatus(c.Request.Context(), storeID, time.Now())
	if err != nil {
		serviceError(c, err)
		return
	}
	c.JSON(http.StatusOK, status)
}
