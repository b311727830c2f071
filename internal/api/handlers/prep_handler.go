package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/shelfwatch/shelfwatch/backend-go/internal/service"
)

type PrepHandler struct {
	service *service.PrepService
}

func NewPrepHandler(service *service.PrepService) *PrepHandler {
	return &PrepHandler{service: service}
}

// Generate regenerates and persists the store's prep schedule.
func (h *PrepHandler) Generate(c *gin.Context) {
	storeID, ok := pathID(c, "store_id")
	if !ok {
		return
	}

	recs, err := h.service.Generate(c.Request.Context(), storeID, time.Now())
	if err != nil {
		serviceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"recommendations": recs})
}
