package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/shelfwatch/shelfwatch/backend-go/internal/service"
)

type TransferHandler struct {
	service *service.TransferService
}

func NewTransferHandler(service *service.TransferService) *TransferHandler {
	return &TransferHandler{service: service}
}

// RunPass executes one optimizer pass and supersedes the pending
// recommendations.
func (h *TransferHandler) RunPass(c *gin.Context) {
	asOf, ok := queryDate(c, "as_of")
	if !ok {
		return
	}

	result, err := h.service.RunPass(c.Request.Context(), asOf)
	if err != nil {
		serviceError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// Accept marks a recommendation accepted and opens a transfer draft.
func (h *TransferHandler) Accept(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	draft, err := h.service.Accept(c.Request.Context(), id, time.Now())
	if err != nil {
		serviceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, draft)
}

// Reject marks a recommendation rejected.
func (h *TransferHandler) Reject(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	if err := h.service.Reject(c.Request.Context(), id); err != nil {
		serviceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "rejected"})
}
