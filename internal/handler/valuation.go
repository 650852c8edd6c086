package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"valuator/internal/model"
	"valuator/internal/service"

	"github.com/gin-gonic/gin"
)

// ValuationHandler handles valuation-related HTTP requests
type ValuationHandler struct {
	valuationService *service.ValuationService
}

// NewValuationHandler creates a new valuation handler
func NewValuationHandler(valuationService *service.ValuationService) *ValuationHandler {
	return &ValuationHandler{
		valuationService: valuationService,
	}
}

// Register mounts the valuation routes on an API group
func (h *ValuationHandler) Register(api *gin.RouterGroup) {
	api.POST("/valuations", h.Estimate)
	api.GET("/valuations", h.ListRecent)
	api.GET("/valuations/:id", h.GetValuation)
	api.POST("/valuations/similar", h.Similar)
	api.POST("/confidence", h.Confidence)
	api.GET("/model/status", h.ModelStatus)
}

// Estimate handles POST /api/v1/valuations
func (h *ValuationHandler) Estimate(c *gin.Context) {
	var req model.ValuationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}

	response, err := h.valuationService.Estimate(c.Request.Context(), &req)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Estimation timed out, please try again"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to estimate price, please try again"})
		return
	}

	c.JSON(http.StatusOK, response)
}

// Confidence handles POST /api/v1/confidence
func (h *ValuationHandler) Confidence(c *gin.Context) {
	var req model.ValuationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}

	c.JSON(http.StatusOK, h.valuationService.Confidence(&req))
}

// GetValuation handles GET /api/v1/valuations/:id
func (h *ValuationHandler) GetValuation(c *gin.Context) {
	record, err := h.valuationService.GetValuation(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.writeHistoryError(c, err)
		return
	}

	c.JSON(http.StatusOK, record)
}

// ListRecent handles GET /api/v1/valuations?limit=N
func (h *ValuationHandler) ListRecent(c *gin.Context) {
	limit := 0
	if limitStr := c.Query("limit"); limitStr != "" {
		parsed, err := strconv.Atoi(limitStr)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid limit"})
			return
		}
		limit = parsed
	}

	response, err := h.valuationService.Recent(c.Request.Context(), limit)
	if err != nil {
		h.writeHistoryError(c, err)
		return
	}

	c.JSON(http.StatusOK, response)
}

// Similar handles POST /api/v1/valuations/similar
func (h *ValuationHandler) Similar(c *gin.Context) {
	var req model.SimilarRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}

	response, err := h.valuationService.Similar(c.Request.Context(), &req)
	if err != nil {
		h.writeHistoryError(c, err)
		return
	}

	c.JSON(http.StatusOK, response)
}

// ModelStatus handles GET /api/v1/model/status
func (h *ValuationHandler) ModelStatus(c *gin.Context) {
	c.JSON(http.StatusOK, h.valuationService.ModelStatus())
}

func (h *ValuationHandler) writeHistoryError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrHistoryDisabled):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Valuation history is not enabled"})
	case errors.Is(err, service.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Valuation not found"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load valuations: " + err.Error()})
	}
}
