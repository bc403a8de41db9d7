package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mamadbah2/challans/internal/domain/models"
	"github.com/mamadbah2/challans/internal/service/tracker"
)

// TrackerHandler serves the returnable items view and the two step return flow.
type TrackerHandler struct {
	tracker *tracker.Tracker
	confirm *tracker.Confirmations
	logger  *zap.Logger
}

// NewTrackerHandler constructs the HTTP handler adapter.
func NewTrackerHandler(t *tracker.Tracker, confirm *tracker.Confirmations, logger *zap.Logger) *TrackerHandler {
	return &TrackerHandler{tracker: t, confirm: confirm, logger: nopIfNil(logger)}
}

// View returns returnable items grouped by challan, filtered by ?q=.
func (h *TrackerHandler) View(c *gin.Context) {
	groups, err := h.tracker.View(c.Request.Context(), c.Query("q"))
	if err != nil {
		respondError(c, h.logger, err, http.StatusBadGateway, "unable to load returnable items")
		return
	}
	if groups == nil {
		groups = []models.ReturnGroup{}
	}
	c.JSON(http.StatusOK, gin.H{"groups": groups, "today": models.FormatDate(h.tracker.Today())})
}

// Refresh reloads the projection from the store.
func (h *TrackerHandler) Refresh(c *gin.Context) {
	if err := h.tracker.Refresh(c.Request.Context()); err != nil {
		respondError(c, h.logger, err, http.StatusBadGateway, "unable to refresh returnable items")
		return
	}
	c.Status(http.StatusNoContent)
}

// BeginReturn opens a pending confirmation for the item in the body.
func (h *TrackerHandler) BeginReturn(c *gin.Context) {
	var key models.ItemKey
	if err := c.ShouldBindJSON(&key); err != nil {
		badBody(c, h.logger, err)
		return
	}
	pending, err := h.confirm.Begin(c.Request.Context(), key)
	if err != nil {
		respondError(c, h.logger, err, http.StatusBadGateway, "unable to start return")
		return
	}
	c.JSON(http.StatusCreated, pending)
}

// ConfirmReturn marks the pending item as returned.
func (h *TrackerHandler) ConfirmReturn(c *gin.Context) {
	item, err := h.confirm.Confirm(c.Request.Context(), c.Param("token"))
	if err != nil {
		respondError(c, h.logger, err, http.StatusBadGateway, "unable to mark item as returned")
		return
	}
	c.JSON(http.StatusOK, item)
}

// CancelReturn discards a pending confirmation.
func (h *TrackerHandler) CancelReturn(c *gin.Context) {
	if err := h.confirm.Cancel(c.Param("token")); err != nil {
		respondError(c, h.logger, err, http.StatusInternalServerError, "unable to cancel return")
		return
	}
	c.Status(http.StatusNoContent)
}
