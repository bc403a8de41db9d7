package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mamadbah2/challans/internal/domain/models"
	"github.com/mamadbah2/challans/internal/repository"
	"github.com/mamadbah2/challans/internal/service/assets"
)

// TrackingHandler serves asset movement records.
type TrackingHandler struct {
	svc    *assets.Service
	logger *zap.Logger
}

// NewTrackingHandler constructs the HTTP handler adapter.
func NewTrackingHandler(svc *assets.Service, logger *zap.Logger) *TrackingHandler {
	return &TrackingHandler{svc: svc, logger: nopIfNil(logger)}
}

// List returns records filtered by ?asset_id= and ?type=.
func (h *TrackingHandler) List(c *gin.Context) {
	h.list(c, repository.TrackingFilter{
		AssetID:         c.Query("asset_id"),
		TransactionType: models.TransactionType(c.Query("type")),
	})
}

// ForAsset returns the movement history of the asset named by :id.
func (h *TrackingHandler) ForAsset(c *gin.Context) {
	if _, err := h.svc.Get(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, h.logger, err, http.StatusInternalServerError, "unable to load asset")
		return
	}
	h.list(c, repository.TrackingFilter{AssetID: c.Param("id")})
}

func (h *TrackingHandler) list(c *gin.Context, filter repository.TrackingFilter) {
	records, err := h.svc.ListRecords(c.Request.Context(), filter)
	if err != nil {
		respondError(c, h.logger, err, http.StatusInternalServerError, "unable to list tracking records")
		return
	}
	if records == nil {
		records = []models.TrackingRecord{}
	}
	c.JSON(http.StatusOK, records)
}

// Create records an outward or inward movement.
func (h *TrackingHandler) Create(c *gin.Context) {
	var rec models.TrackingRecord
	if err := c.ShouldBindJSON(&rec); err != nil {
		badBody(c, h.logger, err)
		return
	}
	saved, err := h.svc.Record(c.Request.Context(), rec)
	if err != nil {
		respondError(c, h.logger, err, http.StatusInternalServerError, "unable to record movement")
		return
	}
	c.JSON(http.StatusCreated, saved)
}

// Delete removes one record.
func (h *TrackingHandler) Delete(c *gin.Context) {
	if err := h.svc.DeleteRecord(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, h.logger, err, http.StatusInternalServerError, "unable to delete tracking record")
		return
	}
	c.Status(http.StatusNoContent)
}
