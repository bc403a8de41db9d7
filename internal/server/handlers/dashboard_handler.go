package handlers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mamadbah2/challans/internal/domain/models"
	"github.com/mamadbah2/challans/internal/service/reporting"
)

const defaultDigestLimit = 20

// ReminderRunner triggers the overdue reminder outside its schedule.
type ReminderRunner interface {
	RunOverdueReminder(ctx context.Context) (models.OverdueDigest, error)
}

// DigestLister reads the reminder history.
type DigestLister interface {
	ListOverdueDigests(ctx context.Context, limit int) ([]models.OverdueDigest, error)
}

// DashboardHandler serves aggregates and reminder history.
type DashboardHandler struct {
	reporting *reporting.Service
	reminders ReminderRunner
	digests   DigestLister
	logger    *zap.Logger
}

// NewDashboardHandler constructs the HTTP handler adapter.
func NewDashboardHandler(reportingSvc *reporting.Service, reminders ReminderRunner, digests DigestLister, logger *zap.Logger) *DashboardHandler {
	return &DashboardHandler{reporting: reportingSvc, reminders: reminders, digests: digests, logger: nopIfNil(logger)}
}

// Dashboard returns the overview aggregates.
func (h *DashboardHandler) Dashboard(c *gin.Context) {
	dash, err := h.reporting.Dashboard(c.Request.Context())
	if err != nil {
		respondError(c, h.logger, err, http.StatusInternalServerError, "unable to build dashboard")
		return
	}
	c.JSON(http.StatusOK, dash)
}

// Digests lists recent reminders, newest first, up to ?limit=.
func (h *DashboardHandler) Digests(c *gin.Context) {
	limit := defaultDigestLimit
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a positive integer"})
			return
		}
		limit = n
	}
	digests, err := h.digests.ListOverdueDigests(c.Request.Context(), limit)
	if err != nil {
		respondError(c, h.logger, err, http.StatusInternalServerError, "unable to list reminders")
		return
	}
	if digests == nil {
		digests = []models.OverdueDigest{}
	}
	c.JSON(http.StatusOK, digests)
}

// RunReminder builds and sends the overdue reminder now.
func (h *DashboardHandler) RunReminder(c *gin.Context) {
	digest, err := h.reminders.RunOverdueReminder(c.Request.Context())
	if err != nil {
		respondError(c, h.logger, err, http.StatusBadGateway, "unable to run reminder")
		return
	}
	c.JSON(http.StatusOK, digest)
}
