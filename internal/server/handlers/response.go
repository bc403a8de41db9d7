package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mamadbah2/challans/internal/domain/models"
	"github.com/mamadbah2/challans/internal/repository"
	"github.com/mamadbah2/challans/internal/service/assets"
	"github.com/mamadbah2/challans/internal/service/documents"
	"github.com/mamadbah2/challans/internal/service/tracker"
)

// statusFor maps service and store errors to HTTP status codes. Unknown
// errors get fallback.
func statusFor(err error, fallback int) int {
	switch {
	case errors.Is(err, models.ErrValidation), errors.Is(err, tracker.ErrNotReturnable):
		return http.StatusBadRequest
	case errors.Is(err, repository.ErrNotFound),
		errors.Is(err, tracker.ErrItemNotFound),
		errors.Is(err, tracker.ErrNoPendingConfirmation),
		errors.Is(err, documents.ErrTemplateNotFound):
		return http.StatusNotFound
	case errors.Is(err, repository.ErrDuplicate),
		errors.Is(err, repository.ErrConflict),
		errors.Is(err, assets.ErrAssetReferenced):
		return http.StatusConflict
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	}
	return fallback
}

// respondError writes {"error": ...}. Client errors echo the error text;
// server errors are logged and answered with msg.
func respondError(c *gin.Context, logger *zap.Logger, err error, fallback int, msg string) {
	status := statusFor(err, fallback)
	if status >= http.StatusInternalServerError {
		logger.Error(msg, zap.Error(err), zap.String("path", c.Request.URL.Path))
		c.JSON(status, gin.H{"error": msg})
		return
	}
	logger.Debug("request rejected", zap.Int("status", status), zap.Error(err))
	c.JSON(status, gin.H{"error": err.Error()})
}

func badBody(c *gin.Context, logger *zap.Logger, err error) {
	logger.Warn("invalid request body", zap.Error(err))
	c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
}
