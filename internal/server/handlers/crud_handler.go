package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mamadbah2/challans/internal/domain/models"
	"github.com/mamadbah2/challans/internal/service/assets"
	"github.com/mamadbah2/challans/internal/service/catalog"
)

// CRUDHandler serves list/get/create/update/delete for one record type keyed by :id.
type CRUDHandler[T any] struct {
	name   string
	list   func(ctx context.Context) ([]T, error)
	get    func(ctx context.Context, id string) (T, error)
	create func(ctx context.Context, rec T) (T, error)
	update func(ctx context.Context, id string, rec T) (T, error)
	remove func(ctx context.Context, id string) error
	logger *zap.Logger
}

// NewProjectHandler serves /projects.
func NewProjectHandler(svc *catalog.Service, logger *zap.Logger) *CRUDHandler[models.Project] {
	return &CRUDHandler[models.Project]{
		name: "project", list: svc.ListProjects, get: svc.GetProject,
		create: svc.CreateProject, update: svc.UpdateProject, remove: svc.DeleteProject,
		logger: nopIfNil(logger),
	}
}

// NewClientHandler serves /clients.
func NewClientHandler(svc *catalog.Service, logger *zap.Logger) *CRUDHandler[models.Client] {
	return &CRUDHandler[models.Client]{
		name: "client", list: svc.ListClients, get: svc.GetClient,
		create: svc.CreateClient, update: svc.UpdateClient, remove: svc.DeleteClient,
		logger: nopIfNil(logger),
	}
}

// NewLocationHandler serves /locations.
func NewLocationHandler(svc *catalog.Service, logger *zap.Logger) *CRUDHandler[models.Location] {
	return &CRUDHandler[models.Location]{
		name: "location", list: svc.ListLocations, get: svc.GetLocation,
		create: svc.CreateLocation, update: svc.UpdateLocation, remove: svc.DeleteLocation,
		logger: nopIfNil(logger),
	}
}

// NewAssetHandler serves /assets.
func NewAssetHandler(svc *assets.Service, logger *zap.Logger) *CRUDHandler[models.Asset] {
	return &CRUDHandler[models.Asset]{
		name: "asset", list: svc.List, get: svc.Get,
		create: svc.Create, update: svc.Update, remove: svc.Delete,
		logger: nopIfNil(logger),
	}
}

// List returns every record.
func (h *CRUDHandler[T]) List(c *gin.Context) {
	recs, err := h.list(c.Request.Context())
	if err != nil {
		respondError(c, h.logger, err, http.StatusInternalServerError, "unable to list "+h.name+"s")
		return
	}
	if recs == nil {
		recs = []T{}
	}
	c.JSON(http.StatusOK, recs)
}

// Get returns the record named by :id.
func (h *CRUDHandler[T]) Get(c *gin.Context) {
	rec, err := h.get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, h.logger, err, http.StatusInternalServerError, "unable to load "+h.name)
		return
	}
	c.JSON(http.StatusOK, rec)
}

// Create stores the record in the request body.
func (h *CRUDHandler[T]) Create(c *gin.Context) {
	var rec T
	if err := c.ShouldBindJSON(&rec); err != nil {
		badBody(c, h.logger, err)
		return
	}
	saved, err := h.create(c.Request.Context(), rec)
	if err != nil {
		respondError(c, h.logger, err, http.StatusInternalServerError, "unable to create "+h.name)
		return
	}
	c.JSON(http.StatusCreated, saved)
}

// Update replaces the record named by :id. The body must carry the current version.
func (h *CRUDHandler[T]) Update(c *gin.Context) {
	var rec T
	if err := c.ShouldBindJSON(&rec); err != nil {
		badBody(c, h.logger, err)
		return
	}
	saved, err := h.update(c.Request.Context(), c.Param("id"), rec)
	if err != nil {
		respondError(c, h.logger, err, http.StatusInternalServerError, "unable to update "+h.name)
		return
	}
	c.JSON(http.StatusOK, saved)
}

// Delete removes the record named by :id.
func (h *CRUDHandler[T]) Delete(c *gin.Context) {
	if err := h.remove(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, h.logger, err, http.StatusInternalServerError, "unable to delete "+h.name)
		return
	}
	c.Status(http.StatusNoContent)
}

func nopIfNil(logger *zap.Logger) *zap.Logger {
	if logger == nil {
		return zap.NewNop()
	}
	return logger
}
