package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mamadbah2/challans/internal/domain/models"
	"github.com/mamadbah2/challans/internal/service/catalog"
	"github.com/mamadbah2/challans/internal/service/challans"
	"github.com/mamadbah2/challans/internal/service/documents"
)

// ChallanHandler serves challan forms, listings and printable documents.
// DC numbers travel URL-encoded in the :dc segment.
type ChallanHandler struct {
	svc     *challans.Service
	catalog *catalog.Service
	docs    *documents.Generator
	logger  *zap.Logger
}

// NewChallanHandler constructs the HTTP handler adapter.
func NewChallanHandler(svc *challans.Service, catalogSvc *catalog.Service, docs *documents.Generator, logger *zap.Logger) *ChallanHandler {
	return &ChallanHandler{svc: svc, catalog: catalogSvc, docs: docs, logger: nopIfNil(logger)}
}

// List returns challans filtered by q, client, from and to.
func (h *ChallanHandler) List(c *gin.Context) {
	filter := challans.Filter{
		Query:  c.Query("q"),
		Client: c.Query("client"),
		From:   c.Query("from"),
		To:     c.Query("to"),
	}
	list, err := h.svc.List(c.Request.Context(), filter)
	if err != nil {
		respondError(c, h.logger, err, http.StatusInternalServerError, "unable to list challans")
		return
	}
	c.JSON(http.StatusOK, list)
}

// Get returns one challan.
func (h *ChallanHandler) Get(c *gin.Context) {
	challan, err := h.svc.Get(c.Request.Context(), c.Param("dc"))
	if err != nil {
		respondError(c, h.logger, err, http.StatusInternalServerError, "unable to load challan")
		return
	}
	c.JSON(http.StatusOK, challan)
}

// Create issues a new challan.
func (h *ChallanHandler) Create(c *gin.Context) {
	var input challans.Input
	if err := c.ShouldBindJSON(&input); err != nil {
		badBody(c, h.logger, err)
		return
	}
	challan, err := h.svc.Create(c.Request.Context(), input)
	if err != nil {
		respondError(c, h.logger, err, http.StatusInternalServerError, "unable to create challan")
		return
	}
	c.JSON(http.StatusCreated, challan)
}

// Update replaces a challan.
func (h *ChallanHandler) Update(c *gin.Context) {
	var input challans.Input
	if err := c.ShouldBindJSON(&input); err != nil {
		badBody(c, h.logger, err)
		return
	}
	challan, err := h.svc.Update(c.Request.Context(), c.Param("dc"), input)
	if err != nil {
		respondError(c, h.logger, err, http.StatusInternalServerError, "unable to update challan")
		return
	}
	c.JSON(http.StatusOK, challan)
}

// Delete removes a challan.
func (h *ChallanHandler) Delete(c *gin.Context) {
	if err := h.svc.Delete(c.Request.Context(), c.Param("dc")); err != nil {
		respondError(c, h.logger, err, http.StatusInternalServerError, "unable to delete challan")
		return
	}
	c.Status(http.StatusNoContent)
}

// RemoveItem drops one line from a challan.
func (h *ChallanHandler) RemoveItem(c *gin.Context) {
	challan, err := h.svc.RemoveItem(c.Request.Context(), c.Param("dc"), c.Param("itemID"))
	if err != nil {
		respondError(c, h.logger, err, http.StatusInternalServerError, "unable to remove item")
		return
	}
	c.JSON(http.StatusOK, challan)
}

// NextNumber previews the next DC number for ?date=YYYY-MM-DD, defaulting to today.
func (h *ChallanHandler) NextNumber(c *gin.Context) {
	var date time.Time
	if raw := c.Query("date"); raw != "" {
		d, err := models.ParseDate(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "date must be YYYY-MM-DD"})
			return
		}
		date = d
	}
	number, err := h.svc.NextNumber(c.Request.Context(), date)
	if err != nil {
		respondError(c, h.logger, err, http.StatusInternalServerError, "unable to compute next number")
		return
	}
	c.JSON(http.StatusOK, gin.H{"dc_number": number})
}

// Document renders the challan as an xlsx download using ?template=.
func (h *ChallanHandler) Document(c *gin.Context) {
	ctx := c.Request.Context()
	challan, err := h.svc.Get(ctx, c.Param("dc"))
	if err != nil {
		respondError(c, h.logger, err, http.StatusInternalServerError, "unable to load challan")
		return
	}

	data := documents.ChallanFields(challan)
	if clients, err := h.catalog.ListClients(ctx); err != nil {
		h.logger.Warn("client details unavailable for document", zap.Error(err))
	} else {
		for _, cl := range clients {
			if strings.EqualFold(cl.Name, challan.Client) {
				data = data.Merge(documents.ClientFields(cl))
				break
			}
		}
	}

	body, err := h.docs.Render(ctx, c.Query("template"), data)
	if err != nil {
		respondError(c, h.logger, err, http.StatusInternalServerError, "unable to render document")
		return
	}

	c.Header("Content-Disposition", "attachment; filename=\""+documents.FileName(challan.DCNumber)+"\"")
	c.Header("Content-Transfer-Encoding", "binary")
	c.Data(http.StatusOK, documents.ContentType, body)
}

// Templates lists the available document templates.
func (h *ChallanHandler) Templates(c *gin.Context) {
	refs, err := h.docs.Templates()
	if err != nil {
		respondError(c, h.logger, err, http.StatusInternalServerError, "unable to list templates")
		return
	}
	if refs == nil {
		refs = []string{}
	}
	c.JSON(http.StatusOK, gin.H{"templates": refs})
}
