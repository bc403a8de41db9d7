package router

import (
	"net/http"
	"time"

	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mamadbah2/challans/internal/domain/models"
	"github.com/mamadbah2/challans/internal/server/handlers"
)

// Handlers bundles the HTTP adapters mounted under /api.
type Handlers struct {
	Challans  *handlers.ChallanHandler
	Tracker   *handlers.TrackerHandler
	Tracking  *handlers.TrackingHandler
	Dashboard *handlers.DashboardHandler
	Projects  *handlers.CRUDHandler[models.Project]
	Clients   *handlers.CRUDHandler[models.Client]
	Locations *handlers.CRUDHandler[models.Location]
	Assets    *handlers.CRUDHandler[models.Asset]
}

// New wires the Gin engine with required routes and middlewares.
func New(h Handlers, logger *zap.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()
	// DC numbers contain slashes and arrive percent-encoded in a single segment.
	r.UseRawPath = true
	r.UnescapePathValues = true

	r.Use(gin.Recovery())
	r.Use(zapLoggerMiddleware(logger))
	// Document downloads are already compressed xlsx archives.
	r.Use(gzip.Gzip(gzip.DefaultCompression, gzip.WithExcludedPathsRegexs([]string{`/document$`})))

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := r.Group("/api")

	api.GET("/challans", h.Challans.List)
	api.POST("/challans", h.Challans.Create)
	api.GET("/challans/next-number", h.Challans.NextNumber)
	api.GET("/challans/templates", h.Challans.Templates)
	api.GET("/challans/:dc", h.Challans.Get)
	api.PUT("/challans/:dc", h.Challans.Update)
	api.DELETE("/challans/:dc", h.Challans.Delete)
	api.DELETE("/challans/:dc/items/:itemID", h.Challans.RemoveItem)
	api.GET("/challans/:dc/document", h.Challans.Document)

	crud(api, "/projects", h.Projects)
	crud(api, "/clients", h.Clients)
	crud(api, "/locations", h.Locations)
	crud(api, "/assets", h.Assets)
	api.GET("/assets/:id/tracking", h.Tracking.ForAsset)

	api.GET("/tracking-records", h.Tracking.List)
	api.POST("/tracking-records", h.Tracking.Create)
	api.DELETE("/tracking-records/:id", h.Tracking.Delete)

	api.GET("/tracker", h.Tracker.View)
	api.POST("/tracker/refresh", h.Tracker.Refresh)
	api.POST("/tracker/returns", h.Tracker.BeginReturn)
	api.POST("/tracker/returns/:token/confirm", h.Tracker.ConfirmReturn)
	api.DELETE("/tracker/returns/:token", h.Tracker.CancelReturn)

	api.GET("/dashboard", h.Dashboard.Dashboard)
	api.GET("/reminders", h.Dashboard.Digests)
	api.POST("/reminders/run", h.Dashboard.RunReminder)

	if logger != nil {
		logger.Info("router initialized")
	}

	return r
}

func crud[T any](g *gin.RouterGroup, path string, h *handlers.CRUDHandler[T]) {
	g.GET(path, h.List)
	g.POST(path, h.Create)
	g.GET(path+"/:id", h.Get)
	g.PUT(path+"/:id", h.Update)
	g.DELETE(path+"/:id", h.Delete)
}

func zapLoggerMiddleware(logger *zap.Logger) gin.HandlerFunc {
	if logger == nil {
		logger = zap.NewNop()
	}

	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		logger.Info("request completed",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("duration", time.Since(start)),
			zap.String("client_ip", c.ClientIP()))
	}
}
