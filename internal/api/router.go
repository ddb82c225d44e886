package api

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/prasenjit/go-requester/internal/drafts"
	"github.com/prasenjit/go-requester/internal/history"
	"github.com/prasenjit/go-requester/internal/logging"
	"github.com/prasenjit/go-requester/internal/storage"
)

// Router handles HTTP routing
type Router struct {
	engine  *gin.Engine
	handler *Handler
	stream  *history.StreamHandler
}

// NewRouter creates a new router
func NewRouter(store storage.Storage, historySvc *history.Service, registry *drafts.Registry, logger *slog.Logger) *Router {
	r := &Router{
		engine:  gin.New(),
		handler: NewHandler(store, historySvc, registry, logger),
		stream:  history.NewStreamHandler(historySvc, logger),
	}

	r.engine.Use(gin.Recovery())
	r.engine.Use(corsMiddleware())
	r.engine.Use(logging.GinMiddleware(logger))

	r.setupRoutes()

	return r
}

// setupRoutes configures all routes
func (r *Router) setupRoutes() {
	api := r.engine.Group("/_api")
	{
		// Documents
		api.GET("/documents", r.handler.ListDocuments)
		api.POST("/documents", r.handler.CreateDocument)
		api.GET("/documents/:id", r.handler.GetDocument)
		api.DELETE("/documents/:id", r.handler.DeleteDocument)

		// Operations
		api.GET("/documents/:id/operations", r.handler.ListOperations)
		api.GET("/operations/:id", r.handler.GetOperation)
		api.POST("/operations/:id/drafts", r.handler.OpenDraft)

		// Drafts
		api.GET("/drafts", r.handler.ListDrafts)
		api.POST("/drafts", r.handler.OpenBlankDraft)
		api.GET("/drafts/:id", r.handler.GetDraft)
		api.DELETE("/drafts/:id", r.handler.CloseDraft)
		api.PUT("/drafts/:id/query", r.handler.SetDraftQuery)
		api.PUT("/drafts/:id/body", r.handler.SetDraftBody)
		api.POST("/drafts/:id/reset-body", r.handler.ResetDraftBody)
		api.PUT("/drafts/:id/parameters/:name", r.handler.SetDraftParameter)
		api.PUT("/drafts/:id/header", r.handler.SetDraftHeader)
		api.PUT("/drafts/:id/binary", r.handler.SetDraftBinary)
		api.POST("/drafts/:id/submit", r.handler.SubmitDraft)

		// History
		api.GET("/history", r.handler.ListHistory)
		api.DELETE("/history", r.handler.ClearHistory)
		api.GET("/history/export.har", r.handler.ExportHAR)
		api.GET("/history/stream", gin.WrapH(r.stream))
		api.GET("/history/:key", r.handler.GetHistoryEntry)
		api.DELETE("/history/:key", r.handler.DeleteHistoryEntry)
		api.POST("/history/:key/reopen", r.handler.ReopenHistoryEntry)

		// Health
		api.GET("/health", r.handler.HealthCheck)
	}
}

// Handler returns the http.Handler
func (r *Router) Handler() http.Handler {
	return r.engine
}

// corsMiddleware adds CORS headers
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS, PATCH")
		c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Accept, Authorization")
		c.Header("Access-Control-Max-Age", "86400")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}
