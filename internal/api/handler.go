package api

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/prasenjit/go-requester/internal/drafts"
	"github.com/prasenjit/go-requester/internal/history"
	"github.com/prasenjit/go-requester/internal/models"
	"github.com/prasenjit/go-requester/internal/parser"
	"github.com/prasenjit/go-requester/internal/storage"
)

// Handler handles API requests
type Handler struct {
	store   storage.Storage
	history *history.Service
	drafts  *drafts.Registry
	parser  *parser.Parser
	logger  *slog.Logger
}

// NewHandler creates a new API handler
func NewHandler(store storage.Storage, historySvc *history.Service, registry *drafts.Registry, logger *slog.Logger) *Handler {
	return &Handler{
		store:   store,
		history: historySvc,
		drafts:  registry,
		parser:  parser.NewParser(),
		logger:  logger,
	}
}

// respondError maps lookup failures to 404 and everything else to 500
func respondError(c *gin.Context, err error) {
	if errors.Is(err, storage.ErrNotFound) || errors.Is(err, drafts.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	_ = c.Error(err)
	c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
}

// ListDocuments returns all documents without their content
func (h *Handler) ListDocuments(c *gin.Context) {
	docs, err := h.store.GetAllDocuments()
	if err != nil {
		respondError(c, err)
		return
	}

	result := make([]gin.H, len(docs))
	for i, doc := range docs {
		ops, _ := h.store.GetOperationsByDocument(doc.ID)
		result[i] = gin.H{
			"id":             doc.ID,
			"title":          doc.Title,
			"version":        doc.Version,
			"description":    doc.Description,
			"host":           doc.Host,
			"checksum":       doc.Checksum,
			"createdAt":      doc.CreatedAt,
			"operationCount": len(ops),
		}
	}

	c.JSON(http.StatusOK, result)
}

// CreateDocument parses and stores a Swagger 2 or OpenAPI 3 document
func (h *Handler) CreateDocument(c *gin.Context) {
	var input models.DocumentInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if existing, err := h.store.FindDocumentByChecksum(parser.Checksum(input.Content)); err == nil {
		c.JSON(http.StatusConflict, gin.H{"error": "Document already uploaded", "id": existing.ID})
		return
	}

	result, err := h.parser.Parse(input.Content, input.Host)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid document: " + err.Error()})
		return
	}

	if err := h.store.CreateDocument(result.Document); err != nil {
		respondError(c, err)
		return
	}

	for _, op := range result.Operations {
		if err := h.store.CreateOperation(op); err != nil {
			// Roll back the document on error
			_ = h.store.DeleteOperationsByDocument(result.Document.ID)
			_ = h.store.DeleteDocument(result.Document.ID)
			respondError(c, err)
			return
		}
	}

	h.logger.Info("Document uploaded",
		"id", result.Document.ID,
		"title", result.Document.Title,
		"operations", len(result.Operations))

	c.JSON(http.StatusCreated, gin.H{
		"id":             result.Document.ID,
		"title":          result.Document.Title,
		"version":        result.Document.Version,
		"host":           result.Document.Host,
		"operationCount": len(result.Operations),
	})
}

// GetDocument returns a single document including its content
func (h *Handler) GetDocument(c *gin.Context) {
	doc, err := h.store.GetDocument(c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, doc)
}

// DeleteDocument deletes a document and its operations
func (h *Handler) DeleteDocument(c *gin.Context) {
	id := c.Param("id")

	if _, err := h.store.GetDocument(id); err != nil {
		respondError(c, err)
		return
	}

	if err := h.store.DeleteOperationsByDocument(id); err != nil {
		respondError(c, err)
		return
	}
	if err := h.store.DeleteDocument(id); err != nil {
		respondError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// ListOperations returns the operations of a document
func (h *Handler) ListOperations(c *gin.Context) {
	id := c.Param("id")

	if _, err := h.store.GetDocument(id); err != nil {
		respondError(c, err)
		return
	}

	ops, err := h.store.GetOperationsByDocument(id)
	if err != nil {
		respondError(c, err)
		return
	}

	result := make([]models.OperationSummary, len(ops))
	for i, op := range ops {
		result[i] = op.ToSummary()
	}

	c.JSON(http.StatusOK, result)
}

// GetOperation returns an operation with its rendered request template
func (h *Handler) GetOperation(c *gin.Context) {
	op, err := h.store.GetOperation(c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, newOperationView(op))
}

// HealthCheck returns health status
func (h *Handler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":      "healthy",
		"timestamp":   time.Now().Format(time.RFC3339),
		"drafts":      h.drafts.Len(),
		"subscribers": h.history.SubscriberCount(),
	})
}
