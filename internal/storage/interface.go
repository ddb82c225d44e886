package storage

import (
	"errors"

	"github.com/prasenjit/go-requester/internal/models"
)

// ErrNotFound is returned when a document, operation or history entry does not exist
var ErrNotFound = errors.New("not found")

// Storage defines the interface for data persistence
type Storage interface {
	// Document operations
	CreateDocument(doc *models.Document) error
	GetDocument(id string) (*models.Document, error)
	GetAllDocuments() ([]*models.Document, error)
	FindDocumentByChecksum(checksum string) (*models.Document, error)
	DeleteDocument(id string) error

	// Operation operations
	CreateOperation(op *models.Operation) error
	GetOperation(id string) (*models.Operation, error)
	GetOperationsByDocument(documentID string) ([]*models.Operation, error)
	DeleteOperationsByDocument(documentID string) error

	// History operations. Entries are returned oldest first.
	AddEntry(req *models.RequestData) (*models.HistoryEntry, error)
	GetEntry(key int64) (*models.HistoryEntry, error)
	GetAllEntries() ([]*models.HistoryEntry, error)
	GetEntriesByURL(url string) ([]*models.HistoryEntry, error)
	DeleteEntry(key int64) error
	ClearHistory() error

	// Utility
	Close() error
}
