package models

import (
	"time"
)

// Document represents an uploaded Swagger or OpenAPI document
type Document struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Version     string    `json:"version"`
	Description string    `json:"description"`
	Host        string    `json:"host"`     // Scheme, host and base path requests are sent to
	Checksum    string    `json:"checksum"` // Hash of Content, used to spot duplicate uploads
	Content     string    `json:"content"`  // Raw document (YAML or JSON)
	CreatedAt   time.Time `json:"createdAt"`
}

// DocumentInput represents input for uploading a document
type DocumentInput struct {
	Content string `json:"content"`
	Host    string `json:"host"` // Overrides the host derived from the document
}

// Operation is one method and path of a document together with its request template
type Operation struct {
	ID          string       `json:"id"`
	DocumentID  string       `json:"documentId"`
	Method      string       `json:"method"` // Lowercase, as RequestData.Type
	Path        string       `json:"path"`
	OperationID string       `json:"operationId"`
	Summary     string       `json:"summary"`
	Description string       `json:"description"`
	Tags        []string     `json:"tags"`
	Request     *RequestData `json:"request"`
}

// OperationSummary is a lightweight version for listings
type OperationSummary struct {
	ID          string `json:"id"`
	DocumentID  string `json:"documentId"`
	Method      string `json:"method"`
	Path        string `json:"path"`
	OperationID string `json:"operationId"`
	Summary     string `json:"summary"`
	HasBody     bool   `json:"hasBody"`
}

// ToSummary returns the listing form of the operation
func (o *Operation) ToSummary() OperationSummary {
	return OperationSummary{
		ID:          o.ID,
		DocumentID:  o.DocumentID,
		Method:      o.Method,
		Path:        o.Path,
		OperationID: o.OperationID,
		Summary:     o.Summary,
		HasBody:     o.Request != nil && o.Request.ContainBody(),
	}
}
