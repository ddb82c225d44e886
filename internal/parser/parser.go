package parser

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/prasenjit/go-requester/internal/models"
)

// ErrorCode categorizes parse failures
type ErrorCode string

const (
	InputError      ErrorCode = "InputError"
	SyntaxError     ErrorCode = "SyntaxError"
	ValidationError ErrorCode = "ValidationError"
)

// ErrUnsupportedVersion is returned when the document is neither Swagger 2 nor OpenAPI 3
var ErrUnsupportedVersion = errors.New("unsupported document version (expected 'swagger: 2.0' or 'openapi: 3.x')")

// ParseError is a structured parse failure
type ParseError struct {
	Code    ErrorCode
	Message string
	Cause   error
}

func (e *ParseError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *ParseError) Unwrap() error { return e.Cause }

// Parser turns Swagger 2 and OpenAPI 3 documents into request templates
type Parser struct{}

// NewParser creates a new parser
func NewParser() *Parser {
	return &Parser{}
}

// ParseResult contains the parsed document and its operations
type ParseResult struct {
	Document   *models.Document
	Operations []*models.Operation
}

// Parse parses a document. A non-blank hostOverride replaces the host derived from it.
func (p *Parser) Parse(content string, hostOverride string) (*ParseResult, error) {
	if strings.TrimSpace(content) == "" {
		return nil, &ParseError{Code: InputError, Message: "document content is empty"}
	}

	version, err := detectSpecVersion([]byte(content))
	if err != nil {
		return nil, err
	}

	doc := &models.Document{
		ID:        uuid.New().String(),
		Checksum:  Checksum(content),
		Content:   content,
		CreatedAt: time.Now(),
	}

	var ops []*models.Operation
	switch version {
	case 2:
		ops, err = parseSwagger([]byte(content), doc)
	default:
		ops, err = parseOpenAPI([]byte(content), doc)
	}
	if err != nil {
		return nil, err
	}

	if host := strings.TrimSpace(hostOverride); host != "" {
		doc.Host = strings.TrimSuffix(host, "/")
		for _, op := range ops {
			op.Request.Host = doc.Host
		}
	}

	sort.SliceStable(ops, func(i, j int) bool {
		if ops[i].Path != ops[j].Path {
			return ops[i].Path < ops[j].Path
		}
		return methodRank(ops[i].Method) < methodRank(ops[j].Method)
	})

	return &ParseResult{Document: doc, Operations: ops}, nil
}

// Checksum identifies document content for duplicate detection
func Checksum(content string) string {
	return fmt.Sprintf("%016x", xxhash.Sum64String(content))
}

func detectSpecVersion(data []byte) (int, error) {
	var root map[string]any
	if err := yaml.Unmarshal(data, &root); err != nil {
		return 0, &ParseError{Code: SyntaxError, Message: "failed to decode document", Cause: err}
	}
	if v, ok := root["openapi"]; ok {
		if s, _ := v.(string); strings.HasPrefix(strings.TrimSpace(s), "3.") {
			return 3, nil
		}
	}
	if v, ok := root["swagger"]; ok {
		if s, _ := v.(string); strings.HasPrefix(strings.TrimSpace(s), "2.") {
			return 2, nil
		}
	}
	return 0, &ParseError{Code: InputError, Message: "unknown document version", Cause: ErrUnsupportedVersion}
}

var methodOrder = []string{"get", "put", "post", "delete", "options", "head", "patch"}

func methodRank(method string) int {
	for i, m := range methodOrder {
		if m == method {
			return i
		}
	}
	return len(methodOrder)
}

func newOperation(doc *models.Document, method, pathPattern, operationID, summary, description string, tags []string) *models.Operation {
	method = strings.ToLower(method)
	if operationID == "" {
		operationID = fmt.Sprintf("%s_%s", method, sanitizePath(pathPattern))
	}
	return &models.Operation{
		ID:          generateOperationID(doc.ID, method, pathPattern),
		DocumentID:  doc.ID,
		Method:      method,
		Path:        pathPattern,
		OperationID: operationID,
		Summary:     summary,
		Description: description,
		Tags:        tags,
	}
}

// sanitizePath converts a path to a valid identifier
func sanitizePath(pathPattern string) string {
	result := strings.ReplaceAll(pathPattern, "{", "")
	result = strings.ReplaceAll(result, "}", "")
	result = strings.ReplaceAll(result, "/", "_")
	result = strings.TrimPrefix(result, "_")
	result = strings.TrimSuffix(result, "_")
	return result
}

// generateOperationID hashes document ID, method and path so IDs are stable for a document
func generateOperationID(documentID, method, path string) string {
	data := fmt.Sprintf("%s:%s:%s", documentID, method, path)
	hash := sha256.Sum256([]byte(data))
	return hex.EncodeToString(hash[:16])
}
