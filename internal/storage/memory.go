package storage

import (
	"fmt"
	"sort"
	"sync"

	"github.com/prasenjit/go-requester/internal/models"
)

// MemoryStorage implements Storage interface with in-memory storage
type MemoryStorage struct {
	mu         sync.RWMutex
	documents  map[string]*models.Document
	operations map[string]*models.Operation
	entries    map[int64]*models.HistoryEntry
	byURL      map[string]map[int64]struct{}
	nextKey    int64
}

// NewMemoryStorage creates a new in-memory storage
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{
		documents:  make(map[string]*models.Document),
		operations: make(map[string]*models.Operation),
		entries:    make(map[int64]*models.HistoryEntry),
		byURL:      make(map[string]map[int64]struct{}),
		nextKey:    1,
	}
}

// CreateDocument creates a new document
func (m *MemoryStorage) CreateDocument(doc *models.Document) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.documents[doc.ID]; exists {
		return fmt.Errorf("document with ID %s already exists", doc.ID)
	}

	m.documents[doc.ID] = doc
	return nil
}

// GetDocument retrieves a document by ID
func (m *MemoryStorage) GetDocument(id string) (*models.Document, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	doc, exists := m.documents[id]
	if !exists {
		return nil, fmt.Errorf("document %s: %w", id, ErrNotFound)
	}

	return doc, nil
}

// GetAllDocuments retrieves all documents sorted by title
func (m *MemoryStorage) GetAllDocuments() ([]*models.Document, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	docs := make([]*models.Document, 0, len(m.documents))
	for _, doc := range m.documents {
		docs = append(docs, doc)
	}

	sort.Slice(docs, func(i, j int) bool {
		if docs[i].Title != docs[j].Title {
			return docs[i].Title < docs[j].Title
		}
		return docs[i].ID < docs[j].ID
	})

	return docs, nil
}

// FindDocumentByChecksum returns the document whose content hashes to checksum
func (m *MemoryStorage) FindDocumentByChecksum(checksum string) (*models.Document, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, doc := range m.documents {
		if doc.Checksum == checksum {
			return doc, nil
		}
	}
	return nil, fmt.Errorf("document with checksum %s: %w", checksum, ErrNotFound)
}

// DeleteDocument deletes a document
func (m *MemoryStorage) DeleteDocument(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.documents[id]; !exists {
		return fmt.Errorf("document %s: %w", id, ErrNotFound)
	}

	delete(m.documents, id)
	return nil
}

// CreateOperation creates a new operation
func (m *MemoryStorage) CreateOperation(op *models.Operation) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.operations[op.ID]; exists {
		return fmt.Errorf("operation with ID %s already exists", op.ID)
	}

	m.operations[op.ID] = op
	return nil
}

// GetOperation retrieves an operation by ID
func (m *MemoryStorage) GetOperation(id string) (*models.Operation, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	op, exists := m.operations[id]
	if !exists {
		return nil, fmt.Errorf("operation %s: %w", id, ErrNotFound)
	}

	return op, nil
}

// GetOperationsByDocument retrieves all operations for a document, sorted by path then method
func (m *MemoryStorage) GetOperationsByDocument(documentID string) ([]*models.Operation, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	ops := make([]*models.Operation, 0)
	for _, op := range m.operations {
		if op.DocumentID == documentID {
			ops = append(ops, op)
		}
	}

	sortOperations(ops)
	return ops, nil
}

// DeleteOperationsByDocument deletes all operations for a document
func (m *MemoryStorage) DeleteOperationsByDocument(documentID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for id, op := range m.operations {
		if op.DocumentID == documentID {
			delete(m.operations, id)
		}
	}

	return nil
}

// AddEntry stores req under the next history key
func (m *MemoryStorage) AddEntry(req *models.RequestData) (*models.HistoryEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry := &models.HistoryEntry{Key: m.nextKey, Request: req}
	m.nextKey++
	m.putEntry(entry)
	return entry, nil
}

// putEntry indexes entry. Caller holds the write lock.
func (m *MemoryStorage) putEntry(entry *models.HistoryEntry) {
	m.entries[entry.Key] = entry
	url := entry.Request.URL
	if m.byURL[url] == nil {
		m.byURL[url] = make(map[int64]struct{})
	}
	m.byURL[url][entry.Key] = struct{}{}
}

// GetEntry retrieves a history entry by key
func (m *MemoryStorage) GetEntry(key int64) (*models.HistoryEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	entry, exists := m.entries[key]
	if !exists {
		return nil, fmt.Errorf("history entry %d: %w", key, ErrNotFound)
	}
	return entry, nil
}

// GetAllEntries retrieves all history entries
func (m *MemoryStorage) GetAllEntries() ([]*models.HistoryEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	entries := make([]*models.HistoryEntry, 0, len(m.entries))
	for _, entry := range m.entries {
		entries = append(entries, entry)
	}

	sortEntries(entries)
	return entries, nil
}

// GetEntriesByURL retrieves the history entries recorded for a request path
func (m *MemoryStorage) GetEntriesByURL(url string) ([]*models.HistoryEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	keys := m.byURL[url]
	entries := make([]*models.HistoryEntry, 0, len(keys))
	for key := range keys {
		entries = append(entries, m.entries[key])
	}

	sortEntries(entries)
	return entries, nil
}

// DeleteEntry deletes a history entry
func (m *MemoryStorage) DeleteEntry(key int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, exists := m.entries[key]
	if !exists {
		return fmt.Errorf("history entry %d: %w", key, ErrNotFound)
	}

	delete(m.entries, key)
	if keys := m.byURL[entry.Request.URL]; keys != nil {
		delete(keys, key)
		if len(keys) == 0 {
			delete(m.byURL, entry.Request.URL)
		}
	}
	return nil
}

// ClearHistory removes every history entry. Keys keep increasing.
func (m *MemoryStorage) ClearHistory() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.entries = make(map[int64]*models.HistoryEntry)
	m.byURL = make(map[string]map[int64]struct{})
	return nil
}

// Close is a no-op for memory storage
func (m *MemoryStorage) Close() error {
	return nil
}

func sortOperations(ops []*models.Operation) {
	sort.Slice(ops, func(i, j int) bool {
		if ops[i].Path != ops[j].Path {
			return ops[i].Path < ops[j].Path
		}
		return ops[i].Method < ops[j].Method
	})
}

func sortEntries(entries []*models.HistoryEntry) {
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Key < entries[j].Key
	})
}
