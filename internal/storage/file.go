package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/prasenjit/go-requester/internal/models"
)

const historyFile = "history.json"

// FileStorage implements Storage interface with file-based persistence
type FileStorage struct {
	mu       sync.RWMutex
	basePath string
	memory   *MemoryStorage
}

// historySnapshot is the on-disk form of the history list
type historySnapshot struct {
	NextKey int64                  `json:"nextKey"`
	Entries []*models.HistoryEntry `json:"entries"`
}

// NewFileStorage creates a new file-based storage
func NewFileStorage(basePath string) (*FileStorage, error) {
	dirs := []string{
		basePath,
		filepath.Join(basePath, "documents"),
		filepath.Join(basePath, "operations"),
	}

	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}

	fs := &FileStorage{
		basePath: basePath,
		memory:   NewMemoryStorage(),
	}

	if err := fs.loadAll(); err != nil {
		return nil, err
	}

	return fs, nil
}

// loadAll loads all data from disk
func (f *FileStorage) loadAll() error {
	err := loadDir(filepath.Join(f.basePath, "documents"), func(data []byte) error {
		var doc models.Document
		if err := json.Unmarshal(data, &doc); err != nil {
			return err
		}
		f.memory.documents[doc.ID] = &doc
		return nil
	})
	if err != nil {
		return err
	}

	err = loadDir(filepath.Join(f.basePath, "operations"), func(data []byte) error {
		var op models.Operation
		if err := json.Unmarshal(data, &op); err != nil {
			return err
		}
		f.memory.operations[op.ID] = &op
		return nil
	})
	if err != nil {
		return err
	}

	data, err := os.ReadFile(filepath.Join(f.basePath, historyFile))
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read history: %w", err)
	}

	var snap historySnapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return fmt.Errorf("failed to decode history: %w", err)
	}
	for _, entry := range snap.Entries {
		if entry == nil || entry.Request == nil {
			continue
		}
		f.memory.putEntry(entry)
		if entry.Key >= snap.NextKey {
			snap.NextKey = entry.Key + 1
		}
	}
	if snap.NextKey > f.memory.nextKey {
		f.memory.nextKey = snap.NextKey
	}

	return nil
}

// loadDir feeds every .json file in dir to decode. Unreadable files are skipped.
func loadDir(dir string, decode func([]byte) error) error {
	entries, err := os.ReadDir(dir)
	if err != nil && !os.IsNotExist(err) {
		return err
	}

	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".json" {
			continue
		}

		data, err := os.ReadFile(filepath.Join(dir, entry.Name()))
		if err != nil {
			continue
		}
		_ = decode(data)
	}
	return nil
}

func (f *FileStorage) saveJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	return atomicWriteFile(path, data, 0644)
}

func (f *FileStorage) documentPath(id string) string {
	return filepath.Join(f.basePath, "documents", id+".json")
}

func (f *FileStorage) operationPath(id string) string {
	return filepath.Join(f.basePath, "operations", id+".json")
}

// saveHistory rewrites history.json. Caller holds f.mu.
func (f *FileStorage) saveHistory() error {
	entries, err := f.memory.GetAllEntries()
	if err != nil {
		return err
	}

	f.memory.mu.RLock()
	next := f.memory.nextKey
	f.memory.mu.RUnlock()

	return f.saveJSON(filepath.Join(f.basePath, historyFile), historySnapshot{NextKey: next, Entries: entries})
}

// CreateDocument creates a new document
func (f *FileStorage) CreateDocument(doc *models.Document) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.memory.CreateDocument(doc); err != nil {
		return err
	}

	return f.saveJSON(f.documentPath(doc.ID), doc)
}

// GetDocument retrieves a document by ID
func (f *FileStorage) GetDocument(id string) (*models.Document, error) {
	return f.memory.GetDocument(id)
}

// GetAllDocuments retrieves all documents
func (f *FileStorage) GetAllDocuments() ([]*models.Document, error) {
	return f.memory.GetAllDocuments()
}

// FindDocumentByChecksum returns the document whose content hashes to checksum
func (f *FileStorage) FindDocumentByChecksum(checksum string) (*models.Document, error) {
	return f.memory.FindDocumentByChecksum(checksum)
}

// DeleteDocument deletes a document
func (f *FileStorage) DeleteDocument(id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.memory.DeleteDocument(id); err != nil {
		return err
	}

	if err := os.Remove(f.documentPath(id)); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// CreateOperation creates a new operation
func (f *FileStorage) CreateOperation(op *models.Operation) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.memory.CreateOperation(op); err != nil {
		return err
	}

	return f.saveJSON(f.operationPath(op.ID), op)
}

// GetOperation retrieves an operation by ID
func (f *FileStorage) GetOperation(id string) (*models.Operation, error) {
	return f.memory.GetOperation(id)
}

// GetOperationsByDocument retrieves all operations for a document
func (f *FileStorage) GetOperationsByDocument(documentID string) ([]*models.Operation, error) {
	return f.memory.GetOperationsByDocument(documentID)
}

// DeleteOperationsByDocument deletes all operations for a document
func (f *FileStorage) DeleteOperationsByDocument(documentID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	ops, err := f.memory.GetOperationsByDocument(documentID)
	if err != nil {
		return err
	}

	if err := f.memory.DeleteOperationsByDocument(documentID); err != nil {
		return err
	}

	for _, op := range ops {
		if err := os.Remove(f.operationPath(op.ID)); err != nil && !os.IsNotExist(err) {
			return err
		}
	}

	return nil
}

// AddEntry stores req under the next history key
func (f *FileStorage) AddEntry(req *models.RequestData) (*models.HistoryEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	entry, err := f.memory.AddEntry(req)
	if err != nil {
		return nil, err
	}
	if err := f.saveHistory(); err != nil {
		return nil, err
	}
	return entry, nil
}

// GetEntry retrieves a history entry by key
func (f *FileStorage) GetEntry(key int64) (*models.HistoryEntry, error) {
	return f.memory.GetEntry(key)
}

// GetAllEntries retrieves all history entries
func (f *FileStorage) GetAllEntries() ([]*models.HistoryEntry, error) {
	return f.memory.GetAllEntries()
}

// GetEntriesByURL retrieves the history entries recorded for a request path
func (f *FileStorage) GetEntriesByURL(url string) ([]*models.HistoryEntry, error) {
	return f.memory.GetEntriesByURL(url)
}

// DeleteEntry deletes a history entry
func (f *FileStorage) DeleteEntry(key int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.memory.DeleteEntry(key); err != nil {
		return err
	}
	return f.saveHistory()
}

// ClearHistory removes every history entry
func (f *FileStorage) ClearHistory() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.memory.ClearHistory(); err != nil {
		return err
	}
	return f.saveHistory()
}

// Close closes the storage
func (f *FileStorage) Close() error {
	return nil
}

// atomicWriteFile writes data to a temp file in the same directory and renames it over path
func atomicWriteFile(path string, data []byte, perm os.FileMode) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()

	success := false
	defer func() {
		if !success {
			os.Remove(tmpPath)
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Chmod(tmpPath, perm); err != nil {
		return fmt.Errorf("chmod temp file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("rename temp file: %w", err)
	}

	success = true
	return nil
}
