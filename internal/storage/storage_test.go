package storage

import (
	"errors"
	"testing"
	"time"

	"github.com/prasenjit/go-requester/internal/models"
)

var (
	_ Storage = (*MemoryStorage)(nil)
	_ Storage = (*FileStorage)(nil)
	_ Storage = (*MongoStorage)(nil)
)

func newTestDocument(id, title string) *models.Document {
	return &models.Document{
		ID:        id,
		Title:     title,
		Version:   "1.0.0",
		Checksum:  "sum-" + id,
		Content:   "swagger: '2.0'",
		CreatedAt: time.Now().UTC().Truncate(time.Millisecond),
	}
}

func newTestOperation(id, docID, method, path string) *models.Operation {
	params := []models.Parameter{
		&models.QueryParameter{ParamCommon: models.ParamCommon{Name: "q", Value: "x"}},
	}
	return &models.Operation{
		ID:         id,
		DocumentID: docID,
		Method:     method,
		Path:       path,
		Request:    models.NewRequestData(method, path, params, nil, "http://api"),
	}
}

func newTestRequest(url string) *models.RequestData {
	return models.NewRequestData("get", url, nil, nil, "http://api")
}

// runStorageSuite exercises the behaviour every backend shares
func runStorageSuite(t *testing.T, s Storage) {
	t.Run("Documents", func(t *testing.T) {
		if err := s.CreateDocument(newTestDocument("d2", "Zoo")); err != nil {
			t.Fatalf("CreateDocument failed: %v", err)
		}
		if err := s.CreateDocument(newTestDocument("d1", "Accounts")); err != nil {
			t.Fatalf("CreateDocument failed: %v", err)
		}
		if err := s.CreateDocument(newTestDocument("d1", "Again")); err == nil {
			t.Error("Expected error for duplicate document")
		}

		doc, err := s.GetDocument("d1")
		if err != nil {
			t.Fatalf("GetDocument failed: %v", err)
		}
		if doc.Title != "Accounts" {
			t.Errorf("Expected title 'Accounts', got %q", doc.Title)
		}

		docs, err := s.GetAllDocuments()
		if err != nil {
			t.Fatalf("GetAllDocuments failed: %v", err)
		}
		if len(docs) != 2 || docs[0].ID != "d1" || docs[1].ID != "d2" {
			t.Errorf("Expected documents sorted by title, got %d", len(docs))
		}

		found, err := s.FindDocumentByChecksum("sum-d2")
		if err != nil {
			t.Fatalf("FindDocumentByChecksum failed: %v", err)
		}
		if found.ID != "d2" {
			t.Errorf("Expected d2, got %s", found.ID)
		}
		if _, err := s.FindDocumentByChecksum("missing"); !errors.Is(err, ErrNotFound) {
			t.Errorf("Expected ErrNotFound, got %v", err)
		}

		if err := s.DeleteDocument("d2"); err != nil {
			t.Fatalf("DeleteDocument failed: %v", err)
		}
		if _, err := s.GetDocument("d2"); !errors.Is(err, ErrNotFound) {
			t.Errorf("Expected ErrNotFound after delete, got %v", err)
		}
		if err := s.DeleteDocument("d2"); !errors.Is(err, ErrNotFound) {
			t.Errorf("Expected ErrNotFound deleting twice, got %v", err)
		}
	})

	t.Run("Operations", func(t *testing.T) {
		ops := []*models.Operation{
			newTestOperation("o3", "d1", "post", "/users"),
			newTestOperation("o1", "d1", "get", "/users"),
			newTestOperation("o2", "d1", "get", "/accounts"),
			newTestOperation("o4", "other", "get", "/x"),
		}
		for _, op := range ops {
			if err := s.CreateOperation(op); err != nil {
				t.Fatalf("CreateOperation failed: %v", err)
			}
		}

		op, err := s.GetOperation("o1")
		if err != nil {
			t.Fatalf("GetOperation failed: %v", err)
		}
		if op.Request == nil || op.Request.Query() != "/users?q=x" {
			t.Errorf("Expected request template to survive, got %+v", op.Request)
		}

		byDoc, err := s.GetOperationsByDocument("d1")
		if err != nil {
			t.Fatalf("GetOperationsByDocument failed: %v", err)
		}
		want := []string{"o2", "o1", "o3"}
		if len(byDoc) != len(want) {
			t.Fatalf("Expected %d operations, got %d", len(want), len(byDoc))
		}
		for i, id := range want {
			if byDoc[i].ID != id {
				t.Errorf("Operation %d: expected %s, got %s", i, id, byDoc[i].ID)
			}
		}

		if err := s.DeleteOperationsByDocument("d1"); err != nil {
			t.Fatalf("DeleteOperationsByDocument failed: %v", err)
		}
		if _, err := s.GetOperation("o1"); !errors.Is(err, ErrNotFound) {
			t.Errorf("Expected ErrNotFound, got %v", err)
		}
		if _, err := s.GetOperation("o4"); err != nil {
			t.Errorf("Expected other document's operation to remain, got %v", err)
		}
	})

	t.Run("History", func(t *testing.T) {
		first, err := s.AddEntry(newTestRequest("/a"))
		if err != nil {
			t.Fatalf("AddEntry failed: %v", err)
		}
		second, _ := s.AddEntry(newTestRequest("/b"))
		third, _ := s.AddEntry(newTestRequest("/a"))

		if !(first.Key < second.Key && second.Key < third.Key) {
			t.Errorf("Expected increasing keys, got %d %d %d", first.Key, second.Key, third.Key)
		}

		entry, err := s.GetEntry(second.Key)
		if err != nil {
			t.Fatalf("GetEntry failed: %v", err)
		}
		if entry.Request.URL != "/b" {
			t.Errorf("Expected /b, got %s", entry.Request.URL)
		}

		all, _ := s.GetAllEntries()
		if len(all) != 3 || all[0].Key != first.Key || all[2].Key != third.Key {
			t.Errorf("Expected 3 entries oldest first, got %d", len(all))
		}

		byURL, _ := s.GetEntriesByURL("/a")
		if len(byURL) != 2 {
			t.Errorf("Expected 2 entries for /a, got %d", len(byURL))
		}

		if err := s.DeleteEntry(first.Key); err != nil {
			t.Fatalf("DeleteEntry failed: %v", err)
		}
		if err := s.DeleteEntry(first.Key); !errors.Is(err, ErrNotFound) {
			t.Errorf("Expected ErrNotFound, got %v", err)
		}
		byURL, _ = s.GetEntriesByURL("/a")
		if len(byURL) != 1 {
			t.Errorf("Expected 1 entry for /a after delete, got %d", len(byURL))
		}

		if err := s.ClearHistory(); err != nil {
			t.Fatalf("ClearHistory failed: %v", err)
		}
		all, _ = s.GetAllEntries()
		if len(all) != 0 {
			t.Errorf("Expected empty history, got %d", len(all))
		}
		if _, err := s.GetEntry(second.Key); !errors.Is(err, ErrNotFound) {
			t.Errorf("Expected ErrNotFound after clear, got %v", err)
		}

		next, _ := s.AddEntry(newTestRequest("/c"))
		if next.Key <= third.Key {
			t.Errorf("Expected keys to keep increasing after clear, got %d", next.Key)
		}
	})
}

func TestMemoryStorage(t *testing.T) {
	s := NewMemoryStorage()
	defer s.Close()
	runStorageSuite(t, s)
}

func TestMemoryStorage_EntriesForUnknownURL(t *testing.T) {
	s := NewMemoryStorage()

	entries, err := s.GetEntriesByURL("/nothing")
	if err != nil {
		t.Fatalf("GetEntriesByURL failed: %v", err)
	}
	if entries == nil || len(entries) != 0 {
		t.Errorf("Expected empty non-nil slice, got %v", entries)
	}
}
