package history

import (
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/prasenjit/go-requester/internal/config"
	"github.com/prasenjit/go-requester/internal/models"
	"github.com/prasenjit/go-requester/internal/storage"
)

const subscriberBuffer = 100

// Service records submitted requests and notifies live subscribers
type Service struct {
	store      storage.Storage
	maxEntries int
	dedupe     bool
	logger     *slog.Logger

	// recordMu serialises Record so dedupe and trimming see a stable list
	recordMu sync.Mutex

	mu          sync.RWMutex
	subscribers map[string]chan *models.HistoryEntry
}

// NewService creates a history service on top of store
func NewService(store storage.Storage, cfg config.HistoryConfig, logger *slog.Logger) *Service {
	return &Service{
		store:       store,
		maxEntries:  cfg.MaxEntries,
		dedupe:      cfg.Dedupe,
		logger:      logger,
		subscribers: make(map[string]chan *models.HistoryEntry),
	}
}

// Record stamps req through HashID and stores a copy of it. With dedupe
// enabled earlier entries with the same ID are removed first.
func (s *Service) Record(req *models.RequestData) (*models.HistoryEntry, error) {
	if req == nil {
		return nil, fmt.Errorf("request is required")
	}

	s.recordMu.Lock()

	id := req.HashID()
	snapshot := req.Clone()

	if s.dedupe {
		if err := s.removeWithID(id); err != nil {
			s.recordMu.Unlock()
			return nil, err
		}
	}

	entry, err := s.store.AddEntry(snapshot)
	if err != nil {
		s.recordMu.Unlock()
		return nil, fmt.Errorf("failed to record request: %w", err)
	}

	if err := s.trim(); err != nil {
		s.logger.Warn("Failed to trim history", "error", err)
	}

	s.recordMu.Unlock()

	s.logger.Debug("Recorded request", "key", entry.Key, "id", id, "method", snapshot.Type, "url", snapshot.URL)
	s.publish(entry)
	return entry, nil
}

func (s *Service) removeWithID(id int32) error {
	entries, err := s.store.GetAllEntries()
	if err != nil {
		return err
	}
	for _, e := range entries {
		if e.Request.ID != id {
			continue
		}
		if err := s.store.DeleteEntry(e.Key); err != nil {
			return fmt.Errorf("failed to replace history entry %d: %w", e.Key, err)
		}
	}
	return nil
}

func (s *Service) trim() error {
	if s.maxEntries <= 0 {
		return nil
	}
	entries, err := s.store.GetAllEntries()
	if err != nil {
		return err
	}
	for i := 0; i < len(entries)-s.maxEntries; i++ {
		if err := s.store.DeleteEntry(entries[i].Key); err != nil {
			return err
		}
	}
	return nil
}

// List returns entries newest first. A non-blank query keeps only entries whose request includes it.
func (s *Service) List(query string) ([]*models.HistoryEntry, error) {
	entries, err := s.store.GetAllEntries()
	if err != nil {
		return nil, err
	}

	query = strings.TrimSpace(query)
	result := make([]*models.HistoryEntry, 0, len(entries))
	for _, e := range entries {
		if query == "" || e.Request.Includes(query) {
			result = append(result, e)
		}
	}

	newestFirst(result)
	return result, nil
}

// ByURL returns the entries recorded for a request path, newest first
func (s *Service) ByURL(url string) ([]*models.HistoryEntry, error) {
	entries, err := s.store.GetEntriesByURL(url)
	if err != nil {
		return nil, err
	}
	newestFirst(entries)
	return entries, nil
}

// Get returns a single entry
func (s *Service) Get(key int64) (*models.HistoryEntry, error) {
	return s.store.GetEntry(key)
}

// Delete removes a single entry
func (s *Service) Delete(key int64) error {
	return s.store.DeleteEntry(key)
}

// Clear removes every entry
func (s *Service) Clear() error {
	return s.store.ClearHistory()
}

// Subscribe creates a subscription for newly recorded entries
func (s *Service) Subscribe() (string, chan *models.HistoryEntry) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := uuid.New().String()
	ch := make(chan *models.HistoryEntry, subscriberBuffer)
	s.subscribers[id] = ch

	return id, ch
}

// Unsubscribe removes a subscription and closes its channel
func (s *Service) Unsubscribe(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if ch, ok := s.subscribers[id]; ok {
		close(ch)
		delete(s.subscribers, id)
	}
}

// SubscriberCount returns the number of live subscriptions
func (s *Service) SubscriberCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.subscribers)
}

func (s *Service) publish(entry *models.HistoryEntry) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, ch := range s.subscribers {
		select {
		case ch <- entry:
		default:
			// Channel full, skip
		}
	}
}

func newestFirst(entries []*models.HistoryEntry) {
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Key > entries[j].Key
	})
}
