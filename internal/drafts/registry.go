// Package drafts keeps the requests currently being edited. Each draft is a
// private copy of an operation's request template.
package drafts

import (
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/prasenjit/go-requester/internal/models"
)

// ErrNotFound is returned for unknown draft IDs
var ErrNotFound = errors.New("draft not found")

// Draft is an editable request
type Draft struct {
	ID          string
	OperationID string
	CreatedAt   time.Time

	mu      sync.Mutex
	request *models.RequestData
}

// Info describes a draft without exposing its request
type Info struct {
	ID          string    `json:"id"`
	OperationID string    `json:"operationId"`
	Method      string    `json:"method"`
	URL         string    `json:"url"`
	CreatedAt   time.Time `json:"createdAt"`
}

// Registry holds open drafts
type Registry struct {
	mu     sync.RWMutex
	drafts map[string]*Draft
}

// NewRegistry creates an empty registry
func NewRegistry() *Registry {
	return &Registry{drafts: make(map[string]*Draft)}
}

// Open copies template into a new draft. operationID may be empty for a blank request.
func (r *Registry) Open(operationID string, template *models.RequestData) *Draft {
	if template == nil {
		template = models.DefaultRequestData()
	}

	d := &Draft{
		ID:          uuid.New().String(),
		OperationID: operationID,
		CreatedAt:   time.Now(),
		request:     template.Clone(),
	}

	r.mu.Lock()
	r.drafts[d.ID] = d
	r.mu.Unlock()

	return d
}

// With runs fn on the draft's request while holding the draft lock
func (r *Registry) With(id string, fn func(req *models.RequestData) error) error {
	r.mu.RLock()
	d, ok := r.drafts[id]
	r.mu.RUnlock()
	if !ok {
		return fmt.Errorf("draft %s: %w", id, ErrNotFound)
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	return fn(d.request)
}

// Close discards a draft
func (r *Registry) Close(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.drafts[id]; !ok {
		return fmt.Errorf("draft %s: %w", id, ErrNotFound)
	}
	delete(r.drafts, id)
	return nil
}

// List describes every open draft, oldest first
func (r *Registry) List() []Info {
	r.mu.RLock()
	drafts := make([]*Draft, 0, len(r.drafts))
	for _, d := range r.drafts {
		drafts = append(drafts, d)
	}
	r.mu.RUnlock()

	sort.Slice(drafts, func(i, j int) bool {
		if !drafts[i].CreatedAt.Equal(drafts[j].CreatedAt) {
			return drafts[i].CreatedAt.Before(drafts[j].CreatedAt)
		}
		return drafts[i].ID < drafts[j].ID
	})

	infos := make([]Info, 0, len(drafts))
	for _, d := range drafts {
		d.mu.Lock()
		infos = append(infos, Info{
			ID:          d.ID,
			OperationID: d.OperationID,
			Method:      d.request.Type,
			URL:         d.request.URL,
			CreatedAt:   d.CreatedAt,
		})
		d.mu.Unlock()
	}
	return infos
}

// Len returns the number of open drafts
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.drafts)
}
