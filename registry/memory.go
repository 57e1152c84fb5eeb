// Package registry provides DocumentRegistry implementations.
package registry

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/sicko7947/approvalflow"
)

// MemoryRegistry implements approvalflow.DocumentRegistry in memory. It keeps
// the document catalogue and the activity log for a single process.
type MemoryRegistry struct {
	documents  map[string]*approvalflow.Document
	activities []approvalflow.ActivityEntry
	failLog    error
	failGet    error
	mu         sync.RWMutex
}

// NewMemoryRegistry creates an empty registry
func NewMemoryRegistry() *MemoryRegistry {
	return &MemoryRegistry{
		documents: make(map[string]*approvalflow.Document),
	}
}

var _ approvalflow.DocumentRegistry = (*MemoryRegistry)(nil)

// AddDocument registers or replaces a document
func (r *MemoryRegistry) AddDocument(doc approvalflow.Document) {
	r.mu.Lock()
	defer r.mu.Unlock()

	d := doc
	r.documents[doc.ID] = &d
}

func (r *MemoryRegistry) GetDocument(ctx context.Context, documentID string) (*approvalflow.Document, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.failGet != nil {
		return nil, r.failGet
	}

	doc, exists := r.documents[documentID]
	if !exists {
		return nil, approvalflow.NewNotFoundError(fmt.Sprintf("document %s not found", documentID))
	}
	d := *doc
	return &d, nil
}

func (r *MemoryRegistry) LogActivity(ctx context.Context, entry approvalflow.ActivityEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.failLog != nil {
		return r.failLog
	}
	r.activities = append(r.activities, entry)
	return nil
}

// Activities returns the entries logged for a workflow in the order they were written
func (r *MemoryRegistry) Activities(workflowID string) []approvalflow.ActivityEntry {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []approvalflow.ActivityEntry
	for _, e := range r.activities {
		if e.WorkflowID == workflowID {
			out = append(out, e)
		}
	}
	return out
}

// DocumentActivities returns a document's entries ordered by timestamp
func (r *MemoryRegistry) DocumentActivities(documentID string) []approvalflow.ActivityEntry {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []approvalflow.ActivityEntry
	for _, e := range r.activities {
		if e.DocumentID == documentID {
			out = append(out, e)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Timestamp.Before(out[j].Timestamp)
	})
	return out
}

// FailActivityLog makes LogActivity return err until called again with nil
func (r *MemoryRegistry) FailActivityLog(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.failLog = err
}

// FailDocumentLookup makes GetDocument return err until called again with nil
func (r *MemoryRegistry) FailDocumentLookup(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.failGet = err
}
