package leads

import (
	"context"
	"sync"
)

// Repository is the append-only lead store contract. Implementations must
// treat records as values; callers never read a lead back on the
// conversational path.
type Repository interface {
	Append(ctx context.Context, rec *LeadRecord) error
}

// Lister is implemented by repositories that can report recent leads for
// the operator endpoint.
type Lister interface {
	ListRecent(ctx context.Context, limit int) ([]*LeadRecord, error)
}

// InMemoryRepository keeps leads in memory, for tests and demo deployments.
type InMemoryRepository struct {
	mu      sync.RWMutex
	records []*LeadRecord
}

// NewInMemoryRepository creates an empty in-memory repository.
func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{}
}

var (
	_ Repository = (*InMemoryRepository)(nil)
	_ Lister     = (*InMemoryRepository)(nil)
)

// Append stores a copy of the record.
func (r *InMemoryRepository) Append(ctx context.Context, rec *LeadRecord) error {
	if err := rec.Validate(); err != nil {
		return err
	}
	cp := *rec
	r.mu.Lock()
	r.records = append(r.records, &cp)
	r.mu.Unlock()
	return nil
}

// ListRecent returns up to limit records, newest first.
func (r *InMemoryRepository) ListRecent(ctx context.Context, limit int) ([]*LeadRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if limit <= 0 || limit > len(r.records) {
		limit = len(r.records)
	}
	out := make([]*LeadRecord, 0, limit)
	for i := len(r.records) - 1; i >= 0 && len(out) < limit; i-- {
		cp := *r.records[i]
		out = append(out, &cp)
	}
	return out, nil
}

// Len reports how many leads have been appended.
func (r *InMemoryRepository) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.records)
}
