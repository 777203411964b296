package memory

import (
	"context"
	"sync"

	"github.com/starterkit/webapp/internal/core/domain"
)

// AuditRepository appends auth events to a slice.
type AuditRepository struct {
	mu     sync.Mutex
	events []domain.AuthEvent
}

func NewAuditRepository() *AuditRepository {
	return &AuditRepository{}
}

func (r *AuditRepository) Insert(_ context.Context, event *domain.AuthEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, *event)
	return nil
}

// Events returns a copy of the recorded events in insertion order.
func (r *AuditRepository) Events() []domain.AuthEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]domain.AuthEvent, len(r.events))
	copy(out, r.events)
	return out
}
