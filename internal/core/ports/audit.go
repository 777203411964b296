package ports

import (
	"context"

	"github.com/starterkit/webapp/internal/core/domain"
)

// AuditRepository persists auth audit events.
type AuditRepository interface {
	Insert(ctx context.Context, event *domain.AuthEvent) error
}

// AuditService records a single auth event.
type AuditService interface {
	Record(ctx context.Context, event domain.AuthEvent) error
}

// AuditSink is the fire-and-forget entry point the auth service publishes to.
type AuditSink interface {
	Enqueue(event domain.AuthEvent)
}
