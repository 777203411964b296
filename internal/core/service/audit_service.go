package service

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/starterkit/webapp/internal/api/metrics"
	"github.com/starterkit/webapp/internal/core/domain"
	"github.com/starterkit/webapp/internal/core/ports"
)

type auditService struct {
	repo ports.AuditRepository
	log  zerolog.Logger
}

// NewAuditService returns an AuditService that persists events to repo.
func NewAuditService(repo ports.AuditRepository, log zerolog.Logger) ports.AuditService {
	return &auditService{repo: repo, log: log}
}

// Record persists one auth event and updates the auth counters.
func (s *auditService) Record(ctx context.Context, event domain.AuthEvent) error {
	result := "failure"
	if event.Success {
		result = "success"
	}
	metrics.AuthAttemptsTotal.WithLabelValues(string(event.Type), result).Inc()

	if err := s.repo.Insert(ctx, &event); err != nil {
		return fmt.Errorf("record auth event: %w", err)
	}

	s.log.Debug().
		Str("type", string(event.Type)).
		Str("user_id", event.UserID).
		Bool("success", event.Success).
		Str("reason", event.Reason).
		Msg("auth event recorded")
	return nil
}
