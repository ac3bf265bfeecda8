package core

import (
	"context"
	"fmt"

	"vaultsight-backend-go/internal/db"
	"vaultsight-backend-go/internal/models"
)

// auditService implements the AuditService interface.
type auditService struct {
	auditRepo db.AuditRepository
}

// NewAuditService creates a new AuditService instance.
func NewAuditService(auditRepo db.AuditRepository) AuditService {
	return &auditService{
		auditRepo: auditRepo,
	}
}

// CreateAuditLog creates a new audit log entry. Report lifecycle actions
// (generation, critical marking, review stamping) record who did what to
// which report; storage is delegated to the AuditRepository.
func (s *auditService) CreateAuditLog(ctx context.Context, logEntry models.AuditLog) error {
	if s.auditRepo == nil {
		return fmt.Errorf("AuditRepository not initialized in AuditService")
	}

	if err := s.auditRepo.Create(ctx, logEntry); err != nil {
		return fmt.Errorf("failed to create audit log via repository: %w", err)
	}

	return nil
}
