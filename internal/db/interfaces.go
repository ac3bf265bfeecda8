package db

import (
	"context"
	"errors"

	"vaultsight-backend-go/internal/models"
)

// ErrNotFound is returned by repositories when a requested document does not
// exist.
var ErrNotFound = errors.New("document not found")

// VaultItemRepository defines the interface for reading organization vault
// items. Items are report input only and never written by this service.
type VaultItemRepository interface {
	GetByOrganizationID(ctx context.Context, orgID string) ([]models.VaultItem, error)
}

// CollectionRepository defines the interface for reading collections with
// their direct-user and group grants.
type CollectionRepository interface {
	GetByOrganizationID(ctx context.Context, orgID string) ([]models.AccessContainer, error)
}

// MemberRepository defines the interface for reading the organization member
// roster. When includeGroups is true each member carries its resolved group
// ids.
type MemberRepository interface {
	GetByOrganizationID(ctx context.Context, orgID string, includeGroups bool) ([]models.OrgMember, error)
}

// ReportRepository defines the interface for encrypted report persistence.
type ReportRepository interface {
	Create(ctx context.Context, report *models.RiskInsightsReport) (string, error)
	GetLatestByOrg(ctx context.Context, orgID string) (*models.RiskInsightsReport, error)
	UpdateApplicationData(ctx context.Context, reportID, orgID, encryptedApplicationData string) error
	UpdateSummary(ctx context.Context, reportID, orgID, encryptedSummaryData string, metrics models.ReportMetrics) error
}

// LegacyCriticalAppRepository defines the interface for the older
// critical-application marker shape, read and deleted by the one-time
// migration only.
type LegacyCriticalAppRepository interface {
	GetByOrganizationID(ctx context.Context, orgID string) ([]models.LegacyCriticalApp, error)
	DeleteByOrganizationID(ctx context.Context, orgID string) error
}

// AuditRepository defines the interface for audit log data storage
// operations.
type AuditRepository interface {
	Create(ctx context.Context, logEntry models.AuditLog) error
}
