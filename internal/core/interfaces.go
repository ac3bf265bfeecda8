package core

import (
	"context"

	"vaultsight-backend-go/internal/batch"
	"vaultsight-backend-go/internal/models"
)

// StrengthEstimator scores a password on the 0-4 scale. Email and
// username-derived tokens are auxiliary inputs that lower the score of
// passwords built from them.
type StrengthEstimator interface {
	Score(password, email string, userInputs []string) int
}

// BreachOracle checks a password against an external breach-count source.
// Zero means not found in any known breach.
type BreachOracle interface {
	CheckPasswordExposure(ctx context.Context, password string) (int, error)
}

// RosterCache is a short-lived read-through cache of the organization member
// roster, keyed by organization id. It must be invalidated (or expire) before
// being reused for a different organization.
type RosterCache interface {
	GetMembers(ctx context.Context, orgID string) ([]models.OrgMember, error)
	Invalidate(orgID string) error
}

// AccessGraphService builds the item-centric access graph from vault items,
// collections with grants, and the resolved member roster.
type AccessGraphService interface {
	// BuildAccessGraph returns one entry per input item, in input order.
	BuildAccessGraph(items []models.VaultItem, containers []models.AccessContainer, members []models.OrgMember) []*models.ItemAccessEntry
	// BuildAccessGraphProgressive is the batched variant: it emits a running
	// tally after every batch and a terminal record carrying the full graph.
	BuildAccessGraphProgressive(ctx context.Context, items []models.VaultItem, containers []models.AccessContainer, members []models.OrgMember, batchSize int) <-chan batch.Progress[*models.ItemAccessEntry]
}

// MemberAccessService pivots the item-centric access graph into member-centric
// summaries and per-member detail views, and serves both over live org data.
type MemberAccessService interface {
	PivotToMemberSummaries(entries []*models.ItemAccessEntry) []models.MemberAccessSummary
	MemberAccessDetail(entries []*models.ItemAccessEntry, memberID string) *models.MemberAccessDetailView
	GetMemberAccessSummaries(ctx context.Context, orgID string) ([]models.MemberAccessSummary, error)
	GetMemberAccessDetail(ctx context.Context, orgID, memberID string) (*models.MemberAccessDetailView, error)
}

// PasswordHealthService analyzes vault items for weak, reused, and
// breach-exposed passwords.
type PasswordHealthService interface {
	IsValidForHealthCheck(item models.VaultItem) bool
	FindWeakPassword(item models.VaultItem) *models.WeakPasswordFinding
	FindReusedPasswords(items []models.VaultItem) map[string]bool
	AuditExposedPasswords(ctx context.Context, items []models.VaultItem) []models.ExposedPasswordFinding
	AuditExposedPasswordsProgressive(ctx context.Context, items []models.VaultItem, batchSize int) <-chan batch.Progress[models.ExposedPasswordFinding]
	// AnalyzeHealth combines all three signals into one finding per valid item.
	AnalyzeHealth(ctx context.Context, items []models.VaultItem) ([]models.PasswordHealthFinding, error)
}

// ReportEncryptionService encrypts and decrypts the three report sections
// under one wrapped content key.
type ReportEncryptionService interface {
	// EncryptReportBundle encrypts all sections. When wrappedKey is empty a
	// fresh content key is generated; otherwise the existing key is unwrapped
	// and reused so section-level updates stay consistent.
	EncryptReportBundle(orgID string, bundle models.DecryptedReportBundle, wrappedKey string) (*EncryptedReportSections, error)
	DecryptReportBundle(orgID string, report *models.RiskInsightsReport) (models.DecryptedReportBundle, error)
	// EncryptSection encrypts a single JSON-serializable section under an
	// already-wrapped content key.
	EncryptSection(orgID string, wrappedKey string, section interface{}) (string, error)
}

// EncryptedReportSections is the output of a full bundle encryption.
type EncryptedReportSections struct {
	WrappedKey               string
	EncryptedReportData      string
	EncryptedSummaryData     string
	EncryptedApplicationData string
}

// RiskReportService owns the end-to-end report lifecycle as a state machine.
// Its methods never panic and never return raw errors to callers; every
// failure is folded into the Error arm of the returned ReportState. The one
// exception is flagged on the state itself: decrypt validation failures set
// ValidationFailure so callers can distinguish corruption from transient
// faults.
type RiskReportService interface {
	InitializeForOrganization(ctx context.Context, orgID, userID string) models.ReportState
	FetchReport(ctx context.Context, orgID, userID string) models.ReportState
	GenerateReport(ctx context.Context, orgID, userID string) models.ReportState
	SaveCriticalApplications(ctx context.Context, orgID, userID string, names []string) models.ReportState
	RemoveCriticalApplication(ctx context.Context, orgID, userID, name string) models.ReportState
	SaveApplicationReviewStatus(ctx context.Context, orgID, userID string, criticalNames []string) models.ReportState
	// CriticalReportResults projects the current state down to critical-flagged
	// applications with the summary recomputed over that subset.
	CriticalReportResults() models.ReportState
	State() models.ReportState
}

// AuditService defines the interface for audit logging operations.
type AuditService interface {
	CreateAuditLog(ctx context.Context, logEntry models.AuditLog) error
}
