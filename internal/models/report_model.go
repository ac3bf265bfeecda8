package models

import "time"

// WeakPasswordFinding is returned for items whose password scores at or below
// the configured weak threshold on the 0-4 strength scale.
type WeakPasswordFinding struct {
	ItemID string `json:"itemId"`
	Score  int    `json:"score"`
	Label  string `json:"label"` // "veryWeak", "weak", "good", "strong"
}

// ExposedPasswordFinding carries the breach-oracle exposure count for one
// item. Only items with a count above zero are reported.
type ExposedPasswordFinding struct {
	ItemID       string `json:"itemId"`
	ExposedCount int    `json:"exposedCount"`
}

// PasswordHealthFinding combines the three independent health signals for a
// single vault item. Computed fresh per report run, never persisted on its
// own.
type PasswordHealthFinding struct {
	ItemID         string               `json:"itemId"`
	WeakPassword   *WeakPasswordFinding `json:"weakPassword,omitempty"`
	ReusedPassword bool                 `json:"reusedPassword"`
	ExposedCount   int                  `json:"exposedCount"`
}

// AtRisk reports whether any of the three health signals fired.
func (f PasswordHealthFinding) AtRisk() bool {
	return f.WeakPassword != nil || f.ReusedPassword || f.ExposedCount > 0
}

// MemberDetail identifies one member inside an application rollup.
type MemberDetail struct {
	MemberID    string `json:"memberId"`
	Email       string `json:"email"`
	DisplayName string `json:"displayName,omitempty"`
}

// ApplicationHealthReportDetail is the per-application (per trimmed URI
// domain) rollup of password health and membership.
type ApplicationHealthReportDetail struct {
	ApplicationName     string         `json:"applicationName"`
	PasswordCount       int            `json:"passwordCount"`
	AtRiskPasswordCount int            `json:"atRiskPasswordCount"`
	MemberCount         int            `json:"memberCount"`
	AtRiskMemberCount   int            `json:"atRiskMemberCount"`
	ItemIDs             []string       `json:"itemIds,omitempty"`
	MemberDetails       []MemberDetail `json:"memberDetails,omitempty"`
	AtRiskMemberDetails []MemberDetail `json:"atRiskMemberDetails,omitempty"`
}

// OrganizationReportSummary reduces all application rollups into one
// org-wide view, with a parallel set of counts scoped to the critical-flagged
// subset.
type OrganizationReportSummary struct {
	TotalMemberCount               int `json:"totalMemberCount"`
	TotalAtRiskMemberCount         int `json:"totalAtRiskMemberCount"`
	TotalApplicationCount          int `json:"totalApplicationCount"`
	TotalAtRiskApplicationCount    int `json:"totalAtRiskApplicationCount"`
	TotalCriticalMemberCount       int `json:"totalCriticalMemberCount"`
	TotalCriticalAtRiskMemberCount int `json:"totalCriticalAtRiskMemberCount"`
	TotalCriticalApplicationCount  int `json:"totalCriticalApplicationCount"`
	TotalCriticalAtRiskAppCount    int `json:"totalCriticalAtRiskApplicationCount"`
}

// ReportApplication is the user-curated marker record for one application:
// whether it is flagged critical and when it was last reviewed. ReviewedDate
// stays nil until review is explicitly stamped.
type ReportApplication struct {
	ApplicationName string     `json:"applicationName"`
	IsCritical      bool       `json:"isCritical"`
	ReviewedDate    *time.Time `json:"reviewedDate"`
}

// ReportMetrics are the numeric-only cross metrics derived from the rollups.
// They carry no member or application identities and are stored in the clear.
// Each of applications, members, and passwords gets total, at-risk, and
// critical-subset counts.
type ReportMetrics struct {
	TotalApplicationCount       int `json:"totalApplicationCount" firestore:"totalApplicationCount"`
	AtRiskApplicationCount      int `json:"atRiskApplicationCount" firestore:"atRiskApplicationCount"`
	CriticalApplicationCount    int `json:"criticalApplicationCount" firestore:"criticalApplicationCount"`
	TotalMemberCount            int `json:"totalMemberCount" firestore:"totalMemberCount"`
	AtRiskMemberCount           int `json:"atRiskMemberCount" firestore:"atRiskMemberCount"`
	CriticalMemberCount         int `json:"criticalMemberCount" firestore:"criticalMemberCount"`
	CriticalAtRiskMemberCount   int `json:"criticalAtRiskMemberCount" firestore:"criticalAtRiskMemberCount"`
	TotalPasswordCount          int `json:"totalPasswordCount" firestore:"totalPasswordCount"`
	AtRiskPasswordCount         int `json:"atRiskPasswordCount" firestore:"atRiskPasswordCount"`
	CriticalPasswordCount       int `json:"criticalPasswordCount" firestore:"criticalPasswordCount"`
	CriticalAtRiskPasswordCount int `json:"criticalAtRiskPasswordCount" firestore:"criticalAtRiskPasswordCount"`
}

// DecryptedReportBundle is the logical, pre-encryption report content. The
// three sections are encrypted independently under one shared content key so
// a marker-only update does not re-encrypt the large report section.
type DecryptedReportBundle struct {
	ReportData      []ApplicationHealthReportDetail `json:"reportData"`
	SummaryData     OrganizationReportSummary       `json:"summaryData"`
	ApplicationData []ReportApplication             `json:"applicationData"`
}

// RiskInsightsReport is the persisted, encrypted form of a report. Each
// Encrypted* field holds one independently encrypted section; the content key
// is wrapped by the per-organization key.
type RiskInsightsReport struct {
	ID                       string        `json:"id" firestore:"-"`
	OrganizationID           string        `json:"organizationId" firestore:"organizationId"`
	CreatorID                string        `json:"creatorId" firestore:"creatorId"`
	ContentEncryptionKey     string        `json:"contentEncryptionKey" firestore:"contentEncryptionKey"`
	EncryptedReportData      string        `json:"encryptedReportData" firestore:"encryptedReportData"`
	EncryptedSummaryData     string        `json:"encryptedSummaryData" firestore:"encryptedSummaryData"`
	EncryptedApplicationData string        `json:"encryptedApplicationData" firestore:"encryptedApplicationData"`
	Metrics                  ReportMetrics `json:"metrics" firestore:"metrics"`
	CreatedAt                time.Time     `json:"createdAt" firestore:"createdAt,serverTimestamp"`
	UpdatedAt                time.Time     `json:"updatedAt" firestore:"updatedAt,serverTimestamp"`
}

// LegacyCriticalApp is the older storage shape for critical-application
// markers, kept only so the one-time migration can fold them into
// ReportApplication records.
type LegacyCriticalApp struct {
	ID             string `json:"id" firestore:"-"`
	OrganizationID string `json:"organizationId" firestore:"organizationId"`
	URI            string `json:"uri" firestore:"uri"`
}

// ReportStatus is the fetch-side lifecycle of the orchestrator.
type ReportStatus string

const (
	StatusInitializing ReportStatus = "initializing"
	StatusLoading      ReportStatus = "loading"
	StatusComplete     ReportStatus = "complete"
	StatusError        ReportStatus = "error"
)

// GenerationStatus is the parallel generate-side sub-flow, independent of the
// fetch lifecycle.
type GenerationStatus string

const (
	GenerationIdle     GenerationStatus = "idle"
	GenerationRunning  GenerationStatus = "generating"
	GenerationComplete GenerationStatus = "complete"
	GenerationFailed   GenerationStatus = "error"
)

// ReportState is the orchestrator's externally visible state. Every async
// failure path is converted into the Error arm of this struct; the public
// orchestrator methods never panic or leak raw errors.
type ReportState struct {
	OrganizationID    string                          `json:"organizationId"`
	Status            ReportStatus                    `json:"status"`
	GenerationStatus  GenerationStatus                `json:"generationStatus"`
	ErrorMessage      string                          `json:"errorMessage,omitempty"`
	ValidationFailure bool                            `json:"validationFailure,omitempty"`
	ReportID          string                          `json:"reportId,omitempty"`
	ReportData        []ApplicationHealthReportDetail `json:"reportData"`
	SummaryData       *OrganizationReportSummary      `json:"summaryData"`
	ApplicationData   []ReportApplication             `json:"applicationData"`
	Metrics           *ReportMetrics                  `json:"metrics"`
	LastUpdated       time.Time                       `json:"lastUpdated"`
}
