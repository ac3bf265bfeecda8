package core

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"vaultsight-backend-go/internal/cache"
	"vaultsight-backend-go/internal/db"
	"vaultsight-backend-go/internal/models"
)

// fakeReportRepo keeps one report per organization in memory.
type fakeReportRepo struct {
	reports map[string]*models.RiskInsightsReport
	nextID  int
}

func newFakeReportRepo() *fakeReportRepo {
	return &fakeReportRepo{reports: make(map[string]*models.RiskInsightsReport)}
}

func (r *fakeReportRepo) Create(_ context.Context, report *models.RiskInsightsReport) (string, error) {
	r.nextID++
	stored := *report
	stored.ID = "report-" + string(rune('0'+r.nextID))
	stored.CreatedAt = time.Now().UTC()
	r.reports[report.OrganizationID] = &stored
	return stored.ID, nil
}

func (r *fakeReportRepo) GetLatestByOrg(_ context.Context, orgID string) (*models.RiskInsightsReport, error) {
	report, ok := r.reports[orgID]
	if !ok {
		return nil, db.ErrNotFound
	}
	copied := *report
	return &copied, nil
}

func (r *fakeReportRepo) UpdateApplicationData(_ context.Context, reportID, orgID, encryptedApplicationData string) error {
	report, ok := r.reports[orgID]
	if !ok || report.ID != reportID {
		return db.ErrNotFound
	}
	report.EncryptedApplicationData = encryptedApplicationData
	return nil
}

func (r *fakeReportRepo) UpdateSummary(_ context.Context, reportID, orgID, encryptedSummaryData string, metrics models.ReportMetrics) error {
	report, ok := r.reports[orgID]
	if !ok || report.ID != reportID {
		return db.ErrNotFound
	}
	report.EncryptedSummaryData = encryptedSummaryData
	report.Metrics = metrics
	return nil
}

type fakeLegacyRepo struct {
	markers map[string][]models.LegacyCriticalApp
	deleted map[string]bool
}

func newFakeLegacyRepo() *fakeLegacyRepo {
	return &fakeLegacyRepo{
		markers: make(map[string][]models.LegacyCriticalApp),
		deleted: make(map[string]bool),
	}
}

func (r *fakeLegacyRepo) GetByOrganizationID(_ context.Context, orgID string) ([]models.LegacyCriticalApp, error) {
	return r.markers[orgID], nil
}

func (r *fakeLegacyRepo) DeleteByOrganizationID(_ context.Context, orgID string) error {
	delete(r.markers, orgID)
	r.deleted[orgID] = true
	return nil
}

type fakeAuditRepo struct {
	entries []models.AuditLog
}

func (r *fakeAuditRepo) Create(_ context.Context, logEntry models.AuditLog) error {
	r.entries = append(r.entries, logEntry)
	return nil
}

// reportFixture wires a full orchestrator over in-memory fakes. Two login
// items share a domain; one of them has a weak password.
type reportFixture struct {
	svc        RiskReportService
	reportRepo *fakeReportRepo
	legacyRepo *fakeLegacyRepo
	auditRepo  *fakeAuditRepo
	oracle     *stubOracle
}

func newReportFixture(t *testing.T) *reportFixture {
	t.Helper()

	items := []models.VaultItem{
		func() models.VaultItem {
			i := loginItem("item-weak", "weakpw")
			i.URIs = []string{"https://app.example.com/login"}
			i.CollectionIDs = []string{"col-1"}
			return i
		}(),
		func() models.VaultItem {
			i := loginItem("item-ok", "solid-and-unique")
			i.URIs = []string{"example.com"}
			i.CollectionIDs = []string{"col-1"}
			return i
		}(),
		func() models.VaultItem {
			i := loginItem("item-other", "another-solid-one")
			i.URIs = []string{"https://other.org"}
			i.CollectionIDs = []string{"col-1"}
			return i
		}(),
	}
	containers := []models.AccessContainer{
		{ID: "col-1", Name: "Shared", UserGrants: []models.AccessGrant{
			{GranteeID: "alice"},
			{GranteeID: "bob", ReadOnly: true, HidePasswords: true},
		}},
	}
	members := []models.OrgMember{
		{ID: "alice", Email: "alice@example.com"},
		{ID: "bob", Email: "bob@example.com"},
	}

	logger := zap.NewNop()
	estimator := &stubEstimator{scores: map[string]int{"weakpw": 1}}
	oracle := &stubOracle{counts: map[string]int{}}

	encryption, err := NewReportEncryptionService(testMasterKey(), logger)
	require.NoError(t, err)

	reportRepo := newFakeReportRepo()
	legacyRepo := newFakeLegacyRepo()
	auditRepo := &fakeAuditRepo{}

	svc := NewRiskReportService(
		&fakeItemRepo{items: items},
		&fakeCollectionRepo{containers: containers},
		NewRosterCache(&countingMemberRepo{members: members}, cache.NewMemoryCache(), time.Minute, logger),
		NewAccessGraphService(logger),
		NewPasswordHealthService(estimator, oracle, 2, 10, 500, logger),
		encryption,
		reportRepo,
		legacyRepo,
		NewAuditService(auditRepo),
		500,
		logger,
	)

	return &reportFixture{
		svc:        svc,
		reportRepo: reportRepo,
		legacyRepo: legacyRepo,
		auditRepo:  auditRepo,
		oracle:     oracle,
	}
}

func appByName(apps []models.ReportApplication, name string) *models.ReportApplication {
	for i := range apps {
		if apps[i].ApplicationName == name {
			return &apps[i]
		}
	}
	return nil
}

// TestFetchReport_NoPersistedReport verifies a missing report completes with
// empty data rather than an error.
func TestFetchReport_NoPersistedReport(t *testing.T) {
	f := newReportFixture(t)

	state := f.svc.FetchReport(context.Background(), "org-1", "user-1")
	assert.Equal(t, models.StatusComplete, state.Status)
	assert.Empty(t, state.ReportData)
	assert.NotNil(t, state.SummaryData)
	assert.False(t, state.ValidationFailure)
}

// TestGenerateReport verifies the full pipeline: grouping by trimmed URI
// domain, rollup counts, summary, metrics, persistence, and audit logging.
func TestGenerateReport(t *testing.T) {
	f := newReportFixture(t)

	state := f.svc.GenerateReport(context.Background(), "org-1", "user-1")
	require.Equal(t, models.StatusComplete, state.Status)
	assert.Equal(t, models.GenerationComplete, state.GenerationStatus)
	assert.NotEmpty(t, state.ReportID)

	// app.example.com and example.com both trim to example.com.
	require.Len(t, state.ReportData, 2)
	example := state.ReportData[0]
	assert.Equal(t, "example.com", example.ApplicationName)
	assert.Equal(t, 2, example.PasswordCount)
	assert.Equal(t, 1, example.AtRiskPasswordCount)
	assert.Equal(t, 2, example.MemberCount)
	assert.Equal(t, "other.org", state.ReportData[1].ApplicationName)
	assert.Equal(t, 0, state.ReportData[1].AtRiskPasswordCount)

	require.NotNil(t, state.SummaryData)
	assert.Equal(t, 2, state.SummaryData.TotalApplicationCount)
	assert.Equal(t, 1, state.SummaryData.TotalAtRiskApplicationCount)
	assert.Equal(t, 2, state.SummaryData.TotalMemberCount)

	require.NotNil(t, state.Metrics)
	assert.Equal(t, 3, state.Metrics.TotalPasswordCount)
	assert.Equal(t, 1, state.Metrics.AtRiskPasswordCount)

	// Persisted encrypted; no plaintext application name on the stored doc.
	stored := f.reportRepo.reports["org-1"]
	require.NotNil(t, stored)
	assert.NotContains(t, stored.EncryptedReportData, "example.com")

	require.Len(t, f.auditRepo.entries, 1)
	assert.Equal(t, "REPORT_GENERATE", f.auditRepo.entries[0].Action)
}

// TestGenerateThenFetch_RoundTrip verifies a generated report can be fetched
// and decrypted back into the same data.
func TestGenerateThenFetch_RoundTrip(t *testing.T) {
	f := newReportFixture(t)

	generated := f.svc.GenerateReport(context.Background(), "org-1", "user-1")
	require.Equal(t, models.StatusComplete, generated.Status)

	fetched := f.svc.FetchReport(context.Background(), "org-1", "user-1")
	require.Equal(t, models.StatusComplete, fetched.Status)
	assert.Equal(t, generated.ReportData, fetched.ReportData)
	assert.Equal(t, generated.SummaryData, fetched.SummaryData)
	assert.Equal(t, generated.ReportID, fetched.ReportID)
}

// TestSaveCriticalApplications verifies marking updates markers, summary,
// metrics, and persistence without re-running generation.
func TestSaveCriticalApplications(t *testing.T) {
	f := newReportFixture(t)
	f.svc.GenerateReport(context.Background(), "org-1", "user-1")

	state := f.svc.SaveCriticalApplications(context.Background(), "org-1", "user-1", []string{"example.com"})
	require.Equal(t, models.StatusComplete, state.Status)

	marked := appByName(state.ApplicationData, "example.com")
	require.NotNil(t, marked)
	assert.True(t, marked.IsCritical)
	assert.Nil(t, marked.ReviewedDate)

	other := appByName(state.ApplicationData, "other.org")
	require.NotNil(t, other)
	assert.False(t, other.IsCritical)

	require.NotNil(t, state.SummaryData)
	assert.Equal(t, 1, state.SummaryData.TotalCriticalApplicationCount)
	assert.Equal(t, 1, state.SummaryData.TotalCriticalAtRiskAppCount)
	require.NotNil(t, state.Metrics)
	assert.Equal(t, 1, state.Metrics.CriticalApplicationCount)

	// A fetch round-trips the persisted marker.
	fetched := f.svc.FetchReport(context.Background(), "org-1", "user-1")
	require.Equal(t, models.StatusComplete, fetched.Status)
	marked = appByName(fetched.ApplicationData, "example.com")
	require.NotNil(t, marked)
	assert.True(t, marked.IsCritical)
}

// TestSaveCriticalApplications_UnseenNameAppended verifies names not present
// in the report are appended as unreviewed critical markers.
func TestSaveCriticalApplications_UnseenNameAppended(t *testing.T) {
	f := newReportFixture(t)
	f.svc.GenerateReport(context.Background(), "org-1", "user-1")

	state := f.svc.SaveCriticalApplications(context.Background(), "org-1", "user-1", []string{"brand-new.io"})
	require.Equal(t, models.StatusComplete, state.Status)

	added := appByName(state.ApplicationData, "brand-new.io")
	require.NotNil(t, added)
	assert.True(t, added.IsCritical)
}

// TestSaveCriticalApplications_WithoutReport verifies marker operations fail
// cleanly when nothing has been generated or fetched yet.
func TestSaveCriticalApplications_WithoutReport(t *testing.T) {
	f := newReportFixture(t)
	f.svc.FetchReport(context.Background(), "org-1", "user-1")

	state := f.svc.SaveCriticalApplications(context.Background(), "org-1", "user-1", []string{"example.com"})
	assert.Equal(t, models.StatusError, state.Status)
	assert.False(t, state.ValidationFailure)
}

// TestRemoveCriticalApplication verifies the flag clears while the
// application stays listed.
func TestRemoveCriticalApplication(t *testing.T) {
	f := newReportFixture(t)
	f.svc.GenerateReport(context.Background(), "org-1", "user-1")
	f.svc.SaveCriticalApplications(context.Background(), "org-1", "user-1", []string{"example.com"})

	state := f.svc.RemoveCriticalApplication(context.Background(), "org-1", "user-1", "example.com")
	require.Equal(t, models.StatusComplete, state.Status)

	app := appByName(state.ApplicationData, "example.com")
	require.NotNil(t, app)
	assert.False(t, app.IsCritical)
	assert.Equal(t, 0, state.SummaryData.TotalCriticalApplicationCount)
}

// TestSaveApplicationReviewStatus_Idempotent verifies review stamping sets
// only unset timestamps, so a repeat call changes nothing.
func TestSaveApplicationReviewStatus_Idempotent(t *testing.T) {
	f := newReportFixture(t)
	f.svc.GenerateReport(context.Background(), "org-1", "user-1")

	first := f.svc.SaveApplicationReviewStatus(context.Background(), "org-1", "user-1", []string{"example.com"})
	require.Equal(t, models.StatusComplete, first.Status)

	example := appByName(first.ApplicationData, "example.com")
	require.NotNil(t, example)
	assert.True(t, example.IsCritical)
	require.NotNil(t, example.ReviewedDate)
	firstStamp := *example.ReviewedDate

	other := appByName(first.ApplicationData, "other.org")
	require.NotNil(t, other)
	assert.False(t, other.IsCritical)
	assert.NotNil(t, other.ReviewedDate, "every unreviewed application gets stamped")

	second := f.svc.SaveApplicationReviewStatus(context.Background(), "org-1", "user-1", []string{"example.com"})
	require.Equal(t, models.StatusComplete, second.Status)
	again := appByName(second.ApplicationData, "example.com")
	require.NotNil(t, again)
	assert.Equal(t, firstStamp, *again.ReviewedDate, "existing stamps are preserved")
}

// TestCriticalReportResults verifies the projection filters to critical
// applications and recomputes the summary over the subset.
func TestCriticalReportResults(t *testing.T) {
	f := newReportFixture(t)
	f.svc.GenerateReport(context.Background(), "org-1", "user-1")
	f.svc.SaveCriticalApplications(context.Background(), "org-1", "user-1", []string{"other.org"})

	critical := f.svc.CriticalReportResults()
	require.Len(t, critical.ReportData, 1)
	assert.Equal(t, "other.org", critical.ReportData[0].ApplicationName)
	require.Len(t, critical.ApplicationData, 1)
	assert.Equal(t, 1, critical.SummaryData.TotalApplicationCount)
	assert.Equal(t, 0, critical.SummaryData.TotalAtRiskApplicationCount)

	// The stored state is untouched by the projection.
	full := f.svc.State()
	assert.Len(t, full.ReportData, 2)
}

// TestGenerateReport_CarriesMarkersForward verifies regeneration keeps
// critical flags and review stamps.
func TestGenerateReport_CarriesMarkersForward(t *testing.T) {
	f := newReportFixture(t)
	f.svc.GenerateReport(context.Background(), "org-1", "user-1")
	f.svc.SaveApplicationReviewStatus(context.Background(), "org-1", "user-1", []string{"example.com"})

	state := f.svc.GenerateReport(context.Background(), "org-1", "user-1")
	require.Equal(t, models.StatusComplete, state.Status)

	example := appByName(state.ApplicationData, "example.com")
	require.NotNil(t, example)
	assert.True(t, example.IsCritical)
	assert.NotNil(t, example.ReviewedDate)
}

// TestOrganizationSwitchClearsState verifies no data leaks across
// organizations.
func TestOrganizationSwitchClearsState(t *testing.T) {
	f := newReportFixture(t)
	f.svc.GenerateReport(context.Background(), "org-1", "user-1")

	state := f.svc.FetchReport(context.Background(), "org-2", "user-1")
	assert.Equal(t, "org-2", state.OrganizationID)
	assert.Empty(t, state.ReportData)
	assert.Empty(t, state.ReportID)
}

// TestFetchReport_ValidationFailureIsLoud verifies a tampered stored report
// surfaces as a flagged error state, never silent defaults.
func TestFetchReport_ValidationFailureIsLoud(t *testing.T) {
	f := newReportFixture(t)
	f.svc.GenerateReport(context.Background(), "org-1", "user-1")

	stored := f.reportRepo.reports["org-1"]
	stored.EncryptedReportData = stored.EncryptedReportData[:len(stored.EncryptedReportData)/2]

	state := f.svc.FetchReport(context.Background(), "org-1", "user-1")
	assert.Equal(t, models.StatusError, state.Status)
	assert.True(t, state.ValidationFailure)
	assert.NotEmpty(t, state.ErrorMessage)
}

// TestInitializeForOrganization_LegacyMigration verifies legacy markers fold
// into critical flags and are deleted afterwards, exactly once per process.
func TestInitializeForOrganization_LegacyMigration(t *testing.T) {
	f := newReportFixture(t)
	f.svc.GenerateReport(context.Background(), "org-1", "user-1")

	f.legacyRepo.markers["org-1"] = []models.LegacyCriticalApp{
		{ID: "legacy-1", OrganizationID: "org-1", URI: "https://app.example.com/login"},
	}

	state := f.svc.InitializeForOrganization(context.Background(), "org-1", "user-1")
	require.Equal(t, models.StatusComplete, state.Status)

	example := appByName(state.ApplicationData, "example.com")
	require.NotNil(t, example)
	assert.True(t, example.IsCritical, "legacy URI trims to the application name")
	assert.True(t, f.legacyRepo.deleted["org-1"], "migrated markers are removed")

	// A second initialize does not re-run the migration.
	f.legacyRepo.deleted["org-1"] = false
	f.svc.InitializeForOrganization(context.Background(), "org-1", "user-1")
	assert.False(t, f.legacyRepo.deleted["org-1"])
}

// TestComputeMetrics_SharedItemCountsConsistently verifies one at-risk item
// reachable through two applications uses the same counting rule for the
// total and at-risk password metrics, so at-risk can never exceed total.
func TestComputeMetrics_SharedItemCountsConsistently(t *testing.T) {
	reportData := []models.ApplicationHealthReportDetail{
		{ApplicationName: "example.com", PasswordCount: 1, AtRiskPasswordCount: 1, ItemIDs: []string{"item-1"}},
		{ApplicationName: "other.org", PasswordCount: 1, AtRiskPasswordCount: 1, ItemIDs: []string{"item-1"}},
	}
	summary := computeSummary(reportData, nil)
	metrics := computeMetrics(reportData, nil, summary)

	assert.Equal(t, 2, metrics.TotalPasswordCount, "the item counts once per application")
	assert.Equal(t, 2, metrics.AtRiskPasswordCount)
	assert.LessOrEqual(t, metrics.AtRiskPasswordCount, metrics.TotalPasswordCount)
}

// TestComputeMetrics_CriticalSubsetCounts verifies the critical member and
// password metrics cover only critical-flagged applications.
func TestComputeMetrics_CriticalSubsetCounts(t *testing.T) {
	alice := models.MemberDetail{MemberID: "alice", Email: "alice@example.com"}
	bob := models.MemberDetail{MemberID: "bob", Email: "bob@example.com"}
	carol := models.MemberDetail{MemberID: "carol", Email: "carol@example.com"}

	reportData := []models.ApplicationHealthReportDetail{
		{
			ApplicationName:     "example.com",
			PasswordCount:       3,
			AtRiskPasswordCount: 1,
			MemberCount:         2,
			AtRiskMemberCount:   1,
			MemberDetails:       []models.MemberDetail{alice, bob},
			AtRiskMemberDetails: []models.MemberDetail{alice},
		},
		{
			ApplicationName: "other.org",
			PasswordCount:   2,
			MemberCount:     1,
			MemberDetails:   []models.MemberDetail{carol},
		},
	}
	apps := []models.ReportApplication{
		{ApplicationName: "example.com", IsCritical: true},
		{ApplicationName: "other.org"},
	}

	summary := computeSummary(reportData, apps)
	metrics := computeMetrics(reportData, apps, summary)

	assert.Equal(t, 1, metrics.CriticalApplicationCount)
	assert.Equal(t, 2, metrics.CriticalMemberCount)
	assert.Equal(t, 1, metrics.CriticalAtRiskMemberCount)
	assert.Equal(t, 3, metrics.CriticalPasswordCount)
	assert.Equal(t, 1, metrics.CriticalAtRiskPasswordCount)
	assert.Equal(t, 5, metrics.TotalPasswordCount)
	assert.Equal(t, 1, metrics.AtRiskPasswordCount)
}

// TestTrimApplicationURI covers the domain trimming rules.
func TestTrimApplicationURI(t *testing.T) {
	tests := []struct {
		uri  string
		want string
	}{
		{"https://app.example.com/login", "example.com"},
		{"example.com", "example.com"},
		{"sub.deep.example.co", "example.co"},
		{"http://192.168.1.10:8080", "192.168.1.10"},
		{"localhost", "localhost"},
		{"  https://Example.COM  ", "example.com"},
		{"", ""},
	}
	for _, tc := range tests {
		assert.Equal(t, tc.want, trimApplicationURI(tc.uri), "uri %q", tc.uri)
	}
}
