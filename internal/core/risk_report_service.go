package core

import (
	"context"
	"errors"
	"net"
	"net/url"
	"sort"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"vaultsight-backend-go/internal/batch"
	"vaultsight-backend-go/internal/db"
	"vaultsight-backend-go/internal/models"
)

// Items whose URIs yield no usable application name land in this bucket.
const unknownApplicationName = "Unknown application"

// riskReportService implements the RiskReportService interface. It owns the
// report lifecycle state machine: fetch loads the last persisted snapshot,
// generate recomputes everything from live data, and the marker operations
// patch only the application and summary sections.
//
// State updates are tagged with the organization id they were computed for.
// Switching organizations replaces the state entirely; a late emission tagged
// with a previously selected organization is discarded, so stale data never
// overwrites fresh data for the current organization.
type riskReportService struct {
	itemRepo       db.VaultItemRepository
	collectionRepo db.CollectionRepository
	roster         RosterCache
	graph          AccessGraphService
	health         PasswordHealthService
	encryption     ReportEncryptionService
	reportRepo     db.ReportRepository
	legacyRepo     db.LegacyCriticalAppRepository
	audit          AuditService
	logger         *zap.Logger

	// accessBatchSize chunks the access graph build during generation.
	accessBatchSize int

	mu         sync.Mutex
	state      models.ReportState
	currentOrg string
	wrappedKey string
	migrated   map[string]bool
}

// NewRiskReportService creates a new RiskReportService instance.
func NewRiskReportService(
	itemRepo db.VaultItemRepository,
	collectionRepo db.CollectionRepository,
	roster RosterCache,
	graph AccessGraphService,
	health PasswordHealthService,
	encryption ReportEncryptionService,
	reportRepo db.ReportRepository,
	legacyRepo db.LegacyCriticalAppRepository,
	audit AuditService,
	accessBatchSize int,
	logger *zap.Logger,
) RiskReportService {
	return &riskReportService{
		itemRepo:        itemRepo,
		collectionRepo:  collectionRepo,
		roster:          roster,
		graph:           graph,
		health:          health,
		encryption:      encryption,
		reportRepo:      reportRepo,
		legacyRepo:      legacyRepo,
		audit:           audit,
		logger:          logger,
		accessBatchSize: accessBatchSize,
		state: models.ReportState{
			Status:           models.StatusInitializing,
			GenerationStatus: models.GenerationIdle,
		},
		migrated: make(map[string]bool),
	}
}

// State returns a copy of the current report state.
func (s *riskReportService) State() models.ReportState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// applyState installs a new state computed for orgID. Emissions tagged with
// an organization other than the currently selected one are discarded. Within
// the same organization, nil data sections in the incoming state preserve the
// previous values so a transient reload never wipes last-good data.
func (s *riskReportService) applyState(orgID string, next models.ReportState) models.ReportState {
	s.mu.Lock()
	defer s.mu.Unlock()

	if orgID != s.currentOrg {
		s.logger.Debug("Discarding stale state emission for superseded organization",
			zap.String("emittedOrg", orgID),
			zap.String("currentOrg", s.currentOrg))
		return s.state
	}

	next.OrganizationID = orgID
	next.LastUpdated = time.Now().UTC()

	if s.state.OrganizationID == orgID {
		if next.ReportData == nil {
			next.ReportData = s.state.ReportData
		}
		if next.SummaryData == nil {
			next.SummaryData = s.state.SummaryData
		}
		if next.ApplicationData == nil {
			next.ApplicationData = s.state.ApplicationData
		}
		if next.Metrics == nil {
			next.Metrics = s.state.Metrics
		}
		if next.ReportID == "" {
			next.ReportID = s.state.ReportID
		}
		if next.GenerationStatus == "" {
			next.GenerationStatus = s.state.GenerationStatus
		}
	} else if next.GenerationStatus == "" {
		next.GenerationStatus = models.GenerationIdle
	}

	s.state = next
	return s.state
}

// selectOrganization makes orgID the current organization. A change clears
// all prior state so no data leaks across organizations.
func (s *riskReportService) selectOrganization(orgID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.currentOrg == orgID {
		return
	}
	s.currentOrg = orgID
	s.wrappedKey = ""
	s.state = models.ReportState{
		OrganizationID:   orgID,
		Status:           models.StatusInitializing,
		GenerationStatus: models.GenerationIdle,
		LastUpdated:      time.Now().UTC(),
	}
}

func (s *riskReportService) errorState(orgID, message string, validation bool) models.ReportState {
	return s.applyState(orgID, models.ReportState{
		Status:            models.StatusError,
		ErrorMessage:      message,
		ValidationFailure: validation,
	})
}

// InitializeForOrganization sets the organization context, performs the
// initial fetch, and runs the one-time legacy marker migration.
func (s *riskReportService) InitializeForOrganization(ctx context.Context, orgID, userID string) models.ReportState {
	s.selectOrganization(orgID)
	state := s.FetchReport(ctx, orgID, userID)
	if s.runLegacyMigration(ctx, orgID, userID) {
		state = s.State()
	}
	return state
}

// FetchReport loads the most recent persisted report for the organization and
// decrypts it. A missing report completes with empty data; a decrypt
// validation failure surfaces as a loud, distinctly flagged error state.
func (s *riskReportService) FetchReport(ctx context.Context, orgID, userID string) models.ReportState {
	s.selectOrganization(orgID)
	s.applyState(orgID, models.ReportState{Status: models.StatusLoading})

	report, err := s.reportRepo.GetLatestByOrg(ctx, orgID)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return s.applyState(orgID, models.ReportState{
				Status:          models.StatusComplete,
				ReportData:      []models.ApplicationHealthReportDetail{},
				SummaryData:     &models.OrganizationReportSummary{},
				ApplicationData: []models.ReportApplication{},
				Metrics:         &models.ReportMetrics{},
			})
		}
		s.logger.Error("Failed to fetch report", zap.String("orgId", orgID), zap.Error(err))
		return s.errorState(orgID, "failed to load the latest report", false)
	}

	bundle, err := s.encryption.DecryptReportBundle(orgID, report)
	if err != nil {
		s.logger.Error("Failed to decrypt report", zap.String("orgId", orgID), zap.Error(err))
		if errors.Is(err, ErrReportValidation) {
			return s.errorState(orgID, err.Error(), true)
		}
		return s.errorState(orgID, "failed to decrypt the latest report", false)
	}

	s.mu.Lock()
	if s.currentOrg == orgID {
		s.wrappedKey = report.ContentEncryptionKey
	}
	s.mu.Unlock()

	summary := bundle.SummaryData
	metrics := report.Metrics
	return s.applyState(orgID, models.ReportState{
		Status:          models.StatusComplete,
		ReportID:        report.ID,
		ReportData:      bundle.ReportData,
		SummaryData:     &summary,
		ApplicationData: bundle.ApplicationData,
		Metrics:         &metrics,
	})
}

// GenerateReport recomputes the full report from live data: items, roster,
// access graph, health findings, per-application rollups, org summary, and
// numeric metrics, then persists the encrypted bundle. Prior critical markers
// carry forward onto the fresh report.
func (s *riskReportService) GenerateReport(ctx context.Context, orgID, userID string) models.ReportState {
	s.selectOrganization(orgID)
	s.applyState(orgID, models.ReportState{
		Status:           models.StatusLoading,
		GenerationStatus: models.GenerationRunning,
	})

	items, err := s.itemRepo.GetByOrganizationID(ctx, orgID)
	if err != nil {
		s.logger.Error("Failed to fetch vault items for generation", zap.String("orgId", orgID), zap.Error(err))
		return s.generationError(orgID, "failed to fetch vault items")
	}
	containers, err := s.collectionRepo.GetByOrganizationID(ctx, orgID)
	if err != nil {
		s.logger.Error("Failed to fetch collections for generation", zap.String("orgId", orgID), zap.Error(err))
		return s.generationError(orgID, "failed to fetch collections")
	}
	members, err := s.roster.GetMembers(ctx, orgID)
	if err != nil {
		s.logger.Error("Failed to fetch member roster for generation", zap.String("orgId", orgID), zap.Error(err))
		return s.generationError(orgID, "failed to fetch member roster")
	}

	var entries []*models.ItemAccessEntry
	for p := range s.graph.BuildAccessGraphProgressive(ctx, items, containers, members, s.accessBatchSize) {
		if p.State == batch.StateError {
			s.logger.Error("Access graph build aborted", zap.String("orgId", orgID), zap.Error(p.Err))
			return s.generationError(orgID, "access graph build failed")
		}
		if p.State == batch.StateComplete {
			entries = p.Partial
		}
	}
	entryByItem := make(map[string]*models.ItemAccessEntry, len(entries))
	for _, e := range entries {
		entryByItem[e.ItemID] = e
	}

	findings, err := s.health.AnalyzeHealth(ctx, items)
	if err != nil {
		s.logger.Error("Password health analysis failed", zap.String("orgId", orgID), zap.Error(err))
		return s.generationError(orgID, "password health analysis failed")
	}
	findingByItem := make(map[string]models.PasswordHealthFinding, len(findings))
	for _, f := range findings {
		findingByItem[f.ItemID] = f
	}

	reportData := buildApplicationRollups(items, findingByItem, entryByItem)
	applicationData := mergeApplicationData(s.State().ApplicationData, reportData)
	summary := computeSummary(reportData, applicationData)
	metrics := computeMetrics(reportData, applicationData, summary)

	sections, err := s.encryption.EncryptReportBundle(orgID, models.DecryptedReportBundle{
		ReportData:      reportData,
		SummaryData:     summary,
		ApplicationData: applicationData,
	}, "")
	if err != nil {
		s.logger.Error("Failed to encrypt report bundle", zap.String("orgId", orgID), zap.Error(err))
		return s.generationError(orgID, "failed to encrypt report")
	}

	report := &models.RiskInsightsReport{
		OrganizationID:           orgID,
		CreatorID:                userID,
		ContentEncryptionKey:     sections.WrappedKey,
		EncryptedReportData:      sections.EncryptedReportData,
		EncryptedSummaryData:     sections.EncryptedSummaryData,
		EncryptedApplicationData: sections.EncryptedApplicationData,
		Metrics:                  metrics,
	}
	reportID, err := s.reportRepo.Create(ctx, report)
	if err != nil {
		s.logger.Error("Failed to persist report", zap.String("orgId", orgID), zap.Error(err))
		return s.generationError(orgID, "failed to persist report")
	}

	s.mu.Lock()
	if s.currentOrg == orgID {
		s.wrappedKey = sections.WrappedKey
	}
	s.mu.Unlock()

	s.auditAction(ctx, userID, orgID, "REPORT_GENERATE", reportID, map[string]interface{}{
		"applicationCount": len(reportData),
		"itemCount":        len(items),
	})

	return s.applyState(orgID, models.ReportState{
		Status:           models.StatusComplete,
		GenerationStatus: models.GenerationComplete,
		ReportID:         reportID,
		ReportData:       reportData,
		SummaryData:      &summary,
		ApplicationData:  applicationData,
		Metrics:          &metrics,
	})
}

func (s *riskReportService) generationError(orgID, message string) models.ReportState {
	return s.applyState(orgID, models.ReportState{
		Status:           models.StatusError,
		GenerationStatus: models.GenerationFailed,
		ErrorMessage:     message,
	})
}

// SaveCriticalApplications marks the named applications critical on the
// current report without re-running the health computation. Already-marked
// applications stay marked; unseen names are appended unreviewed.
func (s *riskReportService) SaveCriticalApplications(ctx context.Context, orgID, userID string, names []string) models.ReportState {
	return s.mutateApplicationData(ctx, orgID, userID, "CRITICAL_APPS_SAVE", func(apps []models.ReportApplication) []models.ReportApplication {
		return markCritical(apps, names)
	})
}

// RemoveCriticalApplication clears the critical flag on one application.
func (s *riskReportService) RemoveCriticalApplication(ctx context.Context, orgID, userID, name string) models.ReportState {
	return s.mutateApplicationData(ctx, orgID, userID, "CRITICAL_APP_REMOVE", func(apps []models.ReportApplication) []models.ReportApplication {
		out := make([]models.ReportApplication, len(apps))
		copy(out, apps)
		for i := range out {
			if out[i].ApplicationName == name {
				out[i].IsCritical = false
			}
		}
		return out
	})
}

// SaveApplicationReviewStatus stamps the current time on every application
// whose review timestamp is still unset and marks the named applications
// critical. Already-reviewed applications keep their original timestamp, so a
// repeated call with the same arguments is a no-op.
func (s *riskReportService) SaveApplicationReviewStatus(ctx context.Context, orgID, userID string, criticalNames []string) models.ReportState {
	now := time.Now().UTC()
	return s.mutateApplicationData(ctx, orgID, userID, "REVIEW_STATUS_SAVE", func(apps []models.ReportApplication) []models.ReportApplication {
		out := markCritical(apps, criticalNames)
		for i := range out {
			if out[i].ReviewedDate == nil {
				stamped := now
				out[i].ReviewedDate = &stamped
			}
		}
		return out
	})
}

// mutateApplicationData applies a pure transformation to the application
// marker list, recomputes summary and metrics against the current report
// data, persists the two affected sections under the existing content key,
// and emits the updated state.
func (s *riskReportService) mutateApplicationData(ctx context.Context, orgID, userID, action string, mutate func([]models.ReportApplication) []models.ReportApplication) models.ReportState {
	s.mu.Lock()
	if s.currentOrg != orgID {
		s.mu.Unlock()
		return s.errorState(orgID, "no report loaded for organization", false)
	}
	prior := s.state
	wrappedKey := s.wrappedKey
	s.mu.Unlock()

	if prior.ReportID == "" || wrappedKey == "" {
		return s.errorState(orgID, "no persisted report to update", false)
	}

	applicationData := mutate(prior.ApplicationData)
	summary := computeSummary(prior.ReportData, applicationData)
	metrics := computeMetrics(prior.ReportData, applicationData, summary)

	encApps, err := s.encryption.EncryptSection(orgID, wrappedKey, applicationData)
	if err != nil {
		s.logger.Error("Failed to encrypt application data", zap.String("orgId", orgID), zap.Error(err))
		return s.errorState(orgID, "failed to encrypt application data", false)
	}
	if err := s.reportRepo.UpdateApplicationData(ctx, prior.ReportID, orgID, encApps); err != nil {
		s.logger.Error("Failed to persist application data", zap.String("orgId", orgID), zap.Error(err))
		return s.errorState(orgID, "failed to persist application data", false)
	}

	encSummary, err := s.encryption.EncryptSection(orgID, wrappedKey, summary)
	if err != nil {
		s.logger.Error("Failed to encrypt summary data", zap.String("orgId", orgID), zap.Error(err))
		return s.errorState(orgID, "failed to encrypt summary data", false)
	}
	if err := s.reportRepo.UpdateSummary(ctx, prior.ReportID, orgID, encSummary, metrics); err != nil {
		s.logger.Error("Failed to persist summary data", zap.String("orgId", orgID), zap.Error(err))
		return s.errorState(orgID, "failed to persist summary data", false)
	}

	s.auditAction(ctx, userID, orgID, action, prior.ReportID, nil)

	return s.applyState(orgID, models.ReportState{
		Status:          models.StatusComplete,
		ReportID:        prior.ReportID,
		ReportData:      prior.ReportData,
		SummaryData:     &summary,
		ApplicationData: applicationData,
		Metrics:         &metrics,
	})
}

// CriticalReportResults projects the current state down to critical-flagged
// applications, with summary and metrics recomputed over just that subset.
// Read-only; the stored state is untouched.
func (s *riskReportService) CriticalReportResults() models.ReportState {
	state := s.State()

	critical := make(map[string]bool, len(state.ApplicationData))
	criticalApps := make([]models.ReportApplication, 0)
	for _, app := range state.ApplicationData {
		if app.IsCritical {
			critical[app.ApplicationName] = true
			criticalApps = append(criticalApps, app)
		}
	}

	criticalData := make([]models.ApplicationHealthReportDetail, 0)
	for _, detail := range state.ReportData {
		if critical[detail.ApplicationName] {
			criticalData = append(criticalData, detail)
		}
	}

	summary := computeSummary(criticalData, criticalApps)
	metrics := computeMetrics(criticalData, criticalApps, summary)

	state.ReportData = criticalData
	state.ApplicationData = criticalApps
	state.SummaryData = &summary
	state.Metrics = &metrics
	return state
}

// runLegacyMigration folds legacy critical-application markers into the new
// marker shape and deletes them. Runs at most once per organization per
// process, best-effort and independent of normal fetch and generation.
// Returns true when markers were migrated into the current report.
func (s *riskReportService) runLegacyMigration(ctx context.Context, orgID, userID string) bool {
	s.mu.Lock()
	if s.migrated[orgID] || s.legacyRepo == nil {
		s.mu.Unlock()
		return false
	}
	s.migrated[orgID] = true
	s.mu.Unlock()

	markers, err := s.legacyRepo.GetByOrganizationID(ctx, orgID)
	if err != nil {
		s.logger.Warn("Legacy critical app migration: fetch failed", zap.String("orgId", orgID), zap.Error(err))
		return false
	}
	if len(markers) == 0 {
		return false
	}

	names := make([]string, 0, len(markers))
	for _, m := range markers {
		if name := trimApplicationURI(m.URI); name != "" {
			names = append(names, name)
		}
	}

	state := s.SaveCriticalApplications(ctx, orgID, userID, names)
	if state.Status == models.StatusError {
		// Markers stay in place so a later session can retry.
		s.logger.Warn("Legacy critical app migration: save failed, markers retained",
			zap.String("orgId", orgID), zap.String("error", state.ErrorMessage))
		return false
	}

	if err := s.legacyRepo.DeleteByOrganizationID(ctx, orgID); err != nil {
		s.logger.Warn("Legacy critical app migration: cleanup failed", zap.String("orgId", orgID), zap.Error(err))
	}
	s.logger.Info("Migrated legacy critical application markers",
		zap.String("orgId", orgID), zap.Int("count", len(names)))
	return true
}

func (s *riskReportService) auditAction(ctx context.Context, userID, orgID, action, reportID string, details map[string]interface{}) {
	if s.audit == nil {
		return
	}
	entry := models.AuditLog{
		UserID:         userID,
		OrganizationID: orgID,
		Action:         action,
		TargetType:     "REPORT",
		TargetID:       reportID,
		Timestamp:      time.Now().UTC(),
		Details:        details,
	}
	if err := s.audit.CreateAuditLog(ctx, entry); err != nil {
		// Audit failures never fail the main operation.
		s.logger.Warn("Failed to create audit log", zap.String("action", action), zap.Error(err))
	}
}

// markCritical returns a copy of apps with the named applications flagged
// critical. Names not present yet are appended unreviewed. Already-critical
// applications stay critical.
func markCritical(apps []models.ReportApplication, names []string) []models.ReportApplication {
	out := make([]models.ReportApplication, len(apps))
	copy(out, apps)

	index := make(map[string]int, len(out))
	for i, app := range out {
		index[app.ApplicationName] = i
	}

	for _, name := range names {
		if name == "" {
			continue
		}
		if i, ok := index[name]; ok {
			out[i].IsCritical = true
			continue
		}
		out = append(out, models.ReportApplication{
			ApplicationName: name,
			IsCritical:      true,
		})
		index[name] = len(out) - 1
	}
	return out
}

// mergeApplicationData carries prior markers forward onto a freshly computed
// report: every application in the new report data keeps its prior critical
// flag and review date when known, and prior critical-flagged applications
// missing from the new data are retained so regeneration never implies an
// explicit removal.
func mergeApplicationData(prior []models.ReportApplication, reportData []models.ApplicationHealthReportDetail) []models.ReportApplication {
	priorByName := make(map[string]models.ReportApplication, len(prior))
	for _, app := range prior {
		priorByName[app.ApplicationName] = app
	}

	seen := make(map[string]bool, len(reportData))
	out := make([]models.ReportApplication, 0, len(reportData))
	for _, detail := range reportData {
		seen[detail.ApplicationName] = true
		if app, ok := priorByName[detail.ApplicationName]; ok {
			out = append(out, app)
			continue
		}
		out = append(out, models.ReportApplication{ApplicationName: detail.ApplicationName})
	}
	for _, app := range prior {
		if !seen[app.ApplicationName] && app.IsCritical {
			out = append(out, app)
		}
	}
	return out
}

// buildApplicationRollups groups per-item health findings by trimmed URI
// domain and accumulates distinct password and member counts per application.
// Only items with a health finding (valid login items) participate.
func buildApplicationRollups(items []models.VaultItem, findings map[string]models.PasswordHealthFinding, entries map[string]*models.ItemAccessEntry) []models.ApplicationHealthReportDetail {
	type rollup struct {
		itemIDs       map[string]struct{}
		atRiskItemIDs map[string]struct{}
		members       map[string]models.MemberDetail
		atRiskMembers map[string]models.MemberDetail
	}

	rollups := make(map[string]*rollup)

	for _, item := range items {
		finding, ok := findings[item.ID]
		if !ok {
			continue
		}

		for _, app := range applicationNames(item) {
			r, exists := rollups[app]
			if !exists {
				r = &rollup{
					itemIDs:       make(map[string]struct{}),
					atRiskItemIDs: make(map[string]struct{}),
					members:       make(map[string]models.MemberDetail),
					atRiskMembers: make(map[string]models.MemberDetail),
				}
				rollups[app] = r
			}

			r.itemIDs[item.ID] = struct{}{}
			if finding.AtRisk() {
				r.atRiskItemIDs[item.ID] = struct{}{}
			}

			entry, ok := entries[item.ID]
			if !ok {
				continue
			}
			for _, m := range entry.Members {
				email := m.Email
				if email == "" {
					email = models.UnknownEmailSentinel
				}
				detail := models.MemberDetail{MemberID: m.MemberID, Email: email, DisplayName: m.DisplayName}
				r.members[m.MemberID] = detail
				if finding.AtRisk() {
					r.atRiskMembers[m.MemberID] = detail
				}
			}
		}
	}

	names := make([]string, 0, len(rollups))
	for name := range rollups {
		names = append(names, name)
	}
	sort.Strings(names)

	details := make([]models.ApplicationHealthReportDetail, 0, len(names))
	for _, name := range names {
		r := rollups[name]
		details = append(details, models.ApplicationHealthReportDetail{
			ApplicationName:     name,
			PasswordCount:       len(r.itemIDs),
			AtRiskPasswordCount: len(r.atRiskItemIDs),
			MemberCount:         len(r.members),
			AtRiskMemberCount:   len(r.atRiskMembers),
			ItemIDs:             sortedKeys(r.itemIDs),
			MemberDetails:       sortedMembers(r.members),
			AtRiskMemberDetails: sortedMembers(r.atRiskMembers),
		})
	}
	return details
}

// sortedKeys and sortedMembers return nil for empty input so rollups survive
// a JSON encrypt/decrypt round trip unchanged.
func sortedKeys(set map[string]struct{}) []string {
	if len(set) == 0 {
		return nil
	}
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func sortedMembers(members map[string]models.MemberDetail) []models.MemberDetail {
	if len(members) == 0 {
		return nil
	}
	out := make([]models.MemberDetail, 0, len(members))
	for _, m := range members {
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Email < out[j].Email })
	return out
}

// applicationNames returns the distinct trimmed URI domains for an item, or
// a single unknown-application bucket when no URI yields a usable name.
func applicationNames(item models.VaultItem) []string {
	seen := make(map[string]bool)
	var names []string
	for _, uri := range item.URIs {
		name := trimApplicationURI(uri)
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true
		names = append(names, name)
	}
	if len(names) == 0 {
		names = append(names, unknownApplicationName)
	}
	return names
}

// trimApplicationURI reduces a stored URI to its application name: the last
// two labels of the hostname. IP addresses and single-label hosts pass
// through unchanged; unparseable values fall back to the raw string.
func trimApplicationURI(uri string) string {
	raw := strings.TrimSpace(uri)
	if raw == "" {
		return ""
	}

	candidate := raw
	if !strings.Contains(candidate, "://") {
		candidate = "https://" + candidate
	}

	u, err := url.Parse(candidate)
	if err != nil || u.Hostname() == "" {
		return raw
	}
	host := strings.ToLower(u.Hostname())

	if net.ParseIP(host) != nil {
		return host
	}
	labels := strings.Split(host, ".")
	if len(labels) <= 2 {
		return host
	}
	return strings.Join(labels[len(labels)-2:], ".")
}

// computeSummary reduces application rollups into one org-wide summary. The
// critical counts cover only the critical-flagged subset. Members are
// deduplicated by email across applications.
func computeSummary(reportData []models.ApplicationHealthReportDetail, applicationData []models.ReportApplication) models.OrganizationReportSummary {
	critical := make(map[string]bool, len(applicationData))
	for _, app := range applicationData {
		if app.IsCritical {
			critical[app.ApplicationName] = true
		}
	}

	members := make(map[string]struct{})
	atRiskMembers := make(map[string]struct{})
	criticalMembers := make(map[string]struct{})
	criticalAtRiskMembers := make(map[string]struct{})

	var summary models.OrganizationReportSummary
	for _, detail := range reportData {
		summary.TotalApplicationCount++
		atRisk := detail.AtRiskPasswordCount > 0
		if atRisk {
			summary.TotalAtRiskApplicationCount++
		}
		isCritical := critical[detail.ApplicationName]
		if isCritical {
			summary.TotalCriticalApplicationCount++
			if atRisk {
				summary.TotalCriticalAtRiskAppCount++
			}
		}
		for _, m := range detail.MemberDetails {
			members[m.Email] = struct{}{}
			if isCritical {
				criticalMembers[m.Email] = struct{}{}
			}
		}
		for _, m := range detail.AtRiskMemberDetails {
			atRiskMembers[m.Email] = struct{}{}
			if isCritical {
				criticalAtRiskMembers[m.Email] = struct{}{}
			}
		}
	}

	summary.TotalMemberCount = len(members)
	summary.TotalAtRiskMemberCount = len(atRiskMembers)
	summary.TotalCriticalMemberCount = len(criticalMembers)
	summary.TotalCriticalAtRiskMemberCount = len(criticalAtRiskMembers)
	return summary
}

// computeMetrics derives the numeric-only cross metrics. Password counts sum
// the per-application counts, so an item reachable through two applications
// counts in each; total and at-risk therefore follow the same rule and
// at-risk never exceeds total.
func computeMetrics(reportData []models.ApplicationHealthReportDetail, applicationData []models.ReportApplication, summary models.OrganizationReportSummary) models.ReportMetrics {
	metrics := models.ReportMetrics{
		TotalApplicationCount:     summary.TotalApplicationCount,
		AtRiskApplicationCount:    summary.TotalAtRiskApplicationCount,
		TotalMemberCount:          summary.TotalMemberCount,
		AtRiskMemberCount:         summary.TotalAtRiskMemberCount,
		CriticalMemberCount:       summary.TotalCriticalMemberCount,
		CriticalAtRiskMemberCount: summary.TotalCriticalAtRiskMemberCount,
	}

	critical := make(map[string]bool, len(applicationData))
	for _, app := range applicationData {
		if app.IsCritical {
			critical[app.ApplicationName] = true
			metrics.CriticalApplicationCount++
		}
	}

	for _, detail := range reportData {
		metrics.TotalPasswordCount += detail.PasswordCount
		metrics.AtRiskPasswordCount += detail.AtRiskPasswordCount
		if critical[detail.ApplicationName] {
			metrics.CriticalPasswordCount += detail.PasswordCount
			metrics.CriticalAtRiskPasswordCount += detail.AtRiskPasswordCount
		}
	}
	return metrics
}
