package db

import (
	"context"
	"errors"
	"fmt"
	"log"

	"cloud.google.com/go/firestore"
	"github.com/google/uuid"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"vaultsight-backend-go/internal/models"
)

const reportsCollection = "riskInsightsReports"

// firestoreReportRepository implements the ReportRepository interface using
// Firestore.
type firestoreReportRepository struct {
	client *firestore.Client
}

// NewFirestoreReportRepository creates a new instance of
// firestoreReportRepository.
func NewFirestoreReportRepository(client *firestore.Client) ReportRepository {
	if client == nil {
		log.Fatal("Firestore client is not initialized for ReportRepository.")
	}
	return &firestoreReportRepository{client: client}
}

// Create stores a new encrypted report document under a generated UUID and
// returns the new id. CreatedAt and UpdatedAt are handled by serverTimestamp.
func (r *firestoreReportRepository) Create(ctx context.Context, report *models.RiskInsightsReport) (string, error) {
	if report == nil {
		return "", errors.New("report cannot be nil for Create operation")
	}
	if report.OrganizationID == "" {
		return "", errors.New("report organizationId cannot be empty for Create operation")
	}

	report.ID = uuid.NewString()
	if _, err := r.client.Collection(reportsCollection).Doc(report.ID).Create(ctx, report); err != nil {
		return "", fmt.Errorf("failed to create report for org '%s': %w", report.OrganizationID, err)
	}
	return report.ID, nil
}

// GetLatestByOrg retrieves the most recently created report for an
// organization, or ErrNotFound when none exists.
func (r *firestoreReportRepository) GetLatestByOrg(ctx context.Context, orgID string) (*models.RiskInsightsReport, error) {
	if orgID == "" {
		return nil, errors.New("orgID cannot be empty for GetLatestByOrg operation")
	}

	iter := r.client.Collection(reportsCollection).
		Where("organizationId", "==", orgID).
		OrderBy("createdAt", firestore.Desc).
		Limit(1).
		Documents(ctx)
	defer iter.Stop()

	doc, err := iter.Next()
	if err == iterator.Done {
		return nil, fmt.Errorf("no report found for org '%s': %w", orgID, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query latest report for org '%s': %w", orgID, err)
	}

	var report models.RiskInsightsReport
	if err := doc.DataTo(&report); err != nil {
		return nil, fmt.Errorf("failed to decode report data for org '%s': %w", orgID, err)
	}
	report.ID = doc.Ref.ID

	return &report, nil
}

// UpdateApplicationData replaces only the encrypted application section of an
// existing report. The org id is checked so a report can never be patched
// across organizations.
func (r *firestoreReportRepository) UpdateApplicationData(ctx context.Context, reportID, orgID, encryptedApplicationData string) error {
	if reportID == "" || orgID == "" {
		return errors.New("reportID and orgID cannot be empty for UpdateApplicationData operation")
	}

	if err := r.verifyOwnership(ctx, reportID, orgID); err != nil {
		return err
	}

	_, err := r.client.Collection(reportsCollection).Doc(reportID).Update(ctx, []firestore.Update{
		{Path: "encryptedApplicationData", Value: encryptedApplicationData},
		{Path: "updatedAt", Value: firestore.ServerTimestamp},
	})
	if err != nil {
		return fmt.Errorf("failed to update application data for report '%s': %w", reportID, err)
	}
	return nil
}

// UpdateSummary replaces the encrypted summary section and the clear-text
// numeric metrics of an existing report.
func (r *firestoreReportRepository) UpdateSummary(ctx context.Context, reportID, orgID, encryptedSummaryData string, metrics models.ReportMetrics) error {
	if reportID == "" || orgID == "" {
		return errors.New("reportID and orgID cannot be empty for UpdateSummary operation")
	}

	if err := r.verifyOwnership(ctx, reportID, orgID); err != nil {
		return err
	}

	_, err := r.client.Collection(reportsCollection).Doc(reportID).Update(ctx, []firestore.Update{
		{Path: "encryptedSummaryData", Value: encryptedSummaryData},
		{Path: "metrics", Value: metrics},
		{Path: "updatedAt", Value: firestore.ServerTimestamp},
	})
	if err != nil {
		return fmt.Errorf("failed to update summary for report '%s': %w", reportID, err)
	}
	return nil
}

func (r *firestoreReportRepository) verifyOwnership(ctx context.Context, reportID, orgID string) error {
	docSnap, err := r.client.Collection(reportsCollection).Doc(reportID).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return fmt.Errorf("report with ID '%s' not found: %w", reportID, ErrNotFound)
		}
		return fmt.Errorf("failed to get report with ID '%s': %w", reportID, err)
	}

	var report models.RiskInsightsReport
	if err := docSnap.DataTo(&report); err != nil {
		return fmt.Errorf("failed to decode report data for ID '%s': %w", reportID, err)
	}
	if report.OrganizationID != orgID {
		return fmt.Errorf("report '%s' does not belong to org '%s': %w", reportID, orgID, ErrNotFound)
	}
	return nil
}
