package db

import (
	"context"
	"errors"
	"fmt"
	"log"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"

	"vaultsight-backend-go/internal/models"
)

const legacyCriticalAppsCollection = "passwordHealthReportApplications"

// firestoreLegacyCriticalAppRepository implements the
// LegacyCriticalAppRepository interface using Firestore. It exists only to
// serve the one-time migration of older critical-application markers.
type firestoreLegacyCriticalAppRepository struct {
	client *firestore.Client
}

// NewFirestoreLegacyCriticalAppRepository creates a new instance of
// firestoreLegacyCriticalAppRepository.
func NewFirestoreLegacyCriticalAppRepository(client *firestore.Client) LegacyCriticalAppRepository {
	if client == nil {
		log.Fatal("Firestore client is not initialized for LegacyCriticalAppRepository.")
	}
	return &firestoreLegacyCriticalAppRepository{client: client}
}

// GetByOrganizationID retrieves every legacy critical-application marker for
// an organization. An empty slice means there is nothing to migrate.
func (r *firestoreLegacyCriticalAppRepository) GetByOrganizationID(ctx context.Context, orgID string) ([]models.LegacyCriticalApp, error) {
	if orgID == "" {
		return nil, errors.New("orgID cannot be empty for GetByOrganizationID operation")
	}

	iter := r.client.Collection(legacyCriticalAppsCollection).
		Where("organizationId", "==", orgID).
		Documents(ctx)
	defer iter.Stop()

	var markers []models.LegacyCriticalApp
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to iterate legacy critical apps for org '%s': %w", orgID, err)
		}

		var marker models.LegacyCriticalApp
		if err := doc.DataTo(&marker); err != nil {
			log.Printf("Error decoding legacy critical app (ID: %s) for org '%s': %v. Skipping.", doc.Ref.ID, orgID, err)
			continue
		}
		marker.ID = doc.Ref.ID
		markers = append(markers, marker)
	}

	return markers, nil
}

// DeleteByOrganizationID removes every legacy marker for an organization
// after a successful migration.
func (r *firestoreLegacyCriticalAppRepository) DeleteByOrganizationID(ctx context.Context, orgID string) error {
	if orgID == "" {
		return errors.New("orgID cannot be empty for DeleteByOrganizationID operation")
	}

	iter := r.client.Collection(legacyCriticalAppsCollection).
		Where("organizationId", "==", orgID).
		Documents(ctx)
	defer iter.Stop()

	bw := r.client.BulkWriter(ctx)
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return fmt.Errorf("failed to iterate legacy critical apps for deletion (org '%s'): %w", orgID, err)
		}
		if _, err := bw.Delete(doc.Ref); err != nil {
			return fmt.Errorf("failed to queue legacy critical app deletion (org '%s'): %w", orgID, err)
		}
	}
	bw.End()

	return nil
}
