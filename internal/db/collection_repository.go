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

const collectionsCollection = "collections"

// firestoreCollectionRepository implements the CollectionRepository interface
// using Firestore.
type firestoreCollectionRepository struct {
	client *firestore.Client
}

// NewFirestoreCollectionRepository creates a new instance of
// firestoreCollectionRepository.
func NewFirestoreCollectionRepository(client *firestore.Client) CollectionRepository {
	if client == nil {
		log.Fatal("Firestore client is not initialized for CollectionRepository.")
	}
	return &firestoreCollectionRepository{client: client}
}

// GetByOrganizationID retrieves every collection for an organization,
// including direct-user and group grants stored on the document.
func (r *firestoreCollectionRepository) GetByOrganizationID(ctx context.Context, orgID string) ([]models.AccessContainer, error) {
	if orgID == "" {
		return nil, errors.New("orgID cannot be empty for GetByOrganizationID operation")
	}

	iter := r.client.Collection(collectionsCollection).
		Where("organizationId", "==", orgID).
		Documents(ctx)
	defer iter.Stop()

	var containers []models.AccessContainer
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to iterate collections for org '%s': %w", orgID, err)
		}

		var container models.AccessContainer
		if err := doc.DataTo(&container); err != nil {
			log.Printf("Error decoding collection (ID: %s) for org '%s': %v. Skipping.", doc.Ref.ID, orgID, err)
			continue
		}
		container.ID = doc.Ref.ID
		containers = append(containers, container)
	}

	return containers, nil
}
