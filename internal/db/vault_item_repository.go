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

const vaultItemsCollection = "vaultItems"

// firestoreVaultItemRepository implements the VaultItemRepository interface
// using Firestore.
type firestoreVaultItemRepository struct {
	client *firestore.Client
}

// NewFirestoreVaultItemRepository creates a new instance of
// firestoreVaultItemRepository.
func NewFirestoreVaultItemRepository(client *firestore.Client) VaultItemRepository {
	if client == nil {
		log.Fatal("Firestore client is not initialized for VaultItemRepository.")
	}
	return &firestoreVaultItemRepository{client: client}
}

// GetByOrganizationID retrieves every vault item belonging to an
// organization. Items are report input; no pagination is applied because a
// report always needs the full set.
func (r *firestoreVaultItemRepository) GetByOrganizationID(ctx context.Context, orgID string) ([]models.VaultItem, error) {
	if orgID == "" {
		return nil, errors.New("orgID cannot be empty for GetByOrganizationID operation")
	}

	iter := r.client.Collection(vaultItemsCollection).
		Where("organizationId", "==", orgID).
		Documents(ctx)
	defer iter.Stop()

	var items []models.VaultItem
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to iterate vault items for org '%s': %w", orgID, err)
		}

		var item models.VaultItem
		if err := doc.DataTo(&item); err != nil {
			log.Printf("Error decoding vault item (ID: %s) for org '%s': %v. Skipping.", doc.Ref.ID, orgID, err)
			continue
		}
		item.ID = doc.Ref.ID
		items = append(items, item)
	}

	return items, nil
}
