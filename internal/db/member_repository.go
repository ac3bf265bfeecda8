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

const orgMembersCollection = "orgMembers"

// firestoreMemberRepository implements the MemberRepository interface using
// Firestore.
type firestoreMemberRepository struct {
	client *firestore.Client
}

// NewFirestoreMemberRepository creates a new instance of
// firestoreMemberRepository.
func NewFirestoreMemberRepository(client *firestore.Client) MemberRepository {
	if client == nil {
		log.Fatal("Firestore client is not initialized for MemberRepository.")
	}
	return &firestoreMemberRepository{client: client}
}

// GetByOrganizationID retrieves the full member roster for an organization.
// Group ids are stored denormalized on the member document; when
// includeGroups is false they are stripped from the result.
func (r *firestoreMemberRepository) GetByOrganizationID(ctx context.Context, orgID string, includeGroups bool) ([]models.OrgMember, error) {
	if orgID == "" {
		return nil, errors.New("orgID cannot be empty for GetByOrganizationID operation")
	}

	iter := r.client.Collection(orgMembersCollection).
		Where("organizationId", "==", orgID).
		Documents(ctx)
	defer iter.Stop()

	var members []models.OrgMember
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to iterate members for org '%s': %w", orgID, err)
		}

		var member models.OrgMember
		if err := doc.DataTo(&member); err != nil {
			log.Printf("Error decoding member (ID: %s) for org '%s': %v. Skipping.", doc.Ref.ID, orgID, err)
			continue
		}
		member.ID = doc.Ref.ID
		if !includeGroups {
			member.GroupIDs = nil
		}
		members = append(members, member)
	}

	return members, nil
}
