package core

import (
	"context"

	"go.uber.org/zap"

	"vaultsight-backend-go/internal/batch"
	"vaultsight-backend-go/internal/models"
)

// accessGraphService implements the AccessGraphService interface.
type accessGraphService struct {
	logger *zap.Logger
}

// NewAccessGraphService creates a new AccessGraphService instance.
func NewAccessGraphService(logger *zap.Logger) AccessGraphService {
	return &accessGraphService{logger: logger}
}

// accessIndex holds the lookups shared by every item in one build run: the
// collection lookup and the group-to-members reverse index built by scanning
// each member's group list once.
type accessIndex struct {
	containers   map[string]*models.AccessContainer
	groupMembers map[string][]string
	membersByID  map[string]*models.OrgMember
}

func newAccessIndex(containers []models.AccessContainer, members []models.OrgMember) *accessIndex {
	idx := &accessIndex{
		containers:   make(map[string]*models.AccessContainer, len(containers)),
		groupMembers: make(map[string][]string),
		membersByID:  make(map[string]*models.OrgMember, len(members)),
	}
	for i := range containers {
		idx.containers[containers[i].ID] = &containers[i]
	}
	for i := range members {
		m := &members[i]
		idx.membersByID[m.ID] = m
		for _, groupID := range m.GroupIDs {
			idx.groupMembers[groupID] = append(idx.groupMembers[groupID], m.ID)
		}
	}
	return idx
}

// BuildAccessGraph returns one access entry per item, in input order. Items
// with no collection ids are flagged unassigned with zero members.
// Unresolvable collection references and groups with no resolvable members
// are logged and skipped; inconsistent references between independently
// fetched inputs never abort the build.
func (s *accessGraphService) BuildAccessGraph(items []models.VaultItem, containers []models.AccessContainer, members []models.OrgMember) []*models.ItemAccessEntry {
	idx := newAccessIndex(containers, members)

	entries := make([]*models.ItemAccessEntry, 0, len(items))
	for i := range items {
		entries = append(entries, s.buildEntry(&items[i], idx))
	}
	return entries
}

// BuildAccessGraphProgressive partitions items into fixed-size batches and
// emits a running tally after every batch; the terminal emission carries the
// full graph. The shared index is built once up front.
func (s *accessGraphService) BuildAccessGraphProgressive(ctx context.Context, items []models.VaultItem, containers []models.AccessContainer, members []models.OrgMember, batchSize int) <-chan batch.Progress[*models.ItemAccessEntry] {
	idx := newAccessIndex(containers, members)

	return batch.Run(ctx, items, batchSize, func(_ context.Context, chunk []models.VaultItem) ([]*models.ItemAccessEntry, error) {
		entries := make([]*models.ItemAccessEntry, 0, len(chunk))
		for i := range chunk {
			entries = append(entries, s.buildEntry(&chunk[i], idx))
		}
		return entries, nil
	})
}

// buildEntry resolves every access path for one item and folds permission
// bits per member with most-permissive-wins semantics. Folding is associative
// and commutative, so grant iteration order affects only path ordering, never
// the effective permission.
func (s *accessGraphService) buildEntry(item *models.VaultItem, idx *accessIndex) *models.ItemAccessEntry {
	entry := &models.ItemAccessEntry{
		ItemID:        item.ID,
		CollectionIDs: item.CollectionIDs,
	}

	if len(item.CollectionIDs) == 0 {
		entry.Unassigned = true
		return entry
	}

	// Accumulators keyed by member id; memberOrder preserves first-sight
	// ordering so the output is deterministic for deterministic input.
	accumulators := make(map[string]*models.MemberItemAccess)
	var memberOrder []string

	upsert := func(memberID string, grant models.AccessGrant, path models.AccessPath) {
		acc, ok := accumulators[memberID]
		if !ok {
			acc = &models.MemberItemAccess{MemberID: memberID}
			if m, found := idx.membersByID[memberID]; found {
				acc.Email = m.Email
				acc.DisplayName = m.DisplayName
			}
			accumulators[memberID] = acc
			memberOrder = append(memberOrder, memberID)
		}
		acc.Permission.Fold(grant)
		acc.Paths = append(acc.Paths, path)
	}

	for _, collectionID := range item.CollectionIDs {
		container, ok := idx.containers[collectionID]
		if !ok {
			// Expected in eventually-consistent multi-fetch scenarios.
			s.logger.Warn("Item references unknown collection, skipping",
				zap.String("itemId", item.ID),
				zap.String("collectionId", collectionID))
			continue
		}

		for _, grant := range container.UserGrants {
			upsert(grant.GranteeID, grant, models.AccessPath{
				CollectionID:   container.ID,
				CollectionName: container.Name,
				Type:           models.AccessPathDirect,
				Permission:     models.PermissionFromGrant(grant),
			})
		}

		for _, grant := range container.GroupGrants {
			groupMemberIDs := idx.groupMembers[grant.GranteeID]
			if len(groupMemberIDs) == 0 {
				s.logger.Warn("Group grant has no resolvable members, skipping",
					zap.String("collectionId", container.ID),
					zap.String("groupId", grant.GranteeID))
				continue
			}
			for _, memberID := range groupMemberIDs {
				upsert(memberID, grant, models.AccessPath{
					CollectionID:   container.ID,
					CollectionName: container.Name,
					Type:           models.AccessPathGroup,
					GroupID:        grant.GranteeID,
					GroupName:      grant.GranteeName,
					Permission:     models.PermissionFromGrant(grant),
				})
			}
		}
	}

	entry.Members = make([]*models.MemberItemAccess, 0, len(memberOrder))
	for _, memberID := range memberOrder {
		entry.Members = append(entry.Members, accumulators[memberID])
	}
	return entry
}
