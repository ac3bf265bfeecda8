package core

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"go.uber.org/zap"

	"vaultsight-backend-go/internal/db"
	"vaultsight-backend-go/internal/models"
)

// memberAccessService implements the MemberAccessService interface.
type memberAccessService struct {
	itemRepo       db.VaultItemRepository
	collectionRepo db.CollectionRepository
	roster         RosterCache
	graph          AccessGraphService
	logger         *zap.Logger
}

// NewMemberAccessService creates a new MemberAccessService instance.
func NewMemberAccessService(
	ir db.VaultItemRepository,
	cr db.CollectionRepository,
	roster RosterCache,
	graph AccessGraphService,
	logger *zap.Logger,
) MemberAccessService {
	return &memberAccessService{
		itemRepo:       ir,
		collectionRepo: cr,
		roster:         roster,
		graph:          graph,
		logger:         logger,
	}
}

// memberPivot accumulates one member's rollup across every item entry.
type memberPivot struct {
	memberID    string
	email       string
	displayName string
	itemIDs     map[string]struct{}
	collections map[string]struct{}
	groups      map[string]struct{}
	rank        models.PermissionRank
}

// PivotToMemberSummaries pivots the item-centric access graph into one
// summary row per member. Container and group identities are deduplicated
// across items; the rank is the highest observed across every item the
// member can reach. Output is sorted by item count descending, ties broken
// by email ascending.
func (s *memberAccessService) PivotToMemberSummaries(entries []*models.ItemAccessEntry) []models.MemberAccessSummary {
	pivots := make(map[string]*memberPivot)
	var order []string

	for _, entry := range entries {
		for _, m := range entry.Members {
			p, ok := pivots[m.MemberID]
			if !ok {
				p = &memberPivot{
					memberID:    m.MemberID,
					email:       m.Email,
					displayName: m.DisplayName,
					itemIDs:     make(map[string]struct{}),
					collections: make(map[string]struct{}),
					groups:      make(map[string]struct{}),
					rank:        models.RankHidePasswords,
				}
				pivots[m.MemberID] = p
				order = append(order, m.MemberID)
			}

			p.itemIDs[entry.ItemID] = struct{}{}
			for _, path := range m.Paths {
				p.collections[path.CollectionID] = struct{}{}
				if path.Type == models.AccessPathGroup {
					p.groups[path.GroupID] = struct{}{}
				}
			}
			if r := m.Permission.Rank(); r > p.rank {
				p.rank = r
			}
		}
	}

	summaries := make([]models.MemberAccessSummary, 0, len(order))
	for _, memberID := range order {
		p := pivots[memberID]
		email := p.email
		if email == "" {
			email = models.UnknownEmailSentinel
		}
		summaries = append(summaries, models.MemberAccessSummary{
			MemberID:        p.memberID,
			Email:           email,
			DisplayName:     p.displayName,
			ItemCount:       len(p.itemIDs),
			CollectionCount: len(p.collections),
			GroupCount:      len(p.groups),
			Permission:      p.rank,
		})
	}

	sort.SliceStable(summaries, func(i, j int) bool {
		if summaries[i].ItemCount != summaries[j].ItemCount {
			return summaries[i].ItemCount > summaries[j].ItemCount
		}
		return summaries[i].Email < summaries[j].Email
	})
	return summaries
}

// detailKey is the composite grouping key for detail rows: direct access and
// each distinct group path to the same collection are reported separately.
type detailKey struct {
	collectionID string
	accessType   models.AccessPathType
	groupID      string
}

// MemberAccessDetail filters the access graph down to one member and groups
// it by (collection, access type, group). Returns nil when the member has no
// accessible items. Rows are sorted by collection name, direct before group,
// then group name.
func (s *memberAccessService) MemberAccessDetail(entries []*models.ItemAccessEntry, memberID string) *models.MemberAccessDetailView {
	type rowAccumulator struct {
		row     models.MemberAccessDetailRow
		itemIDs map[string]struct{}
		perm    models.EffectivePermission
	}

	rows := make(map[detailKey]*rowAccumulator)
	var email, displayName string
	found := false

	for _, entry := range entries {
		m := entry.MemberByID(memberID)
		if m == nil {
			continue
		}
		found = true
		if m.Email != "" {
			email = m.Email
		}
		if m.DisplayName != "" {
			displayName = m.DisplayName
		}

		for _, path := range m.Paths {
			key := detailKey{collectionID: path.CollectionID, accessType: path.Type, groupID: path.GroupID}
			acc, ok := rows[key]
			if !ok {
				acc = &rowAccumulator{
					row: models.MemberAccessDetailRow{
						CollectionID:   path.CollectionID,
						CollectionName: path.CollectionName,
						AccessType:     path.Type,
						GroupID:        path.GroupID,
						GroupName:      path.GroupName,
					},
					itemIDs: make(map[string]struct{}),
				}
				rows[key] = acc
			}
			acc.itemIDs[entry.ItemID] = struct{}{}
			if path.Permission.CanEdit {
				acc.perm.CanEdit = true
			}
			if path.Permission.CanViewPasswords {
				acc.perm.CanViewPasswords = true
			}
			if path.Permission.CanManage {
				acc.perm.CanManage = true
			}
		}
	}

	if !found {
		return nil
	}
	if email == "" {
		email = models.UnknownEmailSentinel
	}

	view := &models.MemberAccessDetailView{
		MemberID:    memberID,
		Email:       email,
		DisplayName: displayName,
		Rows:        make([]models.MemberAccessDetailRow, 0, len(rows)),
	}
	for _, acc := range rows {
		acc.row.ItemCount = len(acc.itemIDs)
		acc.row.Permission = acc.perm.Rank()
		view.Rows = append(view.Rows, acc.row)
	}

	sort.SliceStable(view.Rows, func(i, j int) bool {
		a, b := view.Rows[i], view.Rows[j]
		if a.CollectionName != b.CollectionName {
			return a.CollectionName < b.CollectionName
		}
		if a.AccessType != b.AccessType {
			return a.AccessType == models.AccessPathDirect
		}
		return a.GroupName < b.GroupName
	})
	return view
}

// GetMemberAccessSummaries fetches live org data, builds the access graph,
// and pivots it.
func (s *memberAccessService) GetMemberAccessSummaries(ctx context.Context, orgID string) ([]models.MemberAccessSummary, error) {
	entries, err := s.buildGraphForOrg(ctx, orgID)
	if err != nil {
		return nil, err
	}
	return s.PivotToMemberSummaries(entries), nil
}

// GetMemberAccessDetail fetches live org data and returns one member's
// drill-down, or nil when the member has no accessible items.
func (s *memberAccessService) GetMemberAccessDetail(ctx context.Context, orgID, memberID string) (*models.MemberAccessDetailView, error) {
	entries, err := s.buildGraphForOrg(ctx, orgID)
	if err != nil {
		return nil, err
	}
	return s.MemberAccessDetail(entries, memberID), nil
}

func (s *memberAccessService) buildGraphForOrg(ctx context.Context, orgID string) ([]*models.ItemAccessEntry, error) {
	if s.itemRepo == nil || s.collectionRepo == nil || s.roster == nil || s.graph == nil {
		return nil, errors.New("memberAccessService: component not initialized")
	}

	items, err := s.itemRepo.GetByOrganizationID(ctx, orgID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch vault items for org '%s': %w", orgID, err)
	}
	containers, err := s.collectionRepo.GetByOrganizationID(ctx, orgID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch collections for org '%s': %w", orgID, err)
	}
	members, err := s.roster.GetMembers(ctx, orgID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch member roster for org '%s': %w", orgID, err)
	}

	return s.graph.BuildAccessGraph(items, containers, members), nil
}
