package core

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"vaultsight-backend-go/internal/models"
)

// fakeItemRepo, fakeCollectionRepo, and fakeRoster are in-memory stand-ins
// for the Firestore repositories, shared by the service tests in this
// package.
type fakeItemRepo struct {
	items []models.VaultItem
	err   error
}

func (f *fakeItemRepo) GetByOrganizationID(_ context.Context, _ string) ([]models.VaultItem, error) {
	return f.items, f.err
}

type fakeCollectionRepo struct {
	containers []models.AccessContainer
	err        error
}

func (f *fakeCollectionRepo) GetByOrganizationID(_ context.Context, _ string) ([]models.AccessContainer, error) {
	return f.containers, f.err
}

type fakeRoster struct {
	members []models.OrgMember
	err     error
}

func (f *fakeRoster) GetMembers(_ context.Context, _ string) ([]models.OrgMember, error) {
	return f.members, f.err
}

func (f *fakeRoster) Invalidate(string) error { return nil }

func pivotEntries() []*models.ItemAccessEntry {
	manage := models.EffectivePermission{CanEdit: true, CanViewPasswords: true, CanManage: true}
	view := models.EffectivePermission{CanViewPasswords: true}

	return []*models.ItemAccessEntry{
		{
			ItemID: "item-1",
			Members: []*models.MemberItemAccess{
				{
					MemberID:   "alice",
					Email:      "alice@example.com",
					Permission: view,
					Paths: []models.AccessPath{
						{CollectionID: "col-a", CollectionName: "Alpha", Type: models.AccessPathDirect},
					},
				},
				{
					MemberID:   "bob",
					Email:      "bob@example.com",
					Permission: manage,
					Paths: []models.AccessPath{
						{CollectionID: "col-a", CollectionName: "Alpha", Type: models.AccessPathGroup, GroupID: "grp-1", GroupName: "Group One"},
					},
				},
			},
		},
		{
			ItemID: "item-2",
			Members: []*models.MemberItemAccess{
				{
					MemberID:   "bob",
					Email:      "bob@example.com",
					Permission: view,
					Paths: []models.AccessPath{
						{CollectionID: "col-b", CollectionName: "Beta", Type: models.AccessPathGroup, GroupID: "grp-1", GroupName: "Group One"},
					},
				},
				{
					MemberID:   "carol",
					Permission: view,
					Paths: []models.AccessPath{
						{CollectionID: "col-b", CollectionName: "Beta", Type: models.AccessPathDirect},
					},
				},
			},
		},
	}
}

func newPivotService() MemberAccessService {
	return NewMemberAccessService(&fakeItemRepo{}, &fakeCollectionRepo{}, &fakeRoster{}, NewAccessGraphService(zap.NewNop()), zap.NewNop())
}

// TestPivotToMemberSummaries_DistinctCountsAndSort verifies the pivot
// deduplicates items, collections, and groups per member and sorts by item
// count descending with email as the tiebreaker.
func TestPivotToMemberSummaries_DistinctCountsAndSort(t *testing.T) {
	svc := newPivotService()

	summaries := svc.PivotToMemberSummaries(pivotEntries())
	require.Len(t, summaries, 3)

	// Bob reaches both items, so he sorts first.
	bob := summaries[0]
	assert.Equal(t, "bob", bob.MemberID)
	assert.Equal(t, 2, bob.ItemCount)
	assert.Equal(t, 2, bob.CollectionCount)
	assert.Equal(t, 1, bob.GroupCount, "same group through two collections counts once")
	assert.Equal(t, models.RankManage, bob.Permission, "highest rank across items wins")

	// Alice and carol both have one item; the sentinel "(unknown)" sorts
	// before alice@example.com.
	assert.Equal(t, "carol", summaries[1].MemberID)
	assert.Equal(t, models.UnknownEmailSentinel, summaries[1].Email)
	assert.Equal(t, "alice", summaries[2].MemberID)
	assert.Equal(t, models.RankViewOnly, summaries[2].Permission)
}

func TestPivotToMemberSummaries_EmptyGraph(t *testing.T) {
	svc := newPivotService()
	assert.Empty(t, svc.PivotToMemberSummaries(nil))
	assert.Empty(t, svc.PivotToMemberSummaries([]*models.ItemAccessEntry{{ItemID: "i", Unassigned: true}}))
}

// TestMemberAccessDetail_GroupingAndSort verifies detail rows group by
// (collection, access type, group) and sort by collection name with direct
// rows before group rows.
func TestMemberAccessDetail_GroupingAndSort(t *testing.T) {
	svc := newPivotService()
	edit := models.EffectivePermission{CanEdit: true, CanViewPasswords: true}

	entries := []*models.ItemAccessEntry{
		{
			ItemID: "item-1",
			Members: []*models.MemberItemAccess{
				{
					MemberID: "alice",
					Email:    "alice@example.com",
					Paths: []models.AccessPath{
						{CollectionID: "col-a", CollectionName: "Alpha", Type: models.AccessPathGroup, GroupID: "grp-1", GroupName: "Group One", Permission: edit},
						{CollectionID: "col-a", CollectionName: "Alpha", Type: models.AccessPathDirect, Permission: models.EffectivePermission{}},
					},
				},
			},
		},
		{
			ItemID: "item-2",
			Members: []*models.MemberItemAccess{
				{
					MemberID: "alice",
					Email:    "alice@example.com",
					Paths: []models.AccessPath{
						{CollectionID: "col-a", CollectionName: "Alpha", Type: models.AccessPathDirect, Permission: models.EffectivePermission{}},
					},
				},
			},
		},
	}

	view := svc.MemberAccessDetail(entries, "alice")
	require.NotNil(t, view)
	assert.Equal(t, "alice@example.com", view.Email)
	require.Len(t, view.Rows, 2)

	direct := view.Rows[0]
	assert.Equal(t, models.AccessPathDirect, direct.AccessType)
	assert.Equal(t, 2, direct.ItemCount, "direct rows across items merge on the same collection")
	assert.Equal(t, models.RankHidePasswords, direct.Permission)

	group := view.Rows[1]
	assert.Equal(t, models.AccessPathGroup, group.AccessType)
	assert.Equal(t, "Group One", group.GroupName)
	assert.Equal(t, 1, group.ItemCount)
	assert.Equal(t, models.RankEdit, group.Permission)
}

// TestMemberAccessDetail_UnknownMember verifies nil for members with no
// accessible items.
func TestMemberAccessDetail_UnknownMember(t *testing.T) {
	svc := newPivotService()
	assert.Nil(t, svc.MemberAccessDetail(pivotEntries(), "nobody"))
}

// TestGetMemberAccessSummaries_LiveData verifies the end-to-end path from
// repositories through the graph builder to the pivot.
func TestGetMemberAccessSummaries_LiveData(t *testing.T) {
	items, containers, members := graphFixture()
	svc := NewMemberAccessService(
		&fakeItemRepo{items: items},
		&fakeCollectionRepo{containers: containers},
		&fakeRoster{members: members},
		NewAccessGraphService(zap.NewNop()),
		zap.NewNop(),
	)

	summaries, err := svc.GetMemberAccessSummaries(context.Background(), "org-1")
	require.NoError(t, err)
	require.Len(t, summaries, 2)
	assert.Equal(t, "alice", summaries[0].MemberID)
	assert.Equal(t, 2, summaries[0].ItemCount)
}

func TestGetMemberAccessSummaries_RepoError(t *testing.T) {
	svc := NewMemberAccessService(
		&fakeItemRepo{err: errors.New("firestore down")},
		&fakeCollectionRepo{},
		&fakeRoster{},
		NewAccessGraphService(zap.NewNop()),
		zap.NewNop(),
	)

	_, err := svc.GetMemberAccessSummaries(context.Background(), "org-1")
	assert.Error(t, err)
}

func TestGetMemberAccessDetail_LiveData(t *testing.T) {
	items, containers, members := graphFixture()
	svc := NewMemberAccessService(
		&fakeItemRepo{items: items},
		&fakeCollectionRepo{containers: containers},
		&fakeRoster{members: members},
		NewAccessGraphService(zap.NewNop()),
		zap.NewNop(),
	)

	view, err := svc.GetMemberAccessDetail(context.Background(), "org-1", "bob")
	require.NoError(t, err)
	require.NotNil(t, view)
	assert.Equal(t, "bob@example.com", view.Email)

	missing, err := svc.GetMemberAccessDetail(context.Background(), "org-1", "nobody")
	require.NoError(t, err)
	assert.Nil(t, missing)
}
