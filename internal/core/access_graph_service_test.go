package core

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"vaultsight-backend-go/internal/batch"
	"vaultsight-backend-go/internal/models"
)

func graphFixture() ([]models.VaultItem, []models.AccessContainer, []models.OrgMember) {
	items := []models.VaultItem{
		{ID: "item-1", CollectionIDs: []string{"col-eng", "col-ops"}},
		{ID: "item-2", CollectionIDs: []string{"col-eng"}},
		{ID: "item-unassigned"},
	}
	containers := []models.AccessContainer{
		{
			ID:   "col-eng",
			Name: "Engineering",
			UserGrants: []models.AccessGrant{
				// Restrictive direct grant: read-only, passwords hidden.
				{GranteeID: "alice", ReadOnly: true, HidePasswords: true},
			},
			GroupGrants: []models.AccessGrant{
				{GranteeID: "grp-dev", GranteeName: "Developers", ReadOnly: true},
			},
		},
		{
			ID:   "col-ops",
			Name: "Operations",
			UserGrants: []models.AccessGrant{
				// Permissive direct grant on the second collection.
				{GranteeID: "alice", Manage: true},
			},
		},
	}
	members := []models.OrgMember{
		{ID: "alice", Email: "alice@example.com", DisplayName: "Alice"},
		{ID: "bob", Email: "bob@example.com", GroupIDs: []string{"grp-dev"}},
	}
	return items, containers, members
}

// TestBuildAccessGraph_MostPermissiveWins verifies that a member reached
// through both a restrictive and a permissive grant ends up with the union of
// capabilities.
func TestBuildAccessGraph_MostPermissiveWins(t *testing.T) {
	items, containers, members := graphFixture()
	svc := NewAccessGraphService(zap.NewNop())

	entries := svc.BuildAccessGraph(items, containers, members)
	require.Len(t, entries, 3)

	alice := entries[0].MemberByID("alice")
	require.NotNil(t, alice)
	assert.True(t, alice.Permission.CanEdit, "manage grant implies edit")
	assert.True(t, alice.Permission.CanViewPasswords)
	assert.True(t, alice.Permission.CanManage)
	assert.Equal(t, models.RankManage, alice.Permission.Rank())
	assert.Len(t, alice.Paths, 2)

	// On item-2 alice only has the restrictive grant.
	alice2 := entries[1].MemberByID("alice")
	require.NotNil(t, alice2)
	assert.False(t, alice2.Permission.CanEdit)
	assert.False(t, alice2.Permission.CanViewPasswords)
	assert.False(t, alice2.Permission.CanManage)
	assert.Equal(t, models.RankHidePasswords, alice2.Permission.Rank())
}

// TestBuildAccessGraph_GroupResolution verifies group grants fan out to the
// group's members with per-path group identity.
func TestBuildAccessGraph_GroupResolution(t *testing.T) {
	items, containers, members := graphFixture()
	svc := NewAccessGraphService(zap.NewNop())

	entries := svc.BuildAccessGraph(items, containers, members)

	bob := entries[0].MemberByID("bob")
	require.NotNil(t, bob)
	assert.Equal(t, "bob@example.com", bob.Email)
	assert.True(t, bob.Permission.CanViewPasswords)
	assert.False(t, bob.Permission.CanEdit)
	require.Len(t, bob.Paths, 1)
	assert.Equal(t, models.AccessPathGroup, bob.Paths[0].Type)
	assert.Equal(t, "grp-dev", bob.Paths[0].GroupID)
	assert.Equal(t, "Developers", bob.Paths[0].GroupName)
}

// TestBuildAccessGraph_UnassignedShortCircuit verifies items with no
// collection ids carry the unassigned flag and zero members.
func TestBuildAccessGraph_UnassignedShortCircuit(t *testing.T) {
	items, containers, members := graphFixture()
	svc := NewAccessGraphService(zap.NewNop())

	entries := svc.BuildAccessGraph(items, containers, members)

	unassigned := entries[2]
	assert.True(t, unassigned.Unassigned)
	assert.Equal(t, 0, unassigned.TotalMemberCount())
}

// TestBuildAccessGraph_SkipsUnresolvableReferences verifies unknown
// collections and memberless groups are skipped without aborting the build.
func TestBuildAccessGraph_SkipsUnresolvableReferences(t *testing.T) {
	items := []models.VaultItem{
		{ID: "item-1", CollectionIDs: []string{"col-missing", "col-real"}},
	}
	containers := []models.AccessContainer{
		{
			ID:   "col-real",
			Name: "Real",
			UserGrants: []models.AccessGrant{
				{GranteeID: "alice"},
			},
			GroupGrants: []models.AccessGrant{
				{GranteeID: "grp-empty", GranteeName: "Empty"},
			},
		},
	}
	members := []models.OrgMember{{ID: "alice", Email: "alice@example.com"}}

	svc := NewAccessGraphService(zap.NewNop())
	entries := svc.BuildAccessGraph(items, containers, members)

	require.Len(t, entries, 1)
	assert.False(t, entries[0].Unassigned)
	require.Equal(t, 1, entries[0].TotalMemberCount())
	assert.Equal(t, "alice", entries[0].Members[0].MemberID)
}

// TestBuildAccessGraphProgressive verifies batching emits a running record
// per batch and that the terminal record carries the same graph as the
// synchronous build.
func TestBuildAccessGraphProgressive(t *testing.T) {
	items := make([]models.VaultItem, 5)
	for i := range items {
		items[i] = models.VaultItem{ID: string(rune('a' + i)), CollectionIDs: []string{"col"}}
	}
	containers := []models.AccessContainer{
		{ID: "col", Name: "Col", UserGrants: []models.AccessGrant{{GranteeID: "alice", Manage: true}}},
	}
	members := []models.OrgMember{{ID: "alice", Email: "alice@example.com"}}

	svc := NewAccessGraphService(zap.NewNop())

	var emissions []batch.Progress[*models.ItemAccessEntry]
	for p := range svc.BuildAccessGraphProgressive(context.Background(), items, containers, members, 2) {
		emissions = append(emissions, p)
	}

	// ceil(5/2) running emissions plus the terminal complete record.
	require.Len(t, emissions, 4)
	for _, p := range emissions[:3] {
		assert.Equal(t, batch.StateRunning, p.State)
	}
	final := emissions[3]
	assert.Equal(t, batch.StateComplete, final.State)
	require.Len(t, final.Partial, 5)

	sync := svc.BuildAccessGraph(items, containers, members)
	for i := range sync {
		assert.Equal(t, sync[i].ItemID, final.Partial[i].ItemID)
		assert.Equal(t, sync[i].TotalMemberCount(), final.Partial[i].TotalMemberCount())
	}
}
