package models

// AccessGrant is a single ACL entry on a collection, for either a member
// (direct grant) or a group (group grant). The three permission bits are
// independent of each other.
type AccessGrant struct {
	GranteeID     string `json:"granteeId" firestore:"granteeId"`
	GranteeName   string `json:"granteeName,omitempty" firestore:"granteeName,omitempty"`
	ReadOnly      bool   `json:"readOnly" firestore:"readOnly"`
	HidePasswords bool   `json:"hidePasswords" firestore:"hidePasswords"`
	Manage        bool   `json:"manage" firestore:"manage"`
}

// AccessContainer is a named grouping of vault items carrying its own ACL
// ("collection" in UI terms). Items reference containers by id; containers
// reference members directly and groups by id.
type AccessContainer struct {
	ID             string        `json:"id" firestore:"-"`
	OrganizationID string        `json:"organizationId" firestore:"organizationId"`
	Name           string        `json:"name" firestore:"name"`
	UserGrants     []AccessGrant `json:"userGrants,omitempty" firestore:"userGrants,omitempty"`
	GroupGrants    []AccessGrant `json:"groupGrants,omitempty" firestore:"groupGrants,omitempty"`
}

// OrgMember is one organization member from the roster. GroupIDs must already
// be resolved by the roster source. Email may be empty in degraded paths; the
// aggregation layer substitutes a sentinel rather than failing.
type OrgMember struct {
	ID             string   `json:"id" firestore:"-"`
	OrganizationID string   `json:"organizationId" firestore:"organizationId"`
	Email          string   `json:"email,omitempty" firestore:"email,omitempty"`
	DisplayName    string   `json:"displayName,omitempty" firestore:"displayName,omitempty"`
	GroupIDs       []string `json:"groupIds,omitempty" firestore:"groupIds,omitempty"`
}

// EffectivePermission is the most-permissive union of every access path a
// member has to an item. Folding another path can only raise flags, never
// lower them.
type EffectivePermission struct {
	CanEdit          bool `json:"canEdit"`
	CanViewPasswords bool `json:"canViewPasswords"`
	CanManage        bool `json:"canManage"`
}

// Fold merges one grant's permission bits into the accumulator using
// most-permissive-wins semantics.
func (p *EffectivePermission) Fold(g AccessGrant) {
	if !g.ReadOnly {
		p.CanEdit = true
	}
	if !g.HidePasswords {
		p.CanViewPasswords = true
	}
	if g.Manage {
		p.CanManage = true
	}
}

// PermissionRank orders effective permissions for summary display.
// Manage > Edit > ViewOnly > HidePasswords; HidePasswords is the default when
// no higher flag is set.
type PermissionRank int

const (
	RankHidePasswords PermissionRank = iota
	RankViewOnly
	RankEdit
	RankManage
)

func (r PermissionRank) String() string {
	switch r {
	case RankManage:
		return "manage"
	case RankEdit:
		return "edit"
	case RankViewOnly:
		return "viewOnly"
	default:
		return "hidePasswords"
	}
}

// Rank derives the display rank from the highest-priority true flag.
func (p EffectivePermission) Rank() PermissionRank {
	switch {
	case p.CanManage:
		return RankManage
	case p.CanEdit:
		return RankEdit
	case p.CanViewPasswords:
		return RankViewOnly
	default:
		return RankHidePasswords
	}
}

// AccessPathType tags how a member reaches a collection.
type AccessPathType string

const (
	AccessPathDirect AccessPathType = "direct"
	AccessPathGroup  AccessPathType = "group"
)

// AccessPath is one concrete grant connecting a member to an item through a
// collection, either directly or via a specific group.
type AccessPath struct {
	CollectionID   string              `json:"collectionId"`
	CollectionName string              `json:"collectionName"`
	Type           AccessPathType      `json:"type"`
	GroupID        string              `json:"groupId,omitempty"`
	GroupName      string              `json:"groupName,omitempty"`
	Permission     EffectivePermission `json:"permission"`
}

// PermissionFromGrant converts one grant's bits into the permission that
// single path confers on its own.
func PermissionFromGrant(g AccessGrant) EffectivePermission {
	var p EffectivePermission
	p.Fold(g)
	return p
}

// MemberItemAccess accumulates one member's access to one item across every
// access path that reaches it.
type MemberItemAccess struct {
	MemberID    string              `json:"memberId"`
	Email       string              `json:"email,omitempty"`
	DisplayName string              `json:"displayName,omitempty"`
	Permission  EffectivePermission `json:"permission"`
	Paths       []AccessPath        `json:"paths"`
}

// ItemAccessEntry is the access graph record for a single vault item: which
// members can reach it and through which paths. Items with no collection ids
// are flagged unassigned and carry zero members.
type ItemAccessEntry struct {
	ItemID        string              `json:"itemId"`
	CollectionIDs []string            `json:"collectionIds,omitempty"`
	Unassigned    bool                `json:"unassigned"`
	Members       []*MemberItemAccess `json:"members"`
}

// TotalMemberCount returns the number of distinct members with access to the
// item.
func (e *ItemAccessEntry) TotalMemberCount() int {
	return len(e.Members)
}

// MemberByID returns the accumulated access record for one member, or nil.
func (e *ItemAccessEntry) MemberByID(memberID string) *MemberItemAccess {
	for _, m := range e.Members {
		if m.MemberID == memberID {
			return m
		}
	}
	return nil
}
