package models

// UnknownEmailSentinel is substituted when the roster carries no email for a
// member. The aggregation layer must never fail on a missing email.
const UnknownEmailSentinel = "(unknown)"

// MemberAccessSummary is the member-centric pivot of the item access graph:
// one row per member with distinct-count rollups and the highest permission
// rank observed across every item the member can reach.
type MemberAccessSummary struct {
	MemberID        string         `json:"memberId"`
	Email           string         `json:"email"`
	DisplayName     string         `json:"displayName,omitempty"`
	ItemCount       int            `json:"itemCount"`
	CollectionCount int            `json:"collectionCount"`
	GroupCount      int            `json:"groupCount"`
	Permission      PermissionRank `json:"permission"`
}

// MemberAccessDetailRow breaks a member's access out by collection and access
// path. Direct and group paths to the same collection are separate rows.
type MemberAccessDetailRow struct {
	CollectionID   string         `json:"collectionId"`
	CollectionName string         `json:"collectionName"`
	AccessType     AccessPathType `json:"accessType"`
	GroupID        string         `json:"groupId,omitempty"`
	GroupName      string         `json:"groupName,omitempty"`
	ItemCount      int            `json:"itemCount"`
	Permission     PermissionRank `json:"permission"`
}

// MemberAccessDetailView is the per-member drill-down returned for a single
// member, or nil when the member has zero accessible items.
type MemberAccessDetailView struct {
	MemberID    string                  `json:"memberId"`
	Email       string                  `json:"email"`
	DisplayName string                  `json:"displayName,omitempty"`
	Rows        []MemberAccessDetailRow `json:"rows"`
}
