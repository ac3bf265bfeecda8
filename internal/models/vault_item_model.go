package models

// VaultItemType identifies the kind of credential a vault item holds.
// Only login items participate in password health analysis.
type VaultItemType string

const (
	ItemTypeLogin      VaultItemType = "login"
	ItemTypeCard       VaultItemType = "card"
	ItemTypeIdentity   VaultItemType = "identity"
	ItemTypeSecureNote VaultItemType = "secureNote"
)

// VaultItem is a read-only credential entry fetched fresh for each report run.
// The core never mutates items; they are input to the access graph and the
// health analysis only.
type VaultItem struct {
	ID             string        `json:"id" firestore:"-"`
	OrganizationID string        `json:"organizationId" firestore:"organizationId"`
	Type           VaultItemType `json:"type" firestore:"type"`
	Name           string        `json:"name" firestore:"name"`
	Username       string        `json:"username,omitempty" firestore:"username,omitempty"`
	Password       string        `json:"password,omitempty" firestore:"password,omitempty"`
	URIs           []string      `json:"uris,omitempty" firestore:"uris,omitempty"`
	CollectionIDs  []string      `json:"collectionIds,omitempty" firestore:"collectionIds,omitempty"`
	Deleted        bool          `json:"deleted" firestore:"deleted"`
	ViewPassword   bool          `json:"viewPassword" firestore:"viewPassword"`
}
