package graph

import "context"

// Person is a node in the contact graph: one phone-number identity, whether
// or not that person has ever signed in to the app.
type Person struct {
	Phone     string `json:"phone"`
	Name      string `json:"name"`
	Email     string `json:"email,omitempty"`
	GoogleID  string `json:"google_id,omitempty"`
	IsAppUser bool   `json:"is_app_user"`
	CreatedAt string `json:"created_at,omitempty"`
}

// Contact is one raw (phone, name) pair from a device address book. Phones
// are expected to be normalized before they reach the store.
type Contact struct {
	Phone string `json:"phone"`
	Name  string `json:"name"`
}

// UpsertParams describes a create-or-merge of a Person keyed on phone.
//
// Merge rules: Name is last-writer-wins for this call; Email and GoogleID
// only overwrite when non-empty; IsAppUser true is sticky and never reverts;
// CreatedAt is set once on first creation.
type UpsertParams struct {
	Phone     string
	Name      string
	Email     string
	GoogleID  string
	IsAppUser bool
}

// Path is a shortest KNOWS-chain between two Persons. Degree is the hop
// count (edges traversed), Nodes the ordered chain from source to target
// inclusive.
type Path struct {
	Degree int
	Nodes  []Person
}

// Stats are aggregate counts over a person's direct neighbors.
type Stats struct {
	TotalContacts    int `json:"total_contacts"`
	AppUsersCount    int `json:"app_users_count"`
	NonAppUsersCount int `json:"non_app_users_count"`
}

// Store is the narrow contract the rest of the system uses to read and
// write the contact graph. Implementations: the Neo4j Repository and the
// in-memory store used by tests.
type Store interface {
	// EnsureSchema creates the phone uniqueness constraint and index.
	EnsureSchema(ctx context.Context) error

	// UpsertPerson creates or merges a Person per UpsertParams and returns
	// the resulting node.
	UpsertPerson(ctx context.Context, params UpsertParams) (*Person, error)

	// GetPerson returns the Person for a phone, or a not-found error.
	GetPerson(ctx context.Context, phone string) (*Person, error)

	// BulkUpsertAndLink merges every contact as a non-member and creates a
	// KNOWS edge from owner to each. Best-effort across the batch: the
	// returned count is how many contact rows the engine reports linked,
	// and callers must not assume all-or-nothing semantics.
	BulkUpsertAndLink(ctx context.Context, ownerPhone string, contacts []Contact) (int, error)

	// RemoveKnows deletes the owner->contact edge if present. Returns false,
	// not an error, when no edge existed.
	RemoveKnows(ctx context.Context, ownerPhone, contactPhone string) (bool, error)

	// ShortestPath returns the shortest undirected KNOWS-chain between two
	// phones within maxHops hops, or nil when none exists. Callers handle
	// the equal-endpoint case before reaching the store.
	ShortestPath(ctx context.Context, fromPhone, toPhone string, maxHops int) (*Path, error)

	// DirectNeighbors returns everyone the owner directly knows, ordered by
	// name ascending.
	DirectNeighbors(ctx context.Context, ownerPhone string) ([]Person, error)

	// NetworkStats returns direct-neighbor counts for the owner.
	NetworkStats(ctx context.Context, ownerPhone string) (*Stats, error)

	// VerifyConnectivity checks the engine is reachable.
	VerifyConnectivity(ctx context.Context) error

	// Close releases the underlying connection.
	Close(ctx context.Context) error
}
