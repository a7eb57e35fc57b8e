package graph

import (
	"context"
	"fmt"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"go.uber.org/zap"

	apperrors "contactgraph/backend/pkg/errors"
	"contactgraph/backend/pkg/logger"
)

// Repository is the Neo4j-backed Store implementation
type Repository struct {
	driver neo4j.DriverWithContext
	logger *zap.Logger
}

// NewRepository creates a new graph repository
func NewRepository(driver neo4j.DriverWithContext) *Repository {
	return &Repository{
		driver: driver,
		logger: logger.Named("graph"),
	}
}

// VerifyConnectivity checks the Neo4j server is reachable
func (r *Repository) VerifyConnectivity(ctx context.Context) error {
	if err := r.driver.VerifyConnectivity(ctx); err != nil {
		return apperrors.NewStorageUnavailable(err)
	}
	return nil
}

// Close closes the Neo4j driver connection
func (r *Repository) Close(ctx context.Context) error {
	return r.driver.Close(ctx)
}

// EnsureSchema creates the phone uniqueness constraint and index on startup
func (r *Repository) EnsureSchema(ctx context.Context) error {
	session := r.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeWrite})
	defer session.Close(ctx)

	statements := []string{
		"CREATE CONSTRAINT user_phone_unique IF NOT EXISTS FOR (u:User) REQUIRE u.phone IS UNIQUE",
		"CREATE INDEX user_phone_index IF NOT EXISTS FOR (u:User) ON (u.phone)",
	}
	for _, stmt := range statements {
		if _, err := session.Run(ctx, stmt, nil); err != nil {
			return apperrors.NewQueryFailed("ensure schema", err)
		}
	}
	r.logger.Info("Neo4j constraints and indexes ensured")
	return nil
}

// UpsertPerson creates or merges a Person node keyed on phone
func (r *Repository) UpsertPerson(ctx context.Context, params UpsertParams) (*Person, error) {
	session := r.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeWrite})
	defer session.Close(ctx)

	query := `
		MERGE (u:User {phone: $phone})
		ON CREATE SET
			u.name        = $name,
			u.email       = $email,
			u.google_id   = $google_id,
			u.is_app_user = $is_app_user,
			u.created_at  = $now
		ON MATCH SET
			u.name        = $name,
			u.email       = CASE WHEN $email <> '' THEN $email ELSE u.email END,
			u.google_id   = CASE WHEN $google_id <> '' THEN $google_id ELSE u.google_id END,
			u.is_app_user = CASE WHEN $is_app_user THEN true ELSE u.is_app_user END
		RETURN u
	`

	result, err := session.Run(ctx, query, map[string]interface{}{
		"phone":       params.Phone,
		"name":        params.Name,
		"email":       params.Email,
		"google_id":   params.GoogleID,
		"is_app_user": params.IsAppUser,
		"now":         time.Now().UTC().Format(time.RFC3339),
	})
	if err != nil {
		return nil, apperrors.NewQueryFailed("upsert person", err)
	}

	record, err := result.Single(ctx)
	if err != nil {
		return nil, apperrors.NewQueryFailed("upsert person", err)
	}

	person := personFromRecord(record, "u")
	if person == nil {
		return nil, apperrors.NewQueryFailed("upsert person", fmt.Errorf("no node returned for %s", params.Phone))
	}
	return person, nil
}

// GetPerson looks up a Person by phone
func (r *Repository) GetPerson(ctx context.Context, phone string) (*Person, error) {
	session := r.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeRead})
	defer session.Close(ctx)

	result, err := session.Run(ctx, "MATCH (u:User {phone: $phone}) RETURN u", map[string]interface{}{
		"phone": phone,
	})
	if err != nil {
		return nil, apperrors.NewQueryFailed("get person", err)
	}

	if !result.Next(ctx) {
		if err := result.Err(); err != nil {
			return nil, apperrors.NewQueryFailed("get person", err)
		}
		return nil, apperrors.NewPersonNotFound(phone)
	}

	person := personFromRecord(result.Record(), "u")
	if person == nil {
		return nil, apperrors.NewPersonNotFound(phone)
	}
	return person, nil
}

// BulkUpsertAndLink merges each contact as a non-member and links the owner
// to it with a KNOWS edge. Contact names only overwrite while the contact
// has not become an app user; a member's own profile name is authoritative.
//
// The whole batch runs as a single query and the returned count is what the
// engine reports, but callers treat this as best-effort rather than atomic.
func (r *Repository) BulkUpsertAndLink(ctx context.Context, ownerPhone string, contacts []Contact) (int, error) {
	if len(contacts) == 0 {
		return 0, nil
	}

	session := r.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeWrite})
	defer session.Close(ctx)

	rows := make([]map[string]interface{}, 0, len(contacts))
	for _, c := range contacts {
		rows = append(rows, map[string]interface{}{"phone": c.Phone, "name": c.Name})
	}

	query := `
		UNWIND $contacts AS contact
		MERGE (c:User {phone: contact.phone})
		ON CREATE SET
			c.name        = contact.name,
			c.is_app_user = false,
			c.created_at  = $now
		ON MATCH SET
			c.name = CASE WHEN c.is_app_user = false THEN contact.name ELSE c.name END
		WITH c
		MATCH (u:User {phone: $owner_phone})
		MERGE (u)-[:KNOWS]->(c)
		RETURN count(c) AS synced
	`

	result, err := session.Run(ctx, query, map[string]interface{}{
		"contacts":    rows,
		"owner_phone": ownerPhone,
		"now":         time.Now().UTC().Format(time.RFC3339),
	})
	if err != nil {
		return 0, apperrors.NewQueryFailed("bulk upsert and link", err)
	}

	record, err := result.Single(ctx)
	if err != nil {
		return 0, apperrors.NewQueryFailed("bulk upsert and link", err)
	}
	return getIntFromRecord(record, "synced"), nil
}

// RemoveKnows deletes a single owner->contact KNOWS edge
func (r *Repository) RemoveKnows(ctx context.Context, ownerPhone, contactPhone string) (bool, error) {
	session := r.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeWrite})
	defer session.Close(ctx)

	query := `
		MATCH (u:User {phone: $owner_phone})-[k:KNOWS]->(c:User {phone: $contact_phone})
		DELETE k
		RETURN count(k) AS removed
	`

	result, err := session.Run(ctx, query, map[string]interface{}{
		"owner_phone":   ownerPhone,
		"contact_phone": contactPhone,
	})
	if err != nil {
		return false, apperrors.NewQueryFailed("remove knows", err)
	}

	record, err := result.Single(ctx)
	if err != nil {
		return false, apperrors.NewQueryFailed("remove knows", err)
	}
	return getIntFromRecord(record, "removed") > 0, nil
}

// ShortestPath finds the shortest undirected KNOWS-chain between two phones
// within maxHops hops. Returns nil when no path exists; any one valid
// shortest path may be returned when several tie.
func (r *Repository) ShortestPath(ctx context.Context, fromPhone, toPhone string, maxHops int) (*Path, error) {
	if maxHops < 1 {
		maxHops = 1
	}

	session := r.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeRead})
	defer session.Close(ctx)

	// Variable-length pattern bounds cannot be parameterized; maxHops is an
	// int clamped above, never raw input.
	query := fmt.Sprintf(`
		MATCH path = shortestPath(
			(a:User {phone: $from_phone})-[:KNOWS*1..%d]-(b:User {phone: $to_phone})
		)
		RETURN path, length(path) AS degree
	`, maxHops)

	result, err := session.Run(ctx, query, map[string]interface{}{
		"from_phone": fromPhone,
		"to_phone":   toPhone,
	})
	if err != nil {
		return nil, apperrors.NewQueryFailed("shortest path", err)
	}

	if !result.Next(ctx) {
		if err := result.Err(); err != nil {
			return nil, apperrors.NewQueryFailed("shortest path", err)
		}
		return nil, nil
	}

	record := result.Record()
	raw, ok := record.Get("path")
	if !ok || raw == nil {
		return nil, nil
	}
	neoPath, ok := raw.(neo4j.Path)
	if !ok {
		return nil, apperrors.NewQueryFailed("shortest path", fmt.Errorf("unexpected path type %T", raw))
	}

	nodes := make([]Person, 0, len(neoPath.Nodes))
	for _, n := range neoPath.Nodes {
		nodes = append(nodes, personFromProps(n.Props))
	}
	return &Path{
		Degree: getIntFromRecord(record, "degree"),
		Nodes:  nodes,
	}, nil
}

// DirectNeighbors returns everyone the owner knows, ordered by name
func (r *Repository) DirectNeighbors(ctx context.Context, ownerPhone string) ([]Person, error) {
	session := r.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeRead})
	defer session.Close(ctx)

	query := `
		MATCH (u:User {phone: $owner_phone})-[:KNOWS]->(c:User)
		RETURN c
		ORDER BY c.name
	`

	result, err := session.Run(ctx, query, map[string]interface{}{
		"owner_phone": ownerPhone,
	})
	if err != nil {
		return nil, apperrors.NewQueryFailed("direct neighbors", err)
	}

	neighbors := []Person{}
	for result.Next(ctx) {
		if p := personFromRecord(result.Record(), "c"); p != nil {
			neighbors = append(neighbors, *p)
		}
	}
	if err := result.Err(); err != nil {
		return nil, apperrors.NewQueryFailed("direct neighbors", err)
	}
	return neighbors, nil
}

// NetworkStats returns direct-neighbor counts for the owner
func (r *Repository) NetworkStats(ctx context.Context, ownerPhone string) (*Stats, error) {
	session := r.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeRead})
	defer session.Close(ctx)

	query := `
		MATCH (u:User {phone: $owner_phone})-[:KNOWS]->(c:User)
		RETURN
			count(c) AS total_contacts,
			sum(CASE WHEN c.is_app_user = true  THEN 1 ELSE 0 END) AS app_users_count,
			sum(CASE WHEN c.is_app_user = false THEN 1 ELSE 0 END) AS non_app_users_count
	`

	result, err := session.Run(ctx, query, map[string]interface{}{
		"owner_phone": ownerPhone,
	})
	if err != nil {
		return nil, apperrors.NewQueryFailed("network stats", err)
	}

	record, err := result.Single(ctx)
	if err != nil {
		return nil, apperrors.NewQueryFailed("network stats", err)
	}

	return &Stats{
		TotalContacts:    getIntFromRecord(record, "total_contacts"),
		AppUsersCount:    getIntFromRecord(record, "app_users_count"),
		NonAppUsersCount: getIntFromRecord(record, "non_app_users_count"),
	}, nil
}
