package graph

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
)

// These tests require a running Neo4j instance.
// Set NEO4J_URI, NEO4J_USER, NEO4J_PASSWORD environment variables.

func createTestDriver() (neo4j.DriverWithContext, error) {
	uri := os.Getenv("NEO4J_URI")
	if uri == "" {
		uri = "bolt://localhost:7687"
	}
	user := os.Getenv("NEO4J_USER")
	if user == "" {
		user = "neo4j"
	}
	password := os.Getenv("NEO4J_PASSWORD")
	if password == "" {
		password = "password"
	}
	return neo4j.NewDriverWithContext(uri, neo4j.BasicAuth(user, password, ""))
}

func cleanupPhones(ctx context.Context, driver neo4j.DriverWithContext, phones ...string) {
	session := driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeWrite})
	defer session.Close(ctx)
	_, _ = session.Run(ctx, "MATCH (u:User) WHERE u.phone IN $phones DETACH DELETE u",
		map[string]interface{}{"phones": phones})
}

func TestRepository_SyncAndSearch(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test")
	}

	ctx := context.Background()
	driver, err := createTestDriver()
	if err != nil {
		t.Fatalf("Failed to create driver: %v", err)
	}
	defer driver.Close(ctx)

	repo := NewRepository(driver)
	if err := repo.VerifyConnectivity(ctx); err != nil {
		t.Fatalf("VerifyConnectivity failed: %v", err)
	}
	if err := repo.EnsureSchema(ctx); err != nil {
		t.Fatalf("EnsureSchema failed: %v", err)
	}

	suffix := time.Now().Format("150405")
	owner := fmt.Sprintf("+1999%s01", suffix)
	middle := fmt.Sprintf("+1999%s02", suffix)
	target := fmt.Sprintf("+1999%s03", suffix)
	defer cleanupPhones(ctx, driver, owner, middle, target)

	if _, err := repo.UpsertPerson(ctx, UpsertParams{Phone: owner, Name: "Owner", IsAppUser: true}); err != nil {
		t.Fatalf("UpsertPerson failed: %v", err)
	}

	n, err := repo.BulkUpsertAndLink(ctx, owner, []Contact{{Phone: middle, Name: "Middle"}})
	if err != nil {
		t.Fatalf("BulkUpsertAndLink failed: %v", err)
	}
	if n != 1 {
		t.Errorf("Expected 1 synced contact, got %d", n)
	}

	if _, err := repo.BulkUpsertAndLink(ctx, middle, []Contact{{Phone: target, Name: "Target"}}); err != nil {
		t.Fatalf("BulkUpsertAndLink failed: %v", err)
	}

	path, err := repo.ShortestPath(ctx, owner, target, 6)
	if err != nil {
		t.Fatalf("ShortestPath failed: %v", err)
	}
	if path == nil {
		t.Fatal("Expected a path, got none")
	}
	if path.Degree != 2 {
		t.Errorf("Expected degree 2, got %d", path.Degree)
	}
	if len(path.Nodes) != 3 {
		t.Errorf("Expected 3 nodes in path, got %d", len(path.Nodes))
	}

	stats, err := repo.NetworkStats(ctx, owner)
	if err != nil {
		t.Fatalf("NetworkStats failed: %v", err)
	}
	if stats.TotalContacts != 1 || stats.NonAppUsersCount != 1 {
		t.Errorf("Unexpected stats: %+v", stats)
	}

	removed, err := repo.RemoveKnows(ctx, owner, middle)
	if err != nil {
		t.Fatalf("RemoveKnows failed: %v", err)
	}
	if !removed {
		t.Error("Expected edge removal to report true")
	}

	removed, err = repo.RemoveKnows(ctx, owner, middle)
	if err != nil {
		t.Fatalf("RemoveKnows failed: %v", err)
	}
	if removed {
		t.Error("Expected second removal to report false")
	}
}

func TestRepository_MemberNamePrecedence(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test")
	}

	ctx := context.Background()
	driver, err := createTestDriver()
	if err != nil {
		t.Fatalf("Failed to create driver: %v", err)
	}
	defer driver.Close(ctx)

	repo := NewRepository(driver)

	suffix := time.Now().Format("150405")
	owner := fmt.Sprintf("+1998%s01", suffix)
	member := fmt.Sprintf("+1998%s02", suffix)
	defer cleanupPhones(ctx, driver, owner, member)

	if _, err := repo.UpsertPerson(ctx, UpsertParams{Phone: owner, Name: "Owner", IsAppUser: true}); err != nil {
		t.Fatalf("UpsertPerson failed: %v", err)
	}
	if _, err := repo.UpsertPerson(ctx, UpsertParams{Phone: member, Name: "Robert", IsAppUser: true}); err != nil {
		t.Fatalf("UpsertPerson failed: %v", err)
	}

	if _, err := repo.BulkUpsertAndLink(ctx, owner, []Contact{{Phone: member, Name: "Bob"}}); err != nil {
		t.Fatalf("BulkUpsertAndLink failed: %v", err)
	}

	p, err := repo.GetPerson(ctx, member)
	if err != nil {
		t.Fatalf("GetPerson failed: %v", err)
	}
	if p.Name != "Robert" {
		t.Errorf("Expected member name 'Robert' to survive contact sync, got '%s'", p.Name)
	}
	if !p.IsAppUser {
		t.Error("Expected membership to survive contact sync")
	}
}
