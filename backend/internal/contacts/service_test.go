package contacts

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"contactgraph/backend/internal/graph"
	apperrors "contactgraph/backend/pkg/errors"
)

func newOwner(t *testing.T, store *graph.MemoryStore, phone string) {
	t.Helper()
	_, err := store.UpsertPerson(context.Background(), graph.UpsertParams{
		Phone:     phone,
		Name:      "Owner",
		IsAppUser: true,
	})
	require.NoError(t, err)
}

func TestSyncEmptyBatchIsNoOp(t *testing.T) {
	store := graph.NewMemoryStore()
	newOwner(t, store, "+12025550100")
	svc := NewService(store, "US")

	n, err := svc.Sync(context.Background(), "+12025550100", nil)
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	stats, err := store.NetworkStats(context.Background(), "+12025550100")
	require.NoError(t, err)
	assert.Equal(t, 0, stats.TotalContacts)
}

func TestSyncNormalizesPhones(t *testing.T) {
	ctx := context.Background()
	store := graph.NewMemoryStore()
	newOwner(t, store, "+12025550100")
	svc := NewService(store, "US")

	n, err := svc.Sync(ctx, "+12025550100", []graph.Contact{
		{Phone: "(202) 555-0175", Name: "Bob"},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	// Stored under the canonical key, not the raw device format
	bob, err := store.GetPerson(ctx, "+12025550175")
	require.NoError(t, err)
	assert.Equal(t, "Bob", bob.Name)
	assert.False(t, bob.IsAppUser)
}

func TestSyncIsIdempotent(t *testing.T) {
	ctx := context.Background()
	store := graph.NewMemoryStore()
	newOwner(t, store, "+12025550100")
	svc := NewService(store, "US")

	for i := 0; i < 2; i++ {
		_, err := svc.Sync(ctx, "+12025550100", []graph.Contact{{Phone: "+12025550175", Name: "Bob"}})
		require.NoError(t, err)
	}

	neighbors, err := store.DirectNeighbors(ctx, "+12025550100")
	require.NoError(t, err)
	assert.Len(t, neighbors, 1)
}

func TestSyncAcceptsEmptyNames(t *testing.T) {
	ctx := context.Background()
	store := graph.NewMemoryStore()
	newOwner(t, store, "+12025550100")
	svc := NewService(store, "US")

	n, err := svc.Sync(ctx, "+12025550100", []graph.Contact{{Phone: "+12025550175"}})
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	p, err := store.GetPerson(ctx, "+12025550175")
	require.NoError(t, err)
	assert.Equal(t, "", p.Name)
}

func TestAddThenRemoveThenRemoveAgain(t *testing.T) {
	ctx := context.Background()
	store := graph.NewMemoryStore()
	newOwner(t, store, "+12025550100")
	svc := NewService(store, "US")

	_, err := svc.AddContact(ctx, "+12025550100", "+12025550175", "Bob")
	require.NoError(t, err)

	require.NoError(t, svc.RemoveContact(ctx, "+12025550100", "+12025550175"))

	err = svc.RemoveContact(ctx, "+12025550100", "+12025550175")
	require.Error(t, err)
	assert.True(t, apperrors.IsErrorType(err, apperrors.ErrorTypeNotFound))
}

func TestSyncStorageErrorPropagates(t *testing.T) {
	store := graph.NewMemoryStore().WithError(apperrors.NewStorageUnavailable(assert.AnError))
	svc := NewService(store, "US")

	_, err := svc.Sync(context.Background(), "+12025550100", []graph.Contact{{Phone: "+12025550175", Name: "Bob"}})
	require.Error(t, err)
	assert.True(t, apperrors.IsErrorType(err, apperrors.ErrorTypeStorage))
}

func TestScenarioSyncThenInspectNetwork(t *testing.T) {
	ctx := context.Background()
	store := graph.NewMemoryStore()
	newOwner(t, store, "+15550001")
	svc := NewService(store, "US")

	n, err := svc.Sync(ctx, "+15550001", []graph.Contact{{Phone: "+15550002", Name: "Bob"}})
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	neighbors, err := store.DirectNeighbors(ctx, "+15550001")
	require.NoError(t, err)
	require.Len(t, neighbors, 1)
	assert.Equal(t, "+15550002", neighbors[0].Phone)
	assert.Equal(t, "Bob", neighbors[0].Name)
	assert.False(t, neighbors[0].IsAppUser)

	stats, err := store.NetworkStats(ctx, "+15550001")
	require.NoError(t, err)
	assert.Equal(t, &graph.Stats{TotalContacts: 1, AppUsersCount: 0, NonAppUsersCount: 1}, stats)
}

func TestScenarioMemberNamePrecedence(t *testing.T) {
	ctx := context.Background()
	store := graph.NewMemoryStore()
	newOwner(t, store, "+15550001")
	newOwner(t, store, "+15550003")
	svc := NewService(store, "US")

	_, err := svc.Sync(ctx, "+15550001", []graph.Contact{{Phone: "+15550002", Name: "Bob"}})
	require.NoError(t, err)

	// Bob signs in and becomes a member under his own name
	_, err = store.UpsertPerson(ctx, graph.UpsertParams{Phone: "+15550002", Name: "Robert", IsAppUser: true})
	require.NoError(t, err)

	// A third party's address book must not revert the profile name
	_, err = svc.Sync(ctx, "+15550003", []graph.Contact{{Phone: "+15550002", Name: "Bob"}})
	require.NoError(t, err)

	p, err := store.GetPerson(ctx, "+15550002")
	require.NoError(t, err)
	assert.True(t, p.IsAppUser)
	assert.Equal(t, "Robert", p.Name)
}
