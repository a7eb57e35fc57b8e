package identity

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"contactgraph/backend/internal/graph"
	apperrors "contactgraph/backend/pkg/errors"
)

func TestResolveCreatesMember(t *testing.T) {
	ctx := context.Background()
	store := graph.NewMemoryStore()
	resolver := NewResolver(store, "US")

	ident, person, err := resolver.Resolve(ctx, &Claims{
		Subject:     "uid-1",
		PhoneNumber: "(202) 555-0175",
		Email:       "alice@example.com",
		Name:        "Alice",
	})
	require.NoError(t, err)
	assert.Equal(t, "+12025550175", ident.Phone)
	assert.Equal(t, "Alice", ident.Name)
	require.NotNil(t, person)
	assert.True(t, person.IsAppUser)
	assert.Equal(t, "uid-1", person.GoogleID)

	stored, err := store.GetPerson(ctx, "+12025550175")
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", stored.Email)
}

func TestResolveRequiresPhoneOrEmail(t *testing.T) {
	resolver := NewResolver(graph.NewMemoryStore(), "US")

	_, _, err := resolver.Resolve(context.Background(), &Claims{Subject: "uid-1"})
	require.Error(t, err)
	assert.True(t, apperrors.IsErrorType(err, apperrors.ErrorTypeValidation))
}

func TestResolveNameFallsBackToEmailLocalPart(t *testing.T) {
	resolver := NewResolver(graph.NewMemoryStore(), "US")

	ident, _, err := resolver.Resolve(context.Background(), &Claims{
		Subject: "uid-2",
		Email:   "bob.jones@example.com",
	})
	require.NoError(t, err)
	assert.Equal(t, "bob.jones", ident.Name)
}

func TestResolveNameUnknownWithoutEmail(t *testing.T) {
	resolver := NewResolver(graph.NewMemoryStore(), "US")

	ident, _, err := resolver.Resolve(context.Background(), &Claims{
		Subject:     "uid-3",
		PhoneNumber: "+12025550175",
	})
	require.NoError(t, err)
	assert.Equal(t, "Unknown", ident.Name)
}

func TestEnsureDoesNotRewriteExistingProfile(t *testing.T) {
	ctx := context.Background()
	store := graph.NewMemoryStore()
	resolver := NewResolver(store, "US")

	_, _, err := resolver.Resolve(ctx, &Claims{
		Subject:     "uid-1",
		PhoneNumber: "+12025550175",
		Name:        "Robert",
	})
	require.NoError(t, err)

	// A later request with a different display name must not touch the node
	_, err = resolver.Ensure(ctx, &Claims{
		Subject:     "uid-1",
		PhoneNumber: "+12025550175",
		Name:        "Bob",
	})
	require.NoError(t, err)

	stored, err := store.GetPerson(ctx, "+12025550175")
	require.NoError(t, err)
	assert.Equal(t, "Robert", stored.Name)
}

func TestEnsureCreatesWhenAbsent(t *testing.T) {
	ctx := context.Background()
	store := graph.NewMemoryStore()
	resolver := NewResolver(store, "US")

	ident, err := resolver.Ensure(ctx, &Claims{
		Subject:     "uid-9",
		PhoneNumber: "+12025550199",
		Name:        "Carol",
	})
	require.NoError(t, err)
	assert.Equal(t, "+12025550199", ident.Phone)

	stored, err := store.GetPerson(ctx, "+12025550199")
	require.NoError(t, err)
	assert.True(t, stored.IsAppUser)
}
