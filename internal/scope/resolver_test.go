package scope

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/areys-travel/areys/internal/auth"
)

type memoryActorSource struct {
	actors map[string]*auth.Actor
	err    error
}

func (s *memoryActorSource) FindByID(ctx context.Context, id string) (*auth.Actor, error) {
	if s.err != nil {
		return nil, s.err
	}
	actor, ok := s.actors[id]
	if !ok {
		return nil, errors.New("not found")
	}
	return actor, nil
}

func TestResolveStaffUsesCreator(t *testing.T) {
	owner := "owner-x"
	source := &memoryActorSource{actors: map[string]*auth.Actor{
		"staff-1": {ID: "staff-1", Role: "Staff", CreatedBy: &owner},
	}}
	resolver := NewResolver(source)

	scopeID, err := resolver.Resolve(context.Background(), &auth.Actor{ID: "staff-1"})
	require.NoError(t, err)
	require.Equal(t, owner, scopeID)
}

func TestResolveAdminIgnoresCreator(t *testing.T) {
	owner := "owner-x"
	source := &memoryActorSource{actors: map[string]*auth.Actor{
		"admin-1": {ID: "admin-1", Role: auth.RoleAdmin, CreatedBy: &owner},
	}}
	resolver := NewResolver(source)

	scopeID, err := resolver.Resolve(context.Background(), &auth.Actor{ID: "admin-1"})
	require.NoError(t, err)
	require.Equal(t, "admin-1", scopeID)
}

func TestResolveSelfRegisteredOwner(t *testing.T) {
	source := &memoryActorSource{actors: map[string]*auth.Actor{
		"owner-1": {ID: "owner-1", Role: "Manager"},
	}}
	resolver := NewResolver(source)

	scopeID, err := resolver.Resolve(context.Background(), &auth.Actor{ID: "owner-1"})
	require.NoError(t, err)
	require.Equal(t, "owner-1", scopeID)
}

func TestResolveFailsClosedOnLookupError(t *testing.T) {
	resolver := NewResolver(&memoryActorSource{err: errors.New("db down")})

	scopeID, err := resolver.Resolve(context.Background(), &auth.Actor{ID: "staff-1"})
	require.Error(t, err)
	require.Empty(t, scopeID)
}

func TestResolveRejectsNilActor(t *testing.T) {
	resolver := NewResolver(&memoryActorSource{})

	_, err := resolver.Resolve(context.Background(), nil)
	require.Error(t, err)
}
