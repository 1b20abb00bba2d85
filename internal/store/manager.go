package store

import (
	"context"
	"log/slog"
	"sync"

	"github.com/areys-travel/areys/internal/auth"
	"github.com/areys-travel/areys/internal/perms"
	"github.com/areys-travel/areys/internal/scope"
)

// ChangeSubscriber delivers remote change events for an account scope.
// Implemented by the notify listener.
type ChangeSubscriber interface {
	Subscribe(ctx context.Context, scopeID string, onChange func(context.Context)) error
}

type managedStore struct {
	store  *Store
	cancel context.CancelFunc
}

// Manager owns one Store per authenticated actor. Stores are created on
// first use after sign-in and torn down on sign-out; each runs a
// change-notification subscription for its account scope that triggers
// full reloads.
type Manager struct {
	loader     *Loader
	resolver   *scope.Resolver
	subscriber ChangeSubscriber
	logger     *slog.Logger

	mu     sync.Mutex
	stores map[string]*managedStore
}

// NewManager constructs a Manager.
func NewManager(loader *Loader, resolver *scope.Resolver, subscriber ChangeSubscriber, logger *slog.Logger) *Manager {
	return &Manager{
		loader:     loader,
		resolver:   resolver,
		subscriber: subscriber,
		logger:     logger,
		stores:     make(map[string]*managedStore),
	}
}

// Acquire returns the actor's store, creating and loading it on first
// use. A store whose resolved scope changed (for example the actor's
// role row moved accounts) is torn down and rebuilt.
func (m *Manager) Acquire(ctx context.Context, actor *auth.Actor) (*Store, error) {
	scopeID, err := m.resolver.Resolve(ctx, actor)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	existing, ok := m.stores[actor.ID]
	if ok && existing.store.View().Scope == scopeID {
		m.mu.Unlock()
		return existing.store, nil
	}
	if ok {
		existing.cancel()
		delete(m.stores, actor.ID)
	}

	st := NewStore(m.loader, View{Actor: actor, Scope: scopeID})
	subCtx, cancel := context.WithCancel(context.Background())
	m.stores[actor.ID] = &managedStore{store: st, cancel: cancel}
	m.mu.Unlock()

	if err := st.Reload(ctx); err != nil {
		m.Release(actor.ID)
		return nil, err
	}

	if m.subscriber != nil {
		go func() {
			if err := m.subscriber.Subscribe(subCtx, scopeID, func(cbCtx context.Context) {
				if err := st.Reload(cbCtx); err != nil {
					m.logger.Warn("reload on change failed", slog.String("scope", scopeID), slog.Any("error", err))
				}
			}); err != nil && subCtx.Err() == nil {
				m.logger.Warn("change subscription ended", slog.String("scope", scopeID), slog.Any("error", err))
			}
		}()
	}
	return st, nil
}

// Release tears down an actor's store and its change subscription.
func (m *Manager) Release(actorID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if existing, ok := m.stores[actorID]; ok {
		existing.cancel()
		delete(m.stores, actorID)
	}
}

// Close releases every store.
func (m *Manager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, existing := range m.stores {
		existing.cancel()
		delete(m.stores, id)
	}
}

// UpsertRoleDefinition applies a global role change to every live
// store, since the role catalog is shared across accounts.
func (m *Manager) UpsertRoleDefinition(def perms.RoleDefinition) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.stores {
		existing.store.UpsertRoleDefinition(def)
	}
}
