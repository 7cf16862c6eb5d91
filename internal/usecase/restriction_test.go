package usecase

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/taskory/admin-access/internal/core/domain"
	"github.com/taskory/admin-access/internal/repository"
)

type restrictionRepoMock struct {
	sets     map[string][]string
	err      error
	getCalls int
	replaced map[string][]string
}

func (m *restrictionRepoMock) GetByUser(_ context.Context, userID string) ([]string, error) {
	m.getCalls++
	if m.err != nil {
		return nil, m.err
	}
	return m.sets[userID], nil
}

func (m *restrictionRepoMock) ReplaceForUser(_ context.Context, userID string, permissionKeys []string) error {
	if m.err != nil {
		return m.err
	}
	if m.sets == nil {
		m.sets = make(map[string][]string)
	}
	if m.replaced == nil {
		m.replaced = make(map[string][]string)
	}
	m.sets[userID] = permissionKeys
	m.replaced[userID] = permissionKeys
	return nil
}

type restrictionCacheMock struct {
	entries  map[string][]string
	err      error
	sets     int
	deletes  int
	lastTTL  time.Duration
	getCalls int
}

func (m *restrictionCacheMock) GetRestrictions(_ context.Context, userID string) ([]string, error) {
	m.getCalls++
	if m.err != nil {
		return nil, m.err
	}
	keys, ok := m.entries[userID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return keys, nil
}

func (m *restrictionCacheMock) SetRestrictions(_ context.Context, userID string, permissionKeys []string, ttl time.Duration) error {
	m.sets++
	m.lastTTL = ttl
	if m.err != nil {
		return m.err
	}
	if m.entries == nil {
		m.entries = make(map[string][]string)
	}
	m.entries[userID] = permissionKeys
	return nil
}

func (m *restrictionCacheMock) DeleteRestrictions(_ context.Context, userID string) error {
	m.deletes++
	if m.err != nil {
		return m.err
	}
	delete(m.entries, userID)
	return nil
}

func newRestrictionFixture(t *testing.T) (*RestrictionAdmin, *restrictionRepoMock, *restrictionCacheMock, *auditPublisherMock) {
	t.Helper()

	store := &restrictionRepoMock{sets: map[string][]string{}}
	cache := &restrictionCacheMock{entries: map[string][]string{}}
	audit := &auditPublisherMock{}
	admin := NewRestrictionAdmin(store, testCatalog(t), audit, zap.NewNop()).WithCache(cache, 10*time.Second)
	return admin, store, cache, audit
}

func TestRestrictionAdmin_ReadThroughCache(t *testing.T) {
	admin, store, cache, _ := newRestrictionFixture(t)
	store.sets["user-1"] = []string{"users.ban"}

	got, err := admin.Restrictions(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("Restrictions: %v", err)
	}
	if !reflect.DeepEqual(got, []string{"users.ban"}) {
		t.Fatalf("unexpected restriction set: %v", got)
	}
	if store.getCalls != 1 || cache.sets != 1 {
		t.Fatalf("expected one store read and one cache fill, got %d/%d", store.getCalls, cache.sets)
	}
	if cache.lastTTL != 10*time.Second {
		t.Fatalf("expected the configured cache TTL, got %s", cache.lastTTL)
	}

	// Second read is served from cache.
	if _, err := admin.Restrictions(context.Background(), "user-1"); err != nil {
		t.Fatalf("Restrictions (cached): %v", err)
	}
	if store.getCalls != 1 {
		t.Fatalf("expected the cached read to skip the store, got %d store reads", store.getCalls)
	}
}

func TestRestrictionAdmin_EmptySetIsCached(t *testing.T) {
	admin, store, cache, _ := newRestrictionFixture(t)

	got, err := admin.Restrictions(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("Restrictions: %v", err)
	}
	if len(got) != 0 || got == nil {
		t.Fatalf("expected an empty non-nil set, got %#v", got)
	}
	if cache.sets != 1 {
		t.Fatalf("expected the empty set to be cached")
	}
	if _, err := admin.Restrictions(context.Background(), "user-1"); err != nil {
		t.Fatalf("Restrictions (cached): %v", err)
	}
	if store.getCalls != 1 {
		t.Fatalf("expected the cached empty set to skip the store")
	}
}

func TestRestrictionAdmin_CacheFailureFallsBackToStore(t *testing.T) {
	admin, store, cache, _ := newRestrictionFixture(t)
	store.sets["user-1"] = []string{"users.ban"}
	cache.err = errors.New("connection refused")

	got, err := admin.Restrictions(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("expected the store to remain the source of truth, got %v", err)
	}
	if !reflect.DeepEqual(got, []string{"users.ban"}) {
		t.Fatalf("unexpected restriction set: %v", got)
	}
}

func TestRestrictionAdmin_ReplaceRestrictions(t *testing.T) {
	admin, store, cache, audit := newRestrictionFixture(t)
	store.sets["user-1"] = []string{"users.ban"}
	cache.entries["user-1"] = []string{"users.ban"}

	err := admin.ReplaceRestrictions(context.Background(), "actor-1", "user-1", []string{"tasks.delete", "orders.refund", "tasks.delete"})
	if err != nil {
		t.Fatalf("ReplaceRestrictions: %v", err)
	}

	// Stored sorted and deduplicated.
	if !reflect.DeepEqual(store.replaced["user-1"], []string{"orders.refund", "tasks.delete"}) {
		t.Fatalf("unexpected stored set: %v", store.replaced["user-1"])
	}
	if cache.deletes != 1 {
		t.Fatalf("expected the cache entry to be dropped on write")
	}

	if len(audit.restrictionUpdates) != 1 {
		t.Fatalf("expected one restriction update event, got %d", len(audit.restrictionUpdates))
	}
	event := audit.restrictionUpdates[0]
	if event.UserID != "user-1" || event.UpdatedBy != "actor-1" {
		t.Fatalf("unexpected event envelope: %+v", event)
	}
	if !reflect.DeepEqual(event.Before, []string{"users.ban"}) {
		t.Fatalf("unexpected before set: %v", event.Before)
	}
	if !reflect.DeepEqual(event.After, []string{"orders.refund", "tasks.delete"}) {
		t.Fatalf("unexpected after set: %v", event.After)
	}
}

func TestRestrictionAdmin_ReplaceRejectsUnknownPermission(t *testing.T) {
	admin, store, _, _ := newRestrictionFixture(t)

	err := admin.ReplaceRestrictions(context.Background(), "actor-1", "user-1", []string{"foo.bar"})
	if !errors.Is(err, domain.ErrUnknownPermission) {
		t.Fatalf("expected ErrUnknownPermission, got %v", err)
	}
	if len(store.replaced) != 0 {
		t.Fatalf("expected no store write after validation failure")
	}
}

func TestRestrictionAdmin_ClearRestrictions(t *testing.T) {
	admin, store, _, audit := newRestrictionFixture(t)
	store.sets["user-1"] = []string{"users.ban"}

	if err := admin.ReplaceRestrictions(context.Background(), "actor-1", "user-1", nil); err != nil {
		t.Fatalf("ReplaceRestrictions: %v", err)
	}
	if len(store.replaced["user-1"]) != 0 {
		t.Fatalf("expected the restriction set to be cleared")
	}
	if len(audit.restrictionUpdates) != 1 || len(audit.restrictionUpdates[0].After) != 0 {
		t.Fatalf("expected an audit event recording the cleared set")
	}
}
