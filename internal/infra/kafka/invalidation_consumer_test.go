package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/IBM/sarama"
	"go.uber.org/zap"

	"github.com/taskory/admin-access/internal/core/domain"
)

type grantInvalidatorMock struct {
	allCalls  int
	roleCalls []domain.RoleKey
}

func (m *grantInvalidatorMock) Invalidate() {
	m.allCalls++
}

func (m *grantInvalidatorMock) InvalidateRole(role domain.RoleKey) {
	m.roleCalls = append(m.roleCalls, role)
}

type restrictionCacheStub struct {
	deleted []string
	err     error
}

func (m *restrictionCacheStub) GetRestrictions(_ context.Context, _ string) ([]string, error) {
	return nil, nil
}

func (m *restrictionCacheStub) SetRestrictions(_ context.Context, _ string, _ []string, _ time.Duration) error {
	return nil
}

func (m *restrictionCacheStub) DeleteRestrictions(_ context.Context, userID string) error {
	m.deleted = append(m.deleted, userID)
	return m.err
}

func TestInvalidationConsumer_RoleEvent(t *testing.T) {
	grants := &grantInvalidatorMock{}
	restrictions := &restrictionCacheStub{}
	consumer := NewInvalidationConsumer(grants, restrictions, zap.NewNop())

	err := consumer.HandleEvent(context.Background(), domain.CacheInvalidationEvent{
		EventID: "evt-1",
		Role:    domain.RoleModerator,
	})
	if err != nil {
		t.Fatalf("HandleEvent: %v", err)
	}

	if len(grants.roleCalls) != 1 || grants.roleCalls[0] != domain.RoleModerator {
		t.Fatalf("expected a single role invalidation, got %v", grants.roleCalls)
	}
	if grants.allCalls != 0 {
		t.Fatalf("expected no full cache drop")
	}
	if len(restrictions.deleted) != 0 {
		t.Fatalf("expected no restriction cache drops for a role event")
	}
}

func TestInvalidationConsumer_UserEvent(t *testing.T) {
	grants := &grantInvalidatorMock{}
	restrictions := &restrictionCacheStub{}
	consumer := NewInvalidationConsumer(grants, restrictions, zap.NewNop())

	err := consumer.HandleEvent(context.Background(), domain.CacheInvalidationEvent{
		EventID: "evt-2",
		UserID:  "user-1",
	})
	if err != nil {
		t.Fatalf("HandleEvent: %v", err)
	}

	if len(restrictions.deleted) != 1 || restrictions.deleted[0] != "user-1" {
		t.Fatalf("expected the user's restriction entry to be dropped, got %v", restrictions.deleted)
	}
	if grants.allCalls != 0 || len(grants.roleCalls) != 0 {
		t.Fatalf("expected the permission cache to stay untouched for a user event")
	}
}

func TestInvalidationConsumer_EmptyEventDropsAll(t *testing.T) {
	grants := &grantInvalidatorMock{}
	consumer := NewInvalidationConsumer(grants, nil, zap.NewNop())

	err := consumer.HandleEvent(context.Background(), domain.CacheInvalidationEvent{EventID: "evt-3"})
	if err != nil {
		t.Fatalf("HandleEvent: %v", err)
	}
	if grants.allCalls != 1 {
		t.Fatalf("expected a full cache drop, got %d", grants.allCalls)
	}
}

func TestInvalidationConsumer_RestrictionDropFailureIsNotFatal(t *testing.T) {
	restrictions := &restrictionCacheStub{err: errors.New("connection refused")}
	consumer := NewInvalidationConsumer(nil, restrictions, zap.NewNop())

	err := consumer.HandleEvent(context.Background(), domain.CacheInvalidationEvent{
		EventID: "evt-4",
		UserID:  "user-1",
	})
	if err != nil {
		t.Fatalf("expected the drop failure to be swallowed, got %v", err)
	}
}

func TestInvalidationConsumer_HandleMessage(t *testing.T) {
	grants := &grantInvalidatorMock{}
	consumer := NewInvalidationConsumer(grants, nil, zap.NewNop())

	envelope := map[string]any{
		"event_id":   "evt-5",
		"event_type": "rbac.cache.invalidated",
		"timestamp":  time.Now().UTC(),
		"payload": map[string]any{
			"role": "admin",
		},
	}
	value, err := json.Marshal(envelope)
	if err != nil {
		t.Fatalf("marshal envelope: %v", err)
	}

	err = consumer.HandleMessage(context.Background(), &sarama.ConsumerMessage{Value: value})
	if err != nil {
		t.Fatalf("HandleMessage: %v", err)
	}
	if len(grants.roleCalls) != 1 || grants.roleCalls[0] != domain.RoleAdmin {
		t.Fatalf("expected the admin role to be invalidated, got %v", grants.roleCalls)
	}

	if err := consumer.HandleMessage(context.Background(), nil); err == nil {
		t.Fatalf("expected nil message to be rejected")
	}
	if err := consumer.HandleMessage(context.Background(), &sarama.ConsumerMessage{Value: []byte("{")}); err == nil {
		t.Fatalf("expected malformed payload to be rejected")
	}
}
