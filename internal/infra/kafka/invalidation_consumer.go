package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/IBM/sarama"
	"go.uber.org/zap"

	"github.com/taskory/admin-access/internal/core/domain"
	"github.com/taskory/admin-access/internal/core/port"
)

// GrantInvalidator is the slice of the in-process permission cache the
// consumer needs.
type GrantInvalidator interface {
	Invalidate()
	InvalidateRole(role domain.RoleKey)
}

// InvalidationConsumer applies rbac.cache.invalidated events published by
// sibling instances so every replica drops its local snapshots after a
// grant or restriction write.
type InvalidationConsumer struct {
	grants       GrantInvalidator
	restrictions port.RestrictionCache
	logger       *zap.Logger
}

// NewInvalidationConsumer constructs a consumer that keeps local caches in
// step with cluster-wide invalidations.
func NewInvalidationConsumer(grants GrantInvalidator, restrictions port.RestrictionCache, logger *zap.Logger) *InvalidationConsumer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &InvalidationConsumer{
		grants:       grants,
		restrictions: restrictions,
		logger:       logger,
	}
}

type invalidationEnvelope struct {
	EventID   string    `json:"event_id"`
	EventType string    `json:"event_type"`
	Timestamp time.Time `json:"timestamp"`
	Payload   struct {
		Role          string    `json:"role"`
		UserID        string    `json:"user_id"`
		InvalidatedAt time.Time `json:"invalidated_at"`
	} `json:"payload"`
}

// HandleMessage decodes a Kafka message prior to processing.
func (c *InvalidationConsumer) HandleMessage(ctx context.Context, msg *sarama.ConsumerMessage) error {
	if msg == nil {
		return fmt.Errorf("message is nil")
	}

	var envelope invalidationEnvelope
	if err := json.Unmarshal(msg.Value, &envelope); err != nil {
		return fmt.Errorf("decode cache invalidation event: %w", err)
	}

	event := domain.CacheInvalidationEvent{
		EventID:       envelope.EventID,
		Role:          domain.RoleKey(envelope.Payload.Role),
		UserID:        envelope.Payload.UserID,
		InvalidatedAt: envelope.Payload.InvalidatedAt,
	}

	return c.HandleEvent(ctx, event)
}

// HandleEvent drops the local cache entries named by the event. An empty
// role means the whole permission cache goes.
func (c *InvalidationConsumer) HandleEvent(ctx context.Context, event domain.CacheInvalidationEvent) error {
	if c.grants != nil {
		if event.Role == "" && event.UserID == "" {
			c.grants.Invalidate()
		} else if event.Role != "" {
			c.grants.InvalidateRole(event.Role)
		}
	}

	if c.restrictions != nil && event.UserID != "" {
		if err := c.restrictions.DeleteRestrictions(ctx, event.UserID); err != nil {
			// The short restriction TTL bounds staleness if the drop fails.
			c.logger.Warn("restriction cache invalidation failed",
				zap.String("user_id", event.UserID),
				zap.Error(err),
			)
		}
	}

	c.logger.Debug("cache invalidation applied",
		zap.String("event_id", event.EventID),
		zap.String("role", string(event.Role)),
		zap.String("user_id", event.UserID),
	)

	return nil
}
