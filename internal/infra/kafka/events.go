package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/IBM/sarama"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/taskory/admin-access/internal/core/domain"
	"github.com/taskory/admin-access/internal/core/port"
	"github.com/taskory/admin-access/internal/infra/config"
)

const schemaVersion = "1.0"

// Audit event types, prefixed with the configured topic prefix on publish.
const (
	eventRolePermissionsUpdated = "rbac.role.permissions.updated"
	eventUserRestrictionsUpdate = "rbac.user.restrictions.updated"
	eventAccessDenied           = "rbac.access.denied"
	eventCacheInvalidated       = "rbac.cache.invalidated"
)

// AuditPublisher implements port.AuditPublisher using Kafka.
type AuditPublisher struct {
	producer *Producer
	logger   *zap.Logger
	appCfg   config.AppSettings
}

// NewAuditPublisher constructs a Kafka-backed audit publisher.
func NewAuditPublisher(producer *Producer, appCfg config.AppSettings, logger *zap.Logger) *AuditPublisher {
	return &AuditPublisher{producer: producer, appCfg: appCfg, logger: logger}
}

type envelopeMetadata map[string]string

type eventEnvelope struct {
	EventID   string           `json:"event_id"`
	EventType string           `json:"event_type"`
	UserID    string           `json:"user_id,omitempty"`
	Timestamp time.Time        `json:"timestamp"`
	Version   string           `json:"version"`
	Payload   any              `json:"payload"`
	Metadata  envelopeMetadata `json:"metadata,omitempty"`
}

func (p *AuditPublisher) publish(ctx context.Context, eventID, eventType, userID string, ts time.Time, payload any) error {
	if ts.IsZero() {
		ts = time.Now().UTC()
	}

	id := eventID
	if id == "" {
		id = uuid.NewString()
	}

	envelope := eventEnvelope{
		EventID:   id,
		EventType: eventType,
		UserID:    userID,
		Timestamp: ts.UTC(),
		Version:   schemaVersion,
		Payload:   payload,
		Metadata: envelopeMetadata{
			"service":     p.appCfg.Name,
			"environment": p.appCfg.Env,
		},
	}

	bytes, err := json.Marshal(envelope)
	if err != nil {
		return fmt.Errorf("marshal event envelope: %w", err)
	}

	message := &sarama.ProducerMessage{
		Topic: p.producer.TopicName(eventType),
		Value: sarama.ByteEncoder(bytes),
	}

	select {
	case p.producer.Producer().Input() <- message:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

type grantChangePayload struct {
	Permission string `json:"permission"`
	Mode       string `json:"mode"`
	Allow      bool   `json:"allow"`
}

func toGrantChangePayloads(changes []domain.GrantChange) []grantChangePayload {
	out := make([]grantChangePayload, 0, len(changes))
	for _, change := range changes {
		out = append(out, grantChangePayload{
			Permission: change.Permission,
			Mode:       string(change.Mode),
			Allow:      change.Allow,
		})
	}
	return out
}

// PublishRolePermissionsUpdated publishes rbac.role.permissions.updated events.
func (p *AuditPublisher) PublishRolePermissionsUpdated(ctx context.Context, event domain.RolePermissionsUpdatedEvent) error {
	payload := struct {
		Role      string               `json:"role"`
		Before    []grantChangePayload `json:"before"`
		After     []grantChangePayload `json:"after"`
		UpdatedBy string               `json:"updated_by"`
		UpdatedAt time.Time            `json:"updated_at"`
		Metadata  map[string]any       `json:"metadata,omitempty"`
	}{
		Role:      string(event.Role),
		Before:    toGrantChangePayloads(event.Before),
		After:     toGrantChangePayloads(event.After),
		UpdatedBy: event.UpdatedBy,
		UpdatedAt: event.UpdatedAt.UTC(),
		Metadata:  event.Metadata,
	}

	return p.publish(ctx, event.EventID, eventRolePermissionsUpdated, "", event.UpdatedAt, payload)
}

// PublishUserRestrictionsUpdated publishes rbac.user.restrictions.updated events.
func (p *AuditPublisher) PublishUserRestrictionsUpdated(ctx context.Context, event domain.UserRestrictionsUpdatedEvent) error {
	payload := struct {
		UserID    string         `json:"user_id"`
		Before    []string       `json:"before"`
		After     []string       `json:"after"`
		UpdatedBy string         `json:"updated_by"`
		UpdatedAt time.Time      `json:"updated_at"`
		Metadata  map[string]any `json:"metadata,omitempty"`
	}{
		UserID:    event.UserID,
		Before:    event.Before,
		After:     event.After,
		UpdatedBy: event.UpdatedBy,
		UpdatedAt: event.UpdatedAt.UTC(),
		Metadata:  event.Metadata,
	}

	return p.publish(ctx, event.EventID, eventUserRestrictionsUpdate, event.UserID, event.UpdatedAt, payload)
}

// PublishAccessDenied publishes rbac.access.denied events.
func (p *AuditPublisher) PublishAccessDenied(ctx context.Context, event domain.AccessDeniedEvent) error {
	payload := struct {
		UserID     string         `json:"user_id"`
		Role       string         `json:"role"`
		Permission string         `json:"permission"`
		Mode       string         `json:"mode"`
		Reason     string         `json:"reason"`
		Path       string         `json:"path,omitempty"`
		DeniedAt   time.Time      `json:"denied_at"`
		Metadata   map[string]any `json:"metadata,omitempty"`
	}{
		UserID:     event.UserID,
		Role:       string(event.Role),
		Permission: event.Permission,
		Mode:       string(event.Mode),
		Reason:     string(event.Reason),
		Path:       event.Path,
		DeniedAt:   event.DeniedAt.UTC(),
		Metadata:   event.Metadata,
	}

	return p.publish(ctx, event.EventID, eventAccessDenied, event.UserID, event.DeniedAt, payload)
}

// PublishCacheInvalidation publishes rbac.cache.invalidated events consumed
// by sibling instances to drop their local snapshots.
func (p *AuditPublisher) PublishCacheInvalidation(ctx context.Context, event domain.CacheInvalidationEvent) error {
	payload := struct {
		Role          string    `json:"role,omitempty"`
		UserID        string    `json:"user_id,omitempty"`
		InvalidatedAt time.Time `json:"invalidated_at"`
	}{
		Role:          string(event.Role),
		UserID:        event.UserID,
		InvalidatedAt: event.InvalidatedAt.UTC(),
	}

	return p.publish(ctx, event.EventID, eventCacheInvalidated, event.UserID, event.InvalidatedAt, payload)
}

var _ port.AuditPublisher = (*AuditPublisher)(nil)
