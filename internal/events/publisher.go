package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// Event is the envelope published for every domain event.
type Event struct {
	ID        string      `json:"id"`
	Type      string      `json:"type"`
	Source    string      `json:"source"`
	Version   string      `json:"version"`
	Timestamp time.Time   `json:"timestamp"`
	Data      interface{} `json:"data"`
}

// Event types emitted by the service.
const (
	EventGrantStatusChanged   = "grant.status_changed"
	EventComplianceChecked    = "compliance.checked"
	EventTransactionsImported = "finance.transactions_imported"
	EventProfileRoleChanged   = "user.role_changed"
)

const (
	eventSource  = "forestry-service"
	eventVersion = "1.0"
)

// EventPublisher publishes domain events. Implementations must not block the
// request path on broker failures; callers treat publish errors as log-only.
type EventPublisher interface {
	Publish(ctx context.Context, event Event) error
	Close() error
}

// NewEvent builds an envelope with a fresh ID and timestamp.
func NewEvent(eventType string, data interface{}) Event {
	return Event{
		ID:        uuid.New().String(),
		Type:      eventType,
		Source:    eventSource,
		Version:   eventVersion,
		Timestamp: time.Now().UTC(),
		Data:      data,
	}
}

// LoggingPublisher writes events to the log only. Used when Kafka is not
// configured.
type LoggingPublisher struct {
	logger *slog.Logger
}

func NewLoggingPublisher(logger *slog.Logger) *LoggingPublisher {
	return &LoggingPublisher{logger: logger}
}

func (p *LoggingPublisher) Publish(ctx context.Context, event Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}
	p.logger.InfoContext(ctx, "event published (log only)",
		"event_type", event.Type,
		"event_id", event.ID,
		"payload", string(payload))
	return nil
}

func (p *LoggingPublisher) Close() error { return nil }
