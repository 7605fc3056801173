package clients

import (
	"context"
	"encoding/json"
	"time"

	"locagest/internal/domain"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/sirupsen/logrus"
)

type amqpPublisher interface {
	Publish(ctx context.Context, routingKey string, msg amqp.Publishing) error
}

// EventPublisher emits ledger events on the message bus. With no broker
// configured it only logs them.
type EventPublisher struct {
	pub amqpPublisher
	log *logrus.Logger
	now func() time.Time
}

func NewEventPublisher(pub amqpPublisher, log *logrus.Logger) *EventPublisher {
	return &EventPublisher{pub: pub, log: log, now: time.Now}
}

func (p *EventPublisher) Publish(ctx context.Context, eventType string, ownerID int64, payload any) error {
	event := domain.LedgerEvent{
		ID:         uuid.NewString(),
		Type:       eventType,
		OwnerID:    ownerID,
		OccurredAt: p.now().UTC(),
		Payload:    payload,
	}

	entry := p.log.WithFields(logrus.Fields{"event": eventType, "owner_id": ownerID, "event_id": event.ID})
	if p.pub == nil {
		entry.Debug("event bus disabled, event not published")
		return nil
	}

	body, err := json.Marshal(event)
	if err != nil {
		return err
	}

	err = p.pub.Publish(ctx, eventType, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    event.ID,
		Timestamp:    event.OccurredAt,
		Type:         eventType,
		Body:         body,
	})
	if err != nil {
		entry.Errorf("publish failed: %v", err)
		return err
	}
	entry.Debug("event published")
	return nil
}
