// Package events publishes order lifecycle notifications. Publishing
// is best-effort: the order is already durable when an event goes out,
// and a broker outage must never fail a booking.
package events

import (
	"context"
	"time"

	"masterbook/pkg/kafka"
	"masterbook/pkg/logger"
	"masterbook/pkg/model"
)

const (
	EventOrderCreated       = "order.created"
	EventOrderStatusChanged = "order.status_changed"

	source = "masterbook"
)

type Publisher interface {
	OrderCreated(ctx context.Context, o *model.Order)
	OrderStatusChanged(ctx context.Context, o *model.Order, previous model.OrderStatus)
}

type orderEvent struct {
	OrderID        string            `json:"order_id"`
	ServiceID      string            `json:"service_id"`
	MasterID       string            `json:"master_id"`
	ClientID       string            `json:"client_id"`
	DesiredAt      time.Time         `json:"desired_at"`
	Status         model.OrderStatus `json:"status"`
	PreviousStatus model.OrderStatus `json:"previous_status,omitempty"`
	RejectReason   string            `json:"reject_reason,omitempty"`
}

type kafkaPublisher struct {
	producer *kafka.Producer
	log      *logger.Logger
}

func NewKafkaPublisher(producer *kafka.Producer, log *logger.Logger) Publisher {
	return &kafkaPublisher{producer: producer, log: log}
}

func (p *kafkaPublisher) OrderCreated(ctx context.Context, o *model.Order) {
	p.publish(ctx, EventOrderCreated, orderEvent{
		OrderID:   o.ID,
		ServiceID: o.ServiceID,
		MasterID:  o.MasterID,
		ClientID:  o.ClientID,
		DesiredAt: o.DesiredAt,
		Status:    o.Status,
	})
}

func (p *kafkaPublisher) OrderStatusChanged(ctx context.Context, o *model.Order, previous model.OrderStatus) {
	p.publish(ctx, EventOrderStatusChanged, orderEvent{
		OrderID:        o.ID,
		ServiceID:      o.ServiceID,
		MasterID:       o.MasterID,
		ClientID:       o.ClientID,
		DesiredAt:      o.DesiredAt,
		Status:         o.Status,
		PreviousStatus: previous,
		RejectReason:   o.RejectReason,
	})
}

func (p *kafkaPublisher) publish(ctx context.Context, eventType string, payload orderEvent) {
	// Keyed by master so one master's events keep their order.
	msg, err := kafka.NewMessage().
		WithKey(payload.MasterID).
		WithValue(payload).
		WithEventType(eventType).
		WithSource(source).
		Build()
	if err != nil {
		p.log.Error("Failed to build order event",
			"event_type", eventType,
			"order_id", payload.OrderID,
			"error", err,
		)
		return
	}

	if err := p.producer.Publish(ctx, msg); err != nil {
		p.log.Error("Failed to publish order event",
			"event_type", eventType,
			"order_id", payload.OrderID,
			"error", err,
		)
	}
}

// NoopPublisher is the publisher used when Kafka is not configured.
type NoopPublisher struct{}

func (NoopPublisher) OrderCreated(ctx context.Context, o *model.Order)                                {}
func (NoopPublisher) OrderStatusChanged(ctx context.Context, o *model.Order, prev model.OrderStatus) {}
