package queue

import (
	amqp "github.com/rabbitmq/amqp091-go"
)

// Message is a decoded job together with the delivery it arrived on
type Message struct {
	Job      *Job
	delivery amqp.Delivery
}

var _ MessageInterface = (*Message)(nil)

// Ack acknowledges this delivery only
func (m *Message) Ack() error {
	return m.delivery.Ack(false)
}

// Nack rejects this delivery. Without requeue the broker dead-letters it.
func (m *Message) Nack(requeue bool) error {
	return m.delivery.Nack(false, requeue)
}

// GetJob returns the decoded job
func (m *Message) GetJob() *Job {
	return m.Job
}

// Redelivered reports whether the broker has delivered this message before,
// which happens when a consumer died holding it unacknowledged.
func (m *Message) Redelivered() bool {
	return m.delivery.Redelivered
}
