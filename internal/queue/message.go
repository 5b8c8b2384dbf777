package queue

import (
	"context"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

// JobQueue carries staging jobs between the API and the enhancement worker
type JobQueue interface {
	Enqueue(ctx context.Context, job *Job) error
	// Consume delivers messages until ctx is cancelled. Each message must be
	// settled with Ack or Nack; the channels close when delivery stops.
	Consume(ctx context.Context, prefetchCount int) (<-chan *Message, <-chan error, error)
	Close() error
	HealthCheck(ctx context.Context) error
}

// MessageInterface is a consumed job awaiting settlement
type MessageInterface interface {
	Ack() error
	Nack(requeue bool) error
	GetJob() *Job
}

// DLQPurger removes dead-lettered jobs older than a retention period
type DLQPurger interface {
	PurgeOlderThan(ctx context.Context, retention time.Duration) (int, error)
}

// Message is a decoded job together with the delivery it arrived on
type Message struct {
	Job      *Job
	delivery amqp.Delivery
}

// Ack settles the delivery as done
func (m *Message) Ack() error {
	return m.delivery.Ack(false)
}

// Nack rejects the delivery. Without requeue the broker dead-letters it.
func (m *Message) Nack(requeue bool) error {
	return m.delivery.Nack(false, requeue)
}

// GetJob returns the decoded job
func (m *Message) GetJob() *Job {
	return m.Job
}

var _ MessageInterface = (*Message)(nil)
