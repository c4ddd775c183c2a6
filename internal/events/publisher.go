// Package events publishes transaction lifecycle events.
package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
	"github.com/shopspring/decimal"

	"wallet_admin/internal/domain"
)

// Event types
const (
	TransactionCreated   = "transaction.created"
	TransactionConfirmed = "transaction.confirmed"
	TransactionRejected  = "transaction.rejected"
)

// TransactionEvent is emitted on every state machine transition
type TransactionEvent struct {
	ID            string          `json:"id"`
	Type          string          `json:"type"`
	TransactionID string          `json:"transactionId"`
	AccountID     uint            `json:"accountId"`
	Kind          domain.Kind     `json:"kind"`
	Amount        decimal.Decimal `json:"amount"`
	Currency      string          `json:"currency"`
	Status        domain.Status   `json:"status"`
	OccurredAt    time.Time       `json:"occurredAt"`
}

// NewTransactionEvent snapshots tx under eventType
func NewTransactionEvent(eventType string, tx *domain.Transaction) TransactionEvent {
	return TransactionEvent{
		ID:            uuid.NewString(),
		Type:          eventType,
		TransactionID: tx.ID,
		AccountID:     tx.AccountID,
		Kind:          tx.Kind,
		Amount:        tx.Amount,
		Currency:      tx.Currency,
		Status:        tx.Status,
		OccurredAt:    time.Now().UTC(),
	}
}

// Publisher emits events
type Publisher interface {
	Publish(ctx context.Context, event TransactionEvent) error
	Close() error
}

// KafkaPublisher writes events to a kafka topic keyed by transaction id
type KafkaPublisher struct {
	writer *kafka.Writer
}

// NewKafkaPublisher creates a publisher for topic on brokers
func NewKafkaPublisher(brokers []string, topic string) *KafkaPublisher {
	return &KafkaPublisher{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Topic:        topic,
			Balancer:     &kafka.Hash{},
			WriteTimeout: 5 * time.Second,
			RequiredAcks: kafka.RequireOne,
		},
	}
}

func (p *KafkaPublisher) Publish(ctx context.Context, event TransactionEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}
	return p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(event.TransactionID),
		Value: data,
	})
}

func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}

// Noop discards events
type Noop struct{}

func (Noop) Publish(context.Context, TransactionEvent) error { return nil }
func (Noop) Close() error                                    { return nil }

// New returns a kafka publisher when brokers are configured, Noop otherwise
func New(brokers []string, topic string) Publisher {
	if len(brokers) == 0 {
		return Noop{}
	}
	return NewKafkaPublisher(brokers, topic)
}
