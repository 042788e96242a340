// Package events publica los movimientos confirmados del ledger en Kafka.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/labstock/internal/application/inventory"
	"github.com/jhoicas/labstock/internal/domain/entity"
)

var _ inventory.MovementPublisher = (*KafkaPublisher)(nil)

// Writer lo cumple *kafka.Writer; los tests inyectan uno en memoria.
type Writer interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// MovementEvent payload publicado por cada movimiento confirmado.
type MovementEvent struct {
	EventType      string          `json:"event_type"`
	MovementID     string          `json:"movement_id"`
	BatchID        string          `json:"batch_id"`
	Type           string          `json:"type"`
	Quantity       decimal.Decimal `json:"quantity"`
	FromLocationID string          `json:"from_location_id,omitempty"`
	ToLocationID   string          `json:"to_location_id,omitempty"`
	UserID         string          `json:"user_id,omitempty"`
	Observation    string          `json:"observation,omitempty"`
	CreatedAt      time.Time       `json:"created_at"`
}

// EventMovementRegistered valor de event_type.
const EventMovementRegistered = "ledger.movement.registered"

// DefaultPublishTimeout tope por publicación; el movimiento ya está confirmado y la respuesta HTTP
// no espera más que esto al broker.
const DefaultPublishTimeout = 2 * time.Second

// KafkaPublisher publica con clave = lote, así los movimientos de un lote quedan en la misma partición
// y en orden.
type KafkaPublisher struct {
	writer  Writer
	timeout time.Duration
}

// NewKafkaPublisher crea el writer para brokers (separados por coma) y topic.
func NewKafkaPublisher(brokers, topic string) *KafkaPublisher {
	return NewKafkaPublisherWithWriter(&kafka.Writer{
		Addr:         kafka.TCP(strings.Split(brokers, ",")...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireAll,
		BatchSize:    1,
		BatchTimeout: 10 * time.Millisecond,
		WriteTimeout: DefaultPublishTimeout,
		MaxAttempts:  3,
	})
}

// NewKafkaPublisherWithWriter usa un writer propio.
func NewKafkaPublisherWithWriter(w Writer) *KafkaPublisher {
	return &KafkaPublisher{writer: w, timeout: DefaultPublishTimeout}
}

// WithTimeout cambia el tope por publicación; d <= 0 lo desactiva.
func (p *KafkaPublisher) WithTimeout(d time.Duration) *KafkaPublisher {
	p.timeout = d
	return p
}

// Publish serializa el movimiento y lo envía.
func (p *KafkaPublisher) Publish(ctx context.Context, m *entity.Movement) error {
	value, err := json.Marshal(MovementEvent{
		EventType:      EventMovementRegistered,
		MovementID:     m.ID,
		BatchID:        m.BatchID,
		Type:           string(m.Type),
		Quantity:       m.Quantity,
		FromLocationID: m.FromLocationID,
		ToLocationID:   m.ToLocationID,
		UserID:         m.UserID,
		Observation:    m.Observation,
		CreatedAt:      m.CreatedAt,
	})
	if err != nil {
		return fmt.Errorf("marshal movement event: %w", err)
	}
	msg := kafka.Message{
		Key:   []byte(m.BatchID),
		Value: value,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(EventMovementRegistered)},
		},
	}
	if p.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("kafka write: %w", err)
	}
	return nil
}

// Close cierra el writer.
func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}
