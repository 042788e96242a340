package events_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/labstock/internal/domain/entity"
	"github.com/jhoicas/labstock/internal/infrastructure/events"
)

// fakeWriter registra los mensajes escritos.
type fakeWriter struct {
	msgs []kafka.Message
	err  error
}

func (f *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if f.err != nil {
		return f.err
	}
	f.msgs = append(f.msgs, msgs...)
	return nil
}

func (f *fakeWriter) Close() error { return nil }

func TestKafkaPublisher_ClaveYPayload(t *testing.T) {
	fw := &fakeWriter{}
	p := events.NewKafkaPublisherWithWriter(fw)
	m := &entity.Movement{
		ID: "m1", BatchID: "B1", Type: entity.MovementTransferencia, Quantity: decimal.RequireFromString("2.5"),
		FromLocationID: "L1", ToLocationID: "L2", UserID: "u1",
		CreatedAt: time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC),
	}
	require.NoError(t, p.Publish(context.Background(), m))
	require.Len(t, fw.msgs, 1)
	assert.Equal(t, "B1", string(fw.msgs[0].Key), "clave por lote para conservar el orden")

	var ev events.MovementEvent
	require.NoError(t, json.Unmarshal(fw.msgs[0].Value, &ev))
	assert.Equal(t, events.EventMovementRegistered, ev.EventType)
	assert.Equal(t, "TRANSFERENCIA", ev.Type)
	assert.True(t, ev.Quantity.Equal(decimal.RequireFromString("2.5")))
	assert.Equal(t, "L1", ev.FromLocationID)
}

func TestKafkaPublisher_ErrorDeEscritura(t *testing.T) {
	p := events.NewKafkaPublisherWithWriter(&fakeWriter{err: errors.New("broker no disponible")})
	err := p.Publish(context.Background(), &entity.Movement{ID: "m1", BatchID: "B1"})
	assert.ErrorContains(t, err, "broker no disponible")
}

// blockingWriter no responde hasta que el contexto vence, como un broker caído en reintentos.
type blockingWriter struct{}

func (blockingWriter) WriteMessages(ctx context.Context, _ ...kafka.Message) error {
	<-ctx.Done()
	return ctx.Err()
}

func (blockingWriter) Close() error { return nil }

func TestKafkaPublisher_BrokerCaidoNoBloqueaMasDelTope(t *testing.T) {
	p := events.NewKafkaPublisherWithWriter(blockingWriter{}).WithTimeout(50 * time.Millisecond)

	start := time.Now()
	err := p.Publish(context.Background(), &entity.Movement{ID: "m1", BatchID: "B1"})
	elapsed := time.Since(start)

	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, elapsed, time.Second, "Publish debe cortar en el tope configurado")
}

func TestKafkaPublisher_TopePorDefecto(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	p := events.NewKafkaPublisherWithWriter(blockingWriter{})
	err := p.Publish(ctx, &entity.Movement{ID: "m1", BatchID: "B1"})
	assert.ErrorIs(t, err, context.Canceled, "el contexto del llamador sigue mandando")
	assert.Equal(t, 2*time.Second, events.DefaultPublishTimeout)
}
