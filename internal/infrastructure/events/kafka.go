// Package events implementa los publicadores del relay de outbox.
package events

import (
	"context"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/jhoicas/ventas-api/internal/domain/entity"
)

// messageWriter subconjunto de *kafka.Writer usado por el publicador.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaPublisher publica cada evento en el tópico prefix+topic, particionado por la clave del evento.
type KafkaPublisher struct {
	w      messageWriter
	prefix string
}

// NewKafkaPublisher crea un writer sin tópico fijo: el tópico va en cada mensaje.
func NewKafkaPublisher(brokers []string, topicPrefix string) *KafkaPublisher {
	w := &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequireOne,
		AllowAutoTopicCreation: true,
		BatchTimeout:           10 * time.Millisecond,
	}
	return &KafkaPublisher{w: w, prefix: topicPrefix}
}

// Publish escribe el evento de forma síncrona.
func (p *KafkaPublisher) Publish(ctx context.Context, ev *entity.OutboxEvent) error {
	msg := kafka.Message{
		Topic: p.prefix + ev.Topic,
		Key:   []byte(ev.Key),
		Value: ev.Payload,
		Time:  ev.CreatedAt.UTC(),
		Headers: []kafka.Header{
			{Key: "event_id", Value: []byte(ev.EventID)},
		},
	}
	if err := p.w.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("kafka %s: %w", msg.Topic, err)
	}
	return nil
}

// Close vacía y cierra el writer.
func (p *KafkaPublisher) Close() error {
	return p.w.Close()
}
