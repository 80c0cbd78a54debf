package events

import (
	"context"

	"github.com/jhoicas/ventas-api/internal/domain/entity"
	"github.com/jhoicas/ventas-api/pkg/logger"
)

// LogPublisher escribe los eventos en el log. Se usa cuando no hay brokers configurados.
type LogPublisher struct {
	log *logger.Logger
}

// NewLogPublisher construye el publicador.
func NewLogPublisher(log *logger.Logger) *LogPublisher {
	if log == nil {
		log = logger.Nop()
	}
	return &LogPublisher{log: log.Component("eventos")}
}

// Publish registra el evento con su payload crudo.
func (p *LogPublisher) Publish(_ context.Context, ev *entity.OutboxEvent) error {
	p.log.Info().
		Str("topic", ev.Topic).
		Str("key", ev.Key).
		Str("event_id", ev.EventID).
		RawJSON("payload", ev.Payload).
		Msg("evento")
	return nil
}
