// Package outbox publica los eventos que las transacciones de venta dejan en la tabla outbox.
// Entrega al menos una vez: un evento se marca enviado solo después de publicarse.
package outbox

import (
	"context"
	"errors"
	"time"

	"github.com/jhoicas/ventas-api/internal/domain/entity"
	"github.com/jhoicas/ventas-api/internal/domain/repository"
	"github.com/jhoicas/ventas-api/pkg/logger"
	"github.com/jhoicas/ventas-api/pkg/metrics"
)

// TxRunner transacción sobre la tabla outbox. Flush abre una para leer el lote y otra para marcarlo.
type TxRunner interface {
	RunOutbox(ctx context.Context, fn func(outboxRepo repository.OutboxRepository) error) error
}

// Publisher destino de los eventos (Kafka o log).
type Publisher interface {
	Publish(ctx context.Context, event *entity.OutboxEvent) error
}

// Config parámetros del relay.
type Config struct {
	PollInterval time.Duration
	BatchSize    int
}

// Relay lee eventos pendientes y los publica en orden de id.
type Relay struct {
	txRunner TxRunner
	pub      Publisher
	cfg      Config
	log      *logger.Logger
	metrics  *metrics.Metrics
}

// NewRelay construye el relay. log y m pueden ser nil.
func NewRelay(txRunner TxRunner, pub Publisher, cfg Config, log *logger.Logger, m *metrics.Metrics) *Relay {
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = time.Second
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 100
	}
	if log == nil {
		log = logger.Nop()
	}
	return &Relay{txRunner: txRunner, pub: pub, cfg: cfg, log: log.Component("outbox"), metrics: m}
}

// Run publica lotes hasta que ctx se cancela. Un lote lleno se sigue drenando sin esperar.
func (r *Relay) Run(ctx context.Context) error {
	r.log.Info().Dur("intervalo", r.cfg.PollInterval).Int("lote", r.cfg.BatchSize).Msg("relay de outbox iniciado")
	timer := time.NewTimer(0)
	defer timer.Stop()
	for {
		select {
		case <-ctx.Done():
			r.log.Info().Msg("relay de outbox detenido")
			return nil
		case <-timer.C:
		}

		n, err := r.Flush(ctx)
		wait := r.cfg.PollInterval
		switch {
		case err != nil && ctx.Err() == nil:
			r.log.Warn().Err(err).Int("publicados", n).Msg("falla publicando outbox")
		case n == r.cfg.BatchSize:
			wait = 0
		}
		timer.Reset(wait)
	}
}

// Flush publica un lote y devuelve cuántos eventos quedaron marcados como enviados.
// La lectura y la marca corren en transacciones separadas: la publicación no retiene bloqueos
// del almacén. Si un evento falla, los anteriores del lote se marcan y el resto se reintenta
// en el siguiente ciclo.
func (r *Relay) Flush(ctx context.Context) (int, error) {
	var events []*entity.OutboxEvent
	err := r.txRunner.RunOutbox(ctx, func(outboxRepo repository.OutboxRepository) error {
		var err error
		events, err = outboxRepo.FetchPending(ctx, r.cfg.BatchSize)
		return err
	})
	if err != nil {
		return 0, r.fail(err)
	}
	if len(events) == 0 {
		return 0, nil
	}

	published := make([]*entity.OutboxEvent, 0, len(events))
	var pubErr error
	for _, ev := range events {
		if pubErr = r.pub.Publish(ctx, ev); pubErr != nil {
			break
		}
		published = append(published, ev)
	}
	if len(published) == 0 {
		return 0, r.fail(pubErr)
	}

	err = r.txRunner.RunOutbox(ctx, func(outboxRepo repository.OutboxRepository) error {
		for _, ev := range published {
			if err := outboxRepo.MarkSent(ctx, ev.ID); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		// Sin marca, el lote se vuelve a publicar: los consumidores deduplican por event_id.
		return 0, r.fail(errors.Join(err, pubErr))
	}
	for _, ev := range published {
		if r.metrics != nil {
			r.metrics.OutboxPublished.WithLabelValues(ev.Topic).Inc()
		}
		r.log.Debug().Str("topic", ev.Topic).Str("event_id", ev.EventID).Msg("evento publicado")
	}
	if pubErr != nil {
		return len(published), r.fail(pubErr)
	}
	return len(published), nil
}

func (r *Relay) fail(err error) error {
	if r.metrics != nil {
		r.metrics.OutboxFailures.Inc()
	}
	return err
}
