package postgres

import (
	"context"
	"fmt"

	"github.com/jhoicas/ventas-api/internal/domain/entity"
	"github.com/jhoicas/ventas-api/internal/domain/repository"
)

var _ repository.OutboxRepository = (*OutboxRepo)(nil)

// OutboxRepo persiste eventos en la tabla outbox.
type OutboxRepo struct {
	q Querier
}

// NewOutboxRepository construye el adaptador. Insert debe recibir la tx de la operación que origina el evento.
func NewOutboxRepository(q Querier) *OutboxRepo {
	return &OutboxRepo{q: q}
}

// Insert agrega un evento pendiente.
func (r *OutboxRepo) Insert(ctx context.Context, e *entity.OutboxEvent) error {
	err := r.q.QueryRow(ctx, `
		INSERT INTO outbox (event_id, topic, key, payload)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at`,
		e.EventID, e.Topic, e.Key, []byte(e.Payload),
	).Scan(&e.ID, &e.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert outbox event: %w", err)
	}
	return nil
}

// FetchPending devuelve hasta limit eventos no enviados, en orden de creación.
// SKIP LOCKED evita que dos lecturas concurrentes se esperen; como el lote se publica fuera
// de esta transacción, la entrega sigue siendo al menos una vez.
func (r *OutboxRepo) FetchPending(ctx context.Context, limit int) ([]*entity.OutboxEvent, error) {
	rows, err := r.q.Query(ctx, `
		SELECT id, event_id::text, topic, key, payload, created_at
		FROM outbox
		WHERE sent_at IS NULL
		ORDER BY id
		LIMIT $1
		FOR UPDATE SKIP LOCKED`, limit)
	if err != nil {
		return nil, fmt.Errorf("fetch outbox: %w", err)
	}
	defer rows.Close()
	list := make([]*entity.OutboxEvent, 0)
	for rows.Next() {
		var e entity.OutboxEvent
		var payload []byte
		if err := rows.Scan(&e.ID, &e.EventID, &e.Topic, &e.Key, &payload, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan outbox event: %w", err)
		}
		e.Payload = payload
		list = append(list, &e)
	}
	return list, rows.Err()
}

// MarkSent marca un evento como publicado.
func (r *OutboxRepo) MarkSent(ctx context.Context, id int64) error {
	if _, err := r.q.Exec(ctx, `UPDATE outbox SET sent_at = now() WHERE id = $1`, id); err != nil {
		return fmt.Errorf("mark outbox sent: %w", err)
	}
	return nil
}
