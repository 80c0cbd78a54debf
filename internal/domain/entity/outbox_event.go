package entity

import (
	"encoding/json"
	"time"
)

// Tópicos de eventos de dominio.
const (
	TopicSaleCompleted = "sale.completed"
	TopicStockLow      = "stock.low"
)

// OutboxEvent evento pendiente de publicación, escrito en la misma transacción que lo origina.
type OutboxEvent struct {
	ID        int64
	EventID   string
	Topic     string
	Key       string
	Payload   json.RawMessage
	CreatedAt time.Time
	SentAt    *time.Time
}
