package entity

import (
	"encoding/json"
	"time"
)

// Tipos de notificación emitidos por el motor.
const (
	NotificationCreditHold   = "credit_hold"
	NotificationBatchEmptied = "batch_emptied"
	NotificationBatchExpired = "batch_expired"
)

// Notification fila del outbox; un despachador externo la entrega.
type Notification struct {
	ID           string
	TenantID     string
	Kind         string
	Payload      json.RawMessage
	CreatedAt    time.Time
	DispatchedAt *time.Time
}

// Event evento de dominio producido por los manejadores reactivos.
type Event struct {
	Kind    string
	Payload map[string]any
}
