package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/inventario-ledger/internal/domain/entity"
)

// OrderLineRequest línea de orden.
type OrderLineRequest struct {
	ProductID string          `json:"product_id" validate:"required"`
	Quantity  decimal.Decimal `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
}

// CreateOrderRequest body para POST /api/orders.
type CreateOrderRequest struct {
	PartyID   string             `json:"party_id" validate:"required"`
	Number    string             `json:"number"`
	OrderDate string             `json:"order_date" validate:"omitempty,datetime=2006-01-02"`
	DueDate   string             `json:"due_date" validate:"omitempty,datetime=2006-01-02"`
	Lines     []OrderLineRequest `json:"lines" validate:"required,min=1,dive"`
}

// OrderLineResponse salida de una línea de orden.
type OrderLineResponse struct {
	ID        string          `json:"id"`
	ProductID string          `json:"product_id"`
	Quantity  decimal.Decimal `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	BatchID   string          `json:"batch_id,omitempty"`
}

// OrderResponse salida de una orden.
type OrderResponse struct {
	ID        string              `json:"id"`
	PartyID   string              `json:"party_id"`
	Number    string              `json:"number"`
	OrderDate string              `json:"order_date"`
	DueDate   *string             `json:"due_date,omitempty"`
	Total     decimal.Decimal     `json:"total"`
	Status    string              `json:"status"`
	Lines     []OrderLineResponse `json:"lines"`
	UpdatedAt time.Time           `json:"updated_at"`
}

// ConfirmOrderResponse orden confirmada (o retenida) con la decisión de crédito.
type ConfirmOrderResponse struct {
	Order  OrderResponse          `json:"order"`
	Credit CreditDecisionResponse `json:"credit"`
}

// InvoiceOrderResponse orden facturada y su saldo por cobrar.
type InvoiceOrderResponse struct {
	Order       OrderResponse        `json:"order"`
	Outstanding *OutstandingResponse `json:"outstanding,omitempty"`
}

// FromOrder convierte una orden en su DTO.
func FromOrder(o entity.SalesOrder) OrderResponse {
	r := OrderResponse{
		ID:        o.ID,
		PartyID:   o.PartyID,
		Number:    o.Number,
		OrderDate: o.OrderDate.Format(DateLayout),
		DueDate:   formatDate(o.DueDate),
		Total:     o.Total,
		Status:    o.Status,
		Lines:     make([]OrderLineResponse, 0, len(o.Lines)),
		UpdatedAt: o.UpdatedAt,
	}
	for _, l := range o.Lines {
		r.Lines = append(r.Lines, OrderLineResponse{
			ID: l.ID, ProductID: l.ProductID, Quantity: l.Quantity, UnitPrice: l.UnitPrice, BatchID: l.BatchID,
		})
	}
	return r
}
