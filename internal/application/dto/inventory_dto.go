package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/inventario-ledger/internal/domain/entity"
)

// AllocateRequest body para POST /api/inventory/allocations.
// Con Commit se registra además la venta sobre el lote elegido.
type AllocateRequest struct {
	ProductID     string          `json:"product_id" validate:"required"`
	Quantity      decimal.Decimal `json:"quantity"`
	Commit        bool            `json:"commit"`
	ReferenceType string          `json:"reference_type" validate:"required_if=Commit true"`
	ReferenceID   string          `json:"reference_id" validate:"required_if=Commit true"`
}

// AllocateResponse lote elegido y, si hubo commit, el movimiento.
type AllocateResponse struct {
	BatchID  string            `json:"batch_id"`
	Movement *MovementResponse `json:"movement,omitempty"`
}

// RecordMovementRequest body para POST /api/inventory/movements.
type RecordMovementRequest struct {
	Type              string          `json:"type" validate:"required,oneof=purchase sales sales_return stock_damage stock_expiry stock_count stock_adjustment"`
	ProductID         string          `json:"product_id" validate:"required"`
	BatchID           string          `json:"batch_id"`
	QuantityIn        decimal.Decimal `json:"quantity_in"`
	QuantityOut       decimal.Decimal `json:"quantity_out"`
	ReferenceType     string          `json:"reference_type"`
	ReferenceID       string          `json:"reference_id"`
	LotCode           string          `json:"lot_code"`
	ExpiryDate        string          `json:"expiry_date" validate:"omitempty,datetime=2006-01-02"`
	ManufacturingDate string          `json:"manufacturing_date" validate:"omitempty,datetime=2006-01-02"`
}

// ReceiptLineRequest línea de recepción.
type ReceiptLineRequest struct {
	ProductID         string          `json:"product_id" validate:"required"`
	BatchID           string          `json:"batch_id"`
	LotCode           string          `json:"lot_code"`
	ExpiryDate        string          `json:"expiry_date" validate:"omitempty,datetime=2006-01-02"`
	ManufacturingDate string          `json:"manufacturing_date" validate:"omitempty,datetime=2006-01-02"`
	Quantity          decimal.Decimal `json:"quantity"`
	UnitCost          decimal.Decimal `json:"unit_cost"`
}

// ReceiptRequest body para POST /api/inventory/receipts.
type ReceiptRequest struct {
	ReceiptID      string               `json:"receipt_id"`
	SupplierID     string               `json:"supplier_id"`
	DocumentNumber string               `json:"document_number"`
	DocumentDate   string               `json:"document_date" validate:"omitempty,datetime=2006-01-02"`
	DueDate        string               `json:"due_date" validate:"omitempty,datetime=2006-01-02"`
	Lines          []ReceiptLineRequest `json:"lines" validate:"required,min=1,dive"`
}

// ReceiptResponse resultado de la recepción.
type ReceiptResponse struct {
	ReceiptID   string               `json:"receipt_id"`
	TotalAmount decimal.Decimal      `json:"total_amount"`
	Batches     []BatchResponse      `json:"batches"`
	Movements   []MovementResponse   `json:"movements"`
	Payable     *OutstandingResponse `json:"payable,omitempty"`
}

// ExpireRequest body para POST /api/inventory/batches/expire.
type ExpireRequest struct {
	AsOf string `json:"as_of" validate:"omitempty,datetime=2006-01-02"`
}

// ExpireResponse lotes dados de baja.
type ExpireResponse struct {
	Expired   []string `json:"expired"`
	Movements int      `json:"movements"`
}

// BatchResponse salida de un lote.
type BatchResponse struct {
	ID                string          `json:"id"`
	ProductID         string          `json:"product_id"`
	LotCode           string          `json:"lot_code"`
	ExpiryDate        *string         `json:"expiry_date,omitempty"`
	ManufacturingDate *string         `json:"manufacturing_date,omitempty"`
	QuantityReceived  decimal.Decimal `json:"quantity_received"`
	QuantityAvailable decimal.Decimal `json:"quantity_available"`
	QuantitySold      decimal.Decimal `json:"quantity_sold"`
	QuantityDamaged   decimal.Decimal `json:"quantity_damaged"`
	QuantityReturned  decimal.Decimal `json:"quantity_returned"`
	Status            string          `json:"status"`
	DaysToExpiry      int             `json:"days_to_expiry"`
	NearExpiry        bool            `json:"near_expiry"`
	UpdatedAt         time.Time       `json:"updated_at"`
}

// MovementResponse salida de un movimiento.
type MovementResponse struct {
	ID            string          `json:"id"`
	Type          string          `json:"type"`
	ProductID     string          `json:"product_id"`
	BatchID       string          `json:"batch_id"`
	QuantityIn    decimal.Decimal `json:"quantity_in"`
	QuantityOut   decimal.Decimal `json:"quantity_out"`
	ReferenceType string          `json:"reference_type,omitempty"`
	ReferenceID   string          `json:"reference_id,omitempty"`
	CreatedBy     string          `json:"created_by"`
	CreatedAt     time.Time       `json:"created_at"`
}

// FromBatch convierte un lote en su DTO.
func FromBatch(b entity.Batch) BatchResponse {
	return BatchResponse{
		ID:                b.ID,
		ProductID:         b.ProductID,
		LotCode:           b.LotCode,
		ExpiryDate:        formatDate(b.ExpiryDate),
		ManufacturingDate: formatDate(b.ManufacturingDate),
		QuantityReceived:  b.QuantityReceived,
		QuantityAvailable: b.QuantityAvailable,
		QuantitySold:      b.QuantitySold,
		QuantityDamaged:   b.QuantityDamaged,
		QuantityReturned:  b.QuantityReturned,
		Status:            b.Status,
		DaysToExpiry:      b.DaysToExpiry,
		NearExpiry:        b.NearExpiry,
		UpdatedAt:         b.UpdatedAt,
	}
}

// FromMovement convierte un movimiento en su DTO.
func FromMovement(m entity.Movement) MovementResponse {
	return MovementResponse{
		ID:            m.ID,
		Type:          m.Type,
		ProductID:     m.ProductID,
		BatchID:       m.BatchID,
		QuantityIn:    m.QuantityIn,
		QuantityOut:   m.QuantityOut,
		ReferenceType: m.ReferenceType,
		ReferenceID:   m.ReferenceID,
		CreatedBy:     m.CreatedBy,
		CreatedAt:     m.CreatedAt,
	}
}

func formatDate(t time.Time) *string {
	if t.IsZero() {
		return nil
	}
	s := t.Format(DateLayout)
	return &s
}

// ParseDate fecha opcional en formato DateLayout; vacío devuelve el valor cero.
func ParseDate(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	return time.Parse(DateLayout, s)
}
