package dto

import (
	"time"

	"github.com/shopspring/decimal"

	creditdomain "github.com/jhoicas/inventario-ledger/internal/domain/credit"
	"github.com/jhoicas/inventario-ledger/internal/domain/entity"
)

// PostOutstandingRequest body para POST /api/receivables/outstanding.
type PostOutstandingRequest struct {
	Kind         string          `json:"kind" validate:"required,oneof=receivable payable"`
	PartyID      string          `json:"party_id" validate:"required"`
	SourceType   string          `json:"source_type" validate:"required"`
	SourceID     string          `json:"source_id" validate:"required"`
	SourceNumber string          `json:"source_number"`
	DocumentDate string          `json:"document_date" validate:"omitempty,datetime=2006-01-02"`
	DueDate      string          `json:"due_date" validate:"omitempty,datetime=2006-01-02"`
	Amount       decimal.Decimal `json:"amount"`
}

// PaymentRequest body para POST /api/receivables/payments.
type PaymentRequest struct {
	PaymentID   string          `json:"payment_id" validate:"required"`
	PartyID     string          `json:"party_id" validate:"required"`
	Kind        string          `json:"kind" validate:"omitempty,oneof=receivable payable"`
	Amount      decimal.Decimal `json:"amount"`
	PaymentDate string          `json:"payment_date" validate:"omitempty,datetime=2006-01-02"`
}

// AgingRequest body para POST /api/receivables/aging/refresh.
type AgingRequest struct {
	AsOf string `json:"as_of" validate:"omitempty,datetime=2006-01-02"`
}

// OutstandingResponse salida de un saldo pendiente.
type OutstandingResponse struct {
	ID                 string          `json:"id"`
	Kind               string          `json:"kind"`
	PartyID            string          `json:"party_id"`
	SourceType         string          `json:"source_type"`
	SourceID           string          `json:"source_id"`
	SourceNumber       string          `json:"source_number,omitempty"`
	DocumentDate       string          `json:"document_date"`
	TotalAmount        decimal.Decimal `json:"total_amount"`
	PaidAmount         decimal.Decimal `json:"paid_amount"`
	OutstandingAmount  decimal.Decimal `json:"outstanding_amount"`
	DueDate            *string         `json:"due_date,omitempty"`
	DaysOverdue        int             `json:"days_overdue"`
	AgingBucket        string          `json:"aging_bucket"`
	Status             string          `json:"status"`
	NextFollowupDate   *string         `json:"next_followup_date,omitempty"`
	CollectionPriority string          `json:"collection_priority"`
}

// AllocationResponse salida de una asignación de pago.
type AllocationResponse struct {
	ID              string          `json:"id"`
	OutstandingID   string          `json:"outstanding_id"`
	AllocatedAmount decimal.Decimal `json:"allocated_amount"`
	BalanceBefore   decimal.Decimal `json:"balance_before"`
	BalanceAfter    decimal.Decimal `json:"balance_after"`
	AllocatedAt     time.Time       `json:"allocated_at"`
}

// PaymentResponse resultado de distribuir un pago.
type PaymentResponse struct {
	PaymentID   string               `json:"payment_id"`
	Applied     decimal.Decimal      `json:"applied"`
	Unapplied   decimal.Decimal      `json:"unapplied"`
	Allocations []AllocationResponse `json:"allocations"`
}

// CreditDecisionResponse salida de la evaluación de crédito.
type CreditDecisionResponse struct {
	Result             string          `json:"result"`
	PartyID            string          `json:"party_id"`
	CreditLimit        decimal.Decimal `json:"credit_limit"`
	CurrentOutstanding decimal.Decimal `json:"current_outstanding"`
	Proposed           decimal.Decimal `json:"proposed"`
	Exposure           decimal.Decimal `json:"exposure"`
}

// CreatePartyRequest body para POST /api/parties.
type CreatePartyRequest struct {
	ID          string          `json:"id"`
	Name        string          `json:"name" validate:"required,max=200"`
	CreditLimit decimal.Decimal `json:"credit_limit"`
}

// PartyResponse salida de un tercero.
type PartyResponse struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	CreditLimit decimal.Decimal `json:"credit_limit"`
}

// FromOutstanding convierte un saldo en su DTO.
func FromOutstanding(o entity.Outstanding) OutstandingResponse {
	r := OutstandingResponse{
		ID:                 o.ID,
		Kind:               o.Kind,
		PartyID:            o.PartyID,
		SourceType:         o.SourceType,
		SourceID:           o.SourceID,
		SourceNumber:       o.SourceNumber,
		DocumentDate:       o.DocumentDate.Format(DateLayout),
		TotalAmount:        o.TotalAmount,
		PaidAmount:         o.PaidAmount,
		OutstandingAmount:  o.OutstandingAmount,
		DueDate:            formatDate(o.DueDate),
		DaysOverdue:        o.DaysOverdue,
		AgingBucket:        o.AgingBucket,
		Status:             o.Status,
		CollectionPriority: o.CollectionPriority,
	}
	if o.NextFollowupDate != nil {
		r.NextFollowupDate = formatDate(*o.NextFollowupDate)
	}
	return r
}

// FromAllocation convierte una asignación en su DTO.
func FromAllocation(a entity.PaymentAllocation) AllocationResponse {
	return AllocationResponse{
		ID:              a.ID,
		OutstandingID:   a.OutstandingID,
		AllocatedAmount: a.AllocatedAmount,
		BalanceBefore:   a.BalanceBefore,
		BalanceAfter:    a.BalanceAfter,
		AllocatedAt:     a.AllocatedAt,
	}
}

// FromDecision convierte la decisión de crédito en su DTO.
func FromDecision(d creditdomain.Decision) CreditDecisionResponse {
	return CreditDecisionResponse{
		Result:             d.Result,
		PartyID:            d.PartyID,
		CreditLimit:        d.CreditLimit,
		CurrentOutstanding: d.CurrentOutstanding,
		Proposed:           d.Proposed,
		Exposure:           d.Exposure,
	}
}

// FromParty convierte un tercero en su DTO.
func FromParty(p entity.Party) PartyResponse {
	return PartyResponse{ID: p.ID, Name: p.Name, CreditLimit: p.CreditLimit}
}
