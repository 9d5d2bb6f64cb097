package inventory

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/inventario-ledger/internal/application/ports"
	"github.com/jhoicas/inventario-ledger/internal/application/receivables"
	"github.com/jhoicas/inventario-ledger/internal/domain"
	"github.com/jhoicas/inventario-ledger/internal/domain/entity"
	"github.com/jhoicas/inventario-ledger/internal/domain/repository"
)

// SourcePurchaseReceipt tipo de documento origen de una recepción.
const SourcePurchaseReceipt = "purchase_receipt"

// ReceiveGoodsUseCase recepción de mercancía: un movimiento purchase por línea
// y, si hay proveedor, el saldo por pagar en la misma transacción.
type ReceiveGoodsUseCase struct {
	txRunner ports.TxRunner
	recorder *MovementRecorder
	payables PayablePoster
	clock    ports.Clock
}

// NewReceiveGoodsUseCase construye el caso de uso. payables puede ser nil.
func NewReceiveGoodsUseCase(txRunner ports.TxRunner, recorder *MovementRecorder, payables PayablePoster, clock ports.Clock) *ReceiveGoodsUseCase {
	return &ReceiveGoodsUseCase{txRunner: txRunner, recorder: recorder, payables: payables, clock: clock}
}

// ReceiptLine línea de recepción. Con BatchID se repone un lote existente; sin él se crea uno.
type ReceiptLine struct {
	ProductID         string
	BatchID           string
	LotCode           string
	ExpiryDate        time.Time
	ManufacturingDate time.Time
	Quantity          decimal.Decimal
	UnitCost          decimal.Decimal
}

// ReceiptInput documento de recepción.
type ReceiptInput struct {
	TenantID       string
	UserID         string
	ReceiptID      string
	SupplierID     string
	DocumentNumber string
	DocumentDate   time.Time
	DueDate        time.Time
	Lines          []ReceiptLine
}

// ReceiptResult movimientos, lotes y saldo por pagar generados.
type ReceiptResult struct {
	ReceiptID   string
	Movements   []entity.Movement
	Batches     []entity.Batch
	Payable     *entity.Outstanding
	TotalAmount decimal.Decimal
}

// ReceiveGoods todo o nada: si una línea falla no queda ningún lote ni saldo.
func (uc *ReceiveGoodsUseCase) ReceiveGoods(ctx context.Context, in ReceiptInput) (*ReceiptResult, error) {
	if in.TenantID == "" || len(in.Lines) == 0 {
		return nil, domain.ErrInvalidInput
	}
	if in.ReceiptID == "" {
		in.ReceiptID = uuid.New().String()
	}
	res := &ReceiptResult{ReceiptID: in.ReceiptID, TotalAmount: decimal.Zero}

	err := uc.txRunner.Run(ctx, func(repos repository.Repos) error {
		for i, l := range in.Lines {
			if l.UnitCost.IsNegative() {
				return fmt.Errorf("línea %d: costo negativo: %w", i+1, domain.ErrInvalidInput)
			}
			mi := MovementInput{
				TenantID:      in.TenantID,
				UserID:        in.UserID,
				Type:          entity.MovementPurchase,
				ProductID:     l.ProductID,
				BatchID:       l.BatchID,
				QuantityIn:    l.Quantity,
				QuantityOut:   decimal.Zero,
				ReferenceType: SourcePurchaseReceipt,
				ReferenceID:   in.ReceiptID,
			}
			if l.BatchID == "" {
				mi.NewBatch = &NewBatchInput{LotCode: l.LotCode, ExpiryDate: l.ExpiryDate, ManufacturingDate: l.ManufacturingDate}
			}
			mov, batch, err := uc.recorder.RecordInTx(ctx, repos, mi)
			if err != nil {
				return fmt.Errorf("línea %d: %w", i+1, err)
			}
			res.Movements = append(res.Movements, *mov)
			res.Batches = append(res.Batches, *batch)
			res.TotalAmount = res.TotalAmount.Add(l.Quantity.Mul(l.UnitCost))
		}

		if uc.payables == nil || in.SupplierID == "" || !res.TotalAmount.IsPositive() {
			return nil
		}
		docDate := in.DocumentDate
		if docDate.IsZero() {
			docDate = uc.clock()
		}
		o, err := uc.payables.PostOutstandingInTx(ctx, repos, receivables.PostOutstandingInput{
			TenantID:     in.TenantID,
			UserID:       in.UserID,
			Kind:         entity.OutstandingPayable,
			PartyID:      in.SupplierID,
			SourceType:   SourcePurchaseReceipt,
			SourceID:     in.ReceiptID,
			SourceNumber: in.DocumentNumber,
			DocumentDate: docDate,
			DueDate:      in.DueDate,
			Amount:       res.TotalAmount,
		})
		if err != nil {
			return err
		}
		res.Payable = o
		return nil
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}
