package orders

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/inventario-ledger/internal/application/credit"
	"github.com/jhoicas/inventario-ledger/internal/application/inventory"
	"github.com/jhoicas/inventario-ledger/internal/application/ports"
	"github.com/jhoicas/inventario-ledger/internal/application/receivables"
	"github.com/jhoicas/inventario-ledger/internal/domain"
	creditdomain "github.com/jhoicas/inventario-ledger/internal/domain/credit"
	"github.com/jhoicas/inventario-ledger/internal/domain/entity"
	"github.com/jhoicas/inventario-ledger/internal/domain/repository"
	"github.com/jhoicas/inventario-ledger/pkg/logger"
)

// OrderUseCase flujo de la orden de venta: borrador -> confirmada (control de crédito)
// -> despachada (FEFO + movimiento) -> facturada (saldo por cobrar).
type OrderUseCase struct {
	txRunner  ports.TxRunner
	credit    *credit.CreditUseCase
	allocator *inventory.AllocateUseCase
	ledger    *receivables.LedgerUseCase
	clock     ports.Clock
	log       *logger.Logger
}

// NewOrderUseCase construye el caso de uso.
func NewOrderUseCase(
	txRunner ports.TxRunner,
	creditUC *credit.CreditUseCase,
	allocator *inventory.AllocateUseCase,
	ledger *receivables.LedgerUseCase,
	clock ports.Clock,
	log *logger.Logger,
) *OrderUseCase {
	return &OrderUseCase{
		txRunner:  txRunner,
		credit:    creditUC,
		allocator: allocator,
		ledger:    ledger,
		clock:     clock,
		log:       log.Component("orders"),
	}
}

// OrderLineInput línea de la orden.
type OrderLineInput struct {
	ProductID string
	Quantity  decimal.Decimal
	UnitPrice decimal.Decimal
}

// CreateOrderInput datos de la orden.
type CreateOrderInput struct {
	TenantID  string
	UserID    string
	PartyID   string
	Number    string
	OrderDate time.Time
	DueDate   time.Time
	Lines     []OrderLineInput
}

// Confirmation resultado de confirmar una orden.
type Confirmation struct {
	Order    *entity.SalesOrder
	Decision creditdomain.Decision
}

// CreateOrder guarda la orden en borrador.
func (uc *OrderUseCase) CreateOrder(ctx context.Context, in CreateOrderInput) (*entity.SalesOrder, error) {
	if in.TenantID == "" || in.PartyID == "" || len(in.Lines) == 0 {
		return nil, domain.ErrInvalidInput
	}
	now := uc.clock()
	o := &entity.SalesOrder{
		ID:        uuid.New().String(),
		TenantID:  in.TenantID,
		PartyID:   in.PartyID,
		Number:    in.Number,
		OrderDate: in.OrderDate,
		DueDate:   in.DueDate,
		Total:     decimal.Zero,
		Status:    entity.OrderStatusDraft,
		CreatedBy: in.UserID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if o.OrderDate.IsZero() {
		o.OrderDate = now
	}
	if o.DueDate.IsZero() {
		o.DueDate = o.OrderDate.AddDate(0, 0, 30)
	}
	if o.Number == "" {
		o.Number = "SO-" + o.ID[:8]
	}
	for i, l := range in.Lines {
		if l.ProductID == "" || !l.Quantity.IsPositive() || l.UnitPrice.IsNegative() {
			return nil, fmt.Errorf("línea %d: %w", i+1, domain.ErrInvalidInput)
		}
		line := entity.SalesOrderLine{
			ID:        uuid.New().String(),
			OrderID:   o.ID,
			ProductID: l.ProductID,
			Quantity:  l.Quantity,
			UnitPrice: l.UnitPrice,
		}
		o.Lines = append(o.Lines, line)
		o.Total = o.Total.Add(line.Subtotal())
	}

	err := uc.txRunner.Run(ctx, func(repos repository.Repos) error {
		party, err := repos.Parties.GetByID(ctx, in.TenantID, in.PartyID)
		if err != nil {
			return err
		}
		if party == nil {
			return fmt.Errorf("tercero %s: %w", in.PartyID, domain.ErrNotFound)
		}
		return repos.Orders.Create(ctx, o)
	})
	if err != nil {
		return nil, err
	}
	return o, nil
}

// ConfirmOrder consulta el control de crédito antes de que la orden sea despachable.
// Hold no aborta: la orden queda en credit_hold y se escribe la notificación en el outbox
// dentro de la misma transacción. Una orden en credit_hold puede volver a evaluarse.
func (uc *OrderUseCase) ConfirmOrder(ctx context.Context, tenantID, userID, orderID string) (*Confirmation, error) {
	var out *Confirmation
	err := uc.txRunner.Run(ctx, func(repos repository.Repos) error {
		o, err := lockOrder(ctx, repos, tenantID, orderID)
		if err != nil {
			return err
		}
		if o.Status != entity.OrderStatusDraft && o.Status != entity.OrderStatusCreditHold {
			return fmt.Errorf("orden %s en estado %s: %w", o.Number, o.Status, domain.ErrConflict)
		}
		dec, err := uc.credit.CheckCreditInTx(ctx, repos, tenantID, o.PartyID, o.Total)
		if err != nil {
			return err
		}
		now := uc.clock()
		if dec.Approved() {
			o.Status = entity.OrderStatusConfirmed
		} else {
			o.Status = entity.OrderStatusCreditHold
			if err := uc.notifyHold(ctx, repos, o, dec, now); err != nil {
				return err
			}
		}
		o.UpdatedAt = now
		if err := repos.Orders.Update(ctx, o); err != nil {
			return err
		}
		out = &Confirmation{Order: o, Decision: dec}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (uc *OrderUseCase) notifyHold(ctx context.Context, repos repository.Repos, o *entity.SalesOrder, dec creditdomain.Decision, now time.Time) error {
	payload, err := json.Marshal(map[string]any{
		"party_id":     o.PartyID,
		"order_id":     o.ID,
		"order_number": o.Number,
		"exposure":     dec.Exposure,
		"credit_limit": dec.CreditLimit,
		"reason":       dec.Err().Error(),
	})
	if err != nil {
		return fmt.Errorf("serializar notificación: %w", err)
	}
	return repos.Notifications.Create(ctx, &entity.Notification{
		ID:        uuid.New().String(),
		TenantID:  o.TenantID,
		Kind:      entity.NotificationCreditHold,
		Payload:   payload,
		CreatedAt: now,
	})
}

// ApproveHold aprobación externa de una retención de crédito: credit_hold -> confirmed.
func (uc *OrderUseCase) ApproveHold(ctx context.Context, tenantID, userID, orderID string) (*entity.SalesOrder, error) {
	return uc.transition(ctx, tenantID, orderID, func(o *entity.SalesOrder) error {
		if o.Status != entity.OrderStatusCreditHold {
			return fmt.Errorf("orden %s sin retención de crédito: %w", o.Number, domain.ErrConflict)
		}
		uc.log.Info().Str("tenant_id", tenantID).Str("order", o.Number).Str("user_id", userID).Msg("retención de crédito aprobada")
		o.Status = entity.OrderStatusConfirmed
		return nil
	})
}

// CancelOrder solo antes del despacho.
func (uc *OrderUseCase) CancelOrder(ctx context.Context, tenantID, orderID string) (*entity.SalesOrder, error) {
	return uc.transition(ctx, tenantID, orderID, func(o *entity.SalesOrder) error {
		switch o.Status {
		case entity.OrderStatusDraft, entity.OrderStatusConfirmed, entity.OrderStatusCreditHold:
			o.Status = entity.OrderStatusCancelled
			return nil
		}
		return fmt.Errorf("orden %s en estado %s: %w", o.Number, o.Status, domain.ErrConflict)
	})
}

// FulfillOrder asigna un lote FEFO por línea y registra la venta. Falta de stock o contención
// abortan toda la orden (fallo duro).
func (uc *OrderUseCase) FulfillOrder(ctx context.Context, tenantID, userID, orderID string) (*entity.SalesOrder, error) {
	var out *entity.SalesOrder
	err := uc.txRunner.Run(ctx, func(repos repository.Repos) error {
		o, err := lockOrder(ctx, repos, tenantID, orderID)
		if err != nil {
			return err
		}
		if !o.Fulfillable() {
			return fmt.Errorf("orden %s en estado %s no es despachable: %w", o.Number, o.Status, domain.ErrConflict)
		}
		for i := range o.Lines {
			l := &o.Lines[i]
			mov, err := uc.allocator.CommitInTx(ctx, repos, inventory.CommitInput{
				TenantID:      tenantID,
				UserID:        userID,
				ProductID:     l.ProductID,
				Quantity:      l.Quantity,
				ReferenceType: entity.SourceSalesOrder,
				ReferenceID:   o.ID,
			})
			if err != nil {
				return err
			}
			l.BatchID = mov.BatchID
		}
		o.Status = entity.OrderStatusFulfilled
		o.UpdatedAt = uc.clock()
		if err := repos.Orders.Update(ctx, o); err != nil {
			return err
		}
		out = o
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// InvoiceOrder publica el saldo por cobrar de una orden despachada.
func (uc *OrderUseCase) InvoiceOrder(ctx context.Context, tenantID, userID, orderID string) (*entity.SalesOrder, *entity.Outstanding, error) {
	var (
		order *entity.SalesOrder
		out   *entity.Outstanding
	)
	err := uc.txRunner.Run(ctx, func(repos repository.Repos) error {
		o, err := lockOrder(ctx, repos, tenantID, orderID)
		if err != nil {
			return err
		}
		if o.Status != entity.OrderStatusFulfilled {
			return fmt.Errorf("orden %s en estado %s: %w", o.Number, o.Status, domain.ErrConflict)
		}
		out, err = uc.ledger.PostOutstandingInTx(ctx, repos, receivables.PostOutstandingInput{
			TenantID:     tenantID,
			UserID:       userID,
			Kind:         entity.OutstandingReceivable,
			PartyID:      o.PartyID,
			SourceType:   entity.SourceSalesOrder,
			SourceID:     o.ID,
			SourceNumber: o.Number,
			DocumentDate: o.OrderDate,
			DueDate:      o.DueDate,
			Amount:       o.Total,
		})
		if err != nil {
			return err
		}
		o.Status = entity.OrderStatusInvoiced
		o.UpdatedAt = uc.clock()
		if err := repos.Orders.Update(ctx, o); err != nil {
			return err
		}
		order = o
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	return order, out, nil
}

func (uc *OrderUseCase) transition(ctx context.Context, tenantID, orderID string, apply func(*entity.SalesOrder) error) (*entity.SalesOrder, error) {
	var out *entity.SalesOrder
	err := uc.txRunner.Run(ctx, func(repos repository.Repos) error {
		o, err := lockOrder(ctx, repos, tenantID, orderID)
		if err != nil {
			return err
		}
		if err := apply(o); err != nil {
			return err
		}
		o.UpdatedAt = uc.clock()
		if err := repos.Orders.Update(ctx, o); err != nil {
			return err
		}
		out = o
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func lockOrder(ctx context.Context, repos repository.Repos, tenantID, orderID string) (*entity.SalesOrder, error) {
	o, err := repos.Orders.GetForUpdate(ctx, tenantID, orderID)
	if err != nil {
		return nil, err
	}
	if o == nil {
		return nil, fmt.Errorf("orden %s: %w", orderID, domain.ErrNotFound)
	}
	return o, nil
}
