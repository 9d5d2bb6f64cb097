package http

import (
	"context"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/inventario-ledger/internal/application/dto"
	"github.com/jhoicas/inventario-ledger/internal/application/inventory"
	"github.com/jhoicas/inventario-ledger/internal/application/ports"
	"github.com/jhoicas/inventario-ledger/internal/domain"
	"github.com/jhoicas/inventario-ledger/internal/domain/entity"
)

// InventoryHandler maneja asignación FEFO, movimientos, recepciones y estado de lotes.
type InventoryHandler struct {
	allocate *inventory.AllocateUseCase
	recorder *inventory.MovementRecorder
	receive  *inventory.ReceiveGoodsUseCase
	status   *inventory.BatchStatusUseCase
	clock    ports.Clock
}

// NewInventoryHandler construye el handler.
func NewInventoryHandler(
	allocate *inventory.AllocateUseCase,
	recorder *inventory.MovementRecorder,
	receive *inventory.ReceiveGoodsUseCase,
	status *inventory.BatchStatusUseCase,
	clock ports.Clock,
) *InventoryHandler {
	return &InventoryHandler{allocate: allocate, recorder: recorder, receive: receive, status: status, clock: clock}
}

// Allocate godoc
// @Summary      Elegir lote FEFO (y opcionalmente registrar la venta)
// @Tags         inventory
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.AllocateRequest  true  "producto, cantidad y commit"
// @Success      200   {object}  dto.AllocateResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/inventory/allocations [post]
func (h *InventoryHandler) Allocate(c *fiber.Ctx) error {
	tenantID, userID, ok, err := tenantOrAbort(c)
	if !ok {
		return err
	}
	var in dto.AllocateRequest
	if ok, err := bindBody(c, &in); !ok {
		return err
	}
	if !in.Commit {
		batchID, err := h.allocate.Allocate(c.UserContext(), tenantID, in.ProductID, in.Quantity)
		if err != nil {
			return writeError(c, err)
		}
		return c.JSON(dto.AllocateResponse{BatchID: batchID})
	}
	mov, err := h.allocate.Commit(c.UserContext(), inventory.CommitInput{
		TenantID:      tenantID,
		UserID:        userID,
		ProductID:     in.ProductID,
		Quantity:      in.Quantity,
		ReferenceType: in.ReferenceType,
		ReferenceID:   in.ReferenceID,
	})
	if err != nil {
		return writeError(c, err)
	}
	out := dto.FromMovement(*mov)
	return c.Status(fiber.StatusCreated).JSON(dto.AllocateResponse{BatchID: mov.BatchID, Movement: &out})
}

// RecordMovement godoc
// @Summary      Registrar movimiento de inventario sobre un lote
// @Tags         inventory
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.RecordMovementRequest  true  "tipo, lote y cantidades"
// @Success      201   {object}  map[string]interface{}
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Failure      422   {object}  dto.ErrorResponse
// @Router       /api/inventory/movements [post]
func (h *InventoryHandler) RecordMovement(c *fiber.Ctx) error {
	tenantID, userID, ok, err := tenantOrAbort(c)
	if !ok {
		return err
	}
	var in dto.RecordMovementRequest
	if ok, err := bindBody(c, &in); !ok {
		return err
	}
	mi := inventory.MovementInput{
		TenantID:      tenantID,
		UserID:        userID,
		Type:          in.Type,
		ProductID:     in.ProductID,
		BatchID:       in.BatchID,
		QuantityIn:    in.QuantityIn,
		QuantityOut:   in.QuantityOut,
		ReferenceType: in.ReferenceType,
		ReferenceID:   in.ReferenceID,
	}
	if in.Type == entity.MovementPurchase && in.BatchID == "" {
		expiry, err1 := dto.ParseDate(in.ExpiryDate)
		mfg, err2 := dto.ParseDate(in.ManufacturingDate)
		if err1 != nil || err2 != nil {
			return writeError(c, domain.ErrInvalidInput)
		}
		mi.NewBatch = &inventory.NewBatchInput{LotCode: in.LotCode, ExpiryDate: expiry, ManufacturingDate: mfg}
	}
	mov, batch, err := h.recorder.Record(c.UserContext(), mi)
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"movement": dto.FromMovement(*mov),
		"batch":    dto.FromBatch(*batch),
	})
}

// Receive godoc
// @Summary      Recibir mercancía (lotes + movimientos purchase + saldo por pagar)
// @Tags         inventory
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.ReceiptRequest  true  "documento de recepción"
// @Success      201   {object}  dto.ReceiptResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/inventory/receipts [post]
func (h *InventoryHandler) Receive(c *fiber.Ctx) error {
	tenantID, userID, ok, err := tenantOrAbort(c)
	if !ok {
		return err
	}
	var in dto.ReceiptRequest
	if ok, err := bindBody(c, &in); !ok {
		return err
	}
	docDate, err1 := dto.ParseDate(in.DocumentDate)
	dueDate, err2 := dto.ParseDate(in.DueDate)
	if err1 != nil || err2 != nil {
		return writeError(c, domain.ErrInvalidInput)
	}
	ri := inventory.ReceiptInput{
		TenantID:       tenantID,
		UserID:         userID,
		ReceiptID:      in.ReceiptID,
		SupplierID:     in.SupplierID,
		DocumentNumber: in.DocumentNumber,
		DocumentDate:   docDate,
		DueDate:        dueDate,
		Lines:          make([]inventory.ReceiptLine, 0, len(in.Lines)),
	}
	for _, l := range in.Lines {
		expiry, err1 := dto.ParseDate(l.ExpiryDate)
		mfg, err2 := dto.ParseDate(l.ManufacturingDate)
		if err1 != nil || err2 != nil {
			return writeError(c, domain.ErrInvalidInput)
		}
		ri.Lines = append(ri.Lines, inventory.ReceiptLine{
			ProductID:         l.ProductID,
			BatchID:           l.BatchID,
			LotCode:           l.LotCode,
			ExpiryDate:        expiry,
			ManufacturingDate: mfg,
			Quantity:          l.Quantity,
			UnitCost:          l.UnitCost,
		})
	}
	res, err := h.receive.ReceiveGoods(c.UserContext(), ri)
	if err != nil {
		return writeError(c, err)
	}
	out := dto.ReceiptResponse{
		ReceiptID:   res.ReceiptID,
		TotalAmount: res.TotalAmount,
		Batches:     make([]dto.BatchResponse, 0, len(res.Batches)),
		Movements:   make([]dto.MovementResponse, 0, len(res.Movements)),
	}
	for _, b := range res.Batches {
		out.Batches = append(out.Batches, dto.FromBatch(b))
	}
	for _, m := range res.Movements {
		out.Movements = append(out.Movements, dto.FromMovement(m))
	}
	if res.Payable != nil {
		p := dto.FromOutstanding(*res.Payable)
		out.Payable = &p
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

// Block godoc
// @Summary      Bloquear lote (excluido de FEFO)
// @Tags         inventory
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID del lote"
// @Success      200  {object}  dto.BatchResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/inventory/batches/{id}/block [post]
func (h *InventoryHandler) Block(c *fiber.Ctx) error {
	return h.setStatus(c, h.status.Block)
}

// Unblock godoc
// @Summary      Desbloquear lote
// @Tags         inventory
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID del lote"
// @Success      200  {object}  dto.BatchResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/inventory/batches/{id}/unblock [post]
func (h *InventoryHandler) Unblock(c *fiber.Ctx) error {
	return h.setStatus(c, h.status.Unblock)
}

func (h *InventoryHandler) setStatus(c *fiber.Ctx, apply func(ctx context.Context, tenantID, batchID string) (*entity.Batch, error)) error {
	tenantID, _, ok, err := tenantOrAbort(c)
	if !ok {
		return err
	}
	b, err := apply(c.UserContext(), tenantID, c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(dto.FromBatch(*b))
}

// Expire godoc
// @Summary      Dar de baja los lotes vencidos del tenant
// @Tags         inventory
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.ExpireRequest  false  "fecha de corte (hoy si se omite)"
// @Success      200   {object}  dto.ExpireResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/inventory/batches/expire [post]
func (h *InventoryHandler) Expire(c *fiber.Ctx) error {
	tenantID, _, ok, err := tenantOrAbort(c)
	if !ok {
		return err
	}
	var in dto.ExpireRequest
	if len(c.Body()) > 0 {
		if ok, err := bindBody(c, &in); !ok {
			return err
		}
	}
	asOf, err := dto.ParseDate(in.AsOf)
	if err != nil {
		return writeError(c, domain.ErrInvalidInput)
	}
	if asOf.IsZero() {
		asOf = h.clock()
	}
	res, err := h.status.ExpireBatches(c.UserContext(), tenantID, asOf)
	if err != nil {
		return writeError(c, err)
	}
	expired := res.Expired
	if expired == nil {
		expired = []string{}
	}
	return c.JSON(dto.ExpireResponse{Expired: expired, Movements: res.Movements})
}
