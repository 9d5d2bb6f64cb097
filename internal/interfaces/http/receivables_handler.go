package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/inventario-ledger/internal/application/credit"
	"github.com/jhoicas/inventario-ledger/internal/application/dto"
	"github.com/jhoicas/inventario-ledger/internal/application/ports"
	"github.com/jhoicas/inventario-ledger/internal/application/receivables"
	"github.com/jhoicas/inventario-ledger/internal/domain"
)

// ReceivablesHandler saldos pendientes, pagos y control de crédito.
type ReceivablesHandler struct {
	ledger   *receivables.LedgerUseCase
	payments *receivables.PaymentUseCase
	credit   *credit.CreditUseCase
	clock    ports.Clock
}

// NewReceivablesHandler construye el handler.
func NewReceivablesHandler(ledger *receivables.LedgerUseCase, payments *receivables.PaymentUseCase, creditUC *credit.CreditUseCase, clock ports.Clock) *ReceivablesHandler {
	return &ReceivablesHandler{ledger: ledger, payments: payments, credit: creditUC, clock: clock}
}

// PostOutstanding godoc
// @Summary      Publicar saldo pendiente de un documento (idempotente por documento origen)
// @Tags         receivables
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.PostOutstandingRequest  true  "documento origen y monto"
// @Success      201   {object}  dto.OutstandingResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/receivables/outstanding [post]
func (h *ReceivablesHandler) PostOutstanding(c *fiber.Ctx) error {
	tenantID, userID, ok, err := tenantOrAbort(c)
	if !ok {
		return err
	}
	var in dto.PostOutstandingRequest
	if ok, err := bindBody(c, &in); !ok {
		return err
	}
	docDate, err1 := dto.ParseDate(in.DocumentDate)
	dueDate, err2 := dto.ParseDate(in.DueDate)
	if err1 != nil || err2 != nil {
		return writeError(c, domain.ErrInvalidInput)
	}
	o, err := h.ledger.PostOutstanding(c.UserContext(), receivables.PostOutstandingInput{
		TenantID:     tenantID,
		UserID:       userID,
		Kind:         in.Kind,
		PartyID:      in.PartyID,
		SourceType:   in.SourceType,
		SourceID:     in.SourceID,
		SourceNumber: in.SourceNumber,
		DocumentDate: docDate,
		DueDate:      dueDate,
		Amount:       in.Amount,
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.FromOutstanding(*o))
}

// GetOutstanding godoc
// @Summary      Obtener saldo pendiente
// @Tags         receivables
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID del saldo"
// @Success      200  {object}  dto.OutstandingResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/receivables/outstanding/{id} [get]
func (h *ReceivablesHandler) GetOutstanding(c *fiber.Ctx) error {
	tenantID, _, ok, err := tenantOrAbort(c)
	if !ok {
		return err
	}
	o, err := h.ledger.GetOutstanding(c.UserContext(), tenantID, c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(dto.FromOutstanding(*o))
}

// CancelOutstanding godoc
// @Summary      Cancelar saldo sin pagos aplicados
// @Tags         receivables
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID del saldo"
// @Success      200  {object}  dto.OutstandingResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/receivables/outstanding/{id}/cancel [post]
func (h *ReceivablesHandler) CancelOutstanding(c *fiber.Ctx) error {
	tenantID, userID, ok, err := tenantOrAbort(c)
	if !ok {
		return err
	}
	o, err := h.ledger.CancelOutstanding(c.UserContext(), tenantID, userID, c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(dto.FromOutstanding(*o))
}

// AllocatePayment godoc
// @Summary      Aplicar pago FIFO sobre los saldos abiertos del tercero
// @Tags         receivables
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.PaymentRequest  true  "pago"
// @Success      201   {object}  dto.PaymentResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/receivables/payments [post]
func (h *ReceivablesHandler) AllocatePayment(c *fiber.Ctx) error {
	tenantID, userID, ok, err := tenantOrAbort(c)
	if !ok {
		return err
	}
	var in dto.PaymentRequest
	if ok, err := bindBody(c, &in); !ok {
		return err
	}
	payDate, err := dto.ParseDate(in.PaymentDate)
	if err != nil {
		return writeError(c, domain.ErrInvalidInput)
	}
	res, err := h.payments.AllocatePayment(c.UserContext(), receivables.PaymentInput{
		TenantID:    tenantID,
		UserID:      userID,
		PaymentID:   in.PaymentID,
		PartyID:     in.PartyID,
		Kind:        in.Kind,
		Amount:      in.Amount,
		PaymentDate: payDate,
	})
	if err != nil {
		return writeError(c, err)
	}
	out := dto.PaymentResponse{
		PaymentID:   res.PaymentID,
		Applied:     res.Applied,
		Unapplied:   res.Unapplied,
		Allocations: make([]dto.AllocationResponse, 0, len(res.Allocations)),
	}
	for _, a := range res.Allocations {
		out.Allocations = append(out.Allocations, dto.FromAllocation(a))
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

// RefreshAging godoc
// @Summary      Recalcular mora y prioridad de cobro del tenant
// @Tags         receivables
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.AgingRequest  false  "fecha de corte (hoy si se omite)"
// @Success      200   {object}  map[string]int
// @Router       /api/receivables/aging/refresh [post]
func (h *ReceivablesHandler) RefreshAging(c *fiber.Ctx) error {
	tenantID, _, ok, err := tenantOrAbort(c)
	if !ok {
		return err
	}
	var in dto.AgingRequest
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
	n, err := h.ledger.RefreshAging(c.UserContext(), tenantID, asOf)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(fiber.Map{"refreshed": n})
}

// CheckCredit godoc
// @Summary      Evaluar exposición de crédito del tercero para un monto propuesto
// @Tags         receivables
// @Security     Bearer
// @Produce      json
// @Param        id      path   string  true  "ID del tercero"
// @Param        amount  query  string  true  "monto propuesto"
// @Success      200  {object}  dto.CreditDecisionResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/receivables/parties/{id}/credit [get]
func (h *ReceivablesHandler) CheckCredit(c *fiber.Ctx) error {
	tenantID, _, ok, err := tenantOrAbort(c)
	if !ok {
		return err
	}
	amount, err := decimal.NewFromString(c.Query("amount", "0"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "amount debe ser numérico"})
	}
	dec, err := h.credit.CheckCredit(c.UserContext(), tenantID, c.Params("id"), amount)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(dto.FromDecision(dec))
}

// CreateParty godoc
// @Summary      Registrar tercero con límite de crédito (0 = sin límite)
// @Tags         parties
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.CreatePartyRequest  true  "tercero"
// @Success      201   {object}  dto.PartyResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/parties [post]
func (h *ReceivablesHandler) CreateParty(c *fiber.Ctx) error {
	tenantID, _, ok, err := tenantOrAbort(c)
	if !ok {
		return err
	}
	var in dto.CreatePartyRequest
	if ok, err := bindBody(c, &in); !ok {
		return err
	}
	p, err := h.credit.RegisterParty(c.UserContext(), credit.PartyInput{
		TenantID:    tenantID,
		ID:          in.ID,
		Name:        in.Name,
		CreditLimit: in.CreditLimit,
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.FromParty(*p))
}

// GetParty godoc
// @Summary      Obtener tercero
// @Tags         parties
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID del tercero"
// @Success      200  {object}  dto.PartyResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/parties/{id} [get]
func (h *ReceivablesHandler) GetParty(c *fiber.Ctx) error {
	tenantID, _, ok, err := tenantOrAbort(c)
	if !ok {
		return err
	}
	p, err := h.credit.GetParty(c.UserContext(), tenantID, c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(dto.FromParty(*p))
}
