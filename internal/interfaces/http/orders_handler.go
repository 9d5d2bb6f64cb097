package http

import (
	"context"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/inventario-ledger/internal/application/dto"
	"github.com/jhoicas/inventario-ledger/internal/application/orders"
	"github.com/jhoicas/inventario-ledger/internal/domain"
	"github.com/jhoicas/inventario-ledger/internal/domain/entity"
)

// OrdersHandler ciclo de vida de la orden de venta.
type OrdersHandler struct {
	uc *orders.OrderUseCase
}

// NewOrdersHandler construye el handler.
func NewOrdersHandler(uc *orders.OrderUseCase) *OrdersHandler {
	return &OrdersHandler{uc: uc}
}

// Create godoc
// @Summary      Crear orden de venta en borrador
// @Tags         orders
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.CreateOrderRequest  true  "orden"
// @Success      201   {object}  dto.OrderResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Router       /api/orders [post]
func (h *OrdersHandler) Create(c *fiber.Ctx) error {
	tenantID, userID, ok, err := tenantOrAbort(c)
	if !ok {
		return err
	}
	var in dto.CreateOrderRequest
	if ok, err := bindBody(c, &in); !ok {
		return err
	}
	orderDate, err1 := dto.ParseDate(in.OrderDate)
	dueDate, err2 := dto.ParseDate(in.DueDate)
	if err1 != nil || err2 != nil {
		return writeError(c, domain.ErrInvalidInput)
	}
	oi := orders.CreateOrderInput{
		TenantID:  tenantID,
		UserID:    userID,
		PartyID:   in.PartyID,
		Number:    in.Number,
		OrderDate: orderDate,
		DueDate:   dueDate,
		Lines:     make([]orders.OrderLineInput, 0, len(in.Lines)),
	}
	for _, l := range in.Lines {
		oi.Lines = append(oi.Lines, orders.OrderLineInput{ProductID: l.ProductID, Quantity: l.Quantity, UnitPrice: l.UnitPrice})
	}
	o, err := h.uc.CreateOrder(c.UserContext(), oi)
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.FromOrder(*o))
}

// Confirm godoc
// @Summary      Confirmar orden (control de crédito; credit_hold no es error)
// @Tags         orders
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID de la orden"
// @Success      200  {object}  dto.ConfirmOrderResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/orders/{id}/confirm [post]
func (h *OrdersHandler) Confirm(c *fiber.Ctx) error {
	tenantID, userID, ok, err := tenantOrAbort(c)
	if !ok {
		return err
	}
	res, err := h.uc.ConfirmOrder(c.UserContext(), tenantID, userID, c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(dto.ConfirmOrderResponse{Order: dto.FromOrder(*res.Order), Credit: dto.FromDecision(res.Decision)})
}

// Approve godoc
// @Summary      Liberar orden retenida por crédito
// @Tags         orders
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID de la orden"
// @Success      200  {object}  dto.OrderResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/orders/{id}/approve [post]
func (h *OrdersHandler) Approve(c *fiber.Ctx) error {
	return h.transition(c, func(ctx context.Context, tenantID, userID, id string) (*entity.SalesOrder, error) {
		return h.uc.ApproveHold(ctx, tenantID, userID, id)
	})
}

// Cancel godoc
// @Summary      Cancelar orden no despachada
// @Tags         orders
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID de la orden"
// @Success      200  {object}  dto.OrderResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/orders/{id}/cancel [post]
func (h *OrdersHandler) Cancel(c *fiber.Ctx) error {
	return h.transition(c, func(ctx context.Context, tenantID, _, id string) (*entity.SalesOrder, error) {
		return h.uc.CancelOrder(ctx, tenantID, id)
	})
}

// Fulfill godoc
// @Summary      Despachar orden (FEFO + movimiento sales por línea, todo o nada)
// @Tags         orders
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID de la orden"
// @Success      200  {object}  dto.OrderResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/orders/{id}/fulfill [post]
func (h *OrdersHandler) Fulfill(c *fiber.Ctx) error {
	return h.transition(c, h.uc.FulfillOrder)
}

// Invoice godoc
// @Summary      Facturar orden despachada (publica saldo por cobrar)
// @Tags         orders
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID de la orden"
// @Success      200  {object}  dto.InvoiceOrderResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/orders/{id}/invoice [post]
func (h *OrdersHandler) Invoice(c *fiber.Ctx) error {
	tenantID, userID, ok, err := tenantOrAbort(c)
	if !ok {
		return err
	}
	o, out, err := h.uc.InvoiceOrder(c.UserContext(), tenantID, userID, c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	resp := dto.InvoiceOrderResponse{Order: dto.FromOrder(*o)}
	if out != nil {
		r := dto.FromOutstanding(*out)
		resp.Outstanding = &r
	}
	return c.JSON(resp)
}

func (h *OrdersHandler) transition(c *fiber.Ctx, apply func(ctx context.Context, tenantID, userID, id string) (*entity.SalesOrder, error)) error {
	tenantID, userID, ok, err := tenantOrAbort(c)
	if !ok {
		return err
	}
	o, err := apply(c.UserContext(), tenantID, userID, c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(dto.FromOrder(*o))
}
