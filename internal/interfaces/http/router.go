package http

import (
	"net/http"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"

	"github.com/jhoicas/inventario-ledger/internal/application/accounting"
	"github.com/jhoicas/inventario-ledger/internal/application/credit"
	"github.com/jhoicas/inventario-ledger/internal/application/inventory"
	"github.com/jhoicas/inventario-ledger/internal/application/orders"
	"github.com/jhoicas/inventario-ledger/internal/application/ports"
	"github.com/jhoicas/inventario-ledger/internal/application/receivables"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	Allocate    *inventory.AllocateUseCase
	Recorder    *inventory.MovementRecorder
	Receive     *inventory.ReceiveGoodsUseCase
	BatchStatus *inventory.BatchStatusUseCase
	Ledger      *receivables.LedgerUseCase
	Payments    *receivables.PaymentUseCase
	Credit      *credit.CreditUseCase
	Orders      *orders.OrderUseCase
	Journal     *accounting.JournalUseCase
	Clock       ports.Clock
	JWTSecret   string
	StoreName   string
	Metrics     http.Handler // nil = sin /metrics
}

// Router registra las rutas de la API.
func Router(app *fiber.App, deps RouterDeps) {
	clock := deps.Clock
	if clock == nil {
		clock = ports.SystemClock
	}

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok", "store": deps.StoreName})
	})
	if deps.Metrics != nil {
		app.Get("/metrics", adaptor.HTTPHandler(deps.Metrics))
	}

	// Rutas protegidas (requieren Bearer Token con tenant)
	api := app.Group("/api", AuthMiddleware(deps.JWTSecret))

	// Inventario
	inv := api.Group("/inventory")
	inventoryHandler := NewInventoryHandler(deps.Allocate, deps.Recorder, deps.Receive, deps.BatchStatus, clock)
	inv.Post("/allocations", inventoryHandler.Allocate)
	inv.Post("/movements", inventoryHandler.RecordMovement)
	inv.Post("/receipts", inventoryHandler.Receive)
	inv.Post("/batches/expire", inventoryHandler.Expire)
	inv.Post("/batches/:id/block", inventoryHandler.Block)
	inv.Post("/batches/:id/unblock", inventoryHandler.Unblock)

	// Cuentas por cobrar / pagar y crédito
	recv := api.Group("/receivables")
	receivablesHandler := NewReceivablesHandler(deps.Ledger, deps.Payments, deps.Credit, clock)
	recv.Post("/outstanding", receivablesHandler.PostOutstanding)
	recv.Get("/outstanding/:id", receivablesHandler.GetOutstanding)
	recv.Post("/outstanding/:id/cancel", receivablesHandler.CancelOutstanding)
	recv.Post("/payments", receivablesHandler.AllocatePayment)
	recv.Post("/aging/refresh", receivablesHandler.RefreshAging)
	recv.Get("/parties/:id/credit", receivablesHandler.CheckCredit)

	parties := api.Group("/parties")
	parties.Post("/", receivablesHandler.CreateParty)
	parties.Get("/:id", receivablesHandler.GetParty)

	// Órdenes de venta
	ord := api.Group("/orders")
	ordersHandler := NewOrdersHandler(deps.Orders)
	ord.Post("/", ordersHandler.Create)
	ord.Post("/:id/confirm", ordersHandler.Confirm)
	ord.Post("/:id/approve", ordersHandler.Approve)
	ord.Post("/:id/cancel", ordersHandler.Cancel)
	ord.Post("/:id/fulfill", ordersHandler.Fulfill)
	ord.Post("/:id/invoice", ordersHandler.Invoice)

	// Libro diario
	jr := api.Group("/journal")
	journalHandler := NewJournalHandler(deps.Journal)
	jr.Post("/entries", journalHandler.Create)
	jr.Get("/entries", journalHandler.BySource)
	jr.Put("/entries/:id/lines", journalHandler.ReplaceLines)
	jr.Post("/entries/:id/post", journalHandler.Post)
	jr.Post("/entries/:id/reverse", journalHandler.Reverse)
	jr.Post("/periods", journalHandler.OpenPeriod)
	jr.Patch("/periods/:id", journalHandler.SetPeriodStatus)
}
