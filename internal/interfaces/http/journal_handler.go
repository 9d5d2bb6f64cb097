package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/inventario-ledger/internal/application/accounting"
	"github.com/jhoicas/inventario-ledger/internal/application/dto"
	"github.com/jhoicas/inventario-ledger/internal/domain"
	"github.com/jhoicas/inventario-ledger/internal/domain/entity"
)

// JournalHandler asientos de partida doble y periodos contables.
type JournalHandler struct {
	uc *accounting.JournalUseCase
}

// NewJournalHandler construye el handler.
func NewJournalHandler(uc *accounting.JournalUseCase) *JournalHandler {
	return &JournalHandler{uc: uc}
}

func toLineInputs(lines []dto.JournalLineRequest) []accounting.LineInput {
	out := make([]accounting.LineInput, 0, len(lines))
	for _, l := range lines {
		out = append(out, accounting.LineInput{AccountCode: l.AccountCode, Debit: l.Debit, Credit: l.Credit, Memo: l.Memo})
	}
	return out
}

// Create godoc
// @Summary      Contabilizar asiento (o guardarlo como borrador con draft=true)
// @Tags         journal
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.JournalEntryRequest  true  "asiento"
// @Success      201   {object}  dto.JournalEntryResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Failure      422   {object}  dto.ErrorResponse
// @Router       /api/journal/entries [post]
func (h *JournalHandler) Create(c *fiber.Ctx) error {
	tenantID, userID, ok, err := tenantOrAbort(c)
	if !ok {
		return err
	}
	var in dto.JournalEntryRequest
	if ok, err := bindBody(c, &in); !ok {
		return err
	}
	date, err := dto.ParseDate(in.EntryDate)
	if err != nil {
		return writeError(c, domain.ErrInvalidInput)
	}
	ji := accounting.JournalInput{
		TenantID:    tenantID,
		UserID:      userID,
		Number:      in.Number,
		EntryDate:   date,
		Description: in.Description,
		SourceType:  in.SourceType,
		SourceID:    in.SourceID,
		Lines:       toLineInputs(in.Lines),
	}
	var e *entity.JournalEntry
	if in.Draft {
		e, err = h.uc.SaveDraft(c.UserContext(), ji)
	} else {
		e, err = h.uc.PostJournalEntry(c.UserContext(), ji)
	}
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.FromJournalEntry(*e))
}

// ReplaceLines godoc
// @Summary      Reemplazar las líneas de un borrador (debe seguir cuadrado)
// @Tags         journal
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string                   true  "ID del asiento"
// @Param        body  body  dto.ReplaceLinesRequest  true  "líneas"
// @Success      200   {object}  dto.JournalEntryResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Failure      422   {object}  dto.ErrorResponse
// @Router       /api/journal/entries/{id}/lines [put]
func (h *JournalHandler) ReplaceLines(c *fiber.Ctx) error {
	tenantID, _, ok, err := tenantOrAbort(c)
	if !ok {
		return err
	}
	var in dto.ReplaceLinesRequest
	if ok, err := bindBody(c, &in); !ok {
		return err
	}
	e, err := h.uc.ReplaceDraftLines(c.UserContext(), tenantID, c.Params("id"), toLineInputs(in.Lines))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(dto.FromJournalEntry(*e))
}

// Post godoc
// @Summary      Contabilizar un borrador (irreversible)
// @Tags         journal
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID del asiento"
// @Success      200  {object}  dto.JournalEntryResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/journal/entries/{id}/post [post]
func (h *JournalHandler) Post(c *fiber.Ctx) error {
	tenantID, _, ok, err := tenantOrAbort(c)
	if !ok {
		return err
	}
	e, err := h.uc.PostDraft(c.UserContext(), tenantID, c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(dto.FromJournalEntry(*e))
}

// Reverse godoc
// @Summary      Reversar asiento contabilizado
// @Tags         journal
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string                   true   "ID del asiento"
// @Param        body  body  dto.ReverseEntryRequest  false  "fecha del reverso"
// @Success      201   {object}  dto.JournalEntryResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/journal/entries/{id}/reverse [post]
func (h *JournalHandler) Reverse(c *fiber.Ctx) error {
	tenantID, userID, ok, err := tenantOrAbort(c)
	if !ok {
		return err
	}
	var in dto.ReverseEntryRequest
	if len(c.Body()) > 0 {
		if ok, err := bindBody(c, &in); !ok {
			return err
		}
	}
	date, err := dto.ParseDate(in.EntryDate)
	if err != nil {
		return writeError(c, domain.ErrInvalidInput)
	}
	e, err := h.uc.ReverseEntry(c.UserContext(), tenantID, userID, c.Params("id"), date)
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.FromJournalEntry(*e))
}

// BySource godoc
// @Summary      Asientos generados por un documento origen
// @Tags         journal
// @Security     Bearer
// @Produce      json
// @Param        source_type  query  string  true  "tipo de documento"
// @Param        source_id    query  string  true  "ID del documento"
// @Success      200  {array}  dto.JournalEntryResponse
// @Router       /api/journal/entries [get]
func (h *JournalHandler) BySource(c *fiber.Ctx) error {
	tenantID, _, ok, err := tenantOrAbort(c)
	if !ok {
		return err
	}
	sourceType, sourceID := c.Query("source_type"), c.Query("source_id")
	if sourceType == "" || sourceID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "source_type y source_id son obligatorios"})
	}
	entries, err := h.uc.EntriesBySource(c.UserContext(), tenantID, sourceType, sourceID)
	if err != nil {
		return writeError(c, err)
	}
	out := make([]dto.JournalEntryResponse, 0, len(entries))
	for _, e := range entries {
		out = append(out, dto.FromJournalEntry(e))
	}
	return c.JSON(out)
}

// OpenPeriod godoc
// @Summary      Abrir periodo contable
// @Tags         journal
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.OpenPeriodRequest  true  "rango de fechas"
// @Success      201   {object}  dto.PeriodResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/journal/periods [post]
func (h *JournalHandler) OpenPeriod(c *fiber.Ctx) error {
	tenantID, _, ok, err := tenantOrAbort(c)
	if !ok {
		return err
	}
	var in dto.OpenPeriodRequest
	if ok, err := bindBody(c, &in); !ok {
		return err
	}
	start, err1 := dto.ParseDate(in.StartDate)
	end, err2 := dto.ParseDate(in.EndDate)
	if err1 != nil || err2 != nil {
		return writeError(c, domain.ErrInvalidInput)
	}
	p, err := h.uc.OpenPeriod(c.UserContext(), tenantID, start, end)
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.FromPeriod(*p))
}

// SetPeriodStatus godoc
// @Summary      Cerrar, reabrir o bloquear un periodo
// @Tags         journal
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string                   true  "ID del periodo"
// @Param        body  body  dto.PeriodStatusRequest  true  "nuevo estado"
// @Success      200   {object}  dto.PeriodResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/journal/periods/{id} [patch]
func (h *JournalHandler) SetPeriodStatus(c *fiber.Ctx) error {
	tenantID, _, ok, err := tenantOrAbort(c)
	if !ok {
		return err
	}
	var in dto.PeriodStatusRequest
	if ok, err := bindBody(c, &in); !ok {
		return err
	}
	p, err := h.uc.SetPeriodStatus(c.UserContext(), tenantID, c.Params("id"), in.Status)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(dto.FromPeriod(*p))
}
