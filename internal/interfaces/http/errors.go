package http

import (
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/inventario-ledger/internal/application/dto"
	"github.com/jhoicas/inventario-ledger/internal/domain"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// bindBody parsea y valida el body. Devuelve false si ya escribió la respuesta de error.
func bindBody(c *fiber.Ctx, out any) (bool, error) {
	if err := c.BodyParser(out); err != nil {
		return false, c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	if err := validate.Struct(out); err != nil {
		return false, c.Status(fiber.StatusBadRequest).JSON(validationResponse(err))
	}
	return true, nil
}

func validationResponse(err error) dto.ErrorResponse {
	fields := map[string]any{}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		for _, e := range verrs {
			fields[e.Namespace()] = e.Tag()
		}
	}
	return dto.ErrorResponse{Code: "VALIDATION", Message: "datos inválidos", Details: fields}
}

// tenantOrAbort devuelve tenant y usuario del token; false si ya respondió 401.
func tenantOrAbort(c *fiber.Ctx) (string, string, bool, error) {
	tenantID, userID := GetTenantID(c), GetUserID(c)
	if tenantID == "" || userID == "" {
		return "", "", false, c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "UNAUTHORIZED", Message: "token inválido"})
	}
	return tenantID, userID, true, nil
}

// writeError traduce errores de dominio a HTTP con su contexto numérico en Details.
func writeError(c *fiber.Ctx, err error) error {
	status, body := errorResponse(err)
	return c.Status(status).JSON(body)
}

func errorResponse(err error) (int, dto.ErrorResponse) {
	var (
		lockErr      *domain.LockContentionError
		stockErr     *domain.InsufficientStockError
		movementErr  *domain.InvalidMovementError
		unbalanced   *domain.UnbalancedEntryError
		closedPeriod *domain.ClosedPeriodError
		duplicate    *domain.DuplicateAllocationError
		creditErr    *domain.CreditExceededError
	)
	switch {
	case errors.As(err, &lockErr):
		return fiber.StatusConflict, dto.ErrorResponse{Code: "LOCK_CONTENTION", Message: lockErr.Error(), Details: map[string]any{
			"resource": lockErr.Resource, "id": lockErr.ID, "retryable": true,
		}}
	case errors.As(err, &stockErr):
		return fiber.StatusConflict, dto.ErrorResponse{Code: "INSUFFICIENT_STOCK", Message: stockErr.Error(), Details: map[string]any{
			"product_id": stockErr.ProductID, "requested": stockErr.Requested, "best_available": stockErr.BestAvailable,
		}}
	case errors.As(err, &movementErr):
		return fiber.StatusUnprocessableEntity, dto.ErrorResponse{Code: "INVALID_MOVEMENT", Message: movementErr.Error(), Details: map[string]any{
			"type": movementErr.Type, "reason": movementErr.Reason, "available": movementErr.Available, "requested": movementErr.Requested,
		}}
	case errors.As(err, &unbalanced):
		return fiber.StatusUnprocessableEntity, dto.ErrorResponse{Code: "UNBALANCED_ENTRY", Message: unbalanced.Error(), Details: map[string]any{
			"total_debit": unbalanced.TotalDebit, "total_credit": unbalanced.TotalCredit,
			"difference": unbalanced.Difference(), "tolerance": unbalanced.Tolerance,
		}}
	case errors.As(err, &closedPeriod):
		return fiber.StatusConflict, dto.ErrorResponse{Code: "CLOSED_PERIOD", Message: closedPeriod.Error(), Details: map[string]any{
			"period_id": closedPeriod.PeriodID, "status": closedPeriod.Status, "entry_date": closedPeriod.EntryDate.Format(dto.DateLayout),
		}}
	case errors.As(err, &duplicate):
		return fiber.StatusConflict, dto.ErrorResponse{Code: "DUPLICATE_ALLOCATION", Message: duplicate.Error(), Details: map[string]any{
			"existing_id": duplicate.ExistingID, "reference": duplicate.Reference,
		}}
	case errors.As(err, &creditErr):
		return fiber.StatusConflict, dto.ErrorResponse{Code: "CREDIT_EXCEEDED", Message: creditErr.Error(), Details: map[string]any{
			"party_id": creditErr.PartyID, "exposure": creditErr.Exposure, "credit_limit": creditErr.CreditLimit,
		}}
	case errors.Is(err, domain.ErrNotFound):
		return fiber.StatusNotFound, dto.ErrorResponse{Code: "NOT_FOUND", Message: err.Error()}
	case errors.Is(err, domain.ErrInvalidInput):
		return fiber.StatusBadRequest, dto.ErrorResponse{Code: "VALIDATION", Message: err.Error()}
	case errors.Is(err, domain.ErrForbidden):
		return fiber.StatusForbidden, dto.ErrorResponse{Code: "FORBIDDEN", Message: "acceso denegado al recurso"}
	case errors.Is(err, domain.ErrImmutable):
		return fiber.StatusConflict, dto.ErrorResponse{Code: "IMMUTABLE", Message: err.Error()}
	case errors.Is(err, domain.ErrConflict):
		return fiber.StatusConflict, dto.ErrorResponse{Code: "CONFLICT", Message: err.Error()}
	default:
		return fiber.StatusInternalServerError, dto.ErrorResponse{Code: "INTERNAL", Message: "error interno"}
	}
}
