package http

import (
	"context"
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/ventas-api/internal/application/dto"
	"github.com/jhoicas/ventas-api/internal/domain"
)

// Códigos de error de la API.
const (
	CodeEmptyCart         = "EMPTY_CART"
	CodeInvalidQuantity   = "INVALID_QUANTITY"
	CodeUnknownProduct    = "UNKNOWN_PRODUCT"
	CodeUnknownClient     = "UNKNOWN_CLIENT"
	CodeInsufficientStock = "INSUFFICIENT_STOCK"
	CodeValidation        = "VALIDATION"
	CodeNotFound          = "NOT_FOUND"
	CodeDuplicate         = "DUPLICATE"
	CodeConflict          = "CONFLICT"
	CodeUnavailable       = "UNAVAILABLE"
	CodeInternal          = "INTERNAL"
)

// apiError error ya resuelto a status y cuerpo.
type apiError struct {
	status int
	body   dto.ErrorResponse
}

// toAPIError traduce errores de dominio, de validación y de contexto a la respuesta HTTP.
func toAPIError(err error) apiError {
	var saleErr *domain.SaleError
	if errors.As(err, &saleErr) {
		return saleAPIError(saleErr)
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		details := make([]dto.ErrorDetail, 0, len(verrs))
		for _, fe := range verrs {
			details = append(details, dto.ErrorDetail{Field: fe.Field(), Constraint: fe.Tag()})
		}
		return apiError{fiber.StatusBadRequest, dto.ErrorResponse{Code: CodeValidation, Message: "datos inválidos", Details: details}}
	}
	var fe *fiber.Error
	if errors.As(err, &fe) {
		code := CodeInternal
		switch {
		case fe.Code == fiber.StatusNotFound:
			code = CodeNotFound
		case fe.Code < fiber.StatusInternalServerError:
			code = CodeValidation
		}
		return apiError{fe.Code, dto.ErrorResponse{Code: code, Message: fe.Message}}
	}

	switch {
	case errors.Is(err, domain.ErrNotFound):
		return apiError{fiber.StatusNotFound, dto.ErrorResponse{Code: CodeNotFound, Message: "recurso no encontrado"}}
	case errors.Is(err, domain.ErrInvalidInput):
		return apiError{fiber.StatusBadRequest, dto.ErrorResponse{Code: CodeValidation, Message: err.Error()}}
	case errors.Is(err, domain.ErrDuplicate):
		return apiError{fiber.StatusConflict, dto.ErrorResponse{Code: CodeDuplicate, Message: "el recurso ya existe"}}
	case errors.Is(err, domain.ErrConflict):
		return apiError{fiber.StatusConflict, dto.ErrorResponse{Code: CodeConflict, Message: "el recurso está en uso"}}
	case errors.Is(err, domain.ErrUnavailable), errors.Is(err, domain.ErrTransient),
		errors.Is(err, context.DeadlineExceeded):
		return apiError{fiber.StatusServiceUnavailable, dto.ErrorResponse{Code: CodeUnavailable, Message: "servicio no disponible, reintente"}}
	}
	return apiError{fiber.StatusInternalServerError, dto.ErrorResponse{Code: CodeInternal, Message: "error interno"}}
}

func saleAPIError(e *domain.SaleError) apiError {
	switch e.Kind {
	case domain.KindEmptyCart:
		return apiError{fiber.StatusBadRequest, dto.ErrorResponse{Code: CodeEmptyCart, Message: e.Error()}}
	case domain.KindInvalidQuantity:
		return apiError{fiber.StatusBadRequest, dto.ErrorResponse{Code: CodeInvalidQuantity, Message: e.Error(), Details: lineDetails(e.Lines)}}
	case domain.KindUnknownProduct:
		return apiError{fiber.StatusNotFound, dto.ErrorResponse{Code: CodeUnknownProduct, Message: e.Error(), Details: lineDetails(e.Lines)}}
	case domain.KindUnknownClient:
		return apiError{fiber.StatusNotFound, dto.ErrorResponse{
			Code:    CodeUnknownClient,
			Message: e.Error(),
			Details: []dto.ErrorDetail{{ClientID: e.ClientID}},
		}}
	case domain.KindInsufficientStock:
		details := make([]dto.ErrorDetail, 0, len(e.Shortages))
		for _, s := range e.Shortages {
			available := s.Available
			details = append(details, dto.ErrorDetail{ProductID: s.ProductID, Requested: s.Requested, Available: &available})
		}
		return apiError{fiber.StatusConflict, dto.ErrorResponse{Code: CodeInsufficientStock, Message: e.Error(), Details: details}}
	}
	return apiError{fiber.StatusInternalServerError, dto.ErrorResponse{Code: CodeInternal, Message: "error interno"}}
}

func lineDetails(lines []domain.LineProblem) []dto.ErrorDetail {
	details := make([]dto.ErrorDetail, 0, len(lines))
	for _, l := range lines {
		d := dto.ErrorDetail{ProductID: l.ProductID, Quantity: l.Quantity}
		if l.Line >= 0 {
			line := l.Line
			d.Line = &line
		}
		details = append(details, d)
	}
	return details
}

// ErrorHandler manejador de errores de fiber: todo error que devuelve un handler termina aquí.
func ErrorHandler(c *fiber.Ctx, err error) error {
	e := toAPIError(err)
	if e.status >= fiber.StatusInternalServerError {
		c.Locals(localErr, err)
	}
	return c.Status(e.status).JSON(e.body)
}
