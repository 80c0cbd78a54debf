package domain

import "errors"

// Errores de dominio (sin dependencias externas).
var (
	ErrNotFound     = errors.New("recurso no encontrado")
	ErrInvalidInput = errors.New("entrada inválida")
	ErrDuplicate    = errors.New("recurso duplicado")
	ErrConflict     = errors.New("conflicto con el estado actual")

	// Errores del motor de ventas. Recuperables: el cliente corrige el carrito y reintenta.
	ErrEmptyCart         = errors.New("el carrito está vacío")
	ErrInvalidQuantity   = errors.New("cantidad inválida")
	ErrUnknownProduct    = errors.New("producto desconocido")
	ErrUnknownClient     = errors.New("cliente desconocido")
	ErrInsufficientStock = errors.New("stock insuficiente")

	// ErrTransient marca fallas de conectividad o de serialización del almacén que admiten reintento.
	ErrTransient = errors.New("falla transitoria del almacén")
	// ErrUnavailable se devuelve cuando se agotó el presupuesto de reintentos.
	ErrUnavailable = errors.New("servicio no disponible")
)
