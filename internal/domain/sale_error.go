package domain

import (
	"fmt"
	"strings"
)

// SaleErrorKind identifica la causa de rechazo de una venta.
type SaleErrorKind string

const (
	KindEmptyCart         SaleErrorKind = "EmptyCart"
	KindInvalidQuantity   SaleErrorKind = "InvalidQuantity"
	KindUnknownProduct    SaleErrorKind = "UnknownProduct"
	KindUnknownClient     SaleErrorKind = "UnknownClient"
	KindInsufficientStock SaleErrorKind = "InsufficientStock"
)

// LineProblem señala la línea del carrito que provocó el rechazo.
// Line es el índice (base 0) dentro del carrito; -1 cuando el problema no es de una línea concreta.
type LineProblem struct {
	Line      int
	ProductID int64
	Quantity  int64
}

// Shortage describe un producto sin stock suficiente.
type Shortage struct {
	ProductID int64
	Requested int64
	Available int64
}

// SaleError error estructurado del motor de ventas. Unwrap devuelve el sentinel correspondiente,
// por lo que errors.Is(err, ErrInsufficientStock) funciona sobre él.
type SaleError struct {
	Kind      SaleErrorKind
	ClientID  int64
	Lines     []LineProblem
	Shortages []Shortage
}

func (e *SaleError) Error() string {
	switch e.Kind {
	case KindEmptyCart:
		return ErrEmptyCart.Error()
	case KindInvalidQuantity:
		return fmt.Sprintf("%s: %s", ErrInvalidQuantity, e.describeLines())
	case KindUnknownProduct:
		return fmt.Sprintf("%s: %s", ErrUnknownProduct, e.describeLines())
	case KindUnknownClient:
		return fmt.Sprintf("%s: %d", ErrUnknownClient, e.ClientID)
	case KindInsufficientStock:
		parts := make([]string, 0, len(e.Shortages))
		for _, s := range e.Shortages {
			parts = append(parts, fmt.Sprintf("producto %d (solicitado %d, disponible %d)", s.ProductID, s.Requested, s.Available))
		}
		return fmt.Sprintf("%s: %s", ErrInsufficientStock, strings.Join(parts, ", "))
	}
	return string(e.Kind)
}

func (e *SaleError) describeLines() string {
	parts := make([]string, 0, len(e.Lines))
	for _, l := range e.Lines {
		parts = append(parts, fmt.Sprintf("línea %d producto %d cantidad %d", l.Line, l.ProductID, l.Quantity))
	}
	return strings.Join(parts, ", ")
}

// Unwrap permite comparar con los sentinels del dominio.
func (e *SaleError) Unwrap() error {
	switch e.Kind {
	case KindEmptyCart:
		return ErrEmptyCart
	case KindInvalidQuantity:
		return ErrInvalidQuantity
	case KindUnknownProduct:
		return ErrUnknownProduct
	case KindUnknownClient:
		return ErrUnknownClient
	case KindInsufficientStock:
		return ErrInsufficientStock
	}
	return nil
}

// NewInsufficientStock construye el error del libro de stock.
func NewInsufficientStock(shortages ...Shortage) *SaleError {
	return &SaleError{Kind: KindInsufficientStock, Shortages: shortages}
}
