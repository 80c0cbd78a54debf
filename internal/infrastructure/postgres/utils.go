package postgres

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/jhoicas/ventas-api/internal/domain"
)

// Códigos SQLSTATE usados por los adaptadores.
const (
	codeUniqueViolation      = "23505"
	codeForeignKeyViolation  = "23503"
	codeCheckViolation       = "23514"
	codeNumericOverflow      = "22003"
	codeSerializationFailure = "40001"
	codeDeadlockDetected     = "40P01"
	codeAdminShutdown        = "57P01"
	codeCannotConnectNow     = "57P03"
	codeTooManyConnections   = "53300"
)

func pgCode(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}
	return ""
}

// isUniqueViolation verifica si un error es una violación de constraint único (23505).
func isUniqueViolation(err error) bool {
	return pgCode(err) == codeUniqueViolation
}

// isForeignKeyViolation verifica si un error es una violación de llave foránea (23503).
func isForeignKeyViolation(err error) bool {
	return pgCode(err) == codeForeignKeyViolation
}

// isCheckViolation verifica si un error es una violación de CHECK (23514), p. ej. stock >= 0.
func isCheckViolation(err error) bool {
	return pgCode(err) == codeCheckViolation
}

// isNumericOverflow verifica si un valor no cabe en la columna numérica (22003).
func isNumericOverflow(err error) bool {
	return pgCode(err) == codeNumericOverflow
}

// isTransient indica si el error proviene de conectividad o de un conflicto de serialización,
// casos en que repetir la transacción completa es seguro. La cancelación del llamador no es transitoria.
func isTransient(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	if code := pgCode(err); code != "" {
		switch code {
		case codeSerializationFailure, codeDeadlockDetected, codeAdminShutdown, codeCannotConnectNow, codeTooManyConnections:
			return true
		}
		return strings.HasPrefix(code, "08") // connection_exception
	}
	if pgconn.SafeToRetry(err) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr)
}

// markTransient etiqueta con domain.ErrTransient los errores reintentables.
func markTransient(err error) error {
	if isTransient(err) {
		return fmt.Errorf("%w: %w", domain.ErrTransient, err)
	}
	return err
}

func nullIfEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
