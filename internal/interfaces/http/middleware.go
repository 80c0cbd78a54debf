package http

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/requestid"

	"github.com/jhoicas/ventas-api/pkg/logger"
	"github.com/jhoicas/ventas-api/pkg/metrics"
)

const localErr = "error"

// RequestLogger registra cada petición y alimenta las métricas HTTP.
// Debe montarse después de requestid para incluir el id de la petición.
func RequestLogger(log *logger.Logger, m *metrics.Metrics) fiber.Handler {
	log = log.Component("http")
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()
		if err != nil {
			if herr := c.App().ErrorHandler(c, err); herr != nil {
				_ = c.SendStatus(fiber.StatusInternalServerError)
			}
		}
		elapsed := time.Since(start)
		status := c.Response().StatusCode()
		route := c.Route().Path

		if m != nil {
			m.Requests.WithLabelValues(route, c.Method(), strconv.Itoa(status)).Inc()
			m.LatencyMS.WithLabelValues(route).Observe(float64(elapsed.Microseconds()) / 1000)
		}

		ev := log.Info()
		if status >= fiber.StatusInternalServerError {
			ev = log.Error()
			if cause, ok := c.Locals(localErr).(error); ok {
				ev = ev.Err(cause)
			}
		}
		ev.Str("request_id", requestID(c)).
			Str("method", c.Method()).
			Str("path", c.Path()).
			Int("status", status).
			Dur("latencia", elapsed).
			Msg("petición")
		return nil
	}
}

func requestID(c *fiber.Ctx) string {
	if v, ok := c.Locals(requestid.ConfigDefault.ContextKey).(string); ok {
		return v
	}
	return ""
}
