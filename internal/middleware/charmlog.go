package middleware

import (
	"time"

	"github.com/charmbracelet/log"
	"github.com/labstack/echo/v4"
)

// CharmLog logs every control exchange at debug level, and failed ones
// at warn level.
func CharmLog() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)
			if err != nil {
				c.Error(err)
			}

			req := c.Request()
			res := c.Response()
			id := req.Header.Get(echo.HeaderXRequestID)
			if id == "" {
				id = res.Header().Get(echo.HeaderXRequestID)
			}

			fields := []any{
				"method", req.Method,
				"path", req.URL.Path,
				"status", res.Status,
				"bytes_in", req.ContentLength,
				"latency", time.Since(start),
				"id", id,
			}
			if res.Status >= 400 {
				log.Warn("control request failed", fields...)
			} else {
				log.Debug("control request", fields...)
			}
			return nil
		}
	}
}
