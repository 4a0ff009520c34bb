package middleware

import (
	"time"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
)

// RequestLogger logs one structured line per request after it has
// been served. Failures (status >= 400) are logged at error level so
// they stand out in aggregated logs.
func RequestLogger(log *logrus.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()

			err := next(c)
			if err != nil {
				c.Error(err)
			}

			duration := time.Since(start)
			entry := log.WithFields(logrus.Fields{
				"method":    c.Request().Method,
				"path":      c.Request().URL.Path,
				"status":    c.Response().Status,
				"duration":  duration,
				"client_ip": c.RealIP(),
			})

			if c.Response().Status >= 400 {
				entry.Error("request failed")
			} else {
				entry.Info("request processed")
			}
			return nil
		}
	}
}
