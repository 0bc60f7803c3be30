package httpapi

import (
	"context"
	"log"
	"time"

	"github.com/gofiber/fiber/v2"
)

const healthPingTimeout = 2 * time.Second

// Pinger reports whether a backing store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// RegisterHealth adds GET /health. It answers 503 while the store is unreachable.
func RegisterHealth(app *fiber.App, service, driver string, store Pinger) {
	app.Get("/health", func(c *fiber.Ctx) error {
		ctx, cancel := context.WithTimeout(c.UserContext(), healthPingTimeout)
		defer cancel()

		status, code := "ok", fiber.StatusOK
		if err := store.Ping(ctx); err != nil {
			log.Printf("ERROR: health: store ping failed: %v", err)
			status, code = "degraded", fiber.StatusServiceUnavailable
		}
		return c.Status(code).JSON(fiber.Map{
			"status":  status,
			"service": service,
			"store":   driver,
		})
	})
}
