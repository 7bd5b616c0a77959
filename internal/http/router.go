package http

import (
	"time"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/redis/go-redis/v9"
	"github.com/streamcanvas/backend/internal/config"
	"github.com/streamcanvas/backend/internal/http/handlers"
	"github.com/streamcanvas/backend/internal/middleware"
	"go.uber.org/zap"
)

func SetupRouter(
	app *fiber.App,
	cfg *config.Config,
	log *zap.Logger,
	rdb *redis.Client,
	escrowHandler *handlers.EscrowHandler,
	earningsHandler *handlers.EarningsHandler,
	sessionHandler *handlers.SessionHandler,
	settlementHandler *handlers.SettlementHandler,
	auditHandler *handlers.AuditHandler,
	wsHub *handlers.WSHub,
) {
	app.Use(recover.New())
	app.Use(cors.New())
	app.Use(middleware.RequestIDMiddleware())
	app.Use(middleware.LoggerMiddleware(log))

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	api := app.Group("/api/v1")
	api.Use(middleware.RateLimitMiddleware(rdb, 100, time.Minute))

	protected := api.Group("", middleware.AuthMiddleware(cfg, log))

	escrows := protected.Group("/escrows")
	escrows.Post("/purchase", escrowHandler.Purchase)
	escrows.Post("/use-token", escrowHandler.UseToken)
	escrows.Post("/refund", escrowHandler.Refund)
	escrows.Get("/active", escrowHandler.GetActive)

	earnings := protected.Group("/earnings")
	earnings.Get("/summary", earningsHandler.Summary)
	earnings.Post("/claim", earningsHandler.Claim)

	sessions := protected.Group("/sessions")
	sessions.Post("/", sessionHandler.Create)
	sessions.Get("/:id", sessionHandler.Get)
	sessions.Post("/:id/end", sessionHandler.End)

	admin := protected.Group("/admin", middleware.AdminMiddleware())
	admin.Post("/settlements/process", settlementHandler.ProcessNow)
	admin.Get("/settlements/pending", settlementHandler.Pending)
	admin.Get("/audit", auditHandler.List)

	app.Use("/ws", handlers.WSUpgradeMiddleware())
	app.Get("/ws", websocket.New(wsHub.HandleWS))
}
