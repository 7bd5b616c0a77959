package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/streamcanvas/backend/internal/auth"
	"github.com/streamcanvas/backend/internal/config"
	"go.uber.org/zap"
)

const (
	CtxUserID = "user_id"
	CtxWallet = "wallet"
	CtxAdmin  = "admin"
)

func AuthMiddleware(cfg *config.Config, log *zap.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get("Authorization")
		if authHeader == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "missing authorization header"})
		}

		tokenStr := strings.TrimPrefix(authHeader, "Bearer ")
		if tokenStr == authHeader {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "invalid authorization format"})
		}

		claims, err := auth.ParseJWT(cfg.JWTSecret, tokenStr)
		if err != nil {
			log.Debug("jwt parse error", zap.Error(err))
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "invalid or expired token"})
		}

		c.Locals(CtxUserID, claims.UserID)
		c.Locals(CtxWallet, claims.Wallet)
		c.Locals(CtxAdmin, claims.Admin)

		return c.Next()
	}
}

func GetUserID(c *fiber.Ctx) uuid.UUID {
	id, _ := c.Locals(CtxUserID).(uuid.UUID)
	return id
}

func GetWallet(c *fiber.Ctx) string {
	w, _ := c.Locals(CtxWallet).(string)
	return w
}

// AdminMiddleware gates operator endpoints (manual settlement runs).
func AdminMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if admin, _ := c.Locals(CtxAdmin).(bool); !admin {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "admin access required"})
		}
		return c.Next()
	}
}
