package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/streamcanvas/backend/internal/http/dto"
	"github.com/streamcanvas/backend/internal/middleware"
	"github.com/streamcanvas/backend/internal/models"
	"github.com/streamcanvas/backend/internal/services"
	"go.uber.org/zap"
)

type EarningsHandler struct {
	earningsService *services.EarningsService
	log             *zap.Logger
}

func NewEarningsHandler(earningsService *services.EarningsService, log *zap.Logger) *EarningsHandler {
	return &EarningsHandler{earningsService: earningsService, log: log}
}

// Summary aggregates the caller's earnings across sessions.
// GET /earnings/summary
func (h *EarningsHandler) Summary(c *fiber.Ctx) error {
	summary, err := h.earningsService.Summary(c.Context(), middleware.GetWallet(c))
	if err != nil {
		h.log.Error("earnings summary failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Error: "summary failed"})
	}
	return c.JSON(dto.SuccessResponse{OK: true, Data: summary})
}

// Claim settles the caller's pending earnings to their wallet.
// POST /earnings/claim
func (h *EarningsHandler) Claim(c *fiber.Ctx) error {
	var req dto.ClaimRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "invalid request body"})
		}
	}

	var sessionIDs []uuid.UUID
	for _, raw := range req.SessionIDs {
		id, err := uuid.Parse(raw)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "invalid session id: " + raw})
		}
		sessionIDs = append(sessionIDs, id)
	}

	result, err := h.earningsService.Claim(c.Context(), middleware.GetWallet(c), sessionIDs)
	if errors.Is(err, models.ErrNothingToClaim) {
		return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{Error: "nothing to claim"})
	}
	if err != nil {
		h.log.Error("claim failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Error: "claim failed"})
	}

	return c.JSON(dto.SuccessResponse{OK: true, Data: result})
}
