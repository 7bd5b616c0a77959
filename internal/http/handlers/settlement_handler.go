package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/streamcanvas/backend/internal/http/dto"
	"github.com/streamcanvas/backend/internal/repositories"
	"github.com/streamcanvas/backend/internal/services"
	"go.uber.org/zap"
)

type SettlementHandler struct {
	processor   *services.BatchProcessor
	releaseRepo *repositories.ReleaseRepo
	log         *zap.Logger
}

func NewSettlementHandler(processor *services.BatchProcessor, releaseRepo *repositories.ReleaseRepo, log *zap.Logger) *SettlementHandler {
	return &SettlementHandler{processor: processor, releaseRepo: releaseRepo, log: log}
}

// ProcessNow triggers one settlement run. Shares the single-flight
// guard with the ticker; a run already in progress reports skipped.
// POST /admin/settlements/process
func (h *SettlementHandler) ProcessNow(c *fiber.Ctx) error {
	report := h.processor.ProcessNow(c.Context())
	status := fiber.StatusOK
	if report.Skipped {
		status = fiber.StatusConflict
	}
	return c.Status(status).JSON(dto.SuccessResponse{OK: !report.Skipped, Data: report})
}

// Pending reports the settlement queue depth.
// GET /admin/settlements/pending
func (h *SettlementHandler) Pending(c *fiber.Ctx) error {
	n, err := h.releaseRepo.CountPending(c.Context())
	if err != nil {
		h.log.Error("pending count failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Error: "queue lookup failed"})
	}
	return c.JSON(dto.SuccessResponse{OK: true, Data: dto.PendingQueueResponse{PendingCount: n}})
}
