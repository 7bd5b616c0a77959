package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/streamcanvas/backend/internal/http/dto"
	"github.com/streamcanvas/backend/internal/repositories"
	"go.uber.org/zap"
)

type AuditHandler struct {
	auditRepo *repositories.AuditRepo
	log       *zap.Logger
}

func NewAuditHandler(auditRepo *repositories.AuditRepo, log *zap.Logger) *AuditHandler {
	return &AuditHandler{auditRepo: auditRepo, log: log}
}

// List returns the audit trail for one entity, newest first.
// GET /admin/audit?entity_type=escrow&entity_id=...
func (h *AuditHandler) List(c *fiber.Ctx) error {
	entityType := c.Query("entity_type")
	if entityType == "" {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "entity_type is required"})
	}
	entityID, err := uuid.Parse(c.Query("entity_id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "invalid entity_id"})
	}

	limit := c.QueryInt("limit", 50)
	if limit < 1 || limit > 200 {
		limit = 50
	}
	offset := c.QueryInt("offset", 0)
	if offset < 0 {
		offset = 0
	}

	entries, err := h.auditRepo.GetByEntity(c.Context(), entityType, entityID, limit, offset)
	if err != nil {
		h.log.Error("audit lookup failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Error: "audit lookup failed"})
	}
	return c.JSON(dto.SuccessResponse{OK: true, Data: entries})
}
