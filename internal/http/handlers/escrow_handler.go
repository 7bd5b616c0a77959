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

type EscrowHandler struct {
	escrowService *services.EscrowService
	log           *zap.Logger
}

func NewEscrowHandler(escrowService *services.EscrowService, log *zap.Logger) *EscrowHandler {
	return &EscrowHandler{escrowService: escrowService, log: log}
}

// Purchase opens an escrow for a token pack.
// POST /escrows/purchase
func (h *EscrowHandler) Purchase(c *fiber.Ctx) error {
	var req dto.PurchaseRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "invalid request body"})
	}

	sessionID, err := uuid.Parse(req.SessionID)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "invalid session_id"})
	}
	if !models.IsValidPurchaseType(req.PurchaseType) {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "unknown purchase_type"})
	}

	escrow, err := h.escrowService.Purchase(c.Context(), services.PurchaseParams{
		SessionID:    sessionID,
		UserWallet:   middleware.GetWallet(c),
		PurchaseType: req.PurchaseType,
		Tokens:       req.Tokens,
		AmountPaid:   req.AmountPaid,
	})
	if err != nil {
		h.log.Error("purchase failed", zap.Error(err))
		// No escrow means no tokens were granted.
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Error: "purchase failed"})
	}

	return c.Status(fiber.StatusCreated).JSON(dto.SuccessResponse{OK: true, Data: escrow})
}

// UseToken spends one token from an escrow.
// POST /escrows/use-token
func (h *EscrowHandler) UseToken(c *fiber.Ctx) error {
	var req dto.UseTokenRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "invalid request body"})
	}

	escrowID, err := uuid.Parse(req.EscrowID)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "invalid escrow_id"})
	}
	if req.TokenType == "" {
		req.TokenType = "paint"
	}

	spend, err := h.escrowService.UseToken(c.Context(), escrowID, req.TokenType)
	if errors.Is(err, models.ErrNoTokensAvailable) {
		return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{Error: "no tokens available"})
	}
	if err != nil {
		h.log.Error("token use failed", zap.String("escrow_id", req.EscrowID), zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Error: "token use failed"})
	}

	return c.JSON(dto.SuccessResponse{OK: true, Data: spend})
}

// Refund closes the caller's active escrow in a session and reports the
// amount owed back. A zero amount is a legitimate outcome.
// POST /escrows/refund
func (h *EscrowHandler) Refund(c *fiber.Ctx) error {
	var req dto.RefundRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "invalid request body"})
	}

	sessionID, err := uuid.Parse(req.SessionID)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "invalid session_id"})
	}

	amount, err := h.escrowService.Refund(c.Context(), sessionID, middleware.GetWallet(c))
	if err != nil {
		h.log.Error("refund failed", zap.String("session_id", req.SessionID), zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Error: "refund failed"})
	}

	return c.JSON(dto.SuccessResponse{OK: true, Data: dto.RefundResponse{RefundAmount: amount}})
}

// GetActive returns the caller's open escrow in a session, if any.
// GET /escrows/active?session_id=...
func (h *EscrowHandler) GetActive(c *fiber.Ctx) error {
	sessionID, err := uuid.Parse(c.Query("session_id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "invalid session_id"})
	}

	escrow, err := h.escrowService.GetActiveEscrow(c.Context(), sessionID, middleware.GetWallet(c))
	if err != nil {
		h.log.Error("active escrow lookup failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Error: "lookup failed"})
	}

	return c.JSON(dto.SuccessResponse{OK: true, Data: escrow})
}
