package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/streamcanvas/backend/internal/http/dto"
	"github.com/streamcanvas/backend/internal/middleware"
	"github.com/streamcanvas/backend/internal/models"
	"github.com/streamcanvas/backend/internal/repositories"
	"go.uber.org/zap"
)

// SessionHandler exposes the minimal session surface the settlement
// engine needs: the destination-wallet record and its earnings mirror.
// Canvas state and synchronization live in a separate service.
type SessionHandler struct {
	sessionRepo *repositories.SessionRepo
	log         *zap.Logger
}

func NewSessionHandler(sessionRepo *repositories.SessionRepo, log *zap.Logger) *SessionHandler {
	return &SessionHandler{sessionRepo: sessionRepo, log: log}
}

// Create registers a session with its payout wallet.
// POST /sessions
func (h *SessionHandler) Create(c *fiber.Ctx) error {
	var req dto.CreateSessionRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "invalid request body"})
	}
	if req.StreamerWallet == "" {
		req.StreamerWallet = middleware.GetWallet(c)
	}
	if req.StreamerWallet == "" {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "streamer_wallet is required"})
	}

	session := &models.Session{
		StreamerUserID: middleware.GetUserID(c),
		StreamerWallet: req.StreamerWallet,
		Title:          req.Title,
		Status:         models.SessionStatusLive,
	}
	if err := h.sessionRepo.Create(c.Context(), session); err != nil {
		h.log.Error("session create failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Error: "session create failed"})
	}

	return c.Status(fiber.StatusCreated).JSON(dto.SuccessResponse{OK: true, Data: session})
}

// End marks a session ended. Only the owning streamer may end it;
// escrows and pending settlements are unaffected and drain normally.
// POST /sessions/:id/end
func (h *SessionHandler) End(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "invalid session id"})
	}

	session, err := h.sessionRepo.GetByID(c.Context(), id)
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Error: "session not found"})
	}
	if session.StreamerUserID != middleware.GetUserID(c) {
		return c.Status(fiber.StatusForbidden).JSON(dto.ErrorResponse{Error: "not the session owner"})
	}

	if err := h.sessionRepo.UpdateStatus(c.Context(), id, models.SessionStatusEnded); err != nil {
		h.log.Error("session end failed", zap.String("session_id", id.String()), zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Error: "session end failed"})
	}

	return c.JSON(dto.SuccessResponse{OK: true})
}

// Get returns a session with its earnings mirror.
// GET /sessions/:id
func (h *SessionHandler) Get(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "invalid session id"})
	}

	session, err := h.sessionRepo.GetByID(c.Context(), id)
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Error: "session not found"})
	}
	return c.JSON(dto.SuccessResponse{OK: true, Data: session})
}
