package handlers

import (
	"crypto/subtle"

	"github.com/gofiber/fiber/v2"

	"github.com/vegcafe/cafe-voice-backend/internal/config"
	"github.com/vegcafe/cafe-voice-backend/internal/utils"
)

// StaffHandler issues tokens for the kitchen dashboard
type StaffHandler struct {
	cfg *config.Config
}

// NewStaffHandler creates the staff auth handler
func NewStaffHandler(cfg *config.Config) *StaffHandler {
	return &StaffHandler{cfg: cfg}
}

type staffLoginRequest struct {
	AccessCode string `json:"access_code"`
}

// Login exchanges the shared kitchen access code for a JWT
func (h *StaffHandler) Login(c *fiber.Ctx) error {
	var req staffLoginRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	if h.cfg.StaffAccessCode == "" || h.cfg.JWTSecret == "" {
		return fiber.NewError(fiber.StatusServiceUnavailable, "staff login not configured")
	}
	if subtle.ConstantTimeCompare([]byte(req.AccessCode), []byte(h.cfg.StaffAccessCode)) != 1 {
		return fiber.NewError(fiber.StatusUnauthorized, "invalid access code")
	}

	token, err := utils.GenerateStaffToken(h.cfg.JWTSecret, h.cfg.TokenExpires)
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "could not issue token")
	}

	return c.JSON(fiber.Map{
		"token":      token,
		"expires_in": int(h.cfg.TokenExpires.Seconds()),
	})
}
