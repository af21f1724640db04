package handlers

import (
	"errors"
	"fmt"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/yeray-yas/ChatApp-sub003/internal/httpx"
	"github.com/yeray-yas/ChatApp-sub003/internal/models"
	"github.com/yeray-yas/ChatApp-sub003/internal/repository"
	"github.com/yeray-yas/ChatApp-sub003/internal/service"
	"github.com/yeray-yas/ChatApp-sub003/internal/validation"
)

type ProfileHandler struct {
	chatService *service.ChatService
}

func NewProfileHandler(chatService *service.ChatService) *ProfileHandler {
	return &ProfileHandler{chatService: chatService}
}

type PutProfileRequest struct {
	DisplayName string `json:"display_name"`
	AvatarURL   string `json:"avatar_url"`
}

// PutProfile upserts the caller's profile record.
func (h *ProfileHandler) PutProfile(c *fiber.Ctx) error {
	userID, err := httpx.LocalString(c, "userID")
	if err != nil {
		return httpx.Unauthorized(c, "unauthorized", "Unauthorized")
	}

	var req PutProfileRequest
	if err := c.BodyParser(&req); err != nil {
		return httpx.BadRequest(c, "invalid_request_body", "Invalid request body")
	}

	name := validation.NormalizeDisplayName(req.DisplayName)
	if !validation.ValidateDisplayName(name) {
		return httpx.BadRequest(c, "invalid_display_name", "Invalid display name")
	}

	profile := &models.Profile{
		UserID:      userID,
		DisplayName: name,
		AvatarURL:   req.AvatarURL,
	}
	if err := h.chatService.PutProfile(c.Context(), profile); err != nil {
		return httpx.BadRequest(c, "update_profile_failed", err.Error())
	}

	return c.JSON(fiber.Map{
		"profile": profile,
	})
}

// GetProfile returns a user's public profile by id.
func (h *ProfileHandler) GetProfile(c *fiber.Ctx) error {
	userID := strings.TrimSpace(c.Params("id"))
	if !validation.ValidateID(userID) {
		return httpx.BadRequest(c, "invalid_user_id", "Invalid user id")
	}

	profile, err := h.chatService.GetProfile(c.Context(), userID)
	if err != nil {
		if errors.Is(err, repository.ErrProfileNotFound) {
			return httpx.NotFound(c, "profile_not_found", "Profile not found")
		}
		return httpx.Internal(c, "fetch_profile_failed")
	}

	// ETag allows clients to re-check frequently without re-downloading.
	etag := fmt.Sprintf("W/\"p-%s-%d\"", profile.UserID, profile.UpdatedAt.UTC().UnixNano())
	c.Set("ETag", etag)
	c.Set("Cache-Control", "private, max-age=0, must-revalidate")

	if inm := strings.TrimSpace(c.Get("If-None-Match")); inm != "" {
		// Support quoted, weak, and multi-value headers.
		inmNorm := strings.Trim(strings.TrimPrefix(inm, "W/"), "\"")
		etagNorm := strings.Trim(strings.TrimPrefix(etag, "W/"), "\"")
		if strings.Contains(inmNorm, etagNorm) {
			return c.SendStatus(fiber.StatusNotModified)
		}
	}

	return c.JSON(fiber.Map{
		"profile": profile,
	})
}
